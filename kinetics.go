/*
Copyright © 2026 the Reaktoro-Go authors.
This file is part of Reaktoro-Go.

Reaktoro-Go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Reaktoro-Go is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Reaktoro-Go.  If not, see <http://www.gnu.org/licenses/>.
*/

package reaktoro

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RateFunction evaluates the right-hand side of a rate equation
// y'(t) = f(t, y), writing the derivative into dyOut.
type RateFunction func(t float64, y, dyOut []float64) error

// IntegratorStats carries the diagnostics of an integration run.
type IntegratorStats struct {
	Steps       int
	Rejected    int
	Evaluations int
}

// RateIntegrator advances an ODE system over a time interval. It is
// the collaborator contract consumed by the kinetic path; the default
// implementation is an embedded Runge-Kutta-Fehlberg pair.
type RateIntegrator interface {
	Integrate(t, tEnd float64, y []float64, f RateFunction) (IntegratorStats, error)
}

// RKF45 is an adaptive Runge-Kutta-Fehlberg 4(5) integrator.
type RKF45 struct {
	AbsTol   float64 // absolute tolerance; default 1e-10
	RelTol   float64 // relative tolerance; default 1e-6
	MinStep  float64 // abort below this step size; default (tEnd-t)·1e-12
	MaxSteps int     // abort after this many steps; default 100000
}

// Fehlberg tableau.
var (
	rkfA = [6][5]float64{
		{},
		{1.0 / 4},
		{3.0 / 32, 9.0 / 32},
		{1932.0 / 2197, -7200.0 / 2197, 7296.0 / 2197},
		{439.0 / 216, -8, 3680.0 / 513, -845.0 / 4104},
		{-8.0 / 27, 2, -3544.0 / 2565, 1859.0 / 4104, -11.0 / 40},
	}
	rkfC  = [6]float64{0, 1.0 / 4, 3.0 / 8, 12.0 / 13, 1, 1.0 / 2}
	rkfB4 = [6]float64{25.0 / 216, 0, 1408.0 / 2565, 2197.0 / 4104, -1.0 / 5, 0}
	rkfB5 = [6]float64{16.0 / 135, 0, 6656.0 / 12825, 28561.0 / 56430, -9.0 / 50, 2.0 / 55}
)

// Integrate implements RateIntegrator. y is advanced in place from t to
// tEnd.
func (rk RKF45) Integrate(t, tEnd float64, y []float64, f RateFunction) (IntegratorStats, error) {
	abstol, reltol := rk.AbsTol, rk.RelTol
	if abstol <= 0 {
		abstol = 1e-10
	}
	if reltol <= 0 {
		reltol = 1e-6
	}
	maxSteps := rk.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 100000
	}
	minStep := rk.MinStep
	if minStep <= 0 {
		minStep = (tEnd - t) * 1e-12
	}

	n := len(y)
	k := make([][]float64, 6)
	for i := range k {
		k[i] = make([]float64, n)
	}
	ytmp := make([]float64, n)
	y4 := make([]float64, n)
	y5 := make([]float64, n)

	var stats IntegratorStats
	h := (tEnd - t) / 10

	for t < tEnd {
		if stats.Steps >= maxSteps {
			return stats, &NonConvergenceError{Point: -1, Iterations: stats.Steps, Residual: tEnd - t}
		}
		if h < minStep {
			return stats, fmt.Errorf("reaktoro: RKF45: step size %g underflow at t=%g", h, t)
		}
		if t+h > tEnd {
			h = tEnd - t
		}

		for stage := 0; stage < 6; stage++ {
			copy(ytmp, y)
			for prev := 0; prev < stage; prev++ {
				c := h * rkfA[stage][prev]
				for i := 0; i < n; i++ {
					ytmp[i] += c * k[prev][i]
				}
			}
			if err := f(t+rkfC[stage]*h, ytmp, k[stage]); err != nil {
				return stats, err
			}
			stats.Evaluations++
		}

		errNorm := 0.0
		for i := 0; i < n; i++ {
			var d4, d5 float64
			for stage := 0; stage < 6; stage++ {
				d4 += rkfB4[stage] * k[stage][i]
				d5 += rkfB5[stage] * k[stage][i]
			}
			y4[i] = y[i] + h*d4
			y5[i] = y[i] + h*d5
			sc := abstol + reltol*math.Abs(y[i])
			errNorm = math.Max(errNorm, math.Abs(y5[i]-y4[i])/sc)
		}

		if errNorm <= 1 {
			copy(y, y5)
			t += h
			stats.Steps++
		} else {
			stats.Rejected++
		}
		if errNorm > 0 {
			h *= math.Min(4, math.Max(0.1, 0.9*math.Pow(1/errNorm, 0.2)))
		} else {
			h *= 4
		}
	}
	return stats, nil
}

// KineticPath advances the kinetic species of a chemical state through
// the rate laws of a reaction system. The equilibrium-partition
// amounts of the state are the fixed background composition during a
// step.
type KineticPath struct {
	reactions  *ReactionSystem
	partition  *Partition
	thermo     ThermoModel
	integrator RateIntegrator
}

// NewKineticPath creates a kinetic path for the given reaction system
// and partition, with the ideal activity model and the default RKF45
// integrator.
func NewKineticPath(reactions *ReactionSystem, partition *Partition) *KineticPath {
	return &KineticPath{
		reactions:  reactions,
		partition:  partition,
		thermo:     NewIdealModel(reactions.System()),
		integrator: RKF45{},
	}
}

// SetThermoModel replaces the activity model of the path.
func (kp *KineticPath) SetThermoModel(m ThermoModel) { kp.thermo = m }

// SetIntegrator replaces the rate integrator of the path.
func (kp *KineticPath) SetIntegrator(in RateIntegrator) { kp.integrator = in }

// Advance integrates the kinetic species amounts of state from time t
// to t+dt, where dnₖ/dt = Σᵣ νᵣₖ·rateᵣ. The state is updated in place.
func (kp *KineticPath) Advance(state *ChemicalState, t, dt float64) (IntegratorStats, error) {
	ikinetic := kp.partition.KineticSpecies()
	if len(ikinetic) == 0 {
		return IntegratorStats{}, nil
	}
	T, P := state.Temperature(), state.Pressure()
	n := state.SpeciesAmounts()

	y := make([]float64, len(ikinetic))
	for k, i := range ikinetic {
		y[k] = n.AtVec(i)
	}

	rhs := func(_ float64, y, dy []float64) error {
		for k, i := range ikinetic {
			n.SetVec(i, math.Max(y[k], 0))
		}
		a, err := kp.thermo.Activities(T, P, n)
		if err != nil {
			return err
		}
		rates, err := kp.reactions.Rates(T, P, n, a)
		if err != nil {
			return err
		}
		for k := range dy {
			dy[k] = 0
		}
		for ri, r := range kp.reactions.Reactions() {
			for j, i := range r.Indices() {
				for k, ik := range ikinetic {
					if i == ik {
						dy[k] += r.Stoichiometries()[j] * rates[ri].Val
					}
				}
			}
		}
		return nil
	}

	stats, err := kp.integrator.Integrate(t, t+dt, y, rhs)
	if err != nil {
		return stats, err
	}
	nk := mat.VecDenseCopyOf(state.SpeciesAmounts())
	for k, i := range ikinetic {
		nk.SetVec(i, math.Max(y[k], 0))
	}
	return stats, state.SetSpeciesAmounts(nk)
}
