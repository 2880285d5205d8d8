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

// EquilibriumOptions control an equilibrium calculation.
type EquilibriumOptions struct {
	Optimum OptimumOptions

	// Epsilon seeds nonpositive species amounts in the warm start.
	Epsilon float64
}

// DefaultEquilibriumOptions returns the options used when none are
// given.
func DefaultEquilibriumOptions() EquilibriumOptions {
	return EquilibriumOptions{
		Optimum: OptimumOptions{MaxIterations: 200, Tolerance: 1e-10},
		Epsilon: 1e-7,
	}
}

// EquilibriumResult carries the diagnostics of an equilibrium
// calculation.
type EquilibriumResult struct {
	Iterations int
	Residual   float64
}

// EquilibriumSolver calculates the equilibrium state of the
// equilibrium partition of a chemical system by minimizing its Gibbs
// energy subject to elemental mass balance, through a pluggable
// OptimumSolver. Solvers are not safe for concurrent use; create one
// per goroutine.
type EquilibriumSolver struct {
	system    *ChemicalSystem
	partition *Partition
	thermo    ThermoModel
	minimizer OptimumSolver
	options   EquilibriumOptions

	// Ae is the formula matrix of the equilibrium partition.
	Ae *mat.Dense

	// warm-start carried between calls on the same solver
	optimum OptimumState
}

// NewEquilibriumSolver creates an equilibrium solver for the whole
// system treated as the equilibrium partition, with the ideal activity
// model and the default Newton minimizer. Use the Set methods to
// replace any collaborator before the first Solve call.
func NewEquilibriumSolver(system *ChemicalSystem) *EquilibriumSolver {
	s := &EquilibriumSolver{
		system:    system,
		thermo:    NewIdealModel(system),
		minimizer: NewtonSolver{},
		options:   DefaultEquilibriumOptions(),
	}
	s.SetPartition(NewPartition(system))
	return s
}

// SetPartition replaces the partition of the solver.
func (s *EquilibriumSolver) SetPartition(p *Partition) {
	s.partition = p
	s.Ae, _ = p.EquilibriumFormulaMatrix(s.system.formulaMatrix)
	s.optimum = OptimumState{}
}

// SetThermoModel replaces the activity model of the solver.
func (s *EquilibriumSolver) SetThermoModel(m ThermoModel) { s.thermo = m }

// SetMinimizer replaces the constrained minimizer of the solver.
func (s *EquilibriumSolver) SetMinimizer(m OptimumSolver) { s.minimizer = m }

// SetOptions replaces the options of the solver.
func (s *EquilibriumSolver) SetOptions(o EquilibriumOptions) { s.options = o }

// Partition returns the partition of the solver.
func (s *EquilibriumSolver) Partition() *Partition { return s.partition }

// gradient evaluates the scaled chemical potentials
// gᵢ = μ°ᵢ/(RT) + ln aᵢ of the equilibrium species at (T, P) with the
// equilibrium amounts ne substituted into the background amounts n.
// When H is non-nil it is filled with dgᵢ/dnⱼ over the equilibrium
// subset.
func (s *EquilibriumSolver) gradient(T, P float64, n, ne *mat.VecDense, g *mat.VecDense, H *mat.Dense) error {
	ispecies := s.partition.EquilibriumSpecies()
	for k, i := range ispecies {
		n.SetVec(i, ne.AtVec(k))
	}
	u0 := s.thermo.StandardChemicalPotentials(T, P)
	a, err := s.thermo.Activities(T, P, n)
	if err != nil {
		return err
	}
	RT := universalGasConstant * T
	for k, i := range ispecies {
		ai := a.Val.AtVec(i)
		if ai <= 0 {
			return fmt.Errorf("reaktoro: equilibrium: nonpositive activity %g for species %s",
				ai, s.system.Species()[i].Name)
		}
		g.SetVec(k, u0.AtVec(i)/RT+math.Log(ai))
		if H != nil {
			for l, j := range ispecies {
				H.Set(k, l, a.Ddn.At(i, j)/ai)
			}
		}
	}
	return nil
}

// Solve equilibrates the equilibrium partition of state at temperature
// T [K], pressure P [Pa], and equilibrium-element amounts be [mol],
// warm-starting from the state's current species amounts. On success
// the state holds the equilibrium amounts and their sensitivities.
func (s *EquilibriumSolver) Solve(state *ChemicalState, T, P float64, be *mat.VecDense) (EquilibriumResult, error) {
	Ne := s.partition.NumEquilibriumSpecies()
	Ee := s.partition.NumEquilibriumElements()
	if be.Len() != Ee {
		return EquilibriumResult{}, &DimensionError{Op: "EquilibriumSolver.Solve", Got: be.Len(), Want: Ee}
	}

	// Warm start from the state's current amounts, seeding absent
	// species with a small positive amount.
	n := state.SpeciesAmounts()
	ne := mat.NewVecDense(Ne, nil)
	for k, i := range s.partition.EquilibriumSpecies() {
		ne.SetVec(k, math.Max(n.AtVec(i), s.options.Epsilon))
	}

	scratch := mat.VecDenseCopyOf(n)
	objective := func(x *mat.VecDense) (float64, *mat.VecDense, *mat.Dense, error) {
		g := mat.NewVecDense(Ne, nil)
		H := mat.NewDense(Ne, Ne, nil)
		if err := s.gradient(T, P, scratch, x, g, H); err != nil {
			return 0, nil, nil, err
		}
		// Scaled Gibbs energy G/(RT) = Σ nᵢ·gᵢ; this relies on the
		// activity model satisfying the Gibbs-Duhem relation, so that
		// g is also the exact gradient.
		f := mat.Dot(x, g)
		return f, g, H, nil
	}

	problem := OptimumProblem{Objective: objective, A: s.Ae, B: be, LowerBound: 0}
	s.optimum.X = ne
	result, err := s.minimizer.Solve(problem, &s.optimum, s.options.Optimum)
	if err != nil {
		return EquilibriumResult{Iterations: result.Iterations, Residual: result.Residual}, err
	}

	for k, i := range s.partition.EquilibriumSpecies() {
		n.SetVec(i, s.optimum.X.AtVec(k))
	}
	state.SetSpeciesAmounts(n)
	state.SetTemperature(T)
	state.SetPressure(P)

	sens, err := s.sensitivities(T, P, n, s.optimum.X, s.optimum.H)
	if err != nil {
		return EquilibriumResult{Iterations: result.Iterations, Residual: result.Residual}, err
	}
	state.sensitivity = sens

	return EquilibriumResult{Iterations: result.Iterations, Residual: result.Residual}, nil
}

// sensitivities differentiates the converged KKT conditions to obtain
// dnₑ/dT, dnₑ/dP, and dnₑ/dbₑ. The temperature and pressure
// derivatives of the gradient are approximated by central differences
// of the gradient closure; the elemental derivatives are exact.
func (s *EquilibriumSolver) sensitivities(T, P float64, n, ne *mat.VecDense, H *mat.Dense) (*EquilibriumSensitivity, error) {
	Ne := ne.Len()
	Ee := s.partition.NumEquilibriumElements()
	dim := Ne + Ee

	// K = [H  -Aᵀ; A  0], the Jacobian of the KKT conditions.
	K := mat.NewDense(dim, dim, nil)
	for i := 0; i < Ne; i++ {
		for j := 0; j < Ne; j++ {
			K.Set(i, j, H.At(i, j))
		}
		for j := 0; j < Ee; j++ {
			K.Set(i, Ne+j, -s.Ae.At(j, i))
			K.Set(Ne+j, i, s.Ae.At(j, i))
		}
	}
	var lu mat.LU
	lu.Factorize(K)

	scratch := mat.VecDenseCopyOf(n)
	gradAt := func(t, p float64) (*mat.VecDense, error) {
		g := mat.NewVecDense(Ne, nil)
		err := s.gradient(t, p, scratch, ne, g, nil)
		return g, err
	}

	// dnₑ/dbₑ: K·[dn/db; dy/db] = [0; I].
	rhsB := mat.NewDense(dim, Ee, nil)
	for j := 0; j < Ee; j++ {
		rhsB.Set(Ne+j, j, 1)
	}
	solB := mat.NewDense(dim, Ee, nil)
	if err := lu.SolveTo(solB, false, rhsB); err != nil {
		// mat.Condition is advisory; the factorization already
		// served the equilibrium solve.
		if _, ok := err.(mat.Condition); !ok {
			return nil, fmt.Errorf("reaktoro: equilibrium sensitivities: %v", err)
		}
	}
	dndb := mat.DenseCopyOf(solB.Slice(0, Ne, 0, Ee))

	solveVec := func(dg *mat.VecDense) (*mat.VecDense, error) {
		rhs := mat.NewVecDense(dim, nil)
		for i := 0; i < Ne; i++ {
			rhs.SetVec(i, -dg.AtVec(i))
		}
		sol := mat.NewVecDense(dim, nil)
		if err := lu.SolveVecTo(sol, false, rhs); err != nil {
			if _, ok := err.(mat.Condition); !ok {
				return nil, fmt.Errorf("reaktoro: equilibrium sensitivities: %v", err)
			}
		}
		out := mat.NewVecDense(Ne, nil)
		for i := 0; i < Ne; i++ {
			out.SetVec(i, sol.AtVec(i))
		}
		return out, nil
	}

	const relStep = 6e-6 // cube root of machine epsilon
	hT := relStep * math.Max(math.Abs(T), 1)
	gTp, err := gradAt(T+hT, P)
	if err != nil {
		return nil, err
	}
	gTm, err := gradAt(T-hT, P)
	if err != nil {
		return nil, err
	}
	dgdT := mat.NewVecDense(Ne, nil)
	dgdT.SubVec(gTp, gTm)
	dgdT.ScaleVec(1/(2*hT), dgdT)
	dndt, err := solveVec(dgdT)
	if err != nil {
		return nil, err
	}

	hP := relStep * math.Max(math.Abs(P), 1)
	gPp, err := gradAt(T, P+hP)
	if err != nil {
		return nil, err
	}
	gPm, err := gradAt(T, P-hP)
	if err != nil {
		return nil, err
	}
	dgdP := mat.NewVecDense(Ne, nil)
	dgdP.SubVec(gPp, gPm)
	dgdP.ScaleVec(1/(2*hP), dgdP)
	dndp, err := solveVec(dgdP)
	if err != nil {
		return nil, err
	}

	return &EquilibriumSensitivity{Dndt: dndt, Dndp: dndp, Dndb: dndb}, nil
}
