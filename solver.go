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
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// ChemicalSolver batches equilibrium and kinetics calculations over a
// field of sample points. Every point holds its own chemical state;
// points are independent, so the per-point calculations are dispatched
// across a worker pool sized to the available cores. The chemical
// system, partition, and activity model are shared read-only across
// workers.
type ChemicalSolver struct {
	system    *ChemicalSystem
	reactions *ReactionSystem
	partition *Partition
	thermo    ThermoModel
	minimizer OptimumSolver
	options   EquilibriumOptions

	size   int
	states []*ChemicalState

	kinetics *KineticPath

	// Logger receives progress and per-point failure reports. It
	// defaults to the logrus standard logger.
	Logger *logrus.Logger
}

// NewChemicalSolver creates a field solver for the given chemical
// system with the given number of field points. All species start as
// equilibrium species; use SetPartition to move some to the kinetic or
// inert subsets.
func NewChemicalSolver(system *ChemicalSystem, size int) (*ChemicalSolver, error) {
	if size <= 0 {
		return nil, fmt.Errorf("reaktoro: field size must be positive, got %d", size)
	}
	s := &ChemicalSolver{
		system:    system,
		thermo:    NewIdealModel(system),
		minimizer: NewtonSolver{},
		options:   DefaultEquilibriumOptions(),
		size:      size,
		states:    make([]*ChemicalState, size),
		Logger:    logrus.StandardLogger(),
	}
	for i := range s.states {
		s.states[i] = NewChemicalState(system)
	}
	s.partition = NewPartition(system)
	return s, nil
}

// NewReactionChemicalSolver creates a field solver for the chemical
// system underlying the given reaction system; the reactions supply
// the kinetic rate laws used by React.
func NewReactionChemicalSolver(reactions *ReactionSystem, size int) (*ChemicalSolver, error) {
	s, err := NewChemicalSolver(reactions.System(), size)
	if err != nil {
		return nil, err
	}
	s.reactions = reactions
	return s, nil
}

// Size returns the number of field points.
func (s *ChemicalSolver) Size() int { return s.size }

// System returns the chemical system of the solver.
func (s *ChemicalSolver) System() *ChemicalSystem { return s.system }

// Partition returns the current partition of the solver.
func (s *ChemicalSolver) Partition() *Partition { return s.partition }

// SetPartition replaces the partitioning of the chemical system.
func (s *ChemicalSolver) SetPartition(p *Partition) error {
	if p.System() != s.system {
		return fmt.Errorf("reaktoro: partition was built for a different chemical system")
	}
	s.partition = p
	if s.reactions != nil {
		s.kinetics = NewKineticPath(s.reactions, p)
		s.kinetics.SetThermoModel(s.thermo)
	}
	return nil
}

// SetThermoModel replaces the activity model shared by all points.
func (s *ChemicalSolver) SetThermoModel(m ThermoModel) {
	s.thermo = m
	if s.kinetics != nil {
		s.kinetics.SetThermoModel(m)
	}
}

// SetMinimizer replaces the constrained minimizer used per point.
func (s *ChemicalSolver) SetMinimizer(m OptimumSolver) { s.minimizer = m }

// SetOptions replaces the per-point equilibrium options.
func (s *ChemicalSolver) SetOptions(o EquilibriumOptions) { s.options = o }

// State returns the chemical state of field point i.
func (s *ChemicalSolver) State(i int) *ChemicalState { return s.states[i] }

// SetState sets the chemical state of every field point to a copy of
// state.
func (s *ChemicalSolver) SetState(state *ChemicalState) error {
	if state.System() != s.system {
		return fmt.Errorf("reaktoro: state belongs to a different chemical system")
	}
	for i := range s.states {
		s.states[i] = state.Clone()
	}
	return nil
}

// SetStateAt sets the chemical state of the listed field points to a
// copy of state, leaving all other points untouched.
func (s *ChemicalSolver) SetStateAt(state *ChemicalState, indices []int) error {
	if state.System() != s.system {
		return fmt.Errorf("reaktoro: state belongs to a different chemical system")
	}
	for _, i := range indices {
		if i < 0 || i >= s.size {
			return fmt.Errorf("reaktoro: field point index %d out of range [0,%d)", i, s.size)
		}
	}
	for _, i := range indices {
		s.states[i] = state.Clone()
	}
	return nil
}

// newEquilibriumSolver builds a per-worker equilibrium solver sharing
// the solver's read-only collaborators.
func (s *ChemicalSolver) newEquilibriumSolver() *EquilibriumSolver {
	es := NewEquilibriumSolver(s.system)
	es.SetPartition(s.partition)
	es.SetThermoModel(s.thermo)
	es.SetMinimizer(s.minimizer)
	es.SetOptions(s.options)
	return es
}

// Equilibrate solves an equilibrium problem at every field point i at
// temperature T[i] [K], pressure P[i] [Pa], and equilibrium-element
// amounts be[i·Eₑ:(i+1)·Eₑ] [mol] (row-major N×Eₑ), warm-starting each
// point from its current state. Points are independent and are solved
// in parallel. Per-point failures are collected into the returned
// FieldErrors; converged points keep their new states and
// sensitivities.
func (s *ChemicalSolver) Equilibrate(T, P, be []float64) error {
	Ee := s.partition.NumEquilibriumElements()
	if len(T) != s.size {
		return &DimensionError{Op: "Equilibrate(T)", Got: len(T), Want: s.size}
	}
	if len(P) != s.size {
		return &DimensionError{Op: "Equilibrate(P)", Got: len(P), Want: s.size}
	}
	if len(be) != s.size*Ee {
		return &DimensionError{Op: "Equilibrate(be)", Got: len(be), Want: s.size * Ee}
	}

	start := time.Now()
	nprocs := runtime.GOMAXPROCS(0)
	var (
		wg   sync.WaitGroup
		mx   sync.Mutex
		errs FieldErrors
	)
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			es := s.newEquilibriumSolver()
			for i := pp; i < s.size; i += nprocs {
				bei := mat.NewVecDense(Ee, nil)
				for j := 0; j < Ee; j++ {
					bei.SetVec(j, be[i*Ee+j])
				}
				if _, err := es.Solve(s.states[i], T[i], P[i], bei); err != nil {
					pe, ok := err.(*NonConvergenceError)
					if !ok {
						pe = &NonConvergenceError{Err: err}
					}
					pe.Point = i
					mx.Lock()
					errs = append(errs, pe)
					mx.Unlock()
					s.Logger.WithFields(logrus.Fields{
						"point": i, "err": err,
					}).Debug("equilibrate: point failed")
				}
			}
		}(pp)
	}
	wg.Wait()

	s.Logger.WithFields(logrus.Fields{
		"points":   s.size,
		"failures": len(errs),
		"walltime": time.Since(start),
	}).Debug("equilibrate: field pass done")

	if len(errs) > 0 {
		sort.Slice(errs, func(a, b int) bool { return errs[a].Point < errs[b].Point })
		return errs
	}
	return nil
}

// React advances the kinetic reactions at every field point by the
// time step dt [s] starting from time t [s], integrating the kinetic
// species amounts forward against each point's current
// equilibrium-partition state. Points are independent and run in
// parallel.
func (s *ChemicalSolver) React(t, dt float64) error {
	if s.reactions == nil {
		return fmt.Errorf("reaktoro: React needs a solver constructed from a reaction system")
	}
	if s.kinetics == nil {
		s.kinetics = NewKineticPath(s.reactions, s.partition)
		s.kinetics.SetThermoModel(s.thermo)
	}
	start := time.Now()
	nprocs := runtime.GOMAXPROCS(0)
	var (
		wg   sync.WaitGroup
		mx   sync.Mutex
		errs FieldErrors
	)
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			kp := NewKineticPath(s.reactions, s.partition)
			kp.SetThermoModel(s.thermo)
			for i := pp; i < s.size; i += nprocs {
				if _, err := kp.Advance(s.states[i], t, dt); err != nil {
					pe, ok := err.(*NonConvergenceError)
					if !ok {
						pe = &NonConvergenceError{Err: err}
					}
					pe.Point = i
					mx.Lock()
					errs = append(errs, pe)
					mx.Unlock()
					s.Logger.WithFields(logrus.Fields{
						"point": i, "err": err,
					}).Debug("react: point failed")
				}
			}
		}(pp)
	}
	wg.Wait()

	s.Logger.WithFields(logrus.Fields{
		"points":   s.size,
		"failures": len(errs),
		"dt":       dt,
		"walltime": time.Since(start),
	}).Debug("react: field pass done")

	if len(errs) > 0 {
		sort.Slice(errs, func(a, b int) bool { return errs[a].Point < errs[b].Point })
		return errs
	}
	return nil
}

// pointQuantity evaluates a scalar quantity and its full species-amount
// gradient at one state.
type pointQuantity func(st *ChemicalState) (val float64, dqdn *mat.VecDense, err error)

// computeField evaluates quantity at every field point. With withDiff
// set it also propagates the per-point state sensitivities into the
// field's ddt, ddp, ddbe, and ddnk blocks; the value entries are
// computed by the identical code path either way.
func (s *ChemicalSolver) computeField(withDiff bool, quantity pointQuantity) (*ChemicalField, error) {
	Ee := s.partition.NumEquilibriumElements()
	Nk := s.partition.NumKineticSpecies()
	f := newChemicalField(s.size, Ee, Nk, withDiff)

	ispecies := s.partition.EquilibriumSpecies()
	for i := 0; i < s.size; i++ {
		st := s.states[i]
		val, dqdn, err := quantity(st)
		if err != nil {
			return nil, fmt.Errorf("reaktoro: field point %d: %v", i, err)
		}
		f.Val[i] = val
		if !withDiff {
			continue
		}
		sens := st.Sensitivity()
		if sens == nil {
			return nil, fmt.Errorf("reaktoro: field point %d has no equilibrium sensitivities; call Equilibrate first", i)
		}
		// Chain through the equilibrium state: q depends on T, P, and
		// bₑ only via the equilibrium amounts nₑ.
		var ddt, ddp float64
		for k, isp := range ispecies {
			ddt += dqdn.AtVec(isp) * sens.Dndt.AtVec(k)
			ddp += dqdn.AtVec(isp) * sens.Dndp.AtVec(k)
		}
		f.Ddt[i] = ddt
		f.Ddp[i] = ddp
		for j := 0; j < Ee; j++ {
			var d float64
			for k, isp := range ispecies {
				d += dqdn.AtVec(isp) * sens.Dndb.At(k, j)
			}
			f.Ddbe.Set(d, i, j)
		}
		for kk, ik := range s.partition.KineticSpecies() {
			f.Ddnk.Set(dqdn.AtVec(ik), i, kk)
		}
	}
	return f, nil
}

// porosityAt computes 1 - Vsolid/Vtotal and its amount gradient at one
// state, from the standard molar volumes of the species.
func (s *ChemicalSolver) porosityAt(st *ChemicalState) (float64, *mat.VecDense, error) {
	var vs, vt float64
	for k := range s.system.Phases() {
		v := st.PhaseVolume(k)
		vt += v
		if !s.system.Phases()[k].Fluid {
			vs += v
		}
	}
	if vt <= 0 {
		return 0, nil, fmt.Errorf("porosity undefined: total volume is %g", vt)
	}
	dqdn := mat.NewVecDense(s.system.NumSpecies(), nil)
	for i := 0; i < s.system.NumSpecies(); i++ {
		vi := s.system.Species()[i].MolarVolume
		var dvs float64
		if !s.system.Phases()[s.system.SpeciesPhase(i)].Fluid {
			dvs = vi
		}
		dqdn.SetVec(i, -(dvs*vt-vs*vi)/(vt*vt))
	}
	return 1 - vs/vt, dqdn, nil
}

// saturationAt computes Vphase/Vfluid and its amount gradient at one
// state.
func (s *ChemicalSolver) saturationAt(st *ChemicalState, iphase int) (float64, *mat.VecDense, error) {
	var vf float64
	for k := range s.system.Phases() {
		if s.system.Phases()[k].Fluid {
			vf += st.PhaseVolume(k)
		}
	}
	if vf <= 0 {
		return 0, nil, fmt.Errorf("saturation undefined: fluid volume is %g", vf)
	}
	vp := st.PhaseVolume(iphase)
	dqdn := mat.NewVecDense(s.system.NumSpecies(), nil)
	for i := 0; i < s.system.NumSpecies(); i++ {
		if !s.system.Phases()[s.system.SpeciesPhase(i)].Fluid {
			continue
		}
		vi := s.system.Species()[i].MolarVolume
		var dvp float64
		if s.system.SpeciesPhase(i) == iphase {
			dvp = vi
		}
		dqdn.SetVec(i, (dvp*vf-vp*vi)/(vf*vf))
	}
	return vp / vf, dqdn, nil
}

// densityAt computes mass/volume of a phase and its amount gradient at
// one state.
func (s *ChemicalSolver) densityAt(st *ChemicalState, iphase int) (float64, *mat.VecDense, error) {
	vp := st.PhaseVolume(iphase)
	if vp <= 0 {
		return 0, nil, fmt.Errorf("density undefined: phase %s volume is %g",
			s.system.Phases()[iphase].Name, vp)
	}
	mass := st.PhaseMass(iphase)
	dqdn := mat.NewVecDense(s.system.NumSpecies(), nil)
	for _, i := range s.system.PhaseSpecies(iphase) {
		mi := s.system.SpeciesMolarMass(i)
		vi := s.system.Species()[i].MolarVolume
		dqdn.SetVec(i, (mi*vp-mass*vi)/(vp*vp))
	}
	return mass / vp, dqdn, nil
}

func (s *ChemicalSolver) checkFluidPhase(op string, iphase int) error {
	if iphase < 0 || iphase >= s.system.NumPhases() {
		return fmt.Errorf("reaktoro: %s: phase index %d out of range [0,%d)", op, iphase, s.system.NumPhases())
	}
	if !s.system.Phases()[iphase].Fluid {
		return fmt.Errorf("reaktoro: %s: phase %s is not a fluid phase", op, s.system.Phases()[iphase].Name)
	}
	return nil
}

// Porosity computes the porosity field from the current per-point
// states.
func (s *ChemicalSolver) Porosity() (*ChemicalField, error) {
	return s.computeField(false, s.porosityAt)
}

// PorosityWithDiff computes the porosity field and its sensitivity
// rows.
func (s *ChemicalSolver) PorosityWithDiff() (*ChemicalField, error) {
	return s.computeField(true, s.porosityAt)
}

// Saturation computes the saturation field of the fluid phase with
// index iphase.
func (s *ChemicalSolver) Saturation(iphase int) (*ChemicalField, error) {
	if err := s.checkFluidPhase("Saturation", iphase); err != nil {
		return nil, err
	}
	return s.computeField(false, func(st *ChemicalState) (float64, *mat.VecDense, error) {
		return s.saturationAt(st, iphase)
	})
}

// SaturationWithDiff computes the saturation field of a fluid phase
// and its sensitivity rows.
func (s *ChemicalSolver) SaturationWithDiff(iphase int) (*ChemicalField, error) {
	if err := s.checkFluidPhase("SaturationWithDiff", iphase); err != nil {
		return nil, err
	}
	return s.computeField(true, func(st *ChemicalState) (float64, *mat.VecDense, error) {
		return s.saturationAt(st, iphase)
	})
}

// Density computes the density field of the fluid phase with index
// iphase.
func (s *ChemicalSolver) Density(iphase int) (*ChemicalField, error) {
	if err := s.checkFluidPhase("Density", iphase); err != nil {
		return nil, err
	}
	return s.computeField(false, func(st *ChemicalState) (float64, *mat.VecDense, error) {
		return s.densityAt(st, iphase)
	})
}

// DensityWithDiff computes the density field of a fluid phase and its
// sensitivity rows.
func (s *ChemicalSolver) DensityWithDiff(iphase int) (*ChemicalField, error) {
	if err := s.checkFluidPhase("DensityWithDiff", iphase); err != nil {
		return nil, err
	}
	return s.computeField(true, func(st *ChemicalState) (float64, *mat.VecDense, error) {
		return s.densityAt(st, iphase)
	})
}
