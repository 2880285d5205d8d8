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

type constraintKind int

const (
	speciesActivityConstraint constraintKind = iota
	speciesAmountConstraint
	phaseAmountConstraint
	phaseVolumeConstraint
)

type constraint struct {
	kind   constraintKind
	index  int // species or phase index, depending on kind
	target float64
}

type titrant struct {
	name    string
	formula map[string]float64
}

// ResidualEquilibriumConstraints is the result of evaluating the
// equilibrium constraints of an inverse problem: residual values,
// their derivatives with respect to the titrant amounts x, and their
// derivatives with respect to the species amounts n. Residuals follow
// the convention measured − target, and both Jacobian blocks are
// consistent with that sign.
type ResidualEquilibriumConstraints struct {
	Val *mat.VecDense // residuals (C)
	Ddx *mat.Dense    // d(residual)/dx through the titrant chain (C×T)
	Ddn *mat.Dense    // d(residual)/dn read directly off the state (C×S)
}

// EquilibriumInverseProblem defines an inverse equilibrium problem:
// equilibrium constraints whose targets must be met by adjusting the
// unknown amounts of registered titrants. The problem has a two-state
// lifecycle: constraints and titrants accumulate while building, and
// the first residual evaluation seals the problem. Add operations on a
// sealed problem fail.
type EquilibriumInverseProblem struct {
	system    *ChemicalSystem
	partition *Partition
	thermo    ThermoModel
	database  *Database

	constraints  []constraint
	titrants     []titrant
	titrantIndex map[string]int
	exclusive    [][2]int

	b0     *mat.VecDense // initial equilibrium-element amounts
	sealed bool
}

// NewEquilibriumInverseProblem creates an empty inverse problem over
// the given system with the default all-equilibrium partition, the
// ideal activity model, and the built-in compound database.
func NewEquilibriumInverseProblem(system *ChemicalSystem) *EquilibriumInverseProblem {
	return &EquilibriumInverseProblem{
		system:       system,
		partition:    NewPartition(system),
		thermo:       NewIdealModel(system),
		database:     DefaultDatabase(),
		titrantIndex: make(map[string]int),
	}
}

// SetPartition replaces the partition of the problem.
func (p *EquilibriumInverseProblem) SetPartition(partition *Partition) { p.partition = partition }

// SetThermoModel replaces the activity model used to evaluate
// species-activity constraints.
func (p *EquilibriumInverseProblem) SetThermoModel(m ThermoModel) { p.thermo = m }

// SetDatabase replaces the compound database used to resolve titrant
// formulas by name.
func (p *EquilibriumInverseProblem) SetDatabase(d *Database) { p.database = d }

func (p *EquilibriumInverseProblem) checkBuilding(op string) error {
	if p.sealed {
		return fmt.Errorf("reaktoro: inverse problem: %s after the first residual evaluation", op)
	}
	return nil
}

// AddSpeciesActivityConstraint constrains the activity of the named
// species to the given value.
func (p *EquilibriumInverseProblem) AddSpeciesActivityConstraint(species string, value float64) error {
	if err := p.checkBuilding("AddSpeciesActivityConstraint"); err != nil {
		return err
	}
	i, ok := p.system.IndexSpecies(species)
	if !ok {
		return fmt.Errorf("reaktoro: inverse problem: unknown species %s", species)
	}
	p.constraints = append(p.constraints, constraint{speciesActivityConstraint, i, value})
	return nil
}

// AddSpeciesAmountConstraint constrains the molar amount of the named
// species to the given value [mol].
func (p *EquilibriumInverseProblem) AddSpeciesAmountConstraint(species string, value float64) error {
	if err := p.checkBuilding("AddSpeciesAmountConstraint"); err != nil {
		return err
	}
	i, ok := p.system.IndexSpecies(species)
	if !ok {
		return fmt.Errorf("reaktoro: inverse problem: unknown species %s", species)
	}
	p.constraints = append(p.constraints, constraint{speciesAmountConstraint, i, value})
	return nil
}

// AddPhaseAmountConstraint constrains the total molar amount of the
// named phase to the given value [mol].
func (p *EquilibriumInverseProblem) AddPhaseAmountConstraint(phase string, value float64) error {
	if err := p.checkBuilding("AddPhaseAmountConstraint"); err != nil {
		return err
	}
	k, ok := p.system.IndexPhase(phase)
	if !ok {
		return fmt.Errorf("reaktoro: inverse problem: unknown phase %s", phase)
	}
	p.constraints = append(p.constraints, constraint{phaseAmountConstraint, k, value})
	return nil
}

// AddPhaseVolumeConstraint constrains the volume of the named phase to
// the given value [m³].
func (p *EquilibriumInverseProblem) AddPhaseVolumeConstraint(phase string, value float64) error {
	if err := p.checkBuilding("AddPhaseVolumeConstraint"); err != nil {
		return err
	}
	k, ok := p.system.IndexPhase(phase)
	if !ok {
		return fmt.Errorf("reaktoro: inverse problem: unknown phase %s", phase)
	}
	p.constraints = append(p.constraints, constraint{phaseVolumeConstraint, k, value})
	return nil
}

// AddTitrantWithFormula registers a titrant with an explicit elemental
// formula, e.g. HCl as {"H": 1, "Cl": 1}.
func (p *EquilibriumInverseProblem) AddTitrantWithFormula(name string, formula map[string]float64) error {
	if err := p.checkBuilding("AddTitrantWithFormula"); err != nil {
		return err
	}
	if _, ok := p.titrantIndex[name]; ok {
		return fmt.Errorf("reaktoro: inverse problem: titrant %s already registered", name)
	}
	for element := range formula {
		if _, ok := p.system.IndexElement(element); !ok {
			return fmt.Errorf("reaktoro: inverse problem: titrant %s references unknown element %s",
				name, element)
		}
	}
	f := make(map[string]float64, len(formula))
	for element, coeff := range formula {
		f[element] = coeff
	}
	p.titrantIndex[name] = len(p.titrants)
	p.titrants = append(p.titrants, titrant{name: name, formula: f})
	return nil
}

// AddTitrant registers a titrant by name, resolving its formula from
// the species of the chemical system or, failing that, from the
// compound database. It fails if the name cannot be resolved.
func (p *EquilibriumInverseProblem) AddTitrant(name string) error {
	if err := p.checkBuilding("AddTitrant"); err != nil {
		return err
	}
	if i, ok := p.system.IndexSpecies(name); ok {
		return p.AddTitrantWithFormula(name, p.system.Species()[i].Formula)
	}
	if formula, ok := p.database.Formula(name); ok {
		return p.AddTitrantWithFormula(name, formula)
	}
	return fmt.Errorf("reaktoro: inverse problem: cannot resolve a formula for titrant %s", name)
}

// AddTitrants registers every species of the named phase as an
// individual titrant.
func (p *EquilibriumInverseProblem) AddTitrants(phase string) error {
	if err := p.checkBuilding("AddTitrants"); err != nil {
		return err
	}
	k, ok := p.system.IndexPhase(phase)
	if !ok {
		return fmt.Errorf("reaktoro: inverse problem: unknown phase %s", phase)
	}
	for _, i := range p.system.PhaseSpecies(k) {
		s := p.system.Species()[i]
		if err := p.AddTitrantWithFormula(s.Name, s.Formula); err != nil {
			return err
		}
	}
	return nil
}

// SetAsMutuallyExclusive records that at most one of the two named
// titrants may have a strictly positive amount in a feasible solution.
// This is a constraint-shape hint consumed by the outer solver; the
// problem itself does not enforce it. Both titrants must already be
// registered.
func (p *EquilibriumInverseProblem) SetAsMutuallyExclusive(titrant1, titrant2 string) error {
	if err := p.checkBuilding("SetAsMutuallyExclusive"); err != nil {
		return err
	}
	i1, ok := p.titrantIndex[titrant1]
	if !ok {
		return fmt.Errorf("reaktoro: inverse problem: mutual exclusion references unregistered titrant %s", titrant1)
	}
	i2, ok := p.titrantIndex[titrant2]
	if !ok {
		return fmt.Errorf("reaktoro: inverse problem: mutual exclusion references unregistered titrant %s", titrant2)
	}
	p.exclusive = append(p.exclusive, [2]int{i1, i2})
	return nil
}

// SetInitialElementAmounts sets the molar amounts of the equilibrium
// elements before any titrant is added. It must be called before the
// first residual evaluation.
func (p *EquilibriumInverseProblem) SetInitialElementAmounts(b0 *mat.VecDense) error {
	if err := p.checkBuilding("SetInitialElementAmounts"); err != nil {
		return err
	}
	Ee := p.partition.NumEquilibriumElements()
	if b0.Len() != Ee {
		return &DimensionError{Op: "SetInitialElementAmounts", Got: b0.Len(), Want: Ee}
	}
	p.b0 = mat.VecDenseCopyOf(b0)
	return nil
}

// Empty reports whether the problem has no equilibrium constraints.
func (p *EquilibriumInverseProblem) Empty() bool { return len(p.constraints) == 0 }

// NumConstraints returns the number of equilibrium constraints.
func (p *EquilibriumInverseProblem) NumConstraints() int { return len(p.constraints) }

// NumTitrants returns the number of registered titrants.
func (p *EquilibriumInverseProblem) NumTitrants() int { return len(p.titrants) }

// TitrantNames returns the names of the registered titrants, in
// registration order.
func (p *EquilibriumInverseProblem) TitrantNames() []string {
	names := make([]string, len(p.titrants))
	for i, t := range p.titrants {
		names[i] = t.name
	}
	return names
}

// MutuallyExclusivePairs returns the recorded mutual-exclusion pairs as
// indices into the titrant registry.
func (p *EquilibriumInverseProblem) MutuallyExclusivePairs() [][2]int {
	return append([][2]int(nil), p.exclusive...)
}

// InitialElementAmounts returns the initial amounts of the equilibrium
// elements, or nil if they have not been set.
func (p *EquilibriumInverseProblem) InitialElementAmounts() *mat.VecDense {
	if p.b0 == nil {
		return nil
	}
	return mat.VecDenseCopyOf(p.b0)
}

// FormulaMatrixTitrants builds the Eₑ×T matrix whose (j,i) entry is the
// stoichiometric coefficient of the jth equilibrium element in the ith
// titrant, zero where the element is absent from the titrant's formula.
func (p *EquilibriumInverseProblem) FormulaMatrixTitrants() *mat.Dense {
	ielements := p.partition.EquilibriumElements()
	if len(ielements) == 0 || len(p.titrants) == 0 {
		return nil
	}
	C := mat.NewDense(len(ielements), len(p.titrants), nil)
	for i, t := range p.titrants {
		for rk, j := range ielements {
			name := p.system.Elements()[j].Name
			C.Set(rk, i, t.formula[name])
		}
	}
	return C
}

// ElementAmountsWithTitrants returns b0 + C·x, the equilibrium-element
// amounts after injecting titrant amounts x.
func (p *EquilibriumInverseProblem) ElementAmountsWithTitrants(x *mat.VecDense) (*mat.VecDense, error) {
	if p.b0 == nil {
		return nil, fmt.Errorf("reaktoro: inverse problem: initial element amounts have not been set")
	}
	nx := 0
	if x != nil {
		nx = x.Len()
	}
	if nx != len(p.titrants) {
		return nil, &DimensionError{Op: "ElementAmountsWithTitrants", Got: nx, Want: len(p.titrants)}
	}
	b := mat.VecDenseCopyOf(p.b0)
	if C := p.FormulaMatrixTitrants(); C != nil && nx > 0 {
		var cx mat.VecDense
		cx.MulVec(C, x)
		b.AddVec(b, &cx)
	}
	return b, nil
}

// ResidualEquilibriumConstraints evaluates the constraint residuals at
// titrant amounts x against the given equilibrium state, together with
// the two Jacobian blocks. The state must carry equilibrium
// sensitivities (dnₑ/dbₑ) for the titrant chain rule; evaluating
// before SetInitialElementAmounts has been called is an error. The
// first call seals the problem.
func (p *EquilibriumInverseProblem) ResidualEquilibriumConstraints(x *mat.VecDense, state *ChemicalState) (ResidualEquilibriumConstraints, error) {
	if p.b0 == nil {
		return ResidualEquilibriumConstraints{}, fmt.Errorf(
			"reaktoro: inverse problem: initial element amounts have not been set")
	}
	// A nil x means zero titrants; gonum has no zero-length vectors.
	nx := 0
	if x != nil {
		nx = x.Len()
	}
	if nx != len(p.titrants) {
		return ResidualEquilibriumConstraints{}, &DimensionError{
			Op: "ResidualEquilibriumConstraints", Got: nx, Want: len(p.titrants)}
	}
	sens := state.Sensitivity()
	if sens == nil {
		return ResidualEquilibriumConstraints{}, fmt.Errorf(
			"reaktoro: inverse problem: state has no equilibrium sensitivities; equilibrate it first")
	}
	p.sealed = true

	nc := len(p.constraints)
	S := p.system.NumSpecies()
	T := len(p.titrants)
	if nc == 0 {
		// An empty problem is trivially satisfied.
		return ResidualEquilibriumConstraints{}, nil
	}

	r := ResidualEquilibriumConstraints{
		Val: mat.NewVecDense(nc, nil),
		Ddn: mat.NewDense(nc, S, nil),
	}

	n := state.SpeciesAmounts()
	var activities ChemicalVector
	for _, c := range p.constraints {
		if c.kind == speciesActivityConstraint {
			var err error
			activities, err = p.thermo.Activities(state.Temperature(), state.Pressure(), n)
			if err != nil {
				return ResidualEquilibriumConstraints{}, err
			}
			break
		}
	}

	for ci, c := range p.constraints {
		switch c.kind {
		case speciesActivityConstraint:
			r.Val.SetVec(ci, activities.Val.AtVec(c.index)-c.target)
			for j := 0; j < S; j++ {
				r.Ddn.Set(ci, j, activities.Ddn.At(c.index, j))
			}
		case speciesAmountConstraint:
			r.Val.SetVec(ci, n.AtVec(c.index)-c.target)
			r.Ddn.Set(ci, c.index, 1)
		case phaseAmountConstraint:
			r.Val.SetVec(ci, state.PhaseAmount(c.index)-c.target)
			for _, i := range p.system.PhaseSpecies(c.index) {
				r.Ddn.Set(ci, i, 1)
			}
		case phaseVolumeConstraint:
			r.Val.SetVec(ci, state.PhaseVolume(c.index)-c.target)
			for _, i := range p.system.PhaseSpecies(c.index) {
				r.Ddn.Set(ci, i, p.system.Species()[i].MolarVolume)
			}
		}
	}

	// Chain rule through the titrant path: x changes the elemental
	// input amounts (b = b0 + C·x), which change the equilibrium
	// amounts (dnₑ/dbₑ), which change the measured quantities (Ddn
	// restricted to the equilibrium columns). Ddx stays nil for a
	// problem with no titrants.
	if T > 0 {
		ispecies := p.partition.EquilibriumSpecies()
		Ne := len(ispecies)
		ddne := mat.NewDense(nc, Ne, nil)
		for ci := 0; ci < nc; ci++ {
			for k, i := range ispecies {
				ddne.Set(ci, k, r.Ddn.At(ci, i))
			}
		}
		C := p.FormulaMatrixTitrants()
		dndx := mat.NewDense(Ne, T, nil)
		dndx.Mul(sens.Dndb, C)
		r.Ddx = mat.NewDense(nc, T, nil)
		r.Ddx.Mul(ddne, dndx)
	}
	return r, nil
}

// InverseEquilibriumSolver drives the titrant amounts of an inverse
// problem until the constraint residuals vanish, running a full
// equilibrium calculation per iteration.
type InverseEquilibriumSolver struct {
	problem    *EquilibriumInverseProblem
	equilibria *EquilibriumSolver

	MaxIterations int
	Tolerance     float64
}

// NewInverseEquilibriumSolver creates a solver for the given problem
// using the given per-state equilibrium solver.
func NewInverseEquilibriumSolver(problem *EquilibriumInverseProblem, equilibria *EquilibriumSolver) *InverseEquilibriumSolver {
	return &InverseEquilibriumSolver{
		problem:       problem,
		equilibria:    equilibria,
		MaxIterations: 50,
		Tolerance:     1e-8,
	}
}

// Solve finds titrant amounts x ≥ 0 satisfying the equilibrium
// constraints of the problem at temperature T [K] and pressure P [Pa],
// equilibrating state at b0 + C·x each iteration. Mutual-exclusion
// pairs are enforced by zeroing the smaller member whenever both are
// positive. It returns the converged titrant amounts.
func (s *InverseEquilibriumSolver) Solve(state *ChemicalState, T, P float64) (*mat.VecDense, error) {
	nt := s.problem.NumTitrants()
	if nt == 0 {
		// Nothing to adjust: a single equilibrium calculation settles
		// an empty problem.
		if s.problem.b0 == nil {
			return nil, fmt.Errorf("reaktoro: inverse problem: initial element amounts have not been set")
		}
		b := s.problem.InitialElementAmounts()
		_, err := s.equilibria.Solve(state, T, P, b)
		return nil, err
	}
	x := mat.NewVecDense(nt, nil)

	var residual float64
	for it := 0; it < s.MaxIterations; it++ {
		b, err := s.problem.ElementAmountsWithTitrants(x)
		if err != nil {
			return nil, err
		}
		if _, err := s.equilibria.Solve(state, T, P, b); err != nil {
			return nil, fmt.Errorf("reaktoro: inverse solve iteration %d: %v", it, err)
		}
		r, err := s.problem.ResidualEquilibriumConstraints(x, state)
		if err != nil {
			return nil, err
		}
		if r.Val == nil {
			return x, nil
		}
		residual = mat.Norm(r.Val, math.Inf(1))
		if residual < s.Tolerance {
			return x, nil
		}

		// Newton (least-squares when constraint and titrant counts
		// differ): Ddx·dx = -r.
		dx := mat.NewDense(nt, 1, nil)
		rhs := mat.NewDense(r.Val.Len(), 1, nil)
		for i := 0; i < r.Val.Len(); i++ {
			rhs.Set(i, 0, -r.Val.AtVec(i))
		}
		if err := dx.Solve(r.Ddx, rhs); err != nil {
			if _, ok := err.(mat.Condition); !ok {
				return nil, fmt.Errorf("reaktoro: inverse solve: singular constraint Jacobian: %v", err)
			}
		}
		for i := 0; i < nt; i++ {
			x.SetVec(i, math.Max(x.AtVec(i)+dx.At(i, 0), 0))
		}
		for _, pair := range s.problem.MutuallyExclusivePairs() {
			a, b := pair[0], pair[1]
			if x.AtVec(a) > 0 && x.AtVec(b) > 0 {
				if x.AtVec(a) < x.AtVec(b) {
					x.SetVec(a, 0)
				} else {
					x.SetVec(b, 0)
				}
			}
		}
	}
	return nil, &NonConvergenceError{Point: -1, Iterations: s.MaxIterations, Residual: residual}
}
