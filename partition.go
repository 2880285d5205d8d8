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

	"gonum.org/v1/gonum/mat"
)

// SpeciesKind identifies which subset of a Partition a species belongs to.
type SpeciesKind int

const (
	EquilibriumSpecies SpeciesKind = iota
	KineticSpecies
	InertSpecies
)

func (k SpeciesKind) String() string {
	switch k {
	case EquilibriumSpecies:
		return "equilibrium"
	case KineticSpecies:
		return "kinetic"
	case InertSpecies:
		return "inert"
	}
	return "unknown"
}

// Partition classifies the species of a chemical system into disjoint
// equilibrium, kinetic, and inert subsets, with derived element subsets.
// Every species index belongs to exactly one subset. A Partition is
// immutable after construction and may be shared across goroutines;
// changing the grouping means building a new Partition.
//
// An element belongs to the equilibrium-element subset if it appears in
// the formula of at least one equilibrium species; otherwise to the
// kinetic-element subset if it appears in a kinetic species; otherwise
// to the inert-element subset. This precedence (equilibrium > kinetic >
// inert) resolves elements shared between subsets.
type Partition struct {
	system *ChemicalSystem

	equilibriumSpecies []int
	kineticSpecies     []int
	inertSpecies       []int

	equilibriumElements []int
	kineticElements     []int
	inertElements       []int

	kind []SpeciesKind // per-species classification
}

// NewPartition creates the default partition in which every species is
// an equilibrium species.
func NewPartition(system *ChemicalSystem) *Partition {
	all := make([]int, system.NumSpecies())
	for i := range all {
		all[i] = i
	}
	p, _ := NewCustomPartition(system, all, nil, nil)
	return p
}

// NewKineticPartition creates a partition in which the named species
// are kinetic and all others are equilibrium species.
func NewKineticPartition(system *ChemicalSystem, kinetic ...string) (*Partition, error) {
	ikinetic := make([]int, 0, len(kinetic))
	iskinetic := make(map[int]bool)
	for _, name := range kinetic {
		i, ok := system.IndexSpecies(name)
		if !ok {
			return nil, fmt.Errorf("reaktoro: partition references unknown species %s", name)
		}
		ikinetic = append(ikinetic, i)
		iskinetic[i] = true
	}
	var iequilibrium []int
	for i := 0; i < system.NumSpecies(); i++ {
		if !iskinetic[i] {
			iequilibrium = append(iequilibrium, i)
		}
	}
	return NewCustomPartition(system, iequilibrium, ikinetic, nil)
}

// NewCustomPartition creates a partition from explicit species index
// sets. The three sets must be pairwise disjoint, contain only valid
// species indices, and together cover every species exactly once.
func NewCustomPartition(system *ChemicalSystem, equilibrium, kinetic, inert []int) (*Partition, error) {
	S := system.NumSpecies()
	kind := make([]SpeciesKind, S)
	seen := make([]bool, S)
	sets := []struct {
		indices []int
		kind    SpeciesKind
	}{
		{equilibrium, EquilibriumSpecies},
		{kinetic, KineticSpecies},
		{inert, InertSpecies},
	}
	total := 0
	for _, set := range sets {
		for _, i := range set.indices {
			if i < 0 || i >= S {
				return nil, fmt.Errorf("reaktoro: partition: species index %d out of range [0,%d)", i, S)
			}
			if seen[i] {
				return nil, fmt.Errorf("reaktoro: partition: species %s appears in more than one subset",
					system.Species()[i].Name)
			}
			seen[i] = true
			kind[i] = set.kind
			total++
		}
	}
	if total != S {
		return nil, fmt.Errorf("reaktoro: partition: %d of %d species are unclassified", S-total, S)
	}

	p := &Partition{
		system:             system,
		equilibriumSpecies: append([]int(nil), equilibrium...),
		kineticSpecies:     append([]int(nil), kinetic...),
		inertSpecies:       append([]int(nil), inert...),
		kind:               kind,
	}
	p.deriveElementSets()
	return p, nil
}

// deriveElementSets assigns each element to the subset of highest
// precedence (equilibrium > kinetic > inert) among the species whose
// formulas contain it. Elements appearing in no species formula are
// assigned to the inert subset.
func (p *Partition) deriveElementSets() {
	A := p.system.formulaMatrix
	inSubset := func(j int, species []int) bool {
		for _, i := range species {
			if A.At(j, i) != 0 {
				return true
			}
		}
		return false
	}
	for j := 0; j < p.system.NumElements(); j++ {
		switch {
		case inSubset(j, p.equilibriumSpecies):
			p.equilibriumElements = append(p.equilibriumElements, j)
		case inSubset(j, p.kineticSpecies):
			p.kineticElements = append(p.kineticElements, j)
		default:
			p.inertElements = append(p.inertElements, j)
		}
	}
}

// System returns the chemical system the partition was built for.
func (p *Partition) System() *ChemicalSystem { return p.system }

// Classify returns the subset species i belongs to.
func (p *Partition) Classify(i int) SpeciesKind { return p.kind[i] }

// NumEquilibriumSpecies returns the number of equilibrium species.
func (p *Partition) NumEquilibriumSpecies() int { return len(p.equilibriumSpecies) }

// NumKineticSpecies returns the number of kinetic species.
func (p *Partition) NumKineticSpecies() int { return len(p.kineticSpecies) }

// NumInertSpecies returns the number of inert species.
func (p *Partition) NumInertSpecies() int { return len(p.inertSpecies) }

// NumEquilibriumElements returns the number of equilibrium elements.
func (p *Partition) NumEquilibriumElements() int { return len(p.equilibriumElements) }

// NumKineticElements returns the number of kinetic elements.
func (p *Partition) NumKineticElements() int { return len(p.kineticElements) }

// EquilibriumSpecies returns the equilibrium species index set.
func (p *Partition) EquilibriumSpecies() []int { return p.equilibriumSpecies }

// KineticSpecies returns the kinetic species index set.
func (p *Partition) KineticSpecies() []int { return p.kineticSpecies }

// InertSpecies returns the inert species index set.
func (p *Partition) InertSpecies() []int { return p.inertSpecies }

// EquilibriumElements returns the equilibrium element index set.
func (p *Partition) EquilibriumElements() []int { return p.equilibriumElements }

// KineticElements returns the kinetic element index set.
func (p *Partition) KineticElements() []int { return p.kineticElements }

// InertElements returns the inert element index set.
func (p *Partition) InertElements() []int { return p.inertElements }

// rows extracts the entries of v at the given indices, in index-set
// order. Projections of an empty subset return nil.
func (p *Partition) rows(op string, indices []int, v *mat.VecDense) (*mat.VecDense, error) {
	if v.Len() != p.system.NumSpecies() {
		return nil, &DimensionError{Op: op, Got: v.Len(), Want: p.system.NumSpecies()}
	}
	if len(indices) == 0 {
		return nil, nil
	}
	sub := mat.NewVecDense(len(indices), nil)
	for k, i := range indices {
		sub.SetVec(k, v.AtVec(i))
	}
	return sub, nil
}

// cols extracts the columns of m at the given indices, in index-set
// order.
func (p *Partition) cols(op string, indices []int, m *mat.Dense) (*mat.Dense, error) {
	r, c := m.Dims()
	if c != p.system.NumSpecies() {
		return nil, &DimensionError{Op: op, Got: c, Want: p.system.NumSpecies()}
	}
	if len(indices) == 0 {
		return nil, nil
	}
	sub := mat.NewDense(r, len(indices), nil)
	for k, i := range indices {
		for row := 0; row < r; row++ {
			sub.Set(row, k, m.At(row, i))
		}
	}
	return sub, nil
}

// submatrix extracts the given element rows and species columns of m,
// preserving index-set order along both dimensions.
func (p *Partition) submatrix(op string, ielements, ispecies []int, m *mat.Dense) (*mat.Dense, error) {
	r, c := m.Dims()
	if r != p.system.NumElements() {
		return nil, &DimensionError{Op: op, Got: r, Want: p.system.NumElements()}
	}
	if c != p.system.NumSpecies() {
		return nil, &DimensionError{Op: op, Got: c, Want: p.system.NumSpecies()}
	}
	if len(ielements) == 0 || len(ispecies) == 0 {
		return nil, nil
	}
	sub := mat.NewDense(len(ielements), len(ispecies), nil)
	for rk, j := range ielements {
		for ck, i := range ispecies {
			sub.Set(rk, ck, m.At(j, i))
		}
	}
	return sub, nil
}

// EquilibriumRows extracts the equilibrium-species entries of v.
func (p *Partition) EquilibriumRows(v *mat.VecDense) (*mat.VecDense, error) {
	return p.rows("EquilibriumRows", p.equilibriumSpecies, v)
}

// KineticRows extracts the kinetic-species entries of v.
func (p *Partition) KineticRows(v *mat.VecDense) (*mat.VecDense, error) {
	return p.rows("KineticRows", p.kineticSpecies, v)
}

// InertRows extracts the inert-species entries of v.
func (p *Partition) InertRows(v *mat.VecDense) (*mat.VecDense, error) {
	return p.rows("InertRows", p.inertSpecies, v)
}

// EquilibriumCols extracts the equilibrium-species columns of m.
func (p *Partition) EquilibriumCols(m *mat.Dense) (*mat.Dense, error) {
	return p.cols("EquilibriumCols", p.equilibriumSpecies, m)
}

// KineticCols extracts the kinetic-species columns of m.
func (p *Partition) KineticCols(m *mat.Dense) (*mat.Dense, error) {
	return p.cols("KineticCols", p.kineticSpecies, m)
}

// InertCols extracts the inert-species columns of m.
func (p *Partition) InertCols(m *mat.Dense) (*mat.Dense, error) {
	return p.cols("InertCols", p.inertSpecies, m)
}

// EquilibriumFormulaMatrix extracts the equilibrium-element rows and
// equilibrium-species columns of the E×S matrix m.
func (p *Partition) EquilibriumFormulaMatrix(m *mat.Dense) (*mat.Dense, error) {
	return p.submatrix("EquilibriumFormulaMatrix", p.equilibriumElements, p.equilibriumSpecies, m)
}

// KineticFormulaMatrix extracts the kinetic-element rows and
// kinetic-species columns of the E×S matrix m.
func (p *Partition) KineticFormulaMatrix(m *mat.Dense) (*mat.Dense, error) {
	return p.submatrix("KineticFormulaMatrix", p.kineticElements, p.kineticSpecies, m)
}

// InertFormulaMatrix extracts the inert-element rows and inert-species
// columns of the E×S matrix m.
func (p *Partition) InertFormulaMatrix(m *mat.Dense) (*mat.Dense, error) {
	return p.submatrix("InertFormulaMatrix", p.inertElements, p.inertSpecies, m)
}
