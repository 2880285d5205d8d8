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

// universalGasConstant is the universal gas constant [J/(mol·K)].
const universalGasConstant = 8.3144621

// ChemicalPotentialFunc calculates the standard chemical potential of a
// species [J/mol] at temperature T [K] and pressure P [Pa].
type ChemicalPotentialFunc func(T, P float64) float64

// Element is a chemical element.
type Element struct {
	Name      string
	MolarMass float64 // [kg/mol]
}

// Species is a chemical species composed of one or more elements.
type Species struct {
	Name string

	// Formula maps element names to the number of atoms of that
	// element in one formula unit of the species.
	Formula map[string]float64

	Charge      float64
	MolarVolume float64 // standard molar volume [m³/mol]

	// ChemicalPotential is the standard chemical potential function
	// of the species.
	ChemicalPotential ChemicalPotentialFunc
}

// Phase is a named group of species with a common physical state.
type Phase struct {
	Name    string
	Species []string // names of member species, in order
	Fluid   bool     // true for fluid phases, false for solids
}

// ChemicalSystem holds the ordered element, species, and phase
// sequences of a chemical problem, together with the formula matrix
// relating them. It is immutable after construction and may be shared
// across goroutines.
type ChemicalSystem struct {
	elements []Element
	species  []Species
	phases   []Phase

	// phaseSpecies[k] holds the indices of the species in phase k.
	phaseSpecies [][]int

	// speciesPhase[i] is the index of the phase containing species i.
	speciesPhase []int

	// formulaMatrix is the E×S matrix whose (j,i) entry is the number
	// of atoms of element j in species i.
	formulaMatrix *mat.Dense

	// molarMasses[i] is the molar mass of species i [kg/mol].
	molarMasses []float64

	elementIndex map[string]int
	speciesIndex map[string]int
	phaseIndex   map[string]int
}

// NewChemicalSystem creates a chemical system from the given elements,
// species, and phases. Every species must have a formula referencing
// only known elements and must belong to exactly one phase.
func NewChemicalSystem(elements []Element, species []Species, phases []Phase) (*ChemicalSystem, error) {
	sys := &ChemicalSystem{
		elements:     elements,
		species:      species,
		phases:       phases,
		elementIndex: make(map[string]int),
		speciesIndex: make(map[string]int),
		phaseIndex:   make(map[string]int),
	}
	for j, e := range elements {
		if _, ok := sys.elementIndex[e.Name]; ok {
			return nil, fmt.Errorf("reaktoro: duplicate element %s", e.Name)
		}
		sys.elementIndex[e.Name] = j
	}
	for i, s := range species {
		if _, ok := sys.speciesIndex[s.Name]; ok {
			return nil, fmt.Errorf("reaktoro: duplicate species %s", s.Name)
		}
		sys.speciesIndex[s.Name] = i
	}

	E, S := len(elements), len(species)
	if E == 0 || S == 0 {
		return nil, fmt.Errorf("reaktoro: a chemical system needs at least one element and one species")
	}
	sys.formulaMatrix = mat.NewDense(E, S, nil)
	sys.molarMasses = make([]float64, S)
	for i, s := range species {
		for name, coeff := range s.Formula {
			j, ok := sys.elementIndex[name]
			if !ok {
				return nil, fmt.Errorf("reaktoro: species %s references unknown element %s", s.Name, name)
			}
			sys.formulaMatrix.Set(j, i, coeff)
			sys.molarMasses[i] += coeff * elements[j].MolarMass
		}
	}

	sys.phaseSpecies = make([][]int, len(phases))
	sys.speciesPhase = make([]int, S)
	for i := range sys.speciesPhase {
		sys.speciesPhase[i] = -1
	}
	for k, ph := range phases {
		if _, ok := sys.phaseIndex[ph.Name]; ok {
			return nil, fmt.Errorf("reaktoro: duplicate phase %s", ph.Name)
		}
		sys.phaseIndex[ph.Name] = k
		for _, name := range ph.Species {
			i, ok := sys.speciesIndex[name]
			if !ok {
				return nil, fmt.Errorf("reaktoro: phase %s references unknown species %s", ph.Name, name)
			}
			if sys.speciesPhase[i] >= 0 {
				return nil, fmt.Errorf("reaktoro: species %s belongs to more than one phase", name)
			}
			sys.speciesPhase[i] = k
			sys.phaseSpecies[k] = append(sys.phaseSpecies[k], i)
		}
	}
	for i, k := range sys.speciesPhase {
		if k < 0 {
			return nil, fmt.Errorf("reaktoro: species %s belongs to no phase", species[i].Name)
		}
	}
	return sys, nil
}

// NumElements returns the number of elements in the system.
func (sys *ChemicalSystem) NumElements() int { return len(sys.elements) }

// NumSpecies returns the number of species in the system.
func (sys *ChemicalSystem) NumSpecies() int { return len(sys.species) }

// NumPhases returns the number of phases in the system.
func (sys *ChemicalSystem) NumPhases() int { return len(sys.phases) }

// Elements returns the ordered element sequence of the system.
func (sys *ChemicalSystem) Elements() []Element { return sys.elements }

// Species returns the ordered species sequence of the system.
func (sys *ChemicalSystem) Species() []Species { return sys.species }

// Phases returns the ordered phase sequence of the system.
func (sys *ChemicalSystem) Phases() []Phase { return sys.phases }

// IndexElement returns the index of the named element.
func (sys *ChemicalSystem) IndexElement(name string) (int, bool) {
	j, ok := sys.elementIndex[name]
	return j, ok
}

// IndexSpecies returns the index of the named species.
func (sys *ChemicalSystem) IndexSpecies(name string) (int, bool) {
	i, ok := sys.speciesIndex[name]
	return i, ok
}

// IndexPhase returns the index of the named phase.
func (sys *ChemicalSystem) IndexPhase(name string) (int, bool) {
	k, ok := sys.phaseIndex[name]
	return k, ok
}

// PhaseSpecies returns the indices of the species in phase k.
func (sys *ChemicalSystem) PhaseSpecies(k int) []int { return sys.phaseSpecies[k] }

// SpeciesPhase returns the index of the phase containing species i.
func (sys *ChemicalSystem) SpeciesPhase(i int) int { return sys.speciesPhase[i] }

// SpeciesMolarMass returns the molar mass of species i [kg/mol].
func (sys *ChemicalSystem) SpeciesMolarMass(i int) float64 { return sys.molarMasses[i] }

// FormulaMatrix returns a copy of the E×S formula matrix of the system.
func (sys *ChemicalSystem) FormulaMatrix() *mat.Dense {
	return mat.DenseCopyOf(sys.formulaMatrix)
}

// ElementAmounts calculates the elemental amounts b = A·n [mol] implied
// by the species amounts n.
func (sys *ChemicalSystem) ElementAmounts(n *mat.VecDense) (*mat.VecDense, error) {
	if n.Len() != sys.NumSpecies() {
		return nil, &DimensionError{Op: "ElementAmounts", Got: n.Len(), Want: sys.NumSpecies()}
	}
	b := mat.NewVecDense(sys.NumElements(), nil)
	b.MulVec(sys.formulaMatrix, n)
	return b, nil
}

// StandardChemicalPotentials evaluates the standard chemical potential
// of every species at (T, P) [J/mol].
func (sys *ChemicalSystem) StandardChemicalPotentials(T, P float64) *mat.VecDense {
	u := mat.NewVecDense(sys.NumSpecies(), nil)
	for i, s := range sys.species {
		if s.ChemicalPotential != nil {
			u.SetVec(i, s.ChemicalPotential(T, P))
		}
	}
	return u
}
