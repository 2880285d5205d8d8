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

// EquilibriumSensitivity holds the derivatives of the equilibrium
// species amounts with respect to temperature, pressure, and the
// elemental amounts of the equilibrium partition. Rows follow the
// equilibrium species index set of the partition the state was
// equilibrated with.
type EquilibriumSensitivity struct {
	Dndt *mat.VecDense // dnₑ/dT   (Nₑ)
	Dndp *mat.VecDense // dnₑ/dP   (Nₑ)
	Dndb *mat.Dense    // dnₑ/dbₑ  (Nₑ×Eₑ)
}

// ChemicalState is the chemical state of one sample point: temperature,
// pressure, and the molar amounts of every species, plus the
// sensitivities of the last equilibrium calculation performed on it.
type ChemicalState struct {
	system *ChemicalSystem

	temperature float64 // [K]
	pressure    float64 // [Pa]
	n           *mat.VecDense

	sensitivity *EquilibriumSensitivity
}

// NewChemicalState creates a state with all species amounts zero at
// standard conditions.
func NewChemicalState(system *ChemicalSystem) *ChemicalState {
	return &ChemicalState{
		system:      system,
		temperature: 298.15,
		pressure:    1e5,
		n:           mat.NewVecDense(system.NumSpecies(), nil),
	}
}

// System returns the chemical system of the state.
func (s *ChemicalState) System() *ChemicalSystem { return s.system }

// Temperature returns the temperature [K].
func (s *ChemicalState) Temperature() float64 { return s.temperature }

// Pressure returns the pressure [Pa].
func (s *ChemicalState) Pressure() float64 { return s.pressure }

// SetTemperature sets the temperature [K].
func (s *ChemicalState) SetTemperature(T float64) { s.temperature = T }

// SetPressure sets the pressure [Pa].
func (s *ChemicalState) SetPressure(P float64) { s.pressure = P }

// SpeciesAmount returns the molar amount of species i [mol].
func (s *ChemicalState) SpeciesAmount(i int) float64 { return s.n.AtVec(i) }

// SetSpeciesAmount sets the molar amount of species i [mol].
func (s *ChemicalState) SetSpeciesAmount(i int, amount float64) { s.n.SetVec(i, amount) }

// SetSpeciesAmountByName sets the molar amount of the named species.
func (s *ChemicalState) SetSpeciesAmountByName(name string, amount float64) error {
	i, ok := s.system.IndexSpecies(name)
	if !ok {
		return fmt.Errorf("reaktoro: unknown species %s", name)
	}
	s.n.SetVec(i, amount)
	return nil
}

// SpeciesAmounts returns a copy of the species amount vector [mol].
func (s *ChemicalState) SpeciesAmounts() *mat.VecDense { return mat.VecDenseCopyOf(s.n) }

// SetSpeciesAmounts replaces the full species amount vector.
func (s *ChemicalState) SetSpeciesAmounts(n *mat.VecDense) error {
	if n.Len() != s.system.NumSpecies() {
		return &DimensionError{Op: "SetSpeciesAmounts", Got: n.Len(), Want: s.system.NumSpecies()}
	}
	s.n.CopyVec(n)
	return nil
}

// ElementAmounts returns the elemental amounts b = A·n of the state.
func (s *ChemicalState) ElementAmounts() *mat.VecDense {
	b, _ := s.system.ElementAmounts(s.n)
	return b
}

// PhaseAmount returns the total molar amount of phase k [mol].
func (s *ChemicalState) PhaseAmount(k int) float64 {
	var sum float64
	for _, i := range s.system.PhaseSpecies(k) {
		sum += s.n.AtVec(i)
	}
	return sum
}

// PhaseVolume returns the volume of phase k [m³] from the standard
// molar volumes of its species.
func (s *ChemicalState) PhaseVolume(k int) float64 {
	var sum float64
	for _, i := range s.system.PhaseSpecies(k) {
		sum += s.n.AtVec(i) * s.system.Species()[i].MolarVolume
	}
	return sum
}

// PhaseMass returns the mass of phase k [kg].
func (s *ChemicalState) PhaseMass(k int) float64 {
	var sum float64
	for _, i := range s.system.PhaseSpecies(k) {
		sum += s.n.AtVec(i) * s.system.SpeciesMolarMass(i)
	}
	return sum
}

// Sensitivity returns the sensitivities of the last equilibrium
// calculation, or nil if the state has not been equilibrated.
func (s *ChemicalState) Sensitivity() *EquilibriumSensitivity { return s.sensitivity }

// Clone returns a deep copy of the state.
func (s *ChemicalState) Clone() *ChemicalState {
	c := &ChemicalState{
		system:      s.system,
		temperature: s.temperature,
		pressure:    s.pressure,
		n:           mat.VecDenseCopyOf(s.n),
	}
	if s.sensitivity != nil {
		c.sensitivity = &EquilibriumSensitivity{
			Dndt: mat.VecDenseCopyOf(s.sensitivity.Dndt),
			Dndp: mat.VecDenseCopyOf(s.sensitivity.Dndp),
			Dndb: mat.DenseCopyOf(s.sensitivity.Dndb),
		}
	}
	return c
}
