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

import "math"

// Molar masses of the elements used by the demo systems [kg/mol].
const (
	molarMassH  = 1.00794e-3
	molarMassO  = 15.9994e-3
	molarMassCa = 40.078e-3
	molarMassC  = 12.0107e-3
)

// NewWaterSystem builds a small aqueous system with the species H2O,
// H+, and OH- over the elements H and O. Charge balance is implied by
// the element balance, so no explicit charge element is carried. The
// standard chemical potentials reproduce the water self-ionization
// equilibrium at 298.15 K with ideal mole-fraction activities.
func NewWaterSystem() (*ChemicalSystem, error) {
	constPotential := func(mu float64) ChemicalPotentialFunc {
		return func(T, P float64) float64 { return mu }
	}
	// lnKw chosen so a liter of water splits into roughly 1e-7 mol of
	// each ion under mole-fraction activities.
	lnKw := 2 * math.Log(1e-7/55.5)
	muIon := -0.5 * lnKw * universalGasConstant * 298.15

	elements := []Element{
		{Name: "H", MolarMass: molarMassH},
		{Name: "O", MolarMass: molarMassO},
	}
	species := []Species{
		{
			Name:              "H2O",
			Formula:           map[string]float64{"H": 2, "O": 1},
			MolarVolume:       1.80694e-5,
			ChemicalPotential: constPotential(0),
		},
		{
			Name:              "H+",
			Formula:           map[string]float64{"H": 1},
			Charge:            1,
			MolarVolume:       1e-6,
			ChemicalPotential: constPotential(muIon),
		},
		{
			Name:              "OH-",
			Formula:           map[string]float64{"O": 1, "H": 1},
			Charge:            -1,
			MolarVolume:       1e-6,
			ChemicalPotential: constPotential(muIon),
		},
	}
	phases := []Phase{
		{Name: "Aqueous", Species: []string{"H2O", "H+", "OH-"}, Fluid: true},
	}
	return NewChemicalSystem(elements, species, phases)
}

// NewCalciteSystem builds an aqueous system in contact with a calcite
// mineral phase: the aqueous species of NewWaterSystem plus Ca++ and
// HCO3-, and solid CaCO3. It exercises multi-phase quantities such as
// porosity and mineral dissolution kinetics.
func NewCalciteSystem() (*ChemicalSystem, error) {
	constPotential := func(mu float64) ChemicalPotentialFunc {
		return func(T, P float64) float64 { return mu }
	}
	lnKw := 2 * math.Log(1e-7/55.5)
	muIon := -0.5 * lnKw * universalGasConstant * 298.15

	elements := []Element{
		{Name: "H", MolarMass: molarMassH},
		{Name: "O", MolarMass: molarMassO},
		{Name: "C", MolarMass: molarMassC},
		{Name: "Ca", MolarMass: molarMassCa},
	}
	species := []Species{
		{
			Name:              "H2O",
			Formula:           map[string]float64{"H": 2, "O": 1},
			MolarVolume:       1.80694e-5,
			ChemicalPotential: constPotential(0),
		},
		{
			Name:              "H+",
			Formula:           map[string]float64{"H": 1},
			Charge:            1,
			MolarVolume:       1e-6,
			ChemicalPotential: constPotential(muIon),
		},
		{
			Name:              "OH-",
			Formula:           map[string]float64{"O": 1, "H": 1},
			Charge:            -1,
			MolarVolume:       1e-6,
			ChemicalPotential: constPotential(muIon),
		},
		{
			Name:              "Ca++",
			Formula:           map[string]float64{"Ca": 1},
			Charge:            2,
			MolarVolume:       1e-6,
			ChemicalPotential: constPotential(-552800),
		},
		{
			Name:              "HCO3-",
			Formula:           map[string]float64{"H": 1, "C": 1, "O": 3},
			Charge:            -1,
			MolarVolume:       2.42e-5,
			ChemicalPotential: constPotential(-586800),
		},
		{
			Name:              "CaCO3(s)",
			Formula:           map[string]float64{"Ca": 1, "C": 1, "O": 3},
			MolarVolume:       3.6934e-5,
			ChemicalPotential: constPotential(-1129100),
		},
	}
	phases := []Phase{
		{Name: "Aqueous", Species: []string{"H2O", "H+", "OH-", "Ca++", "HCO3-"}, Fluid: true},
		{Name: "Calcite", Species: []string{"CaCO3(s)"}, Fluid: false},
	}
	return NewChemicalSystem(elements, species, phases)
}
