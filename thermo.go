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
	"gonum.org/v1/gonum/mat"
)

// ThermoModel supplies the thermodynamic properties of the species of a
// chemical system. Different activity models (ideal, Debye-Hückel,
// Pitzer, equations of state) implement this interface and are selected
// when an equilibrium or chemical solver is constructed.
type ThermoModel interface {
	// StandardChemicalPotentials evaluates the standard chemical
	// potential of every species at (T, P) [J/mol].
	StandardChemicalPotentials(T, P float64) *mat.VecDense

	// Activities evaluates the activity of every species at (T, P) and
	// molar amounts n, together with its derivatives.
	Activities(T, P float64, n *mat.VecDense) (ChemicalVector, error)
}

// IdealModel is a ThermoModel in which every species activity equals
// its mole fraction within its phase. It satisfies the Gibbs-Duhem
// relation, so the chemical potential of species i is
// μ°ᵢ(T,P) + RT·ln xᵢ.
type IdealModel struct {
	system *ChemicalSystem
}

// NewIdealModel creates an ideal activity model for the given system.
func NewIdealModel(system *ChemicalSystem) *IdealModel {
	return &IdealModel{system: system}
}

// StandardChemicalPotentials implements ThermoModel.
func (m *IdealModel) StandardChemicalPotentials(T, P float64) *mat.VecDense {
	return m.system.StandardChemicalPotentials(T, P)
}

// Activities implements ThermoModel. The activity of species i in
// phase k is xᵢ = nᵢ/nₖ with nₖ the total amount of phase k, so
// ∂xᵢ/∂nⱼ = (δᵢⱼ - xᵢ)/nₖ for species j in the same phase and zero
// otherwise. Mole fractions do not depend on T or P, so Ddt and Ddp
// are zero.
func (m *IdealModel) Activities(T, P float64, n *mat.VecDense) (ChemicalVector, error) {
	S := m.system.NumSpecies()
	if n.Len() != S {
		return ChemicalVector{}, &DimensionError{Op: "Activities", Got: n.Len(), Want: S}
	}
	a := NewChemicalVector(S, S)

	for k := 0; k < m.system.NumPhases(); k++ {
		ispecies := m.system.PhaseSpecies(k)
		var ntot float64
		for _, i := range ispecies {
			ntot += n.AtVec(i)
		}
		if ntot <= 0 {
			// Phase is absent; all activities in it stay zero.
			continue
		}
		for _, i := range ispecies {
			x := n.AtVec(i) / ntot
			a.Val.SetVec(i, x)
			for _, j := range ispecies {
				d := -x / ntot
				if i == j {
					d += 1 / ntot
				}
				a.Ddn.Set(i, j, d)
			}
		}
	}
	return a, nil
}
