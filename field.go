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
	"github.com/ctessum/sparse"
)

// ChemicalField holds the values of a scalar chemical quantity at
// every field point, together with the sensitivities of each value
// with respect to temperature, pressure, the equilibrium-element
// amounts (ddbe), and the kinetic-species amounts (ddnk) at that
// point. The sensitivity blocks are nil unless the field was computed
// by a WithDiff accessor.
type ChemicalField struct {
	Val []float64

	Ddt  []float64
	Ddp  []float64
	Ddbe *sparse.DenseArray // N×Eₑ
	Ddnk *sparse.DenseArray // N×Nₖ
}

// newChemicalField allocates a field of n points. When withDiff is
// true the sensitivity blocks are allocated for ne equilibrium
// elements and nk kinetic species.
func newChemicalField(n, ne, nk int, withDiff bool) *ChemicalField {
	f := &ChemicalField{Val: make([]float64, n)}
	if withDiff {
		f.Ddt = make([]float64, n)
		f.Ddp = make([]float64, n)
		if ne > 0 {
			f.Ddbe = sparse.ZerosDense(n, ne)
		}
		if nk > 0 {
			f.Ddnk = sparse.ZerosDense(n, nk)
		}
	}
	return f
}

// Len returns the number of field points.
func (f *ChemicalField) Len() int { return len(f.Val) }
