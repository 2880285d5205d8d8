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
	"math"

	"gonum.org/v1/gonum/mat"
)

// ChemicalScalar is a scalar quantity together with its partial
// derivatives with respect to temperature, pressure, and the molar
// amounts of the species. Its operators propagate derivatives by the
// corresponding calculus rule, so chains of operations keep the
// derivatives consistent with the values.
type ChemicalScalar struct {
	Val float64
	Ddt float64
	Ddp float64
	Ddn *mat.VecDense
}

// NewChemicalScalar creates a zero-valued scalar whose amount
// derivatives span nspecies species.
func NewChemicalScalar(nspecies int) ChemicalScalar {
	return ChemicalScalar{Ddn: mat.NewVecDense(nspecies, nil)}
}

// Clone returns a deep copy of s.
func (s ChemicalScalar) Clone() ChemicalScalar {
	c := s
	if s.Ddn != nil {
		c.Ddn = mat.VecDenseCopyOf(s.Ddn)
	}
	return c
}

// Add returns s + other.
func (s ChemicalScalar) Add(other ChemicalScalar) ChemicalScalar {
	r := NewChemicalScalar(s.Ddn.Len())
	r.Val = s.Val + other.Val
	r.Ddt = s.Ddt + other.Ddt
	r.Ddp = s.Ddp + other.Ddp
	r.Ddn.AddVec(s.Ddn, other.Ddn)
	return r
}

// Sub returns s - other.
func (s ChemicalScalar) Sub(other ChemicalScalar) ChemicalScalar {
	r := NewChemicalScalar(s.Ddn.Len())
	r.Val = s.Val - other.Val
	r.Ddt = s.Ddt - other.Ddt
	r.Ddp = s.Ddp - other.Ddp
	r.Ddn.SubVec(s.Ddn, other.Ddn)
	return r
}

// Mul returns s · other, propagating derivatives by the product rule.
func (s ChemicalScalar) Mul(other ChemicalScalar) ChemicalScalar {
	r := NewChemicalScalar(s.Ddn.Len())
	r.Val = s.Val * other.Val
	r.Ddt = s.Ddt*other.Val + s.Val*other.Ddt
	r.Ddp = s.Ddp*other.Val + s.Val*other.Ddp
	r.Ddn.AddScaledVec(r.Ddn, other.Val, s.Ddn)
	r.Ddn.AddScaledVec(r.Ddn, s.Val, other.Ddn)
	return r
}

// Div returns s / other, propagating derivatives by the quotient rule.
func (s ChemicalScalar) Div(other ChemicalScalar) ChemicalScalar {
	r := NewChemicalScalar(s.Ddn.Len())
	r.Val = s.Val / other.Val
	r.Ddt = (s.Ddt - r.Val*other.Ddt) / other.Val
	r.Ddp = (s.Ddp - r.Val*other.Ddp) / other.Val
	r.Ddn.AddScaledVec(r.Ddn, 1/other.Val, s.Ddn)
	r.Ddn.AddScaledVec(r.Ddn, -r.Val/other.Val, other.Ddn)
	return r
}

// Scale returns c · s for a constant c.
func (s ChemicalScalar) Scale(c float64) ChemicalScalar {
	r := NewChemicalScalar(s.Ddn.Len())
	r.Val = c * s.Val
	r.Ddt = c * s.Ddt
	r.Ddp = c * s.Ddp
	r.Ddn.ScaleVec(c, s.Ddn)
	return r
}

// Pow returns s raised to the constant power p, propagating derivatives
// by the power rule d(sᵖ) = p·sᵖ⁻¹·ds.
func (s ChemicalScalar) Pow(p float64) ChemicalScalar {
	r := NewChemicalScalar(s.Ddn.Len())
	r.Val = math.Pow(s.Val, p)
	c := p * math.Pow(s.Val, p-1)
	r.Ddt = c * s.Ddt
	r.Ddp = c * s.Ddp
	r.Ddn.ScaleVec(c, s.Ddn)
	return r
}

// Exp returns exp(s), propagating derivatives by the chain rule.
func (s ChemicalScalar) Exp() ChemicalScalar {
	r := NewChemicalScalar(s.Ddn.Len())
	r.Val = math.Exp(s.Val)
	r.Ddt = r.Val * s.Ddt
	r.Ddp = r.Val * s.Ddp
	r.Ddn.ScaleVec(r.Val, s.Ddn)
	return r
}

// Ln returns ln(s), propagating derivatives by the chain rule.
func (s ChemicalScalar) Ln() ChemicalScalar {
	r := NewChemicalScalar(s.Ddn.Len())
	r.Val = math.Log(s.Val)
	r.Ddt = s.Ddt / s.Val
	r.Ddp = s.Ddp / s.Val
	r.Ddn.ScaleVec(1/s.Val, s.Ddn)
	return r
}

// ChemicalVector is a vector quantity together with the partial
// derivatives of each entry with respect to temperature, pressure, and
// the molar amounts of the species. Row i of Ddn holds the amount
// derivatives of entry i.
type ChemicalVector struct {
	Val *mat.VecDense
	Ddt *mat.VecDense
	Ddp *mat.VecDense
	Ddn *mat.Dense
}

// NewChemicalVector creates a zero-valued vector of length n whose
// amount derivatives span nspecies species.
func NewChemicalVector(n, nspecies int) ChemicalVector {
	return ChemicalVector{
		Val: mat.NewVecDense(n, nil),
		Ddt: mat.NewVecDense(n, nil),
		Ddp: mat.NewVecDense(n, nil),
		Ddn: mat.NewDense(n, nspecies, nil),
	}
}

// Len returns the number of entries in v.
func (v ChemicalVector) Len() int { return v.Val.Len() }

// NumSpecies returns the number of species the amount derivatives of v
// span.
func (v ChemicalVector) NumSpecies() int {
	_, c := v.Ddn.Dims()
	return c
}

// At returns entry i of v as a ChemicalScalar.
func (v ChemicalVector) At(i int) ChemicalScalar {
	s := NewChemicalScalar(v.NumSpecies())
	s.Val = v.Val.AtVec(i)
	s.Ddt = v.Ddt.AtVec(i)
	s.Ddp = v.Ddp.AtVec(i)
	for j := 0; j < s.Ddn.Len(); j++ {
		s.Ddn.SetVec(j, v.Ddn.At(i, j))
	}
	return s
}

// SetAt sets entry i of v from a ChemicalScalar.
func (v ChemicalVector) SetAt(i int, s ChemicalScalar) {
	v.Val.SetVec(i, s.Val)
	v.Ddt.SetVec(i, s.Ddt)
	v.Ddp.SetVec(i, s.Ddp)
	for j := 0; j < s.Ddn.Len(); j++ {
		v.Ddn.Set(i, j, s.Ddn.AtVec(j))
	}
}
