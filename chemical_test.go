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
	"testing"
)

func scalarWithDerivs(val, ddt, ddp float64, ddn ...float64) ChemicalScalar {
	s := NewChemicalScalar(len(ddn))
	s.Val, s.Ddt, s.Ddp = val, ddt, ddp
	for i, d := range ddn {
		s.Ddn.SetVec(i, d)
	}
	return s
}

func closeTo(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*(1+math.Abs(a)+math.Abs(b))
}

func checkScalar(t *testing.T, op string, got ChemicalScalar, val, ddt, ddp float64, ddn ...float64) {
	t.Helper()
	const tol = 1e-12
	if !closeTo(got.Val, val, tol) {
		t.Errorf("%s: Val got %g, want %g", op, got.Val, val)
	}
	if !closeTo(got.Ddt, ddt, tol) {
		t.Errorf("%s: Ddt got %g, want %g", op, got.Ddt, ddt)
	}
	if !closeTo(got.Ddp, ddp, tol) {
		t.Errorf("%s: Ddp got %g, want %g", op, got.Ddp, ddp)
	}
	for i, d := range ddn {
		if !closeTo(got.Ddn.AtVec(i), d, tol) {
			t.Errorf("%s: Ddn[%d] got %g, want %g", op, i, got.Ddn.AtVec(i), d)
		}
	}
}

func TestChemicalScalarArithmetic(t *testing.T) {
	a := scalarWithDerivs(2, 0.5, -1, 3, 0)
	b := scalarWithDerivs(4, -2, 0.25, 1, 2)

	checkScalar(t, "Add", a.Add(b), 6, -1.5, -0.75, 4, 2)
	checkScalar(t, "Sub", a.Sub(b), -2, 2.5, -1.25, 2, -2)
	// Product rule: (ab)' = a'b + ab'.
	checkScalar(t, "Mul", a.Mul(b), 8, 0.5*4+2*(-2), -1*4+2*0.25, 3*4+2*1, 2*2)
	// Quotient rule: (a/b)' = (a'b - ab')/b².
	checkScalar(t, "Div", a.Div(b),
		0.5,
		(0.5*4-2*(-2))/16,
		(-1*4-2*0.25)/16,
		(3.0*4-2*1)/16, (0.0*4-2*2)/16)
	checkScalar(t, "Scale", a.Scale(-3), -6, -1.5, 3, -9, 0)
}

func TestChemicalScalarElementary(t *testing.T) {
	a := scalarWithDerivs(2, 0.5, -1, 3, 0)

	c := 3 * math.Pow(2, 2)
	checkScalar(t, "Pow", a.Pow(3), 8, c*0.5, c*-1, c*3, 0)

	e := math.Exp(2.0)
	checkScalar(t, "Exp", a.Exp(), e, e*0.5, e*-1, e*3, 0)

	checkScalar(t, "Ln", a.Ln(), math.Log(2), 0.5/2, -1.0/2, 3.0/2, 0)

	// ln(exp(a)) round-trips value and derivatives.
	checkScalar(t, "LnExp", a.Exp().Ln(), 2, 0.5, -1, 3, 0)
}

// The amount derivatives of each operator must agree with a finite
// difference of the operator applied to perturbed inputs.
func TestChemicalScalarGradientFiniteDifference(t *testing.T) {
	const (
		h   = 1e-6
		tol = 1e-4
	)
	fa := func(n0, n1 float64) float64 { return n0*n0 + 2*n1 }
	fb := func(n0, n1 float64) float64 { return 3*n0 + n1*n1 }
	build := func(f func(float64, float64) float64, n0, n1 float64) ChemicalScalar {
		s := NewChemicalScalar(2)
		s.Val = f(n0, n1)
		s.Ddn.SetVec(0, (f(n0+h, n1)-f(n0-h, n1))/(2*h))
		s.Ddn.SetVec(1, (f(n0, n1+h)-f(n0, n1-h))/(2*h))
		return s
	}
	comb := func(n0, n1 float64) float64 {
		return fa(n0, n1) * fb(n0, n1) / (fa(n0, n1) + fb(n0, n1))
	}

	n0, n1 := 1.3, 0.7
	a := build(fa, n0, n1)
	b := build(fb, n0, n1)
	got := a.Mul(b).Div(a.Add(b))

	for i, np := range [][2]float64{{n0 + h, n1}, {n0, n1 + h}} {
		nm := [2]float64{2*n0 - np[0], 2*n1 - np[1]}
		want := (comb(np[0], np[1]) - comb(nm[0], nm[1])) / (2 * h)
		if math.Abs(got.Ddn.AtVec(i)-want) > tol*(1+math.Abs(want)) {
			t.Errorf("Ddn[%d]: got %g, want %g", i, got.Ddn.AtVec(i), want)
		}
	}
}

func TestChemicalVectorAccess(t *testing.T) {
	v := NewChemicalVector(3, 2)
	s := scalarWithDerivs(1.5, 0.25, -0.5, 2, -3)
	v.SetAt(1, s)

	got := v.At(1)
	checkScalar(t, "At", got, 1.5, 0.25, -0.5, 2, -3)

	if v.Len() != 3 {
		t.Errorf("Len: got %d, want 3", v.Len())
	}
	if v.NumSpecies() != 2 {
		t.Errorf("NumSpecies: got %d, want 2", v.NumSpecies())
	}
	// Unset entries stay zero.
	checkScalar(t, "AtZero", v.At(0), 0, 0, 0, 0, 0)
}
