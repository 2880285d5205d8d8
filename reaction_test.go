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
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func waterDissociation(t *testing.T) (*ChemicalSystem, *Reaction) {
	t.Helper()
	system, err := NewWaterSystem()
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewReaction(system, "water-dissociation", map[string]float64{
		"H2O": -1, "H+": 1, "OH-": 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	return system, r
}

func TestReactionConstruction(t *testing.T) {
	system, r := waterDissociation(t)
	if r.NumSpecies() != 3 {
		t.Fatalf("NumSpecies: got %d, want 3", r.NumSpecies())
	}
	// Participants come out ordered by system index.
	for k, i := range r.Indices() {
		if k > 0 && i <= r.Indices()[k-1] {
			t.Errorf("indices not sorted: %v", r.Indices())
		}
		if r.Species()[k] != system.Species()[i].Name {
			t.Errorf("species/index mismatch at %d", k)
		}
	}
	if got := r.Stoichiometry("H2O"); got != -1 {
		t.Errorf("Stoichiometry(H2O): got %g, want -1", got)
	}
	if got := r.Stoichiometry("Xe"); got != 0 {
		t.Errorf("Stoichiometry of absent species: got %g, want 0", got)
	}
	if !r.ContainsSpecies("OH-") || r.ContainsSpecies("Xe") {
		t.Error("ContainsSpecies misreports participation")
	}
	if _, err := NewReaction(system, "bad", map[string]float64{"Xe": 1}); err == nil {
		t.Error("unknown species accepted")
	}
}

func TestEquilibriumConstantFromPotentials(t *testing.T) {
	const tol = 1e-12
	_, r := waterDissociation(t)

	// With μ°(H2O)=0 and μ°(H+)=μ°(OH-)=-RT·lnKw/2 at 298.15 K, the
	// derived constant must be Kw.
	lnKw := 2 * math.Log(1e-7/55.5)
	if got := r.LnEquilibriumConstant(298.15, 1e5); math.Abs(got-lnKw) > tol*math.Abs(lnKw) {
		t.Errorf("lnK: got %g, want %g", got, lnKw)
	}
	if got, want := r.EquilibriumConstant(298.15, 1e5), math.Exp(lnKw); !closeTo(got, want, tol) {
		t.Errorf("K: got %g, want %g", got, want)
	}

	r.SetEquilibriumConstant(func(T, P float64) float64 { return 42 })
	if got := r.EquilibriumConstant(500, 2e5); !closeTo(got, 42, tol) {
		t.Errorf("overridden K: got %g, want 42", got)
	}
}

func TestEquilibriumConstantBalancedUniform(t *testing.T) {
	system, err := NewWaterSystem()
	if err != nil {
		t.Fatal(err)
	}
	// Zero net stoichiometry with equal potentials: Σνμ = 0, so K = 1.
	r, err := NewReaction(system, "exchange", map[string]float64{"H+": 1, "OH-": -1})
	if err != nil {
		t.Fatal(err)
	}
	if got := r.EquilibriumConstant(298.15, 1e5); !closeTo(got, 1, 1e-12) {
		t.Errorf("K of a symmetric exchange: got %g, want 1", got)
	}
}

func TestReactionQuotient(t *testing.T) {
	const tol = 1e-12
	system, r := waterDissociation(t)
	S := system.NumSpecies()

	a := NewChemicalVector(S, S)
	iw, _ := system.IndexSpecies("H2O")
	ih, _ := system.IndexSpecies("H+")
	io, _ := system.IndexSpecies("OH-")
	a.Val.SetVec(iw, 0.02)
	a.Val.SetVec(ih, 0.1)
	a.Val.SetVec(io, 0.2)

	Q, err := r.ReactionQuotient(a)
	if err != nil {
		t.Fatal(err)
	}
	if want := 0.1 * 0.2 / 0.02; !closeTo(Q.Val, want, tol) {
		t.Errorf("Q: got %g, want %g", Q.Val, want)
	}

	// Uniform activities with balanced stoichiometry give Q = 1.
	ex, err := NewReaction(system, "exchange", map[string]float64{"H+": 1, "OH-": -1})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < S; i++ {
		a.Val.SetVec(i, 0.37)
	}
	Q, err = ex.ReactionQuotient(a)
	if err != nil {
		t.Fatal(err)
	}
	if !closeTo(Q.Val, 1, tol) {
		t.Errorf("uniform-activity balanced Q: got %g, want 1", Q.Val)
	}

	// Zero reactant activity is an error, not an Inf.
	a.Val.SetVec(io, 0)
	if _, err := ex.ReactionQuotient(a); err == nil {
		t.Error("zero reactant activity accepted")
	}
}

// The gradient of Q must match central differences of the full
// quotient under perturbed activities.
func TestReactionQuotientGradient(t *testing.T) {
	const (
		h   = 1e-7
		tol = 1e-5
	)
	system, r := waterDissociation(t)
	S := system.NumSpecies()
	rng := rand.New(rand.NewSource(1))

	// Synthetic activity field a_i(n) with dense random Jacobian.
	aval := make([]float64, S)
	jac := mat.NewDense(S, S, nil)
	for i := 0; i < S; i++ {
		aval[i] = 0.1 + rng.Float64()
		for j := 0; j < S; j++ {
			jac.Set(i, j, rng.NormFloat64())
		}
	}
	buildAt := func(dn *mat.VecDense) ChemicalVector {
		a := NewChemicalVector(S, S)
		for i := 0; i < S; i++ {
			v := aval[i]
			if dn != nil {
				for j := 0; j < S; j++ {
					v += jac.At(i, j) * dn.AtVec(j)
				}
			}
			a.Val.SetVec(i, v)
			for j := 0; j < S; j++ {
				a.Ddn.Set(i, j, jac.At(i, j))
			}
		}
		return a
	}

	Q, err := r.ReactionQuotient(buildAt(nil))
	if err != nil {
		t.Fatal(err)
	}
	for j := 0; j < S; j++ {
		dn := mat.NewVecDense(S, nil)
		dn.SetVec(j, h)
		Qp, err := r.ReactionQuotient(buildAt(dn))
		if err != nil {
			t.Fatal(err)
		}
		dn.SetVec(j, -h)
		Qm, err := r.ReactionQuotient(buildAt(dn))
		if err != nil {
			t.Fatal(err)
		}
		want := (Qp.Val - Qm.Val) / (2 * h)
		if math.Abs(Q.Ddn.AtVec(j)-want) > tol*(1+math.Abs(want)) {
			t.Errorf("dQ/dn[%d]: got %g, want %g", j, Q.Ddn.AtVec(j), want)
		}
	}

	// ln Q gradient is the Q gradient scaled by 1/Q.
	lnQ, err := r.LnReactionQuotient(buildAt(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !closeTo(lnQ.Val, math.Log(Q.Val), 1e-12) {
		t.Errorf("lnQ: got %g, want %g", lnQ.Val, math.Log(Q.Val))
	}
	for j := 0; j < S; j++ {
		if !closeTo(lnQ.Ddn.AtVec(j), Q.Ddn.AtVec(j)/Q.Val, 1e-10) {
			t.Errorf("dlnQ/dn[%d]: got %g, want %g",
				j, lnQ.Ddn.AtVec(j), Q.Ddn.AtVec(j)/Q.Val)
		}
	}
}

func TestReactionSystem(t *testing.T) {
	system, r := waterDissociation(t)
	ex, err := NewReaction(system, "exchange", map[string]float64{"H+": 1, "OH-": -1})
	if err != nil {
		t.Fatal(err)
	}
	rs, err := NewReactionSystem(system, []*Reaction{r, ex})
	if err != nil {
		t.Fatal(err)
	}
	if rs.NumReactions() != 2 {
		t.Fatalf("NumReactions: got %d, want 2", rs.NumReactions())
	}
	m := rs.StoichiometricMatrix()
	rows, cols := m.Dims()
	if rows != 2 || cols != system.NumSpecies() {
		t.Fatalf("StoichiometricMatrix dims: got %dx%d", rows, cols)
	}
	iw, _ := system.IndexSpecies("H2O")
	ih, _ := system.IndexSpecies("H+")
	if m.At(0, iw) != -1 || m.At(1, ih) != 1 {
		t.Errorf("StoichiometricMatrix entries wrong: %v", mat.Formatted(m))
	}

	// Rates without a rate law error out.
	if _, err := rs.Rates(298.15, 1e5, mat.NewVecDense(system.NumSpecies(), nil),
		NewChemicalVector(system.NumSpecies(), system.NumSpecies())); err == nil {
		t.Error("rates without rate functions accepted")
	}

	other, err := NewWaterSystem()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewReactionSystem(other, []*Reaction{r}); err == nil {
		t.Error("reaction from a different system accepted")
	}
}
