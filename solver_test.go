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
	"errors"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// waterFieldInputs builds per-point inputs for a water field of the
// given size, all points describing 55.5 mol of pure water.
func waterFieldInputs(t *testing.T, system *ChemicalSystem, size int) (T, P, be []float64) {
	t.Helper()
	state := NewChemicalState(system)
	if err := state.SetSpeciesAmountByName("H2O", 55.5); err != nil {
		t.Fatal(err)
	}
	b, err := system.ElementAmounts(state.SpeciesAmounts())
	if err != nil {
		t.Fatal(err)
	}
	Ee := b.Len()
	T = make([]float64, size)
	P = make([]float64, size)
	be = make([]float64, size*Ee)
	for i := 0; i < size; i++ {
		T[i] = 298.15
		P[i] = 1e5
		for j := 0; j < Ee; j++ {
			be[i*Ee+j] = b.AtVec(j)
		}
	}
	return T, P, be
}

func TestFieldEquilibrateMatchesSingle(t *testing.T) {
	system, err := NewWaterSystem()
	if err != nil {
		t.Fatal(err)
	}
	const size = 16
	solver, err := NewChemicalSolver(system, size)
	if err != nil {
		t.Fatal(err)
	}
	seed := NewChemicalState(system)
	if err := seed.SetSpeciesAmountByName("H2O", 55.5); err != nil {
		t.Fatal(err)
	}
	if err := solver.SetState(seed); err != nil {
		t.Fatal(err)
	}

	T, P, be := waterFieldInputs(t, system, size)
	if err := solver.Equilibrate(T, P, be); err != nil {
		t.Fatal(err)
	}

	// Every point must reproduce the serial single-state solution.
	ref := seed.Clone()
	es := NewEquilibriumSolver(system)
	b := mat.NewVecDense(system.NumElements(), be[:system.NumElements()])
	if _, err := es.Solve(ref, 298.15, 1e5, b); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < size; i++ {
		ni := solver.State(i).SpeciesAmounts()
		for j := 0; j < system.NumSpecies(); j++ {
			if math.Abs(ni.AtVec(j)-ref.SpeciesAmount(j)) > 1e-10*(1+ref.SpeciesAmount(j)) {
				t.Errorf("point %d species %d: got %g, want %g",
					i, j, ni.AtVec(j), ref.SpeciesAmount(j))
			}
		}
		if solver.State(i).Sensitivity() == nil {
			t.Errorf("point %d has no sensitivities", i)
		}
	}
}

func TestFieldEquilibrateIsolatesFailures(t *testing.T) {
	system, err := NewWaterSystem()
	if err != nil {
		t.Fatal(err)
	}
	const size = 6
	solver, err := NewChemicalSolver(system, size)
	if err != nil {
		t.Fatal(err)
	}
	seed := NewChemicalState(system)
	if err := seed.SetSpeciesAmountByName("H2O", 55.5); err != nil {
		t.Fatal(err)
	}
	if err := solver.SetState(seed); err != nil {
		t.Fatal(err)
	}

	T, P, be := waterFieldInputs(t, system, size)
	// Point 3 gets infeasible element amounts: no nonnegative
	// composition has negative hydrogen.
	Ee := system.NumElements()
	be[3*Ee] = -1

	err = solver.Equilibrate(T, P, be)
	if err == nil {
		t.Fatal("infeasible point did not fail")
	}
	ferr, ok := err.(FieldErrors)
	if !ok {
		t.Fatalf("error type: got %T, want FieldErrors", err)
	}
	if len(ferr) != 1 || ferr[0].Point != 3 {
		t.Fatalf("failures: got %v, want exactly point 3", ferr)
	}

	// The other points converged and hold the regular solution.
	ih, _ := system.IndexSpecies("H+")
	for _, i := range []int{0, 1, 2, 4, 5} {
		if got := solver.State(i).SpeciesAmount(ih); math.Abs(got-1e-7) > 1e-9 {
			t.Errorf("point %d n(H+): got %g, want 1e-7", i, got)
		}
	}
}

func TestFieldEquilibrateDimensionChecks(t *testing.T) {
	system, err := NewWaterSystem()
	if err != nil {
		t.Fatal(err)
	}
	solver, err := NewChemicalSolver(system, 4)
	if err != nil {
		t.Fatal(err)
	}
	T, P, be := waterFieldInputs(t, system, 4)
	if err := solver.Equilibrate(T[:3], P, be); err == nil {
		t.Error("short T accepted")
	}
	if err := solver.Equilibrate(T, P[:3], be); err == nil {
		t.Error("short P accepted")
	}
	if err := solver.Equilibrate(T, P, be[:5]); err == nil {
		t.Error("short be accepted")
	}
	if _, err := NewChemicalSolver(system, 0); err == nil {
		t.Error("zero-size field accepted")
	}
}

func TestFieldSetStateAt(t *testing.T) {
	system, err := NewWaterSystem()
	if err != nil {
		t.Fatal(err)
	}
	solver, err := NewChemicalSolver(system, 4)
	if err != nil {
		t.Fatal(err)
	}
	a := NewChemicalState(system)
	if err := a.SetSpeciesAmountByName("H2O", 1); err != nil {
		t.Fatal(err)
	}
	b := NewChemicalState(system)
	if err := b.SetSpeciesAmountByName("H2O", 2); err != nil {
		t.Fatal(err)
	}
	if err := solver.SetState(a); err != nil {
		t.Fatal(err)
	}
	if err := solver.SetStateAt(b, []int{1, 3}); err != nil {
		t.Fatal(err)
	}
	iw, _ := system.IndexSpecies("H2O")
	for i, want := range []float64{1, 2, 1, 2} {
		if got := solver.State(i).SpeciesAmount(iw); got != want {
			t.Errorf("point %d: got %g, want %g", i, got, want)
		}
	}
	// States are copies, not aliases.
	if err := b.SetSpeciesAmountByName("H2O", 99); err != nil {
		t.Fatal(err)
	}
	if got := solver.State(1).SpeciesAmount(iw); got != 2 {
		t.Errorf("point 1 aliased the seed state: got %g", got)
	}

	if err := solver.SetStateAt(a, []int{7}); err == nil {
		t.Error("out-of-range point index accepted")
	}
}

// calciteFieldSolver builds a small equilibrated calcite field with a
// kinetic calcite partition.
func calciteFieldSolver(t *testing.T, size int) (*ChemicalSystem, *ChemicalSolver) {
	t.Helper()
	system, err := NewCalciteSystem()
	if err != nil {
		t.Fatal(err)
	}
	ic, _ := system.IndexSpecies("CaCO3(s)")
	r, err := NewReaction(system, "calcite-decay", map[string]float64{"CaCO3(s)": 1})
	if err != nil {
		t.Fatal(err)
	}
	r.SetRate(func(T, P float64, n *mat.VecDense, a ChemicalVector) (ChemicalScalar, error) {
		s := NewChemicalScalar(system.NumSpecies())
		s.Val = -0.1 * n.AtVec(ic)
		s.Ddn.SetVec(ic, -0.1)
		return s, nil
	})
	rs, err := NewReactionSystem(system, []*Reaction{r})
	if err != nil {
		t.Fatal(err)
	}
	solver, err := NewReactionChemicalSolver(rs, size)
	if err != nil {
		t.Fatal(err)
	}
	partition, err := NewKineticPartition(system, "CaCO3(s)")
	if err != nil {
		t.Fatal(err)
	}
	if err := solver.SetPartition(partition); err != nil {
		t.Fatal(err)
	}

	state := NewChemicalState(system)
	for name, amount := range map[string]float64{
		"H2O": 55.5, "Ca++": 1e-4, "HCO3-": 1e-4, "CaCO3(s)": 2,
	} {
		if err := state.SetSpeciesAmountByName(name, amount); err != nil {
			t.Fatal(err)
		}
	}
	if err := solver.SetState(state); err != nil {
		t.Fatal(err)
	}

	// Equilibrium-element amounts restricted to the equilibrium subset.
	bfull, err := system.ElementAmounts(state.SpeciesAmounts())
	if err != nil {
		t.Fatal(err)
	}
	ielements := solver.Partition().EquilibriumElements()
	Ee := len(ielements)
	T := make([]float64, size)
	P := make([]float64, size)
	be := make([]float64, size*Ee)
	for i := 0; i < size; i++ {
		T[i] = 298.15
		P[i] = 1e5
		for k, j := range ielements {
			be[i*Ee+k] = bfull.AtVec(j)
		}
	}
	if err := solver.Equilibrate(T, P, be); err != nil {
		t.Fatal(err)
	}
	return system, solver
}

func TestFieldReact(t *testing.T) {
	system, solver := calciteFieldSolver(t, 5)
	ic, _ := system.IndexSpecies("CaCO3(s)")
	n0 := solver.State(0).SpeciesAmount(ic)

	if err := solver.React(0, 2); err != nil {
		t.Fatal(err)
	}
	want := n0 * math.Exp(-0.1*2)
	for i := 0; i < solver.Size(); i++ {
		if got := solver.State(i).SpeciesAmount(ic); math.Abs(got-want) > 1e-5*want {
			t.Errorf("point %d n(CaCO3): got %g, want %g", i, got, want)
		}
	}

	// React needs rate laws.
	plain, err := NewChemicalSolver(system, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := plain.React(0, 1); err == nil {
		t.Error("React without a reaction system accepted")
	}
}

func TestFieldDerivedQuantities(t *testing.T) {
	const tol = 1e-12
	_, solver := calciteFieldSolver(t, 3)

	st := solver.State(0)
	vAqueous := st.PhaseVolume(0)
	vCalcite := st.PhaseVolume(1)
	vTotal := vAqueous + vCalcite

	por, err := solver.Porosity()
	if err != nil {
		t.Fatal(err)
	}
	if por.Len() != 3 {
		t.Fatalf("porosity field length: got %d, want 3", por.Len())
	}
	wantPor := 1 - vCalcite/vTotal
	for i := 0; i < por.Len(); i++ {
		if !closeTo(por.Val[i], wantPor, tol) {
			t.Errorf("porosity[%d]: got %g, want %g", i, por.Val[i], wantPor)
		}
	}

	sat, err := solver.Saturation(0)
	if err != nil {
		t.Fatal(err)
	}
	// A single fluid phase fills the whole fluid volume.
	if !closeTo(sat.Val[0], 1, tol) {
		t.Errorf("saturation: got %g, want 1", sat.Val[0])
	}
	if _, err := solver.Saturation(1); err == nil {
		t.Error("saturation of a solid phase accepted")
	}

	den, err := solver.Density(0)
	if err != nil {
		t.Fatal(err)
	}
	wantDen := st.PhaseMass(0) / vAqueous
	if !closeTo(den.Val[0], wantDen, tol) {
		t.Errorf("density: got %g, want %g", den.Val[0], wantDen)
	}
	if den.Val[0] < 900 || den.Val[0] > 1100 {
		t.Errorf("aqueous density %g kg/m³ out of plausible range", den.Val[0])
	}
}

func TestFieldDerivedQuantitiesWithDiff(t *testing.T) {
	system, solver := calciteFieldSolver(t, 2)

	por, err := solver.Porosity()
	if err != nil {
		t.Fatal(err)
	}
	porDiff, err := solver.PorosityWithDiff()
	if err != nil {
		t.Fatal(err)
	}
	// The value entries come from the same code path.
	for i := range por.Val {
		if por.Val[i] != porDiff.Val[i] {
			t.Errorf("point %d: value %g != withDiff value %g", i, por.Val[i], porDiff.Val[i])
		}
	}

	// The kinetic-species derivative of porosity has the closed form
	// -v·Vfluid/Vtotal² for the calcite molar volume v.
	st := solver.State(0)
	v := system.Species()[5].MolarVolume
	vFluid := st.PhaseVolume(0)
	vTotal := vFluid + st.PhaseVolume(1)
	want := -v * vFluid / (vTotal * vTotal)
	if got := porDiff.Ddnk.Get(0, 0); !closeTo(got, want, 1e-10) {
		t.Errorf("dporosity/dn(CaCO3): got %g, want %g", got, want)
	}

	denDiff, err := solver.DensityWithDiff(0)
	if err != nil {
		t.Fatal(err)
	}
	den, err := solver.Density(0)
	if err != nil {
		t.Fatal(err)
	}
	if den.Val[0] != denDiff.Val[0] {
		t.Errorf("density value %g != withDiff value %g", den.Val[0], denDiff.Val[0])
	}
	for i := range denDiff.Ddt {
		if math.IsNaN(denDiff.Ddt[i]) || math.IsNaN(denDiff.Ddp[i]) {
			t.Errorf("point %d: NaN in temperature or pressure sensitivity", i)
		}
	}

	// WithDiff needs per-point sensitivities.
	fresh, err := NewChemicalSolver(system, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fresh.PorosityWithDiff(); err == nil {
		t.Error("withDiff without sensitivities accepted")
	}
}

func TestFieldErrorsCarryCause(t *testing.T) {
	system, err := NewCalciteSystem()
	if err != nil {
		t.Fatal(err)
	}
	r, err := NewReaction(system, "calcite-decay", map[string]float64{"CaCO3(s)": 1})
	if err != nil {
		t.Fatal(err)
	}
	rateErr := errors.New("rate evaluation out of range")
	r.SetRate(func(T, P float64, n *mat.VecDense, a ChemicalVector) (ChemicalScalar, error) {
		return ChemicalScalar{}, rateErr
	})
	rs, err := NewReactionSystem(system, []*Reaction{r})
	if err != nil {
		t.Fatal(err)
	}
	solver, err := NewReactionChemicalSolver(rs, 2)
	if err != nil {
		t.Fatal(err)
	}
	partition, err := NewKineticPartition(system, "CaCO3(s)")
	if err != nil {
		t.Fatal(err)
	}
	if err := solver.SetPartition(partition); err != nil {
		t.Fatal(err)
	}
	state := NewChemicalState(system)
	if err := state.SetSpeciesAmountByName("CaCO3(s)", 2); err != nil {
		t.Fatal(err)
	}
	if err := solver.SetState(state); err != nil {
		t.Fatal(err)
	}

	err = solver.React(0, 1)
	if err == nil {
		t.Fatal("failing rate law produced no error")
	}
	errs, ok := err.(FieldErrors)
	if !ok {
		t.Fatalf("error type: got %T, want FieldErrors", err)
	}
	for _, pe := range errs {
		if !errors.Is(pe, rateErr) {
			t.Errorf("point %d: cause not carried: %v", pe.Point, pe)
		}
		if !strings.Contains(pe.Error(), "rate evaluation out of range") {
			t.Errorf("point %d: message drops the cause: %q", pe.Point, pe.Error())
		}
	}
}
