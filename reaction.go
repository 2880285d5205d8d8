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
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// EquilibriumConstantFunc evaluates the equilibrium constant of a
// reaction at temperature T [K] and pressure P [Pa].
type EquilibriumConstantFunc func(T, P float64) float64

// RateFunc evaluates the kinetic rate of a reaction [mol/s] at (T, P),
// species amounts n, and species activities a.
type RateFunc func(T, P float64, n *mat.VecDense, a ChemicalVector) (ChemicalScalar, error)

// Reaction is a chemical reaction over the species of a chemical
// system, written in the convention 0 ⇌ Σ νᵢ·speciesᵢ with negative
// stoichiometric coefficients for reactants and positive for products.
// The participating species indices and coefficients are kept in
// corresponding order. A Reaction is bound to the system definition it
// was built against; rebuilding the system means rebuilding the
// reaction.
type Reaction struct {
	name   string
	system *ChemicalSystem

	species         []string  // names of participating species
	indices         []int     // indices of participating species
	stoichiometries []float64 // signed coefficients, same order

	lnk  EquilibriumConstantFunc // ln of the equilibrium constant
	rate RateFunc
}

// NewReaction creates a reaction from an equation given as a map of
// species name to signed stoichiometric coefficient. The participating
// species are ordered by their index in the system, so reactions built
// from equal equations are identical. The equilibrium constant is
// derived from the standard chemical potentials of the participating
// species; use SetEquilibriumConstant to override it.
func NewReaction(system *ChemicalSystem, name string, equation map[string]float64) (*Reaction, error) {
	r := &Reaction{name: name, system: system}
	for sname := range equation {
		i, ok := system.IndexSpecies(sname)
		if !ok {
			return nil, fmt.Errorf("reaktoro: reaction %s references unknown species %s", name, sname)
		}
		r.indices = append(r.indices, i)
	}
	sort.Ints(r.indices)
	for _, i := range r.indices {
		sname := system.Species()[i].Name
		r.species = append(r.species, sname)
		r.stoichiometries = append(r.stoichiometries, equation[sname])
	}

	// Capture the chemical potential functions once; the equilibrium
	// constant is then cheap to evaluate for any (T, P).
	mu := make([]ChemicalPotentialFunc, len(r.indices))
	for k, i := range r.indices {
		mu[k] = system.Species()[i].ChemicalPotential
		if mu[k] == nil {
			return nil, fmt.Errorf("reaktoro: reaction %s: species %s has no chemical potential function",
				name, r.species[k])
		}
	}
	stoich := append([]float64(nil), r.stoichiometries...)
	r.lnk = func(T, P float64) float64 {
		sum := 0.0
		for k := range mu {
			sum += stoich[k] * mu[k](T, P)
		}
		return -sum / (universalGasConstant * T)
	}
	return r, nil
}

// Name returns the name of the reaction.
func (r *Reaction) Name() string { return r.name }

// System returns the chemical system the reaction was built against.
func (r *Reaction) System() *ChemicalSystem { return r.system }

// NumSpecies returns the number of participating species.
func (r *Reaction) NumSpecies() int { return len(r.indices) }

// Species returns the names of the participating species.
func (r *Reaction) Species() []string { return r.species }

// Indices returns the indices of the participating species.
func (r *Reaction) Indices() []int { return r.indices }

// Stoichiometries returns the signed stoichiometric coefficients of the
// participating species, in the same order as Indices.
func (r *Reaction) Stoichiometries() []float64 { return r.stoichiometries }

// Stoichiometry returns the stoichiometric coefficient of the named
// species, or zero if the species does not participate in the reaction.
func (r *Reaction) Stoichiometry(species string) float64 {
	for k, name := range r.species {
		if name == species {
			return r.stoichiometries[k]
		}
	}
	return 0
}

// ContainsSpecies reports whether the named species participates in
// the reaction.
func (r *Reaction) ContainsSpecies(species string) bool {
	for _, name := range r.species {
		if name == species {
			return true
		}
	}
	return false
}

// SetEquilibriumConstant replaces the equilibrium constant function of
// the reaction.
func (r *Reaction) SetEquilibriumConstant(k EquilibriumConstantFunc) {
	r.lnk = func(T, P float64) float64 { return math.Log(k(T, P)) }
}

// SetRate sets the kinetic rate function of the reaction.
func (r *Reaction) SetRate(rate RateFunc) { r.rate = rate }

// LnEquilibriumConstant evaluates the natural log of the equilibrium
// constant at (T, P).
func (r *Reaction) LnEquilibriumConstant(T, P float64) float64 { return r.lnk(T, P) }

// EquilibriumConstant evaluates the equilibrium constant
// K = exp(-Σ νᵢ·μᵢ(T,P) / (R·T)) at (T, P).
func (r *Reaction) EquilibriumConstant(T, P float64) float64 {
	return math.Exp(r.lnk(T, P))
}

// ReactionQuotient computes Q = Π aᵢ^νᵢ over the participating species
// from the given activity vector, with amount derivatives propagated as
// dQ/dn = Q·Σ (νᵢ/aᵢ)·daᵢ/dn.
//
// The value is accumulated first, and the gradient second reusing the
// finished value: every gradient term depends on the final Q, so a
// partial product would give a wrong derivative.
//
// A zero activity for a species with negative stoichiometry makes the
// quotient undefined and is reported as an error rather than decaying
// into a floating-point special value.
func (r *Reaction) ReactionQuotient(a ChemicalVector) (ChemicalScalar, error) {
	S := r.system.NumSpecies()
	if a.Len() != S {
		return ChemicalScalar{}, &DimensionError{Op: "ReactionQuotient", Got: a.Len(), Want: S}
	}

	Q := NewChemicalScalar(a.NumSpecies())
	Q.Val = 1.0

	for k, i := range r.indices {
		vi := r.stoichiometries[k]
		ai := a.Val.AtVec(i)
		if ai <= 0 && vi < 0 {
			return ChemicalScalar{}, fmt.Errorf(
				"reaktoro: reaction %s: quotient undefined: activity of reactant %s is %g",
				r.name, r.species[k], ai)
		}
		Q.Val *= math.Pow(ai, vi)
	}

	for k, i := range r.indices {
		vi := r.stoichiometries[k]
		ai := a.Val.AtVec(i)
		if ai == 0 {
			// Positive stoichiometry with zero activity: the value
			// factor is zero and so is this gradient term.
			continue
		}
		c := Q.Val * vi / ai
		Q.Ddt += c * a.Ddt.AtVec(i)
		Q.Ddp += c * a.Ddp.AtVec(i)
		for j := 0; j < a.NumSpecies(); j++ {
			Q.Ddn.SetVec(j, Q.Ddn.AtVec(j)+c*a.Ddn.At(i, j))
		}
	}
	return Q, nil
}

// LnReactionQuotient computes ln Q with derivatives. It requires all
// participating activities to be strictly positive.
func (r *Reaction) LnReactionQuotient(a ChemicalVector) (ChemicalScalar, error) {
	S := r.system.NumSpecies()
	if a.Len() != S {
		return ChemicalScalar{}, &DimensionError{Op: "LnReactionQuotient", Got: a.Len(), Want: S}
	}
	lnQ := NewChemicalScalar(a.NumSpecies())
	for k, i := range r.indices {
		vi := r.stoichiometries[k]
		ai := a.Val.AtVec(i)
		if ai <= 0 {
			return ChemicalScalar{}, fmt.Errorf(
				"reaktoro: reaction %s: ln quotient undefined: activity of %s is %g",
				r.name, r.species[k], ai)
		}
		lnQ.Val += vi * math.Log(ai)
		c := vi / ai
		lnQ.Ddt += c * a.Ddt.AtVec(i)
		lnQ.Ddp += c * a.Ddp.AtVec(i)
		for j := 0; j < a.NumSpecies(); j++ {
			lnQ.Ddn.SetVec(j, lnQ.Ddn.AtVec(j)+c*a.Ddn.At(i, j))
		}
	}
	return lnQ, nil
}

// Rate evaluates the kinetic rate function of the reaction. It is a
// passthrough to the externally supplied rate law.
func (r *Reaction) Rate(T, P float64, n *mat.VecDense, a ChemicalVector) (ChemicalScalar, error) {
	if r.rate == nil {
		return ChemicalScalar{}, fmt.Errorf("reaktoro: reaction %s has no rate function", r.name)
	}
	return r.rate(T, P, n, a)
}

// ReactionSystem is an ordered collection of reactions over one
// chemical system.
type ReactionSystem struct {
	system    *ChemicalSystem
	reactions []*Reaction
}

// NewReactionSystem creates a reaction system. All reactions must have
// been built against the same chemical system.
func NewReactionSystem(system *ChemicalSystem, reactions []*Reaction) (*ReactionSystem, error) {
	for _, r := range reactions {
		if r.system != system {
			return nil, fmt.Errorf("reaktoro: reaction %s was built against a different chemical system", r.name)
		}
	}
	return &ReactionSystem{system: system, reactions: reactions}, nil
}

// System returns the chemical system of the reaction system.
func (rs *ReactionSystem) System() *ChemicalSystem { return rs.system }

// NumReactions returns the number of reactions.
func (rs *ReactionSystem) NumReactions() int { return len(rs.reactions) }

// Reactions returns the ordered reaction sequence.
func (rs *ReactionSystem) Reactions() []*Reaction { return rs.reactions }

// StoichiometricMatrix returns the R×S matrix whose (k,i) entry is the
// stoichiometric coefficient of species i in reaction k.
func (rs *ReactionSystem) StoichiometricMatrix() *mat.Dense {
	R, S := len(rs.reactions), rs.system.NumSpecies()
	m := mat.NewDense(R, S, nil)
	for k, r := range rs.reactions {
		for j, i := range r.indices {
			m.Set(k, i, r.stoichiometries[j])
		}
	}
	return m
}

// Rates evaluates the kinetic rate of every reaction at (T, P, n, a).
func (rs *ReactionSystem) Rates(T, P float64, n *mat.VecDense, a ChemicalVector) ([]ChemicalScalar, error) {
	rates := make([]ChemicalScalar, len(rs.reactions))
	for k, r := range rs.reactions {
		rate, err := r.Rate(T, P, n, a)
		if err != nil {
			return nil, err
		}
		rates[k] = rate
	}
	return rates, nil
}
