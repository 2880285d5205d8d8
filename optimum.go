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

	"gonum.org/v1/gonum/mat"
)

// ObjectiveFunc evaluates an objective function at x, returning its
// value, gradient, and Hessian.
type ObjectiveFunc func(x *mat.VecDense) (f float64, g *mat.VecDense, H *mat.Dense, err error)

// OptimumProblem describes the constrained minimization
//
//	minimize f(x) subject to A·x = b, x ≥ LowerBound
//
// consumed by an OptimumSolver.
type OptimumProblem struct {
	Objective ObjectiveFunc
	A         *mat.Dense    // equality constraint Jacobian (m×n)
	B         *mat.VecDense // equality constraint right-hand side (m)

	// LowerBound is the common lower bound of the primal variables.
	LowerBound float64
}

// OptimumState is the result of a constrained minimization. All
// quantities are evaluated at the primal solution X.
type OptimumState struct {
	X *mat.VecDense // primal solution (n)
	Y *mat.VecDense // dual solution w.r.t. equality constraints (m)
	Z *mat.VecDense // dual solution w.r.t. bound constraints (n)

	F float64       // objective value
	G *mat.VecDense // objective gradient (n)
	H *mat.Dense    // objective Hessian (n×n)

	C *mat.VecDense // equality constraint value A·X - b (m)
	A *mat.Dense    // equality constraint Jacobian (m×n)
}

// OptimumOptions control an OptimumSolver run.
type OptimumOptions struct {
	MaxIterations int
	Tolerance     float64
}

// DefaultOptimumOptions returns the options used when none are given.
func DefaultOptimumOptions() OptimumOptions {
	return OptimumOptions{MaxIterations: 100, Tolerance: 1e-10}
}

// OptimumResult carries the diagnostics of an OptimumSolver run.
type OptimumResult struct {
	Iterations int
	Residual   float64
	Converged  bool
}

// OptimumSolver is the capability interface of a constrained
// minimizer. Solve minimizes the problem starting from state.X when it
// is non-nil (warm start) and writes the solution back into state.
type OptimumSolver interface {
	Solve(problem OptimumProblem, state *OptimumState, options OptimumOptions) (OptimumResult, error)
}

// NewtonSolver is the default OptimumSolver. It iterates full Newton
// steps on the KKT conditions of the equality-constrained problem,
// damped by a fraction-to-boundary rule that keeps the primal iterate
// strictly above the lower bound.
type NewtonSolver struct{}

// Solve implements OptimumSolver. It returns a *NonConvergenceError if
// the KKT residual does not drop below options.Tolerance within
// options.MaxIterations iterations; the state then holds the last
// iterate.
func (NewtonSolver) Solve(problem OptimumProblem, state *OptimumState, options OptimumOptions) (OptimumResult, error) {
	if options.MaxIterations <= 0 {
		options = DefaultOptimumOptions()
	}
	m, n := problem.A.Dims()
	if problem.B.Len() != m {
		return OptimumResult{}, &DimensionError{Op: "NewtonSolver.Solve", Got: problem.B.Len(), Want: m}
	}
	if state.X == nil || state.X.Len() != n {
		return OptimumResult{}, fmt.Errorf("reaktoro: NewtonSolver needs an initial guess of dimension %d", n)
	}
	x := mat.VecDenseCopyOf(state.X)
	y := mat.NewVecDense(m, nil)
	if state.Y != nil && state.Y.Len() == m {
		y.CopyVec(state.Y)
	}

	// Interior start: push variables strictly above the bound.
	for i := 0; i < n; i++ {
		if x.AtVec(i) <= problem.LowerBound {
			x.SetVec(i, problem.LowerBound+1e-12)
		}
	}

	var (
		f        float64
		g        *mat.VecDense
		H        *mat.Dense
		err      error
		residual = math.Inf(1)
	)
	K := mat.NewDense(n+m, n+m, nil)
	rhs := mat.NewVecDense(n+m, nil)
	sol := mat.NewVecDense(n+m, nil)

	it := 0
	for ; it < options.MaxIterations; it++ {
		f, g, H, err = problem.Objective(x)
		if err != nil {
			return OptimumResult{Iterations: it}, err
		}

		// KKT residual: ‖g - Aᵀy‖∞ over interior variables and
		// ‖A·x - b‖∞.
		residual = 0
		for i := 0; i < n; i++ {
			ri := g.AtVec(i)
			for j := 0; j < m; j++ {
				ri -= problem.A.At(j, i) * y.AtVec(j)
			}
			if x.AtVec(i) > problem.LowerBound+options.Tolerance || ri < 0 {
				residual = math.Max(residual, math.Abs(ri))
			}
		}
		for j := 0; j < m; j++ {
			cj := -problem.B.AtVec(j)
			for i := 0; i < n; i++ {
				cj += problem.A.At(j, i) * x.AtVec(i)
			}
			residual = math.Max(residual, math.Abs(cj))
		}
		if residual < options.Tolerance {
			break
		}

		// Newton step on the KKT system:
		//   [H  -Aᵀ] [dx]   [-g      ]
		//   [A    0 ] [y⁺] = [b - A·x ]
		K.Zero()
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				K.Set(i, j, H.At(i, j))
			}
			for j := 0; j < m; j++ {
				K.Set(i, n+j, -problem.A.At(j, i))
				K.Set(n+j, i, problem.A.At(j, i))
			}
			rhs.SetVec(i, -g.AtVec(i))
		}
		for j := 0; j < m; j++ {
			cj := problem.B.AtVec(j)
			for i := 0; i < n; i++ {
				cj -= problem.A.At(j, i) * x.AtVec(i)
			}
			rhs.SetVec(n+j, cj)
		}
		var lu mat.LU
		lu.Factorize(K)
		if err := lu.SolveVecTo(sol, false, rhs); err != nil {
			// mat.Condition still carries a solution; amounts spanning
			// many orders of magnitude make the KKT system
			// ill-conditioned even near a well-defined minimum.
			if _, ok := err.(mat.Condition); !ok {
				return OptimumResult{Iterations: it, Residual: residual},
					fmt.Errorf("reaktoro: NewtonSolver: singular KKT system: %v", err)
			}
		}

		// Fraction-to-boundary damping keeps x strictly interior.
		const tau = 0.99995
		alpha := 1.0
		for i := 0; i < n; i++ {
			dxi := sol.AtVec(i)
			if dxi < 0 {
				amax := tau * (problem.LowerBound - x.AtVec(i)) / dxi
				alpha = math.Min(alpha, amax)
			}
		}
		for i := 0; i < n; i++ {
			x.SetVec(i, x.AtVec(i)+alpha*sol.AtVec(i))
		}
		for j := 0; j < m; j++ {
			y.SetVec(j, sol.AtVec(n+j))
		}
	}

	converged := residual < options.Tolerance

	state.X = x
	state.Y = y
	state.F = f
	state.G = g
	state.H = H
	state.A = problem.A
	state.C = mat.NewVecDense(m, nil)
	state.C.MulVec(problem.A, x)
	state.C.SubVec(state.C, problem.B)
	state.Z = mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		zi := g.AtVec(i)
		for j := 0; j < m; j++ {
			zi -= problem.A.At(j, i) * y.AtVec(j)
		}
		state.Z.SetVec(i, math.Max(zi, 0))
	}

	result := OptimumResult{Iterations: it, Residual: residual, Converged: converged}
	if !converged {
		return result, &NonConvergenceError{Point: -1, Iterations: it, Residual: residual}
	}
	return result, nil
}
