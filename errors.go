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
	"strings"
)

// DimensionError reports a vector or matrix whose dimension does not
// match the chemical system, partition, or field it is used with.
type DimensionError struct {
	Op        string // the operation that received the value
	Got, Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("reaktoro: %s: dimension mismatch: got %d, want %d", e.Op, e.Got, e.Want)
}

// NonConvergenceError reports a minimizer or integrator that failed to
// converge. Point is the field-point index the failure occurred at, or
// -1 for calculations outside a field context. Err, when non-nil,
// holds the underlying failure a field calculation attributed to the
// point.
type NonConvergenceError struct {
	Point      int
	Iterations int
	Residual   float64
	Err        error
}

func (e *NonConvergenceError) Error() string {
	if e.Err != nil {
		if e.Point < 0 {
			return e.Err.Error()
		}
		return fmt.Sprintf("reaktoro: field point %d: %v", e.Point, e.Err)
	}
	if e.Point < 0 {
		return fmt.Sprintf("reaktoro: no convergence after %d iterations (residual %g)",
			e.Iterations, e.Residual)
	}
	return fmt.Sprintf("reaktoro: field point %d: no convergence after %d iterations (residual %g)",
		e.Point, e.Iterations, e.Residual)
}

func (e *NonConvergenceError) Unwrap() error { return e.Err }

// FieldErrors collects per-point failures from a field calculation.
// Points not listed converged normally and hold valid results.
type FieldErrors []*NonConvergenceError

func (e FieldErrors) Error() string {
	msgs := make([]string, len(e))
	for i, pe := range e {
		msgs[i] = pe.Error()
	}
	return fmt.Sprintf("reaktoro: %d field points failed: %s", len(e), strings.Join(msgs, "; "))
}
