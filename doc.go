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

// Package reaktoro computes chemical equilibrium and kinetic reaction
// states across fields of sample points, and solves inverse problems
// where unknown titrant amounts are determined from equilibrium
// constraints.
//
// A ChemicalSystem describes the elements, species, and phases of a
// problem. A Partition splits the species into equilibrium, kinetic,
// and inert subsets. EquilibriumSolver minimizes the Gibbs energy of
// the equilibrium partition subject to elemental mass balance, using a
// pluggable constrained minimizer (OptimumSolver). ChemicalSolver
// batches equilibrium and kinetics calculations over many field points
// in parallel, tracking the sensitivities of each point's state with
// respect to temperature, pressure, and elemental amounts.
package reaktoro
