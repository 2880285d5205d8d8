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

// Command reaktoro runs chemical equilibrium calculations described by
// a TOML scenario file.
package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/qize/reaktoro"
)

// scenario is the TOML layout of an equilibrium run.
type scenario struct {
	// System selects a built-in chemical system: "water" or "calcite".
	System string `toml:"system"`

	// Points is the number of field points; 1 if unset.
	Points int `toml:"points"`

	Temperature float64 `toml:"temperature"` // [K]
	Pressure    float64 `toml:"pressure"`    // [Pa]

	// Amounts maps species names to initial amounts [mol].
	Amounts map[string]float64 `toml:"amounts"`
}

func (s *scenario) buildSystem() (*reaktoro.ChemicalSystem, error) {
	switch s.System {
	case "", "water":
		return reaktoro.NewWaterSystem()
	case "calcite":
		return reaktoro.NewCalciteSystem()
	}
	return nil, fmt.Errorf("unknown system %q (want water or calcite)", s.System)
}

func main() {
	log := logrus.New()
	var (
		configFile string
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "reaktoro",
		Short: "reaktoro performs chemical equilibrium and kinetics calculations",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "scenario.toml",
		"path to the TOML scenario file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	equilibrate := &cobra.Command{
		Use:   "equilibrate",
		Short: "equilibrate solves the scenario's equilibrium problem at every field point",
		RunE: func(cmd *cobra.Command, args []string) error {
			var sc scenario
			if _, err := toml.DecodeFile(configFile, &sc); err != nil {
				return fmt.Errorf("reading scenario %s: %v", configFile, err)
			}
			if sc.Points <= 0 {
				sc.Points = 1
			}
			if sc.Temperature <= 0 {
				sc.Temperature = 298.15
			}
			if sc.Pressure <= 0 {
				sc.Pressure = 1e5
			}

			system, err := sc.buildSystem()
			if err != nil {
				return err
			}
			state := reaktoro.NewChemicalState(system)
			for name, amount := range sc.Amounts {
				if err := state.SetSpeciesAmountByName(name, amount); err != nil {
					return err
				}
			}

			solver, err := reaktoro.NewChemicalSolver(system, sc.Points)
			if err != nil {
				return err
			}
			solver.Logger = log
			if err := solver.SetState(state); err != nil {
				return err
			}

			b, err := system.ElementAmounts(state.SpeciesAmounts())
			if err != nil {
				return err
			}
			n := sc.Points
			T := make([]float64, n)
			P := make([]float64, n)
			be := make([]float64, n*b.Len())
			for i := 0; i < n; i++ {
				T[i] = sc.Temperature
				P[i] = sc.Pressure
				for j := 0; j < b.Len(); j++ {
					be[i*b.Len()+j] = b.AtVec(j)
				}
			}

			if err := solver.Equilibrate(T, P, be); err != nil {
				if ferr, ok := err.(reaktoro.FieldErrors); ok {
					for _, pe := range ferr {
						log.WithFields(logrus.Fields{
							"point":      pe.Point,
							"iterations": pe.Iterations,
							"residual":   pe.Residual,
						}).Error("point did not converge")
					}
				}
				return err
			}

			printState(cmd, system, solver.State(0))
			return nil
		},
	}

	root.AddCommand(equilibrate)
	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func printState(cmd *cobra.Command, system *reaktoro.ChemicalSystem, state *reaktoro.ChemicalState) {
	cmd.Printf("T = %g K, P = %g Pa\n", state.Temperature(), state.Pressure())
	n := state.SpeciesAmounts()
	for i, sp := range system.Species() {
		cmd.Printf("%-12s %.6e mol\n", sp.Name, n.AtVec(i))
	}
	if b, err := system.ElementAmounts(n); err == nil {
		for j, el := range system.Elements() {
			cmd.Printf("b[%s] = %.6e mol\n", el.Name, b.AtVec(j))
		}
	}
}
