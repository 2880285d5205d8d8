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
	"sort"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
)

// Database maps compound names to elemental formulas. It resolves
// titrant names in inverse problems and seeds formulas when building
// chemical systems by hand.
type Database struct {
	formulas map[string]map[string]float64
}

// NewDatabase creates an empty compound database.
func NewDatabase() *Database {
	return &Database{formulas: make(map[string]map[string]float64)}
}

// DefaultDatabase returns a database of common compounds and ions. The
// charge of an ion is recorded under the synthetic element Z.
func DefaultDatabase() *Database {
	d := NewDatabase()
	for _, c := range []string{
		"H2O", "H+", "OH-", "H2", "O2", "CO2", "CO3--", "HCO3-",
		"CH4", "NH3", "NH4+", "HCl", "Cl-", "NaCl", "Na+", "NaOH",
		"KCl", "K+", "KOH", "CaCl2", "Ca++", "CaCO3", "CaSO4",
		"MgCl2", "Mg++", "MgCO3", "SiO2", "H2SO4", "SO4--", "HNO3",
		"NO3-", "H3PO4", "FeCl3", "Fe++", "Fe+++", "Al+++", "Al2O3",
	} {
		formula, err := ParseFormula(c)
		if err != nil {
			panic(fmt.Sprintf("reaktoro: bad builtin compound %s: %v", c, err))
		}
		d.Set(c, formula)
	}
	return d
}

// Set registers or replaces the formula of a compound.
func (d *Database) Set(name string, formula map[string]float64) {
	cp := make(map[string]float64, len(formula))
	for e, c := range formula {
		cp[e] = c
	}
	d.formulas[name] = cp
}

// Formula returns the elemental formula of a compound, reporting
// whether the compound is known. Unknown names fall back to parsing
// the name itself as a chemical formula.
func (d *Database) Formula(name string) (map[string]float64, bool) {
	if f, ok := d.formulas[name]; ok {
		cp := make(map[string]float64, len(f))
		for e, c := range f {
			cp[e] = c
		}
		return cp, true
	}
	if f, err := ParseFormula(name); err == nil {
		return f, true
	}
	return nil, false
}

// Names returns the registered compound names in sorted order.
func (d *Database) Names() []string {
	names := make([]string, 0, len(d.formulas))
	for name := range d.formulas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// databaseFile is the on-disk TOML layout of a compound database.
type databaseFile struct {
	Compounds map[string]map[string]float64 `toml:"compounds"`
}

// LoadDatabase reads a compound database from a TOML file of the form
//
//	[compounds."CaCO3"]
//	Ca = 1
//	C = 1
//	O = 3
func LoadDatabase(path string) (*Database, error) {
	var f databaseFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("reaktoro: loading database %s: %v", path, err)
	}
	d := NewDatabase()
	for name, formula := range f.Compounds {
		if len(formula) == 0 {
			return nil, fmt.Errorf("reaktoro: database %s: compound %s has no elements", path, name)
		}
		d.Set(name, formula)
	}
	return d, nil
}

// ParseFormula parses a chemical formula such as CaCO3, Fe2(SO4)3, or
// HCO3- into element coefficients. Element symbols are one uppercase
// letter followed by lowercase letters; groups in parentheses take an
// integer multiplier; trailing + or - signs add the charge under the
// synthetic element Z.
func ParseFormula(s string) (map[string]float64, error) {
	if s == "" {
		return nil, fmt.Errorf("reaktoro: empty formula")
	}
	body := s
	var charge float64
	for strings.HasSuffix(body, "+") || strings.HasSuffix(body, "-") {
		if strings.HasSuffix(body, "+") {
			charge++
		} else {
			charge--
		}
		body = body[:len(body)-1]
	}

	formula := make(map[string]float64)
	_, rest, err := parseGroup(body, formula, 1)
	if err != nil {
		return nil, fmt.Errorf("reaktoro: formula %s: %v", s, err)
	}
	if rest != "" {
		return nil, fmt.Errorf("reaktoro: formula %s: unexpected %q", s, rest)
	}
	if len(formula) == 0 {
		return nil, fmt.Errorf("reaktoro: formula %s has no elements", s)
	}
	if charge != 0 {
		formula["Z"] += charge
	}
	return formula, nil
}

// parseGroup consumes element symbols and parenthesized subgroups
// until the input or the enclosing group ends, accumulating scaled
// coefficients into formula.
func parseGroup(s string, formula map[string]float64, scale float64) (float64, string, error) {
	for s != "" {
		switch {
		case s[0] == ')':
			return scale, s, nil
		case s[0] == '(':
			sub := make(map[string]float64)
			_, rest, err := parseGroup(s[1:], sub, 1)
			if err != nil {
				return 0, "", err
			}
			if rest == "" || rest[0] != ')' {
				return 0, "", fmt.Errorf("unbalanced parenthesis")
			}
			count, rest := parseCount(rest[1:])
			for e, c := range sub {
				formula[e] += scale * count * c
			}
			s = rest
		case unicode.IsUpper(rune(s[0])):
			i := 1
			for i < len(s) && unicode.IsLower(rune(s[i])) {
				i++
			}
			symbol := s[:i]
			count, rest := parseCount(s[i:])
			formula[symbol] += scale * count
			s = rest
		default:
			return 0, "", fmt.Errorf("unexpected character %q", s[0])
		}
	}
	return scale, "", nil
}

// parseCount reads an optional leading integer, defaulting to 1.
func parseCount(s string) (float64, string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 1, s
	}
	var n float64
	for _, r := range s[:i] {
		n = n*10 + float64(r-'0')
	}
	return n, s[i:]
}
