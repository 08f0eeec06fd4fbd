// Copyright Gatery Project Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package hdlpkg implements the helper and interface packages (C9): a fixed
// VHDL package of type-conversion functions generated once per run, and an
// optional user-supplied package of named constants exposed to an external
// integrator.
package hdlpkg

import (
	"fmt"
	"sort"

	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/vhdlfmt"
)

// HelperName is the fixed, desired name of the helper package; callers
// allocate it against the root namespace scope like any other package name
// so it still participates in collision avoidance.
const HelperName = "vhdl_helper"

// RenderHelperPackage renders the fixed helper package: boolean <-> STD_LOGIC,
// bit <-> STD_LOGIC (for inout ports), and bit-vector <-> unsigned
// conversions, the small closed set every generated entity relies on to
// bridge STD_LOGIC_VECTOR port types and UNSIGNED-typed internal signals.
func RenderHelperPackage(name string, formatter *vhdlfmt.CodeFormatter) []string {
	var lines []string

	lines = append(lines, formatter.FileHeader(name+vhdlfmt.Extension)...)
	lines = append(lines, "")
	lines = append(lines, "LIBRARY ieee;")
	lines = append(lines, "USE ieee.std_logic_1164.ALL;")
	lines = append(lines, "USE ieee.numeric_std.ALL;")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("PACKAGE %s IS", name))
	lines = append(lines, vhdlfmt.IndentUnit+"FUNCTION to_sl(b : BOOLEAN) RETURN STD_LOGIC;")
	lines = append(lines, vhdlfmt.IndentUnit+"FUNCTION to_bool(s : STD_LOGIC) RETURN BOOLEAN;")
	lines = append(lines, vhdlfmt.IndentUnit+"FUNCTION to_bit_sl(b : BIT) RETURN STD_LOGIC;")
	lines = append(lines, vhdlfmt.IndentUnit+"FUNCTION to_bit(s : STD_LOGIC) RETURN BIT;")
	lines = append(lines, vhdlfmt.IndentUnit+"FUNCTION to_slv(u : UNSIGNED) RETURN STD_LOGIC_VECTOR;")
	lines = append(lines, vhdlfmt.IndentUnit+"FUNCTION to_uns(s : STD_LOGIC_VECTOR) RETURN UNSIGNED;")
	lines = append(lines, fmt.Sprintf("END %s;", name))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("PACKAGE BODY %s IS", name))
	lines = append(lines, "")
	lines = append(lines, vhdlfmt.IndentUnit+"FUNCTION to_sl(b : BOOLEAN) RETURN STD_LOGIC IS")
	lines = append(lines, vhdlfmt.IndentUnit+"BEGIN")
	lines = append(lines, vhdlfmt.IndentUnit+vhdlfmt.IndentUnit+"IF b THEN RETURN '1'; ELSE RETURN '0'; END IF;")
	lines = append(lines, vhdlfmt.IndentUnit+"END FUNCTION;")
	lines = append(lines, "")
	lines = append(lines, vhdlfmt.IndentUnit+"FUNCTION to_bool(s : STD_LOGIC) RETURN BOOLEAN IS")
	lines = append(lines, vhdlfmt.IndentUnit+"BEGIN")
	lines = append(lines, vhdlfmt.IndentUnit+vhdlfmt.IndentUnit+"RETURN s = '1';")
	lines = append(lines, vhdlfmt.IndentUnit+"END FUNCTION;")
	lines = append(lines, "")
	lines = append(lines, vhdlfmt.IndentUnit+"FUNCTION to_bit_sl(b : BIT) RETURN STD_LOGIC IS")
	lines = append(lines, vhdlfmt.IndentUnit+"BEGIN")
	lines = append(lines, vhdlfmt.IndentUnit+vhdlfmt.IndentUnit+"IF b = '1' THEN RETURN '1'; ELSE RETURN '0'; END IF;")
	lines = append(lines, vhdlfmt.IndentUnit+"END FUNCTION;")
	lines = append(lines, "")
	lines = append(lines, vhdlfmt.IndentUnit+"FUNCTION to_bit(s : STD_LOGIC) RETURN BIT IS")
	lines = append(lines, vhdlfmt.IndentUnit+"BEGIN")
	lines = append(lines, vhdlfmt.IndentUnit+vhdlfmt.IndentUnit+"IF s = '1' THEN RETURN '1'; ELSE RETURN '0'; END IF;")
	lines = append(lines, vhdlfmt.IndentUnit+"END FUNCTION;")
	lines = append(lines, "")
	lines = append(lines, vhdlfmt.IndentUnit+"FUNCTION to_slv(u : UNSIGNED) RETURN STD_LOGIC_VECTOR IS")
	lines = append(lines, vhdlfmt.IndentUnit+"BEGIN")
	lines = append(lines, vhdlfmt.IndentUnit+vhdlfmt.IndentUnit+"RETURN STD_LOGIC_VECTOR(u);")
	lines = append(lines, vhdlfmt.IndentUnit+"END FUNCTION;")
	lines = append(lines, "")
	lines = append(lines, vhdlfmt.IndentUnit+"FUNCTION to_uns(s : STD_LOGIC_VECTOR) RETURN UNSIGNED IS")
	lines = append(lines, vhdlfmt.IndentUnit+"BEGIN")
	lines = append(lines, vhdlfmt.IndentUnit+vhdlfmt.IndentUnit+"RETURN UNSIGNED(s);")
	lines = append(lines, vhdlfmt.IndentUnit+"END FUNCTION;")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("END %s;", name))

	return lines
}

// ConstantCategory tags an InterfacePackage entry by its VHDL constant shape.
type ConstantCategory uint8

const (
	// NaturalConstant is a plain NATURAL constant.
	NaturalConstant ConstantCategory = iota
	// BitVectorConstant is a STD_LOGIC_VECTOR constant of a fixed width.
	BitVectorConstant
	// SingleBitConstant is a single STD_LOGIC constant.
	SingleBitConstant
)

// InterfaceConstant is one named constant exposed by a generated interface
// package.
type InterfaceConstant struct {
	Category ConstantCategory
	Name     string
	Value    uint64
	Width    uint // only meaningful for BitVectorConstant
	Comment  string
}

// InterfacePackageContent is the caller-supplied payload for a generated
// interface package: every exposed constant, in no particular order (the
// renderer sorts by category, then name).
type InterfacePackageContent struct {
	Constants []InterfaceConstant
}

// RenderInterfacePackage renders a user-defined interface package exposing
// named constants to an external integrator. Emission sorts constants by
// category (natural, bit-vector, single-bit) then by name for deterministic
// output regardless of the order content.Constants was built in.
func RenderInterfacePackage(name string, content InterfacePackageContent, formatter *vhdlfmt.CodeFormatter) []string {
	sorted := make([]InterfaceConstant, len(content.Constants))
	copy(sorted, content.Constants)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Category != sorted[j].Category {
			return sorted[i].Category < sorted[j].Category
		}

		return sorted[i].Name < sorted[j].Name
	})

	var lines []string

	lines = append(lines, formatter.FileHeader(name+vhdlfmt.Extension)...)
	lines = append(lines, "")
	lines = append(lines, "LIBRARY ieee;")
	lines = append(lines, "USE ieee.std_logic_1164.ALL;")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("PACKAGE %s IS", name))

	for _, c := range sorted {
		if c.Comment != "" {
			lines = append(lines, vhdlfmt.IndentUnit+fmt.Sprintf("-- %s", c.Comment))
		}

		lines = append(lines, vhdlfmt.IndentUnit+renderConstant(c))
	}

	lines = append(lines, fmt.Sprintf("END %s;", name))

	return lines
}

func renderConstant(c InterfaceConstant) string {
	switch c.Category {
	case NaturalConstant:
		return fmt.Sprintf("CONSTANT %s : NATURAL := %d;", c.Name, c.Value)

	case SingleBitConstant:
		bit := "'0'"
		if c.Value != 0 {
			bit = "'1'"
		}

		return fmt.Sprintf("CONSTANT %s : STD_LOGIC := %s;", c.Name, bit)

	default: // BitVectorConstant
		if c.Width == 0 {
			return fmt.Sprintf("CONSTANT %s : STD_LOGIC_VECTOR(-1 downto 0);", c.Name)
		}

		ct := hlim.VectorType(c.Width)

		return fmt.Sprintf(
			"CONSTANT %s : STD_LOGIC_VECTOR(%d downto 0) := %s;",
			c.Name, c.Width-1, bitVectorLiteral(ct, c.Value),
		)
	}
}

func bitVectorLiteral(ct hlim.ConnectionType, value uint64) string {
	width := ct.Width()
	bits := make([]byte, width)

	for i := uint(0); i < width; i++ {
		if value&(1<<i) != 0 {
			bits[width-1-i] = '1'
		} else {
			bits[width-1-i] = '0'
		}
	}

	return fmt.Sprintf("\"%s\"", string(bits))
}
