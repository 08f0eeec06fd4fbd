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

// Package vhdlfmt is the pure-functional half of the VHDL back-end (C2): it
// mints candidate identifiers by kind, renders connection-type syntax, and
// owns file-level formatting conventions (indentation, banners, extension).
// Nothing here touches the namespace tree or the HLIM graph directly; it is
// called by pkg/namespace (for candidate names) and pkg/ast/pkg/procbuild
// (for type/comment rendering).
package vhdlfmt

import (
	"fmt"
	"strings"

	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/namespace"
)

// Extension is the default output file suffix.
const Extension = ".vhd"

// IndentUnit is the project-wide indentation string.
const IndentUnit = "  "

// CodeFormatter implements namespace.Formatter and carries the small set of
// project-wide rendering conventions.
type CodeFormatter struct {
	// ToolName is embedded in the auto-generated file banner.
	ToolName string
}

// NewCodeFormatter constructs the default formatter.
func NewCodeFormatter(toolName string) *CodeFormatter {
	return &CodeFormatter{ToolName: toolName}
}

// prefixFor returns the default-formatter prefix for a given candidate kind,
// per spec.md §6's naming table.
func prefixFor(kind namespace.CandidateKind) string {
	switch kind {
	case namespace.EntityInput:
		return "in_"
	case namespace.EntityOutput:
		return "out_"
	case namespace.ChildInput:
		return "c_in_"
	case namespace.ChildOutput:
		return "c_out_"
	case namespace.RegisterInput:
		return "r_in_"
	case namespace.RegisterOutput:
		return "r_out_"
	case namespace.LocalSignal:
		return "s_"
	case namespace.LocalVariable:
		return "v_"
	case namespace.ConstantSignal:
		return "C_"
	default:
		return ""
	}
}

// CandidateName mints a candidate identifier for (kind, desired, attempt).
// attempt == 1 yields the bare prefixed name; attempt >= 2 appends "_n".
func (f *CodeFormatter) CandidateName(kind namespace.CandidateKind, desired string, attempt uint) string {
	base := f.baseCandidate(kind, desired)

	if attempt <= 1 {
		return base
	}

	return fmt.Sprintf("%s_%d", base, attempt)
}

func (f *CodeFormatter) baseCandidate(kind namespace.CandidateKind, desired string) string {
	switch kind {
	case namespace.ConstantSignal:
		return prefixFor(kind) + strings.ToUpper(desired)
	case namespace.CandidateProcessClocked:
		return desired + "_reg"
	case namespace.CandidateProcessComb:
		return desired + "_comb"
	case namespace.EntityInput, namespace.EntityOutput, namespace.ChildInput,
		namespace.ChildOutput, namespace.RegisterInput, namespace.RegisterOutput,
		namespace.LocalSignal, namespace.LocalVariable:
		return prefixFor(kind) + desired
	default:
		// Clock, pin, package, entity, block, and instance names carry no
		// fixed prefix; they are used verbatim (modulo collision suffixing).
		return desired
	}
}

// FormatConnectionType renders the VHDL type syntax for a connection type.
// useSLV forces the generic STD_LOGIC_VECTOR spelling for a vector type
// instead of the default UNSIGNED.
func (f *CodeFormatter) FormatConnectionType(ct hlim.ConnectionType, useSLV bool) string {
	if ct.IsBool() {
		return "STD_LOGIC"
	}

	width := ct.Width()
	if width == 0 {
		if useSLV {
			return "STD_LOGIC_VECTOR(-1 downto 0)"
		}

		return "UNSIGNED(-1 downto 0)"
	}

	kind := "UNSIGNED"
	if useSLV {
		kind = "STD_LOGIC_VECTOR"
	}

	return fmt.Sprintf("%s(%d downto 0)", kind, width-1)
}

// FormatConstant renders a literal value of connection type ct.
func (f *CodeFormatter) FormatConstant(ct hlim.ConnectionType, value uint64) string {
	if ct.IsBool() {
		if value != 0 {
			return "'1'"
		}

		return "'0'"
	}

	return fmt.Sprintf("to_unsigned(%d, %d)", value, ct.Width())
}

// FileHeader renders the auto-generated-file banner comment, one line per
// returned string (no trailing newline).
func (f *CodeFormatter) FileHeader(filename string) []string {
	return []string{
		"--------------------------------------------------------------------------",
		fmt.Sprintf("-- %s", filename),
		fmt.Sprintf("-- Automatically generated by %s. DO NOT EDIT.", f.ToolName),
		"--------------------------------------------------------------------------",
	}
}

// Banner renders a framed comment banner for an entity/block/process,
// normalizing embedded newlines into one comment line per source line.
func (f *CodeFormatter) Banner(kind, name, comment string) []string {
	lines := []string{fmt.Sprintf("-- %s: %s", kind, name)}

	if comment == "" {
		return lines
	}

	for _, l := range strings.Split(strings.ReplaceAll(comment, "\r\n", "\n"), "\n") {
		lines = append(lines, fmt.Sprintf("-- %s", l))
	}

	return lines
}

// Comment renders a free-form multi-line code comment, one "-- " per line.
func (f *CodeFormatter) Comment(text string) []string {
	if text == "" {
		return nil
	}

	var out []string

	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		out = append(out, fmt.Sprintf("-- %s", l))
	}

	return out
}

// Indent repeats IndentUnit depth times.
func Indent(depth int) string {
	return strings.Repeat(IndentUnit, depth)
}
