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

// Package procbuild implements the process builder (C4): it buckets nodes
// into combinational and clocked processes and renders their bodies as VHDL
// text, formatting each process's expression trees bottom-up but stopping at
// any signal that already owns a declared name (the "boundary") so that
// register feedback and other cyclic wiring in the HLIM graph never sends
// the formatter into an infinite recursion.
package procbuild

import (
	"fmt"
	"strings"

	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/namespace"
	"github.com/gatery-project/vhdlback/pkg/vhdlerr"
	"github.com/gatery-project/vhdlback/pkg/vhdlfmt"
)

// Boundary is the set of node ids whose output(s) already carry a declared
// signal name (entity ports, register outputs, block-local signals, ...)
// and must therefore be referenced by name rather than inlined.
type Boundary map[hlim.NodeId]bool

// ExprBuilder formats HLIM expression trees as VHDL, bounded by a Boundary.
type ExprBuilder struct {
	circuit   *hlim.Circuit
	scope     *namespace.Scope
	formatter *vhdlfmt.CodeFormatter
}

// NewExprBuilder constructs an expression builder over a fixed circuit,
// namespace scope, and formatter.
func NewExprBuilder(circuit *hlim.Circuit, scope *namespace.Scope, formatter *vhdlfmt.CodeFormatter) *ExprBuilder {
	return &ExprBuilder{circuit: circuit, scope: scope, formatter: formatter}
}

// FormatExpression renders the value at port as VHDL. Nodes that are always
// named (pins, signals, registers, externals, nested groups) are referenced
// by name regardless of boundary; plain logic nodes are inlined unless they
// are themselves in boundary.
func (b *ExprBuilder) FormatExpression(port hlim.PortRef, boundary Boundary) (string, error) {
	node := b.circuit.Node(port.Node)

	if node.Kind != hlim.LogicNodeKind || boundary[port.Node] {
		return b.scope.GetSignalName(port)
	}

	return b.formatLogic(node, boundary)
}

// FormatConstant exposes the formatter's literal rendering for callers (e.g.
// a register's reset value) that need it outside of a full expression tree.
func (b *ExprBuilder) FormatConstant(ct hlim.ConnectionType, value uint64) string {
	return b.formatter.FormatConstant(ct, value)
}

// CollectReferences walks the same boundary-bounded recursion as
// FormatExpression, but records every node it would name-reference into out
// instead of rendering text. Used to compute a combinational process's
// sensitivity list.
func (b *ExprBuilder) CollectReferences(port hlim.PortRef, boundary Boundary, out map[hlim.NodeId]bool) error {
	node := b.circuit.Node(port.Node)

	if node.Kind != hlim.LogicNodeKind || boundary[port.Node] {
		out[port.Node] = true
		return nil
	}

	for _, in := range node.Inputs {
		if in.IsEmpty() {
			continue
		}

		if err := b.CollectReferences(in.Unwrap(), boundary, out); err != nil {
			return err
		}
	}

	return nil
}

func (b *ExprBuilder) operand(node *hlim.Node, i uint, boundary Boundary) (string, error) {
	driver, ok := node.DriverOf(i)
	if !ok {
		return "", vhdlerr.NewDesignError(node.Name, fmt.Sprintf("input %d is undriven", i))
	}

	return b.FormatExpression(driver, boundary)
}

func (b *ExprBuilder) formatLogic(node *hlim.Node, boundary Boundary) (string, error) {
	switch node.Op {
	case "const":
		return b.formatter.FormatConstant(node.OutputType(0), node.Const.UnwrapOr(0)), nil

	case "not":
		a, err := b.operand(node, 0, boundary)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("not (%s)", a), nil

	case "and", "or", "xor", "nand", "nor", "xnor":
		return b.formatBinaryChain(node, boundary, strings.ToUpper(node.Op))

	case "add":
		return b.formatBinaryOp(node, boundary, "+")
	case "sub":
		return b.formatBinaryOp(node, boundary, "-")
	case "mul":
		return b.formatBinaryOp(node, boundary, "*")

	case "eq":
		return b.formatCompare(node, boundary, "=")
	case "neq":
		return b.formatCompare(node, boundary, "/=")
	case "lt":
		return b.formatCompare(node, boundary, "<")
	case "lte":
		return b.formatCompare(node, boundary, "<=")
	case "gt":
		return b.formatCompare(node, boundary, ">")
	case "gte":
		return b.formatCompare(node, boundary, ">=")

	case "mux":
		return b.formatMux(node, boundary)

	case "concat":
		return b.formatConcat(node, boundary)

	case "slice":
		return b.formatSlice(node, boundary)

	default:
		return "", vhdlerr.NewUnsupported(fmt.Sprintf("logic op %q", node.Op), node.Name)
	}
}

func (b *ExprBuilder) formatBinaryChain(node *hlim.Node, boundary Boundary, vhdlOp string) (string, error) {
	if len(node.Inputs) == 0 {
		return "", vhdlerr.NewDesignError(node.Name, "bitwise op has no operands")
	}

	parts := make([]string, 0, len(node.Inputs))

	for i := range node.Inputs {
		operand, err := b.operand(node, uint(i), boundary)
		if err != nil {
			return "", err
		}

		parts = append(parts, fmt.Sprintf("(%s)", operand))
	}

	return strings.Join(parts, fmt.Sprintf(" %s ", vhdlOp)), nil
}

func (b *ExprBuilder) formatBinaryOp(node *hlim.Node, boundary Boundary, op string) (string, error) {
	lhs, err := b.operand(node, 0, boundary)
	if err != nil {
		return "", err
	}

	rhs, err := b.operand(node, 1, boundary)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("(%s) %s (%s)", lhs, op, rhs), nil
}

func (b *ExprBuilder) formatCompare(node *hlim.Node, boundary Boundary, op string) (string, error) {
	expr, err := b.formatBinaryOp(node, boundary, op)
	if err != nil {
		return "", err
	}

	return expr, nil
}

func (b *ExprBuilder) formatMux(node *hlim.Node, boundary Boundary) (string, error) {
	if len(node.Inputs) != 3 {
		return "", vhdlerr.NewDesignError(node.Name, "mux requires exactly 3 inputs (select, a, b)")
	}

	sel, err := b.operand(node, 0, boundary)
	if err != nil {
		return "", err
	}

	a, err := b.operand(node, 1, boundary)
	if err != nil {
		return "", err
	}

	c, err := b.operand(node, 2, boundary)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("(%s) when (%s) = '1' else (%s)", a, sel, c), nil
}

func (b *ExprBuilder) formatConcat(node *hlim.Node, boundary Boundary) (string, error) {
	if len(node.Inputs) == 0 {
		return "", vhdlerr.NewDesignError(node.Name, "concat has no operands")
	}

	parts := make([]string, 0, len(node.Inputs))

	for i := range node.Inputs {
		operand, err := b.operand(node, uint(i), boundary)
		if err != nil {
			return "", err
		}

		parts = append(parts, operand)
	}

	return strings.Join(parts, " & "), nil
}

func (b *ExprBuilder) formatSlice(node *hlim.Node, boundary Boundary) (string, error) {
	if len(node.Params) != 2 {
		return "", vhdlerr.NewDesignError(node.Name, "slice requires [high, low] params")
	}

	operand, err := b.operand(node, 0, boundary)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("(%s)(%s downto %s)", operand, node.Params[0], node.Params[1]), nil
}
