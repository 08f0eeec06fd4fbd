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
package hlim

import "github.com/gatery-project/vhdlback/pkg/util"

// NodeId identifies a node within a Circuit's flat node table.
type NodeId uint

// PortRef identifies a specific output port: the node that owns it, and the
// output's index within that node (almost always 0; memory nodes and a
// handful of others expose more than one output).
type PortRef struct {
	Node   NodeId
	Output uint
}

// NodeKind enumerates the closed set of HLIM node shapes.  Rather than modelling
// this as a class hierarchy, every node is one Node value tagged by Kind, with
// kind-specific data carried in the optional fields below (mirroring how the
// node-group hierarchy collapses to a single tagged Grouping in pkg/ast).
type NodeKind uint8

const (
	// LogicNodeKind is elementary combinational logic (and/or/xor/mux/add/...).
	LogicNodeKind NodeKind = iota
	// PinNodeKind is an I/O pin, synthesizable or simulation-only.
	PinNodeKind
	// SignalNodeKind is a named wire introduced purely to carry a human name.
	SignalNodeKind
	// RegisterNodeKind is a clocked register.
	RegisterNodeKind
	// MemoryNodeKind is the memory array itself.
	MemoryNodeKind
	// MemoryPortNodeKind is one read or write port attached to a MemoryNodeKind.
	MemoryPortNodeKind
	// ExternalNodeKind is an opaque black-box instantiation.
	ExternalNodeKind
	// GroupNodeKind marks a node that is itself a nested node group.
	GroupNodeKind
)

// Node is a single HLIM graph node.  Every output-producing node has one or
// more OutputTypes; every input is either undriven (rare; only legal for
// external-node inputs awaiting a later connection) or driven by a PortRef.
type Node struct {
	ID      NodeId
	Kind    NodeKind
	Name    string // desired/base name hint; may be empty
	Comment string
	Owner   GroupId // the group that owns this node

	Inputs      []util.Option[PortRef]
	OutputTypes []ConnectionType

	// LogicNodeKind only: the symbolic operator this node computes (e.g.
	// "and", "mux", "const", "slice"), and any immediate, non-signal operands
	// it needs alongside its wired Inputs (a constant's literal value, or a
	// slice's high/low bit indices).
	Op       string
	Const    util.Option[uint64]
	Params   []string

	// RegisterNodeKind only.
	RegClock      Clock
	RegResetValue util.Option[uint64]

	// PinNodeKind only.
	PinSimOnly bool

	// ExternalNodeKind only.
	ExternalName string

	// MemoryPortNodeKind only: the memory this port belongs to.
	MemoryOf NodeId

	// GroupNodeKind only: which group this node represents.
	SubGroup GroupId
}

// OutputType returns the connection type of the node's ith output.
func (n *Node) OutputType(i uint) ConnectionType {
	return n.OutputTypes[i]
}

// DriverOf returns the PortRef driving the ith input, if any.
func (n *Node) DriverOf(i uint) (PortRef, bool) {
	opt := n.Inputs[i]
	if opt.IsEmpty() {
		return PortRef{}, false
	}

	return opt.Unwrap(), true
}

// IsRegister is a small convenience used throughout grouping/process code.
func (n *Node) IsRegister() bool {
	return n.Kind == RegisterNodeKind
}

// IsClockReferencing determines whether this node references a clock at all
// (today, only registers do; memory write ports could in a fuller model).
func (n *Node) IsClockReferencing() bool {
	return n.Kind == RegisterNodeKind
}
