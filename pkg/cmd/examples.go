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
package cmd

import (
	"fmt"
	"sort"

	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/util"
)

// exampleCircuits holds the built-in circuits the export command can pick
// from when no frontend is attached. Each mirrors one of the end-to-end
// scenarios worked through in this back-end's design notes.
var exampleCircuits = map[string]func() *hlim.Circuit{
	"passthrough": buildPassthroughCircuit,
	"register":    buildClockedRegisterCircuit,
	"hierarchy":   buildHierarchyCircuit,
}

// exampleNames returns the built-in example names in a stable order.
func exampleNames() []string {
	names := make([]string, 0, len(exampleCircuits))
	for name := range exampleCircuits {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// buildPassthroughCircuit is the single-bit passthrough scenario: one
// boolean input pin, one boolean output pin, out <= in.
func buildPassthroughCircuit() *hlim.Circuit {
	nodes := []hlim.Node{
		{ID: 0, Kind: hlim.PinNodeKind, Name: "in", Owner: 0, OutputTypes: []hlim.ConnectionType{hlim.BoolType()}},
		{
			ID: 1, Kind: hlim.PinNodeKind, Name: "out", Owner: 0,
			Inputs: []util.Option[hlim.PortRef]{util.Some(hlim.PortRef{Node: 0, Output: 0})},
		},
	}

	groups := []hlim.Group{
		{ID: 0, Name: "passthrough", Kind: hlim.EntityGroup, Nodes: []hlim.NodeId{0, 1}},
	}

	return hlim.NewCircuit(nodes, groups, 0)
}

// buildClockedRegisterCircuit is the clocked-register scenario: an 8-bit
// input feeds the data input of a register with a synchronous reset (reset
// value 0), clocked by "clk"/"reset", whose output drives an 8-bit output pin.
func buildClockedRegisterCircuit() *hlim.Circuit {
	clk := hlim.NewResetClock("clk", hlim.SyncReset, "reset")
	width := uint(8)

	nodes := []hlim.Node{
		{ID: 0, Kind: hlim.PinNodeKind, Name: "in", Owner: 0, OutputTypes: []hlim.ConnectionType{hlim.VectorType(width)}},
		{
			ID: 1, Kind: hlim.RegisterNodeKind, Name: "out_reg", Owner: 0,
			Inputs:        []util.Option[hlim.PortRef]{util.Some(hlim.PortRef{Node: 0, Output: 0})},
			OutputTypes:   []hlim.ConnectionType{hlim.VectorType(width)},
			RegClock:      clk,
			RegResetValue: util.Some(uint64(0)),
		},
		{
			ID: 2, Kind: hlim.PinNodeKind, Name: "out", Owner: 0,
			Inputs: []util.Option[hlim.PortRef]{util.Some(hlim.PortRef{Node: 1, Output: 0})},
		},
	}

	groups := []hlim.Group{
		{ID: 0, Name: "counter_reg", Kind: hlim.EntityGroup, Nodes: []hlim.NodeId{0, 1, 2}},
	}

	return hlim.NewCircuit(nodes, groups, 0)
}

// buildHierarchyCircuit is the two-level hierarchy scenario: a root entity
// instantiates a sub-entity (an inverter) between its own input and output
// pins. Exercises GroupNodeKind sub-entity instantiation (C5/C6) and, via
// this package's testbench command, that recording a trace against the
// root's own ports is unaffected by what the root instantiates underneath it.
func buildHierarchyCircuit() *hlim.Circuit {
	subNodes := []hlim.Node{
		{ID: 10, Kind: hlim.PinNodeKind, Name: "sub_in", Owner: 1, OutputTypes: []hlim.ConnectionType{hlim.BoolType()}},
		{
			ID: 11, Kind: hlim.LogicNodeKind, Owner: 1, Op: "not",
			Inputs:      []util.Option[hlim.PortRef]{util.Some(hlim.PortRef{Node: 10, Output: 0})},
			OutputTypes: []hlim.ConnectionType{hlim.BoolType()},
		},
		{
			ID: 12, Kind: hlim.PinNodeKind, Name: "sub_out", Owner: 1,
			Inputs: []util.Option[hlim.PortRef]{util.Some(hlim.PortRef{Node: 11, Output: 0})},
		},
	}

	rootNodes := []hlim.Node{
		{ID: 0, Kind: hlim.PinNodeKind, Name: "in", Owner: 0, OutputTypes: []hlim.ConnectionType{hlim.BoolType()}},
		{
			ID: 1, Kind: hlim.GroupNodeKind, Name: "sub_inst", Owner: 0, SubGroup: 1,
			Inputs:      []util.Option[hlim.PortRef]{util.Some(hlim.PortRef{Node: 0, Output: 0})},
			OutputTypes: []hlim.ConnectionType{hlim.BoolType()},
		},
		{
			ID: 2, Kind: hlim.PinNodeKind, Name: "out", Owner: 0,
			Inputs: []util.Option[hlim.PortRef]{util.Some(hlim.PortRef{Node: 1, Output: 0})},
		},
	}

	nodes := append(append([]hlim.Node{}, rootNodes...), subNodes...)

	groups := []hlim.Group{
		{ID: 0, Name: "hierarchy_top", Kind: hlim.EntityGroup, Nodes: []hlim.NodeId{0, 1, 2}, Children: []hlim.GroupId{1}},
		{ID: 1, Name: "sub", Kind: hlim.SFUGroup, Parent: 0, HasParent: true, Nodes: []hlim.NodeId{10, 11, 12}},
	}

	return hlim.NewCircuit(nodes, groups, 0)
}

func lookupExample(name string) (*hlim.Circuit, error) {
	build, ok := exampleCircuits[name]
	if !ok {
		return nil, fmt.Errorf("unknown example %q (available: %v)", name, exampleNames())
	}

	return build(), nil
}
