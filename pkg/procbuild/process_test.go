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
package procbuild_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/namespace"
	"github.com/gatery-project/vhdlback/pkg/procbuild"
	"github.com/gatery-project/vhdlback/pkg/util"
	"github.com/gatery-project/vhdlback/pkg/vhdlfmt"
)

// buildAndGateCircuit wires two pins into an "and" logic node feeding a third
// pin, so a single comb process assignment can be exercised end to end.
func buildAndGateCircuit() *hlim.Circuit {
	nodes := []hlim.Node{
		{ID: 0, Kind: hlim.PinNodeKind, Name: "a", OutputTypes: []hlim.ConnectionType{hlim.BoolType()}},
		{ID: 1, Kind: hlim.PinNodeKind, Name: "b", OutputTypes: []hlim.ConnectionType{hlim.BoolType()}},
		{
			ID: 2, Kind: hlim.LogicNodeKind, Name: "and1", Op: "and",
			Inputs: []util.Option[hlim.PortRef]{
				util.Some(hlim.PortRef{Node: 0, Output: 0}),
				util.Some(hlim.PortRef{Node: 1, Output: 0}),
			},
			OutputTypes: []hlim.ConnectionType{hlim.BoolType()},
		},
		{
			ID: 3, Kind: hlim.PinNodeKind, Name: "y",
			Inputs: []util.Option[hlim.PortRef]{util.Some(hlim.PortRef{Node: 2, Output: 0})},
		},
	}

	groups := []hlim.Group{
		{ID: 0, Name: "top", Kind: hlim.EntityGroup, Nodes: []hlim.NodeId{0, 1, 2, 3}},
	}

	return hlim.NewCircuit(nodes, groups, 0)
}

func TestBuildCombProcessInlinesNonBoundaryNode(t *testing.T) {
	circuit := buildAndGateCircuit()
	formatter := vhdlfmt.NewCodeFormatter("testgen")
	scope := namespace.NewRootScope(formatter)

	aName := scope.AllocateSignalName(hlim.PortRef{Node: 0, Output: 0}, "a", namespace.EntityInput)
	bName := scope.AllocateSignalName(hlim.PortRef{Node: 1, Output: 0}, "b", namespace.EntityInput)
	yName := scope.AllocateSignalName(hlim.PortRef{Node: 3, Output: 0}, "y", namespace.EntityOutput)

	boundary := procbuild.Boundary{0: true, 1: true, 3: true}
	exprs := procbuild.NewExprBuilder(circuit, scope, formatter)

	proc, err := procbuild.BuildCombProcess(
		"comb", circuit, scope, exprs, boundary,
		[]hlim.PortRef{{Node: 3, Output: 0}},
	)
	require.NoError(t, err)
	require.Len(t, proc.Assignments, 1, "driven output pin 3 is assigned its driver's expression")

	// Also exercise the and-gate's own expression directly: node 2 is not in
	// boundary, so it is inlined rather than referenced by name.
	expr, err := exprs.FormatExpression(hlim.PortRef{Node: 2, Output: 0}, boundary)
	require.NoError(t, err)
	assert.Contains(t, expr, aName)
	assert.Contains(t, expr, bName)
	assert.NotContains(t, expr, yName)
}

func TestBucketRegistersByClockGroupsSharedConfig(t *testing.T) {
	clk := hlim.NewClock("clk")

	nodes := []hlim.Node{
		{ID: 0, Kind: hlim.RegisterNodeKind, Name: "r0", RegClock: clk, OutputTypes: []hlim.ConnectionType{hlim.BoolType()}},
		{ID: 1, Kind: hlim.RegisterNodeKind, Name: "r1", RegClock: clk, OutputTypes: []hlim.ConnectionType{hlim.BoolType()}},
	}
	groups := []hlim.Group{{ID: 0, Name: "top", Kind: hlim.EntityGroup, Nodes: []hlim.NodeId{0, 1}}}
	circuit := hlim.NewCircuit(nodes, groups, 0)

	buckets := procbuild.BucketRegistersByClock(circuit, 0)
	require.Len(t, buckets, 1)

	for cfg, regs := range buckets {
		assert.Equal(t, "clk", cfg.Clock.Name)
		assert.False(t, cfg.HasResetSignal)
		assert.ElementsMatch(t, []hlim.NodeId{0, 1}, regs)
	}
}

func TestRenderClockedBodySyncReset(t *testing.T) {
	proc := &procbuild.ClockedProcess{
		Name: "r",
		Config: procbuild.RegisterConfig{
			Clock:          hlim.NewResetClock("clk", hlim.SyncReset, "rst"),
			HasResetSignal: true,
		},
		Assignments: []procbuild.Assignment{{Target: "r_out_X", Expr: "(a) and (b)", ResetExpr: "'0'"}},
	}

	lines := procbuild.RenderClockedBody("  ", proc)
	joined := ""
	for _, l := range lines {
		joined += l + "\n"
	}

	assert.Contains(t, joined, "rising_edge(clk)")
	assert.Contains(t, joined, "rst = '1'")
	assert.Contains(t, joined, "r_out_X <= '0';")
	assert.Contains(t, joined, "r_out_X <= (a) and (b);")
}
