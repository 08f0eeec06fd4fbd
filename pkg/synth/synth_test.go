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
package synth_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatery-project/vhdlback/pkg/ast"
	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/synth"
	"github.com/gatery-project/vhdlback/pkg/util"
	"github.com/gatery-project/vhdlback/pkg/vhdlfmt"
)

// buildRegisteredCircuit builds: pin "a" -> signal "mid" -> register "reg"
// (clocked "clk", 10ns period) -> pin "y". Three path attributes reference
// nodes within it for the constraint-file tests.
func buildRegisteredCircuit() *hlim.Circuit {
	nodes := []hlim.Node{
		{ID: 0, Kind: hlim.PinNodeKind, Name: "a", Owner: 0, OutputTypes: []hlim.ConnectionType{hlim.BoolType()}},
		{
			ID: 1, Kind: hlim.SignalNodeKind, Name: "mid", Owner: 0,
			Inputs:      []util.Option[hlim.PortRef]{util.Some(hlim.PortRef{Node: 0, Output: 0})},
			OutputTypes: []hlim.ConnectionType{hlim.BoolType()},
		},
		{
			ID: 2, Kind: hlim.RegisterNodeKind, Name: "", Owner: 0,
			Inputs:      []util.Option[hlim.PortRef]{util.Some(hlim.PortRef{Node: 1, Output: 0})},
			OutputTypes: []hlim.ConnectionType{hlim.BoolType()},
			RegClock:    hlim.Clock{Name: "clk", Policy: hlim.NoReset, PeriodPicoseconds: 10000},
		},
		{
			ID: 3, Kind: hlim.PinNodeKind, Name: "y", Owner: 0,
			Inputs: []util.Option[hlim.PortRef]{util.Some(hlim.PortRef{Node: 2, Output: 0})},
		},
	}

	groups := []hlim.Group{
		{ID: 0, Name: "top", Kind: hlim.EntityGroup, Nodes: []hlim.NodeId{0, 1, 2, 3}},
	}

	circuit := hlim.NewCircuit(nodes, groups, 0)
	circuit.PathAttributes = []hlim.PathAttribute{
		{Kind: hlim.FalsePathAttr, Start: 0, End: 2},
		{Kind: hlim.MultiCycleAttr, Start: 1, End: 2, Cycles: 3},
		{Kind: hlim.UserTemplateAttr, Start: 0, End: 3, Template: "dont_touch $src -- to $end"},
	}

	return circuit
}

func TestResolveAttributesStripsAcceptedVendorPrefix(t *testing.T) {
	adapter := synth.NewVendorAdapter("xilinx")

	attribs := hlim.Attributes{
		"comment":        "plain",
		"xilinx:ram_style": "block",
		"altera:ram_style": "m9k",
	}

	resolved := make(map[string]string)
	adapter.ResolveAttributes(attribs, resolved)

	assert.Equal(t, "plain", resolved["comment"])
	assert.Equal(t, "block", resolved["ram_style"])
	assert.NotContains(t, resolved, "m9k")
}

func TestWriteConstraintFileEmitsEachKind(t *testing.T) {
	circuit := buildRegisteredCircuit()
	formatter := vhdlfmt.NewCodeFormatter("vhdlback")

	export, err := ast.Convert(circuit, formatter)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "constraints.txt")

	adapter := synth.NewDefaultAdapter()
	require.NoError(t, adapter.WriteConstraintFile(export, circuit, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "false path top/in_a top/")
	assert.Contains(t, text, "multi cycle (3) top/s_mid top/")
	assert.Contains(t, text, "dont_touch top/in_a -- to top/out_y")
	assert.Equal(t, 3, strings.Count(text, "\n"))
}

func TestWriteClocksFileFormatsThreeDecimals(t *testing.T) {
	circuit := buildRegisteredCircuit()
	formatter := vhdlfmt.NewCodeFormatter("vhdlback")

	export, err := ast.Convert(circuit, formatter)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "clocks.txt")

	adapter := synth.NewDefaultAdapter()
	require.NoError(t, adapter.WriteClocksFile(export, circuit, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(content), "period 10.000 ns")
}

func TestWriteVHDLProjectScriptListsHelperThenEntitiesThenExtras(t *testing.T) {
	circuit := buildRegisteredCircuit()
	formatter := vhdlfmt.NewCodeFormatter("vhdlback")

	export, err := ast.Convert(circuit, formatter)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "project.txt")

	adapter := synth.NewDefaultAdapter()
	require.NoError(t, adapter.WriteVHDLProjectScript(export, path, "constraints.txt", "clocks.txt"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")

	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "vhdl_helper"))
	assert.True(t, strings.HasSuffix(lines[1], "top"+vhdlfmt.Extension))
	assert.Equal(t, "constraints.txt", lines[2])
	assert.Equal(t, "clocks.txt", lines[3])
}
