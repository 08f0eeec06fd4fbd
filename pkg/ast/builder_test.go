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
package ast_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatery-project/vhdlback/pkg/ast"
	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/util"
	"github.com/gatery-project/vhdlback/pkg/vhdlfmt"
)

// buildInverterCircuit builds a one-entity circuit: an input pin feeds a
// "not" gate, whose result drives an output pin.
func buildInverterCircuit() *hlim.Circuit {
	nodes := []hlim.Node{
		{ID: 0, Kind: hlim.PinNodeKind, Name: "a", Owner: 0, OutputTypes: []hlim.ConnectionType{hlim.BoolType()}},
		{
			ID: 1, Kind: hlim.LogicNodeKind, Name: "", Owner: 0, Op: "not",
			Inputs:      []util.Option[hlim.PortRef]{util.Some(hlim.PortRef{Node: 0, Output: 0})},
			OutputTypes: []hlim.ConnectionType{hlim.BoolType()},
		},
		{
			ID: 2, Kind: hlim.PinNodeKind, Name: "y", Owner: 0,
			Inputs: []util.Option[hlim.PortRef]{util.Some(hlim.PortRef{Node: 1, Output: 0})},
		},
	}

	groups := []hlim.Group{
		{ID: 0, Name: "inverter", Kind: hlim.EntityGroup, Nodes: []hlim.NodeId{0, 1, 2}},
	}

	return hlim.NewCircuit(nodes, groups, 0)
}

func TestConvertBuildsSingleEntity(t *testing.T) {
	circuit := buildInverterCircuit()
	formatter := vhdlfmt.NewCodeFormatter("vhdlback")

	root, err := ast.Convert(circuit, formatter)
	require.NoError(t, err)
	require.Len(t, root.Entities, 1)

	e := root.Entities[0]
	assert.Equal(t, "inverter", e.Name)
	assert.Len(t, e.Ports, 2)
}

func TestWriteVHDLMergedProducesEntityAndProcess(t *testing.T) {
	circuit := buildInverterCircuit()
	formatter := vhdlfmt.NewCodeFormatter("vhdlback")

	root, err := ast.Convert(circuit, formatter)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, root.WriteVHDL(dir, ast.ModeMerged))

	content, err := os.ReadFile(filepath.Join(dir, "design"+vhdlfmt.Extension))
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "ENTITY inverter IS")
	assert.Contains(t, text, "PROCESS(")
	assert.Contains(t, text, "END impl;")
}

func TestWriteVHDLRewriteIfChangedSkipsIdenticalContent(t *testing.T) {
	circuit := buildInverterCircuit()
	formatter := vhdlfmt.NewCodeFormatter("vhdlback")

	root, err := ast.Convert(circuit, formatter)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, root.WriteVHDL(dir, ast.ModeMerged))

	path := filepath.Join(dir, "design"+vhdlfmt.Extension)
	before, err := os.Stat(path)
	require.NoError(t, err)

	root2, err := ast.Convert(buildInverterCircuit(), formatter)
	require.NoError(t, err)
	require.NoError(t, root2.WriteVHDL(dir, ast.ModeMerged))

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

// buildConstantOutputCircuit builds a one-entity circuit where an output pin
// is driven straight from a constant, so the comb process assigning it has
// no signals to put in a sensitivity list.
func buildConstantOutputCircuit() *hlim.Circuit {
	nodes := []hlim.Node{
		{
			ID: 0, Kind: hlim.LogicNodeKind, Op: "const", Const: util.Some(uint64(1)),
			Owner: 0, OutputTypes: []hlim.ConnectionType{hlim.BoolType()},
		},
		{
			ID: 1, Kind: hlim.PinNodeKind, Name: "y", Owner: 0,
			Inputs: []util.Option[hlim.PortRef]{util.Some(hlim.PortRef{Node: 0, Output: 0})},
		},
	}

	groups := []hlim.Group{
		{ID: 0, Name: "tie_high", Kind: hlim.EntityGroup, Nodes: []hlim.NodeId{0, 1}},
	}

	return hlim.NewCircuit(nodes, groups, 0)
}

func TestRenderCombProcessFallsBackToConcurrentAssignmentWhenSensitivityEmpty(t *testing.T) {
	circuit := buildConstantOutputCircuit()
	formatter := vhdlfmt.NewCodeFormatter("vhdlback")

	root, err := ast.Convert(circuit, formatter)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, root.WriteVHDL(dir, ast.ModeMerged))

	content, err := os.ReadFile(filepath.Join(dir, "design"+vhdlfmt.Extension))
	require.NoError(t, err)
	text := string(content)

	assert.NotContains(t, text, "PROCESS()")
	assert.Contains(t, text, "y <= ")
}

func TestWriteVHDLPerPartitionAlwaysEmitsRootEntity(t *testing.T) {
	circuit := buildInverterCircuit()
	formatter := vhdlfmt.NewCodeFormatter("vhdlback")

	root, err := ast.Convert(circuit, formatter)
	require.NoError(t, err)
	// The root entity is never explicitly flagged Partition here, mirroring a
	// caller that forgot to mark it.
	require.False(t, root.Entities[len(root.Entities)-1].Partition)

	dir := t.TempDir()
	require.NoError(t, root.WriteVHDL(dir, ast.ModePerPartition))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}

	assert.Contains(t, names, "inverter"+vhdlfmt.Extension)
}

func TestWriteVHDLPerEntityNamesFileAfterEntity(t *testing.T) {
	circuit := buildInverterCircuit()
	formatter := vhdlfmt.NewCodeFormatter("vhdlback")

	root, err := ast.Convert(circuit, formatter)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, root.WriteVHDL(dir, ast.ModePerEntity))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}

	assert.Contains(t, names, "inverter"+vhdlfmt.Extension)
	assert.True(t, strings.HasSuffix(names[0], vhdlfmt.Extension))
}
