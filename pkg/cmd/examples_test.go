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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatery-project/vhdlback/pkg/ast"
	"github.com/gatery-project/vhdlback/pkg/vhdlfmt"
)

func TestLookupExampleRejectsUnknownName(t *testing.T) {
	_, err := lookupExample("does-not-exist")
	assert.Error(t, err)
}

func TestBuiltinExamplesConvertAndWriteCleanly(t *testing.T) {
	for _, name := range exampleNames() {
		circuit, err := lookupExample(name)
		require.NoError(t, err)

		formatter := vhdlfmt.NewCodeFormatter("vhdlback")
		root, err := ast.Convert(circuit, formatter)
		require.NoErrorf(t, err, "example %q", name)

		dir := t.TempDir()
		require.NoErrorf(t, root.WriteVHDL(dir, ast.ModeMerged), "example %q", name)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.NotEmptyf(t, entries, "example %q produced no output files", name)
	}
}

func TestClockedRegisterExampleEmitsSynchronousResetProcess(t *testing.T) {
	circuit, err := lookupExample("register")
	require.NoError(t, err)

	formatter := vhdlfmt.NewCodeFormatter("vhdlback")
	root, err := ast.Convert(circuit, formatter)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, root.WriteVHDL(dir, ast.ModeMerged))

	content, err := os.ReadFile(filepath.Join(dir, "design"+vhdlfmt.Extension))
	require.NoError(t, err)
	text := string(content)

	assert.True(t, strings.Contains(text, "rising_edge"))
	assert.True(t, strings.Contains(text, "reset"))
}

func TestHierarchyExampleInstantiatesSubEntity(t *testing.T) {
	circuit, err := lookupExample("hierarchy")
	require.NoError(t, err)

	formatter := vhdlfmt.NewCodeFormatter("vhdlback")
	root, err := ast.Convert(circuit, formatter)
	require.NoError(t, err)
	require.Len(t, root.Entities, 2)

	dir := t.TempDir()
	require.NoError(t, root.WriteVHDL(dir, ast.ModeMerged))

	content, err := os.ReadFile(filepath.Join(dir, "design"+vhdlfmt.Extension))
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "ENTITY hierarchy_top IS")
	assert.Contains(t, text, "entity work.sub(impl) port map (")
}

func TestParseWriteModeRejectsUnknown(t *testing.T) {
	_, err := parseWriteMode("bogus")
	assert.Error(t, err)

	mode, err := parseWriteMode("per-entity")
	require.NoError(t, err)
	assert.Equal(t, ast.ModePerEntity, mode)
}
