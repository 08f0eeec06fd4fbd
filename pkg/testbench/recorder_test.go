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
package testbench_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatery-project/vhdlback/pkg/ast"
	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/testbench"
	"github.com/gatery-project/vhdlback/pkg/vhdlfmt"
)

func newRecorder(t *testing.T) *testbench.Recorder {
	t.Helper()

	formatter := vhdlfmt.NewCodeFormatter("vhdlback")
	rec := testbench.NewRecorder(formatter, "top")

	ports := []ast.Port{
		{Name: "clk", Dir: ast.In, Type: hlim.BoolType()},
		{Name: "in_a", Dir: ast.In, Type: hlim.BoolType()},
		{Name: "out_y", Dir: ast.Out, Type: hlim.VectorType(4)},
	}

	require.NoError(t, rec.Setup("top_tb", ports))

	return rec
}

func TestRecorderEmitsHalfTickWaitAroundAsserts(t *testing.T) {
	rec := newRecorder(t)

	require.NoError(t, rec.OnClock("clk", true))
	require.NoError(t, rec.AssertPin("out_y", 0b1010, 0b1111))
	require.NoError(t, rec.OnNewTick(testbench.NewSimTime(10, 1_000_000_000))) // 10ns
	require.NoError(t, rec.Close())

	lines, err := rec.Render()
	require.NoError(t, err)
	text := strings.Join(lines, "\n")

	assert.Contains(t, text, "WAIT FOR 5 ns;")
	assert.Contains(t, text, "ASSERT tb_out_y = to_unsigned(10, 4);")
	assert.Contains(t, text, "ENTITY top_tb IS")
	assert.Contains(t, text, "uut : entity work.top(impl) port map (")
}

func TestRecorderNoAssertsEmitsSingleWait(t *testing.T) {
	rec := newRecorder(t)

	require.NoError(t, rec.OverridePin("in_a", 1))
	require.NoError(t, rec.OnNewTick(testbench.NewSimTime(1, 1_000_000))) // 1us
	require.NoError(t, rec.Close())

	lines, err := rec.Render()
	require.NoError(t, err)
	text := strings.Join(lines, "\n")

	assert.Contains(t, text, "tb_in_a <= '1';")
	assert.Contains(t, text, "WAIT FOR 1 us;")
	assert.Equal(t, 1, strings.Count(text, "WAIT FOR"))
}

func TestRecorderPartialBitAssertsSkipUndefinedBits(t *testing.T) {
	rec := newRecorder(t)

	require.NoError(t, rec.AssertPin("out_y", 0b0010, 0b0010))
	require.NoError(t, rec.OnNewTick(testbench.NewSimTime(1, 1)))
	require.NoError(t, rec.Close())

	lines, err := rec.Render()
	require.NoError(t, err)
	text := strings.Join(lines, "\n")

	assert.Contains(t, text, "ASSERT tb_out_y(1) = '1';")
	assert.NotContains(t, text, "ASSERT tb_out_y(0)")
}

func TestFormatDurationPicksCoarsestExactUnit(t *testing.T) {
	assert.Equal(t, "1 s", testbench.FormatDuration(testbench.NewSimTime(1, 1)))
	assert.Equal(t, "500 ms", testbench.FormatDuration(testbench.NewSimTime(1, 2)))
	assert.Equal(t, "10 ns", testbench.FormatDuration(testbench.NewSimTime(10, 1_000_000_000)))
}
