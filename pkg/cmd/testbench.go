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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gatery-project/vhdlback/pkg/ast"
	"github.com/gatery-project/vhdlback/pkg/testbench"
	"github.com/gatery-project/vhdlback/pkg/vhdlfmt"
)

var testbenchCmd = &cobra.Command{
	Use:   "testbench [flags] example-name",
	Short: "replay a built-in example's worked simulation trace as a VHDL testbench.",
	Long: `Translate a built-in example circuit and attach a testbench.Recorder to a
small, hard-coded stimulus trace (standing in for a host simulator's
callbacks), writing a self-contained testbench entity that instantiates the
translated root.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		circuit, err := lookupExample(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		formatter := vhdlfmt.NewCodeFormatter("vhdlback")

		root, err := ast.Convert(circuit, formatter)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		entity := root.Entities[len(root.Entities)-1]
		lines, err := recordExampleTrace(formatter, entity)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		outDir := GetString(cmd, "out")
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		path := filepath.Join(outDir, entity.Name+"_tb"+vhdlfmt.Extension)
		if err := os.WriteFile(path, []byte(joinLinesWithNewline(lines)), 0o644); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

// recordExampleTrace drives a Recorder through one clock cycle of stimulus
// against entity, mirroring the worked scenario in this back-end's design
// notes: a value is driven onto the first input pin, one clock edge is
// replayed, and the first output pin's value is asserted.
func recordExampleTrace(formatter *vhdlfmt.CodeFormatter, entity *ast.Entity) ([]string, error) {
	rec := testbench.NewRecorder(formatter, entity.Name)
	if err := rec.Setup(entity.Name+"_tb", entity.Ports); err != nil {
		return nil, err
	}

	// buildPorts (pkg/ast/levels.go) always orders ports as: input pins,
	// then output pins, then one clock (+ optional reset) per distinct
	// clock domain. So the first In port seen after the first Out port is
	// a clock, never a data input.
	var inputPin, outputPin, clockPin string

	seenOutput := false

	for _, p := range entity.Ports {
		switch {
		case p.Dir == ast.In && !seenOutput && inputPin == "":
			inputPin = p.Name
		case p.Dir == ast.Out:
			seenOutput = true
			if outputPin == "" {
				outputPin = p.Name
			}
		case p.Dir == ast.In && seenOutput && clockPin == "":
			clockPin = p.Name
		}
	}

	t0 := testbench.NewSimTime(0, 1)
	t1 := testbench.NewSimTime(1, 1_000_000) // 1 microsecond

	if inputPin != "" {
		if err := rec.OverridePin(inputPin, 1); err != nil {
			return nil, err
		}
	}

	if err := rec.OnNewTick(t0); err != nil {
		return nil, err
	}

	if clockPin != "" {
		if err := rec.OnClock(clockPin, true); err != nil {
			return nil, err
		}
	}

	if outputPin != "" {
		if err := rec.AssertPin(outputPin, 1, 1); err != nil {
			return nil, err
		}
	}

	if err := rec.OnNewTick(t1); err != nil {
		return nil, err
	}

	if err := rec.Close(); err != nil {
		return nil, err
	}

	return rec.Render()
}

func joinLinesWithNewline(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}

	return out
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(testbenchCmd)
	testbenchCmd.Flags().StringP("out", "o", "out", "output directory for the generated testbench file.")
}
