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
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gatery-project/vhdlback/pkg/ast"
	"github.com/gatery-project/vhdlback/pkg/synth"
	"github.com/gatery-project/vhdlback/pkg/vhdlfmt"
)

var exportCmd = &cobra.Command{
	Use:   "export [flags] example-name",
	Short: "translate a built-in example circuit to VHDL and write it to disk.",
	Long: `Translate one of the built-in example circuits into VHDL, writing it to
the output directory in the requested file-layout mode. Also emits the
synthesis-tool's project/constraints/clocks files unless --no-synth is set.

This exercises the full translate -> classify -> name -> emit pipeline the
way a frontend integration would, without requiring one to be attached.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}

		circuit, err := lookupExample(args[0])
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		outDir := GetString(cmd, "out")
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		mode, err := parseWriteMode(GetString(cmd, "mode"))
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

		if err := root.WriteVHDL(outDir, mode); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		log.Debugf("wrote VHDL export to %s", outDir)

		if GetFlag(cmd, "no-synth") {
			return
		}

		vendor := GetString(cmd, "vendor")

		var adapter synth.SynthesisTool
		if vendor == "" {
			adapter = synth.NewDefaultAdapter()
		} else {
			adapter = synth.NewVendorAdapter(vendor)
		}

		constraints := filepath.Join(outDir, "constraints.xdc")
		clocks := filepath.Join(outDir, "clocks.sdc")
		project := filepath.Join(outDir, "project.prj")

		if err := adapter.WriteConstraintFile(root, circuit, constraints); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		if err := adapter.WriteClocksFile(root, circuit, clocks); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		if err := adapter.WriteVHDLProjectScript(root, project, constraints, clocks); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		log.Debugf("wrote synthesis auxiliary files to %s", outDir)
	},
}

func parseWriteMode(mode string) (ast.WriteMode, error) {
	switch strings.ToLower(mode) {
	case "", "merged":
		return ast.ModeMerged, nil
	case "per-entity":
		return ast.ModePerEntity, nil
	case "per-partition":
		return ast.ModePerPartition, nil
	default:
		return ast.ModeMerged, fmt.Errorf("unknown write mode %q (want merged, per-entity, or per-partition)", mode)
	}
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("out", "o", "out", "output directory for generated files.")
	exportCmd.Flags().String("mode", "merged", "write mode: merged, per-entity, or per-partition.")
	exportCmd.Flags().String("vendor", "", "synthesis-tool vendor tag (empty uses the generic adapter).")
	exportCmd.Flags().Bool("no-synth", false, "skip writing the synthesis-tool project/constraints/clocks files.")
	exportCmd.Flags().Bool("verbose", false, "enable debug-level logging.")
}
