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

// Package cmd wires the VHDL back-end core into a small command-line shell.
// The real integration point for this back-end is the frontend's in-process
// HLIM construction API (out of scope here); this CLI exists to drive the
// translate/emit pipeline end to end against a handful of built-in example
// circuits, for smoke-testing an export without a frontend attached.
package cmd

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is filled in when building via a release tag; empty for "go run"
// / "go install" builds, which fall back to build-info.
var Version string

var rootCmd = &cobra.Command{
	Use:   "vhdlback",
	Short: "VHDL back-end core for the Gatery hardware-description toolchain.",
	Long: `vhdlback translates a finalised HLIM circuit into a hierarchy of VHDL
entities, blocks and processes, with deterministic naming and dependency-sorted
emission, and can additionally emit a synthesis-tool project, constraints and
clocks file alongside the generated sources.`,
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "version") {
			fmt.Print("vhdlback ")

			if Version != "" {
				fmt.Printf("%s", Version)
			} else if info, ok := debug.ReadBuildInfo(); ok {
				fmt.Printf("%s", info.Main.Version)
			} else {
				fmt.Printf("(unknown version)")
			}

			fmt.Println()
			return
		}

		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and runs it. Called
// once by cmd/vhdlback/main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:errcheck
func init() {
	rootCmd.Flags().Bool("version", false, "print version information and exit")
}
