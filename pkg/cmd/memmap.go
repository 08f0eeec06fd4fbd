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

	"github.com/spf13/cobra"

	"github.com/gatery-project/vhdlback/pkg/memmap"
)

var memmapCmd = &cobra.Command{
	Use:   "memmap [flags]",
	Short: "emit the built-in demo address-space descriptor as a Go source file.",
	Long: `Build the RegisterBank demo descriptor (a small register bank with
a control/status block and a data FIFO) and render it as a standalone Go
source file declaring a memmap.MemoryMap literal, for driver-side code to
import directly without a serialization round-trip.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := GetString(cmd, "out")

		m := buildDemoMemoryMap()

		src := renderMemoryMapSource(GetString(cmd, "package"), "RegisterBank", m)

		if out == "" {
			fmt.Print(src)
			return
		}

		if err := os.WriteFile(out, []byte(src), 0o644); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

// buildDemoMemoryMap assembles a small, illustrative register bank: a
// control/status register pair at the base of the space, and a data FIFO
// block behind it.
func buildDemoMemoryMap() *memmap.MemoryMap {
	b := memmap.NewBuilder(memmap.Entry{
		Name: "register_bank", Width: 32, Flags: memmap.ReadWrite,
		ShortDesc: "top-level register bank address space",
	})

	_ = b.Add("", memmap.Entry{
		Address: 0x00, Width: 32, Flags: memmap.ReadWrite, Name: "ctrl",
		ShortDesc: "control register",
	})
	_ = b.Add("", memmap.Entry{
		Address: 0x04, Width: 32, Flags: memmap.Readable, Name: "status",
		ShortDesc: "status register",
	})
	_ = b.Add("", memmap.Entry{
		Address: 0x08, Width: 32, Flags: memmap.ReadWrite, Name: "fifo",
		ShortDesc: "data FIFO block",
	})
	_ = b.Add("fifo", memmap.Entry{
		Address: 0x00, Width: 32, Flags: memmap.Writable, Name: "push",
		ShortDesc: "write one word into the FIFO",
	})
	_ = b.Add("fifo", memmap.Entry{
		Address: 0x04, Width: 32, Flags: memmap.Readable, Name: "pop",
		ShortDesc: "read and dequeue one word from the FIFO",
	})

	return b.Build()
}

// renderMemoryMapSource renders m as a Go source file in pkgName declaring a
// package-level var named varName holding a *memmap.MemoryMap literal built
// straight from an Entry slice, so driver-side code can import it with no
// parsing step.
func renderMemoryMapSource(pkgName, varName string, m *memmap.MemoryMap) string {
	if pkgName == "" {
		pkgName = "main"
	}

	out := "// Code generated by vhdlback memmap. DO NOT EDIT.\n\n"
	out += fmt.Sprintf("package %s\n\n", pkgName)
	out += "import \"github.com/gatery-project/vhdlback/pkg/memmap\"\n\n"
	out += fmt.Sprintf("var %s = memmap.NewMemoryMap([]memmap.Entry{\n", varName)

	for _, e := range m.Entries {
		out += fmt.Sprintf(
			"\t{Address: 0x%x, Width: %d, Flags: %#o, Name: %q, ShortDesc: %q, ChildrenStart: %d, ChildrenCount: %d},\n",
			e.Address, e.Width, uint8(e.Flags), e.Name, e.ShortDesc, e.ChildrenStart, e.ChildrenCount,
		)
	}

	out += "})\n"

	return out
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(memmapCmd)
	memmapCmd.Flags().StringP("out", "o", "", "output .go file (empty prints to stdout).")
	memmapCmd.Flags().String("package", "driver", "package name for the generated Go file.")
}
