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
package hdlpkg_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gatery-project/vhdlback/pkg/hdlpkg"
	"github.com/gatery-project/vhdlback/pkg/vhdlfmt"
)

func TestRenderHelperPackageDeclaresConversions(t *testing.T) {
	formatter := vhdlfmt.NewCodeFormatter("vhdlback")
	lines := hdlpkg.RenderHelperPackage(hdlpkg.HelperName, formatter)
	text := strings.Join(lines, "\n")

	assert.Contains(t, text, "PACKAGE vhdl_helper IS")
	assert.Contains(t, text, "FUNCTION to_sl(b : BOOLEAN) RETURN STD_LOGIC;")
	assert.Contains(t, text, "FUNCTION to_uns(s : STD_LOGIC_VECTOR) RETURN UNSIGNED;")
	assert.Contains(t, text, "END vhdl_helper;")
}

func TestRenderInterfacePackageSortsByCategoryThenName(t *testing.T) {
	formatter := vhdlfmt.NewCodeFormatter("vhdlback")
	content := hdlpkg.InterfacePackageContent{
		Constants: []hdlpkg.InterfaceConstant{
			{Category: hdlpkg.SingleBitConstant, Name: "ENABLE_IRQ", Value: 1},
			{Category: hdlpkg.NaturalConstant, Name: "BUS_WIDTH", Value: 32},
			{Category: hdlpkg.NaturalConstant, Name: "ADDR_WIDTH", Value: 16},
			{Category: hdlpkg.BitVectorConstant, Name: "DEVICE_ID", Value: 0xA5, Width: 8},
			{Category: hdlpkg.BitVectorConstant, Name: "EMPTY_FIELD", Width: 0},
		},
	}

	lines := hdlpkg.RenderInterfacePackage("chip_iface", content, formatter)
	text := strings.Join(lines, "\n")

	addrIdx := strings.Index(text, "ADDR_WIDTH")
	busIdx := strings.Index(text, "BUS_WIDTH")
	deviceIdx := strings.Index(text, "DEVICE_ID")
	emptyIdx := strings.Index(text, "EMPTY_FIELD")
	enableIdx := strings.Index(text, "ENABLE_IRQ")

	assert.True(t, addrIdx < busIdx)
	assert.True(t, busIdx < deviceIdx)
	assert.True(t, deviceIdx < emptyIdx)
	assert.True(t, emptyIdx < enableIdx)
	assert.Contains(t, text, `CONSTANT EMPTY_FIELD : STD_LOGIC_VECTOR(-1 downto 0);`)
	assert.Contains(t, text, `CONSTANT DEVICE_ID : STD_LOGIC_VECTOR(7 downto 0) := "10100101";`)
}
