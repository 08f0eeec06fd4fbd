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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMemoryMapSourceDeclaresLiteralVar(t *testing.T) {
	m := buildDemoMemoryMap()
	src := renderMemoryMapSource("driver", "RegisterBank", m)

	assert.True(t, strings.HasPrefix(src, "// Code generated"))
	assert.Contains(t, src, "package driver")
	assert.Contains(t, src, "var RegisterBank = memmap.NewMemoryMap([]memmap.Entry{")
	assert.Contains(t, src, `Name: "ctrl"`)
	assert.Contains(t, src, `Name: "fifo"`)
	assert.Contains(t, src, `Name: "push"`)
}

func TestRenderMemoryMapSourceDefaultsPackageName(t *testing.T) {
	m := buildDemoMemoryMap()
	src := renderMemoryMapSource("", "RegisterBank", m)

	assert.Contains(t, src, "package main")
}
