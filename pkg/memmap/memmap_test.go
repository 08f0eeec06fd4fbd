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
package memmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatery-project/vhdlback/pkg/memmap"
)

func TestBuilderFlattensInAddressOrder(t *testing.T) {
	b := memmap.NewBuilder(memmap.Entry{Name: "chip", Width: 32, Flags: memmap.ReadWrite})

	require.NoError(t, b.Add("", memmap.Entry{Address: 0x100, Width: 32, Flags: memmap.ReadWrite, Name: "uart"}))
	require.NoError(t, b.Add("", memmap.Entry{Address: 0x000, Width: 32, Flags: memmap.ReadWrite, Name: "gpio"}))
	require.NoError(t, b.Add("gpio", memmap.Entry{Address: 0x004, Width: 8, Flags: memmap.Readable, Name: "dir"}))
	require.NoError(t, b.Add("gpio", memmap.Entry{Address: 0x000, Width: 8, Flags: memmap.ReadWrite, Name: "data"}))

	m := b.Build()

	root := m.Root()
	assert.Equal(t, "chip", root.Name)
	assert.EqualValues(t, 2, root.ChildrenCount)

	children := m.Children(0)
	assert.Equal(t, "gpio", children[0].Name)
	assert.Equal(t, "uart", children[1].Name)

	gpio, gpioIdx, err := m.ChildByName(0, "gpio")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x000), gpio.Address)

	gpioChildren := m.Children(gpioIdx)
	assert.Equal(t, "data", gpioChildren[0].Name)
	assert.Equal(t, "dir", gpioChildren[1].Name)

	entry, _, err := m.Path("gpio/dir")
	require.NoError(t, err)
	assert.Equal(t, uint(8), entry.Width)
	assert.True(t, entry.Readable())
	assert.False(t, entry.Writable())
}

func TestChildLookupFailsForUnknownName(t *testing.T) {
	b := memmap.NewBuilder(memmap.Entry{Name: "chip"})
	require.NoError(t, b.Add("", memmap.Entry{Name: "gpio"}))
	m := b.Build()

	_, _, err := m.ChildByName(0, "missing")
	assert.Error(t, err)

	_, _, err = m.Path("gpio/missing")
	assert.Error(t, err)
}

func TestAddRejectsDuplicateSiblingNames(t *testing.T) {
	b := memmap.NewBuilder(memmap.Entry{Name: "chip"})
	require.NoError(t, b.Add("", memmap.Entry{Name: "gpio"}))

	err := b.Add("", memmap.Entry{Name: "gpio"})
	assert.Error(t, err)
}

func TestAddRejectsUnknownParentPath(t *testing.T) {
	b := memmap.NewBuilder(memmap.Entry{Name: "chip"})

	err := b.Add("does/not/exist", memmap.Entry{Name: "x"})
	assert.Error(t, err)
}
