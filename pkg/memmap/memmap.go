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

// Package memmap is the compile-time address-space descriptor (C10) that
// accompanies a VHDL export: a flat, arena-style tree of named, sized,
// read/write-flagged entries that driver-side host code walks to locate a
// register or sub-block without re-parsing the generated VHDL.
package memmap

import (
	"sort"
	"strings"

	"github.com/gatery-project/vhdlback/pkg/vhdlerr"
)

// AccessFlags describes whether an entry may be read, written, or both.
type AccessFlags uint8

const (
	// Readable permits host-side reads of this entry's address range.
	Readable AccessFlags = 1 << iota
	// Writable permits host-side writes to this entry's address range.
	Writable
)

// ReadWrite is the common read+write flag combination.
const ReadWrite = Readable | Writable

// Entry is one node of the address-space tree, laid out the same way
// pkg/hlim's Group/Node tables are: a flat, id-indexed array where a node's
// children are a contiguous window (ChildrenStart, ChildrenCount) into that
// same array rather than pointers. This keeps the whole descriptor
// constructible as a single literal slice at compile time, with no
// allocation needed at lookup time.
type Entry struct {
	Address   uint64
	Width     uint
	Flags     AccessFlags
	Name      string
	ShortDesc string
	LongDesc  string

	ChildrenStart uint
	ChildrenCount uint
}

// Readable reports whether e permits host reads.
func (e Entry) Readable() bool { return e.Flags&Readable != 0 }

// Writable reports whether e permits host writes.
func (e Entry) Writable() bool { return e.Flags&Writable != 0 }

// MemoryMap wraps a span of Entry values rooted at index 0. The root entry
// describes the whole address space; every other entry is reachable from it
// through the ChildrenStart/ChildrenCount windows.
type MemoryMap struct {
	Entries []Entry
}

// NewMemoryMap wraps an already-built, root-at-0 entry table. It does not copy
// entries; callers that build with Builder get this for free from Build().
func NewMemoryMap(entries []Entry) *MemoryMap {
	return &MemoryMap{Entries: entries}
}

// Root returns the descriptor's root entry.
func (m *MemoryMap) Root() Entry {
	return m.Entries[0]
}

// Children returns the direct children of the entry at idx.
func (m *MemoryMap) Children(idx uint) []Entry {
	e := m.Entries[idx]
	return m.Entries[e.ChildrenStart : e.ChildrenStart+e.ChildrenCount]
}

// ChildAt returns the idx-th direct child of the entry at parent, the
// absolute index of that child, and an error if parent has no such child.
func (m *MemoryMap) ChildAt(parent, idx uint) (Entry, uint, error) {
	e := m.Entries[parent]
	if idx >= e.ChildrenCount {
		return Entry{}, 0, childLookupFailure(e.Name, "child index")
	}

	absolute := e.ChildrenStart + idx
	return m.Entries[absolute], absolute, nil
}

func childLookupFailure(parentName, what string) error {
	scope := parentName
	if scope == "" {
		scope = "<root>"
	}

	return vhdlerr.NewLookupFailure(what, scope)
}

// ChildByName looks up a direct child of parent by name (case-sensitive,
// matching the name the descriptor was built with). Returns the child entry,
// its absolute index, and an error if no child with that name exists.
func (m *MemoryMap) ChildByName(parent uint, name string) (Entry, uint, error) {
	e := m.Entries[parent]
	for i := uint(0); i < e.ChildrenCount; i++ {
		absolute := e.ChildrenStart + i
		if m.Entries[absolute].Name == name {
			return m.Entries[absolute], absolute, nil
		}
	}

	return Entry{}, 0, childLookupFailure(e.Name, name)
}

// Path resolves a "/"-joined chain of child names, starting from the root,
// returning the absolute index of the final entry.
func (m *MemoryMap) Path(path string) (Entry, uint, error) {
	idx := uint(0)
	segments := strings.Split(strings.Trim(path, "/"), "/")

	if len(segments) == 1 && segments[0] == "" {
		return m.Root(), 0, nil
	}

	var entry Entry
	for _, seg := range segments {
		var err error
		entry, idx, err = m.ChildByName(idx, seg)
		if err != nil {
			return Entry{}, 0, childLookupFailure("", path)
		}
	}

	return entry, idx, nil
}

// builderNode is the mutable tree shape Builder assembles before flattening
// it into a MemoryMap's contiguous, index-addressed Entry slice.
type builderNode struct {
	entry    Entry
	children []*builderNode
}

// Builder assembles a MemoryMap from a nested tree description, then flattens it
// into the arena layout Entry/MemoryMap expect. Host code that wants a dynamic,
// runtime-instantiated address space (spec's "matching dynamic container")
// builds with this rather than hand-writing a literal Entry slice.
type Builder struct {
	root *builderNode
}

// NewBuilder starts a descriptor rooted at an entry describing the whole
// address space (typically address 0, the full width, read-write).
func NewBuilder(root Entry) *Builder {
	return &Builder{root: &builderNode{entry: root}}
}

// nodeAt walks path (a "/"-joined chain of names already added) and returns
// the matching builder node, or nil if no such path exists yet.
func (b *Builder) nodeAt(path string) *builderNode {
	cur := b.root
	if path == "" {
		return cur
	}

	for _, seg := range strings.Split(path, "/") {
		var next *builderNode
		for _, c := range cur.children {
			if c.entry.Name == seg {
				next = c
				break
			}
		}

		if next == nil {
			return nil
		}

		cur = next
	}

	return cur
}

// Add attaches a new entry as a child of the node at parentPath ("" for the
// root), returning an error if parentPath does not resolve or a sibling
// with the same name already exists.
func (b *Builder) Add(parentPath string, entry Entry) error {
	parent := b.nodeAt(parentPath)
	if parent == nil {
		return vhdlerr.NewDesignError("", "memmap: unknown parent path "+parentPath)
	}

	for _, c := range parent.children {
		if c.entry.Name == entry.Name {
			return vhdlerr.NewDesignError(entry.Name, "memmap: duplicate child name under "+parentPath)
		}
	}

	parent.children = append(parent.children, &builderNode{entry: entry})
	return nil
}

// Build flattens the tree into a MemoryMap, assigning ChildrenStart/ChildrenCount
// windows in breadth-first order (root at index 0) so every node's children
// occupy a single contiguous run, as Entry's layout requires. Children of a
// given parent are sorted by address before flattening, so MemoryMap's lookup
// order matches ascending address order.
func (b *Builder) Build() *MemoryMap {
	var flat []Entry
	queue := []*builderNode{b.root}
	flat = append(flat, b.root.entry)

	for i := 0; i < len(queue); i++ {
		node := queue[i]

		sort.SliceStable(node.children, func(a, bI int) bool {
			return node.children[a].entry.Address < node.children[bI].entry.Address
		})

		start := uint(len(flat))
		for _, c := range node.children {
			flat = append(flat, c.entry)
		}

		flat[i].ChildrenStart = start
		flat[i].ChildrenCount = uint(len(node.children))

		queue = append(queue, node.children...)
	}

	return NewMemoryMap(flat)
}
