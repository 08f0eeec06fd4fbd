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
package hlim

// Circuit is the finalised HLIM graph handed to ast.Convert: a flat node
// table, a flat group table, and the id of the root group.  The back-end
// treats a Circuit as read-only; it never mutates nodes or groups, only
// decorates them through side-tables (e.g. the node->grouping map in
// pkg/ast's AST root).
type Circuit struct {
	Nodes   []Node
	Groups  []Group
	RootID  GroupId

	// PathAttributes lists the timing exceptions and vendor-templated
	// attributes the frontend advertises between signal pairs, consumed by
	// pkg/synth's constraint-file emitter.
	PathAttributes []PathAttribute
}

// NewCircuit constructs a circuit from already-built node/group tables.
func NewCircuit(nodes []Node, groups []Group, root GroupId) *Circuit {
	return &Circuit{Nodes: nodes, Groups: groups, RootID: root}
}

// Node looks up a node by id.
func (c *Circuit) Node(id NodeId) *Node {
	return &c.Nodes[id]
}

// Group looks up a group by id.
func (c *Circuit) Group(id GroupId) *Group {
	return &c.Groups[id]
}

// Root returns the root group (the circuit's single top-level entity).
func (c *Circuit) Root() *Group {
	return c.Group(c.RootID)
}

// GroupOf returns the group which owns a given node.
func (c *Circuit) GroupOf(id NodeId) *Group {
	return c.Group(c.Node(id).Owner)
}

// AllNodesOf returns every node owned by a group, optionally descending into
// non-entity, non-SFU children (Area and transparent groups do not introduce
// a node-ownership boundary in the sense of C3's "recursively or not" flag).
func (c *Circuit) AllNodesOf(gid GroupId, recursive bool) []NodeId {
	g := c.Group(gid)
	nodes := make([]NodeId, len(g.Nodes))
	copy(nodes, g.Nodes)

	if !recursive {
		return nodes
	}

	for _, cid := range g.Children {
		child := c.Group(cid)
		if child.Kind == EntityGroup || child.Kind == SFUGroup {
			// Sub-entities own their nodes independently; do not pull them in.
			continue
		}

		nodes = append(nodes, c.AllNodesOf(cid, true)...)
	}

	return nodes
}
