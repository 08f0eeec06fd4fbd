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
package ast

import (
	"sort"

	"github.com/gatery-project/vhdlback/pkg/classify"
	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/namespace"
	"github.com/gatery-project/vhdlback/pkg/procbuild"
	"github.com/gatery-project/vhdlback/pkg/vhdlerr"
	"github.com/gatery-project/vhdlback/pkg/vhdlfmt"
)

// Root owns the whole converted tree: one Entity per Entity/SFU HLIM group,
// in reverse-postorder (a sub-entity's Entity always precedes its parent's
// in Entities, so the writer can emit dependencies first).
type Root struct {
	Entities []*Entity

	circuit    *hlim.Circuit
	classifier *classify.Classifier
	formatter  *vhdlfmt.CodeFormatter
	byGroup    map[hlim.GroupId]*Entity

	// pkgScope is the single namespace the helper and any interface packages
	// allocate their names against, kept separate from every entity's own
	// (per-entity) scope.
	pkgScope   *namespace.Scope
	helperName string
}

// Convert builds the full AST for circuit.
func Convert(circuit *hlim.Circuit, formatter *vhdlfmt.CodeFormatter) (*Root, error) {
	root := &Root{
		circuit:    circuit,
		classifier: classify.NewClassifier(circuit),
		formatter:  formatter,
		byGroup:    make(map[hlim.GroupId]*Entity),
		pkgScope:   namespace.NewRootScope(formatter),
	}

	if _, err := root.convertGroup(circuit.RootID); err != nil {
		return nil, err
	}

	return root, nil
}

// convertGroup returns the already-converted Entity for gid, building it
// (and, transitively, every sub-entity/SFU it instantiates) on first visit.
// Children are always built before their parent, giving the reverse-
// postorder dependency ordering pkg/ast's writer relies on.
func (r *Root) convertGroup(gid hlim.GroupId) (*Entity, error) {
	if e, ok := r.byGroup[gid]; ok {
		return e, nil
	}

	group := r.circuit.Group(gid)

	for _, id := range ownScopeNodes(r.circuit, gid) {
		node := r.circuit.Node(id)
		if node.Kind == hlim.GroupNodeKind {
			if _, err := r.convertGroup(node.SubGroup); err != nil {
				return nil, err
			}
		}
	}

	e, err := r.createEntity(gid)
	if err != nil {
		return nil, err
	}

	e.Partition = group.Partition
	e.AsComponent = group.AsComponent

	r.byGroup[gid] = e
	r.Entities = append(r.Entities, e)

	return e, nil
}

// createEntity builds one Entity from an Entity/SFU HLIM group: it allocates
// a name for every node that needs a declared VHDL signal, classifies every
// node into a process/instance/block concurrent statement, and renders the
// clocked-register processes shared across the whole entity.
func (r *Root) createEntity(gid hlim.GroupId) (*Entity, error) {
	group := r.circuit.Group(gid)
	scope := namespace.NewRootScope(r.formatter)

	entityName := scope.AllocateEntityName(nonEmpty(group.Name, "entity"))

	registerFeeders, childFeeders := r.feederSets(gid)

	boundary := make(procbuild.Boundary)
	declaredTargets := make(map[hlim.NodeId][]hlim.PortRef)

	r.allocateNames(gid, scope, registerFeeders, childFeeders, boundary, declaredTargets)

	entity := &Entity{GroupID: gid, Name: entityName, Comment: group.Comment, Scope: scope}

	if err := r.buildPorts(entity, gid); err != nil {
		return nil, err
	}

	if err := r.buildDeclarations(entity, gid, boundary); err != nil {
		return nil, err
	}

	sortIdx := 0

	body, err := r.buildLevel(entity, gid, group.Name, scope, boundary, declaredTargets, &sortIdx)
	if err != nil {
		return nil, err
	}

	entity.Statements = append(entity.Statements, body...)

	clocked, err := r.buildClockedProcesses(gid, scope, boundary, &sortIdx)
	if err != nil {
		return nil, err
	}

	entity.Statements = append(entity.Statements, clocked...)

	sort.SliceStable(entity.Statements, func(i, j int) bool {
		return entity.Statements[i].SortIdx < entity.Statements[j].SortIdx
	})

	return entity, nil
}

// feederSets scans every node owned (recursively, within this entity's own
// boundary) by gid and returns the set of ports that drive a register's
// D-input (registerFeeders) or a sub-entity instantiation's input
// (childFeeders). When such a port is a plain logic node's output, portKind
// names it with the r_in_/c_in_ prefix regardless of how pkg/classify would
// otherwise partition it; pins, signals and other always-named nodes keep
// their own prefix.
func (r *Root) feederSets(gid hlim.GroupId) (registerFeeders, childFeeders map[hlim.PortRef]bool) {
	registerFeeders = make(map[hlim.PortRef]bool)
	childFeeders = make(map[hlim.PortRef]bool)

	for _, id := range r.circuit.AllNodesOf(gid, true) {
		node := r.circuit.Node(id)

		switch node.Kind {
		case hlim.RegisterNodeKind:
			if d, ok := node.DriverOf(0); ok {
				registerFeeders[d] = true
			}
		case hlim.GroupNodeKind:
			for i := range node.Inputs {
				if d, ok := node.DriverOf(uint(i)); ok {
					childFeeders[d] = true
				}
			}
		}
	}

	return registerFeeders, childFeeders
}

// allocateNames walks every node owned by gid (recursively) and allocates a
// declared name for the ones that need one (see portKind): pins, signals,
// registers, externals, memory ports, and
// sub-entity outputs always get a name; plain logic nodes only get one if
// hand-named, or if they feed a register or a sub-entity input.
func (r *Root) allocateNames(
	gid hlim.GroupId,
	scope *namespace.Scope,
	registerFeeders, childFeeders map[hlim.PortRef]bool,
	boundary procbuild.Boundary,
	declaredTargets map[hlim.NodeId][]hlim.PortRef,
) {
	for _, id := range r.circuit.AllNodesOf(gid, true) {
		node := r.circuit.Node(id)

		for o := range node.OutputTypes {
			port := hlim.PortRef{Node: id, Output: uint(o)}
			kind, needsName := portKind(node, port, registerFeeders, childFeeders)

			if !needsName {
				continue
			}

			desired := r.classifier.FindNearestDesiredName(port)

			if node.Kind == hlim.PinNodeKind {
				scope.AllocatePinNameFor(port, desired, kind)
			} else {
				scope.AllocateSignalName(port, desired, kind)
			}

			boundary[id] = true
			declaredTargets[id] = append(declaredTargets[id], port)
		}

		// A sink pin (output pin, driven from inside) has no OutputTypes of
		// its own but still needs a declared name, keyed by a synthetic
		// PortRef{id, 0} so expression lookups and the comb-process target
		// list have a stable key to use.
		if node.Kind == hlim.PinNodeKind && len(node.OutputTypes) == 0 {
			port := hlim.PortRef{Node: id, Output: 0}
			desired := nonEmpty(node.Name, "pin")
			scope.AllocatePinNameFor(port, desired, namespace.EntityOutput)
			boundary[id] = true
			declaredTargets[id] = append(declaredTargets[id], port)
		}
	}
}

// portKind decides the CandidateKind (and whether a name is needed at all)
// for one node output, following the rules listed on allocateNames.
func portKind(
	node *hlim.Node,
	port hlim.PortRef,
	registerFeeders, childFeeders map[hlim.PortRef]bool,
) (namespace.CandidateKind, bool) {
	switch node.Kind {
	case hlim.PinNodeKind:
		if hasDriver(node) {
			return namespace.EntityOutput, true
		}

		return namespace.EntityInput, true

	case hlim.SignalNodeKind, hlim.RegisterNodeKind, hlim.ExternalNodeKind, hlim.MemoryPortNodeKind:
		if node.Kind == hlim.RegisterNodeKind {
			return namespace.RegisterOutput, true
		}

		return namespace.LocalSignal, true

	case hlim.GroupNodeKind:
		return namespace.ChildOutput, true

	case hlim.LogicNodeKind:
		if registerFeeders[port] {
			return namespace.RegisterInput, true
		}

		if childFeeders[port] {
			return namespace.ChildInput, true
		}

		if node.Name != "" {
			return namespace.LocalSignal, true
		}

		return namespace.LocalSignal, false

	default:
		return namespace.LocalSignal, false
	}
}

func hasDriver(node *hlim.Node) bool {
	for _, in := range node.Inputs {
		if !in.IsEmpty() {
			return true
		}
	}

	return false
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}

	return s
}

// ownScopeNodes returns gid's own directly-owned nodes plus every
// transparent-group descendant's nodes, stopping at the first non-
// transparent Area/Entity/SFU boundary. This is the node set that "belongs"
// to one block/process-building level, as opposed to hlim.AllNodesOf's
// Entity/SFU-only boundary.
func ownScopeNodes(circuit *hlim.Circuit, gid hlim.GroupId) []hlim.NodeId {
	g := circuit.Group(gid)
	nodes := append([]hlim.NodeId{}, g.Nodes...)

	for _, cid := range g.Children {
		child := circuit.Group(cid)
		if child.Kind == hlim.TransparentGroup {
			nodes = append(nodes, ownScopeNodes(circuit, cid)...)
		}
	}

	return nodes
}

// designError is a small local helper to keep allocateNames/buildLevel's
// error messages consistent.
func designError(node *hlim.Node, message string) error {
	return vhdlerr.NewDesignError(node.Name, message)
}
