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

// Package classify implements the SignalClassifier / BaseGrouping walk (C3):
// for a node group, partition every edge into local, input, output, and
// crossing-entity signals, and track the clocks/pins that group references.
package classify

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/util"
	"github.com/gatery-project/vhdlback/pkg/vhdlerr"
)

// SignalSet is the four-way (well, three-plus-clocks-plus-pins) partition
// produced by classifying one grouping.
type SignalSet struct {
	Local       map[hlim.PortRef]bool
	Inputs      map[hlim.PortRef]bool
	Outputs     map[hlim.PortRef]bool
	InputClocks map[string]hlim.Clock // keyed by clock name
	IOPins      map[hlim.NodeId]bool
}

// NewSignalSet constructs an empty signal set.
func NewSignalSet() *SignalSet {
	return &SignalSet{
		Local:       make(map[hlim.PortRef]bool),
		Inputs:      make(map[hlim.PortRef]bool),
		Outputs:     make(map[hlim.PortRef]bool),
		InputClocks: make(map[string]hlim.Clock),
		IOPins:      make(map[hlim.NodeId]bool),
	}
}

// VerifySignalsDisjoint asserts that Local, Inputs, and Outputs do not
// overlap, per the entity-level invariant in spec.md §3/§8.
func (s *SignalSet) VerifySignalsDisjoint() error {
	for port := range s.Local {
		if s.Inputs[port] {
			return vhdlerr.NewDesignError(fmt.Sprintf("%v", port), "signal classified as both local and input")
		}

		if s.Outputs[port] {
			return vhdlerr.NewDesignError(fmt.Sprintf("%v", port), "signal classified as both local and output")
		}
	}

	for port := range s.Inputs {
		if s.Outputs[port] {
			return vhdlerr.NewDesignError(fmt.Sprintf("%v", port), "signal classified as both input and output")
		}
	}

	return nil
}

// Classifier classifies groupings against a fixed Circuit. It memoizes a
// circuit-wide consumer index (driver PortRef -> consuming node ids) so that
// repeated classification calls do not re-scan the whole graph.
type Classifier struct {
	circuit   *hlim.Circuit
	consumers map[hlim.PortRef][]hlim.NodeId
}

// NewClassifier builds a classifier (and its consumer index) for a circuit.
func NewClassifier(circuit *hlim.Circuit) *Classifier {
	c := &Classifier{
		circuit:   circuit,
		consumers: make(map[hlim.PortRef][]hlim.NodeId),
	}

	for i := range circuit.Nodes {
		node := &circuit.Nodes[i]
		for _, in := range node.Inputs {
			if in.IsEmpty() {
				continue
			}

			driver := in.Unwrap()
			c.consumers[driver] = append(c.consumers[driver], node.ID)
		}
	}

	return c
}

// NodeSet returns the set of node ids owned by gid, recursively descending
// into Area/transparent children (never into Entity/SFU children) when
// recursive is true. This is also the membership test used by Classify and
// by the routing helpers below.
func (c *Classifier) NodeSet(gid hlim.GroupId, recursive bool) map[hlim.NodeId]bool {
	ids := c.circuit.AllNodesOf(gid, recursive)
	set := make(map[hlim.NodeId]bool, len(ids))

	for _, id := range ids {
		set[id] = true
	}

	return set
}

// Classify partitions every node owned by gid (see NodeSet) into Local,
// Inputs, and Outputs, and collects the clocks/pins referenced.
func (c *Classifier) Classify(gid hlim.GroupId, recursive bool) *SignalSet {
	nodeSet := c.NodeSet(gid, recursive)
	set := NewSignalSet()

	for id := range nodeSet {
		node := c.circuit.Node(id)

		for _, in := range node.Inputs {
			if in.IsEmpty() {
				continue
			}

			driver := in.Unwrap()
			if !nodeSet[driver.Node] {
				set.Inputs[driver] = true
			}
		}

		for o := range node.OutputTypes {
			port := hlim.PortRef{Node: id, Output: uint(o)}
			if c.consumedOutside(port, nodeSet) {
				set.Outputs[port] = true
			} else {
				set.Local[port] = true
			}
		}

		if node.IsClockReferencing() {
			set.InputClocks[node.RegClock.Name] = node.RegClock
		}

		if node.Kind == hlim.PinNodeKind {
			set.IOPins[id] = true
		}
	}

	if log.IsLevelEnabled(log.DebugLevel) {
		for _, edge := range c.CrossingEdges(set, nodeSet) {
			producer, consumer := edge.Split()
			log.Debugf("group %d: port %v crosses boundary to consumer node %v", gid, producer, consumer)
		}
	}

	return set
}

// CrossingEdges pairs every port in set.Outputs with each external node id
// (not present in nodeSet) that consumes it, one Pair per crossing edge. Used
// by Classify's debug trace above; nodeSet is the same membership set the
// caller classified against.
func (c *Classifier) CrossingEdges(set *SignalSet, nodeSet map[hlim.NodeId]bool) []util.Pair[hlim.PortRef, hlim.NodeId] {
	var edges []util.Pair[hlim.PortRef, hlim.NodeId]

	for port := range set.Outputs {
		for _, consumer := range c.consumers[port] {
			if !nodeSet[consumer] {
				edges = append(edges, util.NewPair(port, consumer))
			}
		}
	}

	return edges
}

func (c *Classifier) consumedOutside(port hlim.PortRef, nodeSet map[hlim.NodeId]bool) bool {
	for _, consumer := range c.consumers[port] {
		if !nodeSet[consumer] {
			return true
		}
	}

	return false
}

// IsProducedExternally determines whether port's producer lies outside gid's
// node set.
func (c *Classifier) IsProducedExternally(gid hlim.GroupId, recursive bool, port hlim.PortRef) bool {
	return !c.NodeSet(gid, recursive)[port.Node]
}

// IsConsumedExternally determines whether any consumer of port lies outside
// gid's node set.
func (c *Classifier) IsConsumedExternally(gid hlim.GroupId, recursive bool, port hlim.PortRef) bool {
	return c.consumedOutside(port, c.NodeSet(gid, recursive))
}

// FindNearestDesiredName walks the driver chain across signal nodes only, to
// find a human-chosen name for port. Falls back to the node's own base name,
// and finally to "unnamed". Bounded to avoid spinning on a malformed (cyclic)
// signal chain.
func (c *Classifier) FindNearestDesiredName(port hlim.PortRef) string {
	const maxHops = 1024

	cur := port

	for hop := 0; hop < maxHops; hop++ {
		node := c.circuit.Node(cur.Node)

		if node.Kind != hlim.SignalNodeKind {
			if node.Name != "" {
				return node.Name
			}

			return "unnamed"
		}

		if node.Name != "" {
			return node.Name
		}

		driver, ok := node.DriverOf(0)
		if !ok {
			return "unnamed"
		}

		cur = driver
	}

	return "unnamed"
}

// RouteChildIOUpwards reports which of childSet's Inputs/Outputs also cross
// the boundary of the enclosing grouping, by cross-referencing against
// parentSet (the parent's own, independently-recursive classification).
// Because Classify(gid, recursive=true) already accounts for the full
// node-ownership subtree beneath gid, a parent classified this way already
// contains every signal a descendant child's routing would add; this helper
// exists to name the operation (and support the routing invariant in
// spec.md §8) rather than to perform an extra merge pass.
func RouteChildIOUpwards(parentSet, childSet *SignalSet) (routedInputs, routedOutputs []hlim.PortRef) {
	for port := range childSet.Inputs {
		if parentSet.Inputs[port] {
			routedInputs = append(routedInputs, port)
		}
	}

	for port := range childSet.Outputs {
		if parentSet.Outputs[port] {
			routedOutputs = append(routedOutputs, port)
		}
	}

	return routedInputs, routedOutputs
}
