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
package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatery-project/vhdlback/pkg/classify"
	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/util"
)

// buildSimpleCircuit constructs:
//
//	pin0 (input pin) --> logic1 (inside area 1) --> pin2 (output pin, outside area 1)
//
// so that logic1's input is an Area-level Input, and its output is an
// Area-level Output, with nothing Local.
func buildSimpleCircuit() *hlim.Circuit {
	nodes := []hlim.Node{
		{ID: 0, Kind: hlim.PinNodeKind, Name: "in_pin", Owner: 0, OutputTypes: []hlim.ConnectionType{hlim.BoolType()}},
		{
			ID: 1, Kind: hlim.LogicNodeKind, Name: "inv", Owner: 1,
			Inputs:      []util.Option[hlim.PortRef]{util.Some(hlim.PortRef{Node: 0, Output: 0})},
			OutputTypes: []hlim.ConnectionType{hlim.BoolType()},
		},
		{
			ID: 2, Kind: hlim.PinNodeKind, Name: "out_pin", Owner: 0,
			Inputs: []util.Option[hlim.PortRef]{util.Some(hlim.PortRef{Node: 1, Output: 0})},
		},
	}

	groups := []hlim.Group{
		{ID: 0, Name: "top", Kind: hlim.EntityGroup, Nodes: []hlim.NodeId{0, 2}, Children: []hlim.GroupId{1}},
		{ID: 1, Name: "area1", Kind: hlim.AreaGroup, Parent: 0, HasParent: true, Nodes: []hlim.NodeId{1}},
	}

	return hlim.NewCircuit(nodes, groups, 0)
}

func TestClassifyAreaBoundary(t *testing.T) {
	circuit := buildSimpleCircuit()
	classifier := classify.NewClassifier(circuit)

	areaSet := classifier.Classify(1, false)

	assert.Len(t, areaSet.Inputs, 1)
	assert.Contains(t, areaSet.Inputs, hlim.PortRef{Node: 0, Output: 0})

	assert.Len(t, areaSet.Outputs, 1)
	assert.Contains(t, areaSet.Outputs, hlim.PortRef{Node: 1, Output: 0})

	assert.Empty(t, areaSet.Local)
	require.NoError(t, areaSet.VerifySignalsDisjoint())
}

func TestClassifyEntityRecursiveIsClosed(t *testing.T) {
	circuit := buildSimpleCircuit()
	classifier := classify.NewClassifier(circuit)

	entitySet := classifier.Classify(0, true)

	// Nothing escapes the top-level entity: the area's internal wiring is
	// fully absorbed as Local once the whole entity is classified as one unit.
	assert.Empty(t, entitySet.Inputs)
	assert.Empty(t, entitySet.Outputs)
	assert.Contains(t, entitySet.Local, hlim.PortRef{Node: 0, Output: 0})
	assert.Contains(t, entitySet.Local, hlim.PortRef{Node: 1, Output: 0})
}

func TestIsProducedConsumedExternally(t *testing.T) {
	circuit := buildSimpleCircuit()
	classifier := classify.NewClassifier(circuit)

	assert.True(t, classifier.IsProducedExternally(1, false, hlim.PortRef{Node: 0, Output: 0}))
	assert.True(t, classifier.IsConsumedExternally(1, false, hlim.PortRef{Node: 1, Output: 0}))
	assert.False(t, classifier.IsProducedExternally(0, true, hlim.PortRef{Node: 1, Output: 0}))
}

func TestFindNearestDesiredNameUsesNodeOwnName(t *testing.T) {
	circuit := buildSimpleCircuit()
	classifier := classify.NewClassifier(circuit)

	assert.Equal(t, "inv", classifier.FindNearestDesiredName(hlim.PortRef{Node: 1, Output: 0}))
}

func TestVerifySignalsDisjointCatchesOverlap(t *testing.T) {
	set := classify.NewSignalSet()
	port := hlim.PortRef{Node: 5, Output: 0}
	set.Local[port] = true
	set.Outputs[port] = true

	require.Error(t, set.VerifySignalsDisjoint())
}

func TestCrossingEdgesPairsProducerWithConsumer(t *testing.T) {
	circuit := buildSimpleCircuit()
	classifier := classify.NewClassifier(circuit)

	nodeSet := classifier.NodeSet(1, false)
	areaSet := classifier.Classify(1, false)

	edges := classifier.CrossingEdges(areaSet, nodeSet)
	require.Len(t, edges, 1)

	producer, consumer := edges[0].Split()
	assert.Equal(t, hlim.PortRef{Node: 1, Output: 0}, producer)
	assert.Equal(t, hlim.NodeId(2), consumer)
}

func TestRouteChildIOUpwards(t *testing.T) {
	parent := classify.NewSignalSet()
	child := classify.NewSignalSet()

	crossing := hlim.PortRef{Node: 9, Output: 0}
	parent.Inputs[crossing] = true
	child.Inputs[crossing] = true

	local := hlim.PortRef{Node: 10, Output: 0}
	child.Inputs[local] = true // resolved within the parent; not present in parent.Inputs

	routedIn, routedOut := classify.RouteChildIOUpwards(parent, child)
	assert.Equal(t, []hlim.PortRef{crossing}, routedIn)
	assert.Empty(t, routedOut)
}
