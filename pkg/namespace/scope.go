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

// Package namespace implements the per-scope identifier allocation tree (C1):
// case-insensitive uniqueness, reserved-word avoidance, and parent-chain
// lookup.  A fresh Scope is a root in its own right (e.g. the AST root's
// global namespace, or each entity's own signal namespace). pkg/ast gives
// every entity its own root scope, which is what keeps a sub-entity's ports
// from ever seeing a parent's signal names (see SPEC_FULL.md's resolution of
// that Open Question); nested Blocks share their entity's scope.
// NewChildScope builds a scope parented to another for callers that need
// one.
package namespace

import (
	"fmt"
	"strings"

	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/vhdlerr"
)

// Scope owns one level of the namespace tree.
type Scope struct {
	parent *Scope
	// namesInUse holds the upper-cased form of every identifier allocated in
	// this scope, shared across all kinds (case-insensitive uniqueness).
	namesInUse map[string]struct{}

	// The four disjoint, back-lookupable mappings from C1/§3.
	portNames    map[hlim.PortRef]string // NodePort -> name (general signal/variable naming)
	clockNames   map[string]string       // Clock (by desired name) -> name
	pinNames     map[hlim.NodeId]string  // Pin (by owning node id) -> name
	storageNames map[hlim.NodeId]string  // register storage element -> name

	formatter Formatter
}

// Formatter is the subset of pkg/vhdlfmt's CodeFormatter that the namespace
// needs: minting a candidate identifier string for a given kind and attempt.
type Formatter interface {
	CandidateName(kind CandidateKind, desired string, attempt uint) string
}

// CandidateKind tells the formatter what prefix/suffix convention to apply.
// Signal-shaped kinds double as the SPEC_FULL.md "signal kind" passed to
// AllocateSignalName; the rest back the opaque allocateXxx entry points.
type CandidateKind uint8

// Candidate kinds, one per naming convention in spec.md §6's prefix table
// plus the opaque (non-signal) allocation kinds.
const (
	LocalSignal CandidateKind = iota
	EntityInput
	EntityOutput
	ChildInput
	ChildOutput
	RegisterInput
	RegisterOutput
	LocalVariable
	ConstantSignal
	CandidateClock
	CandidatePin
	CandidatePackage
	CandidateEntity
	CandidateBlock
	CandidateProcessComb
	CandidateProcessClocked
	CandidateInstance
)

// NewRootScope constructs a fresh root scope (no parent), seeded with the
// VHDL reserved words.
func NewRootScope(formatter Formatter) *Scope {
	return newScope(nil, formatter)
}

// NewChildScope constructs a scope nested under parent, e.g. a block inside
// an entity, or a block inside another block.
func NewChildScope(parent *Scope, formatter Formatter) *Scope {
	if parent == nil {
		panic("NewChildScope requires a non-nil parent; use NewRootScope for a root")
	}

	return newScope(parent, formatter)
}

func newScope(parent *Scope, formatter Formatter) *Scope {
	s := &Scope{
		parent:       parent,
		namesInUse:   make(map[string]struct{}),
		portNames:    make(map[hlim.PortRef]string),
		clockNames:   make(map[string]string),
		pinNames:     make(map[hlim.NodeId]string),
		storageNames: make(map[hlim.NodeId]string),
		formatter:    formatter,
	}

	for _, w := range VHDLReservedWords {
		s.namesInUse[strings.ToUpper(w)] = struct{}{}
	}

	return s
}

// inUseOnChain determines whether upper is present in this scope or any
// ancestor, walking the parent chain.
func (s *Scope) inUseOnChain(upper string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if _, ok := cur.namesInUse[upper]; ok {
			return true
		}
	}

	return false
}

// reserve picks the first candidate (starting at attempt 1) not present
// anywhere on the chain, records its upper-cased form in THIS scope, and
// returns the chosen (non-upper-cased) candidate.
func (s *Scope) reserve(kind CandidateKind, desired string) string {
	var attempt uint = 1

	for {
		candidate := s.formatter.CandidateName(kind, desired, attempt)
		upper := strings.ToUpper(candidate)

		if !s.inUseOnChain(upper) {
			s.namesInUse[upper] = struct{}{}
			return candidate
		}

		attempt++
	}
}

// AllocateSignalName allocates a name for a node port of the given signal
// kind.  Register inputs/outputs are additionally recorded in the internal
// storage map, keyed by port.Node (for a register output that is the
// register's own node id; for a register input it is the node feeding the
// register), so that the clocked process body can look the storage element
// back up without re-deriving it from a PortRef.
func (s *Scope) AllocateSignalName(port hlim.PortRef, desired string, kind CandidateKind) string {
	if _, exists := s.portNames[port]; exists {
		panic(fmt.Sprintf("node port %v already allocated in this scope", port))
	}

	name := s.reserve(kind, desired)
	s.portNames[port] = name

	if kind == RegisterInput || kind == RegisterOutput {
		s.storageNames[port.Node] = name
	}

	return name
}

// AllocateClockName allocates a name for a clock.
func (s *Scope) AllocateClockName(clockKey, desired string) string {
	if _, exists := s.clockNames[clockKey]; exists {
		panic(fmt.Sprintf("clock %q already allocated in this scope", clockKey))
	}

	name := s.reserve(CandidateClock, desired)
	s.clockNames[clockKey] = name

	return name
}

// AllocatePinName allocates a name for an I/O pin.
func (s *Scope) AllocatePinName(pin hlim.NodeId, desired string) string {
	if _, exists := s.pinNames[pin]; exists {
		panic(fmt.Sprintf("pin %v already allocated in this scope", pin))
	}

	name := s.reserve(CandidatePin, desired)
	s.pinNames[pin] = name

	return name
}

// AllocatePinNameFor allocates a name for a pin's node port, recording it in
// both the general signal map (so expressions can reference it) and the pin
// map (so the entity's port clause can enumerate it by node id).
func (s *Scope) AllocatePinNameFor(port hlim.PortRef, desired string, kind CandidateKind) string {
	name := s.AllocateSignalName(port, desired, kind)
	s.pinNames[port.Node] = name

	return name
}

// AllocatePackageName allocates an opaque package name (no back-lookup).
func (s *Scope) AllocatePackageName(desired string) string {
	return s.reserve(CandidatePackage, desired)
}

// AllocateEntityName allocates an opaque entity name (no back-lookup).
func (s *Scope) AllocateEntityName(desired string) string {
	return s.reserve(CandidateEntity, desired)
}

// AllocateBlockName allocates an opaque block name (no back-lookup).
func (s *Scope) AllocateBlockName(desired string) string {
	return s.reserve(CandidateBlock, desired)
}

// AllocateProcessName allocates an opaque process name (no back-lookup).
func (s *Scope) AllocateProcessName(desired string, isClocked bool) string {
	if isClocked {
		return s.reserve(CandidateProcessClocked, desired)
	}

	return s.reserve(CandidateProcessComb, desired)
}

// AllocateInstanceName allocates an opaque instantiation label (no back-lookup).
func (s *Scope) AllocateInstanceName(desired string) string {
	return s.reserve(CandidateInstance, desired)
}

// GetSignalName looks up a previously allocated node port name, walking the
// parent chain.
func (s *Scope) GetSignalName(port hlim.PortRef) (string, error) {
	for cur := s; cur != nil; cur = cur.parent {
		if name, ok := cur.portNames[port]; ok {
			return name, nil
		}
	}

	return "", vhdlerr.NewLookupFailure(fmt.Sprintf("node port %v", port), s.describe())
}

// GetStorageName looks up the storage-signal name for a register, walking
// the parent chain.
func (s *Scope) GetStorageName(reg hlim.NodeId) (string, error) {
	for cur := s; cur != nil; cur = cur.parent {
		if name, ok := cur.storageNames[reg]; ok {
			return name, nil
		}
	}

	return "", vhdlerr.NewLookupFailure(fmt.Sprintf("register storage %v", reg), s.describe())
}

// GetClockName looks up a previously allocated clock name, walking the
// parent chain.
func (s *Scope) GetClockName(clockKey string) (string, error) {
	for cur := s; cur != nil; cur = cur.parent {
		if name, ok := cur.clockNames[clockKey]; ok {
			return name, nil
		}
	}

	return "", vhdlerr.NewLookupFailure(fmt.Sprintf("clock %q", clockKey), s.describe())
}

// GetPinName looks up a previously allocated pin name, walking the parent chain.
func (s *Scope) GetPinName(pin hlim.NodeId) (string, error) {
	for cur := s; cur != nil; cur = cur.parent {
		if name, ok := cur.pinNames[pin]; ok {
			return name, nil
		}
	}

	return "", vhdlerr.NewLookupFailure(fmt.Sprintf("pin %v", pin), s.describe())
}

func (s *Scope) describe() string {
	depth := 0
	for cur := s; cur != nil; cur = cur.parent {
		depth++
	}

	return fmt.Sprintf("<scope depth=%d>", depth)
}
