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

// Package ast is the block/entity builder and AST root/writer (C5/C6): it
// converts a hlim.Circuit into a tree of VHDL entities, each owning ports, a
// namespace scope, declared signals, and an ordered list of concurrent
// statements (processes and sub-entity instantiations), and renders that
// tree to VHDL source text.
package ast

import (
	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/namespace"
	"github.com/gatery-project/vhdlback/pkg/procbuild"
)

// PortDirection is a VHDL entity port's direction.
type PortDirection uint8

const (
	// In is a port driven from outside the entity.
	In PortDirection = iota
	// Out is a port driven by the entity for consumption outside it.
	Out
	// InOut is a bidirectional port (used for simulation-only pins and
	// tri-state external blackboxes).
	InOut
)

func (d PortDirection) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return "inout"
	}
}

// Port is one entry in an entity's port clause.
type Port struct {
	Name string
	Dir  PortDirection
	Type hlim.ConnectionType
}

// Declaration is one local signal declared in an entity's architecture.
type Declaration struct {
	Name string
	Type hlim.ConnectionType
}

// ConcurrentKind tags the shape of a ConcurrentStatement.
type ConcurrentKind uint8

const (
	// CombProcessStmt wraps a procbuild.CombProcess.
	CombProcessStmt ConcurrentKind = iota
	// ClockedProcessStmt wraps a procbuild.ClockedProcess.
	ClockedProcessStmt
	// InstanceStmt is a sub-entity instantiation.
	InstanceStmt
	// BlockStmt is a nested VHDL block statement containing its own
	// concurrent statements.
	BlockStmt
)

// Instance is one sub-entity/SFU instantiation inside a parent entity.
type Instance struct {
	Label      string
	EntityName string
	// PortMap associates each sub-entity port name with the parent-scope
	// signal name driving (or receiving) it, in the sub-entity's own port
	// order.
	PortMap []PortAssociation
	// AsComponent instantiates via a VHDL COMPONENT declaration rather than
	// direct entity instantiation (see Group.AsComponent).
	AsComponent bool
}

// PortAssociation is one "port => signal" entry in an instantiation's port
// map.
type PortAssociation struct {
	Port   string
	Signal string
	Dir    PortDirection
	Type   hlim.ConnectionType
}

// ComponentDecl is one "COMPONENT ... END COMPONENT;" entry an entity's
// architecture declares for an AsComponent instantiation, plus the subset of
// its owning group's attributes (see hlim.Group.Attrs) that apply to a
// component declaration itself rather than to a signal or path.
type ComponentDecl struct {
	Name     string
	Ports    []Port
	BlackBox bool
}

// ConcurrentStatement is one tagged-variant statement in an entity's
// architecture body. SortIdx is a running counter assigned in build order
// (see levels.go: per level, its comb process, then its instances, then its
// child areas; the entity's clocked processes come last).
type ConcurrentStatement struct {
	Kind    ConcurrentKind
	SortIdx int

	Comb     *procbuild.CombProcess
	Clocked  *procbuild.ClockedProcess
	Instance *Instance
	Block    *Block
}

// Block is a nested VHDL block statement: it shares its enclosing entity's
// declarative region (no port clause of its own) but groups a subset of the
// architecture's concurrent statements under one BLOCK ... END BLOCK frame,
// mirroring an Area group that is not a pure leaf area (see
// hlim.Group.IsPureLeafArea).
type Block struct {
	Label      string
	Statements []ConcurrentStatement
}

// Entity is one VHDL entity/architecture pair, built from an Entity or SFU
// HLIM group.
type Entity struct {
	GroupID hlim.GroupId
	Name    string
	Comment string

	Scope *namespace.Scope

	Ports        []Port
	Declarations []Declaration
	Statements   []ConcurrentStatement
	Components   []ComponentDecl

	// Partition/AsComponent mirror the owning Group's emission hints (see
	// pkg/ast/writer.go's per-partition mode).
	Partition   bool
	AsComponent bool
}
