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

// Package synth implements the synthesis-tool adapter (C8): it reads an
// already-built AST and its source circuit to emit the auxiliary files a
// synthesis flow needs alongside the generated VHDL — timing-exception
// constraints, clock-period definitions, and a project file listing sources
// in dependency order.
package synth

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gatery-project/vhdlback/pkg/ast"
	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/vhdlerr"
	"github.com/gatery-project/vhdlback/pkg/vhdlfmt"
)

// SynthesisTool is the adapter interface a downstream synthesis flow
// implements (or a caller picks the DefaultAdapter) to turn an AST into
// vendor-consumable auxiliary files.
type SynthesisTool interface {
	// Vendors lists the vendor tags this adapter accepts when filtering
	// vendor-scoped attributes; every adapter lists "all", the tag for
	// attributes that apply regardless of tool.
	Vendors() []string
	// ResolveAttributes projects attribs (a group's raw attribute bag) into
	// resolved, keeping only the entries this adapter's vendor list accepts
	// and stripping any "<vendor>:" scoping prefix along the way.
	ResolveAttributes(attribs hlim.Attributes, resolved map[string]string)
	// WriteConstraintFile emits one timing-exception/attribute line per
	// circuit.PathAttributes entry this adapter accepts.
	WriteConstraintFile(export *ast.Root, circuit *hlim.Circuit, filename string) error
	// WriteClocksFile emits one "clock: <name> period <ns> ns" line per
	// distinct clock referenced at the circuit's root entity.
	WriteClocksFile(export *ast.Root, circuit *hlim.Circuit, filename string) error
	// WriteVHDLProjectScript emits a source file list in dependency order
	// (helper package, then entities reverse-postorder), optionally
	// followed by extraFiles (typically the constraints/clocks filenames).
	WriteVHDLProjectScript(export *ast.Root, filename string, extraFiles ...string) error
}

// DefaultAdapter is the vendor-agnostic adapter: it advertises the "all"
// vendor tag and accepts unscoped attributes and path attributes plus those
// scoped to "all". Vendor adapters are built the same way, just with their
// own tag appended to the accepted vendor list (see NewVendorAdapter);
// entries scoped to any other vendor are dropped.
type DefaultAdapter struct {
	vendors []string
}

// NewDefaultAdapter builds the vendor-agnostic adapter.
func NewDefaultAdapter() *DefaultAdapter {
	return &DefaultAdapter{vendors: []string{"all"}}
}

// NewVendorAdapter builds an adapter that additionally accepts attributes
// and path attributes scoped to vendorTag.
func NewVendorAdapter(vendorTag string) *DefaultAdapter {
	return &DefaultAdapter{vendors: []string{"all", vendorTag}}
}

func (a *DefaultAdapter) Vendors() []string {
	return append([]string{}, a.vendors...)
}

func (a *DefaultAdapter) supportsVendor(vendor string) bool {
	if vendor == "" {
		return true
	}

	for _, v := range a.vendors {
		if v == vendor {
			return true
		}
	}

	return false
}

// ResolveAttributes copies every unscoped key verbatim, and every
// "<vendor>:<name>" key whose vendor this adapter accepts (with the prefix
// stripped in resolved).
func (a *DefaultAdapter) ResolveAttributes(attribs hlim.Attributes, resolved map[string]string) {
	for key, val := range attribs {
		vendor, name, scoped := strings.Cut(key, ":")
		if !scoped {
			resolved[key] = val
			continue
		}

		if a.supportsVendor(vendor) {
			resolved[name] = val
		}
	}
}

// WriteConstraintFile iterates circuit.PathAttributes in declaration order,
// resolving each endpoint's declaration-scope path (entity name, then every
// named ancestor Area/Block down to the leaf's own declared name, joined by
// "/") and emitting the matching constraint line.
func (a *DefaultAdapter) WriteConstraintFile(export *ast.Root, circuit *hlim.Circuit, filename string) error {
	var lines []string

	for _, pa := range circuit.PathAttributes {
		if pa.Kind == hlim.UserTemplateAttr && !a.supportsVendor(pa.Vendor) {
			continue
		}

		src, err := declarationPath(export, circuit, pa.Start)
		if err != nil {
			return err
		}

		end, err := declarationPath(export, circuit, pa.End)
		if err != nil {
			return err
		}

		switch pa.Kind {
		case hlim.FalsePathAttr:
			lines = append(lines, fmt.Sprintf("false path %s %s", src, end))
		case hlim.MultiCycleAttr:
			lines = append(lines, fmt.Sprintf("multi cycle (%d) %s %s", pa.Cycles, src, end))
		case hlim.UserTemplateAttr:
			rendered := strings.NewReplacer("$src", src, "$end", end).Replace(pa.Template)
			lines = append(lines, rendered)
		}
	}

	return writeLines(filename, lines)
}

// WriteClocksFile emits one line per distinct clock referenced by a register
// reachable from the circuit's root entity.
func (a *DefaultAdapter) WriteClocksFile(export *ast.Root, circuit *hlim.Circuit, filename string) error {
	var lines []string

	for _, clk := range rootClocks(circuit) {
		ns := float64(clk.PeriodPicoseconds) / 1000.0
		lines = append(lines, fmt.Sprintf("clock: %s period %.3f ns", clk.Name, ns))
	}

	return writeLines(filename, lines)
}

// WriteVHDLProjectScript emits the helper package followed by every entity
// file in export.Entities' own reverse-postorder (callees first, matching
// ast.Convert's construction order and ast.WriteVHDL's own emission order),
// then any extraFiles verbatim.
func (a *DefaultAdapter) WriteVHDLProjectScript(export *ast.Root, filename string, extraFiles ...string) error {
	var lines []string

	lines = append(lines, export.HelperPackageName()+vhdlfmt.Extension)

	for _, e := range export.Entities {
		lines = append(lines, e.Name+vhdlfmt.Extension)
	}

	lines = append(lines, extraFiles...)

	return writeLines(filename, lines)
}

// rootClocks returns every distinct clock (sorted by name) referenced by a
// register anywhere under circuit's root entity.
func rootClocks(circuit *hlim.Circuit) []hlim.Clock {
	seen := make(map[string]hlim.Clock)

	for _, id := range circuit.AllNodesOf(circuit.RootID, true) {
		node := circuit.Node(id)
		if node.IsRegister() {
			seen[node.RegClock.Name] = node.RegClock
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}

	sort.Strings(names)

	clocks := make([]hlim.Clock, 0, len(names))
	for _, name := range names {
		clocks = append(clocks, seen[name])
	}

	return clocks
}

// nearestEntityGroup walks up from id's owning group to the nearest
// Entity/SFU ancestor (inclusive), returning that group's id.
func nearestEntityGroup(circuit *hlim.Circuit, id hlim.NodeId) hlim.GroupId {
	gid := circuit.GroupOf(id).ID

	for {
		g := circuit.Group(gid)
		if g.Kind == hlim.EntityGroup || g.Kind == hlim.SFUGroup {
			return gid
		}

		if !g.HasParent {
			return gid
		}

		gid = g.Parent
	}
}

// declarationPath resolves id's full declaration path: its owning entity's
// name, then every named Area/Block ancestor down to (but not including)
// that entity, then the leaf's own declared name, all joined with "/".
func declarationPath(export *ast.Root, circuit *hlim.Circuit, id hlim.NodeId) (string, error) {
	entityGid := nearestEntityGroup(circuit, id)

	var entity *ast.Entity

	for _, e := range export.Entities {
		if e.GroupID == entityGid {
			entity = e
			break
		}
	}

	if entity == nil {
		return "", vhdlerr.NewLookupFailure(fmt.Sprintf("owning entity for node %v", id), "synth.declarationPath")
	}

	var segments []string

	for gid := circuit.GroupOf(id).ID; gid != entityGid; {
		g := circuit.Group(gid)
		if g.Name != "" {
			segments = append(segments, g.Name)
		}

		if !g.HasParent {
			break
		}

		gid = g.Parent
	}

	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}

	leaf, err := leafSignalName(entity, id)
	if err != nil {
		return "", err
	}

	full := append([]string{entity.Name}, segments...)
	full = append(full, leaf)

	return strings.Join(full, "/"), nil
}

// leafSignalName looks up id's declared name in entity's own scope, trying
// every back-lookup table the namespace scope keeps (pin, storage, general
// signal) since a path attribute's endpoint may be any of them.
func leafSignalName(entity *ast.Entity, id hlim.NodeId) (string, error) {
	if name, err := entity.Scope.GetPinName(id); err == nil {
		return name, nil
	}

	if name, err := entity.Scope.GetStorageName(id); err == nil {
		return name, nil
	}

	if name, err := entity.Scope.GetSignalName(hlim.PortRef{Node: id, Output: 0}); err == nil {
		return name, nil
	}

	return "", vhdlerr.NewLookupFailure(fmt.Sprintf("declared name for node %v", id), "synth.leafSignalName")
}

func writeLines(filename string, lines []string) error {
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}

	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		return vhdlerr.NewIOError(filename, err)
	}

	return nil
}
