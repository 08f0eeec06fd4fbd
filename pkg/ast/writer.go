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
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/gatery-project/vhdlback/pkg/hdlpkg"
	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/procbuild"
	"github.com/gatery-project/vhdlback/pkg/vhdlerr"
	"github.com/gatery-project/vhdlback/pkg/vhdlfmt"
)

// allocateHelperPackageName reserves the helper package's name against the
// root package scope; WriteVHDL calls this once on first use (idempotent per
// Root) so repeated WriteVHDL calls on the same Root don't double-allocate.
func (r *Root) allocateHelperPackageName() string {
	if r.helperName == "" {
		r.helperName = r.pkgScope.AllocatePackageName(hdlpkg.HelperName)
	}

	return r.helperName
}

// HelperPackageName returns the helper package's allocated name, allocating
// it on first use if WriteVHDL has not already been called. pkg/synth's
// project-script writer uses this to list the helper package first.
func (r *Root) HelperPackageName() string {
	return r.allocateHelperPackageName()
}

// WriteMode selects how WriteVHDL lays entities out on disk.
type WriteMode uint8

const (
	// ModeMerged emits the helper package and every entity (reverse
	// postorder, callees first) into a single file.
	ModeMerged WriteMode = iota
	// ModePerEntity emits one file per package/entity.
	ModePerEntity
	// ModePerPartition emits one file per Entity.Partition, inlining every
	// non-partitioned entity into its nearest partitioned ancestor's file.
	ModePerPartition
)

// WriteVHDL renders the whole AST to destDir per mode, always writing the
// helper package first, then entities; it writes no interface packages.
// Existing files with byte-identical content are left untouched so their
// on-disk mtime survives (downstream build tools can skip unchanged
// dependencies).
func (r *Root) WriteVHDL(destDir string, mode WriteMode) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return vhdlerr.NewIOError(destDir, err)
	}

	helperName := r.allocateHelperPackageName()
	helperLines := hdlpkg.RenderHelperPackage(helperName, r.formatter)

	switch mode {
	case ModePerEntity:
		if err := writeFile(filepath.Join(destDir, helperName+vhdlfmt.Extension), helperLines); err != nil {
			return err
		}

		for _, e := range r.Entities {
			if err := r.writeEntityFile(destDir, e, helperName); err != nil {
				return err
			}
		}

	case ModePerPartition:
		if err := writeFile(filepath.Join(destDir, helperName+vhdlfmt.Extension), helperLines); err != nil {
			return err
		}

		for _, e := range r.Entities {
			// The root entity always gets its own file even when unmarked, so a
			// caller that forgets to flag it Partition still gets a design to
			// build instead of a silently empty output directory.
			if !e.Partition && e.GroupID != r.circuit.RootID {
				continue
			}

			lines := r.renderPartitionFile(e, helperName)
			if err := writeFile(filepath.Join(destDir, e.Name+vhdlfmt.Extension), lines); err != nil {
				return err
			}
		}

	default: // ModeMerged
		var lines []string
		lines = append(lines, helperLines...)

		for _, e := range r.Entities {
			lines = append(lines, "")
			lines = append(lines, r.renderEntity(e, helperName)...)
		}

		if err := writeFile(filepath.Join(destDir, "design"+vhdlfmt.Extension), lines); err != nil {
			return err
		}
	}

	for _, e := range r.Entities {
		if err := r.writeSupportFiles(destDir, e); err != nil {
			return err
		}
	}

	return nil
}

func (r *Root) writeEntityFile(destDir string, e *Entity, helperName string) error {
	lines := r.renderEntity(e, helperName)
	return writeFile(filepath.Join(destDir, e.Name+vhdlfmt.Extension), lines)
}

// renderPartitionFile renders e's own entity plus, inline in the same file,
// every non-partitioned descendant entity reachable only through e (a
// partitioned descendant is skipped here; it gets its own file and e
// references it via an instantiation/COMPONENT declaration instead).
func (r *Root) renderPartitionFile(e *Entity, helperName string) []string {
	var lines []string
	lines = append(lines, r.formatter.FileHeader(e.Name+vhdlfmt.Extension)...)
	lines = append(lines, "")
	lines = append(lines, r.renderLibraryClauses(helperName)...)
	lines = append(lines, r.renderEntityBody(e)...)

	for _, child := range r.inlineDescendants(e) {
		lines = append(lines, "")
		lines = append(lines, r.renderEntityBody(child)...)
	}

	return lines
}

// inlineDescendants walks r.Entities in reverse-postorder and returns those
// reachable as sub-entities of e that are not themselves partitioned.
func (r *Root) inlineDescendants(e *Entity) []*Entity {
	reachable := make(map[GroupIDKey]bool)
	r.collectSubEntities(e, reachable)

	var out []*Entity

	for _, cand := range r.Entities {
		if cand == e {
			continue
		}

		if reachable[GroupIDKey(cand.GroupID)] && !cand.Partition {
			out = append(out, cand)
		}
	}

	return out
}

// GroupIDKey is a plain alias so group ids can key a map without importing
// hlim into this file's map-literal position awkwardly.
type GroupIDKey uint

func (r *Root) collectSubEntities(e *Entity, seen map[GroupIDKey]bool) {
	for _, stmt := range allStatements(e.Statements) {
		if stmt.Kind != InstanceStmt {
			continue
		}

		for _, cand := range r.Entities {
			if cand.Name == stmt.Instance.EntityName && !seen[GroupIDKey(cand.GroupID)] {
				seen[GroupIDKey(cand.GroupID)] = true

				// A partitioned sub-entity gets its own file, and so do
				// the non-partitioned entities beneath it.
				if !cand.Partition {
					r.collectSubEntities(cand, seen)
				}
			}
		}
	}
}

// allStatements flattens nested Block statements into one slice.
func allStatements(stmts []ConcurrentStatement) []ConcurrentStatement {
	var out []ConcurrentStatement

	for _, s := range stmts {
		out = append(out, s)

		if s.Kind == BlockStmt && s.Block != nil {
			out = append(out, allStatements(s.Block.Statements)...)
		}
	}

	return out
}

func (r *Root) renderLibraryClauses(helperName string) []string {
	return []string{
		"LIBRARY ieee;",
		"USE ieee.std_logic_1164.ALL;",
		"USE ieee.numeric_std.ALL;",
		fmt.Sprintf("USE work.%s.ALL;", helperName),
	}
}

func (r *Root) renderEntity(e *Entity, helperName string) []string {
	var lines []string
	lines = append(lines, r.formatter.FileHeader(e.Name+vhdlfmt.Extension)...)
	lines = append(lines, "")
	lines = append(lines, r.renderLibraryClauses(helperName)...)
	lines = append(lines, r.renderEntityBody(e)...)

	return lines
}

func (r *Root) renderEntityBody(e *Entity) []string {
	var lines []string
	lines = append(lines, r.formatter.Banner("Entity", e.Name, e.Comment)...)
	lines = append(lines, fmt.Sprintf("ENTITY %s IS", e.Name))
	lines = append(lines, vhdlfmt.IndentUnit+"PORT(")

	for i, p := range e.Ports {
		sep := ";"
		if i == len(e.Ports)-1 {
			sep = ""
		}

		lines = append(lines, fmt.Sprintf(
			"%s%s : %s %s%s",
			vhdlfmt.IndentUnit+vhdlfmt.IndentUnit, p.Name, p.Dir, r.formatter.FormatConnectionType(p.Type, true), sep,
		))
	}

	lines = append(lines, vhdlfmt.IndentUnit+");")
	lines = append(lines, fmt.Sprintf("END %s;", e.Name))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("ARCHITECTURE impl OF %s IS", e.Name))

	for _, d := range e.Declarations {
		lines = append(lines, fmt.Sprintf(
			"%sSIGNAL %s : %s;", vhdlfmt.IndentUnit, d.Name, r.formatter.FormatConnectionType(d.Type, false),
		))
	}

	lines = append(lines, r.renderComponentDecls(e.Components)...)

	lines = append(lines, "BEGIN")
	lines = append(lines, r.renderStatements(e.Statements, 1)...)
	lines = append(lines, "END impl;")

	return lines
}

// renderComponentDecls emits one COMPONENT ... END COMPONENT; declaration per
// entry, followed by its black_box attribute specification when set (see
// spec example 5).
func (r *Root) renderComponentDecls(components []ComponentDecl) []string {
	var lines []string

	for _, c := range components {
		lines = append(lines, fmt.Sprintf("%sCOMPONENT %s", vhdlfmt.IndentUnit, c.Name))
		lines = append(lines, vhdlfmt.IndentUnit+vhdlfmt.IndentUnit+"PORT(")

		for i, p := range c.Ports {
			sep := ";"
			if i == len(c.Ports)-1 {
				sep = ""
			}

			lines = append(lines, fmt.Sprintf(
				"%s%s : %s %s%s",
				vhdlfmt.Indent(3), p.Name, p.Dir, r.formatter.FormatConnectionType(p.Type, true), sep,
			))
		}

		lines = append(lines, vhdlfmt.IndentUnit+vhdlfmt.IndentUnit+");")
		lines = append(lines, vhdlfmt.IndentUnit+"END COMPONENT;")

		if c.BlackBox {
			lines = append(lines, fmt.Sprintf("%sATTRIBUTE black_box OF %s : COMPONENT IS \"yes\";", vhdlfmt.IndentUnit, c.Name))
		}
	}

	return lines
}

func (r *Root) renderStatements(stmts []ConcurrentStatement, depth int) []string {
	indent := vhdlfmt.Indent(depth)

	var lines []string

	for _, stmt := range stmts {
		switch stmt.Kind {
		case CombProcessStmt:
			lines = append(lines, r.renderCombProcess(stmt.Comb, indent)...)
		case ClockedProcessStmt:
			lines = append(lines, r.renderClockedProcess(stmt.Clocked, indent)...)
		case InstanceStmt:
			lines = append(lines, r.renderInstance(stmt.Instance, indent)...)
		case BlockStmt:
			lines = append(lines, r.renderBlock(stmt.Block, depth)...)
		}

		lines = append(lines, "")
	}

	return lines
}

// renderCombProcess renders p as a sensitivity-list process, unless it has no
// sensitivity at all (its assignments reference no signals, e.g. pure
// constant drivers), in which case an empty "PROCESS ()" would leave the
// driven signal permanently at its initial value; the gatery original falls
// back to plain concurrent signal assignments in that case instead.
func (r *Root) renderCombProcess(p *procbuild.CombProcess, indent string) []string {
	if len(p.Sensitivity) == 0 {
		var lines []string

		for _, a := range p.Assignments {
			lines = append(lines, fmt.Sprintf("%s%s <= %s;", indent, a.Target, a.Expr))
		}

		return lines
	}

	lines := []string{fmt.Sprintf("%s%s : PROCESS(%s)", indent, p.Name, joinNames(p.Sensitivity))}
	lines = append(lines, indent+"BEGIN")

	for _, a := range p.Assignments {
		lines = append(lines, fmt.Sprintf("%s%s <= %s;", indent+vhdlfmt.IndentUnit, a.Target, a.Expr))
	}

	lines = append(lines, fmt.Sprintf("%sEND PROCESS %s;", indent, p.Name))

	return lines
}

func (r *Root) renderClockedProcess(p *procbuild.ClockedProcess, indent string) []string {
	clock := p.Config.Clock

	sensitivity := []string{clock.Name}
	if p.Config.HasResetSignal && clock.Policy == hlim.AsyncReset {
		sensitivity = append(sensitivity, clock.ResetName.UnwrapOr(""))
	}

	lines := []string{fmt.Sprintf("%s%s : PROCESS(%s)", indent, p.Name, joinNames(sensitivity))}
	lines = append(lines, indent+"BEGIN")
	lines = append(lines, procbuild.RenderClockedBody(indent+vhdlfmt.IndentUnit, p)...)
	lines = append(lines, fmt.Sprintf("%sEND PROCESS %s;", indent, p.Name))

	return lines
}

func (r *Root) renderInstance(inst *Instance, indent string) []string {
	kw := "entity work." + inst.EntityName + "(impl)"
	if inst.AsComponent {
		kw = inst.EntityName
	}

	lines := []string{fmt.Sprintf("%s%s : %s port map (", indent, inst.Label, kw)}

	for i, a := range inst.PortMap {
		sep := ","
		if i == len(inst.PortMap)-1 {
			sep = ""
		}

		lines = append(lines, fmt.Sprintf("%s%s => %s%s", indent+vhdlfmt.IndentUnit, a.Port, a.Signal, sep))
	}

	lines = append(lines, indent+");")

	return lines
}

func (r *Root) renderBlock(b *Block, depth int) []string {
	indent := vhdlfmt.Indent(depth)

	lines := []string{fmt.Sprintf("%s%s : BLOCK", indent, b.Label)}
	lines = append(lines, indent+"BEGIN")
	lines = append(lines, r.renderStatements(b.Statements, depth+1)...)
	lines = append(lines, fmt.Sprintf("%sEND BLOCK %s;", indent, b.Label))

	return lines
}

func joinNames(names []string) string {
	out := ""

	for i, n := range names {
		if i > 0 {
			out += ", "
		}

		out += n
	}

	return out
}

// writeSupportFiles is the hook an entity can use to drop auxiliary files
// (memory-initialization tables, IP-core wrapper scripts, ...) beside its
// VHDL. No component currently produces auxiliary files, so this is a no-op;
// it is still called for every entity so a future producer only needs to
// populate Entity's data, not touch the writer's control flow.
func (r *Root) writeSupportFiles(destDir string, e *Entity) error {
	return nil
}

// writeFile renders lines to destDir/path, skipping the write (and
// preserving the existing file's mtime) when the content is byte-identical
// to what is already on disk.
func writeFile(path string, lines []string) error {
	content := []byte(joinLines(lines))

	if existing, err := os.ReadFile(path); err == nil {
		if string(existing) == string(content) {
			log.Debugf("unchanged, skipping write: %s", path)
			return nil
		}
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return vhdlerr.NewIOError(path, err)
	}

	log.Debugf("wrote %s", path)

	return nil
}

func joinLines(lines []string) string {
	out := ""

	for _, l := range lines {
		out += l + "\n"
	}

	return out
}
