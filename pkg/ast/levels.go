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
	"sort"

	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/namespace"
	"github.com/gatery-project/vhdlback/pkg/procbuild"
	"github.com/gatery-project/vhdlback/pkg/util"
)

// buildPorts populates entity.Ports from every Pin node reachable within
// gid's recursive node-ownership subtree, plus one IN port per distinct
// clock (and, when present, its reset signal) referenced by a register
// inside the entity. Input ports are ordered before output ports, each
// group sorted by pin node id, so that GroupNodeKind.Inputs/OutputTypes can
// be assumed to correspond positionally to a sub-entity's own port order
// (see DESIGN.md's note on this simplification).
func (r *Root) buildPorts(entity *Entity, gid hlim.GroupId) error {
	var inPins, outPins []hlim.NodeId

	for _, id := range r.circuit.AllNodesOf(gid, true) {
		node := r.circuit.Node(id)
		if node.Kind != hlim.PinNodeKind {
			continue
		}

		if hasDriver(node) {
			outPins = append(outPins, id)
		} else {
			inPins = append(inPins, id)
		}
	}

	sort.Slice(inPins, func(i, j int) bool { return inPins[i] < inPins[j] })
	sort.Slice(outPins, func(i, j int) bool { return outPins[i] < outPins[j] })

	for _, id := range inPins {
		node := r.circuit.Node(id)

		name, err := entity.Scope.GetPinName(id)
		if err != nil {
			return err
		}

		entity.Ports = append(entity.Ports, Port{Name: name, Dir: In, Type: node.OutputType(0)})
	}

	for _, id := range outPins {
		node := r.circuit.Node(id)

		name, err := entity.Scope.GetPinName(id)
		if err != nil {
			return err
		}

		driver, ok := node.DriverOf(0)
		if !ok {
			return designError(node, "output pin has no driver")
		}

		ct := r.circuit.Node(driver.Node).OutputType(driver.Output)
		entity.Ports = append(entity.Ports, Port{Name: name, Dir: Out, Type: ct})
	}

	for _, clk := range r.distinctClocks(gid) {
		clkName := entity.Scope.AllocateClockName(clk.Name, clk.Name)
		entity.Ports = append(entity.Ports, Port{Name: clkName, Dir: In, Type: hlim.BoolType()})

		if clk.HasReset() {
			rstKey := "rst:" + clk.Name
			rstName := entity.Scope.AllocateClockName(rstKey, clk.ResetName.UnwrapOr(clk.Name+"_rst"))
			entity.Ports = append(entity.Ports, Port{Name: rstName, Dir: In, Type: hlim.BoolType()})
		}
	}

	return nil
}

// distinctClocks returns every distinct clock (by name) referenced by a
// register within gid's recursive subtree, in a deterministic order.
func (r *Root) distinctClocks(gid hlim.GroupId) []hlim.Clock {
	seen := make(map[string]hlim.Clock)

	for _, id := range r.circuit.AllNodesOf(gid, true) {
		node := r.circuit.Node(id)
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

// buildDeclarations populates entity.Declarations: one "signal NAME : TYPE;"
// per non-pin node in boundary, i.e. every declared value that is not
// already part of the port clause.
func (r *Root) buildDeclarations(entity *Entity, gid hlim.GroupId, boundary procbuild.Boundary) error {
	ids := make([]hlim.NodeId, 0, len(boundary))
	for id := range boundary {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		node := r.circuit.Node(id)
		if node.Kind == hlim.PinNodeKind {
			continue // declared in the port clause instead
		}

		for o := range node.OutputTypes {
			port := hlim.PortRef{Node: id, Output: uint(o)}

			name, err := entity.Scope.GetSignalName(port)
			if err != nil {
				continue // not a declared target at this output index
			}

			entity.Declarations = append(entity.Declarations, Declaration{Name: name, Type: node.OutputType(uint(o))})
		}
	}

	return nil
}

// buildLevel recursively builds the concurrent statements for one
// block/process-building level: gid's own logic becomes (at most) one
// combinational process, its sub-entity/SFU/external instantiations become
// Instance statements, each pure-leaf Area child collapses into its own
// combinational process, and each non-pure-leaf Area child becomes a nested
// Block.
func (r *Root) buildLevel(
	entity *Entity,
	gid hlim.GroupId,
	levelName string,
	scope *namespace.Scope,
	boundary procbuild.Boundary,
	declaredTargets map[hlim.NodeId][]hlim.PortRef,
	sortIdx *int,
) ([]ConcurrentStatement, error) {
	var stmts []ConcurrentStatement

	ownNodes := ownScopeNodes(r.circuit, gid)

	if proc, err := r.buildLevelCombProcess(levelName, scope, boundary, declaredTargets, ownNodes); err != nil {
		return nil, err
	} else if proc != nil {
		stmts = append(stmts, ConcurrentStatement{Kind: CombProcessStmt, Comb: proc, SortIdx: *sortIdx})
		*sortIdx++
	}

	for _, id := range ownNodes {
		node := r.circuit.Node(id)

		switch node.Kind {
		case hlim.GroupNodeKind:
			inst, err := r.buildSubEntityInstance(entity, node, scope)
			if err != nil {
				return nil, err
			}

			stmts = append(stmts, ConcurrentStatement{Kind: InstanceStmt, Instance: inst, SortIdx: *sortIdx})
			*sortIdx++

		case hlim.ExternalNodeKind:
			inst, err := r.buildExternalInstance(entity, node, scope)
			if err != nil {
				return nil, err
			}

			stmts = append(stmts, ConcurrentStatement{Kind: InstanceStmt, Instance: inst, SortIdx: *sortIdx})
			*sortIdx++
		}
	}

	group := r.circuit.Group(gid)

	for _, cid := range group.Children {
		child := r.circuit.Group(cid)

		switch child.Kind {
		case hlim.TransparentGroup, hlim.EntityGroup, hlim.SFUGroup:
			continue // flattened into ownNodes, or handled via GroupNodeKind above

		case hlim.AreaGroup:
			if child.IsPureLeafArea(r.circuit) {
				leafNodes := ownScopeNodes(r.circuit, cid)

				proc, err := r.buildLevelCombProcess(child.Name, scope, boundary, declaredTargets, leafNodes)
				if err != nil {
					return nil, err
				}

				if proc != nil {
					stmts = append(stmts, ConcurrentStatement{Kind: CombProcessStmt, Comb: proc, SortIdx: *sortIdx})
					*sortIdx++
				}

				continue
			}

			nested, err := r.buildLevel(entity, cid, child.Name, scope, boundary, declaredTargets, sortIdx)
			if err != nil {
				return nil, err
			}

			block := &Block{Label: scope.AllocateBlockName(nonEmpty(child.Name, "blk")), Statements: nested}
			stmts = append(stmts, ConcurrentStatement{Kind: BlockStmt, Block: block, SortIdx: *sortIdx})
			*sortIdx++
		}
	}

	return stmts, nil
}

func (r *Root) buildLevelCombProcess(
	levelName string,
	scope *namespace.Scope,
	boundary procbuild.Boundary,
	declaredTargets map[hlim.NodeId][]hlim.PortRef,
	levelNodes []hlim.NodeId,
) (*procbuild.CombProcess, error) {
	var targets []hlim.PortRef

	for _, id := range levelNodes {
		node := r.circuit.Node(id)
		if node.Kind != hlim.LogicNodeKind && node.Kind != hlim.SignalNodeKind &&
			!(node.Kind == hlim.PinNodeKind && hasDriver(node)) {
			continue
		}

		targets = append(targets, declaredTargets[id]...)
	}

	if len(targets) == 0 {
		return nil, nil
	}

	name := scope.AllocateProcessName(nonEmpty(levelName, "logic"), false)
	exprs := procbuild.NewExprBuilder(r.circuit, scope, r.formatter)

	return procbuild.BuildCombProcess(name, r.circuit, scope, exprs, boundary, targets)
}

// buildClockedProcesses builds one clocked process per RegisterConfig bucket
// across gid's entire recursive subtree, resolving the clock/reset port
// names allocated by buildPorts.
func (r *Root) buildClockedProcesses(
	gid hlim.GroupId,
	scope *namespace.Scope,
	boundary procbuild.Boundary,
	sortIdx *int,
) ([]ConcurrentStatement, error) {
	buckets := procbuild.BucketRegistersByClock(r.circuit, gid)

	keys := make([]procbuild.RegisterConfig, 0, len(buckets))
	for cfg := range buckets {
		keys = append(keys, cfg)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Clock.Name != keys[j].Clock.Name {
			return keys[i].Clock.Name < keys[j].Clock.Name
		}

		return !keys[i].HasResetSignal && keys[j].HasResetSignal
	})

	var stmts []ConcurrentStatement

	exprs := procbuild.NewExprBuilder(r.circuit, scope, r.formatter)

	for _, cfg := range keys {
		regs := buckets[cfg]

		resolved, err := r.resolveClockConfig(scope, cfg)
		if err != nil {
			return nil, err
		}

		name := scope.AllocateProcessName(nonEmpty(cfg.Clock.Name, "clk"), true)

		proc, err := procbuild.BuildClockedProcess(name, r.circuit, scope, exprs, boundary, resolved, regs)
		if err != nil {
			return nil, err
		}

		stmts = append(stmts, ConcurrentStatement{Kind: ClockedProcessStmt, Clocked: proc, SortIdx: *sortIdx})
		*sortIdx++
	}

	return stmts, nil
}

func (r *Root) resolveClockConfig(scope *namespace.Scope, cfg procbuild.RegisterConfig) (procbuild.RegisterConfig, error) {
	clkName, err := scope.GetClockName(cfg.Clock.Name)
	if err != nil {
		return cfg, err
	}

	resolved := hlim.Clock{Name: clkName, Policy: cfg.Clock.Policy, PeriodPicoseconds: cfg.Clock.PeriodPicoseconds}

	if cfg.HasResetSignal {
		rstName, err := scope.GetClockName("rst:" + cfg.Clock.Name)
		if err != nil {
			return cfg, err
		}

		resolved.ResetName = util.Some(rstName)
	}

	return procbuild.RegisterConfig{Clock: resolved, HasResetSignal: cfg.HasResetSignal}, nil
}

func (r *Root) buildSubEntityInstance(entity *Entity, node *hlim.Node, scope *namespace.Scope) (*Instance, error) {
	sub, ok := r.byGroup[node.SubGroup]
	if !ok {
		return nil, designError(node, "sub-entity instantiated before it was converted")
	}

	var inPorts, outPorts []Port

	for _, p := range sub.Ports {
		if p.Dir == In {
			inPorts = append(inPorts, p)
		} else {
			outPorts = append(outPorts, p)
		}
	}

	var portMap []PortAssociation

	for i, p := range inPorts {
		driver, ok := node.DriverOf(uint(i))
		if !ok {
			return nil, designError(node, fmt.Sprintf("instantiation input %d is undriven", i))
		}

		sigName, err := scope.GetSignalName(driver)
		if err != nil {
			return nil, err
		}

		portMap = append(portMap, PortAssociation{Port: p.Name, Signal: sigName, Dir: p.Dir, Type: p.Type})
	}

	for o, p := range outPorts {
		sigName, err := scope.GetSignalName(hlim.PortRef{Node: node.ID, Output: uint(o)})
		if err != nil {
			return nil, err
		}

		portMap = append(portMap, PortAssociation{Port: p.Name, Signal: sigName, Dir: p.Dir, Type: p.Type})
	}

	label := scope.AllocateInstanceName(nonEmpty(node.Name, "inst"))

	if sub.AsComponent {
		r.registerComponent(entity, sub.Name, append(append([]Port{}, inPorts...), outPorts...), r.circuit.Group(node.SubGroup).Attrs)
	}

	return &Instance{Label: label, EntityName: sub.Name, PortMap: portMap, AsComponent: sub.AsComponent}, nil
}

// buildExternalInstance builds an Instance for an opaque black-box node: its
// ports are named generically (p0, p1, ... for inputs, q0, q1, ... for
// outputs) since an ExternalNodeKind carries no declared port-name table of
// its own, only a target entity name.
func (r *Root) buildExternalInstance(entity *Entity, node *hlim.Node, scope *namespace.Scope) (*Instance, error) {
	var portMap []PortAssociation

	var declPorts []Port

	for i := range node.Inputs {
		driver, ok := node.DriverOf(uint(i))
		if !ok {
			return nil, designError(node, fmt.Sprintf("external instantiation input %d is undriven", i))
		}

		sigName, err := scope.GetSignalName(driver)
		if err != nil {
			return nil, err
		}

		ct := r.circuit.Node(driver.Node).OutputType(driver.Output)
		name := fmt.Sprintf("p%d", i)
		portMap = append(portMap, PortAssociation{Port: name, Signal: sigName, Dir: In, Type: ct})
		declPorts = append(declPorts, Port{Name: name, Dir: In, Type: ct})
	}

	for o := range node.OutputTypes {
		sigName, err := scope.GetSignalName(hlim.PortRef{Node: node.ID, Output: uint(o)})
		if err != nil {
			return nil, err
		}

		ct := node.OutputType(uint(o))
		name := fmt.Sprintf("q%d", o)
		portMap = append(portMap, PortAssociation{Port: name, Signal: sigName, Dir: Out, Type: ct})
		declPorts = append(declPorts, Port{Name: name, Dir: Out, Type: ct})
	}

	label := scope.AllocateInstanceName(nonEmpty(node.Name, "ext"))

	r.registerComponent(entity, node.ExternalName, declPorts, nil)

	return &Instance{Label: label, EntityName: node.ExternalName, PortMap: portMap, AsComponent: true}, nil
}

// registerComponent records a "COMPONENT name PORT(...); END COMPONENT;"
// declaration on entity (deduped by name) for an AsComponent instantiation,
// carrying forward the owning group's "black_box" attribute (see
// hlim.Group.Attrs and spec example 5's COMPONENT/black_box pairing).
func (r *Root) registerComponent(entity *Entity, name string, ports []Port, attrs hlim.Attributes) {
	for _, c := range entity.Components {
		if c.Name == name {
			return
		}
	}

	entity.Components = append(entity.Components, ComponentDecl{
		Name:     name,
		Ports:    ports,
		BlackBox: attrs != nil && attrs["black_box"] == "yes",
	})
}
