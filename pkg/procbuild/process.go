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
package procbuild

import (
	"fmt"
	"sort"

	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/namespace"
)

// Assignment is one "target <= expr;" statement inside a process body.
// ResetExpr is only populated for clocked-process assignments whose register
// has a reset signal; it holds the literal to drive on reset.
type Assignment struct {
	Target    string
	Expr      string
	ResetExpr string
}

// CombProcess is a fully-built combinational process, ready for rendering by
// pkg/ast's entity/block writer.
type CombProcess struct {
	Name        string
	Sensitivity []string
	Assignments []Assignment
}

// RegisterConfig buckets registers sharing a clock domain and reset policy
// into a single clocked process, per spec.md §4.4.
type RegisterConfig struct {
	Clock          hlim.Clock
	HasResetSignal bool
}

// ClockedProcess is a fully-built clocked (registered) process.
type ClockedProcess struct {
	Name        string
	Config      RegisterConfig
	Assignments []Assignment
}

// BuildCombProcess renders one combinational process assigning every port in
// declaredTargets. boundary must contain every node in this scope that
// already carries an allocated name (so expression inlining knows where to
// stop); declaredTargets is the subset of those boundary ports that this
// particular process is responsible for driving. A LogicNodeKind target
// renders its own operator; any other target (a named signal, a driven
// output pin) is assigned its driver's expression.
func BuildCombProcess(
	name string,
	circuit *hlim.Circuit,
	scope *namespace.Scope,
	exprs *ExprBuilder,
	boundary Boundary,
	declaredTargets []hlim.PortRef,
) (*CombProcess, error) {
	proc := &CombProcess{Name: name}
	referenced := make(map[hlim.NodeId]bool)

	// Sort targets for deterministic output; declaration order otherwise
	// depends on map iteration order upstream.
	sorted := make([]hlim.PortRef, len(declaredTargets))
	copy(sorted, declaredTargets)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Node != sorted[j].Node {
			return sorted[i].Node < sorted[j].Node
		}

		return sorted[i].Output < sorted[j].Output
	})

	for _, port := range sorted {
		node := circuit.Node(port.Node)

		targetName, err := scope.GetSignalName(port)
		if err != nil {
			return nil, err
		}

		var expr string

		if node.Kind == hlim.LogicNodeKind {
			// The node driving this declared target is itself in boundary
			// (it's the very port we're assigning), so widen a local copy of
			// boundary that excludes it, letting its own operator render
			// instead of immediately bouncing back to its own name.
			localBoundary := make(Boundary, len(boundary))

			for id := range boundary {
				if id != port.Node {
					localBoundary[id] = true
				}
			}

			expr, err = exprs.formatLogic(node, localBoundary)
			if err != nil {
				return nil, err
			}

			if err := exprs.CollectReferences(port, localBoundary, referenced); err != nil {
				return nil, err
			}
		} else {
			// A named signal or output pin that is itself driven (rather
			// than computing its own value) just copies its driver's value
			// through; its driver is never this same node, so no boundary
			// widening is needed.
			driver, ok := node.DriverOf(port.Output)
			if !ok {
				// Undriven (e.g. an external's awaiting-connection input, or
				// a sink pin with no OutputTypes of its own); nothing to
				// assign here.
				continue
			}

			expr, err = exprs.FormatExpression(driver, boundary)
			if err != nil {
				return nil, err
			}

			if err := exprs.CollectReferences(driver, boundary, referenced); err != nil {
				return nil, err
			}
		}

		proc.Assignments = append(proc.Assignments, Assignment{Target: targetName, Expr: expr})
	}

	for id := range referenced {
		n := circuit.Node(id)
		if n.Kind == hlim.LogicNodeKind && n.Op == "const" {
			continue // constants never belong in a sensitivity list
		}

		for o := range n.OutputTypes {
			sigName, err := scope.GetSignalName(hlim.PortRef{Node: id, Output: uint(o)})
			if err == nil {
				proc.Sensitivity = append(proc.Sensitivity, sigName)
			}
		}
	}

	sort.Strings(proc.Sensitivity)

	return proc, nil
}

// BuildClockedProcess renders one clocked process for a set of registers
// sharing a single RegisterConfig.
func BuildClockedProcess(
	name string,
	circuit *hlim.Circuit,
	scope *namespace.Scope,
	exprs *ExprBuilder,
	boundary Boundary,
	config RegisterConfig,
	registers []hlim.NodeId,
) (*ClockedProcess, error) {
	proc := &ClockedProcess{Name: name, Config: config}

	sorted := make([]hlim.NodeId, len(registers))
	copy(sorted, registers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for _, regID := range sorted {
		reg := circuit.Node(regID)

		storageName, err := scope.GetStorageName(regID)
		if err != nil {
			return nil, err
		}

		driver, ok := reg.DriverOf(0)
		if !ok {
			return nil, fmt.Errorf("register %q has no driving input", reg.Name)
		}

		expr, err := exprs.FormatExpression(driver, boundary)
		if err != nil {
			return nil, err
		}

		assignment := Assignment{Target: storageName, Expr: expr}

		if config.HasResetSignal {
			assignment.ResetExpr = exprs.FormatConstant(reg.OutputType(0), reg.RegResetValue.UnwrapOr(0))
		}

		proc.Assignments = append(proc.Assignments, assignment)
	}

	return proc, nil
}

// BucketRegistersByClock groups every register node owned (recursively,
// stopping at Entity/SFU boundaries) by gid into RegisterConfig buckets, so
// that registers sharing a clock and reset policy become one clocked
// process instead of one process per register.
func BucketRegistersByClock(circuit *hlim.Circuit, gid hlim.GroupId) map[RegisterConfig][]hlim.NodeId {
	buckets := make(map[RegisterConfig][]hlim.NodeId)

	for _, id := range circuit.AllNodesOf(gid, true) {
		node := circuit.Node(id)
		if !node.IsRegister() {
			continue
		}

		cfg := RegisterConfig{
			Clock:          node.RegClock,
			HasResetSignal: node.RegClock.HasReset() && node.RegResetValue.HasValue(),
		}

		buckets[cfg] = append(buckets[cfg], id)
	}

	return buckets
}

// RenderClockedBody renders the process statement body lines (excluding the
// "process(...)"/"end process;" bracketing, which pkg/ast owns) for a
// clocked process, choosing the synchronous- or asynchronous-reset shape per
// config.Clock.Policy.
func RenderClockedBody(indent string, proc *ClockedProcess) []string {
	clock := proc.Config.Clock
	resetName := clock.ResetName.UnwrapOr("")

	var lines []string

	switch {
	case clock.Policy == hlim.AsyncReset && proc.Config.HasResetSignal:
		lines = append(lines, fmt.Sprintf("%sif %s = '1' then", indent, resetName))
		lines = append(lines, resetAssignments(indent+"  ", proc)...)
		lines = append(lines, fmt.Sprintf("%selsif rising_edge(%s) then", indent, clock.Name))
		lines = append(lines, bodyAssignments(indent+"  ", proc)...)
		lines = append(lines, fmt.Sprintf("%send if;", indent))

	case clock.Policy == hlim.SyncReset && proc.Config.HasResetSignal:
		lines = append(lines, fmt.Sprintf("%sif rising_edge(%s) then", indent, clock.Name))
		lines = append(lines, fmt.Sprintf("%s  if %s = '1' then", indent, resetName))
		lines = append(lines, resetAssignments(indent+"    ", proc)...)
		lines = append(lines, fmt.Sprintf("%s  else", indent))
		lines = append(lines, bodyAssignments(indent+"    ", proc)...)
		lines = append(lines, fmt.Sprintf("%s  end if;", indent))
		lines = append(lines, fmt.Sprintf("%send if;", indent))

	default:
		lines = append(lines, fmt.Sprintf("%sif rising_edge(%s) then", indent, clock.Name))
		lines = append(lines, bodyAssignments(indent+"  ", proc)...)
		lines = append(lines, fmt.Sprintf("%send if;", indent))
	}

	return lines
}

func bodyAssignments(indent string, proc *ClockedProcess) []string {
	lines := make([]string, 0, len(proc.Assignments))
	for _, a := range proc.Assignments {
		lines = append(lines, fmt.Sprintf("%s%s <= %s;", indent, a.Target, a.Expr))
	}

	return lines
}

func resetAssignments(indent string, proc *ClockedProcess) []string {
	lines := make([]string, 0, len(proc.Assignments))
	for _, a := range proc.Assignments {
		lines = append(lines, fmt.Sprintf("%s%s <= %s;", indent, a.Target, a.ResetExpr))
	}

	return lines
}
