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

// Package testbench implements the testbench recorder (C7): a callback sink
// attached to a host simulator that replays its stimulus/assertion trace as
// a VHDL testbench entity instantiating the translated root entity.
package testbench

import (
	"fmt"
	"sort"

	"github.com/gatery-project/vhdlback/pkg/ast"
	"github.com/gatery-project/vhdlback/pkg/hlim"
	"github.com/gatery-project/vhdlback/pkg/vhdlerr"
	"github.com/gatery-project/vhdlback/pkg/vhdlfmt"
)

// Recorder is a stateful callback sink. Its methods are called in the order
// the host simulator drives the circuit; Render (after Close) produces the
// finished testbench entity's VHDL source.
type Recorder struct {
	formatter  *vhdlfmt.CodeFormatter
	rootEntity string

	name       string
	started    bool
	closed     bool

	pinSignals map[string]string
	pinTypes   map[string]hlim.ConnectionType
	ports      []ast.Port

	haveLastTime bool
	lastTime     SimTime

	pendingOverrides map[string]string
	pendingAsserts   []string

	body []string
}

// NewRecorder constructs a recorder that will instantiate rootEntity (the
// already-allocated name of the translated root entity) from its generated
// testbench.
func NewRecorder(formatter *vhdlfmt.CodeFormatter, rootEntity string) *Recorder {
	return &Recorder{formatter: formatter, rootEntity: rootEntity}
}

// Setup begins the testbench: it binds one local signal per root-entity port
// (clocks, resets, and I/O pins alike) and opens the simulation process. It
// must be called exactly once, before any other method.
//
// Testbench-local signal names are derived by prefixing each root port's own
// (already-unique) name with "tb_" rather than allocated through
// pkg/namespace's Scope: Scope's allocation API is keyed by hlim.PortRef/
// NodeId, and a testbench signal has no backing HLIM node of its own — only
// a port name supplied by the translated root entity. Since the root
// entity's port names are already case-insensitively unique, prefixing them
// is injective and needs no separate collision-avoidance pass.
func (r *Recorder) Setup(name string, ports []ast.Port) error {
	if r.started {
		return vhdlerr.NewRecorderError("Setup called more than once")
	}

	r.started = true
	r.name = name
	r.ports = ports
	r.pinSignals = make(map[string]string, len(ports))
	r.pinTypes = make(map[string]hlim.ConnectionType, len(ports))
	r.pendingOverrides = make(map[string]string)

	for _, p := range ports {
		r.pinSignals[p.Name] = "tb_" + p.Name
		r.pinTypes[p.Name] = p.Type
	}

	r.body = append(r.body, vhdlfmt.IndentUnit+"sim_process : PROCESS")
	r.body = append(r.body, vhdlfmt.IndentUnit+"BEGIN")

	return nil
}

func (r *Recorder) requireOpen() error {
	if !r.started {
		return vhdlerr.NewRecorderError("recorder method called before Setup")
	}

	if r.closed {
		return vhdlerr.NewRecorderError("recorder method called after Close")
	}

	return nil
}

func (r *Recorder) resolvePin(pinName string) (string, hlim.ConnectionType, error) {
	sig, ok := r.pinSignals[pinName]
	if !ok {
		return "", hlim.ConnectionType{}, vhdlerr.NewRecorderError(fmt.Sprintf("pin %q is not part of this testbench", pinName))
	}

	return sig, r.pinTypes[pinName], nil
}

// OverridePin buffers a stimulus write to a pin; only the last write to a
// given pin within a tick takes effect (flushed at the next OnNewTick).
func (r *Recorder) OverridePin(pinName string, value uint64) error {
	if err := r.requireOpen(); err != nil {
		return err
	}

	sig, ct, err := r.resolvePin(pinName)
	if err != nil {
		return err
	}

	r.pendingOverrides[pinName] = fmt.Sprintf("%s <= %s;", sig, r.formatter.FormatConstant(ct, value))

	return nil
}

// OnClock records one clock edge. Unlike pin overrides, clock edges are
// emitted immediately rather than buffered, since they are themselves the
// event that advances the host simulation.
func (r *Recorder) OnClock(clockPinName string, rising bool) error {
	if err := r.requireOpen(); err != nil {
		return err
	}

	sig, _, err := r.resolvePin(clockPinName)
	if err != nil {
		return err
	}

	lit := "'0'"
	if rising {
		lit = "'1'"
	}

	r.body = append(r.body, fmt.Sprintf("%s%s <= %s;", vhdlfmt.Indent(2), sig, lit))

	return nil
}

// AssertPin queues an assertion against a pin's current value, to be emitted
// at the midpoint of the current tick. definedMask marks which bits of value
// are meaningful (bit i set means bit i of value is defined); undefined bits
// are skipped rather than asserted, and a fully-defined vector emits one
// assert instead of one per bit.
func (r *Recorder) AssertPin(pinName string, value, definedMask uint64) error {
	if err := r.requireOpen(); err != nil {
		return err
	}

	sig, ct, err := r.resolvePin(pinName)
	if err != nil {
		return err
	}

	if ct.IsBool() {
		if definedMask&1 == 0 {
			return nil
		}

		r.pendingAsserts = append(r.pendingAsserts, fmt.Sprintf("ASSERT %s = %s;", sig, r.formatter.FormatConstant(ct, value)))

		return nil
	}

	width := ct.Width()
	full := widthMask(width)

	if definedMask&full == full {
		r.pendingAsserts = append(r.pendingAsserts, fmt.Sprintf("ASSERT %s = %s;", sig, r.formatter.FormatConstant(ct, value)))
		return nil
	}

	for i := uint(0); i < width; i++ {
		if definedMask&(1<<i) == 0 {
			continue
		}

		bitLit := "'0'"
		if (value>>i)&1 != 0 {
			bitLit = "'1'"
		}

		r.pendingAsserts = append(r.pendingAsserts, fmt.Sprintf("ASSERT %s(%d) = %s;", sig, i, bitLit))
	}

	return nil
}

func widthMask(width uint) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}

	return (uint64(1) << width) - 1
}

// OnNewTick flushes buffered pin overrides, then emits either one WAIT FOR
// covering the full tick (no asserts pending) or two half-tick waits
// bracketing the pending asserts, per spec.md §4.7's stimulus-at-boundary,
// assert-at-midpoint convention.
func (r *Recorder) OnNewTick(time SimTime) error {
	if err := r.requireOpen(); err != nil {
		return err
	}

	var dt SimTime
	if !r.haveLastTime {
		dt = time
		r.haveLastTime = true
	} else {
		dt = time.Sub(r.lastTime)
	}

	r.lastTime = time

	names := make([]string, 0, len(r.pendingOverrides))
	for n := range r.pendingOverrides {
		names = append(names, n)
	}

	sort.Strings(names)

	for _, n := range names {
		r.body = append(r.body, vhdlfmt.Indent(2)+r.pendingOverrides[n])
	}

	r.pendingOverrides = make(map[string]string)

	if len(r.pendingAsserts) == 0 {
		r.body = append(r.body, fmt.Sprintf("%sWAIT FOR %s;", vhdlfmt.Indent(2), FormatDuration(dt)))
		return nil
	}

	half := dt.Half()
	r.body = append(r.body, fmt.Sprintf("%sWAIT FOR %s;", vhdlfmt.Indent(2), FormatDuration(half)))

	for _, a := range r.pendingAsserts {
		r.body = append(r.body, vhdlfmt.Indent(2)+a)
	}

	r.pendingAsserts = nil

	r.body = append(r.body, fmt.Sprintf("%sWAIT FOR %s;", vhdlfmt.Indent(2), FormatDuration(half)))

	return nil
}

// AnnotationStart/End wrap a scope of later calls in VHDL comments for
// traceability back to the host simulation's own annotation scopes.
func (r *Recorder) AnnotationStart(id, desc string) error {
	return r.annotate("Begin", id, desc)
}

func (r *Recorder) AnnotationEnd(id, desc string) error {
	return r.annotate("End", id, desc)
}

func (r *Recorder) annotate(kind, id, desc string) error {
	if err := r.requireOpen(); err != nil {
		return err
	}

	if desc == "" {
		r.body = append(r.body, fmt.Sprintf("%s-- %s: %s", vhdlfmt.Indent(2), kind, id))
	} else {
		r.body = append(r.body, fmt.Sprintf("%s-- %s: %s (%s)", vhdlfmt.Indent(2), kind, id, desc))
	}

	return nil
}

// Close terminates the simulation process. Idempotent: a second call is a
// no-op rather than an error, so callers can safely defer it alongside
// explicit teardown on an error path.
func (r *Recorder) Close() error {
	if err := r.requireOpen(); err != nil {
		if r.closed {
			return nil
		}

		return err
	}

	r.body = append(r.body, vhdlfmt.Indent(2)+"WAIT;")
	r.body = append(r.body, vhdlfmt.IndentUnit+"END PROCESS;")
	r.closed = true

	return nil
}

// Render assembles the full testbench entity's VHDL source. Callers
// typically call it after Close, but a partial render (useful for debugging
// a stuck simulation) is allowed.
func (r *Recorder) Render() ([]string, error) {
	if !r.started {
		return nil, vhdlerr.NewRecorderError("Render called before Setup")
	}

	var lines []string
	lines = append(lines, r.formatter.FileHeader(r.name+vhdlfmt.Extension)...)
	lines = append(lines, "")
	lines = append(lines, "LIBRARY ieee;")
	lines = append(lines, "USE ieee.std_logic_1164.ALL;")
	lines = append(lines, "USE ieee.numeric_std.ALL;")
	lines = append(lines, "")
	lines = append(lines, r.formatter.Banner("Testbench", r.name, "")...)
	lines = append(lines, fmt.Sprintf("ENTITY %s IS", r.name))
	lines = append(lines, fmt.Sprintf("END %s;", r.name))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("ARCHITECTURE tb OF %s IS", r.name))

	for _, p := range sortedPorts(r.ports) {
		lines = append(lines, fmt.Sprintf(
			"%sSIGNAL %s : %s;", vhdlfmt.IndentUnit, r.pinSignals[p.Name], r.formatter.FormatConnectionType(p.Type, true),
		))
	}

	lines = append(lines, "BEGIN")
	lines = append(lines, vhdlfmt.IndentUnit+fmt.Sprintf("uut : entity work.%s(impl) port map (", r.rootEntity))

	ports := sortedPorts(r.ports)
	for i, p := range ports {
		sep := ","
		if i == len(ports)-1 {
			sep = ""
		}

		lines = append(lines, fmt.Sprintf("%s%s => %s%s", vhdlfmt.Indent(2), p.Name, r.pinSignals[p.Name], sep))
	}

	lines = append(lines, vhdlfmt.IndentUnit+");")
	lines = append(lines, "")
	lines = append(lines, r.body...)
	lines = append(lines, "END tb;")

	return lines, nil
}

func sortedPorts(ports []ast.Port) []ast.Port {
	out := make([]ast.Port, len(ports))
	copy(out, ports)

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}
