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

// Package vhdlerr defines the error taxonomy used across the VHDL back-end.
// Every kind below is its own type rather than a generic error string, so
// callers (and tests) can distinguish them with errors.As.  None of these are
// recoverable locally: they abort the current emission and bubble to the
// top-level writer, per the back-end's propagation policy.
package vhdlerr

import "fmt"

// DesignError indicates the graph violates an invariant the back-end cannot
// paper over: an unresolvable name clash, a port reached as neither input
// nor output, a simulation-only source driving a synthesizable sink, etc.
type DesignError struct {
	Node    string
	Message string
}

func (e *DesignError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("design error: %s", e.Message)
	}

	return fmt.Sprintf("design error at %s: %s", e.Node, e.Message)
}

// NewDesignError constructs a DesignError against a specific node/signal
// identity (empty string if none is applicable).
func NewDesignError(node, message string) *DesignError {
	return &DesignError{Node: node, Message: message}
}

// LookupFailure indicates a name or node could not be resolved in the current
// scope chain.  Always fatal.
type LookupFailure struct {
	What  string
	Scope string
}

func (e *LookupFailure) Error() string {
	return fmt.Sprintf("lookup failure: %s not found in scope %s or any ancestor", e.What, e.Scope)
}

// NewLookupFailure constructs a LookupFailure.
func NewLookupFailure(what, scope string) *LookupFailure {
	return &LookupFailure{What: what, Scope: scope}
}

// IOError wraps an underlying filesystem failure with path context.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error on %q: %s", e.Path, e.Err.Error())
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError wraps err with path context. Returns nil if err is nil.
func NewIOError(path string, err error) error {
	if err == nil {
		return nil
	}

	return &IOError{Path: path, Err: err}
}

// Unsupported indicates a rendering case not handled by this back-end, e.g.
// an unknown connection-type interpretation or an unrecognised node kind
// reached during expression formatting.
type Unsupported struct {
	Feature string
	Node    string
}

func (e *Unsupported) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("unsupported: %s", e.Feature)
	}

	return fmt.Sprintf("unsupported at %s: %s", e.Node, e.Feature)
}

// NewUnsupported constructs an Unsupported error.
func NewUnsupported(feature, node string) *Unsupported {
	return &Unsupported{Feature: feature, Node: node}
}

// RecorderError indicates the testbench recorder received a callback in an
// order it cannot represent, e.g. an assert on a signal not traceable back to
// a declared pin.
type RecorderError struct {
	Message string
}

func (e *RecorderError) Error() string {
	return fmt.Sprintf("recorder error: %s", e.Message)
}

// NewRecorderError constructs a RecorderError.
func NewRecorderError(message string) *RecorderError {
	return &RecorderError{Message: message}
}
