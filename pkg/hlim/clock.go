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
package hlim

import "github.com/gatery-project/vhdlback/pkg/util"

// ResetPolicy determines how (if at all) a clock's domain is reset.
type ResetPolicy uint8

const (
	// NoReset means registers on this clock have no reset signal at all.
	NoReset ResetPolicy = iota
	// SyncReset means the reset is sampled on the active clock edge.
	SyncReset
	// AsyncReset means the reset takes effect independently of the clock.
	AsyncReset
)

// Clock identifies a clock domain: a name, a reset policy, and (when the
// policy is not NoReset) the name of the reset signal driving it.
type Clock struct {
	// Name is the clock's desired (pre-allocation) name.
	Name string
	// Policy is this clock's reset strategy.
	Policy ResetPolicy
	// ResetName is the desired name of the reset signal, when Policy != NoReset.
	ResetName util.Option[string]
	// PeriodPicoseconds is the clock's nominal period, used only by the
	// synthesis-tool adapter's clocks file; zero if unspecified.
	PeriodPicoseconds uint64
}

// HasReset indicates whether this clock's domain carries a reset signal.
func (c Clock) HasReset() bool {
	return c.Policy != NoReset
}

// NewClock constructs a clock with no reset.
func NewClock(name string) Clock {
	return Clock{Name: name, Policy: NoReset, ResetName: util.None[string]()}
}

// NewResetClock constructs a clock with the given reset policy and reset
// signal name.  Policy must not be NoReset.
func NewResetClock(name string, policy ResetPolicy, resetName string) Clock {
	if policy == NoReset {
		panic("NewResetClock requires a reset policy other than NoReset")
	}

	return Clock{Name: name, Policy: policy, ResetName: util.Some(resetName)}
}
