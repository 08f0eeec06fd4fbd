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
package testbench

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// SimTime is a simulation timestamp expressed as an exact rational number of
// seconds (Num/Denom), avoiding the rounding a float64 would introduce over a
// long-running simulation.
type SimTime struct {
	Num   uint64
	Denom uint64
}

// NewSimTime constructs a reduced SimTime. denom must not be zero.
func NewSimTime(num, denom uint64) SimTime {
	if denom == 0 {
		panic("simulation time denominator must not be zero")
	}

	g := gcd(num, denom)
	if g == 0 {
		g = 1
	}

	return SimTime{Num: num / g, Denom: denom / g}
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}

// Sub returns a-b, both as exact seconds.
func (a SimTime) Sub(b SimTime) SimTime {
	num := a.Num*b.Denom - b.Num*a.Denom
	return NewSimTime(num, a.Denom*b.Denom)
}

// Half returns a/2.
func (a SimTime) Half() SimTime {
	return NewSimTime(a.Num, a.Denom*2)
}

// timeUnits lists the back-end's fixed unit ladder, coarsest first, per
// spec.md §4.7's "s -> ms -> us -> ns -> ps -> fs" normalization rule.
var timeUnits = []struct {
	scale uint64
	name  string
}{
	{1, "s"},
	{1_000, "ms"},
	{1_000_000, "us"},
	{1_000_000_000, "ns"},
	{1_000_000_000_000, "ps"},
	{1_000_000_000_000_000, "fs"},
}

// FormatDuration renders dt as a VHDL-legal "<n> <unit>" literal, choosing
// the coarsest unit at which the value is exact. If even femtoseconds cannot
// represent it exactly, it rounds to the nearest femtosecond and logs a
// warning, per spec.md §4.7.
func FormatDuration(dt SimTime) string {
	for _, u := range timeUnits {
		scaled := dt.Num * u.scale
		if scaled%dt.Denom == 0 {
			return fmt.Sprintf("%d %s", scaled/dt.Denom, u.name)
		}
	}

	fsScale := timeUnits[len(timeUnits)-1].scale
	scaled := dt.Num * fsScale
	rounded := (scaled + dt.Denom/2) / dt.Denom

	log.Warnf("simulation time %d/%d s has no exact femtosecond representation; rounded to %d fs", dt.Num, dt.Denom, rounded)

	return fmt.Sprintf("%d fs", rounded)
}
