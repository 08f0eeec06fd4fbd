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
package namespace

// VHDLReservedWords is the case-insensitive set of VHDL-93/2008 reserved
// words every new scope is seeded with, so that no allocated identifier can
// ever collide with the target language's own keywords.
var VHDLReservedWords = []string{
	"abs", "access", "after", "alias", "all", "and", "architecture", "array",
	"assert", "attribute", "begin", "block", "body", "buffer", "bus", "case",
	"component", "configuration", "constant", "disconnect", "downto", "else",
	"elsif", "end", "entity", "exit", "file", "for", "function", "generate",
	"generic", "group", "guarded", "if", "impure", "in", "inertial", "inout",
	"is", "label", "library", "linkage", "literal", "loop", "map", "mod",
	"nand", "new", "next", "nor", "not", "null", "of", "on", "open", "or",
	"others", "out", "package", "port", "postponed", "procedure", "process",
	"protected", "pure", "range", "record", "register", "reject", "rem",
	"report", "return", "rol", "ror", "select", "severity", "shared",
	"signal", "sla", "sll", "sra", "srl", "subtype", "then", "to",
	"transport", "type", "unaffected", "units", "until", "use", "variable",
	"wait", "when", "while", "with", "xnor", "xor",
}
