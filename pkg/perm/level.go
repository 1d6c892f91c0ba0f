// Copyright 2024 The Foldervault Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package perm resolves effective permissions over the node tree,
// combining direct grants (pkg/store's grants table) with ancestor
// inheritance and descendant-derived visibility (spec §3, §4.2).
package perm

// Level is a closed, ordered permission level. The zero value, LevelNone,
// means "no access" and is distinct from "not represented in the grants
// table" only in that both resolve to the same observable behaviour.
type Level int8

const (
	LevelNone Level = iota
	LevelRead
	LevelWrite
	LevelAdmin
	LevelOwner
)

// String renders a Level for logging and error messages.
func (l Level) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelRead:
		return "read"
	case LevelWrite:
		return "write"
	case LevelAdmin:
		return "admin"
	case LevelOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// ParseLevel decodes a grant-level string, e.g. one received over an
// external collaborator's contract. "owner" is accepted here because it
// can be read back from storage, even though Grant refuses to create it.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "none":
		return LevelNone, true
	case "read":
		return LevelRead, true
	case "write":
		return LevelWrite, true
	case "admin":
		return LevelAdmin, true
	case "owner":
		return LevelOwner, true
	default:
		return LevelNone, false
	}
}

// AtLeast reports whether l meets or exceeds the required level, after
// collapsing owner to admin for capability checks. Root-folder
// destruction is the one capability that must check for LevelOwner
// directly rather than through AtLeast.
func (l Level) AtLeast(required Level) bool {
	eff := l
	if eff == LevelOwner {
		eff = LevelAdmin
	}
	return eff >= required
}
