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

package perm

import "fmt"

// EffectiveSelectFragment is a parameterised SQL expression computing the
// effective permission for a single user over the row's node, suitable
// for embedding in a listing query's SELECT list so that a folder listing
// and the permissions of its members are computed in one round-trip
// (spec §4.2, design note "Permission-inheritance subquery" in §9:
// recomputing per-node in application code would turn listing into O(N)
// round-trips).
//
// userArgIndex is the 1-based positional parameter index of the user id
// argument the caller will bind (e.g. 1 for "$1"); the fragment uses no
// other placeholders. The caller is responsible for supplying nodes.path
// as the correlated column named in the outer query.
type EffectiveSelectFragment struct {
	SQL string
	// UserIDArgIndex is the placeholder position the caller bound the
	// user id to, echoed back for readability at call sites.
	UserIDArgIndex int
}

// EffectiveSelect builds the fragment described above. userArgIndex must
// match the position at which the caller binds the target user's id in
// the surrounding query's argument list.
func EffectiveSelect(userArgIndex int) EffectiveSelectFragment {
	sql := fmt.Sprintf(`(
		SELECT COALESCE(
			(
				SELECT g.level
				FROM grants g
				JOIN nodes anc ON anc.id = g.node_id
				WHERE g.user_id = $%[1]d
				  AND (nodes.path = anc.path OR nodes.path LIKE anc.path || '.%%')
				ORDER BY length(anc.path) DESC
				LIMIT 1
			),
			(
				SELECT %[2]d -- perm.LevelRead: descendant-derived visibility, never higher
				FROM grants g2
				JOIN nodes desc2 ON desc2.id = g2.node_id
				WHERE g2.user_id = $%[1]d
				  AND desc2.path LIKE nodes.path || '.%%'
				LIMIT 1
			),
			%[3]d -- perm.LevelNone
		)
	)`, userArgIndex, LevelRead, LevelNone)
	return EffectiveSelectFragment{SQL: sql, UserIDArgIndex: userArgIndex}
}
