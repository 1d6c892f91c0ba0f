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

import (
	"context"
	"fmt"

	"github.com/foldervault/engine/pkg/errtypes"
	"github.com/foldervault/engine/pkg/pathid"
	"github.com/google/uuid"
)

// Grant is a single (user, node, level) row as read back from storage.
type Grant struct {
	NodeID int64
	Level  Level
}

// GrantStore is the read-only slice of the metadata store the resolver
// needs. pkg/store's Store satisfies it; tests and the tree materialiser
// can substitute a narrower fake.
type GrantStore interface {
	NodeExists(ctx context.Context, nodeID int64) (bool, error)
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
	NodePath(ctx context.Context, nodeID int64) (pathid.Path, error)
	// GrantsOnNodes returns the grants the user holds on any of the given
	// node ids (a subset of a path's segments, typically).
	GrantsOnNodes(ctx context.Context, userID uuid.UUID, nodeIDs []int64) ([]Grant, error)
	// HasDescendantGrant reports whether the user holds a grant on any
	// strict descendant of target.
	HasDescendantGrant(ctx context.Context, userID uuid.UUID, target pathid.Path) (bool, error)
	// SubtreePaths returns the path of root and of every node within its
	// subtree (root included), in no particular order.
	SubtreePaths(ctx context.Context, root pathid.Path) ([]pathid.Path, error)
}

// Resolver answers effective-permission queries (spec §3, §4.2) against a
// GrantStore.
type Resolver struct {
	store GrantStore
}

// New builds a Resolver over the given store.
func New(store GrantStore) *Resolver {
	return &Resolver{store: store}
}

// Effective returns the user's effective level on node, combining
// ancestor inheritance with descendant-derived visibility.
func (r *Resolver) Effective(ctx context.Context, userID uuid.UUID, nodeID int64) (Level, error) {
	exists, err := r.store.UserExists(ctx, userID)
	if err != nil {
		return LevelNone, errtypes.Unexpected{Cause: err}
	}
	if !exists {
		return LevelNone, errtypes.UserNotFound(userID.String())
	}

	target, err := r.store.NodePath(ctx, nodeID)
	if err != nil {
		return LevelNone, errtypes.ObjectNotFound(fmt.Sprintf("%d", nodeID))
	}

	return r.effectiveForPath(ctx, userID, target)
}

// effectiveForPath implements spec §3's two-rule resolution once the
// target's path is known, avoiding a redundant NodePath lookup for
// callers (the tree materialiser and MinEffective) that already have it.
func (r *Resolver) effectiveForPath(ctx context.Context, userID uuid.UUID, target pathid.Path) (Level, error) {
	grants, err := r.store.GrantsOnNodes(ctx, userID, target)
	if err != nil {
		return LevelNone, errtypes.Unexpected{Cause: err}
	}

	// Index grants by the depth (1-based position in target's path) of
	// the node they were issued on, so the deepest one wins even if a
	// shallower ancestor grant is higher (spec §4.2 tie-break).
	depthOf := make(map[int64]int, len(target))
	for i, id := range target {
		depthOf[id] = i + 1
	}

	bestDepth := -1
	best := LevelNone
	for _, g := range grants {
		d, ok := depthOf[g.NodeID]
		if !ok {
			continue
		}
		if d > bestDepth {
			bestDepth = d
			best = g.Level
		}
	}
	if bestDepth >= 0 {
		return best, nil
	}

	visible, err := r.store.HasDescendantGrant(ctx, userID, target)
	if err != nil {
		return LevelNone, errtypes.Unexpected{Cause: err}
	}
	if visible {
		return LevelRead, nil
	}
	return LevelNone, nil
}

// MinEffective returns the lowest effective level the user holds over the
// union of the given nodes and all of their descendants. If any element
// of that union carries no permission, it returns (LevelNone, false) to
// distinguish "no access anywhere" from "no access to a specific node"
// for bulk preconditions (move-many/copy's descendant checks).
func (r *Resolver) MinEffective(ctx context.Context, userID uuid.UUID, nodeIDs []int64) (Level, bool, error) {
	seen := map[string]bool{}
	var paths []pathid.Path

	for _, id := range nodeIDs {
		root, err := r.store.NodePath(ctx, id)
		if err != nil {
			return LevelNone, false, errtypes.ObjectNotFound(fmt.Sprintf("%d", id))
		}
		subtree, err := r.store.SubtreePaths(ctx, root)
		if err != nil {
			return LevelNone, false, errtypes.Unexpected{Cause: err}
		}
		for _, p := range subtree {
			key := p.String()
			if seen[key] {
				continue
			}
			seen[key] = true
			paths = append(paths, p)
		}
	}

	if len(paths) == 0 {
		return LevelNone, false, nil
	}

	min := LevelOwner + 1
	for _, p := range paths {
		lvl, err := r.effectiveForPath(ctx, userID, p)
		if err != nil {
			return LevelNone, false, err
		}
		if lvl == LevelNone {
			return LevelNone, false, nil
		}
		if lvl < min {
			min = lvl
		}
	}
	return min, true, nil
}
