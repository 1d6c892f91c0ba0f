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

package store

import (
	"context"

	"github.com/foldervault/engine/pkg/pathid"
	"github.com/foldervault/engine/pkg/perm"
	"github.com/google/uuid"
)

// Store is the engine's metadata boundary: transactional CRUD over
// nodes, roots and grants, enforcing the same-root/name-conflict/
// root-immutability invariants from spec §4.3. It embeds perm.GrantStore
// so a *perm.Resolver can be built directly over any Store implementation
// (PostgresStore for production, InMemoryStore for tests — design note
// "Ambient database clients -> explicit engine handle" in spec §9: the
// engine is a value owning its store/blob handles, never package-level
// state).
type Store interface {
	perm.GrantStore

	// CreateRoot bootstraps a new root namespace for a user (kind
	// personal/personal-temporary) or as shared infrastructure
	// (organisational, ownerUser nil). It performs the two-step
	// placeholder-then-update insert (spec §4.1) inside one transaction
	// and records the owner grant.
	CreateRoot(ctx context.Context, ownerUser *uuid.UUID, kind RootKind, maxStorageBytes int64) (*Root, error)

	// RootForUser returns the user's root of the given kind; if none
	// exists yet it returns RootNotFound and creates nothing. Callers
	// needing create-on-first-access call CreateRoot explicitly
	// (the engine does this to keep bootstrapping an explicit operation,
	// per spec §3 "created once per (user, kind) at first access").
	RootForUser(ctx context.Context, userID uuid.UUID, kind RootKind) (*Root, error)

	// ListOrganisationalRoots returns every organisational root.
	ListOrganisationalRoots(ctx context.Context) ([]Root, error)

	// RootByNodeID fetches a root by its root node id.
	RootByNodeID(ctx context.Context, rootNodeID int64) (*Root, error)

	// GetNode fetches a single node row.
	GetNode(ctx context.Context, id int64) (*Node, error)

	// CreateFolder inserts a new folder node under parentID. It returns
	// NameAlreadyExists if a sibling already carries name.
	CreateFolder(ctx context.Context, parentID int64, name string) (*Node, error)

	// CreateFile inserts a new file node's metadata under parentID. The
	// blob body is handled separately by pkg/blob; on any caller-side
	// rollback the node must be deleted by the same transaction that
	// inserted it (see engine.Engine.UploadFile, which calls it inside
	// WithTx).
	CreateFile(ctx context.Context, parentID int64, name string, meta FileMeta) (*Node, error)

	// ListChildren returns a folder's direct children ordered folders
	// first then files, name ascending (spec §4.3), each row annotated
	// with userID's effective permission. Rows whose permission is
	// LevelNone are left out, and a user unknown to the store gets an
	// empty list. The permission is resolved per row with a perm.Resolver
	// (one resolver walk per child); perm.EffectiveSelect is not used.
	ListChildren(ctx context.Context, folderID int64, userID uuid.UUID) ([]ChildRow, error)

	// Rename changes a node's name, failing with NameAlreadyExists on a
	// sibling collision.
	Rename(ctx context.Context, id int64, newName string) error

	// FindNameConflicts returns the subset of candidateNames that collide
	// with an existing direct child of targetFolderID (spec §4.3
	// "Name-conflict detection").
	FindNameConflicts(ctx context.Context, targetFolderID int64, candidateNames []string) ([]string, error)

	// DeleteNodesByIDs removes the named nodes and their descendants; used
	// to clear conflicting subtrees ahead of an override copy/move.
	DeleteNodesByIDs(ctx context.Context, ids []int64) error

	// MoveSubtree rewrites X's path and every descendant's path in place
	// (spec §4.3 "Move subtree"), returning the count of rewritten rows
	// (X plus its descendants). It enforces the same-root invariant,
	// cannot-move-root, same-folder and name-conflict checks.
	MoveSubtree(ctx context.Context, id, newParentID int64, override bool) (movedCount int, err error)

	// CopySubtree clones the subtree(s) rooted at each of srcIDs under
	// targetFolderID (spec §4.3 "Copy subtree"), returning the mapping
	// the blob coordinator needs to replicate bodies.
	CopySubtree(ctx context.Context, srcIDs []int64, targetFolderID int64, override bool) ([]CopyMapping, error)

	// DeleteSubtree removes id and every descendant, returning their
	// paths and kinds for blob cleanup.
	DeleteSubtree(ctx context.Context, id int64) (DeletedSubtree, error)

	// Grant upserts a (user, node, level) row. It is a no-op (spec
	// §4.3) if targetUser already holds >= level via ancestor
	// inheritance.
	Grant(ctx context.Context, targetUser uuid.UUID, nodeID int64, level perm.Level) error

	// Revoke deletes a (user, node) grant row if present.
	Revoke(ctx context.Context, targetUser uuid.UUID, nodeID int64) error

	// ListGrants aggregates the highest-per-user grants from nodeID up to
	// its root.
	ListGrants(ctx context.Context, nodeID int64) ([]AggregatedGrant, error)

	// GrantsDirectByUser lists every direct grant userID holds, under any
	// root; the shared-view aggregation in pkg/tree filters these by the
	// owning root (spec §9 "shared-view identity").
	GrantsDirectByUser(ctx context.Context, userID uuid.UUID) ([]GrantRow, error)

	// SubtreeNodes returns every Node whose path lies within root's
	// subtree (root included), for the tree materialiser.
	SubtreeNodes(ctx context.Context, root pathid.Path, maxDepth int) ([]Node, error)

	// WithTx runs fn with a Store bound to a single transaction; fn's
	// error (or a panic) rolls the transaction back. Implementations that
	// are not inherently transactional (InMemoryStore) may implement this
	// as a best-effort snapshot/rollback instead of a true DB transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// ChildRow is one row of a ListChildren result: the node plus the
// querying user's effective permission on it.
type ChildRow struct {
	Node       Node
	Permission perm.Level
}
