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

// Package store implements the transactional metadata store: CRUD of
// tree nodes, roots and permission grants, and the invariant checks and
// subtree algorithms described in spec §4.3.
package store

import (
	"time"

	"github.com/foldervault/engine/pkg/pathid"
	"github.com/foldervault/engine/pkg/perm"
	"github.com/google/uuid"
)

// Kind distinguishes a folder node from a file node.
type Kind int8

const (
	KindFolder Kind = iota
	KindFile
)

func (k Kind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "file"
}

// RootKind identifies which of the three root namespaces a Root belongs
// to (spec §3, design note on personal-temporary semantics in §9).
type RootKind int8

const (
	RootPersonal RootKind = iota
	RootPersonalTemporary
	RootOrganisational
)

func (k RootKind) String() string {
	switch k {
	case RootPersonal:
		return "personal"
	case RootPersonalTemporary:
		return "personal-temporary"
	case RootOrganisational:
		return "organisational"
	default:
		return "unknown"
	}
}

// Node is a single file or folder entity with a materialised path
// (spec §3).
type Node struct {
	ID        int64
	Name      string
	Kind      Kind
	Path      pathid.Path
	ParentID  int64 // 0 for a root node
	CreatedAt time.Time
	ExpiresAt *time.Time
	SizeBytes *int64
	MimeType  *string
	Metadata  map[string]interface{}
}

// IsRoot reports whether this node is itself a registered root.
func (n Node) IsRoot() bool { return n.Path.IsRoot() }

// Root is the anchor node of a namespace (spec §3).
type Root struct {
	ID              int64
	RootNodeID      int64
	Kind            RootKind
	OwnerUserID     *uuid.UUID // nil for organisational roots
	MaxStorageBytes int64
}

// FileMeta carries the metadata fields of a file node that are known
// before the blob body is uploaded.
type FileMeta struct {
	SizeBytes int64
	MimeType  string
	ExpiresAt *time.Time
	Metadata  map[string]interface{}
}

// GrantRow is a single (user, node, level) row, as persisted.
type GrantRow struct {
	UserID uuid.UUID
	NodeID int64
	Level  perm.Level
}

// AggregatedGrant is the highest level a user holds anywhere from a node
// up to its root, as returned by ListGrants (spec §4.3).
type AggregatedGrant struct {
	UserID uuid.UUID
	Level  perm.Level
	// GrantedOnNodeID is the node the winning grant was actually issued
	// on: the user's highest-level grant along this path, the deepest one
	// on a level tie.
	GrantedOnNodeID int64
}

// CopyMapping records one (old_path, new_path, kind) pair produced by a
// CopySubtree call, for the object-store coordinator to replicate blob
// bodies (spec §4.3 "Copy subtree").
type CopyMapping struct {
	OldPath pathid.Path
	NewPath pathid.Path
	Kind    Kind
	OldID   int64
	NewID   int64
}

// DeletedSubtree records what a DeleteSubtree call removed, so the object
// store coordinator can best-effort delete the corresponding blob keys
// (spec §4.4 "delete-with-blobs").
type DeletedSubtree struct {
	Paths []pathid.Path
	Kinds []Kind
}
