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
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/foldervault/engine/pkg/errtypes"
	"github.com/foldervault/engine/pkg/log"
	"github.com/foldervault/engine/pkg/pathid"
	"github.com/foldervault/engine/pkg/perm"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var logger = log.New("store")

// PostgresStore implements Store against the schema in the persistence
// encoding section of the expanded specification: nodes/roots/grants
// tables, a text-pattern-indexed path column standing in for ltree, and no
// separate users table — a user "exists" if it owns a root or holds a
// grant, which is all the engine itself ever needs to know about
// identity (authentication is an external collaborator's concern).
type PostgresStore struct {
	pool execer
}

// execer is the pgx surface both *pgxpool.Pool and pgx.Tx satisfy, so the
// query methods below work unchanged whether called directly or through
// WithTx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// NewPostgresStore wraps an already-connected pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: poolAdapter{pool}}
}

// poolAdapter narrows *pgxpool.Pool to execer.
type poolAdapter struct{ pool *pgxpool.Pool }

func (p poolAdapter) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}
func (p poolAdapter) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}
func (p poolAdapter) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

type txAdapter struct{ tx pgx.Tx }

func (t txAdapter) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return t.tx.Exec(ctx, sql, args...)
}
func (t txAdapter) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}
func (t txAdapter) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

// WithTx opens one Postgres transaction and runs fn with a PostgresStore
// bound to it; fn's error rolls the transaction back (spec §4.1, §5).
func (s *PostgresStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	pool, ok := s.pool.(poolAdapter)
	if !ok {
		return fn(ctx, s) // already inside a transaction; reuse it
	}
	tx, err := pool.pool.Begin(ctx)
	if err != nil {
		return errtypes.Unexpected{Cause: err}
	}
	txStore := &PostgresStore{pool: txAdapter{tx}}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()
	if err := fn(ctx, txStore); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			logger.Error(ctx, rbErr, "rollback failed")
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errtypes.Unexpected{Cause: err}
	}
	return nil
}

// --- perm.GrantStore ---

func (s *PostgresStore) NodeExists(ctx context.Context, nodeID int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM nodes WHERE id = $1)`, nodeID).Scan(&exists)
	return exists, wrapUnexpected(err)
}

func (s *PostgresStore) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM roots WHERE owner_user_id = $1)
		    OR EXISTS(SELECT 1 FROM grants WHERE user_id = $1)
	`, userID).Scan(&exists)
	return exists, wrapUnexpected(err)
}

func (s *PostgresStore) NodePath(ctx context.Context, nodeID int64) (pathid.Path, error) {
	var raw string
	err := s.pool.QueryRow(ctx, `SELECT path FROM nodes WHERE id = $1`, nodeID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errtypes.ObjectNotFound(fmt.Sprintf("%d", nodeID))
	}
	if err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}
	return pathid.Parse(raw)
}

func (s *PostgresStore) GrantsOnNodes(ctx context.Context, userID uuid.UUID, nodeIDs []int64) ([]perm.Grant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT node_id, level FROM grants WHERE user_id = $1 AND node_id = ANY($2)
	`, userID, nodeIDs)
	if err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}
	defer rows.Close()

	var out []perm.Grant
	for rows.Next() {
		var g perm.Grant
		var level int16
		if err := rows.Scan(&g.NodeID, &level); err != nil {
			return nil, errtypes.Unexpected{Cause: err}
		}
		g.Level = perm.Level(level)
		out = append(out, g)
	}
	return out, wrapUnexpected(rows.Err())
}

func (s *PostgresStore) HasDescendantGrant(ctx context.Context, userID uuid.UUID, target pathid.Path) (bool, error) {
	p := target.String()
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM grants g
			JOIN nodes n ON n.id = g.node_id
			WHERE g.user_id = $1 AND n.path LIKE $2 || '.%'
		)
	`, userID, p).Scan(&exists)
	return exists, wrapUnexpected(err)
}

func (s *PostgresStore) SubtreePaths(ctx context.Context, root pathid.Path) ([]pathid.Path, error) {
	p := root.String()
	rows, err := s.pool.Query(ctx, `
		SELECT path FROM nodes WHERE path = $1 OR path LIKE $1 || '.%'
	`, p)
	if err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}
	defer rows.Close()

	var out []pathid.Path
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, errtypes.Unexpected{Cause: err}
		}
		parsed, err := pathid.Parse(raw)
		if err != nil {
			return nil, errtypes.Unexpected{Cause: err}
		}
		out = append(out, parsed)
	}
	return out, wrapUnexpected(rows.Err())
}

// --- roots ---

func (s *PostgresStore) CreateRoot(ctx context.Context, ownerUser *uuid.UUID, kind RootKind, maxStorageBytes int64) (*Root, error) {
	if _, ok := s.pool.(poolAdapter); ok {
		// Called outside a transaction: run the whole bootstrap in one.
		var root *Root
		err := s.WithTx(ctx, func(ctx context.Context, tx Store) error {
			var err error
			root, err = tx.CreateRoot(ctx, ownerUser, kind, maxStorageBytes)
			return err
		})
		return root, err
	}
	if kind == RootOrganisational && ownerUser != nil {
		return nil, errtypes.Unexpected{Cause: fmt.Errorf("organisational roots have no owner user")}
	}
	if kind != RootOrganisational && ownerUser == nil {
		return nil, errtypes.Unexpected{Cause: fmt.Errorf("personal and personal-temporary roots require an owner user")}
	}
	if ownerUser != nil {
		var existing int64
		err := s.pool.QueryRow(ctx, `
			SELECT root_node_id FROM roots WHERE owner_user_id = $1 AND kind = $2
		`, *ownerUser, kind).Scan(&existing)
		if err == nil {
			return nil, errtypes.Unexpected{Cause: fmt.Errorf("root of kind %s already exists for user at node %d", kind, existing)}
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, errtypes.Unexpected{Cause: err}
		}
	}

	var nodeID int64
	// Two-step placeholder insert (spec §4.1): the id is allocated first,
	// then the path built from it.
	err := s.pool.QueryRow(ctx, `
		INSERT INTO nodes (name, kind, path, parent_id, root_id)
		VALUES ($1, $2, '', NULL, 0)
		RETURNING id
	`, kind.String(), KindFolder).Scan(&nodeID)
	if err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}
	path := fmt.Sprintf("%d", nodeID)
	if _, err := s.pool.Exec(ctx, `UPDATE nodes SET path = $1, root_id = $2 WHERE id = $2`, path, nodeID); err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}

	var rootID int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO roots (root_node_id, kind, owner_user_id, max_storage_bytes)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, nodeID, kind, ownerUser, maxStorageBytes).Scan(&rootID)
	if err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}

	if ownerUser != nil {
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO grants (user_id, node_id, level) VALUES ($1, $2, $3)
		`, *ownerUser, nodeID, int16(perm.LevelOwner)); err != nil {
			return nil, errtypes.Unexpected{Cause: err}
		}
	}

	return &Root{ID: rootID, RootNodeID: nodeID, Kind: kind, OwnerUserID: ownerUser, MaxStorageBytes: maxStorageBytes}, nil
}

func (s *PostgresStore) RootForUser(ctx context.Context, userID uuid.UUID, kind RootKind) (*Root, error) {
	var r Root
	r.OwnerUserID = &userID
	r.Kind = kind
	err := s.pool.QueryRow(ctx, `
		SELECT id, root_node_id, max_storage_bytes FROM roots WHERE owner_user_id = $1 AND kind = $2
	`, userID, kind).Scan(&r.ID, &r.RootNodeID, &r.MaxStorageBytes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errtypes.RootNotFound(fmt.Sprintf("user %s kind %s", userID, kind))
	}
	if err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}
	return &r, nil
}

func (s *PostgresStore) ListOrganisationalRoots(ctx context.Context) ([]Root, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, root_node_id, max_storage_bytes FROM roots WHERE kind = $1 ORDER BY id
	`, RootOrganisational)
	if err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}
	defer rows.Close()

	var out []Root
	for rows.Next() {
		r := Root{Kind: RootOrganisational}
		if err := rows.Scan(&r.ID, &r.RootNodeID, &r.MaxStorageBytes); err != nil {
			return nil, errtypes.Unexpected{Cause: err}
		}
		out = append(out, r)
	}
	return out, wrapUnexpected(rows.Err())
}

func (s *PostgresStore) RootByNodeID(ctx context.Context, rootNodeID int64) (*Root, error) {
	var r Root
	var ownerUser uuid.NullUUID
	var kindOrdinal int16
	err := s.pool.QueryRow(ctx, `
		SELECT id, kind, owner_user_id, max_storage_bytes FROM roots WHERE root_node_id = $1
	`, rootNodeID).Scan(&r.ID, &kindOrdinal, &ownerUser, &r.MaxStorageBytes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errtypes.RootNotFound(fmt.Sprintf("%d", rootNodeID))
	}
	if err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}
	r.RootNodeID = rootNodeID
	r.Kind = RootKind(kindOrdinal)
	if ownerUser.Valid {
		r.OwnerUserID = &ownerUser.UUID
	}
	return &r, nil
}

// --- nodes ---

func scanNode(row pgx.Row) (*Node, error) {
	var n Node
	var rawPath string
	var expiresAt *time.Time
	var sizeBytes *int64
	var mimeType *string
	err := row.Scan(&n.ID, &n.Name, &n.Kind, &rawPath, &n.ParentID, &n.CreatedAt, &expiresAt, &sizeBytes, &mimeType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errtypes.ObjectNotFound("")
	}
	if err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}
	p, err := pathid.Parse(rawPath)
	if err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}
	n.Path = p
	n.SizeBytes = sizeBytes
	n.MimeType = mimeType
	n.ExpiresAt = expiresAt
	return &n, nil
}

func (s *PostgresStore) GetNode(ctx context.Context, id int64) (*Node, error) {
	n, err := scanNode(s.pool.QueryRow(ctx, `
		SELECT id, name, kind, path, COALESCE(parent_id, 0), created_at, expires_at, size_bytes, mime_type
		FROM nodes WHERE id = $1
	`, id))
	if err != nil {
		if ofe, ok := err.(errtypes.ObjectNotFound); ok && ofe == "" {
			return nil, errtypes.ObjectNotFound(fmt.Sprintf("%d", id))
		}
		return nil, err
	}
	return n, nil
}

func (s *PostgresStore) CreateFolder(ctx context.Context, parentID int64, name string) (*Node, error) {
	return s.createNode(ctx, parentID, name, KindFolder, FileMeta{})
}

func (s *PostgresStore) CreateFile(ctx context.Context, parentID int64, name string, meta FileMeta) (*Node, error) {
	return s.createNode(ctx, parentID, name, KindFile, meta)
}

func (s *PostgresStore) createNode(ctx context.Context, parentID int64, name string, kind Kind, meta FileMeta) (*Node, error) {
	parent, err := s.GetNode(ctx, parentID)
	if err != nil {
		return nil, errtypes.ParentNotFound(fmt.Sprintf("%d", parentID))
	}
	if parent.Kind != KindFolder {
		return nil, errtypes.InvalidObjectType(fmt.Sprintf("parent %d is not a folder", parentID))
	}

	var nodeID int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO nodes (name, kind, path, parent_id, root_id, size_bytes, mime_type, expires_at, metadata)
		VALUES ($1, $2, '', $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, name, kind, parentID, parent.Path.RootID(), nullableSize(kind, meta), nullableMime(kind, meta), meta.ExpiresAt, meta.Metadata).Scan(&nodeID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errtypes.NameAlreadyExists{ConflictingName: name}
		}
		return nil, errtypes.Unexpected{Cause: err}
	}

	newPath := pathid.Child(parent.Path, nodeID)
	if _, err := s.pool.Exec(ctx, `UPDATE nodes SET path = $1 WHERE id = $2`, newPath.String(), nodeID); err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}

	return s.GetNode(ctx, nodeID)
}

func nullableSize(kind Kind, meta FileMeta) *int64 {
	if kind != KindFile {
		return nil
	}
	v := meta.SizeBytes
	return &v
}

func nullableMime(kind Kind, meta FileMeta) *string {
	if kind != KindFile {
		return nil
	}
	v := meta.MimeType
	return &v
}

// ListChildren fetches the folder's direct children, then resolves each
// row's effective permission through a perm.Resolver built over this same
// store — one round trip per row, same as the tree materialiser's
// visibility filtering, rather than inlining the resolution algorithm a
// second time as a SQL expression.
func (s *PostgresStore) ListChildren(ctx context.Context, folderID int64, userID uuid.UUID) ([]ChildRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, kind, path, COALESCE(parent_id, 0), created_at, expires_at, size_bytes, mime_type
		FROM nodes WHERE parent_id = $1
	`, folderID)
	if err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}

	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		nodes = append(nodes, *n)
	}
	if err := wrapUnexpected(rows.Err()); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	resolver := perm.New(s)
	var out []ChildRow
	for _, n := range nodes {
		level, err := resolver.Effective(ctx, userID, n.ID)
		var unknownUser errtypes.UserNotFound
		if errors.As(err, &unknownUser) {
			return out, nil // a user with no root and no grant sees nothing
		}
		if err != nil {
			return nil, err
		}
		if level == perm.LevelNone {
			continue
		}
		out = append(out, ChildRow{Node: n, Permission: level})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Node, out[j].Node
		if a.Kind != b.Kind {
			return a.Kind == KindFolder
		}
		return a.Name < b.Name
	})
	return out, nil
}

func (s *PostgresStore) Rename(ctx context.Context, id int64, newName string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE nodes SET name = $1 WHERE id = $2`, newName, id)
	if err != nil {
		if isUniqueViolation(err) {
			return errtypes.NameAlreadyExists{ConflictingName: newName}
		}
		return errtypes.Unexpected{Cause: err}
	}
	if rowsAffected(tag) == 0 {
		return errtypes.ObjectNotFound(fmt.Sprintf("%d", id))
	}
	return nil
}

func (s *PostgresStore) FindNameConflicts(ctx context.Context, targetFolderID int64, candidateNames []string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name FROM nodes WHERE parent_id = $1 AND name = ANY($2)
	`, targetFolderID, candidateNames)
	if err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errtypes.Unexpected{Cause: err}
		}
		out = append(out, name)
	}
	return out, wrapUnexpected(rows.Err())
}

func (s *PostgresStore) DeleteNodesByIDs(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		node, err := s.GetNode(ctx, id)
		if err != nil {
			continue
		}
		p := node.Path.String()
		if _, err := s.pool.Exec(ctx, `DELETE FROM nodes WHERE path = $1 OR path LIKE $1 || '.%'`, p); err != nil {
			return errtypes.Unexpected{Cause: err}
		}
	}
	return nil
}

// MoveSubtree rewrites X's path and every descendant's path with a single
// UPDATE, per spec §4.3's "Move subtree" algorithm: the new path is the
// new prefix concatenated with whatever followed the old prefix, which
// for X itself is the empty suffix.
func (s *PostgresStore) MoveSubtree(ctx context.Context, id, newParentID int64, override bool) (int, error) {
	node, err := s.GetNode(ctx, id)
	if err != nil {
		return 0, errtypes.ObjectNotFound(fmt.Sprintf("%d", id))
	}
	if node.IsRoot() {
		return 0, errtypes.CannotMoveRoot{NodeID: id}
	}
	newParent, err := s.GetNode(ctx, newParentID)
	if err != nil {
		return 0, errtypes.ParentNotFound(fmt.Sprintf("%d", newParentID))
	}
	if newParent.Kind != KindFolder {
		return 0, errtypes.InvalidObjectType(fmt.Sprintf("%d is not a folder", newParentID))
	}
	if newParentID == node.ParentID {
		return 0, errtypes.SameFolder{NodeID: id}
	}
	if node.Path.RootID() != newParent.Path.RootID() {
		return 0, errtypes.CrossRoot{SourceRootID: node.Path.RootID(), TargetRootID: newParent.Path.RootID()}
	}
	if pathid.IsDescendantOf(newParent.Path, node.Path) {
		return 0, errtypes.InvalidObjectType(fmt.Sprintf("cannot move node %d into its own subtree", id))
	}

	conflicts, err := s.FindNameConflicts(ctx, newParentID, []string{node.Name})
	if err != nil {
		return 0, err
	}
	if len(conflicts) > 0 {
		if !override {
			return 0, errtypes.NameAlreadyExists{ConflictingName: node.Name}
		}
		if err := s.deleteChildByName(ctx, newParentID, node.Name); err != nil {
			return 0, err
		}
	}

	oldPath := node.Path.String()
	newPath := pathid.Child(newParent.Path, id).String()

	tag, err := s.pool.Exec(ctx, `
		UPDATE nodes
		SET path = $1 || substring(path from length($2) + 1),
		    root_id = $3,
		    parent_id = CASE WHEN id = $4 THEN $5 ELSE parent_id END
		WHERE path = $2 OR path LIKE $2 || '.%'
	`, newPath, oldPath, newParent.Path.RootID(), id, newParentID)
	if err != nil {
		return 0, errtypes.Unexpected{Cause: err}
	}
	return int(rowsAffected(tag)), nil
}

func (s *PostgresStore) deleteChildByName(ctx context.Context, parentID int64, name string) error {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM nodes WHERE parent_id = $1 AND name = $2`, parentID, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return errtypes.Unexpected{Cause: err}
	}
	return s.DeleteNodesByIDs(ctx, []int64{id})
}

// CopySubtree clones each source subtree ancestor-first (spec §4.3 "Copy
// subtree"), tracking old->new id/path so each descendant resolves its
// new parent from a node already cloned earlier in the same loop.
func (s *PostgresStore) CopySubtree(ctx context.Context, srcIDs []int64, targetFolderID int64, override bool) ([]CopyMapping, error) {
	target, err := s.GetNode(ctx, targetFolderID)
	if err != nil {
		return nil, errtypes.ParentNotFound(fmt.Sprintf("%d", targetFolderID))
	}
	if target.Kind != KindFolder {
		return nil, errtypes.InvalidObjectType(fmt.Sprintf("%d is not a folder", targetFolderID))
	}

	var srcNodes []*Node
	var names []string
	for _, id := range srcIDs {
		n, err := s.GetNode(ctx, id)
		if err != nil {
			return nil, errtypes.ObjectNotFound(fmt.Sprintf("%d", id))
		}
		if n.IsRoot() {
			return nil, errtypes.CannotCopyRoot{NodeID: id}
		}
		if n.Path.RootID() != target.Path.RootID() {
			return nil, errtypes.CrossRoot{SourceRootID: n.Path.RootID(), TargetRootID: target.Path.RootID()}
		}
		srcNodes = append(srcNodes, n)
		names = append(names, n.Name)
	}

	conflicts, err := s.FindNameConflicts(ctx, targetFolderID, names)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		if !override {
			return nil, errtypes.NameAlreadyExists{ConflictingName: conflicts[0]}
		}
		for _, name := range conflicts {
			if err := s.deleteChildByName(ctx, targetFolderID, name); err != nil {
				return nil, err
			}
		}
	}

	idMap := map[int64]int64{}
	pathMap := map[int64]pathid.Path{}
	var result []CopyMapping

	for _, src := range srcNodes {
		rows, err := s.pool.Query(ctx, `
			SELECT id, name, kind, path, COALESCE(parent_id,0), created_at, expires_at, size_bytes, mime_type
			FROM nodes WHERE path = $1 OR path LIKE $1 || '.%'
			ORDER BY length(path) - length(replace(path, '.', '')) ASC
		`, src.Path.String())
		if err != nil {
			return nil, errtypes.Unexpected{Cause: err}
		}
		var subtree []*Node
		for rows.Next() {
			n, err := scanNode(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			subtree = append(subtree, n)
		}
		rows.Close()

		for _, n := range subtree {
			var newParentPath pathid.Path
			var newParentID int64
			if n.ID == src.ID {
				newParentPath = target.Path
				newParentID = targetFolderID
			} else {
				newParentPath = pathMap[n.ParentID]
				newParentID = idMap[n.ParentID]
			}

			var newID int64
			err := s.pool.QueryRow(ctx, `
				INSERT INTO nodes (name, kind, path, parent_id, root_id, size_bytes, mime_type, expires_at, metadata)
				VALUES ($1, $2, '', $3, $4, $5, $6, $7, $8)
				RETURNING id
			`, n.Name, n.Kind, newParentID, newParentPath.RootID(), n.SizeBytes, n.MimeType, n.ExpiresAt, nil).Scan(&newID)
			if err != nil {
				return nil, errtypes.Unexpected{Cause: err}
			}
			newPath := pathid.Child(newParentPath, newID)
			if _, err := s.pool.Exec(ctx, `UPDATE nodes SET path = $1 WHERE id = $2`, newPath.String(), newID); err != nil {
				return nil, errtypes.Unexpected{Cause: err}
			}

			idMap[n.ID] = newID
			pathMap[n.ID] = newPath
			result = append(result, CopyMapping{OldPath: n.Path, NewPath: newPath, Kind: n.Kind, OldID: n.ID, NewID: newID})
		}
	}
	return result, nil
}

func (s *PostgresStore) DeleteSubtree(ctx context.Context, id int64) (DeletedSubtree, error) {
	node, err := s.GetNode(ctx, id)
	if err != nil {
		return DeletedSubtree{}, errtypes.ObjectNotFound(fmt.Sprintf("%d", id))
	}

	rows, err := s.pool.Query(ctx, `
		SELECT path, kind FROM nodes WHERE path = $1 OR path LIKE $1 || '.%'
	`, node.Path.String())
	if err != nil {
		return DeletedSubtree{}, errtypes.Unexpected{Cause: err}
	}
	var out DeletedSubtree
	for rows.Next() {
		var raw string
		var kind Kind
		if err := rows.Scan(&raw, &kind); err != nil {
			rows.Close()
			return DeletedSubtree{}, errtypes.Unexpected{Cause: err}
		}
		p, err := pathid.Parse(raw)
		if err != nil {
			rows.Close()
			return DeletedSubtree{}, errtypes.Unexpected{Cause: err}
		}
		out.Paths = append(out.Paths, p)
		out.Kinds = append(out.Kinds, kind)
	}
	rows.Close()

	if _, err := s.pool.Exec(ctx, `DELETE FROM nodes WHERE path = $1 OR path LIKE $1 || '.%'`, node.Path.String()); err != nil {
		return DeletedSubtree{}, errtypes.Unexpected{Cause: err}
	}
	if node.IsRoot() {
		if _, err := s.pool.Exec(ctx, `DELETE FROM roots WHERE root_node_id = $1`, id); err != nil {
			return DeletedSubtree{}, errtypes.Unexpected{Cause: err}
		}
	}
	return out, nil
}

// --- grants ---

func (s *PostgresStore) Grant(ctx context.Context, targetUser uuid.UUID, nodeID int64, level perm.Level) error {
	if level == perm.LevelOwner {
		return errtypes.Unexpected{Cause: fmt.Errorf("owner level cannot be granted by share")}
	}
	exists, err := s.NodeExists(ctx, nodeID)
	if err != nil {
		return err
	}
	if !exists {
		return errtypes.ObjectNotFound(fmt.Sprintf("%d", nodeID))
	}

	resolver := perm.New(s)
	current, err := resolver.Effective(ctx, targetUser, nodeID)
	if err != nil {
		var notFound errtypes.UserNotFound
		if !errors.As(err, &notFound) {
			return err
		}
	}
	if current != perm.LevelNone && current.AtLeast(level) {
		return nil
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO grants (user_id, node_id, level) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, node_id) DO UPDATE SET level = EXCLUDED.level
	`, targetUser, nodeID, int16(level))
	return wrapUnexpected(err)
}

func (s *PostgresStore) Revoke(ctx context.Context, targetUser uuid.UUID, nodeID int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM grants WHERE user_id = $1 AND node_id = $2`, targetUser, nodeID)
	return wrapUnexpected(err)
}

func (s *PostgresStore) ListGrants(ctx context.Context, nodeID int64) ([]AggregatedGrant, error) {
	node, err := s.GetNode(ctx, nodeID)
	if err != nil {
		return nil, errtypes.ObjectNotFound(fmt.Sprintf("%d", nodeID))
	}

	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (g.user_id) g.user_id, g.level, g.node_id
		FROM grants g
		JOIN nodes n ON n.id = g.node_id
		WHERE n.path = ANY($1)
		ORDER BY g.user_id, g.level DESC, length(n.path) DESC
	`, ancestorPaths(node.Path))
	if err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}
	defer rows.Close()

	var out []AggregatedGrant
	for rows.Next() {
		var g AggregatedGrant
		var level int16
		if err := rows.Scan(&g.UserID, &level, &g.GrantedOnNodeID); err != nil {
			return nil, errtypes.Unexpected{Cause: err}
		}
		g.Level = perm.Level(level)
		out = append(out, g)
	}
	return out, wrapUnexpected(rows.Err())
}

func ancestorPaths(p pathid.Path) []string {
	out := make([]string, len(p))
	for i := range p {
		out[i] = pathid.Path(p[:i+1]).String()
	}
	return out
}

func (s *PostgresStore) GrantsDirectByUser(ctx context.Context, userID uuid.UUID) ([]GrantRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT node_id, level FROM grants WHERE user_id = $1 ORDER BY node_id
	`, userID)
	if err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}
	defer rows.Close()
	var out []GrantRow
	for rows.Next() {
		var row GrantRow
		var level int16
		row.UserID = userID
		if err := rows.Scan(&row.NodeID, &level); err != nil {
			return nil, errtypes.Unexpected{Cause: err}
		}
		row.Level = perm.Level(level)
		out = append(out, row)
	}
	return out, wrapUnexpected(rows.Err())
}

func (s *PostgresStore) SubtreeNodes(ctx context.Context, root pathid.Path, maxDepth int) ([]Node, error) {
	p := root.String()
	query := `SELECT id, name, kind, path, COALESCE(parent_id,0), created_at, expires_at, size_bytes, mime_type
		FROM nodes WHERE path = $1 OR path LIKE $1 || '.%'`
	args := []interface{}{p}
	if maxDepth >= 0 {
		query += ` AND (length(path) - length(replace(path, '.', ''))) - (length($1) - length(replace($1, '.', ''))) <= $2`
		args = append(args, maxDepth)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}
	defer rows.Close()
	var out []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, wrapUnexpected(rows.Err())
}

func wrapUnexpected(err error) error {
	if err == nil {
		return nil
	}
	return errtypes.Unexpected{Cause: err}
}

// isUniqueViolation matches Postgres error code 23505, raised by
// idx_nodes_parent_name when a sibling name collides.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func rowsAffected(tag pgconn.CommandTag) int64 {
	return tag.RowsAffected()
}
