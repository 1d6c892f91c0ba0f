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

package store_test

import (
	"context"
	"testing"

	"github.com/foldervault/engine/pkg/errtypes"
	"github.com/foldervault/engine/pkg/perm"
	"github.com/foldervault/engine/pkg/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPersonalRoot(t *testing.T, s *store.InMemoryStore, owner uuid.UUID) *store.Root {
	t.Helper()
	r, err := s.CreateRoot(context.Background(), &owner, store.RootPersonal, 100*1024*1024)
	require.NoError(t, err)
	return r
}

func TestCreateFolderNameConflict(t *testing.T) {
	s := store.NewInMemoryStore()
	owner := uuid.New()
	root := newPersonalRoot(t, s, owner)

	_, err := s.CreateFolder(context.Background(), root.RootNodeID, "docs")
	require.NoError(t, err)

	_, err = s.CreateFolder(context.Background(), root.RootNodeID, "docs")
	require.Error(t, err)
	var conflict errtypes.NameAlreadyExists
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, "docs", conflict.ConflictingName)
}

func TestCreateFolderParentMustBeFolder(t *testing.T) {
	s := store.NewInMemoryStore()
	owner := uuid.New()
	root := newPersonalRoot(t, s, owner)
	file, err := s.CreateFile(context.Background(), root.RootNodeID, "a.txt", store.FileMeta{SizeBytes: 10, MimeType: "text/plain"})
	require.NoError(t, err)

	_, err = s.CreateFolder(context.Background(), file.ID, "nested")
	require.Error(t, err)
	var bad errtypes.InvalidObjectType
	assert.ErrorAs(t, err, &bad)
}

func TestMoveSubtreeRewritesDescendantPaths(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	owner := uuid.New()
	root := newPersonalRoot(t, s, owner)

	a, err := s.CreateFolder(ctx, root.RootNodeID, "a")
	require.NoError(t, err)
	b, err := s.CreateFolder(ctx, a.ID, "b")
	require.NoError(t, err)
	c, err := s.CreateFile(ctx, b.ID, "c.txt", store.FileMeta{SizeBytes: 1, MimeType: "text/plain"})
	require.NoError(t, err)
	dest, err := s.CreateFolder(ctx, root.RootNodeID, "dest")
	require.NoError(t, err)

	moved, err := s.MoveSubtree(ctx, b.ID, dest.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, moved) // b and c

	gotB, err := s.GetNode(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, dest.ID, gotB.ParentID)
	assert.Equal(t, append(append([]int64{}, dest.Path...), b.ID), []int64(gotB.Path))

	gotC, err := s.GetNode(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64(append(append([]int64{}, dest.Path...), b.ID, c.ID)), []int64(gotC.Path))
}

func TestMoveSubtreeRejectsCrossRoot(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	owner := uuid.New()
	rootA := newPersonalRoot(t, s, owner)
	rootB, err := s.CreateRoot(ctx, &owner, store.RootPersonalTemporary, 10*1024*1024)
	require.NoError(t, err)

	folder, err := s.CreateFolder(ctx, rootA.RootNodeID, "folder")
	require.NoError(t, err)

	_, err = s.MoveSubtree(ctx, folder.ID, rootB.RootNodeID, false)
	require.Error(t, err)
	var crossRoot errtypes.CrossRoot
	assert.ErrorAs(t, err, &crossRoot)
}

func TestMoveSubtreeRejectsRoot(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	owner := uuid.New()
	root := newPersonalRoot(t, s, owner)
	dest, err := s.CreateFolder(ctx, root.RootNodeID, "dest")
	require.NoError(t, err)

	_, err = s.MoveSubtree(ctx, root.RootNodeID, dest.ID, false)
	require.Error(t, err)
	var cannotMove errtypes.CannotMoveRoot
	assert.ErrorAs(t, err, &cannotMove)
}

func TestMoveSubtreeNameConflictAndOverride(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	owner := uuid.New()
	root := newPersonalRoot(t, s, owner)

	src, err := s.CreateFolder(ctx, root.RootNodeID, "src")
	require.NoError(t, err)
	dest, err := s.CreateFolder(ctx, root.RootNodeID, "dest")
	require.NoError(t, err)
	moving, err := s.CreateFolder(ctx, src.ID, "shared-name")
	require.NoError(t, err)
	_, err = s.CreateFolder(ctx, dest.ID, "shared-name")
	require.NoError(t, err)

	_, err = s.MoveSubtree(ctx, moving.ID, dest.ID, false)
	require.Error(t, err)
	var conflict errtypes.NameAlreadyExists
	assert.ErrorAs(t, err, &conflict)

	_, err = s.MoveSubtree(ctx, moving.ID, dest.ID, true)
	require.NoError(t, err)
}

func TestCopySubtreeClonesDescendants(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	owner := uuid.New()
	root := newPersonalRoot(t, s, owner)

	a, err := s.CreateFolder(ctx, root.RootNodeID, "a")
	require.NoError(t, err)
	_, err = s.CreateFile(ctx, a.ID, "doc.txt", store.FileMeta{SizeBytes: 3, MimeType: "text/plain"})
	require.NoError(t, err)
	dest, err := s.CreateFolder(ctx, root.RootNodeID, "dest")
	require.NoError(t, err)

	mappings, err := s.CopySubtree(ctx, []int64{a.ID}, dest.ID, false)
	require.NoError(t, err)
	require.Len(t, mappings, 2)

	for _, m := range mappings {
		assert.NotEqual(t, m.OldID, m.NewID)
		newNode, err := s.GetNode(ctx, m.NewID)
		require.NoError(t, err)
		assert.Equal(t, m.NewPath, newNode.Path)
	}
}

func TestCopySubtreeRejectsRoot(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	owner := uuid.New()
	root := newPersonalRoot(t, s, owner)
	dest, err := s.CreateFolder(ctx, root.RootNodeID, "dest")
	require.NoError(t, err)

	_, err = s.CopySubtree(ctx, []int64{root.RootNodeID}, dest.ID, false)
	require.Error(t, err)
	var cannotCopy errtypes.CannotCopyRoot
	assert.ErrorAs(t, err, &cannotCopy)
}

func TestDeleteSubtreeRemovesDescendantsAndGrants(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	owner := uuid.New()
	other := uuid.New()
	root := newPersonalRoot(t, s, owner)

	a, err := s.CreateFolder(ctx, root.RootNodeID, "a")
	require.NoError(t, err)
	b, err := s.CreateFolder(ctx, a.ID, "b")
	require.NoError(t, err)
	require.NoError(t, s.Grant(ctx, other, b.ID, perm.LevelRead))

	deleted, err := s.DeleteSubtree(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, deleted.Paths, 2)

	_, err = s.GetNode(ctx, b.ID)
	require.Error(t, err)
	var notFound errtypes.ObjectNotFound
	assert.ErrorAs(t, err, &notFound)

	grants, err := s.GrantsDirectByUser(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, grants)
}

func TestGrantNoOpWhenAncestorGrantSufficient(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	owner := uuid.New()
	collaborator := uuid.New()
	root := newPersonalRoot(t, s, owner)

	a, err := s.CreateFolder(ctx, root.RootNodeID, "a")
	require.NoError(t, err)
	b, err := s.CreateFolder(ctx, a.ID, "b")
	require.NoError(t, err)

	require.NoError(t, s.Grant(ctx, collaborator, a.ID, perm.LevelAdmin))
	require.NoError(t, s.Grant(ctx, collaborator, b.ID, perm.LevelRead))

	direct, err := s.GrantsDirectByUser(ctx, collaborator)
	require.NoError(t, err)
	assert.Len(t, direct, 1) // the redundant read-on-b grant was a no-op
	assert.Equal(t, a.ID, direct[0].NodeID)
}

func TestGrantRejectsOwnerLevel(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	owner := uuid.New()
	collaborator := uuid.New()
	root := newPersonalRoot(t, s, owner)

	err := s.Grant(ctx, collaborator, root.RootNodeID, perm.LevelOwner)
	require.Error(t, err)
}

func TestListChildrenOrderedAndFiltered(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	owner := uuid.New()
	stranger := uuid.New()
	root := newPersonalRoot(t, s, owner)

	_, err := s.CreateFile(ctx, root.RootNodeID, "b.txt", store.FileMeta{SizeBytes: 1, MimeType: "text/plain"})
	require.NoError(t, err)
	_, err = s.CreateFolder(ctx, root.RootNodeID, "a-folder")
	require.NoError(t, err)
	_, err = s.CreateFile(ctx, root.RootNodeID, "a.txt", store.FileMeta{SizeBytes: 1, MimeType: "text/plain"})
	require.NoError(t, err)

	rows, err := s.ListChildren(ctx, root.RootNodeID, owner)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "a-folder", rows[0].Node.Name)
	assert.Equal(t, "a.txt", rows[1].Node.Name)
	assert.Equal(t, "b.txt", rows[2].Node.Name)

	rows, err = s.ListChildren(ctx, root.RootNodeID, stranger)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	owner := uuid.New()
	root := newPersonalRoot(t, s, owner)

	sentinel := errtypes.Unexpected{}
	err := s.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		_, err := tx.CreateFolder(ctx, root.RootNodeID, "ephemeral")
		require.NoError(t, err)
		return sentinel
	})
	require.Error(t, err)

	rows, err := s.ListChildren(ctx, root.RootNodeID, owner)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	owner := uuid.New()
	root := newPersonalRoot(t, s, owner)

	err := s.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		_, err := tx.CreateFolder(ctx, root.RootNodeID, "kept")
		return err
	})
	require.NoError(t, err)

	rows, err := s.ListChildren(ctx, root.RootNodeID, owner)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "kept", rows[0].Node.Name)
}
