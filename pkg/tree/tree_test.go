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

package tree_test

import (
	"context"
	"testing"

	"github.com/foldervault/engine/pkg/perm"
	"github.com/foldervault/engine/pkg/store"
	"github.com/foldervault/engine/pkg/tree"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHierarchyUnloadedAtMaxDepth(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	owner := uuid.New()
	root, err := s.CreateRoot(ctx, &owner, store.RootPersonal, 1<<20)
	require.NoError(t, err)

	a, err := s.CreateFolder(ctx, root.RootNodeID, "a")
	require.NoError(t, err)
	b, err := s.CreateFolder(ctx, a.ID, "b")
	require.NoError(t, err)
	_, err = s.CreateFolder(ctx, b.ID, "c")
	require.NoError(t, err)

	m := tree.New(s)
	result, err := m.GetHierarchy(ctx, root.RootNodeID, owner, 1)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Children, 1)

	nodeA := result.Children[0]
	assert.Equal(t, "a", nodeA.Name)
	assert.Nil(t, nodeA.Children) // sits at exactly max_depth below start
}

func TestGetHierarchyEmptyFolderIsEmptySliceNotNil(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	owner := uuid.New()
	root, err := s.CreateRoot(ctx, &owner, store.RootPersonal, 1<<20)
	require.NoError(t, err)

	m := tree.New(s)
	result, err := m.GetHierarchy(ctx, root.RootNodeID, owner, 5)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotNil(t, result.Children)
	assert.Empty(t, result.Children)
}

func TestGetHierarchyElidesInvisibleRows(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	owner := uuid.New()
	collaborator := uuid.New()
	root, err := s.CreateRoot(ctx, &owner, store.RootPersonal, 1<<20)
	require.NoError(t, err)

	visible, err := s.CreateFolder(ctx, root.RootNodeID, "visible")
	require.NoError(t, err)
	_, err = s.CreateFolder(ctx, root.RootNodeID, "hidden")
	require.NoError(t, err)
	require.NoError(t, s.Grant(ctx, collaborator, visible.ID, perm.LevelRead))

	m := tree.New(s)
	result, err := m.GetHierarchy(ctx, visible.ID, collaborator, 5)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "visible", result.Name)

	// From the root, "visible" is listed but "hidden" is elided.
	fromRoot, err := m.GetHierarchy(ctx, root.RootNodeID, collaborator, 5)
	require.NoError(t, err)
	require.NotNil(t, fromRoot)
	require.Len(t, fromRoot.Children, 1)
	assert.Equal(t, "visible", fromRoot.Children[0].Name)
}

func TestGetRootsWithHierarchyAggregatesSharedView(t *testing.T) {
	ctx := context.Background()
	s := store.NewInMemoryStore()
	owner := uuid.New()
	collaborator := uuid.New()

	ownerRoot, err := s.CreateRoot(ctx, &owner, store.RootPersonal, 1<<20)
	require.NoError(t, err)
	sharedFolder, err := s.CreateFolder(ctx, ownerRoot.RootNodeID, "shared-doc")
	require.NoError(t, err)
	require.NoError(t, s.Grant(ctx, collaborator, sharedFolder.ID, perm.LevelWrite))

	_, err = s.CreateRoot(ctx, &collaborator, store.RootPersonal, 1<<20)
	require.NoError(t, err)

	m := tree.New(s)
	roots, err := m.GetRootsWithHierarchy(ctx, collaborator, 5)
	require.NoError(t, err)
	require.NotNil(t, roots.Personal)
	require.Len(t, roots.Shared, 1)
	assert.Equal(t, "shared-doc", roots.Shared[0].Name)
}
