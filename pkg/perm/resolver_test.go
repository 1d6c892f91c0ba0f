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

package perm_test

import (
	"context"
	"testing"

	"github.com/foldervault/engine/pkg/errtypes"
	"github.com/foldervault/engine/pkg/pathid"
	"github.com/foldervault/engine/pkg/perm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is a minimal in-memory GrantStore for resolver unit tests,
// grounded in the corpus's in-memory storage test doubles.
type fakeStore struct {
	paths  map[int64]pathid.Path
	grants map[uuid.UUID]map[int64]perm.Level // user -> node -> level
	users  map[uuid.UUID]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		paths:  map[int64]pathid.Path{},
		grants: map[uuid.UUID]map[int64]perm.Level{},
		users:  map[uuid.UUID]bool{},
	}
}

func (f *fakeStore) addNode(id int64, p pathid.Path) { f.paths[id] = p }
func (f *fakeStore) addUser(u uuid.UUID)             { f.users[u] = true }
func (f *fakeStore) grant(u uuid.UUID, nodeID int64, lvl perm.Level) {
	if f.grants[u] == nil {
		f.grants[u] = map[int64]perm.Level{}
	}
	f.grants[u][nodeID] = lvl
}

func (f *fakeStore) NodeExists(ctx context.Context, nodeID int64) (bool, error) {
	_, ok := f.paths[nodeID]
	return ok, nil
}

func (f *fakeStore) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return f.users[userID], nil
}

func (f *fakeStore) NodePath(ctx context.Context, nodeID int64) (pathid.Path, error) {
	p, ok := f.paths[nodeID]
	if !ok {
		return nil, errtypes.ObjectNotFound("not found")
	}
	return p, nil
}

func (f *fakeStore) GrantsOnNodes(ctx context.Context, userID uuid.UUID, nodeIDs []int64) ([]perm.Grant, error) {
	var out []perm.Grant
	for _, id := range nodeIDs {
		if lvl, ok := f.grants[userID][id]; ok {
			out = append(out, perm.Grant{NodeID: id, Level: lvl})
		}
	}
	return out, nil
}

func (f *fakeStore) HasDescendantGrant(ctx context.Context, userID uuid.UUID, target pathid.Path) (bool, error) {
	for nodeID, lvl := range f.grants[userID] {
		if lvl == perm.LevelNone {
			continue
		}
		p, ok := f.paths[nodeID]
		if !ok {
			continue
		}
		if pathid.IsDescendantOf(p, target) && !p.Equal(target) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) SubtreePaths(ctx context.Context, root pathid.Path) ([]pathid.Path, error) {
	var out []pathid.Path
	for _, p := range f.paths {
		if pathid.IsDescendantOf(p, root) {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestEffective_DescendantGrantVisibility(t *testing.T) {
	store := newFakeStore()
	u := uuid.New()
	store.addUser(u)

	// root(1) -> A(2) -> B(3) -> C(4), plus D(5) directly under A; close to
	// scenario E from spec §8.
	store.addNode(1, pathid.Path{1})
	store.addNode(2, pathid.Path{1, 2})
	store.addNode(3, pathid.Path{1, 2, 3})
	store.addNode(4, pathid.Path{1, 2, 3, 4})
	store.addNode(5, pathid.Path{1, 2, 6}) // D under A, off C's branch

	store.grant(u, 4, perm.LevelRead) // grant on deep node A/B/C

	r := perm.New(store)
	ctx := context.Background()

	lvl, err := r.Effective(ctx, u, 2) // A
	require.NoError(t, err)
	assert.Equal(t, perm.LevelRead, lvl)

	lvl, err = r.Effective(ctx, u, 3) // A/B
	require.NoError(t, err)
	assert.Equal(t, perm.LevelRead, lvl)

	lvl, err = r.Effective(ctx, u, 4) // A/B/C itself
	require.NoError(t, err)
	assert.Equal(t, perm.LevelRead, lvl)

	lvl, err = r.Effective(ctx, u, 5) // A/D, not under C
	require.NoError(t, err)
	assert.Equal(t, perm.LevelNone, lvl)
}

func TestEffective_DeepestAncestorWins(t *testing.T) {
	store := newFakeStore()
	u := uuid.New()
	store.addUser(u)
	store.addNode(1, pathid.Path{1})
	store.addNode(2, pathid.Path{1, 2})
	store.addNode(3, pathid.Path{1, 2, 3})

	store.grant(u, 1, perm.LevelAdmin) // shallow grant, higher level
	store.grant(u, 2, perm.LevelRead)  // deeper grant, lower level

	r := perm.New(store)
	lvl, err := r.Effective(context.Background(), u, 3)
	require.NoError(t, err)
	// The deepest ancestor grant wins even though it is lower (§4.2 tie-break).
	assert.Equal(t, perm.LevelRead, lvl)
}

func TestEffective_NoPermission(t *testing.T) {
	store := newFakeStore()
	u := uuid.New()
	store.addUser(u)
	store.addNode(1, pathid.Path{1})
	store.addNode(2, pathid.Path{1, 2})

	r := perm.New(store)
	lvl, err := r.Effective(context.Background(), u, 2)
	require.NoError(t, err)
	assert.Equal(t, perm.LevelNone, lvl)
}

func TestEffective_UserNotFound(t *testing.T) {
	store := newFakeStore()
	store.addNode(1, pathid.Path{1})
	r := perm.New(store)

	_, err := r.Effective(context.Background(), uuid.New(), 1)
	var notFound errtypes.UserNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestEffective_NodeNotFound(t *testing.T) {
	store := newFakeStore()
	u := uuid.New()
	store.addUser(u)
	r := perm.New(store)

	_, err := r.Effective(context.Background(), u, 999)
	var notFound errtypes.ObjectNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestMinEffective(t *testing.T) {
	store := newFakeStore()
	u := uuid.New()
	store.addUser(u)
	store.addNode(1, pathid.Path{1})
	store.addNode(2, pathid.Path{1, 2})
	store.addNode(3, pathid.Path{1, 2, 3})
	store.addNode(4, pathid.Path{1, 5})

	store.grant(u, 2, perm.LevelWrite)
	store.grant(u, 3, perm.LevelAdmin)
	// node 4 has no grant and no visibility -> MinEffective must report None.

	r := perm.New(store)

	lvl, ok, err := r.MinEffective(context.Background(), u, []int64{2})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, perm.LevelWrite, lvl, "min over {2,3} (3 inherits write from 2, itself holds admin -> min is write)")

	_, ok, err = r.MinEffective(context.Background(), u, []int64{2, 4})
	require.NoError(t, err)
	assert.False(t, ok, "node 4 has no permission, union must report None")
}

func TestLevelAtLeast(t *testing.T) {
	assert.True(t, perm.LevelOwner.AtLeast(perm.LevelAdmin), "owner collapses to admin for capability checks")
	assert.True(t, perm.LevelAdmin.AtLeast(perm.LevelAdmin))
	assert.False(t, perm.LevelRead.AtLeast(perm.LevelWrite))
}
