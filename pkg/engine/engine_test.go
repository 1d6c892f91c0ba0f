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

package engine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/foldervault/engine/pkg/blob"
	"github.com/foldervault/engine/pkg/engine"
	"github.com/foldervault/engine/pkg/errtypes"
	"github.com/foldervault/engine/pkg/perm"
	"github.com/foldervault/engine/pkg/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine() *engine.Engine {
	return engine.New(store.NewInMemoryStore(), blob.NewInMemoryCoordinator(5))
}

// Scenario A: create root, create folder, upload file.
func TestScenarioA_CreateListUpload(t *testing.T) {
	ctx := context.Background()
	e := newEngine()
	u := uuid.New()

	root, err := e.EnsureRoot(ctx, u, store.RootPersonal, 1<<20)
	require.NoError(t, err)

	a, err := e.CreateFolder(ctx, root.RootNodeID, "A", u)
	require.NoError(t, err)

	doc, err := e.UploadFile(ctx, a.ID, "doc.pdf", []byte("abcd"), "application/pdf", u)
	require.NoError(t, err)

	rootChildren, err := e.ListChildren(ctx, root.RootNodeID, u)
	require.NoError(t, err)
	require.Len(t, rootChildren, 1)
	assert.Equal(t, "A", rootChildren[0].Node.Name)

	aChildren, err := e.ListChildren(ctx, a.ID, u)
	require.NoError(t, err)
	require.Len(t, aChildren, 1)
	assert.Equal(t, "doc.pdf", aChildren[0].Node.Name)

	lvl, err := e.Resolver.Effective(ctx, u, a.ID)
	require.NoError(t, err)
	assert.True(t, lvl.AtLeast(perm.LevelAdmin))

	expectedKey := fmt.Sprintf("%d/%d/%d", root.RootNodeID, a.ID, doc.ID)
	assert.Equal(t, expectedKey, blob.Key(doc.Path, store.KindFile))
}

// Scenario B: share write, collaborator creates, owner deletes; grants and
// blobs under the deleted prefix disappear.
func TestScenarioB_DeleteCascadesGrantsAndBlobs(t *testing.T) {
	ctx := context.Background()
	e := newEngine()
	u := uuid.New()
	v := uuid.New()

	root, err := e.EnsureRoot(ctx, u, store.RootPersonal, 1<<20)
	require.NoError(t, err)
	a, err := e.CreateFolder(ctx, root.RootNodeID, "A", u)
	require.NoError(t, err)

	require.NoError(t, e.Grant(ctx, u, v, a.ID, perm.LevelWrite))

	b, err := e.CreateFolder(ctx, a.ID, "B", v)
	require.NoError(t, err)
	_, err = e.UploadFile(ctx, b.ID, "f.txt", []byte("x"), "text/plain", v)
	require.NoError(t, err)

	result, err := e.Delete(ctx, a.ID, u)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.NodesDeleted, 3)

	_, err = e.Store.GetNode(ctx, a.ID)
	require.Error(t, err)
	_, err = e.Store.GetNode(ctx, b.ID)
	require.Error(t, err)

	grants, err := e.Store.GrantsDirectByUser(ctx, v)
	require.NoError(t, err)
	assert.Empty(t, grants)
}

// Scenario C: cross-root move is rejected and mutates neither store.
func TestScenarioC_CrossRootMoveRejected(t *testing.T) {
	ctx := context.Background()
	e := newEngine()
	u := uuid.New()

	personal, err := e.EnsureRoot(ctx, u, store.RootPersonal, 1<<20)
	require.NoError(t, err)
	orgRoot, err := e.CreateOrganisationalRoot(ctx, 1<<20)
	require.NoError(t, err)
	// Bootstrapping an organisational root's first admin has no existing
	// admin to grant it, so it goes through the store directly.
	require.NoError(t, e.Store.Grant(ctx, u, orgRoot.RootNodeID, perm.LevelAdmin))

	a, err := e.CreateFolder(ctx, personal.RootNodeID, "A", u)
	require.NoError(t, err)

	_, err = e.Move(ctx, a.ID, orgRoot.RootNodeID, false, u)
	require.Error(t, err)
	var crossRoot errtypes.CrossRoot
	assert.ErrorAs(t, err, &crossRoot)

	_, err = e.Store.GetNode(ctx, a.ID)
	require.NoError(t, err) // untouched
}

// Scenario D: copy with name conflict, override=false then override=true.
func TestScenarioD_CopyNameConflictOverride(t *testing.T) {
	ctx := context.Background()
	e := newEngine()
	u := uuid.New()
	root, err := e.EnsureRoot(ctx, u, store.RootPersonal, 1<<20)
	require.NoError(t, err)

	a, err := e.CreateFolder(ctx, root.RootNodeID, "A", u)
	require.NoError(t, err)
	b, err := e.CreateFolder(ctx, root.RootNodeID, "B", u)
	require.NoError(t, err)
	target, err := e.CreateFolder(ctx, root.RootNodeID, "T", u)
	require.NoError(t, err)
	preExisting, err := e.CreateFolder(ctx, target.ID, "A", u)
	require.NoError(t, err)

	_, err = e.Copy(ctx, []int64{a.ID, b.ID}, target.ID, false, u)
	require.Error(t, err)
	var conflict errtypes.NameAlreadyExists
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, "A", conflict.ConflictingName)

	result, err := e.Copy(ctx, []int64{a.ID, b.ID}, target.ID, true, u)
	require.NoError(t, err)

	_, err = e.Store.GetNode(ctx, preExisting.ID)
	require.Error(t, err) // prior T/A gone

	children, err := e.ListChildren(ctx, target.ID, u)
	require.NoError(t, err)
	names := map[string]bool{}
	for _, c := range children {
		names[c.Node.Name] = true
	}
	assert.True(t, names["A"])
	assert.True(t, names["B"])
	assert.NotEmpty(t, result.Mappings)
}

// Scenario E: deep descendant grant yields read-only visibility up the
// ancestor chain, and no visibility on an unrelated sibling.
func TestScenarioE_DescendantGrantVisibility(t *testing.T) {
	ctx := context.Background()
	e := newEngine()
	u := uuid.New()
	v := uuid.New()
	root, err := e.EnsureRoot(ctx, u, store.RootPersonal, 1<<20)
	require.NoError(t, err)

	a, err := e.CreateFolder(ctx, root.RootNodeID, "A", u)
	require.NoError(t, err)
	b, err := e.CreateFolder(ctx, a.ID, "B", u)
	require.NoError(t, err)
	c, err := e.CreateFolder(ctx, b.ID, "C", u)
	require.NoError(t, err)
	d, err := e.CreateFolder(ctx, a.ID, "D", u)
	require.NoError(t, err)

	require.NoError(t, e.Grant(ctx, u, v, c.ID, perm.LevelRead))

	lvlA, err := e.Resolver.Effective(ctx, v, a.ID)
	require.NoError(t, err)
	assert.Equal(t, perm.LevelRead, lvlA)

	lvlB, err := e.Resolver.Effective(ctx, v, b.ID)
	require.NoError(t, err)
	assert.Equal(t, perm.LevelRead, lvlB)

	lvlC, err := e.Resolver.Effective(ctx, v, c.ID)
	require.NoError(t, err)
	assert.Equal(t, perm.LevelRead, lvlC)

	lvlD, err := e.Resolver.Effective(ctx, v, d.ID)
	require.NoError(t, err)
	assert.Equal(t, perm.LevelNone, lvlD)
}

// Scenario F: copy of 7 files with concurrency 2 completes and every blob
// call is accounted for.
func TestScenarioF_CopyConcurrencyBound(t *testing.T) {
	ctx := context.Background()
	coordinator := blob.NewInMemoryCoordinator(2)
	e := engine.New(store.NewInMemoryStore(), coordinator)
	u := uuid.New()
	root, err := e.EnsureRoot(ctx, u, store.RootPersonal, 1<<20)
	require.NoError(t, err)
	src, err := e.CreateFolder(ctx, root.RootNodeID, "src", u)
	require.NoError(t, err)
	target, err := e.CreateFolder(ctx, root.RootNodeID, "target", u)
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		_, err := e.UploadFile(ctx, src.ID, fmt.Sprintf("f%d.txt", i), []byte("x"), "text/plain", u)
		require.NoError(t, err)
	}

	result, err := e.Copy(ctx, []int64{src.ID}, target.ID, false, u)
	require.NoError(t, err)
	assert.Equal(t, 7, result.Blobs.OK+result.Blobs.Failed)
	assert.LessOrEqual(t, coordinator.MaxInUse(), 2)
}

func TestUploadFileRollsBackNodeOnBlobFailure(t *testing.T) {
	ctx := context.Background()
	coordinator := blob.NewInMemoryCoordinator(5)
	e := engine.New(store.NewInMemoryStore(), coordinator)
	u := uuid.New()
	root, err := e.EnsureRoot(ctx, u, store.RootPersonal, 1<<20)
	require.NoError(t, err)

	coordinator.FailNextUpload = true

	children, err := e.ListChildren(ctx, root.RootNodeID, u)
	require.NoError(t, err)
	before := len(children)

	_, err = e.UploadFile(ctx, root.RootNodeID, "will-fail.txt", []byte("x"), "text/plain", u)
	require.Error(t, err)

	children, err = e.ListChildren(ctx, root.RootNodeID, u)
	require.NoError(t, err)
	assert.Len(t, children, before) // node never committed
}

func TestUploadFileRejectsFileLargerThanRootCeiling(t *testing.T) {
	ctx := context.Background()
	e := newEngine()
	u := uuid.New()
	root, err := e.EnsureRoot(ctx, u, store.RootPersonal, 10)
	require.NoError(t, err)

	_, err = e.UploadFile(ctx, root.RootNodeID, "big.bin", make([]byte, 11), "application/octet-stream", u)
	require.Error(t, err)
	var tooLarge errtypes.FileTooLarge
	require.ErrorAs(t, err, &tooLarge)
	assert.EqualValues(t, 11, tooLarge.Size)
	assert.EqualValues(t, 10, tooLarge.Max)
}

func TestUploadFileRejectsWhenRootQuotaExhausted(t *testing.T) {
	ctx := context.Background()
	e := newEngine()
	u := uuid.New()
	root, err := e.EnsureRoot(ctx, u, store.RootPersonal, 10)
	require.NoError(t, err)

	_, err = e.UploadFile(ctx, root.RootNodeID, "first.bin", make([]byte, 6), "application/octet-stream", u)
	require.NoError(t, err)

	_, err = e.UploadFile(ctx, root.RootNodeID, "second.bin", make([]byte, 6), "application/octet-stream", u)
	require.Error(t, err)
	var exceeded errtypes.StorageExceeded
	require.ErrorAs(t, err, &exceeded)
	assert.EqualValues(t, root.RootNodeID, exceeded.RootID)
	assert.EqualValues(t, 6, exceeded.Requested)
	assert.EqualValues(t, 4, exceeded.Remaining)

	// a file that fits in what's left still succeeds.
	_, err = e.UploadFile(ctx, root.RootNodeID, "third.bin", make([]byte, 4), "application/octet-stream", u)
	require.NoError(t, err)
}

func TestDeleteRootRequiresLiteralOwner(t *testing.T) {
	ctx := context.Background()
	e := newEngine()
	u := uuid.New()
	v := uuid.New()
	root, err := e.EnsureRoot(ctx, u, store.RootPersonal, 1<<20)
	require.NoError(t, err)

	require.NoError(t, e.Grant(ctx, u, v, root.RootNodeID, perm.LevelAdmin))

	_, err = e.Delete(ctx, root.RootNodeID, v)
	require.Error(t, err)
	var noPerm errtypes.NoPermission
	assert.ErrorAs(t, err, &noPerm)

	_, err = e.Delete(ctx, root.RootNodeID, u)
	require.NoError(t, err)
}
