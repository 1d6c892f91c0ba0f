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

package blob_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/foldervault/engine/pkg/blob"
	"github.com/foldervault/engine/pkg/pathid"
	"github.com/foldervault/engine/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyMapping(t *testing.T) {
	p, err := pathid.Parse("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "1/2/3", blob.Key(p, store.KindFile))
	assert.Equal(t, "1/2/3/", blob.Key(p, store.KindFolder))
}

func TestInMemoryCoordinatorUploadDownload(t *testing.T) {
	ctx := context.Background()
	c := blob.NewInMemoryCoordinator(5)
	body := []byte("hello")
	require.NoError(t, c.Upload(ctx, "1/2", bytes.NewReader(body), int64(len(body)), "text/plain"))

	rc, err := c.Download(ctx, "1/2")
	require.NoError(t, err)
	defer rc.Close()
	buf := make([]byte, len(body))
	_, err = rc.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, body, buf)
}

func TestInMemoryCoordinatorCopyManyRespectsConcurrency(t *testing.T) {
	ctx := context.Background()
	c := blob.NewInMemoryCoordinator(2)

	pairs := make([]blob.KeyPair, 7)
	for i := range pairs {
		src := fmt.Sprintf("src/%d", i)
		require.NoError(t, c.Upload(ctx, src, bytes.NewReader([]byte("x")), 1, "text/plain"))
		pairs[i] = blob.KeyPair{SrcKey: src, DestKey: fmt.Sprintf("dest/%d", i)}
	}

	result := c.CopyMany(ctx, pairs)
	assert.Equal(t, 7, result.OK+result.Failed)
	assert.LessOrEqual(t, c.MaxInUse(), 2)
}

func TestInMemoryCoordinatorDeleteManyMissingKeysSucceed(t *testing.T) {
	ctx := context.Background()
	c := blob.NewInMemoryCoordinator(3)
	result := c.DeleteMany(ctx, []string{"absent/1", "absent/2"})
	// Delete is idempotent in the test double: missing keys are not errors.
	assert.Equal(t, 2, result.OK)
	assert.Equal(t, 0, result.Failed)
}

func TestInMemoryCoordinatorCopyOneMissingSourceFails(t *testing.T) {
	ctx := context.Background()
	c := blob.NewInMemoryCoordinator(5)
	err := c.CopyOne(ctx, "missing", "dest")
	assert.Error(t, err)
}
