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

package engine

import (
	"github.com/foldervault/engine/pkg/blob"
	"github.com/foldervault/engine/pkg/store"
)

// DeleteResult reports a delete-with-blobs outcome: metadata rows removed
// plus the blob coordinator's best-effort tally (spec §4.4).
type DeleteResult struct {
	NodesDeleted int
	Blobs        blob.BulkResult
}

// CopyResult reports a copy-with-blobs outcome.
type CopyResult struct {
	Mappings []store.CopyMapping
	Blobs    blob.BulkResult
}

// MoveResult reports a move-with-blobs outcome: copy-then-delete, so
// Deletes may report failures independent of Copies (spec §4.4 "no data
// loss in the blob store if the delete step fails").
type MoveResult struct {
	NodesMoved int
	Copies     blob.BulkResult
	Deletes    blob.BulkResult
}
