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

package blob

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/semaphore"
)

// KeyPair names a copy source and destination key.
type KeyPair struct {
	SrcKey  string
	DestKey string
}

// KeyFailure records one key's failure within a bulk operation.
type KeyFailure struct {
	Key string
	Err error
}

// BulkResult tallies a bounded-concurrency fan-out over many keys (spec §8
// scenario F: "blob_ok + blob_failed == 7").
type BulkResult struct {
	OK       int
	Failed   int
	Failures []KeyFailure
}

// Coordinator is the engine's object-store boundary (spec §4.4): single-key
// primitives plus bounded-concurrency bulk primitives, all best-effort
// except where the caller chooses to treat a single-key failure as fatal
// (upload-with-body, implemented in pkg/engine).
type Coordinator interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, mimeType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	CopyOne(ctx context.Context, srcKey, destKey string) error

	// CopyMany and DeleteMany fan out over pairs/keys with at most
	// Concurrency() in-flight calls, collecting per-key outcomes rather
	// than aborting on the first failure.
	CopyMany(ctx context.Context, pairs []KeyPair) BulkResult
	DeleteMany(ctx context.Context, keys []string) BulkResult

	// Concurrency reports the configured in-flight call ceiling.
	Concurrency() int
}

// fanOut runs work once per item with at most concurrency in-flight
// goroutines, via a weighted semaphore (spec §5: "fan out to <= 5
// concurrent blob calls via a shared semaphore; no task spawns a nested
// pool"). It never returns early: every item gets an entry in the result,
// since the caller needs a BulkResult covering every key. Once ctx is
// cancelled, items that have not yet started are not run; their entry is
// the context error returned by the semaphore.
func fanOut(ctx context.Context, concurrency, n int, work func(i int) error) []error {
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = err
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			errs[i] = work(i)
		}(i)
	}
	wg.Wait()
	return errs
}
