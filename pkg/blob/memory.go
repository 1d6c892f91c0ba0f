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
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/foldervault/engine/pkg/errtypes"
)

// InMemoryCoordinator is a Coordinator test double keyed by a plain map,
// with an instrumented in-flight counter so tests can assert the
// concurrency ceiling was actually honoured (spec §8 scenario F).
type InMemoryCoordinator struct {
	mu          sync.Mutex
	objects     map[string][]byte
	concurrency int

	inFlight  int32
	maxInUse  int32
	FailUpload map[string]bool
	// FailNextUpload fails exactly the next Upload call regardless of key,
	// for tests that cannot predict the allocated node id in advance.
	FailNextUpload bool
}

// NewInMemoryCoordinator returns an empty coordinator with the given
// concurrency ceiling.
func NewInMemoryCoordinator(concurrency int) *InMemoryCoordinator {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &InMemoryCoordinator{
		objects:     map[string][]byte{},
		concurrency: concurrency,
		FailUpload:  map[string]bool{},
	}
}

func (c *InMemoryCoordinator) Concurrency() int { return c.concurrency }

// MaxInUse reports the highest number of concurrent calls observed, for
// tests asserting the bound was respected.
func (c *InMemoryCoordinator) MaxInUse() int { return int(atomic.LoadInt32(&c.maxInUse)) }

func (c *InMemoryCoordinator) track() func() {
	n := atomic.AddInt32(&c.inFlight, 1)
	for {
		max := atomic.LoadInt32(&c.maxInUse)
		if n <= max || atomic.CompareAndSwapInt32(&c.maxInUse, max, n) {
			break
		}
	}
	return func() { atomic.AddInt32(&c.inFlight, -1) }
}

func (c *InMemoryCoordinator) Upload(ctx context.Context, key string, body io.Reader, size int64, mimeType string) error {
	defer c.track()()
	c.mu.Lock()
	failNext := c.FailNextUpload
	c.FailNextUpload = false
	c.mu.Unlock()
	if failNext || c.FailUpload[key] {
		return errtypes.UploadFailed{Cause: errtypes.BlobNotFound(key)}
	}
	buf, err := io.ReadAll(body)
	if err != nil {
		return errtypes.UploadFailed{Cause: err}
	}
	c.mu.Lock()
	c.objects[key] = buf
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCoordinator) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	defer c.track()()
	c.mu.Lock()
	buf, ok := c.objects[key]
	c.mu.Unlock()
	if !ok {
		return nil, errtypes.BlobNotFound(key)
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (c *InMemoryCoordinator) Delete(ctx context.Context, key string) error {
	defer c.track()()
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.objects, key)
	return nil
}

func (c *InMemoryCoordinator) CopyOne(ctx context.Context, srcKey, destKey string) error {
	defer c.track()()
	c.mu.Lock()
	defer c.mu.Unlock()
	buf, ok := c.objects[srcKey]
	if !ok {
		return errtypes.CopyFailed{SourceKey: srcKey, DestKey: destKey, Cause: errtypes.BlobNotFound(srcKey)}
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	c.objects[destKey] = out
	return nil
}

func (c *InMemoryCoordinator) CopyMany(ctx context.Context, pairs []KeyPair) BulkResult {
	errs := fanOut(ctx, c.concurrency, len(pairs), func(i int) error {
		return c.CopyOne(ctx, pairs[i].SrcKey, pairs[i].DestKey)
	})
	return collect(pairs, errs, func(p KeyPair) string { return p.DestKey })
}

func (c *InMemoryCoordinator) DeleteMany(ctx context.Context, keys []string) BulkResult {
	errs := fanOut(ctx, c.concurrency, len(keys), func(i int) error {
		return c.Delete(ctx, keys[i])
	})
	return collect(keys, errs, func(k string) string { return k })
}

// Has reports whether a key exists, for test assertions.
func (c *InMemoryCoordinator) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.objects[key]
	return ok
}
