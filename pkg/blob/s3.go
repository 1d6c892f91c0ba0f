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

	"github.com/foldervault/engine/pkg/errtypes"
	"github.com/foldervault/engine/pkg/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var logger = log.New("blob")

// S3Config is the subset of config.BlobConfig an S3Coordinator needs.
type S3Config struct {
	Endpoint    string
	Region      string
	AccessKey   string
	SecretKey   string
	Bucket      string
	UseSSL      bool
	Concurrency int
}

// S3Coordinator is the production Coordinator, backed by an S3-compatible
// bucket via minio-go (spec §4.4, driver family named in §2.2: "Object
// store client").
type S3Coordinator struct {
	client      *minio.Client
	bucket      string
	concurrency int
}

// NewS3Coordinator dials an S3-compatible endpoint.
func NewS3Coordinator(cfg S3Config) (*S3Coordinator, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errtypes.Unexpected{Cause: err}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	return &S3Coordinator{client: client, bucket: cfg.Bucket, concurrency: concurrency}, nil
}

func (c *S3Coordinator) Concurrency() int { return c.concurrency }

func (c *S3Coordinator) Upload(ctx context.Context, key string, body io.Reader, size int64, mimeType string) error {
	_, err := c.client.PutObject(ctx, c.bucket, key, body, size, minio.PutObjectOptions{ContentType: mimeType})
	if err != nil {
		logger.Error(ctx, err, "blob upload failed")
		return errtypes.UploadFailed{Cause: err}
	}
	return nil
}

func (c *S3Coordinator) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := c.client.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errtypes.DownloadFailed{Key: key, Cause: err}
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, errtypes.BlobNotFound(key)
	}
	return obj, nil
}

func (c *S3Coordinator) Delete(ctx context.Context, key string) error {
	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errtypes.DeleteFailed{Key: key, Cause: err}
	}
	return nil
}

func (c *S3Coordinator) CopyOne(ctx context.Context, srcKey, destKey string) error {
	src := minio.CopySrcOptions{Bucket: c.bucket, Object: srcKey}
	dest := minio.CopyDestOptions{Bucket: c.bucket, Object: destKey}
	if _, err := c.client.CopyObject(ctx, dest, src); err != nil {
		return errtypes.CopyFailed{SourceKey: srcKey, DestKey: destKey, Cause: err}
	}
	return nil
}

func (c *S3Coordinator) CopyMany(ctx context.Context, pairs []KeyPair) BulkResult {
	errs := fanOut(ctx, c.concurrency, len(pairs), func(i int) error {
		return c.CopyOne(ctx, pairs[i].SrcKey, pairs[i].DestKey)
	})
	return collect(pairs, errs, func(p KeyPair) string { return p.DestKey })
}

func (c *S3Coordinator) DeleteMany(ctx context.Context, keys []string) BulkResult {
	errs := fanOut(ctx, c.concurrency, len(keys), func(i int) error {
		return c.Delete(ctx, keys[i])
	})
	return collect(keys, errs, func(k string) string { return k })
}

func collect[T any](items []T, errs []error, keyOf func(T) string) BulkResult {
	var res BulkResult
	for i, err := range errs {
		if err != nil {
			res.Failed++
			res.Failures = append(res.Failures, KeyFailure{Key: keyOf(items[i]), Err: err})
			continue
		}
		res.OK++
	}
	return res
}
