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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/foldervault/engine/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMapAppliesDefaults(t *testing.T) {
	m := map[string]interface{}{
		"db": map[string]interface{}{
			"url": "postgres://localhost/foldervault",
		},
		"blob": map[string]interface{}{
			"bucket": "docs",
		},
	}
	c, err := config.FromMap(m)
	require.NoError(t, err)
	assert.Equal(t, 20, c.DB.PoolMax)
	assert.Equal(t, 5, c.Blob.Concurrency)
	assert.Equal(t, int64(50*1024*1024), c.Root.DefaultMaxBytes)
}

func TestFromMapRequiresDBURL(t *testing.T) {
	_, err := config.FromMap(map[string]interface{}{
		"blob": map[string]interface{}{"bucket": "docs"},
	})
	assert.Error(t, err)
}

func TestLoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "engine.toml")
	body := `
[db]
url = "postgres://localhost/foldervault"
pool_max = 8

[blob]
endpoint = "s3.example.com"
bucket = "docs"
concurrency = 2

[root]
default_max_bytes = 1048576
`
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))

	c, err := config.Load(p)
	require.NoError(t, err)
	assert.Equal(t, 8, c.DB.PoolMax)
	assert.Equal(t, 2, c.Blob.Concurrency)
	assert.Equal(t, int64(1048576), c.Root.DefaultMaxBytes)
}
