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

// Package config decodes the engine's configuration (spec §6), following
// the corpus's options.New(map[string]interface{}) idiom: an untyped map
// decoded via mapstructure into a typed struct, with defaults applied
// after decode.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
)

// Config holds every key enumerated in spec §6.
type Config struct {
	DB   DBConfig   `mapstructure:"db" toml:"db"`
	Blob BlobConfig `mapstructure:"blob" toml:"blob"`
	Root RootConfig `mapstructure:"root" toml:"root"`
}

// DBConfig configures the Postgres connection pool.
type DBConfig struct {
	URL      string `mapstructure:"url" toml:"url"`
	PoolMax  int    `mapstructure:"pool_max" toml:"pool_max"`
}

// BlobConfig configures the S3-compatible object store client.
type BlobConfig struct {
	Endpoint    string `mapstructure:"endpoint" toml:"endpoint"`
	Region      string `mapstructure:"region" toml:"region"`
	AccessKey   string `mapstructure:"access_key" toml:"access_key"`
	SecretKey   string `mapstructure:"secret_key" toml:"secret_key"`
	Bucket      string `mapstructure:"bucket" toml:"bucket"`
	UseSSL      bool   `mapstructure:"use_ssl" toml:"use_ssl"`
	Concurrency int    `mapstructure:"concurrency" toml:"concurrency"`
}

// RootConfig configures root-namespace bootstrapping defaults.
type RootConfig struct {
	DefaultMaxBytes int64 `mapstructure:"default_max_bytes" toml:"default_max_bytes"`
}

func defaults() Config {
	return Config{
		DB: DBConfig{
			PoolMax: 20,
		},
		Blob: BlobConfig{
			Concurrency: 5,
			UseSSL:      true,
		},
		Root: RootConfig{
			DefaultMaxBytes: 50 * 1024 * 1024, // 50 MiB
		},
	}
}

// FromMap decodes an untyped map into a Config, applying defaults for any
// field the map left unset. This mirrors the teacher's
// options.New(map[string]interface{}) entry point for embedding callers
// that already hold parsed configuration (e.g. a larger application's own
// config tree).
func FromMap(m map[string]interface{}) (*Config, error) {
	c := defaults()
	if err := mapstructure.Decode(m, &c); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads a TOML file from path into a Config, applying the same
// defaults as FromMap.
func Load(path string) (*Config, error) {
	c := defaults()
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c Config) validate() error {
	if c.DB.URL == "" {
		return fmt.Errorf("config: db.url is required")
	}
	if c.Blob.Bucket == "" {
		return fmt.Errorf("config: blob.bucket is required")
	}
	if c.Blob.Concurrency <= 0 {
		return fmt.Errorf("config: blob.concurrency must be positive")
	}
	if c.DB.PoolMax <= 0 {
		return fmt.Errorf("config: db.pool_max must be positive")
	}
	return nil
}
