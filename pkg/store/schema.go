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

package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// createSchemaSQL realises the nodes/roots/grants/chunks tables spelled
// out in SPEC_FULL.md §3.1. path is stored as ltree-style dot-joined
// text with a text_pattern_ops index, so prefix queries (path = $1 OR
// path LIKE $1 || '.%') run without the ltree extension installed.
const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS nodes (
    id          BIGSERIAL PRIMARY KEY,
    name        TEXT NOT NULL,
    kind        SMALLINT NOT NULL,
    path        TEXT NOT NULL,
    parent_id   BIGINT REFERENCES nodes(id),
    root_id     BIGINT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    expires_at  TIMESTAMPTZ,
    size_bytes  BIGINT,
    mime_type   TEXT,
    metadata    JSONB
);
CREATE INDEX IF NOT EXISTS idx_nodes_path ON nodes (path text_pattern_ops);
CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_parent_name ON nodes (parent_id, name) WHERE parent_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS roots (
    id                BIGSERIAL PRIMARY KEY,
    root_node_id      BIGINT NOT NULL REFERENCES nodes(id),
    kind              SMALLINT NOT NULL,
    owner_user_id     UUID,
    max_storage_bytes BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_roots_owner_kind ON roots (owner_user_id, kind);

CREATE TABLE IF NOT EXISTS grants (
    user_id  UUID NOT NULL,
    node_id  BIGINT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
    level    SMALLINT NOT NULL,
    PRIMARY KEY (user_id, node_id)
);

CREATE TABLE IF NOT EXISTS chunks (
    id        BIGSERIAL PRIMARY KEY,
    node_id   BIGINT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
    content   TEXT NOT NULL,
    metadata  JSONB
);
CREATE INDEX IF NOT EXISTS idx_chunks_node ON chunks (node_id);
`

const dropSchemaSQL = `
DROP TABLE IF EXISTS chunks CASCADE;
DROP TABLE IF EXISTS grants CASCADE;
DROP TABLE IF EXISTS roots CASCADE;
DROP TABLE IF EXISTS nodes CASCADE;
`

// CreateSchema applies the engine's schema to pool's database,
// idempotently (every statement is IF NOT EXISTS). It is the migration
// path a fresh deployment runs once before the first PostgresStore call;
// PostgresStore itself assumes the schema already exists.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, createSchemaSQL)
	return err
}

// DropSchema drops every table CreateSchema creates, for test teardown
// or a deliberate reset.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, dropSchemaSQL)
	return err
}
