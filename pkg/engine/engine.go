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

// Package engine wires the permission resolver, metadata store, blob
// coordinator and tree materialiser into the public operations spec §4
// describes, applying the permission preconditions and the
// metadata-then-blob ordering of §4.4/§5.
package engine

import (
	"github.com/foldervault/engine/pkg/blob"
	"github.com/foldervault/engine/pkg/log"
	"github.com/foldervault/engine/pkg/perm"
	"github.com/foldervault/engine/pkg/store"
	"github.com/foldervault/engine/pkg/tree"
)

var logger = log.New("engine")

// Engine is a value type: every operation is a method with no package-level
// state, so Postgres/S3 and in-memory test doubles are interchangeable
// (spec §9 "Ambient database clients -> explicit engine handle").
type Engine struct {
	Store    store.Store
	Blob     blob.Coordinator
	Resolver *perm.Resolver
	Tree     *tree.Materialiser
}

// New builds an Engine over the given store and blob coordinator.
func New(s store.Store, b blob.Coordinator) *Engine {
	return &Engine{
		Store:    s,
		Blob:     b,
		Resolver: perm.New(s),
		Tree:     tree.New(s),
	}
}
