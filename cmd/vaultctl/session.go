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

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/foldervault/engine/pkg/engine"
	"github.com/foldervault/engine/pkg/store"
	"github.com/google/uuid"
)

// session is the shell's mutable state across commands: which engine it
// talks to, which user it acts as, and which folder is "current" for
// relative commands (ls, mkdir, cd with no other root in play).
type session struct {
	ctx    context.Context
	engine *engine.Engine
	actor  uuid.UUID
	cwd    int64
}

// resolvePath walks a "/"-joined name path from startID, failing as soon
// as a segment isn't a visible child. An empty string resolves to
// startID itself (so "ls" with no argument lists the cwd).
func (s *session) resolvePath(startID int64, p string) (int64, error) {
	p = strings.Trim(p, "/")
	if p == "" {
		return startID, nil
	}
	cur := startID
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." {
			continue
		}
		if seg == ".." {
			node, err := s.engine.Store.GetNode(s.ctx, cur)
			if err != nil {
				return 0, err
			}
			if node.ParentID == 0 {
				continue
			}
			cur = node.ParentID
			continue
		}
		children, err := s.engine.ListChildren(s.ctx, cur, s.actor)
		if err != nil {
			return 0, err
		}
		found := false
		for _, c := range children {
			if c.Node.Name == seg {
				cur = c.Node.ID
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("no such file or folder: %q", seg)
		}
	}
	return cur, nil
}

// displayPath renders a node's materialised path as a human "/a/b/c"
// string by resolving each segment's name; used by pwd and prompts.
func (s *session) displayPath(id int64) string {
	node, err := s.engine.Store.GetNode(s.ctx, id)
	if err != nil {
		return fmt.Sprintf("<node %d>", id)
	}
	var names []string
	for _, segID := range node.Path {
		seg, err := s.engine.Store.GetNode(s.ctx, segID)
		if err != nil {
			names = append(names, fmt.Sprintf("<%d>", segID))
			continue
		}
		names = append(names, seg.Name)
	}
	return "/" + strings.Join(names, "/")
}

// ensurePersonalRoot gets-or-creates the actor's default root so a fresh
// identity can start issuing mkdir/ls/upload without an explicit mkroot.
func (s *session) ensurePersonalRoot() (*store.Root, error) {
	return s.engine.EnsureRoot(s.ctx, s.actor, store.RootPersonal, defaultMaxStorageBytes)
}

const defaultMaxStorageBytes = 50 * 1024 * 1024
