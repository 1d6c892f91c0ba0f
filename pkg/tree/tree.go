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

// Package tree materialises bounded-depth views of the node hierarchy,
// annotated with each row's effective permission, and aggregates the
// personal/organisational/shared root views (spec §4.5).
package tree

import (
	"context"
	"errors"
	"sort"

	"github.com/foldervault/engine/pkg/errtypes"
	"github.com/foldervault/engine/pkg/pathid"
	"github.com/foldervault/engine/pkg/perm"
	"github.com/foldervault/engine/pkg/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Node is one materialised tree row. Children is nil when unloaded
// (the node sat at exactly max_depth, or was inaccessible), an empty
// non-nil slice when loaded-but-empty, and populated otherwise — the
// three-way distinction spec §4.5 requires callers be able to tell apart.
type Node struct {
	ID         int64
	Name       string
	Kind       store.Kind
	Path       pathid.Path
	Permission perm.Level
	Children   []*Node
}

// Roots is the aggregated view returned by GetRootsWithHierarchy.
type Roots struct {
	Personal       *Node
	Organisational []*Node
	Shared         []*Node
}

// Materialiser wires a Store and a Resolver to build Tree/Roots views.
type Materialiser struct {
	store    store.Store
	resolver *perm.Resolver
}

// New builds a Materialiser over store, with its own Resolver.
func New(s store.Store) *Materialiser {
	return &Materialiser{store: s, resolver: perm.New(s)}
}

// GetHierarchy fetches start's subtree down to maxDepth levels below it,
// annotated per-row with userID's effective permission; rows the user
// cannot see are elided entirely (spec §4.5). maxDepth < 0 means
// unbounded. Returns nil if start itself is invisible to the user.
func (m *Materialiser) GetHierarchy(ctx context.Context, startID int64, userID uuid.UUID, maxDepth int) (*Node, error) {
	startNode, err := m.store.GetNode(ctx, startID)
	if err != nil {
		return nil, err
	}
	rootLevel, err := m.effectiveAtLeastVisible(ctx, userID, startID)
	if err != nil {
		return nil, err
	}
	if rootLevel == perm.LevelNone {
		return nil, nil
	}

	rows, err := m.store.SubtreeNodes(ctx, startNode.Path, maxDepth)
	if err != nil {
		return nil, err
	}

	byParent := map[int64][]store.Node{}
	permOf := map[int64]perm.Level{startID: rootLevel}
	for _, n := range rows {
		if n.ID == startID {
			continue
		}
		lvl, err := m.resolver.Effective(ctx, userID, n.ID)
		if err != nil {
			return nil, err
		}
		if lvl == perm.LevelNone {
			continue
		}
		permOf[n.ID] = lvl
		byParent[n.ParentID] = append(byParent[n.ParentID], n)
	}

	baseLevel := startNode.Path.Level()
	return m.buildNode(*startNode, permOf[startID], byParent, permOf, baseLevel, maxDepth), nil
}

func (m *Materialiser) effectiveAtLeastVisible(ctx context.Context, userID uuid.UUID, nodeID int64) (perm.Level, error) {
	return m.resolver.Effective(ctx, userID, nodeID)
}

func (m *Materialiser) buildNode(n store.Node, permission perm.Level, byParent map[int64][]store.Node, permOf map[int64]perm.Level, baseLevel, maxDepth int) *Node {
	out := &Node{ID: n.ID, Name: n.Name, Kind: n.Kind, Path: n.Path, Permission: permission}
	if n.Kind != store.KindFolder {
		return out
	}

	depth := n.Path.Level() - baseLevel
	unloaded := maxDepth >= 0 && depth >= maxDepth
	if unloaded {
		out.Children = nil
		return out
	}

	kids := byParent[n.ID]
	sort.Slice(kids, func(i, j int) bool {
		if kids[i].Kind != kids[j].Kind {
			return kids[i].Kind == store.KindFolder
		}
		return kids[i].Name < kids[j].Name
	})

	out.Children = make([]*Node, 0, len(kids))
	for _, k := range kids {
		out.Children = append(out.Children, m.buildNode(k, permOf[k.ID], byParent, permOf, baseLevel, maxDepth))
	}
	return out
}

// GetRootsWithHierarchy aggregates the personal, organisational and
// shared-with-me views for userID (spec §4.5), fetching each root's
// hierarchy in parallel via errgroup, capped implicitly by the shared
// connection pool rather than a materialiser-owned semaphore.
func (m *Materialiser) GetRootsWithHierarchy(ctx context.Context, userID uuid.UUID, maxDepth int) (*Roots, error) {
	var out Roots
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		personalRoot, err := m.store.RootForUser(gctx, userID, store.RootPersonal)
		if err != nil {
			var notFound errtypes.RootNotFound
			if errors.As(err, &notFound) {
				return nil
			}
			return err
		}
		tree, err := m.GetHierarchy(gctx, personalRoot.RootNodeID, userID, maxDepth)
		if err != nil {
			return err
		}
		out.Personal = tree
		return nil
	})

	g.Go(func() error {
		orgs, err := m.store.ListOrganisationalRoots(gctx)
		if err != nil {
			return err
		}
		trees := make([]*Node, len(orgs))
		inner, innerCtx := errgroup.WithContext(gctx)
		for i, r := range orgs {
			i, r := i, r
			inner.Go(func() error {
				t, err := m.GetHierarchy(innerCtx, r.RootNodeID, userID, maxDepth)
				if err != nil {
					return err
				}
				if t == nil {
					node, err := m.store.GetNode(innerCtx, r.RootNodeID)
					if err != nil {
						return err
					}
					t = &Node{ID: node.ID, Name: node.Name, Kind: node.Kind, Path: node.Path, Permission: perm.LevelNone, Children: nil}
				}
				trees[i] = t
				return nil
			})
		}
		if err := inner.Wait(); err != nil {
			return err
		}
		out.Organisational = trees
		return nil
	})

	g.Go(func() error {
		shared, err := m.sharedWith(gctx, userID, maxDepth)
		if err != nil {
			return err
		}
		out.Shared = shared
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// sharedWith implements the "shared with me" aggregate: every node the
// user holds a direct grant on that lives under some other user's
// personal root. Organisational grants are excluded by construction,
// since organisational roots have no OwnerUserID (spec §9 ambiguity
// resolution "shared-view identity").
func (m *Materialiser) sharedWith(ctx context.Context, userID uuid.UUID, maxDepth int) ([]*Node, error) {
	grants, err := m.store.GrantsDirectByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var shared []*Node
	for _, grant := range grants {
		node, err := m.store.GetNode(ctx, grant.NodeID)
		if err != nil {
			continue
		}
		root, err := m.rootOwning(ctx, node.Path)
		if err != nil || root == nil {
			continue
		}
		if root.Kind != store.RootPersonal && root.Kind != store.RootPersonalTemporary {
			continue
		}
		if root.OwnerUserID == nil || *root.OwnerUserID == userID {
			continue
		}
		t, err := m.GetHierarchy(ctx, node.ID, userID, maxDepth)
		if err != nil {
			return nil, err
		}
		if t != nil {
			shared = append(shared, t)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i].Name < shared[j].Name })
	return shared, nil
}

func (m *Materialiser) rootOwning(ctx context.Context, path pathid.Path) (*store.Root, error) {
	return m.store.RootByNodeID(ctx, path.RootID())
}
