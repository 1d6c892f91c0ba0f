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
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/foldervault/engine/pkg/errtypes"
	"github.com/foldervault/engine/pkg/pathid"
	"github.com/foldervault/engine/pkg/perm"
	"github.com/google/uuid"
)

// InMemoryStore is a map-backed Store used by engine tests and the
// package's own invariant tests, following the corpus's in-memory
// storage test-double convention (see other_examples'
// papercomputeco-tapes inmemory store). It implements the same
// algorithms the PostgresStore expresses in SQL (two-step insert, single-
// statement-equivalent subtree rewrite, ordered copy) purely in Go so
// spec §8's property tests can run without a live database.
type InMemoryStore struct {
	mu sync.Mutex

	nodes map[int64]Node
	roots map[int64]Root
	// rootByUserKind[userID][kind] = root node id, for personal/personal-temporary roots.
	rootByUserKind map[uuid.UUID]map[RootKind]int64
	orgRoots       []int64
	grants         map[uuid.UUID]map[int64]perm.Level
	knownUsers     map[uuid.UUID]bool

	nextNodeID int64
	nextRootID int64
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		nodes:          map[int64]Node{},
		roots:          map[int64]Root{},
		rootByUserKind: map[uuid.UUID]map[RootKind]int64{},
		grants:         map[uuid.UUID]map[int64]perm.Level{},
		knownUsers:     map[uuid.UUID]bool{},
		nextNodeID:     1,
		nextRootID:     1,
	}
}

func (s *InMemoryStore) cloneLocked() *InMemoryStore {
	c := &InMemoryStore{
		nodes:          make(map[int64]Node, len(s.nodes)),
		roots:          make(map[int64]Root, len(s.roots)),
		rootByUserKind: make(map[uuid.UUID]map[RootKind]int64, len(s.rootByUserKind)),
		orgRoots:       append([]int64(nil), s.orgRoots...),
		grants:         make(map[uuid.UUID]map[int64]perm.Level, len(s.grants)),
		knownUsers:     make(map[uuid.UUID]bool, len(s.knownUsers)),
		nextNodeID:     s.nextNodeID,
		nextRootID:     s.nextRootID,
	}
	for k, v := range s.nodes {
		c.nodes[k] = v
	}
	for k, v := range s.roots {
		c.roots[k] = v
	}
	for u, m := range s.rootByUserKind {
		cm := make(map[RootKind]int64, len(m))
		for k, v := range m {
			cm[k] = v
		}
		c.rootByUserKind[u] = cm
	}
	for u, m := range s.grants {
		cm := make(map[int64]perm.Level, len(m))
		for k, v := range m {
			cm[k] = v
		}
		c.grants[u] = cm
	}
	for u := range s.knownUsers {
		c.knownUsers[u] = true
	}
	return c
}

// WithTx gives fn a private clone of the store; fn's error discards the
// clone, success commits it back as the new state. This mirrors, at the
// level of an in-memory test double, the single-DB-transaction scope
// spec §5 requires of every metadata mutation.
func (s *InMemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	s.mu.Lock()
	tmp := s.cloneLocked()
	s.mu.Unlock()

	if err := fn(ctx, tmp); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = tmp.nodes
	s.roots = tmp.roots
	s.rootByUserKind = tmp.rootByUserKind
	s.orgRoots = tmp.orgRoots
	s.grants = tmp.grants
	s.knownUsers = tmp.knownUsers
	s.nextNodeID = tmp.nextNodeID
	s.nextRootID = tmp.nextRootID
	return nil
}

func (s *InMemoryStore) registerUser(u uuid.UUID) {
	s.knownUsers[u] = true
}

// --- perm.GrantStore ---

func (s *InMemoryStore) NodeExists(ctx context.Context, nodeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nodes[nodeID]
	return ok, nil
}

func (s *InMemoryStore) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.knownUsers[userID], nil
}

func (s *InMemoryStore) NodePath(ctx context.Context, nodeID int64) (pathid.Path, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[nodeID]
	if !ok {
		return nil, errtypes.ObjectNotFound(fmt.Sprintf("%d", nodeID))
	}
	return n.Path.Clone(), nil
}

func (s *InMemoryStore) GrantsOnNodes(ctx context.Context, userID uuid.UUID, nodeIDs []int64) ([]perm.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []perm.Grant
	for _, id := range nodeIDs {
		if lvl, ok := s.grants[userID][id]; ok {
			out = append(out, perm.Grant{NodeID: id, Level: lvl})
		}
	}
	return out, nil
}

func (s *InMemoryStore) HasDescendantGrant(ctx context.Context, userID uuid.UUID, target pathid.Path) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for nodeID := range s.grants[userID] {
		n, ok := s.nodes[nodeID]
		if !ok {
			continue
		}
		if pathid.IsDescendantOf(n.Path, target) && !n.Path.Equal(target) {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) SubtreePaths(ctx context.Context, root pathid.Path) ([]pathid.Path, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []pathid.Path
	for _, n := range s.nodes {
		if pathid.IsDescendantOf(n.Path, root) {
			out = append(out, n.Path.Clone())
		}
	}
	return out, nil
}

// --- roots ---

func (s *InMemoryStore) CreateRoot(ctx context.Context, ownerUser *uuid.UUID, kind RootKind, maxStorageBytes int64) (*Root, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind == RootOrganisational && ownerUser != nil {
		return nil, errtypes.Unexpected{Cause: fmt.Errorf("organisational roots have no owner user")}
	}
	if kind != RootOrganisational && ownerUser == nil {
		return nil, errtypes.Unexpected{Cause: fmt.Errorf("personal and personal-temporary roots require an owner user")}
	}
	if ownerUser != nil {
		if existing, ok := s.rootByUserKind[*ownerUser][kind]; ok {
			return nil, errtypes.Unexpected{Cause: fmt.Errorf("root of kind %s already exists for user at node %d", kind, existing)}
		}
	}

	id := s.nextNodeID
	s.nextNodeID++
	node := Node{
		ID:        id,
		Name:      kind.String(),
		Kind:      KindFolder,
		Path:      pathid.Path{id},
		ParentID:  0,
		CreatedAt: time.Now(),
	}
	s.nodes[id] = node

	rootID := s.nextRootID
	s.nextRootID++
	root := Root{
		ID:              rootID,
		RootNodeID:      id,
		Kind:            kind,
		OwnerUserID:     ownerUser,
		MaxStorageBytes: maxStorageBytes,
	}
	s.roots[rootID] = root

	if ownerUser != nil {
		s.registerUser(*ownerUser)
		if s.grants[*ownerUser] == nil {
			s.grants[*ownerUser] = map[int64]perm.Level{}
		}
		s.grants[*ownerUser][id] = perm.LevelOwner
		if s.rootByUserKind[*ownerUser] == nil {
			s.rootByUserKind[*ownerUser] = map[RootKind]int64{}
		}
		s.rootByUserKind[*ownerUser][kind] = id
	} else {
		s.orgRoots = append(s.orgRoots, rootID)
	}

	out := root
	return &out, nil
}

func (s *InMemoryStore) RootForUser(ctx context.Context, userID uuid.UUID, kind RootKind) (*Root, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nodeID, ok := s.rootByUserKind[userID][kind]
	if !ok {
		return nil, errtypes.RootNotFound(fmt.Sprintf("user %s kind %s", userID, kind))
	}
	for _, r := range s.roots {
		if r.RootNodeID == nodeID {
			out := r
			return &out, nil
		}
	}
	return nil, errtypes.RootNotFound(fmt.Sprintf("user %s kind %s", userID, kind))
}

func (s *InMemoryStore) ListOrganisationalRoots(ctx context.Context) ([]Root, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Root, 0, len(s.orgRoots))
	for _, id := range s.orgRoots {
		out = append(out, s.roots[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) RootByNodeID(ctx context.Context, rootNodeID int64) (*Root, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roots {
		if r.RootNodeID == rootNodeID {
			out := r
			return &out, nil
		}
	}
	return nil, errtypes.RootNotFound(fmt.Sprintf("%d", rootNodeID))
}

// --- nodes ---

func (s *InMemoryStore) GetNode(ctx context.Context, id int64) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil, errtypes.ObjectNotFound(fmt.Sprintf("%d", id))
	}
	out := n
	return &out, nil
}

func (s *InMemoryStore) childrenOfLocked(parentID int64) []Node {
	var out []Node
	for _, n := range s.nodes {
		if n.ParentID == parentID {
			out = append(out, n)
		}
	}
	return out
}

func (s *InMemoryStore) CreateFolder(ctx context.Context, parentID int64, name string) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.nodes[parentID]
	if !ok {
		return nil, errtypes.ParentNotFound(fmt.Sprintf("%d", parentID))
	}
	if parent.Kind != KindFolder {
		return nil, errtypes.InvalidObjectType(fmt.Sprintf("parent %d is not a folder", parentID))
	}
	for _, c := range s.childrenOfLocked(parentID) {
		if c.Name == name {
			return nil, errtypes.NameAlreadyExists{ConflictingName: name}
		}
	}

	id := s.nextNodeID
	s.nextNodeID++
	node := Node{
		ID:        id,
		Name:      name,
		Kind:      KindFolder,
		Path:      pathid.Child(parent.Path, id),
		ParentID:  parentID,
		CreatedAt: time.Now(),
	}
	s.nodes[id] = node
	out := node
	return &out, nil
}

func (s *InMemoryStore) CreateFile(ctx context.Context, parentID int64, name string, meta FileMeta) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.nodes[parentID]
	if !ok {
		return nil, errtypes.ParentNotFound(fmt.Sprintf("%d", parentID))
	}
	if parent.Kind != KindFolder {
		return nil, errtypes.InvalidObjectType(fmt.Sprintf("parent %d is not a folder", parentID))
	}
	for _, c := range s.childrenOfLocked(parentID) {
		if c.Name == name {
			return nil, errtypes.NameAlreadyExists{ConflictingName: name}
		}
	}

	id := s.nextNodeID
	s.nextNodeID++
	size := meta.SizeBytes
	mime := meta.MimeType
	node := Node{
		ID:        id,
		Name:      name,
		Kind:      KindFile,
		Path:      pathid.Child(parent.Path, id),
		ParentID:  parentID,
		CreatedAt: time.Now(),
		SizeBytes: &size,
		MimeType:  &mime,
		ExpiresAt: meta.ExpiresAt,
		Metadata:  meta.Metadata,
	}
	s.nodes[id] = node
	out := node
	return &out, nil
}

func (s *InMemoryStore) ListChildren(ctx context.Context, folderID int64, userID uuid.UUID) ([]ChildRow, error) {
	s.mu.Lock()
	folder, ok := s.nodes[folderID]
	if !ok {
		s.mu.Unlock()
		return nil, errtypes.ObjectNotFound(fmt.Sprintf("%d", folderID))
	}
	if folder.Kind != KindFolder {
		s.mu.Unlock()
		return nil, errtypes.InvalidObjectType(fmt.Sprintf("%d is not a folder", folderID))
	}
	children := s.childrenOfLocked(folderID)
	s.mu.Unlock()

	resolver := perm.New(s)
	out := make([]ChildRow, 0, len(children))
	for _, c := range children {
		lvl, err := resolver.Effective(ctx, userID, c.ID)
		if _, unknownUser := err.(errtypes.UserNotFound); unknownUser {
			return out, nil // a user with no root and no grant sees nothing
		}
		if err != nil {
			return nil, err
		}
		if lvl == perm.LevelNone {
			continue
		}
		out = append(out, ChildRow{Node: c, Permission: lvl})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Node, out[j].Node
		if a.Kind != b.Kind {
			return a.Kind == KindFolder
		}
		return a.Name < b.Name
	})
	return out, nil
}

func (s *InMemoryStore) Rename(ctx context.Context, id int64, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return errtypes.ObjectNotFound(fmt.Sprintf("%d", id))
	}
	for _, c := range s.childrenOfLocked(n.ParentID) {
		if c.ID != id && c.Name == newName {
			return errtypes.NameAlreadyExists{ConflictingName: newName}
		}
	}
	n.Name = newName
	s.nodes[id] = n
	return nil
}

func (s *InMemoryStore) FindNameConflicts(ctx context.Context, targetFolderID int64, candidateNames []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := map[string]bool{}
	for _, c := range s.childrenOfLocked(targetFolderID) {
		existing[c.Name] = true
	}
	var out []string
	for _, name := range candidateNames {
		if existing[name] {
			out = append(out, name)
		}
	}
	return out, nil
}

// subtreeIDsLocked returns id and every descendant id of the node at id,
// in no particular order. Caller must hold s.mu.
func (s *InMemoryStore) subtreeIDsLocked(root pathid.Path) []int64 {
	var out []int64
	for nid, n := range s.nodes {
		if pathid.IsDescendantOf(n.Path, root) {
			out = append(out, nid)
		}
	}
	return out
}

func (s *InMemoryStore) deleteIDsLocked(ids []int64) {
	for _, id := range ids {
		delete(s.nodes, id)
	}
	idSet := make(map[int64]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	for user, m := range s.grants {
		for nodeID := range m {
			if idSet[nodeID] {
				delete(s.grants[user], nodeID)
			}
		}
	}
}

func (s *InMemoryStore) DeleteNodesByIDs(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []int64
	for _, id := range ids {
		n, ok := s.nodes[id]
		if !ok {
			continue
		}
		all = append(all, s.subtreeIDsLocked(n.Path)...)
	}
	s.deleteIDsLocked(all)
	return nil
}

func (s *InMemoryStore) MoveSubtree(ctx context.Context, id, newParentID int64, override bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return 0, errtypes.ObjectNotFound(fmt.Sprintf("%d", id))
	}
	if node.IsRoot() {
		return 0, errtypes.CannotMoveRoot{NodeID: id}
	}
	newParent, ok := s.nodes[newParentID]
	if !ok {
		return 0, errtypes.ParentNotFound(fmt.Sprintf("%d", newParentID))
	}
	if newParent.Kind != KindFolder {
		return 0, errtypes.InvalidObjectType(fmt.Sprintf("%d is not a folder", newParentID))
	}
	if newParentID == node.ParentID {
		return 0, errtypes.SameFolder{NodeID: id}
	}
	if node.Path.RootID() != newParent.Path.RootID() {
		return 0, errtypes.CrossRoot{SourceRootID: node.Path.RootID(), TargetRootID: newParent.Path.RootID()}
	}
	if pathid.IsDescendantOf(newParent.Path, node.Path) {
		return 0, errtypes.InvalidObjectType(fmt.Sprintf("cannot move node %d into its own subtree", id))
	}

	if conflict, ok := s.findSiblingLocked(newParentID, node.Name, id); ok {
		if !override {
			return 0, errtypes.NameAlreadyExists{ConflictingName: node.Name}
		}
		s.deleteIDsLocked(s.subtreeIDsLocked(conflict.Path))
	}

	old := node.Path
	newPath := pathid.Child(newParent.Path, id)
	subtreeIDs := s.subtreeIDsLocked(old)

	count := 0
	for _, nid := range subtreeIDs {
		n := s.nodes[nid]
		if nid == id {
			n.Path = newPath
			n.ParentID = newParentID
		} else {
			suffix := pathid.SubpathFrom(n.Path, old.Level())
			n.Path = pathid.Concat(newPath, suffix)
		}
		s.nodes[nid] = n
		count++
	}
	return count, nil
}

func (s *InMemoryStore) findSiblingLocked(parentID int64, name string, excludeID int64) (Node, bool) {
	for _, c := range s.childrenOfLocked(parentID) {
		if c.ID != excludeID && c.Name == name {
			return c, true
		}
	}
	return Node{}, false
}

func (s *InMemoryStore) CopySubtree(ctx context.Context, srcIDs []int64, targetFolderID int64, override bool) ([]CopyMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.nodes[targetFolderID]
	if !ok {
		return nil, errtypes.ParentNotFound(fmt.Sprintf("%d", targetFolderID))
	}
	if target.Kind != KindFolder {
		return nil, errtypes.InvalidObjectType(fmt.Sprintf("%d is not a folder", targetFolderID))
	}

	var srcNodes []Node
	var names []string
	for _, id := range srcIDs {
		n, ok := s.nodes[id]
		if !ok {
			return nil, errtypes.ObjectNotFound(fmt.Sprintf("%d", id))
		}
		if n.IsRoot() {
			return nil, errtypes.CannotCopyRoot{NodeID: id}
		}
		if n.Path.RootID() != target.Path.RootID() {
			return nil, errtypes.CrossRoot{SourceRootID: n.Path.RootID(), TargetRootID: target.Path.RootID()}
		}
		srcNodes = append(srcNodes, n)
		names = append(names, n.Name)
	}

	conflicts, _ := s.findNameConflictsLocked(targetFolderID, names)
	if len(conflicts) > 0 {
		if !override {
			return nil, errtypes.NameAlreadyExists{ConflictingName: conflicts[0]}
		}
		for _, c := range s.childrenOfLocked(targetFolderID) {
			for _, name := range conflicts {
				if c.Name == name {
					s.deleteIDsLocked(s.subtreeIDsLocked(c.Path))
				}
			}
		}
	}

	idMap := map[int64]int64{}
	newPathOf := map[int64]pathid.Path{}
	var result []CopyMapping

	for _, src := range srcNodes {
		subtree := s.collectSubtreeOrderedLocked(src.Path)
		for _, n := range subtree {
			var newParentPath pathid.Path
			if n.ID == src.ID {
				newParentPath = target.Path
			} else {
				newParentPath = newPathOf[n.ParentID]
			}
			newID := s.nextNodeID
			s.nextNodeID++
			newPath := pathid.Child(newParentPath, newID)

			var newParentID int64
			if n.ID == src.ID {
				newParentID = targetFolderID
			} else {
				newParentID = idMap[n.ParentID]
			}

			var size *int64
			if n.SizeBytes != nil {
				v := *n.SizeBytes
				size = &v
			}
			var mime *string
			if n.MimeType != nil {
				v := *n.MimeType
				mime = &v
			}
			clone := Node{
				ID:        newID,
				Name:      n.Name,
				Kind:      n.Kind,
				Path:      newPath,
				ParentID:  newParentID,
				CreatedAt: time.Now(),
				ExpiresAt: n.ExpiresAt,
				SizeBytes: size,
				MimeType:  mime,
				Metadata:  n.Metadata,
			}
			s.nodes[newID] = clone
			idMap[n.ID] = newID
			newPathOf[n.ID] = newPath

			result = append(result, CopyMapping{
				OldPath: n.Path,
				NewPath: newPath,
				Kind:    n.Kind,
				OldID:   n.ID,
				NewID:   newID,
			})
		}
	}
	return result, nil
}

func (s *InMemoryStore) findNameConflictsLocked(targetFolderID int64, names []string) ([]string, error) {
	existing := map[string]bool{}
	for _, c := range s.childrenOfLocked(targetFolderID) {
		existing[c.Name] = true
	}
	var out []string
	for _, name := range names {
		if existing[name] {
			out = append(out, name)
		}
	}
	return out, nil
}

// collectSubtreeOrderedLocked returns root and every descendant, ordered
// by path level ascending (ancestors first), as spec §4.3 "Copy subtree"
// requires so each node's new parent is already cloned by the time the
// node itself is processed.
func (s *InMemoryStore) collectSubtreeOrderedLocked(root pathid.Path) []Node {
	var out []Node
	for _, n := range s.nodes {
		if pathid.IsDescendantOf(n.Path, root) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path.Level() < out[j].Path.Level() })
	return out
}

func (s *InMemoryStore) DeleteSubtree(ctx context.Context, id int64) (DeletedSubtree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok {
		return DeletedSubtree{}, errtypes.ObjectNotFound(fmt.Sprintf("%d", id))
	}
	ids := s.subtreeIDsLocked(node.Path)

	var out DeletedSubtree
	for _, nid := range ids {
		n := s.nodes[nid]
		out.Paths = append(out.Paths, n.Path)
		out.Kinds = append(out.Kinds, n.Kind)
	}
	s.deleteIDsLocked(ids)

	if node.IsRoot() {
		for rid, r := range s.roots {
			if r.RootNodeID == id {
				delete(s.roots, rid)
				if r.OwnerUserID != nil {
					delete(s.rootByUserKind[*r.OwnerUserID], r.Kind)
				} else {
					for i, orid := range s.orgRoots {
						if orid == rid {
							s.orgRoots = append(s.orgRoots[:i], s.orgRoots[i+1:]...)
							break
						}
					}
				}
			}
		}
	}
	return out, nil
}

// --- grants ---

func (s *InMemoryStore) Grant(ctx context.Context, targetUser uuid.UUID, nodeID int64, level perm.Level) error {
	if level == perm.LevelOwner {
		return errtypes.Unexpected{Cause: fmt.Errorf("owner level cannot be granted by share")}
	}

	s.mu.Lock()
	if _, ok := s.nodes[nodeID]; !ok {
		s.mu.Unlock()
		return errtypes.ObjectNotFound(fmt.Sprintf("%d", nodeID))
	}
	s.mu.Unlock()

	resolver := perm.New(s)
	current, err := resolver.Effective(ctx, targetUser, nodeID)
	if err != nil {
		if _, ok := err.(errtypes.UserNotFound); !ok {
			return err
		}
	}
	if current.AtLeast(level) && current != perm.LevelNone {
		return nil // already has >= level via ancestor inheritance
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.registerUser(targetUser)
	if s.grants[targetUser] == nil {
		s.grants[targetUser] = map[int64]perm.Level{}
	}
	s.grants[targetUser][nodeID] = level
	return nil
}

func (s *InMemoryStore) Revoke(ctx context.Context, targetUser uuid.UUID, nodeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants[targetUser], nodeID)
	return nil
}

func (s *InMemoryStore) ListGrants(ctx context.Context, nodeID int64) ([]AggregatedGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[nodeID]
	if !ok {
		return nil, errtypes.ObjectNotFound(fmt.Sprintf("%d", nodeID))
	}

	best := map[uuid.UUID]AggregatedGrant{}
	for _, segID := range node.Path {
		for user, m := range s.grants {
			lvl, ok := m[segID]
			if !ok {
				continue
			}
			cur, exists := best[user]
			// Path runs root to node, so >= hands a level tie to the deeper node.
			if !exists || lvl >= cur.Level {
				best[user] = AggregatedGrant{UserID: user, Level: lvl, GrantedOnNodeID: segID}
			}
		}
	}

	out := make([]AggregatedGrant, 0, len(best))
	for _, g := range best {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID.String() < out[j].UserID.String() })
	return out, nil
}

func (s *InMemoryStore) GrantsDirectByUser(ctx context.Context, userID uuid.UUID) ([]GrantRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []GrantRow
	for nodeID, lvl := range s.grants[userID] {
		out = append(out, GrantRow{UserID: userID, NodeID: nodeID, Level: lvl})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out, nil
}

func (s *InMemoryStore) SubtreeNodes(ctx context.Context, root pathid.Path, maxDepth int) ([]Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	baseLevel := root.Level()
	var out []Node
	for _, n := range s.nodes {
		if !pathid.IsDescendantOf(n.Path, root) {
			continue
		}
		if maxDepth >= 0 && n.Path.Level()-baseLevel > maxDepth {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
