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

// Package errtypes contains the engine's error taxonomy (spec §7). It
// would have been nice to call this package "errors", but that clashes
// with github.com/pkg/errors, and "error" is a reserved word.
package errtypes

import "fmt"

// NoPermission is returned when the actor lacks the level required for
// an operation on a node.
type NoPermission struct {
	NodeID int64
	Detail string
}

func (e NoPermission) Error() string {
	return fmt.Sprintf("error: no permission on node %d: %s", e.NodeID, e.Detail)
}

// IsNoPermission implements the marker interface.
func (e NoPermission) IsNoPermission() {}

// NoPermissionOnSource mirrors NoPermission but is raised specifically for
// the source side of a move; the source is checked before the target.
type NoPermissionOnSource struct {
	NodeID int64
}

func (e NoPermissionOnSource) Error() string {
	return fmt.Sprintf("error: no permission on source node %d", e.NodeID)
}

// IsNoPermissionOnSource implements the marker interface.
func (e NoPermissionOnSource) IsNoPermissionOnSource() {}

// NoPermissionOnTarget is raised when the actor lacks write on the
// destination folder of a copy/move.
type NoPermissionOnTarget struct {
	NodeID int64
}

func (e NoPermissionOnTarget) Error() string {
	return fmt.Sprintf("error: no permission on target node %d", e.NodeID)
}

// IsNoPermissionOnTarget implements the marker interface.
func (e NoPermissionOnTarget) IsNoPermissionOnTarget() {}

// NoPermissionOnDescendants is raised by bulk operations when any
// descendant of a source subtree fails the required level check. NodeID
// is the target folder of the operation; the failing node is not named.
type NoPermissionOnDescendants struct {
	NodeID int64
}

func (e NoPermissionOnDescendants) Error() string {
	return fmt.Sprintf("error: no permission on descendants of node %d", e.NodeID)
}

// IsNoPermissionOnDescendants implements the marker interface.
func (e NoPermissionOnDescendants) IsNoPermissionOnDescendants() {}

// ObjectNotFound is returned when a node (or its blob body) cannot be
// located.
type ObjectNotFound string

func (e ObjectNotFound) Error() string { return "error: object not found: " + string(e) }

// IsObjectNotFound implements the marker interface.
func (e ObjectNotFound) IsObjectNotFound() {}

// ParentNotFound is returned when a create/upload/move names a parent
// folder that does not exist.
type ParentNotFound string

func (e ParentNotFound) Error() string { return "error: parent not found: " + string(e) }

// IsParentNotFound implements the marker interface.
func (e ParentNotFound) IsParentNotFound() {}

// UserNotFound is returned by the permission resolver when the referent
// user is unknown.
type UserNotFound string

func (e UserNotFound) Error() string { return "error: user not found: " + string(e) }

// IsUserNotFound implements the marker interface.
func (e UserNotFound) IsUserNotFound() {}

// RootNotFound is returned when an operation names a root namespace that
// has not been bootstrapped for the user.
type RootNotFound string

func (e RootNotFound) Error() string { return "error: root not found: " + string(e) }

// IsRootNotFound implements the marker interface.
func (e RootNotFound) IsRootNotFound() {}

// CannotCopyRoot is returned when a copy source set includes a registered
// root node.
type CannotCopyRoot struct{ NodeID int64 }

func (e CannotCopyRoot) Error() string {
	return fmt.Sprintf("error: cannot copy root node %d", e.NodeID)
}

// IsCannotCopyRoot implements the marker interface.
func (e CannotCopyRoot) IsCannotCopyRoot() {}

// CannotMoveRoot is returned when a move source set includes a registered
// root node.
type CannotMoveRoot struct{ NodeID int64 }

func (e CannotMoveRoot) Error() string {
	return fmt.Sprintf("error: cannot move root node %d", e.NodeID)
}

// IsCannotMoveRoot implements the marker interface.
func (e CannotMoveRoot) IsCannotMoveRoot() {}

// CrossRoot is returned when a multi-node operation spans more than one
// root namespace.
type CrossRoot struct {
	SourceRootID int64
	TargetRootID int64
}

func (e CrossRoot) Error() string {
	return fmt.Sprintf("error: cross-root operation (source root %d, target root %d)", e.SourceRootID, e.TargetRootID)
}

// IsCrossRoot implements the marker interface.
func (e CrossRoot) IsCrossRoot() {}

// InvalidObjectType is returned when an operation expects a folder and
// receives a file, or vice versa.
type InvalidObjectType string

func (e InvalidObjectType) Error() string { return "error: invalid object type: " + string(e) }

// IsInvalidObjectType implements the marker interface.
func (e InvalidObjectType) IsInvalidObjectType() {}

// NameAlreadyExists is returned when a create/rename/copy/move would
// collide with an existing sibling name and override was not requested.
type NameAlreadyExists struct {
	ConflictingName string
}

func (e NameAlreadyExists) Error() string {
	return fmt.Sprintf("error: name already exists: %q", e.ConflictingName)
}

// IsNameAlreadyExists implements the marker interface.
func (e NameAlreadyExists) IsNameAlreadyExists() {}

// SameFolder is returned when a move targets the node's current parent.
type SameFolder struct{ NodeID int64 }

func (e SameFolder) Error() string {
	return fmt.Sprintf("error: node %d is already in the target folder", e.NodeID)
}

// IsSameFolder implements the marker interface.
func (e SameFolder) IsSameFolder() {}

// CannotWriteToTemporary names a disallowed write to a personal-temporary
// root. No operation in this module returns it: writes to a
// personal-temporary root are accepted like writes to a personal root.
type CannotWriteToTemporary struct{ NodeID int64 }

func (e CannotWriteToTemporary) Error() string {
	return fmt.Sprintf("error: cannot write to temporary root at node %d", e.NodeID)
}

// IsCannotWriteToTemporary implements the marker interface.
func (e CannotWriteToTemporary) IsCannotWriteToTemporary() {}

// StorageExceeded is returned when a write would push a root past its
// max_storage_bytes ceiling.
type StorageExceeded struct {
	RootID    int64
	Requested int64
	Remaining int64
}

func (e StorageExceeded) Error() string {
	return fmt.Sprintf("error: storage exceeded on root %d: requested %d, remaining %d", e.RootID, e.Requested, e.Remaining)
}

// IsStorageExceeded implements the marker interface.
func (e StorageExceeded) IsStorageExceeded() {}

// FileTooLarge is returned when a single upload exceeds a configured
// ceiling independent of the root's remaining quota.
type FileTooLarge struct {
	Size int64
	Max  int64
}

func (e FileTooLarge) Error() string {
	return fmt.Sprintf("error: file too large: %d bytes (max %d)", e.Size, e.Max)
}

// IsFileTooLarge implements the marker interface.
func (e FileTooLarge) IsFileTooLarge() {}

// UploadFailed is the only blob error that aborts a metadata transaction.
type UploadFailed struct{ Cause error }

func (e UploadFailed) Error() string { return fmt.Sprintf("error: upload failed: %v", e.Cause) }

// Unwrap exposes the underlying blob-store error.
func (e UploadFailed) Unwrap() error { return e.Cause }

// IsUploadFailed implements the marker interface.
func (e UploadFailed) IsUploadFailed() {}

// DownloadFailed reports a non-fatal blob download failure.
type DownloadFailed struct {
	Key   string
	Cause error
}

func (e DownloadFailed) Error() string {
	return fmt.Sprintf("error: download failed for key %q: %v", e.Key, e.Cause)
}

// Unwrap exposes the underlying blob-store error.
func (e DownloadFailed) Unwrap() error { return e.Cause }

// IsDownloadFailed implements the marker interface.
func (e DownloadFailed) IsDownloadFailed() {}

// DeleteFailed reports a non-fatal blob delete failure.
type DeleteFailed struct {
	Key   string
	Cause error
}

func (e DeleteFailed) Error() string {
	return fmt.Sprintf("error: delete failed for key %q: %v", e.Key, e.Cause)
}

// Unwrap exposes the underlying blob-store error.
func (e DeleteFailed) Unwrap() error { return e.Cause }

// IsDeleteFailed implements the marker interface.
func (e DeleteFailed) IsDeleteFailed() {}

// CopyFailed reports a non-fatal blob copy failure.
type CopyFailed struct {
	SourceKey string
	DestKey   string
	Cause     error
}

func (e CopyFailed) Error() string {
	return fmt.Sprintf("error: copy failed %q -> %q: %v", e.SourceKey, e.DestKey, e.Cause)
}

// Unwrap exposes the underlying blob-store error.
func (e CopyFailed) Unwrap() error { return e.Cause }

// IsCopyFailed implements the marker interface.
func (e CopyFailed) IsCopyFailed() {}

// BlobNotFound is returned when a blob body is absent for a node that
// metadata says should have one.
type BlobNotFound string

func (e BlobNotFound) Error() string { return "error: blob not found: " + string(e) }

// IsBlobNotFound implements the marker interface.
func (e BlobNotFound) IsBlobNotFound() {}

// Unexpected wraps any error the engine did not anticipate. Callers
// should not pattern-match on it beyond logging the cause.
type Unexpected struct{ Cause error }

func (e Unexpected) Error() string { return fmt.Sprintf("error: unexpected: %v", e.Cause) }

// Unwrap exposes the underlying cause.
func (e Unexpected) Unwrap() error { return e.Cause }

// IsUnexpected implements the marker interface.
func (e Unexpected) IsUnexpected() {}
