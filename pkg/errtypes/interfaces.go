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

package errtypes

// IsNoPermission is the interface to implement to specify that an actor
// lacks the permission required for an operation.
type IsNoPermission interface{ IsNoPermission() }

// IsNoPermissionOnSource marks a no-permission error raised on a copy/move
// source.
type IsNoPermissionOnSource interface{ IsNoPermissionOnSource() }

// IsNoPermissionOnTarget marks a no-permission error raised on a copy/move
// target.
type IsNoPermissionOnTarget interface{ IsNoPermissionOnTarget() }

// IsNoPermissionOnDescendants marks a no-permission error raised while
// walking a source subtree.
type IsNoPermissionOnDescendants interface{ IsNoPermissionOnDescendants() }

// IsObjectNotFound marks a not-found error for a node or blob.
type IsObjectNotFound interface{ IsObjectNotFound() }

// IsParentNotFound marks a not-found error for a named parent folder.
type IsParentNotFound interface{ IsParentNotFound() }

// IsUserNotFound marks a not-found error for a user referent.
type IsUserNotFound interface{ IsUserNotFound() }

// IsRootNotFound marks a not-found error for a root namespace.
type IsRootNotFound interface{ IsRootNotFound() }

// IsCannotCopyRoot marks a validation error on copying a root node.
type IsCannotCopyRoot interface{ IsCannotCopyRoot() }

// IsCannotMoveRoot marks a validation error on moving a root node.
type IsCannotMoveRoot interface{ IsCannotMoveRoot() }

// IsCrossRoot marks a validation error spanning more than one root.
type IsCrossRoot interface{ IsCrossRoot() }

// IsInvalidObjectType marks a validation error on node kind.
type IsInvalidObjectType interface{ IsInvalidObjectType() }

// IsNameAlreadyExists marks a sibling name conflict.
type IsNameAlreadyExists interface{ IsNameAlreadyExists() }

// IsSameFolder marks a move onto the node's current parent.
type IsSameFolder interface{ IsSameFolder() }

// IsCannotWriteToTemporary marks a disallowed write to a temporary root.
type IsCannotWriteToTemporary interface{ IsCannotWriteToTemporary() }

// IsStorageExceeded marks a quota error.
type IsStorageExceeded interface{ IsStorageExceeded() }

// IsFileTooLarge marks a single-file size ceiling error.
type IsFileTooLarge interface{ IsFileTooLarge() }

// IsUploadFailed marks the one blob error that aborts a transaction.
type IsUploadFailed interface{ IsUploadFailed() }

// IsDownloadFailed marks a non-fatal blob download error.
type IsDownloadFailed interface{ IsDownloadFailed() }

// IsDeleteFailed marks a non-fatal blob delete error.
type IsDeleteFailed interface{ IsDeleteFailed() }

// IsCopyFailed marks a non-fatal blob copy error.
type IsCopyFailed interface{ IsCopyFailed() }

// IsBlobNotFound marks a missing blob body.
type IsBlobNotFound interface{ IsBlobNotFound() }

// IsUnexpected marks the catch-all error wrapper.
type IsUnexpected interface{ IsUnexpected() }
