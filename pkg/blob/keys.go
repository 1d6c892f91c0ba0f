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

// Package blob coordinates file bodies against an S3-compatible object
// store: path-to-key mapping and bounded-concurrency upload/download/
// delete/copy primitives, plus the combined metadata+blob operations the
// engine drives (spec §4.4).
package blob

import (
	"strconv"
	"strings"

	"github.com/foldervault/engine/pkg/pathid"
	"github.com/foldervault/engine/pkg/store"
)

// Key renders a node's materialised path as a bucket key: the "." segment
// separator becomes "/", and folder keys carry a trailing "/".
func Key(p pathid.Path, kind store.Kind) string {
	segs := make([]string, len(p))
	for i, id := range p {
		segs[i] = strconv.FormatInt(id, 10)
	}
	key := strings.Join(segs, "/")
	if kind == store.KindFolder {
		key += "/"
	}
	return key
}
