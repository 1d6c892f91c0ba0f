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
	"fmt"

	"github.com/foldervault/engine/pkg/store"
)

func cdCommand() *command {
	cmd := newCommand("cd")
	cmd.Description = func() string { return "change the current folder: cd <path|..>" }
	cmd.Action = func(sess *session) error {
		target := ""
		if cmd.NArg() >= 1 {
			target = cmd.Arg(0)
		}
		id, err := sess.resolvePath(sess.cwd, target)
		if err != nil {
			return err
		}
		node, err := sess.engine.Store.GetNode(sess.ctx, id)
		if err != nil {
			return err
		}
		if node.Kind != store.KindFolder {
			return fmt.Errorf("%s is not a folder", target)
		}
		sess.cwd = id
		return nil
	}
	return cmd
}
