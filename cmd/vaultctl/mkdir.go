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
	"path"
)

func mkdirCommand() *command {
	cmd := newCommand("mkdir")
	cmd.Description = func() string { return "creates a folder: mkdir <name|path>" }
	cmd.Action = func(sess *session) error {
		if cmd.NArg() < 1 {
			fmt.Println(cmd.Usage())
			return nil
		}

		dir, name := path.Split(cmd.Arg(0))
		if name == "" {
			return fmt.Errorf("missing folder name in %q", cmd.Arg(0))
		}

		parentID, err := sess.resolvePath(sess.cwd, dir)
		if err != nil {
			return err
		}

		node, err := sess.engine.CreateFolder(sess.ctx, parentID, name, sess.actor)
		if err != nil {
			return err
		}
		fmt.Println("created folder", node.ID, name)
		return nil
	}
	return cmd
}
