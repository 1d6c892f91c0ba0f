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

import "fmt"

func rmCommand() *command {
	cmd := newCommand("rm")
	cmd.Description = func() string { return "removes a file or folder: rm <path>" }
	cmd.Action = func(sess *session) error {
		if cmd.NArg() < 1 {
			fmt.Println(cmd.Usage())
			return nil
		}

		id, err := sess.resolvePath(sess.cwd, cmd.Arg(0))
		if err != nil {
			return err
		}

		result, err := sess.engine.Delete(sess.ctx, id, sess.actor)
		if err != nil {
			return err
		}
		fmt.Println("removed", result.NodesDeleted, "node(s)")
		if result.Blobs.Failed > 0 {
			fmt.Println("warning: failed to remove", result.Blobs.Failed, "blob(s)")
		}
		return nil
	}
	return cmd
}
