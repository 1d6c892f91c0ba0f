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

func sharesCommand() *command {
	cmd := newCommand("shares")
	cmd.Description = func() string { return "lists the grants on a node: shares <path>" }
	cmd.Action = func(sess *session) error {
		target := ""
		if cmd.NArg() >= 1 {
			target = cmd.Arg(0)
		}
		id, err := sess.resolvePath(sess.cwd, target)
		if err != nil {
			return err
		}

		grants, err := sess.engine.ListGrants(sess.ctx, id, sess.actor)
		if err != nil {
			return err
		}

		for _, g := range grants {
			fmt.Printf("%-6s %s (granted on node %d)\n", g.Level, g.UserID, g.GrantedOnNodeID)
		}
		return nil
	}
	return cmd
}
