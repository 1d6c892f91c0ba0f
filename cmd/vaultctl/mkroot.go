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

	"github.com/foldervault/engine/pkg/perm"
	"github.com/foldervault/engine/pkg/store"
)

func mkrootCommand() *command {
	cmd := newCommand("mkroot")
	cmd.Description = func() string { return "bootstrap or switch cwd to a root: mkroot <personal|temporary|org>" }
	cmd.Action = func(sess *session) error {
		if cmd.NArg() < 1 {
			fmt.Println(cmd.Usage())
			return nil
		}

		switch cmd.Arg(0) {
		case "personal":
			root, err := sess.ensurePersonalRoot()
			if err != nil {
				return err
			}
			sess.cwd = root.RootNodeID
		case "temporary":
			root, err := sess.engine.EnsureRoot(sess.ctx, sess.actor, store.RootPersonalTemporary, defaultMaxStorageBytes)
			if err != nil {
				return err
			}
			sess.cwd = root.RootNodeID
		case "org":
			roots, err := sess.engine.Store.ListOrganisationalRoots(sess.ctx)
			if err != nil {
				return err
			}
			if len(roots) > 0 {
				sess.cwd = roots[0].RootNodeID
				fmt.Println("switched to existing organisational root", roots[0].RootNodeID)
				return nil
			}
			root, err := sess.engine.CreateOrganisationalRoot(sess.ctx, defaultMaxStorageBytes)
			if err != nil {
				return err
			}
			if err := sess.engine.Store.Grant(sess.ctx, sess.actor, root.RootNodeID, perm.LevelAdmin); err != nil {
				return err
			}
			sess.cwd = root.RootNodeID
			fmt.Println("created organisational root", root.RootNodeID, "with you as admin")
		default:
			return fmt.Errorf("unknown root kind %q (want personal, temporary or org)", cmd.Arg(0))
		}
		fmt.Println("cwd:", sess.displayPath(sess.cwd))
		return nil
	}
	return cmd
}
