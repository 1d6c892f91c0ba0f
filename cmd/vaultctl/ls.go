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

func lsCommand() *command {
	cmd := newCommand("ls")
	cmd.Description = func() string { return "list a folder's contents: ls [path]" }
	longFlag := cmd.Bool("l", false, "long listing (kind, permission, id)")
	cmd.Action = func(sess *session) error {
		target := ""
		if cmd.NArg() >= 1 {
			target = cmd.Arg(0)
		}
		folderID, err := sess.resolvePath(sess.cwd, target)
		if err != nil {
			return err
		}

		rows, err := sess.engine.ListChildren(sess.ctx, folderID, sess.actor)
		if err != nil {
			return err
		}

		for _, row := range rows {
			if *longFlag {
				kind := "file"
				if row.Node.Kind == store.KindFolder {
					kind = "dir"
				}
				fmt.Printf("%-4s %-6s %8d  %s\n", kind, row.Permission, row.Node.ID, row.Node.Name)
			} else {
				fmt.Println(row.Node.Name)
			}
		}
		return nil
	}
	return cmd
}
