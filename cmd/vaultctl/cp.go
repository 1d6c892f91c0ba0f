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

func cpCommand() *command {
	cmd := newCommand("cp")
	cmd.Description = func() string { return "copies a file or folder: cp [-f] <src> <dst_folder>" }
	overrideFlag := cmd.Bool("f", false, "overwrite a conflicting name at the destination")
	cmd.Action = func(sess *session) error {
		if cmd.NArg() < 2 {
			fmt.Println(cmd.Usage())
			return nil
		}

		srcID, err := sess.resolvePath(sess.cwd, cmd.Arg(0))
		if err != nil {
			return err
		}
		dstID, err := sess.resolvePath(sess.cwd, cmd.Arg(1))
		if err != nil {
			return err
		}

		result, err := sess.engine.Copy(sess.ctx, []int64{srcID}, dstID, *overrideFlag, sess.actor)
		if err != nil {
			return err
		}
		fmt.Println("copied", len(result.Mappings), "node(s)")
		return nil
	}
	return cmd
}
