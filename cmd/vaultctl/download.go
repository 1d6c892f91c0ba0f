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
	"os"
	"path/filepath"
)

func downloadCommand() *command {
	cmd := newCommand("download")
	cmd.Description = func() string { return "download a file: download <remote_path> [local_path]" }
	cmd.Action = func(sess *session) error {
		if cmd.NArg() < 1 {
			fmt.Println(cmd.Usage())
			return nil
		}

		id, err := sess.resolvePath(sess.cwd, cmd.Arg(0))
		if err != nil {
			return err
		}

		node, err := sess.engine.GetFile(sess.ctx, id, sess.actor)
		if err != nil {
			return err
		}

		body, err := sess.engine.DownloadFile(sess.ctx, id, sess.actor)
		if err != nil {
			return err
		}

		localPath := node.Name
		if cmd.NArg() >= 2 {
			localPath = cmd.Arg(1)
		}
		if err := os.WriteFile(filepath.Clean(localPath), body, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", localPath, err)
		}
		fmt.Println("downloaded", len(body), "bytes to", localPath)
		return nil
	}
	return cmd
}
