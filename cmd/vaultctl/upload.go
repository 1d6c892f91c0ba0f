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
	"mime"
	"os"
	"path"
	"path/filepath"
)

func uploadCommand() *command {
	cmd := newCommand("upload")
	cmd.Description = func() string { return "upload a local file: upload <local_path> [remote_folder]" }
	cmd.Action = func(sess *session) error {
		if cmd.NArg() < 1 {
			fmt.Println(cmd.Usage())
			return nil
		}

		localPath := cmd.Arg(0)
		body, err := os.ReadFile(localPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", localPath, err)
		}

		remoteDir := ""
		if cmd.NArg() >= 2 {
			remoteDir = cmd.Arg(1)
		}
		parentID, err := sess.resolvePath(sess.cwd, remoteDir)
		if err != nil {
			return err
		}

		name := filepath.Base(localPath)
		mimeType := mime.TypeByExtension(path.Ext(name))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}

		node, err := sess.engine.UploadFile(sess.ctx, parentID, name, body, mimeType, sess.actor)
		if err != nil {
			return err
		}
		fmt.Println("uploaded", node.ID, name, len(body), "bytes")
		return nil
	}
	return cmd
}
