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
	"github.com/google/uuid"
)

// switchUserCommand reassigns the shell's acting identity, persists it to
// the identity file, and bootstraps that user's personal root if it is
// the first time they're seen. Useful for exercising sharing scenarios
// from a single shell without juggling separate processes.
func switchUserCommand() *command {
	cmd := newCommand("switch-user")
	cmd.Description = func() string { return "switch the acting user (creates a new one with no argument)" }
	cmd.Action = func(sess *session) error {
		var target uuid.UUID
		if cmd.NArg() >= 1 {
			parsed, err := uuid.Parse(cmd.Arg(0))
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			target = parsed
		} else {
			target = uuid.New()
		}

		root, err := sess.engine.EnsureRoot(sess.ctx, target, store.RootPersonal, defaultMaxStorageBytes)
		if err != nil {
			return err
		}

		if err := switchIdentity(target); err != nil {
			return err
		}
		sess.actor = target
		sess.cwd = root.RootNodeID
		fmt.Println("now acting as", target)
		return nil
	}
	return cmd
}
