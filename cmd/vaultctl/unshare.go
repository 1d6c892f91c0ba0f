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

	"github.com/google/uuid"
)

func unshareCommand() *command {
	cmd := newCommand("unshare")
	cmd.Description = func() string { return "revokes a permission: unshare <path> <user_id>" }
	cmd.Action = func(sess *session) error {
		if cmd.NArg() < 2 {
			fmt.Println(cmd.Usage())
			return nil
		}

		id, err := sess.resolvePath(sess.cwd, cmd.Arg(0))
		if err != nil {
			return err
		}

		target, err := uuid.Parse(cmd.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}

		if err := sess.engine.Revoke(sess.ctx, sess.actor, target, id); err != nil {
			return err
		}
		fmt.Println("revoked", target)
		return nil
	}
	return cmd
}
