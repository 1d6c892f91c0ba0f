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
	"strings"

	"github.com/foldervault/engine/pkg/tree"
)

func treeCommand() *command {
	cmd := newCommand("tree")
	cmd.Description = func() string { return "prints a hierarchy view: tree [path] [max_depth]" }
	cmd.Action = func(sess *session) error {
		target := ""
		if cmd.NArg() >= 1 {
			target = cmd.Arg(0)
		}
		maxDepth := 5
		if cmd.NArg() >= 2 {
			fmt.Sscanf(cmd.Arg(1), "%d", &maxDepth)
		}

		id, err := sess.resolvePath(sess.cwd, target)
		if err != nil {
			return err
		}

		node, err := sess.engine.Tree.GetHierarchy(sess.ctx, id, sess.actor, maxDepth)
		if err != nil {
			return err
		}

		printTreeNode(node, 0)
		return nil
	}
	return cmd
}

func printTreeNode(n *tree.Node, depth int) {
	if n == nil {
		return
	}
	fmt.Printf("%s%s  [%s]\n", strings.Repeat("  ", depth), n.Name, n.Permission)
	for _, child := range n.Children {
		printTreeNode(child, depth+1)
	}
}
