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
	"strings"

	"github.com/c-bata/go-prompt"
)

// Completer suggests command names; argument completion (folder names)
// would need a store round trip per keystroke and is left to shell
// history/readline instead.
type Completer struct {
	Commands []*command
}

func (c *Completer) Complete(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return []prompt.Suggest{}
	}
	var suggests []prompt.Suggest
	for _, cmd := range c.Commands {
		suggests = append(suggests, prompt.Suggest{Text: cmd.Name, Description: cmd.Description()})
	}
	return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
}
