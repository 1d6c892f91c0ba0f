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
	"strings"
	"time"
)

// Executor parses one line of shell input and runs the matching command.
type Executor struct {
	Commands []*command
	Session  *session
	Timeout  time.Duration
}

func (e *Executor) Execute(s string) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return
	case "exit", "quit":
		os.Exit(0)
	}

	args := strings.Split(s, " ")
	action := args[0]
	for _, c := range e.Commands {
		if c.Name != action {
			continue
		}
		if err := c.Parse(args[1:]); err != nil {
			fmt.Println(err)
			return
		}

		result := make(chan error, 1)
		go func() { result <- c.Action(e.Session) }()

		select {
		case err := <-result:
			if err != nil {
				fmt.Println("error:", err)
			}
		case <-time.After(e.Timeout):
			fmt.Println("error: command timed out")
		}
		return
	}

	fmt.Printf("invalid command %q\n", action)
}
