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
	"encoding/json"
	"fmt"
	gouser "os/user"
	"os"
	"path"

	"github.com/google/uuid"
)

func getIdentityFile() string {
	u, err := gouser.Current()
	if err != nil {
		panic(err)
	}
	return path.Join(u.HomeDir, ".vaultctl-identity")
}

type identity struct {
	UserID uuid.UUID `json:"user_id"`
}

// readIdentity loads the actor's uuid from disk, minting and persisting a
// new one on first run. There is no authentication layer here (spec §6
// Non-goals) — the identity file is a standing-in for whatever external
// system would otherwise hand the engine a user id.
func readIdentity() (*identity, error) {
	data, err := os.ReadFile(getIdentityFile())
	if os.IsNotExist(err) {
		id := &identity{UserID: uuid.New()}
		return id, writeIdentity(id)
	}
	if err != nil {
		return nil, err
	}
	id := &identity{}
	if err := json.Unmarshal(data, id); err != nil {
		return nil, fmt.Errorf("identity: decode %s: %w", getIdentityFile(), err)
	}
	return id, nil
}

func writeIdentity(id *identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return os.WriteFile(getIdentityFile(), data, 0600)
}

func switchIdentity(u uuid.UUID) error {
	return writeIdentity(&identity{UserID: u})
}
