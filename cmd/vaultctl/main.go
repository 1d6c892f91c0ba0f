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

// Command vaultctl is an interactive shell over the engine: a local
// analogue of the corpus's grpc-backed CLI, except every command calls
// straight into an in-process *engine.Engine rather than a remote
// service (spec §9 "engine is a value owning its store/blob handles").
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/foldervault/engine/pkg/blob"
	"github.com/foldervault/engine/pkg/config"
	"github.com/foldervault/engine/pkg/engine"
	"github.com/foldervault/engine/pkg/log"
	"github.com/foldervault/engine/pkg/store"
	"github.com/jackc/pgx/v5/pgxpool"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "path to a TOML config file (db/blob sections); omitted runs against in-memory stores for local trial use")
	flag.Parse()
}

func buildEngine(ctx context.Context) (*engine.Engine, error) {
	if configPath == "" {
		fmt.Println("no -config given, running against in-memory store and blob coordinator")
		return engine.New(store.NewInMemoryStore(), blob.NewInMemoryCoordinator(5)), nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("vaultctl: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DB.URL)
	if err != nil {
		return nil, fmt.Errorf("vaultctl: parse db url: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.DB.PoolMax)
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("vaultctl: connect db: %w", err)
	}
	if err := store.CreateSchema(ctx, pool); err != nil {
		return nil, fmt.Errorf("vaultctl: create schema: %w", err)
	}
	pgStore := store.NewPostgresStore(pool)

	coordinator, err := blob.NewS3Coordinator(blob.S3Config{
		Endpoint:    cfg.Blob.Endpoint,
		Region:      cfg.Blob.Region,
		AccessKey:   cfg.Blob.AccessKey,
		SecretKey:   cfg.Blob.SecretKey,
		Bucket:      cfg.Blob.Bucket,
		UseSSL:      cfg.Blob.UseSSL,
		Concurrency: cfg.Blob.Concurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("vaultctl: connect blob store: %w", err)
	}

	return engine.New(pgStore, coordinator), nil
}

func main() {
	ctx := context.Background()

	id, err := readIdentity()
	if err != nil {
		fmt.Println("error: loading identity:", err)
		os.Exit(1)
	}

	e, err := buildEngine(ctx)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}

	root, err := e.EnsureRoot(ctx, id.UserID, store.RootPersonal, defaultMaxStorageBytes)
	if err != nil {
		log.New("vaultctl").Error(ctx, err, "failed to bootstrap personal root")
		fmt.Println("error: bootstrapping personal root:", err)
		os.Exit(1)
	}

	sess := &session{ctx: ctx, engine: e, actor: id.UserID, cwd: root.RootNodeID}

	commands := []*command{
		whoamiCommand(),
		switchUserCommand(),
		mkrootCommand(),
		pwdCommand(),
		cdCommand(),
		lsCommand(),
		mkdirCommand(),
		uploadCommand(),
		downloadCommand(),
		rmCommand(),
		mvCommand(),
		cpCommand(),
		shareCommand(),
		unshareCommand(),
		sharesCommand(),
		treeCommand(),
	}

	executor := &Executor{Commands: commands, Session: sess, Timeout: 30 * time.Second}
	completer := &Completer{Commands: commands}

	if args := flag.Args(); len(args) > 0 {
		executor.Execute(strings.Join(args, " "))
		return
	}

	fmt.Println("vaultctl")
	fmt.Println(`actor: ` + id.UserID.String())
	fmt.Println(`use "exit" or Ctrl-D to quit`)

	p := prompt.New(
		executor.Execute,
		completer.Complete,
		prompt.OptionTitle("vaultctl"),
		prompt.OptionPrefix(">> "),
	)
	p.Run()
}
