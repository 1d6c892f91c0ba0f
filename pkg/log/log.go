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

// Package log wraps zerolog with the engine's conventions: one logger per
// package, a dev/prod output-mode switch, and request-scoped fields
// (actor, operation, node) carried on the context so a single call site
// in pkg/engine can log an operation's outcome without re-deriving its
// identifiers.
package log

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.CallerSkipFrameCount = 3
}

// Out is the log output writer; tests may redirect it.
var Out = os.Stderr

// Mode switches between "dev" (console, human-readable) and "prod"
// (structured JSON) output. Defaults to "dev".
var Mode = "dev"

// Logger is a package-scoped zerolog wrapper.
type Logger struct {
	pkg string
	zl  zerolog.Logger
}

// New returns a Logger scoped to pkg, honouring the current Mode.
func New(pkg string) *Logger {
	base := zerolog.New(Out).With().Str("pkg", pkg).Int("pid", os.Getpid()).Timestamp().Logger()
	if Mode == "" || Mode == "dev" {
		base = base.Output(zerolog.ConsoleWriter{Out: Out})
	}
	return &Logger{pkg: pkg, zl: base}
}

type ctxKey struct{}

// WithFields returns a context carrying a sub-logger enriched with the
// given fields, so downstream Info/Error calls in the same operation
// include them without repeating themselves.
func WithFields(ctx context.Context, fields map[string]interface{}) context.Context {
	zl := zerolog.Ctx(ctx).With().Fields(fields).Logger()
	return context.WithValue(ctx, ctxKey{}, &zl)
}

func fromContext(ctx context.Context, fallback zerolog.Logger) *zerolog.Logger {
	if zl, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
		return zl
	}
	return &fallback
}

// Info logs msg at info level, picking up any fields attached to ctx by
// WithFields.
func (l *Logger) Info(ctx context.Context, msg string) {
	fromContext(ctx, l.zl).Info().Msg(msg)
}

// Error logs err at error level, picking up any fields attached to ctx by
// WithFields.
func (l *Logger) Error(ctx context.Context, err error, msg string) {
	fromContext(ctx, l.zl).Error().Err(err).Msg(msg)
}

// Debug logs msg at debug level.
func (l *Logger) Debug(ctx context.Context, msg string) {
	fromContext(ctx, l.zl).Debug().Msg(msg)
}
