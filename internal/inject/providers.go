// Copyright 2023 The Cockroach Authors
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
//
// SPDX-License-Identifier: Apache-2.0

// Package inject assembles the storage engine, ingestion core, and
// HTTP handler that make up a running lp-ingestd process. The wiring
// is expressed as a set of wire.Build providers so the dependency
// graph stays declarative as the process grows new components.
package inject

import (
	"context"
	"net/http"

	"github.com/cockroachdb/lp-ingest/internal/ingest"
	"github.com/cockroachdb/lp-ingest/internal/qdb"
	"github.com/cockroachdb/lp-ingest/internal/qdb/memengine"
	"github.com/cockroachdb/lp-ingest/internal/qdb/sqlengine"
	"github.com/cockroachdb/lp-ingest/internal/server"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Config bundles the configuration needed to assemble an Application.
type Config struct {
	Server    server.Config
	SQL       sqlengine.Config
	UseMemory bool
}

// Application is the fully wired set of components a running
// lp-ingestd process needs.
type Application struct {
	Core    *ingest.Core
	Handler http.Handler
	// BindAddr is copied out of Config for the caller's convenience.
	BindAddr string
}

// ProvideEngine opens the configured storage engine. When cfg.UseMemory
// is set, the in-memory reference engine is used instead of dialing a
// real database; this is the path exercised by integration tests that
// cannot depend on a live CockroachDB/MySQL instance.
func ProvideEngine(ctx context.Context, cfg *Config) (qdb.Engine, func(), error) {
	if cfg.UseMemory {
		log.Info("using in-memory storage engine")
		return memengine.New(), func() {}, nil
	}

	sqlEngine, err := sqlengine.Open(ctx, &cfg.SQL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening target database")
	}
	return sqlEngine, func() { sqlEngine.Close() }, nil
}

// ProvideCore constructs the ingestion state machine bound to engine.
func ProvideCore(ctx context.Context, engine qdb.Engine, cfg *Config) (*ingest.Core, func()) {
	core := ingest.New(ctx, engine, qdb.AnonymousContext{}, qdb.SystemClock{},
		qdb.MicrosAdapter{Divisor: cfg.Server.Ingest.TimestampDivisor}, cfg.Server.Ingest)
	return core, func() { core.Close() }
}

// ProvideHandler exposes core over HTTP using the project's line
// protocol endpoint.
func ProvideHandler(core *ingest.Core) http.Handler {
	return server.New(core).Mux()
}

// ProvideApplication assembles the final Application value returned
// to callers.
func ProvideApplication(cfg *Config, core *ingest.Core, handler http.Handler) *Application {
	return &Application{Core: core, Handler: handler, BindAddr: cfg.Server.BindAddr}
}
