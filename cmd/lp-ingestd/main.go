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

// Command lp-ingestd runs the line-protocol ingestion HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/cockroachdb/lp-ingest/internal/inject"
	"github.com/cockroachdb/lp-ingest/internal/qdb/sqlengine"
	"github.com/cockroachdb/lp-ingest/internal/server"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		log.WithError(err).Fatal("lp-ingestd exiting")
	}
}

func run() error {
	var cfg server.Config
	var sqlCfg sqlengine.Config
	var useMemory bool

	flags := pflag.NewFlagSet("lp-ingestd", pflag.ExitOnError)
	cfg.Bind(flags)
	sqlCfg.Bind(flags)
	flags.BoolVar(&useMemory, "memory", false,
		"use the in-memory reference storage engine instead of a real database")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return errors.WithStack(err)
	}

	if !useMemory {
		if err := sqlCfg.Preflight(); err != nil {
			return errors.Wrap(err, "sql configuration")
		}
	}
	if err := cfg.Preflight(); err != nil {
		return errors.Wrap(err, "server configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	app, cleanup, err := inject.Start(ctx, &inject.Config{Server: cfg, SQL: sqlCfg, UseMemory: useMemory})
	if err != nil {
		return errors.Wrap(err, "wiring application")
	}
	defer cleanup()

	srv := &http.Server{
		Addr:    app.BindAddr,
		Handler: app.Handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("error shutting down http server")
		}
	}()

	log.WithField("bindAddr", cfg.BindAddr).Info("lp-ingestd listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.WithStack(err)
	}
	return nil
}
