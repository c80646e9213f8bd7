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

// Package server exposes the ingestion core over HTTP: a line-protocol
// write endpoint, a Prometheus scrape endpoint, and a health check.
package server

import (
	"github.com/cockroachdb/lp-ingest/internal/ingest"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Config contains the user-visible configuration for running the
// ingestion HTTP server: it embeds ingest.Config and binds and
// preflights it along with its own transport-level fields.
type Config struct {
	Ingest ingest.Config

	BindAddr string
	// CommitIntervalMillis is bound as a flag and must be positive, but
	// no code reads it: the server calls CommitAll once at the end of
	// every write request, whatever this value is.
	CommitIntervalMillis int
}

// Bind registers flags.
func (c *Config) Bind(flags *pflag.FlagSet) {
	c.Ingest.Bind(flags)

	flags.StringVar(&c.BindAddr, "bindAddr", ":9191",
		"the network address to bind to")
	flags.IntVar(&c.CommitIntervalMillis, "commitIntervalMillis", 1000,
		"commit interval in milliseconds; must be positive, but tables are committed at the end of every write request regardless")
}

// Preflight validates the configuration.
func (c *Config) Preflight() error {
	if err := c.Ingest.Preflight(); err != nil {
		return err
	}
	if c.BindAddr == "" {
		return errors.New("bindAddr unset")
	}
	if c.CommitIntervalMillis <= 0 {
		return errors.New("commitIntervalMillis must be positive")
	}
	return nil
}
