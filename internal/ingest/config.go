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

package ingest

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Config is the user-visible configuration for a Core, following the
// Bind/Preflight shape used throughout this project's configuration
// layer (see internal/server.Config).
type Config struct {
	// Indexed requests a secondary index on SYMBOL columns of newly
	// created tables; the engine decides which ones.
	Indexed bool
	// SymbolCacheCapacity is a hint for how many distinct symbol
	// values the engine should expect per SYMBOL column of a newly
	// created table. Zero means "use the engine default."
	SymbolCacheCapacity int
	// TimestampDivisor converts an explicit line-protocol timestamp
	// token's integer value into microseconds. Line protocol defaults
	// to nanosecond timestamps, so the default divisor is 1000.
	TimestampDivisor int64
}

// Bind registers flags for this Config.
func (c *Config) Bind(flags *pflag.FlagSet) {
	flags.BoolVar(&c.Indexed, "ingest.indexed", false,
		"request a secondary index on SYMBOL columns of newly created tables")
	flags.IntVar(&c.SymbolCacheCapacity, "ingest.symbolCacheCapacity", 0,
		"expected distinct SYMBOL values per column of newly created tables; 0 uses the engine default")
	flags.Int64Var(&c.TimestampDivisor, "ingest.timestampDivisor", 1000,
		"divisor applied to an explicit line-protocol timestamp token to yield microseconds")
}

// Preflight validates the configuration.
func (c *Config) Preflight() error {
	if c.SymbolCacheCapacity < 0 {
		return errors.New("ingest.symbolCacheCapacity must not be negative")
	}
	if c.TimestampDivisor <= 0 {
		return errors.New("ingest.timestampDivisor must be positive")
	}
	return nil
}
