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

// Package lexer is a small, allocation-light line-protocol tokenizer.
// It exists so internal/ingest.Core has a real upstream producer to
// drive it with, outside of tests: a caller (the demo HTTP server, or
// a test) hands it raw line-protocol text one line at a time, and it
// emits the lpproto.Sink calls that Core expects.
//
// Grammar, one line:
//
//	measurement[,tag=value[,tag=value...]] field=value[,field=value...] [timestamp]
//
// This follows the same field/tag structure the decoder in
// metricstore.DecodeLine works against, scaled down to a single
// generic sink interface instead of a fixed schema.
package lexer

import "github.com/cockroachdb/lp-ingest/internal/lpproto"

// Lexer tokenizes one line-protocol line at a time. It is not safe for
// concurrent use; callers needing concurrency should use one Lexer per
// goroutine.
type Lexer struct {
	cache lineCache
}

// New returns a ready Lexer.
func New() *Lexer { return &Lexer{} }

// ParseLine tokenizes one line-protocol line (without its trailing
// newline) and drives sink with the resulting events. It never
// returns an error itself: malformed input is reported to the sink via
// OnError, matching the upstream tokenizer contract in spec.md.
func (l *Lexer) ParseLine(line []byte, sink lpproto.Sink) {
	l.cache.reset()
	p := parser{line: line, sink: sink, cache: &l.cache}
	p.run()
}

// lineCache interns byte ranges of the current line and resolves
// lpproto.Address values back to them. Addresses are 1-based indexes
// into entries; 0 (lpproto.NoAddress) is never issued.
type lineCache struct {
	entries [][]byte
}

var _ lpproto.Cache = (*lineCache)(nil)

func (c *lineCache) reset() {
	c.entries = c.entries[:0]
}

func (c *lineCache) intern(b []byte) lpproto.Address {
	c.entries = append(c.entries, b)
	return lpproto.Address(len(c.entries))
}

// Text implements lpproto.Cache.
func (c *lineCache) Text(addr lpproto.Address) []byte {
	if addr == lpproto.NoAddress {
		return nil
	}
	return c.entries[addr-1]
}
