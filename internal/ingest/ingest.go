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

// Package ingest implements the stateful, event-driven ingestion core
// described in spec.md: it consumes a pre-tokenized line-protocol
// event stream, binds tokens to a per-table writer, auto-evolves
// schema on first use, resolves field value types, and commits rows
// in the correct writer, all without losing throughput on well-formed
// lines when some lines are malformed.
//
// A Core is single-threaded and non-suspending: every call runs to
// completion on the calling goroutine, and nothing here is safe for
// concurrent use without external synchronization.
package ingest

import (
	"context"

	"github.com/cockroachdb/lp-ingest/internal/lpproto"
	"github.com/cockroachdb/lp-ingest/internal/metrics"
	"github.com/cockroachdb/lp-ingest/internal/qdb"
	log "github.com/sirupsen/logrus"
)

// Core is the ingestion state machine. Together with its Config it is
// the public surface of this package; everything else here is
// implementation detail.
type Core struct {
	ctx   context.Context
	sec   qdb.SecurityContext
	engine qdb.Engine
	clock qdb.MicrosecondClock
	tsAdapter qdb.TimestampAdapter
	cfg   Config
	log   *log.Entry

	cache  *writerCache
	commit *commitList

	// cacheEntryIndex is sticky across lines: it names whichever table
	// is currently bound as "active," so that a run of consecutive
	// lines naming the same measurement can be detected by handle
	// equality instead of re-resolving the writer each time. It is
	// strictly negative whenever a table is bound, and 0 only before
	// the first MEASUREMENT event this Core has ever seen.
	cacheEntryIndex int32
	activeEntry     *cacheEntry
	activeWriter    qdb.Writer

	mode     mode
	handlers handlers

	scratch scratch
	pending pendingField

	// lineCache resolves token addresses for the line currently being
	// finalized; it is only valid between OnLineEnd's entry and the
	// deferred clearLine.
	lineCache lpproto.Cache

	// pendingTableName is the owned table name recorded while in
	// NEW_TABLE mode, used at line-end to create the table.
	pendingTableName string
}

// New constructs a Core bound to the given storage engine. ctx governs
// every engine call the Core initiates for the rest of its life; a
// caller wanting per-event cancellation should enforce it inside its
// Engine implementation, since the upstream tokenizer protocol has no
// per-event context parameter to thread through.
func New(
	ctx context.Context,
	engine qdb.Engine,
	sec qdb.SecurityContext,
	clock qdb.MicrosecondClock,
	tsAdapter qdb.TimestampAdapter,
	cfg Config,
) *Core {
	return &Core{
		ctx:       ctx,
		sec:       sec,
		engine:    engine,
		clock:     clock,
		tsAdapter: tsAdapter,
		cfg:       cfg,
		log:       log.WithField("component", "ingest"),
		cache:     newWriterCache(),
		commit:    newCommitList(),
		mode:      modeUnbound,
		handlers:  modeTable[modeUnbound],
	}
}

// setMode swaps the mode tag and its handlers together, as a single
// assignment, so the four dispatch methods are never observed in a
// mixed state (spec.md §3 invariant 5).
func (c *Core) setMode(m mode) {
	c.mode = m
	c.handlers = modeTable[m]
}

// OnEvent dispatches one token from the upstream tokenizer. See
// spec.md §4.1 for the full per-event-kind behavior. Core implements
// lpproto.Sink.
func (c *Core) OnEvent(kind lpproto.EventKind, tok lpproto.Token, cache lpproto.Cache) {
	defer c.absorb("OnEvent")

	c.lineCache = cache

	switch kind {
	case lpproto.EventMeasurement:
		c.handleMeasurement(tok, cache)
	case lpproto.EventTagName, lpproto.EventFieldName:
		c.handlers.onFieldName(c, tok, cache)
	case lpproto.EventFieldValue:
		c.handlers.onFieldValue(c, tok, cache)
	case lpproto.EventTagValue:
		c.handlers.onTagValue(c, tok, cache)
	case lpproto.EventTimestamp:
		c.scratch.columnValues = append(c.scratch.columnValues, tok)
	}
}

// OnLineEnd finalizes the current line: the active mode's line-end
// handler runs, storage-engine failures are logged and swallowed, and
// scratch is unconditionally cleared afterward (spec.md §3 invariant
// 4, §4.1). It takes the cache from the line's last OnEvent call,
// since lpproto.Sink's OnLineEnd carries no parameters of its own.
func (c *Core) OnLineEnd() {
	defer c.absorb("OnLineEnd")
	defer c.clearLine()

	c.handlers.onLineEnd(c)
}

// OnError abandons the current line on a tokenizer failure and clears
// scratch. No table state changes: a line the tokenizer itself
// couldn't parse never got far enough to bind a table.
func (c *Core) OnError(position int, state string, code string) {
	c.log.WithFields(log.Fields{
		"position": position,
		"state":    state,
		"code":     code,
	}).Warn("tokenizer error, abandoning line")
	c.clearLine()
}

// clearLine clears the three per-line scratch buffers and the pending
// field slot. It deliberately leaves cacheEntryIndex, activeEntry, and
// activeWriter untouched: those describe which table is currently
// bound, which persists across lines until a MEASUREMENT event names a
// different one.
func (c *Core) clearLine() {
	c.scratch.reset()
	c.pending = pendingField{}
}

// CommitAll commits the active writer (if any) and every writer on the
// commit list, then clears the list. Safe to call at any quiescent
// point; two consecutive calls with no intervening events are
// idempotent (spec.md §8).
func (c *Core) CommitAll() {
	if c.activeWriter != nil {
		c.commitOne(c.activeWriter)
	}
	for name, w := range c.commit.writers {
		c.commitOne(w)
		delete(c.commit.writers, name)
	}
}

func (c *Core) commitOne(w qdb.Writer) {
	timer := metrics.CommitDurations.WithLabelValues(w.Name())
	start := c.clock.Ticks()
	err := w.Commit(c.ctx)
	elapsedMicros := c.clock.Ticks() - start
	timer.Observe(float64(elapsedMicros) / 1e6)
	if err != nil {
		metrics.CommitErrors.WithLabelValues(w.Name()).Inc()
		c.log.WithError(err).WithField("table", w.Name()).Error("commit failed")
	}
}

// Close releases every cached writer. After Close the Core is
// unusable. It commits nothing implicitly.
func (c *Core) Close() {
	for _, e := range c.cache.entries {
		if e.writer != nil {
			if err := e.writer.Close(); err != nil {
				c.log.WithError(err).WithField("table", e.name).Warn("error closing writer")
			}
			e.writer = nil
		}
	}
	c.commit.writers = make(map[string]qdb.Writer)
	c.activeWriter = nil
	c.activeEntry = nil
}

// absorb recovers a panic from a storage-engine collaborator so that
// no exception ever propagates to the tokenizer driving this Core
// (spec.md §7: the ingest core is an absorbing boundary).
func (c *Core) absorb(where string) {
	if r := recover(); r != nil {
		c.log.WithField("where", where).Errorf("recovered panic in storage engine collaborator: %v", r)
	}
}
