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
	"github.com/cockroachdb/lp-ingest/internal/lpproto"
	"github.com/cockroachdb/lp-ingest/internal/metrics"
	"github.com/cockroachdb/lp-ingest/internal/qdb"
)

// handleMeasurement resolves a MEASUREMENT token against the writer
// cache and, on a table change, moves the previously active writer to
// the commit list. This is the entry point to the whole mode-dispatch
// machine: every other handler assumes a table is already bound (or
// deliberately not bound, in SKIP_LINE).
func (c *Core) handleMeasurement(tok lpproto.Token, cache lpproto.Cache) {
	name := tok.Text(cache)

	handle, entry, ok := c.cache.lookup(name)
	if ok && handle == c.cacheEntryIndex {
		// Same table as the line before; re-use it without touching the
		// cache or the commit list.
		if c.activeWriter != nil {
			c.setMode(modeAppend)
			return
		}
		c.initCacheEntry(entry)
		return
	}

	if c.cacheEntryIndex != 0 && c.activeWriter != nil {
		// A different table than last time: the old writer is displaced,
		// not released — it still owns its cached entry, only the
		// "active" reference moves to the commit list.
		c.commit.add(c.activeWriter)
		c.activeWriter = nil
	}

	if !ok {
		entry, handle = c.cache.insert(name)
	}
	c.cacheEntryIndex = handle
	c.activeEntry = entry

	if entry.writer != nil {
		// This table may have been displaced onto the commit list by an
		// earlier switch; it is active again now, so the explicit
		// activeWriter check in CommitAll must be its only path to
		// commitOne, or it would be committed twice.
		delete(c.commit.writers, entry.writer.Name())
		c.activeWriter = entry.writer
		c.setMode(modeAppend)
		return
	}
	c.initCacheEntry(entry)
}

// initCacheEntry drives a cacheEntry through its lifecycle, per
// spec.md §4.3's STATE table. It is only called when the entry has no
// cached writer (a fresh entry, or one whose earlier status check,
// table creation or writer acquisition left it without one).
func (c *Core) initCacheEntry(entry *cacheEntry) {
	switch entry.state {
	case stateInitial:
		status, err := c.engine.Status(c.ctx, c.sec, entry.name)
		if err != nil {
			c.log.WithError(err).WithField("table", entry.name).Warn("status check failed")
			entry.state = stateUnusable
			c.setMode(modeSkipLine)
			return
		}
		switch status {
		case qdb.TableStatusExists:
			writer, err := c.engine.GetWriter(c.ctx, c.sec, entry.name)
			if err != nil {
				c.log.WithError(err).WithField("table", entry.name).Warn("get writer failed, retryable")
				c.setMode(modeSkipLine)
				return
			}
			entry.writer = writer
			entry.state = stateExists
			c.activeWriter = writer
			c.setMode(modeAppend)
		case qdb.TableStatusDoesNotExist:
			c.pendingTableName = entry.name
			c.setMode(modeNewTable)
		default:
			entry.state = stateUnusable
			c.setMode(modeSkipLine)
		}

	case stateExists:
		writer, err := c.engine.GetWriter(c.ctx, c.sec, entry.name)
		if err != nil {
			c.log.WithError(err).WithField("table", entry.name).Warn("get writer failed, retryable")
			c.setMode(modeSkipLine)
			return
		}
		entry.writer = writer
		c.activeWriter = writer
		c.setMode(modeAppend)

	default: // stateUnusable, or any unrecognized value
		c.setMode(modeSkipLine)
	}
}

// bindAppendValue records a field or tag's value into scratch, growing
// the schema with AddColumn when c.pending names a column that does
// not exist yet. It is shared by appendHandlers' onFieldValue and
// onTagValue since both reduce to "resolve-or-create a column, then
// record (index, type, token)".
func (c *Core) bindAppendValue(tok lpproto.Token, cache lpproto.Cache, inferred qdb.ColumnType) {
	if c.pending.columnType == qdb.TypeInvalid {
		name := string(cache.Text(c.pending.nameAddr))
		index, err := c.activeWriter.AddColumn(c.ctx, name, inferred)
		if err != nil {
			c.log.WithError(err).WithField("table", c.activeWriter.Name()).Warn("add column failed")
			c.skipLine("schema evolution failed", tok, cache)
			return
		}
		metrics.ColumnsAdded.WithLabelValues(c.activeWriter.Name()).Inc()
		c.scratch.columnIndexAndType = append(c.scratch.columnIndexAndType, indexType{index: index, typ: inferred})
		c.scratch.columnValues = append(c.scratch.columnValues, tok)
		return
	}

	if c.pending.columnType != inferred {
		c.skipLine("field type mismatch", tok, cache)
		return
	}
	c.scratch.columnIndexAndType = append(c.scratch.columnIndexAndType, indexType{index: c.pending.columnIndex, typ: inferred})
	c.scratch.columnValues = append(c.scratch.columnValues, tok)
}

// skipLine abandons the rest of the current line. reason is logged and
// counted in metrics.LinesSkipped.
func (c *Core) skipLine(reason string, tok lpproto.Token, cache lpproto.Cache) {
	table := ""
	if c.activeWriter != nil {
		table = c.activeWriter.Name()
	}
	c.log.WithFields(map[string]interface{}{
		"table":  table,
		"reason": reason,
		"value":  string(tok.Text(cache)),
	}).Warn("skipping line")
	metrics.LinesSkipped.WithLabelValues(table, reason).Inc()
	c.setMode(modeSkipLine)
}
