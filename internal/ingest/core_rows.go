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
	"github.com/cockroachdb/lp-ingest/internal/metrics"
	"github.com/cockroachdb/lp-ingest/internal/qdb"
)

// createTableAndAppendFirstRow builds a TableStructure from the
// accumulated columnNameType pairs and asks the engine to create it.
// On success the new writer is cached and the first row is appended
// with it; on failure the entry is left in stateInitial so the next
// line naming this measurement retries table creation from scratch.
func (c *Core) createTableAndAppendFirstRow() {
	structure := buildTableStructure(c.pendingTableName, c.scratch.columnNameType, c.lineCache, c.cfg)

	if err := c.engine.CreateTable(c.ctx, c.sec, structure); err != nil {
		c.log.WithError(err).WithField("table", c.pendingTableName).Warn("create table failed, will retry")
		return
	}
	metrics.TablesCreated.WithLabelValues(c.pendingTableName).Inc()

	writer, err := c.engine.GetWriter(c.ctx, c.sec, c.pendingTableName)
	if err != nil {
		c.log.WithError(err).WithField("table", c.pendingTableName).Warn("get writer failed after create, will retry")
		return
	}

	c.activeEntry.writer = writer
	c.activeEntry.state = stateExists
	c.activeWriter = writer
	c.setMode(modeAppend)

	n := len(c.scratch.columnNameType)
	c.buildAndAppendRow(writer, n, func(i int) (int, qdb.ColumnType) {
		return i, c.scratch.columnNameType[i].typ
	})
}

// buildAndAppendRow assembles and appends one row from the first n
// entries of scratch.columnValues, using colAt(i) to resolve each
// value's destination column index and type. It is shared by APPEND
// and NEW_TABLE line-end handling (spec.md §4.3, §4.5); the two differ
// only in where (index, type) pairs come from.
//
// scratch.columnValues holds either n or n+1 tokens: n if the line
// carried no explicit timestamp (the wall clock is used instead), or
// n+1 if the trailing token is an explicit timestamp.
func (c *Core) buildAndAppendRow(writer qdb.Writer, n int, colAt func(i int) (int, qdb.ColumnType)) {
	var micros int64
	switch len(c.scratch.columnValues) {
	case n:
		micros = c.clock.Ticks()
	case n + 1:
		text := c.scratch.columnValues[n].Text(c.lineCache)
		m, err := c.tsAdapter.Micros(text)
		if err != nil {
			c.log.WithError(err).WithField("table", writer.Name()).Warn("invalid explicit timestamp, dropping row")
			metrics.LinesSkipped.WithLabelValues(writer.Name(), "invalid timestamp").Inc()
			return
		}
		micros = m
	default:
		c.log.WithField("table", writer.Name()).Error("scratch value count inconsistent with column count")
		return
	}

	row := writer.NewRow(micros)
	for i := 0; i < n; i++ {
		index, typ := colAt(i)
		if err := columnSetters[typ](row, index, c.scratch.columnValues[i], c.lineCache); err != nil {
			row.Cancel()
			c.log.WithError(err).WithField("table", writer.Name()).Warn("column cast failed, dropping row")
			metrics.LinesSkipped.WithLabelValues(writer.Name(), "cast failure").Inc()
			return
		}
	}

	if err := row.Append(); err != nil {
		row.Cancel()
		c.log.WithError(err).WithField("table", writer.Name()).Warn("row append failed")
		return
	}
	metrics.RowsAppended.WithLabelValues(writer.Name()).Inc()
}
