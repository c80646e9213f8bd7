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

package memengine

import (
	"context"

	"github.com/cockroachdb/lp-ingest/internal/qdb"
	"github.com/pkg/errors"
)

// Writer is a qdb.Writer over an in-memory table. Multiple Writer
// handles may share the same underlying table; uncommitted rows live
// on the table itself rather than on the handle, so a Commit issued
// through any handle flushes every handle's pending appends, matching
// how a real engine's writer handle is a thin lease over shared column
// storage.
type Writer struct {
	table *table
}

var _ qdb.Writer = (*Writer)(nil)

// Name implements qdb.Writer.
func (w *Writer) Name() string { return w.table.name }

// Metadata implements qdb.Writer.
func (w *Writer) Metadata() qdb.Metadata { return metadata{w.table} }

// AddColumn implements qdb.Writer.
func (w *Writer) AddColumn(_ context.Context, name string, typ qdb.ColumnType) (int, error) {
	return w.table.addColumn(name, typ), nil
}

// NewRow implements qdb.Writer.
func (w *Writer) NewRow(micros int64) qdb.Row {
	width := w.table.columnCount()
	return &rowBuilder{table: w.table, micros: micros, values: make(Row, width)}
}

// Commit implements qdb.Writer.
func (w *Writer) Commit(context.Context) error {
	w.table.commit()
	return nil
}

// Close implements qdb.Writer. The in-memory engine has nothing to
// release; every Writer handle is a thin, stateless view.
func (w *Writer) Close() error { return nil }

// metadata adapts *table to qdb.Metadata.
type metadata struct{ t *table }

func (m metadata) ColumnCount() int { return m.t.columnCount() }

func (m metadata) ColumnByName(name string) (qdb.ColumnInfo, bool) { return m.t.columnByName(name) }

func (m metadata) Column(index int) qdb.ColumnInfo { return m.t.column(index) }

// rowBuilder implements qdb.Row by filling in a Row slice positionally
// until Append copies it into the table's pending buffer.
type rowBuilder struct {
	table  *table
	micros int64
	values Row
	done   bool
}

var _ qdb.Row = (*rowBuilder)(nil)

func (r *rowBuilder) put(columnIndex int, v interface{}) error {
	if r.done {
		return errors.New("row already appended or canceled")
	}
	if columnIndex < 0 || columnIndex >= len(r.values) {
		return errors.Errorf("column index %d out of range [0,%d)", columnIndex, len(r.values))
	}
	r.values[columnIndex] = v
	return nil
}

func (r *rowBuilder) PutLong(columnIndex int, v int64) error   { return r.put(columnIndex, v) }
func (r *rowBuilder) PutBool(columnIndex int, v bool) error    { return r.put(columnIndex, v) }
func (r *rowBuilder) PutDouble(columnIndex int, v float64) error { return r.put(columnIndex, v) }

func (r *rowBuilder) PutStr(columnIndex int, v []byte) error {
	return r.put(columnIndex, string(v))
}

func (r *rowBuilder) PutSym(columnIndex int, v []byte) error {
	return r.put(columnIndex, string(v))
}

// Append implements qdb.Row.
func (r *rowBuilder) Append() error {
	if r.done {
		return errors.New("row already appended or canceled")
	}
	r.done = true
	for i := 0; i < len(r.values) && i < r.table.columnCount(); i++ {
		if r.table.column(i).Type == qdb.TypeTimestamp {
			r.values[i] = r.micros
			break
		}
	}
	r.table.appendPending(r.values)
	return nil
}

// Cancel implements qdb.Row.
func (r *rowBuilder) Cancel() {
	r.done = true
}
