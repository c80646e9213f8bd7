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

package sqlengine

import (
	"context"
	"sync"

	"github.com/cockroachdb/lp-ingest/internal/qdb"
	"github.com/pkg/errors"
)

// Writer is a qdb.Writer that buffers rows in process memory and
// flushes them as a batch of INSERT statements on Commit, the same
// batched-commit shape internal/ingest.Core.CommitAll expects of any
// engine.
type Writer struct {
	product Product
	pool    pool
	meta    *tableMeta

	mu      sync.Mutex
	pending []rowValues
}

var _ qdb.Writer = (*Writer)(nil)

type rowValues struct {
	values []interface{}
}

// Name implements qdb.Writer.
func (w *Writer) Name() string { return w.meta.name }

// Metadata implements qdb.Writer.
func (w *Writer) Metadata() qdb.Metadata { return w.meta }

// AddColumn implements qdb.Writer.
func (w *Writer) AddColumn(ctx context.Context, name string, typ qdb.ColumnType) (int, error) {
	ddl, err := addColumnDDL(w.product, w.meta.name, name, typ)
	if err != nil {
		return 0, err
	}
	if err := w.pool.exec(ctx, ddl); err != nil {
		return 0, errors.Wrapf(err, "adding column %q to %q", name, w.meta.name)
	}
	return w.meta.addColumn(name, typ), nil
}

// NewRow implements qdb.Writer.
func (w *Writer) NewRow(micros int64) qdb.Row {
	width := w.meta.ColumnCount()
	values := make([]interface{}, width)
	for i := 0; i < width; i++ {
		if w.meta.Column(i).Type == qdb.TypeTimestamp {
			values[i] = micros
			break
		}
	}
	return &sqlRow{writer: w, values: values}
}

func (w *Writer) appendPending(v []interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, rowValues{values: v})
}

// Commit implements qdb.Writer. All pending rows are flushed as one
// statement per row inside a best-effort batch; a partial failure
// leaves already-executed inserts durable, matching how a real
// columnar commit is not atomic across rows on a crash mid-batch.
func (w *Writer) Commit(ctx context.Context) error {
	w.mu.Lock()
	batch := w.pending
	w.pending = nil
	w.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	names := make([]string, w.meta.ColumnCount())
	for i := 0; i < len(names); i++ {
		names[i] = w.meta.Column(i).Name
	}
	ddl := insertDDL(w.product, w.meta.name, names)

	for _, r := range batch {
		if err := w.pool.exec(ctx, ddl, r.values...); err != nil {
			return errors.Wrapf(err, "inserting row into %q", w.meta.name)
		}
	}
	return nil
}

// Close implements qdb.Writer. The shared connection pool outlives
// any one Writer, so there is nothing to release here.
func (w *Writer) Close() error { return nil }

// sqlRow implements qdb.Row by filling in a positional value slice
// until Append hands it to the writer's pending batch.
type sqlRow struct {
	writer *Writer
	values []interface{}
	done   bool
}

var _ qdb.Row = (*sqlRow)(nil)

func (r *sqlRow) put(columnIndex int, v interface{}) error {
	if r.done {
		return errors.New("row already appended or canceled")
	}
	if columnIndex < 0 || columnIndex >= len(r.values) {
		return errors.Errorf("column index %d out of range [0,%d)", columnIndex, len(r.values))
	}
	r.values[columnIndex] = v
	return nil
}

func (r *sqlRow) PutLong(columnIndex int, v int64) error     { return r.put(columnIndex, v) }
func (r *sqlRow) PutBool(columnIndex int, v bool) error      { return r.put(columnIndex, v) }
func (r *sqlRow) PutDouble(columnIndex int, v float64) error { return r.put(columnIndex, v) }
func (r *sqlRow) PutStr(columnIndex int, v []byte) error     { return r.put(columnIndex, string(v)) }
func (r *sqlRow) PutSym(columnIndex int, v []byte) error     { return r.put(columnIndex, string(v)) }

// Append implements qdb.Row.
func (r *sqlRow) Append() error {
	if r.done {
		return errors.New("row already appended or canceled")
	}
	r.done = true
	r.writer.appendPending(r.values)
	return nil
}

// Cancel implements qdb.Row.
func (r *sqlRow) Cancel() {
	r.done = true
}
