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
	"context"
	"strconv"

	"github.com/cockroachdb/lp-ingest/internal/lpproto"
	"github.com/cockroachdb/lp-ingest/internal/qdb"
	"github.com/pkg/errors"
)

// fakeCache is an lpproto.Cache that interns strings in the order
// Address values are handed out, starting at 1 (0 is NoAddress).
type fakeCache struct {
	entries [][]byte
}

func (c *fakeCache) intern(s string) lpproto.Address {
	c.entries = append(c.entries, []byte(s))
	return lpproto.Address(len(c.entries))
}

func (c *fakeCache) Text(addr lpproto.Address) []byte {
	if addr == lpproto.NoAddress {
		return nil
	}
	return c.entries[addr-1]
}

func (c *fakeCache) tok(s string) lpproto.Token {
	return lpproto.Token{Addr: c.intern(s)}
}

// fakeRow is a qdb.Row that records Put calls into a map keyed by
// column index, for test assertions.
type fakeRow struct {
	writer     *fakeWriter
	micros     int64
	values     map[int]interface{}
	canceled   bool
	appended   bool
	failPut    map[int]bool // columnIndex -> force PutX to fail
	failAppend bool
}

func (r *fakeRow) put(columnIndex int, v interface{}) error {
	if r.failPut[columnIndex] {
		return errors.Errorf("forced failure on column %d", columnIndex)
	}
	r.values[columnIndex] = v
	return nil
}

func (r *fakeRow) PutLong(columnIndex int, v int64) error     { return r.put(columnIndex, v) }
func (r *fakeRow) PutBool(columnIndex int, v bool) error      { return r.put(columnIndex, v) }
func (r *fakeRow) PutDouble(columnIndex int, v float64) error { return r.put(columnIndex, v) }
func (r *fakeRow) PutStr(columnIndex int, v []byte) error     { return r.put(columnIndex, string(v)) }
func (r *fakeRow) PutSym(columnIndex int, v []byte) error     { return r.put(columnIndex, string(v)) }

func (r *fakeRow) Append() error {
	if r.failAppend {
		return errors.New("forced append failure")
	}
	r.appended = true
	r.writer.rows = append(r.writer.rows, r)
	return nil
}

func (r *fakeRow) Cancel() { r.canceled = true }

// fakeMetadata implements qdb.Metadata over a fakeWriter's columns.
type fakeMetadata struct{ w *fakeWriter }

func (m fakeMetadata) ColumnCount() int { return len(m.w.columns) }

func (m fakeMetadata) ColumnByName(name string) (qdb.ColumnInfo, bool) {
	for _, c := range m.w.columns {
		if c.Name == name {
			return c, true
		}
	}
	return qdb.ColumnInfo{}, false
}

func (m fakeMetadata) Column(index int) qdb.ColumnInfo { return m.w.columns[index] }

// fakeWriter is a qdb.Writer that records rows and commits in memory.
type fakeWriter struct {
	name        string
	columns     []qdb.ColumnInfo
	rows        []*fakeRow
	commits     int
	closed      bool
	addColFails    bool
	commitErr      error
	failNextAppend bool
}

func (w *fakeWriter) Name() string           { return w.name }
func (w *fakeWriter) Metadata() qdb.Metadata { return fakeMetadata{w} }
func (w *fakeWriter) NewRow(micros int64) qdb.Row {
	row := &fakeRow{writer: w, micros: micros, values: make(map[int]interface{}), failPut: make(map[int]bool)}
	if w.failNextAppend {
		row.failAppend = true
		w.failNextAppend = false
	}
	return row
}

func (w *fakeWriter) AddColumn(_ context.Context, name string, typ qdb.ColumnType) (int, error) {
	if w.addColFails {
		return 0, errors.New("add column failed")
	}
	index := len(w.columns)
	w.columns = append(w.columns, qdb.ColumnInfo{Name: name, Type: typ, Index: index})
	return index, nil
}

func (w *fakeWriter) Commit(context.Context) error {
	w.commits++
	return w.commitErr
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

// fakeEngine is a qdb.Engine over an in-memory set of fakeWriters,
// used to drive Core through its full lifecycle in tests without a
// real storage engine.
type fakeEngine struct {
	tables        map[string]*fakeWriter
	statusErr     map[string]error
	getWriterErrs map[string]int // remaining failures before success
	createErr     map[string]error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{tables: make(map[string]*fakeWriter)}
}

func (e *fakeEngine) Status(_ context.Context, _ qdb.SecurityContext, name string) (qdb.TableStatus, error) {
	if err := e.statusErr[name]; err != nil {
		return qdb.TableStatusUnknown, err
	}
	if _, ok := e.tables[name]; ok {
		return qdb.TableStatusExists, nil
	}
	return qdb.TableStatusDoesNotExist, nil
}

func (e *fakeEngine) CreateTable(_ context.Context, _ qdb.SecurityContext, structure qdb.TableStructure) error {
	if e.createErr != nil {
		if err := e.createErr[structure.Name]; err != nil {
			return err
		}
	}
	e.tables[structure.Name] = &fakeWriter{name: structure.Name, columns: append([]qdb.ColumnInfo(nil), structure.Columns...)}
	return nil
}

func (e *fakeEngine) GetWriter(_ context.Context, _ qdb.SecurityContext, name string) (qdb.Writer, error) {
	if n, ok := e.getWriterErrs[name]; ok && n > 0 {
		e.getWriterErrs[name] = n - 1
		return nil, errors.Errorf("get writer failed for %q", name)
	}
	w, ok := e.tables[name]
	if !ok {
		return nil, errors.Errorf("no such table %q", name)
	}
	return w, nil
}

// fakeClock is a qdb.MicrosecondClock returning a fixed value.
type fakeClock struct{ micros int64 }

func (c fakeClock) Ticks() int64 { return c.micros }

// fakeTSAdapter is a qdb.TimestampAdapter parsing plain decimal text,
// failing on anything non-numeric.
type fakeTSAdapter struct{}

func (fakeTSAdapter) Micros(text []byte) (int64, error) {
	v, err := strconv.ParseInt(string(text), 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "invalid timestamp")
	}
	return v, nil
}

func newTestCore(engine *fakeEngine) *Core {
	return New(context.Background(), engine, qdb.AnonymousContext{}, fakeClock{micros: 999}, fakeTSAdapter{}, Config{
		TimestampDivisor: 1000,
	})
}
