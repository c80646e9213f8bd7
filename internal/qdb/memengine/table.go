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
	"sync"

	"github.com/cockroachdb/lp-ingest/internal/qdb"
)

// Row is one committed row, as a flat slice of column values in
// column-index order. Concrete value types are int64, bool, string
// (used for both STRING and SYMBOL columns), or float64.
type Row []interface{}

// table holds one measurement's schema and committed rows, guarded by
// its own mutex so that readers (Snapshot) never block a writer's
// in-progress AddColumn.
type table struct {
	mu      sync.RWMutex
	name    string
	columns []qdb.ColumnInfo
	byName  map[string]int
	rows    []Row
	// pending holds uncommitted rows appended through any Writer handle
	// over this table; Commit moves them into rows.
	pending []Row
}

func newTable(structure qdb.TableStructure) *table {
	t := &table{
		name:    structure.Name,
		columns: append([]qdb.ColumnInfo(nil), structure.Columns...),
		byName:  make(map[string]int, len(structure.Columns)),
	}
	for _, c := range structure.Columns {
		t.byName[c.Name] = c.Index
	}
	return t
}

func (t *table) snapshot() []Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

func (t *table) columnCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.columns)
}

func (t *table) columnByName(name string) (qdb.ColumnInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx, ok := t.byName[name]
	if !ok {
		return qdb.ColumnInfo{}, false
	}
	return t.columns[idx], true
}

func (t *table) column(index int) qdb.ColumnInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.columns[index]
}

// addColumn appends a new column, unless name already exists, in which
// case the existing index is returned (schema evolution is idempotent
// from the caller's point of view).
func (t *table) addColumn(name string, typ qdb.ColumnType) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx, ok := t.byName[name]; ok {
		return idx
	}
	index := len(t.columns)
	t.columns = append(t.columns, qdb.ColumnInfo{Name: name, Type: typ, Index: index})
	t.byName[name] = index
	return index
}

func (t *table) appendPending(r Row) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, r)
}

func (t *table) commit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append(t.rows, t.pending...)
	t.pending = t.pending[:0]
}
