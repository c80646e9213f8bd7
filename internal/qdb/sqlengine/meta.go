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

// tableMeta is the engine's in-process record of one table's columns,
// the sqlengine analogue of a schema Watcher's per-table entry.
type tableMeta struct {
	mu      sync.RWMutex
	name    string
	columns []qdb.ColumnInfo
	byName  map[string]int
}

func newTableMeta(name string, columns []qdb.ColumnInfo) *tableMeta {
	m := &tableMeta{name: name, byName: make(map[string]int, len(columns))}
	m.columns = append([]qdb.ColumnInfo(nil), columns...)
	for _, c := range m.columns {
		m.byName[c.Name] = c.Index
	}
	return m
}

var _ qdb.Metadata = (*tableMeta)(nil)

func (m *tableMeta) ColumnCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.columns)
}

func (m *tableMeta) ColumnByName(name string) (qdb.ColumnInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.byName[name]
	if !ok {
		return qdb.ColumnInfo{}, false
	}
	return m.columns[idx], true
}

func (m *tableMeta) Column(index int) qdb.ColumnInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.columns[index]
}

func (m *tableMeta) addColumn(name string, typ qdb.ColumnType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx, ok := m.byName[name]; ok {
		return idx
	}
	index := len(m.columns)
	m.columns = append(m.columns, qdb.ColumnInfo{Name: name, Type: typ, Index: index})
	m.byName[name] = index
	return index
}

// loadMeta discovers a table's columns from the database's catalog.
// It is used the first time this process observes a table it did not
// itself create. This engine's finer column-type distinctions (STRING
// vs SYMBOL, in particular) do not round-trip through a catalog type
// name, so every discovered column is typed qdb.TypeString except a
// column named "timestamp", which every table created by this package
// carries (see buildTableStructure in internal/ingest). That column is
// recognized at any position, since ADD COLUMN places later columns
// after it.
//
// A nil, nil return means the catalog was reached and confirmed the
// table absent. A non-nil error means the catalog could not be
// consulted at all (connection, auth, query failure); callers must not
// treat that the same as "table does not exist".
func (e *Engine) loadMeta(ctx context.Context, name string) (*tableMeta, error) {
	names, err := e.pool.columnNames(ctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, "discovering columns for %q", name)
	}
	if len(names) == 0 {
		return nil, nil
	}
	columns := make([]qdb.ColumnInfo, len(names))
	for i, n := range names {
		typ := qdb.TypeString
		if n == "timestamp" {
			typ = qdb.TypeTimestamp
		}
		columns[i] = qdb.ColumnInfo{Name: n, Type: typ, Index: i}
	}
	return newTableMeta(name, columns), nil
}
