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

// Engine is a qdb.Engine that issues DDL and DML against a real SQL
// database. It keeps an in-process cache of each known table's
// column metadata, much like a schema watcher would, since
// qdb.Metadata needs to answer ColumnByName without a round trip on
// every field.
type Engine struct {
	product Product
	pool    pool

	mu     sync.Mutex
	tables map[string]*tableMeta
}

var _ qdb.Engine = (*Engine)(nil)

// Open dials the configured database and returns a ready Engine.
func Open(ctx context.Context, cfg *Config) (*Engine, error) {
	p, err := openPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{
		product: cfg.product,
		pool:    p,
		tables:  make(map[string]*tableMeta),
	}, nil
}

// Close releases the underlying connection pool.
func (e *Engine) Close() { e.pool.close() }

// Status implements qdb.Engine. A table known to this process's cache
// is reported as existing without a round trip; otherwise the engine
// asks the database's catalog and, if found, caches its column
// metadata so the following GetWriter call needs no further lookup.
//
// A catalog lookup that fails outright (connection, auth, query error)
// is reported as TableStatusUnknown rather than TableStatusDoesNotExist:
// the two are not the same, and collapsing them would make a transient
// database outage look like a brand-new table to internal/ingest,
// which would then attempt CreateTable instead of permanently
// poisoning the table per the UNUSABLE contract.
func (e *Engine) Status(ctx context.Context, _ qdb.SecurityContext, name string) (qdb.TableStatus, error) {
	e.mu.Lock()
	_, cached := e.tables[name]
	e.mu.Unlock()
	if cached {
		return qdb.TableStatusExists, nil
	}

	meta, err := e.loadMeta(ctx, name)
	if err != nil {
		return qdb.TableStatusUnknown, err
	}
	if meta == nil {
		return qdb.TableStatusDoesNotExist, nil
	}
	e.mu.Lock()
	e.tables[name] = meta
	e.mu.Unlock()
	return qdb.TableStatusExists, nil
}

// CreateTable implements qdb.Engine.
func (e *Engine) CreateTable(ctx context.Context, _ qdb.SecurityContext, structure qdb.TableStructure) error {
	ddl, err := createTableDDL(e.product, structure)
	if err != nil {
		return err
	}
	if err := e.pool.exec(ctx, ddl); err != nil {
		return errors.Wrapf(err, "creating table %q", structure.Name)
	}

	meta := newTableMeta(structure.Name, structure.Columns)
	e.mu.Lock()
	e.tables[structure.Name] = meta
	e.mu.Unlock()
	return nil
}

// GetWriter implements qdb.Engine.
func (e *Engine) GetWriter(_ context.Context, _ qdb.SecurityContext, name string) (qdb.Writer, error) {
	e.mu.Lock()
	meta, ok := e.tables[name]
	e.mu.Unlock()
	if !ok {
		return nil, errors.Errorf("table %q is not known to this engine; Status/CreateTable must run first", name)
	}
	return &Writer{product: e.product, pool: e.pool, meta: meta}, nil
}
