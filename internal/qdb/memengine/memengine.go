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

// Package memengine is a reference qdb.Engine held entirely in memory.
// It exists for tests and for the demo binary's --memory mode, as a
// dependency-free stand-in for a database-backed engine.
package memengine

import (
	"context"
	"sync"

	"github.com/cockroachdb/lp-ingest/internal/qdb"
	"github.com/pkg/errors"
)

// Engine is a qdb.Engine backed by a process-local map of tables. It
// is safe for concurrent use by multiple goroutines, unlike a Core
// itself, since the demo server may route different connections'
// writes to tables that happen to collide.
type Engine struct {
	mu     sync.Mutex
	tables map[string]*table
}

// New returns an empty Engine.
func New() *Engine {
	return &Engine{tables: make(map[string]*table)}
}

var _ qdb.Engine = (*Engine)(nil)

// Status implements qdb.Engine.
func (e *Engine) Status(_ context.Context, _ qdb.SecurityContext, name string) (qdb.TableStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tables[name]; ok {
		return qdb.TableStatusExists, nil
	}
	return qdb.TableStatusDoesNotExist, nil
}

// CreateTable implements qdb.Engine.
func (e *Engine) CreateTable(_ context.Context, _ qdb.SecurityContext, structure qdb.TableStructure) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tables[structure.Name]; ok {
		return errors.Errorf("table %q already exists", structure.Name)
	}
	t := newTable(structure)
	e.tables[structure.Name] = t
	return nil
}

// GetWriter implements qdb.Engine. Every call returns a distinct
// *Writer handle over the same shared table, mirroring how a real
// storage engine hands out independent writer handles that share the
// same underlying column store.
func (e *Engine) GetWriter(_ context.Context, _ qdb.SecurityContext, name string) (qdb.Writer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[name]
	if !ok {
		return nil, errors.Errorf("table %q does not exist", name)
	}
	return &Writer{table: t}, nil
}

// Snapshot returns a defensive copy of the rows committed so far to
// name, for test assertions. It returns nil if the table does not
// exist.
func (e *Engine) Snapshot(name string) []Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[name]
	if !ok {
		return nil
	}
	return t.snapshot()
}
