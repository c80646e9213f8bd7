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
)

// fakePool is an in-process pool used to test Engine and Writer
// without a real database connection. It records every exec call and
// serves columnNames from a fixed table. A table absent from columns
// reports a confirmed-empty result (nil, nil), the same as a real
// catalog query against a table that genuinely does not exist;
// columnsErr simulates the catalog lookup itself failing.
type fakePool struct {
	execs      []string
	execArgs   [][]interface{}
	execErr    error
	columns    map[string][]string
	columnsErr error
	closed     bool
}

func newFakePool() *fakePool {
	return &fakePool{columns: make(map[string][]string)}
}

func (p *fakePool) exec(_ context.Context, query string, args ...interface{}) error {
	if p.execErr != nil {
		return p.execErr
	}
	p.execs = append(p.execs, query)
	p.execArgs = append(p.execArgs, args)
	return nil
}

func (p *fakePool) queryRow(context.Context, string, ...interface{}) row {
	return fakeRowScanner{}
}

func (p *fakePool) columnNames(_ context.Context, table string) ([]string, error) {
	if p.columnsErr != nil {
		return nil, p.columnsErr
	}
	return p.columns[table], nil
}

func (p *fakePool) close() { p.closed = true }

type fakeRowScanner struct{}

func (fakeRowScanner) Scan(...interface{}) error { return nil }
