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
	"testing"

	"github.com/cockroachdb/lp-ingest/internal/lpproto/lexer"
	"github.com/cockroachdb/lp-ingest/internal/qdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// send drives one line-protocol line through lex into core.
func send(lex *lexer.Lexer, core *Core, line string) {
	lex.ParseLine([]byte(line), core)
}

func TestCore_NewTableTypedFields(t *testing.T) {
	engine := newFakeEngine()
	core := newTestCore(engine)
	lex := lexer.New()

	send(lex, core, `cpu,host=a load=0.5,count=3i 1000`)

	w, ok := engine.tables["cpu"]
	require.True(t, ok, "table should have been created")
	require.Len(t, w.rows, 1)

	row := w.rows[0]
	assert.False(t, row.canceled)
	assert.True(t, row.appended)

	hostIdx, ok := w.Metadata().ColumnByName("host")
	require.True(t, ok)
	assert.Equal(t, qdb.TypeSymbol, hostIdx.Type)
	assert.Equal(t, "a", row.values[hostIdx.Index])

	loadIdx, ok := w.Metadata().ColumnByName("load")
	require.True(t, ok)
	assert.Equal(t, qdb.TypeDouble, loadIdx.Type)
	assert.Equal(t, 0.5, row.values[loadIdx.Index])

	countIdx, ok := w.Metadata().ColumnByName("count")
	require.True(t, ok)
	assert.Equal(t, qdb.TypeLong, countIdx.Type)
	assert.Equal(t, int64(3), row.values[countIdx.Index])

	tsIdx, ok := w.Metadata().ColumnByName("timestamp")
	require.True(t, ok)
	assert.Equal(t, qdb.TypeTimestamp, tsIdx.Type)
}

func TestCore_ExistingTableSchemaExtension(t *testing.T) {
	engine := newFakeEngine()
	// Pre-populate the table as if it already existed before the
	// first line arrives.
	engine.tables["cpu"] = &fakeWriter{
		name: "cpu",
		columns: []qdb.ColumnInfo{
			{Name: "load", Type: qdb.TypeDouble, Index: 0},
			{Name: "timestamp", Type: qdb.TypeTimestamp, Index: 1},
		},
	}
	core := newTestCore(engine)
	lex := lexer.New()

	send(lex, core, `cpu load=0.25 1000`)
	send(lex, core, `cpu load=0.75,temp=99.1 2000`)

	w := engine.tables["cpu"]
	require.Len(t, w.rows, 2)

	tempCol, ok := w.Metadata().ColumnByName("temp")
	require.True(t, ok, "temp column should have been added")
	assert.Equal(t, qdb.TypeDouble, tempCol.Type)

	assert.False(t, w.rows[0].canceled)
	assert.False(t, w.rows[1].canceled)
	assert.Equal(t, 99.1, w.rows[1].values[tempCol.Index])
}

func TestCore_TypeMismatchSkipsLineOnly(t *testing.T) {
	engine := newFakeEngine()
	core := newTestCore(engine)
	lex := lexer.New()

	send(lex, core, `cpu load=0.5 1000`)
	require.Len(t, engine.tables["cpu"].rows, 1)

	// load is DOUBLE; sending a quoted string for it is a type
	// mismatch and must skip just this line.
	send(lex, core, `cpu load="bogus" 2000`)
	assert.Len(t, engine.tables["cpu"].rows, 1, "mismatched line must not append a row")

	send(lex, core, `cpu load=0.75 3000`)
	assert.Len(t, engine.tables["cpu"].rows, 2, "a later well-typed line must still append")

	w := engine.tables["cpu"]
	assert.False(t, w.closed)
}

func TestCore_BadTimestampSkipsLineOnly(t *testing.T) {
	engine := newFakeEngine()
	core := newTestCore(engine)
	lex := lexer.New()

	send(lex, core, `cpu load=0.5 not-a-number`)
	_, ok := engine.tables["cpu"]
	if ok {
		assert.Len(t, engine.tables["cpu"].rows, 0, "malformed timestamp must not produce a row")
	}

	send(lex, core, `cpu load=0.75 2000`)
	w, ok := engine.tables["cpu"]
	require.True(t, ok)
	require.Len(t, w.rows, 1, "a subsequent valid line must append normally")
}

func TestCore_TableChurnAndCommitGrouping(t *testing.T) {
	engine := newFakeEngine()
	core := newTestCore(engine)
	lex := lexer.New()

	send(lex, core, `cpu load=1 1000`)
	send(lex, core, `mem used=2 1000`)
	send(lex, core, `cpu load=3 2000`)
	send(lex, core, `mem used=4 2000`)

	core.CommitAll()

	cpu := engine.tables["cpu"]
	mem := engine.tables["mem"]
	require.NotNil(t, cpu)
	require.NotNil(t, mem)
	assert.Equal(t, 1, cpu.commits, "cpu must be committed exactly once")
	assert.Equal(t, 1, mem.commits, "mem must be committed exactly once")
	assert.Len(t, core.commit.writers, 0, "commit list must be empty after CommitAll")

	// A second CommitAll with no intervening events reaches the same
	// post-state: commit list empty, writers still valid (spec.md §8's
	// commit idempotence property is about post-state, not about how
	// many times Writer.Commit is invoked).
	core.CommitAll()
	assert.Len(t, core.commit.writers, 0)
	assert.False(t, cpu.closed)
	assert.False(t, mem.closed)
}

func TestCore_QuotedStringStripsQuotes(t *testing.T) {
	engine := newFakeEngine()
	core := newTestCore(engine)
	lex := lexer.New()

	send(lex, core, `events msg="hello" 1000`)

	w := engine.tables["events"]
	require.Len(t, w.rows, 1)
	msgCol, ok := w.Metadata().ColumnByName("msg")
	require.True(t, ok)
	assert.Equal(t, "hello", w.rows[0].values[msgCol.Index])
}

func TestCore_ScratchBuffersClearedEveryLine(t *testing.T) {
	engine := newFakeEngine()
	core := newTestCore(engine)
	lex := lexer.New()

	send(lex, core, `cpu load=1 1000`)
	assert.Empty(t, core.scratch.columnValues)
	assert.Empty(t, core.scratch.columnIndexAndType)
	assert.Equal(t, pendingField{}, core.pending)

	send(lex, core, `cpu load="oops" 1000`)
	assert.Empty(t, core.scratch.columnValues)
	assert.Empty(t, core.scratch.columnIndexAndType)
}

func TestCore_UnusableTableIsPermanent(t *testing.T) {
	engine := newFakeEngine()
	engine.statusErr = map[string]error{"cpu": assertErr}
	core := newTestCore(engine)
	lex := lexer.New()

	send(lex, core, `cpu load=1 1000`)
	assert.Equal(t, modeSkipLine, core.mode)

	// Even after the underlying error condition would no longer
	// reproduce, the cached entry stays UNUSABLE: the ingest core
	// never retries a terminal entry within the process lifetime.
	delete(engine.statusErr, "cpu")
	send(lex, core, `cpu load=2 2000`)
	assert.Equal(t, modeSkipLine, core.mode)
	_, ok := engine.tables["cpu"]
	assert.False(t, ok, "a permanently UNUSABLE entry must never retry table creation")
}

func TestCore_ModeSwapIsAllOrNothing(t *testing.T) {
	engine := newFakeEngine()
	core := newTestCore(engine)
	lex := lexer.New()

	send(lex, core, `cpu load=1 1000`)
	h := core.handlers
	require.NotNil(t, h)
	assert.Equal(t, modeAppend, core.mode)
	assert.Equal(t, modeTable[core.mode], h, "handlers must be the set that belongs to the current mode")
}

var assertErr = &testErr{"boom"}

type testErr struct{ s string }

func (e *testErr) Error() string { return e.s }
