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

// Package qdb describes the collaborators that the ingest package
// requires of a columnar time-series store: a table writer with typed
// column setters, table introspection, and table creation. The
// storage engine itself is out of scope for this repository; this
// package only pins down the interfaces that internal/ingest is
// written against, plus a couple of reference implementations
// (memengine, sqlengine) used for tests and the demo binary.
package qdb

import "context"

// ColumnType enumerates the column types the ingest core can produce.
// The numeric values are not load-bearing, but TypeInvalid is kept at
// -1 because the ingest core uses that exact sentinel to mark "new
// column, type not yet known" in its row scratch.
type ColumnType int

const (
	// TypeInvalid marks a column whose type has not yet been
	// determined, or a token that failed type inference.
	TypeInvalid ColumnType = -1
	TypeLong    ColumnType = iota
	TypeBoolean
	TypeString
	TypeDouble
	TypeSymbol
	TypeTimestamp
)

// String names a column type for log messages.
func (t ColumnType) String() string {
	switch t {
	case TypeLong:
		return "LONG"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeString:
		return "STRING"
	case TypeDouble:
		return "DOUBLE"
	case TypeSymbol:
		return "SYMBOL"
	case TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "INVALID"
	}
}

// TableStatus is returned by Engine.Status.
type TableStatus int

const (
	// TableStatusUnknown covers any engine response the ingest core
	// does not recognize; it is treated the same as an error by
	// callers (entry goes UNUSABLE).
	TableStatusUnknown TableStatus = iota
	TableStatusExists
	TableStatusDoesNotExist
)

// SecurityContext is an opaque, engine-defined authorization token
// threaded through every call into the storage engine. The ingest
// core never inspects it.
type SecurityContext interface {
	// Principal returns a human-readable identity for logging.
	Principal() string
}

// AnonymousContext is a SecurityContext that authorizes everything; it
// exists so tests and the in-memory engine don't need a real
// authentication layer.
type AnonymousContext struct{}

// Principal implements SecurityContext.
func (AnonymousContext) Principal() string { return "anonymous" }

// ColumnInfo describes one column of an existing table, as returned by
// Metadata.
type ColumnInfo struct {
	Name  string
	Type  ColumnType
	Index int
}

// Metadata is an introspectable snapshot of a table's columns, as
// returned by Writer.Metadata.
type Metadata interface {
	// ColumnCount returns the number of columns, including the
	// designated timestamp column. A new table has that column last;
	// columns added later by AddColumn follow it.
	ColumnCount() int
	// ColumnByName returns the column's index and type, and whether it
	// exists at all.
	ColumnByName(name string) (ColumnInfo, bool)
	// Column returns the column at the given index.
	Column(index int) ColumnInfo
}

// TableStructure describes a table to be created, including its
// trailing designated-timestamp column. This is what
// internal/ingest's table-structure adapter synthesizes from a new
// table's first line.
type TableStructure struct {
	Name      string
	Columns   []ColumnInfo
	Partition PartitionBy
	// Indexed, when true, requests a secondary index on SYMBOL
	// columns; the engine decides which ones.
	Indexed bool
	// SymbolCacheCapacity is a hint for how many distinct symbol
	// values the engine should expect to cache per SYMBOL column.
	// Zero means "use the engine default."
	SymbolCacheCapacity int
}

// PartitionBy enumerates time partitioning strategies. Only
// PartitionNone is produced by internal/ingest today; the others exist
// so TableStructure can describe what an engine-level configuration
// knob would add, without the ingest core needing to know about it.
type PartitionBy int

const (
	PartitionNone PartitionBy = iota
	PartitionDay
	PartitionMonth
)

// Row is a single in-progress row on a Writer. A Row must be either
// Appended or Canceled exactly once; the ingest core guarantees this.
type Row interface {
	PutLong(columnIndex int, v int64) error
	PutBool(columnIndex int, v bool) error
	PutStr(columnIndex int, v []byte) error
	PutSym(columnIndex int, v []byte) error
	PutDouble(columnIndex int, v float64) error
	// Append commits this row into its writer's in-memory buffer; it
	// is not durable until the writer's Commit is called.
	Append() error
	// Cancel discards this row. Safe to call after a failed Put.
	Cancel()
}

// Writer accepts rows for exactly one table. A Writer must be
// Committed (directly, or by way of Core.CommitAll) to make its rows
// visible, and must be released by whoever acquired it.
type Writer interface {
	Name() string
	Metadata() Metadata
	NewRow(micros int64) Row
	// AddColumn evolves the table's schema, returning the new column's
	// index.
	AddColumn(ctx context.Context, name string, typ ColumnType) (index int, err error)
	Commit(ctx context.Context) error
	// Close releases the writer handle back to the engine. It does not
	// commit pending rows.
	Close() error
}

// Engine is the downstream storage interface the ingest core is
// written against: status checks, writer acquisition, and table
// creation, exactly as named in spec.md's "External Interfaces"
// section.
type Engine interface {
	Status(ctx context.Context, sec SecurityContext, name string) (TableStatus, error)
	GetWriter(ctx context.Context, sec SecurityContext, name string) (Writer, error)
	CreateTable(ctx context.Context, sec SecurityContext, structure TableStructure) error
}

// TimestampAdapter parses an explicit timestamp token into
// microseconds since the epoch. It may fail if the token is not
// numeric.
type TimestampAdapter interface {
	Micros(text []byte) (int64, error)
}

// MicrosecondClock is the wall clock used when a line carries no
// explicit timestamp.
type MicrosecondClock interface {
	Ticks() int64
}
