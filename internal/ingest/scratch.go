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
	"github.com/cockroachdb/lp-ingest/internal/lpproto"
	"github.com/cockroachdb/lp-ingest/internal/qdb"
)

// nameType pairs a column name's token address with its inferred type.
// Used only while building a new table's first row, where no column
// index exists yet.
type nameType struct {
	nameAddr lpproto.Address
	typ      qdb.ColumnType
}

// indexType pairs an already-bound column index with its type. Used
// for every field/tag once its owning table exists.
type indexType struct {
	index int
	typ   qdb.ColumnType
}

// scratch holds the three parallel per-line buffers described in
// spec.md §3. It is owned by a single Core, reused for the lifetime of
// the process, and cleared (by re-slicing to zero length, never by
// reallocating) after every OnLineEnd and OnError.
type scratch struct {
	columnNameType     []nameType
	columnIndexAndType []indexType
	columnValues       []lpproto.Token
}

// reset clears all three buffers without releasing their backing
// arrays, so that a long-running ingest core never re-allocates scratch
// once each buffer has grown to its steady-state size.
func (s *scratch) reset() {
	s.columnNameType = s.columnNameType[:0]
	s.columnIndexAndType = s.columnIndexAndType[:0]
	s.columnValues = s.columnValues[:0]
}

// pendingField is the single-slot memory used between a FIELD_NAME (or
// TAG_NAME) event and the FIELD_VALUE/TAG_VALUE event that follows it.
// It is not one of the three parallel scratch buffers because at most
// one field/tag name is ever "in flight" at a time.
type pendingField struct {
	// nameAddr is valid when the column does not yet exist
	// (columnType == qdb.TypeInvalid); it is the address to pass to
	// AddColumn and, in NEW_TABLE mode, to record in columnNameType.
	nameAddr lpproto.Address
	// columnIndex is valid when columnType != qdb.TypeInvalid.
	columnIndex int
	// columnType is qdb.TypeInvalid as a marker meaning "new column,
	// type not yet known," matching the -1 sentinel from spec.md §4.1.
	columnType qdb.ColumnType
}
