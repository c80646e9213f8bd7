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

// mode names the four dispatch states from spec.md §4.1. It exists
// alongside handlers (below) so that a transition can be asserted or
// logged without type-switching on the handlers value itself.
type mode int

const (
	modeUnbound mode = iota
	modeAppend
	modeNewTable
	modeSkipLine
)

func (m mode) String() string {
	switch m {
	case modeAppend:
		return "append"
	case modeNewTable:
		return "new_table"
	case modeSkipLine:
		return "skip_line"
	default:
		return "unbound"
	}
}

// handlers realizes the four-function-pointer quartet from spec.md
// §4.1 (line-end, field-name, field-value, tag-value) as a single
// interface implementation per mode, per the REDESIGN FLAG in spec.md
// §9: a mode tag plus a static dispatch table gives type safety
// without losing branch predictability, and Core only ever swaps the
// whole interface value — never an individual method — so partial
// swaps are structurally impossible.
type handlers interface {
	onLineEnd(c *Core)
	onFieldName(c *Core, tok lpproto.Token, cache lpproto.Cache)
	onFieldValue(c *Core, tok lpproto.Token, cache lpproto.Cache)
	onTagValue(c *Core, tok lpproto.Token, cache lpproto.Cache)
}

// modeTable is the static 4-entry dispatch table; all four mode values
// are stateless singletons.
var modeTable = [...]handlers{
	modeUnbound:  unboundHandlers{},
	modeAppend:   appendHandlers{},
	modeNewTable: newTableHandlers{},
	modeSkipLine: skipLineHandlers{},
}

// unboundHandlers is the initial mode: no table has been bound yet for
// this line, so every callback is a no-op.
type unboundHandlers struct{}

func (unboundHandlers) onLineEnd(*Core)                                  {}
func (unboundHandlers) onFieldName(*Core, lpproto.Token, lpproto.Cache)  {}
func (unboundHandlers) onFieldValue(*Core, lpproto.Token, lpproto.Cache) {}
func (unboundHandlers) onTagValue(*Core, lpproto.Token, lpproto.Cache)   {}

// skipLineHandlers discards the remainder of a malformed or
// type-mismatched line. Scratch is still cleared unconditionally by
// the outer OnLineEnd, so no-op handlers here are sufficient.
type skipLineHandlers struct{}

func (skipLineHandlers) onLineEnd(*Core)                                  {}
func (skipLineHandlers) onFieldName(*Core, lpproto.Token, lpproto.Cache)  {}
func (skipLineHandlers) onFieldValue(*Core, lpproto.Token, lpproto.Cache) {}
func (skipLineHandlers) onTagValue(*Core, lpproto.Token, lpproto.Cache)   {}

// appendHandlers binds tokens onto an existing table's writer.
type appendHandlers struct{}

func (appendHandlers) onLineEnd(c *Core) {
	n := len(c.scratch.columnIndexAndType)
	c.buildAndAppendRow(c.activeWriter, n, func(i int) (int, qdb.ColumnType) {
		e := c.scratch.columnIndexAndType[i]
		return e.index, e.typ
	})
}

// onFieldName looks up the column by name in the writer's metadata. If
// found, it remembers (columnIndex, columnType) for the value that
// follows. If not, it remembers the name address and marks the type
// unknown (qdb.TypeInvalid), signaling the value handler to create a
// new column. This same handler is used for TAG_NAME events too: both
// need the identical name-to-column resolution, and the tag-value
// handler is what forces the eventual type to SYMBOL.
func (appendHandlers) onFieldName(c *Core, tok lpproto.Token, cache lpproto.Cache) {
	name := tok.Text(cache)
	if info, ok := c.activeWriter.Metadata().ColumnByName(string(name)); ok {
		c.pending = pendingField{columnIndex: info.Index, columnType: info.Type}
		return
	}
	c.pending = pendingField{nameAddr: tok.Addr, columnType: qdb.TypeInvalid}
}

func (appendHandlers) onFieldValue(c *Core, tok lpproto.Token, cache lpproto.Cache) {
	text := tok.Text(cache)
	inferred := inferType(text)
	if inferred == qdb.TypeInvalid {
		c.skipLine("invalid field value", tok, cache)
		return
	}
	c.bindAppendValue(tok, cache, inferred)
}

func (appendHandlers) onTagValue(c *Core, tok lpproto.Token, cache lpproto.Cache) {
	// Tag values always infer as SYMBOL, regardless of content.
	c.bindAppendValue(tok, cache, qdb.TypeSymbol)
}

// newTableHandlers accumulates the columns and values that will become
// a brand-new table's first row.
type newTableHandlers struct{}

func (newTableHandlers) onLineEnd(c *Core) {
	c.createTableAndAppendFirstRow()
}

// onFieldName just records the name address; there is no existing
// table to look columns up in yet. Shared with TAG_NAME for the same
// reason as appendHandlers.onFieldName.
func (newTableHandlers) onFieldName(c *Core, tok lpproto.Token, _ lpproto.Cache) {
	c.pending = pendingField{nameAddr: tok.Addr, columnType: qdb.TypeInvalid}
}

func (newTableHandlers) onFieldValue(c *Core, tok lpproto.Token, cache lpproto.Cache) {
	inferred := inferType(tok.Text(cache))
	if inferred == qdb.TypeInvalid {
		c.skipLine("invalid field value", tok, cache)
		return
	}
	c.scratch.columnNameType = append(c.scratch.columnNameType, nameType{
		nameAddr: c.pending.nameAddr,
		typ:      inferred,
	})
	c.scratch.columnValues = append(c.scratch.columnValues, tok)
}

func (newTableHandlers) onTagValue(c *Core, tok lpproto.Token, _ lpproto.Cache) {
	c.scratch.columnNameType = append(c.scratch.columnNameType, nameType{
		nameAddr: c.pending.nameAddr,
		typ:      qdb.TypeSymbol,
	})
	c.scratch.columnValues = append(c.scratch.columnValues, tok)
}
