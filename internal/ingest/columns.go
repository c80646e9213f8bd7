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
	"strconv"

	"github.com/cockroachdb/lp-ingest/internal/lpproto"
	"github.com/cockroachdb/lp-ingest/internal/qdb"
	"github.com/pkg/errors"
)

// columnSetter casts a raw token into the correct column type and
// writes it to row at columnIndex. Per spec.md §4.3, any error a
// setter returns aborts the entire row, not just the column; callers
// must Cancel the row.
type columnSetter func(row qdb.Row, columnIndex int, tok lpproto.Token, cache lpproto.Cache) error

// columnSetters is a constant lookup table keyed by column type code.
// The table ends at qdb.TypeSymbol, so qdb.TypeTimestamp has no entry:
// timestamps never flow through a column setter, they are parsed once
// at row creation (see buildAndAppendRow).
var columnSetters = [...]columnSetter{
	qdb.TypeLong:    setLong,
	qdb.TypeBoolean: setBool,
	qdb.TypeString:  setString,
	qdb.TypeDouble:  setDouble,
	qdb.TypeSymbol:  setSymbol,
}

func setLong(row qdb.Row, columnIndex int, tok lpproto.Token, cache lpproto.Cache) error {
	text := tok.Text(cache)
	// The trailing "i" integer-suffix is part of the line-protocol
	// grammar, not the number.
	v, err := strconv.ParseInt(string(text[:len(text)-1]), 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid integer %q", text)
	}
	return row.PutLong(columnIndex, v)
}

func setBool(row qdb.Row, columnIndex int, tok lpproto.Token, cache lpproto.Cache) error {
	return row.PutBool(columnIndex, isTruthy(tok.Text(cache)))
}

func setString(row qdb.Row, columnIndex int, tok lpproto.Token, cache lpproto.Cache) error {
	text := tok.Text(cache)
	// Strip the surrounding quotes; inferType already verified they're
	// present.
	if len(text) < 2 {
		return errors.Errorf("invalid quoted string %q", text)
	}
	return row.PutStr(columnIndex, text[1:len(text)-1])
}

func setDouble(row qdb.Row, columnIndex int, tok lpproto.Token, cache lpproto.Cache) error {
	text := tok.Text(cache)
	v, err := strconv.ParseFloat(string(text), 64)
	if err != nil {
		return errors.Wrapf(err, "invalid double %q", text)
	}
	return row.PutDouble(columnIndex, v)
}

func setSymbol(row qdb.Row, columnIndex int, tok lpproto.Token, cache lpproto.Cache) error {
	return row.PutSym(columnIndex, tok.Text(cache))
}
