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
	"fmt"
	"strings"

	"github.com/cockroachdb/lp-ingest/internal/qdb"
	"github.com/pkg/errors"
)

// sqlType maps a qdb.ColumnType to this dialect's column type name.
// Only the STRING/SYMBOL mapping depends on the product (TEXT on
// MySQL, STRING on every other product); every other type maps to the
// same name for all products, so one switch handles them all.
func sqlType(product Product, typ qdb.ColumnType) (string, error) {
	switch typ {
	case qdb.TypeLong:
		return "BIGINT", nil
	case qdb.TypeBoolean:
		return "BOOLEAN", nil
	case qdb.TypeDouble:
		return "DOUBLE PRECISION", nil
	case qdb.TypeString, qdb.TypeSymbol:
		if product == ProductMySQL {
			return "TEXT", nil
		}
		return "STRING", nil
	case qdb.TypeTimestamp:
		return "TIMESTAMPTZ", nil
	default:
		return "", errors.Errorf("no SQL type for column type %s", typ)
	}
}

// quoteIdent quotes an identifier with double quotes for every
// product. openPool does not change MySQL's sql_mode, so on MySQL these
// are read as quoted identifiers only when the server already runs
// with ANSI_QUOTES enabled.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// createTableDDL renders a CREATE TABLE statement for structure.
func createTableDDL(product Product, structure qdb.TableStructure) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", quoteIdent(structure.Name))
	for i, col := range structure.Columns {
		t, err := sqlType(product, col.Type)
		if err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "  %s %s", quoteIdent(col.Name), t)
	}
	b.WriteString("\n)")
	return b.String(), nil
}

// addColumnDDL renders an ALTER TABLE ... ADD COLUMN statement.
func addColumnDDL(product Product, table, column string, typ qdb.ColumnType) (string, error) {
	t, err := sqlType(product, typ)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quoteIdent(table), quoteIdent(column), t), nil
}

// insertDDL renders a parameterized INSERT statement for one row. The
// placeholder style differs by dialect: MySQL uses "?", the
// Postgres-family dialects use "$N".
func insertDDL(product Product, table string, columns []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (", quoteIdent(table))
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(c))
	}
	b.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		if product == ProductMySQL {
			b.WriteString("?")
		} else {
			fmt.Fprintf(&b, "$%d", i+1)
		}
	}
	b.WriteString(")")
	return b.String()
}
