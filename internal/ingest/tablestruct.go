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

// timestampColumnName is the synthetic trailing column every new table
// gets, per spec.md §4.5.
const timestampColumnName = "timestamp"

// buildTableStructure synthesizes a qdb.TableStructure from the
// current line's accumulated columnNameType pairs, per spec.md §4.5:
// column count is size/2 + 1, the first size/2 columns come from the
// name/type pairs in order, and the final column is the synthetic
// TIMESTAMP column. Partitioning is always NONE; indexing and the
// symbol-cache hint come from cfg.
func buildTableStructure(
	name string, pairs []nameType, cache lpproto.Cache, cfg Config,
) qdb.TableStructure {
	n := len(pairs)
	columns := make([]qdb.ColumnInfo, n+1)
	for i, p := range pairs {
		columns[i] = qdb.ColumnInfo{
			Name:  string(cache.Text(p.nameAddr)),
			Type:  p.typ,
			Index: i,
		}
	}
	columns[n] = qdb.ColumnInfo{
		Name:  timestampColumnName,
		Type:  qdb.TypeTimestamp,
		Index: n,
	}
	return qdb.TableStructure{
		Name:                name,
		Columns:             columns,
		Partition:           qdb.PartitionNone,
		Indexed:             cfg.Indexed,
		SymbolCacheCapacity: cfg.SymbolCacheCapacity,
	}
}
