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

import "github.com/cockroachdb/lp-ingest/internal/qdb"

// inferType classifies a raw field-value token (including surrounding
// quotes for strings and a trailing "i" for integers) per spec.md
// §4.2. It returns qdb.TypeInvalid if the token cannot be classified,
// e.g. an unterminated quoted string.
//
// The classification is driven entirely by the token's last byte,
// which is why this function never needs to scan the whole token for
// anything but the STRING quoting check.
func inferType(text []byte) qdb.ColumnType {
	if len(text) == 0 {
		return qdb.TypeInvalid
	}
	switch last := text[len(text)-1]; last {
	case 'i':
		return qdb.TypeLong
	case 'e', 't', 'T', 'f', 'F':
		return qdb.TypeBoolean
	case '"':
		if len(text) >= 2 && text[0] == '"' {
			return qdb.TypeString
		}
		return qdb.TypeInvalid
	default:
		return qdb.TypeDouble
	}
}

// isTruthy implements the BOOLEAN truthiness rule: a boolean token is
// truthy iff its first character is 't' or 'T'.
func isTruthy(text []byte) bool {
	return len(text) > 0 && (text[0] == 't' || text[0] == 'T')
}
