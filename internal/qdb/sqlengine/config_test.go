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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_PreflightRequiresConnect(t *testing.T) {
	c := &Config{ProductName: "cockroachdb"}
	assert.Error(t, c.Preflight())
}

func TestConfig_PreflightResolvesProduct(t *testing.T) {
	c := &Config{ProductName: "postgres", Connect: "postgres://localhost/db"}
	require.NoError(t, c.Preflight())
	assert.Equal(t, ProductPostgreSQL, c.Product())
}

func TestConfig_PreflightRejectsUnknownProduct(t *testing.T) {
	c := &Config{ProductName: "oracle", Connect: "x"}
	assert.Error(t, c.Preflight())
}

func TestParseProduct_Aliases(t *testing.T) {
	tests := map[string]Product{
		"cockroachdb":     ProductCockroachDB,
		"crdb":            ProductCockroachDB,
		"postgresql":      ProductPostgreSQL,
		"postgres":        ProductPostgreSQL,
		"mysql":           ProductMySQL,
		"legacypostgres":  ProductLegacyPostgres,
		"postgres-legacy": ProductLegacyPostgres,
		"pq":              ProductLegacyPostgres,
	}
	for in, want := range tests {
		got, err := parseProduct(in)
		require.NoErrorf(t, err, in)
		assert.Equalf(t, want, got, in)
	}
}
