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

// Package sqlengine is a qdb.Engine that materializes rows into a real
// SQL database instead of an in-memory map. It supports the dialects
// this project's connection-pool helpers already know how to open:
// CockroachDB and PostgreSQL through pgx/pgxpool, and MySQL and legacy
// PostgreSQL through database/sql, with the pool chosen by dialect in
// openPool.
package sqlengine

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Product names a supported SQL dialect.
type Product int

const (
	ProductUnknown Product = iota
	ProductCockroachDB
	ProductPostgreSQL
	ProductMySQL
	// ProductLegacyPostgres targets a PostgreSQL server through
	// database/sql + lib/pq instead of pgxpool, for deployments that
	// cannot use the pgx wire protocol (e.g. a pgbouncer in front of
	// the target that only speaks the older simple-query protocol).
	ProductLegacyPostgres
)

func (p Product) String() string {
	switch p {
	case ProductCockroachDB:
		return "cockroachdb"
	case ProductPostgreSQL:
		return "postgresql"
	case ProductMySQL:
		return "mysql"
	case ProductLegacyPostgres:
		return "legacypostgres"
	default:
		return "unknown"
	}
}

func parseProduct(s string) (Product, error) {
	switch s {
	case "cockroachdb", "crdb":
		return ProductCockroachDB, nil
	case "postgresql", "postgres":
		return ProductPostgreSQL, nil
	case "mysql":
		return ProductMySQL, nil
	case "legacypostgres", "postgres-legacy", "pq":
		return ProductLegacyPostgres, nil
	default:
		return ProductUnknown, errors.Errorf("unknown sql product %q", s)
	}
}

// Config binds the flags needed to open a target database pool.
type Config struct {
	ProductName string
	Connect     string

	product Product
}

// Bind registers flags for this Config.
func (c *Config) Bind(flags *pflag.FlagSet) {
	flags.StringVar(&c.ProductName, "sql.product", "cockroachdb",
		"target database dialect: cockroachdb, postgresql, mysql, or legacypostgres")
	flags.StringVar(&c.Connect, "sql.connect", "",
		"target database connection string")
}

// Preflight validates the configuration and resolves ProductName into
// a Product.
func (c *Config) Preflight() error {
	if c.Connect == "" {
		return errors.New("sql.connect must be set")
	}
	p, err := parseProduct(c.ProductName)
	if err != nil {
		return err
	}
	c.product = p
	return nil
}

// Product returns the resolved dialect. Only valid after Preflight.
func (c *Config) Product() Product { return c.product }
