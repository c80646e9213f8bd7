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
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"

	_ "github.com/go-sql-driver/mysql" // register driver
	_ "github.com/lib/pq"              // register driver
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// pool abstracts over the two connection shapes this engine uses:
// pgxpool.Pool for CockroachDB/PostgreSQL, and database/sql for MySQL
// and legacy PostgreSQL drivers. Every engine operation goes through
// this interface so Engine itself never branches on Product.
type pool interface {
	exec(ctx context.Context, query string, args ...interface{}) error
	queryRow(ctx context.Context, query string, args ...interface{}) row
	// columnNames returns the column names information_schema reports
	// for table, in ordinal position order.
	columnNames(ctx context.Context, table string) ([]string, error)
	close()
}

const columnsQueryPostgres = `SELECT column_name FROM information_schema.columns WHERE table_name = $1 ORDER BY ordinal_position`
const columnsQueryMySQL = `SELECT column_name FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position`

type row interface {
	Scan(dest ...interface{}) error
}

// openPool dials the target database per cfg.Product: log, open, then
// ping before handing the pool out.
func openPool(ctx context.Context, cfg *Config) (pool, error) {
	log.WithFields(log.Fields{"product": cfg.product.String()}).Info("opening target database pool")

	switch cfg.product {
	case ProductCockroachDB, ProductPostgreSQL:
		pgxCfg, err := pgxpool.ParseConfig(cfg.Connect)
		if err != nil {
			return nil, errors.Wrap(err, "invalid connect string")
		}
		p, err := pgxpool.NewWithConfig(ctx, pgxCfg)
		if err != nil {
			return nil, errors.Wrap(err, "could not open pgx pool")
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return nil, errors.Wrap(err, "could not ping database")
		}
		return pgxPool{p}, nil

	case ProductMySQL:
		db, err := sql.Open("mysql", cfg.Connect)
		if err != nil {
			return nil, errors.Wrap(err, "could not open mysql pool")
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "could not ping database")
		}
		return stdPool{db: db, product: ProductMySQL}, nil

	case ProductLegacyPostgres:
		db, err := sql.Open("postgres", cfg.Connect)
		if err != nil {
			return nil, errors.Wrap(err, "could not open legacy postgres pool")
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "could not ping database")
		}
		return stdPool{db: db, product: ProductLegacyPostgres}, nil

	default:
		return nil, errors.Errorf("unsupported product %q", cfg.product)
	}
}

type pgxPool struct{ p *pgxpool.Pool }

func (x pgxPool) exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := x.p.Exec(ctx, query, args...)
	return errors.WithStack(err)
}

func (x pgxPool) queryRow(ctx context.Context, query string, args ...interface{}) row {
	return x.p.QueryRow(ctx, query, args...)
}

func (x pgxPool) columnNames(ctx context.Context, table string) ([]string, error) {
	rows, err := x.p.Query(ctx, columnsQueryPostgres, table)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, errors.WithStack(err)
		}
		names = append(names, n)
	}
	return names, errors.WithStack(rows.Err())
}

func (x pgxPool) close() { x.p.Close() }

// stdPool wraps database/sql for the two dialects this engine dials
// without pgxpool: MySQL via go-sql-driver/mysql, and PostgreSQL via
// lib/pq. product records which, since the catalog query's placeholder
// syntax ("?" vs "$1") differs between them.
type stdPool struct {
	db      *sql.DB
	product Product
}

func (x stdPool) exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := x.db.ExecContext(ctx, query, args...)
	return errors.WithStack(err)
}

func (x stdPool) queryRow(ctx context.Context, query string, args ...interface{}) row {
	return x.db.QueryRowContext(ctx, query, args...)
}

func (x stdPool) columnNames(ctx context.Context, table string) ([]string, error) {
	query := columnsQueryMySQL
	if x.product == ProductLegacyPostgres {
		query = columnsQueryPostgres
	}
	rows, err := x.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, errors.WithStack(err)
		}
		names = append(names, n)
	}
	return names, errors.WithStack(rows.Err())
}

func (x stdPool) close() { x.db.Close() }
