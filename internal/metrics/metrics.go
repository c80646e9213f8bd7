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

// Package metrics holds the Prometheus series this project registers
// for the ingestion core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LatencyBuckets is shared by every histogram in this project so that
// dashboards built against one subsystem's latency line up with
// another's.
var LatencyBuckets = []float64{
	.001, .002, .005, .01, .02, .05, .1, .2, .5, 1, 2, 5, 10,
}

// TableLabel is attached to every per-table counter and histogram.
var TableLabel = []string{"table"}

var (
	// RowsAppended counts rows successfully appended to a table's
	// writer, whether the table already existed or was just created.
	RowsAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_rows_appended_total",
		Help: "the number of rows appended to a table writer",
	}, TableLabel)

	// LinesSkipped counts lines that produced zero rows, broken down
	// by the reason (spec.md §7's error-kind table).
	LinesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_lines_skipped_total",
		Help: "the number of lines that produced no row, by reason",
	}, []string{"table", "reason"})

	// TablesCreated counts new tables created on first use.
	TablesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_tables_created_total",
		Help: "the number of tables auto-created on first use",
	}, TableLabel)

	// ColumnsAdded counts schema-evolution events.
	ColumnsAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_columns_added_total",
		Help: "the number of columns added to existing tables",
	}, TableLabel)

	// CommitDurations measures the time spent in Writer.Commit calls
	// made from CommitAll.
	CommitDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ingest_commit_duration_seconds",
		Help:    "the length of time a table writer's Commit call took",
		Buckets: LatencyBuckets,
	}, TableLabel)

	// CommitErrors counts failed Writer.Commit calls.
	CommitErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_commit_errors_total",
		Help: "the number of errors encountered while committing a table writer",
	}, TableLabel)
)
