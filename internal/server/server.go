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

package server

import (
	"bufio"
	"net/http"
	"sync"

	"github.com/cockroachdb/lp-ingest/internal/ingest"
	"github.com/cockroachdb/lp-ingest/internal/lpproto/lexer"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Server answers line-protocol write requests by driving a single,
// shared ingestion Core. A Core is not safe for concurrent use, so
// every request serializes on mu; this matches the single-writer
// nature of a real columnar engine's append path far more closely
// than it limits this server's throughput, since the Core's own work
// per line is small compared to network I/O.
type Server struct {
	core  *ingest.Core
	lexer *lexer.Lexer
	mu    sync.Mutex
}

// New returns a Server driving core.
func New(core *ingest.Core) *Server {
	return &Server{core: core, lexer: lexer.New()}
}

// Mux builds the server's http.ServeMux.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/write", s.handleWrite)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// handleWrite accepts a body of newline-delimited line-protocol text,
// read line by line with a bufio.Scanner over the request body, and
// commits every table touched once the body is fully consumed.
func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	entry := log.WithField("requestId", requestID)

	s.mu.Lock()
	defer s.mu.Unlock()

	scanner := bufio.NewScanner(r.Body)
	defer r.Body.Close()

	lines := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		s.lexer.ParseLine(line, s.core)
		lines++
	}
	if err := scanner.Err(); err != nil {
		entry.WithError(err).Warn("error reading request body")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.core.CommitAll()
	entry.WithField("lines", lines).Debug("write request committed")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
