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

package inject

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_MemoryEngineServesWrites(t *testing.T) {
	cfg := &Config{UseMemory: true}
	cfg.Server.BindAddr = ":0"
	cfg.Server.Ingest.TimestampDivisor = 1000

	app, cleanup, err := Start(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	require.NotNil(t, app.Core)
	require.NotNil(t, app.Handler)
	assert.Equal(t, ":0", app.BindAddr)

	req := httptest.NewRequest("POST", "/write", strings.NewReader("cpu,host=a load=0.5 1000\n"))
	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, req)
	assert.Equal(t, 204, rec.Code)
}

func TestStart_SqlConfigWithoutConnectFails(t *testing.T) {
	cfg := &Config{UseMemory: false}
	cfg.SQL.ProductName = "cockroachdb"
	cfg.Server.BindAddr = ":0"

	_, cleanup, err := Start(context.Background(), cfg)
	assert.Error(t, err)
	assert.Nil(t, cleanup)
}
