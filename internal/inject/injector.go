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

//go:build wireinject
// +build wireinject

package inject

import (
	"context"

	"github.com/google/wire"
)

// Start assembles an Application from cfg: it opens the configured
// storage engine, binds an ingestion core to it, and exposes the core
// over an HTTP handler.
func Start(ctx context.Context, cfg *Config) (*Application, func(), error) {
	panic(wire.Build(
		ProvideEngine,
		ProvideCore,
		ProvideHandler,
		ProvideApplication,
	))
}
