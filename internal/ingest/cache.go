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

// entryState is a cacheEntry's lifecycle state. The numeric values
// match spec.md §3 exactly (0/1/3; 2 is intentionally unused, mirroring
// the source this was distilled from) because the spec calls them out
// by number, not because any code branches on the literal integer.
type entryState int

const (
	stateInitial  entryState = 0
	stateExists   entryState = 1
	stateUnusable entryState = 3
)

// cacheEntry is the per-table record the writer cache hands out.
// UNUSABLE is terminal: once set, every future line naming this table
// produces zero rows for the life of the process (spec.md §9, open
// question: nothing downgrades it).
type cacheEntry struct {
	name   string // stable, owned copy of the table name; never a borrowed token address.
	writer qdb.Writer
	state  entryState
	slot   int32
}

// handle encodes this entry's presence using the negative/non-negative
// convention described in spec.md §4.4: an entry that exists always
// has a strictly negative handle.
func (e *cacheEntry) handle() int32 {
	return -(e.slot + 1)
}

// writerCache is a content-addressed map from table name to
// cacheEntry, plus the stable-slot bookkeeping needed to hand out the
// negative/non-negative handles described in spec.md §4.4. This
// two-signed-domain convention is preserved from the source this was
// distilled from because it lets Core cheaply detect "same table as
// last line" by comparing the looked-up handle with the one it kept,
// without re-resolving the entry's writer.
type writerCache struct {
	entries  map[string]*cacheEntry
	nextSlot int32
}

func newWriterCache() *writerCache {
	return &writerCache{entries: make(map[string]*cacheEntry)}
}

// lookup resolves nameBytes against the cache without retaining it.
// If an entry already exists, its handle is negative and ok is true.
// Otherwise the returned handle is the non-negative slot an Insert
// would use; callers must not persist a non-negative handle as
// Core.cacheEntryIndex directly (see invariant 1 in spec.md §3).
func (c *writerCache) lookup(nameBytes []byte) (handle int32, entry *cacheEntry, ok bool) {
	// This exact form (conversion inside the map index expression) is
	// recognized by the compiler and does not allocate.
	if e, found := c.entries[string(nameBytes)]; found {
		return e.handle(), e, true
	}
	return c.nextSlot, nil, false
}

// insert creates a fresh, empty cacheEntry for nameBytes, copying the
// bytes into a stable owned string since the token address backing
// nameBytes is only valid for the current line. It returns the new
// entry and its negative handle.
func (c *writerCache) insert(nameBytes []byte) (*cacheEntry, int32) {
	key := string(nameBytes) // explicit, one-time copy; the cache key must outlive the line.
	e := &cacheEntry{name: key, state: stateInitial, slot: c.nextSlot}
	c.entries[key] = e
	c.nextSlot++
	return e, e.handle()
}

// commitList accumulates writers displaced from the active slot so
// their rows are flushed on the next CommitAll. It is keyed by writer
// name rather than being a plain set so that displacing the same
// writer twice before a commit is idempotent (spec.md §9, open
// question).
type commitList struct {
	writers map[string]qdb.Writer
}

func newCommitList() *commitList {
	return &commitList{writers: make(map[string]qdb.Writer)}
}

func (l *commitList) add(w qdb.Writer) {
	if w == nil {
		return
	}
	l.writers[w.Name()] = w
}
