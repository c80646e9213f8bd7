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

// Package lpproto defines the line-protocol event stream that an
// upstream tokenizer emits and that the ingest package consumes. It is
// intentionally free of any dependency on the tokenizer implementation
// or on the storage engine: it exists to describe the boundary between
// them.
package lpproto

// Address is an opaque pointer into an upstream lexer's intern cache.
// It is only resolvable to characters through a Cache, and is only
// valid for the lifetime of the line that produced it.
type Address int32

// NoAddress is never emitted for a real token.
const NoAddress Address = 0

// Cache resolves a token Address to the character sequence an upstream
// lexer interned for it. Implementations are read-only from the
// consumer's point of view; the lexer owns the backing arena.
type Cache interface {
	// Text returns the character sequence for addr. The returned slice
	// is only valid until the next call into the lexer that produced
	// addr (e.g. the next OnEvent or OnLineEnd call).
	Text(addr Address) []byte
}

// Token is an opaque identifier carrying a cache address. Tokens
// outlive a single event but are invalidated between lines.
type Token struct {
	Addr Address
}

// Text resolves the token's characters through cache. Callers that
// need the text to outlive the current line must copy it.
func (t Token) Text(cache Cache) []byte {
	return cache.Text(t.Addr)
}

// IsZero reports whether the token carries no address, i.e. was never
// bound to a cache entry.
func (t Token) IsZero() bool {
	return t.Addr == NoAddress
}

// EventKind enumerates the typed events an upstream tokenizer emits
// for a single line-protocol line, in the order they are permitted to
// occur.
type EventKind int

const (
	// EventMeasurement carries the table name. Exactly one per line,
	// always first.
	EventMeasurement EventKind = iota
	// EventTagName carries a tag key. Alternates with EventTagValue.
	EventTagName
	// EventTagValue carries a tag value.
	EventTagValue
	// EventFieldName carries a field key. Alternates with
	// EventFieldValue.
	EventFieldName
	// EventFieldValue carries a field value.
	EventFieldValue
	// EventTimestamp carries an explicit timestamp token. Optional, at
	// most one, always last before line end.
	EventTimestamp
)

// String implements fmt.Stringer for log messages.
func (k EventKind) String() string {
	switch k {
	case EventMeasurement:
		return "measurement"
	case EventTagName:
		return "tagName"
	case EventTagValue:
		return "tagValue"
	case EventFieldName:
		return "fieldName"
	case EventFieldValue:
		return "fieldValue"
	case EventTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Sink is implemented by the ingest core and driven by an upstream
// tokenizer (the supplemental lexer in lpproto/lexer, or any other
// producer of this event stream).
type Sink interface {
	// OnEvent is called once per token as the tokenizer advances
	// through a line.
	OnEvent(kind EventKind, tok Token, cache Cache)
	// OnLineEnd is called exactly once per well-formed line, after the
	// last event for that line.
	OnLineEnd()
	// OnError is called instead of OnLineEnd when the tokenizer itself
	// fails to parse a line. position is a byte offset into the line,
	// state names the parser state at the point of failure, and code
	// is a short machine-readable reason.
	OnError(position int, state string, code string)
}
