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

package lexer

import (
	"testing"

	"github.com/cockroachdb/lp-ingest/internal/lpproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink implements lpproto.Sink by recording every call, so
// tests can assert on the exact event sequence a line produces.
type recordingSink struct {
	events    []recordedEvent
	lineEnds  int
	errPos    int
	errState  string
	errCode   string
	sawError  bool
}

type recordedEvent struct {
	kind lpproto.EventKind
	text string
}

func (s *recordingSink) OnEvent(kind lpproto.EventKind, tok lpproto.Token, cache lpproto.Cache) {
	s.events = append(s.events, recordedEvent{kind: kind, text: string(tok.Text(cache))})
}

func (s *recordingSink) OnLineEnd() { s.lineEnds++ }

func (s *recordingSink) OnError(position int, state string, code string) {
	s.sawError = true
	s.errPos = position
	s.errState = state
	s.errCode = code
}

func TestParseLine_MeasurementTagsFieldsTimestamp(t *testing.T) {
	sink := &recordingSink{}
	New().ParseLine([]byte(`cpu,host=A load=0.5,count=3i 1700000000000000`), sink)

	require.False(t, sink.sawError)
	require.Equal(t, 1, sink.lineEnds)
	assert.Equal(t, []recordedEvent{
		{lpproto.EventMeasurement, "cpu"},
		{lpproto.EventTagName, "host"},
		{lpproto.EventTagValue, "A"},
		{lpproto.EventFieldName, "load"},
		{lpproto.EventFieldValue, "0.5"},
		{lpproto.EventFieldName, "count"},
		{lpproto.EventFieldValue, "3i"},
		{lpproto.EventTimestamp, "1700000000000000"},
	}, sink.events)
}

func TestParseLine_NoTagsNoTimestamp(t *testing.T) {
	sink := &recordingSink{}
	New().ParseLine([]byte(`mem used=42i`), sink)

	require.False(t, sink.sawError)
	require.Equal(t, 1, sink.lineEnds)
	assert.Equal(t, []recordedEvent{
		{lpproto.EventMeasurement, "mem"},
		{lpproto.EventFieldName, "used"},
		{lpproto.EventFieldValue, "42i"},
	}, sink.events)
}

func TestParseLine_QuotedFieldValueCanContainSpacesAndCommas(t *testing.T) {
	sink := &recordingSink{}
	New().ParseLine([]byte(`log msg="hello, world" 1000`), sink)

	require.False(t, sink.sawError)
	assert.Equal(t, []recordedEvent{
		{lpproto.EventMeasurement, "log"},
		{lpproto.EventFieldName, "msg"},
		{lpproto.EventFieldValue, `"hello, world"`},
		{lpproto.EventTimestamp, "1000"},
	}, sink.events)
}

func TestParseLine_EmptyMeasurementFails(t *testing.T) {
	sink := &recordingSink{}
	New().ParseLine([]byte(` load=1`), sink)

	assert.True(t, sink.sawError)
	assert.Equal(t, 0, sink.lineEnds)
}

func TestParseLine_UnterminatedQuoteFails(t *testing.T) {
	sink := &recordingSink{}
	New().ParseLine([]byte(`log msg="unterminated`), sink)

	assert.True(t, sink.sawError)
	assert.Equal(t, "unterminated quoted string", sink.errCode)
	assert.Equal(t, 0, sink.lineEnds)
}

func TestParseLine_MalformedFieldFails(t *testing.T) {
	sink := &recordingSink{}
	New().ParseLine([]byte(`cpu load`), sink)

	assert.True(t, sink.sawError)
	assert.Equal(t, "malformed field", sink.errCode)
}

func TestParseLine_ReusesCacheAcrossLines(t *testing.T) {
	sink := &recordingSink{}
	lex := New()

	lex.ParseLine([]byte(`cpu load=1`), sink)
	first := sink.events[0].text
	sink.events = nil

	lex.ParseLine([]byte(`mem used=2`), sink)
	second := sink.events[0].text

	assert.Equal(t, "cpu", first)
	assert.Equal(t, "mem", second)
}
