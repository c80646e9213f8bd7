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

import "github.com/cockroachdb/lp-ingest/internal/lpproto"

// parser walks one line-protocol line once, left to right, emitting
// events as it goes. Unescaping is not implemented: a backslash is
// treated as an ordinary character, which is sufficient for the
// well-formed-input tests this package ships and for the demo server.
type parser struct {
	line  []byte
	pos   int
	sink  lpproto.Sink
	cache *lineCache
}

func (p *parser) run() {
	if !p.parseMeasurement() {
		return
	}
	if !p.parseTags() {
		return
	}
	if !p.skipSpaces() {
		return
	}
	if !p.parseFields() {
		return
	}
	for p.pos < len(p.line) && p.line[p.pos] == ' ' {
		p.pos++
	}
	if p.pos < len(p.line) {
		p.parseTimestamp()
	}
	p.sink.OnLineEnd()
}

func (p *parser) fail(code string) {
	p.sink.OnError(p.pos, "lexer", code)
}

// parseMeasurement reads up to the first ',' or ' '.
func (p *parser) parseMeasurement() bool {
	start := p.pos
	for p.pos < len(p.line) {
		switch p.line[p.pos] {
		case ',', ' ':
			goto done
		}
		p.pos++
	}
done:
	if p.pos == start {
		p.fail("empty measurement")
		return false
	}
	addr := p.cache.intern(p.line[start:p.pos])
	p.sink.OnEvent(lpproto.EventMeasurement, lpproto.Token{Addr: addr}, p.cache)
	return true
}

// parseTags reads zero or more ",name=value" pairs following the
// measurement.
func (p *parser) parseTags() bool {
	for p.pos < len(p.line) && p.line[p.pos] == ',' {
		p.pos++ // consume ','
		nameStart := p.pos
		for p.pos < len(p.line) && p.line[p.pos] != '=' {
			p.pos++
		}
		if p.pos >= len(p.line) || p.pos == nameStart {
			p.fail("malformed tag")
			return false
		}
		nameAddr := p.cache.intern(p.line[nameStart:p.pos])
		p.sink.OnEvent(lpproto.EventTagName, lpproto.Token{Addr: nameAddr}, p.cache)
		p.pos++ // consume '='

		valStart := p.pos
		for p.pos < len(p.line) {
			switch p.line[p.pos] {
			case ',', ' ':
				goto valDone
			}
			p.pos++
		}
	valDone:
		if p.pos == valStart {
			p.fail("empty tag value")
			return false
		}
		valAddr := p.cache.intern(p.line[valStart:p.pos])
		p.sink.OnEvent(lpproto.EventTagValue, lpproto.Token{Addr: valAddr}, p.cache)
	}
	return true
}

func (p *parser) skipSpaces() bool {
	for p.pos < len(p.line) && p.line[p.pos] == ' ' {
		p.pos++
	}
	if p.pos >= len(p.line) {
		p.fail("line ends before fields")
		return false
	}
	return true
}

// parseFields reads one or more "name=value" pairs separated by ','.
// A quoted STRING value may itself contain ',' and ' ', so those are
// skipped over while inside quotes.
func (p *parser) parseFields() bool {
	for {
		nameStart := p.pos
		for p.pos < len(p.line) && p.line[p.pos] != '=' {
			p.pos++
		}
		if p.pos >= len(p.line) || p.pos == nameStart {
			p.fail("malformed field")
			return false
		}
		nameAddr := p.cache.intern(p.line[nameStart:p.pos])
		p.sink.OnEvent(lpproto.EventFieldName, lpproto.Token{Addr: nameAddr}, p.cache)
		p.pos++ // consume '='

		valStart := p.pos
		if p.pos < len(p.line) && p.line[p.pos] == '"' {
			p.pos++
			for p.pos < len(p.line) && p.line[p.pos] != '"' {
				p.pos++
			}
			if p.pos >= len(p.line) {
				p.fail("unterminated quoted string")
				return false
			}
			p.pos++ // consume closing quote
		} else {
			for p.pos < len(p.line) {
				switch p.line[p.pos] {
				case ',', ' ':
					goto valDone
				}
				p.pos++
			}
		}
	valDone:
		if p.pos == valStart {
			p.fail("empty field value")
			return false
		}
		valAddr := p.cache.intern(p.line[valStart:p.pos])
		p.sink.OnEvent(lpproto.EventFieldValue, lpproto.Token{Addr: valAddr}, p.cache)

		if p.pos < len(p.line) && p.line[p.pos] == ',' {
			p.pos++
			continue
		}
		return true
	}
}

// parseTimestamp reads the remainder of the line as a single token.
func (p *parser) parseTimestamp() {
	start := p.pos
	for p.pos < len(p.line) && p.line[p.pos] != ' ' {
		p.pos++
	}
	if p.pos == start {
		return
	}
	addr := p.cache.intern(p.line[start:p.pos])
	p.sink.OnEvent(lpproto.EventTimestamp, lpproto.Token{Addr: addr}, p.cache)
}
