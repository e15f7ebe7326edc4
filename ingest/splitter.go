// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package ingest

import (
	"bufio"
	"io"
	"strings"
)

// splitter is the quote/bracket-aware tokenizer behind both the
// logical-line scanner and the field splitter. Its states are
// Outside, InQuote and InBracketDepthK (tracked as a nesting counter
// rather than a stack, since the spec only needs balance, not which
// specific bracket is open); delimiters and newlines only act as
// separators in the Outside state. It generalizes xsv's CsvChopper,
// which only understands quoting, to the configurable bracket sets
// the column splitter also needs.
type splitter struct {
	delimiter byte
	qualifier byte // 0 disables quoting
	openings  string
	closures  string
	strip     bool
}

// newSplitter builds a splitter from an already-withDefaults'd Options.
func newSplitter(o Options, delimiter byte) splitter {
	return splitter{
		delimiter: delimiter,
		qualifier: o.qualifier(),
		openings:  o.EscapeOpenings,
		closures:  o.EscapeClosures,
		strip:     o.Strip,
	}
}

func (s splitter) isOpen(c byte) bool  { return strings.IndexByte(s.openings, c) >= 0 }
func (s splitter) isClose(c byte) bool { return strings.IndexByte(s.closures, c) >= 0 }

// fields splits one already-joined logical line (embedded newlines and
// all) into its delimited fields.
func (s splitter) fields(line string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false
	depth := 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case s.qualifier != 0 && c == s.qualifier:
			if inQuote && i+1 < len(line) && line[i+1] == s.qualifier {
				cur.WriteByte(c)
				i++
				continue
			}
			inQuote = !inQuote
		case !inQuote && s.isOpen(c):
			depth++
			cur.WriteByte(c)
		case !inQuote && depth > 0 && s.isClose(c):
			depth--
			cur.WriteByte(c)
		case !inQuote && depth == 0 && c == s.delimiter:
			out = append(out, s.finish(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	out = append(out, s.finish(cur.String()))
	return out
}

func (s splitter) finish(field string) string {
	if s.strip {
		return strings.TrimSpace(field)
	}
	return field
}

// logicalLines returns an iterator over r's logical lines: physical
// lines joined across any newline that falls inside an open quote or
// bracket region. It never consults the delimiter, only quoting/
// bracket state, so it can run before the delimiter is known.
func (s splitter) logicalLines(r io.Reader) func() (string, bool) {
	br := bufio.NewReaderSize(r, 64*1024)
	var pending strings.Builder
	inQuote := false
	depth := 0
	return func() (string, bool) {
		pending.Reset()
		sawByte := false
		for {
			b, err := br.ReadByte()
			if err != nil {
				if sawByte {
					return pending.String(), true
				}
				return "", false
			}
			sawByte = true
			switch {
			case s.qualifier != 0 && b == s.qualifier:
				inQuote = !inQuote
				pending.WriteByte(b)
			case !inQuote && s.isOpen(b):
				depth++
				pending.WriteByte(b)
			case !inQuote && depth > 0 && s.isClose(b):
				depth--
				pending.WriteByte(b)
			case !inQuote && depth == 0 && b == '\n':
				line := strings.TrimSuffix(pending.String(), "\r")
				return line, true
			default:
				pending.WriteByte(b)
			}
		}
	}
}
