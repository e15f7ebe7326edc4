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
	"io"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// probeSampleBytes bounds how much of the file the delimiter vote
// reads before giving up.
const probeSampleBytes = 64 * 1024

// delimiterVoteLines is how many non-empty logical lines the
// delimiter frequency vote samples, per spec's "first N non-empty
// lines".
const delimiterVoteLines = 10

// decoder picks the transform.Transformer for a file's encoding.
// unicode.BOMOverride auto-detects a UTF-8/UTF-16BE/UTF-16LE BOM and
// falls back to UTF-8 otherwise, which covers utf-8, utf-8-sig and
// utf-16 in one pass; ascii is a strict subset of utf-8 so it needs no
// separate decoder. An explicit Options.Encoding of "utf-16" bypasses
// detection; any other value takes the BOM-detecting path.
func decoder(o Options) transform.Transformer {
	if o.Encoding == "utf-16" {
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	}
	// ascii/utf-8/utf-8-sig/unspecified: ascii is a strict subset of
	// utf-8, and BOMOverride also catches a utf-16 BOM the caller
	// didn't know to ask for.
	return unicode.BOMOverride(encoding.Nop.NewDecoder())
}

// openDecoded opens path and wraps it in a transform.Reader using the
// resolved encoding so every downstream reader sees clean text with
// any BOM already stripped.
func openDecoded(path string, o Options) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &decodedFile{f: f, r: transform.NewReader(f, decoder(o))}, nil
}

type decodedFile struct {
	f *os.File
	r io.Reader
}

func (d *decodedFile) Read(p []byte) (int, error) { return d.r.Read(p) }
func (d *decodedFile) Close() error                { return d.f.Close() }

// detectDelimiter frequency-votes over candidateDelimiters across the
// first delimiterVoteLines non-empty logical lines, using the
// configured qualifier/bracket sets (the vote never needs the
// delimiter itself). It returns false if no candidate ever splits a
// sampled line, which the caller treats as "return an empty table".
func detectDelimiter(path string, o Options) (byte, bool, error) {
	r, err := openDecoded(path, o)
	if err != nil {
		return 0, false, err
	}
	defer r.Close()

	scan := newSplitter(o, 0).logicalLines(io.LimitReader(r, probeSampleBytes))
	counts := make(map[byte]int, len(candidateDelimiters))
	sampled := 0
	for sampled < delimiterVoteLines {
		line, ok := scan()
		if !ok {
			break
		}
		if line == "" {
			continue
		}
		sampled++
		for _, d := range candidateDelimiters {
			counts[d] += newSplitter(o, d).count(line)
		}
	}

	best, bestCount := candidateDelimiters[0], -1
	for _, d := range candidateDelimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	if bestCount <= 0 {
		return 0, false, nil
	}
	return best, true, nil
}

// count reports how many times s.delimiter splits line outside
// quotes/brackets.
func (s splitter) count(line string) int {
	inQuote := false
	depth := 0
	n := 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case s.qualifier != 0 && c == s.qualifier:
			if inQuote && i+1 < len(line) && line[i+1] == s.qualifier {
				i++
				continue
			}
			inQuote = !inQuote
		case !inQuote && s.isOpen(c):
			depth++
		case !inQuote && depth > 0 && s.isClose(c):
			depth--
		case !inQuote && depth == 0 && c == s.delimiter:
			n++
		}
	}
	return n
}
