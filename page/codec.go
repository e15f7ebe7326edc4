// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package page

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/s2"

	"github.com/omenSi/tablite/date"
	"github.com/omenSi/tablite/value"
)

func dateFromNanos(nanos int64) date.Time {
	return date.Unix(nanos/1e9, nanos%1e9)
}

// DType is a page's physical array element type. It mirrors
// value.Type plus DObject, the generic encoding Column promotes
// mixed-dtype concatenations to.
type DType uint8

const (
	DBool DType = iota
	DInt
	DFloat
	DString
	DDate
	DTime
	DDateTime
	DObject
)

func dtypeFor(t value.Type) DType {
	switch t {
	case value.Bool:
		return DBool
	case value.Int:
		return DInt
	case value.Float:
		return DFloat
	case value.String:
		return DString
	case value.Date:
		return DDate
	case value.Time:
		return DTime
	case value.DateTime:
		return DDateTime
	default:
		return DObject
	}
}

// Array is an in-memory columnar block: Len values of DType, with an
// optional null mask. Exactly one of the typed slices below is
// populated, per DType, except for DObject which uses Objects for
// every element (including the ones a native array would have held
// natively — promotion to object loses the narrower representation,
// matching spec's "promote to generic/object dtype" rule for mixed
// concatenations).
type Array struct {
	DType   DType
	Len     int
	Valid   []bool // nil means "no nulls"; else len(Valid) == Len
	Bools   []bool
	Ints    []int64
	Floats  []float64
	Strings []string
	// Times holds nanoseconds-since-epoch for DDate/DTime/DDateTime.
	Times   []int64
	Objects []value.Value
}

func (a Array) validAt(i int) bool {
	return a.Valid == nil || a.Valid[i]
}

// At returns the i'th element as a value.Value, respecting the null
// mask.
func (a Array) At(i int) value.Value {
	if !a.validAt(i) {
		return value.NullValue
	}
	switch a.DType {
	case DBool:
		return value.OfBool(a.Bools[i])
	case DInt:
		return value.OfInt(a.Ints[i])
	case DFloat:
		return value.OfFloat(a.Floats[i])
	case DString:
		return value.OfString(a.Strings[i])
	case DDate, DTime, DDateTime:
		return rewrapTime(a.DType, a.Times[i])
	case DObject:
		return a.Objects[i]
	default:
		return value.NullValue
	}
}

func rewrapTime(d DType, nanos int64) value.Value {
	t := dateFromNanos(nanos)
	switch d {
	case DDate:
		return value.OfDate(t)
	case DTime:
		return value.OfTime(t)
	default:
		return value.OfDateTime(t)
	}
}

// magic identifies this package's page file format; version allows
// the codec to evolve without breaking already-written archives.
const (
	magic        = "TLP1"
	formatVersion = 1
)

// writeFile encodes arr and writes it to path, s2-block-compressed.
// Layout: magic(4) | version(1) | dtype(1) | object(1) | len(varint)
// | hasNulls(1) [| null bitmap, 1 byte/elem ] | s2CompressedLen(varint)
// | s2-compressed payload.
//
// The payload itself is dtype-specific: fixed-width types are raw
// little-endian arrays; String and Object are length-prefixed
// sequences (Object additionally prefixes each element with its own
// value.Type tag, since each element may differ).
func writeFile(path string, arr Array) error {
	var raw bytes.Buffer
	if err := encodePayload(&raw, arr); err != nil {
		return err
	}
	compressed := s2.Encode(nil, raw.Bytes())

	var hdr bytes.Buffer
	hdr.WriteString(magic)
	hdr.WriteByte(formatVersion)
	hdr.WriteByte(byte(arr.DType))
	if arr.DType == DObject {
		hdr.WriteByte(1)
	} else {
		hdr.WriteByte(0)
	}
	writeUvarint(&hdr, uint64(arr.Len))
	if arr.Valid == nil {
		hdr.WriteByte(0)
	} else {
		hdr.WriteByte(1)
		for _, v := range arr.Valid {
			if v {
				hdr.WriteByte(1)
			} else {
				hdr.WriteByte(0)
			}
		}
	}
	writeUvarint(&hdr, uint64(len(compressed)))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := hdr.WriteTo(f); err != nil {
		return err
	}
	if _, err := f.Write(compressed); err != nil {
		return err
	}
	return nil
}

func readFile(path string) (Array, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Array{}, err
	}
	r := bytes.NewReader(data)

	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Array{}, err
	}
	if string(hdr[:]) != magic {
		return Array{}, fmt.Errorf("page: bad magic %q", hdr[:])
	}
	version, err := r.ReadByte()
	if err != nil {
		return Array{}, err
	}
	if version != formatVersion {
		return Array{}, fmt.Errorf("page: unsupported format version %d", version)
	}
	dtypeByte, err := r.ReadByte()
	if err != nil {
		return Array{}, err
	}
	objectByte, err := r.ReadByte()
	if err != nil {
		return Array{}, err
	}
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return Array{}, err
	}
	hasNulls, err := r.ReadByte()
	if err != nil {
		return Array{}, err
	}
	var valid []bool
	if hasNulls == 1 {
		valid = make([]bool, n)
		for i := range valid {
			b, err := r.ReadByte()
			if err != nil {
				return Array{}, err
			}
			valid[i] = b == 1
		}
	}
	compLen, err := binary.ReadUvarint(r)
	if err != nil {
		return Array{}, err
	}
	compressed := make([]byte, compLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return Array{}, err
	}
	raw, err := s2.Decode(nil, compressed)
	if err != nil {
		return Array{}, err
	}

	arr := Array{DType: DType(dtypeByte), Len: int(n), Valid: valid}
	_ = objectByte
	if err := decodePayload(bytes.NewReader(raw), &arr); err != nil {
		return Array{}, err
	}
	return arr, nil
}

// ProbeDType reads just enough of path's header to report the stored
// array's DType, without decompressing or decoding its payload. Table
// load uses this to reconstruct each extracted page's DType without
// needing the archive manifest to redundantly encode it.
func ProbeDType(path string) (DType, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	var hdr [6]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return 0, err
	}
	if string(hdr[:4]) != magic {
		return 0, fmt.Errorf("page: bad magic %q", hdr[:4])
	}
	return DType(hdr[5]), nil
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func encodePayload(w *bytes.Buffer, arr Array) error {
	switch arr.DType {
	case DBool:
		for _, b := range arr.Bools {
			if b {
				w.WriteByte(1)
			} else {
				w.WriteByte(0)
			}
		}
	case DInt, DDate, DTime, DDateTime:
		var vals []int64
		if arr.DType == DInt {
			vals = arr.Ints
		} else {
			vals = arr.Times
		}
		var tmp [8]byte
		for _, v := range vals {
			binary.LittleEndian.PutUint64(tmp[:], uint64(v))
			w.Write(tmp[:])
		}
	case DFloat:
		var tmp [8]byte
		for _, v := range arr.Floats {
			binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
			w.Write(tmp[:])
		}
	case DString:
		for _, s := range arr.Strings {
			writeUvarint(w, uint64(len(s)))
			w.WriteString(s)
		}
	case DObject:
		for _, v := range arr.Objects {
			encodeObjectValue(w, v)
		}
	default:
		return fmt.Errorf("page: unknown dtype %d", arr.DType)
	}
	return nil
}

func decodePayload(r *bytes.Reader, arr *Array) error {
	n := arr.Len
	switch arr.DType {
	case DBool:
		arr.Bools = make([]bool, n)
		for i := range arr.Bools {
			b, err := r.ReadByte()
			if err != nil {
				return err
			}
			arr.Bools[i] = b == 1
		}
	case DInt, DDate, DTime, DDateTime:
		vals := make([]int64, n)
		var tmp [8]byte
		for i := range vals {
			if _, err := io.ReadFull(r, tmp[:]); err != nil {
				return err
			}
			vals[i] = int64(binary.LittleEndian.Uint64(tmp[:]))
		}
		if arr.DType == DInt {
			arr.Ints = vals
		} else {
			arr.Times = vals
		}
	case DFloat:
		arr.Floats = make([]float64, n)
		var tmp [8]byte
		for i := range arr.Floats {
			if _, err := io.ReadFull(r, tmp[:]); err != nil {
				return err
			}
			arr.Floats[i] = math.Float64frombits(binary.LittleEndian.Uint64(tmp[:]))
		}
	case DString:
		arr.Strings = make([]string, n)
		for i := range arr.Strings {
			l, err := binary.ReadUvarint(r)
			if err != nil {
				return err
			}
			buf := make([]byte, l)
			if _, err := io.ReadFull(r, buf); err != nil {
				return err
			}
			arr.Strings[i] = string(buf)
		}
	case DObject:
		arr.Objects = make([]value.Value, n)
		for i := range arr.Objects {
			v, err := decodeObjectValue(r)
			if err != nil {
				return err
			}
			arr.Objects[i] = v
		}
	default:
		return fmt.Errorf("page: unknown dtype %d", arr.DType)
	}
	return nil
}

// encodeObjectValue/decodeObjectValue let a DObject page hold a
// heterogeneous mix of types, one value.Type tag per element followed
// by that type's scalar encoding.
func encodeObjectValue(w *bytes.Buffer, v value.Value) {
	w.WriteByte(byte(v.Type))
	switch v.Type {
	case value.Null:
	case value.Bool:
		if v.Bool() {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
	case value.Int:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(v.Int()))
		w.Write(tmp[:])
	case value.Float:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v.Float()))
		w.Write(tmp[:])
	case value.String:
		writeUvarint(w, uint64(len(v.String_())))
		w.WriteString(v.String_())
	case value.Date, value.Time, value.DateTime:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(v.AsTime().UnixNano()))
		w.Write(tmp[:])
	}
}

func decodeObjectValue(r *bytes.Reader) (value.Value, error) {
	tb, err := r.ReadByte()
	if err != nil {
		return value.Value{}, err
	}
	typ := value.Type(tb)
	switch typ {
	case value.Null:
		return value.NullValue, nil
	case value.Bool:
		b, err := r.ReadByte()
		if err != nil {
			return value.Value{}, err
		}
		return value.OfBool(b == 1), nil
	case value.Int:
		var tmp [8]byte
		if _, err := io.ReadFull(r, tmp[:]); err != nil {
			return value.Value{}, err
		}
		return value.OfInt(int64(binary.LittleEndian.Uint64(tmp[:]))), nil
	case value.Float:
		var tmp [8]byte
		if _, err := io.ReadFull(r, tmp[:]); err != nil {
			return value.Value{}, err
		}
		return value.OfFloat(math.Float64frombits(binary.LittleEndian.Uint64(tmp[:]))), nil
	case value.String:
		l, err := binary.ReadUvarint(r)
		if err != nil {
			return value.Value{}, err
		}
		buf := make([]byte, l)
		if _, err := io.ReadFull(r, buf); err != nil {
			return value.Value{}, err
		}
		return value.OfString(string(buf)), nil
	case value.Date, value.Time, value.DateTime:
		var tmp [8]byte
		if _, err := io.ReadFull(r, tmp[:]); err != nil {
			return value.Value{}, err
		}
		nanos := int64(binary.LittleEndian.Uint64(tmp[:]))
		return rewrapTime(dtypeFor(typ), nanos), nil
	default:
		return value.Value{}, fmt.Errorf("page: unknown object value type %d", tb)
	}
}
