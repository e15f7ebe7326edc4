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

import "github.com/omenSi/tablite/value"

// Take builds a new Array holding arr's elements at idxs, in order.
// It is the gather primitive Column.Read builds on.
func Take(arr Array, idxs []int) Array {
	out := Array{DType: arr.DType, Len: len(idxs)}
	var valid []bool
	if arr.Valid != nil {
		valid = make([]bool, len(idxs))
		for i, idx := range idxs {
			valid[i] = arr.Valid[idx]
		}
		out.Valid = valid
	}
	switch arr.DType {
	case DBool:
		out.Bools = make([]bool, len(idxs))
		for i, idx := range idxs {
			out.Bools[i] = arr.Bools[idx]
		}
	case DInt:
		out.Ints = make([]int64, len(idxs))
		for i, idx := range idxs {
			out.Ints[i] = arr.Ints[idx]
		}
	case DFloat:
		out.Floats = make([]float64, len(idxs))
		for i, idx := range idxs {
			out.Floats[i] = arr.Floats[idx]
		}
	case DString:
		out.Strings = make([]string, len(idxs))
		for i, idx := range idxs {
			out.Strings[i] = arr.Strings[idx]
		}
	case DDate, DTime, DDateTime:
		out.Times = make([]int64, len(idxs))
		for i, idx := range idxs {
			out.Times[i] = arr.Times[idx]
		}
	case DObject:
		out.Objects = make([]value.Value, len(idxs))
		for i, idx := range idxs {
			out.Objects[i] = arr.Objects[idx]
		}
	}
	return out
}

// Slice is the contiguous special case of Take: arr[start:end].
func Slice(arr Array, start, end int) Array {
	idxs := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		idxs = append(idxs, i)
	}
	return Take(arr, idxs)
}

// Concat concatenates arrays in order. If every array shares the same
// native DType, the result keeps that DType; otherwise every element
// is unwrapped to a value.Value and the result is DObject, per spec's
// "concatenated segments with mismatched dtypes promote to generic/
// object dtype" rule.
func Concat(arrays []Array) Array {
	if len(arrays) == 0 {
		return Array{DType: DObject}
	}
	same := true
	dtype := arrays[0].DType
	total := 0
	for _, a := range arrays {
		total += a.Len
		if a.DType != dtype {
			same = false
		}
	}
	if !same || dtype == DObject {
		out := Array{DType: DObject, Len: total, Objects: make([]value.Value, 0, total)}
		for _, a := range arrays {
			for i := 0; i < a.Len; i++ {
				out.Objects = append(out.Objects, a.At(i))
			}
		}
		return out
	}

	anyNulls := false
	for _, a := range arrays {
		if a.Valid != nil {
			anyNulls = true
		}
	}
	out := Array{DType: dtype, Len: total}
	if anyNulls {
		out.Valid = make([]bool, 0, total)
	}
	for _, a := range arrays {
		if anyNulls {
			if a.Valid != nil {
				out.Valid = append(out.Valid, a.Valid...)
			} else {
				for i := 0; i < a.Len; i++ {
					out.Valid = append(out.Valid, true)
				}
			}
		}
		switch dtype {
		case DBool:
			out.Bools = append(out.Bools, a.Bools...)
		case DInt:
			out.Ints = append(out.Ints, a.Ints...)
		case DFloat:
			out.Floats = append(out.Floats, a.Floats...)
		case DString:
			out.Strings = append(out.Strings, a.Strings...)
		case DDate, DTime, DDateTime:
			out.Times = append(out.Times, a.Times...)
		}
	}
	return out
}

// FromValues builds an Array from a slice of scalar values, choosing
// the narrowest shared DType: if every non-null value shares a single
// value.Type, the result is that native array (with a null mask if
// any values were null); otherwise it is DObject.
func FromValues(vals []value.Value) Array {
	dtype := value.Null
	mixed := false
	anyNull := false
	for _, v := range vals {
		if v.IsNull() {
			anyNull = true
			continue
		}
		if dtype == value.Null {
			dtype = v.Type
		} else if dtype != v.Type {
			mixed = true
		}
	}
	if mixed || dtype == value.Null {
		out := Array{DType: DObject, Len: len(vals), Objects: make([]value.Value, len(vals))}
		copy(out.Objects, vals)
		return out
	}

	out := Array{DType: dtypeFor(dtype), Len: len(vals)}
	if anyNull {
		out.Valid = make([]bool, len(vals))
	}
	switch out.DType {
	case DBool:
		out.Bools = make([]bool, len(vals))
	case DInt:
		out.Ints = make([]int64, len(vals))
	case DFloat:
		out.Floats = make([]float64, len(vals))
	case DString:
		out.Strings = make([]string, len(vals))
	case DDate, DTime, DDateTime:
		out.Times = make([]int64, len(vals))
	}
	for i, v := range vals {
		if v.IsNull() {
			continue
		}
		if out.Valid != nil {
			out.Valid[i] = true
		}
		switch out.DType {
		case DBool:
			out.Bools[i] = v.Bool()
		case DInt:
			out.Ints[i] = v.Int()
		case DFloat:
			out.Floats[i] = v.Float()
		case DString:
			out.Strings[i] = v.String_()
		case DDate, DTime, DDateTime:
			out.Times[i] = v.AsTime().UnixNano()
		}
	}
	return out
}
