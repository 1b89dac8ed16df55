// Copyright 2022 Dolthub, Inc.
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

package array

import (
	"encoding/binary"
	"math"

	"github.com/dolthub/vortex/buffer"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/hash"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
)

// Dict is the dictionary encoding: a codes stream (unsigned
// integers, one per logical row) plus a values array of unique values.
// When the logical dtype is nullable, values[0] is reserved for null so
// scalar_at never special-cases it: scalar_at(i) = values[codes[i]].
type Dict struct {
	dt     dtype.DType
	codes  Array
	values Array
	st     *stats.Set
}

// NewDict wraps an existing (codes, values) pair, e.g. one already
// produced by EncodeDict or read back from a file.
func NewDict(dt dtype.DType, codes, values Array) Dict {
	return Dict{dt: dt, codes: codes, values: values, st: stats.New()}
}

// EncodeDict builds a Dict from a canonical array by hashing each
// distinct value once and assigning it a code on first sight. For
// binary/utf8, hashing is content-based with explicit collision
// resolution: a hash bucket only short-circuits the linear equality
// scan, it never substitutes for it.
func EncodeDict(canon Array) (Dict, error) {
	dt := canon.DType()
	nullable := dt.IsNullable()

	buckets := make(map[hash.Hash][]int) // hash.Hash -> indices into `values`
	var values []scalar.Scalar
	if nullable {
		values = append(values, scalar.Null(dt))
	}
	codes := make([]uint64, canon.Len())

	for i := 0; i < canon.Len(); i++ {
		v, err := canon.ScalarAt(i)
		if err != nil {
			return Dict{}, err
		}
		if v.IsNull() {
			codes[i] = 0
			continue
		}
		h := hashScalar(v)
		code := -1
		for _, cand := range buckets[h] {
			if scalar.Compare(values[cand], v) == 0 {
				code = cand
				break
			}
		}
		if code < 0 {
			code = len(values)
			values = append(values, v)
			buckets[h] = append(buckets[h], code)
		}
		codes[i] = uint64(code)
	}

	codesPtype := dtype.UnsignedOfWidth(bitsFor(uint64(len(values))))
	codesArr := NewPrimitiveUnsigned(codesPtype, codes)

	valuesArr, err := arrayFromScalars(dt, values)
	if err != nil {
		return Dict{}, err
	}

	return NewDict(dt, codesArr, valuesArr), nil
}

func hashScalar(v scalar.Scalar) hash.Hash {
	switch v.Value.(type) {
	case string, []byte:
		return hash.Of(v.AsBytes())
	case bool:
		if v.AsBool() {
			return hash.Hash(1)
		}
		return hash.Hash(0)
	case float64:
		return hash.Of(float64Bytes(v.AsFloat()))
	default:
		return hash.Hash(v.AsUint())
	}
}

// bitsFor returns the minimum bit width (8/16/32/64) that can represent
// codes up to n-1.
func bitsFor(n uint64) int {
	switch {
	case n <= 1<<8:
		return 8
	case n <= 1<<16:
		return 16
	case n <= 1<<32:
		return 32
	default:
		return 64
	}
}

func (d Dict) DType() dtype.DType            { return d.dt }
func (d Dict) Len() int                      { return d.codes.Len() }
func (d Dict) IsEmpty() bool                 { return d.codes.Len() == 0 }
func (d Dict) Encoding() string              { return "vortex.dict" }
func (d Dict) Children() []Array             { return []Array{d.codes, d.values} }
func (d Dict) Buffer() (buffer.Buffer, bool) { return buffer.Buffer{}, false }
func (d Dict) Metadata() []byte              { return nil }
func (d Dict) Statistics() *stats.Set        { return d.st }
func (d Dict) NBytes() int64                 { return d.codes.NBytes() + d.values.NBytes() }
func (d Dict) Codes() Array                  { return d.codes }
func (d Dict) Values() Array                 { return d.values }

func (d Dict) Slice(start, stop int) Array {
	return NewDict(d.dt, d.codes.Slice(start, stop), d.values)
}

func (d Dict) ScalarAt(i int) (scalar.Scalar, error) {
	if i < 0 || i >= d.Len() {
		return scalar.Scalar{}, errtax.OutOfBounds(i, 0, d.Len())
	}
	code, err := d.codes.ScalarAt(i)
	if err != nil {
		return scalar.Scalar{}, err
	}
	return d.values.ScalarAt(int(code.AsUint()))
}

// IntoCanonical decodes every row via its code: equivalent to
// take(values, codes) with codes first canonicalized to a plain index
// list.
func (d Dict) IntoCanonical() (Array, error) {
	codesCanon, err := d.codes.IntoCanonical()
	if err != nil {
		return nil, err
	}
	idx := make([]int, codesCanon.Len())
	for i := range idx {
		v, err := codesCanon.ScalarAt(i)
		if err != nil {
			return nil, err
		}
		idx[i] = int(v.AsUint())
	}
	taken, err := Take(d.values, idx)
	if err != nil {
		return nil, err
	}
	return taken.IntoCanonical()
}

// Take preserves the dictionary: only the codes are taken, the values
// array is shared unchanged.
func (d Dict) Take(indices []int) (Array, error) {
	taken, err := Take(d.codes, indices)
	if err != nil {
		return nil, err
	}
	return NewDict(d.dt, taken, d.values), nil
}

func float64Bytes(f float64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(f))
	return b
}
