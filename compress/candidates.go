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

// candidates.go registers the search candidates: Constant (also
// fast-pathed), Dict, BitPacked, ALP, ALP-RD and a Sparse/Patched
// candidate for dominant-value columns. Each wraps the array package's
// EncodeXxx constructor.
package compress

import (
	"github.com/dolthub/vortex/array"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
)

const (
	constantID  = "vortex.constant"
	dictID      = "vortex.dict"
	bitpackedID = "vortex.bitpacked"
	alpID       = "vortex.alp"
	alprdID     = "vortex.alprd"
	sparseID    = "vortex.patched"
)

func defaultCompressors() []Compressor {
	return []Compressor{
		constantCompressor{},
		dictCompressor{},
		bitpackedCompressor{},
		alpCompressor{},
		alprdCompressor{},
		sparseCompressor{},
	}
}

func canonicalOf(a array.Array) (array.Array, error) {
	return a.IntoCanonical()
}

// computeIsStrictSorted scans a once to determine strict monotonicity,
// caching the result on a's own statistics set so repeated admission
// checks (e.g. across several candidates in the same Compress call) are
// O(1) after the first.
func computeIsStrictSorted(a array.Array) bool {
	v := a.Statistics().GetOrCompute(stats.IsStrictSorted, func() scalar.Scalar {
		n := a.Len()
		strict := true
		var prev scalar.Scalar
		havePrev := false
		for i := 0; i < n && strict; i++ {
			v, err := a.ScalarAt(i)
			if err != nil || v.IsNull() {
				strict = false
				break
			}
			if havePrev && scalar.Compare(prev, v) >= 0 {
				strict = false
				break
			}
			prev, havePrev = v, true
		}
		return scalar.Bool(strict)
	})
	return v.AsBool()
}

// constantCompressor backstops the step-1 fast path: registered so a
// CompressionTree template naming "vortex.constant" can be replayed
// without re-deriving the IsConstant check.
type constantCompressor struct{}

func (constantCompressor) ID() string                     { return constantID }
func (constantCompressor) Cost() int                      { return 0 }
func (constantCompressor) CanCompress(a array.Array) bool { return isConstant(a) }
func (constantCompressor) Compress(ctx *Context, a array.Array) (CompressedArray, error) {
	return compressConstant(ctx, a)
}

// dictCompressor is rejected when the input is already known to
// have no repeats (IsStrictSorted), since deduplication can't help.
type dictCompressor struct{}

func (dictCompressor) ID() string { return dictID }
func (dictCompressor) Cost() int  { return 1 }

func (dictCompressor) CanCompress(a array.Array) bool {
	switch a.DType().Kind() {
	case dtype.KindPrimitive, dtype.KindUtf8, dtype.KindBinary, dtype.KindBool:
	default:
		return false
	}
	if a.Len() == 0 {
		return false
	}
	return !computeIsStrictSorted(a)
}

func (d dictCompressor) Compress(ctx *Context, a array.Array) (CompressedArray, error) {
	canon, err := canonicalOf(a)
	if err != nil {
		return CompressedArray{}, err
	}
	enc, err := array.EncodeDict(canon)
	if err != nil {
		return CompressedArray{}, err
	}

	childCtx := ctx.childContext(d.Cost()).excluding(d.ID())
	codesC, err := childCtx.Compress(enc.Codes(), nil)
	if err != nil {
		return CompressedArray{}, err
	}
	valuesC, err := childCtx.auxiliary().Compress(enc.Values(), nil)
	if err != nil {
		return CompressedArray{}, err
	}

	out := array.NewDict(enc.DType(), codesC.Array, valuesC.Array)
	return CompressedArray{
		Array: out,
		Tree:  &CompressionTree{Compressor: d.ID(), Children: []*CompressionTree{codesC.Tree, valuesC.Tree}},
	}, nil
}

// bitpackedCompressor applies to any non-float primitive.
type bitpackedCompressor struct{}

func (bitpackedCompressor) ID() string { return bitpackedID }
func (bitpackedCompressor) Cost() int  { return 1 }

func (bitpackedCompressor) CanCompress(a array.Array) bool {
	return a.DType().Kind() == dtype.KindPrimitive && !a.DType().Ptype().IsFloat() && a.Len() > 0
}

func (bitpackedCompressor) Compress(ctx *Context, a array.Array) (CompressedArray, error) {
	canon, err := canonicalOf(a)
	if err != nil {
		return CompressedArray{}, err
	}
	p, ok := canon.(array.Primitive)
	if !ok {
		return CompressedArray{}, errtax.InvalidDType(canon.DType())
	}
	enc, err := array.EncodeBitPacked(p)
	if err != nil {
		return CompressedArray{}, err
	}
	return CompressedArray{Array: enc, Tree: &CompressionTree{Compressor: bitpackedID}}, nil
}

// alpCompressor applies to float primitives.
type alpCompressor struct{}

func (alpCompressor) ID() string { return alpID }
func (alpCompressor) Cost() int  { return 1 }

func (alpCompressor) CanCompress(a array.Array) bool {
	return a.DType().Kind() == dtype.KindPrimitive && a.DType().Ptype().IsFloat() && a.Len() > 0
}

func (alpCompressor) Compress(ctx *Context, a array.Array) (CompressedArray, error) {
	canon, err := canonicalOf(a)
	if err != nil {
		return CompressedArray{}, err
	}
	p, ok := canon.(array.Primitive)
	if !ok {
		return CompressedArray{}, errtax.InvalidDType(canon.DType())
	}
	enc, err := array.EncodeALP(p)
	if err != nil {
		return CompressedArray{}, err
	}
	return CompressedArray{Array: enc, Tree: &CompressionTree{Compressor: alpID}}, nil
}

// alprdCompressor is the split-representation alternative to ALP
// tried as an independent candidate and picked by the objective whenever
// it wins on bytes.
type alprdCompressor struct{}

func (alprdCompressor) ID() string { return alprdID }
func (alprdCompressor) Cost() int  { return 1 }

func (alprdCompressor) CanCompress(a array.Array) bool {
	return a.DType().Kind() == dtype.KindPrimitive && a.DType().Ptype().IsFloat() && a.Len() > 0
}

func (alprdCompressor) Compress(ctx *Context, a array.Array) (CompressedArray, error) {
	canon, err := canonicalOf(a)
	if err != nil {
		return CompressedArray{}, err
	}
	p, ok := canon.(array.Primitive)
	if !ok {
		return CompressedArray{}, errtax.InvalidDType(canon.DType())
	}
	enc, err := array.EncodeALPRD(p)
	if err != nil {
		return CompressedArray{}, err
	}
	return CompressedArray{Array: enc, Tree: &CompressionTree{Compressor: alprdID}}, nil
}

// sparseCompressor builds the Patched/Sparse encoding, used as a
// top-level candidate (rather than purely an internal exception
// side-channel) for columns dominated by one repeated value with a
// scattering of outliers — e.g. a mostly-zero flag column.
type sparseCompressor struct{}

func (sparseCompressor) ID() string { return sparseID }
func (sparseCompressor) Cost() int  { return 1 }

const sparseSampleLimit = 2048
const sparseMinDominantRatio = 0.5

func (sparseCompressor) CanCompress(a array.Array) bool {
	switch a.DType().Kind() {
	case dtype.KindStruct, dtype.KindList:
		return false
	}
	if a.Len() == 0 {
		return false
	}
	_, ratio := dominantValue(a, sparseSampleLimit)
	return ratio >= sparseMinDominantRatio
}

func (sparseCompressor) Compress(ctx *Context, a array.Array) (CompressedArray, error) {
	canon, err := canonicalOf(a)
	if err != nil {
		return CompressedArray{}, err
	}
	dominant, _ := dominantValue(canon, canon.Len())

	n := canon.Len()
	var patchIdx []uint64
	var patchVals []scalar.Scalar
	for i := 0; i < n; i++ {
		v, err := canon.ScalarAt(i)
		if err != nil {
			return CompressedArray{}, err
		}
		if scalarNotEqual(v, dominant) {
			patchIdx = append(patchIdx, uint64(i))
			patchVals = append(patchVals, v)
		}
	}

	data := array.NewConstant(dominant, n)
	if len(patchIdx) == 0 {
		return CompressedArray{Array: data, Tree: &CompressionTree{Compressor: constantID}}, nil
	}
	idxArr := array.NewPrimitiveU64(patchIdx)
	valsArr, err := array.FromScalars(canon.DType(), patchVals)
	if err != nil {
		return CompressedArray{}, err
	}
	out := array.NewPatched(data, idxArr, valsArr, 0)
	return CompressedArray{Array: out, Tree: &CompressionTree{Compressor: sparseID}}, nil
}

// dominantValue scans up to limit elements of a and returns the most
// frequent non-null scalar along with its frequency ratio over the rows
// actually scanned.
func dominantValue(a array.Array, limit int) (scalar.Scalar, float64) {
	n := a.Len()
	if limit > n {
		limit = n
	}
	counts := make(map[string]int)
	values := make(map[string]scalar.Scalar)
	order := make([]string, 0, limit)
	scanned := 0
	for i := 0; i < limit; i++ {
		v, err := a.ScalarAt(i)
		if err != nil || v.IsNull() {
			continue
		}
		key := v.String()
		if _, ok := counts[key]; !ok {
			values[key] = v
			order = append(order, key)
		}
		counts[key]++
		scanned++
	}
	if scanned == 0 {
		return scalar.Null(a.DType()), 0
	}
	bestKey, bestCount := order[0], 0
	for _, k := range order {
		if counts[k] > bestCount {
			bestKey, bestCount = k, counts[k]
		}
	}
	return values[bestKey], float64(bestCount) / float64(scanned)
}
