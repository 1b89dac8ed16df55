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
	"github.com/dolthub/vortex/buffer"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/stats"
)

// Null is the canonical form of the Null dtype: every logical
// element is null, no buffer, no children.
type Null struct {
	length int
	st     *stats.Set
}

func NewNull(length int) Null {
	return Null{length: length, st: stats.New()}
}

func (n Null) DType() dtype.DType            { return dtype.Null() }
func (n Null) Len() int                      { return n.length }
func (n Null) IsEmpty() bool                 { return n.length == 0 }
func (n Null) Encoding() string              { return "vortex.null" }
func (n Null) Children() []Array             { return nil }
func (n Null) Buffer() (buffer.Buffer, bool) { return buffer.Buffer{}, false }
func (n Null) Metadata() []byte              { return nil }
func (n Null) Statistics() *stats.Set        { return n.st }
func (n Null) NBytes() int64                 { return 0 }

func (n Null) Slice(start, stop int) Array {
	start, stop = clampSlice(start, stop, n.length)
	return NewNull(stop - start)
}

func (n Null) ScalarAt(i int) (scalar.Scalar, error) {
	if i < 0 || i >= n.length {
		return scalar.Scalar{}, errtax.OutOfBounds(i, 0, n.length)
	}
	return scalar.Null(dtype.Null()), nil
}

func (n Null) IntoCanonical() (Array, error) { return n, nil }

func (n Null) Take(indices []int) (Array, error) {
	for _, idx := range indices {
		if idx < 0 || idx >= n.length {
			return nil, errtax.OutOfBounds(idx, 0, n.length)
		}
	}
	return NewNull(len(indices)), nil
}
