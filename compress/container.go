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

// container.go implements the Chunked/Struct fast paths:
// these never compete against other candidates on the objective, they
// simply recurse into their children and re-wrap.
package compress

import "github.com/dolthub/vortex/array"

const (
	chunkedID = "vortex.chunked"
	structID  = "vortex.struct"
)

func compressChunked(ctx *Context, c array.Chunked) (CompressedArray, error) {
	chunks := c.Chunks()
	outChunks := make([]array.Array, len(chunks))
	children := make([]*CompressionTree, len(chunks))
	for i, chunk := range chunks {
		compressed, err := ctx.Compress(chunk, nil)
		if err != nil {
			return CompressedArray{}, err
		}
		outChunks[i] = compressed.Array
		children[i] = compressed.Tree
	}
	return CompressedArray{
		Array: array.NewChunked(c.DType(), outChunks),
		Tree:  &CompressionTree{Compressor: chunkedID, Children: children},
	}, nil
}

func compressStruct(ctx *Context, s array.Struct) (CompressedArray, error) {
	fields := s.Children()
	outFields := make([]array.Array, len(fields))
	children := make([]*CompressionTree, len(fields))
	for i, f := range fields {
		compressed, err := ctx.Compress(f, nil)
		if err != nil {
			return CompressedArray{}, err
		}
		outFields[i] = compressed.Array
		children[i] = compressed.Tree
	}
	return CompressedArray{
		Array: array.NewStruct(s.FieldNames(), outFields, s.Validity(), s.DType().IsNullable()),
		Tree:  &CompressionTree{Compressor: structID, Children: children},
	}, nil
}
