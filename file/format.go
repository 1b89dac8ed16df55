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

// Package file is the on-disk container: a sequence of
// chunk byte blobs, a schema, a footer describing where everything
// lives, and a 20-byte trailer so a reader can find the footer without
// a prior index. Writing happens in one pass (the whole table must be
// in memory already); reading streams chunks back out, pruning via
// per-chunk statistics before fetching any chunk bytes.
package file

import "github.com/dolthub/vortex/buffer"

// Magic is the 4-byte sentinel at the very end of every file.
const Magic = "VTXF"

// TrailerSize is the fixed-width trailer: schema_offset | footer_offset | magic.
const TrailerSize = 8 + 8 + len(Magic)

// DefaultChunkRows is the row count a Writer splits each column into
// when the caller doesn't request a specific chunk size.
const DefaultChunkRows = 64 * 1024

// Compression names the per-buffer codec recorded in a buffer descriptor.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionSnappy
)

// BufferDescriptor locates one buffer's packed payload within a chunk's
// byte range.
type BufferDescriptor struct {
	Offset      uint64
	Length      uint64
	Compression Compression
}

func padTo64(n int) int {
	rem := n % buffer.Alignment
	if rem == 0 {
		return n
	}
	return n + (buffer.Alignment - rem)
}
