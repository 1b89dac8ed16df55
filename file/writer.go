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

package file

import (
	"io"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dolthub/vortex/array"
	"github.com/dolthub/vortex/compress"
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/layout"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/serial"
	"github.com/dolthub/vortex/stats"
)

// Writer serializes one in-memory Struct-of-columns table into the
// container format. A Writer is single-use: build one table, call
// WriteTable once, discard it.
type Writer struct {
	w           io.Writer
	offset      uint64
	compression Compression
	compressor  *compress.Context
	logger      *zap.Logger
	sessionID   uuid.UUID
}

// Option configures a Writer.
type Option func(*Writer)

// WithCompression sets the per-buffer codec applied to every chunk's
// packed payload. Default is CompressionSnappy.
func WithCompression(c Compression) Option {
	return func(w *Writer) { w.compression = c }
}

// WithLogger attaches a zap logger for write-progress diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(w *Writer) { w.logger = l }
}

// WithEncoder attaches a sampling compressor that every row
// chunk is run through before it is serialized. Without this option,
// WriteTable writes each field's chunks in whatever encoding they
// already carry.
func WithEncoder(ctx *compress.Context) Option {
	return func(w *Writer) { w.compressor = ctx }
}

func NewWriter(w io.Writer, opts ...Option) *Writer {
	fw := &Writer{w: w, compression: CompressionSnappy, logger: zap.NewNop(), sessionID: uuid.New()}
	for _, opt := range opts {
		opt(fw)
	}
	return fw
}

func (fw *Writer) write(b []byte) error {
	n, err := fw.w.Write(b)
	if err != nil {
		return errtax.IoError(err)
	}
	fw.offset += uint64(n)
	return nil
}

// writeChunk emits one Chunk message: the ArrayNode tree bytes,
// then the buffer descriptor vector, then the packed buffer payloads.
// The descriptor table is written before the payloads so a reader can learn every buffer's absolute file
// offset from one contiguous read at the front of the chunk, instead of
// scanning past unknown-length compressed payloads to find it; each
// BufferDescriptor.Offset is already an absolute file position, so nothing
// downstream depends on where the table physically sits in the chunk.
func (fw *Writer) writeChunk(vc array.ViewContext, a array.Array) (layout.Layout, error) {
	begin := fw.offset
	nodeBytes, buffers, err := array.EncodeArrayTreeWithContext(vc, a)
	if err != nil {
		return layout.Layout{}, err
	}

	head := serial.NewWriter()
	head.WriteBytes(nodeBytes)
	if err := fw.write(head.Bytes()); err != nil {
		return layout.Layout{}, err
	}

	payloads := make([][]byte, len(buffers))
	descs := make([]BufferDescriptor, len(buffers))
	cursor := fw.offset
	descTableSize := descriptorTableSize(len(buffers))
	cursor += uint64(descTableSize)
	for i, b := range buffers {
		payload := b.Bytes()
		comp := CompressionNone
		if fw.compression == CompressionSnappy && len(payload) > 0 {
			payload = snappy.Encode(nil, payload)
			comp = CompressionSnappy
		}
		payloads[i] = payload
		descs[i] = BufferDescriptor{Offset: cursor, Length: uint64(len(payload)), Compression: comp}
		cursor += uint64(padTo64(len(payload)))
	}

	descW := serial.NewWriter()
	descW.WriteVarint(uint64(len(descs)))
	for _, d := range descs {
		descW.WriteUint64(d.Offset)
		descW.WriteUint64(d.Length)
		descW.WriteUint8(uint8(d.Compression))
	}
	if err := fw.write(descW.Bytes()); err != nil {
		return layout.Layout{}, err
	}

	for _, p := range payloads {
		if err := fw.write(p); err != nil {
			return layout.Layout{}, err
		}
		if pad := padTo64(len(p)) - len(p); pad > 0 {
			if err := fw.write(make([]byte, pad)); err != nil {
				return layout.Layout{}, err
			}
		}
	}

	return layout.NewFlat(begin, fw.offset), nil
}

// descriptorTableSize returns the exact byte size WriteVarint(count)
// followed by count fixed 17-byte descriptors will occupy, matching the
// serial package's LEB128 varint encoding.
func descriptorTableSize(count int) int {
	return serial.VarintLen(uint64(count)) + count*17
}

// WriteTable writes tbl in full, splitting every field into row chunks
// of chunkRows (DefaultChunkRows if <= 0), and returns the finished
// file's total byte length.
func (fw *Writer) WriteTable(tbl array.Struct, chunkRows int) (int64, error) {
	if chunkRows <= 0 {
		chunkRows = DefaultChunkRows
	}
	fields := tbl.Children()
	fieldTypes := tbl.DType().FieldTypes()
	n := tbl.Len()

	numChunks := 0
	if n > 0 {
		numChunks = (n + chunkRows - 1) / chunkRows
	}
	rowOffsets := make([]uint64, numChunks)
	for j := 0; j < numChunks; j++ {
		rowOffsets[j] = uint64(j * chunkRows)
	}

	fieldChunks := make([][]array.Array, len(fields))
	statsTables := make([]array.Array, len(fields))
	var allRoots []array.Array

	for fi, f := range fields {
		chunks := make([]array.Array, numChunks)
		var template *compress.CompressionTree
		for j := 0; j < numChunks; j++ {
			start := j * chunkRows
			stop := start + chunkRows
			if stop > n {
				stop = n
			}
			c := f.Slice(start, stop)
			if fw.compressor != nil {
				compressed, err := fw.compressor.Compress(c, template)
				if err != nil {
					return 0, err
				}
				c = compressed.Array
				template = compressed.Tree
			}
			if err := array.PopulateBasicStats(c); err != nil {
				return 0, err
			}
			chunks[j] = c
			allRoots = append(allRoots, c)
		}
		fieldChunks[fi] = chunks

		perChunkStats := make([]map[stats.Stat]scalar.Scalar, numChunks)
		for j, c := range chunks {
			perChunkStats[j] = c.Statistics().Snapshot()
		}
		table, err := layout.BuildStatsTable(fieldTypes[fi], perChunkStats, rowOffsets)
		if err != nil {
			return 0, err
		}
		statsTables[fi] = table
		allRoots = append(allRoots, table)
	}

	vc, err := array.CollectViewContextAll(allRoots)
	if err != nil {
		return 0, err
	}

	fieldLayouts := make([]layout.Layout, len(fields))
	for fi := range fields {
		statsLayout, err := fw.writeChunk(vc, statsTables[fi])
		if err != nil {
			return 0, err
		}
		dataLayouts := make([]layout.Layout, numChunks)
		for j, c := range fieldChunks[fi] {
			l, err := fw.writeChunk(vc, c)
			if err != nil {
				return 0, err
			}
			dataLayouts[j] = l
		}
		fieldLayouts[fi] = layout.NewChunked(statsLayout, dataLayouts)
	}

	top := layout.NewColumn(fieldLayouts)

	schemaOffset := fw.offset
	if err := fw.write(encodeSchema(tbl.DType())); err != nil {
		return 0, err
	}

	footerOffset := fw.offset
	if err := fw.write(encodeFooter(vc, top)); err != nil {
		return 0, err
	}

	if err := fw.write(encodeTrailer(trailer{SchemaOffset: schemaOffset, FooterOffset: footerOffset})); err != nil {
		return 0, err
	}

	fw.logger.Info("wrote vortex file",
		zap.String("session", fw.sessionID.String()),
		zap.Int("fields", len(fields)),
		zap.Int("chunks_per_field", numChunks),
		zap.Int64("bytes", int64(fw.offset)))

	return int64(fw.offset), nil
}
