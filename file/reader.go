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

// reader.go implements the scan path: open a file, project its schema,
// prune
// chunks by statistics before fetching them, and stream the surviving
// chunks back out as batches.
package file

import (
	"context"
	"io"

	"github.com/golang/snappy"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dolthub/vortex/array"
	"github.com/dolthub/vortex/buffer"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/errtax"
	"github.com/dolthub/vortex/layout"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/serial"
	"github.com/dolthub/vortex/stats"
	"github.com/dolthub/vortex/validity"
)

// Reader opens a file previously written by Writer and serves scans.
type Reader struct {
	ra     io.ReaderAt
	size   int64
	schema dtype.DType
	vc     array.ViewContext
	top    layout.Layout
	logger *zap.Logger
}

// ReaderOption configures Open.
type ReaderOption func(*Reader)

// WithReaderLogger attaches a zap logger for scan diagnostics.
func WithReaderLogger(l *zap.Logger) ReaderOption {
	return func(r *Reader) { r.logger = l }
}

// Open parses ra's trailer, schema and footer. size is the file's total
// byte length.
func Open(ra io.ReaderAt, size int64, opts ...ReaderOption) (*Reader, error) {
	if size < int64(TrailerSize) {
		return nil, errtax.MalformedFile("file too small: %d bytes", size)
	}
	trailerBuf := make([]byte, TrailerSize)
	if err := readAt(ra, size-int64(TrailerSize), trailerBuf); err != nil {
		return nil, err
	}
	tr, err := decodeTrailer(trailerBuf)
	if err != nil {
		return nil, err
	}

	schemaBuf := make([]byte, tr.FooterOffset-tr.SchemaOffset)
	if err := readAt(ra, int64(tr.SchemaOffset), schemaBuf); err != nil {
		return nil, err
	}
	schema, err := decodeSchema(schemaBuf)
	if err != nil {
		return nil, err
	}

	footerBuf := make([]byte, size-int64(TrailerSize)-int64(tr.FooterOffset))
	if err := readAt(ra, int64(tr.FooterOffset), footerBuf); err != nil {
		return nil, err
	}
	vc, top, err := decodeFooter(footerBuf)
	if err != nil {
		return nil, err
	}

	r := &Reader{ra: ra, size: size, schema: schema, vc: vc, top: top, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func readAt(ra io.ReaderAt, offset int64, buf []byte) error {
	_, err := ra.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return errtax.IoError(err)
	}
	return nil
}

// Schema returns the file's top-level DType.
func (r *Reader) Schema() dtype.DType { return r.schema }

// ColumnSummary reports the on-disk shape of one projected field,
// without decoding any row data: how many chunks it was split into,
// the total compressed byte size of those chunks, and each chunk's
// statistics row as recorded in the footer's stats table.
type ColumnSummary struct {
	NumChunks  int
	Bytes      int64
	ChunkStats []map[stats.Stat]scalar.Scalar
}

// ColumnStats reads name's statistics table and chunk byte ranges
// without fetching any chunk payload, for inspection tooling (`vortex
// stat`).
func (r *Reader) ColumnStats(name string) (ColumnSummary, error) {
	names := r.schema.FieldNames()
	idx := -1
	for i, n := range names {
		if n == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ColumnSummary{}, errtax.InvalidArgument("unknown column %q", name)
	}
	field := r.top.Field(idx)
	table, err := r.readChunkMessage(field.StatsTable())
	if err != nil {
		return ColumnSummary{}, err
	}
	chunks := field.DataChunks()
	rows := make([]map[stats.Stat]scalar.Scalar, len(chunks))
	var nbytes int64
	for j, c := range chunks {
		row, err := layout.FieldStatsRow(table, j)
		if err != nil {
			return ColumnSummary{}, err
		}
		rows[j] = row
		nbytes += int64(c.End() - c.Begin())
	}
	return ColumnSummary{NumChunks: len(chunks), Bytes: nbytes, ChunkStats: rows}, nil
}

// ScanOptions configures one Scan.
type ScanOptions struct {
	// Projection names the fields to read; nil means every field.
	Projection []string
	// Filter is a row predicate pushed down as both a pruning predicate
	// (over chunk stats) and a post-decode mask (over decoded rows).
	Filter layout.Expr
	// RowIndices, if set, selects specific global row indices instead of
	// every surviving row.
	RowIndices []int
}

// Batch is one chunk's worth of projected, filtered rows.
type Batch struct {
	Rows array.Struct
}

// Stream yields Batches in chunk order.
type Stream struct {
	out    chan Batch
	errc   chan error
	cancel context.CancelFunc
}

// Next blocks for the next batch. ok is false once the stream is
// exhausted; check err for a failure that ended the stream early.
func (s *Stream) Next(ctx context.Context) (Batch, bool, error) {
	select {
	case b, ok := <-s.out:
		if !ok {
			select {
			case err := <-s.errc:
				return Batch{}, false, err
			default:
				return Batch{}, false, nil
			}
		}
		return b, true, nil
	case <-ctx.Done():
		return Batch{}, false, ctx.Err()
	}
}

// Close cancels outstanding reads; dropping the stream cancels any
// fetch still in flight.
func (s *Stream) Close() { s.cancel() }

// Scan projects, prunes, fetches, reconstructs, filters, and returns a
// stream of batches.
func (r *Reader) Scan(ctx context.Context, opts ScanOptions) (*Stream, error) {
	if r.top.Kind() != layout.Column {
		return nil, errtax.MalformedFile("top-level layout is not a Column")
	}
	allNames := r.schema.FieldNames()

	projNames := opts.Projection
	if projNames == nil {
		projNames = allNames
	}
	projIdx := make([]int, len(projNames))
	nameToIdx := make(map[string]int, len(allNames))
	for i, n := range allNames {
		nameToIdx[n] = i
	}
	for i, n := range projNames {
		idx, ok := nameToIdx[n]
		if !ok {
			return nil, errtax.InvalidArgument("unknown projected column %q", n)
		}
		projIdx[i] = idx
	}

	predicate := layout.BuildPruningPredicate(opts.Filter)

	var numChunks int
	if len(projIdx) > 0 {
		numChunks = len(r.top.Field(projIdx[0]).DataChunks())
	}

	// Pre-decode the stats tables for every field the predicate reads,
	// once, rather than per chunk.
	refFields := map[string]array.Array{}
	for _, ref := range predicate.Refs {
		if _, ok := refFields[ref.Column]; ok {
			continue
		}
		idx, ok := nameToIdx[ref.Column]
		if !ok {
			continue
		}
		table, err := r.readChunkMessage(r.top.Field(idx).StatsTable())
		if err != nil {
			return nil, err
		}
		refFields[ref.Column] = table
	}

	rowIndexSet := map[int]bool(nil)
	var rowOffsetTable array.Array
	if opts.RowIndices != nil {
		rowIndexSet = make(map[int]bool, len(opts.RowIndices))
		for _, idx := range opts.RowIndices {
			rowIndexSet[idx] = true
		}
		var err error
		rowOffsetTable, err = r.readChunkMessage(r.top.Field(projIdx[0]).StatsTable())
		if err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	stream := &Stream{out: make(chan Batch), errc: make(chan error, 1), cancel: cancel}

	go func() {
		defer close(stream.out)
		for j := 0; j < numChunks; j++ {
			if ctx.Err() != nil {
				return
			}
			if len(predicate.Refs) > 0 {
				row := make(layout.StatsRow, len(refFields))
				for col, table := range refFields {
					s, err := layout.FieldStatsRow(table, j)
					if err != nil {
						stream.errc <- err
						return
					}
					row[col] = s
				}
				if predicate.Eliminates(row) {
					continue
				}
			}

			var rowOffset uint64
			if rowIndexSet != nil {
				var err error
				rowOffset, err = layout.RowOffsetAt(rowOffsetTable, j)
				if err != nil {
					stream.errc <- err
					return
				}
			}

			cols := make([]array.Array, len(projIdx))
			g, _ := errgroup.WithContext(ctx)
			for i, idx := range projIdx {
				i, idx := i, idx
				g.Go(func() error {
					chunkLayout := r.top.Field(idx).DataChunks()[j]
					a, err := r.readChunkMessage(chunkLayout)
					if err != nil {
						return err
					}
					cols[i] = a
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				stream.errc <- err
				return
			}

			rowCount := 0
			if len(cols) > 0 {
				rowCount = cols[0].Len()
			}
			batch := array.NewStruct(projNames, cols, validity.NewNonNullable(), false)

			// Row-index selection happens before the filter mask so that
			// rowOffset+i still addresses the chunk's original rows.
			if rowIndexSet != nil {
				var rel []int
				for i := 0; i < rowCount; i++ {
					if rowIndexSet[int(rowOffset)+i] {
						rel = append(rel, i)
					}
				}
				if len(rel) == 0 {
					continue
				}
				taken, err := array.Take(batch, rel)
				if err != nil {
					stream.errc <- err
					return
				}
				batch = taken.(array.Struct)
				rowCount = batch.Len()
			}

			if opts.Filter != nil {
				mask, err := layout.EvalMask(opts.Filter, batch, rowCount)
				if err != nil {
					stream.errc <- err
					return
				}
				filtered, err := array.Filter(batch, mask)
				if err != nil {
					stream.errc <- err
					return
				}
				batch = filtered.(array.Struct)
			}

			select {
			case stream.out <- Batch{Rows: batch}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return stream, nil
}

// readChunkMessage fetches and decodes one Chunk message given
// its Flat layout.
func (r *Reader) readChunkMessage(flat layout.Layout) (array.Array, error) {
	if flat.Kind() != layout.Flat {
		return nil, errtax.MalformedFile("expected a flat chunk layout")
	}
	begin, end := int64(flat.Begin()), int64(flat.End())
	buf := make([]byte, end-begin)
	if err := readAt(r.ra, begin, buf); err != nil {
		return nil, err
	}

	reader := serial.NewReader(buf)
	nodeBytes, err := reader.ReadBytes()
	if err != nil {
		return nil, err
	}

	count, err := reader.ReadVarint()
	if err != nil {
		return nil, err
	}
	descs := make([]BufferDescriptor, count)
	for i := range descs {
		off, err := reader.ReadUint64()
		if err != nil {
			return nil, err
		}
		length, err := reader.ReadUint64()
		if err != nil {
			return nil, err
		}
		comp, err := reader.ReadUint8()
		if err != nil {
			return nil, err
		}
		descs[i] = BufferDescriptor{Offset: off, Length: length, Compression: Compression(comp)}
	}

	buffers := make([]buffer.Buffer, len(descs))
	for i, d := range descs {
		relOff := int64(d.Offset) - begin
		if relOff < 0 || relOff+int64(d.Length) > int64(len(buf)) {
			return nil, errtax.MalformedFile("buffer descriptor %d out of chunk range", i)
		}
		payload := buf[relOff : relOff+int64(d.Length)]
		switch d.Compression {
		case CompressionNone:
			buffers[i] = buffer.New(payload)
		case CompressionSnappy:
			decoded, err := snappy.Decode(nil, payload)
			if err != nil {
				return nil, errtax.MalformedFile("snappy decode: %s", err)
			}
			buffers[i] = buffer.New(decoded)
		default:
			return nil, errtax.MalformedFile("unknown buffer compression %d", d.Compression)
		}
	}

	return array.DecodeArrayTree(r.vc, nodeBytes, buffers)
}
