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

package file_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/vortex/array"
	"github.com/dolthub/vortex/compress"
	"github.com/dolthub/vortex/dtype"
	"github.com/dolthub/vortex/file"
	"github.com/dolthub/vortex/layout"
	"github.com/dolthub/vortex/scalar"
	"github.com/dolthub/vortex/validity"
)

func buildTable(n int) array.Struct {
	ids := make([]int64, n)
	names := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = int64(i)
		names[i] = "row"
	}
	return array.NewStruct(
		[]string{"id", "name"},
		[]array.Array{array.NewPrimitiveI64(ids), array.NewUtf8FromStrings(names)},
		validity.NewNonNullable(),
		false,
	)
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	tbl := buildTable(250)

	var buf bytes.Buffer
	w := file.NewWriter(&buf)
	n, err := w.WriteTable(tbl, 64)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	r, err := file.Open(bytes.NewReader(buf.Bytes()), n)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"id", "name"}, r.Schema().FieldNames())

	stream, err := r.Scan(context.Background(), file.ScanOptions{})
	require.NoError(t, err)

	total := 0
	for {
		batch, ok, err := stream.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		total += batch.Rows.Len()
	}
	assert.Equal(t, 250, total)
}

func TestWriteWithEncoderRoundTrip(t *testing.T) {
	tbl := buildTable(2000)

	var buf bytes.Buffer
	w := file.NewWriter(&buf, file.WithEncoder(compress.New()))
	n, err := w.WriteTable(tbl, 256)
	require.NoError(t, err)

	r, err := file.Open(bytes.NewReader(buf.Bytes()), n)
	require.NoError(t, err)

	stream, err := r.Scan(context.Background(), file.ScanOptions{})
	require.NoError(t, err)

	total := 0
	for {
		batch, ok, err := stream.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		idField, ok := batch.Rows.Field("id")
		require.True(t, ok)
		for i := 0; i < idField.Len(); i++ {
			v, err := idField.ScalarAt(i)
			require.NoError(t, err)
			assert.Equal(t, int64(total+i), v.AsInt())
		}
		total += batch.Rows.Len()
	}
	assert.Equal(t, 2000, total)
}

func TestScanProjectionSelectsSubsetOfFields(t *testing.T) {
	tbl := buildTable(50)

	var buf bytes.Buffer
	w := file.NewWriter(&buf)
	n, err := w.WriteTable(tbl, 10)
	require.NoError(t, err)

	r, err := file.Open(bytes.NewReader(buf.Bytes()), n)
	require.NoError(t, err)

	stream, err := r.Scan(context.Background(), file.ScanOptions{Projection: []string{"id"}})
	require.NoError(t, err)

	batch, ok, err := stream.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"id"}, batch.Rows.FieldNames())
}

func TestScanFilterPrunesAndMasksRows(t *testing.T) {
	ids := make([]int64, 100)
	for i := range ids {
		ids[i] = int64(i)
	}
	tbl := array.NewStruct(
		[]string{"id"},
		[]array.Array{array.NewPrimitiveI64(ids)},
		validity.NewNonNullable(),
		false,
	)

	var buf bytes.Buffer
	w := file.NewWriter(&buf)
	n, err := w.WriteTable(tbl, 10)
	require.NoError(t, err)

	r, err := file.Open(bytes.NewReader(buf.Bytes()), n)
	require.NoError(t, err)

	filter := layout.Binary{Op: layout.Gte, Left: layout.Col{Name: "id"}, Right: layout.Lit{Value: scalar.Int(dtype.I64, 95)}}
	stream, err := r.Scan(context.Background(), file.ScanOptions{Filter: filter})
	require.NoError(t, err)

	var got []int64
	for {
		batch, ok, err := stream.Next(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
		idField, ok := batch.Rows.Field("id")
		require.True(t, ok)
		for i := 0; i < idField.Len(); i++ {
			v, err := idField.ScalarAt(i)
			require.NoError(t, err)
			got = append(got, v.AsInt())
		}
	}
	assert.Equal(t, []int64{95, 96, 97, 98, 99}, got)
}
