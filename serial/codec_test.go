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

package serial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	vals := []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40, ^uint64(0)}
	for _, v := range vals {
		w := NewWriter()
		w.WriteVarint(v)
		assert.Equal(t, VarintLen(v), len(w.Bytes()), "v=%d", v)

		r := NewReader(w.Bytes())
		got, err := r.ReadVarint()
		require.NoError(t, err)
		assert.Equal(t, v, got, "v=%d", v)
	}
}

func TestBytesAndStringRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteBytes([]byte("hello"))
	w.WriteString("world")

	r := NewReader(w.Bytes())
	b, err := r.ReadBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), b)

	s, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "world", s)
}

func TestFixedWidthRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteUint8(200)
	w.WriteBool(true)
	w.WriteUint16(50000)
	w.WriteUint32(4_000_000_000)
	w.WriteUint64(1 << 63)
	w.WriteInt64(-12345)
	w.WriteFloat64(3.14159)

	r := NewReader(w.Bytes())
	u8, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(200), u8)

	b, err := r.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)

	u16, err := r.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(50000), u16)

	u32, err := r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(4_000_000_000), u32)

	u64, err := r.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<63), u64)

	i64, err := r.ReadInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(-12345), i64)

	f64, err := r.ReadFloat64()
	require.NoError(t, err)
	assert.InDelta(t, 3.14159, f64, 1e-12)
}

func TestReaderReportsErrorOnExhaustion(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.ReadUint64()
	assert.Error(t, err)
}

func TestOffsetAdvancesByBytesConsumed(t *testing.T) {
	w := NewWriter()
	w.WriteUint8(1)
	w.WriteUint32(2)
	r := NewReader(w.Bytes())
	_, err := r.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, 1, r.Offset())
	_, err = r.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, 5, r.Offset())
}
