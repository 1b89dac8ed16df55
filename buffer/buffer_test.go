// Copyright 2019 Dolthub, Inc.
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

package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferRoundTrip(t *testing.T) {
	b := New([]byte("hello world"))
	assert.Equal(t, 11, b.Len())
	assert.Equal(t, "hello world", string(b.Bytes()))
}

func TestBufferAlignment(t *testing.T) {
	b := Zeroed(128)
	addr := uintptrOf(b.storage.data)
	assert.Zero(t, addr%Alignment)
}

func TestBufferSliceSharesStorage(t *testing.T) {
	b := New([]byte("0123456789"))
	s := b.Slice(2, 5)
	assert.Equal(t, "234", string(s.Bytes()))
	assert.Same(t, b.storage, s.storage)
}

func TestBufferRetainRelease(t *testing.T) {
	b := New([]byte("x"))
	r := b.Retain()
	assert.Equal(t, int64(2), b.storage.refs)
	r.Release()
	assert.Equal(t, int64(1), b.storage.refs)
	b.Release()
	assert.Equal(t, int64(0), b.storage.refs)
}
