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

package hash

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOfIsDeterministic(t *testing.T) {
	a := Of([]byte("hello"))
	b := Of([]byte("hello"))
	assert.Equal(t, a, b)
}

func TestOfDistinguishesInputs(t *testing.T) {
	assert.NotEqual(t, Of([]byte("hello")), Of([]byte("world")))
}

func TestDigestMatchesSinglePassOf(t *testing.T) {
	d := NewDigest()
	d.Write([]byte("foo"))
	d.Write([]byte("bar"))
	assert.Equal(t, Of([]byte("foobar")), d.Sum())
}

func TestSliceSortsAscending(t *testing.T) {
	s := Slice{Hash(3), Hash(1), Hash(2)}
	sort.Sort(s)
	assert.Equal(t, Slice{Hash(1), Hash(2), Hash(3)}, s)
}
