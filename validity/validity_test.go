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

package validity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dolthub/vortex/array"
	"github.com/dolthub/vortex/validity"
)

func TestConstantStatesNeverTouchBitmap(t *testing.T) {
	assert.True(t, validity.NewNonNullable().IsValid(0))
	assert.True(t, validity.NewAllValid().IsValid(100))
	assert.False(t, validity.NewAllInvalid().IsValid(0))
}

func TestBitmapIsValidDelegates(t *testing.T) {
	b := array.NewBoolFromSlice([]bool{true, false, true})
	v := validity.NewBitmap(b)
	assert.True(t, v.IsValid(0))
	assert.False(t, v.IsValid(1))
	assert.True(t, v.IsValid(2))
}

func TestSliceOnConstantIsNoop(t *testing.T) {
	v := validity.NewAllValid()
	sl := v.Slice(2, 5)
	assert.Equal(t, validity.AllValid, sl.Kind())
}

func TestSliceOnBitmapNarrows(t *testing.T) {
	b := array.NewBoolFromSlice([]bool{true, false, true, false, true})
	v := validity.NewBitmap(b)
	sl := v.Slice(1, 3)
	assert.False(t, sl.IsValid(0))
	assert.True(t, sl.IsValid(1))
}

func TestAndAbsorbsAllInvalid(t *testing.T) {
	got := validity.And(validity.NewAllValid(), validity.NewAllInvalid(), 3)
	assert.Equal(t, validity.AllInvalid, got.Kind())
}

func TestAndNonNullablePair(t *testing.T) {
	got := validity.And(validity.NewNonNullable(), validity.NewNonNullable(), 3)
	assert.Equal(t, validity.NonNullable, got.Kind())
}

func TestAndMixedConstantReturnsBitmapSide(t *testing.T) {
	b := array.NewBoolFromSlice([]bool{true, false})
	bitmap := validity.NewBitmap(b)
	got := validity.And(validity.NewAllValid(), bitmap, 2)
	assert.Equal(t, validity.Bitmap, got.Kind())
	assert.True(t, got.IsValid(0))
	assert.False(t, got.IsValid(1))
}
