// Copyright 2024 Dolthub, Inc.
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

package errtax

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutOfBoundsMatchesViaErrorsAs(t *testing.T) {
	err := OutOfBounds(5, 0, 3)
	var target *OutOfBoundsError
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, 5, target.Index)
	assert.Equal(t, 0, target.Lo)
	assert.Equal(t, 3, target.Hi)
}

func TestNotImplementedCarriesOpAndEncoding(t *testing.T) {
	err := NotImplemented("take", "vortex.alp")
	var target *NotImplementedError
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, "take", target.Op)
	assert.Equal(t, "vortex.alp", target.Encoding)
}

func TestIoErrorUnwrapsToCause(t *testing.T) {
	err := IoError(io.ErrUnexpectedEOF)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestCauseUnwrapsWrappedError(t *testing.T) {
	err := IoError(io.ErrClosedPipe)
	assert.Equal(t, io.ErrClosedPipe, Cause(err))
}

func TestDistinctErrorTypesDoNotMatchEachOther(t *testing.T) {
	err := MalformedFile("bad trailer")
	var target *InvalidSerdeError
	assert.False(t, errors.As(err, &target))
}
