// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

package d

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPanicIfErrorOnlyPanicsOnNonNil(t *testing.T) {
	assert.NotPanics(t, func() { PanicIfError(nil) })
	assert.Panics(t, func() { PanicIfError(errors.New("boom")) })
}

func TestPanicIfTrueAndFalse(t *testing.T) {
	assert.NotPanics(t, func() { PanicIfTrue(false) })
	assert.Panics(t, func() { PanicIfTrue(true, "bad: %d", 1) })

	assert.NotPanics(t, func() { PanicIfFalse(true) })
	assert.Panics(t, func() { PanicIfFalse(false, "bad: %d", 2) })
}

func TestPanicMessageFormats(t *testing.T) {
	defer func() {
		r := recover()
		assert.Equal(t, "count 3 != 4", r)
	}()
	PanicIfTrue(true, "count %d != %d", 3, 4)
}

func TestUnwrapWalksToInnermost(t *testing.T) {
	inner := errors.New("root cause")
	wrapped := fmt.Errorf("layer one: %w", inner)
	doubleWrapped := fmt.Errorf("layer two: %w", wrapped)
	assert.Equal(t, inner, Unwrap(doubleWrapped))
}

func TestUnwrapReturnsSelfWhenNotWrapped(t *testing.T) {
	err := errors.New("plain")
	assert.Equal(t, err, Unwrap(err))
}
