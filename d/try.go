// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

// Package d holds helpers for invariants that, once violated, cannot be
// recovered from without risking corrupting an immutable array tree —
// these are fatal programmer errors, not recoverable results.
package d

import "fmt"

// PanicIfError panics if err is non-nil.
func PanicIfError(err error) {
	if err != nil {
		panic(err)
	}
}

// PanicIfTrue panics if b is true.
func PanicIfTrue(b bool, args ...any) {
	if b {
		panic(msg(args))
	}
}

// PanicIfFalse panics if b is false.
func PanicIfFalse(b bool, args ...any) {
	if !b {
		panic(msg(args))
	}
}

func msg(args []any) string {
	if len(args) == 0 {
		return "invariant violated"
	}
	if format, ok := args[0].(string); ok && len(args) > 1 {
		return fmt.Sprintf(format, args[1:]...)
	}
	return fmt.Sprint(args...)
}

// Unwrap walks err.Unwrap() until the innermost error is reached.
func Unwrap(err error) error {
	for {
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		inner := u.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}
