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

// Package errtax enumerates the recoverable error taxonomy every public
// API in this module returns through. Each type implements error, is
// produced by the constructor function of the same name (OutOfBounds,
// IoError, ...), and is matched with errors.As, not string-compared.
package errtax

import (
	"fmt"

	"github.com/pkg/errors"
)

// OutOfBoundsError reports a random-access index outside [lo, hi).
type OutOfBoundsError struct {
	Index  int
	Lo, Hi int
}

func OutOfBounds(index, lo, hi int) error {
	return &OutOfBoundsError{Index: index, Lo: lo, Hi: hi}
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("index %d out of bounds [%d, %d)", e.Index, e.Lo, e.Hi)
}

// InvalidDTypeError reports a dtype that is malformed or unsupported in context.
type InvalidDTypeError struct {
	DType fmt.Stringer
}

func InvalidDType(dtype fmt.Stringer) error {
	return &InvalidDTypeError{DType: dtype}
}

func (e *InvalidDTypeError) Error() string {
	return fmt.Sprintf("invalid dtype: %s", e.DType)
}

// MismatchedTypesError reports two dtypes that were expected to agree.
type MismatchedTypesError struct {
	Expected, Got fmt.Stringer
}

func MismatchedTypes(expected, got fmt.Stringer) error {
	return &MismatchedTypesError{Expected: expected, Got: got}
}

func (e *MismatchedTypesError) Error() string {
	return fmt.Sprintf("mismatched types: expected %s, got %s", e.Expected, e.Got)
}

// InvalidArgumentError reports a precondition violation on a function argument.
type InvalidArgumentError struct {
	Msg string
}

func InvalidArgument(format string, args ...any) error {
	return &InvalidArgumentError{Msg: fmt.Sprintf(format, args...)}
}

func (e *InvalidArgumentError) Error() string {
	return "invalid argument: " + e.Msg
}

// ComputeError reports a failure inside a compute kernel.
type ComputeErrorT struct {
	Op       string
	Encoding string
	Msg      string
}

func ComputeError(op, encoding, format string, args ...any) error {
	return &ComputeErrorT{Op: op, Encoding: encoding, Msg: fmt.Sprintf(format, args...)}
}

func (e *ComputeErrorT) Error() string {
	return fmt.Sprintf("compute error in %s on %s: %s", e.Op, e.Encoding, e.Msg)
}

// NotImplementedError reports a compute op with no implementation for an encoding.
type NotImplementedError struct {
	Op       string
	Encoding string
}

func NotImplemented(op, encoding string) error {
	return &NotImplementedError{Op: op, Encoding: encoding}
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s not implemented for encoding %s", e.Op, e.Encoding)
}

// IoErrorT wraps an underlying I/O failure. Inner carries a stack trace
// captured at the point of failure (github.com/pkg/errors), which the
// file package's logging surfaces via "%+v" when an open/read fails.
type IoErrorT struct {
	Inner error
}

func IoError(inner error) error {
	return &IoErrorT{Inner: errors.WithStack(inner)}
}

func (e *IoErrorT) Error() string {
	return fmt.Sprintf("io error: %s", e.Inner)
}

func (e *IoErrorT) Unwrap() error {
	return e.Inner
}

// Cause returns the root cause of err, unwrapping both errtax's own
// Unwrap chain and any github.com/pkg/errors-wrapped cause.
func Cause(err error) error {
	for err != nil {
		if c, ok := err.(interface{ Cause() error }); ok && c.Cause() != nil {
			err = c.Cause()
			continue
		}
		if u, ok := err.(interface{ Unwrap() error }); ok && u.Unwrap() != nil {
			err = u.Unwrap()
			continue
		}
		return err
	}
	return err
}

// MalformedFileError reports a structural problem found while parsing a file.
type MalformedFileError struct {
	Reason string
}

func MalformedFile(format string, args ...any) error {
	return &MalformedFileError{Reason: fmt.Sprintf(format, args...)}
}

func (e *MalformedFileError) Error() string {
	return "malformed file: " + e.Reason
}

// InvalidSerdeError reports a failure decoding a serialized record.
type InvalidSerdeError struct {
	Reason string
}

func InvalidSerde(format string, args ...any) error {
	return &InvalidSerdeError{Reason: fmt.Sprintf(format, args...)}
}

func (e *InvalidSerdeError) Error() string {
	return "invalid serde: " + e.Reason
}
