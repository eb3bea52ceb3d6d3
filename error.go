// Copyright 2023-2024 The VBS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vbs

import (
	"errors"
	"fmt"
)

var (
	// ErrShortHeader means the input ended before a complete version header.
	ErrShortHeader = errors.New("vbs: input too short for version header")
	// ErrVersionMismatch is the VERSION_MISMATCH constant: every
	// *VersionMismatchError matches it under errors.Is.
	ErrVersionMismatch = errors.New("vbs: version mismatch")
	// ErrTrailingBytes means a strict codec decoded a payload and found
	// unconsumed input after it.
	ErrTrailingBytes = errors.New("vbs: trailing bytes after payload")
	// ErrInvalidRange means a Range's minimum sorts after its maximum.
	ErrInvalidRange = errors.New("vbs: invalid version range")

	errNilCodec = errors.New("vbs: nil codec")
)

// A VersionMismatchError reports a well-formed version header that lies
// outside the decoder's accepted window.
type VersionMismatchError struct {
	Received Version
	Accepted Range
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("version %v is outside accepted range %v", e.Received, e.Accepted)
}

// Is makes every VersionMismatchError match ErrVersionMismatch.
func (e *VersionMismatchError) Is(target error) bool {
	return target == ErrVersionMismatch
}

// An Error pairs a Code with the underlying Go error. Every error returned by
// a Serializer is, or wraps, an *Error.
type Error struct {
	code Code
	err  error
}

// NewError annotates any Go error with a code.
func NewError(c Code, underlying error) *Error {
	return &Error{code: c, err: underlying}
}

func (e *Error) Error() string {
	text := e.err.Error()
	if text == "" {
		return e.code.String()
	}
	return e.code.String() + ": " + text
}

// Unwrap implements errors.Wrapper, which allows errors.Is and errors.As
// access to the underlying error.
func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the error's code.
func (e *Error) Code() Code {
	return e.code
}

// CodeOf returns the error's code if it is or wraps a *vbs.Error and
// CodeUnknown otherwise.
func CodeOf(err error) Code {
	if vbsErr, ok := asError(err); ok {
		return vbsErr.Code()
	}
	return CodeUnknown
}

// AsVersionMismatch extracts the received version and accepted window from
// any error chain containing a *VersionMismatchError.
func AsVersionMismatch(err error) (*VersionMismatchError, bool) {
	var mismatch *VersionMismatchError
	ok := errors.As(err, &mismatch)
	return mismatch, ok
}

// errorf calls fmt.Errorf with the supplied template and arguments, then wraps
// the resulting error.
func errorf(c Code, template string, args ...any) *Error {
	return NewError(c, fmt.Errorf(template, args...))
}

// asError uses errors.As to unwrap any error and look for a vbs *Error.
func asError(err error) (*Error, bool) {
	var vbsErr *Error
	ok := errors.As(err, &vbsErr)
	return vbsErr, ok
}
