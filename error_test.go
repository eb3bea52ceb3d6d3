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
	"strings"
	"testing"

	"github.com/espressosystems/vbs/internal/assert"
)

func TestErrorFormatting(t *testing.T) {
	t.Parallel()
	assert.Equal(t, NewError(CodeDecode, errors.New("")).Error(), CodeDecode.String())
	text := errorf(CodeHeader, "foo").Error()
	assert.True(t, strings.Contains(text, CodeHeader.String()), assert.Sprintf("error text should include code"))
	assert.True(t, strings.Contains(text, "foo"), assert.Sprintf("error text should include message"))
}

func TestCodeOf(t *testing.T) {
	t.Parallel()
	assert.Equal(t, CodeOf(nil), CodeUnknown)
	assert.Equal(t, CodeOf(errors.New("foo")), CodeUnknown)
	assert.Equal(t, CodeOf(NewError(CodeEncode, errors.New("foo"))), CodeEncode)
	wrapped := fmt.Errorf("another: %w", errorf(CodeVersionMismatch, "foo"))
	assert.Equal(t, CodeOf(wrapped), CodeVersionMismatch)
}

func TestVersionMismatchError(t *testing.T) {
	t.Parallel()
	mismatch := &VersionMismatchError{
		Received: NewVersion(2, 0),
		Accepted: Range{Min: NewVersion(1, 0), Max: NewVersion(1, 2)},
	}
	err := fmt.Errorf("decode block: %w", NewError(CodeVersionMismatch, mismatch))
	assert.ErrorIs(t, err, ErrVersionMismatch)
	assert.NotErrorIs(t, err, ErrShortHeader)
	assert.Equal(t, err.Error(), "decode block: version_mismatch: version 2.0 is outside accepted range [1.0, 1.2]")

	got, ok := AsVersionMismatch(err)
	assert.True(t, ok)
	assert.Equal(t, got, mismatch)

	_, ok = AsVersionMismatch(errors.New("unrelated"))
	assert.False(t, ok)
}
