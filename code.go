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
	"fmt"
	"strconv"
)

var strToCode = map[string]Code{
	"UNKNOWN":          CodeUnknown,
	"ENCODE":           CodeEncode,
	"HEADER":           CodeHeader,
	"VERSION_MISMATCH": CodeVersionMismatch,
	"DECODE":           CodeDecode,
}

// A Code classifies the errors returned by a Serializer, so that callers can
// tell "I can't parse a version" from "I understand the version but refuse
// it" from "the version is fine but the payload is corrupt."
type Code uint32

const (
	CodeUnknown         Code = 0 // error didn't come from this package
	CodeEncode          Code = 1 // codec couldn't represent the value
	CodeHeader          Code = 2 // version header missing or malformed
	CodeVersionMismatch Code = 3 // version outside the accepted window
	CodeDecode          Code = 4 // payload malformed or truncated

	minCode Code = CodeUnknown
	maxCode Code = CodeDecode
)

// MarshalText implements encoding.TextMarshaler. Codes are marshaled in their
// numeric representations.
func (c Code) MarshalText() ([]byte, error) {
	if c < minCode || c > maxCode {
		return nil, fmt.Errorf("invalid code %v", c)
	}
	return []byte(strconv.Itoa(int(c))), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts both numeric
// representations (as produced by MarshalText) and all-caps names like
// "VERSION_MISMATCH".
func (c *Code) UnmarshalText(b []byte) error {
	if n, ok := strToCode[string(b)]; ok {
		*c = n
		return nil
	}
	n, err := strconv.ParseUint(string(b), 10 /* base */, 32 /* bitsize */)
	if err != nil {
		return fmt.Errorf("invalid code %q", string(b))
	}
	code := Code(n)
	if code < minCode || code > maxCode {
		return fmt.Errorf("invalid code %v", n)
	}
	*c = code
	return nil
}

func (c Code) String() string {
	switch c {
	case CodeUnknown:
		return "unknown"
	case CodeEncode:
		return "encode"
	case CodeHeader:
		return "header"
	case CodeVersionMismatch:
		return "version_mismatch"
	case CodeDecode:
		return "decode"
	}
	return fmt.Sprintf("code_%d", c)
}
