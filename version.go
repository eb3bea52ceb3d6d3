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
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// versionHeaderLen is the size of the default version header: two
// little-endian uint16s.
const versionHeaderLen = 4

// A Version identifies one edition of a binary wire format. Versions are
// totally ordered, comparing Major first and then Minor.
type Version struct {
	Major uint16
	Minor uint16
}

// NewVersion constructs a Version.
func NewVersion(major, minor uint16) Version {
	return Version{Major: major, Minor: minor}
}

// ParseVersion parses the "<major>.<minor>" form produced by String.
func ParseVersion(text string) (Version, error) {
	majorText, minorText, ok := strings.Cut(text, ".")
	if !ok {
		return Version{}, fmt.Errorf("invalid version %q: want <major>.<minor>", text)
	}
	major, err := strconv.ParseUint(majorText, 10 /* base */, 16 /* bitsize */)
	if err != nil {
		return Version{}, fmt.Errorf("invalid major version in %q: %w", text, err)
	}
	minor, err := strconv.ParseUint(minorText, 10 /* base */, 16 /* bitsize */)
	if err != nil {
		return Version{}, fmt.Errorf("invalid minor version in %q: %w", text, err)
	}
	return Version{Major: uint16(major), Minor: uint16(minor)}, nil
}

// Compare returns -1 if v sorts before other, 0 if they're equal, and +1 if v
// sorts after other.
func (v Version) Compare(other Version) int {
	switch {
	case v.Major < other.Major:
		return -1
	case v.Major > other.Major:
		return 1
	case v.Minor < other.Minor:
		return -1
	case v.Minor > other.Minor:
		return 1
	}
	return 0
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// Equal reports whether v and other have the same major and minor versions.
func (v Version) Equal(other Version) bool {
	return v == other
}

// CompareVersions is Compare in a form suitable for slices.SortFunc.
func CompareVersions(a, b Version) int {
	return a.Compare(b)
}

func (v Version) String() string {
	return strconv.FormatUint(uint64(v.Major), 10) + "." + strconv.FormatUint(uint64(v.Minor), 10)
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts the output of
// MarshalText.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// AppendBinary appends the default header encoding of v to dst: Major then
// Minor, each as a little-endian uint16.
func (v Version) AppendBinary(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, v.Major)
	return binary.LittleEndian.AppendUint16(dst, v.Minor)
}

// DecodeVersion reads a version in the default header encoding from the front
// of src, returning the version and the remaining bytes. An input too short to
// hold a header fails with an error wrapping ErrShortHeader.
func DecodeVersion(src []byte) (Version, []byte, error) {
	if len(src) < versionHeaderLen {
		return Version{}, src, fmt.Errorf(
			"%w: need %d bytes, got %d", ErrShortHeader, versionHeaderLen, len(src),
		)
	}
	version := Version{
		Major: binary.LittleEndian.Uint16(src[0:2]),
		Minor: binary.LittleEndian.Uint16(src[2:4]),
	}
	return version, src[versionHeaderLen:], nil
}
