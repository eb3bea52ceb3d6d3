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

import "fmt"

// A Range is an inclusive window of acceptable versions. A decoder configured
// with Range{Min: 1.0, Max: 1.2} accepts 1.0, 1.1, and 1.2 and rejects
// everything else, including 1.3: newer minor versions aren't implicitly
// compatible.
type Range struct {
	Min Version
	Max Version
}

// NewRange constructs a Range, returning an error wrapping ErrInvalidRange if
// lower sorts after upper.
func NewRange(lower, upper Version) (Range, error) {
	r := Range{Min: lower, Max: upper}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// ExactRange is the window that accepts only v.
func ExactRange(v Version) Range {
	return Range{Min: v, Max: v}
}

// Window is the Range bounded by the static versions Min and Max.
func Window[Min, Max StaticVersion]() Range {
	return Range{Min: VersionOf[Min](), Max: VersionOf[Max]()}
}

// Validate reports whether the range can accept any version at all.
func (r Range) Validate() error {
	if r.Max.Less(r.Min) {
		return fmt.Errorf("%w: min %v is after max %v", ErrInvalidRange, r.Min, r.Max)
	}
	return nil
}

// Contains reports whether Min <= v <= Max.
func (r Range) Contains(v Version) bool {
	return r.Min.Compare(v) <= 0 && v.Compare(r.Max) <= 0
}

// Check returns nil if r contains v and a *VersionMismatchError otherwise.
func (r Range) Check(v Version) error {
	if r.Contains(v) {
		return nil
	}
	return &VersionMismatchError{Received: v, Accepted: r}
}

func (r Range) String() string {
	return "[" + r.Min.String() + ", " + r.Max.String() + "]"
}
