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

// Versioned is implemented by types that declare the version of their own wire
// representation. WireVersion must return the same constant for every value of
// the type, including the zero value: two editions of a message are two
// types, never one type with a version field.
type Versioned interface {
	WireVersion() Version
}

// Windowed is implemented by Versioned types that declare which received
// versions they can decode. Serializers use it when no explicit window is
// configured.
type Windowed interface {
	AcceptedVersions() Range
}

// VersionOfType returns the version declared by T, read from its zero value.
func VersionOfType[T Versioned]() Version {
	var zero T
	return zero.WireVersion()
}

// An Edition binds an arbitrary value to the fixed wire version S. It's the
// generic way to opt a type into the protocol without declaring a method:
//
//	type BlockV1 = vbs.Edition[V1_1, Block]
//
// Codecs see only Value: an Edition marshals exactly as its Value would.
type Edition[S StaticVersion, T any] struct {
	Value T
}

// NewEdition wraps value in an Edition.
func NewEdition[S StaticVersion, T any](value T) Edition[S, T] {
	return Edition[S, T]{Value: value}
}

// WireVersion implements Versioned.
func (Edition[S, T]) WireVersion() Version {
	return VersionOf[S]()
}

// wireValuer and wireTargeter are implemented by wrappers whose wire form is
// an inner value.
type wireValuer interface {
	wireValue() any
}

type wireTargeter interface {
	wireTarget() any
}

func (e Edition[S, T]) wireValue() any {
	return e.Value
}

func (e *Edition[S, T]) wireTarget() any {
	return &e.Value
}
