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

// A StaticVersion is a type that stands for a single, fixed Version. Types
// implementing it are usually empty structs with a value receiver:
//
//	type V1_2 struct{}
//
//	func (V1_2) StaticVersion() vbs.Version { return vbs.NewVersion(1, 2) }
//
// Static versions let generic code, such as Edition and Window, carry a
// version in a type parameter rather than in a field.
type StaticVersion interface {
	StaticVersion() Version
}

// VersionOf returns the runtime Version that S stands for.
func VersionOf[S StaticVersion]() Version {
	var s S
	return s.StaticVersion()
}
