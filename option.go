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

// An Option configures a Serializer.
type Option interface {
	applyToSerializer(*serializerConfig)
}

type serializerConfig struct {
	Accepted    Range
	HasAccepted bool
}

// WithAcceptedVersions sets the inclusive window of versions the Serializer
// decodes. Without it, a Serializer uses the window declared by a Windowed
// type, and failing that accepts only the type's own WireVersion.
func WithAcceptedVersions(accepted Range) Option {
	return &acceptedVersionsOption{accepted}
}

// WithVersionWindow is WithAcceptedVersions for a window fixed by two static
// versions.
func WithVersionWindow[Min, Max StaticVersion]() Option {
	return &acceptedVersionsOption{Window[Min, Max]()}
}

type acceptedVersionsOption struct {
	accepted Range
}

func (o *acceptedVersionsOption) applyToSerializer(config *serializerConfig) {
	config.Accepted = o.accepted
	config.HasAccepted = true
}
