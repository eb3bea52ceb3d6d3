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

// A Codec can marshal values to and from bytes. Codecs know nothing about
// versions: the same codec backs both the versioned and unversioned halves of
// a Serializer, and any implementation can be swapped in without touching the
// compatibility logic.
//
// Codecs must be safe for concurrent use.
type Codec interface {
	// Name returns the name of the codec, used in diagnostics.
	Name() string
	// Marshal encodes a value with no version header.
	Marshal(any) ([]byte, error)
	// Unmarshal decodes bytes into the value pointed to by the second
	// argument.
	Unmarshal([]byte, any) error
}

// marshalAppender is an extension to Codec for appending to a byte slice.
type marshalAppender interface {
	Codec

	// MarshalAppend marshals the given message and appends it to the given
	// byte slice.
	//
	// MarshalAppend may write to the buffer even if it returns an error.
	MarshalAppend([]byte, any) ([]byte, error)
}

// A HeaderCodec is a Codec that also defines how the version header is laid
// out, so the header uses the same primitive integer encoding as the payload.
// Codecs that don't implement HeaderCodec get the default layout of
// Version.AppendBinary.
type HeaderCodec interface {
	Codec

	// AppendVersion appends the encoded version to dst.
	AppendVersion(dst []byte, v Version) []byte
	// ReadVersion decodes a version from the front of src and returns the
	// remaining bytes. Incomplete headers must wrap ErrShortHeader.
	ReadVersion(src []byte) (Version, []byte, error)
}

// An EnvelopeVersioner is a Codec binding that reports the version of the
// envelope format it writes, as opposed to the version of any payload type.
type EnvelopeVersioner interface {
	EnvelopeVersion() Version
}

// The envelope format version reported for codecs that don't implement
// EnvelopeVersioner.
const (
	defaultEnvelopeMajor = 0
	defaultEnvelopeMinor = 1
)

func appendVersion(dst []byte, version Version, codec Codec) []byte {
	if header, ok := codec.(HeaderCodec); ok {
		return header.AppendVersion(dst, version)
	}
	return version.AppendBinary(dst)
}

func readVersion(src []byte, codec Codec) (Version, []byte, error) {
	if header, ok := codec.(HeaderCodec); ok {
		return header.ReadVersion(src)
	}
	return DecodeVersion(src)
}

func envelopeVersion(codec Codec) Version {
	if versioner, ok := codec.(EnvelopeVersioner); ok {
		return versioner.EnvelopeVersion()
	}
	return Version{Major: defaultEnvelopeMajor, Minor: defaultEnvelopeMinor}
}
