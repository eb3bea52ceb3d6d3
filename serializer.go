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

// A Serializer writes and reads values of T in the versioned envelope format:
//
//	[version header][payload]
//
// The header holds T's WireVersion, encoded with the codec's header layout;
// the payload is whatever the codec produces for the value. There's no magic
// number, length prefix, or checksum, so callers supply exactly one envelope
// per Deserialize call.
//
// Serializers hold no mutable state and are safe for concurrent use.
type Serializer[T Versioned] struct {
	codec    Codec
	accepted Range
}

// NewSerializer constructs a Serializer for T backed by codec.
//
// The accepted window comes from WithAcceptedVersions or WithVersionWindow if
// supplied. Otherwise, if T implements Windowed, its AcceptedVersions is used,
// and failing that the Serializer accepts exactly T's own WireVersion.
func NewSerializer[T Versioned](codec Codec, options ...Option) (*Serializer[T], error) {
	if codec == nil {
		return nil, errNilCodec
	}
	var config serializerConfig
	for _, opt := range options {
		opt.applyToSerializer(&config)
	}
	accepted := config.Accepted
	if !config.HasAccepted {
		var zero T
		if windowed, ok := any(zero).(Windowed); ok {
			accepted = windowed.AcceptedVersions()
		} else {
			accepted = ExactRange(zero.WireVersion())
		}
	}
	if err := accepted.Validate(); err != nil {
		return nil, err
	}
	return &Serializer[T]{codec: codec, accepted: accepted}, nil
}

// Codec returns the codec backing the Serializer.
func (s *Serializer[T]) Codec() Codec {
	return s.codec
}

// AcceptedVersions returns the inclusive window of versions Deserialize
// accepts.
func (s *Serializer[T]) AcceptedVersions() Range {
	return s.accepted
}

// EnvelopeVersion returns the version of the envelope format itself, as
// reported by the codec binding.
func (s *Serializer[T]) EnvelopeVersion() Version {
	return envelopeVersion(s.codec)
}

// Serialize encodes value with its version header prepended.
func (s *Serializer[T]) Serialize(value T) ([]byte, error) {
	return s.AppendSerialize(nil, value)
}

// AppendSerialize is Serialize, appending the envelope to dst.
func (s *Serializer[T]) AppendSerialize(dst []byte, value T) ([]byte, error) {
	dst = appendVersion(dst, value.WireVersion(), s.codec)
	return appendPayload(dst, value, s.codec)
}

// Deserialize reads the version header, checks it against the accepted
// window, and only then decodes the payload. Errors are reported in that
// order: CodeHeader if no version can be read (including empty input),
// CodeVersionMismatch if the version is refused, and CodeDecode if the
// payload is malformed.
func (s *Serializer[T]) Deserialize(data []byte) (T, error) {
	var zero T
	version, rest, err := ReadVersion(s.codec, data)
	if err != nil {
		return zero, err
	}
	if err := s.accepted.Check(version); err != nil {
		return zero, NewError(CodeVersionMismatch, err)
	}
	var value T
	if err := unmarshalPayload(rest, &value, s.codec); err != nil {
		return zero, err
	}
	return value, nil
}

// PeekVersion reads the version header without checking it or decoding the
// payload, returning the payload bytes. It lets callers pick which edition of
// a message to decode into.
func (s *Serializer[T]) PeekVersion(data []byte) (Version, []byte, error) {
	return ReadVersion(s.codec, data)
}

// SerializeNoVersion encodes value with no version header, for peers that
// don't use the envelope or payloads already covered by an outer check.
func (s *Serializer[T]) SerializeNoVersion(value T) ([]byte, error) {
	return MarshalNoVersion(s.codec, value)
}

// DeserializeNoVersion decodes a payload that has no version header.
func (s *Serializer[T]) DeserializeNoVersion(data []byte) (T, error) {
	return UnmarshalNoVersion[T](s.codec, data)
}

// ReadVersion decodes the version header at the front of data using codec's
// header layout and returns the remaining payload bytes. Failures are coded
// CodeHeader.
func ReadVersion(codec Codec, data []byte) (Version, []byte, error) {
	if codec == nil {
		return Version{}, nil, NewError(CodeHeader, errNilCodec)
	}
	if len(data) == 0 {
		return Version{}, nil, errorf(CodeHeader, "read %s version header: %w", codec.Name(), ErrShortHeader)
	}
	version, rest, err := readVersion(data, codec)
	if err != nil {
		return Version{}, nil, errorf(CodeHeader, "read %s version header: %w", codec.Name(), err)
	}
	return version, rest, nil
}

// AppendVersion appends the version header for version to dst using codec's
// header layout. A nil codec uses the default layout.
func AppendVersion(codec Codec, dst []byte, version Version) []byte {
	return appendVersion(dst, version, codec)
}

// EnvelopeVersionOf returns the envelope format version of a codec binding.
func EnvelopeVersionOf(codec Codec) Version {
	return envelopeVersion(codec)
}

// MarshalNoVersion encodes any value with codec, with no version header.
// Failures are coded CodeEncode.
func MarshalNoVersion(codec Codec, value any) ([]byte, error) {
	if codec == nil {
		return nil, NewError(CodeEncode, errNilCodec)
	}
	return appendPayload(nil, value, codec)
}

// UnmarshalNoVersion decodes a header-less payload into a new T. Failures are
// coded CodeDecode.
func UnmarshalNoVersion[T any](codec Codec, data []byte) (T, error) {
	var value T
	if codec == nil {
		return value, NewError(CodeDecode, errNilCodec)
	}
	if err := unmarshalPayload(data, &value, codec); err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

func appendPayload(dst []byte, value any, codec Codec) ([]byte, error) {
	message := value
	if wrapper, ok := value.(wireValuer); ok {
		message = wrapper.wireValue()
	}
	if appender, ok := codec.(marshalAppender); ok {
		out, err := appender.MarshalAppend(dst, message)
		if err != nil {
			return nil, errorf(CodeEncode, "marshal %T with %s: %w", message, codec.Name(), err)
		}
		return out, nil
	}
	raw, err := codec.Marshal(message)
	if err != nil {
		return nil, errorf(CodeEncode, "marshal %T with %s: %w", message, codec.Name(), err)
	}
	return append(dst, raw...), nil
}

func unmarshalPayload(src []byte, target any, codec Codec) error {
	if wrapper, ok := target.(wireTargeter); ok {
		target = wrapper.wireTarget()
	}
	if err := codec.Unmarshal(src, target); err != nil {
		return errorf(CodeDecode, "unmarshal into %T with %s: %w", target, codec.Name(), err)
	}
	return nil
}
