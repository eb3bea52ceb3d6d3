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
	"io"
	"reflect"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
)

var protoMessageType = reflect.TypeOf((*proto.Message)(nil)).Elem()

const (
	codecNameProtobuf = "protobuf"

	// The envelope written by ProtobufCodec: two unsigned varints.
	protobufEnvelopeMajor = 0
	protobufEnvelopeMinor = 1
)

// A ProtobufCodec marshals protobuf messages to and from the binary wire
// format. The version header is written as two varints, the same primitive
// encoding protobuf uses for integer fields.
//
// Unmarshal accepts either a proto.Message or a pointer to a (possibly nil)
// message pointer, so it can decode straight into a Serializer's T.
type ProtobufCodec struct {
	marshalOptions   proto.MarshalOptions
	unmarshalOptions proto.UnmarshalOptions
}

var (
	_ HeaderCodec       = (*ProtobufCodec)(nil)
	_ marshalAppender   = (*ProtobufCodec)(nil)
	_ EnvelopeVersioner = (*ProtobufCodec)(nil)
)

// NewProtobufCodec constructs a ProtobufCodec. Marshaling is deterministic, so
// equal messages produce equal envelopes.
func NewProtobufCodec() *ProtobufCodec {
	return &ProtobufCodec{
		marshalOptions: proto.MarshalOptions{Deterministic: true},
	}
}

// NewProtobufSerializer constructs a Serializer for T backed by a
// ProtobufCodec.
func NewProtobufSerializer[T Versioned](options ...Option) (*Serializer[T], error) {
	return NewSerializer[T](NewProtobufCodec(), options...)
}

// Name implements Codec.
func (c *ProtobufCodec) Name() string { return codecNameProtobuf }

// EnvelopeVersion implements EnvelopeVersioner.
func (c *ProtobufCodec) EnvelopeVersion() Version {
	return Version{Major: protobufEnvelopeMajor, Minor: protobufEnvelopeMinor}
}

// Marshal implements Codec.
func (c *ProtobufCodec) Marshal(message any) ([]byte, error) {
	protoMessage, ok := message.(proto.Message)
	if !ok {
		return nil, errNotProtobuf(message)
	}
	return c.marshalOptions.Marshal(protoMessage)
}

// MarshalAppend marshals message and appends it to dst.
func (c *ProtobufCodec) MarshalAppend(dst []byte, message any) ([]byte, error) {
	protoMessage, ok := message.(proto.Message)
	if !ok {
		return dst, errNotProtobuf(message)
	}
	return c.marshalOptions.MarshalAppend(dst, protoMessage)
}

// Unmarshal implements Codec.
func (c *ProtobufCodec) Unmarshal(data []byte, message any) error {
	protoMessage, ok := protoTarget(message)
	if !ok {
		return errNotProtobuf(message)
	}
	return c.unmarshalOptions.Unmarshal(data, protoMessage)
}

// AppendVersion implements HeaderCodec.
func (c *ProtobufCodec) AppendVersion(dst []byte, v Version) []byte {
	dst = protowire.AppendVarint(dst, uint64(v.Major))
	return protowire.AppendVarint(dst, uint64(v.Minor))
}

// ReadVersion implements HeaderCodec.
func (c *ProtobufCodec) ReadVersion(src []byte) (Version, []byte, error) {
	rest := src
	var fields [2]uint16
	for i, name := range [2]string{"major", "minor"} {
		value, n := protowire.ConsumeVarint(rest)
		if n < 0 {
			err := protowire.ParseError(n)
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return Version{}, src, fmt.Errorf("%w: %s version truncated", ErrShortHeader, name)
			}
			return Version{}, src, fmt.Errorf("malformed %s version: %w", name, err)
		}
		if value > 0xFFFF {
			return Version{}, src, fmt.Errorf("malformed %s version: %d overflows uint16", name, value)
		}
		fields[i] = uint16(value)
		rest = rest[n:]
	}
	return Version{Major: fields[0], Minor: fields[1]}, rest, nil
}

// protoTarget finds the message to unmarshal into, allocating through a
// pointer to a nil message pointer if necessary.
func protoTarget(message any) (proto.Message, bool) {
	if protoMessage, ok := message.(proto.Message); ok {
		return protoMessage, true
	}
	ptr := reflect.ValueOf(message)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return nil, false
	}
	elem := ptr.Elem()
	if elem.Kind() != reflect.Pointer || !elem.Type().Implements(protoMessageType) {
		return nil, false
	}
	if elem.IsNil() {
		elem.Set(reflect.New(elem.Type().Elem()))
	}
	protoMessage, ok := elem.Interface().(proto.Message)
	return protoMessage, ok
}

func errNotProtobuf(m any) error {
	return fmt.Errorf("%T doesn't implement proto.Message", m)
}
