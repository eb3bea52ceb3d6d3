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
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

const (
	codecNameMsgpack = "msgpack"

	// The envelope written by MsgpackCodec: two msgpack uint16s, each keeping
	// its type byte.
	msgpackEnvelopeMajor = 0
	msgpackEnvelopeMinor = 1
)

// A MsgpackOption configures a MsgpackCodec.
type MsgpackOption interface {
	applyToMsgpack(*MsgpackCodec)
}

type msgpackOptionFunc func(*MsgpackCodec)

func (f msgpackOptionFunc) applyToMsgpack(c *MsgpackCodec) { f(c) }

// WithMsgpackTrailingBytes controls whether Unmarshal tolerates input left
// over after the payload. By default it's an error wrapping ErrTrailingBytes.
func WithMsgpackTrailingBytes(allow bool) MsgpackOption {
	return msgpackOptionFunc(func(c *MsgpackCodec) {
		c.allowTrailingBytes = allow
	})
}

// WithMsgpackCompactInts encodes payload integers in the smallest msgpack
// representation that fits. It never affects the version header.
func WithMsgpackCompactInts() MsgpackOption {
	return msgpackOptionFunc(func(c *MsgpackCodec) {
		c.compactInts = true
	})
}

// WithMsgpackStructAsArray encodes structs as arrays of field values rather
// than maps keyed by field name, trading schema flexibility for size.
func WithMsgpackStructAsArray() MsgpackOption {
	return msgpackOptionFunc(func(c *MsgpackCodec) {
		c.structAsArray = true
	})
}

// WithMsgpackDisallowUnknownFields makes Unmarshal reject map-encoded structs
// containing fields the target type doesn't declare.
func WithMsgpackDisallowUnknownFields() MsgpackOption {
	return msgpackOptionFunc(func(c *MsgpackCodec) {
		c.disallowUnknownFields = true
	})
}

// A MsgpackCodec marshals arbitrary Go values with MessagePack, honoring
// `msgpack` struct tags. It writes the version header as two msgpack uint16s.
type MsgpackCodec struct {
	allowTrailingBytes    bool
	compactInts           bool
	structAsArray         bool
	disallowUnknownFields bool
}

var (
	_ HeaderCodec       = (*MsgpackCodec)(nil)
	_ marshalAppender   = (*MsgpackCodec)(nil)
	_ EnvelopeVersioner = (*MsgpackCodec)(nil)
)

// NewMsgpackCodec constructs a MsgpackCodec.
func NewMsgpackCodec(options ...MsgpackOption) *MsgpackCodec {
	codec := &MsgpackCodec{}
	for _, opt := range options {
		opt.applyToMsgpack(codec)
	}
	return codec
}

// NewMsgpackSerializer constructs a Serializer for T backed by a MsgpackCodec.
func NewMsgpackSerializer[T Versioned](options ...Option) (*Serializer[T], error) {
	return NewSerializer[T](NewMsgpackCodec(), options...)
}

// Name implements Codec.
func (c *MsgpackCodec) Name() string { return codecNameMsgpack }

// EnvelopeVersion implements EnvelopeVersioner.
func (c *MsgpackCodec) EnvelopeVersion() Version {
	return Version{Major: msgpackEnvelopeMajor, Minor: msgpackEnvelopeMinor}
}

// Marshal implements Codec.
func (c *MsgpackCodec) Marshal(value any) ([]byte, error) {
	return c.MarshalAppend(nil, value)
}

// MarshalAppend marshals value and appends it to dst.
func (c *MsgpackCodec) MarshalAppend(dst []byte, value any) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)
	enc.Reset(buf)
	enc.UseCompactInts(c.compactInts)
	enc.UseArrayEncodedStructs(c.structAsArray)
	if err := enc.Encode(value); err != nil {
		return buf.Bytes(), err
	}
	return buf.Bytes(), nil
}

// Unmarshal implements Codec.
func (c *MsgpackCodec) Unmarshal(data []byte, value any) error {
	reader := bytes.NewReader(data)
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)
	dec.Reset(reader)
	dec.DisallowUnknownFields(c.disallowUnknownFields)
	if err := dec.Decode(value); err != nil {
		return err
	}
	if !c.allowTrailingBytes && reader.Len() > 0 {
		return fmt.Errorf("%w: %d unread", ErrTrailingBytes, reader.Len())
	}
	return nil
}

// AppendVersion implements HeaderCodec.
func (c *MsgpackCodec) AppendVersion(dst []byte, v Version) []byte {
	buf := bytes.NewBuffer(dst)
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)
	enc.Reset(buf)
	// Writes to a bytes.Buffer can't fail.
	_ = enc.EncodeUint16(v.Major)
	_ = enc.EncodeUint16(v.Minor)
	return buf.Bytes()
}

// ReadVersion implements HeaderCodec.
func (c *MsgpackCodec) ReadVersion(src []byte) (Version, []byte, error) {
	reader := bytes.NewReader(src)
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)
	dec.Reset(reader)
	major, err := decodeMsgpackUint16(dec)
	if err != nil {
		return Version{}, src, wrapMsgpackHeaderError("major", err)
	}
	minor, err := decodeMsgpackUint16(dec)
	if err != nil {
		return Version{}, src, wrapMsgpackHeaderError("minor", err)
	}
	return Version{Major: major, Minor: minor}, src[len(src)-reader.Len():], nil
}

// decodeMsgpackUint16 reads an unsigned msgpack integer that fits in 16 bits.
// DecodeUint16 alone truncates wider and signed integers.
func decodeMsgpackUint16(dec *msgpack.Decoder) (uint16, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return 0, err
	}
	switch {
	case code <= msgpcode.PosFixedNumHigh,
		code == msgpcode.Uint8, code == msgpcode.Uint16,
		code == msgpcode.Uint32, code == msgpcode.Uint64:
	default:
		return 0, fmt.Errorf("msgpack code 0x%x isn't an unsigned integer", code)
	}
	n, err := dec.DecodeUint64()
	if err != nil {
		return 0, err
	}
	if n > math.MaxUint16 {
		return 0, fmt.Errorf("%d overflows uint16", n)
	}
	return uint16(n), nil
}

func wrapMsgpackHeaderError(field string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s version truncated", ErrShortHeader, field)
	}
	return fmt.Errorf("malformed %s version: %w", field, err)
}
