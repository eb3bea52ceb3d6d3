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
	"testing"
	"testing/quick"

	"github.com/espressosystems/vbs/internal/assert"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type ping struct {
	Text   string `msgpack:"text"`
	Number int64  `msgpack:"number"`
}

func TestCodecRoundTrips(t *testing.T) {
	t.Parallel()
	makeRoundtrip := func(codec Codec) func(string, int64) bool {
		return func(text string, number int64) bool {
			got := ping{}
			want := ping{Text: text, Number: number}
			data, err := codec.Marshal(&want)
			if err != nil {
				t.Fatal(err)
			}
			err = codec.Unmarshal(data, &got)
			if err != nil {
				t.Fatal(err)
			}
			return got == want
		}
	}
	if err := quick.Check(makeRoundtrip(NewMsgpackCodec()), nil /* config */); err != nil {
		t.Error(err)
	}
	if err := quick.Check(makeRoundtrip(NewMsgpackCodec(WithMsgpackCompactInts())), nil /* config */); err != nil {
		t.Error(err)
	}
	if err := quick.Check(makeRoundtrip(NewMsgpackCodec(WithMsgpackStructAsArray())), nil /* config */); err != nil {
		t.Error(err)
	}
}

func TestAppendCodec(t *testing.T) {
	t.Parallel()
	makeRoundtrip := func(codec marshalAppender) func(string, int64) bool {
		var data []byte
		return func(text string, number int64) bool {
			got := wrapperspb.StringValue{}
			want := wrapperspb.StringValue{Value: text}
			data = append(data[:0], byte(number))
			var err error
			data, err = codec.MarshalAppend(data, &want)
			if err != nil {
				t.Fatal(err)
			}
			if data[0] != byte(number) {
				t.Fatal("MarshalAppend overwrote its destination")
			}
			err = codec.Unmarshal(data[1:], &got)
			if err != nil {
				t.Fatal(err)
			}
			return proto.Equal(&got, &want)
		}
	}
	if err := quick.Check(makeRoundtrip(NewProtobufCodec()), nil /* config */); err != nil {
		t.Error(err)
	}
}

func TestHeaderCodecs(t *testing.T) {
	t.Parallel()
	codecs := []HeaderCodec{NewMsgpackCodec(), NewProtobufCodec()}
	for _, codec := range codecs {
		codec := codec
		t.Run(codec.Name(), func(t *testing.T) {
			t.Parallel()
			roundTrip := func(v Version, trailer []byte) bool {
				data := codec.AppendVersion(nil, v)
				data = append(data, trailer...)
				got, rest, err := codec.ReadVersion(data)
				if err != nil {
					t.Fatal(err)
				}
				return got == v && string(rest) == string(trailer)
			}
			if err := quick.Check(roundTrip, nil /* config */); err != nil {
				t.Error(err)
			}
			full := codec.AppendVersion(nil, NewVersion(300, 70))
			for i := 0; i < len(full); i++ {
				_, _, err := codec.ReadVersion(full[:i])
				assert.ErrorIs(t, err, ErrShortHeader, assert.Sprintf("header truncated to %d bytes", i))
			}
		})
	}
}

func TestMsgpackCodec(t *testing.T) {
	t.Parallel()
	codec := NewMsgpackCodec()
	assert.Equal(t, codec.Name(), "msgpack")
	assert.Equal(t, codec.AppendVersion(nil, NewVersion(1, 1)), []byte{0xcd, 0, 1, 0xcd, 0, 1})

	t.Run("malformed header", func(t *testing.T) {
		t.Parallel()
		// A msgpack string isn't an integer.
		_, _, err := codec.ReadVersion([]byte{0xa3, 'f', 'o', 'o'})
		assert.NotNil(t, err)
		assert.NotErrorIs(t, err, ErrShortHeader)
	})
	t.Run("header integer out of range", func(t *testing.T) {
		t.Parallel()
		headers := map[string][]byte{
			"uint64 major":    {0xcf, 0, 0, 0, 1, 0, 0, 0, 1, 0x01},
			"uint32 minor":    {0x01, 0xce, 0, 1, 0, 0},
			"negative fixint": {0xff, 0x01},
			"int8":            {0xd0, 0x80, 0x01},
			"nil":             {0xc0, 0x01},
			"float":           {0xca, 0x3f, 0x80, 0, 0, 0x01},
		}
		for name, header := range headers {
			_, _, err := codec.ReadVersion(header)
			assert.NotNil(t, err, assert.Sprintf("%s", name))
			assert.NotErrorIs(t, err, ErrShortHeader, assert.Sprintf("%s", name))
		}
		// Wider unsigned encodings are fine while they fit.
		got, rest, err := codec.ReadVersion([]byte{0xce, 0, 0, 0, 1, 0x02, 0x7f})
		assert.Nil(t, err)
		assert.Equal(t, got, NewVersion(1, 2))
		assert.Equal(t, rest, []byte{0x7f})
	})
	t.Run("wide header fails deserialize", func(t *testing.T) {
		t.Parallel()
		serializer, err := NewMsgpackSerializer[blockHeader]()
		assert.Nil(t, err)
		payload, err := serializer.SerializeNoVersion(blockHeader{Height: 1})
		assert.Nil(t, err)
		data := append([]byte{0xcf, 0, 0, 0, 1, 0, 0, 0, 1, 0x01}, payload...)
		_, err = serializer.Deserialize(data)
		assert.Equal(t, CodeOf(err), CodeHeader)
	})
	t.Run("trailing bytes", func(t *testing.T) {
		t.Parallel()
		data, err := codec.Marshal(ping{Text: "foo"})
		assert.Nil(t, err)
		data = append(data, 0x01, 0x02)
		var got ping
		assert.ErrorIs(t, codec.Unmarshal(data, &got), ErrTrailingBytes)
		lenient := NewMsgpackCodec(WithMsgpackTrailingBytes(true))
		assert.Nil(t, lenient.Unmarshal(data, &got))
		assert.Equal(t, got, ping{Text: "foo"})
	})
	t.Run("unknown fields", func(t *testing.T) {
		t.Parallel()
		data, err := codec.Marshal(map[string]any{"text": "foo", "extra": 1})
		assert.Nil(t, err)
		var got ping
		assert.Nil(t, codec.Unmarshal(data, &got))
		assert.Equal(t, got.Text, "foo")
		strict := NewMsgpackCodec(WithMsgpackDisallowUnknownFields())
		assert.NotNil(t, strict.Unmarshal(data, &got))
	})
	t.Run("compact ints", func(t *testing.T) {
		t.Parallel()
		compact := NewMsgpackCodec(WithMsgpackCompactInts())
		small, err := compact.Marshal(int64(1))
		assert.Nil(t, err)
		wide, err := codec.Marshal(int64(1))
		assert.Nil(t, err)
		assert.True(t, len(small) < len(wide))
		// The header layout never changes.
		assert.Equal(t, compact.AppendVersion(nil, NewVersion(1, 1)), codec.AppendVersion(nil, NewVersion(1, 1)))
	})
}

func TestProtobufCodec(t *testing.T) {
	t.Parallel()
	codec := NewProtobufCodec()
	assert.Equal(t, codec.Name(), "protobuf")
	assert.Equal(t, codec.AppendVersion(nil, NewVersion(1, 1)), []byte{1, 1})
	assert.Equal(t, codec.AppendVersion(nil, NewVersion(300, 1)), []byte{0xac, 0x02, 1})

	t.Run("nil message pointer", func(t *testing.T) {
		t.Parallel()
		data, err := codec.Marshal(wrapperspb.String("foo"))
		assert.Nil(t, err)
		var got *wrapperspb.StringValue
		assert.Nil(t, codec.Unmarshal(data, &got))
		assert.Equal(t, got, wrapperspb.String("foo"))
	})
	t.Run("not protobuf", func(t *testing.T) {
		t.Parallel()
		_, err := codec.Marshal(ping{})
		assert.NotNil(t, err)
		var target ping
		assert.NotNil(t, codec.Unmarshal(nil, &target))
		var notMessage *[]string
		assert.NotNil(t, codec.Unmarshal(nil, &notMessage))
	})
	t.Run("header overflow", func(t *testing.T) {
		t.Parallel()
		// 70000 doesn't fit in a uint16.
		_, _, err := codec.ReadVersion([]byte{0xf0, 0xa2, 0x04, 0x01})
		assert.NotNil(t, err)
		assert.NotErrorIs(t, err, ErrShortHeader)
	})
	t.Run("serializer", func(t *testing.T) {
		t.Parallel()
		type pingV1 = Edition[v1_1, *wrapperspb.StringValue]
		serializer, err := NewProtobufSerializer[pingV1](WithVersionWindow[v1_0, v1_2]())
		assert.Nil(t, err)
		roundTrip := func(text string) bool {
			want := NewEdition[v1_1](wrapperspb.String(text))
			data, err := serializer.Serialize(want)
			if err != nil {
				t.Fatal(err)
			}
			got, err := serializer.Deserialize(data)
			if err != nil {
				t.Fatal(err)
			}
			return proto.Equal(got.Value, want.Value)
		}
		if err := quick.Check(roundTrip, nil /* config */); err != nil {
			t.Error(err)
		}
		data := append(codec.AppendVersion(nil, NewVersion(2, 0)), 0xff)
		_, err = serializer.Deserialize(data)
		assert.ErrorIs(t, err, ErrVersionMismatch)
	})
}

func TestBinaryCodec(t *testing.T) {
	t.Parallel()
	codec := NewBinaryCodec(false /* allowTrailingBytes */)
	assert.Equal(t, codec.Name(), "binary")

	data, err := codec.Marshal(point{X: 1, Y: -1, Flags: 3})
	assert.Nil(t, err)
	assert.Equal(t, data, []byte{1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 3})

	var got point
	assert.Nil(t, codec.Unmarshal(data, &got))
	assert.Equal(t, got, point{X: 1, Y: -1, Flags: 3})
	assert.NotNil(t, codec.Unmarshal(data[:5], &got))
	assert.ErrorIs(t, codec.Unmarshal(append(data, 0), &got), ErrTrailingBytes)
	assert.Nil(t, NewBinaryCodec(true /* allowTrailingBytes */).Unmarshal(append(data, 0), &got))

	_, err = codec.Marshal(ping{})
	assert.NotNil(t, err)

	t.Run("unexported fields", func(t *testing.T) {
		t.Parallel()
		serializer, err := NewSerializer[sealedPoint](codec)
		assert.Nil(t, err)
		_, err = serializer.Serialize(sealedPoint{X: 1, y: 2})
		assert.Equal(t, CodeOf(err), CodeEncode)

		data := []byte{1, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0}
		_, err = serializer.Deserialize(data)
		assert.Equal(t, CodeOf(err), CodeDecode)
		var nested [2]struct{ Inner sealedPoint }
		assert.NotNil(t, codec.Unmarshal(make([]byte, 16), &nested))
		assert.NotNil(t, codec.Unmarshal(data, nil))
	})
	t.Run("blank fields", func(t *testing.T) {
		t.Parallel()
		type padded struct {
			A uint16
			_ uint16
		}
		data, err := codec.Marshal(padded{A: 7})
		assert.Nil(t, err)
		assert.Equal(t, data, []byte{7, 0, 0, 0})
		var got padded
		assert.Nil(t, codec.Unmarshal(data, &got))
		assert.Equal(t, got.A, uint16(7))
	})
}

// sealedPoint is fixed-size but has a field encoding/binary can't set.
type sealedPoint struct {
	X uint32
	y uint32
}

func (sealedPoint) WireVersion() Version { return NewVersion(1, 0) }
