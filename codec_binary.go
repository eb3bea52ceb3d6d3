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
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
)

const codecNameBinary = "binary"

// A BinaryCodec marshals fixed-size values (numbers, bools, and arrays and
// structs of them) as their little-endian memory layout, with no field tags or
// lengths. It uses the default version header, which follows the same
// little-endian rule.
//
// Values containing slices, strings, maps, or pointers can't be marshaled;
// use MsgpackCodec for those.
type BinaryCodec struct {
	allowTrailingBytes bool
}

var _ Codec = (*BinaryCodec)(nil)

// NewBinaryCodec constructs a BinaryCodec. If allowTrailingBytes is false,
// Unmarshal rejects input longer than the target value.
func NewBinaryCodec(allowTrailingBytes bool) *BinaryCodec {
	return &BinaryCodec{allowTrailingBytes: allowTrailingBytes}
}

// Name implements Codec.
func (c *BinaryCodec) Name() string { return codecNameBinary }

// Marshal implements Codec.
func (c *BinaryCodec) Marshal(value any) ([]byte, error) {
	size := binary.Size(value)
	if size < 0 {
		return nil, fmt.Errorf("%T isn't a fixed-size value", value)
	}
	if err := checkFixedLayout(reflect.TypeOf(value)); err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(make([]byte, 0, size))
	if err := binary.Write(buf, binary.LittleEndian, value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal implements Codec.
func (c *BinaryCodec) Unmarshal(data []byte, value any) error {
	if value == nil {
		return errors.New("nil target")
	}
	if err := checkFixedLayout(reflect.TypeOf(value)); err != nil {
		return err
	}
	reader := bytes.NewReader(data)
	if err := binary.Read(reader, binary.LittleEndian, value); err != nil {
		return err
	}
	if !c.allowTrailingBytes && reader.Len() > 0 {
		return fmt.Errorf("%w: %d unread", ErrTrailingBytes, reader.Len())
	}
	return nil
}

// checkFixedLayout rejects struct fields that encoding/binary would write but
// can't set on read. Blank fields are skipped by both directions.
func checkFixedLayout(typ reflect.Type) error {
	switch typ.Kind() {
	case reflect.Pointer, reflect.Array, reflect.Slice:
		return checkFixedLayout(typ.Elem())
	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			if field.Name == "_" {
				continue
			}
			if !field.IsExported() {
				return fmt.Errorf("%v has unexported field %s", typ, field.Name)
			}
			if err := checkFixedLayout(field.Type); err != nil {
				return err
			}
		}
	}
	return nil
}
