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

// Package vbs tags binary payloads with a protocol version, so producers and
// consumers running different software can exchange bytes without silently
// misreading them.
//
// An envelope is a version header followed by a codec-encoded payload:
//
//	[major][minor][payload]
//
// Types opt in by implementing Versioned with a constant WireVersion, or by
// wrapping a value in an Edition parameterized by a StaticVersion. A
// Serializer decodes the header first and compares it to an inclusive Range
// of accepted versions: anything outside the range fails with
// ErrVersionMismatch before a single payload byte is interpreted.
//
// Codecs are pluggable. MsgpackCodec handles arbitrary Go values,
// ProtobufCodec handles generated protobuf messages, and BinaryCodec handles
// fixed-size values. Any other Codec implementation works too.
package vbs
