// Copyright 2025 Buf Technologies, Inc.
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

// Package varint implements base-128 varint encoding for every proto scalar
// kind: plain unsigned varints, protobuf's "signed-as-unsigned-64" encoding
// of sint32/sint64's non-zigzag cousins (int32/int64), and zig-zag signed
// varints. It also implements [Scan], which measures a varint's length
// without fully decoding it.
package varint

import (
	"math/bits"

	"github.com/protobluff/protobluff/internal/zigzag"
)

// MaxLen64 is the maximum number of bytes a 64-bit varint can occupy.
const MaxLen64 = 10

// MaxLen32 is the maximum number of bytes a plain 32-bit varint needs when
// the value is known to fit in 32 bits; note that a *negative* int32, per
// the wire format, is sign-extended to 64 bits and so takes MaxLen64 bytes
// (see PutVarint32).
const MaxLen32 = 5

// sizeTable[n] is the number of bytes needed to encode an unsigned value
// whose bit length is n, i.e. ceil(n/7), floored at 1. Indexed by
// bits.Len64(v) (0 for v == 0).
var sizeTable = func() (t [65]int) {
	for n := range t {
		t[n] = max(1, (n+6)/7)
	}
	return t
}()

// SizeUvarint returns the number of bytes Uvarint-style encoding of v would
// occupy.
func SizeUvarint(v uint64) int {
	return sizeTable[bits.Len64(v)]
}

// SizeVarint64 returns the number of bytes a *signed* 64-bit value occupies
// when encoded the "signed-as-unsigned" way int64 fields use: negative
// values always take the full 10 bytes, because they are sign-extended to
// a 64-bit two's complement pattern before being treated as an unsigned
// varint payload.
func SizeVarint64(v int64) int {
	return SizeUvarint(uint64(v))
}

// SizeVarint32 is like [SizeVarint64], but for a 32-bit signed value: per
// spec, a negative int32 is sign-extended to 64 bits on the wire, so it
// always takes exactly MaxLen64 (10) bytes.
func SizeVarint32(v int32) int {
	return SizeVarint64(int64(v))
}

// SizeZigZag32 returns the encoded size of a sint32 value.
func SizeZigZag32(v int32) int {
	return SizeUvarint(uint64(uint32(zigzag.Encode(v))))
}

// SizeZigZag64 returns the encoded size of a sint64 value.
func SizeZigZag64(v int64) int {
	return SizeUvarint(uint64(zigzag.Encode(v)))
}

// PutUvarint encodes v into dst (which must have at least SizeUvarint(v)
// bytes of capacity) and returns the number of bytes written.
func PutUvarint(dst []byte, v uint64) int {
	i := 0
	for v >= 0x80 {
		dst[i] = byte(v) | 0x80
		v >>= 7
		i++
	}
	dst[i] = byte(v)
	return i + 1
}

// PutVarint64 encodes a signed int64 using the "signed-as-unsigned" scheme.
func PutVarint64(dst []byte, v int64) int {
	return PutUvarint(dst, uint64(v))
}

// PutVarint32 encodes a signed int32 using the "signed-as-unsigned" scheme,
// sign-extending to 64 bits first as the wire format requires.
func PutVarint32(dst []byte, v int32) int {
	return PutVarint64(dst, int64(v))
}

// PutZigZag32 zig-zag encodes and varint-packs a sint32 value.
func PutZigZag32(dst []byte, v int32) int {
	return PutUvarint(dst, uint64(uint32(zigzag.Encode(v))))
}

// PutZigZag64 zig-zag encodes and varint-packs a sint64 value.
func PutZigZag64(dst []byte, v int64) int {
	return PutUvarint(dst, uint64(zigzag.Encode(v)))
}

// PutBool encodes a bool as a single byte: 0 or 1.
func PutBool(dst []byte, v bool) int {
	if v {
		dst[0] = 1
	} else {
		dst[0] = 0
	}
	return 1
}

// Uvarint decodes an unsigned varint from src, returning the decoded value
// and the number of bytes read. It returns (0, 0) if src does not hold a
// complete, valid varint (underrun, or a value too wide to fit in 64 bits --
// case (c) from the spec's unpack failure rules).
func Uvarint(src []byte) (v uint64, n int) {
	var shift uint
	for i := 0; i < len(src) && i < MaxLen64; i++ {
		b := src[i]
		if i == MaxLen64-1 && b > 1 {
			// Tenth byte needed for 64-bit unsigned whose top bits overflow.
			return 0, 0
		}
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return v, i + 1
		}
		shift += 7
	}
	return 0, 0
}

// Varint64 decodes a signed int64 encoded the "signed-as-unsigned" way.
func Varint64(src []byte) (v int64, n int) {
	u, n := Uvarint(src)
	return int64(u), n
}

// Varint32 decodes a signed int32. Per spec, readers must accept the
// 10-byte sign-extended form a negative int32 is always written in; an
// int32 field is also permitted to arrive as a short, non-sign-extended
// varint when non-negative. Case (b) from the spec's unpack failure rules
// -- a ninth byte with nonzero top bits when a tenth byte would be needed --
// is handled by [Uvarint] already rejecting any value that doesn't fit in
// 64 bits; truncating to 32 bits here is simply the defined narrowing.
func Varint32(src []byte) (v int32, n int) {
	u, n := Uvarint(src)
	if n == 0 {
		return 0, 0
	}
	return int32(u), n
}

// ZigZag32 decodes a zig-zag encoded sint32.
func ZigZag32(src []byte) (v int32, n int) {
	u, n := Uvarint(src)
	if n == 0 {
		return 0, 0
	}
	return zigzag.Decode64[int32](u), n
}

// ZigZag64 decodes a zig-zag encoded sint64.
func ZigZag64(src []byte) (v int64, n int) {
	u, n := Uvarint(src)
	if n == 0 {
		return 0, 0
	}
	return zigzag.Decode(int64(u)), n
}

// Bool decodes a one-byte bool field: the spec defines the decoded value as
// `value != 0`, not merely "0 or 1", so readers tolerate producers that
// write a nonzero byte other than 1.
func Bool(src []byte) (v bool, n int) {
	u, n := Uvarint(src)
	if n == 0 {
		return false, 0
	}
	return u != 0, n
}

// Scan returns the length in bytes of one varint at the start of src,
// without decoding its value, or 0 if src does not hold a complete varint.
//
// The spec's reference implementation does this with an SSE2 high-bit-mask
// trick on supporting hardware; this is an ordinary byte scan with
// equivalent externally-observable behavior (same return value for every
// input), which is all the spec requires.
func Scan(src []byte) int {
	limit := min(len(src), MaxLen64)
	for i := 0; i < limit; i++ {
		b := src[i]
		if i == MaxLen64-1 && b > 1 {
			return 0 // overflow, same rule as Uvarint
		}
		if b < 0x80 {
			return i + 1
		}
	}
	return 0
}
