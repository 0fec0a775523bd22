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

// Package zigzag implements protobuf's zigzag integer mapping, used by the
// sint32/sint64 proto types to make small negative numbers cheap to encode
// as varints.
package zigzag

// Number is any signed or unsigned fixed-width integer that zigzag encoding
// operates on.
type Number interface {
	~int32 | ~int64 | ~uint32 | ~uint64
}

// Encode maps a signed value onto the zigzag-permuted unsigned range:
// 0, -1, 1, -2, 2, ... becomes 0, 1, 2, 3, 4, ...
func Encode[T Number](signed T) T {
	n := uint64(signed)
	bits := uint64(widthOf(signed))
	return T((n << 1) ^ uint64(int64(n)>>(bits-1)))
}

// Decode inverts [Encode].
func Decode[T Number](raw T) T {
	n := uint64(raw)
	bits := widthOf(raw)
	n &= (1 << bits) - 1
	return T((n >> 1) ^ -(n & 1))
}

// Decode64 decodes a zigzag value that arrived as a raw 64-bit varint
// payload into a narrower signed type.
func Decode64[T Number](raw uint64) T {
	return Decode(T(raw))
}

func widthOf[T Number](T) uint {
	var z T
	switch any(z).(type) {
	case int32, uint32:
		return 32
	default:
		return 64
	}
}
