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

// Package wire defines the low-level vocabulary of the protobuf binary wire
// format: wire types, tags, and the proto scalar/message type taxonomy each
// field descriptor is defined in terms of.
package wire

import "fmt"

// Type is a wire type: the two low bits of every tag varint.
type Type uint8

const (
	Varint Type = iota
	Fixed64
	Length
	_reservedStartGroup // group wire types are rejected; kept only to mirror the wire's numbering
	_reservedEndGroup
	Fixed32
)

// Valid reports whether t is one of the four wire types this library
// supports (group wire types are rejected per spec).
func (t Type) Valid() bool {
	return t == Varint || t == Fixed64 || t == Length || t == Fixed32
}

func (t Type) String() string {
	switch t {
	case Varint:
		return "varint"
	case Fixed64:
		return "fixed64"
	case Length:
		return "length-delimited"
	case Fixed32:
		return "fixed32"
	default:
		return fmt.Sprintf("wire.Type(%d)", uint8(t))
	}
}

// Tag packs a field number and wire type into the varint-encoded tag value.
func Tag(fieldNumber uint32, wt Type) uint64 {
	return uint64(fieldNumber)<<3 | uint64(wt&0x7)
}

// SplitTag unpacks a decoded tag varint into a field number and wire type.
func SplitTag(tag uint64) (fieldNumber uint32, wt Type) {
	return uint32(tag >> 3), Type(tag & 0x7)
}

// ProtoType is the proto scalar/message type of a field, independent of its wire
// representation (e.g. both Int32 and SFixed32 are 32-bit integers, but
// encode with different wire types).
type ProtoType uint8

const (
	Int32 ProtoType = iota
	Int64
	UInt32
	UInt64
	SInt32 // zig-zag
	SInt64 // zig-zag
	Fixed32Type
	Fixed64Type
	SFixed32
	SFixed64
	Bool
	Enum
	Float
	Double
	String
	Bytes
	Message
)

// numProtoTypes is the count of the 17 standard proto scalar/message kinds.
const numProtoTypes = Message + 1

var wireTypeOf = [numProtoTypes]Type{
	Int32:       Varint,
	Int64:       Varint,
	UInt32:      Varint,
	UInt64:      Varint,
	SInt32:      Varint,
	SInt64:      Varint,
	Fixed32Type: Fixed32,
	Fixed64Type: Fixed64,
	SFixed32:    Fixed32,
	SFixed64:    Fixed64,
	Bool:        Varint,
	Enum:        Varint,
	Float:       Fixed32,
	Double:      Fixed64,
	String:      Length,
	Bytes:       Length,
	Message:     Length,
}

// WireType returns the deterministic wire type this proto type is encoded
// with. The mapping is total: every ProtoType value this package defines has
// an entry.
func (t ProtoType) WireType() Type {
	return wireTypeOf[t%numProtoTypes]
}

// FixedSize returns the fixed value footprint in bytes: 1 for Bool, 4 for
// Fixed32Type/SFixed32/Float, 8 for Fixed64Type/SFixed64/Double. It returns
// 0 for every other type: the varint-encoded integers and Enum, and
// String/Bytes/Message.
func (t ProtoType) FixedSize() int {
	switch t {
	case Bool:
		return 1
	case Fixed32Type, SFixed32, Float:
		return 4
	case Fixed64Type, SFixed64, Double:
		return 8
	default:
		return 0
	}
}

// Packable reports whether repeated fields of this type are eligible for
// packed encoding: scalar types whose wire type is not already Length.
func (t ProtoType) Packable() bool {
	return t != String && t != Bytes && t != Message
}

func (t ProtoType) String() string {
	switch t {
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case UInt32:
		return "uint32"
	case UInt64:
		return "uint64"
	case SInt32:
		return "sint32"
	case SInt64:
		return "sint64"
	case Fixed32Type:
		return "fixed32"
	case Fixed64Type:
		return "fixed64"
	case SFixed32:
		return "sfixed32"
	case SFixed64:
		return "sfixed64"
	case Bool:
		return "bool"
	case Enum:
		return "enum"
	case Float:
		return "float"
	case Double:
		return "double"
	case String:
		return "string"
	case Bytes:
		return "bytes"
	case Message:
		return "message"
	default:
		return fmt.Sprintf("wire.ProtoType(%d)", uint8(t))
	}
}
