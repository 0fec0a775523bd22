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

// Package message implements the high-level handle layer: Field, Message
// and Oneof compose a [part.Part] with a [descriptor.FieldDescriptor] or
// [descriptor.Descriptor] to give callers has/get/put/erase semantics
// instead of raw byte-range edits.
package message

import (
	"encoding/binary"

	"github.com/protobluff/protobluff/descriptor"
	"github.com/protobluff/protobluff/errs"
	"github.com/protobluff/protobluff/internal/debug"
	"github.com/protobluff/protobluff/part"
	"github.com/protobluff/protobluff/varint"
	"github.com/protobluff/protobluff/wire"
)

// Value is the caller-facing value a Field or Message reads into or
// writes from: Raw carries every fixed-width proto kind (varint, fixed32,
// fixed64, bool, enum — reinterpreted per the field's declared type),
// Bytes carries string/bytes/message payloads. A Get populates exactly
// one of the two, per the field's wire type; a Put reads from whichever
// one is meaningful and ignores the other.
//
// Bytes returned by a Get aliases the journal's buffer, exactly like
// [buffer.Buffer.Bytes]: it must not be retained across a subsequent
// mutation of the same journal.
type Value struct {
	Raw   uint64
	Bytes []byte
}

// Field wraps a part together with the descriptor of the scalar field it
// holds one occurrence of.
type Field struct {
	desc *descriptor.FieldDescriptor
	part *part.Part
}

// NewField pairs p with desc. p must already be positioned over one
// occurrence of the field desc describes.
func NewField(desc *descriptor.FieldDescriptor, p *part.Part) *Field {
	return &Field{desc: desc, part: p}
}

// Part returns the field's underlying part.
func (f *Field) Part() *part.Part {
	return f.part
}

// Get reads the field's current value.
func (f *Field) Get() (Value, error) {
	if !f.part.Align() {
		return Value{}, errs.New(errs.Invalid)
	}
	off := f.part.Offset()
	buf := f.part.Journal().Buffer()

	if f.desc.Type.WireType() == wire.Length {
		data := buf.Bytes()
		if off.Start < 0 || off.End > len(data) {
			return Value{}, errs.At(errs.Offset, off.Start)
		}
		return Value{Bytes: data[off.Start:off.End]}, nil
	}

	return f.getFixed(buf.Bytes()[off.Start:])
}

func (f *Field) getFixed(data []byte) (Value, error) {
	switch f.desc.Type.WireType() {
	case wire.Varint:
		v, n := f.getVarint(data)
		if n == 0 {
			return Value{}, errs.At(errs.Varint, f.part.Offset().Start)
		}
		return Value{Raw: v}, nil
	case wire.Fixed32:
		if len(data) < 4 {
			return Value{}, errs.At(errs.Offset, f.part.Offset().Start)
		}
		return Value{Raw: uint64(binary.LittleEndian.Uint32(data))}, nil
	case wire.Fixed64:
		if len(data) < 8 {
			return Value{}, errs.At(errs.Offset, f.part.Offset().Start)
		}
		return Value{Raw: binary.LittleEndian.Uint64(data)}, nil
	default:
		return Value{}, errs.New(errs.WireType)
	}
}

// Put encodes value into the field's part, dispatched by wire type per
// spec.md §4.8.
func (f *Field) Put(value Value) error {
	if !f.part.Align() {
		return errs.New(errs.Invalid)
	}

	if debug.Enabled && f.desc.Type == wire.Enum && f.desc.Enum != nil {
		_, ok := f.desc.Enum.ByNumber(int32(value.Raw))
		debug.Assert(ok, "enum field %s: %d is not a declared value", f.desc.Name, int32(value.Raw))
	}

	switch f.desc.Type.WireType() {
	case wire.Varint:
		buf := make([]byte, varint.MaxLen64)
		n := f.putVarint(buf, value.Raw)
		return f.part.Write(buf[:n])

	case wire.Fixed32:
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(value.Raw))
		return f.part.Write(buf)

	case wire.Fixed64:
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, value.Raw)
		return f.part.Write(buf)

	case wire.Length:
		return f.part.Write(value.Bytes)

	default:
		return errs.New(errs.WireType)
	}
}

// getVarint decodes one varint from data according to f.desc.Type's
// encoding (plain, zig-zag, or bool), mirroring putVarint's dispatch, and
// returns the decoded value reinterpreted as a raw uint64 together with
// the byte count consumed (0 on a malformed varint).
func (f *Field) getVarint(data []byte) (uint64, int) {
	switch f.desc.Type {
	case wire.SInt32:
		v, n := varint.ZigZag32(data)
		return uint64(uint32(v)), n
	case wire.SInt64:
		v, n := varint.ZigZag64(data)
		return uint64(v), n
	case wire.Bool:
		v, n := varint.Bool(data)
		if v {
			return 1, n
		}
		return 0, n
	default: // Int32, Int64, UInt32, UInt64, Enum: plain unsigned varint
		return varint.Uvarint(data)
	}
}

// putVarint encodes raw (reinterpreted per f.desc.Type) into dst and
// returns the byte count, selecting among the plain/signed/zigzag/bool
// encodings every VARINT-wired proto type needs.
func (f *Field) putVarint(dst []byte, raw uint64) int {
	switch f.desc.Type {
	case wire.SInt32:
		return varint.PutZigZag32(dst, int32(raw))
	case wire.SInt64:
		return varint.PutZigZag64(dst, int64(raw))
	case wire.Bool:
		return varint.PutBool(dst, raw != 0)
	case wire.Int32:
		return varint.PutVarint32(dst, int32(raw))
	default: // Int64, UInt32, UInt64, Enum: plain unsigned varint
		return varint.PutUvarint(dst, raw)
	}
}

// Match reports whether the field's current value equals value.
func (f *Field) Match(value Value) bool {
	got, err := f.Get()
	if err != nil {
		return false
	}
	if f.desc.Type.WireType() == wire.Length {
		return bytesEqual(got.Bytes, value.Bytes)
	}
	return got.Raw == value.Raw
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clear erases the field's occurrence entirely.
func (f *Field) Clear() error {
	return f.part.Clear()
}
