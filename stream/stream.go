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

// Package stream implements a typed read cursor over a [buffer.Buffer]: the
// wire-type-dispatched decode step every higher layer (codec, cursor, part
// alignment) drives to walk an encoded message.
package stream

import (
	"encoding/binary"

	"github.com/protobluff/protobluff/buffer"
	"github.com/protobluff/protobluff/errs"
	"github.com/protobluff/protobluff/varint"
	"github.com/protobluff/protobluff/wire"
)

// Value is the wire-level result of a Read: exactly one of Raw (varint,
// fixed32, fixed64 payloads, reinterpreted per proto type one layer up) or
// View (the length-delimited case) is meaningful, keyed by the wire.Type
// passed to Read.
type Value struct {
	Raw  uint64
	View buffer.View
}

// Stream borrows a Buffer and maintains a read cursor into it. Every Read
// fails atomically: on error, Offset() is left exactly where the failing
// read began.
type Stream struct {
	buf    *buffer.Buffer
	offset int
}

// New returns a Stream reading buf starting at offset.
func New(buf *buffer.Buffer, offset int) *Stream {
	return &Stream{buf: buf, offset: offset}
}

// Offset returns the current read position.
func (s *Stream) Offset() int {
	return s.offset
}

// Len returns the total size of the underlying buffer.
func (s *Stream) Len() int {
	return s.buf.Len()
}

// Remaining returns the number of unread bytes.
func (s *Stream) Remaining() int {
	return s.buf.Len() - s.offset
}

// ReadTag decodes a tag varint and splits it into a field number and wire
// type. It fails with [errs.WireType] if the wire type is one this library
// does not support (the two group wire types).
func (s *Stream) ReadTag() (fieldNumber uint32, wt wire.Type, err error) {
	start := s.offset
	v, n := varint.Uvarint(s.buf.Bytes()[s.offset:])
	if n == 0 {
		return 0, 0, errs.At(errs.Varint, start)
	}
	fieldNumber, wt = wire.SplitTag(v)
	if !wt.Valid() {
		return 0, 0, errs.At(errs.WireType, start)
	}
	s.offset += n
	return fieldNumber, wt, nil
}

// Read decodes one payload of wire type wt into out. Length-delimited
// payloads materialize a zero-copy [buffer.View] rather than copying bytes.
func (s *Stream) Read(wt wire.Type, out *Value) error {
	start := s.offset
	data := s.buf.Bytes()

	switch wt {
	case wire.Varint:
		v, n := varint.Uvarint(data[s.offset:])
		if n == 0 {
			return errs.At(errs.Varint, start)
		}
		out.Raw = v
		s.offset += n

	case wire.Fixed32:
		if s.Remaining() < 4 {
			return errs.At(errs.Offset, start)
		}
		out.Raw = uint64(binary.LittleEndian.Uint32(data[s.offset : s.offset+4]))
		s.offset += 4

	case wire.Fixed64:
		if s.Remaining() < 8 {
			return errs.At(errs.Offset, start)
		}
		out.Raw = binary.LittleEndian.Uint64(data[s.offset : s.offset+8])
		s.offset += 8

	case wire.Length:
		ln, n := varint.Uvarint(data[s.offset:])
		if n == 0 {
			return errs.At(errs.Varint, start)
		}
		payloadStart := s.offset + n
		if uint64(len(data)-payloadStart) < ln {
			return errs.At(errs.Offset, start)
		}
		out.View = buffer.View{Offset: payloadStart, Length: int(ln)}
		s.offset = payloadStart + int(ln)

	default:
		return errs.At(errs.WireType, start)
	}

	return nil
}

// Skip discards one payload of wire type wt without materializing it,
// using the same atomic-failure convention as Read.
func (s *Stream) Skip(wt wire.Type) error {
	var discard Value
	return s.Read(wt, &discard)
}

// Advance moves the read cursor forward by n bytes, failing with
// [errs.Offset] on underflow (n negative or past the end of the buffer).
func (s *Stream) Advance(n int) error {
	if n < 0 || s.offset+n > s.buf.Len() {
		return errs.At(errs.Offset, s.offset)
	}
	s.offset += n
	return nil
}

// Seek repositions the read cursor to an absolute offset, failing with
// [errs.Offset] if it lies outside the buffer.
func (s *Stream) Seek(offset int) error {
	if offset < 0 || offset > s.buf.Len() {
		return errs.At(errs.Offset, s.offset)
	}
	s.offset = offset
	return nil
}
