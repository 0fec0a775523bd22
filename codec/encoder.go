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

package codec

import (
	"encoding/binary"

	"github.com/protobluff/protobluff/errs"
	"github.com/protobluff/protobluff/varint"
	"github.com/protobluff/protobluff/wire"
)

// Encoder appends tagged field occurrences into an owned, append-only
// buffer, in exactly the order its Put* methods are called. It emits no
// defaults, performs no required-field checks, and imposes no tag
// ordering of its own — all of that is the caller's (or the validator's)
// job.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the encoded wire bytes appended so far. The slice aliases
// the Encoder's internal buffer and must not be retained across a further
// Put* call.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

func (e *Encoder) putTag(tag uint32, wt wire.Type) {
	e.putUvarint(wire.Tag(tag, wt))
}

func (e *Encoder) putUvarint(v uint64) {
	var tmp [varint.MaxLen64]byte
	n := varint.PutUvarint(tmp[:], v)
	e.buf = append(e.buf, tmp[:n]...)
}

// PutVarint appends tag wired as VARINT, carrying raw verbatim (callers
// zig-zag- or bool-encode raw themselves before calling this, matching
// the dispatch in message.Field.Put).
func (e *Encoder) PutVarint(tag uint32, raw uint64) {
	e.putTag(tag, wire.Varint)
	e.putUvarint(raw)
}

// PutFixed32 appends tag wired as FIXED32.
func (e *Encoder) PutFixed32(tag uint32, raw uint32) {
	e.putTag(tag, wire.Fixed32)
	e.buf = binary.LittleEndian.AppendUint32(e.buf, raw)
}

// PutFixed64 appends tag wired as FIXED64.
func (e *Encoder) PutFixed64(tag uint32, raw uint64) {
	e.putTag(tag, wire.Fixed64)
	e.buf = binary.LittleEndian.AppendUint64(e.buf, raw)
}

// PutBytes appends tag wired as LENGTH, wrapping data verbatim: a
// string/bytes field, or a pre-encoded submessage's wire bytes.
func (e *Encoder) PutBytes(tag uint32, data []byte) {
	e.putTag(tag, wire.Length)
	e.putUvarint(uint64(len(data)))
	e.buf = append(e.buf, data...)
}

// PutMessage appends tag wired as LENGTH, wrapping sub's encoded bytes —
// the submessage equivalent of PutBytes.
func (e *Encoder) PutMessage(tag uint32, sub *Encoder) {
	e.PutBytes(tag, sub.Bytes())
}

// PutPacked appends tag once as a single LENGTH envelope wrapping every
// value in values back to back, each encoded per elemType's own wire
// type — the packed-repeated representation used instead of len(values)
// separate PutVarint/PutFixed32/PutFixed64 calls. elemType must be
// packable (a scalar type whose own wire type isn't already LENGTH).
func (e *Encoder) PutPacked(tag uint32, elemType wire.ProtoType, values []uint64) error {
	if !elemType.Packable() {
		return errs.New(errs.WireType)
	}

	payload := make([]byte, 0, len(values)*4)
	elemWt := elemType.WireType()
	for _, v := range values {
		switch elemWt {
		case wire.Varint:
			var tmp [varint.MaxLen64]byte
			n := varint.PutUvarint(tmp[:], v)
			payload = append(payload, tmp[:n]...)
		case wire.Fixed32:
			payload = binary.LittleEndian.AppendUint32(payload, uint32(v))
		case wire.Fixed64:
			payload = binary.LittleEndian.AppendUint64(payload, v)
		default:
			return errs.New(errs.WireType)
		}
	}

	e.PutBytes(tag, payload)
	return nil
}
