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

package message

import (
	"encoding/binary"
	"math"

	"github.com/protobluff/protobluff/buffer"
	"github.com/protobluff/protobluff/cursor"
	"github.com/protobluff/protobluff/descriptor"
	"github.com/protobluff/protobluff/errs"
	"github.com/protobluff/protobluff/internal/debug"
	"github.com/protobluff/protobluff/journal"
	"github.com/protobluff/protobluff/part"
	"github.com/protobluff/protobluff/wire"
)

// Message pairs a descriptor with the part spanning its encoded bytes,
// whether that part is a whole journal's root or a nested submessage.
type Message struct {
	desc *descriptor.Descriptor
	part *part.Part
}

// Create returns a Message over the whole of j, governed by desc.
func Create(desc *descriptor.Descriptor, j *journal.Journal) *Message {
	return &Message{desc: desc, part: part.Root(j)}
}

// FromPart wraps an already-positioned part (e.g. a Cursor's current
// position, or a submessage's part handed back by a lower layer) as a
// Message governed by desc, without creating or validating anything. Used
// by callers outside this package that need to recurse into a submessage
// reached through their own traversal rather than through CreateWithin.
func FromPart(desc *descriptor.Descriptor, p *part.Part) *Message {
	return &Message{desc: desc, part: p}
}

// Descriptor returns the message's schema.
func (m *Message) Descriptor() *descriptor.Descriptor {
	return m.desc
}

// Part returns the message's underlying part.
func (m *Message) Part() *part.Part {
	return m.part
}

// CreateWithin returns the submessage at tag within msg, creating it
// (tag + empty length prefix) if absent. tag's field must be MESSAGE-typed.
func CreateWithin(msg *Message, tag uint32) (*Message, error) {
	f := msg.desc.ByTag(tag)
	if f == nil {
		return nil, errs.New(errs.Descriptor)
	}
	if f.Type != wire.Message || f.Message == nil {
		return nil, errs.New(errs.Descriptor)
	}

	p, err := part.CreateByTag(msg.part, msg.desc, tag)
	if err != nil {
		return nil, err
	}
	return &Message{desc: f.Message, part: p}, nil
}

// CreateNested iteratively descends msg through tags via CreateWithin,
// creating every intermediate submessage as needed. Every tag but the
// last must name a non-repeated MESSAGE field; the last may be repeated,
// in which case a fresh occurrence is created each call.
func CreateNested(msg *Message, tags []uint32) (*Message, error) {
	cur := msg
	for i, t := range tags {
		if i < len(tags)-1 {
			f := cur.desc.ByTag(t)
			if f == nil {
				return nil, errs.New(errs.Descriptor)
			}
			if f.Label == descriptor.Repeated {
				return nil, errs.New(errs.Descriptor)
			}
		}
		next, err := CreateWithin(cur, t)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// CreateFromField reinterprets tag's current payload within msg as a
// nested message buffer governed by desc: a zero-copy decode of embedded
// data that was stored as a length-delimited blob rather than declared
// MESSAGE-typed in msg's own schema. tag's field must be BYTES- or
// MESSAGE-typed. The returned Message's journal is independent of msg's;
// mutating it does not touch msg's bytes (a zero-copy buffer rejects any
// size-changing write).
func CreateFromField(desc *descriptor.Descriptor, msg *Message, tag uint32) (*Message, error) {
	f := msg.desc.ByTag(tag)
	if f == nil {
		return nil, errs.New(errs.Descriptor)
	}
	if f.Type != wire.Bytes && f.Type != wire.Message {
		return nil, errs.New(errs.Descriptor)
	}
	v, err := msg.Get(tag)
	if err != nil {
		return nil, err
	}
	sub := journal.New(buffer.CreateZeroCopy(v.Bytes))
	return &Message{desc: desc, part: part.Root(sub)}, nil
}

// Has reports whether tag has at least one occurrence in msg.
func (m *Message) Has(tag uint32) bool {
	c := cursor.Create(m.part, tag)
	return c.Valid()
}

// Match reports whether any occurrence of tag equals value.
func (m *Message) Match(tag uint32, value Value) bool {
	f := m.desc.ByTag(tag)
	if f == nil {
		return false
	}
	c := cursor.Create(m.part, tag)
	for c.Valid() {
		if NewField(f, c.Part()).Match(value) {
			return true
		}
		c.Next()
	}
	return false
}

// Get reads tag's value (the last occurrence, per merged-message
// semantics), or its declared default if absent, or [errs.Absent] if
// neither exists.
func (m *Message) Get(tag uint32) (Value, error) {
	f := m.desc.ByTag(tag)
	if f == nil {
		return Value{}, errs.New(errs.Descriptor)
	}

	c := cursor.Create(m.part, tag)
	if c.Valid() {
		last := c.Part()
		for c.Next() {
			last = c.Part()
		}
		return NewField(f, last).Get()
	}
	if f.HasDefault() {
		return defaultValue(f), nil
	}
	return Value{}, errs.New(errs.Absent)
}

// defaultValue reinterprets a FieldDescriptor's static Default as a Value.
func defaultValue(f *descriptor.FieldDescriptor) Value {
	switch d := f.Default.(type) {
	case string:
		return Value{Bytes: []byte(d)}
	case []byte:
		return Value{Bytes: d}
	case bool:
		if d {
			return Value{Raw: 1}
		}
		return Value{Raw: 0}
	case int32:
		return Value{Raw: uint64(d)}
	case int64:
		return Value{Raw: uint64(d)}
	case uint32:
		return Value{Raw: uint64(d)}
	case uint64:
		return Value{Raw: d}
	case float32:
		return Value{Raw: uint64(math.Float32bits(d))}
	case float64:
		return Value{Raw: math.Float64bits(d)}
	default:
		debug.Assert(false, "field %s: unsupported default value type %T", f.Name, f.Default)
		return Value{}
	}
}

// Put writes value into tag, creating the occurrence if absent (or a new
// occurrence, for a repeated field). Message-typed fields must go through
// [Message.PutMessage] instead, since their payload is a submessage's
// wire bytes, not a scalar Value.
func (m *Message) Put(tag uint32, value Value) error {
	f := m.desc.ByTag(tag)
	if f == nil {
		return errs.New(errs.Descriptor)
	}
	if f.Type == wire.Message {
		return errs.New(errs.Descriptor)
	}

	p, err := part.CreateByTag(m.part, m.desc, tag)
	if err != nil {
		return err
	}
	return NewField(f, p).Put(value)
}

// PutMessage copies sub's encoded wire bytes into tag's occurrence
// within m. sub must not share m's journal: its bytes are read, not
// moved, so writing into m after this call does not retroactively alter
// sub's own contents.
func (m *Message) PutMessage(tag uint32, sub *Message) error {
	f := m.desc.ByTag(tag)
	if f == nil {
		return errs.New(errs.Descriptor)
	}
	if f.Type != wire.Message {
		return errs.New(errs.Descriptor)
	}
	debug.Assert(sub.part.Journal() != m.part.Journal(),
		"PutMessage: submessage must not share the destination's journal")

	if !sub.part.Align() {
		return errs.New(errs.Invalid)
	}
	off := sub.part.Offset()
	data := sub.part.Journal().Buffer().Bytes()
	if off.Start < 0 || off.End > len(data) {
		return errs.At(errs.Offset, off.Start)
	}
	wireBytes := make([]byte, off.Len())
	copy(wireBytes, data[off.Start:off.End])

	p, err := part.CreateByTag(m.part, m.desc, tag)
	if err != nil {
		return err
	}
	return p.Write(wireBytes)
}

// Values collects every occurrence of tag, regardless of whether a
// repeated scalar field was encoded packed or unpacked on the wire: a
// packed occurrence's envelope is unwrapped into one Value per element,
// exactly as if each had been written as its own standalone occurrence,
// so callers never need to branch on how the field happened to be
// encoded.
func (m *Message) Values(tag uint32) ([]Value, error) {
	f := m.desc.ByTag(tag)
	if f == nil {
		return nil, errs.New(errs.Descriptor)
	}

	var out []Value
	c := cursor.Create(m.part, tag)
	for c.Valid() {
		if f.Label == descriptor.Repeated && f.Packed {
			vs, err := unpackEnvelope(f, c.Part())
			if err != nil {
				return nil, err
			}
			out = append(out, vs...)
		} else {
			v, err := NewField(f, c.Part()).Get()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		c.Next()
	}
	return out, nil
}

// unpackEnvelope decodes a packed-repeated field's single envelope
// occurrence into its individual elements, applying the same per-type
// VARINT dispatch as Field.getVarint so a packed SINT32/SINT64 element
// zig-zag-decodes identically to an unpacked one.
func unpackEnvelope(f *descriptor.FieldDescriptor, p *part.Part) ([]Value, error) {
	if !p.Align() {
		return nil, errs.New(errs.Invalid)
	}
	off := p.Offset()
	data := p.Journal().Buffer().Bytes()
	if off.Start < 0 || off.End > len(data) {
		return nil, errs.At(errs.Offset, off.Start)
	}
	payload := data[off.Start:off.End]
	elem := NewField(f, nil)

	var out []Value
	switch f.Type.WireType() {
	case wire.Varint:
		for len(payload) > 0 {
			v, n := elem.getVarint(payload)
			if n == 0 {
				return nil, errs.At(errs.Varint, off.Start)
			}
			out = append(out, Value{Raw: v})
			payload = payload[n:]
		}
	case wire.Fixed32:
		for len(payload) >= 4 {
			out = append(out, Value{Raw: uint64(binary.LittleEndian.Uint32(payload))})
			payload = payload[4:]
		}
	case wire.Fixed64:
		for len(payload) >= 8 {
			out = append(out, Value{Raw: binary.LittleEndian.Uint64(payload)})
			payload = payload[8:]
		}
	default:
		return nil, errs.New(errs.WireType)
	}
	return out, nil
}

// Erase removes every occurrence of tag. If tag is a oneof member, this
// clears the whole oneof (at most one member can ever be present at a
// time, but Erase is specified in terms of the oneof for symmetry with
// Oneof.Clear). Idempotent: erasing an already-absent tag is a no-op.
func (m *Message) Erase(tag uint32) error {
	f := m.desc.ByTag(tag)
	if f == nil {
		return errs.New(errs.Descriptor)
	}
	if f.Oneof != nil {
		return CreateOneof(f.Oneof, m).Clear()
	}

	c := cursor.Create(m.part, tag)
	for c.Valid() {
		if err := c.Erase(); err != nil {
			return err
		}
		c.Next()
	}
	return nil
}

// Clear erases the whole message. m must not be used afterward.
func (m *Message) Clear() error {
	return m.part.Clear()
}

// descend walks tags, returning the submessage reached by following each
// tag's MESSAGE-typed field via a read-only cursor (no submessages are
// created). It fails with [errs.Absent] as soon as an intermediate
// occurrence is missing.
func (m *Message) descend(tags []uint32) (*Message, error) {
	cur := m
	for _, t := range tags {
		f := cur.desc.ByTag(t)
		if f == nil {
			return nil, errs.New(errs.Descriptor)
		}
		if f.Type != wire.Message || f.Message == nil {
			return nil, errs.New(errs.Descriptor)
		}
		c := cursor.Create(cur.part, t)
		if !c.Valid() {
			return nil, errs.New(errs.Absent)
		}
		cur = &Message{desc: f.Message, part: c.Part()}
	}
	return cur, nil
}

// leafDescriptor resolves the FieldDescriptor tags would lead to without
// touching live data, so NestedGet can still honor a leaf field's default
// when an intermediate submessage is absent.
func (m *Message) leafDescriptor(tags []uint32, leaf uint32) (*descriptor.FieldDescriptor, error) {
	desc := m.desc
	for _, t := range tags {
		f := desc.ByTag(t)
		if f == nil || f.Message == nil {
			return nil, errs.New(errs.Descriptor)
		}
		desc = f.Message
	}
	f := desc.ByTag(leaf)
	if f == nil {
		return nil, errs.New(errs.Descriptor)
	}
	return f, nil
}

// NestedHas reports whether leaf is present at the end of the tags chain.
func (m *Message) NestedHas(tags []uint32, leaf uint32) bool {
	parent, err := m.descend(tags)
	if err != nil {
		return false
	}
	return parent.Has(leaf)
}

// NestedMatch reports whether leaf, at the end of the tags chain, has an
// occurrence equal to value.
func (m *Message) NestedMatch(tags []uint32, leaf uint32, value Value) bool {
	parent, err := m.descend(tags)
	if err != nil {
		return false
	}
	return parent.Match(leaf, value)
}

// NestedGet reads leaf at the end of the tags chain, falling back to
// leaf's declared default (even if an intermediate submessage along tags
// is itself absent) or [errs.Absent].
func (m *Message) NestedGet(tags []uint32, leaf uint32) (Value, error) {
	parent, err := m.descend(tags)
	if err != nil {
		f, derr := m.leafDescriptor(tags, leaf)
		if derr != nil {
			return Value{}, derr
		}
		if f.HasDefault() {
			return defaultValue(f), nil
		}
		return Value{}, errs.New(errs.Absent)
	}
	return parent.Get(leaf)
}

// NestedPut writes leaf at the end of the tags chain, creating every
// intermediate submessage as needed.
func (m *Message) NestedPut(tags []uint32, leaf uint32, value Value) error {
	cur := m
	var err error
	for _, t := range tags {
		cur, err = CreateWithin(cur, t)
		if err != nil {
			return err
		}
	}
	return cur.Put(leaf, value)
}

// NestedErase erases leaf at the end of the tags chain, without creating
// any missing intermediate submessage (nothing to erase in that case).
func (m *Message) NestedErase(tags []uint32, leaf uint32) error {
	parent, err := m.descend(tags)
	if err != nil {
		return nil
	}
	return parent.Erase(leaf)
}
