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

// Package codec implements one-shot boundary façades between encoded wire
// bytes and the rest of this module: Decoder walks a byte slice and
// reports each field occurrence through a callback, Encoder appends
// tagged occurrences into a freshly-owned buffer. Neither holds any
// journal/part machinery — they exist for code that wants plain
// marshal/unmarshal semantics without the in-place edit log.
package codec

import (
	"github.com/protobluff/protobluff/buffer"
	"github.com/protobluff/protobluff/descriptor"
	"github.com/protobluff/protobluff/stream"
	"github.com/protobluff/protobluff/wire"
)

// Value is what a Handler receives for one field occurrence: exactly one
// of Raw, Bytes, or Sub is meaningful, depending on the occurrence's wire
// type and whether its FieldDescriptor names a nested message.
type Value struct {
	Raw   uint64
	Bytes []byte
	Sub   *Decoder
}

// Handler is invoked once per field occurrence Decode walks across,
// including once per element of a packed-repeated scalar's envelope. desc
// is nil for a tag absent from the message's Descriptor; Decode still
// reports it rather than silently dropping it, and returning nil from
// Handler is how a caller chooses to ignore it. Returning a non-nil error
// aborts the walk.
type Handler func(desc *descriptor.FieldDescriptor, v Value) error

// Decoder walks one message's encoded bytes against its Descriptor.
type Decoder struct {
	desc *descriptor.Descriptor
	data []byte
}

// New returns a Decoder over data governed by desc. data is not copied;
// the caller must not mutate it while decoding, and a Sub Decoder handed
// to Handler for a nested message aliases the same backing array.
func New(desc *descriptor.Descriptor, data []byte) *Decoder {
	return &Decoder{desc: desc, data: data}
}

// Decode walks every field occurrence in wire order, invoking handler for
// each. An unknown tag (no matching FieldDescriptor) is still reported,
// with desc nil and only Bytes/Raw set per its wire type; Handler decides
// whether to skip it. A nested-message occurrence's Value carries a fresh
// Sub Decoder over its zero-copy payload — Handler must call Sub.Decode
// itself to recurse, nothing here does it automatically.
func (d *Decoder) Decode(handler Handler) error {
	buf := buffer.CreateZeroCopy(d.data)
	st := stream.New(buf, 0)

	for st.Remaining() > 0 {
		tag, wt, err := st.ReadTag()
		if err != nil {
			return err
		}
		f := d.desc.ByTag(tag)

		if f != nil && f.Label == descriptor.Repeated && f.Packed && wt == wire.Length {
			if err := d.decodePacked(buf, st, f, handler); err != nil {
				return err
			}
			continue
		}

		v, err := d.decodeOne(buf, st, f, wt)
		if err != nil {
			return err
		}
		if err := handler(f, v); err != nil {
			return err
		}
	}
	return nil
}

func (d *Decoder) decodeOne(buf *buffer.Buffer, st *stream.Stream, f *descriptor.FieldDescriptor, wt wire.Type) (Value, error) {
	var sv stream.Value
	if err := st.Read(wt, &sv); err != nil {
		return Value{}, err
	}
	if wt != wire.Length {
		return Value{Raw: sv.Raw}, nil
	}

	payload := sv.View.Bytes(buf)
	if f != nil && f.Type == wire.Message && f.Message != nil {
		return Value{Bytes: payload, Sub: New(f.Message, payload)}, nil
	}
	return Value{Bytes: payload}, nil
}

// decodePacked enters a packed-repeated scalar field's LENGTH envelope and
// invokes handler once per element, each carrying the element's own Raw
// value decoded per f's declared (non-LENGTH) wire type.
func (d *Decoder) decodePacked(buf *buffer.Buffer, st *stream.Stream, f *descriptor.FieldDescriptor, handler Handler) error {
	var sv stream.Value
	if err := st.Read(wire.Length, &sv); err != nil {
		return err
	}
	payload := sv.View.Bytes(buf)

	elemWt := f.Type.WireType()
	sub := buffer.CreateZeroCopy(payload)
	sst := stream.New(sub, 0)
	for sst.Remaining() > 0 {
		var ev stream.Value
		if err := sst.Read(elemWt, &ev); err != nil {
			return err
		}
		if err := handler(f, Value{Raw: ev.Raw}); err != nil {
			return err
		}
	}
	return nil
}
