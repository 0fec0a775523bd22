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

// Package descriptor holds the static, read-mostly schema tables every
// higher layer navigates by: field-by-tag (an array-indexed fast path),
// field-by-name, enum, oneof, and extension chaining.
//
// Tables are built once by a code generator or a runtime loader and are
// read-only thereafter except for extension chaining/reset, which callers
// use to link (and later unlink) extension fields without touching the
// base descriptor's own field array.
package descriptor

import "github.com/protobluff/protobluff/wire"

// Label is a field's cardinality.
type Label uint8

const (
	Optional Label = iota
	Required
	Repeated
	InOneof
)

// FieldDescriptor describes one field of a message: its tag, name, wire
// encoding, cardinality, and (for message/enum-typed fields) a link to the
// nested descriptor.
type FieldDescriptor struct {
	Tag    uint32
	Name   string
	Type   wire.ProtoType
	Label  Label
	Packed bool // only meaningful for REPEATED scalar fields whose wire type isn't LENGTH

	Message *Descriptor      // set iff Type == wire.Message
	Enum    *EnumDescriptor  // set iff Type == wire.Enum
	Oneof   *OneofDescriptor // set iff Label == InOneof

	Default any // nil if the field declares no default
}

// HasDefault reports whether reading an absent occurrence of this field
// should yield Default rather than an Absent error.
func (f *FieldDescriptor) HasDefault() bool {
	return f.Default != nil
}

// Descriptor is a message's schema: fields in ascending tag order (the
// codegen invariant every lookup strategy below exploits), plus a
// singly-linked chain to an extension Descriptor appended after the fact.
type Descriptor struct {
	Name   string
	Fields []*FieldDescriptor // ascending Tag order
	Oneofs []*OneofDescriptor

	extension *Descriptor
}

// ByTag looks up a field by its tag. It exploits the ascending-tag
// invariant: index into the array at min(tag, len)-1, then walk leftward
// until the tag matches or a smaller tag is passed (a miss). Extension
// fields are searched by walking the descriptor's extension chain after
// the base table misses.
func (d *Descriptor) ByTag(tag uint32) *FieldDescriptor {
	for cur := d; cur != nil; cur = cur.extension {
		if f := cur.byTagLocal(tag); f != nil {
			return f
		}
	}
	return nil
}

func (d *Descriptor) byTagLocal(tag uint32) *FieldDescriptor {
	n := len(d.Fields)
	if n == 0 {
		return nil
	}

	i := int(tag)
	if i > n {
		i = n
	}
	i-- // min(tag, len) - 1
	if i < 0 {
		return nil
	}

	for ; i >= 0; i-- {
		f := d.Fields[i]
		if f.Tag == tag {
			return f
		}
		if f.Tag < tag {
			return nil
		}
	}
	return nil
}

// ByName looks up a field by name, scanning the base table then each
// extension descriptor's table in chain order.
func (d *Descriptor) ByName(name string) *FieldDescriptor {
	for cur := d; cur != nil; cur = cur.extension {
		for _, f := range cur.Fields {
			if f.Name == name {
				return f
			}
		}
	}
	return nil
}

// Extend appends ext to d's extension chain (at the tail, preserving the
// order extensions were linked in).
func (d *Descriptor) Extend(ext *Descriptor) {
	cur := d
	for cur.extension != nil {
		cur = cur.extension
	}
	cur.extension = ext
}

// Reset truncates d's extension chain, so the descriptor returns to
// exactly its base fields. Callers use this to avoid leaking extension
// links across a reload.
func (d *Descriptor) Reset() {
	d.extension = nil
}

// OneofDescriptor names a oneof group: a back-pointer to its containing
// message descriptor and the ordered set of member field tags.
type OneofDescriptor struct {
	Name    string
	Message *Descriptor
	Tags    []uint32 // ascending, one entry per member field
}

// EnumValue is one (number, name) pair of an enum descriptor.
type EnumValue struct {
	Number int32
	Name   string
}

// EnumDescriptor is an ordered set of (number, name) pairs. Lookup by
// number mirrors the field-by-tag strategy, since enum value numbers are
// also generated in ascending order.
type EnumDescriptor struct {
	Name   string
	Values []EnumValue // ascending Number order
}

// ByNumber looks up an enum value by its number using the same
// min(n,len)-1-then-walk-left strategy as Descriptor.ByTag.
func (e *EnumDescriptor) ByNumber(number int32) (EnumValue, bool) {
	n := len(e.Values)
	if n == 0 {
		return EnumValue{}, false
	}

	i := n
	if number >= 0 && int(number) < n {
		i = int(number)
	}
	i-- // min-ish index; enum numbers need not be contiguous so we still walk
	if i < 0 {
		i = n - 1
	}

	for ; i >= 0; i-- {
		v := e.Values[i]
		if v.Number == number {
			return v, true
		}
		if v.Number < number {
			break
		}
	}
	// The walk-left can stop short of a present number: it starts at index
	// number-1, so in a table starting at 0 (index k holding number k) it
	// starts one slot to the left of the match, and negative numbers start
	// from the last index. Fall back to a linear scan from the front so
	// every present number is found.
	for _, v := range e.Values {
		if v.Number == number {
			return v, true
		}
	}
	return EnumValue{}, false
}
