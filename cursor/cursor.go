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

// Package cursor implements a descriptor-filtered iterator over a
// message's child parts: repeatedly re-reading tag varints from the live
// buffer rather than walking a materialized field list, so it always sees
// the message as of its own last alignment.
package cursor

import (
	"math"

	"github.com/protobluff/protobluff/errs"
	"github.com/protobluff/protobluff/part"
	"github.com/protobluff/protobluff/stream"
	"github.com/protobluff/protobluff/wire"
)

// position holds one occurrence the cursor currently sits on.
type position struct {
	tag uint32
	wt  wire.Type
	off part.PartOffset
}

// Cursor walks the occurrences of one field (or, with tag 0, every field)
// of a message, re-deriving positions from the live wire bytes on each
// step rather than caching a parsed field list.
type Cursor struct {
	msg *part.Part
	tag uint32 // 0 means match any tag

	current position
	version uint64 // journal version current.off was last aligned to
	pos     uint64 // monotonic step counter; SIZE_MAX sentinel before the first Next
	err     errs.Kind
}

const beforeFirst = math.MaxUint64

// Create builds a cursor over msg's occurrences of tag (0 for every
// field), positioned at the first match.
func Create(msg *part.Part, tag uint32) *Cursor {
	c := &Cursor{msg: msg, tag: tag, pos: beforeFirst, version: msg.Journal().Version()}
	c.current.off = part.PartOffset{Start: msg.Offset().Start, End: msg.Offset().Start}
	c.Next()
	return c
}

// Tag returns the tag of the occurrence the cursor currently sits on.
func (c *Cursor) Tag() uint32 {
	return c.current.tag
}

// Offset returns the current occurrence's PartOffset.
func (c *Cursor) Offset() part.PartOffset {
	return c.current.off
}

// Err returns the error set by the most recent failed Next, or errs.None.
func (c *Cursor) Err() errs.Kind {
	return c.err
}

// Valid reports whether the cursor currently sits on a real occurrence
// (false immediately after exhaustion or an alignment failure).
func (c *Cursor) Valid() bool {
	return c.err == errs.None
}

// align brings the cursor's embedded message up to date, then translates
// current.off the same way, per spec.md §4.5.
func (c *Cursor) align() bool {
	if !c.msg.Align() {
		c.err = errs.Invalid
		return false
	}

	p := part.FromOffset(c.msg.Journal(), c.version, c.current.off, c.msg)
	if !p.Align() {
		c.err = errs.Invalid
		return false
	}
	c.current.off = p.Offset()
	c.version = p.Version()
	return true
}

// Next advances the cursor to the next occurrence matching its tag filter
// (or any tag, if the filter is 0), scanning forward from the current
// occurrence's end. It returns false and sets Err to errs.EndOfMessage on
// exhaustion.
func (c *Cursor) Next() bool {
	if !c.align() {
		return false
	}

	msgOff := c.msg.Offset()
	pos := c.current.off.End
	if c.pos == beforeFirst {
		pos = msgOff.Start
	}

	for pos < msgOff.End {
		tag, wt, off, next, err := part.Step(c.msg.Journal(), msgOff.Start, pos, msgOff.End)
		if err != nil {
			c.err = errs.Offset
			return false
		}
		if c.tag == 0 || tag == c.tag {
			c.current = position{tag: tag, wt: wt, off: off}
			c.version = c.msg.Journal().Version()
			c.pos++
			c.err = errs.None
			return true
		}
		pos = next
	}

	c.err = errs.EndOfMessage
	return false
}

// Rewind resets the cursor to its initial position and re-runs Next.
func (c *Cursor) Rewind() bool {
	c.pos = beforeFirst
	c.version = c.msg.Journal().Version()
	c.current.off = part.PartOffset{Start: c.msg.Offset().Start, End: c.msg.Offset().Start}
	return c.Next()
}

// Seek advances the cursor, starting from its current position, until
// Match(value) holds or the message is exhausted.
func (c *Cursor) Seek(value *stream.Value) bool {
	for c.Valid() {
		if c.Match(value) {
			return true
		}
		if !c.Next() {
			return false
		}
	}
	return false
}

// Match reads the current occurrence and compares it to value, dispatched
// by wire type: Raw for varint/fixed32/fixed64, byte-for-byte for
// length-delimited views.
func (c *Cursor) Match(value *stream.Value) bool {
	if !c.Valid() || !c.align() {
		return false
	}
	got, wt, err := c.read()
	if err != nil {
		return false
	}
	if wt == wire.Length {
		a := got.View.Bytes(c.msg.Journal().Buffer())
		b := value.View.Bytes(c.msg.Journal().Buffer())
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
	return got.Raw == value.Raw
}

// read re-decodes the current occurrence's payload as a stream.Value,
// using the wire type part.Step recorded when the cursor last stepped
// onto it.
func (c *Cursor) read() (stream.Value, wire.Type, error) {
	off, wt := c.current.off, c.current.wt

	var v stream.Value
	if wt == wire.Length {
		v.View.Offset, v.View.Length = off.Start, off.Len()
		return v, wt, nil
	}

	st := stream.New(c.msg.Journal().Buffer(), off.Start)
	if err := st.Read(wt, &v); err != nil {
		return stream.Value{}, wt, err
	}
	return v, wt, nil
}

// Get reads the current occurrence into out.
func (c *Cursor) Get(out *stream.Value) error {
	if !c.Valid() {
		return errs.New(c.err)
	}
	if !c.align() {
		return errs.New(c.err)
	}
	v, _, err := c.read()
	if err != nil {
		return err
	}
	*out = v
	return nil
}

// Part returns a *part.Part over the current occurrence, for callers (the
// message/field layer) that need to Write or Clear it.
func (c *Cursor) Part() *part.Part {
	return part.FromOffset(c.msg.Journal(), c.version, c.current.off, c.msg)
}

// Erase clears the current occurrence. The next call to Next resumes
// scanning from the erased position, which after the shrink now holds
// whatever followed it.
func (c *Cursor) Erase() error {
	if !c.Valid() {
		return errs.New(c.err)
	}
	p := c.Part()
	if !p.Align() {
		c.err = errs.Invalid
		return errs.New(errs.Invalid)
	}
	eraseStart := p.Offset().Start + p.Offset().Diff.Tag
	if err := p.Clear(); err != nil {
		return err
	}
	// After the shrink, whatever followed the erased occurrence now begins
	// at eraseStart; resume scanning from there.
	c.current.off = part.PartOffset{Start: eraseStart, End: eraseStart}
	c.version = c.msg.Journal().Version()
	return nil
}
