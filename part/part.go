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

// Package part implements the central in-place mutation primitive: a
// versioned handle over a contiguous byte range in a journal's buffer,
// identified by tag and (if length-delimited) nested inside length-prefixed
// parents whose prefixes a write or clear must keep consistent.
package part

import (
	"github.com/protobluff/protobluff/descriptor"
	"github.com/protobluff/protobluff/errs"
	"github.com/protobluff/protobluff/journal"
	"github.com/protobluff/protobluff/stream"
	"github.com/protobluff/protobluff/varint"
	"github.com/protobluff/protobluff/wire"
)

// invalidBit is the top bit of Part.version, reserved as the INVALID flag.
const invalidBit = uint64(1) << 63

// Part is a versioned handle over a PartOffset: (journal, version, offset).
// A Part does not own its Journal; callers guarantee it outlives the Part.
type Part struct {
	j       *journal.Journal
	version uint64
	off     PartOffset

	// parent is the message (or packed envelope) Part this Part was
	// created within, nil for Root. Write/Clear cascade a size change
	// outward by walking this chain rather than rediscovering containment
	// by re-parsing the buffer, since an ancestor's declared length prefix
	// can still be a just-written placeholder at the moment its first
	// inner field is populated: Align's entry replay grows or shrinks an
	// ancestor's own span for any edit nested inside it independently of
	// what that ancestor's length prefix currently says.
	parent *Part

	// packedEnvelope marks a Part created to extend an existing
	// packed-repeated field's envelope: its payload lives directly inside
	// the envelope rather than behind its own tag, and its parent is the
	// envelope. Clear on such a part that is all the envelope holds clears
	// the envelope itself (tag and length prefix included); a Write that
	// empties it leaves a zero-length envelope in place.
	packedEnvelope bool
}

// Root returns the whole-buffer Part every other Part is ultimately nested
// within: start=0, end=buffer size, no anchors, no parent.
func Root(j *journal.Journal) *Part {
	return &Part{j: j, version: j.Version(), off: PartOffset{Start: 0, End: j.Buffer().Len()}}
}

// FromOffset builds a Part directly from a captured version and offset,
// e.g. a Cursor's current position, nested within parent (nil if the
// caller has none to offer, though that disables outward cascading for
// any Write/Clear through the returned Part).
func FromOffset(j *journal.Journal, version uint64, off PartOffset, parent *Part) *Part {
	return &Part{j: j, version: version, off: off, parent: parent}
}

// Journal returns the Part's journal.
func (p *Part) Journal() *journal.Journal {
	return p.j
}

// Offset returns the Part's PartOffset as of its last alignment. Call
// Align first to guarantee it reflects the journal's current version.
func (p *Part) Offset() PartOffset {
	return p.off
}

// Version returns the version this Part's offsets were last aligned to,
// with the INVALID bit masked off.
func (p *Part) Version() uint64 {
	return p.version &^ invalidBit
}

// Valid reports whether the Part has not been invalidated (erased out from
// under itself, or found start > end during alignment).
func (p *Part) Valid() bool {
	return p != nil && p.version&invalidBit == 0
}

func (p *Part) invalidate() {
	p.version |= invalidBit
}

// Align brings the Part's offsets up to the journal's current version by
// replaying every entry appended since the Part's captured version. It is
// a cheap no-op if the Part is already current. Returns false (and
// invalidates the Part) if replay finds the Part was erased.
func (p *Part) Align() bool {
	if !p.Valid() {
		return false
	}
	v := p.Version()
	cur := p.j.Version()
	if v == cur {
		return true
	}

	entries := p.j.EntriesFrom(v)
	off, ok := align(p.off, entries)
	p.off = off
	p.version = cur
	if !ok {
		p.invalidate()
		return false
	}
	return true
}

// Step reads one field occurrence starting at byte offset from, stopping
// no later than limit (normally the containing message's end). parentStart
// is the start of the message or envelope from is scanned within, used to
// fill the returned PartOffset's Diff.Origin. Step returns the decoded
// tag, its wire type, the payload's PartOffset (anchored back to its own
// tag/length bytes and its container's start), and the stream offset
// immediately after the occurrence.
func Step(j *journal.Journal, parentStart, from, limit int) (tag uint32, wt wire.Type, off PartOffset, next int, err error) {
	if from >= limit {
		return 0, 0, PartOffset{}, from, errs.New(errs.EndOfMessage)
	}

	st := stream.New(j.Buffer(), from)
	tagPos := from
	tag, wt, err = st.ReadTag()
	if err != nil {
		return 0, 0, PartOffset{}, from, err
	}

	var v stream.Value
	if wt == wire.Length {
		lenPos := st.Offset()
		if err := st.Read(wire.Length, &v); err != nil {
			return 0, 0, PartOffset{}, from, err
		}
		off = PartOffset{
			Start: v.View.Offset,
			End:   v.View.End(),
			Diff:  Diff{Tag: tagPos - v.View.Offset, Length: lenPos - v.View.Offset},
		}
	} else {
		payloadStart := st.Offset()
		if err := st.Read(wt, &v); err != nil {
			return 0, 0, PartOffset{}, from, err
		}
		off = PartOffset{
			Start: payloadStart,
			End:   st.Offset(),
			Diff:  Diff{Tag: tagPos - payloadStart},
		}
	}
	off.Diff.Origin = parentStart - off.Start

	if off.End > limit {
		return 0, 0, PartOffset{}, from, errs.At(errs.Offset, from)
	}
	return tag, wt, off, st.Offset(), nil
}

func isOneofMember(o *descriptor.OneofDescriptor, tag uint32) bool {
	for _, t := range o.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CreateByTag implements the central insertion algorithm (spec.md §4.6.1):
// given a message Part msg and a tag, it returns either the existing
// occurrence (merged-message semantics: last occurrence wins) or a freshly
// inserted, empty Part positioned at the best-match insertion point, with
// its tag (and zero length-prefix, if length-delimited) already written.
func CreateByTag(msg *Part, desc *descriptor.Descriptor, tag uint32) (*Part, error) {
	f := desc.ByTag(tag)
	if f == nil {
		return nil, errs.New(errs.Descriptor)
	}
	if !msg.Align() {
		return nil, errs.New(errs.Invalid)
	}

	if f.Oneof != nil {
		if err := eraseOtherOneofMembers(msg, f.Oneof, tag); err != nil {
			return nil, err
		}
	}

	best, existing, err := scanForTag(msg, tag)
	if err != nil {
		return nil, err
	}

	if existing != nil && f.Label != descriptor.Repeated {
		return &Part{j: msg.j, version: msg.j.Version(), off: existing.off, parent: msg}, nil
	}

	if existing != nil && f.Label == descriptor.Repeated && f.Packed {
		// Extend the existing envelope's payload in place; the new
		// element carries no tag/length of its own.
		insertAt := existing.off.End
		envelope := &Part{j: msg.j, version: msg.j.Version(), off: existing.off, parent: msg}
		return &Part{
			j:       msg.j,
			version: msg.j.Version(),
			off: PartOffset{
				Start: insertAt,
				End:   insertAt,
				Diff:  Diff{Origin: existing.off.Start - insertAt},
			},
			parent:         envelope,
			packedEnvelope: true,
		}, nil
	}

	insertAt := msg.off.Start
	if best != nil {
		insertAt = best.off.End
	}
	return createEmpty(msg, f, tag, insertAt)
}

type occurrence struct {
	tag uint32
	off PartOffset
}

// scanForTag walks msg's fields once, returning the last occurrence whose
// tag is <= the target (the best-match insertion point) and the occurrence
// exactly matching the target, if any (last one wins, per merged-message
// semantics).
//
// best is still tracked even once existing (an exact match) has been
// found, rather than stopping the scan early: a construction sequence
// that creates fields out of tag order can leave more than one <=-tag
// occurrence in the buffer before the target tag's own occurrence, and
// only the last one scanned is the correct insertion point for a new,
// not-yet-present tag between them. Kept as a guard against "optimizing"
// this into an early exit — see TestCreateByTagInsertionPointStableAcrossCallOrder.
func scanForTag(msg *Part, tag uint32) (best, existing *occurrence, err error) {
	pos := msg.off.Start
	for pos < msg.off.End {
		t, _, off, next, err := Step(msg.j, msg.off.Start, pos, msg.off.End)
		if err != nil {
			return nil, nil, err
		}
		if t <= tag {
			o := occurrence{t, off}
			best = &o
		}
		if t == tag {
			o := occurrence{t, off}
			existing = &o
		}
		pos = next
	}
	return best, existing, nil
}

// eraseOtherOneofMembers clears every occurrence of any member of o other
// than tag, restarting the scan after each erase since it shifts offsets.
func eraseOtherOneofMembers(msg *Part, o *descriptor.OneofDescriptor, tag uint32) error {
	for {
		if !msg.Align() {
			return errs.New(errs.Invalid)
		}

		pos := msg.off.Start
		erased := false
		for pos < msg.off.End {
			t, _, off, next, err := Step(msg.j, msg.off.Start, pos, msg.off.End)
			if err != nil {
				return err
			}
			if t != tag && isOneofMember(o, t) {
				victim := &Part{j: msg.j, version: msg.j.Version(), off: off, parent: msg}
				if err := victim.Clear(); err != nil {
					return err
				}
				erased = true
				break
			}
			pos = next
		}
		if !erased {
			return nil
		}
	}
}

// createEmpty writes a zero-length occurrence of field f at insertAt,
// emitting its tag varint (and a zero length-prefix if length-delimited),
// and returns a Part whose payload is the (now-empty) span just after
// those header bytes.
func createEmpty(msg *Part, f *descriptor.FieldDescriptor, tag uint32, insertAt int) (*Part, error) {
	wt := f.Type.WireType()
	if f.Label == descriptor.Repeated && f.Packed {
		// The envelope itself is always length-delimited on the wire, even
		// though each element inside it encodes with the scalar's own wire
		// type (e.g. a packed repeated uint32 is a LENGTH tag wrapping a
		// run of concatenated VARINTs).
		wt = wire.Length
	}
	tagBuf := make([]byte, varint.MaxLen64)
	n := varint.PutUvarint(tagBuf, wire.Tag(tag, wt))
	header := tagBuf[:n]

	diffTag := -n
	diffLength := 0
	if wt == wire.Length {
		header = append(header, 0) // zero length-prefix varint
		diffLength = -1
		diffTag = -(n + 1)
	}

	if err := msg.j.Write(msg.off.Start, insertAt, insertAt, header); err != nil {
		return nil, err
	}
	if !msg.Align() {
		return nil, errs.New(errs.Invalid)
	}

	payloadStart := insertAt + len(header)
	return &Part{
		j:       msg.j,
		version: msg.j.Version(),
		off: PartOffset{
			Start: payloadStart,
			End:   payloadStart,
			Diff:  Diff{Origin: msg.off.Start - payloadStart, Tag: diffTag, Length: diffLength},
		},
		parent: msg,
	}, nil
}
