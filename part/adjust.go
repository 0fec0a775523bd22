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

package part

import (
	"github.com/protobluff/protobluff/errs"
	"github.com/protobluff/protobluff/varint"
)

// Write splices data into p's payload span, then cascades the resulting
// size change outward: first into p's own length prefix (if p is itself
// length-delimited), then into every enclosing length-delimited parent's
// prefix, per spec.md §4.6.2.
func (p *Part) Write(data []byte) error {
	if !p.Align() {
		return errs.New(errs.Invalid)
	}

	delta := len(data) - p.off.Len()
	if err := p.j.Write(p.off.Start, p.off.Start, p.off.End, data); err != nil {
		return err
	}
	if !p.Align() {
		return errs.New(errs.Invalid)
	}

	if p.off.Diff.Length != 0 {
		if err := p.adjustPrefix(&delta); err != nil {
			return err
		}
	}
	if delta != 0 {
		return cascadeParent(p.parent, delta)
	}
	return nil
}

// Clear erases p entirely: its tag byte, length prefix (if any), and
// payload, then cascades the shrink outward the same way Write does. p is
// invalidated. Other Parts over the same occurrence are not: the erase
// starts at the tag, before their payload, so Align only shifts them.
func (p *Part) Clear() error {
	if !p.Align() {
		return errs.New(errs.Invalid)
	}
	if p.packedEnvelope && p.parent != nil && p.parent.Align() && p.parent.off.Len() == p.off.Len() {
		// The element is all the envelope holds: clear the envelope itself.
		p.invalidate()
		return p.parent.Clear()
	}

	origin := p.off.Start + p.off.Diff.Origin
	eraseStart := p.off.Start + p.off.Diff.Tag
	eraseEnd := p.off.End
	delta := eraseStart - eraseEnd // negative: bytes removed
	parent := p.parent

	if err := p.j.Clear(origin, eraseStart, eraseEnd); err != nil {
		return err
	}
	p.invalidate()

	if delta == 0 {
		return nil
	}
	return cascadeParent(parent, delta)
}

// adjustPrefix re-encodes p's length prefix to match p's current payload
// size, splicing in a wider or narrower varint as needed, per spec.md
// §4.6.3. *delta is updated in place to include any change in the prefix's
// own byte length, so the caller can propagate the combined shift outward.
func (p *Part) adjustPrefix(delta *int) error {
	if p.off.Diff.Length == 0 {
		return nil
	}
	if !p.Align() {
		return errs.New(errs.Invalid)
	}

	lengthPos := p.off.Start + p.off.Diff.Length
	data := p.j.Buffer().Bytes()
	if lengthPos < 0 || lengthPos > len(data) {
		return errs.At(errs.Offset, lengthPos)
	}
	_, oldN := varint.Uvarint(data[lengthPos:])
	if oldN == 0 {
		return errs.At(errs.Varint, lengthPos)
	}

	buf := make([]byte, varint.MaxLen64)
	newN := varint.PutUvarint(buf, uint64(p.off.Len()))

	if err := p.j.Write(p.off.Start, lengthPos, lengthPos+oldN, buf[:newN]); err != nil {
		return err
	}
	if !p.Align() {
		return errs.New(errs.Invalid)
	}
	// The new prefix still begins at lengthPos; Align moved the anchor along
	// with the splice, which is only right for bytes inserted before it.
	p.off.Diff.Length = lengthPos - p.off.Start

	*delta += newN - oldN
	return nil
}

// cascadeParent propagates a net size change of delta outward through the
// chain of ancestor Parts starting at anc (innermost first), per spec.md
// §4.6.4-5. Each length-delimited ancestor re-encodes its own length
// prefix to match its current payload size and folds any resulting
// byte-width change of that prefix into delta before continuing outward.
//
// This walks Part.parent rather than rediscovering containment by
// re-Stepping the buffer's declared length bytes: Align's entry replay
// (part/offset.go's align/alignOne) grows or shrinks an ancestor's span
// for any edit nested inside it purely from journal history, independent
// of what that ancestor's own length prefix currently says on the wire —
// which matters because a freshly created ancestor's length prefix is
// still the zero placeholder createEmpty wrote at the moment its first
// inner field is populated.
func cascadeParent(anc *Part, delta int) error {
	for anc != nil && delta != 0 {
		if !anc.Align() {
			return errs.New(errs.Invalid)
		}
		if anc.off.Diff.Length != 0 {
			if err := anc.adjustPrefix(&delta); err != nil {
				return err
			}
		}
		anc = anc.parent
	}
	return nil
}
