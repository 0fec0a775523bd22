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

import "github.com/protobluff/protobluff/journal"

// Diff anchors a PartOffset's start to three byte positions that precede
// it in the buffer, as signed distances from start. A zero value in any
// field is a sentinel meaning "not applicable", not a literal position:
// Origin is zero for the root part, Tag is zero iff the part has no tag
// byte of its own, Length is zero for parts that aren't length-delimited.
type Diff struct {
	Origin int // distance from start to the containing message's start
	Tag    int // distance from start to this part's own tag-varint
	Length int // distance from start to this part's length-prefix varint
}

// PartOffset is the payload span [Start, End) of a Part, plus the anchors
// that let a length-prefix cascade find the part's tag and length bytes
// again after the payload itself has moved.
type PartOffset struct {
	Start, End int
	Diff       Diff
}

// Len returns the payload length End - Start.
func (o PartOffset) Len() int {
	return o.End - o.Start
}

// align replays journal entries [start, end) of the log over o, producing
// the PartOffset as of the journal's current version, per spec.md §4.5.
// The returned bool is false if replaying an entry erased o (Start > End).
func align(o PartOffset, entries []journal.Entry) (PartOffset, bool) {
	valid := true
	for _, e := range entries {
		o, valid = alignOne(o, e)
		if !valid {
			break
		}
	}
	return o, valid
}

func alignOne(o PartOffset, e journal.Entry) (PartOffset, bool) {
	start, end := o.Start, o.End

	switch {
	case e.Offset < start:
		// Case 1: fully before the part -- it translates wholesale.
		o.Start += e.Delta
		o.End += e.Delta

	case e.Offset > end:
		// Case 2: fully after the part -- no change.

	case e.Delta > 0:
		// Case 3: insertion within [start, end] grows the part; the new
		// bytes belong to it.
		o.End += e.Delta

	default:
		// Case 4: deletion within [start, end]. If it removes more than
		// the part has left past the edit point, the part is (partially)
		// erased.
		shrink := -e.Delta
		available := end - e.Offset
		o.End += e.Delta
		if shrink > available {
			return o, false
		}
	}

	o.Diff.Origin = alignAnchor(o.Diff.Origin, start, o.Start, e)
	o.Diff.Tag = alignAnchor(o.Diff.Tag, start, o.Start, e)
	o.Diff.Length = alignAnchor(o.Diff.Length, start, o.Start, e)

	return o, o.Start <= o.End
}

// alignAnchor translates one anchor diff across a single journal entry.
// diff==0 is the "not applicable" sentinel and is left untouched. An
// anchor whose absolute position precedes the edit point doesn't move;
// newStart may still have shifted (case 1), so the diff shrinks by delta
// to hold the anchor's absolute position fixed. An anchor at or after the
// edit point moves right along with it, so the diff (relative to the
// equally-shifted start) is unchanged.
func alignAnchor(diff, oldStart, newStart int, e journal.Entry) int {
	if diff == 0 {
		return 0
	}
	anchorAbs := oldStart + diff
	if anchorAbs < e.Offset {
		return (anchorAbs - newStart)
	}
	return (anchorAbs + e.Delta) - newStart
}
