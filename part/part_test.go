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

package part_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protobluff/protobluff/buffer"
	"github.com/protobluff/protobluff/descriptor"
	"github.com/protobluff/protobluff/journal"
	"github.com/protobluff/protobluff/part"
	"github.com/protobluff/protobluff/wire"
)

// outer { string name = 1; inner child = 2; int32 count = 3 }
// inner  { int32 id = 1 }
func testDescriptors() (outer, inner *descriptor.Descriptor) {
	inner = &descriptor.Descriptor{
		Name: "inner",
		Fields: []*descriptor.FieldDescriptor{
			{Tag: 1, Name: "id", Type: wire.Int32},
		},
	}
	outer = &descriptor.Descriptor{
		Name: "outer",
		Fields: []*descriptor.FieldDescriptor{
			{Tag: 1, Name: "name", Type: wire.String},
			{Tag: 2, Name: "child", Type: wire.Message, Message: inner},
			{Tag: 3, Name: "count", Type: wire.Int32},
			{Tag: 4, Name: "tag", Type: wire.UInt32, Label: descriptor.Repeated, Packed: true},
		},
	}
	return outer, inner
}

func newJournal(t *testing.T) *journal.Journal {
	t.Helper()
	b, err := buffer.Create(buffer.Heap, nil)
	require.NoError(t, err)
	return journal.New(b)
}

func TestCreateByTagInsertsInTagOrder(t *testing.T) {
	t.Parallel()

	outer, _ := testDescriptors()
	j := newJournal(t)
	root := part.Root(j)

	count, err := part.CreateByTag(root, outer, 3)
	require.NoError(t, err)
	require.True(t, root.Align())
	require.NoError(t, count.Write([]byte{42}))

	name, err := part.CreateByTag(root, outer, 1)
	require.NoError(t, err)
	require.NoError(t, name.Write([]byte("hi")))

	// name (tag 1) must now sit before count (tag 3) in the buffer.
	data := j.Buffer().Bytes()
	require.True(t, count.Align())
	assert.Less(t, name.Offset().Start, count.Offset().Start)
	assert.Contains(t, string(data), "hi")
}

func TestWriteCascadesSubmessageLengthPrefix(t *testing.T) {
	t.Parallel()

	outer, inner := testDescriptors()
	j := newJournal(t)
	root := part.Root(j)

	child, err := part.CreateByTag(root, outer, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, child.Offset().Len())

	id, err := part.CreateByTag(child, inner, 1)
	require.NoError(t, err)
	require.NoError(t, id.Write([]byte{1, 2, 3, 4, 5}))

	require.True(t, child.Align())
	assert.Equal(t, 5+1, child.Offset().Len(), "child's length prefix must grow to cover id's new tag+payload")

	// The length prefix byte itself must decode to the new payload size.
	data := j.Buffer().Bytes()
	lengthPos := child.Offset().Start + child.Offset().Diff.Length
	assert.Equal(t, byte(child.Offset().Len()), data[lengthPos])
}

func TestWriteGrowingPastOneByteVarintCascadesTwoLevels(t *testing.T) {
	t.Parallel()

	outer, inner := testDescriptors()
	j := newJournal(t)
	root := part.Root(j)

	child, err := part.CreateByTag(root, outer, 2)
	require.NoError(t, err)
	id, err := part.CreateByTag(child, inner, 1)
	require.NoError(t, err)

	// Grow id's payload past 127 bytes so id's own prefix, if it had one,
	// would widen; here it directly pushes child's length prefix from one
	// byte to two, which must itself be absorbed without corrupting root.
	big := make([]byte, 200)
	require.NoError(t, id.Write(big))

	require.True(t, root.Align())
	require.True(t, child.Align())
	assert.Equal(t, len(big)+1, child.Offset().Len())

	// The buffer must still parse: walk tag 2 from the root and land
	// exactly on child's current bounds.
	tag, wt, off, _, err := part.Step(j, root.Offset().Start, root.Offset().Start, root.Offset().End)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), tag)
	assert.Equal(t, wire.Length, wt)
	assert.Equal(t, child.Offset().Start, off.Start)
	assert.Equal(t, child.Offset().End, off.End)
}

func TestClearRemovesTagAndCascades(t *testing.T) {
	t.Parallel()

	outer, inner := testDescriptors()
	j := newJournal(t)
	root := part.Root(j)

	child, err := part.CreateByTag(root, outer, 2)
	require.NoError(t, err)
	id, err := part.CreateByTag(child, inner, 1)
	require.NoError(t, err)
	require.NoError(t, id.Write([]byte{9, 9, 9}))

	sizeBefore := j.Buffer().Len()
	require.NoError(t, id.Clear())
	assert.False(t, id.Valid())

	require.True(t, child.Align())
	assert.Equal(t, 0, child.Offset().Len())
	assert.Less(t, j.Buffer().Len(), sizeBefore)
}

func TestOneofExclusivityErasesOtherMember(t *testing.T) {
	t.Parallel()

	oneof := &descriptor.OneofDescriptor{Name: "which", Tags: []uint32{10, 11}}
	desc := &descriptor.Descriptor{
		Name: "msg",
		Fields: []*descriptor.FieldDescriptor{
			{Tag: 10, Name: "a", Type: wire.Int32, Label: descriptor.InOneof, Oneof: oneof},
			{Tag: 11, Name: "b", Type: wire.Int32, Label: descriptor.InOneof, Oneof: oneof},
		},
	}

	j := newJournal(t)
	root := part.Root(j)

	a, err := part.CreateByTag(root, desc, 10)
	require.NoError(t, err)
	require.NoError(t, a.Write([]byte{1}))

	b, err := part.CreateByTag(root, desc, 11)
	require.NoError(t, err)
	require.NoError(t, b.Write([]byte{2}))

	require.True(t, root.Align())
	// Only tag 11's occurrence should remain; tag 10 was erased when b was
	// created, since both are members of the same oneof.
	var sawTag10, sawTag11 bool
	pos := root.Offset().Start
	for pos < root.Offset().End {
		tag, _, _, next, err := part.Step(j, root.Offset().Start, pos, root.Offset().End)
		require.NoError(t, err)
		switch tag {
		case 10:
			sawTag10 = true
		case 11:
			sawTag11 = true
		}
		pos = next
	}
	assert.False(t, sawTag10)
	assert.True(t, sawTag11)
}

func TestCreateByTagReturnsExistingForNonRepeated(t *testing.T) {
	t.Parallel()

	outer, _ := testDescriptors()
	j := newJournal(t)
	root := part.Root(j)

	first, err := part.CreateByTag(root, outer, 3)
	require.NoError(t, err)
	require.NoError(t, first.Write([]byte{7}))

	second, err := part.CreateByTag(root, outer, 3)
	require.NoError(t, err)
	assert.Equal(t, first.Offset().Start, second.Offset().Start)
	assert.Equal(t, first.Offset().End, second.Offset().End)
}

func TestCreateByTagUnknownFieldFails(t *testing.T) {
	t.Parallel()

	outer, _ := testDescriptors()
	j := newJournal(t)
	root := part.Root(j)

	_, err := part.CreateByTag(root, outer, 99)
	assert.Error(t, err)
}

// TestCreateByTagInsertionPointStableAcrossCallOrder guards scanForTag's
// best-match tracking: with count (tag 3) created before name (tag 1), so
// that both sit in the buffer in tag order though created out of it,
// inserting child (tag 2) must land between them.
func TestCreateByTagInsertionPointStableAcrossCallOrder(t *testing.T) {
	t.Parallel()

	outer, _ := testDescriptors()
	j := newJournal(t)
	root := part.Root(j)

	count, err := part.CreateByTag(root, outer, 3)
	require.NoError(t, err)
	require.True(t, root.Align())
	require.NoError(t, count.Write([]byte{42}))

	name, err := part.CreateByTag(root, outer, 1)
	require.NoError(t, err)
	require.NoError(t, name.Write([]byte("hi")))

	child, err := part.CreateByTag(root, outer, 2)
	require.NoError(t, err)
	require.NoError(t, child.Write([]byte{9}))

	require.True(t, count.Align())
	assert.Less(t, name.Offset().Start, child.Offset().Start)
	assert.Less(t, child.Offset().Start, count.Offset().Start)
}

func TestPackedRepeatedFirstElementCreatesLengthEnvelope(t *testing.T) {
	t.Parallel()

	outer, _ := testDescriptors()
	j := newJournal(t)
	root := part.Root(j)

	elem, err := part.CreateByTag(root, outer, 4)
	require.NoError(t, err)
	require.NoError(t, elem.Write([]byte{7}))

	require.True(t, root.Align())
	tag, wt, off, _, err := part.Step(j, root.Offset().Start, root.Offset().Start, root.Offset().End)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), tag)
	assert.Equal(t, wire.Length, wt, "a packed field's envelope must wire as LENGTH even though its elements are VARINT")
	assert.Equal(t, 1, off.Len())
}

func TestPackedRepeatedSecondElementExtendsSameEnvelope(t *testing.T) {
	t.Parallel()

	outer, _ := testDescriptors()
	j := newJournal(t)
	root := part.Root(j)

	first, err := part.CreateByTag(root, outer, 4)
	require.NoError(t, err)
	require.NoError(t, first.Write([]byte{1}))

	second, err := part.CreateByTag(root, outer, 4)
	require.NoError(t, err)
	require.NoError(t, second.Write([]byte{2}))

	require.True(t, root.Align())
	var tags []uint32
	pos := root.Offset().Start
	for pos < root.Offset().End {
		tag, _, off, next, err := part.Step(j, root.Offset().Start, pos, root.Offset().End)
		require.NoError(t, err)
		tags = append(tags, tag)
		if tag == 4 {
			assert.Equal(t, 2, off.Len(), "both elements must live inside one envelope")
			assert.Equal(t, []byte{1, 2}, j.Buffer().Bytes()[off.Start:off.End])
		}
		pos = next
	}
	assert.Equal(t, []uint32{4}, tags, "extending the envelope must not emit a second tag 4 occurrence")
}
