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

package message_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protobluff/protobluff/buffer"
	"github.com/protobluff/protobluff/descriptor"
	"github.com/protobluff/protobluff/journal"
	"github.com/protobluff/protobluff/message"
	"github.com/protobluff/protobluff/varint"
	"github.com/protobluff/protobluff/wire"
)

func varintSize(v uint64) int {
	buf := make([]byte, varint.MaxLen64)
	return varint.PutUvarint(buf, v)
}

// cascadeSize recomputes m's total encoded size bottom-up from its own
// field values (tag 2's varint plus, if present, tag 11's nested
// message), rather than trusting the buffer's length directly: this is
// what the length-prefix cascade must keep consistent regardless of how
// many bytes the varint length prefixes themselves end up needing as
// nesting depth grows.
func cascadeSize(t *testing.T, m *message.Message) int {
	t.Helper()
	v, err := m.Get(2)
	require.NoError(t, err)
	size := varintSize(wire.Tag(2, wire.Varint)) + varintSize(v.Raw)

	if m.Has(11) {
		child, err := message.CreateWithin(m, 11)
		require.NoError(t, err)
		childLen := cascadeSize(t, child)
		size += varintSize(wire.Tag(11, wire.Length)) + varintSize(uint64(childLen)) + childLen
	}
	return size
}

// TestScenarioS1CreateThenReadSingleField: empty journal, one UINT32
// OPTIONAL field at tag 1. put(1, 127) then get(1) must yield 127, with
// the buffer containing exactly the two-byte tag+value encoding.
func TestScenarioS1CreateThenReadSingleField(t *testing.T) {
	t.Parallel()

	desc := &descriptor.Descriptor{
		Name:   "s1",
		Fields: []*descriptor.FieldDescriptor{{Tag: 1, Name: "v", Type: wire.UInt32}},
	}
	j := newJournal(t)
	m := message.Create(desc, j)

	require.NoError(t, m.Put(1, message.Value{Raw: 127}))
	v, err := m.Get(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(127), v.Raw)
	assert.Equal(t, []byte{0x08, 0x7F}, j.Buffer().Bytes())
}

// TestScenarioS2DefaultEmissionOnAbsent: two OPTIONAL fields with large
// defaults; reading either from an empty journal must yield its default
// rather than errs.Absent.
func TestScenarioS2DefaultEmissionOnAbsent(t *testing.T) {
	t.Parallel()

	desc := &descriptor.Descriptor{
		Name: "s2",
		Fields: []*descriptor.FieldDescriptor{
			{Tag: 1, Name: "v32", Type: wire.UInt32, Default: uint32(1000000000)},
			{Tag: 2, Name: "v64", Type: wire.UInt64, Default: uint64(1000000000000000000)},
		},
	}
	j := newJournal(t)
	m := message.Create(desc, j)

	v32, err := m.Get(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000000000), v32.Raw)

	v64, err := m.Get(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000000000000000000), v64.Raw)
}

// TestScenarioS3NestedLengthPrefixCascade builds a 100-level chain of
// submessages (tag 11 nested within itself, each level also carrying a
// tag-2 depth marker) and checks every prefix of the chain reads back its
// depth, plus that the buffer size equals the sum of every level's
// tag+length+payload bytes.
func TestScenarioS3NestedLengthPrefixCascade(t *testing.T) {
	t.Parallel()

	const depth = 100
	var level *descriptor.Descriptor
	for i := 0; i < depth; i++ {
		next := &descriptor.Descriptor{Name: fmt.Sprintf("level%d", i)}
		next.Fields = []*descriptor.FieldDescriptor{
			{Tag: 2, Name: "depth", Type: wire.UInt64},
			{Tag: 11, Name: "child", Type: wire.Message, Message: level},
		}
		level = next
	}
	root := level

	j := newJournal(t)
	m := message.Create(root, j)

	cur := m
	tags := make([]uint32, 0, depth)
	for i := 0; i < depth; i++ {
		require.NoError(t, cur.Put(2, message.Value{Raw: uint64(i)}))
		tags = append(tags, 11)
		if i == depth-1 {
			break
		}
		next, err := message.CreateWithin(cur, 11)
		require.NoError(t, err)
		cur = next
	}

	// Walk every prefix of the chain via NestedGet and check its depth.
	for k := 1; k <= depth; k++ {
		prefix := tags[:k-1]
		v, err := m.NestedGet(prefix, 2)
		require.NoError(t, err, "prefix length %d", k)
		assert.Equal(t, uint64(k-1), v.Raw, "prefix length %d", k)
	}

	// The buffer's total size must equal the root's own cascade-computed
	// size: every ancestor's declared length prefix must track its actual
	// payload size, even once outer levels' cumulative payload grows past
	// a one-byte varint length (property spec.md §8 item 7).
	assert.Equal(t, cascadeSize(t, m), j.Buffer().Len())
}

// TestScenarioS4OneofExclusivity: a oneof with members at tags 3, 4, 6
// (plus a MESSAGE-typed member at 12), buffer initially holding tag 3.
// Creating tag 4 must erase tag 3 and make the oneof report case 4.
func TestScenarioS4OneofExclusivity(t *testing.T) {
	t.Parallel()

	sub := &descriptor.Descriptor{Name: "s4sub"}
	o := &descriptor.OneofDescriptor{Name: "o", Tags: []uint32{3, 4, 6, 12}}
	desc := &descriptor.Descriptor{
		Name: "s4",
		Fields: []*descriptor.FieldDescriptor{
			{Tag: 3, Name: "a", Type: wire.UInt32, Label: descriptor.InOneof, Oneof: o},
			{Tag: 4, Name: "b", Type: wire.UInt32, Label: descriptor.InOneof, Oneof: o},
			{Tag: 6, Name: "c", Type: wire.UInt32, Label: descriptor.InOneof, Oneof: o},
			{Tag: 12, Name: "d", Type: wire.Message, Message: sub, Label: descriptor.InOneof, Oneof: o},
		},
		Oneofs: []*descriptor.OneofDescriptor{o},
	}
	o.Message = desc

	j := newJournal(t)
	m := message.Create(desc, j)
	require.NoError(t, m.Put(3, message.Value{Raw: 127}))
	assert.Equal(t, []byte{0x18, 0x7F}, j.Buffer().Bytes())

	require.NoError(t, m.Put(4, message.Value{Raw: 9}))

	assert.False(t, m.Has(3))
	assert.True(t, m.Has(4))

	oo := message.CreateOneof(o, m)
	tag, ok := oo.Case()
	require.True(t, ok)
	assert.Equal(t, uint32(4), tag)
}

// TestScenarioS5EraseOfMergedMessage: a buffer holding two occurrences of
// tag 1 (merged-message duplication); erasing the tag must remove both
// and leave the buffer empty.
func TestScenarioS5EraseOfMergedMessage(t *testing.T) {
	t.Parallel()

	desc := &descriptor.Descriptor{
		Name:   "s5",
		Fields: []*descriptor.FieldDescriptor{{Tag: 1, Name: "v", Type: wire.UInt32}},
	}
	b, err := buffer.Create(buffer.Heap, []byte{0x08, 0x7F, 0x08, 0x7F})
	require.NoError(t, err)
	j := journal.New(b)
	m := message.Create(desc, j)

	require.NoError(t, m.Erase(1))
	assert.Equal(t, 0, j.Buffer().Len())
	assert.False(t, m.Has(1))
}

// TestScenarioS6PackedVsUnpackedReadEquivalence: a repeated packed uint32
// field encoded packed in one buffer and unpacked in another must both
// yield the same two values when read through Message.Values.
func TestScenarioS6PackedVsUnpackedReadEquivalence(t *testing.T) {
	t.Parallel()

	desc := &descriptor.Descriptor{
		Name: "s6",
		Fields: []*descriptor.FieldDescriptor{
			{Tag: 10, Name: "v", Type: wire.UInt32, Label: descriptor.Repeated, Packed: true},
		},
	}

	packedBuf, err := buffer.Create(buffer.Heap, []byte{0x52, 0x02, 0x7F, 0x7F})
	require.NoError(t, err)
	packedMsg := message.Create(desc, journal.New(packedBuf))

	unpackedBuf, err := buffer.Create(buffer.Heap, []byte{0x50, 0x7F, 0x50, 0x7F})
	require.NoError(t, err)
	unpackedMsg := message.Create(desc, journal.New(unpackedBuf))

	packedValues, err := packedMsg.Values(10)
	require.NoError(t, err)
	unpackedValues, err := unpackedMsg.Values(10)
	require.NoError(t, err)

	want := []message.Value{{Raw: 127}, {Raw: 127}}
	assert.Equal(t, want, packedValues)
	assert.Equal(t, want, unpackedValues)
}
