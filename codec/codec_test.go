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

package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protobluff/protobluff/codec"
	"github.com/protobluff/protobluff/descriptor"
	"github.com/protobluff/protobluff/internal/testdata"
	"github.com/protobluff/protobluff/wire"
)

// outer { string name = 1; inner child = 2; repeated uint32 scores = 3 [packed]; }
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
			{Tag: 3, Name: "scores", Type: wire.UInt32, Label: descriptor.Repeated, Packed: true},
		},
	}
	return outer, inner
}

func TestEncodeDecodeScalarRoundTrip(t *testing.T) {
	t.Parallel()

	outer, _ := testDescriptors()
	e := codec.NewEncoder()
	e.PutBytes(1, []byte("ada"))

	var got string
	err := codec.New(outer, e.Bytes()).Decode(func(f *descriptor.FieldDescriptor, v codec.Value) error {
		require.NotNil(t, f)
		assert.Equal(t, uint32(1), f.Tag)
		got = string(v.Bytes)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ada", got)
}

func TestEncodeDecodeNestedMessage(t *testing.T) {
	t.Parallel()

	outer, inner := testDescriptors()
	childEnc := codec.NewEncoder()
	childEnc.PutVarint(1, 42)

	e := codec.NewEncoder()
	e.PutMessage(2, childEnc)

	var id uint64
	err := codec.New(outer, e.Bytes()).Decode(func(f *descriptor.FieldDescriptor, v codec.Value) error {
		require.NotNil(t, f)
		require.Equal(t, uint32(2), f.Tag)
		require.NotNil(t, v.Sub)
		return v.Sub.Decode(func(cf *descriptor.FieldDescriptor, cv codec.Value) error {
			require.NotNil(t, cf)
			assert.Equal(t, uint32(1), cf.Tag)
			id = cv.Raw
			return nil
		})
	})
	require.NoError(t, err)
	_ = inner
	assert.Equal(t, uint64(42), id)
}

func TestEncodeDecodePackedRoundTrip(t *testing.T) {
	t.Parallel()

	outer, _ := testDescriptors()
	e := codec.NewEncoder()
	require.NoError(t, e.PutPacked(3, wire.UInt32, []uint64{1, 2, 3}))

	var got []uint64
	err := codec.New(outer, e.Bytes()).Decode(func(f *descriptor.FieldDescriptor, v codec.Value) error {
		require.NotNil(t, f)
		assert.Equal(t, uint32(3), f.Tag)
		got = append(got, v.Raw)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, got)
}

func TestDecodeUnknownFieldReportsNilDescriptor(t *testing.T) {
	t.Parallel()

	outer, _ := testDescriptors()
	e := codec.NewEncoder()
	e.PutVarint(99, 7)
	e.PutBytes(1, []byte("still here"))

	var sawUnknown bool
	var name string
	err := codec.New(outer, e.Bytes()).Decode(func(f *descriptor.FieldDescriptor, v codec.Value) error {
		if f == nil {
			sawUnknown = true
			return nil
		}
		name = string(v.Bytes)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, sawUnknown)
	assert.Equal(t, "still here", name)
}

func TestEncodeRejectsNonPackableType(t *testing.T) {
	t.Parallel()

	e := codec.NewEncoder()
	err := e.PutPacked(1, wire.String, []uint64{1})
	assert.Error(t, err)
}

// TestDecodeFixturesAgreeRegardlessOfEncoding decodes both the hex and
// protoscope specimens of each fixture and checks Decode reports the same
// field values from either, so a fixture's two textual forms are proven
// to actually describe the same wire bytes, not just visually similar.
func TestDecodeFixturesAgreeRegardlessOfEncoding(t *testing.T) {
	t.Parallel()

	outer, _ := testDescriptors()
	cases := testdata.Load(t)

	c := testdata.Find(t, cases, "scalar_string")
	for _, specimen := range c.Specimens {
		var got string
		err := codec.New(outer, specimen).Decode(func(f *descriptor.FieldDescriptor, v codec.Value) error {
			require.NotNil(t, f)
			got = string(v.Bytes)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ada", got)
	}

	p := testdata.Find(t, cases, "packed_varint")
	for _, specimen := range p.Specimens {
		var got []uint64
		err := codec.New(outer, specimen).Decode(func(f *descriptor.FieldDescriptor, v codec.Value) error {
			require.NotNil(t, f)
			assert.Equal(t, uint32(3), f.Tag, "fixture's packed tag must match the outer descriptor's scores field")
			got = append(got, v.Raw)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []uint64{300, 2}, got)
	}
}
