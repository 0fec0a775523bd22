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

package semantic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protobluff/protobluff/codec"
	"github.com/protobluff/protobluff/descriptor"
	"github.com/protobluff/protobluff/validator/semantic"
	"github.com/protobluff/protobluff/wire"
)

// person { string name = 1; address home = 2; repeated uint32 scores = 3 [packed]; }
// address { string city = 1; }
func testSchema() (person, address *descriptor.Descriptor) {
	address = &descriptor.Descriptor{
		Name: "address",
		Fields: []*descriptor.FieldDescriptor{
			{Tag: 1, Name: "city", Type: wire.String},
		},
	}
	person = &descriptor.Descriptor{
		Name: "person",
		Fields: []*descriptor.FieldDescriptor{
			{Tag: 1, Name: "name", Type: wire.String},
			{Tag: 2, Name: "home", Type: wire.Message, Message: address},
			{Tag: 3, Name: "scores", Type: wire.UInt32, Label: descriptor.Repeated, Packed: true},
		},
	}
	return person, address
}

func TestValidatePassesWithNoConstraintsRegistered(t *testing.T) {
	t.Parallel()

	person, _ := testSchema()
	e := codec.NewEncoder()
	e.PutBytes(1, []byte("ada"))
	require.NoError(t, e.PutPacked(3, wire.UInt32, []uint64{1, 2}))

	err := semantic.Validate(person, e.Bytes())
	assert.NoError(t, err, "no buf.validate constraints are attached to this translated schema, so Validate should report none")
}

func TestValidateRecursesIntoNestedMessage(t *testing.T) {
	t.Parallel()

	person, _ := testSchema()
	child := codec.NewEncoder()
	child.PutBytes(1, []byte("nyc"))

	e := codec.NewEncoder()
	e.PutMessage(2, child)

	err := semantic.Validate(person, e.Bytes())
	assert.NoError(t, err)
}
