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

package testdata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protobluff/protobluff/internal/testdata"
)

func TestLoadResolvesHexAndProtoscopeToTheSameBytes(t *testing.T) {
	t.Parallel()

	cases := testdata.Load(t)
	c := testdata.Find(t, cases, "scalar_string")
	require.Len(t, c.Specimens, 2)
	assert.Equal(t, c.Specimens[0], c.Specimens[1], "hex and protoscope fixtures must describe identical wire bytes")
}

func TestLoadPackedVarintFixture(t *testing.T) {
	t.Parallel()

	cases := testdata.Load(t)
	c := testdata.Find(t, cases, "packed_varint")
	require.Len(t, c.Specimens, 2)
	assert.Equal(t, c.Specimens[0], c.Specimens[1])
}
