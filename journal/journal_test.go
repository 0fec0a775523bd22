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

package journal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protobluff/protobluff/buffer"
	"github.com/protobluff/protobluff/errs"
	"github.com/protobluff/protobluff/journal"
)

func newJournal(t *testing.T, data []byte) *journal.Journal {
	t.Helper()
	b, err := buffer.Create(buffer.Heap, data)
	require.NoError(t, err)
	return journal.New(b)
}

func TestVersionTracksLogLength(t *testing.T) {
	t.Parallel()

	j := newJournal(t, []byte{1, 2, 3})
	assert.Equal(t, uint64(0), j.Version())

	require.NoError(t, j.Write(0, 1, 1, []byte{9, 9}))
	assert.Equal(t, uint64(1), j.Version())
	assert.Equal(t, []byte{1, 9, 9, 2, 3}, j.Buffer().Bytes())

	require.NoError(t, j.Clear(0, 0, 1))
	assert.Equal(t, uint64(2), j.Version())
}

func TestEntriesFromReplaySequence(t *testing.T) {
	t.Parallel()

	j := newJournal(t, []byte{1, 2, 3, 4})
	require.NoError(t, j.Write(0, 2, 2, []byte{0xAA})) // insert at offset 2, delta +1
	require.NoError(t, j.Write(0, 0, 0, []byte{0xBB})) // insert at offset 0, delta +1

	entries := j.EntriesFrom(0)
	require.Len(t, entries, 2)
	assert.Equal(t, journal.Entry{Origin: 0, Offset: 2, Delta: 1}, entries[0])
	assert.Equal(t, journal.Entry{Origin: 0, Offset: 0, Delta: 1}, entries[1])

	assert.Len(t, j.EntriesFrom(1), 1)
	assert.Len(t, j.EntriesFrom(2), 0)
}

func TestWriteFailureRevertsEntry(t *testing.T) {
	t.Parallel()

	data := []byte{1, 2, 3}
	b := buffer.CreateZeroCopy(data)
	j := journal.New(b)

	// Zero-copy buffers reject any resizing splice.
	err := j.Write(0, 1, 1, []byte{9, 9})
	assert.ErrorIs(t, err, errs.ErrAlloc)
	assert.Equal(t, uint64(0), j.Version(), "failed write must revert the speculative entry")
}

func TestWriteOffsetValidation(t *testing.T) {
	t.Parallel()

	j := newJournal(t, []byte{1, 2, 3})
	assert.ErrorIs(t, j.Write(0, -1, 0, nil), errs.ErrOffset)
	assert.ErrorIs(t, j.Write(0, 2, 1, nil), errs.ErrOffset)
	assert.ErrorIs(t, j.Write(0, 0, 10, nil), errs.ErrOffset)
	assert.Equal(t, uint64(0), j.Version())
}

func TestRevertOnEmptyLogIsNoop(t *testing.T) {
	t.Parallel()

	j := newJournal(t, []byte{1})
	j.Revert()
	assert.Equal(t, uint64(0), j.Version())
}

func TestInvalidJournal(t *testing.T) {
	t.Parallel()

	var b buffer.Buffer
	j := journal.New(&b)
	assert.False(t, j.Valid())
	assert.ErrorIs(t, j.Write(0, 0, 0, nil), errs.ErrInvalid)
}
