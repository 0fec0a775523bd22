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

// Package journal implements the versioned edit log every in-place
// mutation goes through: a Journal wraps a Buffer, bumps its version on
// every splice, and appends an Entry recording what moved so that stale
// Part offsets can be translated forward to the current version.
package journal

import (
	"github.com/google/uuid"

	"github.com/protobluff/protobluff/buffer"
	"github.com/protobluff/protobluff/errs"
	"github.com/protobluff/protobluff/internal/debug"
)

// Entry records one buffer splice: at byte Offset, Delta bytes were
// inserted (positive) or removed (negative). Origin records the start of
// the logical region the edit occurred within (the containing
// submessage's start, or a packed field's envelope start); alignment
// translates offsets from Offset and Delta alone and does not read it.
type Entry struct {
	Origin int
	Offset int
	Delta  int
}

// Journal is a Buffer plus a monotonically increasing version counter and
// an append-only log of Entry records. version always equals len(log); the
// last entry may be retracted once, immediately after it was appended, via
// Revert.
type Journal struct {
	buf *buffer.Buffer
	log []Entry

	// ID correlates this journal's debug log lines across a trace; it has
	// no effect on encoding/decoding.
	ID uuid.UUID
}

// New wraps buf in a fresh Journal at version 0.
func New(buf *buffer.Buffer) *Journal {
	return &Journal{buf: buf, ID: uuid.New()}
}

// Buffer returns the underlying Buffer.
func (j *Journal) Buffer() *buffer.Buffer {
	return j.buf
}

// Version returns the current version: the number of entries in the log.
func (j *Journal) Version() uint64 {
	return uint64(len(j.log))
}

// Valid reports whether the journal's buffer is valid. A journal is valid
// iff its buffer is valid.
func (j *Journal) Valid() bool {
	return j.buf.Valid()
}

// EntriesFrom returns the slice of entries appended since version v,
// i.e. the replay sequence alignment needs to bring a Part captured at
// version v up to the current version. The returned slice aliases the
// journal's internal log and must not be retained past the next mutation.
func (j *Journal) EntriesFrom(v uint64) []Entry {
	if v > j.Version() {
		return nil
	}
	return j.log[v:]
}

// Revert retracts the most recently appended entry, restoring the prior
// version. It is only legal to call immediately after the entry that
// introduced it was appended (typically internally, when the buffer
// splice that followed an append failed); reverting an empty log is a
// no-op.
func (j *Journal) Revert() {
	if len(j.log) == 0 {
		return
	}
	j.log = j.log[:len(j.log)-1]
}

func (j *Journal) append(origin, offset, delta int) {
	j.log = append(j.log, Entry{Origin: origin, Offset: offset, Delta: delta})
	debug.Log([]any{"%v", j.ID}, "journal.append", "origin=%d offset=%d delta=%d -> v%d", origin, offset, delta, len(j.log))
}

// Write records an Entry for splicing [start, end) with data, then
// performs the splice. On buffer failure the entry is reverted and the
// error is propagated; the journal (and its buffer) are left unchanged.
func (j *Journal) Write(origin, start, end int, data []byte) error {
	if !j.Valid() {
		return errs.New(errs.Invalid)
	}
	if start < 0 || start > end || end > j.buf.Len() {
		return errs.At(errs.Offset, start)
	}

	delta := len(data) - (end - start)
	j.append(origin, start, delta)

	if err := j.buf.Write(start, end, data); err != nil {
		j.Revert()
		return err
	}
	return nil
}

// Clear is Write with an empty payload: it shrink-splices [start, end) to
// zero bytes.
func (j *Journal) Clear(origin, start, end int) error {
	return j.Write(origin, start, end, nil)
}
