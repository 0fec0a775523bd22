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

// Package buffer implements the mutable byte container every higher layer of
// this module splices in place: an owned buffer backed by an [Allocator], a
// zero-copy buffer that borrows someone else's bytes, and the invalid zero
// value of Buffer.
package buffer

import (
	"github.com/protobluff/protobluff/errs"
	"github.com/protobluff/protobluff/internal/debug"
)

// Kind discriminates the three states a Buffer can be in.
type Kind uint8

const (
	// Invalid is the zero value of Buffer: no allocator, no data.
	Invalid Kind = iota
	// Owned means data was allocated (and may be grown/shrunk) through an
	// Allocator.
	Owned
	// ZeroCopy means data borrows memory this Buffer does not own; writes
	// that would change its size fail.
	ZeroCopy
)

func (k Kind) String() string {
	switch k {
	case Owned:
		return "owned"
	case ZeroCopy:
		return "zero-copy"
	default:
		return "invalid"
	}
}

// Buffer is a byte container that is one of: owned, zero-copy, or invalid.
//
// A valid owned buffer either has size 0 with nil data, or a positive size
// with data pointing at exactly that many allocated bytes. The zero Buffer
// is the invalid sentinel: Kind() == Invalid, every operation on it fails
// with [errs.Invalid].
type Buffer struct {
	kind  Kind
	alloc Allocator
	data  []byte
}

// Create copies src into a newly allocated owned buffer.
func Create(alloc Allocator, src []byte) (*Buffer, error) {
	if len(src) == 0 {
		return CreateEmpty(alloc), nil
	}

	data := alloc.Allocate(len(src))
	if data == nil {
		return nil, errs.New(errs.Alloc)
	}
	copy(data, src)

	debug.Log(nil, "buffer.create", "%d bytes via %T", len(src), alloc)
	return &Buffer{kind: Owned, alloc: alloc, data: data}, nil
}

// CreateEmpty returns a zero-length owned buffer that will allocate lazily
// on its first Grow/Write.
func CreateEmpty(alloc Allocator) *Buffer {
	return &Buffer{kind: Owned, alloc: alloc}
}

// CreateZeroCopy borrows data without copying it. The returned Buffer never
// reallocates: any Write/Grow/Clear that would change its length fails.
func CreateZeroCopy(data []byte) *Buffer {
	return &Buffer{kind: ZeroCopy, data: data}
}

// Kind reports which of the three Buffer states b is in.
func (b *Buffer) Kind() Kind {
	if b == nil {
		return Invalid
	}
	return b.kind
}

// Valid reports whether b is usable: not nil and not the invalid sentinel.
func (b *Buffer) Valid() bool {
	return b != nil && b.kind != Invalid
}

// Bytes returns the buffer's current contents. The slice must not be
// retained past the next mutating call: Write/Grow/Clear may reallocate.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// Len returns the buffer's current size in bytes.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Grow reserves n additional trailing bytes and returns a slice viewing
// them, or nil if the allocation fails (always the case for a zero-copy
// buffer, since growing changes its size).
func (b *Buffer) Grow(n int) []byte {
	if !b.Valid() || n < 0 {
		return nil
	}
	if n == 0 {
		return b.data[len(b.data):len(b.data)]
	}
	if b.kind == ZeroCopy {
		return nil
	}

	old := b.data
	grown := b.alloc.Resize(old, len(old)+n)
	if grown == nil {
		return nil
	}

	debug.Log(nil, "buffer.grow", "%d -> %d", len(old), len(grown))
	b.data = grown
	return b.data[len(old):]
}

// Write splices the byte range [start, end) with src, reallocating if
// len(src) != end-start. On success the buffer's size changes by exactly
// len(src) - (end - start). On any failure the buffer is left unchanged.
func (b *Buffer) Write(start, end int, src []byte) error {
	if !b.Valid() {
		return errs.New(errs.Invalid)
	}
	if start < 0 || start > end || end > len(b.data) {
		return errs.At(errs.Offset, start)
	}

	oldLen := len(b.data)
	delta := len(src) - (end - start)
	if delta == 0 {
		copy(b.data[start:end], src)
		return nil
	}
	if b.kind == ZeroCopy {
		// Zero-copy buffers only accept same-size splices.
		return errs.New(errs.Alloc)
	}
	newSize := oldLen + delta

	if delta > 0 {
		// Grow first so there is room for the shifted tail; next's first
		// oldLen bytes mirror b.data verbatim, so the shift below sees the
		// original tail regardless of whether next aliases b.data's backing
		// array or is a fresh block.
		next := b.alloc.Resize(b.data, newSize)
		if next == nil {
			return errs.New(errs.Alloc)
		}
		copy(next[end+delta:newSize], next[end:oldLen])
		copy(next[start:start+len(src)], src)

		debug.Log(nil, "buffer.write", "[%d:%d] <- %d bytes, size %d -> %d", start, end, len(src), oldLen, newSize)
		b.data = next
		return nil
	}

	// Shrinking: close the gap within the existing (still oldLen-sized)
	// storage first, then ask the allocator to truncate. Per the splice
	// contract, a failed shrink-resize is not a logical error: the buffer's
	// logical size still truncates, wasting capacity instead.
	copy(b.data[start:start+len(src)], src)
	copy(b.data[start+len(src):newSize], b.data[end:oldLen])

	if newSize == 0 {
		// Spec invariant: a zero-size owned buffer has nil data.
		b.data = nil
	} else if next := b.alloc.Resize(b.data[:newSize], newSize); next != nil {
		b.data = next
	} else {
		b.data = b.data[:newSize]
	}

	debug.Log(nil, "buffer.write", "[%d:%d] <- %d bytes, size %d -> %d", start, end, len(src), oldLen, newSize)
	return nil
}

// Clear shrink-splices [start, end) down to zero bytes. It is equivalent to
// Write(start, end, nil).
func (b *Buffer) Clear(start, end int) error {
	return b.Write(start, end, nil)
}

// Destroy releases an owned buffer's storage through its allocator. It is a
// no-op on a zero-copy or already-invalid buffer.
func (b *Buffer) Destroy() {
	if b == nil || b.kind != Owned {
		return
	}
	b.alloc.Free(b.data)
	b.data = nil
	b.kind = Invalid
}
