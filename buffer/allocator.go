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

package buffer

import (
	"github.com/protobluff/protobluff/internal/arena"
	"github.com/protobluff/protobluff/internal/unsafe2"
)

// Allocator is the storage contract an owned [Buffer] resizes through. A
// Buffer never takes ownership of its Allocator: callers guarantee the
// allocator outlives every buffer built on it.
type Allocator interface {
	// Allocate returns size fresh bytes, or nil on failure.
	Allocate(size int) []byte

	// Resize returns a slice of exactly newSize bytes whose first
	// min(len(buf), newSize) bytes equal buf's corresponding prefix. It may
	// return buf itself (reslicing or growing in place) or a freshly
	// allocated block; callers must not assume either. Returns nil on
	// failure, in which case buf is unchanged.
	Resize(buf []byte, newSize int) []byte

	// Free releases buf. It is always legal to call Free with a slice this
	// Allocator never produced, in which case it is a no-op.
	Free(buf []byte)
}

// Heap is the default [Allocator]: an ordinary Go-heap-backed allocator
// whose Resize always preserves content by copying, the way every owned
// Buffer behaves unless a caller supplies something else.
var Heap Allocator = heapAllocator{}

type heapAllocator struct{}

func (heapAllocator) Allocate(size int) []byte {
	if size == 0 {
		return nil
	}
	return make([]byte, size)
}

func (heapAllocator) Resize(buf []byte, newSize int) []byte {
	if newSize == 0 {
		return nil
	}
	next := make([]byte, newSize)
	copy(next, buf)
	return next
}

func (heapAllocator) Free([]byte) {
	// The garbage collector reclaims heap-backed storage; nothing to do.
}

// ZeroCopyAllocator is the sentinel allocator a zero-copy [Buffer] is implicitly
// bound to: Allocate and Resize always fail (returning nil) and Free is a
// no-op, because a zero-copy buffer never owns the memory it views.
//
// CreateZeroCopy buffers do not actually dispatch through this value (they
// carry no allocator at all, since nothing may resize them), but it is
// exported for callers who need an Allocator value that behaves this way,
// e.g. to pass to generic code that expects the interface.
var ZeroCopyAllocator Allocator = zeroCopyAllocator{}

type zeroCopyAllocator struct{}

func (zeroCopyAllocator) Allocate(int) []byte       { return nil }
func (zeroCopyAllocator) Resize([]byte, int) []byte { return nil }
func (zeroCopyAllocator) Free([]byte)               {}

// Chunk is an arena-backed [Allocator] for batched small allocations with
// unordered free: individual Free calls are no-ops (the bump allocator
// underneath has no notion of freeing a single object), satisfying the
// "ordinary heap semantics" correctness bar the splice contract requires
// while giving amortized O(1) cost per small Allocate/Resize by growing the
// underlying arena in doubling blocks rather than calling into the Go
// allocator on every request.
//
// Call Reset to reclaim everything a Chunk has allocated at once; doing so
// invalidates every byte slice it ever returned.
type Chunk struct {
	arena arena.Arena
}

// NewChunk returns a ready-to-use Chunk allocator.
func NewChunk() *Chunk {
	return &Chunk{}
}

// Reset reclaims all memory this Chunk has allocated. Every slice
// previously returned by Allocate/Resize must not be used after this call.
func (c *Chunk) Reset() {
	c.arena.Free()
}

func (c *Chunk) Allocate(size int) []byte {
	if size == 0 {
		return nil
	}
	p := c.arena.Alloc(size)
	return unsafe2.Slice(p, size)
}

func (c *Chunk) Resize(buf []byte, newSize int) []byte {
	if newSize == 0 {
		return nil
	}
	next := c.Allocate(newSize)
	copy(next, buf)
	return next
}

func (*Chunk) Free([]byte) {
	// Bump allocators reclaim in bulk via Reset, not per object.
}
