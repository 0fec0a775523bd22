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

// Package errs defines the closed error taxonomy shared by every package in
// this module: buffer splices, journal writes, part alignment, stream reads,
// and the cursor/message API all fail with one of these kinds.
package errs

import "fmt"

// Kind is one of the eleven error kinds every fallible operation in this
// module reports through. Kind is deliberately small and comparable so
// callers can switch on it with errors.Is against the sentinel values below.
type Kind int

const (
	None Kind = iota
	Alloc
	Invalid
	Descriptor
	WireType
	Varint
	Offset
	Absent
	EndOfMessage
	Overflow
	Underrun
)

var names = [...]string{
	None:         "none",
	Alloc:        "allocation failed",
	Invalid:      "handle invalidated",
	Descriptor:   "no descriptor for tag",
	WireType:     "wire type mismatch",
	Varint:       "malformed varint",
	Offset:       "offset out of range",
	Absent:       "field absent, no default",
	EndOfMessage: "end of message",
	Overflow:     "varint overflow",
	Underrun:     "varint underrun",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(names) {
		return fmt.Sprintf("errs.Kind(%d)", int(k))
	}
	return names[k]
}

// Error wraps a Kind with the byte offset at which it occurred, when one is
// meaningful (stream reads, buffer splices). Offset is -1 when not
// applicable.
type Error struct {
	Kind   Kind
	Offset int
}

// New builds an Error with no associated offset.
func New(kind Kind) error {
	return &Error{Kind: kind, Offset: -1}
}

// At builds an Error with an associated byte offset.
func At(kind Kind, offset int) error {
	return &Error{Kind: kind, Offset: offset}
}

func (e *Error) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("protobluff: %v", e.Kind)
	}
	return fmt.Sprintf("protobluff: %v at offset %d/%#x", e.Kind, e.Offset, e.Offset)
}

// Is implements the errors.Is protocol so callers can write
// errors.Is(err, errs.ErrOffset) against the sentinel values declared
// below, or compare e.Kind == errs.Offset after an errors.As.
func (e *Error) Is(target error) bool {
	s, ok := target.(sentinel)
	return ok && e.Kind == Kind(s)
}

// sentinel lets the Kind constants double as errors.Is targets without
// each caller having to allocate an *Error just to compare kinds.
type sentinel Kind

func (s sentinel) Error() string { return Kind(s).String() }

// Sentinels for use with errors.Is(err, errs.ErrOffset) etc.
var (
	ErrAlloc        error = sentinel(Alloc)
	ErrInvalid      error = sentinel(Invalid)
	ErrDescriptor   error = sentinel(Descriptor)
	ErrWireType     error = sentinel(WireType)
	ErrVarint       error = sentinel(Varint)
	ErrOffset       error = sentinel(Offset)
	ErrAbsent       error = sentinel(Absent)
	ErrEndOfMessage error = sentinel(EndOfMessage)
	ErrOverflow     error = sentinel(Overflow)
	ErrUnderrun     error = sentinel(Underrun)
)
