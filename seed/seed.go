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

// Package seed builds a fresh, in-place-editable [journal.Journal] from a
// message a caller already has in some other marshaled form, so it can
// keep mutating from there instead of re-encoding from scratch.
package seed

import (
	"github.com/protobluff/protobluff/buffer"
	"github.com/protobluff/protobluff/journal"
)

// VTMarshaler is the minimal interface vtprotobuf generates on every
// message type compiled with it (`protoc-gen-go-vtproto`): a fast,
// reflection-free marshal path.
type VTMarshaler interface {
	MarshalVT() ([]byte, error)
}

// FromVT marshals msg via its generated VTMarshaler and seeds a new
// owned Journal from the resulting bytes, letting a caller who already
// has a vtprotobuf-enabled message switch to in-place editing without
// going through the slower reflection-based google.golang.org/protobuf
// marshaler first.
func FromVT(msg VTMarshaler) (*journal.Journal, error) {
	data, err := msg.MarshalVT()
	if err != nil {
		return nil, err
	}

	buf, err := buffer.Create(buffer.Heap, data)
	if err != nil {
		return nil, err
	}
	return journal.New(buf), nil
}
