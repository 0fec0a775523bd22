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

// View is a zero-copy descriptor of a length-delimited span inside a
// Buffer: an (offset, length) pair rather than a materialized slice. Stream
// reads of string/bytes/submessage fields hand back a View instead of
// copying, so callers that only need the length (a prefix re-check during
// alignment, say) never have to touch the bytes themselves.
type View struct {
	Offset int
	Length int
}

// End returns Offset + Length.
func (v View) End() int {
	return v.Offset + v.Length
}

// Bytes resolves v against b. The returned slice aliases b's storage and,
// like [Buffer.Bytes], must not be retained across a mutating call.
func (v View) Bytes(b *Buffer) []byte {
	data := b.Bytes()
	if v.Offset < 0 || v.End() > len(data) {
		return nil
	}
	return data[v.Offset:v.End()]
}
