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

package message

import (
	"github.com/protobluff/protobluff/cursor"
	"github.com/protobluff/protobluff/descriptor"
)

// Oneof wraps a match-any cursor scoped to one oneof group's member
// tags, for Case (which member is present) and Clear (erase every
// member, used when creating a new member needs exclusivity — though
// [part.CreateByTag] already enforces that at the part layer; Clear here
// exists for callers that want to empty the group without selecting a
// new member).
type Oneof struct {
	desc *descriptor.OneofDescriptor
	msg  *Message
	c    *cursor.Cursor
}

// CreateOneof builds a Oneof over desc's member tags within msg, scanning
// every field (tag 0) since a oneof's members don't share one tag.
func CreateOneof(desc *descriptor.OneofDescriptor, msg *Message) *Oneof {
	return &Oneof{desc: desc, msg: msg, c: cursor.Create(msg.Part(), 0)}
}

func (o *Oneof) isMember(tag uint32) bool {
	for _, t := range o.desc.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Case scans the message and returns the tag of the last member of the
// oneof present in it, per merged-message "last occurrence wins"
// semantics, or (0, false) if no member is present.
func (o *Oneof) Case() (tag uint32, ok bool) {
	o.c.Rewind()
	for o.c.Valid() {
		if o.isMember(o.c.Tag()) {
			tag, ok = o.c.Tag(), true
		}
		o.c.Next()
	}
	return tag, ok
}

// Clear erases every occurrence of every member field of the oneof.
func (o *Oneof) Clear() error {
	o.c.Rewind()
	for o.c.Valid() {
		if o.isMember(o.c.Tag()) {
			if err := o.c.Erase(); err != nil {
				return err
			}
		}
		if !o.c.Next() {
			break
		}
	}
	return nil
}
