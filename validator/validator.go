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

// Package validator implements a thin, descriptor-driven recursive
// required-field presence check. It deliberately stops at "is every
// proto2 required field present," going no further into cross-field or
// semantic constraints — see validator/semantic for that, wired as a
// separate, opt-in extension over a fully decoded message.
package validator

import (
	"fmt"

	"github.com/protobluff/protobluff/cursor"
	"github.com/protobluff/protobluff/descriptor"
	"github.com/protobluff/protobluff/errs"
	"github.com/protobluff/protobluff/message"
	"github.com/protobluff/protobluff/wire"
)

// CheckRequired recursively walks msg against its Descriptor, failing
// with [errs.Absent] (wrapped with the offending field's dotted path) at
// the first required field found missing, including inside every
// occurrence of a nested or repeated submessage field.
func CheckRequired(msg *message.Message) error {
	desc := msg.Descriptor()

	for _, f := range desc.Fields {
		if f.Label == descriptor.Required && !msg.Has(f.Tag) {
			return fmt.Errorf("%s.%s: %w", desc.Name, f.Name, errs.New(errs.Absent))
		}
		if f.Type != wire.Message || f.Message == nil {
			continue
		}

		c := cursor.Create(msg.Part(), f.Tag)
		for c.Valid() {
			sub := message.FromPart(f.Message, c.Part())
			if err := CheckRequired(sub); err != nil {
				return fmt.Errorf("%s.%s: %w", desc.Name, f.Name, err)
			}
			c.Next()
		}
	}
	return nil
}
