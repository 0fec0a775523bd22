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

package dbg

import "fmt"

// Assert panics with the given message if cond is false.
//
// Assertions are fatal conditions per the error handling design: they guard
// invariants that indicate a caller bug (e.g. nesting a repeated message in
// create_nested, writing a submessage from its own journal), not recoverable
// runtime errors.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic("protobluff: assertion failed: " + fmt.Sprintf(format, args...))
	}
}
