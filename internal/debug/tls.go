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

//go:build debug

package debug

import (
	"testing"

	"github.com/timandy/routine"
)

// testingLog is the minimal part of *testing.T/B that [Log] needs to
// redirect debug output into `go test -v` output instead of stderr.
type testingLog interface {
	Log(args ...any)
}

var tlsVar = routine.NewThreadLocal()

type tlsHolder struct{ t testingLog }

// tls exposes the current goroutine's captured testing handle, if any.
var tls = struct{ Get func() testingLog }{
	Get: func() testingLog {
		v := tlsVar.Get()
		if v == nil {
			return nil
		}
		return v.(tlsHolder).t
	},
}

// WithTesting routes debug log output on the calling goroutine into t.Log
// for the duration of the returned function's lifetime, instead of stderr.
// Intended to be used as `defer debug.WithTesting(t)()`.
func WithTesting(t testing.TB) func() {
	t.Helper()
	tlsVar.Set(tlsHolder{t})
	return func() { tlsVar.Remove() }
}
