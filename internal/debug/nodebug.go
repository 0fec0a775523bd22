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

//go:build !debug

// Package debug includes debugging helpers.
//
// This file provides the zero-cost stand-ins used when the module is built
// without `-tags debug`: logging and assertions compile away entirely.
package debug

import "testing"

// Enabled is true if the compiler is being built with the debug tag, which
// enables various debugging features.
const Enabled = false

// Log is a no-op outside of debug builds.
func Log(context []any, operation string, format string, args ...any) {}

// Assert is a no-op outside of debug builds: invariant checks it would have
// made are instead relied upon as preconditions.
func Assert(cond bool, format string, args ...any) {}

// Value is a value of any type that only exists when the debug tag is
// enabled. When disabled, this struct is replaced with an empty struct.
type Value[T any] struct{}

// Get panics: values only exist in debug builds.
func (v *Value[T]) Get() *T { panic("protobluff: debug.Value used outside debug build") }

// WithTesting is a no-op outside of debug builds.
func WithTesting(t testing.TB) func() { return func() {} }
