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

// Package testdata loads wire-format test fixtures described in YAML,
// whose specimen bytes may be given as hex or protoscope text, so test
// files elsewhere in this module can reach for a readable tag/wire
// notation instead of hand-assembled byte literals.
package testdata

import (
	"bytes"
	"embed"
	"encoding/hex"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/protocolbuffers/protoscope"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

//go:embed *.yaml
var files embed.FS

// Case is one named fixture: a set of alternate encodings that all
// describe the same logical wire bytes, resolved into Specimens.
type Case struct {
	Name string `yaml:"-"`

	Hex        []string `yaml:"hex"`
	Protoscope []string `yaml:"protoscope"`

	Specimens [][]byte `yaml:"-"`
}

// Load reads every *.yaml fixture embedded alongside this package,
// decodes each into a Case, and resolves its Hex/Protoscope entries into
// concrete Specimens. It fails the test immediately on any parse error.
func Load(t testing.TB) []*Case {
	t.Helper()

	var cases []*Case
	err := fs.WalkDir(files, ".", func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err, "walking fixtures")
		if d.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}

		data, err := fs.ReadFile(files, path)
		require.NoError(t, err, "loading fixture %q", path)

		c := new(Case)
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		require.NoError(t, dec.Decode(c), "parsing fixture %q", path)
		c.Name = strings.TrimSuffix(filepath.Base(path), ".yaml")

		for _, raw := range c.Hex {
			r := strings.NewReplacer(" ", "", "\t", "", "\n", "", "\r", "")
			b, err := hex.DecodeString(r.Replace(raw))
			require.NoError(t, err, "decoding hex in %q", path)
			c.Specimens = append(c.Specimens, b)
		}
		for _, raw := range c.Protoscope {
			s := protoscope.NewScanner(raw)
			b, err := s.Exec()
			require.NoError(t, err, "decoding protoscope in %q", path)
			c.Specimens = append(c.Specimens, b)
		}

		cases = append(cases, c)
		return nil
	})
	require.NoError(t, err, "walking fixtures")
	return cases
}

// Find returns the Case named name, failing the test if none matches.
func Find(t testing.TB, cases []*Case, name string) *Case {
	t.Helper()
	for _, c := range cases {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no fixture named %q", name)
	return nil
}
