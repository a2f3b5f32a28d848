// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cobrautil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

type testBindStruct struct {
	Patterns  []string
	Localhost bool
	Timeout   time.Duration
	Address   string
}

func newTestBindCommand(v *testBindStruct, configFile string) *cobra.Command {
	cmd := &cobra.Command{}
	fs := cmd.Flags()
	fs.String("config-file", configFile, "")
	fs.StringSliceVar(&v.Patterns, "no-proxy", nil, "")
	fs.BoolVar(&v.Localhost, "bypass-localhost", true, "")
	fs.DurationVar(&v.Timeout, "script-timeout", time.Second, "")
	fs.StringVar(&v.Address, "address", "localhost:10000", "")
	return cmd
}

func TestBindAllConfigFile(t *testing.T) {
	files := map[string]string{
		"yaml": "no-proxy:\n  - a.example\n  - '*.b.example'\nbypass-localhost: false\nscript-timeout: 2s\n",
		"json": `{"no-proxy": ["a.example", "*.b.example"], "bypass-localhost": false, "script-timeout": "2s"}`,
		"toml": "no-proxy = [\"a.example\", \"*.b.example\"]\nbypass-localhost = false\nscript-timeout = \"2s\"\n",
		"":     "no-proxy: a.example,*.b.example\nbypass-localhost: false\nscript-timeout: 2s\n",
	}

	for ext, content := range files {
		ext, content := ext, content
		t.Run(ext, func(t *testing.T) {
			name := "pxroute"
			if ext != "" {
				name += "." + ext
			}
			path := filepath.Join(t.TempDir(), name)
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}

			var v testBindStruct
			cmd := newTestBindCommand(&v, path)
			if err := BindAll(cmd, "TEST", "config-file"); err != nil {
				t.Fatal(err)
			}

			want := testBindStruct{
				Patterns:  []string{"a.example", "*.b.example"},
				Localhost: false,
				Timeout:   2 * time.Second,
				Address:   "localhost:10000",
			}
			if diff := cmp.Diff(want, v); diff != "" {
				t.Fatalf("unexpected result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBindAllPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pxroute.yaml")
	if err := os.WriteFile(path, []byte("address: file:1\nscript-timeout: 2s\nno-proxy: [file.example]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEST_ADDRESS", "env:1")
	t.Setenv("TEST_SCRIPT_TIMEOUT", "3s")

	var v testBindStruct
	cmd := newTestBindCommand(&v, path)
	if err := cmd.Flags().Parse([]string{"--address", "flag:1"}); err != nil {
		t.Fatal(err)
	}
	if err := BindAll(cmd, "test", "config-file"); err != nil {
		t.Fatal(err)
	}

	want := testBindStruct{
		Patterns:  []string{"file.example"},
		Localhost: true,
		Timeout:   3 * time.Second,
		Address:   "flag:1",
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Fatalf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestEnvName(t *testing.T) {
	if got := EnvName("pxroute", "bypass-private-networks"); got != "PXROUTE_BYPASS_PRIVATE_NETWORKS" {
		t.Fatalf("EnvName() = %q", got)
	}
}
