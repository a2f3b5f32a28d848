// Copyright 2023 Sauce Labs Inc. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cobrautil

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

func TestPlaceholderEnd(t *testing.T) {
	tests := map[string]int{
		"<path>Path to the file":     6,
		"<a|b>Mode":                  5,
		"[host]:port":                6,
		"<outer <inner>>rest":        15,
		"<unbalanced":                0,
		"Plain usage":                0,
		"":                           0,
		"<path, URL or inline:x>Pac": 23,
	}
	for in, want := range tests {
		if got := placeholderEnd(in); got != want {
			t.Errorf("placeholderEnd(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestFlagUsages(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("config-file", "c", "", "<path>Configuration file to load options from. ")
	fs.String("address", "localhost:10000", "<host:port>The server address to listen on. ")
	fs.Duration("script-timeout", time.Second, "The maximum amount of time a single PAC script evaluation may take.")
	fs.Bool("json", false, "Print decisions as JSON.")
	fs.Bool("hidden", false, "")
	_ = fs.MarkHidden("hidden")

	want := strings.Join([]string{
		"      --address <host:port> (default 'localhost:10000')",
		"        The server address to listen on.",
		"",
		"  -c, --config-file <path>",
		"        Configuration file to load options from.",
		"",
		"      --json",
		"        Print decisions as JSON.",
		"",
		"      --script-timeout <duration> (default 1s)",
		"        The maximum amount of time a single PAC script evaluation may take.",
	}, "\n")

	if diff := cmp.Diff(want, FlagUsages(fs)); diff != "" {
		t.Fatalf("unexpected usage (-want +got):\n%s", diff)
	}
}

func TestFlagUsagesWrap(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("pac", "", "<path>"+strings.Repeat("word ", 30))

	for _, l := range strings.Split(FlagUsages(fs), "\n") {
		if len(l) > usageWrapLimit {
			t.Errorf("line too long (%d): %q", len(l), l)
		}
	}
}
