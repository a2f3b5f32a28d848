// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pxroute

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/saucelabs/pxroute/pac"
)

const testScript = `inline:function FindProxyForURL(url, host) {
  if (host == "proxied.example") {
    return "PROXY proxy.example:3128";
  }
  return "DIRECT";
}`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := Command()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func fields(s string) [][]string {
	var res [][]string
	for _, l := range strings.Split(strings.TrimSpace(s), "\n") {
		res = append(res, strings.Fields(l))
	}
	return res
}

func TestBypassCheck(t *testing.T) {
	out, err := execute(t, "bypass", "check", "--no-proxy", "*.example.com", "www.example.com", "https://saucelabs.com/x", "10.1.2.3", "localhost:8080")
	if err != nil {
		t.Fatal(err)
	}

	want := [][]string{
		{"www.example.com", "bypass", "*.example.com"},
		{"https://saucelabs.com/x", "proxy"},
		{"10.1.2.3", "bypass", "private-networks"},
		{"localhost:8080", "bypass", "localhost"},
	}
	if diff := cmp.Diff(want, fields(out)); diff != "" {
		t.Fatalf("unexpected output (-want +got):\n%s", diff)
	}
}

func TestBypassValidate(t *testing.T) {
	out, err := execute(t, "bypass", "validate", "--no-proxy", "a.example,10.0.0.0/8")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "bypass configuration is valid") {
		t.Fatalf("unexpected output: %s", out)
	}

	out, err = execute(t, "bypass", "validate", "--no-proxy", "a.example,bad_host,a.example")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out, "bad_host") {
		t.Fatalf("expected invalid pattern in output: %s", out)
	}
}

func TestBypassExport(t *testing.T) {
	out, err := execute(t, "bypass", "export", "--bypass-localhost=false", "--bypass-private-networks=false", "--no-proxy", "a.example,.b.example")
	if err != nil {
		t.Fatal(err)
	}
	if out != "a.example,.b.example\n" {
		t.Fatalf("unexpected output: %q", out)
	}

	out, err = execute(t, "bypass", "export", "--format", "env", "--bypass-private-networks=false", "--no-proxy", "a.example")
	if err != nil {
		t.Fatal(err)
	}
	want := "export NO_PROXY='localhost,127.0.0.1,::1,a.example'\n" +
		"export no_proxy='localhost,127.0.0.1,::1,a.example'\n"
	if out != want {
		t.Fatalf("unexpected output: %q", out)
	}

	if _, err := execute(t, "bypass", "export", "--no-proxy", "a..example"); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestBypassExportConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pxroute.yaml")
	content := "bypass-localhost: false\nbypass-private-networks: false\nno-proxy:\n  - a.example\n  - '*.b.example'\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "bypass", "export", "--config-file", path)
	if err != nil {
		t.Fatal(err)
	}
	if out != "a.example,*.b.example\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestPACValidate(t *testing.T) {
	out, err := execute(t, "pac", "validate", "--pac", testScript)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Inline Configuration") || !strings.Contains(out, "PAC script is valid") {
		t.Fatalf("unexpected output: %s", out)
	}

	out, err = execute(t, "pac", "validate", "--pac", `inline:function FindProxyForURL(url, host) { return "DIRECT";`)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out, "error: unbalanced braces") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestPACEval(t *testing.T) {
	out, err := execute(t, "pac", "eval", "--pac", testScript, "https://proxied.example/", "other.example")
	if err != nil {
		t.Fatal(err)
	}
	want := "PROXY proxy.example:3128\nDIRECT\n"
	if out != want {
		t.Fatalf("unexpected output: %q", out)
	}

	const failing = `inline:function FindProxyForURL(url, host) {
  if (host == "proxied.example") throw "boom";
  return null;
}`

	// Without --strict the result is approximated.
	out, err = execute(t, "pac", "eval", "--pac", failing, "other.example")
	if err != nil {
		t.Fatal(err)
	}
	if out != "DIRECT\n" {
		t.Fatalf("unexpected output: %q", out)
	}

	for _, args := range [][]string{
		{"pac", "eval", "--strict", "--pac", failing, "other.example"},
		{"pac", "eval", "--strict", "--disable-script", "--pac", failing, "other.example"},
	} {
		out, err = execute(t, args...)
		if !errors.Is(err, pac.ErrNoDecision) {
			t.Fatalf("%v: expected no decision error, got %v", args, err)
		}
		if out != "" {
			t.Fatalf("%v: unexpected output: %q", args, out)
		}
	}

	// A DIRECT returned by the script is a decision.
	out, err = execute(t, "pac", "eval", "--strict", "--pac", testScript, "other.example")
	if err != nil {
		t.Fatal(err)
	}
	if out != "DIRECT\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRoute(t *testing.T) {
	out, err := execute(t, "route", "--json", "--pac", testScript, "--no-proxy", "*.internal.example",
		"proxied.example", "wiki.internal.example", "https://other.example/")
	if err != nil {
		t.Fatal(err)
	}

	type decision struct {
		URL     string `json:"url"`
		Bypass  bool   `json:"bypass"`
		Rule    string `json:"rule"`
		Proxies string `json:"proxies"`
	}
	var got []decision
	dec := json.NewDecoder(strings.NewReader(out))
	for dec.More() {
		var d decision
		if err := dec.Decode(&d); err != nil {
			t.Fatal(err)
		}
		got = append(got, d)
	}

	want := []decision{
		{URL: "proxied.example", Proxies: "PROXY proxy.example:3128"},
		{URL: "wiki.internal.example", Bypass: true, Rule: "*.internal.example", Proxies: "DIRECT"},
		{URL: "https://other.example/", Proxies: "DIRECT"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected decisions (-want +got):\n%s", diff)
	}
}

func TestServeDryRun(t *testing.T) {
	if _, err := execute(t, "serve", "--dry-run", "--pac", testScript, "--log-level", "error"); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "serve", "--dry-run", "--no-proxy", "bad_host", "--log-level", "error"); err == nil {
		t.Fatal("expected error for invalid bypass list")
	}
}

func TestHelp(t *testing.T) {
	out, err := execute(t, "route", "--help")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{
		"-p, --pac <path, URL or inline:script>",
		"PXROUTE_NO_PROXY",
		"Global Flags:",
		"--config-file <path>",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("help output does not contain %q:\n%s", s, out)
		}
	}
}
