// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pac

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestGojaSandboxHelpers(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{`isPlainHostName("www")`, "true"},
		{`isPlainHostName("www.example.com")`, "false"},
		{`dnsDomainIs("www.Example.com", ".example.com")`, "true"},
		{`dnsDomainIs("www.example.org", ".example.com")`, "false"},
		{`localHostOrDomainIs("www", "www.example.com")`, "true"},
		{`localHostOrDomainIs("www.example.com", "www.example.com")`, "true"},
		{`localHostOrDomainIs("home.example.com", "www.example.com")`, "false"},
		{`isResolvable("does.not.exist")`, "true"},
		{`isInNet("127.0.0.1", "127.0.0.0", "255.0.0.0")`, "true"},
		{`isInNet("192.168.1.10", "192.168.0.0", "255.255.0.0")`, "true"},
		{`isInNet("10.1.2.3", "10.0.0.0", "255.0.0.0")`, "true"},
		{`isInNet("172.16.5.4", "172.16.0.0", "255.240.0.0")`, "true"},
		{`isInNet("172.20.5.4", "172.16.0.0", "255.240.0.0")`, "false"},
		{`isInNet("8.8.8.8", "8.8.0.0", "255.255.0.0")`, "false"},
		{`dnsResolve("www.example.com")`, "www.example.com"},
		{`myIpAddress()`, "127.0.0.1"},
		{`dnsDomainLevels("www")`, "0"},
		{`dnsDomainLevels("www.example.com")`, "2"},
		{`shExpMatch("www.google.com", "*.google.com")`, "true"},
		{`shExpMatch("google.com", "*.google.com")`, "false"},
		{`shExpMatch("wwwxgoogle.com", "www.*")`, "false"},
		{`shExpMatch("a1.example", "a?.example")`, "true"},
		{`shExpMatch("a12.example", "a?.example")`, "false"},
		{`shExpMatch("(x)", "(x)")`, "true"},
	}

	s := NewGojaSandbox(0)
	for i := range tests {
		tc := tests[i]
		t.Run(tc.expr, func(t *testing.T) {
			lib := helpersScript + "\nfunction probe() { return String(" + tc.expr + "); }"
			got, err := s.Execute(context.Background(), lib, "probe")
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("%s = %q, want %q", tc.expr, got, tc.want)
			}
		})
	}
}

func TestGojaSandboxArgs(t *testing.T) {
	s := NewGojaSandbox(0)
	got, err := s.Execute(context.Background(), `function f(a, b) { return a + "|" + b; }`, "f", "x", "y")
	if err != nil {
		t.Fatal(err)
	}
	if got != "x|y" {
		t.Fatalf("got %q", got)
	}
}

func TestGojaSandboxErrors(t *testing.T) {
	tests := []struct {
		name    string
		lib     string
		wantErr string
	}{
		{"syntax error", `function f( {`, "script:"},
		{"missing function", `var f = 1;`, "missing required function f"},
		{"exception", `function f() { throw new Error("boom"); }`, "boom"},
		{"undefined", `function f() {}`, "f returned undefined"},
		{"null", `function f() { return null; }`, "f returned null"},
	}

	s := NewGojaSandbox(0)
	for i := range tests {
		tc := tests[i]
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Execute(context.Background(), tc.lib, "f")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestGojaSandboxTimeout(t *testing.T) {
	s := NewGojaSandbox(50 * time.Millisecond)

	start := time.Now()
	_, err := s.Execute(context.Background(), `function f() { while (true) {} }`, "f")
	if !errors.Is(err, ErrScriptTimeout) {
		t.Fatalf("expected ErrScriptTimeout, got %v", err)
	}
	if d := time.Since(start); d > 5*time.Second {
		t.Fatalf("timeout took %s", d)
	}

	// Top level code is covered by the budget too.
	_, err = s.Execute(context.Background(), `for (;;) {}`, "f")
	if !errors.Is(err, ErrScriptTimeout) {
		t.Fatalf("expected ErrScriptTimeout, got %v", err)
	}
}

func TestGojaSandboxContext(t *testing.T) {
	s := NewGojaSandbox(-1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := s.Execute(ctx, `function f() { while (true) {} }`, "f")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}

	ctx, cancel = context.WithCancel(context.Background())
	cancel()
	_, err = s.Execute(ctx, `function f() { return "DIRECT"; }`, "f")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGojaSandboxIsolation(t *testing.T) {
	s := NewGojaSandbox(0)
	ctx := context.Background()

	if _, err := s.Execute(ctx, `var counter = 41; function f() { counter++; return String(counter); }`, "f"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Execute(ctx, `function f() { return typeof counter; }`, "f")
	if err != nil {
		t.Fatal(err)
	}
	if got != "undefined" {
		t.Fatalf("state leaked between calls: typeof counter = %q", got)
	}

	got, err = s.Execute(ctx, `function f() { return typeof require + typeof XMLHttpRequest + typeof fetch; }`, "f")
	if err != nil {
		t.Fatal(err)
	}
	if got != "undefinedundefinedundefined" {
		t.Fatalf("unexpected globals: %q", got)
	}
}
