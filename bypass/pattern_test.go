// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package bypass

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePattern(t *testing.T) {
	tests := []struct {
		pattern string
		valid   bool
	}{
		// Empty and forbidden characters.
		{"", false},
		{"   ", false},
		{"exa<mple.com", false},
		{"exa>mple.com", false},
		{`exa"mple.com`, false},
		{"exa|mple.com", false},
		{`exa\mple.com`, false},
		{"exa^mple.com", false},
		{"exa`mple.com", false},
		{"{example}.com", false},

		// Host names.
		{"example.com", true},
		{"localhost", true},
		{"EXAMPLE.com", true},
		{" example.com ", true},
		{"a..com", false},
		{"exa_mple.com", false},
		{strings.Repeat("a", 63) + ".com", true},
		{strings.Repeat("a", 64) + ".com", false},
		{strings.Repeat("a.", 126) + "aa", false},

		// Domain suffixes.
		{".example.com", true},
		{".", false},
		{"..example.com", false},
		{".1.2.3.4", true},
		{".1.2.3.400", false},

		// Broken IPv4 addresses are not host names.
		{"999.1.1.1", false},
		{"1.2.3.04", false},

		// Wildcards.
		{"*.example.com", true},
		{"*.EXAMPLE.com", true},
		{"example.*", true},
		{"*.example.*", true},
		{"foo*bar", true},
		{"*", true},
		{"*.*.*.*", false},
		{"*.exa_mple.com", false},
		{"*.my-host.com", true},
		{"*.-bad.com", false},
		{"*.", false},

		// IP addresses.
		{"10.0.0.1", true},
		{"::1", true},
		{"2001:db8::1", true},

		// CIDR.
		{"192.168.1.0/24", true},
		{"192.168.1.1/24", true},
		{"fc00::/7", true},
		{"192.168.1.0/33", false},
		{"example.com/24", false},

		// Ranges.
		{"10.0.0.1-10.0.0.100", true},
		{"10.0.0.1 - 10.0.0.100", true},
		{"10.0.0.1-10.0.0.1", true},
		{"10.0.0.100-10.0.0.1", false},
		{"10.0.0.1-::1", false},
		{"2001:db8::1-2001:db8::ff", true},
		{"my-host.com", false},
	}

	for i := range tests {
		tc := tests[i]
		t.Run(tc.pattern, func(t *testing.T) {
			if got := ValidatePattern(tc.pattern); got != tc.valid {
				_, err := ParsePattern(tc.pattern)
				t.Fatalf("ValidatePattern(%q) = %v, want %v, err: %v", tc.pattern, got, tc.valid, err)
			}
		})
	}
}

func TestParsePatternKind(t *testing.T) {
	tests := []struct {
		pattern string
		kind    Kind
	}{
		{"example.com", Exact},
		{".example.com", Suffix},
		{"*.example.com", Wildcard},
		{"192.168.1.0/24", CIDR},
		{"10.0.0.1-10.0.0.100", Range},
		{"10.0.0.1", IP},
		{"::1", IP},
	}

	for i := range tests {
		tc := tests[i]
		t.Run(tc.pattern, func(t *testing.T) {
			p, err := ParsePattern(tc.pattern)
			if err != nil {
				t.Fatal(err)
			}
			if p.Kind != tc.kind {
				t.Fatalf("kind = %s, want %s", p.Kind, tc.kind)
			}
		})
	}
}

func TestParsePatternError(t *testing.T) {
	_, err := ParsePattern("10.0.0.100-10.0.0.1")
	if err == nil {
		t.Fatal("expected error")
	}

	var perr *InvalidPatternError
	if !errors.As(err, &perr) {
		t.Fatalf("expected InvalidPatternError, got %T", err)
	}
	if perr.Pattern != "10.0.0.100-10.0.0.1" {
		t.Errorf("pattern = %q", perr.Pattern)
	}
	if !strings.Contains(perr.Reason, "ascending order") {
		t.Errorf("unexpected reason %q", perr.Reason)
	}
}

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		pattern string
		match   []string
		noMatch []string
	}{
		{
			pattern: "example.com",
			match:   []string{"example.com", "EXAMPLE.COM", "Example.Com"},
			noMatch: []string{"www.example.com", "example.org", "example.com.evil"},
		},
		{
			pattern: ".example.com",
			match:   []string{"www.example.com", "a.b.example.com", "WWW.EXAMPLE.COM"},
			noMatch: []string{"example.com", "badexample.com"},
		},
		{
			pattern: "*.example.com",
			match:   []string{"a.example.com", "a.b.example.com", "A.EXAMPLE.COM"},
			noMatch: []string{"example.com", "a.example.org", "aexample.com"},
		},
		{
			pattern: "api.*",
			match:   []string{"api.example.com", "api.x"},
			noMatch: []string{"api", "www.api.example.com"},
		},
		{
			pattern: "a?c.*",
			match:   []string{"a?c.com"},
			noMatch: []string{"abc.com"},
		},
		{
			pattern: "192.168.1.0/24",
			match:   []string{"192.168.1.1", "192.168.1.254"},
			noMatch: []string{"192.168.2.1", "example.com"},
		},
		{
			pattern: "10.0.0.1-10.0.0.100",
			match:   []string{"10.0.0.1", "10.0.0.50", "10.0.0.100"},
			noMatch: []string{"10.0.0.101", "10.0.0.0", "::1", "example.com"},
		},
		{
			pattern: "2001:db8::/32",
			match:   []string{"2001:db8::1", "2001:DB8::ABCD"},
			noMatch: []string{"2001:db9::1", "10.0.0.1"},
		},
		{
			pattern: "10.1.2.3",
			match:   []string{"10.1.2.3"},
			noMatch: []string{"10.1.2.4"},
		},
	}

	for i := range tests {
		tc := tests[i]
		t.Run(tc.pattern, func(t *testing.T) {
			p := compilePattern(tc.pattern)
			for _, h := range tc.match {
				if !p.Match(h) {
					t.Errorf("%q should match %q", tc.pattern, h)
				}
			}
			for _, h := range tc.noMatch {
				if p.Match(h) {
					t.Errorf("%q should not match %q", tc.pattern, h)
				}
			}
		})
	}
}

func TestInvalidPatternMatchesOnlyExactName(t *testing.T) {
	p := compilePattern("10.0.0.100-10.0.0.1")
	if p.Match("10.0.0.50") {
		t.Fatal("inverted range should not match")
	}

	p = compilePattern("bad_host.com")
	if !p.Match("BAD_HOST.com") {
		t.Fatal("invalid host name should still match by exact name")
	}
}
