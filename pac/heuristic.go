// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pac

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// heuristicWindow is the number of lines, including the matching line, searched for a return statement.
const heuristicWindow = 5

// wellKnownDomains are matched by name when the script compares against them.
var wellKnownDomains = []string{ //nolint:gochecknoglobals // fixed set
	"google.com",
	"baidu.com",
	"amazon.com",
}

var returnLiteralRegex = regexp.MustCompile(`(?i)return\s+"([^"]+)"`)

// HeuristicEvaluator approximates a PAC script by scanning its text, it does not execute the script.
//
// The scan is case-insensitive and stops at the first literal found:
//  1. a line comparing host for equality with the target host, e.g. host == "example.com",
//     followed within 5 lines by return "<literal>",
//  2. a line checking that host ends with ".<host>", e.g. host.endsWith(".example.com") or dnsDomainIs(host, ".example.com"),
//     followed within 5 lines by return "<literal>",
//  3. if the host belongs to a well-known domain, a line comparing against that domain,
//     followed within 5 lines by return "<literal>",
//  4. the last return "<literal>" in the script that is not on a comment line,
//  5. DIRECT.
//
// The result favors availability over precision and will be wrong for scripts with non-trivial logic.
type HeuristicEvaluator struct{}

func (HeuristicEvaluator) Evaluate(_ context.Context, content, _, host string) Proxies {
	if lit, ok := scan(content, host); ok {
		return Proxies(lit)
	}
	return "DIRECT"
}

// Test returns an error wrapping ErrNoDecision when no return literal is found,
// the DIRECT default of Evaluate is not a decision made by the script.
func (HeuristicEvaluator) Test(_ context.Context, content, _, host string) (Proxies, error) {
	if err := checkTestable(content); err != nil {
		return "", err
	}
	lit, ok := scan(content, host)
	if !ok {
		return "", fmt.Errorf("%w: no return literal found in script text", ErrNoDecision)
	}
	return Proxies(lit), nil
}

func scan(content, host string) (string, bool) {
	lines := strings.Split(content, "\n")
	lower := make([]string, len(lines))
	for i := range lines {
		lower[i] = strings.ToLower(lines[i])
	}
	h := strings.ToLower(strings.TrimSpace(host))

	if h != "" {
		eq := []string{`host == "` + h + `"`, `host == '` + h + `'`}
		if s, ok := scanFrom(lines, lower, indexAny(eq...)); ok {
			return s, true
		}

		sfx := []string{
			`.endswith(".` + h + `")`,
			`.endswith('.` + h + `')`,
			`dnsdomainis(host, ".` + h + `")`,
			`dnsdomainis(host, '.` + h + `')`,
		}
		if s, ok := scanFrom(lines, lower, indexAny(sfx...)); ok {
			return s, true
		}

		for _, d := range wellKnownDomains {
			if h != d && !strings.HasSuffix(h, "."+d) {
				continue
			}
			match := func(l string) int {
				if strings.Contains(l, "==") || strings.Contains(l, "endswith") || strings.Contains(l, "dnsdomainis") {
					return strings.Index(l, d)
				}
				return -1
			}
			if s, ok := scanFrom(lines, lower, match); ok {
				return s, true
			}
		}
	}

	for i := len(lines) - 1; i >= 0; i-- {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "//") {
			continue
		}
		if m := returnLiteralRegex.FindAllStringSubmatch(lines[i], -1); m != nil {
			return m[len(m)-1][1], true
		}
	}

	return "", false
}

// scanFrom finds lines matching match and returns the first return literal within heuristicWindow lines.
// On the matching line only literals after the match offset count.
func scanFrom(lines, lower []string, match func(l string) int) (string, bool) {
	for i := range lower {
		off := match(lower[i])
		if off < 0 {
			continue
		}
		if len(lower[i]) != len(lines[i]) {
			off = 0
		}
		for j := i; j < i+heuristicWindow && j < len(lines); j++ {
			for _, m := range returnLiteralRegex.FindAllStringSubmatchIndex(lines[j], -1) {
				if j == i && m[0] < off {
					continue
				}
				return lines[j][m[2]:m[3]], true
			}
		}
	}
	return "", false
}

// indexAny returns a matcher reporting the lowest offset of any of subs, or -1.
func indexAny(subs ...string) func(l string) int {
	return func(l string) int {
		off := -1
		for _, s := range subs {
			if i := strings.Index(l, s); i >= 0 && (off < 0 || i < off) {
				off = i
			}
		}
		return off
	}
}
