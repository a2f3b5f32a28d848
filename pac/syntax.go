// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pac

import (
	"fmt"
	"regexp"
	"strings"
)

// EntryPoint is the function every PAC script must define.
const EntryPoint = "FindProxyForURL"

// MaxScriptSize is the size above which Check reports a warning.
// Loaders refuse scripts larger than that.
const MaxScriptSize = 1 << 20

// Syntax error messages.
const (
	ErrMsgEmpty             = "PAC content cannot be empty"
	ErrMsgMissingEntryPoint = "PAC file must contain 'function FindProxyForURL(url, host)' function"
	ErrMsgUnbalancedBraces  = "unbalanced braces in JavaScript code"
	ErrMsgUnbalancedParens  = "unbalanced parentheses in JavaScript code"
	ErrMsgUnterminated      = "unterminated string literal"
)

var entryPointRegex = regexp.MustCompile(`function\s+` + EntryPoint + `\s*\(\s*[A-Za-z_$][\w$]*\s*,\s*[A-Za-z_$][\w$]*\s*\)`)

// utilityFunctions are the PAC helpers checked for call syntax.
var utilityFunctions = []string{ //nolint:gochecknoglobals // fixed set
	"isPlainHostName",
	"dnsDomainIs",
	"localHostOrDomainIs",
	"isResolvable",
	"isInNet",
	"dnsResolve",
	"myIpAddress",
	"dnsDomainLevels",
	"shExpMatch",
}

var utilityCallRegex = func() map[string]*regexp.Regexp { //nolint:gochecknoglobals // compiled once
	m := make(map[string]*regexp.Regexp, len(utilityFunctions))
	for _, fn := range utilityFunctions {
		m[fn] = regexp.MustCompile(regexp.QuoteMeta(fn) + `\s*\(`)
	}
	return m
}()

var securityPatterns = []struct { //nolint:gochecknoglobals // fixed set
	name string
	re   *regexp.Regexp
}{
	{"eval", regexp.MustCompile(`(?i)eval\s*\(`)},
	// Case-sensitive, anonymous function expressions are fine.
	{"Function", regexp.MustCompile(`\bFunction\s*\(`)},
	{"setTimeout", regexp.MustCompile(`(?i)settimeout\s*\(`)},
	{"setInterval", regexp.MustCompile(`(?i)setinterval\s*\(`)},
	{"XMLHttpRequest", regexp.MustCompile(`(?i)xmlhttprequest`)},
	{"fetch", regexp.MustCompile(`(?i)fetch\s*\(`)},
}

// SyntaxReport is the result of Check.
// Errors make the script invalid, warnings do not.
type SyntaxReport struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether there are no errors.
func (r SyntaxReport) Valid() bool {
	return len(r.Errors) == 0
}

// Messages returns errors followed by warnings.
func (r SyntaxReport) Messages() []string {
	if len(r.Warnings) == 0 {
		return r.Errors
	}
	m := make([]string, 0, len(r.Errors)+len(r.Warnings))
	m = append(m, r.Errors...)
	m = append(m, r.Warnings...)
	return m
}

// ValidateSyntax performs a lightweight syntax check of a PAC script.
// It returns false if the script is invalid, and all error and warning messages.
func ValidateSyntax(content string) (bool, []string) {
	r := Check(content)
	return r.Valid(), r.Messages()
}

// Check performs a lightweight syntax check of a PAC script.
//
// It is not a JavaScript parser.
// Brace and parenthesis counts are global, so braces inside strings or comments are counted too,
// and the string scan does not know about comments or regular expression literals.
func Check(content string) SyntaxReport {
	var r SyntaxReport

	if strings.TrimSpace(content) == "" {
		r.Errors = append(r.Errors, ErrMsgEmpty)
		return r
	}

	if !entryPointRegex.MatchString(content) {
		r.Errors = append(r.Errors, ErrMsgMissingEntryPoint)
	}

	if strings.Count(content, "{") != strings.Count(content, "}") {
		r.Errors = append(r.Errors, ErrMsgUnbalancedBraces)
		return r
	}
	if strings.Count(content, "(") != strings.Count(content, ")") {
		r.Errors = append(r.Errors, ErrMsgUnbalancedParens)
		return r
	}
	if hasUnterminatedString(content) {
		r.Errors = append(r.Errors, ErrMsgUnterminated)
		return r
	}

	for _, fn := range utilityFunctions {
		if strings.Contains(content, fn) && !utilityCallRegex[fn].MatchString(content) {
			r.Warnings = append(r.Warnings, fmt.Sprintf("function '%s' found but not properly called", fn))
		}
	}

	r.Warnings = append(r.Warnings, securityWarnings(content)...)

	if len(content) > MaxScriptSize {
		r.Warnings = append(r.Warnings, fmt.Sprintf("PAC content is large (%d bytes)", len(content)))
	}

	return r
}

func hasUnterminatedString(content string) bool {
	var (
		single  bool
		double  bool
		escaped bool
	)
	for i := 0; i < len(content); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch content[i] {
		case '\\':
			escaped = true
		case '"':
			if !single {
				double = !double
			}
		case '\'':
			if !double {
				single = !single
			}
		}
	}
	return single || double
}

// securityWarnings reports constructs that have no place in a PAC script.
func securityWarnings(content string) []string {
	var w []string
	for _, p := range securityPatterns {
		if p.re.MatchString(content) {
			w = append(w, fmt.Sprintf("potentially dangerous function detected: %s", p.name))
		}
	}
	return w
}
