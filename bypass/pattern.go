// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package bypass

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/gobwas/glob"
	"go4.org/netipx"
)

// Kind is the type of a bypass pattern.
type Kind int

const (
	// Exact matches the host name case-insensitively, e.g. "example.com".
	Exact Kind = iota
	// Suffix matches hosts ending with the pattern, e.g. ".example.com".
	Suffix
	// Wildcard matches hosts against a glob where * is any sequence, e.g. "*.example.com".
	Wildcard
	// CIDR matches IP hosts inside the network, e.g. "192.168.1.0/24".
	CIDR
	// Range matches IP hosts between two addresses inclusive, e.g. "10.0.0.1-10.0.0.100".
	Range
	// IP matches a single IP address, e.g. "10.0.0.1".
	IP
)

func (k Kind) String() string {
	switch k {
	case Exact:
		return "exact"
	case Suffix:
		return "suffix"
	case Wildcard:
		return "wildcard"
	case CIDR:
		return "cidr"
	case Range:
		return "range"
	case IP:
		return "ip"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const (
	invalidPatternChars = "<>\"|\\^`{}"
	maxWildcards        = 3
	maxHostnameLength   = 253
	maxLabelLength      = 63
)

// Pattern is a classified bypass pattern.
type Pattern struct {
	Raw  string
	Kind Kind

	lower   string
	glob    glob.Glob
	prefix  netip.Prefix
	ipRange netipx.IPRange
	addr    netip.Addr
}

// ValidatePattern reports whether raw is a well-formed bypass pattern.
func ValidatePattern(raw string) bool {
	_, err := ParsePattern(raw)
	return err == nil
}

// ParsePattern validates and classifies a bypass pattern.
// Leading and trailing whitespace is ignored.
// The returned error is of type *InvalidPatternError.
func ParsePattern(raw string) (Pattern, error) {
	if reason := patternError(strings.TrimSpace(raw)); reason != "" {
		return Pattern{}, &InvalidPatternError{Pattern: raw, Reason: reason}
	}
	return compilePattern(raw), nil
}

// patternError returns the reason why p is invalid or empty string if p is valid.
func patternError(p string) string {
	if p == "" {
		return "empty pattern"
	}
	if i := strings.IndexAny(p, invalidPatternChars); i >= 0 {
		return fmt.Sprintf("invalid character %q", p[i])
	}

	switch classify(p) {
	case Wildcard:
		return wildcardError(p)
	case CIDR, Range, IP:
		return ipPatternError(p)
	default:
		return hostnamePatternError(p)
	}
}

// classify returns the pattern kind, it does not validate the pattern.
func classify(p string) Kind {
	switch {
	case strings.Contains(p, "*"):
		return Wildcard
	case strings.Contains(p, "/"):
		return CIDR
	case strings.Contains(p, "-"):
		return Range
	case isIPLiteral(p):
		return IP
	case strings.HasPrefix(p, "."):
		return Suffix
	default:
		return Exact
	}
}

func isIPLiteral(s string) bool {
	_, err := netip.ParseAddr(s)
	return err == nil
}

func wildcardError(p string) string {
	if n := strings.Count(p, "*"); n > maxWildcards {
		return fmt.Sprintf("too many wildcards: %d, max %d", n, maxWildcards)
	}

	var host string
	switch {
	case strings.HasPrefix(p, "*."):
		host = p[2:]
	case strings.HasSuffix(p, ".*"):
		host = p[:len(p)-2]
	default:
		// Other placements such as "*.example.*" or "foo*bar" are accepted as is.
		return ""
	}
	if strings.Contains(host, "*") {
		return ""
	}

	if reason := hostnamePatternError(host); reason != "" {
		return "wildcard host: " + reason
	}
	return ""
}

func ipPatternError(p string) string {
	if strings.Contains(p, "/") {
		if _, err := netip.ParsePrefix(p); err != nil {
			return fmt.Sprintf("invalid CIDR: %s", err)
		}
		return ""
	}

	if strings.Contains(p, "-") {
		r, err := parseIPRange(p)
		if err != nil {
			return fmt.Sprintf("invalid IP range: %s", err)
		}
		if !r.IsValid() {
			return "invalid IP range: addresses must be of the same family and in ascending order"
		}
		return ""
	}

	if !isIPLiteral(p) {
		return "invalid IP address"
	}
	return ""
}

func parseIPRange(p string) (netipx.IPRange, error) {
	from, to, _ := strings.Cut(p, "-")
	a, err := netip.ParseAddr(strings.TrimSpace(from))
	if err != nil {
		return netipx.IPRange{}, err
	}
	b, err := netip.ParseAddr(strings.TrimSpace(to))
	if err != nil {
		return netipx.IPRange{}, err
	}
	return netipx.IPRangeFrom(a.WithZone(""), b.WithZone("")), nil
}

// hostnamePatternError validates a host name or a domain suffix (leading dot).
// A name made of four numeric labels is validated as an IPv4 address,
// so that a malformed address is not accepted as a host name.
func hostnamePatternError(p string) string {
	p = strings.TrimPrefix(p, ".")
	if p == "" {
		return "empty host name"
	}

	if isDottedQuad(p) {
		if a, err := netip.ParseAddr(p); err != nil || !a.Is4() {
			return "invalid IPv4 address"
		}
		return ""
	}

	if len(p) > maxHostnameLength {
		return fmt.Sprintf("host name too long: %d, max %d", len(p), maxHostnameLength)
	}
	for _, label := range strings.Split(p, ".") {
		if reason := labelError(label); reason != "" {
			return fmt.Sprintf("label %q: %s", label, reason)
		}
	}

	return ""
}

func labelError(label string) string {
	if label == "" {
		return "empty label"
	}
	if len(label) > maxLabelLength {
		return fmt.Sprintf("too long: %d, max %d", len(label), maxLabelLength)
	}
	for i := 0; i < len(label); i++ {
		if !isLDH(label[i]) {
			return fmt.Sprintf("invalid character %q", label[i])
		}
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return "starts or ends with hyphen"
	}
	return ""
}

func isLDH(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-'
}

func isDottedQuad(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for i := 0; i < len(p); i++ {
			if p[i] < '0' || p[i] > '9' {
				return false
			}
		}
	}
	return true
}

// compilePattern prepares raw for matching.
// It never fails, a pattern that cannot be compiled for its kind only matches by exact name.
func compilePattern(raw string) Pattern {
	p := strings.TrimSpace(raw)
	cp := Pattern{
		Raw:   raw,
		Kind:  classify(p),
		lower: strings.ToLower(p),
	}

	switch cp.Kind {
	case Wildcard:
		parts := strings.Split(cp.lower, "*")
		for i := range parts {
			parts[i] = glob.QuoteMeta(parts[i])
		}
		if g, err := glob.Compile(strings.Join(parts, "*")); err == nil {
			cp.glob = g
		}
	case CIDR:
		if pfx, err := netip.ParsePrefix(p); err == nil {
			cp.prefix = pfx.Masked()
		}
	case Range:
		if r, err := parseIPRange(p); err == nil {
			cp.ipRange = r
		}
	case IP:
		if a, err := netip.ParseAddr(p); err == nil {
			cp.addr = a.WithZone("")
		}
	case Exact, Suffix:
		// string comparison only
	}

	return cp
}

// Match reports whether the host matches the pattern.
// The host is normalized the same way as in Matcher.
func (p Pattern) Match(host string) bool {
	return p.match(newCandidate(host))
}

func (p *Pattern) match(c candidate) bool {
	if c.host == p.lower {
		return true
	}

	switch p.Kind {
	case Suffix:
		return strings.HasSuffix(c.host, p.lower)
	case Wildcard:
		return p.glob != nil && p.glob.Match(c.host)
	case CIDR:
		return c.addr.IsValid() && p.prefix.IsValid() && p.prefix.Contains(c.addr)
	case Range:
		return c.addr.IsValid() && p.ipRange.Contains(c.addr)
	case IP:
		return c.addr.IsValid() && p.addr == c.addr
	default:
		return false
	}
}
