// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package bypass

import (
	"net/netip"
	"net/url"
	"strings"

	"go4.org/netipx"
	"golang.org/x/net/idna"
)

// Localhost names and addresses bypassed when Config.BypassLocalhost is set.
// Only the first three are part of the canonical text format.
var localhostHosts = []string{ //nolint:gochecknoglobals // fixed set
	"localhost",
	"127.0.0.1",
	"::1",
	"0.0.0.0",
}

const canonicalLocalhostTokens = 3

// PrivateNetworks are the networks bypassed when Config.BypassPrivateNetworks is set,
// in canonical text format order.
var PrivateNetworks = []netip.Prefix{ //nolint:gochecknoglobals // fixed set
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("fc00::/7"),
}

// Private domain suffixes bypassed when Config.BypassPrivateNetworks is set.
var privateDomainSuffixes = []string{ //nolint:gochecknoglobals // fixed set
	".local",
	".internal",
	".corp",
	".lan",
}

var privateNetworkSet = mustPrivateNetworkSet() //nolint:gochecknoglobals // immutable

func mustPrivateNetworkSet() *netipx.IPSet {
	var b netipx.IPSetBuilder
	for _, p := range PrivateNetworks {
		b.AddPrefix(p)
	}
	s, err := b.IPSet()
	if err != nil {
		panic(err)
	}
	return s
}

// Rule names returned by Matcher.Lookup for the built-in rules.
const (
	LocalhostRule       = "localhost"
	PrivateNetworksRule = "private-networks"
)

// Matcher is a bypass matcher compiled from a Config snapshot.
// It is immutable and safe for concurrent use.
type Matcher struct {
	localhost bool
	private   bool
	patterns  []Pattern
}

// Compile compiles the configuration into a Matcher.
// Invalid patterns are kept, they match only what their kind allows, see Pattern.Match.
func Compile(cfg *Config) *Matcher {
	m := &Matcher{
		localhost: cfg.BypassLocalhost,
		private:   cfg.BypassPrivateNetworks,
		patterns:  make([]Pattern, 0, len(cfg.Patterns)),
	}
	for _, p := range cfg.Patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		m.patterns = append(m.patterns, compilePattern(p))
	}
	return m
}

// ShouldBypass reports whether the candidate, a host or a URL, should skip proxying.
// Unparsable input is never bypassed.
func ShouldBypass(cfg *Config, candidate string) bool {
	return Compile(cfg).Match(candidate)
}

// Match reports whether the candidate, a host or a URL, should skip proxying.
func (m *Matcher) Match(candidate string) bool {
	_, ok := m.Lookup(candidate)
	return ok
}

// Lookup returns the rule that matched the candidate.
// The rule is LocalhostRule, PrivateNetworksRule or the raw custom pattern.
// Rules are evaluated in that order and the first match wins.
func (m *Matcher) Lookup(candidate string) (rule string, ok bool) {
	host := HostOf(candidate)
	if host == "" {
		return "", false
	}
	c := newCandidate(host)

	if m.localhost && c.isLocalhost() {
		return LocalhostRule, true
	}
	if m.private && c.isPrivate() {
		return PrivateNetworksRule, true
	}
	for i := range m.patterns {
		if m.patterns[i].match(c) {
			return m.patterns[i].Raw, true
		}
	}

	return "", false
}

// HostOf extracts the host from a URL, host:port or bare host.
// It returns empty string if no host can be extracted.
func HostOf(candidate string) string {
	s := strings.TrimSpace(candidate)
	if s == "" {
		return ""
	}
	if isIPLiteral(s) {
		return s
	}

	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

type candidate struct {
	host string
	addr netip.Addr
}

func newCandidate(host string) candidate {
	h := strings.ToLower(host)
	if !isASCII(h) {
		if a, err := idna.ToASCII(h); err == nil {
			h = a
		}
	}

	c := candidate{host: h}
	if a, err := netip.ParseAddr(h); err == nil {
		c.addr = a.WithZone("")
	}
	return c
}

func (c candidate) isLocalhost() bool {
	for _, h := range localhostHosts {
		if c.host == h {
			return true
		}
	}
	return false
}

// isPrivate excludes loopback addresses, they are handled by the localhost rule only.
func (c candidate) isPrivate() bool {
	if c.addr.IsValid() {
		a := c.addr.Unmap()
		if a.IsLoopback() {
			return false
		}
		return privateNetworkSet.Contains(a)
	}

	for _, s := range privateDomainSuffixes {
		if strings.HasSuffix(c.host, s) {
			return true
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
