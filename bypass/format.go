// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package bypass

import (
	"strings"
)

// Format returns the canonical comma separated bypass list as used in NO_PROXY.
// The order is: localhost tokens, private network CIDRs, custom patterns in list order.
func Format(c *Config) string {
	all := make([]string, 0, c.EffectivePatternCount())
	if c.BypassLocalhost {
		all = append(all, localhostHosts[:canonicalLocalhostTokens]...)
	}
	if c.BypassPrivateNetworks {
		for _, p := range PrivateNetworks {
			all = append(all, p.String())
		}
	}
	all = append(all, c.Patterns...)

	return strings.Join(all, ",")
}

// Parse parses the canonical bypass list.
// Any of the localhost tokens enables BypassLocalhost, any of the private network CIDRs enables BypassPrivateNetworks,
// all other tokens are custom patterns kept in their relative order.
// The returned configuration is validated, use Config.Valid to check the result.
func Parse(s string) *Config {
	c := new(Config)
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}

		switch {
		case isLocalhostToken(v):
			c.BypassLocalhost = true
		case isPrivateNetworkToken(v):
			c.BypassPrivateNetworks = true
		default:
			c.Patterns = append(c.Patterns, v)
		}
	}
	c.Validate()

	return c
}

func isLocalhostToken(v string) bool {
	for _, h := range localhostHosts[:canonicalLocalhostTokens] {
		if v == h {
			return true
		}
	}
	return false
}

func isPrivateNetworkToken(v string) bool {
	for _, p := range PrivateNetworks {
		if v == p.String() {
			return true
		}
	}
	return false
}
