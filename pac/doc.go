// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package pac validates and evaluates PAC (proxy auto-config) scripts.
//
// Scripts are executed in a Goja JavaScript VM with a small set of helper functions (see helpers.js).
// The helpers never touch the network: dnsResolve returns its argument, myIpAddress returns 127.0.0.1
// and isInNet only recognizes loopback and the 192.168.*, 10.* and 172.16.* ranges.
//
// When the script cannot be executed, evaluation falls back to HeuristicEvaluator,
// a text scan that approximates what the script would return.
// It is an approximation of script execution and will be wrong for scripts with non-trivial logic.
package pac

import (
	"regexp"
	"sort"
)

var jsFunctionRegex = regexp.MustCompile(`function\s+([a-zA-Z0-9_]+)\s*\(`)

// SupportedFunctions returns the helper functions available to PAC scripts.
func SupportedFunctions() []string {
	var all []string //nolint:prealloc // not worth it
	for _, m := range jsFunctionRegex.FindAllStringSubmatch(helpersScript, -1) {
		if m[1][0] == '_' {
			continue
		}
		all = append(all, m[1])
	}
	sort.Strings(all)

	return all
}
