// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package bypass implements the no-proxy list: pattern validation, host matching
// and the canonical comma separated text format used in NO_PROXY.
//
// Supported patterns are host names (example.com), domain suffixes (.example.com),
// wildcards (*.example.com), CIDR networks (192.168.1.0/24), IP ranges (10.0.0.1-10.0.0.100) and IP addresses.
// Any pattern containing "-" is treated as an IP range, so host names with hyphens can only be used in wildcards.
package bypass
