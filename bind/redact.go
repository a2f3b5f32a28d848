// Copyright 2022-2024 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package bind

import (
	"strings"

	"github.com/saucelabs/pxroute/pac"
)

// RedactInline hides script text passed inline or as a data URL.
func RedactInline(s string) string {
	switch {
	case strings.HasPrefix(s, pac.InlinePrefix):
		return pac.InlinePrefix + "xxxxx"
	case strings.HasPrefix(s, "data:"):
		return "data:xxxxx"
	default:
		return s
	}
}
