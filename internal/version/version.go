// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package version holds build information set with -ldflags.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Should have real values replaced @ build time.
var (
	Version = "devel"
	Time    = "unknown"
	Commit  = "unknown"
)

// String prints the version information as a table.
func String() string {
	var sb strings.Builder
	fmt.Fprintln(&sb, "Version:\t", Version)
	fmt.Fprintln(&sb, "Built time:\t", Time)
	fmt.Fprintln(&sb, "Git commit:\t", Commit)
	fmt.Fprintln(&sb, "Go Arch:\t", runtime.GOARCH)
	fmt.Fprintln(&sb, "Go OS:\t\t", runtime.GOOS)
	fmt.Fprintln(&sb, "Go Version:\t", runtime.Version())
	return sb.String()
}
