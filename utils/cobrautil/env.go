// Copyright 2023 Sauce Labs Inc. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cobrautil

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var envReplacer = strings.NewReplacer(".", "_", "-", "_") //nolint:gochecknoglobals // false positive

// AppendEnvToUsage appends the environment variable name to the usage string of each flag of cmd and its subcommands.
func AppendEnvToUsage(cmd *cobra.Command, envPrefix string) {
	seen := make(map[*pflag.Flag]bool)
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		visit := func(f *pflag.Flag) {
			if seen[f] || f.Name == "help" {
				return
			}
			seen[f] = true
			f.Usage += fmt.Sprintf(" (env %s)", EnvName(envPrefix, f.Name))
		}
		c.PersistentFlags().VisitAll(visit)
		c.LocalNonPersistentFlags().VisitAll(visit)
		for _, sc := range c.Commands() {
			walk(sc)
		}
	}
	walk(cmd)
}

// EnvName returns the environment variable name bound to the flag by BindAll.
func EnvName(envPrefix, flagName string) string {
	return envReplacer.Replace(strings.ToUpper(envPrefix + "_" + flagName))
}
