// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package check

import (
	"fmt"
	"text/tabwriter"

	"github.com/saucelabs/pxroute/bind"
	"github.com/saucelabs/pxroute/bypass"
	"github.com/spf13/cobra"
)

type command struct {
	bypassConfig *bypass.Config
}

func (c *command) runE(cmd *cobra.Command, args []string) error {
	m := bypass.Compile(c.bypassConfig)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	for _, arg := range args {
		if rule, ok := m.Lookup(arg); ok {
			fmt.Fprintf(w, "%s\tbypass\t%s\n", arg, rule)
		} else {
			fmt.Fprintf(w, "%s\tproxy\t\n", arg)
		}
	}
	return w.Flush()
}

func Command() *cobra.Command {
	c := command{
		bypassConfig: bypass.NewConfig(),
	}

	cmd := &cobra.Command{
		Use:     "check [flags] <host|url>...",
		Short:   "Check if hosts or URLs skip proxying",
		Long:    long,
		Args:    cobra.MinimumNArgs(1),
		RunE:    c.runE,
		Example: example,
	}

	bind.BypassConfig(cmd.Flags(), c.bypassConfig)

	return cmd
}

const long = `For each argument the output is the argument, "bypass" or "proxy", and the bypass rule that matched.
Rules are checked in order: localhost, private networks, custom patterns.
Invalid patterns are not rejected, they only match hosts equal to the pattern.
`

const example = `  # Check hosts against a custom list
  pxroute bypass check --no-proxy '*.example.com,10.0.0.0/8' www.example.com 10.1.2.3 https://saucelabs.com
`
