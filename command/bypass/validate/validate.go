// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package validate

import (
	"errors"
	"fmt"

	"github.com/mitchellh/go-wordwrap"
	"github.com/saucelabs/pxroute/bind"
	"github.com/saucelabs/pxroute/bypass"
	"github.com/spf13/cobra"
)

type command struct {
	bypassConfig *bypass.Config
}

func (c *command) runE(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()

	ok := c.bypassConfig.Validate()
	fmt.Fprintln(w, c.bypassConfig.Summary())
	for _, e := range c.bypassConfig.Errors() {
		fmt.Fprintln(w, wordwrap.WrapString("error: "+e, 80))
	}

	if !ok {
		cmd.SilenceUsage = true
		return errors.New("bypass configuration is invalid")
	}
	fmt.Fprintln(w, "bypass configuration is valid")
	return nil
}

func Command() *cobra.Command {
	c := command{
		bypassConfig: bypass.NewConfig(),
	}

	cmd := &cobra.Command{
		Use:   "validate [flags]",
		Short: "Validate bypass patterns",
		Long:  long,
		Args:  cobra.NoArgs,
		RunE:  c.runE,
	}

	bind.BypassConfig(cmd.Flags(), c.bypassConfig)

	return cmd
}

const long = `Each pattern given with --no-proxy is checked, invalid and duplicated patterns are reported.
`
