// Copyright 2022-2024 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pxroute

import (
	"github.com/saucelabs/pxroute/bind"
	"github.com/saucelabs/pxroute/command/bypass"
	"github.com/saucelabs/pxroute/command/pac"
	"github.com/saucelabs/pxroute/command/route"
	"github.com/saucelabs/pxroute/command/serve"
	"github.com/saucelabs/pxroute/command/version"
	"github.com/saucelabs/pxroute/utils/cobrautil"
	"github.com/spf13/cobra"
)

const (
	EnvPrefix          = "PXROUTE"
	ConfigFileFlagName = "config-file"
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pxroute",
		Short: "Proxy routing decision engine with PAC and NO_PROXY support",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cobrautil.BindAll(cmd, EnvPrefix, ConfigFileFlagName)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	bind.ConfigFile(cmd.PersistentFlags(), new(string))

	cmd.AddCommand(
		route.Command(),
		serve.Command(),
		pac.Command(),
		bypass.Command(),
		version.Command(),
	)

	cobrautil.Walk(cmd, cobrautil.DefaultLong)
	cobrautil.AppendEnvToUsage(cmd, EnvPrefix)
	cobrautil.NoHelpSubcommand(cmd)
	cobrautil.SetUsage(cmd)

	return cmd
}
