// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package bypass

import (
	"github.com/saucelabs/pxroute/command/bypass/check"
	"github.com/saucelabs/pxroute/command/bypass/export"
	"github.com/saucelabs/pxroute/command/bypass/validate"
	"github.com/spf13/cobra"
)

func Command() (cmd *cobra.Command) {
	cmd = &cobra.Command{
		Use:   "bypass",
		Short: "Tools for working with bypass (NO_PROXY) lists",
	}
	cmd.AddCommand(
		check.Command(),
		validate.Command(),
		export.Command(),
	)
	return cmd
}
