// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package validate

import (
	"errors"
	"fmt"
	"io"

	"github.com/mitchellh/go-wordwrap"
	"github.com/saucelabs/pxroute"
	"github.com/saucelabs/pxroute/bind"
	"github.com/saucelabs/pxroute/pac"
	"github.com/spf13/cobra"
)

const wrapLimit = 80

type command struct {
	pac         string
	pacEncoding string
}

func (c *command) runE(cmd *cobra.Command, _ []string) error {
	s, err := pxroute.ReadScript(cmd.Context(), c.pac, c.pacEncoding, nil)
	if err != nil {
		return fmt.Errorf("read PAC script: %w", err)
	}

	ok := s.Validate()

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s (%s, %d bytes)\n", s.DisplayName(), s.EncodingOrDefault(), len(s.Content))
	printList(w, "error", s.Errors())
	printList(w, "warning", s.Warnings())

	if !ok {
		cmd.SilenceUsage = true
		return errors.New("PAC script is invalid")
	}
	fmt.Fprintln(w, "PAC script is valid")
	return nil
}

func printList(w io.Writer, kind string, msgs []string) {
	for _, m := range msgs {
		fmt.Fprintln(w, wordwrap.WrapString(kind+": "+m, wrapLimit))
	}
}

func Command() *cobra.Command {
	c := command{
		pacEncoding: pac.UTF8,
	}

	cmd := &cobra.Command{
		Use:     "validate --pac <file|url|inline:script> [flags]",
		Short:   "Validate a PAC script",
		Long:    long,
		Args:    cobra.NoArgs,
		RunE:    c.runE,
		Example: example,
	}

	fs := cmd.Flags()
	bind.PAC(fs, &c.pac, &c.pacEncoding)
	bind.MarkFlagRequired(cmd, "pac")
	bind.AutoMarkFlagFilename(cmd)

	return cmd
}

const long = `Validate a PAC script without executing it.
The script must define FindProxyForURL(url, host), have balanced braces and parentheses and no unterminated string literals.
Warnings about dangerous functions or a large script do not make the script invalid.
`

const example = `  # Validate a local PAC file
  pxroute pac validate --pac proxy.pac

  # Validate an inline script
  pxroute pac validate --pac 'inline:function FindProxyForURL(url, host) { return "DIRECT"; }'
`
