// Copyright 2022-2024 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package eval

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/saucelabs/pxroute"
	"github.com/saucelabs/pxroute/bind"
	"github.com/saucelabs/pxroute/log"
	"github.com/saucelabs/pxroute/log/slog"
	"github.com/saucelabs/pxroute/pac"
	"github.com/spf13/cobra"
)

type command struct {
	pac          string
	pacEncoding  string
	routerConfig *pxroute.RouterConfig
	strict       bool
	logConfig    *log.Config
}

func (c *command) runE(cmd *cobra.Command, args []string) error {
	if f := c.logConfig.File; f != nil {
		defer f.Close()
	}
	var logger *slog.Logger
	if c.logConfig.File != nil {
		logger = slog.New(c.logConfig)
	} else {
		logger = slog.NewWithWriter(cmd.ErrOrStderr(), c.logConfig)
	}

	s, err := pxroute.ReadScript(cmd.Context(), c.pac, c.pacEncoding, nil)
	if err != nil {
		return fmt.Errorf("read PAC script: %w", err)
	}
	if !s.Validate() {
		return fmt.Errorf("invalid PAC script: %s", strings.Join(s.Errors(), "; "))
	}

	var sandbox pac.Sandbox
	if !c.routerConfig.DisableScript {
		sandbox = pac.NewGojaSandbox(c.routerConfig.ScriptTimeout)
	}
	ev := pac.NewEvaluator(sandbox, logger.Named("pac"))

	w := cmd.OutOrStdout()
	for _, arg := range args {
		u, err := parseURL(arg)
		if err != nil {
			return err
		}

		p, err := ev.Test(cmd.Context(), s.Content, u.String(), u.Hostname())
		if err != nil {
			if c.strict {
				return fmt.Errorf("%s: %w", arg, err)
			}
			logger.Warn("no decision, approximating from script text", "url", arg, "error", err)
			p = pac.HeuristicEvaluator{}.Evaluate(cmd.Context(), s.Content, u.String(), u.Hostname())
		}
		fmt.Fprintln(w, p)
	}

	return nil
}

func parseURL(val string) (*url.URL, error) {
	if !strings.Contains(val, "://") {
		val = "http://" + val
	}
	u, err := url.Parse(val)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("parse URL %q: missing host", val)
	}
	return u, nil
}

func Command() *cobra.Command {
	c := command{
		pacEncoding:  pac.UTF8,
		routerConfig: pxroute.DefaultRouterConfig(),
		logConfig:    &log.Config{Level: log.ErrorLevel, Format: log.TextFormat},
	}

	cmd := &cobra.Command{
		Use:     "eval --pac <file|url|inline:script> [flags] <url>...",
		Short:   "Evaluate a PAC script for given URL (or URLs)",
		Long:    long,
		Args:    cobra.MinimumNArgs(1),
		RunE:    c.runE,
		Example: example,
	}

	fs := cmd.Flags()
	bind.PAC(fs, &c.pac, &c.pacEncoding)
	bind.RouterConfig(fs, c.routerConfig)
	fs.BoolVar(&c.strict, "strict", c.strict,
		"Fail if the script does not produce a routing decision instead of approximating the result from the script text. ")
	bind.LogConfig(fs, c.logConfig)
	bind.MarkFlagRequired(cmd, "pac")
	bind.AutoMarkFlagFilename(cmd)

	return cmd
}

const long = `The output is a routing directive per URL, e.g. "PROXY proxy.example.com:8080; DIRECT".
If the script fails, times out or returns no directive, the result is approximated from the script text.
With --strict the command fails with "no decision" instead.
URLs without a scheme are treated as http URLs.
`

const example = `  # Evaluate PAC file for multiple URLs
  pxroute pac eval --pac pac.js https://www.google.com https://www.facebook.com
`
