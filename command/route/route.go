// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package route

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/saucelabs/pxroute"
	"github.com/saucelabs/pxroute/bind"
	"github.com/saucelabs/pxroute/bypass"
	"github.com/saucelabs/pxroute/log"
	"github.com/saucelabs/pxroute/log/slog"
	"github.com/saucelabs/pxroute/pac"
	"github.com/spf13/cobra"
)

type command struct {
	pac          string
	pacEncoding  string
	bypassConfig *bypass.Config
	routerConfig *pxroute.RouterConfig
	host         string
	json         bool
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

	var script *pac.Script
	if c.pac != "" {
		s, err := pxroute.ReadScript(cmd.Context(), c.pac, c.pacEncoding, nil)
		if err != nil {
			return fmt.Errorf("read PAC script: %w", err)
		}
		script = s
	}

	r, err := pxroute.NewRouter(c.routerConfig, script, c.bypassConfig, logger.Named("router"))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	enc := json.NewEncoder(w)
	for _, arg := range args {
		val := arg
		if !strings.Contains(val, "://") {
			val = "http://" + val
		}
		u, err := url.Parse(val)
		if err != nil {
			return fmt.Errorf("parse URL: %w", err)
		}

		d := r.Route(cmd.Context(), u, c.host)
		if c.json {
			v := struct {
				URL string `json:"url"`
				pxroute.Decision
			}{arg, d}
			if err := enc.Encode(v); err != nil {
				return err
			}
			continue
		}

		if d.Bypass {
			fmt.Fprintf(w, "%s\t%s\t(bypass %s)\n", arg, d.Proxies, d.Rule)
		} else {
			fmt.Fprintf(w, "%s\t%s\n", arg, d.Proxies)
		}
	}

	return nil
}

func Command() *cobra.Command {
	c := command{
		pacEncoding:  pac.UTF8,
		bypassConfig: bypass.NewConfig(),
		routerConfig: pxroute.DefaultRouterConfig(),
		logConfig:    &log.Config{Level: log.ErrorLevel, Format: log.TextFormat},
	}

	cmd := &cobra.Command{
		Use:     "route [--pac <file|url|inline:script>] [flags] <url>...",
		Short:   "Decide how URLs are routed",
		Long:    long,
		Args:    cobra.MinimumNArgs(1),
		RunE:    c.runE,
		Example: example,
	}

	fs := cmd.Flags()
	bind.PAC(fs, &c.pac, &c.pacEncoding)
	bind.BypassConfig(fs, c.bypassConfig)
	bind.RouterConfig(fs, c.routerConfig)
	fs.StringVar(&c.host, "host", c.host, "<host>"+
		"Host passed to the bypass list and FindProxyForURL instead of the URL host. ")
	fs.BoolVar(&c.json, "json", c.json, "Print decisions as JSON, one object per line. ")
	bind.LogConfig(fs, c.logConfig)
	bind.AutoMarkFlagFilename(cmd)

	return cmd
}

const long = `The bypass list is checked first, bypassed URLs go DIRECT.
Other URLs are routed by the PAC script, without a PAC script they go DIRECT.
`

const example = `  # Route URLs using a PAC file and a custom bypass list
  pxroute route --pac proxy.pac --no-proxy '*.internal.example' https://www.google.com https://wiki.internal.example
`
