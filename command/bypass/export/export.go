// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mmatczuk/anyflag"
	"github.com/saucelabs/pxroute/bind"
	"github.com/saucelabs/pxroute/bypass"
	"github.com/spf13/cobra"
)

type format string

const (
	listFormat format = "list"
	envFormat  format = "env"
	jsonFormat format = "json"
)

type command struct {
	bypassConfig *bypass.Config
	format       format
}

func (c *command) runE(cmd *cobra.Command, _ []string) error {
	if !c.bypassConfig.Validate() {
		return fmt.Errorf("invalid bypass configuration: %s", strings.Join(c.bypassConfig.Errors(), "; "))
	}

	w := cmd.OutOrStdout()
	switch c.format {
	case listFormat:
		return bypass.Publish(c.bypassConfig, bypass.PublisherFunc(func(value string) error {
			_, err := fmt.Fprintln(w, value)
			return err
		}))
	case envFormat:
		var p bypass.EnvPublisher
		if err := bypass.Publish(c.bypassConfig, &p); err != nil {
			return err
		}
		for _, kv := range p.Env {
			fmt.Fprintf(w, "export %s\n", quoteEnv(kv))
		}
		return nil
	case jsonFormat:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c.bypassConfig)
	default:
		return errors.New("unknown format")
	}
}

// quoteEnv quotes the value of a KEY=value pair for a POSIX shell.
func quoteEnv(kv string) string {
	k, v, _ := strings.Cut(kv, "=")
	return k + "='" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}

func Command() *cobra.Command {
	c := command{
		bypassConfig: bypass.NewConfig(),
		format:       listFormat,
	}

	cmd := &cobra.Command{
		Use:     "export [flags]",
		Short:   "Print the bypass list in the canonical NO_PROXY format",
		Long:    long,
		Args:    cobra.NoArgs,
		RunE:    c.runE,
		Example: example,
	}

	fs := cmd.Flags()
	bind.BypassConfig(fs, c.bypassConfig)
	formats := []format{listFormat, envFormat, jsonFormat}
	fs.Var(anyflag.NewValue[format](c.format, &c.format, anyflag.EnumParser[format](formats...)),
		"format", "<list|env|json>"+
			"Output format. "+
			"The env format prints shell export statements for NO_PROXY and no_proxy. ")

	return cmd
}

const long = `The list starts with localhost,127.0.0.1,::1 if localhost is bypassed,
followed by the private network CIDRs if private networks are bypassed, and the custom patterns in order.
`

const example = `  # Set NO_PROXY for the current shell
  eval "$(pxroute bypass export --format env --no-proxy '*.example.com')"
`
