// Copyright 2022-2024 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package serve

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/saucelabs/pxroute"
	"github.com/saucelabs/pxroute/bind"
	"github.com/saucelabs/pxroute/bypass"
	"github.com/saucelabs/pxroute/internal/version"
	"github.com/saucelabs/pxroute/log"
	"github.com/saucelabs/pxroute/log/slog"
	"github.com/saucelabs/pxroute/pac"
	"github.com/saucelabs/pxroute/utils/cobrautil"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const promNamespace = "pxroute"

type command struct {
	promReg          *prometheus.Registry
	pac              string
	pacEncoding      string
	pacReload        time.Duration
	bypassConfig     *bypass.Config
	routerConfig     *pxroute.RouterConfig
	httpServerConfig *pxroute.HTTPServerConfig
	logConfig        *log.Config

	dryRun bool
}

func (c *command) runE(cmd *cobra.Command, _ []string) (cmdErr error) {
	if f := c.logConfig.File; f != nil {
		defer f.Close()
	}
	onError, err := c.registerErrorsMetric()
	if err != nil {
		return fmt.Errorf("register errors metric: %w", err)
	}
	logger := slog.New(c.logConfig, slog.WithOnError(onError))

	defer func() {
		if cmdErr != nil {
			logger.Error("fatal error exiting", "error", cmdErr)
			cmd.SilenceErrors = true
		}
	}()

	logger.Info("pxroute starting", "version", version.Version, "commit", version.Commit)

	{
		cfg, err := cobrautil.FlagsDescriber{
			Format:          cobrautil.Plain,
			ShowChangedOnly: true,
		}.DescribeFlags(cmd.Flags())
		if err != nil {
			return err
		}
		if cfg != "" {
			logger.Info("configuration\n" + cfg)
		} else {
			logger.Info("using default configuration")
		}
	}

	if err := c.registerProcMetrics(); err != nil {
		return fmt.Errorf("register process metrics: %w", err)
	}
	if err := c.registerVersionMetric(); err != nil {
		return fmt.Errorf("register version metric: %w", err)
	}

	var script *pac.Script
	if c.pac != "" {
		script, err = pxroute.ReadScript(cmd.Context(), c.pac, c.pacEncoding, nil)
		if err != nil {
			return fmt.Errorf("read PAC script: %w", err)
		}
	}

	c.routerConfig.PromRegistry = c.promReg
	c.routerConfig.PromNamespace = promNamespace
	r, err := pxroute.NewRouter(c.routerConfig, script, c.bypassConfig, logger.Named("router"))
	if err != nil {
		return err
	}

	hs, err := pxroute.NewHTTPServer(c.httpServerConfig, nil, logger.Named("api"))
	if err != nil {
		return err
	}
	hs.SetHandler(pxroute.NewAPIHandler(c.promReg, hs, r))

	if c.dryRun {
		return nil
	}

	ctx, cancel := pxroute.ShutdownContext(cmd.Context())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hs.Run(ctx)
	})
	if c.pac != "" && c.pacReload > 0 {
		g.Go(func() error {
			c.reloadScript(ctx, r, logger.Named("pac"))
			return nil
		})
	}

	return g.Wait()
}

// reloadScript periodically reads the PAC script and replaces it if the content changed.
// Read and validation errors are logged and the current script is kept.
func (c *command) reloadScript(ctx context.Context, r *pxroute.Router, logger log.StructuredLogger) {
	t := time.NewTicker(c.pacReload)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		s, err := pxroute.ReadScript(ctx, c.pac, c.pacEncoding, nil)
		if err != nil {
			logger.Error("failed to reload PAC script", "error", err)
			continue
		}
		if cur := r.Script(); cur != nil && cur.Content == s.Content {
			continue
		}
		if err := r.SetScript(s); err != nil {
			logger.Error("failed to reload PAC script", "error", err)
		}
	}
}

func (c *command) registerErrorsMetric() (func(name string), error) {
	m := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "errors_total",
		Help:      "Number of errors logged by component",
	}, []string{"name"})
	if err := c.promReg.Register(m); err != nil {
		return nil, err
	}

	return func(name string) {
		m.WithLabelValues(name).Inc()
	}, nil
}

func (c *command) registerProcMetrics() error {
	if err := c.promReg.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	return c.promReg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

func (c *command) registerVersionMetric() error {
	m := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "version",
		Help:      "pxroute version, value is always 1",
	}, []string{"version", "commit"})
	if err := c.promReg.Register(m); err != nil {
		return err
	}
	m.WithLabelValues(version.Version, version.Commit).Set(1)
	return nil
}

func Command() *cobra.Command {
	c := command{
		promReg:          prometheus.NewRegistry(),
		pacEncoding:      pac.UTF8,
		bypassConfig:     bypass.NewConfig(),
		routerConfig:     pxroute.DefaultRouterConfig(),
		httpServerConfig: pxroute.DefaultHTTPServerConfig(),
		logConfig:        log.DefaultConfig(),
	}

	cmd := &cobra.Command{
		Use:     "serve [--pac <file|url|inline:script>] [--address <host:port>] [flags]",
		Short:   "Start the routing API server",
		Long:    long,
		Args:    cobra.NoArgs,
		RunE:    c.runE,
		Example: example,
	}

	fs := cmd.Flags()
	bind.PAC(fs, &c.pac, &c.pacEncoding)
	fs.DurationVar(&c.pacReload, "pac-reload-interval", c.pacReload,
		"Reload the PAC script periodically, zero disables reloading. "+
			"An invalid script is logged and the previous script is kept. ")
	bind.BypassConfig(fs, c.bypassConfig)
	bind.RouterConfig(fs, c.routerConfig)
	bind.HTTPServerConfig(fs, c.httpServerConfig)
	bind.LogConfig(fs, c.logConfig)

	fs.BoolVar(&c.dryRun, "dry-run", false, "Validate the configuration and exit. ")
	bind.MarkFlagHidden(cmd, "dry-run")
	bind.AutoMarkFlagFilename(cmd)

	return cmd
}

const long = `The server exposes the following endpoints:
/route?url=<url>[&host=<host>] routing decision as JSON,
/pac the current PAC script,
/no-proxy the bypass list in the canonical NO_PROXY format,
/bypass the bypass configuration as JSON,
/healthz, /readyz, /version, /metrics and /debug/pprof/.
`

const example = `  # Serve routing decisions for a PAC file, reload it every minute
  pxroute serve --pac https://example.com/proxy.pac --pac-reload-interval 1m --address :10000

  # Query the server
  curl 'http://localhost:10000/route?url=https://www.google.com'
`
