// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pxroute

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/saucelabs/pxroute/log"
)

type Scheme string

const (
	HTTPScheme  Scheme = "http"
	HTTPSScheme Scheme = "https"
)

type HTTPServerConfig struct {
	Protocol        Scheme        `json:"protocol"`
	Addr            string        `json:"addr"`
	CertFile        string        `json:"cert_file"`
	KeyFile         string        `json:"key_file"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

func DefaultHTTPServerConfig() *HTTPServerConfig {
	return &HTTPServerConfig{
		Protocol:        HTTPScheme,
		Addr:            "localhost:10000",
		ReadTimeout:     5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func (c *HTTPServerConfig) Validate() error {
	switch c.Protocol {
	case HTTPScheme:
	case HTTPSScheme:
		if c.CertFile == "" || c.KeyFile == "" {
			return errors.New("cert file and key file are required when using HTTPS")
		}
		for _, f := range []string{c.CertFile, c.KeyFile} {
			if _, err := os.Stat(f); err != nil {
				return fmt.Errorf("cannot read %q: %w", f, err)
			}
		}
	default:
		return fmt.Errorf("unknown protocol %q", c.Protocol)
	}
	return nil
}

type HTTPServer struct {
	config HTTPServerConfig
	log    log.StructuredLogger
	srv    *http.Server
	addr   atomic.Pointer[string]

	Listener net.Listener
}

func NewHTTPServer(cfg *HTTPServerConfig, h http.Handler, logger log.StructuredLogger) (*HTTPServer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hs := &HTTPServer{
		config: *cfg,
		log:    log.OrNop(logger),
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           h,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
		},
	}
	if cfg.Protocol == HTTPSScheme {
		hs.srv.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	return hs, nil
}

// SetHandler replaces the handler, it must be called before Run.
// It allows the handler to depend on the server, i.e. for readiness checks.
func (hs *HTTPServer) SetHandler(h http.Handler) {
	hs.srv.Handler = h
}

// Addr returns the address the server listens on or empty string if the server is not running.
func (hs *HTTPServer) Addr() string {
	if p := hs.addr.Load(); p != nil {
		return *p
	}
	return ""
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (hs *HTTPServer) Run(ctx context.Context) error {
	l, err := hs.listener()
	if err != nil {
		return err
	}
	addr := l.Addr().String()
	hs.addr.Store(&addr)
	defer hs.addr.Store(nil)

	hs.log.Info("HTTP server listen", "address", addr, "protocol", hs.config.Protocol)

	errc := make(chan error, 1)
	go func() {
		if hs.config.Protocol == HTTPSScheme {
			errc <- hs.srv.ServeTLS(l, hs.config.CertFile, hs.config.KeyFile)
		} else {
			errc <- hs.srv.Serve(l)
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), hs.config.ShutdownTimeout)
	defer cancel()
	if err := hs.srv.Shutdown(sctx); err != nil {
		hs.log.Error("failed to shutdown server", "error", err)
		hs.srv.Close()
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	hs.log.Debug("server was shutdown gracefully")

	return nil
}

func (hs *HTTPServer) listener() (net.Listener, error) {
	if hs.Listener != nil {
		return hs.Listener, nil
	}

	l, err := net.Listen("tcp", hs.srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to open listener on address %s: %w", hs.srv.Addr, err)
	}
	return l, nil
}
