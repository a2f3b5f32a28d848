// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pxroute

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/saucelabs/pxroute/bypass"
	"github.com/saucelabs/pxroute/log"
	"github.com/saucelabs/pxroute/pac"
)

type RouterConfig struct {
	// ScriptTimeout is the execution budget of a single PAC script evaluation.
	ScriptTimeout time.Duration `json:"script_timeout"`

	// DisableScript evaluates PAC scripts with the heuristic only.
	DisableScript bool `json:"disable_script"`

	PromConfig
}

func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		ScriptTimeout: pac.DefaultScriptTimeout,
	}
}

func (c *RouterConfig) Validate() error {
	if c.ScriptTimeout < 0 {
		return errors.New("script timeout must be positive")
	}
	return nil
}

// Decision is the routing decision for a request.
type Decision struct {
	// Bypass is true if the host matched the bypass list, Proxies is DIRECT then.
	Bypass bool `json:"bypass"`
	// Rule is the bypass rule that matched.
	Rule string `json:"rule,omitempty"`
	// Proxies is the routing directive.
	Proxies pac.Proxies `json:"proxies"`
}

type bypassSnapshot struct {
	config  *bypass.Config
	matcher *bypass.Matcher
}

// Router routes requests according to the bypass list and the PAC script.
// The bypass list is checked first, the PAC script is evaluated only when the host is not bypassed.
// Without a PAC script requests go DIRECT.
//
// Router is safe for concurrent use, SetScript and SetBypass replace configuration snapshots atomically.
type Router struct {
	config  RouterConfig
	log     log.StructuredLogger
	eval    pac.Evaluator
	metrics *routerMetrics

	script atomic.Pointer[pac.Script]
	bypass atomic.Pointer[bypassSnapshot]
}

// NewRouter returns a router, script may be nil.
func NewRouter(cfg *RouterConfig, script *pac.Script, bc *bypass.Config, logger log.StructuredLogger) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = log.OrNop(logger)

	r := &Router{
		config:  *cfg,
		log:     logger,
		metrics: newRouterMetrics(cfg.PromRegistry, cfg.PromNamespace),
	}

	var sandbox pac.Sandbox
	if !cfg.DisableScript {
		sandbox = pac.NewGojaSandbox(cfg.ScriptTimeout)
	}
	ev := pac.NewEvaluator(sandbox, logger)
	if se, ok := ev.(*pac.ScriptEvaluator); ok {
		se.OnFailure = r.metrics.scriptFailure
	}
	r.eval = &LoggingEvaluator{Evaluator: ev, Logger: logger}

	if err := r.SetScript(script); err != nil {
		return nil, err
	}
	if bc == nil {
		bc = bypass.NewConfig()
	}
	if err := r.SetBypass(bc); err != nil {
		return nil, err
	}

	return r, nil
}

// SetScript validates a copy of the script and makes it current.
// A nil script removes the current script.
func (r *Router) SetScript(s *pac.Script) error {
	if s == nil {
		r.script.Store(nil)
		r.metrics.scriptUpdates.Inc()
		return nil
	}

	cs := *s
	if !cs.Validate() {
		return fmt.Errorf("invalid PAC script %s: %s", cs.DisplayName(), strings.Join(cs.Errors(), "; "))
	}
	for _, w := range cs.Warnings() {
		r.log.Warn("PAC script", "source", cs.DisplayName(), "warning", w)
	}

	r.script.Store(&cs)
	r.metrics.scriptUpdates.Inc()
	r.log.Info("PAC script updated", "source", cs.DisplayName(), "size", len(cs.Content))
	return nil
}

// SetBypass validates a copy of the configuration and makes it current.
func (r *Router) SetBypass(c *bypass.Config) error {
	cc := c.Clone()
	if !cc.Validate() {
		return fmt.Errorf("invalid bypass configuration: %s", strings.Join(cc.Errors(), "; "))
	}

	r.bypass.Store(&bypassSnapshot{
		config:  cc,
		matcher: bypass.Compile(cc),
	})
	r.metrics.bypassUpdates.Inc()
	r.log.Info("bypass configuration updated", "summary", cc.Summary())
	return nil
}

// Script returns the current script or nil, it must not be modified.
func (r *Router) Script() *pac.Script {
	return r.script.Load()
}

// Bypass returns a copy of the current bypass configuration.
func (r *Router) Bypass() *bypass.Config {
	return r.bypass.Load().config.Clone()
}

// NoProxy returns the current bypass list in the canonical NO_PROXY format.
func (r *Router) NoProxy() string {
	return bypass.Format(r.bypass.Load().config)
}

// Route returns the routing decision for the URL.
// The host is optional, if empty it will be extracted from the URL.
// It never fails, the decision is DIRECT in the worst case.
func (r *Router) Route(ctx context.Context, u *url.URL, host string) Decision {
	start := time.Now()
	if host == "" {
		host = u.Hostname()
	}
	if d, ok := r.bypassDecision(host, start); ok {
		return d
	}

	s := r.script.Load()
	if s == nil {
		r.metrics.decision(sourceNone, start)
		return Decision{Proxies: "DIRECT"}
	}

	p := r.eval.Evaluate(ctx, s.Content, u.String(), host)
	r.metrics.decision(sourcePAC, start)
	return Decision{Proxies: p}
}

// Test is like Route but the PAC script must make the decision.
// It returns an error wrapping pac.ErrNoDecision if there is no script
// or the script does not produce a routing directive.
func (r *Router) Test(ctx context.Context, u *url.URL, host string) (Decision, error) {
	start := time.Now()
	if host == "" {
		host = u.Hostname()
	}
	if d, ok := r.bypassDecision(host, start); ok {
		return d, nil
	}

	s := r.script.Load()
	if s == nil {
		return Decision{}, fmt.Errorf("%w: no PAC script configured", pac.ErrNoDecision)
	}

	p, err := r.eval.Test(ctx, s.Content, u.String(), host)
	if err != nil {
		return Decision{}, err
	}
	r.metrics.decision(sourcePAC, start)
	return Decision{Proxies: p}, nil
}

func (r *Router) bypassDecision(host string, start time.Time) (Decision, bool) {
	rule, ok := r.bypass.Load().matcher.Lookup(host)
	if !ok {
		return Decision{}, false
	}
	r.metrics.decision(sourceBypass, start)
	return Decision{Bypass: true, Rule: rule, Proxies: "DIRECT"}, true
}

// LoggingEvaluator logs evaluation results.
type LoggingEvaluator struct {
	Evaluator pac.Evaluator
	Logger    log.StructuredLogger
}

func (e *LoggingEvaluator) Evaluate(ctx context.Context, content, u, host string) pac.Proxies {
	p := e.Evaluator.Evaluate(ctx, content, u, host)
	e.Logger.DebugContext(ctx, "FindProxyForURL", "url", redactURL(u), "host", host, "result", p)
	return p
}

func (e *LoggingEvaluator) Test(ctx context.Context, content, u, host string) (pac.Proxies, error) {
	p, err := e.Evaluator.Test(ctx, content, u, host)
	if err != nil {
		e.Logger.ErrorContext(ctx, "FindProxyForURL failed", "url", redactURL(u), "host", host, "error", err)
	} else {
		e.Logger.DebugContext(ctx, "FindProxyForURL", "url", redactURL(u), "host", host, "result", p)
	}
	return p, err
}

func redactURL(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	return u.Redacted()
}
