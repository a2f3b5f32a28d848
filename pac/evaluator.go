// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pac

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/saucelabs/pxroute/log"
	"golang.org/x/exp/utf8string"
)

// ErrNoDecision is returned by Evaluator.Test when the script cannot produce a routing decision.
var ErrNoDecision = errors.New("no decision")

// Evaluator evaluates PAC scripts.
// Implementations are safe for concurrent use.
type Evaluator interface {
	// Evaluate returns the routing directive for the URL and host.
	// It never fails, in the worst case it returns DIRECT.
	Evaluate(ctx context.Context, content, url, host string) Proxies

	// Test is like Evaluate but it returns an error wrapping ErrNoDecision
	// if the script is empty, invalid or fails to produce a result, so that it can be told apart from DIRECT.
	// It does not fall back to another strategy.
	Test(ctx context.Context, content, url, host string) (Proxies, error)
}

// NewEvaluator returns ScriptEvaluator if sandbox is not nil and HeuristicEvaluator otherwise.
func NewEvaluator(sandbox Sandbox, logger log.StructuredLogger) Evaluator {
	if sandbox == nil {
		return HeuristicEvaluator{}
	}
	return NewScriptEvaluator(sandbox, logger)
}

// ScriptEvaluator runs the script with the helper functions in a Sandbox and calls FindProxyForURL(url, host).
// If that fails it falls back to HeuristicEvaluator.
type ScriptEvaluator struct {
	sandbox  Sandbox
	log      log.StructuredLogger
	fallback HeuristicEvaluator

	// OnFailure is called with the script error before falling back.
	OnFailure func(err error)
}

func NewScriptEvaluator(sandbox Sandbox, logger log.StructuredLogger) *ScriptEvaluator {
	return &ScriptEvaluator{
		sandbox: sandbox,
		log:     log.OrNop(logger),
	}
}

func (e *ScriptEvaluator) Evaluate(ctx context.Context, content, url, host string) Proxies {
	p, err := e.Run(ctx, content, url, host)
	if err == nil {
		return p
	}

	e.log.WarnContext(ctx, "PAC script evaluation failed, using heuristic", "url", url, "host", host, "error", err)
	if e.OnFailure != nil {
		e.OnFailure(err)
	}
	return e.fallback.Evaluate(ctx, content, url, host)
}

func (e *ScriptEvaluator) Test(ctx context.Context, content, url, host string) (Proxies, error) {
	if err := checkTestable(content); err != nil {
		return "", err
	}
	p, err := e.Run(ctx, content, url, host)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoDecision, err)
	}
	return p, nil
}

// Run executes the script without falling back to the heuristic.
func (e *ScriptEvaluator) Run(ctx context.Context, content, url, host string) (Proxies, error) {
	if strings.TrimSpace(content) == "" {
		return "", errors.New("PAC script is empty")
	}

	s, err := e.sandbox.Execute(ctx, helpersScript+"\n"+content, EntryPoint, url, host)
	if err != nil {
		return "", fmt.Errorf("PAC script: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("PAC script: %s returned empty string", EntryPoint)
	}
	if !utf8string.NewString(s).IsASCII() {
		return "", fmt.Errorf("PAC script: non-ASCII characters in the return value %q", s)
	}

	return Proxies(s), nil
}

func checkTestable(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: %s", ErrNoDecision, ErrMsgEmpty)
	}
	if r := Check(content); !r.Valid() {
		return fmt.Errorf("%w: %s", ErrNoDecision, strings.Join(r.Errors, "; "))
	}
	return nil
}
