// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pxroute

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/saucelabs/pxroute/bypass"
	"github.com/saucelabs/pxroute/pac"
	"go.uber.org/goleak"
)

const routerScript = `function FindProxyForURL(url, host) {
  if (dnsDomainIs(host, ".direct.example")) {
    return "DIRECT";
  }
  return "PROXY p.example:8080; DIRECT";
}
`

func mustParseURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func newTestRouter(t *testing.T, cfg *RouterConfig, script string, bc *bypass.Config) *Router {
	t.Helper()
	if cfg == nil {
		cfg = DefaultRouterConfig()
	}
	var s *pac.Script
	if script != "" {
		s = pac.NewInlineScript(script)
	}
	r, err := NewRouter(cfg, s, bc, nil)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRouterRoute(t *testing.T) {
	bc := bypass.NewConfig()
	if err := bc.Add("*.bypass.example"); err != nil {
		t.Fatal(err)
	}
	r := newTestRouter(t, nil, routerScript, bc)

	tests := []struct {
		url  string
		host string
		want Decision
	}{
		{"http://localhost:8080/", "", Decision{Bypass: true, Rule: bypass.LocalhostRule, Proxies: "DIRECT"}},
		{"http://192.168.1.1/", "", Decision{Bypass: true, Rule: bypass.PrivateNetworksRule, Proxies: "DIRECT"}},
		{"https://a.bypass.example/x", "", Decision{Bypass: true, Rule: "*.bypass.example", Proxies: "DIRECT"}},
		{"https://www.direct.example/", "", Decision{Proxies: "DIRECT"}},
		{"https://www.example.com/", "", Decision{Proxies: "PROXY p.example:8080; DIRECT"}},
		{"https://www.example.com/", "a.bypass.example", Decision{Bypass: true, Rule: "*.bypass.example", Proxies: "DIRECT"}},
	}

	for i := range tests {
		tc := tests[i]
		t.Run(tc.url+" "+tc.host, func(t *testing.T) {
			got := r.Route(context.Background(), mustParseURL(t, tc.url), tc.host)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("Route() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRouterNoScript(t *testing.T) {
	r := newTestRouter(t, nil, "", &bypass.Config{})
	got := r.Route(context.Background(), mustParseURL(t, "http://example.com/"), "")
	if diff := cmp.Diff(Decision{Proxies: "DIRECT"}, got); diff != "" {
		t.Fatalf("Route() mismatch (-want +got):\n%s", diff)
	}
}

func TestRouterDisableScript(t *testing.T) {
	const script = `function FindProxyForURL(url, host) {
  if (host.length > 3) {
    return "PROXY long.example:1";
  }
  return "DIRECT";
}`

	ctx := context.Background()
	u := mustParseURL(t, "https://www.example.com/")

	if got := newTestRouter(t, nil, script, &bypass.Config{}).Route(ctx, u, ""); got.Proxies != "PROXY long.example:1" {
		t.Fatalf("Route() = %q", got.Proxies)
	}

	cfg := DefaultRouterConfig()
	cfg.DisableScript = true
	// The heuristic does not execute the condition, the last return wins.
	if got := newTestRouter(t, cfg, script, &bypass.Config{}).Route(ctx, u, ""); got.Proxies != "DIRECT" {
		t.Fatalf("Route() = %q", got.Proxies)
	}
}

func TestRouterTest(t *testing.T) {
	const script = `function FindProxyForURL(url, host) {
  if (host == "undecided.example") return null;
  return "PROXY p.example:8080";
}`

	ctx := context.Background()
	r := newTestRouter(t, nil, script, &bypass.Config{BypassLocalhost: true})

	d, err := r.Test(ctx, mustParseURL(t, "http://localhost:8080/"), "")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Decision{Bypass: true, Rule: bypass.LocalhostRule, Proxies: "DIRECT"}, d); diff != "" {
		t.Fatalf("Test() mismatch (-want +got):\n%s", diff)
	}

	d, err = r.Test(ctx, mustParseURL(t, "https://other.example/"), "")
	if err != nil {
		t.Fatal(err)
	}
	if d.Proxies != "PROXY p.example:8080" {
		t.Fatalf("Test() = %q", d.Proxies)
	}

	u := mustParseURL(t, "https://undecided.example/")
	if d, err := r.Test(ctx, u, ""); !errors.Is(err, pac.ErrNoDecision) {
		t.Fatalf("Test() = %+v, %v, want ErrNoDecision", d, err)
	}
	// Route approximates instead.
	if got := r.Route(ctx, u, ""); got.Proxies != "PROXY p.example:8080" {
		t.Fatalf("Route() = %q", got.Proxies)
	}

	if _, err := newTestRouter(t, nil, "", &bypass.Config{}).Test(ctx, u, ""); !errors.Is(err, pac.ErrNoDecision) {
		t.Fatalf("expected ErrNoDecision without script, got %v", err)
	}
}

func TestRouterSetScript(t *testing.T) {
	r := newTestRouter(t, nil, routerScript, &bypass.Config{})

	err := r.SetScript(pac.NewInlineScript(`function FindProxyForURL(url, host) {`))
	if err == nil || !strings.Contains(err.Error(), "unbalanced braces") {
		t.Fatalf("expected validation error, got %v", err)
	}
	if r.Script().Content != routerScript {
		t.Fatal("invalid script should not replace the current one")
	}

	s := pac.NewInlineScript(`function FindProxyForURL(url, host) { return "PROXY other:1"; }`)
	if err := r.SetScript(s); err != nil {
		t.Fatal(err)
	}
	s.SetContent("changed after SetScript")
	if got := r.Route(context.Background(), mustParseURL(t, "http://example.com/"), ""); got.Proxies != "PROXY other:1" {
		t.Fatalf("Route() = %q", got.Proxies)
	}

	if err := r.SetScript(nil); err != nil {
		t.Fatal(err)
	}
	if r.Script() != nil {
		t.Fatal("expected no script")
	}
}

func TestRouterSetBypass(t *testing.T) {
	r := newTestRouter(t, nil, "", nil)
	if got, want := r.NoProxy(), bypass.Format(bypass.NewConfig()); got != want {
		t.Fatalf("NoProxy() = %q, want %q", got, want)
	}

	if err := r.SetBypass(&bypass.Config{Patterns: []string{"bad_host"}}); err == nil {
		t.Fatal("expected validation error")
	}

	bc := &bypass.Config{Patterns: []string{"a.com"}}
	if err := r.SetBypass(bc); err != nil {
		t.Fatal(err)
	}
	bc.Patterns[0] = "b.com"

	if got := r.NoProxy(); got != "a.com" {
		t.Fatalf("NoProxy() = %q", got)
	}
	c := r.Bypass()
	c.Patterns = append(c.Patterns, "c.com")
	if got := r.NoProxy(); got != "a.com" {
		t.Fatalf("Bypass() returned shared state, NoProxy() = %q", got)
	}
}

func TestRouterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := DefaultRouterConfig()
	cfg.PromRegistry = reg
	cfg.PromNamespace = "test"

	r := newTestRouter(t, cfg, `function FindProxyForURL(url, host) {
  if (host == "boom.example") throw new Error("boom");
  return "DIRECT";
}`, bypass.NewConfig())

	ctx := context.Background()
	r.Route(ctx, mustParseURL(t, "http://localhost/"), "")
	r.Route(ctx, mustParseURL(t, "http://example.com/"), "")
	r.Route(ctx, mustParseURL(t, "http://boom.example/"), "")

	expected := `
# HELP test_route_decisions_total Number of routing decisions by source
# TYPE test_route_decisions_total counter
test_route_decisions_total{source="bypass"} 1
test_route_decisions_total{source="pac"} 2
# HELP test_pac_script_failures_total Number of PAC script evaluations that fell back to the heuristic
# TYPE test_pac_script_failures_total counter
test_pac_script_failures_total 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"test_route_decisions_total", "test_pac_script_failures_total"); err != nil {
		t.Fatal(err)
	}
}

func TestRouterConcurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := newTestRouter(t, nil, routerScript, bypass.NewConfig())
	u := mustParseURL(t, "https://www.example.com/")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				d := r.Route(context.Background(), u, "")
				if d.Bypass {
					t.Error("unexpected bypass")
				}
			}
		}()
		go func(i int) {
			defer wg.Done()
			bc := bypass.NewConfig()
			if i%2 == 0 {
				bc.BypassPrivateNetworks = false
			}
			if err := r.SetBypass(bc); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
}
