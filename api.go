// Copyright 2023 Sauce Labs Inc. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pxroute

import (
	"net/http"
	"net/http/pprof"
	"net/url"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saucelabs/pxroute/internal/version"
	"github.com/saucelabs/pxroute/utils/httphandler"
)

type server interface {
	Addr() string
}

// APIHandler serves API endpoints.
// It provides health and readiness endpoints, prometheus metrics, the current PAC script and bypass list,
// routing decisions, and pprof debug endpoints.
type APIHandler struct {
	mux    *http.ServeMux
	server server
	router *Router
}

// NewAPIHandler returns a handler for the router, s may be nil if the handler is not served by HTTPServer.
func NewAPIHandler(g prometheus.Gatherer, s server, r *Router) *APIHandler {
	m := http.NewServeMux()
	a := &APIHandler{
		mux:    m,
		server: s,
		router: r,
	}
	m.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	m.HandleFunc("/healthz", a.healthz)
	m.HandleFunc("/readyz", a.readyz)
	m.Handle("/version", httphandler.Version(version.Version, version.Time, version.Commit))
	m.HandleFunc("/pac", a.pac)
	m.Handle("/no-proxy", httphandler.SendString("text/plain", r.NoProxy))
	m.HandleFunc("/bypass", a.bypass)
	m.HandleFunc("/route", a.route)

	m.HandleFunc("/debug/pprof/", pprof.Index)
	m.HandleFunc("/debug/pprof/profile", pprof.Profile)
	m.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	m.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return a
}

func (h *APIHandler) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *APIHandler) readyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if h.server == nil || h.server.Addr() != "" {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Service Unavailable"))
	}
}

func (h *APIHandler) pac(w http.ResponseWriter, r *http.Request) {
	s := h.router.Script()
	if s == nil {
		http.Error(w, "no PAC script configured", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/x-ns-proxy-autoconfig")
	w.Write([]byte(s.Content))
}

func (h *APIHandler) bypass(w http.ResponseWriter, r *http.Request) {
	httphandler.JSON(w, http.StatusOK, h.router.Bypass())
}

// route serves the routing decision for the url query parameter, host is optional.
// With strict=true a request the PAC script cannot decide fails with 422 instead of being approximated.
func (h *APIHandler) route(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := strings.TrimSpace(q.Get("url"))
	if raw == "" {
		httphandler.Error(w, http.StatusBadRequest, "missing url parameter")
		return
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		httphandler.Error(w, http.StatusBadRequest, "invalid url parameter")
		return
	}

	strict, err := parseBoolParam(q.Get("strict"))
	if err != nil {
		httphandler.Error(w, http.StatusBadRequest, "invalid strict parameter")
		return
	}
	if !strict {
		httphandler.JSON(w, http.StatusOK, h.router.Route(r.Context(), u, q.Get("host")))
		return
	}

	d, err := h.router.Test(r.Context(), u, q.Get("host"))
	if err != nil {
		httphandler.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	httphandler.JSON(w, http.StatusOK, d)
}

func parseBoolParam(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}
