// Copyright 2022-2024 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pac

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Proxies is the routing directive produced by FindProxyForURL.
// It is a semicolon separated list of entries tried in order until one succeeds,
// each entry is DIRECT or "<mode> <host>:<port>" where mode is one of
// PROXY, HTTP, HTTPS, SOCKS, SOCKS4 or SOCKS5.
// An empty directive means DIRECT.
//
// See https://developer.mozilla.org/en-US/docs/Web/HTTP/Proxy_servers_and_tunneling/Proxy_Auto-Configuration_PAC_file#return_value_format
type Proxies string

// Mode is the connection type of a directive entry.
type Mode int

const (
	DIRECT Mode = iota
	PROXY
	HTTP
	HTTPS
	SOCKS
	SOCKS4
	SOCKS5
)

var modeNames = [...]string{ //nolint:gochecknoglobals // lookup table
	DIRECT: "DIRECT",
	PROXY:  "PROXY",
	HTTP:   "HTTP",
	HTTPS:  "HTTPS",
	SOCKS:  "SOCKS",
	SOCKS4: "SOCKS4",
	SOCKS5: "SOCKS5",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// lookupMode finds the mode by its case-insensitive name, DIRECT is not a proxy mode.
func lookupMode(name string) (Mode, bool) {
	for m := PROXY; int(m) < len(modeNames); m++ {
		if strings.EqualFold(modeNames[m], name) {
			return m, true
		}
	}
	return DIRECT, false
}

// Proxy is a single parsed directive entry.
// Credentials are only set when the entry was written as user:pass@host:port.
type Proxy struct {
	Mode     Mode
	Host     string
	Port     string
	Username string
	Password string
}

// URL returns the proxy URL in the form accepted by http.Transport.Proxy, nil for DIRECT.
// PROXY entries use the http scheme.
func (p Proxy) URL() *url.URL {
	if p.Mode == DIRECT {
		return nil
	}

	scheme := p.Mode
	if scheme == PROXY {
		scheme = HTTP
	}
	u := &url.URL{
		Scheme: strings.ToLower(scheme.String()),
		Host:   net.JoinHostPort(p.Host, p.Port),
	}
	if p.Username != "" {
		u.User = url.UserPassword(p.Username, p.Password)
	}
	return u
}

// String formats the entry back into the directive syntax without credentials.
func (p Proxy) String() string {
	if p.Mode == DIRECT {
		return modeNames[DIRECT]
	}
	return p.Mode.String() + " " + net.JoinHostPort(p.Host, p.Port)
}

func (s Proxies) String() string {
	return string(s)
}

// IsDirect reports whether the first entry is DIRECT.
func (s Proxies) IsDirect() bool {
	p, err := s.First()
	return err == nil && p.Mode == DIRECT
}

// First parses the first entry only.
func (s Proxies) First() (Proxy, error) {
	entry, _, _ := strings.Cut(string(s), ";")
	p, err := parseEntry(entry)
	if err != nil {
		return Proxy{}, entryError(0, entry, err)
	}
	return p, nil
}

// All parses every entry, it returns nil for an empty directive.
func (s Proxies) All() ([]Proxy, error) {
	if s == "" {
		return nil, nil
	}

	entries := strings.Split(string(s), ";")
	res := make([]Proxy, 0, len(entries))
	for i, e := range entries {
		p, err := parseEntry(e)
		if err != nil {
			return nil, entryError(i, e, err)
		}
		res = append(res, p)
	}
	return res, nil
}

func entryError(pos int, entry string, err error) error {
	return fmt.Errorf("invalid proxy string at pos %d %q: %w", pos, entry, err)
}

func parseEntry(entry string) (Proxy, error) {
	fields := strings.Fields(entry)
	switch len(fields) {
	case 0:
		return Proxy{}, nil
	case 1:
		if strings.EqualFold(fields[0], modeNames[DIRECT]) {
			return Proxy{}, nil
		}
		return Proxy{}, errors.New("missing host:port")
	case 2:
	default:
		return Proxy{}, fmt.Errorf("unexpected %q after host:port", fields[2])
	}

	m, ok := lookupMode(fields[0])
	if !ok {
		return Proxy{}, fmt.Errorf("unknown proxy type %q", fields[0])
	}
	p := Proxy{Mode: m}

	hostport := fields[1]
	if i := strings.LastIndexByte(hostport, '@'); i >= 0 {
		p.Username, p.Password, ok = strings.Cut(hostport[:i], ":")
		if !ok {
			return Proxy{}, fmt.Errorf("invalid proxy credentials %q, expected user:pass", hostport[:i])
		}
		hostport = hostport[i+1:]
	}

	var err error
	if p.Host, p.Port, err = net.SplitHostPort(hostport); err != nil {
		return Proxy{}, fmt.Errorf("split host:port: %w", err)
	}
	return p, nil
}
