// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package bypass

import (
	"strings"
)

// Publisher delivers the canonical bypass list to a downstream consumer.
type Publisher interface {
	Publish(value string) error
}

// PublisherFunc is an adapter to allow the use of ordinary functions as Publisher.
type PublisherFunc func(value string) error

func (f PublisherFunc) Publish(value string) error {
	return f(value)
}

// Publish formats the configuration and hands it to the publisher.
func Publish(c *Config, p Publisher) error {
	return p.Publish(Format(c))
}

// EnvVars are the environment variable names set by EnvPublisher.
var EnvVars = []string{"NO_PROXY", "no_proxy"} //nolint:gochecknoglobals // fixed set

// EnvPublisher publishes the bypass list into an environment slice (as used by os/exec.Cmd.Env).
// It does not modify the environment of the current process.
type EnvPublisher struct {
	Env []string
}

// Publish replaces the NO_PROXY and no_proxy entries in Env.
// An empty value removes them.
func (p *EnvPublisher) Publish(value string) error {
	env := make([]string, 0, len(p.Env)+len(EnvVars))
	for _, kv := range p.Env {
		if !isEnvVar(kv) {
			env = append(env, kv)
		}
	}
	if value != "" {
		for _, k := range EnvVars {
			env = append(env, k+"="+value)
		}
	}
	p.Env = env
	return nil
}

func isEnvVar(kv string) bool {
	k, _, _ := strings.Cut(kv, "=")
	for _, v := range EnvVars {
		if k == v {
			return true
		}
	}
	return false
}
