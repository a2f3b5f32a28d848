// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package bypass

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Config is a bypass (no-proxy) configuration.
//
// Patterns may contain duplicates and invalid entries, they are reported by Validate and never dropped.
// Validity is recomputed by Add, Remove and Clear, after changing the fields directly call Validate.
// Config is not safe for concurrent mutation, owners should Clone it and swap the pointer instead.
type Config struct {
	Patterns              []string `json:"patterns"`
	BypassLocalhost       bool     `json:"bypass_localhost"`
	BypassPrivateNetworks bool     `json:"bypass_private_networks"`

	valid  bool
	errors []string
}

// NewConfig returns a configuration that bypasses localhost and private networks and has no custom patterns.
func NewConfig() *Config {
	c := &Config{
		BypassLocalhost:       true,
		BypassPrivateNetworks: true,
	}
	c.Validate()
	return c
}

// Add validates the pattern and appends it to the list.
// The pattern is trimmed before it is added.
// The returned error is of type *InvalidPatternError, duplicates wrap ErrDuplicatePattern.
func (c *Config) Add(pattern string) error {
	p := strings.TrimSpace(pattern)
	if _, err := ParsePattern(p); err != nil {
		return err
	}
	if slices.Contains(c.Patterns, p) {
		return &InvalidPatternError{Pattern: p, Reason: "already in the list", Err: ErrDuplicatePattern}
	}

	c.Patterns = append(c.Patterns, p)
	c.Validate()
	return nil
}

// Remove removes the first occurrence of the pattern.
// It returns false if the pattern is not in the list.
func (c *Config) Remove(pattern string) bool {
	i := slices.Index(c.Patterns, pattern)
	if i < 0 {
		return false
	}
	c.Patterns = slices.Delete(c.Patterns, i, i+1)
	c.Validate()
	return true
}

// Clear removes all custom patterns.
func (c *Config) Clear() {
	c.Patterns = nil
	c.Validate()
}

// Validate recomputes validity, it reports each invalid pattern and each duplicated pattern.
func (c *Config) Validate() bool {
	var errs []string

	seen := make(map[string]bool, len(c.Patterns))
	for _, p := range c.Patterns {
		if _, err := ParsePattern(p); err != nil {
			errs = append(errs, fmt.Sprintf("invalid pattern %q: %s", p, err.(*InvalidPatternError).Reason)) //nolint:errorlint,forcetypeassert // ParsePattern returns *InvalidPatternError
		}
	}
	for _, p := range c.Patterns {
		if seen[p] {
			errs = append(errs, fmt.Sprintf("duplicate pattern %q", p))
		}
		seen[p] = true
	}

	c.errors = errs
	c.valid = len(errs) == 0
	return c.valid
}

// Valid returns the result of the last Validate call.
func (c *Config) Valid() bool {
	return c.valid
}

// Errors returns the errors found by the last Validate call.
func (c *Config) Errors() []string {
	return slices.Clone(c.errors)
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	return &Config{
		Patterns:              slices.Clone(c.Patterns),
		BypassLocalhost:       c.BypassLocalhost,
		BypassPrivateNetworks: c.BypassPrivateNetworks,
		valid:                 c.valid,
		errors:                slices.Clone(c.errors),
	}
}

// EffectivePatternCount returns the number of patterns in the canonical text format.
func (c *Config) EffectivePatternCount() int {
	n := len(c.Patterns)
	if c.BypassLocalhost {
		n += canonicalLocalhostTokens
	}
	if c.BypassPrivateNetworks {
		n += len(PrivateNetworks)
	}
	return n
}

// Summary returns a short human readable description of the configuration.
func (c *Config) Summary() string {
	var parts []string
	if c.BypassLocalhost {
		parts = append(parts, "localhost")
	}
	if c.BypassPrivateNetworks {
		parts = append(parts, "private networks")
	}
	if len(c.Patterns) > 0 {
		parts = append(parts, fmt.Sprintf("%d custom pattern(s)", len(c.Patterns)))
	}
	if len(parts) == 0 {
		return "No bypass patterns configured"
	}
	return "Bypass: " + strings.Join(parts, ", ")
}

type jsonConfig struct {
	Patterns              []string `json:"patterns"`
	BypassLocalhost       bool     `json:"bypass_localhost"`
	BypassPrivateNetworks bool     `json:"bypass_private_networks"`
	Valid                 bool     `json:"is_valid"`
	Errors                []string `json:"validation_errors"`
}

func (c *Config) MarshalJSON() ([]byte, error) {
	v := jsonConfig{
		Patterns:              c.Patterns,
		BypassLocalhost:       c.BypassLocalhost,
		BypassPrivateNetworks: c.BypassPrivateNetworks,
		Valid:                 c.valid,
		Errors:                c.errors,
	}
	if v.Patterns == nil {
		v.Patterns = []string{}
	}
	if v.Errors == nil {
		v.Errors = []string{}
	}
	return json.Marshal(v)
}

// UnmarshalJSON restores the configuration, missing booleans default to true.
// The stored validation result is ignored and recomputed.
func (c *Config) UnmarshalJSON(b []byte) error {
	v := jsonConfig{
		BypassLocalhost:       true,
		BypassPrivateNetworks: true,
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	*c = Config{
		Patterns:              v.Patterns,
		BypassLocalhost:       v.BypassLocalhost,
		BypassPrivateNetworks: v.BypassPrivateNetworks,
	}
	c.Validate()
	return nil
}
