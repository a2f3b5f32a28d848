// Copyright 2023 Sauce Labs Inc. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cobrautil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"
)

type DescribeFormat int

const (
	Plain DescribeFormat = iota
	JSON
	YAML
)

// FlagsDescriber renders flag values, it is used to log the effective configuration.
// Values are taken from Value.String() so redacted flags stay redacted.
type FlagsDescriber struct {
	Format          DescribeFormat
	ShowChangedOnly bool
	ShowHidden      bool
}

func (d FlagsDescriber) DescribeFlags(fs *pflag.FlagSet) (string, error) {
	values := d.collect(fs)

	switch d.Format {
	case Plain:
		return describePlain(values), nil
	case JSON:
		b, err := json.Marshal(values)
		return string(b), err
	case YAML:
		return describeYAML(values)
	default:
		return "", fmt.Errorf("unknown describe format %d", d.Format)
	}
}

func (d FlagsDescriber) collect(fs *pflag.FlagSet) map[string]any {
	values := make(map[string]any)
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" || f.Hidden && !d.ShowHidden || !f.Changed && d.ShowChangedOnly {
			return
		}
		values[f.Name] = d.flagValue(f)
	})
	return values
}

func (d FlagsDescriber) flagValue(f *pflag.Flag) any {
	if sv, ok := f.Value.(sliceValue); ok {
		if d.Format == Plain {
			return strings.Join(sv.GetSlice(), ",")
		}
		return sv.GetSlice()
	}
	if f.Value.Type() == "bool" {
		return f.Value.String() == "true"
	}
	return f.Value.String()
}

func describePlain(values map[string]any) string {
	keys := maps.Keys(values)
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%v\n", k, values[k])
	}
	return sb.String()
}

func describeYAML(values map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(values); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type sliceValue interface {
	GetSlice() []string
}
