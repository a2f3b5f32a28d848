// Copyright 2023 Sauce Labs Inc. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pac

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// InlinePrefix marks a script given directly as the source value.
const InlinePrefix = "inline:"

var (
	uncEmptyAuthorityRegex = regexp.MustCompile(`^file:/{4,}([^/])`)
	windowsVolumeRegex     = regexp.MustCompile(`^/?([a-zA-Z])[:\|]/`)
)

// Source is a parsed script source value.
type Source struct {
	Kind SourceKind
	// URL is set for file and url sources, and for data URLs.
	URL *url.URL
	// Inline is the script for inline: sources.
	Inline string
}

// ParseSource parses a script source value, it can be:
//   - "inline:<script>",
//   - "-" for stdin,
//   - a data URL "data:base64,<encoded script>",
//   - an http or https URL,
//   - a file path or file URL as described in RFC 8089.
//
// Data URLs are inline sources.
func ParseSource(val string) (*Source, error) {
	if s, ok := strings.CutPrefix(val, InlinePrefix); ok {
		return &Source{Kind: InlineSource, Inline: s}, nil
	}

	u, err := ParseFilePathOrURL(val)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "file":
		return &Source{Kind: FileSource, URL: u}, nil
	case "http", "https":
		return &Source{Kind: URLSource, URL: u}, nil
	case "data":
		return &Source{Kind: InlineSource, URL: u}, nil
	default:
		return nil, fmt.Errorf("unsupported scheme %q, supported schemes are: file, http, https and data", u.Scheme)
	}
}

// Locator returns the value stored in Script.Locator.
func (s *Source) Locator() string {
	if s.Kind == InlineSource || s.URL == nil {
		return ""
	}
	if s.Kind == FileSource {
		return s.URL.Path
	}
	return s.URL.String()
}

// ParseFilePathOrURL extends url.Parse with the ability to parse file paths
// and adds extended support for URL file scheme as described in RFC 8089.
// If there is no scheme, it will be set to "file".
// If value equals "-", it will be set to "file://-" meaning stdin.
func ParseFilePathOrURL(val string) (*url.URL, error) {
	if val == "-" {
		return &url.URL{Scheme: "file", Path: "-"}, nil
	}

	val = strings.ReplaceAll(val, "\\", "/")

	// UNC paths.
	if strings.HasPrefix(val, "//") {
		val = "file:" + val
	}
	if m := uncEmptyAuthorityRegex.FindStringSubmatch(val); m != nil {
		val = "file://" + m[1] + val[len(m[0]):]
	}

	u, err := url.Parse(val)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		u.Scheme = "file"
	}
	if u.Scheme != "file" {
		return u, nil
	}

	// Windows paths.
	if u.Path == "" && u.Opaque != "" {
		u.Path, u.Opaque = u.Opaque, u.Path
	}
	if m := windowsVolumeRegex.FindStringSubmatch(u.Path); m != nil {
		u.Path = m[1] + ":/" + u.Path[len(m[0]):]
	}

	return u, nil
}
