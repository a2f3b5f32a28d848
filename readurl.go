// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pxroute

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/saucelabs/pxroute/pac"
	"golang.org/x/text/encoding/charmap"
)

// ReadScript loads a PAC script from the source value, see pac.ParseSource for the supported formats.
// Content is decoded from enc, an empty enc means UTF-8.
// If the content is not valid in enc, UTF-8, Latin-1 and Windows-1252 are tried in that order
// and the script Encoding is set to the one that worked.
// The returned script is not validated.
func ReadScript(ctx context.Context, val, enc string, rt http.RoundTripper) (*pac.Script, error) {
	if enc != "" && !slices.Contains(pac.Encodings, enc) {
		return nil, fmt.Errorf("unsupported encoding %q, supported encodings are: %s", enc, strings.Join(pac.Encodings, ", "))
	}

	src, err := pac.ParseSource(val)
	if err != nil {
		return nil, err
	}

	s := &pac.Script{
		SourceKind: src.Kind,
		Locator:    src.Locator(),
		Encoding:   enc,
	}

	var b []byte
	if src.Kind == pac.InlineSource && src.URL == nil {
		b = []byte(src.Inline)
	} else {
		b, err = ReadURL(ctx, src.URL, rt)
		if err != nil {
			return nil, err
		}
	}

	content, used, err := decodeScript(b, s.EncodingOrDefault())
	if err != nil {
		return nil, err
	}
	s.Content = content
	s.Encoding = used

	return s, nil
}

// decodeScript decodes b using enc falling back to other supported encodings.
func decodeScript(b []byte, enc string) (content, used string, err error) {
	order := []string{enc}
	for _, e := range []string{pac.UTF8, pac.Latin1, pac.CP1252} {
		if e != enc {
			order = append(order, e)
		}
	}

	for _, e := range order {
		if s, ok := decode(b, e); ok {
			return s, e, nil
		}
	}
	return "", "", fmt.Errorf("cannot decode PAC script as any of %s", strings.Join(order, ", "))
}

func decode(b []byte, enc string) (string, bool) {
	switch enc {
	case pac.UTF8:
		if !utf8.Valid(b) {
			return "", false
		}
		return strings.TrimPrefix(string(b), "\ufeff"), true
	case pac.ASCII:
		for _, c := range b {
			if c >= utf8.RuneSelf {
				return "", false
			}
		}
		return string(b), true
	case pac.Latin1:
		return decodeCharmap(charmap.ISO8859_1, b)
	case pac.CP1252:
		return decodeCharmap(charmap.Windows1252, b)
	default:
		return "", false
	}
}

// decodeCharmap rejects bytes that the code page does not define.
func decodeCharmap(cm *charmap.Charmap, b []byte) (string, bool) {
	for _, c := range b {
		if cm.DecodeByte(c) == utf8.RuneError {
			return "", false
		}
	}
	s, err := cm.NewDecoder().String(string(b))
	if err != nil {
		return "", false
	}
	return s, true
}

// ReadURL can read base64 encoded data, local file, http or https URL or stdin.
// The size is limited to pac.MaxScriptSize.
func ReadURL(ctx context.Context, u *url.URL, rt http.RoundTripper) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	switch u.Scheme {
	case "data":
		b, err = readData(u)
	case "file":
		b, err = readFile(u)
	case "http", "https":
		b, err = readHTTP(ctx, u, rt)
	default:
		return nil, fmt.Errorf("unsupported scheme %q, supported schemes are: file, http and https", u.Scheme)
	}
	if err != nil {
		return nil, err
	}
	if len(b) > pac.MaxScriptSize {
		return nil, fmt.Errorf("PAC script too large: more than %d bytes", pac.MaxScriptSize)
	}
	return b, nil
}

func readData(u *url.URL) ([]byte, error) {
	v := strings.TrimPrefix(u.Opaque, "//")

	idx := strings.IndexByte(v, ',')
	if idx != -1 {
		if v[:idx] != "base64" {
			return nil, fmt.Errorf("invalid data URI, the only supported format is: data:base64,<encoded data>")
		}
		v = v[idx+1:]
	}

	return base64.StdEncoding.DecodeString(v)
}

func readFile(u *url.URL) ([]byte, error) {
	if u.Host != "" {
		return nil, fmt.Errorf("invalid file URL %q, host is not allowed", u.String())
	}
	if u.User != nil {
		return nil, fmt.Errorf("invalid file URL %q, user is not allowed", u.String())
	}
	if u.RawQuery != "" {
		return nil, fmt.Errorf("invalid file URL %q, query is not allowed", u.String())
	}
	if u.Fragment != "" {
		return nil, fmt.Errorf("invalid file URL %q, fragment is not allowed", u.String())
	}
	if u.Path == "" {
		return nil, fmt.Errorf("invalid file URL %q, path is empty", u.String())
	}

	if u.Path == "-" {
		return readLimited(os.Stdin)
	}

	f, err := os.Open(u.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f)
}

// readLimited reads one byte over the limit so that ReadURL can report oversized input.
func readLimited(r io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, pac.MaxScriptSize+1))
}

func readHTTP(ctx context.Context, u *url.URL, rt http.RoundTripper) ([]byte, error) {
	c := http.Client{
		Transport: rt,
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	return readLimited(resp.Body)
}
