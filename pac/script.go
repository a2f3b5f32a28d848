// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pac

import (
	"errors"
	"fmt"
	"net/url"
	"slices"

	"github.com/go-playground/validator/v10"
)

// SourceKind is where a script was loaded from.
type SourceKind string

const (
	FileSource   SourceKind = "file"
	URLSource    SourceKind = "url"
	InlineSource SourceKind = "inline"
)

// Supported script encodings.
const (
	UTF8   = "utf-8"
	ASCII  = "ascii"
	Latin1 = "latin-1"
	CP1252 = "cp1252"
)

// Encodings lists the supported script encodings.
var Encodings = []string{UTF8, ASCII, Latin1, CP1252} //nolint:gochecknoglobals // fixed set

// Script is a PAC script with its origin.
//
// Valid reports the result of the last Validate call, SetContent resets it.
// A Script shared between goroutines must not be modified, replace it instead.
type Script struct {
	SourceKind SourceKind `validate:"oneof=file url inline"`
	Locator    string     `validate:"required_unless=SourceKind inline,pacLocator"`
	Content    string
	Encoding   string `validate:"omitempty,oneof=utf-8 ascii latin-1 cp1252"`

	valid    bool
	errors   []string
	warnings []string
}

// NewInlineScript returns a UTF-8 script that was not loaded from a file or URL.
func NewInlineScript(content string) *Script {
	return &Script{
		SourceKind: InlineSource,
		Content:    content,
		Encoding:   UTF8,
	}
}

// SetContent replaces the script content, the script must be validated again.
func (s *Script) SetContent(content string) {
	s.Content = content
	s.valid = false
	s.errors = nil
	s.warnings = nil
}

// Validate checks the fields and the script syntax.
func (s *Script) Validate() bool {
	var errs []string
	if err := scriptValidator.Struct(s); err != nil {
		errs = append(errs, fieldErrors(s, err)...)
	}

	r := Check(s.Content)
	errs = append(errs, r.Errors...)

	s.errors = errs
	s.warnings = r.Warnings
	s.valid = len(errs) == 0
	return s.valid
}

func (s *Script) Valid() bool {
	return s.valid
}

// Errors returns the errors found by the last Validate call.
func (s *Script) Errors() []string {
	return slices.Clone(s.errors)
}

// Warnings returns the warnings found by the last Validate call.
func (s *Script) Warnings() []string {
	return slices.Clone(s.warnings)
}

// EncodingOrDefault returns the script encoding, UTF-8 if not set.
func (s *Script) EncodingOrDefault() string {
	if s.Encoding == "" {
		return UTF8
	}
	return s.Encoding
}

// DisplayName returns a human readable description of the script origin.
func (s *Script) DisplayName() string {
	switch s.SourceKind {
	case InlineSource:
		return "Inline Configuration"
	case FileSource:
		return "File: " + s.Locator
	case URLSource:
		return "URL: " + s.Locator
	default:
		return "Unknown Source"
	}
}

var scriptValidator = newValidator() //nolint:gochecknoglobals // validator caches struct info

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("pacLocator", isLocator); err != nil {
		panic(err)
	}
	return v
}

// isLocator checks that URL locators are http or https URLs with a host.
func isLocator(fl validator.FieldLevel) bool {
	var kind SourceKind
	switch s := fl.Parent().Interface().(type) {
	case Script:
		kind = s.SourceKind
	case *Script:
		kind = s.SourceKind
	}
	if kind != URLSource {
		return true
	}

	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func fieldErrors(s *Script, err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "SourceKind":
			msgs = append(msgs, fmt.Sprintf("invalid source type %q, must be one of file, url, inline", s.SourceKind))
		case "Locator":
			if fe.Tag() == "pacLocator" {
				msgs = append(msgs, fmt.Sprintf("invalid URL format %q", s.Locator))
			} else {
				msgs = append(msgs, fmt.Sprintf("source path is required for source type %s", s.SourceKind))
			}
		case "Encoding":
			msgs = append(msgs, fmt.Sprintf("unsupported encoding %q", s.Encoding))
		default:
			msgs = append(msgs, fe.Error())
		}
	}
	return msgs
}
