// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package log defines the logging interfaces used by pxroute packages.
// Engine packages only depend on these interfaces, see log/slog for the implementation.
package log

import (
	"context"
	"os"
)

// StructuredLogger is the logging interface used by the router, the PAC evaluator and the API server.
// Arguments are alternating keys and values as in log/slog.
type StructuredLogger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)

	ErrorContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	DebugContext(ctx context.Context, msg string, args ...any)

	With(args ...any) StructuredLogger
}

// OrNop returns l or NopLogger if l is nil.
func OrNop(l StructuredLogger) StructuredLogger {
	if l == nil {
		return NopLogger
	}
	return l
}

var (
	DefaultFileFlags = os.O_CREATE | os.O_APPEND | os.O_WRONLY

	DefaultFileMode os.FileMode = 0o600
)
