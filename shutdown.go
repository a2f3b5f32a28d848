// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pxroute

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// DefaultShutdownSignals are the signals that stop a running server.
var DefaultShutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM} //nolint:gochecknoglobals // fixed set

// ShutdownContext returns a context that is canceled when one of the signals is received.
func ShutdownContext(ctx context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	if len(signals) == 0 {
		signals = DefaultShutdownSignals
	}
	return signal.NotifyContext(ctx, signals...)
}
