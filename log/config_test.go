// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package log

import (
	"context"
	"testing"
)

func TestLevelString(t *testing.T) {
	tests := map[Level]string{
		ErrorLevel: "error",
		WarnLevel:  "warn",
		InfoLevel:  "info",
		DebugLevel: "debug",
		Level(0):   "Level(0)",
		Level(9):   "Level(9)",
	}
	for l, want := range tests {
		if got := l.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", int(l), got, want)
		}
	}
}

func TestFormatString(t *testing.T) {
	if got := JSONFormat.String(); got != "json" {
		t.Errorf("JSONFormat.String() = %q", got)
	}
	if got := Format(0).String(); got != "Format(0)" {
		t.Errorf("Format(0).String() = %q", got)
	}
}

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	if l != NopLogger {
		t.Fatalf("OrNop(nil) = %v, want NopLogger", l)
	}
	// Must not panic.
	l.With("k", "v").ErrorContext(context.Background(), "msg")
}
