// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package pac

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// Sandbox runs a script and calls one of its functions.
// Implementations must not give the script access to the network, file system or process environment.
type Sandbox interface {
	// Execute runs library, calls entryPoint with args and returns the result converted to string.
	Execute(ctx context.Context, library, entryPoint string, args ...string) (string, error)
}

// DefaultScriptTimeout is the default execution budget of GojaSandbox.
const DefaultScriptTimeout = time.Second

// ErrScriptTimeout is returned when a script exceeds the execution budget.
var ErrScriptTimeout = errors.New("script execution timeout")

// GojaSandbox executes scripts in a fresh Goja runtime per call.
// It is safe for concurrent use.
type GojaSandbox struct {
	// Timeout is the execution budget of a single Execute call.
	// Zero means DefaultScriptTimeout, negative disables the budget.
	Timeout time.Duration
}

// NewGojaSandbox returns a sandbox with the given execution budget.
func NewGojaSandbox(timeout time.Duration) *GojaSandbox {
	return &GojaSandbox{Timeout: timeout}
}

func (s *GojaSandbox) timeout() time.Duration {
	if s.Timeout == 0 {
		return DefaultScriptTimeout
	}
	return s.Timeout
}

func (s *GojaSandbox) Execute(ctx context.Context, library, entryPoint string, args ...string) (res string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	vm := goja.New()

	if d := s.timeout(); d > 0 {
		t := time.AfterFunc(d, func() {
			vm.Interrupt(ErrScriptTimeout)
		})
		defer t.Stop()
	}
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script panic: %v", r)
		}
	}()

	if _, err := vm.RunString(library); err != nil {
		return "", scriptError(err)
	}

	fn, ok := goja.AssertFunction(vm.Get(entryPoint))
	if !ok {
		return "", fmt.Errorf("missing required function %s", entryPoint)
	}

	vargs := make([]goja.Value, len(args))
	for i, a := range args {
		vargs[i] = vm.ToValue(a)
	}
	v, err := fn(goja.Undefined(), vargs...)
	if err != nil {
		return "", scriptError(err)
	}
	if isNullOrUndefined(v) {
		return "", fmt.Errorf("%s returned %s", entryPoint, v)
	}

	return v.String(), nil
}

func scriptError(err error) error {
	var ie *goja.InterruptedError
	if errors.As(err, &ie) {
		if cause, ok := ie.Value().(error); ok {
			return cause
		}
	}
	return fmt.Errorf("script: %w", err)
}

func isNullOrUndefined(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}
