// Copyright 2023 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package bypass

import (
	"errors"
	"fmt"
)

// ErrDuplicatePattern is returned (wrapped in InvalidPatternError) when adding a pattern that is already in the list.
var ErrDuplicatePattern = errors.New("duplicate pattern")

// InvalidPatternError is returned when a pattern is rejected.
type InvalidPatternError struct {
	Pattern string
	Reason  string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid bypass pattern %q: %s", e.Pattern, e.Reason)
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}
