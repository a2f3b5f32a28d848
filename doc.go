// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package pxroute decides how connections to a URL are routed.
// A request either bypasses proxies (see package bypass) or is routed per the PAC script (see package pac).
//
// Router holds the current PAC script and bypass configuration and can be shared by many goroutines,
// APIHandler exposes it over HTTP.
// Establishing connections is left to the caller.
package pxroute
