// Copyright 2023 Sauce Labs Inc. All rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package httphandler

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// SendString serves content with the given content type.
func SendString(contentType string, content func() string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Write([]byte(content())) //nolint:errcheck // best effort
	})
}

// JSON writes v as JSON with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint // ignore error
}

// Error writes a JSON error message.
func Error(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, struct {
		Error string `json:"error"`
	}{msg})
}

func Version(version, time, commit string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := struct {
			Version string `json:"version"`
			Time    string `json:"time"`
			Commit  string `json:"commit"`

			GoArch    string `json:"go_arch"`
			GOOS      string `json:"go_os"`
			GoVersion string `json:"go_version"`
		}{
			Version: version,
			Time:    time,
			Commit:  commit,

			GoArch:    runtime.GOARCH,
			GOOS:      runtime.GOOS,
			GoVersion: runtime.Version(),
		}
		JSON(w, http.StatusOK, v)
	})
}
