// Copyright 2022-2024 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package slog

import (
	"context"
	"io"
	"log/slog"
	"os"

	flog "github.com/saucelabs/pxroute/log"
)

var _ flog.StructuredLogger = &Logger{}

type Option func(*Logger)

// Logger implements log.StructuredLogger on top of log/slog.
// Records use the keys timestamp, severity and message.
type Logger struct {
	log     *slog.Logger
	name    string
	onError func(name string)
}

// New creates a logger writing to cfg.File or stdout if the file is not set.
func New(cfg *flog.Config, opts ...Option) *Logger {
	if cfg.File != nil {
		return NewWithWriter(cfg.File, cfg, opts...)
	}
	return NewWithWriter(os.Stdout, cfg, opts...)
}

// NewWithWriter creates a logger writing to w, cfg.File is ignored.
func NewWithWriter(w io.Writer, cfg *flog.Config, opts ...Option) *Logger {
	l := &Logger{
		log: slog.New(newHandler(w, cfg)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func newHandler(w io.Writer, cfg *flog.Config) slog.Handler {
	hopts := &slog.HandlerOptions{
		Level:       slogLevel(cfg.Level),
		ReplaceAttr: renameKeys,
	}
	if cfg.Format == flog.JSONFormat {
		return slog.NewJSONHandler(w, hopts)
	}
	return slog.NewTextHandler(w, hopts)
}

func (l *Logger) emit(ctx context.Context, level slog.Level, msg string, args []any) {
	if level >= slog.LevelError && l.onError != nil {
		l.onError(l.name)
	}
	l.log.Log(ctx, level, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.emit(context.Background(), slog.LevelError, msg, args)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, slog.LevelError, msg, args)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.emit(context.Background(), slog.LevelWarn, msg, args)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, slog.LevelWarn, msg, args)
}

func (l *Logger) Info(msg string, args ...any) {
	l.emit(context.Background(), slog.LevelInfo, msg, args)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, slog.LevelInfo, msg, args)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.emit(context.Background(), slog.LevelDebug, msg, args)
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.emit(ctx, slog.LevelDebug, msg, args)
}

func (l *Logger) With(args ...any) flog.StructuredLogger {
	c := *l
	c.log = l.log.With(args...)
	return &c
}

// Named returns a sub-logger tagging records with name, the name is also passed to the error hook.
func (l *Logger) Named(name string) *Logger {
	c := *l
	c.name = name
	c.log = l.log.With("name", name)
	return &c
}

func slogLevel(level flog.Level) slog.Level {
	levels := map[flog.Level]slog.Level{
		flog.ErrorLevel: slog.LevelError,
		flog.WarnLevel:  slog.LevelWarn,
		flog.InfoLevel:  slog.LevelInfo,
		flog.DebugLevel: slog.LevelDebug,
	}
	if sl, ok := levels[level]; ok {
		return sl
	}
	return slog.LevelInfo
}

var keyNames = map[string]string{ //nolint:gochecknoglobals // lookup table
	slog.TimeKey:    "timestamp",
	slog.LevelKey:   "severity",
	slog.MessageKey: "message",
}

// renameKeys only touches top-level built-in attributes.
func renameKeys(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	if k, ok := keyNames[a.Key]; ok {
		a.Key = k
	}
	return a
}
