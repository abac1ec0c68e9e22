// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where and how log output is written.
type Options struct {
	Level  string // trace, debug, info, warn, error
	Format string // text or json
	File   string // rotating log file; empty disables file output

	// Console receives log output in addition to File. When both are
	// unset, output goes to stderr.
	Console io.Writer

	WithCaller bool
}

// Init installs a logger built from opts as log.Logger and returns it.
// The returned closer releases the log file, if any.
func Init(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	console := opts.Console
	if console == nil && opts.File == "" {
		console = os.Stderr
	}
	if console != nil {
		writers = append(writers, formatWriter(console, opts.Format, false))
	}

	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		writers = append(writers, formatWriter(rotating, opts.Format, true))
		closer = rotating
	}

	var out io.Writer = writers[0]
	if len(writers) > 1 {
		out = io.MultiWriter(writers...)
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if opts.WithCaller {
		ctx = ctx.Caller()
	}
	logger := ctx.Logger()

	zerolog.SetGlobalLevel(level)
	log.Logger = logger
	return logger, closer, nil
}

// ParseLevel maps a level name to a zerolog level. An empty name is info.
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(name))
}

func formatWriter(w io.Writer, format string, noColor bool) io.Writer {
	if strings.EqualFold(format, "json") {
		return w
	}
	return zerolog.ConsoleWriter{Out: w, NoColor: noColor}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
