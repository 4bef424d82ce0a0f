// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging wraps logrus with the printf-style helpers used across htcluster.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Fields is an alias so callers need not import logrus for structured fields.
type Fields = logrus.Fields

var (
	logger   = newLogger(os.Stderr)
	exitFunc = os.Exit
)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&consoleFormatter{colored: isTerminal(w)})
	return l
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Configure sets the log level ("debug", "info", "warn", "error") and the
// output format ("text" or "json").
func Configure(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&consoleFormatter{colored: isTerminal(logger.Out)})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format %q: expected text or json", format)
	}
	return nil
}

// SetOutput redirects all log output, mainly for tests.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
	if f, ok := logger.Formatter.(*consoleFormatter); ok {
		f.colored = isTerminal(w)
	}
}

// SetExitFunc replaces the function Fatal calls after logging. It returns the
// previous one so tests can restore it.
func SetExitFunc(f func(int)) func(int) {
	prev := exitFunc
	exitFunc = f
	return prev
}

// Logger exposes the underlying logger for libraries that want a logrus.FieldLogger.
func Logger() *logrus.Logger {
	return logger
}

// WithFields returns an entry carrying the given structured fields.
func WithFields(fields Fields) *logrus.Entry {
	return logger.WithFields(fields)
}

func Debug(format string, args ...any) {
	logger.Debugf(format, args...)
}

func Info(format string, args ...any) {
	logger.Infof(format, args...)
}

func Warn(format string, args ...any) {
	logger.Warnf(format, args...)
}

func Error(format string, args ...any) {
	logger.Errorf(format, args...)
}

// Fatal logs at error level and terminates the process with exit code 1.
func Fatal(format string, args ...any) {
	logger.Errorf(format, args...)
	exitFunc(1)
}

// consoleFormatter prints "LEVEL message key=value" lines, colouring the level
// when writing to a terminal.
type consoleFormatter struct {
	colored bool
}

var levelColors = map[logrus.Level]*color.Color{
	logrus.DebugLevel: color.New(color.FgHiBlack),
	logrus.InfoLevel:  color.New(color.FgCyan),
	logrus.WarnLevel:  color.New(color.FgYellow),
	logrus.ErrorLevel: color.New(color.FgRed),
	logrus.FatalLevel: color.New(color.FgRed, color.Bold),
	logrus.PanicLevel: color.New(color.FgRed, color.Bold),
}

func (f *consoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	if c, ok := levelColors[entry.Level]; ok && f.colored {
		c.EnableColor()
		level = c.Sprint(level)
	}
	fmt.Fprintf(&b, "%s %s", level, entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}
