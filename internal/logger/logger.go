// Copyright 2024 The MaxMQ Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gsalomao/maxmq-client/internal/logger/pretty"
	"github.com/rs/xid"
)

// An Attr is a key-value pair.
type Attr = slog.Attr

// Str returns an Attr for a string value.
func Str(key, value string) Attr {
	return slog.String(key, value)
}

// Int converts an int to an int64 and returns an Attr with that value.
func Int(key string, value int) Attr {
	return slog.Int64(key, int64(value))
}

// Uint8 returns an Attr for an uint8.
func Uint8(key string, value uint8) Attr {
	return slog.Uint64(key, uint64(value))
}

// Uint16 returns an Attr for an uint16.
func Uint16(key string, value uint16) Attr {
	return slog.Uint64(key, uint64(value))
}

// Bool returns an Attr for a bool.
func Bool(key string, value bool) Attr {
	return slog.Bool(key, value)
}

// Duration returns an Attr for a time.Duration.
func Duration(key string, value time.Duration) Attr {
	return slog.Duration(key, value)
}

// Err returns an Attr with the error message under the error key.
func Err(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Any returns an Attr for the supplied value.
func Any(key string, value any) Attr {
	return slog.Any(key, value)
}

// Stringer returns an Attr for a fmt.Stringer, evaluated only when the record is handled.
func Stringer(key string, value fmt.Stringer) Attr {
	return slog.Any(key, lazyStringer{value})
}

type lazyStringer struct {
	s fmt.Stringer
}

func (l lazyStringer) LogValue() slog.Value {
	return slog.StringValue(l.s.String())
}

const (
	// LevelDebug defines debug log level.
	LevelDebug = slog.LevelDebug

	// LevelInfo defines info log level.
	LevelInfo = slog.LevelInfo

	// LevelWarn defines warn log level.
	LevelWarn = slog.LevelWarn

	// LevelError defines error log level.
	LevelError = slog.LevelError
)

// Level defines the importance or severity of a log event.
type Level = slog.Level

// ParseLevel converts a level string into a Level value.
// It returns an error if the input string does not match a known level.
func ParseLevel(str string) (Level, error) {
	switch str {
	case "debug", "Debug", "DEBUG":
		return LevelDebug, nil
	case "info", "Info", "INFO":
		return LevelInfo, nil
	case "warn", "Warn", "WARN":
		return LevelWarn, nil
	case "error", "Error", "ERROR":
		return LevelError, nil
	default:
		return LevelInfo, errors.New("invalid log level")
	}
}

const (
	// FormatJSON represents a JSON log format.
	FormatJSON Format = iota

	// FormatText represents a structured human-friendly log format.
	FormatText

	// FormatPretty represents a human-friendly and pretty log format.
	FormatPretty

	// FormatPrettyNoColors represents a human-friendly and pretty log format without colors.
	FormatPrettyNoColors
)

// Format represents the log format to be generated.
type Format int

var formatNames = map[Format]string{
	FormatJSON:           "json",
	FormatText:           "text",
	FormatPretty:         "pretty",
	FormatPrettyNoColors: "pretty-no-colors",
}

// ParseFormat converts a format string into a Format value.
// It returns an error if the input string does not match a known format.
func ParseFormat(str string) (Format, error) {
	switch str {
	case "json", "Json", "JSON":
		return FormatJSON, nil
	case "text", "Text", "TEXT":
		return FormatText, nil
	case "pretty", "Pretty", "PRETTY":
		return FormatPretty, nil
	case "pretty-no-colors", "Pretty-No-Colors", "PRETTY-NO-COLORS":
		return FormatPrettyNoColors, nil
	default:
		return FormatJSON, errors.New("invalid log format")
	}
}

// String returns the format name.
func (f Format) String() string {
	name, ok := formatNames[f]
	if !ok {
		return "invalid"
	}
	return name
}

// ParseDestination returns the io.Writer for the given destination. Any destination other than
// stdout or stderr is handled as a file path, which is opened in append mode.
func ParseDestination(str string) (io.Writer, error) {
	switch str {
	case "stdout", "Stdout", "STDOUT":
		return os.Stdout, nil
	case "stderr", "Stderr", "STDERR":
		return os.Stderr, nil
	case "":
		return nil, errors.New("invalid log destination")
	default:
		f, err := os.OpenFile(filepath.Clean(str), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("invalid log destination: %w", err)
		}
		return f, nil
	}
}

// LogIDGenerator is responsible for generate log IDs.
type LogIDGenerator interface {
	// NextID generates a new log ID.
	NextID() string
}

// XIDGenerator generates globally unique and sortable log IDs.
type XIDGenerator struct{}

// NextID generates a new log ID.
func (XIDGenerator) NextID() string {
	return xid.New().String()
}

// Options are options for the Logger.
type Options struct {
	// Level defines the minimal log level.
	Level Level

	// Format defines the log format.
	Format Format

	// LogIDGenerator is responsible to generate log identifiers. If it's not provided, no log id is
	// added to the logs.
	LogIDGenerator LogIDGenerator
}

// Logger writes structured logs into an io.Writer. Each logging operation makes a single call to
// the Writer's Write method.
//
// Loggers derived with With share the level and the output of the Logger they were derived from.
type Logger struct {
	level   *slog.LevelVar
	idGen   LogIDGenerator
	handler slog.Handler
	attrs   []Attr
}

// New creates a new Logger which writes log message into out.
//
// The Options parameter allows to set optional settings. If it's not provided, the logger writes
// JSON logs with info level.
func New(out io.Writer, opts *Options) *Logger {
	var format Format
	log := &Logger{level: &slog.LevelVar{}}

	if opts != nil {
		log.level.Set(opts.Level)
		log.idGen = opts.LogIDGenerator
		format = opts.Format
	}

	log.handler = newHandler(out, format, log.level)
	return log
}

func newHandler(out io.Writer, f Format, level slog.Leveler) slog.Handler {
	replaceAttr := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key != slog.SourceKey {
			return a
		}

		a.Key = "caller"
		if src, _ := a.Value.Any().(*slog.Source); src != nil {
			dir, file := filepath.Split(src.File)
			a.Value = slog.StringValue(fmt.Sprintf("%s:%v", filepath.Join(filepath.Base(dir), file), src.Line))
		}
		return a
	}

	switch f {
	case FormatPretty, FormatPrettyNoColors:
		return pretty.NewHandler(out, &pretty.Options{
			Level:       level,
			ReplaceAttr: replaceAttr,
			AddSource:   true,
			NoColors:    f == FormatPrettyNoColors,
		})
	case FormatText:
		return slog.NewTextHandler(out, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: replaceAttr,
			AddSource:   true,
		})
	default:
		return slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: replaceAttr,
			AddSource:   true,
		})
	}
}

// With returns a Logger which adds the given attributes into every log entry.
func (l *Logger) With(attrs ...Attr) *Logger {
	if len(attrs) == 0 {
		return l
	}

	child := *l
	child.attrs = make([]Attr, 0, len(l.attrs)+len(attrs))
	child.attrs = append(child.attrs, l.attrs...)
	child.attrs = append(child.attrs, attrs...)
	return &child
}

// StdLog returns a slog.Logger which writes through the Logger.
func (l *Logger) StdLog(attrs ...Attr) *slog.Logger {
	return slog.New(&stdLogWrapper{log: l.With(attrs...)})
}

// Log creates a log record with the provided level.
func (l *Logger) Log(ctx context.Context, level Level, msg string, attrs ...Attr) {
	if !l.handler.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.AddAttrs(attrs...)

	_ = l.Handle(ctx, r)
}

// Debug creates a log with debug level.
func (l *Logger) Debug(ctx context.Context, msg string, attrs ...Attr) {
	l.Log(ctx, LevelDebug, msg, attrs...)
}

// Info starts a new message with info level.
func (l *Logger) Info(ctx context.Context, msg string, attrs ...Attr) {
	l.Log(ctx, LevelInfo, msg, attrs...)
}

// Warn starts a new message with warn level.
func (l *Logger) Warn(ctx context.Context, msg string, attrs ...Attr) {
	l.Log(ctx, LevelWarn, msg, attrs...)
}

// Error starts a new message with error level.
func (l *Logger) Error(ctx context.Context, msg string, attrs ...Attr) {
	l.Log(ctx, LevelError, msg, attrs...)
}

// SetLevel sets the minimum accepted level to the logger.
func (l *Logger) SetLevel(lvl Level) {
	l.level.Set(lvl)
}

// Handler returns the slog.Handler the Logger writes through.
func (l *Logger) Handler() slog.Handler {
	return l.handler
}

// Handle adds the Logger attributes, the context attributes and the log id into the record and
// handles it.
func (l *Logger) Handle(ctx context.Context, record slog.Record) error {
	if len(l.attrs) > 0 {
		record.AddAttrs(l.attrs...)
	}
	if attrs := Attrs(ctx); attrs != nil {
		record.AddAttrs(attrs...)
	}
	if l.idGen != nil {
		record.AddAttrs(Str("log_id", l.idGen.NextID()))
	}

	return l.handler.Handle(ctx, record)
}

type ctxKeyAttrs struct{}

// Context returns a context based on the provided context with optional attributes.
//
// When attributes are added to the context, any logging method called with the returned context
// includes these attributes into the log entry automatically.
func Context(ctx context.Context, attrs ...Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}

	if existing := Attrs(ctx); existing != nil {
		attrs = append(attrs, existing...)
	}

	return context.WithValue(ctx, ctxKeyAttrs{}, attrs)
}

// Attrs returns the existing attributes from the provided context.
//
// If the context does not have any attribute, it returns nil.
func Attrs(ctx context.Context) []Attr {
	attrs, _ := ctx.Value(ctxKeyAttrs{}).([]Attr)
	return attrs
}

type stdLogWrapper struct {
	log *Logger
}

func (s stdLogWrapper) Enabled(ctx context.Context, level slog.Level) bool {
	return s.log.handler.Enabled(ctx, level)
}

func (s stdLogWrapper) Handle(ctx context.Context, record slog.Record) error { //nolint:gocritic
	return s.log.Handle(ctx, record)
}

func (s stdLogWrapper) WithAttrs(attrs []slog.Attr) slog.Handler {
	return stdLogWrapper{log: s.log.With(attrs...)}
}

func (s stdLogWrapper) WithGroup(name string) slog.Handler {
	return stdLogWrapper{log: &Logger{
		level:   s.log.level,
		idGen:   s.log.idGen,
		handler: s.log.handler.WithGroup(name),
		attrs:   s.log.attrs,
	}}
}
