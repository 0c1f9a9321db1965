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

package pretty

import (
	"bytes"
	"context"
	"encoding"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"sync"
	"unicode"

	"github.com/fatih/color"
)

const maxPooledBufferSize = 16 << 10

var (
	timeColor    = newColor(color.Faint)
	messageColor = newColor(color.FgCyan)
	keyColor     = newColor(color.FgHiBlack)
	valueColor   = newColor(color.FgHiBlack)
	errorColor   = newColor(color.FgRed)
)

var levelColor = map[slog.Level]*color.Color{
	slog.LevelDebug: newColor(color.FgBlue),
	slog.LevelInfo:  newColor(color.FgGreen),
	slog.LevelWarn:  newColor(color.FgYellow),
	slog.LevelError: newColor(color.FgRed),
}

var bufferPool = sync.Pool{
	New: func() any { return bytes.NewBuffer(make([]byte, 0, 1024)) },
}

// newColor creates a color which is always enabled, as the handler decides by itself whether the
// output must be colored or not.
func newColor(attr color.Attribute) *color.Color {
	c := color.New(attr)
	c.EnableColor()
	return c
}

// Options are options for the Handler.
type Options struct {
	// Level sets the minimal log level.
	Level slog.Leveler

	// ReplaceAttr is called to rewrite each non-group attribute before it is logged.
	ReplaceAttr func(groups []string, attr slog.Attr) slog.Attr

	// TimeFormat sets the time format.
	TimeFormat string

	// AddSource adds caller information.
	AddSource bool

	// NoColors disables the colors.
	NoColors bool
}

// Handler is a log handler which writes log message in a human-friendly and pretty format, one
// line per record. Attributes whose key is "error" are highlighted.
type Handler struct {
	mu          *sync.Mutex
	out         io.Writer
	level       slog.Leveler
	replaceAttr func([]string, slog.Attr) slog.Attr
	timeFormat  string
	attrsPrefix string
	groupPrefix string
	groups      []string
	addSource   bool
	noColors    bool
}

// NewHandler creates a Handler that writes to w, using the given options.
// If opts is nil, the default options are used.
func NewHandler(out io.Writer, opts *Options) *Handler {
	h := &Handler{
		mu:         &sync.Mutex{},
		out:        out,
		level:      slog.LevelInfo,
		timeFormat: "2006-01-02 15:04:05.000 -0700",
	}
	if opts == nil {
		return h
	}

	h.replaceAttr = opts.ReplaceAttr
	h.addSource = opts.AddSource
	h.noColors = opts.NoColors

	if opts.Level != nil {
		h.level = opts.Level
	}
	if opts.TimeFormat != "" {
		h.timeFormat = opts.TimeFormat
	}

	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats its argument Record as a single line.
func (h *Handler) Handle(_ context.Context, record slog.Record) error { //nolint:gocritic
	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		if buf.Cap() <= maxPooledBufferSize {
			buf.Reset()
			bufferPool.Put(buf)
		}
	}()

	if !record.Time.IsZero() {
		h.write(buf, timeColor, record.Time.Format(h.timeFormat))
		buf.WriteByte(' ')
	}

	if a := h.replace(nil, slog.Any(slog.LevelKey, record.Level)); a.Key != "" {
		h.appendValue(buf, a.Value, false)
		buf.WriteByte(' ')
	}

	h.write(buf, messageColor, record.Message)
	buf.WriteByte(' ')

	if h.addSource {
		if src := source(record.PC); src != nil {
			if a := h.replace(nil, slog.Any(slog.SourceKey, src)); a.Key != "" {
				h.appendValue(buf, a.Value, false)
				buf.WriteByte(' ')
			}
		}
	}

	buf.WriteString(h.attrsPrefix)
	record.Attrs(func(attr slog.Attr) bool {
		h.appendAttr(buf, attr, h.groupPrefix, h.groups)
		return true
	})

	if buf.Len() == 0 {
		return nil
	}
	buf.Truncate(buf.Len() - 1)
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.out.Write(buf.Bytes())
	return err
}

// WithAttrs returns a new Handler whose attributes consists of h's attributes followed by attrs.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	buf := &bytes.Buffer{}
	for _, attr := range attrs {
		h.appendAttr(buf, attr, h.groupPrefix, h.groups)
	}

	h2 := h.clone()
	h2.attrsPrefix += buf.String()
	return h2
}

// WithGroup returns a new Handler with a group with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	h2 := h.clone()
	h2.groupPrefix += name + "."
	h2.groups = append(append([]string{}, h.groups...), name)
	return h2
}

func (h *Handler) clone() *Handler {
	h2 := *h
	return &h2
}

func (h *Handler) replace(groups []string, attr slog.Attr) slog.Attr {
	if h.replaceAttr == nil {
		return attr
	}
	return h.replaceAttr(groups, attr)
}

func (h *Handler) write(buf *bytes.Buffer, c *color.Color, str string) {
	if h.noColors || c == nil {
		buf.WriteString(str)
		return
	}
	buf.WriteString(c.Sprint(str))
}

func (h *Handler) appendValue(buf *bytes.Buffer, v slog.Value, quote bool) {
	h.appendColoredValue(buf, valueColor, v, quote)
}

func (h *Handler) appendColoredValue(buf *bytes.Buffer, c *color.Color, v slog.Value, quote bool) {
	var str string

	switch v.Kind() {
	case slog.KindString:
		str = quoteIfNeeded(v.String(), quote)
	case slog.KindInt64:
		str = strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		str = strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		str = strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindBool:
		str = strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		str = quoteIfNeeded(v.Duration().String(), quote)
	case slog.KindTime:
		str = quoteIfNeeded(v.Time().String(), quote)
	case slog.KindAny:
		switch cv := v.Any().(type) {
		case slog.Level:
			h.write(buf, levelColor[cv], fmt.Sprintf("%-5s", cv.String()))
			return
		case *slog.Source:
			str = cv.File + ":" + strconv.Itoa(cv.Line)
		case encoding.TextMarshaler:
			data, err := cv.MarshalText()
			if err != nil {
				return
			}
			str = quoteIfNeeded(string(data), quote)
		default:
			str = quoteIfNeeded(fmt.Sprint(cv), quote)
		}
	}

	h.write(buf, c, str)
}

func (h *Handler) appendAttr(buf *bytes.Buffer, attr slog.Attr, groupsPrefix string, groups []string) {
	attr.Value = attr.Value.Resolve()

	if attr.Value.Kind() != slog.KindGroup {
		attr = h.replace(groups, attr)
		attr.Value = attr.Value.Resolve()
	}

	if attr.Equal(slog.Attr{}) {
		return
	}

	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			groupsPrefix += attr.Key + "."
			groups = append(groups, attr.Key)
		}
		for _, groupAttr := range attr.Value.Group() {
			h.appendAttr(buf, groupAttr, groupsPrefix, groups)
		}
		return
	}

	h.write(buf, keyColor, quoteIfNeeded(groupsPrefix+attr.Key, true)+"=")
	if attr.Key == "error" {
		h.appendColoredValue(buf, errorColor, attr.Value, true)
	} else {
		h.appendValue(buf, attr.Value, true)
	}
	buf.WriteByte(' ')
}

func source(pc uintptr) *slog.Source {
	fs := runtime.CallersFrames([]uintptr{pc})
	f, _ := fs.Next()
	if f.File == "" {
		return nil
	}
	return &slog.Source{Function: f.Function, File: f.File, Line: f.Line}
}

func quoteIfNeeded(str string, quote bool) string {
	if quote && needsQuoting(str) {
		return strconv.Quote(str)
	}
	return str
}

func needsQuoting(str string) bool {
	if str == "" {
		return true
	}

	for _, r := range str {
		if unicode.IsSpace(r) || r == '"' || r == '=' || !unicode.IsPrint(r) {
			return true
		}
	}

	return false
}

