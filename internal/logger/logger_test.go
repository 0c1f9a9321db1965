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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type logIDGenMock struct {
	mock.Mock
}

func (m *logIDGenMock) NextID() string {
	args := m.Called()
	return args.String(0)
}

type stringer string

func (s stringer) String() string {
	return string(s)
}

func decodeJSON(t *testing.T, out *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	err := json.Unmarshal(out.Bytes(), &entry)
	require.NoError(t, err)
	return entry
}

func TestLoggerLogJSON(t *testing.T) {
	out := bytes.NewBufferString("")
	log := New(out, &Options{Level: LevelDebug, Format: FormatJSON})
	msg := gofakeit.Phrase()

	log.Info(context.Background(), msg, Str("client_id", "c1"), Uint16("packet_id", 7))

	entry := decodeJSON(t, out)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, msg, entry["msg"])
	assert.Equal(t, "c1", entry["client_id"])
	assert.Equal(t, float64(7), entry["packet_id"])
	assert.Contains(t, entry["caller"], "logger/logger_test.go")
}

func TestLoggerLogText(t *testing.T) {
	out := bytes.NewBufferString("")
	log := New(out, &Options{Level: LevelInfo, Format: FormatText})
	key := gofakeit.Word()

	log.Warn(context.Background(), "Message", Str(key, "value"))
	assert.Contains(t, out.String(), "level=WARN")
	assert.Contains(t, out.String(), key+"=value")
}

func TestLoggerLogPrettyNoColors(t *testing.T) {
	out := bytes.NewBufferString("")
	log := New(out, &Options{Level: LevelInfo, Format: FormatPrettyNoColors})

	log.Error(context.Background(), "Connection lost", Err(errors.New("EOF")), Int("attempt", 2))

	line := out.String()
	assert.Contains(t, line, "ERROR")
	assert.Contains(t, line, "Connection lost")
	assert.Contains(t, line, "error=EOF")
	assert.Contains(t, line, "attempt=2")
	assert.NotContains(t, line, "\x1b[")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestLoggerLogPrettyWithColors(t *testing.T) {
	out := bytes.NewBufferString("")
	log := New(out, &Options{Level: LevelInfo, Format: FormatPretty})

	log.Info(context.Background(), "Connected")
	assert.Contains(t, out.String(), "\x1b[")
}

func TestLoggerLogWithLogID(t *testing.T) {
	gen := &logIDGenMock{}
	gen.On("NextID").Return("cn0vd0d0000000000000").Once()

	out := bytes.NewBufferString("")
	log := New(out, &Options{Level: LevelInfo, LogIDGenerator: gen})

	log.Info(context.Background(), gofakeit.Phrase())

	entry := decodeJSON(t, out)
	assert.Equal(t, "cn0vd0d0000000000000", entry["log_id"])
	gen.AssertExpectations(t)
}

func TestLoggerXIDGenerator(t *testing.T) {
	gen := XIDGenerator{}
	id1 := gen.NextID()
	id2 := gen.NextID()

	assert.Len(t, id1, 20)
	assert.NotEqual(t, id1, id2)
}

func TestLoggerSetLevel(t *testing.T) {
	out := bytes.NewBufferString("")
	log := New(out, &Options{Level: LevelDebug})

	log.SetLevel(LevelWarn)
	log.Info(context.Background(), gofakeit.Phrase())
	assert.Empty(t, out.String())

	log.Warn(context.Background(), gofakeit.Phrase())
	assert.NotEmpty(t, out.String())
}

func TestLoggerWith(t *testing.T) {
	out := bytes.NewBufferString("")
	log := New(out, &Options{Level: LevelInfo})

	child := log.With(Str("broker", "localhost:1883"))
	assert.Same(t, log, log.With())

	log.SetLevel(LevelError)
	child.Info(context.Background(), "Message")
	assert.Empty(t, out.String())

	child.Error(context.Background(), "Message", Str("client_id", "c1"))
	entry := decodeJSON(t, out)
	assert.Equal(t, "localhost:1883", entry["broker"])
	assert.Equal(t, "c1", entry["client_id"])

	out.Reset()
	log.Error(context.Background(), "Message")
	entry = decodeJSON(t, out)
	assert.NotContains(t, entry, "broker")
}

func TestLoggerContext(t *testing.T) {
	out := bytes.NewBufferString("")
	log := New(out, nil)

	ctx := Context(context.Background(), Str("client_id", "c1"))
	ctx = Context(ctx, Str("state", "connected"))
	assert.Len(t, Attrs(ctx), 2)
	assert.Nil(t, Attrs(context.Background()))
	assert.Equal(t, ctx, Context(ctx))

	log.Info(ctx, "Message")
	entry := decodeJSON(t, out)
	assert.Equal(t, "c1", entry["client_id"])
	assert.Equal(t, "connected", entry["state"])
}

func TestLoggerStringer(t *testing.T) {
	out := bytes.NewBufferString("")
	log := New(out, nil)

	log.Info(context.Background(), "Message", Stringer("packet_type", stringer("PUBLISH")))
	entry := decodeJSON(t, out)
	assert.Equal(t, "PUBLISH", entry["packet_type"])
}

func TestLoggerStdLog(t *testing.T) {
	out := bytes.NewBufferString("")
	log := New(out, nil)

	std := log.StdLog(Str("component", "broker")).With("listener", "tcp")
	std.Info("Message")

	entry := decodeJSON(t, out)
	assert.Equal(t, "broker", entry["component"])
	assert.Equal(t, "tcp", entry["listener"])
}

func TestLoggerParseLevel(t *testing.T) {
	testCases := []struct {
		name  string
		level Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"error", LevelError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lvl, err := ParseLevel(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.level, lvl)
		})
	}

	_, err := ParseLevel("invalid")
	assert.Error(t, err)
}

func TestLoggerParseFormat(t *testing.T) {
	testCases := []struct {
		name   string
		format Format
	}{
		{"json", FormatJSON},
		{"text", FormatText},
		{"pretty", FormatPretty},
		{"pretty-no-colors", FormatPrettyNoColors},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := ParseFormat(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.format, f)
			assert.Equal(t, tc.name, f.String())
		})
	}

	_, err := ParseFormat("invalid")
	assert.Error(t, err)
	assert.Equal(t, "invalid", Format(99).String())
}

func TestLoggerParseDestination(t *testing.T) {
	out, err := ParseDestination("stdout")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, out)

	out, err = ParseDestination("STDERR")
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, out)

	path := filepath.Join(t.TempDir(), "client.log")
	out, err = ParseDestination(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = out.(*os.File).Close() })
	assert.FileExists(t, path)

	_, err = ParseDestination("")
	assert.Error(t, err)

	_, err = ParseDestination(filepath.Join(t.TempDir(), "missing", "client.log"))
	assert.Error(t, err)
}
