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

//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gsalomao/maxmq-client/internal/logger"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/stretchr/testify/require"
)

// packetRecorderHook logs and records the packets the broker receives from each client.
type packetRecorderHook struct {
	mochi.HookBase
	log     *logger.Logger
	ctx     context.Context
	mu      sync.Mutex
	packets map[string][]byte
}

func (h *packetRecorderHook) ID() string {
	return "packet-recorder"
}

func (h *packetRecorderHook) Provides(b byte) bool {
	return bytes.Contains([]byte{
		mochi.OnPacketRead,
		mochi.OnSessionEstablished,
		mochi.OnDisconnect,
	}, []byte{b})
}

func (h *packetRecorderHook) OnPacketRead(c *mochi.Client, p packets.Packet) (packets.Packet, error) {
	c.RLock()
	id := c.ID
	c.RUnlock()

	h.log.Debug(h.ctx, "Packet received from client",
		logger.Str("client_id", id),
		logger.Uint8("qos", p.FixedHeader.Qos),
		logger.Uint16("packet_id", p.PacketID),
		logger.Str("packet_type", strings.ToUpper(packets.PacketNames[p.FixedHeader.Type])),
		logger.Uint8("version", p.ProtocolVersion),
	)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.packets[id] = append(h.packets[id], p.FixedHeader.Type)
	return p, nil
}

func (h *packetRecorderHook) OnSessionEstablished(c *mochi.Client, p packets.Packet) {
	c.RLock()
	defer c.RUnlock()

	h.log.Info(h.ctx, "Client connected",
		logger.Bool("clean_session", c.Properties.Clean),
		logger.Str("client_id", c.ID),
		logger.Uint16("keep_alive", c.State.Keepalive),
		logger.Str("remote", c.Net.Remote),
		logger.Uint8("version", p.ProtocolVersion),
	)
}

func (h *packetRecorderHook) OnDisconnect(c *mochi.Client, err error, expire bool) {
	c.RLock()
	defer c.RUnlock()

	attrs := []logger.Attr{
		logger.Str("client_id", c.ID),
		logger.Bool("expire", expire),
		logger.Str("remote", c.Net.Remote),
	}
	if err != nil {
		attrs = append(attrs, logger.Err(err))
	}
	h.log.Info(h.ctx, "Client disconnected", attrs...)
}

// received returns the types of the packets received from the client.
func (h *packetRecorderHook) received(clientID string) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]byte(nil), h.packets[clientID]...)
}

func (h *packetRecorderHook) count(clientID string, t byte) int {
	var n int
	for _, pt := range h.received(clientID) {
		if pt == t {
			n++
		}
	}
	return n
}

type broker struct {
	mochi    *mochi.Server
	recorder *packetRecorderHook
	host     string
	port     int
	once     sync.Once
}

func newLogger() *logger.Logger {
	lvl := logger.LevelWarn
	if os.Getenv("E2E_DEBUG") != "" {
		lvl = logger.LevelDebug
	}
	return logger.New(os.Stderr, &logger.Options{Level: lvl, Format: logger.FormatPretty})
}

// startBroker starts an embedded broker listening on a free local port.
func startBroker(t *testing.T) *broker {
	t.Helper()

	ctx := context.Background()
	log := newLogger()

	srv := mochi.New(&mochi.Options{
		InlineClient: true,
		Logger:       log.StdLog(logger.Str("component", "broker")),
	})

	rec := &packetRecorderHook{log: log, ctx: ctx, packets: make(map[string][]byte)}
	require.NoError(t, srv.AddHook(new(auth.AllowHook), nil))
	require.NoError(t, srv.AddHook(rec, nil))

	address := freeAddress(t)
	err := srv.AddListener(listeners.NewTCP(listeners.Config{ID: "tcp", Address: address}))
	require.NoError(t, err)
	require.NoError(t, srv.Serve())

	host, portStr, err := net.SplitHostPort(address)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	b := &broker{mochi: srv, recorder: rec, host: host, port: port}
	t.Cleanup(b.close)
	return b
}

// close stops the broker, closing the connection of every client.
func (b *broker) close() {
	b.once.Do(func() { _ = b.mochi.Close() })
}

func freeAddress(t *testing.T) string {
	t.Helper()

	lsn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := lsn.Addr().String()
	require.NoError(t, lsn.Close())
	return address
}

func (b *broker) url() string {
	return "tcp://" + net.JoinHostPort(b.host, strconv.Itoa(b.port))
}
