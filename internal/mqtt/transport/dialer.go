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

package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/gsalomao/maxmq-client/internal/logger"
	"github.com/gsalomao/maxmq-client/internal/mqtt/packet"
	"golang.org/x/net/proxy"
)

const (
	defaultTimeout       = 5 * time.Second
	defaultBufferSize    = 1024
	defaultMaxPacketSize = 65536
)

// Dialer contains the options for connecting to a MQTT broker.
type Dialer struct {
	// Log is the logger used by the connections. It must not be nil.
	Log *logger.Logger

	// Proxy is an optional SOCKS5 (or any other proxy.Dialer) used to reach the broker.
	Proxy proxy.Dialer

	// TLSConfig enables TLS on top of the TCP connection when it's not nil.
	TLSConfig *tls.Config

	// Timeout is the maximum amount of time the dial waits for the connection to be established.
	Timeout time.Duration

	// BufferSize is the size, in bytes, of the reader and writer buffers.
	BufferSize int

	// MaxPacketSize is the maximum size, in bytes, accepted for received packets.
	MaxPacketSize int

	// Version is the MQTT version used to decode received packets.
	Version packet.Version
}

// Dial connects to the broker at the given address and starts reading packets from it. Every
// packet received is passed to h in order, and h.HandleClose is called once when the connection is
// closed.
func (d *Dialer) Dial(ctx context.Context, address string, h Handler) (*Conn, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	nc, err := d.dial(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", address, err)
	}

	if d.TLSConfig != nil {
		tc := tls.Client(nc, d.tlsConfig(address))
		if err = tc.HandshakeContext(ctx); err != nil {
			_ = nc.Close()
			return nil, fmt.Errorf("failed to perform TLS handshake: %w", err)
		}
		nc = tc
	}

	bufSize := d.BufferSize
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}
	maxPacketSize := d.MaxPacketSize
	if maxPacketSize <= 0 {
		maxPacketSize = defaultMaxPacketSize
	}
	version := d.Version
	if version == 0 {
		version = packet.MQTT31
	}

	c := newConn(nc, h, d.Log, connOptions{
		bufferSize:    bufSize,
		maxPacketSize: maxPacketSize,
		version:       version,
	})
	c.start()
	return c, nil
}

func (d *Dialer) dial(ctx context.Context, address string) (net.Conn, error) {
	if d.Proxy == nil {
		var nd net.Dialer
		return nd.DialContext(ctx, "tcp", address)
	}

	if cd, ok := d.Proxy.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, "tcp", address)
	}

	type dialResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan dialResult, 1)

	go func() {
		nc, err := d.Proxy.Dial("tcp", address)
		resultCh <- dialResult{nc, err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-resultCh; r.conn != nil {
				_ = r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-resultCh:
		return r.conn, r.err
	}
}

func (d *Dialer) tlsConfig(address string) *tls.Config {
	if d.TLSConfig.ServerName != "" || d.TLSConfig.InsecureSkipVerify {
		return d.TLSConfig
	}

	conf := d.TLSConfig.Clone()
	if host, _, err := net.SplitHostPort(address); err == nil {
		conf.ServerName = host
	}
	return conf
}
