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
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/gsalomao/maxmq-client/internal/logger"
	"github.com/gsalomao/maxmq-client/internal/mqtt/packet"
	"github.com/gsalomao/maxmq-client/internal/safe"
)

// ErrClosed indicates that the connection has been closed.
var ErrClosed = errors.New("connection closed")

// Handler handles the events generated by a Conn.
type Handler interface {
	// HandlePacket is called for each packet received, in the order they were received.
	HandlePacket(p packet.Packet)

	// HandleSent is called after each packet has been written into the connection.
	HandleSent(p packet.Packet)

	// HandleClose is called once, after the connection has been closed. The err is the cause
	// passed to Conn.Close or, when the connection was closed by the broker or by a network
	// failure, the error which stopped the reader.
	HandleClose(err error)
}

type connOptions struct {
	bufferSize    int
	maxPacketSize int
	version       packet.Version
}

// Conn is a connection to a MQTT broker.
type Conn struct {
	netConn   net.Conn
	handler   Handler
	log       *logger.Logger
	ctx       context.Context
	reader    *packet.Reader
	writer    packet.Writer
	version   packet.Version
	cause     *safe.Value[error]
	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
	done      chan struct{}
}

func newConn(nc net.Conn, h Handler, log *logger.Logger, opts connOptions) *Conn {
	return &Conn{
		netConn: nc,
		handler: h,
		log:     log,
		ctx:     logger.Context(context.Background(), logger.Str("address", nc.RemoteAddr().String())),
		reader: packet.NewReader(nc, packet.ReaderOptions{
			BufferSize:    opts.bufferSize,
			MaxPacketSize: opts.maxPacketSize,
			Version:       opts.version,
		}),
		writer:  packet.NewWriter(opts.bufferSize),
		version: opts.version,
		cause:   safe.NewValue[error](nil),
		done:    make(chan struct{}),
	}
}

func (c *Conn) start() {
	ready := make(chan struct{})

	go func() {
		close(ready)
		c.readLoop()
	}()

	<-ready
}

func (c *Conn) readLoop() {
	defer close(c.done)

	for {
		p, err := c.reader.ReadPacket()
		if err != nil {
			c.closeWithReadError(err)
			break
		}

		c.log.Debug(c.ctx, "Packet received",
			logger.Str("packet_type", p.Type().String()),
			logger.Int("size", p.Size()),
		)
		c.handler.HandlePacket(p)
	}

	cause := c.cause.Load()
	if cause != nil {
		c.log.Debug(c.ctx, "Connection closed", logger.Err(cause))
	} else {
		c.log.Debug(c.ctx, "Connection closed")
	}

	c.handler.HandleClose(cause)
}

func (c *Conn) closeWithReadError(err error) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cause.Store(fmt.Errorf("%w: %w", ErrClosed, err))
		_ = c.netConn.Close()
	})
}

// Close closes the connection. The cause is reported to the Handler.HandleClose. Calling Close
// more than once has no effect.
func (c *Conn) Close(cause error) error {
	err := ErrClosed

	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cause.Store(cause)
		err = c.netConn.Close()
	})

	return err
}

// Done returns a channel which is closed after the connection has been closed and the
// Handler.HandleClose has returned.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) send(p packet.Packet) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.writeMu.Lock()
	err := c.writer.WritePacket(c.netConn, p)
	c.writeMu.Unlock()

	if err != nil {
		c.log.Warn(c.ctx, "Failed to send packet",
			logger.Str("packet_type", p.Type().String()),
			logger.Err(err),
		)
		return err
	}

	c.log.Debug(c.ctx, "Packet sent",
		logger.Str("packet_type", p.Type().String()),
		logger.Int("size", p.Size()),
	)
	c.handler.HandleSent(p)
	return nil
}

// Connect sends the CONNECT packet as it is. The pkt.Version selects the protocol name and
// level written into the packet.
func (c *Conn) Connect(pkt *packet.Connect) error {
	return c.send(pkt)
}

// Publish sends a PUBLISH packet.
func (c *Conn) Publish(id packet.ID, topic string, qos packet.QoS, retain bool, payload []byte) error {
	pkt := packet.NewPublish(id, c.version, topic, qos, retain, payload)
	return c.send(&pkt)
}

// PubAck sends a PUBACK packet.
func (c *Conn) PubAck(id packet.ID) error {
	pkt := packet.NewPubAck(id, c.version)
	return c.send(&pkt)
}

// PubRec sends a PUBREC packet.
func (c *Conn) PubRec(id packet.ID) error {
	pkt := packet.NewPubRec(id, c.version)
	return c.send(&pkt)
}

// PubRel sends a PUBREL packet.
func (c *Conn) PubRel(id packet.ID) error {
	pkt := packet.NewPubRel(id, c.version)
	return c.send(&pkt)
}

// PubComp sends a PUBCOMP packet.
func (c *Conn) PubComp(id packet.ID) error {
	pkt := packet.NewPubComp(id, c.version)
	return c.send(&pkt)
}

// Subscribe sends a SUBSCRIBE packet.
func (c *Conn) Subscribe(id packet.ID, topics []packet.Topic) error {
	pkt := packet.NewSubscribe(id, c.version, topics)
	return c.send(&pkt)
}

// Unsubscribe sends an UNSUBSCRIBE packet.
func (c *Conn) Unsubscribe(id packet.ID, topics []string) error {
	pkt := packet.NewUnsubscribe(id, c.version, topics)
	return c.send(&pkt)
}

// PingReq sends a PINGREQ packet.
func (c *Conn) PingReq() error {
	pkt := packet.NewPingReq(c.version)
	return c.send(&pkt)
}

// Disconnect sends a DISCONNECT packet.
func (c *Conn) Disconnect() error {
	pkt := packet.NewDisconnect(c.version)
	return c.send(&pkt)
}

// RemoteAddr returns the broker network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}
