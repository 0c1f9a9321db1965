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
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/gsalomao/maxmq-client/internal/logger"
	"github.com/gsalomao/maxmq-client/internal/mqtt/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type handlerMock struct {
	mock.Mock
	packets chan packet.Packet
	sent    chan packet.Packet
	closed  chan error
}

func newHandlerMock() *handlerMock {
	h := &handlerMock{
		packets: make(chan packet.Packet, 10),
		sent:    make(chan packet.Packet, 10),
		closed:  make(chan error, 1),
	}
	h.On("HandlePacket", mock.Anything).Run(func(args mock.Arguments) {
		h.packets <- args.Get(0).(packet.Packet)
	})
	h.On("HandleSent", mock.Anything).Run(func(args mock.Arguments) {
		h.sent <- args.Get(0).(packet.Packet)
	})
	h.On("HandleClose", mock.Anything).Run(func(args mock.Arguments) {
		err, _ := args.Get(0).(error)
		h.closed <- err
	})
	return h
}

func (h *handlerMock) HandlePacket(p packet.Packet) {
	h.Called(p)
}

func (h *handlerMock) HandleSent(p packet.Packet) {
	h.Called(p)
}

func (h *handlerMock) HandleClose(err error) {
	h.Called(err)
}

func newTestLogger() *logger.Logger {
	return logger.New(io.Discard, &logger.Options{Level: logger.LevelDebug})
}

func newPipeConn(t *testing.T, h Handler) (*Conn, net.Conn) {
	t.Helper()

	client, srv := net.Pipe()
	c := newConn(client, h, newTestLogger(), connOptions{
		bufferSize:    64,
		maxPacketSize: 1024,
		version:       packet.MQTT31,
	})
	c.start()

	t.Cleanup(func() {
		_ = srv.Close()
		<-c.Done()
	})
	return c, srv
}

func waitPacket(t *testing.T, h *handlerMock) packet.Packet {
	t.Helper()

	select {
	case p := <-h.packets:
		return p
	case <-time.After(time.Second):
		require.Fail(t, "packet not received")
		return nil
	}
}

func waitClose(t *testing.T, h *handlerMock) error {
	t.Helper()

	select {
	case err := <-h.closed:
		return err
	case <-time.After(time.Second):
		require.Fail(t, "connection not closed")
		return nil
	}
}

func TestConnReceivePackets(t *testing.T) {
	h := newHandlerMock()
	_, srv := newPipeConn(t, h)

	go func() {
		_, _ = srv.Write([]byte{0x20, 2, 0, 0, 0x90, 3, 0, 1, 1, 0xD0, 0})
	}()

	assert.Equal(t, packet.CONNACK, waitPacket(t, h).Type())
	assert.Equal(t, packet.SUBACK, waitPacket(t, h).Type())
	assert.Equal(t, packet.PINGRESP, waitPacket(t, h).Type())
}

func TestConnClosedByBroker(t *testing.T) {
	h := newHandlerMock()
	c, srv := newPipeConn(t, h)

	_ = srv.Close()

	err := waitClose(t, h)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, err, io.EOF)
	assert.ErrorIs(t, c.PingReq(), ErrClosed)
	h.AssertNumberOfCalls(t, "HandleClose", 1)
}

func TestConnClosedByMalformedPacket(t *testing.T) {
	h := newHandlerMock()
	_, srv := newPipeConn(t, h)

	go func() {
		_, _ = srv.Write([]byte{0x40, 2, 0, 0})
	}()

	err := waitClose(t, h)
	assert.ErrorIs(t, err, packet.ErrMalformedPacket)
	h.AssertNotCalled(t, "HandlePacket", mock.Anything)
}

func TestConnCloseWithCause(t *testing.T) {
	testCases := []struct {
		name  string
		cause error
	}{
		{"NilCause", nil},
		{"KeepAliveTimeout", errors.New("keep alive timeout")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHandlerMock()
			c, _ := newPipeConn(t, h)

			err := c.Close(tc.cause)
			require.NoError(t, err)

			err = waitClose(t, h)
			assert.Equal(t, tc.cause, err)

			err = c.Close(errors.New("again"))
			assert.ErrorIs(t, err, ErrClosed)
			h.AssertNumberOfCalls(t, "HandleClose", 1)
		})
	}
}

func TestConnSendTypedPackets(t *testing.T) {
	testCases := []struct {
		name string
		send func(c *Conn) error
		msg  []byte
	}{
		{"ConnectV31", func(c *Conn) error {
			return c.Connect(&packet.Connect{
				ClientID: "a", Version: packet.MQTT31, KeepAlive: 15, CleanSession: true,
			})
		}, []byte{0x10, 15, 0, 6, 'M', 'Q', 'I', 's', 'd', 'p', 3, 2, 0, 15, 0, 1, 'a'}},
		{"ConnectV311", func(c *Conn) error {
			return c.Connect(&packet.Connect{
				ClientID: "a", Version: packet.MQTT311, KeepAlive: 15, CleanSession: true,
			})
		}, []byte{0x10, 13, 0, 4, 'M', 'Q', 'T', 'T', 4, 2, 0, 15, 0, 1, 'a'}},
		{"Publish", func(c *Conn) error {
			return c.Publish(5, "a", packet.QoS1, false, []byte("x"))
		}, []byte{0x32, 6, 0, 1, 'a', 0, 5, 'x'}},
		{"PubAck", func(c *Conn) error { return c.PubAck(1) }, []byte{0x40, 2, 0, 1}},
		{"PubRec", func(c *Conn) error { return c.PubRec(2) }, []byte{0x50, 2, 0, 2}},
		{"PubRel", func(c *Conn) error { return c.PubRel(3) }, []byte{0x62, 2, 0, 3}},
		{"PubComp", func(c *Conn) error { return c.PubComp(4) }, []byte{0x70, 2, 0, 4}},
		{"Subscribe", func(c *Conn) error {
			return c.Subscribe(6, []packet.Topic{{Name: "a", QoS: packet.QoS2}})
		}, []byte{0x82, 6, 0, 6, 0, 1, 'a', 2}},
		{"Unsubscribe", func(c *Conn) error {
			return c.Unsubscribe(7, []string{"a"})
		}, []byte{0xA2, 5, 0, 7, 0, 1, 'a'}},
		{"PingReq", func(c *Conn) error { return c.PingReq() }, []byte{0xC0, 0}},
		{"Disconnect", func(c *Conn) error { return c.Disconnect() }, []byte{0xE0, 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHandlerMock()
			c, srv := newPipeConn(t, h)

			msg := make([]byte, len(tc.msg))
			readErr := make(chan error, 1)
			go func() {
				_, err := io.ReadFull(srv, msg)
				readErr <- err
			}()

			err := tc.send(c)
			require.NoError(t, err)
			require.NoError(t, <-readErr)
			assert.Equal(t, tc.msg, msg)

			select {
			case p := <-h.sent:
				assert.Equal(t, tc.msg[0]>>4, byte(p.Type()))
			case <-time.After(time.Second):
				require.Fail(t, "packet sent not reported")
			}
		})
	}
}

func TestConnSendFailure(t *testing.T) {
	h := newHandlerMock()
	c, srv := newPipeConn(t, h)
	_ = srv.Close()
	_ = waitClose(t, h)

	err := c.PingReq()
	assert.Error(t, err)
	h.AssertNotCalled(t, "HandleSent", mock.Anything)
}
