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

package packet

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePacket(t *testing.T, p Packet) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	wr := NewWriter(64)

	err := wr.WritePacket(buf, p)
	require.NoError(t, err)
	return buf.Bytes()
}

func readPacket(t *testing.T, msg []byte, ver Version) Packet {
	t.Helper()

	rd := NewReader(bytes.NewReader(msg), ReaderOptions{BufferSize: 64, MaxPacketSize: 1024, Version: ver})
	p, err := rd.ReadPacket()
	require.NoError(t, err)
	return p
}

func TestPacketNewPacket(t *testing.T) {
	testCases := []struct {
		pktType      Type
		flags        byte
		remainingLen int
	}{
		{CONNECT, 0, 0},
		{CONNACK, 0, 2},
		{PUBLISH, 0, 0},
		{PUBACK, 0, 2},
		{PUBREC, 0, 2},
		{PUBREL, 2, 2},
		{PUBCOMP, 0, 2},
		{SUBSCRIBE, 2, 0},
		{SUBACK, 0, 3},
		{UNSUBSCRIBE, 2, 0},
		{UNSUBACK, 0, 2},
		{PINGREQ, 0, 0},
		{PINGRESP, 0, 0},
		{DISCONNECT, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.pktType.String(), func(t *testing.T) {
			opts := options{
				packetType:      tc.pktType,
				controlFlags:    tc.flags,
				version:         MQTT31,
				remainingLength: tc.remainingLen,
			}
			pkt, err := newPacket(opts)
			require.NoError(t, err)
			require.NotNil(t, pkt)
			assert.Equal(t, tc.pktType, pkt.Type())
		})
	}
}

func TestPacketNewPacketInvalid(t *testing.T) {
	opts := options{packetType: RESERVED, controlFlags: 0}
	pkt, err := newPacket(opts)
	assert.Error(t, err)
	assert.Nil(t, pkt)
}

func TestPacketNewPacketInvalidControlFlags(t *testing.T) {
	testCases := []struct {
		pktType      Type
		flags        byte
		remainingLen int
	}{
		{CONNECT, 1, 0},
		{CONNACK, 1, 2},
		{PUBACK, 2, 2},
		{PUBREL, 0, 2},
		{SUBSCRIBE, 0, 0},
		{UNSUBSCRIBE, 0, 0},
		{PINGRESP, 1, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.pktType.String(), func(t *testing.T) {
			opts := options{packetType: tc.pktType, controlFlags: tc.flags,
				remainingLength: tc.remainingLen}
			pkt, err := newPacket(opts)
			assert.Error(t, err)
			assert.Nil(t, pkt)
		})
	}
}

func TestPacketTypeToString(t *testing.T) {
	testCases := []struct {
		name    string
		pktType Type
	}{
		{"CONNECT", CONNECT},
		{"CONNACK", CONNACK},
		{"PUBLISH", PUBLISH},
		{"PUBACK", PUBACK},
		{"PUBREC", PUBREC},
		{"PUBREL", PUBREL},
		{"PUBCOMP", PUBCOMP},
		{"SUBSCRIBE", SUBSCRIBE},
		{"SUBACK", SUBACK},
		{"UNSUBSCRIBE", UNSUBSCRIBE},
		{"UNSUBACK", UNSUBACK},
		{"PINGREQ", PINGREQ},
		{"PINGRESP", PINGRESP},
		{"DISCONNECT", DISCONNECT},
		{"UNKNOWN", RESERVED},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.name, tc.pktType.String())
		})
	}
}

func TestPacketVersionToString(t *testing.T) {
	assert.Equal(t, "3.1", MQTT31.String())
	assert.Equal(t, "3.1.1", MQTT311.String())
}

func TestPacketSizeAfterWrite(t *testing.T) {
	pkt := NewPublish(1, MQTT31, "a/b", QoS1, false, bytes.Repeat([]byte{'x'}, 200))
	msg := writePacket(t, &pkt)

	assert.Equal(t, len(msg), pkt.Size())
	assert.False(t, pkt.Timestamp().IsZero())
}

func TestPacketWriteFailure(t *testing.T) {
	pkt := NewPingReq(MQTT31)
	wr := bufio.NewWriterSize(failingWriter{}, 16)

	err := pkt.Write(wr)
	require.NoError(t, err)
	assert.Error(t, wr.Flush())
}

type failingWriter struct{}

func (failingWriter) Write(_ []byte) (int, error) {
	return 0, assert.AnError
}

func newTestReader(msg []byte) *Reader {
	return NewReader(bytes.NewReader(msg), ReaderOptions{BufferSize: 64, MaxPacketSize: 1024,
		Version: MQTT31})
}
