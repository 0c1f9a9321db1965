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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishWrite(t *testing.T) {
	testCases := []struct {
		name string
		pkt  Publish
		msg  []byte
	}{
		{
			name: "QoS0",
			pkt:  NewPublish(0, MQTT31, "a/b", QoS0, false, []byte("hi")),
			msg:  []byte{0x30, 7, 0, 3, 'a', '/', 'b', 'h', 'i'},
		},
		{
			name: "QoS1-Retain",
			pkt:  NewPublish(5, MQTT31, "a", QoS1, true, []byte("x")),
			msg:  []byte{0x33, 6, 0, 1, 'a', 0, 5, 'x'},
		},
		{
			name: "QoS2",
			pkt:  NewPublish(65535, MQTT31, "a", QoS2, false, nil),
			msg:  []byte{0x34, 5, 0, 1, 'a', 0xFF, 0xFF},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pkt := tc.pkt
			msg := writePacket(t, &pkt)
			assert.Equal(t, tc.msg, msg)
		})
	}
}

func TestPublishWriteDup(t *testing.T) {
	pkt := NewPublish(1, MQTT31, "a", QoS1, false, nil)
	pkt.Dup = true

	msg := writePacket(t, &pkt)
	assert.Equal(t, []byte{0x3A, 5, 0, 1, 'a', 0, 1}, msg)
}

func TestPublishWriteInvalidQoS(t *testing.T) {
	pkt := NewPublish(1, MQTT31, "a", QoS(3), false, nil)
	wr := NewWriter(16)

	err := wr.WritePacket(&failingBuffer{}, &pkt)
	assert.Error(t, err)
}

func TestPublishRead(t *testing.T) {
	testCases := []struct {
		name    string
		msg     []byte
		id      ID
		qos     QoS
		retain  bool
		topic   string
		payload []byte
	}{
		{"QoS0", []byte{0x30, 7, 0, 3, 'a', '/', 'b', 'h', 'i'}, 0, QoS0, false, "a/b",
			[]byte("hi")},
		{"QoS1", []byte{0x33, 6, 0, 1, 'a', 0, 5, 'x'}, 5, QoS1, true, "a", []byte("x")},
		{"QoS2", []byte{0x34, 5, 0, 1, 'a', 0xFF, 0xFF}, 65535, QoS2, false, "a", []byte{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := readPacket(t, tc.msg, MQTT31)
			require.Equal(t, PUBLISH, p.Type())

			pkt := p.(*Publish)
			assert.Equal(t, tc.id, pkt.PacketID)
			assert.Equal(t, tc.qos, pkt.QoS)
			assert.Equal(t, tc.retain, pkt.Retain)
			assert.Equal(t, tc.topic, pkt.TopicName)
			assert.Equal(t, tc.payload, pkt.Payload)
			assert.Equal(t, MQTT31, pkt.Version)
			assert.Equal(t, len(tc.msg), pkt.Size())
		})
	}
}

func TestPublishReadInvalid(t *testing.T) {
	testCases := []struct {
		name string
		msg  []byte
	}{
		{"QoS3", []byte{0x36, 5, 0, 1, 'a', 0, 1}},
		{"DupQoS0", []byte{0x38, 3, 0, 1, 'a'}},
		{"PacketIDZero", []byte{0x32, 5, 0, 1, 'a', 0, 0}},
		{"WildcardTopic", []byte{0x30, 3, 0, 1, '#'}},
		{"EmptyTopic", []byte{0x30, 2, 0, 0}},
		{"MissingPacketID", []byte{0x32, 3, 0, 1, 'a'}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rd := newTestReader(tc.msg)
			_, err := rd.ReadPacket()
			assert.Error(t, err)
		})
	}
}
