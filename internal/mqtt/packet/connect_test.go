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

func TestConnectWrite(t *testing.T) {
	testCases := []struct {
		name string
		pkt  Connect
		msg  []byte
	}{
		{
			name: "V3.1",
			pkt:  Connect{Version: MQTT31, ClientID: "a", KeepAlive: 15, CleanSession: true},
			msg: []byte{0x10, 15, 0, 6, 'M', 'Q', 'I', 's', 'd', 'p', 3, 0x02, 0, 15,
				0, 1, 'a'},
		},
		{
			name: "V3.1.1",
			pkt:  Connect{Version: MQTT311, ClientID: "a", KeepAlive: 60},
			msg:  []byte{0x10, 13, 0, 4, 'M', 'Q', 'T', 'T', 4, 0, 0, 60, 0, 1, 'a'},
		},
		{
			name: "V3.1-WillUserPassword",
			pkt: Connect{
				Version:      MQTT31,
				ClientID:     "a",
				KeepAlive:    1,
				WillFlag:     true,
				WillQoS:      QoS1,
				WillRetain:   true,
				WillTopic:    "w",
				WillMessage:  []byte{'m'},
				UserNameFlag: true,
				UserName:     "u",
				PasswordFlag: true,
				Password:     []byte{'p'},
			},
			msg: []byte{0x10, 27, 0, 6, 'M', 'Q', 'I', 's', 'd', 'p', 3, 0xEC, 0, 1,
				0, 1, 'a', 0, 1, 'w', 0, 1, 'm', 0, 1, 'u', 0, 1, 'p'},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pkt := tc.pkt
			msg := writePacket(t, &pkt)
			assert.Equal(t, tc.msg, msg)
			assert.Equal(t, len(tc.msg), pkt.Size())
		})
	}
}

func TestConnectWriteInvalidVersion(t *testing.T) {
	pkt := Connect{Version: 5, ClientID: "a"}
	wr := NewWriter(16)

	err := wr.WritePacket(&failingBuffer{}, &pkt)
	assert.Error(t, err)
}

func TestConnectRead(t *testing.T) {
	msg := []byte{0x10, 27, 0, 6, 'M', 'Q', 'I', 's', 'd', 'p', 3, 0xEC, 0, 1,
		0, 1, 'a', 0, 1, 'w', 0, 1, 'm', 0, 1, 'u', 0, 1, 'p'}

	p := readPacket(t, msg, MQTT31)
	require.Equal(t, CONNECT, p.Type())

	pkt := p.(*Connect)
	assert.Equal(t, MQTT31, pkt.Version)
	assert.Equal(t, "a", pkt.ClientID)
	assert.Equal(t, uint16(1), pkt.KeepAlive)
	assert.False(t, pkt.CleanSession)
	assert.True(t, pkt.WillFlag)
	assert.Equal(t, QoS1, pkt.WillQoS)
	assert.True(t, pkt.WillRetain)
	assert.Equal(t, "w", pkt.WillTopic)
	assert.Equal(t, []byte{'m'}, pkt.WillMessage)
	assert.Equal(t, "u", pkt.UserName)
	assert.Equal(t, []byte{'p'}, pkt.Password)
	assert.Equal(t, len(msg), pkt.Size())
}

func TestConnectReadInvalidProtocolName(t *testing.T) {
	msg := []byte{0x10, 13, 0, 4, 'M', 'Q', 'T', 'T', 3, 0, 0, 60, 0, 1, 'a'}
	rd := newTestReader(msg)

	_, err := rd.ReadPacket()
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

func TestConnectReadReservedFlag(t *testing.T) {
	msg := []byte{0x10, 13, 0, 4, 'M', 'Q', 'T', 'T', 4, 1, 0, 60, 0, 1, 'a'}
	rd := newTestReader(msg)

	_, err := rd.ReadPacket()
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

type failingBuffer struct{}

func (*failingBuffer) Write(_ []byte) (int, error) {
	return 0, assert.AnError
}
