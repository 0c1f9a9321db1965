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

package mqtt

import (
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gsalomao/maxmq-client/internal/mqtt/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectConfigKeepAlive(t *testing.T) {
	testCases := []struct {
		name      string
		keepAlive time.Duration
		want      time.Duration
	}{
		{"default", 0, DefaultKeepAlive},
		{"disabled", -1, 0},
		{"seconds", 30 * time.Second, 30 * time.Second},
		{"truncated", 10*time.Second + 500*time.Millisecond, 10 * time.Second},
		{"sub-second", 200 * time.Millisecond, time.Second},
		{"max", 24 * time.Hour, 65535 * time.Second},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := ConnectConfig{KeepAlive: tc.keepAlive}.withDefaults()
			assert.Equal(t, tc.want, conf.KeepAlive)
		})
	}
}

func TestConnectConfigGeneratesClientID(t *testing.T) {
	a := ConnectConfig{}.withDefaults()
	b := ConnectConfig{}.withDefaults()

	assert.True(t, strings.HasPrefix(a.ClientID, "maxmq-"))
	assert.NotEqual(t, a.ClientID, b.ClientID)

	id := gofakeit.Username()
	c := ConnectConfig{ClientID: id}.withDefaults()
	assert.Equal(t, id, c.ClientID)
}

func TestConnectConfigConnectPacket(t *testing.T) {
	conf := ConnectConfig{
		ClientID:  "client-1",
		KeepAlive: 30 * time.Second,
	}.withDefaults()

	pkt := conf.connectPacket(packet.MQTT31)
	assert.Equal(t, "client-1", pkt.ClientID)
	assert.Equal(t, uint16(30), pkt.KeepAlive)
	assert.Equal(t, packet.MQTT31, pkt.Version)
	assert.True(t, pkt.CleanSession)
	assert.False(t, pkt.UserNameFlag)
	assert.False(t, pkt.PasswordFlag)
	assert.False(t, pkt.WillFlag)
}

func TestConnectConfigConnectPacketPersistent(t *testing.T) {
	pkt := ConnectConfig{Persistent: true}.withDefaults().connectPacket(packet.MQTT31)
	assert.False(t, pkt.CleanSession)
}

func TestConnectConfigConnectPacketCredentials(t *testing.T) {
	testCases := []struct {
		name         string
		username     string
		password     []byte
		userNameFlag bool
		passwordFlag bool
	}{
		{"none", "", nil, false, false},
		{"username", "user", nil, true, false},
		{"username-password", "user", []byte("pass"), true, true},
		{"password-only", "", []byte("pass"), false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := ConnectConfig{Username: tc.username, Password: tc.password}.withDefaults()

			pkt := conf.connectPacket(packet.MQTT31)
			assert.Equal(t, tc.userNameFlag, pkt.UserNameFlag)
			assert.Equal(t, tc.passwordFlag, pkt.PasswordFlag)
			if tc.userNameFlag {
				assert.Equal(t, tc.username, pkt.UserName)
			}
			if tc.passwordFlag {
				assert.Equal(t, tc.password, pkt.Password)
			}
		})
	}
}

func TestConnectConfigConnectPacketWill(t *testing.T) {
	will := &Will{Topic: "status/client", Message: []byte("offline"), QoS: packet.QoS1, Retain: true}
	conf := ConnectConfig{Will: will}.withDefaults()
	require.NoError(t, conf.validate())

	pkt := conf.connectPacket(packet.MQTT31)
	assert.True(t, pkt.WillFlag)
	assert.Equal(t, will.Topic, pkt.WillTopic)
	assert.Equal(t, will.Message, pkt.WillMessage)
	assert.Equal(t, will.QoS, pkt.WillQoS)
	assert.True(t, pkt.WillRetain)
}

func TestConnectConfigValidate(t *testing.T) {
	testCases := []struct {
		name string
		will *Will
		err  error
	}{
		{"no-will", nil, nil},
		{"valid", &Will{Topic: "a/b", QoS: packet.QoS2}, nil},
		{"empty-topic", &Will{Topic: ""}, ErrInvalidTopic},
		{"wildcard-topic", &Will{Topic: "a/#"}, ErrInvalidTopic},
		{"invalid-qos", &Will{Topic: "a", QoS: 3}, ErrInvalidQoS},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ConnectConfig{Will: tc.will}.validate()
			assert.ErrorIs(t, err, tc.err)
		})
	}
}
