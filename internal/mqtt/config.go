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
	"math"
	"time"

	"github.com/gsalomao/maxmq-client/internal/mqtt/packet"
	"github.com/rs/xid"
)

const (
	// DefaultKeepAlive is the keep alive used when ConnectConfig.KeepAlive is zero.
	DefaultKeepAlive = 15 * time.Second

	maxKeepAlive   = math.MaxUint16 * time.Second
	clientIDPrefix = "maxmq-"
)

// Will is the message the broker publishes when the connection is lost.
type Will struct {
	// Topic is the topic name of the will message.
	Topic string

	// Message is the payload of the will message.
	Message []byte

	// QoS is the QoS level of the will message.
	QoS packet.QoS

	// Retain indicates whether the will message must be retained.
	Retain bool
}

// ConnectConfig contains the options sent to the broker in the CONNECT packet.
type ConnectConfig struct {
	// Will is the optional last will message.
	Will *Will

	// ClientID is the client identifier. When empty, an unique identifier is generated.
	ClientID string

	// Username is the optional user name.
	Username string

	// Password is the optional password. It's only sent when Username is set.
	Password []byte

	// KeepAlive is the keep alive interval. Zero uses DefaultKeepAlive and a negative value
	// disables the keep alive. It's truncated to seconds and limited to 65535 seconds.
	KeepAlive time.Duration

	// Persistent requests the broker to resume the previous session instead of starting a clean
	// one.
	Persistent bool
}

func (c ConnectConfig) withDefaults() ConnectConfig {
	switch {
	case c.KeepAlive == 0:
		c.KeepAlive = DefaultKeepAlive
	case c.KeepAlive < 0:
		c.KeepAlive = 0
	case c.KeepAlive > maxKeepAlive:
		c.KeepAlive = maxKeepAlive
	default:
		c.KeepAlive = c.KeepAlive.Truncate(time.Second)
		if c.KeepAlive == 0 {
			c.KeepAlive = time.Second
		}
	}

	if c.ClientID == "" {
		c.ClientID = clientIDPrefix + xid.New().String()
	}
	return c
}

// connectPacket builds the CONNECT packet from a config with defaults applied.
func (c ConnectConfig) connectPacket(v packet.Version) *packet.Connect {
	pkt := &packet.Connect{
		ClientID:     c.ClientID,
		KeepAlive:    uint16(c.KeepAlive / time.Second),
		Version:      v,
		CleanSession: !c.Persistent,
	}

	if c.Username != "" {
		pkt.UserNameFlag = true
		pkt.UserName = c.Username

		if c.Password != nil {
			pkt.PasswordFlag = true
			pkt.Password = c.Password
		}
	}

	if c.Will != nil {
		pkt.WillFlag = true
		pkt.WillTopic = c.Will.Topic
		pkt.WillMessage = c.Will.Message
		pkt.WillQoS = c.Will.QoS
		pkt.WillRetain = c.Will.Retain
	}
	return pkt
}

func (c ConnectConfig) validate() error {
	if c.Will == nil {
		return nil
	}
	if !packet.IsValidTopicName(c.Will.Topic) {
		return ErrInvalidTopic
	}
	if !c.Will.QoS.Valid() {
		return ErrInvalidQoS
	}
	return nil
}
