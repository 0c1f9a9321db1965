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
	"errors"
	"time"
)

// Type represents the packet type (e.g. CONNECT, CONNACK, etc.).
type Type byte

const (
	packetTypeBit        byte = 4
	controlByteFlagsMask byte = 0x0F
)

// Control packet type based on the MQTT specifications.
const (
	RESERVED Type = iota
	CONNECT
	CONNACK
	PUBLISH
	PUBACK
	PUBREC
	PUBREL
	PUBCOMP
	SUBSCRIBE
	SUBACK
	UNSUBSCRIBE
	UNSUBACK
	PINGREQ
	PINGRESP
	DISCONNECT
)

// Version represents the MQTT version.
type Version byte

// MQTT version.
const (
	MQTT31 Version = iota + 3
	MQTT311
)

// QoS represents the Quality of Service level.
type QoS byte

// QoS levels.
const (
	QoS0 QoS = iota
	QoS1
	QoS2
)

// ID represents the packet identifier.
type ID uint16

// Packet represents the MQTT packet.
type Packet interface {
	// Write encodes the packet into bytes and writes it into bufio.Writer.
	Write(w *bufio.Writer) error

	// Read reads the packet bytes from bufio.Reader and decodes them into the packet.
	Read(r *bufio.Reader) error

	// Type returns the packet type.
	Type() Type

	// Size returns the packet size in bytes.
	Size() int

	// Timestamp returns the timestamp of the moment which the packet has been received or has been
	// sent.
	Timestamp() time.Time
}

type options struct {
	timestamp         time.Time
	fixedHeaderLength int
	remainingLength   int
	packetType        Type
	version           Version
	controlFlags      byte
}

var packetTypeToFactory = map[Type]func(options) (Packet, error){
	CONNECT:     newPacketConnect,
	CONNACK:     newPacketConnAck,
	PUBLISH:     newPacketPublish,
	PUBACK:      newPacketPubAck,
	PUBREC:      newPacketPubRec,
	PUBREL:      newPacketPubRel,
	PUBCOMP:     newPacketPubComp,
	SUBSCRIBE:   newPacketSubscribe,
	SUBACK:      newPacketSubAck,
	UNSUBSCRIBE: newPacketUnsubscribe,
	UNSUBACK:    newPacketUnsubAck,
	PINGREQ:     newPacketPingReq,
	PINGRESP:    newPacketPingResp,
	DISCONNECT:  newPacketDisconnect,
}

func newPacket(opts options) (Packet, error) {
	fn, ok := packetTypeToFactory[opts.packetType]
	if !ok {
		return nil, errors.New("invalid packet type: " + opts.packetType.String())
	}
	return fn(opts)
}

var packetTypeToString = map[Type]string{
	CONNECT:     "CONNECT",
	CONNACK:     "CONNACK",
	PUBLISH:     "PUBLISH",
	PUBACK:      "PUBACK",
	PUBREC:      "PUBREC",
	PUBREL:      "PUBREL",
	PUBCOMP:     "PUBCOMP",
	SUBSCRIBE:   "SUBSCRIBE",
	SUBACK:      "SUBACK",
	UNSUBSCRIBE: "UNSUBSCRIBE",
	UNSUBACK:    "UNSUBACK",
	PINGREQ:     "PINGREQ",
	PINGRESP:    "PINGRESP",
	DISCONNECT:  "DISCONNECT",
}

// String returns the Type in string format.
func (t Type) String() string {
	n, ok := packetTypeToString[t]
	if !ok {
		return "UNKNOWN"
	}
	return n
}

var versionToString = map[Version]string{
	MQTT31:  "3.1",
	MQTT311: "3.1.1",
}

// String returns the Version in string format.
func (v Version) String() string {
	return versionToString[v]
}

// Valid returns whether the QoS is one of the levels defined by the MQTT specifications.
func (q QoS) Valid() bool {
	return q <= QoS2
}

// header carries the fields every packet keeps after being read or written.
type header struct {
	timestamp    time.Time
	size         int
	remainLength int
}

func newHeader(opts options) header {
	return header{
		timestamp:    opts.timestamp,
		size:         opts.fixedHeaderLength + opts.remainingLength,
		remainLength: opts.remainingLength,
	}
}

// Size returns the packet size in bytes.
func (h *header) Size() int {
	return h.size
}

// Timestamp returns the timestamp of the moment the packet has been received or sent.
func (h *header) Timestamp() time.Time {
	return h.timestamp
}

func (h *header) sent(remainLength int) {
	h.timestamp = time.Now()
	h.remainLength = remainLength
	h.size = remainLength + 1 + varIntegerSize(remainLength)
}
