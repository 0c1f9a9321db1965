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
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

const (
	publishFlagRetain byte = 0x01
	publishFlagQoS    byte = 0x06
	publishFlagDup    byte = 0x08
)

// Publish represents the PUBLISH Packet from MQTT specifications.
type Publish struct {
	// TopicName identifies the information channel to which Payload data is published.
	TopicName string

	// Payload represents the message payload.
	Payload []byte

	// PacketID represents the packet identifier. It is only present when the QoS is higher than 0.
	PacketID ID

	// QoS indicates the level of assurance for delivery of the message.
	QoS QoS

	// Version represents the MQTT version.
	Version Version

	// Dup indicates that this might be re-delivery of an earlier attempt to send the packet.
	Dup bool

	// Retain indicates whether the broker must store the message as the retained message of the
	// topic or not.
	Retain bool

	header
}

func newPacketPublish(opts options) (Packet, error) {
	if opts.packetType != PUBLISH {
		return nil, errors.New("packet type is not PUBLISH")
	}

	qos := QoS(opts.controlFlags & publishFlagQoS >> 1)
	if !qos.Valid() {
		return nil, errors.New("invalid QoS (PUBLISH)")
	}

	dup := opts.controlFlags&publishFlagDup > 0
	if qos == QoS0 && dup {
		return nil, errors.New("invalid DUP (PUBLISH)")
	}

	return &Publish{
		QoS:     qos,
		Dup:     dup,
		Retain:  opts.controlFlags&publishFlagRetain > 0,
		Version: opts.version,
		header:  newHeader(opts),
	}, nil
}

// NewPublish creates a PUBLISH Packet.
func NewPublish(id ID, v Version, topic string, qos QoS, retain bool, payload []byte) Publish {
	return Publish{
		PacketID:  id,
		Version:   v,
		TopicName: topic,
		QoS:       qos,
		Retain:    retain,
		Payload:   payload,
	}
}

// Write encodes the packet into bytes and writes it into the io.Writer.
func (pkt *Publish) Write(w *bufio.Writer) error {
	if !pkt.QoS.Valid() {
		return fmt.Errorf("invalid QoS: %v", pkt.QoS)
	}

	buf := &bytes.Buffer{}
	err := writeBinary(buf, []byte(pkt.TopicName))
	if pkt.QoS > QoS0 {
		err = multierr.Combine(err, writeUint16(buf, uint16(pkt.PacketID)))
	}
	if err != nil {
		return fmt.Errorf("failed to encode packet: %w", err)
	}

	ctrl := byte(PUBLISH)<<packetTypeBit | byte(pkt.QoS)<<1
	if pkt.Dup {
		ctrl |= publishFlagDup
	}
	if pkt.Retain {
		ctrl |= publishFlagRetain
	}

	pktLen := buf.Len() + len(pkt.Payload)
	err = writeFixedHeader(w, ctrl, pktLen)
	_, err2 := buf.WriteTo(w)
	_, err3 := w.Write(pkt.Payload)
	err = multierr.Combine(err, err2, err3)
	if err != nil {
		return fmt.Errorf("failed to send packet: %w", err)
	}

	pkt.sent(pktLen)
	return nil
}

// Read reads the packet bytes from bufio.Reader and decodes them into the packet.
func (pkt *Publish) Read(r *bufio.Reader) error {
	buf, err := readRemaining(r, pkt.remainLength)
	if err != nil {
		return err
	}

	pkt.TopicName, err = readString(buf)
	if err != nil {
		return fmt.Errorf("failed to read topic: %w", err)
	}
	if !IsValidTopicName(pkt.TopicName) {
		return newErrMalformedPacket("invalid topic name")
	}

	if pkt.QoS > QoS0 {
		var id uint16
		id, err = readUint[uint16](buf)
		if err != nil {
			return fmt.Errorf("failed to read packet ID: %w", err)
		}
		if id == 0 {
			return newErrMalformedPacket("invalid packet ID")
		}
		pkt.PacketID = ID(id)
	}

	pkt.Payload = buf.Next(buf.Len())
	return nil
}

// Type returns the packet type.
func (pkt *Publish) Type() Type {
	return PUBLISH
}
