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

const subscribeHeaderReservedValue byte = 2

// Topic represents a topic filter and its requested QoS in a SUBSCRIBE Packet.
type Topic struct {
	// Name represents the topic filter.
	Name string

	// QoS represents the maximum QoS level the client is willing to receive.
	QoS QoS
}

// Subscribe represents the SUBSCRIBE Packet from MQTT specifications.
type Subscribe struct {
	// Topics represents the list of topics to subscribe.
	Topics []Topic

	// PacketID represents the packet identifier.
	PacketID ID

	// Version represents the MQTT version.
	Version Version

	header
}

func newPacketSubscribe(opts options) (Packet, error) {
	if opts.packetType != SUBSCRIBE {
		return nil, errors.New("packet type is not SUBSCRIBE")
	}
	if opts.controlFlags != subscribeHeaderReservedValue {
		return nil, errors.New("invalid Control Flags (SUBSCRIBE)")
	}
	return &Subscribe{Version: opts.version, header: newHeader(opts)}, nil
}

// NewSubscribe creates a SUBSCRIBE Packet.
func NewSubscribe(id ID, v Version, topics []Topic) Subscribe {
	return Subscribe{PacketID: id, Version: v, Topics: topics}
}

// Write encodes the packet into bytes and writes it into the io.Writer.
func (pkt *Subscribe) Write(w *bufio.Writer) error {
	if len(pkt.Topics) == 0 {
		return errors.New("no topic filter (SUBSCRIBE)")
	}

	buf := &bytes.Buffer{}
	err := writeUint16(buf, uint16(pkt.PacketID))
	for _, t := range pkt.Topics {
		if !t.QoS.Valid() {
			return fmt.Errorf("invalid QoS: %v", t.QoS)
		}
		err = multierr.Combine(err,
			writeBinary(buf, []byte(t.Name)),
			buf.WriteByte(byte(t.QoS)),
		)
	}
	if err != nil {
		return fmt.Errorf("failed to encode packet: %w", err)
	}

	pktLen := buf.Len()
	err = writeFixedHeader(w, byte(SUBSCRIBE)<<packetTypeBit|subscribeHeaderReservedValue, pktLen)
	_, errBuf := buf.WriteTo(w)
	err = multierr.Combine(err, errBuf)
	if err != nil {
		return fmt.Errorf("failed to send packet: %w", err)
	}

	pkt.sent(pktLen)
	return nil
}

// Read reads the packet bytes from bufio.Reader and decodes them into the packet.
func (pkt *Subscribe) Read(r *bufio.Reader) error {
	buf, err := readRemaining(r, pkt.remainLength)
	if err != nil {
		return err
	}

	var id uint16
	id, err = readUint[uint16](buf)
	if err != nil {
		return fmt.Errorf("failed to read packet ID: %w", err)
	}
	pkt.PacketID = ID(id)

	for buf.Len() > 0 {
		var t Topic

		t.Name, err = readString(buf)
		if err != nil {
			return fmt.Errorf("failed to read topic filter: %w", err)
		}

		var qos byte
		qos, err = readUint[byte](buf)
		if err != nil {
			return fmt.Errorf("failed to read QoS: %w", err)
		}

		t.QoS = QoS(qos)
		if !t.QoS.Valid() {
			return newErrMalformedPacket("invalid QoS")
		}

		pkt.Topics = append(pkt.Topics, t)
	}

	if len(pkt.Topics) == 0 {
		return newErrMalformedPacket("no topic filter")
	}
	return nil
}

// Type returns the packet type.
func (pkt *Subscribe) Type() Type {
	return SUBSCRIBE
}
