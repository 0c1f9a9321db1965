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

const unsubscribeHeaderReservedValue byte = 2

// Unsubscribe represents the UNSUBSCRIBE Packet from MQTT specifications.
type Unsubscribe struct {
	// Topics represents the list of topic filters to unsubscribe.
	Topics []string

	// PacketID represents the packet identifier.
	PacketID ID

	// Version represents the MQTT version.
	Version Version

	header
}

func newPacketUnsubscribe(opts options) (Packet, error) {
	if opts.packetType != UNSUBSCRIBE {
		return nil, errors.New("packet type is not UNSUBSCRIBE")
	}
	if opts.controlFlags != unsubscribeHeaderReservedValue {
		return nil, errors.New("invalid Control Flags (UNSUBSCRIBE)")
	}
	return &Unsubscribe{Version: opts.version, header: newHeader(opts)}, nil
}

// NewUnsubscribe creates an UNSUBSCRIBE Packet.
func NewUnsubscribe(id ID, v Version, topics []string) Unsubscribe {
	return Unsubscribe{PacketID: id, Version: v, Topics: topics}
}

// Write encodes the packet into bytes and writes it into the io.Writer.
func (pkt *Unsubscribe) Write(w *bufio.Writer) error {
	if len(pkt.Topics) == 0 {
		return errors.New("no topic filter (UNSUBSCRIBE)")
	}

	buf := &bytes.Buffer{}
	err := writeUint16(buf, uint16(pkt.PacketID))
	for _, t := range pkt.Topics {
		err = multierr.Combine(err, writeBinary(buf, []byte(t)))
	}
	if err != nil {
		return fmt.Errorf("failed to encode packet: %w", err)
	}

	pktLen := buf.Len()
	err = writeFixedHeader(w, byte(UNSUBSCRIBE)<<packetTypeBit|unsubscribeHeaderReservedValue,
		pktLen)
	_, errBuf := buf.WriteTo(w)
	err = multierr.Combine(err, errBuf)
	if err != nil {
		return fmt.Errorf("failed to send packet: %w", err)
	}

	pkt.sent(pktLen)
	return nil
}

// Read reads the packet bytes from bufio.Reader and decodes them into the packet.
func (pkt *Unsubscribe) Read(r *bufio.Reader) error {
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
		var topic string
		topic, err = readString(buf)
		if err != nil {
			return fmt.Errorf("failed to read topic filter: %w", err)
		}
		pkt.Topics = append(pkt.Topics, topic)
	}

	if len(pkt.Topics) == 0 {
		return newErrMalformedPacket("no topic filter")
	}
	return nil
}

// Type returns the packet type.
func (pkt *Unsubscribe) Type() Type {
	return UNSUBSCRIBE
}
