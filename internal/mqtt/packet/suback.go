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
	"fmt"

	"go.uber.org/multierr"
)

// SubAck represents the SUBACK Packet from MQTT specifications.
type SubAck struct {
	// GrantedQoS contains one entry per topic filter of the acknowledged SUBSCRIBE, holding the
	// maximum QoS granted or SubAckFailure.
	GrantedQoS []byte

	// PacketID represents the packet identifier.
	PacketID ID

	// Version represents the MQTT version.
	Version Version

	header
}

func newPacketSubAck(opts options) (Packet, error) {
	if opts.packetType != SUBACK {
		return nil, errors.New("packet type is not SUBACK")
	}
	if opts.controlFlags != 0 {
		return nil, errors.New("invalid Control Flags (SUBACK)")
	}
	if opts.remainingLength < 3 {
		return nil, errors.New("invalid remaining length (SUBACK)")
	}
	return &SubAck{Version: opts.version, header: newHeader(opts)}, nil
}

// NewSubAck creates a SUBACK Packet.
func NewSubAck(id ID, v Version, granted []byte) SubAck {
	return SubAck{PacketID: id, Version: v, GrantedQoS: granted}
}

// Write encodes the packet into bytes and writes it into the io.Writer.
func (pkt *SubAck) Write(w *bufio.Writer) error {
	pktLen := len(pkt.GrantedQoS) + 2
	err := multierr.Combine(
		writeFixedHeader(w, byte(SUBACK)<<packetTypeBit, pktLen),
		writeUint16(w, uint16(pkt.PacketID)),
	)
	_, errWr := w.Write(pkt.GrantedQoS)
	err = multierr.Combine(err, errWr)
	if err != nil {
		return fmt.Errorf("failed to send packet: %w", err)
	}

	pkt.sent(pktLen)
	return nil
}

// Read reads the packet bytes from bufio.Reader and decodes them into the packet.
func (pkt *SubAck) Read(r *bufio.Reader) error {
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

	pkt.GrantedQoS = make([]byte, buf.Len())
	copy(pkt.GrantedQoS, buf.Bytes())
	for _, q := range pkt.GrantedQoS {
		if q > byte(QoS2) && q != SubAckFailure {
			return newErrMalformedPacket(fmt.Sprintf("invalid granted QoS: %v", q))
		}
	}

	return nil
}

// Type returns the packet type.
func (pkt *SubAck) Type() Type {
	return SUBACK
}
