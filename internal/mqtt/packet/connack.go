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

// ConnAck represents the CONNACK Packet from MQTT specifications.
type ConnAck struct {
	// Version represents the MQTT version.
	Version Version

	// ReturnCode represents the result of the connection request.
	ReturnCode ReturnCode

	// SessionPresent indicates if there is already a session associated with the client ID
	// (MQTT 3.1.1 only).
	SessionPresent bool

	header
}

func newPacketConnAck(opts options) (Packet, error) {
	if opts.packetType != CONNACK {
		return nil, errors.New("packet type is not CONNACK")
	}
	if opts.controlFlags != 0 {
		return nil, errors.New("invalid Control Flags (CONNACK)")
	}
	if opts.remainingLength != 2 {
		return nil, errors.New("invalid remaining length (CONNACK)")
	}
	return &ConnAck{Version: opts.version, header: newHeader(opts)}, nil
}

// NewConnAck creates a CONNACK Packet.
func NewConnAck(v Version, c ReturnCode, sessionPresent bool) ConnAck {
	return ConnAck{Version: v, ReturnCode: c, SessionPresent: sessionPresent}
}

// Write encodes the packet into bytes and writes it into the io.Writer.
func (pkt *ConnAck) Write(w *bufio.Writer) error {
	var ackFlag byte
	if pkt.SessionPresent && pkt.Version != MQTT31 {
		ackFlag = 1
	}

	err := multierr.Combine(
		writeFixedHeader(w, byte(CONNACK)<<packetTypeBit, 2),
		w.WriteByte(ackFlag),
		w.WriteByte(byte(pkt.ReturnCode)),
	)
	if err != nil {
		return fmt.Errorf("failed to send packet: %w", err)
	}

	pkt.sent(2)
	return nil
}

// Read reads the packet bytes from bufio.Reader and decodes them into the packet.
func (pkt *ConnAck) Read(r *bufio.Reader) error {
	buf, err := readRemaining(r, pkt.remainLength)
	if err != nil {
		return err
	}

	flags, _ := buf.ReadByte()
	if flags&^1 != 0 {
		return newErrMalformedPacket("invalid acknowledge flags")
	}

	code, _ := buf.ReadByte()
	pkt.SessionPresent = flags == 1
	pkt.ReturnCode = ReturnCode(code)
	return nil
}

// Type returns the packet type.
func (pkt *ConnAck) Type() Type {
	return CONNACK
}
