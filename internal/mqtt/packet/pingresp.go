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
)

// PingResp represents the PINGRESP Packet from MQTT specifications.
type PingResp struct {
	// Version represents the MQTT version.
	Version Version

	header
}

func newPacketPingResp(opts options) (Packet, error) {
	if opts.packetType != PINGRESP {
		return nil, errors.New("packet type is not PINGRESP")
	}
	if opts.controlFlags != 0 {
		return nil, errors.New("invalid Control Flags (PINGRESP)")
	}
	if opts.remainingLength != 0 {
		return nil, errors.New("invalid Remain Length (PINGRESP)")
	}
	return &PingResp{Version: opts.version, header: newHeader(opts)}, nil
}

// NewPingResp creates a PINGRESP Packet.
func NewPingResp(v Version) PingResp {
	return PingResp{Version: v}
}

// Write encodes the packet into bytes and writes it into the io.Writer.
func (pkt *PingResp) Write(w *bufio.Writer) error {
	if err := writeFixedHeader(w, byte(PINGRESP)<<packetTypeBit, 0); err != nil {
		return fmt.Errorf("failed to send packet: %w", err)
	}
	pkt.sent(0)
	return nil
}

// Read reads the packet bytes from bufio.Reader and decodes them into the packet.
func (pkt *PingResp) Read(_ *bufio.Reader) error {
	return nil
}

// Type returns the packet type.
func (pkt *PingResp) Type() Type {
	return PINGRESP
}
