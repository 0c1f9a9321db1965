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

import "bufio"

// PubRec represents the PUBREC Packet from MQTT specifications.
type PubRec struct {
	// PacketID represents the packet identifier.
	PacketID ID

	// Version represents the MQTT version.
	Version Version

	header
}

func newPacketPubRec(opts options) (Packet, error) {
	if err := validateIDPacket(opts, PUBREC, 0); err != nil {
		return nil, err
	}
	return &PubRec{Version: opts.version, header: newHeader(opts)}, nil
}

// NewPubRec creates a PUBREC Packet.
func NewPubRec(id ID, v Version) PubRec {
	return PubRec{PacketID: id, Version: v}
}

// Write encodes the packet into bytes and writes it into the io.Writer.
func (pkt *PubRec) Write(w *bufio.Writer) error {
	if err := writeIDPacket(w, PUBREC, 0, pkt.PacketID); err != nil {
		return err
	}
	pkt.sent(2)
	return nil
}

// Read reads the packet bytes from bufio.Reader and decodes them into the packet.
func (pkt *PubRec) Read(r *bufio.Reader) (err error) {
	pkt.PacketID, err = readIDPacket(r, pkt.remainLength)
	return err
}

// Type returns the packet type.
func (pkt *PubRec) Type() Type {
	return PUBREC
}
