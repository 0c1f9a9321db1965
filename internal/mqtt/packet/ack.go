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
	"fmt"

	"go.uber.org/multierr"
)

// PUBACK, PUBREC, PUBREL, PUBCOMP and UNSUBACK share the same layout: a fixed header with a
// remaining length of 2 followed by the packet identifier.

func validateIDPacket(opts options, t Type, flags byte) error {
	if opts.packetType != t {
		return fmt.Errorf("packet type is not %v", t)
	}
	if opts.controlFlags != flags {
		return fmt.Errorf("invalid Control Flags (%v)", t)
	}
	if opts.remainingLength != 2 {
		return fmt.Errorf("invalid remaining length (%v)", t)
	}
	return nil
}

func writeIDPacket(w *bufio.Writer, t Type, flags byte, id ID) error {
	err := multierr.Combine(
		writeFixedHeader(w, byte(t)<<packetTypeBit|flags, 2),
		writeUint16(w, uint16(id)),
	)
	if err != nil {
		return fmt.Errorf("failed to send packet: %w", err)
	}
	return nil
}

func readIDPacket(r *bufio.Reader, remainLength int) (ID, error) {
	buf, err := readRemaining(r, remainLength)
	if err != nil {
		return 0, err
	}

	id, err := readUint[uint16](buf)
	if err != nil {
		return 0, fmt.Errorf("failed to read packet ID: %w", err)
	}
	if id == 0 {
		return 0, newErrMalformedPacket("invalid packet ID")
	}

	return ID(id), nil
}
