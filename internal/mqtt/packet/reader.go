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
	"io"
	"time"
)

// Reader is responsible for read packets from a stream.
type Reader struct {
	rd            *bufio.Reader
	version       Version
	maxPacketSize int
}

// ReaderOptions contains the options for the Reader.
type ReaderOptions struct {
	// BufferSize represents the buffer size.
	BufferSize int

	// MaxPacketSize represents the maximum packet size, in bytes, allowed.
	MaxPacketSize int

	// Version represents the MQTT version negotiated on the stream.
	Version Version
}

// NewReader creates a buffered Reader which reads packets from the given io.Reader.
//
// The Reader keeps its buffer between packets, so it must be the only reader of the stream.
func NewReader(rd io.Reader, o ReaderOptions) *Reader {
	return &Reader{
		rd:            bufio.NewReaderSize(rd, o.BufferSize),
		version:       o.Version,
		maxPacketSize: o.MaxPacketSize,
	}
}

// ReadPacket reads and unpack a packet from the stream.
// It returns an error if it fails to read or unpack the packet.
func (r *Reader) ReadPacket() (Packet, error) {
	ctrlByte, err := r.rd.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("failed to read control byte: %w", err)
	}
	now := time.Now()

	var remainLen int
	n, err := readVarInteger(r.rd, &remainLen)
	if err != nil {
		return nil, fmt.Errorf("failed to read remain length: %w", err)
	}

	if r.maxPacketSize > 0 && remainLen > r.maxPacketSize {
		return nil, ErrMaxPacketSizeExceeded
	}

	opts := options{
		packetType:        Type(ctrlByte >> packetTypeBit),
		controlFlags:      ctrlByte & controlByteFlagsMask,
		fixedHeaderLength: 1 + n,
		remainingLength:   remainLen,
		timestamp:         now,
		version:           r.version,
	}

	pkt, err := newPacket(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read packet: %w", err)
	}

	err = pkt.Read(r.rd)
	if err != nil {
		return nil, fmt.Errorf("failed to read packet %v: %w", pkt.Type().String(), err)
	}

	return pkt, nil
}
