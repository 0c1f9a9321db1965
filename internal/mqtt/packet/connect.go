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
	connectFlagReserved     = 0x01
	connectFlagCleanSession = 0x02
	connectFlagWillFlag     = 0x04
	connectFlagWillQoS      = 0x18
	connectFlagWillRetain   = 0x20
	connectFlagPassword     = 0x40
	connectFlagUserName     = 0x80
)

var protocolNames = map[Version]string{
	MQTT31:  "MQIsdp",
	MQTT311: "MQTT",
}

// Connect represents the CONNECT Packet from MQTT specifications.
type Connect struct {
	// ClientID identifies the client to the broker.
	ClientID string

	// WillTopic represents the topic which the Will Message will be published.
	WillTopic string

	// WillMessage represents the Will Message to be published.
	WillMessage []byte

	// UserName represents the user name which the broker must use for authentication and
	// authorization.
	UserName string

	// Password represents the password which the broker must use for authentication and
	// authorization.
	Password []byte

	// KeepAlive is a time interval, measured in seconds, that is permitted to elapse between the
	// point at which the client finishes transmitting one Control Packet and the point it starts
	// sending the next.
	KeepAlive uint16

	// Version represents the MQTT version.
	Version Version

	// WillQoS indicates the QoS level to be used when publishing the Will Message.
	WillQoS QoS

	// CleanSession indicates if the session is temporary or not.
	CleanSession bool

	// WillFlag indicates whether a Will Message must be stored by the broker or not.
	WillFlag bool

	// WillRetain indicates if the Will Message is to be retained when it is published.
	WillRetain bool

	// UserNameFlag indicates if the user name is present on the packet or not.
	UserNameFlag bool

	// PasswordFlag indicates if the password is present on the packet or not.
	PasswordFlag bool

	header
}

func newPacketConnect(opts options) (Packet, error) {
	if opts.packetType != CONNECT {
		return nil, errors.New("packet type is not CONNECT")
	}
	if opts.controlFlags != 0 {
		return nil, errors.New("invalid Control Flags (CONNECT)")
	}
	return &Connect{header: newHeader(opts)}, nil
}

// Write encodes the packet into bytes and writes it into the io.Writer.
func (pkt *Connect) Write(w *bufio.Writer) error {
	name, ok := protocolNames[pkt.Version]
	if !ok {
		return fmt.Errorf("invalid version: %v", pkt.Version)
	}
	if !pkt.WillQoS.Valid() {
		return fmt.Errorf("invalid Will QoS: %v", pkt.WillQoS)
	}

	buf := &bytes.Buffer{}
	err := multierr.Combine(
		writeBinary(buf, []byte(name)),
		buf.WriteByte(byte(pkt.Version)),
		buf.WriteByte(pkt.flags()),
		writeUint16(buf, pkt.KeepAlive),
		writeBinary(buf, []byte(pkt.ClientID)),
	)
	if pkt.WillFlag {
		err = multierr.Combine(err,
			writeBinary(buf, []byte(pkt.WillTopic)),
			writeBinary(buf, pkt.WillMessage),
		)
	}
	if pkt.UserNameFlag {
		err = multierr.Combine(err, writeBinary(buf, []byte(pkt.UserName)))
	}
	if pkt.PasswordFlag {
		err = multierr.Combine(err, writeBinary(buf, pkt.Password))
	}
	if err != nil {
		return fmt.Errorf("failed to encode packet: %w", err)
	}

	pktLen := buf.Len()
	err = writeFixedHeader(w, byte(CONNECT)<<packetTypeBit, pktLen)
	_, errBuf := buf.WriteTo(w)
	err = multierr.Combine(err, errBuf)
	if err != nil {
		return fmt.Errorf("failed to send packet: %w", err)
	}

	pkt.sent(pktLen)
	return nil
}

// Read reads the packet bytes from bufio.Reader and decodes them into the packet.
func (pkt *Connect) Read(r *bufio.Reader) error {
	buf, err := readRemaining(r, pkt.remainLength)
	if err != nil {
		return err
	}

	name, err := readString(buf)
	if err != nil {
		return fmt.Errorf("failed to read protocol name: %w", err)
	}

	var ver byte
	ver, err = readUint[byte](buf)
	if err != nil {
		return fmt.Errorf("failed to read protocol version: %w", err)
	}
	pkt.Version = Version(ver)

	expected, ok := protocolNames[pkt.Version]
	if !ok || expected != name {
		return newErrMalformedPacket("invalid protocol name")
	}

	var flags byte
	flags, err = readUint[byte](buf)
	if err != nil {
		return fmt.Errorf("failed to read flags: %w", err)
	}
	if flags&connectFlagReserved != 0 {
		return newErrMalformedPacket("invalid reserved flag")
	}

	pkt.CleanSession = flags&connectFlagCleanSession > 0
	pkt.WillFlag = flags&connectFlagWillFlag > 0
	pkt.WillQoS = QoS(flags & connectFlagWillQoS >> 3)
	pkt.WillRetain = flags&connectFlagWillRetain > 0
	pkt.PasswordFlag = flags&connectFlagPassword > 0
	pkt.UserNameFlag = flags&connectFlagUserName > 0

	if !pkt.WillQoS.Valid() {
		return newErrMalformedPacket("invalid Will QoS")
	}

	pkt.KeepAlive, err = readUint[uint16](buf)
	if err != nil {
		return fmt.Errorf("failed to read keep alive: %w", err)
	}

	pkt.ClientID, err = readString(buf)
	if err != nil {
		return fmt.Errorf("failed to read client ID: %w", err)
	}

	if pkt.WillFlag {
		pkt.WillTopic, err = readString(buf)
		if err != nil {
			return fmt.Errorf("failed to read Will Topic: %w", err)
		}
		pkt.WillMessage, err = readBinary(buf)
		if err != nil {
			return fmt.Errorf("failed to read Will Message: %w", err)
		}
	}

	if pkt.UserNameFlag {
		pkt.UserName, err = readString(buf)
		if err != nil {
			return fmt.Errorf("failed to read user name: %w", err)
		}
	}

	if pkt.PasswordFlag {
		pkt.Password, err = readBinary(buf)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	return nil
}

// Type returns the packet type.
func (pkt *Connect) Type() Type {
	return CONNECT
}

func (pkt *Connect) flags() byte {
	var flags byte

	if pkt.CleanSession {
		flags |= connectFlagCleanSession
	}
	if pkt.WillFlag {
		flags |= connectFlagWillFlag
		flags |= byte(pkt.WillQoS) << 3 & connectFlagWillQoS
		if pkt.WillRetain {
			flags |= connectFlagWillRetain
		}
	}
	if pkt.PasswordFlag {
		flags |= connectFlagPassword
	}
	if pkt.UserNameFlag {
		flags |= connectFlagUserName
	}

	return flags
}
