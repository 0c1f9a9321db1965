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
	"errors"
	"fmt"
)

// ErrMalformedPacket indicates that the packet could not be correctly parsed.
var ErrMalformedPacket = errors.New("malformed packet")

// ErrMaxPacketSizeExceeded indicates that the packet is bigger than the maximum allowed size.
var ErrMaxPacketSizeExceeded = errors.New("max packet size exceeded")

func newErrMalformedPacket(msg string) error {
	return fmt.Errorf("%w: %s", ErrMalformedPacket, msg)
}

// ReturnCode is a one byte unsigned value that indicates the result of a CONNECT, based on the
// MQTT specifications.
type ReturnCode byte

const (
	// ReturnCodeConnectionAccepted indicates that connection was accepted.
	ReturnCodeConnectionAccepted ReturnCode = 0x00

	// ReturnCodeUnacceptableProtocolVersion indicates that the broker does not support the level
	// of the MQTT protocol.
	ReturnCodeUnacceptableProtocolVersion ReturnCode = 0x01

	// ReturnCodeIdentifierRejected indicates that the client identifier is correct UTF-8 but not
	// allowed.
	ReturnCodeIdentifierRejected ReturnCode = 0x02

	// ReturnCodeServerUnavailable indicates that the MQTT service is unavailable.
	ReturnCodeServerUnavailable ReturnCode = 0x03

	// ReturnCodeBadUsernamePassword indicates that the data in the user name or password is
	// malformed.
	ReturnCodeBadUsernamePassword ReturnCode = 0x04

	// ReturnCodeNotAuthorized indicates that the client is not authorized to connect.
	ReturnCodeNotAuthorized ReturnCode = 0x05
)

var returnCodeToString = map[ReturnCode]string{
	ReturnCodeConnectionAccepted:          "connection accepted",
	ReturnCodeUnacceptableProtocolVersion: "unacceptable protocol version",
	ReturnCodeIdentifierRejected:          "identifier rejected",
	ReturnCodeServerUnavailable:           "server unavailable",
	ReturnCodeBadUsernamePassword:         "bad user name or password",
	ReturnCodeNotAuthorized:               "not authorized",
}

// String returns a human-friendly description of the return code.
func (c ReturnCode) String() string {
	s, ok := returnCodeToString[c]
	if !ok {
		return fmt.Sprintf("unknown return code %d", byte(c))
	}
	return s
}

// SubAckFailure is the granted QoS value the broker sends when a subscription fails (MQTT 3.1.1).
const SubAckFailure byte = 0x80
