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

package mqtt

import (
	"errors"
	"fmt"

	"github.com/gsalomao/maxmq-client/internal/mqtt/packet"
)

var (
	// ErrAlreadyConnected indicates that Connect was called while the session is connecting or
	// connected.
	ErrAlreadyConnected = errors.New("session already connected")

	// ErrConnectionLost indicates that the connection with the broker was lost without a known
	// cause.
	ErrConnectionLost = errors.New("connection lost")

	// ErrKeepAliveTimeout indicates that the broker did not respond to a PINGREQ within the keep
	// alive.
	ErrKeepAliveTimeout = errors.New("keep alive timeout")

	// ErrInvalidTopic indicates an invalid topic name or topic filter.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrInvalidQoS indicates an invalid QoS level.
	ErrInvalidQoS = errors.New("invalid QoS")
)

// ConnAckError is the error reported when the broker rejects the connection.
type ConnAckError struct {
	// ReturnCode is the return code sent by the broker in the CONNACK packet.
	ReturnCode packet.ReturnCode
}

// Error returns the error message.
func (e *ConnAckError) Error() string {
	return fmt.Sprintf("connection refused: %v (%d)", e.ReturnCode, byte(e.ReturnCode))
}
