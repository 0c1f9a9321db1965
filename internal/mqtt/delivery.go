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

var errInvalidAck = errors.New("invalid acknowledgment")

// ack is an acknowledgment of a delivery step, sent by the Session through the Transport.
type ack struct {
	kind packet.Type
	id   packet.ID
}

func (a ack) send(t Transport) error {
	switch a.kind {
	case packet.PUBACK:
		return t.PubAck(a.id)
	case packet.PUBREC:
		return t.PubRec(a.id)
	case packet.PUBREL:
		return t.PubRel(a.id)
	case packet.PUBCOMP:
		return t.PubComp(a.id)
	default:
		return fmt.Errorf("%w: %v", errInvalidAck, a.kind)
	}
}

// deliveryEngine keeps the inbound QoS 2 messages between the PUBLISH and the PUBREL, and decides
// the acknowledgments of each delivery step. It is not thread-safe.
type deliveryEngine struct {
	inFlight map[packet.ID]*Message
}

func newDeliveryEngine() *deliveryEngine {
	return &deliveryEngine{inFlight: make(map[packet.ID]*Message)}
}

// inbound handles a received PUBLISH. It returns the message to be delivered to the application,
// if any, and the acknowledgment to be sent after the delivery, if any.
func (d *deliveryEngine) inbound(p *packet.Publish) (*Message, *ack) {
	msg := &Message{
		Topic:    p.TopicName,
		Payload:  p.Payload,
		PacketID: p.PacketID,
		QoS:      p.QoS,
		Retain:   p.Retain,
		Dup:      p.Dup,
	}

	switch p.QoS {
	case packet.QoS0:
		return msg, nil
	case packet.QoS1:
		return msg, &ack{kind: packet.PUBACK, id: p.PacketID}
	default:
		if _, ok := d.inFlight[p.PacketID]; !ok {
			d.inFlight[p.PacketID] = msg
		}
		return nil, &ack{kind: packet.PUBREC, id: p.PacketID}
	}
}

// release handles a received PUBREL. It returns the stored message and the PUBCOMP to be sent
// after its delivery, or false when no message is stored with the packet identifier.
func (d *deliveryEngine) release(id packet.ID) (*Message, *ack, bool) {
	msg, ok := d.inFlight[id]
	if !ok {
		return nil, nil, false
	}

	delete(d.inFlight, id)
	return msg, &ack{kind: packet.PUBCOMP, id: id}, true
}

// received handles a PUBREC of an outbound QoS 2 message, returning the PUBREL to be sent.
func (d *deliveryEngine) received(id packet.ID) *ack {
	return &ack{kind: packet.PUBREL, id: id}
}

func (d *deliveryEngine) len() int {
	return len(d.inFlight)
}

func (d *deliveryEngine) reset() {
	clear(d.inFlight)
}
