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
	"sync"

	"github.com/gsalomao/maxmq-client/internal/mqtt/packet"
)

// SubscriptionFailed is the granted QoS reported to subscribe listeners when the broker refuses a
// subscription.
const SubscriptionFailed = packet.QoS(packet.SubAckFailure)

// ListenerID identifies a registered listener.
type ListenerID uint64

// Message is an application message received from the broker.
type Message struct {
	// Topic is the topic name the message was published to.
	Topic string

	// Payload is the message content.
	Payload []byte

	// PacketID is the packet identifier of the PUBLISH, zero for QoS 0.
	PacketID packet.ID

	// QoS is the QoS level the message was delivered with.
	QoS packet.QoS

	// Retain indicates whether the message was a retained message.
	Retain bool

	// Dup indicates whether the broker flagged the PUBLISH as a re-delivery.
	Dup bool
}

type eventKind int

const (
	eventKindConnect eventKind = iota
	eventKindConnectionLost
	eventKindDisconnect
	eventKindSubscribe
	eventKindUnsubscribe
	eventKindMessage
	eventKindPublishComplete
)

type listener struct {
	fn   any
	id   ListenerID
	kind eventKind
}

// notifier keeps the listeners of the session events. Listeners are called in registration order
// and can register or remove listeners while being called.
type notifier struct {
	mu        sync.RWMutex
	listeners []listener
	lastID    ListenerID
}

func (n *notifier) add(kind eventKind, fn any) ListenerID {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.lastID++
	n.listeners = append(n.listeners, listener{fn: fn, id: n.lastID, kind: kind})
	return n.lastID
}

func (n *notifier) remove(id ListenerID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, l := range n.listeners {
		if l.id == id {
			n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
			return true
		}
	}
	return false
}

func (n *notifier) snapshot(kind eventKind) []any {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var fns []any
	for _, l := range n.listeners {
		if l.kind == kind {
			fns = append(fns, l.fn)
		}
	}
	return fns
}

func (n *notifier) connect() {
	for _, fn := range n.snapshot(eventKindConnect) {
		fn.(func())()
	}
}

func (n *notifier) connectionLost(err error) {
	for _, fn := range n.snapshot(eventKindConnectionLost) {
		fn.(func(error))(err)
	}
}

func (n *notifier) disconnect() {
	for _, fn := range n.snapshot(eventKindDisconnect) {
		fn.(func())()
	}
}

func (n *notifier) subscribe(topic string, qos packet.QoS) {
	for _, fn := range n.snapshot(eventKindSubscribe) {
		fn.(func(string, packet.QoS))(topic, qos)
	}
}

func (n *notifier) unsubscribe(topic string, result packet.ID) {
	for _, fn := range n.snapshot(eventKindUnsubscribe) {
		fn.(func(string, packet.ID))(topic, result)
	}
}

func (n *notifier) message(msg Message) {
	for _, fn := range n.snapshot(eventKindMessage) {
		fn.(func(Message))(msg)
	}
}

func (n *notifier) publishComplete(id packet.ID) {
	for _, fn := range n.snapshot(eventKindPublishComplete) {
		fn.(func(packet.ID))(id)
	}
}
