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
	"time"

	"github.com/gsalomao/maxmq-client/internal/mqtt/packet"
)

type requestKind int

const (
	requestSubscribe requestKind = iota
	requestUnsubscribe
)

func (k requestKind) String() string {
	if k == requestSubscribe {
		return "subscribe"
	}
	return "unsubscribe"
}

type pendingRequest struct {
	sentAt time.Time
	topic  string
	kind   requestKind
	qos    packet.QoS
}

// subscriptionTracker correlates the SUBSCRIBE and UNSUBSCRIBE packets with their
// acknowledgments. It is not thread-safe.
type subscriptionTracker struct {
	pending map[packet.ID]pendingRequest
}

func newSubscriptionTracker() *subscriptionTracker {
	return &subscriptionTracker{pending: make(map[packet.ID]pendingRequest)}
}

func (t *subscriptionTracker) add(id packet.ID, req pendingRequest) {
	t.pending[id] = req
}

// ack removes and returns the pending request of the given kind with the packet identifier. It
// returns false when there is no such request.
func (t *subscriptionTracker) ack(id packet.ID, kind requestKind) (pendingRequest, bool) {
	req, ok := t.pending[id]
	if !ok || req.kind != kind {
		return pendingRequest{}, false
	}

	delete(t.pending, id)
	return req, true
}

func (t *subscriptionTracker) remove(id packet.ID) {
	delete(t.pending, id)
}

func (t *subscriptionTracker) len() int {
	return len(t.pending)
}

func (t *subscriptionTracker) reset() {
	clear(t.pending)
}
