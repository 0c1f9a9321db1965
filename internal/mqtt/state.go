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
	"context"

	"github.com/looplab/fsm"
)

// State represents the lifecycle state of the Session.
type State string

// Session states.
const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateLost         State = "lost"
)

// Lifecycle events.
const (
	eventConnect    = "connect"
	eventAccepted   = "accepted"
	eventRejected   = "rejected"
	eventDisconnect = "disconnect"
	eventLose       = "lose"
	eventClose      = "close"
)

// String returns the state name.
func (s State) String() string {
	return string(s)
}

// newLifecycle creates the state machine which drives the Session. The onTransition is called
// after every state change; it must not call any method of the returned FSM.
func newLifecycle(onTransition func(src, dst State, event string)) *fsm.FSM {
	return fsm.NewFSM(
		string(StateDisconnected),
		fsm.Events{
			{
				Name: eventConnect,
				Src:  []string{string(StateDisconnected), string(StateLost)},
				Dst:  string(StateConnecting),
			},
			{Name: eventAccepted, Src: []string{string(StateConnecting)}, Dst: string(StateConnected)},
			{Name: eventRejected, Src: []string{string(StateConnecting)}, Dst: string(StateDisconnected)},
			{Name: eventDisconnect, Src: []string{string(StateConnected)}, Dst: string(StateDisconnected)},
			{
				Name: eventLose,
				Src:  []string{string(StateConnecting), string(StateConnected)},
				Dst:  string(StateLost),
			},
			{Name: eventClose, Src: []string{string(StateConnecting)}, Dst: string(StateDisconnected)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				if onTransition != nil {
					onTransition(State(e.Src), State(e.Dst), e.Event)
				}
			},
		},
	)
}
