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

// OptionFn is a function responsible to inject an option inside the Session.
type OptionFn func(*Session)

// WithHost is an option function to set the broker host. The default is localhost.
func WithHost(host string) OptionFn {
	return func(s *Session) {
		s.host = host
	}
}

// WithPort is an option function to set the broker port. The default is 1883.
func WithPort(port int) OptionFn {
	return func(s *Session) {
		s.port = port
	}
}

// WithDialer is an option function to inject the Dialer used to connect to the broker.
func WithDialer(d Dialer) OptionFn {
	return func(s *Session) {
		s.dialer = d
	}
}

// WithMetrics is an option function to inject the Metrics updated by the Session.
func WithMetrics(m *Metrics) OptionFn {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithClock is an option function to inject the Clock used by the keep alive.
func WithClock(c Clock) OptionFn {
	return func(s *Session) {
		s.clock = c
	}
}
