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
	"math"

	"github.com/gsalomao/maxmq-client/internal/mqtt/packet"
)

// packetIDAllocator issues packet identifiers in the range [1, 65535]. It is not thread-safe.
type packetIDAllocator struct {
	last packet.ID
}

func (a *packetIDAllocator) next() packet.ID {
	if a.last == math.MaxUint16 {
		a.last = 1
	} else {
		a.last++
	}
	return a.last
}
