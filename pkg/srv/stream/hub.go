/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package stream

import (
	"sync"

	"github.com/prototypefund/runde15-psylink/pkg/decoder"
)

// Hub fans decoded packets out to subscribers such as displays.
// A subscriber that does not keep up misses packets, it never blocks the stream.
// Packets are shared between subscribers and must not be modified.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan *decoder.Packet]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan *decoder.Packet]struct{}),
	}
}

// Subscribe returns a channel of decoded packets and a function to unsubscribe
func (h *Hub) Subscribe(size int) (<-chan *decoder.Packet, func()) {
	ch := make(chan *decoder.Packet, size)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish returns the number of subscribers that missed the packet
func (h *Hub) Publish(p *decoder.Packet) int {
	missed := 0
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subscribers {
		select {
		case ch <- p:
		default:
			missed++
		}
	}
	return missed
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
