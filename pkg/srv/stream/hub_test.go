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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prototypefund/runde15-psylink/pkg/decoder"
)

func TestHubPublish(t *testing.T) {
	h := NewHub()
	fast, cancelFast := h.Subscribe(2)
	defer cancelFast()
	slow, cancelSlow := h.Subscribe(0)
	assert.Equal(t, 2, h.Len())

	p := &decoder.Packet{Tick: 3}
	assert.Equal(t, 1, h.Publish(p), "unbuffered subscriber misses the packet")
	assert.Same(t, p, <-fast)

	cancelSlow()
	cancelSlow()
	assert.Equal(t, 1, h.Len())
	_, open := <-slow
	assert.False(t, open)
}

func TestHubWithoutSubscribers(t *testing.T) {
	assert.Equal(t, 0, NewHub().Publish(&decoder.Packet{}))
}
