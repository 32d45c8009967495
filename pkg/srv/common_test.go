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

package srv

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prototypefund/runde15-psylink/pkg/layers"
)

func TestPacketSourceOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ps := NewPacketSource(ctx, 3)

	for i := 0; i < 3; i++ {
		require.True(t, ps.Offer(InPacket{Data: []byte{byte(i)}}))
	}
	assert.False(t, ps.Offer(InPacket{Data: []byte{3}}), "queue is full")

	for i := 0; i < 3; i++ {
		data, _, err := ps.ReadPacketData()
		require.NoError(t, err)
		assert.Equal(t, []byte{byte(i)}, data)
	}
}

func TestPacketSourceStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ps := NewPacketSource(ctx, 1)
	cancel()
	_, _, err := ps.ReadPacketData()
	assert.Equal(t, io.EOF, err)
}

func TestAncillaryData(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ps := NewPacketSource(ctx, 1)

	addr := &net.UDPAddr{IP: net.ParseIP("10.0.0.5"), Port: 4000}
	data := []byte{1, 0x11, 0, 0, 0, 0, 0, 0}
	require.True(t, ps.Offer(InPacket{
		Data: data,
		CaptureInfo: gopacket.CaptureInfo{
			Timestamp:     time.Now(),
			Length:        len(data),
			CaptureLength: len(data),
			AncillaryData: []interface{}{addr, "psylink0"},
		},
	}))

	source := gopacket.NewPacketSource(ps, layers.PsyLinkLayerType)
	packet := <-source.Packets()
	require.NotNil(t, packet)

	got, err := GetAddr(packet)
	require.NoError(t, err)
	assert.Equal(t, addr.String(), got.String())

	name, err := GetDeviceName(packet)
	require.NoError(t, err)
	assert.Equal(t, "psylink0", name)
	assert.NotNil(t, packet.Layer(layers.PsyLinkLayerType))
}

func TestMissingAncillaryData(t *testing.T) {
	packet := gopacket.NewPacket([]byte{1, 2, 3, 4, 5, 6, 7, 8}, layers.PsyLinkLayerType, gopacket.Default)
	_, err := GetAddr(packet)
	assert.True(t, errors.As(err, &ErrGetAddr{}))
	_, err = GetDeviceName(packet)
	var nameErr ErrGetDeviceName
	assert.True(t, errors.As(err, &nameErr))
}
