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
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prototypefund/runde15-psylink/pkg/layers"
	"github.com/prototypefund/runde15-psylink/pkg/srv"
)

func TestReadFrames(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteFrame(buf, testPayload(1)))
	require.NoError(t, WriteFrame(buf, []byte{}))
	require.NoError(t, WriteFrame(buf, testPayload(2)))

	var got []srv.InPacket
	err := ReadFrames(context.Background(), buf, "psylink0", SerialAddr("/dev/ttyUSB0"), func(p srv.InPacket) {
		got = append(got, p)
	}, nil)
	assert.Equal(t, io.EOF, err)
	require.Len(t, got, 2)
	assert.Equal(t, testPayload(1), got[0].Data)
	assert.Equal(t, testPayload(2), got[1].Data)
	assert.Equal(t, len(testPayload(1)), got[0].CaptureInfo.Length)
	require.Len(t, got[0].AncillaryData, 2)
	assert.Equal(t, SerialAddr("/dev/ttyUSB0"), got[0].AncillaryData[0])
	assert.Equal(t, "psylink0", got[0].AncillaryData[1])
}

func TestReadFramesTruncated(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteFrame(buf, testPayload(1)))
	data := buf.Bytes()[:buf.Len()-1]

	err := ReadFrames(context.Background(), bytes.NewReader(data), "psylink0", SerialAddr("x"), func(srv.InPacket) {
		t.Fatal("no packet expected")
	}, nil)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestReadFramesSkipsOversizedFrame(t *testing.T) {
	buf := &bytes.Buffer{}
	buf.Write([]byte{0x02, 0x58})
	buf.Write(bytes.Repeat([]byte{0xaa}, 600))
	require.NoError(t, WriteFrame(buf, testPayload(9)))

	var got []srv.InPacket
	var dropped []error
	err := ReadFrames(context.Background(), buf, "psylink0", SerialAddr("x"), func(p srv.InPacket) {
		got = append(got, p)
	}, func(err error) {
		dropped = append(dropped, err)
	})
	assert.Equal(t, io.EOF, err)
	require.Len(t, got, 1)
	assert.Equal(t, testPayload(9), got[0].Data)
	require.Len(t, dropped, 1)
	var tooLong ErrFrameTooLong
	require.True(t, errors.As(dropped[0], &tooLong))
	assert.Equal(t, 600, tooLong.Length)
}

func TestReadFramesOversizedAtEOF(t *testing.T) {
	err := ReadFrames(context.Background(), bytes.NewReader([]byte{0xff, 0xff, 1, 2}), "psylink0", SerialAddr("x"), func(srv.InPacket) {
		t.Fatal("no packet expected")
	}, nil)
	assert.Equal(t, io.EOF, err)

	assert.Error(t, WriteFrame(io.Discard, make([]byte, layers.MaxPayloadLen+1)))
}

func TestReadFramesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ReadFrames(ctx, bytes.NewReader(nil), "psylink0", SerialAddr("x"), func(srv.InPacket) {}, nil)
	assert.Equal(t, context.Canceled, err)
}

func TestSerialAddr(t *testing.T) {
	addr := SerialAddr("/dev/ttyACM0")
	assert.Equal(t, "serial", addr.Network())
	assert.Equal(t, "/dev/ttyACM0", addr.String())
}
