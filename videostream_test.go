// videostream_test.go

// Copyright (C) 2018  Steve Merrony

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package tello

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoStreamDeliversFrames(t *testing.T) {
	drone := New()
	vs := drone.NewVideoStream()

	drone.events.publish(drone.logger, VideoFrameEvent, []byte{1, 2, 3})
	drone.events.publish(drone.logger, VideoFrameEvent, []byte{4, 5})

	buf := make([]byte, 16)
	n, err := vs.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, buf[:n])
}

func TestVideoStreamBlocksUntilData(t *testing.T) {
	drone := New()
	vs := drone.NewVideoStream()

	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 16)
		n, err := vs.Read(buf)
		if err == nil {
			got <- buf[:n]
		}
	}()

	time.Sleep(50 * time.Millisecond) // let the reader block
	drone.events.publish(drone.logger, VideoFrameEvent, []byte{9})

	select {
	case b := <-got:
		assert.Equal(t, []byte{9}, b)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked reader never woke")
	}
}

func TestVideoStreamCloseDrainsThenEOF(t *testing.T) {
	drone := New()
	vs := drone.NewVideoStream()

	drone.events.publish(drone.logger, VideoFrameEvent, []byte{1, 2})
	require.NoError(t, vs.Close())

	buf := make([]byte, 16)
	n, err := vs.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, buf[:n])

	_, err = vs.Read(buf)
	assert.ErrorIs(t, err, io.EOF)

	// writes after close are dropped
	drone.events.publish(drone.logger, VideoFrameEvent, []byte{3})
	_, err = vs.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

// A transient link loss must not kill the stream; frames flow again
// after reconnecting.
func TestVideoStreamSurvivesDisconnect(t *testing.T) {
	drone := New()
	vs := drone.NewVideoStream()

	drone.events.publish(drone.logger, DisconnectedEvent, nil)
	drone.events.publish(drone.logger, VideoFrameEvent, []byte{5, 6})

	buf := make([]byte, 4)
	n, err := vs.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6}, buf[:n])
}

func TestVideoStreamClosesOnQuit(t *testing.T) {
	drone := New()
	vs := drone.NewVideoStream()

	drone.Quit()

	_, err := vs.Read(make([]byte, 4))
	assert.ErrorIs(t, err, io.EOF)
}
