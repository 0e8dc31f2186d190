// video_test.go

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fragment builds a video datagram: frame sequence, sub-sequence (high
// bit marks the final fragment of a frame), then payload bytes.
func fragment(frameSeq, subSeq byte, last bool, payload ...byte) []byte {
	if last {
		subSeq |= vfLastFragment
	}
	return append([]byte{frameSeq, subSeq}, payload...)
}

func collectFrames(drone *Tello) *[][]byte {
	frames := &[][]byte{}
	drone.Subscribe(VideoFrameEvent, func(ev Event) {
		frame, ok := ev.Data.([]byte)
		if ok {
			*frames = append(*frames, frame)
		}
	})
	return frames
}

func TestVideoFrameReassembly(t *testing.T) {
	drone := New()
	frames := collectFrames(drone)

	drone.handleVideoFragment(fragment(5, 0, false, 1, 2, 3))
	drone.handleVideoFragment(fragment(5, 1, false, 4, 5))
	assert.Empty(t, *frames)
	drone.handleVideoFragment(fragment(5, 2, true, 6))

	require.Len(t, *frames, 1)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, (*frames)[0])
}

func TestVideoSingleFragmentFrame(t *testing.T) {
	drone := New()
	frames := collectFrames(drone)

	drone.handleVideoFragment(fragment(9, 0, true, 0xaa, 0xbb))

	require.Len(t, *frames, 1)
	assert.Equal(t, []byte{0xaa, 0xbb}, (*frames)[0])
}

func TestVideoPartialFrameDiscarded(t *testing.T) {
	drone := New() // default policy discards partial frames
	frames := collectFrames(drone)

	// frame 6 never sees its terminal fragment
	drone.handleVideoFragment(fragment(6, 0, false, 1, 2))
	drone.handleVideoFragment(fragment(6, 1, false, 3, 4))
	// frame 7 starts and completes
	drone.handleVideoFragment(fragment(7, 0, true, 9, 9))

	require.Len(t, *frames, 1)
	assert.Equal(t, []byte{9, 9}, (*frames)[0])
}

func TestVideoPartialFrameFlushed(t *testing.T) {
	drone := New(WithVideoFramePolicy(FlushPartialFrames))
	frames := collectFrames(drone)

	drone.handleVideoFragment(fragment(6, 0, false, 1, 2))
	drone.handleVideoFragment(fragment(6, 1, false, 3, 4))
	drone.handleVideoFragment(fragment(7, 0, true, 9, 9))

	require.Len(t, *frames, 2)
	assert.Equal(t, []byte{1, 2, 3, 4}, (*frames)[0])
	assert.Equal(t, []byte{9, 9}, (*frames)[1])
}

func TestVideoOutOfSequenceFragment(t *testing.T) {
	drone := New()
	frames := collectFrames(drone)

	drone.handleVideoFragment(fragment(8, 0, false, 1))
	drone.handleVideoFragment(fragment(8, 2, true, 3)) // sub 1 was lost
	assert.Empty(t, *frames)

	// the reassembler must recover on the next frame
	drone.handleVideoFragment(fragment(9, 0, true, 7))
	require.Len(t, *frames, 1)
	assert.Equal(t, []byte{7}, (*frames)[0])
}

func TestVideoTailWithoutStartIgnored(t *testing.T) {
	drone := New()
	frames := collectFrames(drone)

	// mid-frame fragments for a frame whose start we never saw
	drone.handleVideoFragment(fragment(3, 1, false, 1))
	drone.handleVideoFragment(fragment(3, 2, true, 2))
	assert.Empty(t, *frames)
}

func TestVideoRuntDatagramIgnored(t *testing.T) {
	drone := New()
	frames := collectFrames(drone)

	drone.handleVideoFragment([]byte{1})
	drone.handleVideoFragment([]byte{1, 0x80})
	assert.Empty(t, *frames)
}
