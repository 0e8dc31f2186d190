// videostream.go - a readable byte stream of encoded video for external decoders

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
	"bytes"
	"io"
	"sync"
)

// VideoStream is an io.ReadCloser fed with the reassembled H.264 access
// units as they arrive. The package does not interpret the bytes; hand
// the stream to an external decoder.
//
// The buffer is bounded: if a slow reader lets it grow past the high
// water mark, the oldest buffered bytes are dropped wholesale so the
// reader resumes near the live edge.
type VideoStream struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    bytes.Buffer
	closed bool
}

// videoStreamHighWater is the buffered-byte limit before old data is shed.
const videoStreamHighWater = 2 << 20

// NewVideoStream returns a VideoStream subscribed to this client's
// video-frame events. Call VideoConnect and StartVideo to make data flow.
// The stream survives transient link losses (frames resume after a
// reconnect) and closes when the client quits.
func (tello *Tello) NewVideoStream() *VideoStream {
	vs := &VideoStream{}
	vs.cond = sync.NewCond(&vs.mu)
	tello.Subscribe(VideoFrameEvent, func(ev Event) {
		frame, ok := ev.Data.([]byte)
		if !ok {
			return
		}
		vs.write(frame)
	})
	go func() {
		<-tello.quitChan
		vs.Close()
	}()
	return vs
}

func (vs *VideoStream) write(frame []byte) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if vs.closed {
		return
	}
	if vs.buf.Len() > videoStreamHighWater {
		vs.buf.Reset()
	}
	vs.buf.Write(frame)
	vs.cond.Signal()
}

// Read blocks until video data is available or the stream is closed,
// whereupon it returns io.EOF.
func (vs *VideoStream) Read(p []byte) (int, error) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	for vs.buf.Len() == 0 {
		if vs.closed {
			return 0, io.EOF
		}
		vs.cond.Wait()
	}
	return vs.buf.Read(p)
}

// Close releases any blocked readers. Buffered data remains readable
// until drained, after which Read returns io.EOF.
func (vs *VideoStream) Close() error {
	vs.mu.Lock()
	vs.closed = true
	vs.cond.Broadcast()
	vs.mu.Unlock()
	return nil
}
