// video.go

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
	"net"
	"strconv"
	"time"
)

const videoReqPeriod = time.Second // SPS/PPS re-request interval while video is live

// Each video datagram carries a two-byte fragment header: the frame
// sequence number, then the fragment sub-sequence with the high bit set
// on the final fragment of a frame.
const (
	vfFrameSeq     = 0
	vfSubSeq       = 1
	vfLastFragment = 0x80
	vfHeaderSize   = 2
)

// VideoFramePolicy decides the fate of a partially reassembled frame when
// a new frame's first fragment arrives before the previous frame's
// terminal fragment was seen.
type VideoFramePolicy int

const (
	// DiscardPartialFrames drops the incomplete frame. A truncated H.264
	// access unit usually cannot be decoded, so this is the default.
	DiscardPartialFrames VideoFramePolicy = iota
	// FlushPartialFrames delivers whatever was accumulated, for consumers
	// that can resynchronise mid-stream.
	FlushPartialFrames
)

// frameAssembly accumulates fragments of the frame currently in flight.
type frameAssembly struct {
	frameSeq   byte
	nextSubSeq byte
	buf        []byte
	active     bool
	corrupt    bool // a fragment was lost mid-frame, ignore the rest
}

// VideoConnect attempts to connect to a Tello video channel at the provided port and starts a listener.
// Completed frames are published as VideoFrameEvents.
func (tello *Tello) VideoConnect(droneUDPPort int) (err error) {
	droneAddr, err := net.ResolveUDPAddr("udp", ":"+strconv.Itoa(droneUDPPort))
	if err != nil {
		return err
	}
	tello.videoMu.Lock()
	tello.videoConn, err = net.ListenUDP("udp", droneAddr)
	tello.videoMu.Unlock()
	if err != nil {
		return err
	}
	go tello.videoResponseListener()
	return nil
}

// VideoConnectDefault attempts to connect to a Tello video channel using the default port, then starts a listener.
func (tello *Tello) VideoConnectDefault() (err error) {
	return tello.VideoConnect(defaultTelloVideoPort)
}

// VideoDisconnect closes the connection to the video channel.
func (tello *Tello) VideoDisconnect() {
	tello.videoMu.Lock()
	tello.videoOn = false
	conn := tello.videoConn
	tello.videoConn = nil
	tello.videoMu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// videoResponseListener is the receive loop for the video channel.
func (tello *Tello) videoResponseListener() {
	tello.videoMu.Lock()
	conn := tello.videoConn
	tello.videoMu.Unlock()
	if conn == nil {
		return
	}

	vbuf := make([]byte, 2048)
	for {
		select {
		case <-tello.quitChan:
			tello.logger.Debug("video listener stopped")
			return
		default:
		}
		conn.SetReadDeadline(time.Now().Add(readDeadlinePeriod))
		n, _, err := conn.ReadFromUDP(vbuf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-tello.quitChan:
				return
			default:
			}
			tello.logger.Warn("error reading from video channel", "error", err)
			continue
		}
		tello.handleVideoFragment(vbuf[:n])
	}
}

// handleVideoFragment feeds one video datagram to the reassembler.
// Fragments accumulate in arrival order; a frame completes on its
// terminal fragment, and an overrun by the next frame applies the
// configured partial-frame policy.
func (tello *Tello) handleVideoFragment(datagram []byte) {
	if len(datagram) <= vfHeaderSize {
		return
	}
	frameSeq := datagram[vfFrameSeq]
	subSeq := datagram[vfSubSeq] & ^byte(vfLastFragment)
	last := datagram[vfSubSeq]&vfLastFragment != 0
	payload := datagram[vfHeaderSize:]

	tello.videoMu.Lock()
	va := &tello.vFrame

	if va.active && va.frameSeq != frameSeq {
		// a new frame has begun over an unfinished one
		flush := tello.framePolicy == FlushPartialFrames && !va.corrupt && len(va.buf) > 0
		var partial []byte
		if flush {
			// copy, the buffer is reused for the next frame
			partial = make([]byte, len(va.buf))
			copy(partial, va.buf)
		}
		va.reset()
		if flush {
			tello.videoMu.Unlock()
			tello.events.publish(tello.logger, VideoFrameEvent, partial)
			tello.videoMu.Lock()
		}
	}

	if !va.active {
		if subSeq != 0 {
			// tail of a frame whose start we never saw
			tello.videoMu.Unlock()
			return
		}
		va.active = true
		va.frameSeq = frameSeq
		va.nextSubSeq = 0
		va.corrupt = false
		va.buf = va.buf[:0]
	}

	if va.corrupt {
		if last {
			va.reset()
		}
		tello.videoMu.Unlock()
		return
	}

	if subSeq != va.nextSubSeq {
		// dropped or reordered fragment - frame is unusable
		tello.logger.Debug("video fragment out of sequence",
			"frame", frameSeq, "got", subSeq, "want", va.nextSubSeq)
		va.corrupt = true
		if last {
			va.reset()
		}
		tello.videoMu.Unlock()
		return
	}

	va.buf = append(va.buf, payload...)
	va.nextSubSeq++

	if !last {
		tello.videoMu.Unlock()
		return
	}

	frame := make([]byte, len(va.buf))
	copy(frame, va.buf)
	va.reset()
	tello.videoMu.Unlock()

	tello.events.publish(tello.logger, VideoFrameEvent, frame)
}

func (va *frameAssembly) reset() {
	va.active = false
	va.corrupt = false
	va.nextSubSeq = 0
	va.buf = va.buf[:0]
}

// StartVideo asks the Tello to start sending video, requesting the
// stream's SPS/PPS parameter sets (the client cannot generate those
// itself). The request is repeated every second while video is live, as
// the drone stops sending after prolonged silence.
func (tello *Tello) StartVideo() error {
	err := tello.sendCommand(ptData2, msgQueryVideoSPSPPS, nil, false)
	if err != nil {
		return err
	}
	tello.videoMu.Lock()
	tello.videoOn = true
	tello.lastVideoReq = time.Now()
	tello.videoMu.Unlock()
	return nil
}

// StopVideo stops the periodic re-requests; the drone then lets the
// stream lapse on its own.
func (tello *Tello) StopVideo() {
	tello.videoMu.Lock()
	tello.videoOn = false
	tello.videoMu.Unlock()
}

// videoKeepAlive re-requests the video stream when due. Called from the
// timer loop.
func (tello *Tello) videoKeepAlive() {
	tello.videoMu.Lock()
	due := tello.videoOn && time.Since(tello.lastVideoReq) >= videoReqPeriod
	if due {
		tello.lastVideoReq = time.Now()
	}
	tello.videoMu.Unlock()
	if due {
		tello.sendCommand(ptData2, msgQueryVideoSPSPPS, nil, false)
	}
}

// GetVideoBitrate requests the current video Mbps from the Tello.
// The response updates the VideoBitrate field of FlightData.
func (tello *Tello) GetVideoBitrate() error {
	return tello.sendCommand(ptGet, msgQueryVideoBitrate, nil, false)
}

// SetVideoBitrate asks the Tello to use the specified bitrate (or auto) for video encoding.
func (tello *Tello) SetVideoBitrate(vbr VBR) error {
	return tello.sendCommand(ptSet, msgSetVideoBitrate, []byte{byte(vbr)}, false)
}

// SetVideoNormal requests video format to be (native) ~4:3 ratio.
func (tello *Tello) SetVideoNormal() error {
	return tello.sendCommand(ptSet, msgSwitchPicVideo, []byte{vmNormal}, false)
}

// SetVideoWide requests video format to be (cropped) 16:9 ratio.
func (tello *Tello) SetVideoWide() error {
	return tello.sendCommand(ptSet, msgSwitchPicVideo, []byte{vmWide}, false)
}
