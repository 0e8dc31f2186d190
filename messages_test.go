// messages_test.go

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

func TestPacketToBuffer(t *testing.T) {
	// create a minimal packet
	var p packet

	p.header = msgHdr
	p.toDrone = true
	p.packetType = ptSet
	p.messageID = msgDoTakeoff
	p.sequence = 0

	b := packetToBuffer(p)

	correct := []byte{0xcc, 0x58, 0, 0x7c, 0x68, 0x54, 0, 0, 0, 0xb2, 0x89}
	assert.Equal(t, correct, b)
}

func TestPacketRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		pt        uint8
		messageID uint16
		sequence  uint16
		payload   []byte
	}{
		{"no payload", ptSet, msgDoTakeoff, 1, nil},
		{"one byte", ptSet, msgDoLand, 42, []byte{0}},
		{"several bytes", ptData2, msgSetStick, 0, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
		{"wrapped sequence", ptGet, msgQueryVersion, 0xffff, []byte{0xde, 0xad}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt := newPacket(tt.pt, tt.messageID, tt.sequence, 0)
			pkt.payload = tt.payload

			got, err := bufferToPacket(packetToBuffer(pkt))
			require.NoError(t, err)
			assert.Equal(t, tt.messageID, got.messageID)
			assert.Equal(t, tt.sequence, got.sequence)
			assert.Equal(t, tt.pt, got.packetType)
			assert.Equal(t, tt.payload, got.payload)
			assert.True(t, got.toDrone)
			assert.False(t, got.fromDrone)
		})
	}
}

func TestBufferToPacketRejectsCorruption(t *testing.T) {
	pkt := newPacket(ptSet, msgDoTakeoff, 7, 2)
	pkt.payload[0] = 0xaa
	pkt.payload[1] = 0xbb
	good := packetToBuffer(pkt)

	t.Run("short frame", func(t *testing.T) {
		_, err := bufferToPacket(good[:minPktSize-1])
		assert.ErrorIs(t, err, ErrShortPacket)
	})

	t.Run("bad header byte", func(t *testing.T) {
		b := append([]byte(nil), good...)
		b[0] = 0xcd
		_, err := bufferToPacket(b)
		assert.ErrorIs(t, err, ErrBadHeader)
	})

	t.Run("bad crc8", func(t *testing.T) {
		b := append([]byte(nil), good...)
		b[3] ^= 0xff
		_, err := bufferToPacket(b)
		assert.ErrorIs(t, err, ErrBadCRC8)
	})

	t.Run("bad crc16", func(t *testing.T) {
		b := append([]byte(nil), good...)
		b[9] ^= 0x01 // flip a payload bit
		_, err := bufferToPacket(b)
		assert.ErrorIs(t, err, ErrBadCRC16)
	})

	t.Run("size field beyond buffer", func(t *testing.T) {
		b := make([]byte, 20)
		b[0] = msgHdr
		claimed := 100 // more than the buffer holds
		b[1] = byte(claimed << 3)
		b[2] = byte(claimed >> 5)
		b[3] = calculateCRC8(b[0:3])
		_, err := bufferToPacket(b)
		assert.ErrorIs(t, err, ErrBadSize)
	})
}

func TestPayloadToFlightData(t *testing.T) {
	pl := make([]byte, flightStatusPayloadSize)
	pl[0] = 0x0c // height 12dm
	pl[12] = 87  // battery pct
	pl[17] = 1   // flying
	pl[18] = 6   // fly mode

	fd := payloadToFlightData(pl)
	assert.Equal(t, int16(12), fd.Height)
	assert.Equal(t, int8(87), fd.BatteryPercentage)
	assert.True(t, fd.Flying)
	assert.False(t, fd.OnGround)
	assert.Equal(t, uint8(6), fd.FlyMode)
}

func TestPayloadToFileChunk(t *testing.T) {
	pl := []byte{
		0x01, 0x00, // file ID 1
		0x02, 0x00, 0x00, 0x00, // piece 2
		0x11, 0x00, 0x00, 0x00, // chunk 17
		0x03, 0x00, // chunk length 3
		0xca, 0xfe, 0xba,
	}
	fc := payloadToFileChunk(pl)
	assert.Equal(t, uint16(1), fc.fID)
	assert.Equal(t, uint32(2), fc.pieceNum)
	assert.Equal(t, uint32(17), fc.chunkNum)
	assert.Equal(t, uint16(3), fc.chunkLen)
	assert.Equal(t, []byte{0xca, 0xfe, 0xba}, fc.chunkData)
}

func TestBytesToFloat32(t *testing.T) {
	var b = []byte{
		0, 0, 0, 0,
		128, 63, 0, 0, 112, 65,
	}
	assert.Equal(t, float32(0), bytesToFloat32(b[0:4]))
	assert.Equal(t, float32(1), bytesToFloat32(b[2:6]))
	assert.Equal(t, float32(15), bytesToFloat32(b[6:]))
}
