// crc_test.go

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
)

// Known-answer vectors taken from a captured takeoff packet.
func TestCalculateCRC8(t *testing.T) {
	assert.Equal(t, byte(0x7c), calculateCRC8([]byte{0xcc, 0x58, 0x00}))
}

func TestCalculateCRC16(t *testing.T) {
	frame := []byte{0xcc, 0x58, 0x00, 0x7c, 0x68, 0x54, 0x00, 0x00, 0x00}
	assert.Equal(t, uint16(0x89b2), calculateCRC16(frame))
}

func TestCRCEmptyInput(t *testing.T) {
	assert.Equal(t, byte(crc8Seed), calculateCRC8(nil))
	assert.Equal(t, uint16(crc16Seed), calculateCRC16(nil))
}
