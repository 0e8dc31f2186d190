// crc.go

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

// The Tello frame check sequences: a CRC8 over the first three header bytes
// and a CRC16 over the whole frame up to (but excluding) itself.
// Both are reflected-polynomial CRCs with non-standard seeds, so we build
// the lookup tables at startup rather than embedding 512 magic numbers.

const (
	crc8Poly  = 0x8c // Dallas/Maxim, reflected
	crc8Seed  = 0x77
	crc16Poly = 0x8408 // CCITT (Kermit), reflected
	crc16Seed = 0x3692
)

var (
	crc8Table  [256]byte
	crc16Table [256]uint16
)

func init() {
	for i := 0; i < 256; i++ {
		c8 := byte(i)
		c16 := uint16(i)
		for b := 0; b < 8; b++ {
			if c8&1 != 0 {
				c8 = (c8 >> 1) ^ crc8Poly
			} else {
				c8 >>= 1
			}
			if c16&1 != 0 {
				c16 = (c16 >> 1) ^ crc16Poly
			} else {
				c16 >>= 1
			}
		}
		crc8Table[i] = c8
		crc16Table[i] = c16
	}
}

func calculateCRC8(buf []byte) (crc byte) {
	crc = crc8Seed
	for _, b := range buf {
		crc = crc8Table[crc^b]
	}
	return crc
}

func calculateCRC16(buf []byte) (crc uint16) {
	crc = crc16Seed
	for _, b := range buf {
		crc = crc16Table[byte(crc)^b] ^ (crc >> 8)
	}
	return crc
}
