// flog.go - handle the flight logs from the drone

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

import "math"

// ackLogHeader confirms receipt of a log header so the drone starts
// streaming log records.
func (tello *Tello) ackLogHeader(id []byte) {
	tello.ctrlMu.Lock()
	defer tello.ctrlMu.Unlock()
	tello.ctrlSeq++
	pkt := newPacket(ptData1, msgLogHeader, tello.ctrlSeq, 3)
	pkt.payload[1] = id[0]
	pkt.payload[2] = id[1]
	tello.writeLocked(packetToBuffer(pkt))
}

// parseLogPacket walks the log records in a msgLogData payload and folds
// the ones we understand into the flight data. Each record is XOR-scrambled
// with a per-record key byte.
func (tello *Tello) parseLogPacket(data []byte) {
	pos := 1
	if len(data) < 2 {
		return
	}
	for pos < len(data)-6 {
		if data[pos] != logRecordSeparator {
			break // bad separator, rest of the payload is unusable
		}
		recLen := int(uint8(data[pos+1]))
		if data[pos+2] != 0 || recLen == 0 || pos+recLen > len(data) {
			break
		}
		logRecType := uint16(data[pos+3]) + uint16(data[pos+4])<<8
		xorBuf := make([]byte, 256)
		xorVal := data[pos+6]
		switch logRecType {
		case logRecNewMVO:
			if pos+28 > len(data) {
				break
			}
			for i := 0; i < 28; i++ {
				xorBuf[i] = data[pos+i] ^ xorVal
			}
			validFlags := xorBuf[7]
			offset := 10
			tello.fdMu.Lock()
			if validFlags&logValidVelX != 0 {
				tello.fd.MVO.VelocityX = int16(xorBuf[offset]) | int16(xorBuf[offset+1])<<8
			}
			if validFlags&logValidVelY != 0 {
				tello.fd.MVO.VelocityY = int16(xorBuf[offset+2]) | int16(xorBuf[offset+3])<<8
			}
			if validFlags&logValidVelZ != 0 {
				tello.fd.MVO.VelocityZ = int16(xorBuf[offset+4]) | int16(xorBuf[offset+5])<<8
			}
			offset += 6
			if validFlags&logValidPosX != 0 {
				tello.fd.MVO.PositionX = bytesToFloat32(xorBuf[offset : offset+4])
			}
			if validFlags&logValidPosY != 0 {
				tello.fd.MVO.PositionY = bytesToFloat32(xorBuf[offset+4 : offset+8])
			}
			if validFlags&logValidPosZ != 0 {
				tello.fd.MVO.PositionZ = bytesToFloat32(xorBuf[offset+8 : offset+12])
			}
			tello.fdMu.Unlock()
		case logRecIMU:
			if pos+36 > len(data) {
				break
			}
			for i := 0; i < 36; i++ {
				xorBuf[i] = data[pos+i] ^ xorVal
			}
			offset := 16
			tello.fdMu.Lock()
			tello.fd.IMU.QuaternionW = bytesToFloat32(xorBuf[offset : offset+4])
			tello.fd.IMU.QuaternionX = bytesToFloat32(xorBuf[offset+4 : offset+8])
			tello.fd.IMU.QuaternionY = bytesToFloat32(xorBuf[offset+8 : offset+12])
			tello.fd.IMU.QuaternionZ = bytesToFloat32(xorBuf[offset+12 : offset+16])
			tello.fd.IMU.Temperature = int16(xorBuf[offset+16]) | int16(xorBuf[offset+17])<<8
			tello.fd.IMU.Yaw = quatToYawDeg(
				tello.fd.IMU.QuaternionX, tello.fd.IMU.QuaternionY,
				tello.fd.IMU.QuaternionZ, tello.fd.IMU.QuaternionW)
			tello.fdMu.Unlock()
		}
		pos += recLen
	}
}

// QuatToEulerDeg converts a quaternion to pitch, roll & yaw in degrees
// (whole degrees, aerospace convention: yaw about Z, pitch about Y,
// roll about X). At pitch +-90 the roll and yaw axes coincide and the
// general formulas degenerate, so that rotation is folded into yaw and
// roll reported as zero.
func QuatToEulerDeg(qX, qY, qZ, qW float32) (pitch, roll, yaw int) {
	const degree = math.Pi / 180.0
	const lockTol = 1.0 - 1e-6
	qqX, qqY, qqZ, qqW := float64(qX), float64(qY), float64(qZ), float64(qW)

	sinP := 2.0 * (qqW*qqY - qqZ*qqX)
	switch {
	case sinP >= lockTol:
		pitch = 90
		roll = 0
		yaw = int(math.Round(-2.0 * math.Atan2(qqX, qqW) / degree))
	case sinP <= -lockTol:
		pitch = -90
		roll = 0
		yaw = int(math.Round(2.0 * math.Atan2(qqX, qqW) / degree))
	default:
		pitch = int(math.Round(math.Asin(sinP) / degree))

		sinR := 2.0 * (qqW*qqX + qqY*qqZ)
		cosR := 1.0 - 2.0*(qqX*qqX+qqY*qqY)
		roll = int(math.Round(math.Atan2(sinR, cosR) / degree))

		sinY := 2.0 * (qqW*qqZ + qqX*qqY)
		cosY := 1.0 - 2.0*(qqY*qqY+qqZ*qqZ)
		yaw = int(math.Round(math.Atan2(sinY, cosY) / degree))
	}

	return pitch, roll, yaw
}

func quatToYawDeg(qX, qY, qZ, qW float32) int16 {
	_, _, yaw := QuatToEulerDeg(qX, qY, qZ, qW)
	return int16(yaw)
}
