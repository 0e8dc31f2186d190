// commands.go

// This file contains the high-level Tello command API.

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

import "log/slog"

// Input range policy: every command that takes a magnitude CLAMPS it to the
// documented range rather than rejecting it. Percentages clamp to 0..100,
// analog axes to -1.0..1.0. This is uniform across the whole surface.

func clampPct(pct int) int16 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return int16(pct)
}

func clampAxis(val float32) float32 {
	if val < -1.0 {
		return -1.0
	}
	if val > 1.0 {
		return 1.0
	}
	return val
}

// TakeOff sends a normal takeoff request to the Tello.
// The command is acknowledgment-tracked and will be retransmitted if the
// drone does not respond.
func (tello *Tello) TakeOff() error {
	return tello.sendCommand(ptSet, msgDoTakeoff, nil, true)
}

// ThrowTakeOff initiates a 'throw and go' launch.
func (tello *Tello) ThrowTakeOff() error {
	return tello.sendCommand(ptGet, msgDoThrowTakeoff, nil, true)
}

// Land sends a normal Land request to the Tello.
func (tello *Tello) Land() error {
	return tello.sendCommand(ptSet, msgDoLand, []byte{0}, true)
}

// StopLanding cancels a landing in progress.
func (tello *Tello) StopLanding() error {
	return tello.sendCommand(ptSet, msgDoLand, []byte{1}, true)
}

// PalmLand initiates a Palm Landing: the drone waits for a hand beneath
// it and settles onto it.
func (tello *Tello) PalmLand() error {
	return tello.sendCommand(ptSet, msgDoPalmLand, []byte{0}, true)
}

// Bounce toggles the bouncing mode of the Tello.
func (tello *Tello) Bounce() error {
	tello.ctrlMu.Lock()
	var payload byte
	if tello.ctrlBouncing {
		payload = 0x31
		tello.ctrlBouncing = false
	} else {
		payload = 0x30
		tello.ctrlBouncing = true
	}
	tello.ctrlMu.Unlock()
	return tello.sendCommand(ptSet, msgDoBounce, []byte{payload}, true)
}

// Flip performs the requested flip manoeuvre.
func (tello *Tello) Flip(dir FlipType) error {
	return tello.sendCommand(ptFlip, msgDoFlip, []byte{byte(dir)}, true)
}

// The eight named flips...

// ForwardFlip flips the drone forwards.
func (tello *Tello) ForwardFlip() error { return tello.Flip(FlipForward) }

// BackFlip flips the drone backwards.
func (tello *Tello) BackFlip() error { return tello.Flip(FlipBackward) }

// LeftFlip flips the drone to the left.
func (tello *Tello) LeftFlip() error { return tello.Flip(FlipLeft) }

// RightFlip flips the drone to the right.
func (tello *Tello) RightFlip() error { return tello.Flip(FlipRight) }

// ForwardLeftFlip flips the drone forwards and to the left.
func (tello *Tello) ForwardLeftFlip() error { return tello.Flip(FlipForwardLeft) }

// ForwardRightFlip flips the drone forwards and to the right.
func (tello *Tello) ForwardRightFlip() error { return tello.Flip(FlipForwardRight) }

// BackLeftFlip flips the drone backwards and to the left.
func (tello *Tello) BackLeftFlip() error { return tello.Flip(FlipBackwardLeft) }

// BackRightFlip flips the drone backwards and to the right.
func (tello *Tello) BackRightFlip() error { return tello.Flip(FlipBackwardRight) }

// *** Analog axis setters. Values are clamped to -1.0..1.0 and take
// *** effect on the next stick update tick.

// SetPitch sets the forward/backward axis. Positive pitches forward.
func (tello *Tello) SetPitch(val float32) {
	tello.ctrlMu.Lock()
	tello.ctrlRy = int16(clampAxis(val) * 32767)
	tello.ctrlMu.Unlock()
}

// SetRoll sets the left/right axis. Positive rolls right.
func (tello *Tello) SetRoll(val float32) {
	tello.ctrlMu.Lock()
	tello.ctrlRx = int16(clampAxis(val) * 32767)
	tello.ctrlMu.Unlock()
}

// SetYaw sets the rotational axis. Positive turns clockwise.
func (tello *Tello) SetYaw(val float32) {
	tello.ctrlMu.Lock()
	tello.ctrlLx = int16(clampAxis(val) * 32767)
	tello.ctrlMu.Unlock()
}

// SetThrottle sets the vertical axis. Positive climbs.
func (tello *Tello) SetThrottle(val float32) {
	tello.ctrlMu.Lock()
	tello.ctrlLy = int16(clampAxis(val) * 32767)
	tello.ctrlMu.Unlock()
}

// SetSportsMode enables or disables the drone's faster 'sports' mode.
// The flag rides along with every stick update.
func (tello *Tello) SetSportsMode(sports bool) {
	tello.ctrlMu.Lock()
	tello.ctrlSportsMode = sports
	tello.ctrlMu.Unlock()
}

// *** The following are 'macro' commands which are here purely
// *** to make the Tello easier to use in some circumstances.

// Hover simply sets the sticks to zero - useful as a panic action!
func (tello *Tello) Hover() {
	tello.ctrlMu.Lock()
	tello.ctrlLx = 0
	tello.ctrlLy = 0
	tello.ctrlRx = 0
	tello.ctrlRy = 0
	tello.ctrlMu.Unlock()
}

// Forward tells the drone to start moving forward at a given speed between 0 and 100.
func (tello *Tello) Forward(pct int) {
	speed := clampPct(pct) * 327 // /100 * 32767
	tello.UpdateSticks(StickMessage{Rx: 0, Ry: speed, Lx: 0, Ly: 0})
}

// Backward tells the drone to start moving backward at a given speed between 0 and 100.
func (tello *Tello) Backward(pct int) {
	speed := clampPct(pct) * 327
	tello.UpdateSticks(StickMessage{Rx: 0, Ry: -speed, Lx: 0, Ly: 0})
}

// Left tells the drone to start moving left at a given speed between 0 and 100.
func (tello *Tello) Left(pct int) {
	speed := clampPct(pct) * 327
	tello.UpdateSticks(StickMessage{Rx: -speed, Ry: 0, Lx: 0, Ly: 0})
}

// Right tells the drone to start moving right at a given speed between 0 and 100.
func (tello *Tello) Right(pct int) {
	speed := clampPct(pct) * 327
	tello.UpdateSticks(StickMessage{Rx: speed, Ry: 0, Lx: 0, Ly: 0})
}

// Up tells the drone to start moving up at a given speed between 0 and 100.
func (tello *Tello) Up(pct int) {
	speed := clampPct(pct) * 327
	tello.UpdateSticks(StickMessage{Rx: 0, Ry: 0, Lx: 0, Ly: speed})
}

// Down tells the drone to start moving down at a given speed between 0 and 100.
func (tello *Tello) Down(pct int) {
	speed := clampPct(pct) * 327
	tello.UpdateSticks(StickMessage{Rx: 0, Ry: 0, Lx: 0, Ly: -speed})
}

// Clockwise tells the drone to start rotating clockwise at a given speed between 0 and 100.
func (tello *Tello) Clockwise(pct int) {
	speed := clampPct(pct) * 327
	tello.UpdateSticks(StickMessage{Rx: 0, Ry: 0, Lx: speed, Ly: 0})
}

// TurnRight is an alias for Clockwise().
func (tello *Tello) TurnRight(pct int) {
	tello.Clockwise(pct)
}

// Anticlockwise tells the drone to start rotating anticlockwise at a given speed between 0 and 100.
func (tello *Tello) Anticlockwise(pct int) {
	speed := clampPct(pct) * 327
	tello.UpdateSticks(StickMessage{Rx: 0, Ry: 0, Lx: -speed, Ly: 0})
}

// TurnLeft is an alias for Anticlockwise().
func (tello *Tello) TurnLeft(pct int) {
	tello.Anticlockwise(pct)
}

// CounterClockwise is an alias for Anticlockwise().
func (tello *Tello) CounterClockwise(pct int) {
	tello.Anticlockwise(pct)
}

// *** End of 'macro' commands ***

// SetExposure sets the camera exposure compensation to one of the three
// levels the camera accepts. Out-of-range levels clamp to ExposureTwo.
func (tello *Tello) SetExposure(level Exposure) error {
	if level > ExposureTwo {
		level = ExposureTwo
	}
	return tello.sendCommand(ptSet, msgExposureVals, []byte{byte(level)}, false)
}

// SetLowBatteryThreshold tells the drone when to start warning about
// battery level, as a percentage.
func (tello *Tello) SetLowBatteryThreshold(pct uint8) error {
	if pct > 100 {
		pct = 100
	}
	return tello.sendCommand(ptSet, msgSetLowBattThresh, []byte{pct}, false)
}

// GetLowBatteryThreshold requests the current low battery warning level.
// The response updates the LowBatteryThreshold field of FlightData.
func (tello *Tello) GetLowBatteryThreshold() error {
	return tello.sendCommand(ptGet, msgQueryLowBattThresh, nil, false)
}

// GetMaxHeight requests the current height limit.
// The response updates the MaxHeight field of FlightData.
func (tello *Tello) GetMaxHeight() error {
	return tello.sendCommand(ptGet, msgQueryHeightLimit, nil, false)
}

// StartSmartVideo asks the drone to perform the given Smart Video manoeuvre.
func (tello *Tello) StartSmartVideo(cmd SvCmd) error {
	return tello.sendCommand(ptSet, msgDoSmartVideo, []byte{byte(cmd) | 0x01}, true)
}

// StopSmartVideo stops a Smart Video manoeuvre in progress.
func (tello *Tello) StopSmartVideo(cmd SvCmd) error {
	return tello.sendCommand(ptSet, msgDoSmartVideo, []byte{byte(cmd)}, true)
}

// SendRawPacket is an escape hatch for advanced callers: it frames and
// sends an arbitrary command with a fresh sequence number. No
// acknowledgment tracking is performed.
func (tello *Tello) SendRawPacket(packetType uint8, messageID uint16, payload []byte) error {
	return tello.sendCommand(packetType, messageID, payload, false)
}

// LogLevel controls the verbosity of the client's own diagnostics.
type LogLevel int

// The five log levels, quietest first...
const (
	LogError LogLevel = iota
	LogWarn
	LogInfo
	LogDebug
	LogAll
)

// SetLogLevel adjusts the verbosity of the default logger. It has no
// effect if a logger was supplied via WithLogger.
func (tello *Tello) SetLogLevel(level LogLevel) {
	switch level {
	case LogError:
		tello.logLevel.Set(slog.LevelError)
	case LogWarn:
		tello.logLevel.Set(slog.LevelWarn)
	case LogInfo:
		tello.logLevel.Set(slog.LevelInfo)
	case LogDebug:
		tello.logLevel.Set(slog.LevelDebug)
	case LogAll:
		tello.logLevel.Set(slog.LevelDebug - 4)
	}
}
