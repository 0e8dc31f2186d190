// autopilot_test.go

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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitDone(t *testing.T, done chan bool) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("navigation did not complete")
	}
}

func TestFlyToHeightAlreadyThere(t *testing.T) {
	drone := New()
	t.Cleanup(drone.Quit)
	drone.fdMu.Lock()
	drone.fd.Height = 5
	drone.fdMu.Unlock()

	done, err := drone.FlyToHeight(5)
	require.NoError(t, err)
	waitDone(t, done)

	drone.ctrlMu.RLock()
	assert.Equal(t, int16(0), drone.ctrlLy)
	drone.ctrlMu.RUnlock()
}

func TestFlyToHeightDoubleStart(t *testing.T) {
	drone := New()
	t.Cleanup(drone.Quit)

	_, err := drone.FlyToHeight(50)
	require.NoError(t, err)
	_, err = drone.FlyToHeight(60)
	assert.Error(t, err)
}

func TestFlyToHeightCancel(t *testing.T) {
	drone := New()
	t.Cleanup(drone.Quit)

	done, err := drone.FlyToHeight(50)
	require.NoError(t, err)
	drone.CancelFlyToHeight()
	waitDone(t, done)

	// cancelling again must be allowed
	drone.CancelFlyToHeight()
}

func TestFlyToYawRangeValidation(t *testing.T) {
	drone := New()
	t.Cleanup(drone.Quit)

	_, err := drone.FlyToYaw(181)
	assert.Error(t, err)
	_, err = drone.FlyToYaw(-181)
	assert.Error(t, err)
}

func TestFlyToYawAlreadyThere(t *testing.T) {
	drone := New()
	t.Cleanup(drone.Quit)
	drone.fdMu.Lock()
	drone.fd.IMU.Yaw = 90
	drone.fdMu.Unlock()

	done, err := drone.FlyToYaw(90)
	require.NoError(t, err)
	waitDone(t, done)

	drone.ctrlMu.RLock()
	assert.Equal(t, int16(0), drone.ctrlLx)
	drone.ctrlMu.RUnlock()
}

func TestFlyToYawCancel(t *testing.T) {
	drone := New()
	t.Cleanup(drone.Quit)

	done, err := drone.FlyToYaw(120)
	require.NoError(t, err)
	drone.CancelFlyToYaw()
	waitDone(t, done)
}
