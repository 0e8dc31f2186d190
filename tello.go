// tello.go

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
	"errors"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	defaultTelloAddr        = "192.168.10.1"
	defaultTelloControlPort = 8889
	defaultLocalControlPort = 8800
	defaultTelloVideoPort   = 6038
	defaultLocalVideoPort   = 8801
)

const (
	defaultKeepAlivePeriod = 50 * time.Millisecond // stick-state resend interval while connected
	readDeadlinePeriod     = 250 * time.Millisecond
	waitPollPeriod         = 10 * time.Millisecond
)

// Defaults for the tunable protocol timings. Each has a corresponding
// Option for callers that need different behaviour.
const (
	defaultConnectRetries     = 3
	defaultConnectRetryPeriod = 2 * time.Second
	defaultAckRetries         = 3
	defaultAckTimeout         = 500 * time.Millisecond
	defaultLivenessWindow     = 3 * time.Second
)

// Errors returned by the public API.
var (
	ErrAlreadyConnected  = errors.New("tello: already connected")
	ErrAlreadyConnecting = errors.New("tello: connection attempt already in progress")
	ErrNotConnected      = errors.New("tello: not connected to the drone")
	ErrConnectTimeout    = errors.New("tello: timeout waiting for connection")
	ErrConnectFailed     = errors.New("tello: connection request not acknowledged")
	ErrQuit              = errors.New("tello: client has quit")
)

// connectionState is the session lifecycle. It only ever moves
// disconnected -> connecting -> connected and back, except for quit
// which is terminal.
type connectionState int

const (
	stateDisconnected connectionState = iota
	stateConnecting
	stateConnected
	stateQuit
)

func (cs connectionState) String() string {
	switch cs {
	case stateDisconnected:
		return "disconnected"
	case stateConnecting:
		return "connecting"
	case stateConnected:
		return "connected"
	case stateQuit:
		return "quit"
	}
	return "invalid"
}

// pendingCmd is an unacknowledged command awaiting a response from the
// drone. Retransmissions keep the original type and payload but are
// issued under a fresh sequence number.
type pendingCmd struct {
	packetType uint8
	payload    []byte
	sentAt     time.Time
	tries      int
}

// CommandFailure is the payload of a CommandFailedEvent, published when a
// command's acknowledgment retries are exhausted.
type CommandFailure struct {
	MessageID uint16
	Attempts  int
}

// Tello holds the current state of a connection to a Tello drone.
// Create one with New(); the zero value is not usable.
type Tello struct {
	ctrlMu                         sync.RWMutex // this mutex protects the control fields
	ctrlConn                       *net.UDPConn
	state                          connectionState
	connAttempts                   int
	lastConnReq                    time.Time
	ctrlSeq                        uint16
	lastSend                       time.Time // last outbound write on the control channel
	lastRecv                       time.Time // last valid inbound traffic, drives liveness
	pending                        map[uint16]*pendingCmd // keyed by message ID
	ctrlRx, ctrlRy, ctrlLx, ctrlLy int16 // we are using the SDL convention: vals range from -32768 to 32767
	ctrlSportsMode                 bool  // are we in 'sports' (a.k.a. 'Fast') mode?
	ctrlBouncing                   bool  // do we think we are bouncing?
	stickChan                      chan StickMessage // this will receive stick updates from the user
	stickListening                 bool              // are we currently listening on stickChan?

	fdMu        sync.RWMutex // this mutex protects the flight data fields
	fd          FlightData   // our private amalgamated store of the latest data
	fdStreaming bool         // are we currently sending FlightData out?

	videoMu      sync.Mutex
	videoConn    *net.UDPConn
	videoOn      bool // keep re-requesting SPS/PPS while set
	lastVideoReq time.Time
	vFrame       frameAssembly

	fileTemp fileInternal

	autoHeightMu, autoYawMu sync.RWMutex
	autoHeight, autoYaw     bool

	events   *eventBus
	logger   *slog.Logger
	logLevel *slog.LevelVar

	workersRunning bool // listener and timer started, they serve the whole session

	quitChan chan struct{}
	quitOnce sync.Once

	// tunables, fixed after New()
	connectRetries     int
	connectRetryPeriod time.Duration
	ackRetries         int
	ackTimeout         time.Duration
	livenessWindow     time.Duration
	keepAlivePeriod    time.Duration
	framePolicy        VideoFramePolicy
}

// Option customises a Tello client at construction time.
type Option func(*Tello)

// WithLogger replaces the default logger. SetLogLevel only affects the
// default logger; a caller-supplied one manages its own level.
func WithLogger(l *slog.Logger) Option {
	return func(tello *Tello) { tello.logger = l }
}

// WithConnectRetries sets how many times the connection handshake is sent
// before the attempt is abandoned, and the interval between sends.
func WithConnectRetries(count int, period time.Duration) Option {
	return func(tello *Tello) {
		if count > 0 {
			tello.connectRetries = count
		}
		if period > 0 {
			tello.connectRetryPeriod = period
		}
	}
}

// WithAckRetries sets how many times an unacknowledged command is
// retransmitted, and the per-try timeout, before it is reported failed.
func WithAckRetries(count int, timeout time.Duration) Option {
	return func(tello *Tello) {
		if count > 0 {
			tello.ackRetries = count
		}
		if timeout > 0 {
			tello.ackTimeout = timeout
		}
	}
}

// WithLivenessWindow sets how long the control channel may be silent
// before the session is considered lost.
func WithLivenessWindow(window time.Duration) Option {
	return func(tello *Tello) {
		if window > 0 {
			tello.livenessWindow = window
		}
	}
}

// WithKeepAlivePeriod sets the interval of the stick/keepalive tick. The
// drone drops the link if it hears nothing for a few seconds, so periods
// much over the 50ms default are unwise.
func WithKeepAlivePeriod(period time.Duration) Option {
	return func(tello *Tello) {
		if period > 0 {
			tello.keepAlivePeriod = period
		}
	}
}

// WithVideoFramePolicy chooses what happens to a partially reassembled
// video frame when the next frame starts. The default is
// DiscardPartialFrames.
func WithVideoFramePolicy(policy VideoFramePolicy) Option {
	return func(tello *Tello) { tello.framePolicy = policy }
}

// New creates a Tello client ready to connect.
func New(opts ...Option) *Tello {
	tello := &Tello{
		state:              stateDisconnected,
		pending:            make(map[uint16]*pendingCmd),
		events:             newEventBus(),
		logLevel:           new(slog.LevelVar),
		quitChan:           make(chan struct{}),
		connectRetries:     defaultConnectRetries,
		connectRetryPeriod: defaultConnectRetryPeriod,
		ackRetries:         defaultAckRetries,
		ackTimeout:         defaultAckTimeout,
		livenessWindow:     defaultLivenessWindow,
		keepAlivePeriod:    defaultKeepAlivePeriod,
		framePolicy:        DiscardPartialFrames,
	}
	tello.logLevel.Set(slog.LevelWarn)
	for _, opt := range opts {
		opt(tello)
	}
	if tello.logger == nil {
		tello.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: tello.logLevel}))
	}
	return tello
}

// Subscribe registers a handler for the given event kind. Handlers for a
// kind run in registration order, synchronously with the publishing I/O
// loop, and stay registered until Quit.
func (tello *Tello) Subscribe(et EventType, handler EventHandler) {
	tello.events.subscribe(et, handler)
}

// ControlConnect starts a connection attempt to a Tello at the provided
// network addr. It returns as soon as the handshake is underway; use
// WaitForConnection to block until the drone acknowledges. It may be
// called again after the link is lost to reconnect.
func (tello *Tello) ControlConnect(udpAddr string, droneUDPPort int, localUDPPort int) (err error) {
	droneAddr, err := net.ResolveUDPAddr("udp", udpAddr+":"+strconv.Itoa(droneUDPPort))
	if err != nil {
		return err
	}
	localAddr, err := net.ResolveUDPAddr("udp", ":"+strconv.Itoa(localUDPPort))
	if err != nil {
		return err
	}

	// state check and transition are one critical section, so two racing
	// connect calls cannot both proceed
	tello.ctrlMu.Lock()
	switch tello.state {
	case stateConnected:
		tello.ctrlMu.Unlock()
		return ErrAlreadyConnected
	case stateConnecting:
		tello.ctrlMu.Unlock()
		return ErrAlreadyConnecting
	case stateQuit:
		tello.ctrlMu.Unlock()
		return ErrQuit
	}
	conn, err := net.DialUDP("udp", localAddr, droneAddr)
	if err != nil {
		tello.ctrlMu.Unlock()
		return err
	}
	if tello.ctrlConn != nil {
		// socket left over from a lost session
		tello.ctrlConn.Close()
	}
	tello.ctrlConn = conn
	tello.state = stateConnecting
	tello.connAttempts = 1
	tello.lastConnReq = time.Now()
	tello.pending = make(map[uint16]*pendingCmd)

	// the control listener and timer Goroutines are started once and serve
	// the whole session, across reconnects; they exit on Quit
	if !tello.workersRunning {
		tello.workersRunning = true
		go tello.controlResponseListener()
		go tello.timerLoop()
	}

	// say hello to the Tello
	tello.writeConnectRequestLocked(defaultTelloVideoPort)
	tello.ctrlMu.Unlock()

	return nil
}

// ControlConnectDefault starts a connection attempt to a Tello on the
// default network addresses.
func (tello *Tello) ControlConnectDefault() (err error) {
	return tello.ControlConnect(defaultTelloAddr, defaultTelloControlPort, defaultLocalControlPort)
}

// WaitForConnection blocks until the session reaches the connected state.
// A timeout of zero waits indefinitely. It returns ErrConnectTimeout if
// the timeout elapses first, or ErrConnectFailed if the handshake retry
// budget was exhausted.
func (tello *Tello) WaitForConnection(timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		tello.ctrlMu.RLock()
		st := tello.state
		tello.ctrlMu.RUnlock()
		switch st {
		case stateConnected:
			return nil
		case stateQuit:
			return ErrQuit
		case stateDisconnected:
			return ErrConnectFailed
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return ErrConnectTimeout
		}
		time.Sleep(waitPollPeriod)
	}
}

// Connected returns true if we are currently connected.
func (tello *Tello) Connected() bool {
	tello.ctrlMu.RLock()
	defer tello.ctrlMu.RUnlock()
	return tello.state == stateConnected
}

// Quit shuts the client down: every background worker observes the quit
// state and exits, and both transport channels are released. Quit is
// terminal; the client cannot be reconnected afterwards.
func (tello *Tello) Quit() {
	tello.quitOnce.Do(func() {
		tello.ctrlMu.Lock()
		tello.state = stateQuit
		ctrl := tello.ctrlConn
		tello.ctrlMu.Unlock()
		close(tello.quitChan)
		if ctrl != nil {
			ctrl.Close()
		}
		tello.videoMu.Lock()
		video := tello.videoConn
		tello.videoMu.Unlock()
		if video != nil {
			video.Close()
		}
	})
}

// GetFlightData returns the latest known state of the Tello.
func (tello *Tello) GetFlightData() FlightData {
	tello.fdMu.RLock()
	rfd := tello.fd
	tello.fdMu.RUnlock()
	return rfd
}

// StreamFlightData starts a Goroutine which sends FlightData to a channel.
// If asAvailable is true then updates are sent whenever fresh data arrives from the Tello and periodMs is ignored.
// If asAvailable is false then updates are sent every periodMs.
// This streamer does not block on the channel, so unconsumed updates are lost.
func (tello *Tello) StreamFlightData(asAvailable bool, periodMs time.Duration) (<-chan FlightData, error) {
	tello.fdMu.Lock()
	if tello.fdStreaming {
		tello.fdMu.Unlock()
		return nil, errors.New("tello: already streaming data from this Tello")
	}
	tello.fdStreaming = true
	tello.fdMu.Unlock()

	fdChan := make(chan FlightData, 2)
	if asAvailable {
		tello.Subscribe(FlightDataEvent, func(ev Event) {
			fd, ok := ev.Data.(FlightData)
			if !ok {
				return
			}
			select {
			case fdChan <- fd:
			default:
			}
		})
	} else {
		go func() {
			for {
				select {
				case <-tello.quitChan:
					return
				default:
				}
				select {
				case fdChan <- tello.GetFlightData():
				default:
				}
				time.Sleep(periodMs * time.Millisecond)
			}
		}()
	}
	return fdChan, nil
}

// controlResponseListener is the receive loop for the command/telemetry
// channel. Reads run under a short deadline so the loop promptly observes
// the quit state.
func (tello *Tello) controlResponseListener() {
	buff := make([]byte, 4096)

	for {
		select {
		case <-tello.quitChan:
			tello.logger.Debug("control listener stopped")
			return
		default:
		}

		// take the conn under the lock, a reconnect may have replaced it
		tello.ctrlMu.RLock()
		conn := tello.ctrlConn
		tello.ctrlMu.RUnlock()
		if conn == nil {
			time.Sleep(waitPollPeriod)
			continue
		}

		conn.SetReadDeadline(time.Now().Add(readDeadlinePeriod))
		n, err := conn.Read(buff)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-tello.quitChan:
				tello.logger.Debug("control listener stopped")
				return
			default:
			}
			tello.ctrlMu.RLock()
			superseded := conn != tello.ctrlConn
			tello.ctrlMu.RUnlock()
			if superseded {
				continue
			}
			tello.logger.Warn("network read error", "error", err)
			continue
		}

		// the initial connect response is different...
		tello.ctrlMu.RLock()
		connecting := tello.state == stateConnecting
		tello.ctrlMu.RUnlock()
		if connecting {
			if bytes.HasPrefix(buff[:n], []byte("conn_ack:")) {
				tello.ctrlMu.Lock()
				tello.state = stateConnected
				tello.lastRecv = time.Now()
				tello.ctrlMu.Unlock()
				tello.logger.Debug("conn_ack received")
				tello.events.publish(tello.logger, ConnectedEvent, nil)
			} else {
				tello.logger.Warn("unexpected response to connection request", "bytes", n)
			}
			continue
		}

		pkt, err := bufferToPacket(buff[:n])
		if err != nil {
			tello.logger.Debug("dropping undecodable datagram", "error", err, "bytes", n)
			continue
		}

		tello.ctrlMu.Lock()
		tello.lastRecv = time.Now()
		// any response carrying a tracked message ID acknowledges it
		delete(tello.pending, pkt.messageID)
		tello.ctrlMu.Unlock()

		tello.handleControlPacket(pkt)
	}
}

// handleControlPacket routes a decoded control-channel packet to the
// telemetry decoder, file receiver, or the appropriate service response.
func (tello *Tello) handleControlPacket(pkt packet) {
	switch pkt.messageID {
	case msgDoLand, msgDoTakeoff, msgDoThrowTakeoff, msgDoPalmLand, msgDoFlip,
		msgDoBounce, msgSetVideoBitrate, msgSwitchPicVideo, msgExposureVals,
		msgSetLowBattThresh, msgDoSmartVideo:
		// ack only, cleared from the pending table above

	case msgFlightStatus:
		if len(pkt.payload) < flightStatusPayloadSize {
			tello.logger.Debug("short flight status payload", "bytes", len(pkt.payload))
			return
		}
		tmpFd := payloadToFlightData(pkt.payload)
		tello.fdMu.Lock()
		// not all fields are sent...
		tello.fd.Height = tmpFd.Height
		tello.fd.NorthSpeed = tmpFd.NorthSpeed
		tello.fd.EastSpeed = tmpFd.EastSpeed
		tello.fd.VerticalSpeed = tmpFd.VerticalSpeed
		tello.fd.FlyTime = tmpFd.FlyTime
		tello.fd.ImuState = tmpFd.ImuState
		tello.fd.PressureState = tmpFd.PressureState
		tello.fd.DownVisualState = tmpFd.DownVisualState
		tello.fd.PowerState = tmpFd.PowerState
		tello.fd.BatteryState = tmpFd.BatteryState
		tello.fd.GravityState = tmpFd.GravityState
		tello.fd.WindState = tmpFd.WindState
		tello.fd.ImuCalibrationState = tmpFd.ImuCalibrationState
		tello.fd.BatteryPercentage = tmpFd.BatteryPercentage
		tello.fd.DroneFlyTimeLeft = tmpFd.DroneFlyTimeLeft
		tello.fd.BatteryMilliVolts = tmpFd.BatteryMilliVolts
		tello.fd.Flying = tmpFd.Flying
		tello.fd.OnGround = tmpFd.OnGround
		tello.fd.EmOpen = tmpFd.EmOpen
		tello.fd.DroneHover = tmpFd.DroneHover
		tello.fd.OutageRecording = tmpFd.OutageRecording
		tello.fd.BatteryLow = tmpFd.BatteryLow
		tello.fd.BatteryCritical = tmpFd.BatteryCritical
		tello.fd.FactoryMode = tmpFd.FactoryMode
		tello.fd.FlyMode = tmpFd.FlyMode
		tello.fd.ThrowFlyTimer = tmpFd.ThrowFlyTimer
		tello.fd.CameraState = tmpFd.CameraState
		tello.fd.ElectricalMachineryState = tmpFd.ElectricalMachineryState
		tello.fd.FrontIn = tmpFd.FrontIn
		tello.fd.FrontOut = tmpFd.FrontOut
		tello.fd.FrontLSC = tmpFd.FrontLSC
		tello.fd.OverTemp = tmpFd.OverTemp
		snapshot := tello.fd
		tello.fdMu.Unlock()
		tello.events.publish(tello.logger, FlightDataEvent, snapshot)

	case msgLightStrength:
		if len(pkt.payload) < lightStrengthPayloadSize {
			return
		}
		light := LightData{LightStrength: pkt.payload[0]}
		tello.fdMu.Lock()
		tello.fd.LightStrength = light.LightStrength
		tello.fdMu.Unlock()
		tello.events.publish(tello.logger, LightStrengthEvent, light)

	case msgWifiStrength:
		if len(pkt.payload) < wifiStrengthPayloadSize {
			return
		}
		wifi := WifiData{WifiStrength: pkt.payload[0], WifiInterference: pkt.payload[1]}
		tello.fdMu.Lock()
		tello.fd.WifiStrength = wifi.WifiStrength
		tello.fd.WifiInterference = wifi.WifiInterference
		tello.fdMu.Unlock()
		tello.events.publish(tello.logger, WifiDataEvent, wifi)

	case msgLogHeader:
		if len(pkt.payload) < 3 {
			return
		}
		tello.ackLogHeader(pkt.payload[1:3])

	case msgLogData:
		tello.parseLogPacket(pkt.payload)
		tello.events.publish(tello.logger, LogDataEvent, pkt.payload)

	case msgSetDateTime:
		tello.sendDateTime()
		tello.events.publish(tello.logger, TimeEvent, time.Now())

	case msgQueryHeightLimit:
		if len(pkt.payload) >= 2 {
			tello.fdMu.Lock()
			tello.fd.MaxHeight = pkt.payload[1]
			tello.fdMu.Unlock()
		}

	case msgQueryLowBattThresh:
		if len(pkt.payload) >= 2 {
			tello.fdMu.Lock()
			tello.fd.LowBatteryThreshold = pkt.payload[1]
			tello.fdMu.Unlock()
		}

	case msgQueryVideoBitrate:
		if len(pkt.payload) >= 1 {
			tello.fdMu.Lock()
			tello.fd.VideoBitrate = VBR(pkt.payload[0])
			tello.fdMu.Unlock()
		}

	case msgFileSize:
		tello.handleFileSize(pkt.payload)

	case msgFileData:
		tello.handleFileChunk(pkt.payload)

	case msgSmartVideoStatus:
		if len(pkt.payload) >= 1 {
			tello.fdMu.Lock()
			tello.fd.SmartVideoExitMode = int16(pkt.payload[0]) >> 2
			tello.fdMu.Unlock()
		}

	case msgError1, msgError2:
		tello.logger.Warn("error message from drone", "messageID", pkt.messageID)

	default:
		tello.logger.Debug("unknown message from drone",
			"messageID", pkt.messageID, "size", pkt.size13, "type", pkt.packetType)
	}
}

// timerLoop drives the periodic work: stick/keepalive resends, handshake
// retries, command retransmission, liveness checks and video stream
// re-requests. It is the only writer that runs unprompted.
func (tello *Tello) timerLoop() {
	tick := time.NewTicker(tello.keepAlivePeriod)
	defer tick.Stop()

	for {
		select {
		case <-tello.quitChan:
			tello.logger.Debug("timer loop stopped")
			return
		case <-tick.C:
		}

		var (
			lostLink bool
			failures []CommandFailure
		)

		tello.ctrlMu.Lock()
		switch tello.state {
		case stateConnecting:
			if time.Since(tello.lastConnReq) >= tello.connectRetryPeriod {
				if tello.connAttempts < tello.connectRetries {
					tello.connAttempts++
					tello.lastConnReq = time.Now()
					tello.writeConnectRequestLocked(defaultTelloVideoPort)
				} else {
					tello.state = stateDisconnected
					lostLink = true
				}
			}
		case stateConnected:
			if time.Since(tello.lastRecv) > tello.livenessWindow {
				tello.state = stateDisconnected
				lostLink = true
				break
			}
			if time.Since(tello.lastSend) >= tello.keepAlivePeriod {
				tello.sendStickUpdateLocked()
			}
			for id, pc := range tello.pending {
				if time.Since(pc.sentAt) < tello.ackTimeout {
					continue
				}
				if pc.tries <= tello.ackRetries {
					pc.tries++
					pc.sentAt = time.Now()
					tello.ctrlSeq++
					pkt := newPacket(pc.packetType, id, tello.ctrlSeq, 0)
					pkt.payload = pc.payload
					tello.writeLocked(packetToBuffer(pkt))
				} else {
					delete(tello.pending, id)
					failures = append(failures, CommandFailure{MessageID: id, Attempts: pc.tries})
				}
			}
		}
		tello.ctrlMu.Unlock()

		if lostLink {
			tello.logger.Warn("link to drone lost")
			tello.events.publish(tello.logger, DisconnectedEvent, nil)
		}
		for _, f := range failures {
			tello.logger.Error("command unacknowledged, retries exhausted",
				"messageID", f.MessageID, "attempts", f.Attempts)
			tello.events.publish(tello.logger, CommandFailedEvent, f)
		}

		tello.videoKeepAlive()
	}
}

// writeConnectRequestLocked sends the handshake datagram. The initial
// connect request is different to the usual packets...
func (tello *Tello) writeConnectRequestLocked(videoPort uint16) {
	msgBuff := []byte("conn_req:lh")
	msgBuff[9] = byte(videoPort & 0xff)
	msgBuff[10] = byte(videoPort >> 8)
	tello.writeLocked(msgBuff)
}

// writeLocked sends raw bytes on the control channel and stamps the
// last-activity time used to suppress redundant keepalives.
// Caller must hold ctrlMu.
func (tello *Tello) writeLocked(buff []byte) {
	if tello.ctrlConn == nil {
		return
	}
	if _, err := tello.ctrlConn.Write(buff); err != nil {
		tello.logger.Warn("network write error", "error", err)
		return
	}
	tello.lastSend = time.Now()
}

// sendCommand builds, sends and (optionally) tracks a command packet.
// Tracked commands are retransmitted until acknowledged or the retry
// budget runs out. Only valid while connected.
func (tello *Tello) sendCommand(pt uint8, messageID uint16, payload []byte, tracked bool) error {
	tello.ctrlMu.Lock()
	defer tello.ctrlMu.Unlock()
	if tello.state != stateConnected {
		return ErrNotConnected
	}
	tello.ctrlSeq++
	pkt := newPacket(pt, messageID, tello.ctrlSeq, 0)
	pkt.payload = payload
	tello.writeLocked(packetToBuffer(pkt))
	if tracked {
		tello.pending[messageID] = &pendingCmd{
			packetType: pt,
			payload:    payload,
			sentAt:     time.Now(),
			tries:      1,
		}
	}
	return nil
}

func (tello *Tello) sendDateTime() {
	tello.ctrlMu.Lock()
	defer tello.ctrlMu.Unlock()
	if tello.state != stateConnected {
		return
	}

	tello.ctrlSeq++
	pkt := newPacket(ptData1, msgSetDateTime, tello.ctrlSeq, 15)
	pkt.payload[0] = 0

	now := time.Now()
	pkt.payload[1] = byte(now.Year())
	pkt.payload[2] = byte(now.Year() >> 8)
	pkt.payload[3] = byte(int(now.Month()))
	pkt.payload[4] = byte(int(now.Month()) >> 8)
	pkt.payload[5] = byte(now.Day())
	pkt.payload[6] = byte(now.Day() >> 8)
	pkt.payload[7] = byte(now.Hour())
	pkt.payload[8] = byte(now.Hour() >> 8)
	pkt.payload[9] = byte(now.Minute())
	pkt.payload[10] = byte(now.Minute() >> 8)
	pkt.payload[11] = byte(now.Second())
	pkt.payload[12] = byte(now.Second() >> 8)
	ms := now.UnixNano() / 1000000
	pkt.payload[13] = byte(ms)
	pkt.payload[14] = byte(ms >> 8)

	tello.writeLocked(packetToBuffer(pkt))
}

func (tello *Tello) stickListener() {
	for {
		select {
		case <-tello.quitChan:
			return
		case sm := <-tello.stickChan:
			tello.UpdateSticks(sm)
		}
	}
}

// StartStickListener starts a Goroutine which listens for StickMessages on a channel
// and applies them to the Tello.
func (tello *Tello) StartStickListener() (sChan chan<- StickMessage, err error) {
	tello.ctrlMu.Lock()
	defer tello.ctrlMu.Unlock()
	if tello.stickListening {
		return nil, errors.New("tello: cannot start another StickListener, already one running")
	}
	tello.stickListening = true
	tello.stickChan = make(chan StickMessage, 10)
	go tello.stickListener()
	return tello.stickChan, nil
}

// UpdateSticks does a one-off update of the stick values which are then
// sent to the Tello on the next keepalive tick.
func (tello *Tello) UpdateSticks(sm StickMessage) {
	tello.ctrlMu.Lock()
	tello.ctrlLx = sm.Lx
	tello.ctrlLy = sm.Ly
	tello.ctrlRx = sm.Rx
	tello.ctrlRy = sm.Ry
	tello.ctrlMu.Unlock()
}

func jsFloatToTello(fv float32) uint64 {
	return uint64(364*fv + 1024)
}

func jsInt16ToTello(sv int16) uint64 {
	// sv is in range -32768 to 32767, we need 660 to 1388 where 0 => 1024
	return uint64((sv / 90) + 1024)
}

// sendStickUpdateLocked transmits the current stick state. This is also
// the session heartbeat. Caller must hold ctrlMu.
func (tello *Tello) sendStickUpdateLocked() {
	pkt := newPacket(ptData2, msgSetStick, 0, 11)

	// This packing of the joystick data is just vile...
	var packedAxes uint64
	packedAxes = jsInt16ToTello(tello.ctrlRx) & 0x07ff
	packedAxes |= (jsInt16ToTello(tello.ctrlRy) & 0x07ff) << 11
	packedAxes |= (jsInt16ToTello(tello.ctrlLy) & 0x07ff) << 22
	packedAxes |= (jsInt16ToTello(tello.ctrlLx) & 0x07ff) << 33
	if tello.ctrlSportsMode {
		packedAxes |= 1 << 44
	}

	pkt.payload[0] = byte(packedAxes)
	pkt.payload[1] = byte(packedAxes >> 8)
	pkt.payload[2] = byte(packedAxes >> 16)
	pkt.payload[3] = byte(packedAxes >> 24)
	pkt.payload[4] = byte(packedAxes >> 32)
	pkt.payload[5] = byte(packedAxes >> 40)

	now := time.Now()
	pkt.payload[6] = byte(now.Hour())
	pkt.payload[7] = byte(now.Minute())
	pkt.payload[8] = byte(now.Second())
	ms := now.UnixNano() / 1000000
	pkt.payload[9] = byte(ms & 0xff)
	pkt.payload[10] = byte(ms >> 8)

	tello.writeLocked(packetToBuffer(pkt))
}
