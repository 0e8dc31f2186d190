// events.go - the subscribe/publish surface of the package

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
	"log/slog"
	"sync"
)

// EventType identifies the kind of a published event.
type EventType int

// The event kinds a caller may subscribe to.
const (
	ConnectedEvent EventType = iota
	DisconnectedEvent
	FlightDataEvent
	VideoFrameEvent
	FileReceivedEvent
	LightStrengthEvent
	LogDataEvent
	TimeEvent
	WifiDataEvent
	CommandFailedEvent
)

func (et EventType) String() string {
	switch et {
	case ConnectedEvent:
		return "Connected"
	case DisconnectedEvent:
		return "Disconnected"
	case FlightDataEvent:
		return "FlightData"
	case VideoFrameEvent:
		return "VideoFrame"
	case FileReceivedEvent:
		return "FileReceived"
	case LightStrengthEvent:
		return "LightStrength"
	case LogDataEvent:
		return "LogData"
	case TimeEvent:
		return "Time"
	case WifiDataEvent:
		return "WifiData"
	case CommandFailedEvent:
		return "CommandFailed"
	}
	return "Unknown"
}

// Event is delivered to every handler subscribed to its type.
// Data is typed per event kind:
//
//	FlightDataEvent    FlightData
//	VideoFrameEvent    []byte (one complete encoded H.264 access unit)
//	FileReceivedEvent  FileData
//	LightStrengthEvent LightData
//	WifiDataEvent      WifiData
//	LogDataEvent       []byte (raw log record payload)
//	TimeEvent          time.Time
//	CommandFailedEvent CommandFailure
//	ConnectedEvent, DisconnectedEvent  nil
type Event struct {
	Type EventType
	Data interface{}
}

// EventHandler is a callback registered via Subscribe.
// Handlers run synchronously on the I/O goroutine that publishes the event,
// so they must not block; long-running work should be handed off by the
// subscriber.
type EventHandler func(ev Event)

// eventBus maps each event kind to its handlers in registration order.
// Publishing snapshots the handler list so subscription may proceed
// concurrently, and recovers handler panics so a bad subscriber cannot
// take down a listener goroutine.
type eventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]EventHandler
}

func newEventBus() *eventBus {
	return &eventBus{handlers: make(map[EventType][]EventHandler)}
}

func (bus *eventBus) subscribe(et EventType, handler EventHandler) {
	bus.mu.Lock()
	bus.handlers[et] = append(bus.handlers[et], handler)
	bus.mu.Unlock()
}

func (bus *eventBus) publish(logger *slog.Logger, et EventType, data interface{}) {
	bus.mu.RLock()
	handlers := bus.handlers[et]
	bus.mu.RUnlock()

	ev := Event{Type: et, Data: data}
	for _, handler := range handlers {
		invokeHandler(logger, handler, ev)
	}
}

func invokeHandler(logger *slog.Logger, handler EventHandler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler panicked", "event", ev.Type.String(), "panic", r)
		}
	}()
	handler(ev)
}
