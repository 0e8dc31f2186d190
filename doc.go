/*Package tello provides an unofficial, easy-to-use, standalone API for the Ryze Tello® drone.

Disclaimer

Tello is a registered trademark of Ryze Tech.  The author(s) of this package is/are in no way affiliated with Ryze, DJI, or Intel.
The package has been developed by gathering together information from a variety of sources on the Internet
(especially the generous contributors at  https://tellopilots.com), and by examining data packets sent to/from the Tello.
The package will probably be extended as more knowledge of the drone's protocol is obtained.

Use this package at your own risk.  The author(s) is/are in no way responsible for any damage caused either to or by the
drone when using this software.

Features

The following features have been implemented...
  * Stick-based flight control, ie. for joystick, game-, or flight-controller
  * Drone built-in flight commands, eg. TakeOff(), PalmLand(), the eight flips
  * Macro-level flight control, eg. Forward(), Up()
  * Autopilot commands, eg. FlyToHeight(), FlyToYaw()
  * Event subscription for telemetry, video and session lifecycle
  * Enriched flight data (some log data is added) for real-time telemetry
  * Video stream support with frame reassembly
  * In-memory picture receipt via events (saving is up to you)

Concepts

Connection Types

The drone provides two types of connection: a 'control' connection which handles all commands
to and from the drone including flight, status and (still) pictures, and a 'video' connection which
provides an H.264 video stream from the forward-facing camera.  You must establish a control connection
to use the drone, but the video connection is optional and cannot be started unless a control connection is running.

Session Lifecycle

A client moves through the states disconnected, connecting, connected and (terminally) quit.
ControlConnect() starts the handshake and returns immediately; WaitForConnection() blocks until the
drone acknowledges or a timeout you supply elapses.  If telemetry goes silent for longer than the
liveness window the client reports a DisconnectedEvent and stops sending commands until reconnected.
Quit() stops every background worker and releases both network connections; it cannot be undone.

Events vs. Funcs

State changes are published to subscribers: call Subscribe() with an event kind (ConnectedEvent,
FlightDataEvent, VideoFrameEvent, ...) and a handler.  Handlers are invoked synchronously on the
package's I/O Goroutines in registration order, so they must return quickly - hand anything
long-running off to your own Goroutine.

Certain functionality is also available in polled form, eg. GetFlightData() vs. subscribing to
FlightDataEvent, and UpdateSticks() vs. StartStickListener().  Use whichever paradigm you prefer.

Input Ranges

Command magnitudes are clamped, never rejected: percentage arguments to 0-100 and the analog axis
setters (SetPitch() etc.) to -1.0..1.0.
*/
package tello
