// Package speech provides the voice I/O boundary: utterance capture and
// spoken playback.
//
// Capture and playback are independent capabilities. Capture wraps a
// speech-to-text engine behind a start/stop lifecycle with an explicit
// Idle/Listening state machine and one-shot transcript delivery. Playback
// is fire-and-forget: callers hand over text and never wait for
// completion. When no engine is configured, both capabilities degrade to
// no-ops so the rest of the system keeps working.
package speech

import "errors"

// Errors returned by capture implementations.
var (
	// ErrAlreadyListening is returned when Start is called while a capture
	// is in flight. At most one capture is in flight at a time.
	ErrAlreadyListening = errors.New("speech: already listening")

	// ErrCaptureClosed is returned when starting a closed capture.
	ErrCaptureClosed = errors.New("speech: capture closed")
)

// State is the capture lifecycle state.
type State int

const (
	// Idle means no capture is in flight.
	Idle State = iota

	// Listening means a capture is in flight and a transcript may arrive.
	Listening
)

// String returns the state name.
func (s State) String() string {
	if s == Listening {
		return "listening"
	}
	return "idle"
}

// Capture is the utterance capture boundary.
//
// A successful recognition emits the recognized text exactly once on the
// Transcripts channel and returns the capture to Idle. No interim results
// are surfaced, and no timeout is enforced at this layer.
type Capture interface {
	// Start begins a single-utterance capture. Returns ErrAlreadyListening
	// if one is already in flight.
	Start() error

	// Stop abandons the capture in flight, if any, and returns to Idle.
	Stop()

	// State returns the current lifecycle state.
	State() State

	// Transcripts delivers recognized utterances, one per capture.
	Transcripts() <-chan string

	// Close releases the underlying engine.
	Close() error
}

// Speaker is the playback boundary. Speak is fire-and-forget: synthesis
// and playback errors are logged, never returned, and completion is not
// observable by callers.
type Speaker interface {
	Speak(text string)
}

// NoopCapture is a Capture for environments without a speech engine.
// Start and Stop have no effect and no transcript ever arrives.
type NoopCapture struct{}

// Start implements Capture.
func (NoopCapture) Start() error { return nil }

// Stop implements Capture.
func (NoopCapture) Stop() {}

// State implements Capture.
func (NoopCapture) State() State { return Idle }

// Transcripts implements Capture. The returned channel never delivers.
func (NoopCapture) Transcripts() <-chan string { return nil }

// Close implements Capture.
func (NoopCapture) Close() error { return nil }

// NoopSpeaker is a Speaker that discards all text.
type NoopSpeaker struct{}

// Speak implements Speaker.
func (NoopSpeaker) Speak(string) {}
