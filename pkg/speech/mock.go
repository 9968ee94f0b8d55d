package speech

import "sync"

// MockCapture is a Capture for testing. Tests drive recognition with
// Emit and inspect lifecycle calls through the recorded counters.
type MockCapture struct {
	mu          sync.Mutex
	state       State
	closed      bool
	transcripts chan string

	// StartErr, when set, is returned by Start instead of transitioning.
	StartErr error

	StartCalls int
	StopCalls  int
}

var _ Capture = (*MockCapture)(nil)

// NewMockCapture creates a mock capture in the Idle state.
func NewMockCapture() *MockCapture {
	return &MockCapture{transcripts: make(chan string, 8)}
}

// Start implements Capture.
func (m *MockCapture) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartCalls++
	if m.StartErr != nil {
		return m.StartErr
	}
	if m.closed {
		return ErrCaptureClosed
	}
	if m.state == Listening {
		return ErrAlreadyListening
	}
	m.state = Listening
	return nil
}

// Stop implements Capture.
func (m *MockCapture) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StopCalls++
	m.state = Idle
}

// State implements Capture.
func (m *MockCapture) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Transcripts implements Capture.
func (m *MockCapture) Transcripts() <-chan string {
	return m.transcripts
}

// Close implements Capture.
func (m *MockCapture) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.state = Idle
	return nil
}

// Emit simulates a settled recognition. The text is delivered only when
// the capture is Listening, matching the real lifecycle.
func (m *MockCapture) Emit(text string) {
	m.mu.Lock()
	listening := m.state == Listening
	m.state = Idle
	m.mu.Unlock()
	if !listening {
		return
	}
	m.transcripts <- text
}

// MockSpeaker records spoken text for assertions.
type MockSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

var _ Speaker = (*MockSpeaker)(nil)

// Speak implements Speaker.
func (m *MockSpeaker) Speak(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spoken = append(m.spoken, text)
}

// Spoken returns a copy of all text passed to Speak.
func (m *MockSpeaker) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.spoken))
	copy(out, m.spoken)
	return out
}
