package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/omnihome/omnihome/pkg/home"
	"github.com/omnihome/omnihome/pkg/transcript"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(":0", home.NewState(), transcript.NewLog())
}

func TestHandleState(t *testing.T) {
	s := newTestServer(t)
	s.SetListening(true)

	req := httptest.NewRequest("GET", "/api/state", nil)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var state DashboardState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !state.Listening {
		t.Error("Listening = false, want true")
	}
	if state.Processing {
		t.Error("Processing = true, want false")
	}
	if state.Home.Temperature != 72 {
		t.Errorf("Home.Temperature = %v, want 72", state.Home.Temperature)
	}
	if !state.Home.IsLocked {
		t.Error("Home.IsLocked = false, want true")
	}
}

func TestHandleStateReflectsMutations(t *testing.T) {
	st := home.NewState()
	s := NewServer(":0", st, transcript.NewLog())

	st.SetLights(true)
	st.SetTemperature(68)

	req := httptest.NewRequest("GET", "/api/state", nil)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	defer resp.Body.Close()

	var state DashboardState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !state.Home.Lights {
		t.Error("Home.Lights = false, want true")
	}
	if state.Home.Temperature != 68 {
		t.Errorf("Home.Temperature = %v, want 68", state.Home.Temperature)
	}
}

func TestHandleTranscript(t *testing.T) {
	tl := transcript.NewLog()
	tl.Append(transcript.RoleUser, "turn on the lights")
	tl.Append(transcript.RoleModel, "Lights turned ON.")

	s := NewServer(":0", home.NewState(), tl)

	req := httptest.NewRequest("GET", "/api/transcript", nil)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	defer resp.Body.Close()

	var msgs []transcript.Message
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != transcript.RoleUser || msgs[0].Text != "turn on the lights" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[1].Role != transcript.RoleModel {
		t.Errorf("second message role = %q", msgs[1].Role)
	}
}

func TestHandleUtterance(t *testing.T) {
	s := newTestServer(t)

	var received []string
	s.OnUtterance = func(text string) { received = append(received, text) }

	body := strings.NewReader(`{"text":"Play some jazz"}`)
	req := httptest.NewRequest("POST", "/api/utterance", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 202 {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	if len(received) != 1 || received[0] != "Play some jazz" {
		t.Errorf("received = %v", received)
	}
}

func TestHandleUtteranceRejectsEmptyText(t *testing.T) {
	s := newTestServer(t)
	s.OnUtterance = func(string) { t.Error("pipeline invoked for empty text") }

	for _, body := range []string{`{"text":""}`, `{"text":"   "}`, `{}`} {
		req := httptest.NewRequest("POST", "/api/utterance", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.App().Test(req)
		if err != nil {
			t.Fatalf("Test() error = %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != 400 {
			t.Errorf("body %s: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestHandleUtteranceWithoutPipeline(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/utterance", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 503 {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestHandleMicToggle(t *testing.T) {
	s := newTestServer(t)

	listening := false
	s.OnMicToggle = func() (bool, error) {
		listening = !listening
		return listening, nil
	}

	for _, want := range []bool{true, false} {
		req := httptest.NewRequest("POST", "/api/mic/toggle", nil)
		resp, err := s.App().Test(req)
		if err != nil {
			t.Fatalf("Test() error = %v", err)
		}

		var body map[string]bool
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		resp.Body.Close()

		if body["listening"] != want {
			t.Errorf("listening = %v, want %v", body["listening"], want)
		}
	}
}

func TestHandleMicToggleError(t *testing.T) {
	s := newTestServer(t)
	s.OnMicToggle = func() (bool, error) {
		return false, errors.New("gateway offline")
	}

	req := httptest.NewRequest("POST", "/api/mic/toggle", nil)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 500 {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), "gateway offline") {
		t.Errorf("body = %s, want error detail", data)
	}
}

func TestHandleMicToggleWithoutCapture(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/mic/toggle", nil)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 503 {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestWebSocketUpgradeRequired(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("GET", "/ws/status", nil)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 426 {
		t.Errorf("status = %d, want 426", resp.StatusCode)
	}
}
