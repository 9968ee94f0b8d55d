package omni

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/omnihome/omnihome/pkg/assistant"
	"github.com/omnihome/omnihome/pkg/command"
	"github.com/omnihome/omnihome/pkg/home"
	"github.com/omnihome/omnihome/pkg/inference"
	"github.com/omnihome/omnihome/pkg/speech"
	"github.com/omnihome/omnihome/pkg/transcript"
	"github.com/omnihome/omnihome/pkg/web"
)

// newTestApp wires an App around a mock inference provider, bypassing
// New/Init so no credentials or network are needed.
func newTestApp(t *testing.T, provider inference.Provider) (*App, *speech.MockSpeaker, *speech.MockCapture) {
	t.Helper()

	state := home.NewState()
	dispatcher := command.NewDispatcher(state)
	tl := transcript.NewLog()
	speaker := &speech.MockSpeaker{}
	capture := speech.NewMockCapture()

	a := &App{
		config:     DefaultConfig(),
		state:      state,
		dispatcher: dispatcher,
		transcript: tl,
		responder:  assistant.NewResponder(provider, state, dispatcher),
		provider:   provider,
		speaker:    speaker,
		capture:    capture,
		webServer:  web.NewServer(":0", state, tl),
		utterances: make(chan string, utteranceQueueSize),
		logger:     slog.Default(),
	}
	a.webServer.OnUtterance = a.Enqueue
	a.webServer.OnMicToggle = a.toggleMic
	return a, speaker, capture
}

func TestValidateRequiresGeminiKey(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error type = %T, want *ConfigError", err)
	}
	if cfgErr.Field != "GeminiKey" {
		t.Errorf("Field = %q, want GeminiKey", cfgErr.Field)
	}

	cfg.GeminiKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with key = %v", err)
	}
}

func TestHandleUtteranceAppendsBothTurns(t *testing.T) {
	provider := inference.NewMock()
	provider.ChatFunc = func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
		return &inference.ChatResponse{Text: "Hello there.", FinishReason: "stop"}, nil
	}

	a, speaker, _ := newTestApp(t, provider)
	a.handleUtterance("hello")

	msgs := a.transcript.Messages()
	if len(msgs) != 2 {
		t.Fatalf("transcript has %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != transcript.RoleUser || msgs[0].Text != "hello" {
		t.Errorf("user turn = %+v", msgs[0])
	}
	if msgs[1].Role != transcript.RoleModel || msgs[1].Text != "Hello there." {
		t.Errorf("model turn = %+v", msgs[1])
	}

	spoken := speaker.Spoken()
	if len(spoken) != 1 || spoken[0] != "Hello there." {
		t.Errorf("spoken = %v", spoken)
	}
}

func TestHandleUtteranceProviderFailureStillSpeaks(t *testing.T) {
	provider := inference.WithError(errors.New("network down"))
	a, speaker, _ := newTestApp(t, provider)

	a.handleUtterance("turn on the lights")

	msgs := a.transcript.Messages()
	if len(msgs) != 2 {
		t.Fatalf("transcript has %d messages, want 2", len(msgs))
	}
	if msgs[1].Text != assistant.FallbackOffline {
		t.Errorf("model turn = %q, want offline fallback", msgs[1].Text)
	}
	if spoken := speaker.Spoken(); len(spoken) != 1 || spoken[0] != assistant.FallbackOffline {
		t.Errorf("spoken = %v", spoken)
	}

	// No mutation happened.
	if a.state.Snapshot().Lights {
		t.Error("lights mutated despite provider failure")
	}
}

func TestUtteranceWorkerProcessesQueue(t *testing.T) {
	provider := inference.NewMock()
	a, _, _ := newTestApp(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.workerWg.Add(1)
	go a.utteranceWorker(ctx)

	a.Enqueue("first")
	a.Enqueue("second")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.transcript.Len() == 4 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := a.transcript.Len(); got != 4 {
		t.Fatalf("transcript has %d messages, want 4", got)
	}

	msgs := a.transcript.Messages()
	if msgs[0].Text != "first" || msgs[2].Text != "second" {
		t.Errorf("utterances processed out of order: %q, %q", msgs[0].Text, msgs[2].Text)
	}

	cancel()
	a.workerWg.Wait()
}

func TestCaptureLoopFeedsPipeline(t *testing.T) {
	provider := inference.NewMock()
	a, _, capture := newTestApp(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.workerWg.Add(2)
	go a.utteranceWorker(ctx)
	go a.captureLoop(ctx)

	if err := capture.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	capture.Emit("lock the front door")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.transcript.Len() == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	msgs := a.transcript.Messages()
	if len(msgs) != 2 || msgs[0].Text != "lock the front door" {
		t.Fatalf("transcript = %+v", msgs)
	}

	cancel()
	a.workerWg.Wait()
}

func TestToggleMic(t *testing.T) {
	a, _, capture := newTestApp(t, inference.NewMock())

	listening, err := a.toggleMic()
	if err != nil {
		t.Fatalf("toggleMic() error = %v", err)
	}
	if !listening {
		t.Error("toggleMic() = false, want true")
	}
	if capture.State() != speech.Listening {
		t.Errorf("capture state = %v, want Listening", capture.State())
	}

	listening, err = a.toggleMic()
	if err != nil {
		t.Fatalf("toggleMic() error = %v", err)
	}
	if listening {
		t.Error("second toggleMic() = true, want false")
	}
	if capture.State() != speech.Idle {
		t.Errorf("capture state = %v, want Idle", capture.State())
	}
}

func TestToggleMicStartError(t *testing.T) {
	a, _, capture := newTestApp(t, inference.NewMock())
	capture.StartErr = errors.New("gateway offline")

	if _, err := a.toggleMic(); err == nil {
		t.Error("toggleMic() = nil error, want failure")
	}
	if a.webServer.Snapshot().Listening {
		t.Error("listening flag set despite start failure")
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	a, _, _ := newTestApp(t, inference.NewMock())

	for i := 0; i < utteranceQueueSize+5; i++ {
		a.Enqueue("utterance")
	}
	if got := len(a.utterances); got != utteranceQueueSize {
		t.Errorf("queue length = %d, want %d", got, utteranceQueueSize)
	}
}
