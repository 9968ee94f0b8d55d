package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestGemini(t *testing.T, serverURL string) *Gemini {
	t.Helper()
	g, err := NewGemini(
		WithBaseURL(serverURL),
		WithAPIKey("test-key"),
		WithModel("gemini-2.5-flash"),
		WithRetry(1, time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewGemini() error = %v", err)
	}
	return g
}

func TestGeminiRequiresAPIKey(t *testing.T) {
	_, err := NewGemini()
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestGeminiChatBuildsRequest(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.5-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing API key in query")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hi there."}]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	g := newTestGemini(t, server.URL)
	defer g.Close()

	resp, err := g.Chat(context.Background(), &ChatRequest{
		System:      "You are OmniHome.",
		Temperature: 0.7,
		Messages:    []Message{NewUserMessage("Turn on the lights")},
		Tools: []Tool{{
			Name:        "toggle_lights",
			Description: "Turn the smart lights on or off.",
			Parameters:  map[string]any{"type": "object"},
		}},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Text != "Hi there." {
		t.Errorf("Text = %q", resp.Text)
	}

	if _, ok := captured["systemInstruction"]; !ok {
		t.Error("systemInstruction missing from payload")
	}
	if _, ok := captured["tools"]; !ok {
		t.Error("tools missing from payload")
	}
	gen, _ := captured["generationConfig"].(map[string]any)
	if gen["temperature"] != 0.7 {
		t.Errorf("temperature = %v, want 0.7", gen["temperature"])
	}
	contents, _ := captured["contents"].([]any)
	if len(contents) != 1 {
		t.Fatalf("expected 1 content turn, got %d", len(contents))
	}
}

func TestGeminiChatOmitsToolsWhenNoneDeclared(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer server.Close()

	g := newTestGemini(t, server.URL)
	defer g.Close()

	if _, err := g.Chat(context.Background(), &ChatRequest{
		Messages: []Message{NewUserMessage("hello")},
	}); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if _, ok := captured["tools"]; ok {
		t.Error("tools must be omitted when none are declared")
	}
}

func TestGeminiChatParsesFunctionCallsInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[
			{"functionCall":{"name":"toggle_lights","args":{"state":true}}},
			{"functionCall":{"name":"toggle_music","args":{"playing":false}}}
		]},"finishReason":"STOP"}]}`))
	}))
	defer server.Close()

	g := newTestGemini(t, server.URL)
	defer g.Close()

	resp, err := g.Chat(context.Background(), &ChatRequest{
		Messages: []Message{NewUserMessage("lights on, music off")},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if len(resp.FunctionCalls) != 2 {
		t.Fatalf("expected 2 function calls, got %d", len(resp.FunctionCalls))
	}
	if resp.FunctionCalls[0].Name != "toggle_lights" || resp.FunctionCalls[1].Name != "toggle_music" {
		t.Errorf("function call order not preserved: %+v", resp.FunctionCalls)
	}
	if state, ok := resp.FunctionCalls[0].Args["state"].(bool); !ok || !state {
		t.Errorf("args not decoded: %+v", resp.FunctionCalls[0].Args)
	}
	if resp.FunctionCalls[0].ID == "" || resp.FunctionCalls[0].ID == resp.FunctionCalls[1].ID {
		t.Error("function calls must get distinct synthesized IDs")
	}
}

func TestGeminiFunctionResultSerialization(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Done."}]}}]}`))
	}))
	defer server.Close()

	g := newTestGemini(t, server.URL)
	defer g.Close()

	calls := []FunctionCall{{ID: "c1", Name: "toggle_lights", Args: map[string]any{"state": true}}}
	_, err := g.Chat(context.Background(), &ChatRequest{
		Messages: []Message{
			NewUserMessage("lights on"),
			NewFunctionCallMessage(calls),
			NewFunctionResultMessage("toggle_lights", "Lights turned ON."),
		},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	contents, _ := captured["contents"].([]any)
	if len(contents) != 3 {
		t.Fatalf("expected 3 content turns, got %d", len(contents))
	}
	fn, _ := contents[2].(map[string]any)
	if fn["role"] != "function" {
		t.Errorf("third turn role = %v, want function", fn["role"])
	}
}

func TestGeminiChatErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid argument","code":400}}`))
	}))
	defer server.Close()

	g := newTestGemini(t, server.URL)
	defer g.Close()

	_, err := g.Chat(context.Background(), &ChatRequest{
		Messages: []Message{NewUserMessage("hi")},
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if apiErr.Message != "invalid argument" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestGeminiChatRetriesServerError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"recovered"}]}}]}`))
	}))
	defer server.Close()

	g := newTestGemini(t, server.URL)
	defer g.Close()

	resp, err := g.Chat(context.Background(), &ChatRequest{
		Messages: []Message{NewUserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Text != "recovered" {
		t.Errorf("Text = %q", resp.Text)
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestGeminiChatNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	g := newTestGemini(t, server.URL)
	defer g.Close()

	_, err := g.Chat(context.Background(), &ChatRequest{
		Messages: []Message{NewUserMessage("hi")},
	})
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("expected ErrNoContent, got %v", err)
	}
}
