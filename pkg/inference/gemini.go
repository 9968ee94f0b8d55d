package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omnihome/omnihome/internal/httpc"
)

const providerGemini = "gemini"

// Gemini implements the Provider interface for Google's Gemini
// generateContent API, including function calling.
type Gemini struct {
	apiKey string
	config *Config
	http   *http.Client
	logger *slog.Logger
}

// NewGemini creates a Gemini provider.
func NewGemini(opts ...Option) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, WrapError(providerGemini, ErrNoAPIKey)
	}

	return &Gemini{
		apiKey: cfg.APIKey,
		config: cfg,
		http:   httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "inference.gemini"),
	}, nil
}

// Chat generates a chat completion, honoring tool declarations.
func (g *Gemini) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = g.config.Model
	}

	payload := g.buildPayload(req)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("marshal payload: %w", err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimSuffix(g.config.BaseURL, "/"), model, g.apiKey)

	resp, err := g.doWithRetry(ctx, url, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, g.parseError(resp)
	}

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(providerGemini, fmt.Errorf("decode response: %w", err))
	}

	if result.Error.Message != "" {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    result.Error.Message,
			Provider:   providerGemini,
		}
	}

	if len(result.Candidates) == 0 {
		return nil, WrapError(providerGemini, ErrNoContent)
	}

	candidate := result.Candidates[0]

	out := &ChatResponse{
		FinishReason: candidate.FinishReason,
		Model:        model,
		LatencyMs:    time.Since(start).Milliseconds(),
	}

	// A candidate carries text parts, functionCall parts, or both. Part
	// order is the backend's invocation order and must be preserved.
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			out.FunctionCalls = append(out.FunctionCalls, FunctionCall{
				ID:   uuid.NewString(),
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		}
	}
	out.Text = strings.TrimSpace(text.String())

	g.logger.Debug("chat completed",
		"model", model,
		"function_calls", len(out.FunctionCalls),
		"latency_ms", out.LatencyMs,
	)

	return out, nil
}

// Health checks API connectivity with a minimal generation call.
func (g *Gemini) Health(ctx context.Context) error {
	_, err := g.Chat(ctx, &ChatRequest{
		Messages:  []Message{NewUserMessage("ping")},
		MaxTokens: 1,
	})
	return err
}

// Close releases resources.
func (g *Gemini) Close() error {
	g.http.CloseIdleConnections()
	return nil
}

// buildPayload constructs the generateContent request body.
func (g *Gemini) buildPayload(req *ChatRequest) map[string]any {
	contents := make([]map[string]any, 0, len(req.Messages))
	for _, msg := range req.Messages {
		var parts []map[string]any

		if msg.Content != "" {
			parts = append(parts, map[string]any{"text": msg.Content})
		}
		for _, call := range msg.FunctionCalls {
			parts = append(parts, map[string]any{
				"functionCall": map[string]any{
					"name": call.Name,
					"args": call.Args,
				},
			})
		}
		if msg.FunctionResult != nil {
			parts = append(parts, map[string]any{
				"functionResponse": map[string]any{
					"name":     msg.FunctionResult.Name,
					"response": map[string]any{"result": msg.FunctionResult.Response},
				},
			})
		}

		contents = append(contents, map[string]any{
			"role":  string(msg.Role),
			"parts": parts,
		})
	}

	temp := req.Temperature
	if temp == 0 {
		temp = g.config.Temperature
	}
	generationConfig := map[string]any{"temperature": temp}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.config.MaxTokens
	}
	if maxTokens > 0 {
		generationConfig["maxOutputTokens"] = maxTokens
	}

	payload := map[string]any{
		"contents":         contents,
		"generationConfig": generationConfig,
	}

	if req.System != "" {
		payload["systemInstruction"] = map[string]any{
			"parts": []map[string]any{{"text": req.System}},
		}
	}

	if len(req.Tools) > 0 {
		declarations := make([]map[string]any, len(req.Tools))
		for i, t := range req.Tools {
			declarations[i] = map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			}
		}
		payload["tools"] = []map[string]any{
			{"functionDeclarations": declarations},
		}
	}

	return payload
}

// doWithRetry posts the payload, retrying transient failures.
func (g *Gemini) doWithRetry(ctx context.Context, url string, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(g.config.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return nil, WrapError(providerGemini, fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.http.Do(req)
		if err != nil {
			lastErr = WrapError(providerGemini, err)
			g.logger.Warn("request failed, retrying",
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			lastErr = g.parseError(resp)
			resp.Body.Close()
			g.logger.Warn("retrying request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads and parses an error response.
func (g *Gemini) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerGemini,
	}
}

// geminiResponse is the generateContent response format.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

type geminiPart struct {
	Text         string `json:"text"`
	FunctionCall *struct {
		Name string         `json:"name"`
		Args map[string]any `json:"args"`
	} `json:"functionCall"`
}

// Verify Gemini implements Provider at compile time.
var _ Provider = (*Gemini)(nil)
