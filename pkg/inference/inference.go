// Package inference provides the LLM backend boundary for omnihome.
//
// The package abstracts chat generation with function calling behind a
// Provider interface. The concrete backend is Google's Gemini
// generateContent API; a Mock provider supports testing without network
// access.
//
// Example usage:
//
//	client, _ := inference.NewGemini(
//	    inference.WithAPIKey(os.Getenv("GEMINI_API_KEY")),
//	    inference.WithModel("gemini-2.5-flash"),
//	)
//	defer client.Close()
//
//	resp, _ := client.Chat(ctx, &inference.ChatRequest{
//	    System:   "You are a smart home assistant.",
//	    Messages: []inference.Message{inference.NewUserMessage("Turn on the lights")},
//	    Tools:    tools,
//	})
package inference

import "context"

// Provider is the chat inference interface.
// All implementations must satisfy this interface.
type Provider interface {
	// Chat generates a response from a sequence of conversation turns.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// ChatRequest for chat generation.
type ChatRequest struct {
	// Messages is the conversation so far, oldest first.
	Messages []Message

	// System is the persona/system instruction for this request.
	System string

	// Model overrides the default model.
	Model string

	// Temperature controls randomness (0.0-2.0).
	Temperature float64

	// MaxTokens limits the response length. Zero means the provider default.
	MaxTokens int

	// Tools declares the functions the model may invoke. Empty means no
	// tools are offered this round.
	Tools []Tool
}

// ChatResponse from chat generation.
type ChatResponse struct {
	// Text is the direct text content, if any.
	Text string

	// FunctionCalls are the invocations the model requested, in the order
	// the backend returned them.
	FunctionCalls []FunctionCall

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Model used for generation.
	Model string

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}

// HasFunctionCalls reports whether the model requested any invocations.
func (r *ChatResponse) HasFunctionCalls() bool {
	return len(r.FunctionCalls) > 0
}
