// Package assistant orchestrates the conversational round-trip between the
// user, the Gemini backend, and the command dispatcher.
//
// One Respond call is one exchange: build the persona instruction from the
// current home state, offer the command schemas as tools, execute whatever
// invocations the model requests, and feed each result back for a
// natural-language confirmation. Responses never fail: every error path
// collapses to a fixed spoken string.
package assistant

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/omnihome/omnihome/pkg/command"
	"github.com/omnihome/omnihome/pkg/home"
	"github.com/omnihome/omnihome/pkg/inference"
)

// Fixed response strings. These are spoken aloud, so they stay short.
const (
	// FallbackNoText is returned when the backend produced no usable text.
	FallbackNoText = "I'm sorry, I didn't catch that."

	// FallbackOffline is returned on any backend transport failure.
	FallbackOffline = "I'm having trouble connecting to the smart home network right now."

	// FallbackExecuted confirms a command when the backend returned no
	// confirmation text of its own.
	FallbackExecuted = "Command executed."
)

// samplingTemperature for assistant generations.
const samplingTemperature = 0.7

// Responder generates assistant replies for user utterances.
type Responder struct {
	provider   inference.Provider
	state      *home.State
	dispatcher *command.Dispatcher
	model      string
	logger     *slog.Logger
}

// ResponderOption configures a Responder.
type ResponderOption func(*Responder)

// WithModel overrides the generation model.
func WithModel(model string) ResponderOption {
	return func(r *Responder) { r.model = model }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ResponderOption {
	return func(r *Responder) { r.logger = l.With("component", "assistant") }
}

// NewResponder creates a Responder bound to a backend provider, the home
// state, and the dispatcher that mutates it.
func NewResponder(provider inference.Provider, state *home.State, dispatcher *command.Dispatcher, opts ...ResponderOption) *Responder {
	r := &Responder{
		provider:   provider,
		state:      state,
		dispatcher: dispatcher,
		logger:     slog.Default().With("component", "assistant"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Respond produces the assistant's reply to one user utterance.
//
// If the model requests function invocations they are dispatched in the
// order the backend returned them, each followed by a confirmation request
// with no tools offered. When several invocations are requested, only the
// last confirmation survives; earlier ones are discarded. Transport
// failures return FallbackOffline without retrying, and any mutations
// dispatched before the failure are kept.
func (r *Responder) Respond(ctx context.Context, utterance string) string {
	system := personaInstruction(r.state.Snapshot())

	first, err := r.provider.Chat(ctx, &inference.ChatRequest{
		System:      system,
		Messages:    []inference.Message{inference.NewUserMessage(utterance)},
		Tools:       Tools(),
		Temperature: samplingTemperature,
		Model:       r.model,
	})
	if err != nil {
		r.logger.Error("backend request failed", "error", err)
		return FallbackOffline
	}

	if !first.HasFunctionCalls() {
		if first.Text != "" {
			return first.Text
		}
		return FallbackNoText
	}

	// The model turn carried back on the confirmation request is the full
	// first response: its text, if any, and every requested call.
	modelTurn := inference.Message{
		Role:          inference.RoleModel,
		Content:       first.Text,
		FunctionCalls: first.FunctionCalls,
	}

	final := ""
	for _, call := range first.FunctionCalls {
		result, derr := r.dispatcher.Execute(call.Name, call.Args)
		if derr != nil {
			// Invalid arguments never abort the exchange; the error text
			// becomes the function result so the model can apologize.
			r.logger.Warn("command rejected", "command", call.Name, "error", derr)
			result = derr.Error()
		} else {
			r.logger.Info("command dispatched", "command", call.Name, "result", result)
		}

		second, err := r.provider.Chat(ctx, &inference.ChatRequest{
			System: system,
			Messages: []inference.Message{
				inference.NewUserMessage(utterance),
				modelTurn,
				inference.NewFunctionResultMessage(call.Name, result),
			},
			Temperature: samplingTemperature,
			Model:       r.model,
		})
		if err != nil {
			r.logger.Error("confirmation request failed", "command", call.Name, "error", err)
			return FallbackOffline
		}

		if second.Text != "" {
			final = second.Text
		} else {
			final = FallbackExecuted
		}
	}

	return final
}

// personaInstruction builds the system instruction embedding the current
// home state.
func personaInstruction(snap home.Snapshot) string {
	stateJSON, _ := json.Marshal(snap)

	return `You are OmniHome, a helpful, witty, and professional smart home assistant.
You have control over lights, temperature, door locks, and music.
Current Home State: ` + string(stateJSON) + `.

When a user asks to change something, use the provided tools.
If the tool is successful, confirm it to the user in a concise, friendly manner.
If you are just chatting, be conversational.
Keep responses short (under 2 sentences) as they will be spoken aloud.
Behave like a futuristic AI assistant (think JARVIS meets Siri).`
}
