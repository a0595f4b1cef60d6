package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/quillmesh/logging"
)

// ErrEmptyResponse is returned by Complete when a model finished without text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Role of a message author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Request captures the normalized model input produced by agents.
type Request struct {
	Instructions string    `json:"instructions"` // system prompt
	Messages     []Message `json:"messages"`
	Stream       bool      `json:"stream,omitempty"`
	// JSON asks the provider for a JSON object response where supported.
	JSON bool `json:"json,omitempty"`
}

// Prompt returns the text of the last user message.
func (r Request) Prompt() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Text
		}
	}
	return ""
}

// NewPrompt builds a single-turn request.
func NewPrompt(instructions, prompt string) Request {
	return Request{
		Instructions: instructions,
		Messages:     []Message{{Role: RoleUser, Text: prompt}},
	}
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"`
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "ollama", "anthropic", "mock"
}

// Model is the minimal interface required by agents to drive generation.
//
// Generate emits zero or more partial responses followed by one final
// response on the first channel, or a single error on the second. Both
// channels are closed when generation ends.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Complete drains a Generate call and returns the final response. Partial
// chunks are concatenated when a provider's final chunk carries no text.
func Complete(ctx context.Context, m Model, req Request, logger logging.Logger) (*Response, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	start := time.Now()
	respCh, errCh := m.Generate(ctx, req)

	var (
		final   *Response
		partial strings.Builder
	)

	for r := range respCh {
		if r.Partial {
			partial.WriteString(r.Text)
			continue
		}
		final = &r
	}

	err := <-errCh
	if err == nil && final == nil && partial.Len() > 0 {
		final = &Response{Text: partial.String(), FinishReason: "stop"}
	}
	if err == nil && final != nil && final.Text == "" {
		final.Text = partial.String()
	}
	if err == nil && (final == nil || strings.TrimSpace(final.Text) == "") {
		err = ErrEmptyResponse
	}

	tokens := 0
	if final != nil && final.Usage != nil {
		tokens = final.Usage.TotalTokens
	}

	logging.LogLLMCall(logger, m.Info().Name, tokens, time.Since(start), err)

	if err != nil {
		return nil, err
	}

	return final, nil
}

// MockModel is a lightweight in-memory Model useful for tests and examples.
type MockModel struct {
	info Info

	mu        sync.Mutex
	responses map[string]string
	responder func(Request) (string, error)
	requests  []Request
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetResponder installs a function that computes the completion for any
// request without a canned response.
func (m *MockModel) SetResponder(fn func(Request) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = fn
}

// Requests returns the requests received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Generate implements Model; emits optional streaming word chunks then the final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	full, ok := m.responses[req.Prompt()]
	responder := m.responder
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if len(req.Messages) == 0 {
			errCh <- fmt.Errorf("no messages provided")
			return
		}

		if !ok {
			if responder == nil {
				full = fmt.Sprintf("Mock response to: %s", req.Prompt())
			} else {
				var err error
				if full, err = responder(req); err != nil {
					errCh <- err
					return
				}
			}
		}

		if req.Stream {
			for _, w := range strings.SplitAfter(full, " ") {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: w}:
				}
			}
		}

		respCh <- Response{
			Partial:      false,
			Text:         full,
			FinishReason: "stop",
			Usage:        &TokenUsage{CompletionTokens: len(strings.Fields(full)), TotalTokens: len(strings.Fields(full))},
		}
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
