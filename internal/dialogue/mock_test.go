package dialogue

import (
	"context"

	"github.com/capitalize-ai/callcenter-agent/internal/llm"
)

// mockLLM is a scripted llm.Client for tests. Each call to Complete
// consumes the next scripted step.
type mockLLM struct {
	steps    []mockStep
	calls    int
	requests []*llm.CompletionRequest
}

type mockStep struct {
	resp *llm.CompletionResponse
	err  error
}

func (m *mockLLM) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.requests = append(m.requests, req)
	if m.calls >= len(m.steps) {
		return &llm.CompletionResponse{Content: "ok"}, nil
	}
	step := m.steps[m.calls]
	m.calls++
	return step.resp, step.err
}

func (m *mockLLM) Name() string {
	return "mock"
}

func (m *mockLLM) Models() []string {
	return nil
}

func respondWith(content string, promptTokens, completionTokens int, model string) mockStep {
	return mockStep{resp: &llm.CompletionResponse{
		Content: content,
		Model:   model,
		Usage: llm.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		FinishReason: "stop",
	}}
}

func failWith(err error) mockStep {
	return mockStep{err: err}
}
