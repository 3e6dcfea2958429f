package ai

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tmc/langchaingo/llms"

	"github.com/Istiyak4099/Airdrop/pkg/logger"
)

// fakeLLM returns canned responses and records every call.
type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     [][]llms.MessageContent
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return &llms.ContentResponse{}, nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: resp}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func textOf(m llms.MessageContent) string {
	if len(m.Parts) == 0 {
		return ""
	}
	if t, ok := m.Parts[0].(llms.TextContent); ok {
		return t.Text
	}
	return ""
}

func discardLogger() *slog.Logger {
	return logger.Discard()
}
