package llm

import (
	"context"
	"fmt"
	"strings"
)

// mockClient returns a deterministic digest without calling any API.
// It is selected with LLM_API_KEY=mock for local runs.
type mockClient struct{}

// NewMock creates a completer that echoes the first lines of the prompt.
func NewMock() Completer {
	return mockClient{}
}

func (mockClient) Complete(_ context.Context, req Request) (Completion, error) {
	lines := strings.Split(strings.TrimSpace(req.UserPrompt), "\n")

	var sb strings.Builder

	sb.WriteString("*Digest*\n")

	for _, line := range lines[1:] {
		sb.WriteString(fmt.Sprintf("- %s\n", line))
	}

	return Completion{Text: sb.String(), Model: mockModel}, nil
}
