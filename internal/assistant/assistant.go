// Package assistant asks the completion API a question on behalf of the bot.
package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/ziadkadry99/aiqa/internal/llm"
)

var (
	// ErrRequestFailed is returned when the API answers with no choices.
	ErrRequestFailed = errors.New("request failed")
	// ErrNoContent is returned when the chosen answer is empty.
	ErrNoContent = errors.New("no content")
)

// Assistant prepends the bot persona to each conversation and returns the
// model's answer.
type Assistant struct {
	provider llm.Provider
	model    string
}

// New creates an Assistant that uses model through provider.
func New(provider llm.Provider, model string) *Assistant {
	return &Assistant{provider: provider, model: model}
}

// Complete sends the persona followed by turns and returns the answer text.
func (a *Assistant) Complete(ctx context.Context, turns []llm.Message) (string, error) {
	messages := make([]llm.Message, 0, len(turns)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: Persona})
	messages = append(messages, turns...)

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Model:    a.model,
		Messages: messages,
		TextMode: true,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp == nil || resp.Choices == 0 {
		return "", ErrRequestFailed
	}
	if resp.Content == "" {
		return "", ErrNoContent
	}
	return resp.Content, nil
}
