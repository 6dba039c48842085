package client

import (
	"context"
	"net/http"
	"strings"
)

// promptUpdate is the PUT body; the server decides is_default itself.
type promptUpdate struct {
	Prompt string `json:"prompt"`
}

// GetSystemPrompt returns the prompt currently used for chat answers.
func (c *Client) GetSystemPrompt(ctx context.Context) (*SystemPrompt, error) {
	var p SystemPrompt
	if err := c.doJSON(ctx, http.MethodGet, systemPromptPath, nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateSystemPrompt replaces the server-held prompt. Blank prompts are
// rejected locally; the server treats them as a reset, which is what
// ResetSystemPrompt is for.
func (c *Client) UpdateSystemPrompt(ctx context.Context, prompt string) (*SystemPrompt, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, &ValidationError{Field: "prompt", Err: ErrEmptyPrompt}
	}

	var p SystemPrompt
	if err := c.doJSON(ctx, http.MethodPut, systemPromptPath, nil, promptUpdate{Prompt: prompt}, &p); err != nil {
		return nil, err
	}
	if p.Prompt == "" {
		p.Prompt = prompt
	}
	return &p, nil
}

// ResetSystemPrompt restores the server default and returns it.
func (c *Client) ResetSystemPrompt(ctx context.Context) (*SystemPrompt, error) {
	var p SystemPrompt
	if err := c.doJSON(ctx, http.MethodPost, promptResetPath, nil, nil, &p); err != nil {
		return nil, err
	}
	p.IsDefault = true
	return &p, nil
}
