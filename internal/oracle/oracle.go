// Package oracle wraps the LLM that reviews an agent's trading day and
// proposes memory mutations. The model's output is free text; parse.go
// recovers the decision object from it.
package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Oracle produces a raw decision text for a review prompt.
type Oracle interface {
	Decide(ctx context.Context, prompt string) (string, error)
}

// Decision is the structured verdict recovered from the oracle's output.
// NeedTool false means the review concluded without a memory mutation.
type Decision struct {
	ReflectionSummary string        `json:"reflection_summary"`
	NeedTool          bool          `json:"need_tool"`
	SelectedTool      *SelectedTool `json:"selected_tool,omitempty"`
}

// SelectedTool names the single mutation a review wants executed.
type SelectedTool struct {
	ToolName   string                 `json:"tool_name"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
}

const maxDecisionTokens = 2048

// Anthropic is an Oracle backed by the Anthropic Messages API.
type Anthropic struct {
	client      anthropic.Client
	model       string
	temperature float64
}

// NewAnthropic creates an Oracle using the given model and sampling
// temperature.
func NewAnthropic(apiKey, model string, temperature float64) *Anthropic {
	return &Anthropic{
		client:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		temperature: temperature,
	}
}

func (a *Anthropic) Decide(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   maxDecisionTokens,
		Temperature: anthropic.Float(a.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
