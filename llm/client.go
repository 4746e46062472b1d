package llm

import (
	"context"

	"pilot_server/agent"
)

// Client is the interface for the reasoning model.
type Client interface {
	// Call sends the full ordered context and returns the model's next
	// decision. It may be long-running; cancel via ctx.
	Call(ctx context.Context, msgs agent.Messages) (*StepResponse, error)
}

// StepResponse is one model decision, split into its reasoning and action
// halves.
type StepResponse struct {
	Thinking string `json:"thinking"` // contents of the <think> block
	Action   string `json:"action"`   // contents of the <answer> block
	Raw      string `json:"raw"`      // untouched model output
}

// Config holds the model endpoint settings (the `model` section of the
// config file).
type Config struct {
	BaseURL        string   `yaml:"base_url"`
	ModelName      string   `yaml:"model_name"`
	APIKey         string   `yaml:"api_key"`
	Temperature    *float64 `yaml:"temperature"`
	MaxTokens      int      `yaml:"max_tokens"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}
