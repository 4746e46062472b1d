package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pilot_server/agent"
)

// OpenAIClient implements Client against an OpenAI-compatible chat
// completions API (vLLM, Ollama, LiteLLM, etc.) serving a vision model.
// Screenshots travel as data-URL image parts in the user messages.
type OpenAIClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature *float64
	maxTokens   int
	client      *http.Client
}

// NewOpenAIClient creates a client from the model config section.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	timeout := 5 * time.Minute
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &OpenAIClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.ModelName,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      &http.Client{Timeout: timeout},
	}
}

// openaiRequest is the request body for the chat completions API.
// Message content is a string for system/assistant messages and a part
// array for user messages carrying an image.
type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openaiPart struct {
	Type     string          `json:"type"` // "text" or "image_url"
	Text     string          `json:"text,omitempty"`
	ImageURL *openaiImageURL `json:"image_url,omitempty"`
}

type openaiImageURL struct {
	URL string `json:"url"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Call sends the context and splits the model's tagged reply.
func (c *OpenAIClient) Call(ctx context.Context, msgs agent.Messages) (*StepResponse, error) {
	body, err := json.Marshal(openaiRequest{
		Model:       c.model,
		Messages:    encodeMessages(msgs),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model API error %d: %s", resp.StatusCode, string(data))
	}

	var parsed openaiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	content := parsed.Choices[0].Message.Content
	thinking, action := SplitResponse(content)
	return &StepResponse{Thinking: thinking, Action: action, Raw: content}, nil
}

// encodeMessages converts the session context into API messages. User
// messages with an image become part arrays; everything else is plain text.
func encodeMessages(msgs agent.Messages) []openaiMessage {
	out := make([]openaiMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != agent.RoleUser || !m.HasImage() {
			out = append(out, openaiMessage{Role: m.Role, Content: m.Text()})
			continue
		}

		parts := make([]openaiPart, 0, len(m.Content))
		for _, p := range m.Content {
			switch p.Type {
			case agent.PartText:
				parts = append(parts, openaiPart{Type: "text", Text: p.Text})
			case agent.PartImage:
				parts = append(parts, openaiPart{
					Type:     "image_url",
					ImageURL: &openaiImageURL{URL: "data:image/jpeg;base64," + p.Image},
				})
			}
		}
		out = append(out, openaiMessage{Role: m.Role, Content: parts})
	}
	return out
}

// SplitResponse separates the <think> and <answer> halves of the model
// output. Missing tags degrade gracefully: without an <answer> block the
// remaining text after the think block is the action.
func SplitResponse(content string) (thinking, action string) {
	rest := content
	if start := strings.Index(rest, "<think>"); start >= 0 {
		if end := strings.Index(rest[start:], "</think>"); end >= 0 {
			thinking = strings.TrimSpace(rest[start+len("<think>") : start+end])
			rest = rest[:start] + rest[start+end+len("</think>"):]
		}
	}
	if start := strings.Index(rest, "<answer>"); start >= 0 {
		inner := rest[start+len("<answer>"):]
		if end := strings.Index(inner, "</answer>"); end >= 0 {
			inner = inner[:end]
		}
		return thinking, strings.TrimSpace(inner)
	}
	return thinking, strings.TrimSpace(rest)
}
