package agent

import (
	"fmt"
	"strings"
)

// --- Core message types ---

// Part is one content element of a message: text or an image reference.
type Part struct {
	Type  string `json:"type"`            // "text" or "image"
	Text  string `json:"text,omitempty"`  // set when Type == PartText
	Image string `json:"image,omitempty"` // base64 payload, set when Type == PartImage
}

// Message represents one turn in the conversation context. Content is an
// ordered sequence of parts; part order is preserved by every operation.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content []Part `json:"content"`
}

// --- Role and part constants ---

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	PartText  = "text"
	PartImage = "image"
)

// ValidRole returns true if r is a known message role.
func ValidRole(r string) bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// --- Constructors ---

// SystemMessage creates a system message with a single text part.
func SystemMessage(prompt string) Message {
	return Message{
		Role:    RoleSystem,
		Content: []Part{{Type: PartText, Text: prompt}},
	}
}

// UserMessage creates a user message. The text part is always present; an
// image part follows it iff image is non-empty.
func UserMessage(text, image string) Message {
	parts := []Part{{Type: PartText, Text: text}}
	if image != "" {
		parts = append(parts, Part{Type: PartImage, Image: image})
	}
	return Message{Role: RoleUser, Content: parts}
}

// AssistantMessage creates an assistant message embedding the model's
// reasoning and action halves in tagged form, so the model can later be
// shown its own past decisions verbatim and either half can be recovered.
func AssistantMessage(thinking, action string) Message {
	return Message{
		Role:    RoleAssistant,
		Content: []Part{{Type: PartText, Text: fmt.Sprintf("<think>%s</think><answer>%s</answer>", thinking, action)}},
	}
}

// RemoveImages returns a copy of msg with all image parts removed. Text
// parts and their order are untouched. Idempotent: a message without image
// parts is returned as-is.
func RemoveImages(msg Message) Message {
	hasImage := false
	for _, p := range msg.Content {
		if p.Type == PartImage {
			hasImage = true
			break
		}
	}
	if !hasImage {
		return msg
	}

	parts := make([]Part, 0, len(msg.Content))
	for _, p := range msg.Content {
		if p.Type != PartImage {
			parts = append(parts, p)
		}
	}
	return Message{Role: msg.Role, Content: parts}
}

// Text returns the concatenated text parts of the message.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Content {
		if p.Type == PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// HasImage returns true if the message carries at least one image part.
func (m Message) HasImage() bool {
	for _, p := range m.Content {
		if p.Type == PartImage {
			return true
		}
	}
	return false
}

// --- Messages chain type ---

// Messages is an ordered conversation context.
type Messages []Message

// Last returns the last message, or a zero Message if empty.
func (m Messages) Last() Message {
	if len(m) == 0 {
		return Message{}
	}
	return m[len(m)-1]
}

// Len returns the number of messages.
func (m Messages) Len() int {
	return len(m)
}

// ByRole returns messages with the given role.
func (m Messages) ByRole(role string) Messages {
	var out Messages
	for _, msg := range m {
		if msg.Role == role {
			out = append(out, msg)
		}
	}
	return out
}

// ImageCount returns the number of messages carrying image data. The
// compaction protocol keeps this at most 1 no matter how long a task runs.
func (m Messages) ImageCount() int {
	n := 0
	for _, msg := range m {
		if msg.HasImage() {
			n++
		}
	}
	return n
}
