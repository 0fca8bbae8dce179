package llm

import (
	"bytes"
	"encoding/json"
	"strings"
)

const (
	// DefaultSystemPrompt is sent as the system message when none is configured.
	DefaultSystemPrompt = "You produce latinized ASCII-only names."
	requestTemperature  = 0.2
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
}

// RenderPrompt substitutes the literal {title} and {album} tokens. Values are
// inserted once; tokens appearing inside the values are left alone.
func RenderPrompt(template, title, album string) string {
	return strings.NewReplacer("{title}", title, "{album}", album).Replace(template)
}

// BuildRequestBody encodes the chat-completion request. HTML escaping is
// disabled so non-ASCII text and <, >, & are sent as-is.
func BuildRequestBody(model, systemPrompt, userPrompt string) ([]byte, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultSystemPrompt
	}
	payload := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream:      false,
		Temperature: requestTemperature,
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
