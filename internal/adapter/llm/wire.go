package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jgardner/reviewflow/internal/domain"
)

const defaultMaxTokens = 4096

// anthropicVersion is required by providers speaking the messages format.
const anthropicVersion = "2023-06-01"

// wireFormat is one of the closed set of provider envelope handlers. The
// two formats differ in request body shape, auth header convention, and
// the field path that holds the reply text.
type wireFormat interface {
	// BuildBody marshals the request payload for this format.
	BuildBody(model, prompt string) ([]byte, error)
	// ApplyAuth sets the provider auth header on the request.
	ApplyAuth(header http.Header, headerName, credential string)
	// ExtractText pulls the reply text out of the response envelope.
	ExtractText(body []byte) (string, error)
}

// formatFor selects the handler for a profile's wire format.
func formatFor(format string) (wireFormat, error) {
	switch format {
	case domain.WireFormatChatCompletions:
		return chatCompletionsFormat{}, nil
	case domain.WireFormatMessages:
		return messagesFormat{}, nil
	default:
		return nil, fmt.Errorf("unsupported wire format %q", format)
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionsFormat speaks the OpenAI-style chat completion protocol:
// bearer auth, reply text at choices[0].message.content.
type chatCompletionsFormat struct{}

type chatCompletionsRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatCompletionsResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (chatCompletionsFormat) BuildBody(model, prompt string) ([]byte, error) {
	return json.Marshal(chatCompletionsRequest{
		Model:       model,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: 0,
		MaxTokens:   defaultMaxTokens,
	})
}

func (chatCompletionsFormat) ApplyAuth(header http.Header, headerName, credential string) {
	if headerName == "" {
		headerName = "Authorization"
	}
	header.Set(headerName, "Bearer "+credential)
}

func (chatCompletionsFormat) ExtractText(body []byte) (string, error) {
	var resp chatCompletionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode chat-completions response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat-completions response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// messagesFormat speaks the Anthropic-style messages protocol: raw API-key
// header, reply text at content[0].text.
type messagesFormat struct{}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (messagesFormat) BuildBody(model, prompt string) ([]byte, error) {
	return json.Marshal(messagesRequest{
		Model:     model,
		MaxTokens: defaultMaxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
}

func (messagesFormat) ApplyAuth(header http.Header, headerName, credential string) {
	if headerName == "" {
		headerName = "x-api-key"
	}
	header.Set(headerName, credential)
	header.Set("anthropic-version", anthropicVersion)
}

func (messagesFormat) ExtractText(body []byte) (string, error) {
	var resp messagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode messages response: %w", err)
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" || block.Type == "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("messages response has no text content")
	}
	return strings.Join(parts, ""), nil
}

// relayRequest is the body posted to a relay endpoint in proxy mode: the
// composed provider request plus the raw credential the relay forwards.
type relayRequest struct {
	Provider   string          `json:"provider"`
	WireFormat string          `json:"wireFormat"`
	Credential string          `json:"credential"`
	Body       json.RawMessage `json:"body"`
}

// relayPathSuffix is appended to the configured relay base URL.
const relayPathSuffix = "/api/relay"
