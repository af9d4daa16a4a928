// Package classifier adapts external semantic spam classifiers.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"aufseher/internal/metrics"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Defaults for Options.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"
)

const promptTemplate = "Check if the following message is spam. " +
	"Spam is defined as any message that contains advertisements " +
	"(e.g., crypto currency promotions, selling illegal data) " +
	"or any other form of clearly unwanted content. " +
	"If you are not sure if the message is spam, classify it as not spam. " +
	"Only classify it as spam if you are certain. " +
	"Format your reply as a JSON string. " +
	"If the message is spam, reply `{\"spam\": true}`. " +
	"If the message is not spam, reply `{\"spam\": false}`. " +
	"Reply in plain text. Do not use code blocks. " +
	"Message:\n%s"

// Options configures the OpenAI classifier.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAI asks a chat-completions model whether a message is spam.
type OpenAI struct {
	client HTTPClient
	url    string
	apiKey string
	model  string
}

// NewOpenAI creates an OpenAI classifier. Empty Model and BaseURL fall back
// to the defaults.
func NewOpenAI(client HTTPClient, opts Options) *OpenAI {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	return &OpenAI{
		client: client,
		url:    strings.TrimRight(opts.BaseURL, "/") + "/chat/completions",
		apiKey: opts.APIKey,
		model:  opts.Model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type spamReply struct {
	Spam *bool `json:"spam"`
}

// IsSpam returns the model's verdict for text. Any response that is not a
// successful completion whose content is exactly {"spam": bool} is an error.
func (c *OpenAI) IsSpam(ctx context.Context, text string) (bool, error) {
	spam, err := c.classify(ctx, text)
	switch {
	case err != nil:
		metrics.ClassifierRequests.WithLabelValues("error").Inc()
	case spam:
		metrics.ClassifierRequests.WithLabelValues("spam").Inc()
	default:
		metrics.ClassifierRequests.WithLabelValues("ham").Inc()
	}
	return spam, err
}

func (c *OpenAI) classify(ctx context.Context, text string) (bool, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Temperature: 0.7,
		Messages:    []chatMessage{{Role: "user", Content: fmt.Sprintf(promptTemplate, text)}},
	})
	if err != nil {
		return false, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("openai request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("openai request failed: status %d", resp.StatusCode)
	}

	var completion chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&completion); err != nil {
		return false, fmt.Errorf("decode completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return false, errors.New("openai response has no choices")
	}

	return parseReply(completion.Choices[0].Message.Content)
}

func parseReply(content string) (bool, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()

	var reply spamReply
	if err := dec.Decode(&reply); err != nil {
		return false, fmt.Errorf("parse openai reply %q: %w", content, err)
	}
	if dec.More() {
		return false, fmt.Errorf("parse openai reply %q: trailing data", content)
	}
	if reply.Spam == nil {
		return false, fmt.Errorf("parse openai reply %q: missing spam field", content)
	}
	return *reply.Spam, nil
}
