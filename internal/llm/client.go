package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	client      *resty.Client
	endpoint    string
	temperature float64
}

// ClientConfig holds configuration for the text completion client.
type ClientConfig struct {
	APIKey      string
	BaseURL     string
	Temperature float64
}

// NewClient creates a new text completion client.
func NewClient(cfg *ClientConfig) *Client {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(120 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &Client{
		client:      client,
		endpoint:    baseURL + "/chat/completions",
		temperature: cfg.Temperature,
	}
}

// OpenAI-compatible Chat Completion API request/response structures
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete issues one completion call against the given model with the fixed
// sampling temperature and the caller's token budget. Failures are returned as
// *BackendError so the fallback loop can classify them.
func (c *Client) Complete(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	req := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   maxTokens,
	}

	var resp chatResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(c.endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to call text backend: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		body := string(httpResp.Body())
		message := body
		if resp.Error != nil {
			message = resp.Error.Message
		}
		return "", &BackendError{
			Class:   classify(httpResp.StatusCode(), body),
			Model:   model,
			Status:  httpResp.StatusCode(),
			Message: message,
		}
	}

	if resp.Error != nil {
		return "", &BackendError{
			Class:   classify(httpResp.StatusCode(), resp.Error.Message),
			Model:   model,
			Status:  httpResp.StatusCode(),
			Message: resp.Error.Message,
		}
	}

	if len(resp.Choices) == 0 {
		return "", &BackendError{
			Class:   ErrClassOther,
			Model:   model,
			Status:  httpResp.StatusCode(),
			Message: "no choices in response",
		}
	}

	return resp.Choices[0].Message.Content, nil
}
