package imagegen

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client calls an OpenAI-compatible image generation endpoint.
type Client struct {
	client   *resty.Client
	endpoint string
	model    string
}

// ClientConfig holds configuration for the image synthesis client.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewClient creates a new image synthesis client.
func NewClient(cfg *ClientConfig) *Client {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(120 * time.Second)

	return &Client{
		client:   client,
		endpoint: cfg.BaseURL + "/images/generations",
		model:    cfg.Model,
	}
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Synthesize submits a prompt and returns the (ephemeral) generated image URL.
func (c *Client) Synthesize(ctx context.Context, prompt string) (string, error) {
	req := imageRequest{
		Model:  c.model,
		Prompt: prompt,
		N:      1,
	}

	var resp imageResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(c.endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to call image backend: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d", httpResp.StatusCode())
		if resp.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		} else if len(httpResp.Body()) > 0 {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
		}
		return "", fmt.Errorf("image backend returned error: %s", errorMsg)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("image backend returned no image URL")
	}

	return resp.Data[0].URL, nil
}
