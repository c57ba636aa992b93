package tts

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Result is the outcome of one speech synthesis call.
type Result struct {
	AudioURL        string  `json:"audio_url"`
	VoiceID         string  `json:"voice_id"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Client calls the speech synthesis backend.
type Client struct {
	client       *resty.Client
	endpoint     string
	defaultVoice string
}

// ClientConfig holds configuration for the speech synthesis client.
type ClientConfig struct {
	APIKey       string
	BaseURL      string
	DefaultVoice string
}

// NewClient creates a new speech synthesis client.
func NewClient(cfg *ClientConfig) *Client {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	// Narration synthesis of a full devotional can take a while
	client.SetTimeout(180 * time.Second)

	return &Client{
		client:       client,
		endpoint:     cfg.BaseURL + "/audio/speech",
		defaultVoice: cfg.DefaultVoice,
	}
}

// DefaultVoice returns the configured fallback voice id.
func (c *Client) DefaultVoice() string {
	return c.defaultVoice
}

type speechRequest struct {
	Input string `json:"input"`
	Voice string `json:"voice"`
}

type speechResponse struct {
	AudioURL        string  `json:"audio_url"`
	Voice           string  `json:"voice"`
	DurationSeconds float64 `json:"duration_seconds"`
	Error           *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Synthesize submits the narration text with the given voice and returns a
// playable URL plus duration. An empty voiceID falls back to the configured
// default voice.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) (*Result, error) {
	voice := voiceID
	if voice == "" {
		voice = c.defaultVoice
	}

	req := speechRequest{
		Input: text,
		Voice: voice,
	}

	var resp speechResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(c.endpoint)

	if err != nil {
		return nil, fmt.Errorf("failed to call speech backend: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d", httpResp.StatusCode())
		if resp.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		} else if len(httpResp.Body()) > 0 {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
		}
		return nil, fmt.Errorf("speech backend returned error: %s", errorMsg)
	}

	if resp.AudioURL == "" {
		return nil, fmt.Errorf("speech backend returned empty audio URL")
	}

	voiceUsed := resp.Voice
	if voiceUsed == "" {
		voiceUsed = voice
	}

	return &Result{
		AudioURL:        resp.AudioURL,
		VoiceID:         voiceUsed,
		DurationSeconds: resp.DurationSeconds,
	}, nil
}
