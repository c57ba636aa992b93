package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSynthesize(t *testing.T) {
	var captured speechRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"audio_url":        "https://cdn.example.com/audio/abc.mp3",
			"voice":            captured.Voice,
			"duration_seconds": 182.4,
		})
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{APIKey: "k", BaseURL: server.URL, DefaultVoice: "river"})

	tests := []struct {
		name      string
		voiceID   string
		wantVoice string
	}{
		{name: "explicit voice", voiceID: "stone", wantVoice: "stone"},
		{name: "empty voice falls back to default", voiceID: "", wantVoice: "river"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := client.Synthesize(context.Background(), "narration text", tt.voiceID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if captured.Input != "narration text" {
				t.Errorf("request input = %q, want %q", captured.Input, "narration text")
			}
			if captured.Voice != tt.wantVoice {
				t.Errorf("request voice = %q, want %q", captured.Voice, tt.wantVoice)
			}
			if result.AudioURL != "https://cdn.example.com/audio/abc.mp3" {
				t.Errorf("audio URL = %q", result.AudioURL)
			}
			if result.VoiceID != tt.wantVoice {
				t.Errorf("voice used = %q, want %q", result.VoiceID, tt.wantVoice)
			}
			if result.DurationSeconds != 182.4 {
				t.Errorf("duration = %v, want 182.4", result.DurationSeconds)
			}
		})
	}
}

func TestSynthesizeBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"message":"voice model offline"}}`))
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{APIKey: "k", BaseURL: server.URL, DefaultVoice: "river"})

	_, err := client.Synthesize(context.Background(), "text", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "voice model offline") {
		t.Errorf("error %q should carry the backend message", err)
	}
}

func TestSynthesizeEmptyAudioURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"audio_url":"","duration_seconds":0}`))
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{APIKey: "k", BaseURL: server.URL})

	_, err := client.Synthesize(context.Background(), "text", "v")
	if err == nil {
		t.Fatal("expected error for empty audio URL")
	}
}
