package llm

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   ErrorClass
	}{
		{name: "401 unauthorized", status: 401, body: "", want: ErrClassUnauthorized},
		{name: "403 forbidden", status: 403, body: "", want: ErrClassUnauthorized},
		{name: "429 rate limited", status: 429, body: "", want: ErrClassRateLimited},
		{name: "404 model unavailable", status: 404, body: "", want: ErrClassModelUnavailable},
		{name: "400 with model not found", status: 400, body: `{"error":{"message":"The model 'gpt-x' not found"}}`, want: ErrClassModelUnavailable},
		{name: "400 with model does not exist", status: 400, body: "model does not exist", want: ErrClassModelUnavailable},
		{name: "400 with invalid model", status: 400, body: "Invalid model identifier", want: ErrClassModelUnavailable},
		{name: "400 with unknown model", status: 400, body: "Unknown model: foo", want: ErrClassModelUnavailable},
		{name: "400 not found without model keyword", status: 400, body: "resource not found", want: ErrClassOther},
		{name: "500 server error", status: 500, body: "internal server error", want: ErrClassOther},
		{name: "400 generic", status: 400, body: "bad request", want: ErrClassOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.status, tt.body)
			if got != tt.want {
				t.Errorf("classify(%d, %q) = %s, want %s", tt.status, tt.body, got, tt.want)
			}
		})
	}
}

func TestIsModelUnavailable(t *testing.T) {
	unavailable := &BackendError{Class: ErrClassModelUnavailable, Model: "m", Status: 404}
	if !IsModelUnavailable(unavailable) {
		t.Error("expected model-unavailable error to be recognized")
	}
	if IsModelUnavailable(&BackendError{Class: ErrClassRateLimited}) {
		t.Error("rate-limited error should not be model-unavailable")
	}
	if IsModelUnavailable(errors.New("plain error")) {
		t.Error("plain error should not be model-unavailable")
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unauthorized is fatal", err: &BackendError{Class: ErrClassUnauthorized}, want: true},
		{name: "rate limited is fatal", err: &BackendError{Class: ErrClassRateLimited}, want: true},
		{name: "other is fatal", err: &BackendError{Class: ErrClassOther}, want: true},
		{name: "model unavailable is not fatal", err: &BackendError{Class: ErrClassModelUnavailable}, want: false},
		{name: "unclassified error fails closed", err: errors.New("boom"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
