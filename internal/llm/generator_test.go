package llm

import (
	"context"
	"reflect"
	"testing"
)

// fakeBackend maps model names to canned outcomes and records call order.
type fakeBackend struct {
	responses map[string]string
	errors    map[string]error
	calls     []string
}

func (f *fakeBackend) Complete(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	f.calls = append(f.calls, model)
	if err, ok := f.errors[model]; ok {
		return "", err
	}
	return f.responses[model], nil
}

func TestCandidateList(t *testing.T) {
	tests := []struct {
		name      string
		preferred string
		baseline  []string
		want      []string
	}{
		{
			name:      "preferred prepended",
			preferred: "alpha",
			baseline:  []string{"beta", "gamma"},
			want:      []string{"alpha", "beta", "gamma"},
		},
		{
			name:      "duplicate preferred collapsed",
			preferred: "beta",
			baseline:  []string{"beta", "gamma"},
			want:      []string{"beta", "gamma"},
		},
		{
			name:      "duplicates inside baseline collapsed",
			preferred: "alpha",
			baseline:  []string{"beta", "alpha", "beta"},
			want:      []string{"alpha", "beta"},
		},
		{
			name:      "empty preferred skipped",
			preferred: "",
			baseline:  []string{"beta"},
			want:      []string{"beta"},
		},
		{
			name:      "empty baseline entries skipped",
			preferred: "alpha",
			baseline:  []string{"", "beta"},
			want:      []string{"alpha", "beta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CandidateList(tt.preferred, tt.baseline)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CandidateList(%q, %v) = %v, want %v", tt.preferred, tt.baseline, got, tt.want)
			}
		})
	}
}

func TestGeneratorFallsBackOnModelUnavailable(t *testing.T) {
	backend := &fakeBackend{
		responses: map[string]string{"second": "  generated text  "},
		errors: map[string]error{
			"first": &BackendError{Class: ErrClassModelUnavailable, Model: "first", Status: 404},
		},
	}
	gen := NewGenerator(backend, "first", []string{"second", "third"})

	value, model, err := gen.Generate(context.Background(), "Write about {theme}", map[string]string{"theme": "hope"}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "generated text" {
		t.Errorf("value = %q, want trimmed %q", value, "generated text")
	}
	if model != "second" {
		t.Errorf("modelUsed = %q, want %q", model, "second")
	}
	if !reflect.DeepEqual(backend.calls, []string{"first", "second"}) {
		t.Errorf("call order = %v, want [first second]", backend.calls)
	}
}

func TestGeneratorStopsOnFatalError(t *testing.T) {
	fatal := &BackendError{Class: ErrClassUnauthorized, Model: "first", Status: 401}
	backend := &fakeBackend{
		responses: map[string]string{"second": "never reached"},
		errors:    map[string]error{"first": fatal},
	}
	gen := NewGenerator(backend, "first", []string{"second"})

	value, model, err := gen.Generate(context.Background(), "prompt {theme}", map[string]string{"theme": "x"}, 100)
	if err != fatal {
		t.Fatalf("expected fatal error returned, got %v", err)
	}
	if value != "" || model != "" {
		t.Errorf("expected empty value and model, got %q / %q", value, model)
	}
	if len(backend.calls) != 1 {
		t.Errorf("expected loop to abort after first candidate, calls = %v", backend.calls)
	}
}

func TestGeneratorExhaustionReturnsLastError(t *testing.T) {
	firstErr := &BackendError{Class: ErrClassModelUnavailable, Model: "first", Status: 404}
	lastErr := &BackendError{Class: ErrClassModelUnavailable, Model: "second", Status: 404}
	backend := &fakeBackend{
		errors: map[string]error{"first": firstErr, "second": lastErr},
	}
	gen := NewGenerator(backend, "first", []string{"second"})

	value, model, err := gen.Generate(context.Background(), "prompt {theme}", map[string]string{"theme": "x"}, 100)
	if err != lastErr {
		t.Fatalf("expected last candidate's error, got %v", err)
	}
	if value != "" || model != "" {
		t.Errorf("expected empty value and model, got %q / %q", value, model)
	}
	if len(backend.calls) != 2 {
		t.Errorf("expected both candidates tried, calls = %v", backend.calls)
	}
}

func TestGeneratorEmptyRenderSkipsBackend(t *testing.T) {
	backend := &fakeBackend{}
	gen := NewGenerator(backend, "first", nil)

	value, model, err := gen.Generate(context.Background(), "{unset}", map[string]string{}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "" || model != "" {
		t.Errorf("expected empty value and model for empty render, got %q / %q", value, model)
	}
	if len(backend.calls) != 0 {
		t.Errorf("backend should not be called for an empty prompt, calls = %v", backend.calls)
	}
}
