package imagegen

import (
	"context"
	"errors"
	"testing"
)

type scriptedBackend struct {
	outcomes []func() (string, error)
	calls    int
}

func (b *scriptedBackend) Synthesize(ctx context.Context, prompt string) (string, error) {
	idx := b.calls
	b.calls++
	if idx >= len(b.outcomes) {
		return "", errors.New("unexpected extra call")
	}
	return b.outcomes[idx]()
}

type passthroughMigrator struct {
	calls []string
}

func (m *passthroughMigrator) Migrate(ctx context.Context, url string) string {
	m.calls = append(m.calls, url)
	return "durable://" + url
}

func TestServiceGenerate(t *testing.T) {
	synthErr := errors.New("synthesis failed")

	tests := []struct {
		name      string
		outcomes  []func() (string, error)
		wantURL   string
		wantErr   error
		wantCalls int
	}{
		{
			name: "first attempt succeeds",
			outcomes: []func() (string, error){
				func() (string, error) { return "eph-1", nil },
			},
			wantURL:   "durable://eph-1",
			wantCalls: 1,
		},
		{
			name: "retry after one failure",
			outcomes: []func() (string, error){
				func() (string, error) { return "", synthErr },
				func() (string, error) { return "eph-2", nil },
			},
			wantURL:   "durable://eph-2",
			wantCalls: 2,
		},
		{
			name: "both attempts fail",
			outcomes: []func() (string, error){
				func() (string, error) { return "", synthErr },
				func() (string, error) { return "", synthErr },
			},
			wantErr:   synthErr,
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &scriptedBackend{outcomes: tt.outcomes}
			migrator := &passthroughMigrator{}
			svc := NewService(backend, migrator)

			url, err := svc.Generate(context.Background(), "sunrise over hills")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if url != tt.wantURL {
				t.Errorf("url = %q, want %q", url, tt.wantURL)
			}
			if backend.calls != tt.wantCalls {
				t.Errorf("synthesize calls = %d, want %d", backend.calls, tt.wantCalls)
			}
			if tt.wantErr != nil && len(migrator.calls) != 0 {
				t.Errorf("migrator should not run after synthesis failure, calls = %v", migrator.calls)
			}
		})
	}
}
