package llm

import (
	"context"
	"strings"

	"github.com/selahlabs/selah/internal/logger"
)

// CompletionBackend is the single-call contract the fallback generator drives.
type CompletionBackend interface {
	Complete(ctx context.Context, model, prompt string, maxTokens int) (string, error)
}

// Generator renders a field template against the generation context and tries
// an ordered list of candidate models until one succeeds or a fatal error is
// seen.
type Generator struct {
	backend    CompletionBackend
	candidates []string
}

// NewGenerator creates a Generator. The effective candidate list is the
// deployment's preferred model prepended to the baseline list, deduplicated
// with order preserved.
func NewGenerator(backend CompletionBackend, preferred string, baseline []string) *Generator {
	return &Generator{
		backend:    backend,
		candidates: CandidateList(preferred, baseline),
	}
}

// CandidateList prepends preferred to baseline, dropping duplicates while
// preserving order.
func CandidateList(preferred string, baseline []string) []string {
	raw := make([]string, 0, len(baseline)+1)
	if preferred != "" {
		raw = append(raw, preferred)
	}
	raw = append(raw, baseline...)

	seen := make(map[string]struct{}, len(raw))
	candidates := make([]string, 0, len(raw))
	for _, model := range raw {
		if model == "" {
			continue
		}
		if _, ok := seen[model]; ok {
			continue
		}
		seen[model] = struct{}{}
		candidates = append(candidates, model)
	}
	return candidates
}

// Candidates returns the effective candidate model list.
func (g *Generator) Candidates() []string {
	out := make([]string, len(g.candidates))
	copy(out, g.candidates)
	return out
}

// Generate renders fieldTemplate against tctx and walks the candidate list.
// A template that renders to empty/whitespace is an intentional skip: empty
// value, no model, no error. Model-unavailable errors advance to the next
// candidate; authorization, rate-limit, and unclassified errors abort the loop
// (fail closed). On exhaustion the value is empty and err describes the last
// failure. Callers treat an empty mainText as a hard failure and any other
// empty field as a soft omission.
func (g *Generator) Generate(ctx context.Context, fieldTemplate string, tctx map[string]string, maxTokens int) (value, modelUsed string, err error) {
	prompt := Render(fieldTemplate, tctx)
	if prompt == "" {
		return "", "", nil
	}

	var lastErr error
	for _, model := range g.candidates {
		result, callErr := g.backend.Complete(ctx, model, prompt, maxTokens)
		if callErr == nil {
			return strings.TrimSpace(result), model, nil
		}

		lastErr = callErr
		if IsModelUnavailable(callErr) {
			logger.FromContext(ctx).WithFields(logger.Fields{
				"model": model,
			}).WithError(callErr).Warn("Model unavailable, trying next candidate")
			continue
		}

		logger.FromContext(ctx).WithFields(logger.Fields{
			"model": model,
		}).WithError(callErr).Error("Text backend failure, aborting candidate loop")
		return "", "", callErr
	}

	return "", "", lastErr
}
