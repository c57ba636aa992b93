package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/selahlabs/selah/internal/domain"
	"github.com/selahlabs/selah/internal/llm"
	"github.com/selahlabs/selah/internal/logger"
	"github.com/selahlabs/selah/internal/tts"
)

// TextGenerator is the model-fallback text generation contract.
type TextGenerator interface {
	Generate(ctx context.Context, fieldTemplate string, tctx map[string]string, maxTokens int) (value, modelUsed string, err error)
}

// AudioSynthesizer is the speech synthesis contract.
type AudioSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) (*tts.Result, error)
}

// ImageGenerator synthesizes an image (with internal retry) and migrates it
// to durable storage.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DevotionalStore persists finished records.
type DevotionalStore interface {
	Save(ctx context.Context, d *domain.Devotional) (string, error)
}

// PlaylistLinker reconciles playlist memberships for a persisted record.
type PlaylistLinker interface {
	Reconcile(ctx context.Context, names []string, positions map[string]int, categoryID, devotionalID string) []PlaylistLinkResult
}

// PipelineConfig is the static configuration a Pipeline is built with, loaded
// once per process rather than re-fetched per field.
type PipelineConfig struct {
	FieldTemplates       map[Field]string // missing entries fall back to the built-in templates
	ImageTemplate        string
	MinImagePromptLength int
	DefaultVoice         string
	MainTextMaxTokens    int
	FieldMaxTokens       int
}

// Pipeline turns one GenerationRequest into a fully assembled devotional:
// generated text fields, synthesized narration, an optional cover image, a
// persisted record, and playlist memberships.
type Pipeline struct {
	text      TextGenerator
	audio     AudioSynthesizer
	image     ImageGenerator
	store     DevotionalStore
	playlists PlaylistLinker

	templates     map[Field]string
	imageTemplate string
	minImageLen   int
	defaultVoice  string
	mainTokens    int
	fieldTokens   int
}

// NewPipeline creates a Pipeline.
func NewPipeline(
	text TextGenerator,
	audio AudioSynthesizer,
	image ImageGenerator,
	store DevotionalStore,
	playlists PlaylistLinker,
	cfg *PipelineConfig,
) *Pipeline {
	templates := DefaultFieldTemplates()
	for f, tpl := range cfg.FieldTemplates {
		if tpl != "" {
			templates[f] = tpl
		}
	}

	minImageLen := cfg.MinImagePromptLength
	if minImageLen <= 0 {
		minImageLen = 12
	}
	mainTokens := cfg.MainTextMaxTokens
	if mainTokens <= 0 {
		mainTokens = 1600
	}
	fieldTokens := cfg.FieldMaxTokens
	if fieldTokens <= 0 {
		fieldTokens = 300
	}

	return &Pipeline{
		text:          text,
		audio:         audio,
		image:         image,
		store:         store,
		playlists:     playlists,
		templates:     templates,
		imageTemplate: cfg.ImageTemplate,
		minImageLen:   minImageLen,
		defaultVoice:  cfg.DefaultVoice,
		mainTokens:    mainTokens,
		fieldTokens:   fieldTokens,
	}
}

// Generate runs the pipeline for a single request and returns its result.
func (p *Pipeline) Generate(ctx context.Context, req GenerationRequest) *PipelineResult {
	res := NewPipelineResult(req)
	p.Run(ctx, req, res)
	return res
}

// Run executes the pipeline phases against a caller-owned result, so batch
// callers can observe per-step progress while the run is in flight.
func (p *Pipeline) Run(ctx context.Context, req GenerationRequest, res *PipelineResult) {
	res.start()

	// Phase 1: main text (required). Only the request-level context is
	// visible here.
	tctx := map[string]string{
		"theme":           req.Theme,
		"scripturalBasis": req.ScripturalBasis,
	}

	res.markStep(StepMainText, StatusRunning, "")
	mainText, model, err := p.text.Generate(ctx, p.templates[FieldMainText], tctx, p.mainTokens)
	if mainText == "" {
		if err != nil {
			logger.FromContext(ctx).WithError(err).Error("Main text generation failed")
		}
		res.fail(StepMainText, "failed to generate main text")
		return
	}
	res.setField(FieldMainText, mainText)
	res.setModelUsed(model)
	res.markStep(StepMainText, StatusSuccess, "")
	tctx[string(FieldMainText)] = mainText

	// Phase 2: derived fields (parallel, best-effort)
	p.runDerivedFields(ctx, req, res, tctx)

	// Phase 3: narration audio (required)
	res.markStep(StepAudio, StatusRunning, "")
	script := buildNarrationScript(
		res.fieldValue(FieldPreparation),
		mainText,
		res.fieldValue(FieldFinalMessage),
	)
	voice := req.VoiceID
	if voice == "" {
		voice = p.defaultVoice
	}
	audioResult, err := p.audio.Synthesize(ctx, script, voice)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("Audio synthesis failed")
		res.fail(StepAudio, "failed to generate audio")
		return
	}
	res.setAudio(audioResult.AudioURL, audioResult.VoiceID, audioResult.DurationSeconds)
	res.markStep(StepAudio, StatusSuccess, "")

	// Phase 4: cover image (best-effort)
	p.runImage(ctx, res, tctx)

	// Phase 5: persist
	res.markStep(StepPersist, StatusRunning, "")
	record := &domain.Devotional{
		Title:           res.fieldValue(FieldTitle),
		Subtitle:        res.fieldValue(FieldSubtitle),
		Description:     res.fieldValue(FieldDescription),
		Theme:           req.Theme,
		ScripturalBasis: req.ScripturalBasis,
		CategoryID:      req.CategoryID,
		Preparation:     res.fieldValue(FieldPreparation),
		MainText:        mainText,
		FinalMessage:    res.fieldValue(FieldFinalMessage),
		Transcript:      script,
		AudioURL:        audioResult.AudioURL,
		DurationSeconds: audioResult.DurationSeconds,
		VoiceID:         audioResult.VoiceID,
		ImageURL:        res.imageURLCopy(),
		ModelUsed:       model,
		Status:          domain.DevotionalStatusPublished,
	}
	id, err := p.store.Save(ctx, record)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("Failed to persist devotional")
		res.fail(StepPersist, "failed to save")
		return
	}
	res.setDevotionalID(id)
	res.markStep(StepPersist, StatusSuccess, "")

	// Phase 6: playlist links (best-effort)
	if len(req.PlaylistNames) == 0 {
		res.markStep(StepPlaylists, StatusSkipped, "no playlists requested")
	} else {
		res.markStep(StepPlaylists, StatusRunning, "")
		links := p.playlists.Reconcile(ctx, req.PlaylistNames, req.DesiredPositions, req.CategoryID, id)
		res.setPlaylists(links)
		res.markStep(StepPlaylists, StatusSuccess, summarizeLinks(links))
	}

	res.succeed()
}

// runDerivedFields fans out the six best-effort field generations and waits
// for all of them to settle. A failure or empty result in one field never
// cancels the others.
func (p *Pipeline) runDerivedFields(ctx context.Context, req GenerationRequest, res *PipelineResult, tctx map[string]string) {
	res.markStep(StepDerivedFields, StatusRunning, "")

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		empty []string
	)
	for _, field := range derivedFields {
		wg.Add(1)
		go func(f Field) {
			defer wg.Done()
			value, _, err := p.text.Generate(ctx, p.templates[f], tctx, p.fieldTokens)
			if err != nil {
				logger.FromContext(ctx).WithFields(logger.Fields{
					"field": string(f),
				}).WithError(err).Warn("Derived field generation failed")
			}
			if value == "" {
				mu.Lock()
				empty = append(empty, string(f))
				mu.Unlock()
				return
			}
			res.setField(f, value)
		}(field)
	}
	wg.Wait()

	// A missing generated title falls back to the request's original title.
	if res.fieldValue(FieldTitle) == "" {
		res.setField(FieldTitle, req.Title)
	}

	message := ""
	if len(empty) > 0 {
		sort.Strings(empty)
		message = "empty fields: " + strings.Join(empty, ", ")
	}
	res.markStep(StepDerivedFields, StatusSuccess, message)

	// Extend the shared context after the join; subsequent templates may
	// reference any derived field.
	for _, f := range derivedFields {
		if v := res.fieldValue(f); v != "" {
			tctx[string(f)] = v
		}
	}
}

// runImage attempts cover image generation when a usable prompt exists. Any
// failure is a warning; the item stays successful with a null image URL.
func (p *Pipeline) runImage(ctx context.Context, res *PipelineResult, tctx map[string]string) {
	prompt := res.fieldValue(FieldImagePrompt)
	if len(prompt) < p.minImageLen {
		res.markStep(StepImage, StatusSkipped, "image prompt missing or too short")
		return
	}

	res.markStep(StepImage, StatusRunning, "")
	compiled := llm.Render(p.imageTemplate, tctx)
	if compiled == "" {
		compiled = prompt
	}
	url, err := p.image.Generate(ctx, compiled)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Image generation failed, continuing without cover image")
		res.markStep(StepImage, StatusError, "failed to generate image")
		return
	}
	res.setImageURL(url)
	res.markStep(StepImage, StatusSuccess, "")
}

// buildNarrationScript concatenates the narration parts, omitting empty ones,
// separated by a blank line.
func buildNarrationScript(preparation, mainText, finalMessage string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{preparation, mainText, finalMessage} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, strings.TrimSpace(part))
		}
	}
	return strings.Join(parts, "\n\n")
}

func summarizeLinks(links []PlaylistLinkResult) string {
	skipped := 0
	for _, l := range links {
		if l.Action == LinkSkipped {
			skipped++
		}
	}
	if skipped == 0 {
		return ""
	}
	return fmt.Sprintf("%d of %d playlists skipped", skipped, len(links))
}
