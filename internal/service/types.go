package service

import (
	"sync"

	"github.com/selahlabs/selah/internal/prompts"
)

// Field names the generated text fields of a devotional.
type Field string

const (
	FieldTitle        Field = "title"
	FieldSubtitle     Field = "subtitle"
	FieldDescription  Field = "description"
	FieldPreparation  Field = "preparation"
	FieldMainText     Field = "mainText"
	FieldFinalMessage Field = "finalMessage"
	FieldImagePrompt  Field = "imagePrompt"
)

// derivedFields are generated concurrently once mainText is in context.
// All of them are best-effort.
var derivedFields = []Field{
	FieldPreparation,
	FieldFinalMessage,
	FieldTitle,
	FieldSubtitle,
	FieldDescription,
	FieldImagePrompt,
}

// DefaultFieldTemplates returns the built-in prompt template per field.
func DefaultFieldTemplates() map[Field]string {
	return map[Field]string{
		FieldMainText:     prompts.MainTextTemplate,
		FieldPreparation:  prompts.PreparationTemplate,
		FieldFinalMessage: prompts.FinalMessageTemplate,
		FieldTitle:        prompts.TitleTemplate,
		FieldSubtitle:     prompts.SubtitleTemplate,
		FieldDescription:  prompts.DescriptionTemplate,
		FieldImagePrompt:  prompts.ImagePromptTemplate,
	}
}

// GenerationRequest is the input to one pipeline run. Immutable once
// submitted.
type GenerationRequest struct {
	Title            string         `json:"title" binding:"required"`
	Theme            string         `json:"theme" binding:"required"`
	ScripturalBasis  string         `json:"scriptural_basis" binding:"required"`
	CategoryID       string         `json:"category_id"`
	PlaylistNames    []string       `json:"playlist_names"`
	DesiredPositions map[string]int `json:"desired_positions"` // playlist name -> 1-based position
	VoiceID          string         `json:"voice_id"`
}

// Step names one phase of the item pipeline.
type Step string

const (
	StepMainText      Step = "main_text"
	StepDerivedFields Step = "derived_fields"
	StepAudio         Step = "audio"
	StepImage         Step = "image"
	StepPersist       Step = "persist"
	StepPlaylists     Step = "playlists"
)

// Steps lists the pipeline phases in execution order.
var Steps = []Step{
	StepMainText,
	StepDerivedFields,
	StepAudio,
	StepImage,
	StepPersist,
	StepPlaylists,
}

// StepStatus is the state of one pipeline step (and of the item overall).
// Statuses only move forward: pending -> running -> success or error.
type StepStatus string

const (
	StatusPending StepStatus = "pending"
	StatusRunning StepStatus = "running"
	StatusSuccess StepStatus = "success"
	StatusError   StepStatus = "error"
	StatusSkipped StepStatus = "skipped"
)

func (s StepStatus) terminal() bool {
	return s == StatusSuccess || s == StatusError || s == StatusSkipped
}

// rank orders statuses so transitions can only move forward.
func (s StepStatus) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusRunning:
		return 1
	default:
		return 2
	}
}

// StepResult is the status of one step plus a short human-readable reason.
type StepResult struct {
	Status  StepStatus `json:"status"`
	Message string     `json:"message,omitempty"`
}

// LinkAction is the action the playlist reconciler took for one playlist.
type LinkAction string

const (
	LinkInserted LinkAction = "inserted"
	LinkUpdated  LinkAction = "updated"
	LinkNoop     LinkAction = "noop"
	LinkSkipped  LinkAction = "skipped"
)

// PlaylistLinkResult reports the per-playlist outcome of reconciliation.
type PlaylistLinkResult struct {
	Name       string     `json:"name"`
	PlaylistID string     `json:"playlist_id,omitempty"`
	Action     LinkAction `json:"action"`
	Position   *int       `json:"position,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// PipelineResult accumulates the output of one pipeline run. It is mutated
// only through its methods (the derived-fields phase writes concurrently) and
// is append-only: step statuses never move backward. Snapshot produces the
// frozen view handed to callers.
type PipelineResult struct {
	mu sync.RWMutex

	request GenerationRequest

	status StepStatus
	errMsg string
	steps  map[Step]*StepResult
	fields map[Field]string

	modelUsed       string
	audioURL        string
	voiceIDUsed     string
	durationSeconds float64
	imageURL        *string
	devotionalID    string
	playlists       []PlaylistLinkResult
}

// NewPipelineResult creates a result with every step pending.
func NewPipelineResult(req GenerationRequest) *PipelineResult {
	steps := make(map[Step]*StepResult, len(Steps))
	for _, s := range Steps {
		steps[s] = &StepResult{Status: StatusPending}
	}
	return &PipelineResult{
		request: req,
		status:  StatusPending,
		steps:   steps,
		fields:  make(map[Field]string),
	}
}

// Request returns the originating request.
func (r *PipelineResult) Request() GenerationRequest {
	return r.request
}

// start marks the item as running.
func (r *PipelineResult) start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusPending {
		r.status = StatusRunning
	}
}

// markStep moves a step forward. Backward transitions are ignored so the
// status table stays append-only.
func (r *PipelineResult) markStep(step Step, status StepStatus, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sr := r.steps[step]
	if sr == nil {
		return
	}
	if status.rank() < sr.Status.rank() || sr.Status.terminal() {
		return
	}
	sr.Status = status
	if message != "" {
		sr.Message = message
	}
}

// fail records a fatal-to-item step failure and finalizes the item as error.
func (r *PipelineResult) fail(step Step, message string) {
	r.markStep(step, StatusError, message)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusError
	r.errMsg = message
}

// succeed finalizes the item as success.
func (r *PipelineResult) succeed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusSuccess
}

func (r *PipelineResult) setField(f Field, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields[f] = value
}

func (r *PipelineResult) fieldValue(f Field) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fields[f]
}

func (r *PipelineResult) setModelUsed(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modelUsed = model
}

func (r *PipelineResult) setAudio(url, voiceID string, durationSeconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audioURL = url
	r.voiceIDUsed = voiceID
	r.durationSeconds = durationSeconds
}

func (r *PipelineResult) setImageURL(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imageURL = &url
}

func (r *PipelineResult) imageURLCopy() *string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.imageURL == nil {
		return nil
	}
	u := *r.imageURL
	return &u
}

func (r *PipelineResult) setDevotionalID(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devotionalID = id
}

func (r *PipelineResult) setPlaylists(links []PlaylistLinkResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playlists = links
}

// Status returns the item's overall status.
func (r *PipelineResult) Status() StepStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// ResultView is the frozen, serializable view of a PipelineResult.
type ResultView struct {
	Title           string               `json:"title"`
	Status          StepStatus           `json:"status"`
	Error           string               `json:"error,omitempty"`
	Steps           map[Step]StepResult  `json:"steps"`
	Fields          map[Field]string     `json:"fields"`
	ModelUsed       string               `json:"model_used,omitempty"`
	AudioURL        string               `json:"audio_url,omitempty"`
	VoiceIDUsed     string               `json:"voice_id_used,omitempty"`
	DurationSeconds float64              `json:"duration_seconds,omitempty"`
	ImageURL        *string              `json:"image_url"`
	DevotionalID    string               `json:"devotional_id,omitempty"`
	Playlists       []PlaylistLinkResult `json:"playlists,omitempty"`
}

// Snapshot returns a deep copy safe to serialize while the run continues.
func (r *PipelineResult) Snapshot() ResultView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	steps := make(map[Step]StepResult, len(r.steps))
	for k, v := range r.steps {
		steps[k] = *v
	}
	fields := make(map[Field]string, len(r.fields))
	for k, v := range r.fields {
		fields[k] = v
	}
	var imageURL *string
	if r.imageURL != nil {
		u := *r.imageURL
		imageURL = &u
	}
	playlists := make([]PlaylistLinkResult, len(r.playlists))
	copy(playlists, r.playlists)

	return ResultView{
		Title:           r.request.Title,
		Status:          r.status,
		Error:           r.errMsg,
		Steps:           steps,
		Fields:          fields,
		ModelUsed:       r.modelUsed,
		AudioURL:        r.audioURL,
		VoiceIDUsed:     r.voiceIDUsed,
		DurationSeconds: r.durationSeconds,
		ImageURL:        imageURL,
		DevotionalID:    r.devotionalID,
		Playlists:       playlists,
	}
}
