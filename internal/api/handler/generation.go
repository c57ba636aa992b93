package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/selahlabs/selah/internal/logger"
	"github.com/selahlabs/selah/internal/service"
)

// GenerationHandler exposes the content-generation pipeline and its batch
// orchestrator over HTTP.
type GenerationHandler struct {
	pipeline     *service.Pipeline
	orchestrator *service.Orchestrator
	registry     *service.BatchRegistry
}

// NewGenerationHandler creates a new generation handler.
func NewGenerationHandler(
	pipeline *service.Pipeline,
	orchestrator *service.Orchestrator,
	registry *service.BatchRegistry,
) *GenerationHandler {
	return &GenerationHandler{
		pipeline:     pipeline,
		orchestrator: orchestrator,
		registry:     registry,
	}
}

// Generate runs one pipeline synchronously and returns the result.
// POST /api/v1/generate
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req service.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.pipeline.Generate(c.Request.Context(), req)
	view := result.Snapshot()

	status := http.StatusOK
	if view.Status == service.StatusError {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, view)
}

// BatchRequest is the batch submission payload.
type BatchRequest struct {
	Requests []service.GenerationRequest `json:"requests" binding:"required"`
}

// SubmitBatch validates a batch and starts it asynchronously.
// POST /api/v1/batches
func (h *GenerationHandler) SubmitBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.orchestrator.NewJob(req.Requests)
	if err != nil {
		if errors.Is(err, service.ErrBatchTooLarge) || errors.Is(err, service.ErrBatchEmpty) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.registry.Add(job)

	// The batch outlives the HTTP request: detach from the request
	// context but keep its logger fields for tracing.
	ctx := logger.FromContext(c.Request.Context()).WithContext(context.Background())
	go h.orchestrator.Run(ctx, job)

	c.JSON(http.StatusAccepted, gin.H{
		"id":    job.ID,
		"total": len(req.Requests),
		"state": job.State(),
	})
}

// ListBatches returns progress snapshots for all known batches.
// GET /api/v1/batches
func (h *GenerationHandler) ListBatches(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"batches": h.registry.List()})
}

// GetBatch returns a progress snapshot.
// GET /api/v1/batches/:id
func (h *GenerationHandler) GetBatch(c *gin.Context) {
	job := h.registry.Get(c.Param("id"))
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}
	c.JSON(http.StatusOK, job.Progress())
}

// PauseBatch requests a cooperative pause.
// POST /api/v1/batches/:id/pause
func (h *GenerationHandler) PauseBatch(c *gin.Context) {
	h.signal(c, func(job *service.BatchJob) { job.Pause() })
}

// ResumeBatch releases a paused batch.
// POST /api/v1/batches/:id/resume
func (h *GenerationHandler) ResumeBatch(c *gin.Context) {
	h.signal(c, func(job *service.BatchJob) { job.Resume() })
}

// CancelBatch stops the batch before its next item.
// POST /api/v1/batches/:id/cancel
func (h *GenerationHandler) CancelBatch(c *gin.Context) {
	h.signal(c, func(job *service.BatchJob) { job.Cancel() })
}

func (h *GenerationHandler) signal(c *gin.Context, fn func(*service.BatchJob)) {
	job := h.registry.Get(c.Param("id"))
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}
	fn(job)
	c.JSON(http.StatusOK, gin.H{"id": job.ID, "state": job.State()})
}
