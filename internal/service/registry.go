package service

import "sync"

// BatchRegistry tracks live batch jobs by ID so HTTP callers can address
// them. Jobs stay in the registry after completion until explicitly removed.
type BatchRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*BatchJob
}

// NewBatchRegistry creates an empty registry.
func NewBatchRegistry() *BatchRegistry {
	return &BatchRegistry{jobs: make(map[string]*BatchJob)}
}

// Add registers a job.
func (r *BatchRegistry) Add(job *BatchJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
}

// Get returns the job with the given ID, or nil.
func (r *BatchRegistry) Get(id string) *BatchJob {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jobs[id]
}

// Remove discards a job from the registry.
func (r *BatchRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

// List returns progress snapshots for all registered jobs.
func (r *BatchRegistry) List() []BatchProgress {
	r.mu.RLock()
	jobs := make([]*BatchJob, 0, len(r.jobs))
	for _, j := range r.jobs {
		jobs = append(jobs, j)
	}
	r.mu.RUnlock()

	out := make([]BatchProgress, len(jobs))
	for i, j := range jobs {
		out[i] = j.Progress()
	}
	return out
}
