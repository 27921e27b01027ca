package scheduler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"fortidash/internal/models"
	"fortidash/internal/pkg/utils"
)

// scheduleDocument is the on-disk shape of the job collection.
type scheduleDocument struct {
	ScheduledReports []*models.ScheduledJob `json:"scheduled_reports"`
	LastUpdated      time.Time              `json:"last_updated"`
}

// Registry owns the durable collection of scheduled jobs. Every
// mutation rewrites the whole document. All access is serialized by a
// single mutex; the background loop and API handlers share it.
type Registry struct {
	path   string
	logger *zap.Logger

	mu   sync.Mutex
	jobs []*models.ScheduledJob

	now func() time.Time
}

// NewRegistry loads the stored schedule document from path. A missing,
// malformed or partially-shaped file degrades to an empty collection
// rather than failing construction.
func NewRegistry(path string, logger *zap.Logger) *Registry {
	r := &Registry{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
	r.load()
	return r
}

func (r *Registry) load() {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("Failed to read schedules file, starting empty",
				zap.String("path", r.path), zap.Error(err))
		}
		return
	}

	var doc scheduleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		r.logger.Warn("Malformed schedules file, starting empty",
			zap.String("path", r.path), zap.Error(err))
		return
	}

	// Tolerate a document with the wrong shape but valid JSON.
	for _, job := range doc.ScheduledReports {
		if job == nil || job.ID == "" {
			continue
		}
		r.jobs = append(r.jobs, job)
	}
}

// save rewrites the full document. Callers must hold r.mu.
func (r *Registry) save() error {
	doc := scheduleDocument{
		ScheduledReports: r.jobs,
		LastUpdated:      r.now(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schedules: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create schedules dir: %w", err)
		}
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write schedules: %w", err)
	}
	return nil
}

// Add creates a job from spec, assigns an id, computes the initial
// next-due time and persists. Kind/cadence values are stored as given;
// validating them is the caller's concern.
func (r *Registry) Add(spec models.JobSpec) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if spec.TimeOfDay == "" {
		spec.TimeOfDay = DefaultTimeOfDay
	}
	job := &models.ScheduledJob{
		ID:                  utils.GenerateUUID(),
		Name:                spec.Name,
		ReportKind:          spec.ReportKind,
		Cadence:             spec.Cadence,
		TimeOfDay:           spec.TimeOfDay,
		Recipients:          spec.Recipients,
		Enabled:             true,
		RoleScope:           spec.RoleScope,
		AgencyFilter:        spec.AgencyFilter,
		IncludeCampaignData: spec.IncludeCampaignData,
		NextDueAt:           NextDue(spec.Cadence, spec.TimeOfDay, now),
		CreatedAt:           now,
	}
	r.jobs = append(r.jobs, job)

	if err := r.save(); err != nil {
		r.logger.Error("Failed to persist schedules after add", zap.Error(err))
	}
	return job.ID
}

// Update applies a partial patch. A patched cadence or fire time
// forces a next-due recomputation from now. Returns false when the id
// is unknown; the collection is then left untouched.
func (r *Registry) Update(id string, patch models.JobPatch) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	job := r.find(id)
	if job == nil {
		return false
	}

	recompute := false
	if patch.Name != nil {
		job.Name = *patch.Name
	}
	if patch.ReportKind != nil {
		job.ReportKind = *patch.ReportKind
	}
	if patch.Cadence != nil {
		job.Cadence = *patch.Cadence
		recompute = true
	}
	if patch.TimeOfDay != nil {
		job.TimeOfDay = *patch.TimeOfDay
		recompute = true
	}
	if patch.Recipients != nil {
		job.Recipients = *patch.Recipients
	}
	if patch.Enabled != nil {
		job.Enabled = *patch.Enabled
	}
	if patch.RoleScope != nil {
		job.RoleScope = *patch.RoleScope
	}
	if patch.AgencyFilter != nil {
		job.AgencyFilter = *patch.AgencyFilter
	}
	if patch.IncludeCampaignData != nil {
		job.IncludeCampaignData = *patch.IncludeCampaignData
	}

	if recompute {
		job.NextDueAt = NextDue(job.Cadence, job.TimeOfDay, r.now())
	}

	if err := r.save(); err != nil {
		r.logger.Error("Failed to persist schedules after update", zap.Error(err))
	}
	return true
}

// Remove hard-deletes a job. Returns false when the id is unknown.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, job := range r.jobs {
		if job.ID == id {
			r.jobs = append(r.jobs[:i], r.jobs[i+1:]...)
			if err := r.save(); err != nil {
				r.logger.Error("Failed to persist schedules after remove", zap.Error(err))
			}
			return true
		}
	}
	return false
}

// Get returns a copy of the job, or false when the id is unknown.
func (r *Registry) Get(id string) (models.ScheduledJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job := r.find(id); job != nil {
		return *job, true
	}
	return models.ScheduledJob{}, false
}

// List returns copies of all jobs in insertion order.
func (r *Registry) List() []models.ScheduledJob {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.ScheduledJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, *job)
	}
	return out
}

// DueJobs returns copies of enabled jobs whose next-due time has
// elapsed, in insertion order.
func (r *Registry) DueJobs(now time.Time) []models.ScheduledJob {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due []models.ScheduledJob
	for _, job := range r.jobs {
		if job.Enabled && !job.NextDueAt.After(now) {
			due = append(due, *job)
		}
	}
	return due
}

// MarkRun records a successful delivery: sets last-run, advances the
// next-due time past ranAt and persists. The no-op on an unknown id
// covers a job removed while its run was in flight.
func (r *Registry) MarkRun(id string, ranAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job := r.find(id)
	if job == nil {
		return
	}
	t := ranAt
	job.LastRunAt = &t
	job.NextDueAt = NextDue(job.Cadence, job.TimeOfDay, ranAt)

	if err := r.save(); err != nil {
		r.logger.Error("Failed to persist schedules after run", zap.Error(err))
	}
}

// Counts returns total and enabled job counts.
func (r *Registry) Counts() (total, enabled int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total = len(r.jobs)
	for _, job := range r.jobs {
		if job.Enabled {
			enabled++
		}
	}
	return total, enabled
}

func (r *Registry) find(id string) *models.ScheduledJob {
	for _, job := range r.jobs {
		if job.ID == id {
			return job
		}
	}
	return nil
}
