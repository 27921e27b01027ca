package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"fortidash/internal/models"
)

// Generator builds the HTML body for one report kind.
type Generator func(models.ReportParams) (string, error)

// Sender delivers a finished report. Implemented by the mailer.
type Sender interface {
	SendReport(jobName, reportKind string, recipients []string, html string) error
	Configured() bool
}

// Options tune scheduler behavior.
type Options struct {
	// PollInterval is the sleep between due-detection passes.
	PollInterval time.Duration
	// RetryBackoff makes a failed job wait with growing delays instead
	// of being retried on every pass. The job stays due either way;
	// the backoff state is in-memory only.
	RetryBackoff bool
}

type retryState struct {
	attempts  int
	notBefore time.Time
}

// Scheduler drives due-job detection and execution. One background
// goroutine runs the loop; RunPass is also callable synchronously by
// CLI tooling and API handlers, with identical semantics.
type Scheduler struct {
	registry *Registry
	sender   Sender
	logger   *zap.Logger
	opts     Options

	mu         sync.Mutex
	generators map[string]Generator
	running    bool
	retries    map[string]*retryState

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now func() time.Time
}

// New creates a scheduler. Generators must be registered before Start.
func New(registry *Registry, sender Sender, logger *zap.Logger, opts Options) *Scheduler {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Minute
	}
	return &Scheduler{
		registry:   registry,
		sender:     sender,
		logger:     logger,
		opts:       opts,
		generators: make(map[string]Generator),
		retries:    make(map[string]*retryState),
		now:        time.Now,
	}
}

// Register maps a report kind to its generator.
func (s *Scheduler) Register(kind string, fn Generator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generators[kind] = fn
}

// Start launches the background loop. Calling Start on a running
// scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()
	s.logger.Info("Report scheduler started",
		zap.Duration("poll_interval", s.opts.PollInterval))
}

// Stop signals the loop and waits for the in-flight pass to finish.
// It never interrupts a send already underway.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("Report scheduler stopped")
}

// Running reports whether the background loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.RunPass()
		}
	}
}

// RunPass performs one due-detection-and-execution pass and reports
// how many jobs ran and how many failed. One failing job never aborts
// the pass.
func (s *Scheduler) RunPass() (ran, failed int) {
	now := s.now()
	due := s.registry.DueJobs(now)

	for _, job := range due {
		if s.inBackoff(job.ID, now) {
			continue
		}
		if err := s.runJob(job, now); err != nil {
			failed++
			s.recordFailure(job.ID, now)
			s.logger.Error("Scheduled report failed",
				zap.String("job_id", job.ID),
				zap.String("job_name", job.Name),
				zap.Error(err))
			continue
		}
		ran++
		s.clearFailure(job.ID)
		s.logger.Info("Scheduled report sent",
			zap.String("job_id", job.ID),
			zap.String("job_name", job.Name),
			zap.String("report_kind", job.ReportKind))
	}
	return ran, failed
}

// RunJob executes one job immediately regardless of its due time, via
// the same generation-and-delivery path as the loop.
func (s *Scheduler) RunJob(id string) error {
	job, ok := s.registry.Get(id)
	if !ok {
		return fmt.Errorf("job %s not found", id)
	}
	return s.runJob(job, s.now())
}

func (s *Scheduler) runJob(job models.ScheduledJob, now time.Time) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("report generation panicked: %v", rec)
		}
	}()

	s.mu.Lock()
	gen, ok := s.generators[job.ReportKind]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no generator registered for report kind %q", job.ReportKind)
	}

	params := s.resolveParams(job, now)
	html, err := gen(params)
	if err != nil {
		return fmt.Errorf("generate %s: %w", job.ReportKind, err)
	}

	if err := s.sender.SendReport(job.Name, job.ReportKind, job.Recipients, html); err != nil {
		return fmt.Errorf("deliver %s: %w", job.Name, err)
	}

	// Schedule state only advances after a confirmed delivery.
	s.registry.MarkRun(job.ID, now)
	return nil
}

// resolveParams derives the generator parameter set from the job's
// cadence and visibility settings. Campaign data rides along only for
// management and admin scopes.
func (s *Scheduler) resolveParams(job models.ScheduledJob, now time.Time) models.ReportParams {
	start, end := ReportingRange(job.Cadence, now)
	return models.ReportParams{
		StartDate:        start,
		EndDate:          end,
		Agency:           job.AgencyFilter,
		UserRole:         job.RoleScope,
		IncludeCampaigns: job.IncludeCampaignData && models.CampaignsVisible(job.RoleScope),
	}
}

const (
	retryBaseDelay = time.Minute
	retryMaxDelay  = 30 * time.Minute
)

func (s *Scheduler) inBackoff(id string, now time.Time) bool {
	if !s.opts.RetryBackoff {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.retries[id]
	return ok && st.notBefore.After(now)
}

func (s *Scheduler) recordFailure(id string, now time.Time) {
	if !s.opts.RetryBackoff {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.retries[id]
	if st == nil {
		st = &retryState{}
		s.retries[id] = st
	}
	delay := retryBaseDelay << st.attempts
	if delay > retryMaxDelay || delay <= 0 {
		delay = retryMaxDelay
	}
	st.attempts++
	st.notBefore = now.Add(delay)
}

func (s *Scheduler) clearFailure(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.retries, id)
}

// Summary is a point-in-time view of the schedule used by status
// endpoints and the CLI.
type Summary struct {
	TotalJobs       int  `json:"total_jobs"`
	EnabledJobs     int  `json:"enabled_jobs"`
	DueJobs         int  `json:"due_jobs"`
	Running         bool `json:"running"`
	EmailConfigured bool `json:"email_configured"`
}

// Summarize builds the current schedule summary.
func (s *Scheduler) Summarize() Summary {
	total, enabled := s.registry.Counts()
	return Summary{
		TotalJobs:       total,
		EnabledJobs:     enabled,
		DueJobs:         len(s.registry.DueJobs(s.now())),
		Running:         s.Running(),
		EmailConfigured: s.sender.Configured(),
	}
}
