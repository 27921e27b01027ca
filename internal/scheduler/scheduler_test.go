package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fortidash/internal/models"
)

type fakeSender struct {
	sent       []string // job names, in delivery order
	failNext   bool
	configured bool
}

func (f *fakeSender) SendReport(jobName, reportKind string, recipients []string, html string) error {
	if f.failNext {
		return errors.New("smtp unreachable")
	}
	f.sent = append(f.sent, jobName)
	return nil
}

func (f *fakeSender) Configured() bool { return f.configured }

func newTestScheduler(t *testing.T, sender *fakeSender) (*Scheduler, *Registry) {
	t.Helper()
	reg := newTestRegistry(t)
	s := New(reg, sender, zap.NewNop(), Options{PollInterval: time.Hour})
	s.Register(models.ReportDailyPerformance, func(p models.ReportParams) (string, error) {
		return "<div>ok</div>", nil
	})
	return s, reg
}

func makeDue(t *testing.T, r *Registry, id string) {
	t.Helper()
	r.mu.Lock()
	job := r.find(id)
	require.NotNil(t, job)
	job.NextDueAt = time.Now().Add(-time.Hour)
	r.mu.Unlock()
}

func TestRunPassSendsDueJobAndAdvances(t *testing.T) {
	sender := &fakeSender{configured: true}
	s, reg := newTestScheduler(t, sender)

	id := reg.Add(dailySpec("daily digest"))
	makeDue(t, reg, id)

	ran, failed := s.RunPass()
	assert.Equal(t, 1, ran)
	assert.Equal(t, 0, failed)
	assert.Equal(t, []string{"daily digest"}, sender.sent)

	job, _ := reg.Get(id)
	require.NotNil(t, job.LastRunAt)
	assert.True(t, job.NextDueAt.After(time.Now()))

	// Nothing due on the immediately following pass.
	ran, failed = s.RunPass()
	assert.Zero(t, ran)
	assert.Zero(t, failed)
}

func TestFailedSendLeavesScheduleUntouched(t *testing.T) {
	sender := &fakeSender{configured: true, failNext: true}
	s, reg := newTestScheduler(t, sender)

	id := reg.Add(dailySpec("flaky"))
	makeDue(t, reg, id)
	before, _ := reg.Get(id)

	ran, failed := s.RunPass()
	assert.Zero(t, ran)
	assert.Equal(t, 1, failed)

	after, _ := reg.Get(id)
	assert.True(t, before.NextDueAt.Equal(after.NextDueAt))
	assert.Nil(t, after.LastRunAt)

	// Still due: a later pass retries and succeeds.
	sender.failNext = false
	ran, _ = s.RunPass()
	assert.Equal(t, 1, ran)
}

func TestUnregisteredKindFailsWithoutCrashing(t *testing.T) {
	sender := &fakeSender{configured: true}
	s, reg := newTestScheduler(t, sender)

	spec := dailySpec("mystery")
	spec.ReportKind = "quarterly_forecast"
	id := reg.Add(spec)
	makeDue(t, reg, id)

	ran, failed := s.RunPass()
	assert.Zero(t, ran)
	assert.Equal(t, 1, failed)

	job, _ := reg.Get(id)
	assert.Nil(t, job.LastRunAt)
}

func TestOneFailingJobDoesNotAbortThePass(t *testing.T) {
	sender := &fakeSender{configured: true}
	s, reg := newTestScheduler(t, sender)
	s.Register("broken_kind", func(p models.ReportParams) (string, error) {
		return "", errors.New("sheet unavailable")
	})

	badSpec := dailySpec("bad first")
	badSpec.ReportKind = "broken_kind"
	badID := reg.Add(badSpec)
	goodID := reg.Add(dailySpec("good second"))
	makeDue(t, reg, badID)
	makeDue(t, reg, goodID)

	ran, failed := s.RunPass()
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"good second"}, sender.sent)
}

func TestPanickingGeneratorIsContained(t *testing.T) {
	sender := &fakeSender{configured: true}
	s, reg := newTestScheduler(t, sender)
	s.Register("panicky", func(p models.ReportParams) (string, error) {
		panic("boom")
	})

	spec := dailySpec("explosive")
	spec.ReportKind = "panicky"
	id := reg.Add(spec)
	makeDue(t, reg, id)

	ran, failed := s.RunPass()
	assert.Zero(t, ran)
	assert.Equal(t, 1, failed)
}

func TestRetryBackoffSkipsRecentlyFailedJob(t *testing.T) {
	sender := &fakeSender{configured: true, failNext: true}
	reg := newTestRegistry(t)
	s := New(reg, sender, zap.NewNop(), Options{PollInterval: time.Hour, RetryBackoff: true})
	s.Register(models.ReportDailyPerformance, func(p models.ReportParams) (string, error) {
		return "<div>ok</div>", nil
	})

	id := reg.Add(dailySpec("backed off"))
	makeDue(t, reg, id)

	_, failed := s.RunPass()
	require.Equal(t, 1, failed)

	// Immediately afterwards the job is still due but inside its
	// backoff window, so the pass skips it entirely.
	sender.failNext = false
	ran, failed := s.RunPass()
	assert.Zero(t, ran)
	assert.Zero(t, failed)

	// Once the window elapses it runs and the state clears.
	s.mu.Lock()
	s.retries[id].notBefore = time.Now().Add(-time.Second)
	s.mu.Unlock()
	ran, _ = s.RunPass()
	assert.Equal(t, 1, ran)
	s.mu.Lock()
	_, pending := s.retries[id]
	s.mu.Unlock()
	assert.False(t, pending)
}

func TestWithoutBackoffFailedJobRetriesEveryPass(t *testing.T) {
	sender := &fakeSender{configured: true, failNext: true}
	s, reg := newTestScheduler(t, sender)

	id := reg.Add(dailySpec("eager retry"))
	makeDue(t, reg, id)

	_, failed := s.RunPass()
	assert.Equal(t, 1, failed)
	_, failed = s.RunPass()
	assert.Equal(t, 1, failed)
}

func TestResolveParamsGatesCampaignData(t *testing.T) {
	s, _ := newTestScheduler(t, &fakeSender{})

	job := models.ScheduledJob{
		Cadence:             models.CadenceDaily,
		RoleScope:           models.RoleAgencyOwner,
		AgencyFilter:        "Agency A",
		IncludeCampaignData: true,
	}
	params := s.resolveParams(job, time.Now())
	assert.False(t, params.IncludeCampaigns, "agency owners never see campaign data")
	assert.Equal(t, "Agency A", params.Agency)

	job.RoleScope = models.RoleManagement
	params = s.resolveParams(job, time.Now())
	assert.True(t, params.IncludeCampaigns)

	job.IncludeCampaignData = false
	params = s.resolveParams(job, time.Now())
	assert.False(t, params.IncludeCampaigns)
}

func TestStartStopLifecycle(t *testing.T) {
	s, _ := newTestScheduler(t, &fakeSender{})

	assert.False(t, s.Running())
	s.Start()
	assert.True(t, s.Running())
	s.Start() // second start is a no-op
	s.Stop()
	assert.False(t, s.Running())
	s.Stop() // second stop is a no-op
}

func TestRunJobUnknownID(t *testing.T) {
	s, _ := newTestScheduler(t, &fakeSender{})
	assert.Error(t, s.RunJob("missing"))
}

func TestSummarize(t *testing.T) {
	sender := &fakeSender{configured: true}
	s, reg := newTestScheduler(t, sender)

	dueID := reg.Add(dailySpec("due"))
	offID := reg.Add(dailySpec("off"))
	makeDue(t, reg, dueID)
	off := false
	reg.Update(offID, models.JobPatch{Enabled: &off})

	sum := s.Summarize()
	assert.Equal(t, 2, sum.TotalJobs)
	assert.Equal(t, 1, sum.EnabledJobs)
	assert.Equal(t, 1, sum.DueJobs)
	assert.False(t, sum.Running)
	assert.True(t, sum.EmailConfigured)
}
