package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fortidash/internal/models"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedules.json")
	return NewRegistry(path, zap.NewNop())
}

func dailySpec(name string) models.JobSpec {
	return models.JobSpec{
		Name:       name,
		ReportKind: models.ReportDailyPerformance,
		Cadence:    models.CadenceDaily,
		TimeOfDay:  "08:00",
		Recipients: []string{"owner@example.com"},
		RoleScope:  models.RoleManagement,
	}
}

func TestAddComputesFutureNextDue(t *testing.T) {
	r := newTestRegistry(t)

	before := time.Now()
	id := r.Add(dailySpec("morning numbers"))
	require.NotEmpty(t, id)

	job, ok := r.Get(id)
	require.True(t, ok)
	assert.True(t, job.NextDueAt.After(before))
	assert.True(t, job.Enabled)
	assert.Nil(t, job.LastRunAt)
}

func TestRoundTripPreservesJobsAndOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.json")
	r := NewRegistry(path, zap.NewNop())

	id1 := r.Add(dailySpec("first"))
	spec2 := dailySpec("second")
	spec2.Cadence = models.CadenceWeekly
	spec2.AgencyFilter = "Agency B"
	id2 := r.Add(spec2)

	reloaded := NewRegistry(path, zap.NewNop())
	jobs := reloaded.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, id1, jobs[0].ID)
	assert.Equal(t, id2, jobs[1].ID)
	assert.Equal(t, "second", jobs[1].Name)
	assert.Equal(t, models.CadenceWeekly, jobs[1].Cadence)
	assert.Equal(t, "Agency B", jobs[1].AgencyFilter)

	orig, _ := r.Get(id1)
	got, _ := reloaded.Get(id1)
	assert.True(t, orig.NextDueAt.Equal(got.NextDueAt))
}

func TestMalformedFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	r := NewRegistry(path, zap.NewNop())
	assert.Empty(t, r.List())
}

func TestWrongShapeFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"scheduled_reports": [{}, null]}`), 0o644))

	r := NewRegistry(path, zap.NewNop())
	assert.Empty(t, r.List())
}

func TestUpdateUnknownIDFailsWithoutSideEffects(t *testing.T) {
	r := newTestRegistry(t)
	id := r.Add(dailySpec("keep me"))

	name := "changed"
	assert.False(t, r.Update("no-such-id", models.JobPatch{Name: &name}))

	job, _ := r.Get(id)
	assert.Equal(t, "keep me", job.Name)
}

func TestRemoveUnknownIDFails(t *testing.T) {
	r := newTestRegistry(t)
	r.Add(dailySpec("survivor"))

	assert.False(t, r.Remove("no-such-id"))
	assert.Len(t, r.List(), 1)
}

func TestRemoveDeletesJob(t *testing.T) {
	r := newTestRegistry(t)
	id := r.Add(dailySpec("doomed"))

	assert.True(t, r.Remove(id))
	_, ok := r.Get(id)
	assert.False(t, ok)
}

func TestUpdateCadenceRecomputesNextDue(t *testing.T) {
	r := newTestRegistry(t)
	id := r.Add(dailySpec("shifting"))
	before, _ := r.Get(id)

	cadence := models.CadenceMonthly
	require.True(t, r.Update(id, models.JobPatch{Cadence: &cadence}))

	after, _ := r.Get(id)
	assert.Equal(t, models.CadenceMonthly, after.Cadence)
	assert.Equal(t, 1, after.NextDueAt.Day())
	assert.False(t, after.NextDueAt.Equal(before.NextDueAt))
}

func TestUpdateNameLeavesNextDueAlone(t *testing.T) {
	r := newTestRegistry(t)
	id := r.Add(dailySpec("stable"))
	before, _ := r.Get(id)

	name := "renamed"
	require.True(t, r.Update(id, models.JobPatch{Name: &name}))

	after, _ := r.Get(id)
	assert.Equal(t, "renamed", after.Name)
	assert.True(t, before.NextDueAt.Equal(after.NextDueAt))
}

func TestDueJobsFiltersDisabledAndFuture(t *testing.T) {
	r := newTestRegistry(t)
	dueID := r.Add(dailySpec("due"))
	disabledID := r.Add(dailySpec("disabled"))
	futureID := r.Add(dailySpec("future"))

	past := time.Now().Add(-24 * time.Hour)
	r.mu.Lock()
	r.find(dueID).NextDueAt = past
	r.find(disabledID).NextDueAt = past
	r.find(disabledID).Enabled = false
	r.mu.Unlock()

	due := r.DueJobs(time.Now())
	require.Len(t, due, 1)
	assert.Equal(t, dueID, due[0].ID)

	// The disabled job still exists and keeps its stale due time.
	job, ok := r.Get(disabledID)
	require.True(t, ok)
	assert.True(t, job.NextDueAt.Equal(past))
	_, ok = r.Get(futureID)
	assert.True(t, ok)
}

func TestDisablingDueJobRemovesItFromSelection(t *testing.T) {
	r := newTestRegistry(t)
	id := r.Add(dailySpec("toggled"))
	r.mu.Lock()
	r.find(id).NextDueAt = time.Now().Add(-time.Hour)
	r.mu.Unlock()

	require.Len(t, r.DueJobs(time.Now()), 1)

	off := false
	require.True(t, r.Update(id, models.JobPatch{Enabled: &off}))
	assert.Empty(t, r.DueJobs(time.Now()))

	_, ok := r.Get(id)
	assert.True(t, ok)
}

func TestMarkRunAdvancesSchedule(t *testing.T) {
	r := newTestRegistry(t)
	id := r.Add(dailySpec("advancing"))
	r.mu.Lock()
	r.find(id).NextDueAt = time.Now().Add(-time.Hour)
	r.mu.Unlock()
	stale, _ := r.Get(id)

	ranAt := time.Now()
	r.MarkRun(id, ranAt)

	job, _ := r.Get(id)
	require.NotNil(t, job.LastRunAt)
	assert.True(t, job.LastRunAt.Equal(ranAt))
	assert.True(t, job.NextDueAt.After(stale.NextDueAt))
	assert.True(t, job.NextDueAt.After(ranAt))
}

func TestListReturnsCopies(t *testing.T) {
	r := newTestRegistry(t)
	id := r.Add(dailySpec("immutable"))

	jobs := r.List()
	jobs[0].Name = "mutated elsewhere"

	job, _ := r.Get(id)
	assert.Equal(t, "immutable", job.Name)
}
