package sheets

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fortidash/internal/metrics"
)

func newTestSource(t *testing.T) *Source {
	t.Helper()
	cache, err := NewCache("", "", 0, time.Minute)
	require.NoError(t, err)
	return NewSource(nil, cache, t.TempDir(), "", zap.NewNop())
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestLoadFallsBackToBuiltinSample(t *testing.T) {
	s := newTestSource(t)

	table, err := s.Load(SheetAgentTotals, time.Time{}, time.Time{}, "")
	require.NoError(t, err)
	assert.False(t, table.Empty())
	assert.GreaterOrEqual(t, table.Col("Agent Name"), 0)
}

func TestLoadUnknownSheetErrors(t *testing.T) {
	s := newTestSource(t)

	_, err := s.Load("Nonexistent Tab", time.Time{}, time.Time{}, "")
	assert.Error(t, err)
}

func TestLoadPrefersCachedTable(t *testing.T) {
	s := newTestSource(t)
	cached := metrics.Table{
		Headers: []string{"Agent Name", "Revenue"},
		Rows:    [][]string{{"Cached Agent", "100"}},
	}
	s.cache.Set(context.Background(), SheetAgentTotals, cached)

	table, err := s.Load(SheetAgentTotals, time.Time{}, time.Time{}, "")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Cached Agent", table.Cell(0, 0))
}

func TestLoadUsesFreshSnapshot(t *testing.T) {
	s := newTestSource(t)
	writeSnapshotFile(t, s, SheetVendorTotals, s.now(), metrics.Table{
		Headers: []string{"Campaign", "Revenue"},
		Rows:    [][]string{{"Snapshot Vendor", "42"}},
	})

	table, err := s.Load(SheetVendorTotals, time.Time{}, time.Time{}, "")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Snapshot Vendor", table.Cell(0, 0))
}

func TestLoadIgnoresStaleSnapshot(t *testing.T) {
	s := newTestSource(t)
	writeSnapshotFile(t, s, SheetVendorTotals, s.now().Add(-25*time.Hour), metrics.Table{
		Headers: []string{"Campaign", "Revenue"},
		Rows:    [][]string{{"Stale Vendor", "42"}},
	})

	table, err := s.Load(SheetVendorTotals, time.Time{}, time.Time{}, "")
	require.NoError(t, err)
	for i := range table.Rows {
		assert.NotEqual(t, "Stale Vendor", table.Cell(i, 0))
	}
}

func writeSnapshotFile(t *testing.T, s *Source, sheet string, ts time.Time, table metrics.Table) {
	t.Helper()
	data, err := json.Marshal(snapshot{Timestamp: ts, Headers: table.Headers, Rows: table.Rows})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(s.snapshotDir, 0o755))
	require.NoError(t, os.WriteFile(s.snapshotFile(sheet), data, 0o644))
}

func TestSnapshotFileNameReplacesSpaces(t *testing.T) {
	s := newTestSource(t)
	assert.Equal(t, filepath.Join(s.snapshotDir, "Daily_Agent_Totals.json"),
		s.snapshotFile("Daily Agent Totals"))
}

func TestFilterByDateInclusive(t *testing.T) {
	table := metrics.Table{
		Headers: []string{"Date", "Agent Name", "Revenue"},
		Rows: [][]string{
			{"2025-03-01", "A", "10"},
			{"2025-03-02", "B", "20"},
			{"2025-03-03", "C", "30"},
			{"2025-03-04", "D", "40"},
			{"not a date", "E", "50"},
		},
	}

	out := filterByDate(table, day(2025, 3, 2), day(2025, 3, 3))
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "B", out.Cell(0, 1))
	assert.Equal(t, "C", out.Cell(1, 1))
}

func TestFilterByDateWithoutDateColumnKeepsRows(t *testing.T) {
	table := metrics.Table{
		Headers: []string{"Agent Name", "Revenue"},
		Rows:    [][]string{{"A", "10"}},
	}

	out := filterByDate(table, day(2025, 3, 2), day(2025, 3, 3))
	assert.Len(t, out.Rows, 1)
}

func TestFilterByAgencyExactMatch(t *testing.T) {
	table := metrics.Table{
		Headers: []string{"Agency", "Agent Name"},
		Rows: [][]string{
			{"FE Insured", "A"},
			{"Adroit", "B"},
			{"FE Insured", "C"},
		},
	}

	out := filterByAgency(table, "FE Insured")
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "A", out.Cell(0, 1))
	assert.Equal(t, "C", out.Cell(1, 1))
}

func TestAggregateGroupsByAgent(t *testing.T) {
	table := metrics.Table{
		Headers: []string{"Date", "Agent Name", "Revenue", "Total Sales", "Notes"},
		Rows: [][]string{
			{"2025-03-01", "Alice", "1,000", "2", "first"},
			{"2025-03-02", "Alice", "$500", "1", ""},
			{"2025-03-01", "Bob", "300", "1", "x"},
		},
	}

	out := aggregateDateRange(table)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "Alice", out.Cell(0, 1))
	assert.Equal(t, "1500", out.Cell(0, 2))
	assert.Equal(t, "3", out.Cell(0, 3))
	assert.Equal(t, "first", out.Cell(0, 4))
	assert.Equal(t, "Bob", out.Cell(1, 1))
	assert.Equal(t, "300", out.Cell(1, 2))
}

func TestAggregateSingleDateLeftAlone(t *testing.T) {
	table := metrics.Table{
		Headers: []string{"Date", "Agent Name", "Revenue"},
		Rows: [][]string{
			{"2025-03-01", "Alice", "100"},
			{"2025-03-01", "Alice", "200"},
		},
	}

	out := aggregateDateRange(table)
	assert.Len(t, out.Rows, 2)
}

func TestAggregateWithoutGroupColumnSumsAll(t *testing.T) {
	table := metrics.Table{
		Headers: []string{"Date", "Total Rev", "Agency"},
		Rows: [][]string{
			{"2025-03-01", "100", "FE Insured"},
			{"2025-03-02", "250", "FE Insured"},
		},
	}

	out := aggregateDateRange(table)
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "350", out.Cell(0, 1))
	assert.Equal(t, "FE Insured", out.Cell(0, 2))
}

func TestLoadMultiDayRangeAggregates(t *testing.T) {
	s := newTestSource(t)
	s.cache.Set(context.Background(), SheetAgentTotals, metrics.Table{
		Headers: []string{"Date", "Agent Name", "Revenue"},
		Rows: [][]string{
			{"2025-03-03", "Alice", "100"},
			{"2025-03-04", "Alice", "200"},
			{"2025-03-10", "Alice", "999"},
		},
	})

	table, err := s.Load(SheetAgentTotals, day(2025, 3, 3), day(2025, 3, 9), "")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "300", table.Cell(0, 2))
}
