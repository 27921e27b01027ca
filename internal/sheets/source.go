package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fortidash/internal/metrics"
)

// snapshotMaxAge bounds how stale a disk snapshot may be before it is
// ignored during fallback.
const snapshotMaxAge = 24 * time.Hour

// Source is the report builders' data access layer. Reads walk a
// fallback chain: short-lived cache, live API, disk snapshot, local
// sample workbook, then built-in sample rows. Each successful live
// read refreshes the cache and the snapshot.
type Source struct {
	client      *Client
	cache       Cache
	snapshotDir string
	samplePath  string
	logger      *zap.Logger

	now func() time.Time
}

// NewSource wires the fallback chain. client may be unconfigured and
// samplePath may be empty; the remaining tiers still work.
func NewSource(client *Client, cache Cache, snapshotDir, samplePath string, logger *zap.Logger) *Source {
	return &Source{
		client:      client,
		cache:       cache,
		snapshotDir: snapshotDir,
		samplePath:  samplePath,
		logger:      logger,
		now:         time.Now,
	}
}

// Load returns sheet data filtered to the date range and agency, with
// multi-day ranges aggregated per agent/campaign. It only errors when
// every fallback tier comes up empty.
func (s *Source) Load(sheetName string, start, end time.Time, agency string) (metrics.Table, error) {
	table, err := s.raw(sheetName)
	if err != nil {
		return metrics.Table{}, err
	}

	if !start.IsZero() && !end.IsZero() {
		table = filterByDate(table, start, end)
	}
	if agency != "" {
		table = filterByAgency(table, agency)
	}
	if !start.IsZero() && !end.IsZero() && !start.Equal(end) {
		table = aggregateDateRange(table)
	}
	return table, nil
}

// Refresh forces a live read and rewrites the cache and snapshot,
// bypassing every fallback tier.
func (s *Source) Refresh(sheetName string) error {
	if !s.client.Configured() {
		return fmt.Errorf("sheets client not configured")
	}
	table, err := s.client.ReadSheet(sheetName)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.cache.Set(ctx, sheetName, table)
	s.writeSnapshot(sheetName, table)
	return nil
}

func (s *Source) raw(sheetName string) (metrics.Table, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if table, ok := s.cache.Get(ctx, sheetName); ok && !table.Empty() {
		return table, nil
	}

	if s.client.Configured() {
		table, err := s.client.ReadSheet(sheetName)
		if err == nil && !table.Empty() {
			s.cache.Set(ctx, sheetName, table)
			s.writeSnapshot(sheetName, table)
			return table, nil
		}
		if err != nil {
			s.logger.Warn("Live sheet read failed, falling back",
				zap.String("sheet", sheetName), zap.Error(err))
		}
	}

	if table, ok := s.readSnapshot(sheetName); ok {
		s.logger.Info("Using snapshot data", zap.String("sheet", sheetName))
		return table, nil
	}

	if s.samplePath != "" {
		if table, err := LoadWorkbookSheet(s.samplePath, sheetName); err == nil && !table.Empty() {
			s.logger.Warn("Using sample workbook data", zap.String("sheet", sheetName))
			return table, nil
		}
	}

	sample := SampleTable(sheetName)
	if sample.Empty() {
		return metrics.Table{}, fmt.Errorf("no data available for sheet %q", sheetName)
	}
	s.logger.Warn("Using built-in sample data", zap.String("sheet", sheetName))
	return sample, nil
}

type snapshot struct {
	Timestamp time.Time  `json:"timestamp"`
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
}

func (s *Source) snapshotFile(sheetName string) string {
	safe := strings.NewReplacer(" ", "_", "/", "_").Replace(sheetName)
	return filepath.Join(s.snapshotDir, safe+".json")
}

func (s *Source) writeSnapshot(sheetName string, table metrics.Table) {
	if s.snapshotDir == "" {
		return
	}
	if err := os.MkdirAll(s.snapshotDir, 0o755); err != nil {
		s.logger.Warn("Failed to create snapshot dir", zap.Error(err))
		return
	}
	data, err := json.Marshal(snapshot{
		Timestamp: s.now(),
		Headers:   table.Headers,
		Rows:      table.Rows,
	})
	if err != nil {
		return
	}
	if err := os.WriteFile(s.snapshotFile(sheetName), data, 0o644); err != nil {
		s.logger.Warn("Failed to write snapshot",
			zap.String("sheet", sheetName), zap.Error(err))
	}
}

func (s *Source) readSnapshot(sheetName string) (metrics.Table, bool) {
	if s.snapshotDir == "" {
		return metrics.Table{}, false
	}
	data, err := os.ReadFile(s.snapshotFile(sheetName))
	if err != nil {
		return metrics.Table{}, false
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return metrics.Table{}, false
	}
	if s.now().Sub(snap.Timestamp) > snapshotMaxAge {
		return metrics.Table{}, false
	}
	table := metrics.Table{Headers: snap.Headers, Rows: snap.Rows}
	if table.Empty() {
		return metrics.Table{}, false
	}
	return table, true
}

func parseCellDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "1/2/2006", "01/02/2006", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func dateColumn(t metrics.Table) int {
	return t.Col("Date", "date", "DATE")
}

func filterByDate(t metrics.Table, start, end time.Time) metrics.Table {
	col := dateColumn(t)
	if col < 0 || t.Empty() {
		return t
	}
	out := metrics.Table{Headers: t.Headers}
	for i := range t.Rows {
		d, ok := parseCellDate(t.Cell(i, col))
		if !ok {
			continue
		}
		if !d.Before(start) && !d.After(end) {
			out.Rows = append(out.Rows, t.Rows[i])
		}
	}
	return out
}

func filterByAgency(t metrics.Table, agency string) metrics.Table {
	col := t.Col("Agency", "agency", "Agent Agency", "Vendor Agency")
	if col < 0 || t.Empty() {
		return t
	}
	out := metrics.Table{Headers: t.Headers}
	for i := range t.Rows {
		if t.Cell(i, col) == agency {
			out.Rows = append(out.Rows, t.Rows[i])
		}
	}
	return out
}

// aggregateDateRange collapses a multi-day table into one row per
// agent or campaign (or a single overall row for agency data),
// summing numeric columns and keeping the first value of the rest.
func aggregateDateRange(t metrics.Table) metrics.Table {
	if t.Empty() {
		return t
	}
	dateCol := dateColumn(t)
	if dateCol >= 0 && countUniqueDates(t, dateCol) < 2 {
		return t
	}

	groupCol := t.Col("Agent Name")
	if groupCol < 0 {
		groupCol = t.Col("Campaign")
	}

	numeric := numericColumns(t, dateCol)

	out := metrics.Table{Headers: t.Headers}
	if groupCol < 0 {
		out.Rows = append(out.Rows, mergeRows(t, allRowIndexes(t), numeric))
		return out
	}

	var order []string
	groups := make(map[string][]int)
	for i := range t.Rows {
		key := t.Cell(i, groupCol)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	for _, key := range order {
		out.Rows = append(out.Rows, mergeRows(t, groups[key], numeric))
	}
	return out
}

func countUniqueDates(t metrics.Table, col int) int {
	seen := make(map[string]struct{})
	for i := range t.Rows {
		seen[t.Cell(i, col)] = struct{}{}
	}
	return len(seen)
}

func allRowIndexes(t metrics.Table) []int {
	idx := make([]int, len(t.Rows))
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// numericColumns marks columns whose every non-empty cell parses as a
// number; the date column never counts as numeric.
func numericColumns(t metrics.Table, dateCol int) map[int]bool {
	numeric := make(map[int]bool)
	for col := range t.Headers {
		if col == dateCol {
			continue
		}
		any := false
		ok := true
		for i := range t.Rows {
			cell := strings.TrimSpace(t.Cell(i, col))
			if cell == "" {
				continue
			}
			cleaned := strings.TrimPrefix(strings.ReplaceAll(cell, ",", ""), "$")
			if _, err := strconv.ParseFloat(cleaned, 64); err != nil {
				ok = false
				break
			}
			any = true
		}
		if ok && any {
			numeric[col] = true
		}
	}
	return numeric
}

func mergeRows(t metrics.Table, indexes []int, numeric map[int]bool) []string {
	row := make([]string, len(t.Headers))
	for col := range t.Headers {
		if numeric[col] {
			var sum float64
			for _, i := range indexes {
				sum += t.Number(i, col)
			}
			row[col] = strconv.FormatFloat(sum, 'f', -1, 64)
			continue
		}
		for _, i := range indexes {
			if cell := t.Cell(i, col); cell != "" {
				row[col] = cell
				break
			}
		}
	}
	return row
}
