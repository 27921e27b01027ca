package sheets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fortidash/internal/metrics"
)

func TestTableFromValues(t *testing.T) {
	table := tableFromValues([][]interface{}{
		{" Agent Name ", "Revenue", "Active"},
		{"John Smith", 18000.0, true},
		{"Lisa Brown", nil},
	})

	assert.Equal(t, []string{"Agent Name", "Revenue", "Active"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "18000", table.Cell(0, 1))
	assert.Equal(t, "true", table.Cell(0, 2))
	assert.Equal(t, "", table.Cell(1, 1))
}

func TestTableFromValuesEmpty(t *testing.T) {
	assert.True(t, tableFromValues(nil).Empty())
	assert.True(t, tableFromValues([][]interface{}{{"Only", "Headers"}}).Empty())
}

func TestCellStringFormats(t *testing.T) {
	assert.Equal(t, "", cellString(nil))
	assert.Equal(t, "text", cellString("text"))
	assert.Equal(t, "42", cellString(42.0))
	assert.Equal(t, "42.5", cellString(42.5))
	assert.Equal(t, "false", cellString(false))
}

func TestExcelSerialToTime(t *testing.T) {
	// Serial 45000 is 2023-03-15 against the 1899-12-30 epoch.
	got := ExcelSerialToTime(45000)
	assert.Equal(t, time.Date(2023, time.March, 15, 0, 0, 0, 0, time.Local), got)
}

func TestConvertSerialDatesRewritesDateColumn(t *testing.T) {
	table := metrics.Table{
		Headers: []string{"Date", "Agent Name", "Revenue"},
		Rows: [][]string{
			{"45000", "John Smith", "18000"},
			{"already-a-date", "Lisa Brown", "4000"},
		},
	}

	convertSerialDates(&table)
	assert.Equal(t, "2023-03-15", table.Cell(0, 0))
	assert.Equal(t, "already-a-date", table.Cell(1, 0))
	assert.Equal(t, "18000", table.Cell(0, 2))
}

func TestClientConfigured(t *testing.T) {
	var nilClient *Client
	assert.False(t, nilClient.Configured())
	assert.False(t, NewClient("", "key", zap.NewNop()).Configured())
	assert.False(t, NewClient("sheet-id", "", zap.NewNop()).Configured())
	assert.True(t, NewClient("sheet-id", "key", zap.NewNop()).Configured())
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	cache, err := NewCache("", "", 0, time.Minute)
	require.NoError(t, err)

	table := metrics.Table{Headers: []string{"A"}, Rows: [][]string{{"1"}}}
	cache.Set(context.Background(), SheetAgentTotals, table)

	got, ok := cache.Get(context.Background(), SheetAgentTotals)
	require.True(t, ok)
	assert.Equal(t, table, got)

	_, ok = cache.Get(context.Background(), SheetVendorTotals)
	assert.False(t, ok)
}

func TestMemoryCacheExpires(t *testing.T) {
	cache := newMemoryCache(time.Nanosecond)
	cache.Set(context.Background(), SheetAgentTotals, metrics.Table{Headers: []string{"A"}, Rows: [][]string{{"1"}}})
	time.Sleep(time.Millisecond)

	_, ok := cache.Get(context.Background(), SheetAgentTotals)
	assert.False(t, ok)
}

func TestSampleTableMatchesSheetNames(t *testing.T) {
	assert.False(t, SampleTable(SheetAgencyStats).Empty())
	assert.False(t, SampleTable(SheetAgentTotals).Empty())
	assert.False(t, SampleTable(SheetVendorTotals).Empty())
	assert.True(t, SampleTable("Something Else").Empty())
}
