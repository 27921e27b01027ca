package sheets

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"fortidash/internal/metrics"
	"fortidash/internal/pkg/httpclient"
)

// Source sheet names inside the agency workbook.
const (
	SheetAgencyStats  = "Daily Agency Stats"
	SheetAgentTotals  = "Daily Agent Totals"
	SheetVendorTotals = "Daily Lead Vendor Totals"
)

const sheetsAPIBase = "https://sheets.googleapis.com/v4/spreadsheets"

// Client reads ranges from a Google Sheets workbook over the values
// REST endpoint, authenticated by API key.
type Client struct {
	http          *httpclient.Client
	spreadsheetID string
	apiKey        string
	logger        *zap.Logger
}

// NewClient builds a sheets client. Transient upstream failures (rate
// limiting and 5xx) are retried with backoff before an error surfaces.
func NewClient(spreadsheetID, apiKey string, logger *zap.Logger) *Client {
	hc := httpclient.New().WithTimeout(30 * time.Second)
	hc.Raw().
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})

	return &Client{
		http:          hc,
		spreadsheetID: spreadsheetID,
		apiKey:        apiKey,
		logger:        logger,
	}
}

// Configured reports whether the client has enough settings to attempt
// a live read.
func (c *Client) Configured() bool {
	return c != nil && c.spreadsheetID != "" && c.apiKey != ""
}

type valuesResponse struct {
	Range  string            `json:"range"`
	Values [][]interface{} `json:"values"`
}

// ReadSheet fetches one sheet and returns it as a table with the first
// row as headers. The agency stats sheet has a merged banner row, so
// its real header row sits at A2 and it is read pre-formatted.
func (c *Client) ReadSheet(sheetName string) (metrics.Table, error) {
	if !c.Configured() {
		return metrics.Table{}, fmt.Errorf("sheets client not configured")
	}

	readRange := fmt.Sprintf("%s!A:Z", sheetName)
	render := "UNFORMATTED_VALUE"
	if sheetName == SheetAgencyStats {
		readRange = fmt.Sprintf("%s!A2:Z1000", sheetName)
		render = "FORMATTED_VALUE"
	}

	endpoint := fmt.Sprintf("%s/%s/values/%s?key=%s&valueRenderOption=%s",
		sheetsAPIBase, c.spreadsheetID, url.PathEscape(readRange), url.QueryEscape(c.apiKey), render)

	resp, err := c.http.Request().Get(endpoint)
	if err != nil {
		return metrics.Table{}, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	if resp.StatusCode() != 200 {
		return metrics.Table{}, fmt.Errorf("read sheet %q: status %d", sheetName, resp.StatusCode())
	}

	var body valuesResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return metrics.Table{}, fmt.Errorf("decode sheet %q: %w", sheetName, err)
	}

	table := tableFromValues(body.Values)
	if render == "UNFORMATTED_VALUE" {
		convertSerialDates(&table)
	}
	c.logger.Debug("Sheet loaded",
		zap.String("sheet", sheetName), zap.Int("rows", len(table.Rows)))
	return table, nil
}

// tableFromValues converts the API's loosely typed cell grid into
// strings. Rows can be ragged; blanks stay blank.
func tableFromValues(values [][]interface{}) metrics.Table {
	if len(values) < 2 {
		return metrics.Table{}
	}

	headers := make([]string, len(values[0]))
	for i, v := range values[0] {
		headers[i] = strings.TrimSpace(cellString(v))
	}

	rows := make([][]string, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := make([]string, len(raw))
		for i, v := range raw {
			row[i] = cellString(v)
		}
		rows = append(rows, row)
	}
	return metrics.Table{Headers: headers, Rows: rows}
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// excelEpoch is the serial-date origin Sheets and Excel share (the
// off-by-two accounts for Excel's fictitious 1900 leap day).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.Local)

// ExcelSerialToTime converts an Excel/Sheets serial day number.
func ExcelSerialToTime(serial float64) time.Time {
	days := int(serial)
	frac := serial - float64(days)
	return excelEpoch.AddDate(0, 0, days).
		Add(time.Duration(frac * 24 * float64(time.Hour)))
}

// convertSerialDates rewrites serial-number date columns as ISO dates
// so downstream filtering can parse them uniformly.
func convertSerialDates(t *metrics.Table) {
	for _, name := range []string{"Date", "date", "DATE", "Week of"} {
		col := t.Col(name)
		if col < 0 {
			continue
		}
		for i, row := range t.Rows {
			if col >= len(row) || row[col] == "" {
				continue
			}
			serial, err := strconv.ParseFloat(row[col], 64)
			if err != nil {
				continue
			}
			t.Rows[i][col] = ExcelSerialToTime(serial).Format("2006-01-02")
		}
	}
}
