package sheets

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"fortidash/internal/metrics"
)

// LoadWorkbookSheet reads one sheet from a local .xlsx workbook, used
// as a last-resort data source when the live API and disk snapshots
// are both unavailable. The first row is taken as headers.
func LoadWorkbookSheet(path, sheetName string) (metrics.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return metrics.Table{}, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return metrics.Table{}, fmt.Errorf("read workbook sheet %q: %w", sheetName, err)
	}
	if len(rows) < 2 {
		return metrics.Table{}, fmt.Errorf("workbook sheet %q has no data", sheetName)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return metrics.Table{Headers: headers, Rows: rows[1:]}, nil
}

// SampleTable returns built-in demo rows for a sheet so reports stay
// renderable when every real source has failed.
func SampleTable(sheetName string) metrics.Table {
	today := time.Now().Format("2006-01-02")

	switch {
	case strings.Contains(sheetName, "Agency"):
		return metrics.Table{
			Headers: []string{"Date", "Agency", "FE", "Adroit", "Total Rev", "QW", "QS", "SF", "Total Leads"},
			Rows: [][]string{
				{today, "Agency A", "15000", "8000", "23000", "2500", "1800", "2200", "6500"},
				{today, "Agency B", "12000", "6000", "18000", "2000", "1500", "1800", "5300"},
				{today, "Agency C", "18000", "9000", "27000", "3000", "2200", "2500", "7700"},
			},
		}
	case strings.Contains(sheetName, "Agent"):
		return metrics.Table{
			Headers: []string{"Agent Name", "Sales", "Revenue", "Count Paid Calls", "Agent Profitability", "Closing Ratio", "Total Calls", "Lead Spend"},
			Rows: [][]string{
				{"John Smith", "15", "45000", "125", "2500", "12.0", "180", "2500"},
				{"Sarah Johnson", "12", "36000", "110", "1800", "10.9", "165", "2200"},
				{"Mike Wilson", "18", "54000", "140", "2700", "12.9", "195", "2800"},
				{"Lisa Brown", "8", "24000", "95", "900", "8.4", "145", "1900"},
				{"Tom Davis", "22", "66000", "155", "3100", "14.2", "220", "3100"},
			},
		}
	case strings.Contains(sheetName, "Vendor"), strings.Contains(sheetName, "Lead"):
		return metrics.Table{
			Headers: []string{"Campaign", "Paid Calls", "# Unique Sales", "Revenue", "Lead Cost", "ROAS", "Profit", "% Closing Ratio"},
			Rows: [][]string{
				{"QuoteWizard", "450", "54", "162000", "9000", "18.0", "153000", "12.0"},
				{"QuoteLab", "380", "42", "126000", "7600", "16.6", "118400", "11.1"},
				{"SmartFinancial", "520", "67", "201000", "10400", "19.3", "190600", "12.9"},
				{"LeadGenius", "290", "29", "87000", "5800", "15.0", "81200", "10.0"},
				{"InsureMe", "410", "51", "153000", "8200", "18.7", "144800", "12.4"},
			},
		}
	default:
		return metrics.Table{}
	}
}
