package report

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"fortidash/internal/metrics"
)

const (
	cellStyle      = `border: 1px solid #ddd; padding: 8px;`
	headerRowStyle = `background-color: #f2f2f2;`
	tableStyle     = `border-collapse: collapse; width: 100%;`

	maxTableRows = 10
)

// groupThousands inserts comma separators into an unsigned integer
// string.
func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func formatNumber(v float64, decimals int) string {
	neg := v < 0
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	s = strings.TrimPrefix(s, "-")
	intPart, frac, hasFrac := strings.Cut(s, ".")
	out := groupThousands(intPart)
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

func formatCount(v float64) string {
	return formatNumber(v, 0)
}

func (b *Builder) money(v float64) string {
	return b.moneyN(v, 2)
}

func (b *Builder) moneyN(v float64, decimals int) string {
	if v < 0 {
		return "-" + b.currency + formatNumber(-v, decimals)
	}
	return b.currency + formatNumber(v, decimals)
}

func esc(s string) string {
	return html.EscapeString(s)
}

func th(label string) string {
	return fmt.Sprintf(`<th style="%s">%s</th>`, cellStyle, label)
}

func td(value string) string {
	return fmt.Sprintf(`<td style="%s">%s</td>`, cellStyle, value)
}

// agentTable renders up to ten agents. showAll adds the paid-call and
// revenue-per-call columns used by the deep-dive report.
func (b *Builder) agentTable(agents []metrics.AgentRow, showAll bool) string {
	if len(agents) == 0 {
		return "<p>No agent data available.</p>"
	}
	if len(agents) > maxTableRows {
		agents = agents[:maxTableRows]
	}

	var sb strings.Builder
	sb.WriteString(`<table style="` + tableStyle + `">`)
	sb.WriteString(`<tr style="` + headerRowStyle + `">`)
	sb.WriteString(th("Agent Name") + th("Sales") + th("Revenue") + th("Profitability") + th("Closing %"))
	if showAll {
		sb.WriteString(th("Paid Calls") + th("Revenue/Call"))
	}
	sb.WriteString(`</tr>`)

	for _, a := range agents {
		sb.WriteString(`<tr>`)
		sb.WriteString(td(esc(a.Name)))
		sb.WriteString(td(formatCount(a.TotalSales)))
		sb.WriteString(td(b.money(a.Revenue)))
		sb.WriteString(td(b.money(a.Profitability)))
		sb.WriteString(td(fmt.Sprintf("%.1f%%", a.ClosingRatio)))
		if showAll {
			sb.WriteString(td(formatCount(a.PaidCalls)))
			sb.WriteString(td(b.money(a.RevenuePerCall)))
		}
		sb.WriteString(`</tr>`)
	}
	sb.WriteString(`</table>`)
	return sb.String()
}

// campaignTable renders up to ten campaigns.
func (b *Builder) campaignTable(campaigns []metrics.CampaignRow) string {
	if len(campaigns) == 0 {
		return "<p>No campaign data available.</p>"
	}
	if len(campaigns) > maxTableRows {
		campaigns = campaigns[:maxTableRows]
	}

	var sb strings.Builder
	sb.WriteString(`<table style="` + tableStyle + `">`)
	sb.WriteString(`<tr style="` + headerRowStyle + `">`)
	sb.WriteString(th("Campaign") + th("Leads") + th("Sales") + th("Revenue") + th("Spend") + th("ROAS") + th("Profit"))
	sb.WriteString(`</tr>`)

	for _, c := range campaigns {
		sb.WriteString(`<tr>`)
		sb.WriteString(td(esc(c.Vendor)))
		sb.WriteString(td(formatCount(c.Leads)))
		sb.WriteString(td(formatCount(c.Sales)))
		sb.WriteString(td(b.money(c.Revenue)))
		sb.WriteString(td(b.money(c.LeadSpend)))
		sb.WriteString(td(fmt.Sprintf("%.2f", c.ROAS)))
		sb.WriteString(td(b.money(c.Profit)))
		sb.WriteString(`</tr>`)
	}
	sb.WriteString(`</table>`)
	return sb.String()
}

// metricRows renders label/value pairs as the two-column summary table
// shared by the daily and weekly reports.
func metricRows(valueLabel string, pairs [][2]string) string {
	var sb strings.Builder
	sb.WriteString(`<table style="` + tableStyle + `">`)
	sb.WriteString(`<tr style="` + headerRowStyle + `">`)
	sb.WriteString(th("Metric") + th(valueLabel))
	sb.WriteString(`</tr>`)
	for _, p := range pairs {
		sb.WriteString(`<tr>` + td(p[0]) + td(p[1]) + `</tr>`)
	}
	sb.WriteString(`</table>`)
	return sb.String()
}
