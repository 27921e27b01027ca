package report

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"fortidash/internal/metrics"
	"fortidash/internal/models"
	"fortidash/internal/scheduler"
	"fortidash/internal/sheets"
)

// DataSource provides filtered sheet data for a date range and
// optional agency.
type DataSource interface {
	Load(sheetName string, start, end time.Time, agency string) (metrics.Table, error)
}

// Builder turns source tables into the HTML report bodies that get
// emailed out.
type Builder struct {
	source    DataSource
	logger    *zap.Logger
	threshold float64
	currency  string

	now func() time.Time
}

func NewBuilder(source DataSource, logger *zap.Logger, settings models.ReportSettings) *Builder {
	threshold := settings.ProfitabilityThreshold
	if threshold <= 0 {
		threshold = metrics.ProfitabilityThreshold
	}
	currency := settings.CurrencySymbol
	if currency == "" {
		currency = "$"
	}
	return &Builder{
		source:    source,
		logger:    logger,
		threshold: threshold,
		currency:  currency,
		now:       time.Now,
	}
}

// Generators maps every report kind to its generator, in the shape
// the scheduler registers.
func (b *Builder) Generators() map[string]scheduler.Generator {
	return map[string]scheduler.Generator{
		models.ReportDailyPerformance:     b.DailyPerformance,
		models.ReportWeeklyAggregated:     b.WeeklyAggregated,
		models.ReportMonthlyComprehensive: b.MonthlyComprehensive,
		models.ReportAgentPerformance:     b.AgentPerformance,
		models.ReportCampaignAnalysis:     b.CampaignAnalysis,
		models.ReportExecutiveSummary:     b.ExecutiveSummary,
	}
}

// Generate dispatches by report kind.
func (b *Builder) Generate(kind string, p models.ReportParams) (string, error) {
	gen, ok := b.Generators()[kind]
	if !ok {
		return "", fmt.Errorf("unknown report kind %q", kind)
	}
	return gen(p)
}

// normalize fills role and date defaults. Reports generated without
// an explicit range fall back to the window their cadence implies.
func (b *Builder) normalize(p models.ReportParams, cadence string) models.ReportParams {
	if p.UserRole == "" {
		p.UserRole = models.RoleManagement
	}
	if p.StartDate.IsZero() && p.EndDate.IsZero() && cadence != "" {
		p.StartDate, p.EndDate = scheduler.ReportingRange(cadence, b.now())
	}
	return p
}

func (b *Builder) campaignsAllowed(p models.ReportParams) bool {
	return p.IncludeCampaigns && models.CampaignsVisible(p.UserRole)
}

func roleSuffix(role string) string {
	switch role {
	case models.RoleAgencyOwner:
		return " (Agency Report)"
	case models.RoleManagement:
		return " (Management Report)"
	}
	return ""
}

func agencyInfo(agency string) string {
	if agency == "" {
		return ""
	}
	return " - " + esc(agency)
}

func dateRangeLabel(start, end time.Time) string {
	if start.Equal(end) {
		return start.Format("2006-01-02")
	}
	return start.Format("2006-01-02") + " to " + end.Format("2006-01-02")
}

// loadAll fetches the three source tables; the vendor table stays
// empty unless campaign data is allowed for the caller's role.
func (b *Builder) loadAll(p models.ReportParams) (agency, agent, vendor metrics.Table, err error) {
	agency, err = b.source.Load(sheets.SheetAgencyStats, p.StartDate, p.EndDate, p.Agency)
	if err != nil {
		return
	}
	agent, err = b.source.Load(sheets.SheetAgentTotals, p.StartDate, p.EndDate, p.Agency)
	if err != nil {
		return
	}
	if b.campaignsAllowed(p) {
		vendor, err = b.source.Load(sheets.SheetVendorTotals, p.StartDate, p.EndDate, p.Agency)
	}
	return
}

// DailyPerformance is the yesterday-at-a-glance report.
func (b *Builder) DailyPerformance(p models.ReportParams) (string, error) {
	p = b.normalize(p, models.CadenceDaily)

	agencyData, agentData, vendorData, err := b.loadAll(p)
	if err != nil {
		return "", fmt.Errorf("daily report data: %w", err)
	}

	stats := metrics.AggregateAgencyStats(agencyData, agentData, vendorData, b.threshold)
	agents := metrics.AgentProfitability(agentData, b.threshold)
	topAgents := metrics.TopPerformers(agents, 5)
	atRisk := metrics.AtRiskAgents(agents)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<div style="font-family: Arial, sans-serif;">
<h1>Daily Performance Report%s%s</h1>
<p><strong>Date:</strong> %s</p>
<h2>Key Metrics</h2>
%s
<h2>Top Performing Agents</h2>
%s
<h2>At-Risk Agents</h2>
%s
`,
		agencyInfo(p.Agency), roleSuffix(p.UserRole),
		dateRangeLabel(p.StartDate, p.EndDate),
		metricRows("Value", [][2]string{
			{"Total Revenue", b.money(stats.TotalRevenue)},
			{"Total Lead Spend", b.money(stats.TotalLeadSpend)},
			{"Total Profit", b.money(stats.TotalProfit)},
			{"Total Leads", formatCount(float64(stats.TotalLeads))},
			{"Total Sales", formatCount(float64(stats.TotalSales))},
			{"Average Closing Ratio", fmt.Sprintf("%.2f%%", stats.AvgClosingRatio)},
		}),
		b.agentTable(topAgents, false),
		b.agentTable(atRisk, false))

	if b.campaignsAllowed(p) && !vendorData.Empty() {
		campaigns := metrics.CampaignROAS(vendorData)
		fmt.Fprintf(&sb, "<h2>Campaign Performance</h2>\n%s\n", b.campaignTable(campaigns))
	}
	sb.WriteString("</div>")
	return sb.String(), nil
}

// WeeklyAggregated covers the previous Sunday-to-Saturday week with
// per-agent and per-campaign totals.
func (b *Builder) WeeklyAggregated(p models.ReportParams) (string, error) {
	p = b.normalize(p, models.CadenceWeekly)

	agencyData, agentData, vendorData, err := b.loadAll(p)
	if err != nil {
		return "", fmt.Errorf("weekly report data: %w", err)
	}

	stats := metrics.AggregateAgencyStats(agencyData, agentData, vendorData, b.threshold)
	agents := metrics.AgentProfitability(agentData, b.threshold)
	topAgents := metrics.TopPerformers(agents, 10)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<div style="font-family: Arial, sans-serif;">
<h1>Weekly Aggregated Report%s%s</h1>
<p><strong>Period:</strong> %s</p>
<h2>Weekly Summary</h2>
%s
<h2>Top Performing Agents (Week)</h2>
%s
`,
		agencyInfo(p.Agency), roleSuffix(p.UserRole),
		dateRangeLabel(p.StartDate, p.EndDate),
		metricRows("Total", [][2]string{
			{"Total Revenue", b.money(stats.TotalRevenue)},
			{"Total Lead Spend", b.money(stats.TotalLeadSpend)},
			{"Total Profit", b.money(stats.TotalProfit)},
			{"Total Leads", formatCount(float64(stats.TotalLeads))},
			{"Total Sales", formatCount(float64(stats.TotalSales))},
			{"Average Closing Ratio", fmt.Sprintf("%.2f%%", stats.AvgClosingRatio)},
		}),
		b.agentTable(topAgents, false))

	if b.campaignsAllowed(p) && !vendorData.Empty() {
		campaigns := metrics.CampaignROAS(vendorData)
		fmt.Fprintf(&sb, "<h2>Campaign Performance (Week)</h2>\n%s\n", b.campaignTable(campaigns))
	}
	sb.WriteString("</div>")
	return sb.String(), nil
}

// MonthlyComprehensive covers the previous calendar month with an
// executive summary block and recommendations.
func (b *Builder) MonthlyComprehensive(p models.ReportParams) (string, error) {
	p = b.normalize(p, models.CadenceMonthly)

	agencyData, agentData, vendorData, err := b.loadAll(p)
	if err != nil {
		return "", fmt.Errorf("monthly report data: %w", err)
	}

	stats := metrics.AggregateAgencyStats(agencyData, agentData, vendorData, b.threshold)
	agents := metrics.AgentProfitability(agentData, b.threshold)
	topAgents := metrics.TopPerformers(agents, 15)
	atRisk := metrics.AtRiskAgents(agents)

	var campaigns []metrics.CampaignRow
	if !vendorData.Empty() {
		campaigns = metrics.CampaignROAS(vendorData)
	}

	var period string
	if p.StartDate.Equal(p.EndDate) {
		period = p.StartDate.Format("January 2006")
	} else {
		period = p.StartDate.Format("January 02") + " - " + p.EndDate.Format("January 02, 2006")
	}

	profitMargin := 0.0
	if stats.TotalRevenue > 0 {
		profitMargin = stats.TotalProfit / stats.TotalRevenue * 100
	}

	concerns := "<p>No agents currently at risk.</p>"
	if len(atRisk) > 0 {
		concerns = b.agentTable(atRisk, false)
	}

	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif;">
<h1>Monthly Performance Report%s%s</h1>
<p><strong>Period:</strong> %s</p>
<h2>Executive Summary</h2>
<div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin: 15px 0;">
<p><strong>Total Revenue:</strong> %s</p>
<p><strong>Total Profit:</strong> %s</p>
<p><strong>Profit Margin:</strong> %.1f%%</p>
<p><strong>Total Agents:</strong> %d (%d at risk)</p>
<p><strong>Average ROAS:</strong> %.2f</p>
</div>
<h2>Top Performing Agents</h2>
%s
<h2>Campaign Analysis</h2>
%s
<h2>Areas of Concern</h2>
%s
<h2>Recommendations</h2>
<ul>
<li>Monitor agents with profitability below %s</li>
<li>Optimize campaigns with ROAS below 2.0</li>
<li>Review lead quality and cost per acquisition</li>
<li>Consider additional training for underperforming agents</li>
</ul>
</div>`,
		agencyInfo(p.Agency), roleSuffix(p.UserRole), period,
		b.money(stats.TotalRevenue), b.money(stats.TotalProfit),
		profitMargin, stats.TotalAgents, stats.AtRiskAgents, stats.AvgROAS,
		b.agentTable(topAgents, false),
		b.campaignTable(campaigns),
		concerns,
		b.moneyN(b.threshold, 0)), nil
}

// AgentPerformance is the deep-dive across every agent, with the
// extra call-efficiency columns.
func (b *Builder) AgentPerformance(p models.ReportParams) (string, error) {
	p = b.normalize(p, "")

	agentData, err := b.source.Load(sheets.SheetAgentTotals, p.StartDate, p.EndDate, p.Agency)
	if err != nil {
		return "", fmt.Errorf("agent report data: %w", err)
	}
	if agentData.Empty() {
		return "<p>No agent data available.</p>", nil
	}

	agents := metrics.AgentProfitability(agentData, b.threshold)
	topAgents := metrics.TopPerformers(agents, 10)
	atRisk := metrics.AtRiskAgents(agents)

	var profSum, ratioSum float64
	for _, a := range agents {
		profSum += a.Profitability
		ratioSum += a.ClosingRatio
	}
	avgProfitability, avgClosing := 0.0, 0.0
	if len(agents) > 0 {
		avgProfitability = profSum / float64(len(agents))
		avgClosing = ratioSum / float64(len(agents))
	}

	attention := "<p>All agents performing well!</p>"
	if len(atRisk) > 0 {
		attention = b.agentTable(atRisk, true)
	}

	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif;">
<h1>Agent Performance Analysis</h1>
<p><strong>Report Date:</strong> %s</p>
<h2>Performance Overview</h2>
<div style="background-color: #e3f2fd; padding: 15px; border-radius: 5px; margin: 15px 0;">
<p><strong>Total Agents:</strong> %d</p>
<p><strong>Average Profitability:</strong> %s</p>
<p><strong>Average Closing Ratio:</strong> %.2f%%</p>
<p><strong>Agents At Risk:</strong> %d</p>
</div>
<h2>Top Performers</h2>
%s
<h2>Agents Requiring Attention</h2>
%s
</div>`,
		b.now().Format("2006-01-02"),
		len(agents), b.money(avgProfitability), avgClosing, len(atRisk),
		b.agentTable(topAgents, true),
		attention), nil
}

// CampaignAnalysis ranks lead-vendor campaigns by ROAS and by profit.
func (b *Builder) CampaignAnalysis(p models.ReportParams) (string, error) {
	p = b.normalize(p, "")

	vendorData, err := b.source.Load(sheets.SheetVendorTotals, p.StartDate, p.EndDate, p.Agency)
	if err != nil {
		return "", fmt.Errorf("campaign report data: %w", err)
	}
	if vendorData.Empty() {
		return "<p>No campaign data available for the selected period.</p>", nil
	}

	campaigns := metrics.CampaignROAS(vendorData)
	byROAS := metrics.CampaignsByROAS(campaigns)
	byProfit := metrics.CampaignsByProfit(campaigns)

	period := b.now().Format("2006-01-02")
	if !p.StartDate.IsZero() && !p.EndDate.IsZero() {
		period = dateRangeLabel(p.StartDate, p.EndDate)
	}

	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif;">
<h1>Campaign Analysis Report%s%s</h1>
<p><strong>Period:</strong> %s</p>
<h2>Top Campaigns by ROAS</h2>
%s
<h2>Top Campaigns by Profit</h2>
%s
<h2>Campaign Performance Metrics</h2>
<p>Review campaigns with ROAS below 2.0 for optimization opportunities.</p>
<p>Consider increasing budget for high-performing campaigns.</p>
</div>`,
		agencyInfo(p.Agency), roleSuffix(p.UserRole), period,
		b.campaignTable(byROAS),
		b.campaignTable(byProfit)), nil
}

// ExecutiveSummary is the KPI-card overview built on yesterday's
// numbers by default.
func (b *Builder) ExecutiveSummary(p models.ReportParams) (string, error) {
	p = b.normalize(p, models.CadenceDaily)

	agencyData, agentData, vendorData, err := b.loadAll(p)
	if err != nil {
		return "", fmt.Errorf("executive summary data: %w", err)
	}

	stats := metrics.AggregateAgencyStats(agencyData, agentData, vendorData, b.threshold)
	agents := metrics.AgentProfitability(agentData, b.threshold)
	topAgents := metrics.TopPerformers(agents, 5)
	atRiskCount := len(metrics.AtRiskAgents(agents))

	roi := 0.0
	if stats.TotalLeadSpend > 0 {
		roi = (stats.TotalRevenue - stats.TotalLeadSpend) / stats.TotalLeadSpend * 100
	}

	growth := "Focus on improving lead quality and agent training."
	if roi > 50 {
		growth = "Excellent performance! Consider scaling successful campaigns."
	}
	efficiency := "Review campaign performance and optimize underperforming channels."
	if stats.AvgROAS > 3 {
		efficiency = "Strong ROAS indicates efficient marketing spend."
	}
	risk := "Agent performance is strong across the board."
	if atRiskCount > 0 {
		risk = "Monitor at-risk agents and provide additional support."
	}

	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif;">
<h1>Executive Summary%s%s</h1>
<p><strong>Period:</strong> %s</p>
<h2>Key Performance Indicators</h2>
<div style="display: flex; flex-wrap: wrap; gap: 20px; margin: 20px 0;">
<div style="background-color: #4caf50; color: white; padding: 20px; border-radius: 8px; text-align: center; min-width: 150px;">
<h3 style="margin: 0;">Total Revenue</h3>
<p style="margin: 5px 0; font-size: 24px; font-weight: bold;">%s</p>
</div>
<div style="background-color: #2196f3; color: white; padding: 20px; border-radius: 8px; text-align: center; min-width: 150px;">
<h3 style="margin: 0;">Total Profit</h3>
<p style="margin: 5px 0; font-size: 24px; font-weight: bold;">%s</p>
</div>
<div style="background-color: #ff9800; color: white; padding: 20px; border-radius: 8px; text-align: center; min-width: 150px;">
<h3 style="margin: 0;">ROI</h3>
<p style="margin: 5px 0; font-size: 24px; font-weight: bold;">%.1f%%</p>
</div>
<div style="background-color: #9c27b0; color: white; padding: 20px; border-radius: 8px; text-align: center; min-width: 150px;">
<h3 style="margin: 0;">Average ROAS</h3>
<p style="margin: 5px 0; font-size: 24px; font-weight: bold;">%.1f</p>
</div>
</div>
<h2>Operations Summary</h2>
%s
<h2>Top 5 Agents</h2>
%s
<h2>Strategic Recommendations</h2>
<ul style="line-height: 1.6;">
<li><strong>Growth:</strong> %s</li>
<li><strong>Efficiency:</strong> %s</li>
<li><strong>Risk Management:</strong> %s</li>
</ul>
</div>`,
		agencyInfo(p.Agency), roleSuffix(p.UserRole),
		dateRangeLabel(p.StartDate, p.EndDate),
		b.moneyN(stats.TotalRevenue, 0), b.moneyN(stats.TotalProfit, 0),
		roi, stats.AvgROAS,
		metricRows("Value", [][2]string{
			{"Total Leads Generated", formatCount(float64(stats.TotalLeads))},
			{"Total Sales Closed", formatCount(float64(stats.TotalSales))},
			{"Average Closing Ratio", fmt.Sprintf("%.1f%%", stats.AvgClosingRatio)},
			{"Active Agents", fmt.Sprintf("%d", stats.TotalAgents)},
			{"Agents At Risk", fmt.Sprintf("%d", atRiskCount)},
		}),
		b.agentTable(topAgents, false),
		growth, efficiency, risk), nil
}
