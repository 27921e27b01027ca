package metrics

import (
	"math"
	"sort"
)

// ProfitabilityThreshold is the default cutoff below which an agent is
// flagged at risk.
const ProfitabilityThreshold = 200.0

// AgentRow holds the derived metrics for one agent.
type AgentRow struct {
	Name           string  `json:"agent"`
	TotalCalls     float64 `json:"total_calls"`
	PaidCalls      float64 `json:"paid_calls"`
	TotalSales     float64 `json:"total_sales"`
	Revenue        float64 `json:"revenue"`
	LeadSpend      float64 `json:"lead_spend"`
	Profitability  float64 `json:"profitability"`
	ClosingRatio   float64 `json:"closing_ratio"`
	RevenuePerCall float64 `json:"revenue_per_call"`
	// HasProfit is false when the source data carried neither a
	// pre-computed profitability column nor a lead-spend column, so
	// Profitability is meaningless rather than zero.
	HasProfit bool `json:"-"`
	AtRisk    bool `json:"at_risk"`
}

// CampaignRow holds the derived metrics for one lead-vendor campaign.
type CampaignRow struct {
	Vendor       string  `json:"vendor"`
	Leads        float64 `json:"leads"`
	Sales        float64 `json:"sales"`
	Revenue      float64 `json:"revenue"`
	LeadSpend    float64 `json:"lead_spend"`
	ROAS         float64 `json:"roas"`
	Profit       float64 `json:"profit"`
	ClosingRatio float64 `json:"closing_ratio"`
	CostPerLead  float64 `json:"cost_per_lead"`
	CostPerSale  float64 `json:"cost_per_sale"`
	ProfitMargin float64 `json:"profit_margin"`
}

// AgencyStats aggregates the three source tables into one rollup.
type AgencyStats struct {
	TotalRevenue    float64 `json:"total_revenue"`
	TotalLeadSpend  float64 `json:"total_lead_spend"`
	TotalProfit     float64 `json:"total_profit"`
	TotalLeads      int     `json:"total_leads"`
	TotalSales      int     `json:"total_sales"`
	AvgClosingRatio float64 `json:"avg_closing_ratio"`
	AvgROAS         float64 `json:"avg_roas"`
	TotalAgents     int     `json:"total_agents"`
	AtRiskAgents    int     `json:"at_risk_agents"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AgentProfitability derives per-agent metrics from an agent-totals
// table. When the sheet carries a pre-computed "Agent Profitability"
// column those numbers are trusted; otherwise the ratios are rebuilt
// from raw calls/sales/revenue columns.
func AgentProfitability(t Table, threshold float64) []AgentRow {
	if t.Empty() {
		return nil
	}

	nameCol := t.Col("Agent Name")
	salesCol := t.Col("Sales")
	revenueCol := t.Col("Revenue")
	paidCol := t.Col("Count Paid Calls")
	totalCallsCol := t.Col("Total Calls")
	spendCol := t.Col("Lead Spend")
	profitCol := t.Col("Agent Profitability")
	closingCol := t.Col("Closing Ratio")

	precalculated := profitCol >= 0

	rows := make([]AgentRow, 0, len(t.Rows))
	for i := range t.Rows {
		row := AgentRow{
			Name:       t.Cell(i, nameCol),
			TotalCalls: t.Number(i, totalCallsCol),
			PaidCalls:  t.Number(i, paidCol),
			TotalSales: t.Number(i, salesCol),
			Revenue:    t.Number(i, revenueCol),
			LeadSpend:  t.Number(i, spendCol),
		}

		if precalculated {
			row.Profitability = t.Number(i, profitCol)
			row.ClosingRatio = t.Number(i, closingCol)
			row.HasProfit = true
		} else {
			row.ClosingRatio = round2(SafeDivide(row.TotalSales, row.PaidCalls) * 100)
			if spendCol >= 0 {
				row.Profitability = row.Revenue - row.LeadSpend
				row.HasProfit = true
			}
		}

		row.RevenuePerCall = round2(SafeDivide(row.Revenue, row.PaidCalls))
		row.AtRisk = row.HasProfit && row.Profitability < threshold
		rows = append(rows, row)
	}
	return rows
}

// CampaignROAS derives per-campaign metrics from a lead-vendor table,
// trusting the sheet's own ROAS/Profit columns when present.
func CampaignROAS(t Table) []CampaignRow {
	if t.Empty() {
		return nil
	}

	vendorCol := t.Col("Campaign")
	leadsCol := t.Col("Paid Calls")
	salesCol := t.Col("# Unique Sales")
	revenueCol := t.Col("Revenue")
	costCol := t.Col("Lead Cost")
	roasCol := t.Col("ROAS")
	profitCol := t.Col("Profit")
	closingCol := t.Col("% Closing Ratio")

	precalculated := roasCol >= 0

	rows := make([]CampaignRow, 0, len(t.Rows))
	for i := range t.Rows {
		row := CampaignRow{
			Vendor:    t.Cell(i, vendorCol),
			Leads:     t.Number(i, leadsCol),
			Sales:     t.Number(i, salesCol),
			Revenue:   t.Number(i, revenueCol),
			LeadSpend: t.Number(i, costCol),
		}

		if precalculated {
			row.ROAS = t.Number(i, roasCol)
			row.Profit = t.Number(i, profitCol)
			row.ClosingRatio = t.Number(i, closingCol)
		} else {
			row.ROAS = round2(SafeDivide(row.Revenue, row.LeadSpend))
			row.ClosingRatio = round2(SafeDivide(row.Sales, row.Leads) * 100)
			row.Profit = row.Revenue - row.LeadSpend
		}

		row.CostPerLead = round2(SafeDivide(row.LeadSpend, row.Leads))
		row.CostPerSale = round2(SafeDivide(row.LeadSpend, row.Sales))
		row.ProfitMargin = round2(SafeDivide(row.Profit, row.Revenue) * 100)
		rows = append(rows, row)
	}
	return rows
}

// AggregateAgencyStats rolls the three source tables into one summary.
func AggregateAgencyStats(agency, agent, vendor Table, threshold float64) AgencyStats {
	var stats AgencyStats

	if !agency.Empty() {
		if col := agency.Col("Total Rev"); col >= 0 {
			stats.TotalRevenue = agency.SumColumn(col)
		}
		// In the source sheet the "Total Leads" column actually holds
		// lead spend, not a lead count.
		if col := agency.Col("Total Leads"); col >= 0 {
			stats.TotalLeadSpend = agency.SumColumn(col)
		}
		if stats.TotalLeadSpend == 0 {
			qw, qs, sf := agency.Col("QW"), agency.Col("QS"), agency.Col("SF")
			if qw >= 0 && qs >= 0 && sf >= 0 {
				vendorSpend := agency.SumColumn(qw) + agency.SumColumn(qs) + agency.SumColumn(sf)
				if vendorSpend > 0 {
					stats.TotalLeadSpend = vendorSpend
				}
			}
		}
	}

	if !agent.Empty() {
		agents := AgentProfitability(agent, threshold)
		stats.TotalAgents = len(agents)

		var salesSum, ratioSum float64
		var ratioCount int
		for _, a := range agents {
			if a.AtRisk {
				stats.AtRiskAgents++
			}
			salesSum += a.TotalSales
			if a.ClosingRatio > 0 {
				ratioSum += a.ClosingRatio
				ratioCount++
			}
		}
		stats.TotalSales = int(salesSum)
		if ratioCount > 0 {
			stats.AvgClosingRatio = ratioSum / float64(ratioCount)
		}
	}

	if !vendor.Empty() {
		campaigns := CampaignROAS(vendor)

		var leadsSum, spendSum, roasSum float64
		var roasCount int
		for _, c := range campaigns {
			leadsSum += c.Leads
			spendSum += c.LeadSpend
			if c.ROAS > 0 {
				roasSum += c.ROAS
				roasCount++
			}
		}
		stats.TotalLeads = int(leadsSum)
		if stats.TotalLeadSpend == 0 {
			stats.TotalLeadSpend = spendSum
		}
		if roasCount > 0 {
			stats.AvgROAS = roasSum / float64(roasCount)
		}
	}

	stats.TotalProfit = stats.TotalRevenue - stats.TotalLeadSpend

	stats.TotalRevenue = round2(stats.TotalRevenue)
	stats.TotalLeadSpend = round2(stats.TotalLeadSpend)
	stats.TotalProfit = round2(stats.TotalProfit)
	stats.AvgClosingRatio = round2(stats.AvgClosingRatio)
	stats.AvgROAS = round2(stats.AvgROAS)
	return stats
}

// TopPerformers returns up to n agents with positive profitability,
// best first.
func TopPerformers(agents []AgentRow, n int) []AgentRow {
	var positive []AgentRow
	for _, a := range agents {
		if a.HasProfit && a.Profitability > 0 {
			positive = append(positive, a)
		}
	}
	sort.SliceStable(positive, func(i, j int) bool {
		return positive[i].Profitability > positive[j].Profitability
	})
	if len(positive) > n {
		positive = positive[:n]
	}
	return positive
}

// AtRiskAgents returns agents below the threshold, worst first.
func AtRiskAgents(agents []AgentRow) []AgentRow {
	var atRisk []AgentRow
	for _, a := range agents {
		if a.AtRisk {
			atRisk = append(atRisk, a)
		}
	}
	sort.SliceStable(atRisk, func(i, j int) bool {
		return atRisk[i].Profitability < atRisk[j].Profitability
	})
	return atRisk
}

// CampaignsByROAS returns campaigns with a positive ROAS, best first.
func CampaignsByROAS(campaigns []CampaignRow) []CampaignRow {
	var out []CampaignRow
	for _, c := range campaigns {
		if c.ROAS > 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ROAS > out[j].ROAS
	})
	return out
}

// CampaignsByProfit returns all campaigns ordered by profit, best first.
func CampaignsByProfit(campaigns []CampaignRow) []CampaignRow {
	out := make([]CampaignRow, len(campaigns))
	copy(out, campaigns)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Profit > out[j].Profit
	})
	return out
}
