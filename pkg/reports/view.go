package reports

import (
	"fmt"
	"strings"
	"time"

	"missionsec/pkg/entity"
	"missionsec/pkg/loader"
	"missionsec/pkg/riskposture"
)

// ChartItem is one bar or slice of a dashboard chart.
type ChartItem struct {
	Label    string
	Count    int
	Percent  int
	BadgeCls string
}

// DashboardView is everything the dashboard template renders.
type DashboardView struct {
	Title       string
	GeneratedAt string
	// DataAsOf is the latest report date in the whole table.
	DataAsOf string

	Options riskposture.FilterOptions
	Filter  riskposture.Filter
	// FilterSummary describes the active filter in one line.
	FilterSummary string

	KPIs       riskposture.KPIs
	AvgFixTime string
	RiskCounts riskposture.RiskLevelCounts

	AttackTypes []ChartItem
	RiskLevels  []ChartItem
	Timeline    []riskposture.TimelinePoint
	Tabs        []riskposture.DetailTab

	Warnings []string
	// Empty is set when the filter left no records.
	Empty bool
}

func riskClass(level string) string {
	switch level {
	case entity.RiskHigh:
		return "badge high"
	case entity.RiskMedium:
		return "badge medium"
	case entity.RiskLow:
		return "badge low"
	default:
		return "badge info"
	}
}

func chartItems(counts []riskposture.ValueCount) []ChartItem {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	out := make([]ChartItem, 0, len(counts))
	for _, c := range counts {
		out = append(out, ChartItem{
			Label:    c.Value,
			Count:    c.Count,
			Percent:  pct(c.Count, total),
			BadgeCls: riskClass(c.Value),
		})
	}
	return out
}

func pct(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(part) / float64(total) * 100.0)
}

// FormatHours renders an average fix time the way the KPI card shows it.
func FormatHours(h entity.Hours) string {
	if !h.Valid {
		return entity.NotAvailable
	}
	return fmt.Sprintf("%.1fh", h.Value)
}

// BuildDashboardView applies filter to the loaded table and derives the KPIs,
// chart series and drill-down tabs.
func BuildDashboardView(title string, res *loader.Result, filter riskposture.Filter) DashboardView {
	view := DashboardView{
		Title:       title,
		GeneratedAt: time.Now().Format(time.RFC1123),
		Filter:      filter,
	}
	if res == nil || res.Table == nil {
		view.Empty = true
		return view
	}
	view.Warnings = append([]string{}, res.Warnings...)

	opts, ok := riskposture.Options(res.Table)
	if ok {
		view.Options = opts
		view.DataAsOf = opts.MaxDate.Format(time.DateOnly)
	}
	view.FilterSummary = describeFilter(filter)

	rp := riskposture.NewRiskPosture(riskposture.Apply(res.Table, filter))
	if len(rp.Records) == 0 {
		view.Empty = true
		return view
	}

	view.KPIs = rp.ComputeKPIs()
	view.AvgFixTime = FormatHours(view.KPIs.AvgFixTime)
	view.RiskCounts = rp.CountRiskLevels()
	view.AttackTypes = chartItems(rp.AttackTypeCounts())
	view.RiskLevels = chartItems(rp.RiskDistribution())
	view.Timeline = rp.Timeline()
	view.Tabs = rp.DetailTabs(res.Table.Columns)
	return view
}

func describeFilter(f riskposture.Filter) string {
	var parts []string
	if len(f.Missions) > 0 {
		parts = append(parts, "missions="+strings.Join(f.Missions, ","))
	}
	if len(f.ReportTypes) > 0 {
		parts = append(parts, "report types="+strings.Join(f.ReportTypes, ","))
	}
	if len(f.RiskLevels) > 0 {
		parts = append(parts, "risk levels="+strings.Join(f.RiskLevels, ","))
	}
	if !f.From.IsZero() {
		parts = append(parts, "from="+f.From.Format(time.DateOnly))
	}
	if !f.To.IsZero() {
		parts = append(parts, "to="+f.To.Format(time.DateOnly))
	}
	if len(parts) == 0 {
		return "all reports"
	}
	return strings.Join(parts, "; ")
}
