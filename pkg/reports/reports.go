package reports

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"missionsec/pkg/entity"
	"missionsec/pkg/riskposture"
)

func riskColor(level string) *color.Color {
	switch level {
	case entity.RiskHigh:
		return color.New(color.FgRed, color.Bold)
	case entity.RiskMedium:
		return color.New(color.FgYellow)
	case entity.RiskLow:
		return color.New(color.FgGreen)
	default:
		return color.New(color.FgWhite)
	}
}

// PrintSummary writes the dashboard KPIs, chart series and timeline as
// console tables.
func PrintSummary(w io.Writer, view DashboardView) {
	heading := color.New(color.FgHiBlue, color.Bold)

	heading.Fprintln(w, view.Title)
	fmt.Fprintf(w, "Data as of %s, showing %s\n", view.DataAsOf, view.FilterSummary)
	for _, warn := range view.Warnings {
		color.New(color.FgYellow).Fprintf(w, "warning: %s\n", warn)
	}
	if view.Empty {
		color.New(color.FgYellow).Fprintln(w, "No data available for the selected filters.")
		return
	}

	fmt.Fprintln(w)
	rowFormat := "%-34s %s\n"
	fmt.Fprintf(w, rowFormat, "Total Reports Logged", color.HiCyanString("%d", view.KPIs.TotalReports))
	fmt.Fprintf(w, rowFormat, "Open Incidents (Investigating)", color.HiCyanString("%d", view.KPIs.OpenIncidents))
	fmt.Fprintf(w, rowFormat, "High-Risk Findings", color.HiRedString("%d", view.KPIs.HighRisk))
	fmt.Fprintf(w, rowFormat, "Avg. Incident Fix Time (Hours)", color.HiCyanString("%s", view.AvgFixTime))

	printCounts(w, heading, "Security Incidents by Attack Type", view.AttackTypes)
	printCounts(w, heading, "Risk Level Distribution", view.RiskLevels)

	fmt.Fprintln(w)
	heading.Fprintln(w, "Report Timeline")
	header := fmt.Sprintf("%-12s %-20s %s", "Date", "Mission", "Count")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))
	for _, p := range view.Timeline {
		fmt.Fprintf(w, "%-12s %-20s %d\n", p.Date.Format("2006-01-02"), p.Mission, p.Count)
	}
}

func printCounts(w io.Writer, heading *color.Color, title string, items []ChartItem) {
	fmt.Fprintln(w)
	heading.Fprintln(w, title)
	if len(items) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, it := range items {
		label := riskColor(it.Label).Sprintf("%-24s", it.Label)
		fmt.Fprintf(w, "  %s %5d %3d%%\n", label, it.Count, it.Percent)
	}
}

// PrintTab writes one drill-down tab as a console table.
func PrintTab(w io.Writer, tab riskposture.DetailTab) {
	color.New(color.FgHiBlue, color.Bold).Fprintln(w, tab.Title)
	if tab.Empty() {
		fmt.Fprintf(w, "No %s data available.\n", strings.ToLower(tab.ReportType))
		return
	}
	fmt.Fprintln(w, strings.Join(tab.Headers, " | "))
	for _, row := range tab.Rows {
		fmt.Fprintln(w, strings.Join(row, " | "))
	}
}
