package riskposture

import (
	"sort"
	"time"

	"missionsec/pkg/entity"
)

// ValueCount is the number of records carrying Value.
type ValueCount struct {
	Value string
	Count int
}

// CountBy counts records per value of column, most frequent first. Ties are
// ordered by value.
func CountBy(records []entity.Record, column string) []ValueCount {
	counts := map[string]int{}
	for _, r := range records {
		counts[r.Get(column)]++
	}
	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// AttackTypeCounts counts incident reports per attack type.
func (rp *RiskPosture) AttackTypeCounts() []ValueCount {
	return CountBy(rp.OfType(entity.ReportIncident), entity.ColAttackType)
}

// RiskDistribution counts records per risk level, leaving out N/A.
func (rp *RiskPosture) RiskDistribution() []ValueCount {
	var rated []entity.Record
	for _, r := range rp.Records {
		if lvl := r.Get(entity.ColRiskLevel); lvl != "" && lvl != entity.NotAvailable {
			rated = append(rated, r)
		}
	}
	return CountBy(rated, entity.ColRiskLevel)
}

// TimelinePoint is the number of reports a mission submitted on one day.
type TimelinePoint struct {
	Date    time.Time
	Mission string
	Count   int
}

// Timeline counts reports per calendar day and mission, oldest first.
func (rp *RiskPosture) Timeline() []TimelinePoint {
	type key struct {
		date    time.Time
		mission string
	}
	counts := map[key]int{}
	for _, r := range rp.Records {
		counts[key{day(r.Date), r.Get(entity.ColMission)}]++
	}
	out := make([]TimelinePoint, 0, len(counts))
	for k, n := range counts {
		out = append(out, TimelinePoint{Date: k.date, Mission: k.mission, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Mission < out[j].Mission
	})
	return out
}

// TabSpec names a drill-down tab, the report type it lists and the columns
// it shows when the table has them.
type TabSpec struct {
	Key        string
	Title      string
	ReportType string
	Columns    []string
}

// Tabs are the drill-down tabs of the dashboard in display order.
var Tabs = []TabSpec{
	{
		Key:        "incidents",
		Title:      "Security Incident Details",
		ReportType: entity.ReportIncident,
		Columns: []string{entity.ColMission, entity.ColDate, entity.ColAttackType, entity.ColRiskLevel, entity.ColStatus,
			entity.ColRootCause, entity.ColRemediationMeasures, entity.ColTimeToFix},
	},
	{
		Key:        "compliance",
		Title:      "Compliance Non-Conformities",
		ReportType: entity.ReportCompliance,
		Columns: []string{entity.ColMission, entity.ColDate, entity.ColComplianceResults,
			entity.ColNonConformities, entity.ColFollowUpActions},
	},
	{
		Key:        "verification",
		Title:      "Security Verification Gaps",
		ReportType: entity.ReportVerification,
		Columns: []string{entity.ColMission, entity.ColDate, entity.ColSecurityControls,
			entity.ColTechnicalFindings, entity.ColGapsAndActions},
	},
	{
		Key:        "risk",
		Title:      "Risk Assessment Treatment Plans",
		ReportType: entity.ReportRisk,
		Columns: []string{entity.ColMission, entity.ColDate, entity.ColRisksAndThreats, entity.ColRiskLevel,
			entity.ColLikelihoodAndImpact, entity.ColMitigations, entity.ColTreatmentPlan},
	},
	{
		Key:        "regular",
		Title:      "Regular Report Summaries",
		ReportType: entity.ReportRegular,
		Columns: []string{entity.ColMission, entity.ColDate, entity.ColOngoingOperations,
			entity.ColNotableEvents, entity.ColMitigationProgress},
	},
}

// DetailTab is a rendered drill-down table.
type DetailTab struct {
	TabSpec
	// Headers are the tab columns present in the source table.
	Headers []string
	Rows    [][]string
}

// Empty reports whether the tab has nothing to show.
func (t DetailTab) Empty() bool {
	return len(t.Headers) == 0 || len(t.Rows) == 0
}

// DetailTabs builds every drill-down tab from the view. columns is the
// header of the source table.
func (rp *RiskPosture) DetailTabs(columns []string) []DetailTab {
	present := toSet(columns)
	out := make([]DetailTab, 0, len(Tabs))
	for _, spec := range Tabs {
		tab := DetailTab{TabSpec: spec}
		for _, c := range spec.Columns {
			if present[c] {
				tab.Headers = append(tab.Headers, c)
			}
		}
		if len(tab.Headers) > 0 {
			for _, r := range rp.OfType(spec.ReportType) {
				row := make([]string, len(tab.Headers))
				for i, c := range tab.Headers {
					row[i] = r.Value(c)
				}
				tab.Rows = append(tab.Rows, row)
			}
		}
		out = append(out, tab)
	}
	return out
}
