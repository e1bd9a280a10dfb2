package riskposture

import (
	"missionsec/pkg/entity"
)

// RiskPosture is a filtered view over report records.
type RiskPosture struct {
	// Records is the view. The records are shared with the loaded table.
	Records []entity.Record
}

// NewRiskPosture creates a new RiskPosture over the given records.
func NewRiskPosture(records []entity.Record) RiskPosture {
	return RiskPosture{
		Records: records,
	}
}

// RiskLevelCounts holds the number of records per known risk level.
type RiskLevelCounts struct {
	High   int
	Medium int
	Low    int
	// Other counts N/A and any unrecognized level.
	Other int
}

// Total returns the sum of all counts.
func (c RiskLevelCounts) Total() int {
	return c.High + c.Medium + c.Low + c.Other
}

// CountRiskLevels counts the records that carry each risk level.
func (rp *RiskPosture) CountRiskLevels() RiskLevelCounts {
	var counts RiskLevelCounts
	for _, r := range rp.Records {
		switch r.Get(entity.ColRiskLevel) {
		case entity.RiskHigh:
			counts.High++
		case entity.RiskMedium:
			counts.Medium++
		case entity.RiskLow:
			counts.Low++
		default:
			counts.Other++
		}
	}
	return counts
}

// KPIs are the headline numbers of the dashboard.
type KPIs struct {
	TotalReports  int
	OpenIncidents int
	HighRisk      int
	// AvgFixTime is the mean time_to_fix_hours over incident reports with a
	// reading. It is the missing marker when no incident has one.
	AvgFixTime entity.Hours
}

// ComputeKPIs derives the headline numbers of the view.
func (rp *RiskPosture) ComputeKPIs() KPIs {
	k := KPIs{TotalReports: len(rp.Records)}
	var sum float64
	var n int
	for _, r := range rp.Records {
		if r.Get(entity.ColRiskLevel) == entity.RiskHigh {
			k.HighRisk++
		}
		if r.Get(entity.ColReportType) != entity.ReportIncident {
			continue
		}
		if r.Get(entity.ColStatus) == entity.StatusInvestigating {
			k.OpenIncidents++
		}
		if r.TimeToFix.Valid {
			sum += r.TimeToFix.Value
			n++
		}
	}
	if n > 0 {
		k.AvgFixTime = entity.Hours{Value: sum / float64(n), Valid: true}
	}
	return k
}

// OfType returns the records whose report_type is reportType.
func (rp *RiskPosture) OfType(reportType string) []entity.Record {
	var out []entity.Record
	for _, r := range rp.Records {
		if r.Get(entity.ColReportType) == reportType {
			out = append(out, r)
		}
	}
	return out
}
