package entity

import (
	"math"
	"strconv"
	"time"
)

// Column names read by the loader and the dashboard.
const (
	ColMission    = "mission"
	ColReportType = "report_type"
	ColDate       = "date"
	ColRiskLevel  = "risk_level"
	ColStatus     = "status"
	ColAttackType = "attack_type"
	ColTimeToFix  = "time_to_fix_hours"

	ColRootCause           = "root_cause"
	ColRemediationMeasures = "remediation_measures"
	ColComplianceResults   = "compliance_evaluation_results"
	ColNonConformities     = "identified_non_conformities_and_recommendations"
	ColFollowUpActions     = "follow_up_actions_and_deadlines"
	ColSecurityControls    = "security_control_checks"
	ColTechnicalFindings   = "findings_from_technical_verifications"
	ColGapsAndActions      = "identified_gaps_and_proposed_corrective_actions"
	ColRisksAndThreats     = "identified_risks_and_threat_scenarios"
	ColLikelihoodAndImpact = "likelihood_and_impact_assessments"
	ColMitigations         = "existing_mitigations_and_residual_risks"
	ColTreatmentPlan       = "risk_treatment_plan_and_responsible_entities"
	ColOngoingOperations   = "summary_of_ongoing_security_operations"
	ColNotableEvents       = "notable_security_events"
	ColMitigationProgress  = "progress_on_mitigation_actions"
)

// NotAvailable replaces empty categorical values.
const NotAvailable = "N/A"

// CategoricalColumns are filled with NotAvailable when empty.
var CategoricalColumns = []string{ColRiskLevel, ColStatus, ColAttackType}

// Report types seen in the mission data files.
const (
	ReportIncident     = "Security Incident Report"
	ReportCompliance   = "Compliance Report"
	ReportVerification = "Security Verification Report"
	ReportRisk         = "Security Risk Assessment Report"
	ReportRegular      = "Security Regular Report"
)

// RiskLevel values. Anything else is carried through as text.
const (
	RiskHigh   = "High"
	RiskMedium = "Medium"
	RiskLow    = "Low"
)

// StatusInvestigating marks an incident that is still open.
const StatusInvestigating = "Investigating"

// Hours is a time_to_fix_hours reading. The zero value is the missing marker.
type Hours struct {
	Value float64
	Valid bool
}

// MissingHours is the missing marker for time_to_fix_hours.
var MissingHours = Hours{}

// ParseHours converts s to Hours, returning MissingHours when s is not a number.
func ParseHours(s string) Hours {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return MissingHours
	}
	return Hours{Value: v, Valid: true}
}

func (h Hours) String() string {
	if !h.Valid {
		return NotAvailable
	}
	return strconv.FormatFloat(h.Value, 'f', -1, 64)
}

// Record is one normalized report row.
type Record struct {
	// Fields maps column name to cell text. Absent cells are not present in the map.
	Fields map[string]string
	// Date is the parsed date column.
	Date time.Time
	// TimeToFix is the parsed time_to_fix_hours column.
	TimeToFix Hours
}

// Get returns the cell text for col, or "" when the cell is absent.
func (r Record) Get(col string) string {
	return r.Fields[col]
}

// Has reports whether the record carries a cell for col.
func (r Record) Has(col string) bool {
	_, ok := r.Fields[col]
	return ok
}

// Value returns the display text of col, using the coerced values for the
// date and time_to_fix_hours columns.
func (r Record) Value(col string) string {
	switch col {
	case ColDate:
		return r.Date.Format(time.DateOnly)
	case ColTimeToFix:
		return r.TimeToFix.String()
	}
	return r.Fields[col]
}

// Table is the normalized report table. It is not modified after loading.
type Table struct {
	// Columns is the header row in file order.
	Columns []string
	// Records holds one entry per data row.
	Records []Record
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// HasColumn reports whether the header contains col.
func (t *Table) HasColumn(col string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}
