package riskposture

import (
	"sort"
	"time"

	"missionsec/pkg/entity"
)

// FilterOptions lists the values a user can filter a table by.
type FilterOptions struct {
	Missions    []string
	ReportTypes []string
	// RiskLevels excludes the N/A placeholder.
	RiskLevels []string
	MinDate    time.Time
	MaxDate    time.Time
}

// Options collects the sorted distinct filter values of table. It returns
// false when the table has no records.
func Options(table *entity.Table) (FilterOptions, bool) {
	var opts FilterOptions
	if table.Len() == 0 {
		return opts, false
	}
	missions := map[string]bool{}
	types := map[string]bool{}
	risks := map[string]bool{}
	for i, r := range table.Records {
		missions[r.Get(entity.ColMission)] = true
		types[r.Get(entity.ColReportType)] = true
		if lvl := r.Get(entity.ColRiskLevel); lvl != entity.NotAvailable && r.Has(entity.ColRiskLevel) {
			risks[lvl] = true
		}
		if i == 0 || r.Date.Before(opts.MinDate) {
			opts.MinDate = r.Date
		}
		if i == 0 || r.Date.After(opts.MaxDate) {
			opts.MaxDate = r.Date
		}
	}
	opts.Missions = sortedKeys(missions)
	opts.ReportTypes = sortedKeys(types)
	opts.RiskLevels = sortedKeys(risks)
	return opts, true
}

// Filter selects records. Empty selections and zero dates do not restrict.
type Filter struct {
	Missions    []string
	ReportTypes []string
	RiskLevels  []string
	// From and To bound the report date by calendar day, inclusive.
	From time.Time
	To   time.Time
}

// Apply returns the records of table matching f. The risk level selection is
// only applied when it leaves out at least one available level, so records
// without a risk level survive a full selection.
func Apply(table *entity.Table, f Filter) []entity.Record {
	if table.Len() == 0 {
		return nil
	}
	missions := toSet(f.Missions)
	types := toSet(f.ReportTypes)

	var risks map[string]bool
	if len(f.RiskLevels) > 0 {
		opts, _ := Options(table)
		selected := toSet(f.RiskLevels)
		for _, lvl := range opts.RiskLevels {
			if !selected[lvl] {
				risks = selected
				break
			}
		}
	}

	from, to := day(f.From), day(f.To)
	out := make([]entity.Record, 0, len(table.Records))
	for _, r := range table.Records {
		d := day(r.Date)
		if !f.From.IsZero() && d.Before(from) {
			continue
		}
		if !f.To.IsZero() && d.After(to) {
			continue
		}
		if missions != nil && !missions[r.Get(entity.ColMission)] {
			continue
		}
		if types != nil && !types[r.Get(entity.ColReportType)] {
			continue
		}
		if risks != nil && !risks[r.Get(entity.ColRiskLevel)] {
			continue
		}
		out = append(out, r)
	}
	return out
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
