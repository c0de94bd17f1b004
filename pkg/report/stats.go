package report

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ReportDateLayout formats the calendar date a summary was computed on.
const ReportDateLayout = "2006-01-02"

// Rating is an average review rating that may be undefined when there are
// no reviews. Its text form is the mean with two decimals or "N/A".
type Rating struct {
	value decimal.Decimal
	valid bool
}

// NewRating returns a defined rating.
func NewRating(d decimal.Decimal) Rating {
	return Rating{value: d, valid: true}
}

// Decimal returns the rating and whether it is defined.
func (r Rating) Decimal() (decimal.Decimal, bool) {
	return r.value, r.valid
}

// Valid reports whether the rating is defined.
func (r Rating) Valid() bool { return r.valid }

func (r Rating) String() string {
	if !r.valid {
		return NotAvailable
	}
	return r.value.StringFixed(2)
}

// MarshalJSON encodes the rating as its text form, matching what the
// renderers display.
func (r Rating) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// SummaryStats are aggregate metrics computed fresh for every export.
type SummaryStats struct {
	ReportDate    string `json:"reportDateTime"`
	TotalUsers    int    `json:"totalUsers"`
	TotalDevices  int    `json:"totalDevices"`
	AverageRating Rating `json:"averageRating"`
	TotalFeedback int    `json:"totalFeedback"`
}

// ComputeSummary aggregates rs as of now.
func ComputeSummary(rs *RecordSet) (*SummaryStats, error) {
	return ComputeSummaryAt(rs, time.Now())
}

// ComputeSummaryAt aggregates rs with the report date taken from now in UTC.
// All four collections must be present; callers normalize first when they
// tolerate missing ones.
func ComputeSummaryAt(rs *RecordSet, now time.Time) (*SummaryStats, error) {
	if missing := rs.Missing(); len(missing) > 0 {
		return nil, missingCollectionsError(missing)
	}

	stats := &SummaryStats{
		ReportDate:    now.UTC().Format(ReportDateLayout),
		TotalUsers:    len(rs.Users),
		TotalFeedback: len(rs.Feedback),
	}

	for _, d := range rs.Devices {
		if d.Paired() {
			stats.TotalDevices++
		}
	}

	if len(rs.Reviews) > 0 {
		sum := decimal.Zero
		for _, r := range rs.Reviews {
			sum = sum.Add(r.Rating.Decimal())
		}
		stats.AverageRating = NewRating(sum.Div(decimal.NewFromInt(int64(len(rs.Reviews)))))
	}

	return stats, nil
}

// Context returns the five scalar metrics keyed the way templates refer to them.
func (s *SummaryStats) Context() map[string]any {
	return map[string]any{
		"reportDateTime": s.ReportDate,
		"totalUsers":     s.TotalUsers,
		"totalDevices":   s.TotalDevices,
		"averageRating":  s.AverageRating.String(),
		"totalFeedback":  s.TotalFeedback,
	}
}

func missingCollectionsError(names []string) error {
	issues := make([]ValidationIssue, len(names))
	for i, name := range names {
		issues[i] = ValidationIssue{Field: name, Message: "must be a sequence of records"}
	}
	return &ValidationError{Issues: issues}
}
