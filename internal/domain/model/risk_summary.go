package model

// RiskSummary is the portfolio-level verdict over one scored batch.
// SafePercentage is nil for an empty batch.
type RiskSummary struct {
	SafePercentage *int
	TotalCount     int
	HighCount      int
	MediumCount    int
	Alert          bool
}

// LowCount is the number of assessments that are neither HIGH nor MEDIUM.
func (s RiskSummary) LowCount() int {
	return s.TotalCount - s.HighCount - s.MediumCount
}

// SafePercentageOr returns SafePercentage, or fallback when it is undefined.
func (s RiskSummary) SafePercentageOr(fallback int) int {
	if s.SafePercentage == nil {
		return fallback
	}
	return *s.SafePercentage
}
