package service

import (
	"github.com/bibbank/riskwatch/internal/domain/model"
	"github.com/bibbank/riskwatch/internal/domain/valueobject"
)

// Summarize reduces a complete batch of assessments to a portfolio verdict.
// An empty batch yields a zero summary with no safe percentage.
func Summarize(assessments []model.RiskAssessment) model.RiskSummary {
	summary := model.RiskSummary{TotalCount: len(assessments)}

	for _, a := range assessments {
		switch {
		case a.Level.Equal(valueobject.RiskLevelHigh):
			summary.HighCount++
		case a.Level.Equal(valueobject.RiskLevelMedium):
			summary.MediumCount++
		}
	}

	summary.Alert = summary.HighCount > 0

	if summary.TotalCount > 0 {
		safe := roundedPercentage(summary.TotalCount-summary.HighCount, summary.TotalCount)
		summary.SafePercentage = &safe
	}

	return summary
}

// roundedPercentage computes round(100*part/total) with halves rounded away
// from zero, in integer arithmetic. part and total must be non-negative and
// total positive.
func roundedPercentage(part, total int) int {
	return (200*part + total) / (2 * total)
}
