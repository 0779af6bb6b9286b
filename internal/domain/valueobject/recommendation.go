package valueobject

import "fmt"

// Recommendation is the handling advice attached to a scored transaction.
type Recommendation struct {
	value string
}

var (
	RecommendationAutoApprove  = Recommendation{value: "AUTO_APPROVE"}
	RecommendationManualReview = Recommendation{value: "MANUAL_REVIEW"}
)

// RecommendationFromString reconstructs a recommendation from its string representation.
func RecommendationFromString(s string) (Recommendation, error) {
	switch s {
	case "AUTO_APPROVE":
		return RecommendationAutoApprove, nil
	case "MANUAL_REVIEW":
		return RecommendationManualReview, nil
	default:
		return Recommendation{}, fmt.Errorf("invalid recommendation: %s", s)
	}
}

// RecommendationFromLevel sends anything above LOW to manual review.
func RecommendationFromLevel(level RiskLevel) Recommendation {
	if level.Equal(RiskLevelLow) {
		return RecommendationAutoApprove
	}
	return RecommendationManualReview
}

// String returns the string representation.
func (r Recommendation) String() string {
	return r.value
}

// IsZero returns true if the recommendation has not been set.
func (r Recommendation) IsZero() bool {
	return r.value == ""
}

// Equal checks equality with another Recommendation.
func (r Recommendation) Equal(other Recommendation) bool {
	return r.value == other.value
}

// MarshalText implements encoding.TextMarshaler.
func (r Recommendation) MarshalText() ([]byte, error) {
	return []byte(r.value), nil
}
