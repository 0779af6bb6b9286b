package testutil

import "time"

// Deterministic identifiers and clock values shared by integration tests.
const (
	TestSubjectID      = "subject-0001"
	TestOtherSubjectID = "subject-0002"
)

// FixedNow is the reference instant used in place of time.Now.
var FixedNow = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

// Clock returns a func that always reports FixedNow.
func Clock() func() time.Time {
	return func() time.Time { return FixedNow }
}
