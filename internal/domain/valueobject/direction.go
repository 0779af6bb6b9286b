package valueobject

import (
	"fmt"
	"strings"
)

// Direction tells whether money leaves (DEBIT) or enters (CREDIT) the payer's account.
type Direction struct {
	value string
}

var (
	DirectionDebit  = Direction{value: "DEBIT"}
	DirectionCredit = Direction{value: "CREDIT"}
)

// DirectionFromString parses a direction. Matching is case-insensitive.
func DirectionFromString(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBIT":
		return DirectionDebit, nil
	case "CREDIT":
		return DirectionCredit, nil
	default:
		return Direction{}, fmt.Errorf("invalid direction: %q", s)
	}
}

func (d Direction) String() string { return d.value }

// IsZero returns true if the Direction has not been set.
func (d Direction) IsZero() bool { return d.value == "" }

// IsDebit returns true for outgoing payments.
func (d Direction) IsDebit() bool { return d.value == "DEBIT" }

// Equal checks equality with another Direction.
func (d Direction) Equal(other Direction) bool { return d.value == other.value }

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := DirectionFromString(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
