package domain

import "strings"

// Status is the operating state of a startup after cleaning.
//
// Invariant: clean records only carry one of the enumerated values. Raw feed
// text that does not match any of them normalizes to StatusUnknown rather
// than failing the record, because status is descriptive, not
// identity-bearing.
type Status string

const (
	StatusActive   Status = "active"
	StatusClosed   Status = "closed"
	StatusAcquired Status = "acquired"
	StatusIPO      Status = "ipo"
	StatusUnknown  Status = "unknown"
)

// Statuses lists every status in a stable order.
var Statuses = []Status{StatusActive, StatusClosed, StatusAcquired, StatusIPO, StatusUnknown}

var validStatuses = map[Status]bool{
	StatusActive:   true,
	StatusClosed:   true,
	StatusAcquired: true,
	StatusIPO:      true,
	StatusUnknown:  true,
}

// ParseStatus normalizes free-form feed text to a Status. Unmatched or empty
// input maps to StatusUnknown.
func ParseStatus(s string) Status {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if validStatuses[st] {
		return st
	}
	return StatusUnknown
}

// IsValid checks that the status is one of the enumerated values.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

func (s Status) String() string { return string(s) }
