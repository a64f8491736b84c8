package assignment

import "time"

// Status is the lifecycle state of an assignment relative to a point in time.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusInactive Status = "inactive"
)

// ResolveStatus maps an assignment and an as-of instant to exactly one state:
// soft-deleted rows are inactive regardless of dates, rows before their start
// are pending, rows past their end are expired, everything else is active.
// The instant is truncated to its UTC calendar day first; bounds are stored
// at midnight UTC and a grant stays active through the whole of its end date.
// Pure; listing endpoints and the permission merger share it.
func ResolveStatus(a *Assignment, asOf time.Time) Status {
	if !a.IsActive {
		return StatusInactive
	}
	day := truncateDay(asOf)
	if day.Before(a.StartGregorian) {
		return StatusPending
	}
	if a.EndGregorian != nil && day.After(*a.EndGregorian) {
		return StatusExpired
	}
	return StatusActive
}
