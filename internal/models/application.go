// internal/models/application.go
package models

import (
	"fmt"
	"time"
)

// Status is the closed set of application statuses. Values are stored as
// their display strings, so ParseStatus is the only way to get a Status
// from external input.
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusSubmitted  Status = "Submitted"
	StatusInterview  Status = "Interview"
	StatusOffer      Status = "Offer"
	StatusAccepted   Status = "Accepted"
	StatusRejected   Status = "Rejected"
	StatusWaitlisted Status = "Waitlisted"
)

// AllStatuses lists every valid status in display order.
var AllStatuses = []Status{
	StatusNotStarted,
	StatusInProgress,
	StatusSubmitted,
	StatusInterview,
	StatusOffer,
	StatusAccepted,
	StatusRejected,
	StatusWaitlisted,
}

// TerminalStatuses are statuses past which deadline reminders are no longer
// relevant: the application is already resolved one way or the other.
var TerminalStatuses = []Status{
	StatusSubmitted,
	StatusAccepted,
	StatusRejected,
	StatusWaitlisted,
}

// ParseStatus converts a raw string into a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown application status: %q", s)
}

// IsTerminal reports whether reminder scanning should skip this status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSubmitted, StatusAccepted, StatusRejected, StatusWaitlisted:
		return true
	}
	return false
}

// Color returns the display color for a status. The mapping is exhaustive
// over AllStatuses; anything else falls back to secondary.
func (s Status) Color() string {
	switch s {
	case StatusNotStarted:
		return "secondary"
	case StatusInProgress:
		return "info"
	case StatusSubmitted:
		return "primary"
	case StatusInterview:
		return "warning"
	case StatusOffer:
		return "success"
	case StatusAccepted:
		return "success"
	case StatusRejected:
		return "danger"
	case StatusWaitlisted:
		return "warning"
	}
	return "secondary"
}

func (s Status) String() string { return string(s) }

// ApplicationType is the closed set of application categories.
type ApplicationType string

const (
	TypeJob           ApplicationType = "Job"
	TypeMSc           ApplicationType = "MSc"
	TypePhD           ApplicationType = "PhD"
	TypeFellowship    ApplicationType = "Fellowship"
	TypeSummerProgram ApplicationType = "Summer Program"
)

// AllApplicationTypes lists every valid application type.
var AllApplicationTypes = []ApplicationType{
	TypeJob,
	TypeMSc,
	TypePhD,
	TypeFellowship,
	TypeSummerProgram,
}

// ParseApplicationType converts a raw string into an ApplicationType.
func ParseApplicationType(s string) (ApplicationType, error) {
	for _, t := range AllApplicationTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown application type: %q", s)
}

func (t ApplicationType) String() string { return string(t) }

// Application is a single tracked application record. The reminder and
// dashboard code only ever reads these; all mutation happens elsewhere.
type Application struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"ownerId"`
	Title       string          `json:"title"`
	Type        ApplicationType `json:"applicationType"`
	Institution string          `json:"institution"`
	ProgramRole string          `json:"programRole,omitempty"`
	Country     string          `json:"country,omitempty"`
	Deadline    *time.Time      `json:"deadline"` // calendar date, nil when unset
	Status      Status          `json:"status"`
	URL         string          `json:"applicationUrl,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// DaysRemaining returns the whole-day distance from today to the deadline,
// or false when no deadline is set. Negative means overdue.
func (a *Application) DaysRemaining(today time.Time) (int, bool) {
	if a.Deadline == nil {
		return 0, false
	}
	return DaysBetween(today, *a.Deadline), true
}

// IsOverdue reports whether the deadline has already passed.
func (a *Application) IsOverdue(today time.Time) bool {
	d, ok := a.DaysRemaining(today)
	return ok && d < 0
}

// Date truncates a timestamp to its UTC calendar date. All deadline math is
// date-only; time-of-day never participates.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}
