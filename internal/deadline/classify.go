// Package deadline implements date-only urgency classification and the
// deadline bucketing used by the dashboard and the reminder scheduler.
package deadline

import (
	"time"

	"apptrack/internal/models"
)

// Tier is the discrete urgency classification of a deadline relative to a
// reference date, ordered most to least urgent.
type Tier string

const (
	TierOverdue  Tier = "overdue"  // deadline already passed
	TierCritical Tier = "critical" // due within 0-2 days
	TierWarning  Tier = "warning"  // due within 3-6 days
	TierUpcoming Tier = "upcoming" // due within 7-13 days
	TierSafe     Tier = "safe"     // 14+ days out
	TierUnknown  Tier = "unknown"  // no deadline set
)

// Classify maps a deadline to its urgency tier as of today. A nil deadline
// classifies as TierUnknown, never as urgent. Boundaries are half-open:
// d < 0 overdue, 0..2 critical, 3..6 warning, 7..13 upcoming, >= 14 safe.
func Classify(deadline *time.Time, today time.Time) Tier {
	if deadline == nil {
		return TierUnknown
	}
	days := models.DaysBetween(today, *deadline)
	switch {
	case days < 0:
		return TierOverdue
	case days < 3:
		return TierCritical
	case days < 7:
		return TierWarning
	case days < 14:
		return TierUpcoming
	default:
		return TierSafe
	}
}

// CSSClass returns the display class used by dashboard consumers.
func (t Tier) CSSClass() string {
	switch t {
	case TierOverdue, TierCritical:
		return "danger"
	case TierWarning:
		return "warning"
	case TierUpcoming:
		return "info"
	case TierSafe:
		return "success"
	}
	return "secondary"
}

func (t Tier) String() string { return string(t) }
