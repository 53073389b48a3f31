// Package dashboard computes the per-user dashboard view model. Everything
// here is pure and recomputed on every request; nothing is cached so the
// snapshot always reflects current record state.
package dashboard

import (
	"time"

	"apptrack/internal/deadline"
	"apptrack/internal/models"
)

// Snapshot is the ephemeral dashboard view model. Count maps are sparse:
// a status or type never seen in the record set has no entry.
type Snapshot struct {
	Total        int              `json:"total"`
	StatusCounts map[string]int   `json:"status_counts"`
	TypeCounts   map[string]int   `json:"type_counts"`
	Buckets      deadline.Buckets `json:"deadlines"`
}

// Aggregate tallies a user's record set into a Snapshot as of today.
// Records are read-only here, so concurrent calls on disjoint sets are safe.
func Aggregate(records []*models.Application, today time.Time) Snapshot {
	statusCounts := make(map[string]int)
	typeCounts := make(map[string]int)
	for _, rec := range records {
		statusCounts[string(rec.Status)]++
		typeCounts[string(rec.Type)]++
	}

	return Snapshot{
		Total:        len(records),
		StatusCounts: statusCounts,
		TypeCounts:   typeCounts,
		Buckets:      deadline.Partition(records, today),
	}
}
