package deadline

import (
	"sort"
	"time"

	"apptrack/internal/models"
)

// Buckets partitions records by day offset from today. The four windows are
// disjoint; records more than 30 days out or without a deadline appear in
// none of them.
type Buckets struct {
	Overdue  []*models.Application `json:"overdue"`   // d < 0
	Due0_7   []*models.Application `json:"due_0_7"`   // 0 <= d <= 7
	Due8_14  []*models.Application `json:"due_8_14"`  // 8 <= d <= 14
	Due15_30 []*models.Application `json:"due_15_30"` // 15 <= d <= 30
}

// Partition assigns each record to its deadline window and sorts every
// bucket ascending by deadline. The sort is stable, so records sharing a
// deadline keep their input order. Input is never mutated.
func Partition(records []*models.Application, today time.Time) Buckets {
	var b Buckets
	for _, rec := range records {
		days, ok := rec.DaysRemaining(today)
		if !ok {
			continue
		}
		switch {
		case days < 0:
			b.Overdue = append(b.Overdue, rec)
		case days <= 7:
			b.Due0_7 = append(b.Due0_7, rec)
		case days <= 14:
			b.Due8_14 = append(b.Due8_14, rec)
		case days <= 30:
			b.Due15_30 = append(b.Due15_30, rec)
		}
	}

	sortByDeadline(b.Overdue)
	sortByDeadline(b.Due0_7)
	sortByDeadline(b.Due8_14)
	sortByDeadline(b.Due15_30)
	return b
}

func sortByDeadline(recs []*models.Application) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Deadline.Before(*recs[j].Deadline)
	})
}
