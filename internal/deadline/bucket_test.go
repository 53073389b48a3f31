package deadline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apptrack/internal/models"
)

func appDueIn(id string, today time.Time, days int) *models.Application {
	d := today.AddDate(0, 0, days)
	return &models.Application{ID: id, Deadline: &d, Status: models.StatusInProgress}
}

func TestPartition_WindowEdges(t *testing.T) {
	today := date(2024, time.March, 15)

	records := []*models.Application{
		appDueIn("overdue", today, -1),
		appDueIn("due-today", today, 0),
		appDueIn("week-edge", today, 7),
		appDueIn("eighth-day", today, 8),
		appDueIn("fortnight-edge", today, 14),
		appDueIn("fifteenth-day", today, 15),
		appDueIn("month-edge", today, 30),
		appDueIn("beyond-month", today, 31),
		{ID: "no-deadline", Status: models.StatusNotStarted},
	}

	b := Partition(records, today)

	assert.Equal(t, []string{"overdue"}, ids(b.Overdue))
	assert.Equal(t, []string{"due-today", "week-edge"}, ids(b.Due0_7))
	assert.Equal(t, []string{"eighth-day", "fortnight-edge"}, ids(b.Due8_14))
	assert.Equal(t, []string{"fifteenth-day", "month-edge"}, ids(b.Due15_30))
}

func TestPartition_BucketsAreDisjoint(t *testing.T) {
	today := date(2024, time.March, 15)

	var records []*models.Application
	for d := -5; d <= 35; d++ {
		records = append(records, appDueIn("rec", today, d))
	}

	b := Partition(records, today)

	total := len(b.Overdue) + len(b.Due0_7) + len(b.Due8_14) + len(b.Due15_30)
	// d in [-5, 30] participates, d in [31, 35] does not
	assert.Equal(t, 36, total)
}

func TestPartition_SortedByDeadlineStable(t *testing.T) {
	today := date(2024, time.March, 15)

	// first/second share a deadline; input order must survive the sort
	records := []*models.Application{
		appDueIn("later", today, 5),
		appDueIn("first", today, 2),
		appDueIn("second", today, 2),
		appDueIn("earliest", today, 1),
	}

	b := Partition(records, today)

	require.Len(t, b.Due0_7, 4)
	assert.Equal(t, []string{"earliest", "first", "second", "later"}, ids(b.Due0_7))
}

func TestPartition_DoesNotMutateInput(t *testing.T) {
	today := date(2024, time.March, 15)

	records := []*models.Application{
		appDueIn("b", today, 6),
		appDueIn("a", today, 2),
	}

	Partition(records, today)

	assert.Equal(t, []string{"b", "a"}, ids(records))
}

func ids(recs []*models.Application) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}
