package reminders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apptrack/internal/common/database"
	"apptrack/internal/common/logger"
	"apptrack/internal/models"
	"apptrack/internal/store"
)

// ==========================
// Fakes
// ==========================

type fakeStore struct {
	mu      sync.Mutex
	records []*models.Application
	queries []time.Time
	err     error
}

func (f *fakeStore) FindByDeadlineExcludingStatuses(ctx context.Context, deadline time.Time, excluded []models.Status) ([]*models.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, deadline)
	if f.err != nil {
		return nil, f.err
	}

	var out []*models.Application
	for _, rec := range f.records {
		if rec.Deadline == nil || !rec.Deadline.Equal(deadline) {
			continue
		}
		skip := false
		for _, s := range excluded {
			if rec.Status == s {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) FindAllForOwner(ctx context.Context, ownerID string) ([]*models.Application, error) {
	return nil, nil
}

type fakeDirectory struct {
	owners map[string]*models.Owner
	err    error
}

func (f *fakeDirectory) GetOwner(ctx context.Context, ownerID string) (*models.Owner, error) {
	if f.err != nil {
		return nil, f.err
	}
	owner, ok := f.owners[ownerID]
	if !ok {
		return nil, store.ErrOwnerNotFound
	}
	return owner, nil
}

type sentMessage struct {
	recipient string
	subject   string
	body      string
	urgent    bool
}

type fakeNotifier struct {
	mu            sync.Mutex
	sent          []sentMessage
	notifications []*models.Notification
	failTo        map[string]bool // recipient IDs whose sends fail
}

func (f *fakeNotifier) Send(ctx context.Context, owner *models.Owner, subject, body string, urgent bool) (*models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTo[owner.ID] {
		return &models.Notification{
			RecipientID: owner.ID,
			Channel:     models.ChannelEmail,
			Status:      models.NotificationStatusFailed,
		}, errors.New("transport down")
	}
	f.sent = append(f.sent, sentMessage{
		recipient: owner.ID,
		subject:   subject,
		body:      body,
		urgent:    urgent,
	})
	n := &models.Notification{
		ID:          "n-1",
		RecipientID: owner.ID,
		Channel:     models.ChannelEmail,
		Status:      models.NotificationStatusSent,
	}
	f.notifications = append(f.notifications, n)
	return n, nil
}

// ==========================
// Helpers
// ==========================

var testToday = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func testRecord(id, ownerID string, deadline time.Time, status models.Status) *models.Application {
	d := models.Date(deadline)
	return &models.Application{
		ID:          id,
		OwnerID:     ownerID,
		Title:       "Test Application " + id,
		Institution: "Test University",
		Type:        models.TypeJob,
		Deadline:    &d,
		Status:      status,
	}
}

func testConfig() *Config {
	return &Config{
		Interval:            24 * time.Hour,
		DispatchConcurrency: 2,
		DispatchTimeout:     5 * time.Second,
		LockKey:             "test:deadline-scan",
		LockTTL:             time.Minute,
	}
}

func newTestScheduler(t *testing.T, recordStore *fakeStore, dir *fakeDirectory, n *fakeNotifier) *Scheduler {
	s := New(testConfig(), recordStore, dir, n, nil, nil, logger.NewTestLogger(t))
	s.now = func() time.Time { return testToday }
	return s
}

func defaultDirectory() *fakeDirectory {
	return &fakeDirectory{owners: map[string]*models.Owner{
		"user-1": {ID: "user-1", Username: "alice", Email: "alice@example.com"},
		"user-2": {ID: "user-2", Username: "bob", Email: "bob@example.com"},
		"user-3": {ID: "user-3", Username: "carol", Email: "carol@example.com"},
	}}
}

// ==========================
// Tests
// ==========================

func TestRunOnce_MatchesThresholdsAndSkipsTerminal(t *testing.T) {
	recordStore := &fakeStore{records: []*models.Application{
		testRecord("A", "user-1", testToday.AddDate(0, 0, 7), models.StatusInProgress),
		testRecord("B", "user-2", testToday.AddDate(0, 0, 7), models.StatusSubmitted),
		testRecord("C", "user-3", testToday.AddDate(0, 0, 3), models.StatusNotStarted),
	}}
	n := &fakeNotifier{}

	s := newTestScheduler(t, recordStore, defaultDirectory(), n)
	s.RunOnce(context.Background())

	require.Len(t, n.sent, 2, "exactly one reminder for A, one for C, none for B")

	recipients := map[string]bool{}
	for _, m := range n.sent {
		recipients[m.recipient] = true
	}
	assert.True(t, recipients["user-1"])
	assert.True(t, recipients["user-3"])
	assert.False(t, recipients["user-2"], "terminal status must not get reminders")
}

func TestRunOnce_QueriesThresholdsInDescendingOrder(t *testing.T) {
	recordStore := &fakeStore{}
	s := newTestScheduler(t, recordStore, defaultDirectory(), &fakeNotifier{})

	s.RunOnce(context.Background())

	require.Len(t, recordStore.queries, 3)
	assert.Equal(t, testToday.AddDate(0, 0, 7), recordStore.queries[0])
	assert.Equal(t, testToday.AddDate(0, 0, 3), recordStore.queries[1])
	assert.Equal(t, testToday.AddDate(0, 0, 1), recordStore.queries[2])
}

func TestRunOnce_MessageContent(t *testing.T) {
	recordStore := &fakeStore{records: []*models.Application{
		testRecord("A", "user-1", testToday.AddDate(0, 0, 3), models.StatusInProgress),
	}}
	n := &fakeNotifier{}

	s := newTestScheduler(t, recordStore, defaultDirectory(), n)
	s.RunOnce(context.Background())

	require.Len(t, n.sent, 1)
	msg := n.sent[0]
	assert.Equal(t, "Reminder: Test Application A due in 3 days!", msg.subject)
	assert.Contains(t, msg.body, "Hello alice")
	assert.Contains(t, msg.body, "'Test Application A' at Test University")
	assert.Contains(t, msg.body, "due in 3 days on June 04, 2024")
	assert.Contains(t, msg.body, "Current Status: In Progress")
	assert.False(t, msg.urgent)
}

func TestRunOnce_DayOneIsUrgentAndSingular(t *testing.T) {
	recordStore := &fakeStore{records: []*models.Application{
		testRecord("A", "user-1", testToday.AddDate(0, 0, 1), models.StatusInterview),
	}}
	n := &fakeNotifier{}

	s := newTestScheduler(t, recordStore, defaultDirectory(), n)
	s.RunOnce(context.Background())

	require.Len(t, n.sent, 1)
	assert.Equal(t, "Reminder: Test Application A due in 1 day!", n.sent[0].subject)
	assert.True(t, n.sent[0].urgent)
}

func TestRunOnce_SameDayRerunMatchesSamePairsOnly(t *testing.T) {
	recordStore := &fakeStore{records: []*models.Application{
		testRecord("A", "user-1", testToday.AddDate(0, 0, 7), models.StatusInProgress),
	}}
	n := &fakeNotifier{}

	s := newTestScheduler(t, recordStore, defaultDirectory(), n)
	s.RunOnce(context.Background())
	s.RunOnce(context.Background())

	// Target dates depend only on "today", so the second run re-matches the
	// identical (record, threshold) pair and nothing else.
	require.Len(t, n.sent, 2)
	assert.Equal(t, n.sent[0].recipient, n.sent[1].recipient)
	assert.Equal(t, n.sent[0].subject, n.sent[1].subject)
}

func TestRunOnce_NextDayShiftsTargets(t *testing.T) {
	recordStore := &fakeStore{records: []*models.Application{
		testRecord("A", "user-1", testToday.AddDate(0, 0, 7), models.StatusInProgress),
	}}
	n := &fakeNotifier{}

	s := newTestScheduler(t, recordStore, defaultDirectory(), n)
	s.RunOnce(context.Background())
	require.Len(t, n.sent, 1)

	// Tomorrow the record is 6 days out; no threshold matches
	s.now = func() time.Time { return testToday.AddDate(0, 0, 1) }
	s.RunOnce(context.Background())
	assert.Len(t, n.sent, 1)
}

func TestRunOnce_TagsNotificationsWithRecordID(t *testing.T) {
	recordStore := &fakeStore{records: []*models.Application{
		testRecord("A", "user-1", testToday.AddDate(0, 0, 3), models.StatusInProgress),
	}}
	n := &fakeNotifier{}

	s := newTestScheduler(t, recordStore, defaultDirectory(), n)
	s.RunOnce(context.Background())

	require.Len(t, n.notifications, 1)
	assert.Equal(t, "A", n.notifications[0].ApplicationID)
	assert.Equal(t, "user-1", n.notifications[0].RecipientID)
}

// leakyStore hands back its records for every target date, deadlines
// included or not, standing in for a collaborator that breaks the
// deadline-match contract.
type leakyStore struct {
	records []*models.Application
}

func (l *leakyStore) FindByDeadlineExcludingStatuses(ctx context.Context, deadline time.Time, excluded []models.Status) ([]*models.Application, error) {
	return l.records, nil
}

func (l *leakyStore) FindAllForOwner(ctx context.Context, ownerID string) ([]*models.Application, error) {
	return nil, nil
}

func TestRunOnce_SkipsRecordWithoutDeadline(t *testing.T) {
	noDeadline := &models.Application{
		ID:      "X",
		OwnerID: "user-1",
		Title:   "Test Application X",
		Status:  models.StatusInProgress,
	}
	withDeadline := testRecord("A", "user-2", testToday.AddDate(0, 0, 7), models.StatusInProgress)
	n := &fakeNotifier{}

	s := New(testConfig(), &leakyStore{records: []*models.Application{noDeadline, withDeadline}},
		defaultDirectory(), n, nil, nil, logger.NewTestLogger(t))
	s.now = func() time.Time { return testToday }

	s.RunOnce(context.Background())

	// The nil-deadline record is skipped on all three thresholds without
	// panicking; the valid record still dispatches once per threshold.
	require.Len(t, n.sent, 3)
	for _, m := range n.sent {
		assert.Equal(t, "user-2", m.recipient)
	}
}

func TestRunOnce_TransportFailureDoesNotAbortScan(t *testing.T) {
	recordStore := &fakeStore{records: []*models.Application{
		testRecord("A", "user-1", testToday.AddDate(0, 0, 7), models.StatusInProgress),
		testRecord("B", "user-2", testToday.AddDate(0, 0, 7), models.StatusInProgress),
		testRecord("C", "user-3", testToday.AddDate(0, 0, 3), models.StatusInProgress),
	}}
	n := &fakeNotifier{failTo: map[string]bool{"user-1": true}}

	s := newTestScheduler(t, recordStore, defaultDirectory(), n)
	s.RunOnce(context.Background())

	require.Len(t, n.sent, 2)
	for _, m := range n.sent {
		assert.NotEqual(t, "user-1", m.recipient)
	}
}

func TestRunOnce_OwnerLookupFailureSkipsRecordOnly(t *testing.T) {
	recordStore := &fakeStore{records: []*models.Application{
		testRecord("A", "ghost", testToday.AddDate(0, 0, 7), models.StatusInProgress),
		testRecord("B", "user-2", testToday.AddDate(0, 0, 7), models.StatusInProgress),
	}}
	n := &fakeNotifier{}

	s := newTestScheduler(t, recordStore, defaultDirectory(), n)
	s.RunOnce(context.Background())

	require.Len(t, n.sent, 1)
	assert.Equal(t, "user-2", n.sent[0].recipient)
}

func TestRunOnce_StoreErrorSwallowed(t *testing.T) {
	recordStore := &fakeStore{err: errors.New("connection refused")}
	n := &fakeNotifier{}

	s := newTestScheduler(t, recordStore, defaultDirectory(), n)

	// Must not panic or propagate; the scheduler has no caller to report to
	s.RunOnce(context.Background())
	assert.Empty(t, n.sent)
}

func TestRunOnce_OverlappingRunSkipped(t *testing.T) {
	recordStore := &fakeStore{}
	s := newTestScheduler(t, recordStore, defaultDirectory(), &fakeNotifier{})

	// Simulate an in-flight run
	require.True(t, s.running.CompareAndSwap(false, true))

	s.RunOnce(context.Background())
	assert.Empty(t, recordStore.queries, "overlapping run must not scan")

	s.running.Store(false)
	s.RunOnce(context.Background())
	assert.Len(t, recordStore.queries, 3)
}

func TestRunOnce_CancelledContextStopsScan(t *testing.T) {
	recordStore := &fakeStore{}
	s := newTestScheduler(t, recordStore, defaultDirectory(), &fakeNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.RunOnce(ctx)
	assert.Empty(t, recordStore.queries)
}

func TestRunOnce_DistributedLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	defer rdb.Close()

	recordStore := &fakeStore{records: []*models.Application{
		testRecord("A", "user-1", testToday.AddDate(0, 0, 7), models.StatusInProgress),
	}}
	n := &fakeNotifier{}

	s := New(testConfig(), recordStore, defaultDirectory(), n, nil, rdb, logger.NewTestLogger(t))
	s.now = func() time.Time { return testToday }

	// Lock held elsewhere: run is skipped
	mr.Set("test:deadline-scan", "other-instance")
	s.RunOnce(context.Background())
	assert.Empty(t, n.sent)

	// Lock free: run proceeds and releases the lock afterwards
	mr.Del("test:deadline-scan")
	s.RunOnce(context.Background())
	assert.Len(t, n.sent, 1)
	assert.False(t, mr.Exists("test:deadline-scan"))
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	recordStore := &fakeStore{}
	cfg := testConfig()
	cfg.Interval = 10 * time.Millisecond

	s := New(cfg, recordStore, defaultDirectory(), &fakeNotifier{}, nil, nil, logger.NewTestLogger(t))
	s.now = func() time.Time { return testToday }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}

	recordStore.mu.Lock()
	defer recordStore.mu.Unlock()
	assert.NotEmpty(t, recordStore.queries, "ticker should have fired at least once")
}
