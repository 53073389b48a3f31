// internal/reminders/scheduler.go
package reminders

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	apperrors "apptrack/internal/common/errors"
	"apptrack/internal/common/logger"
	"apptrack/internal/common/metrics"
	"apptrack/internal/deadline"
	"apptrack/internal/models"
	"apptrack/internal/notifier"
	"apptrack/internal/store"
)

// Thresholds are the reminder lead times in days before a deadline,
// scanned in descending order. Order is fixed for deterministic runs.
var Thresholds = []int{7, 3, 1}

// Locker is an optional distributed guard for deploys running more than one
// daemon instance. The in-process guard alone serializes a single instance.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// Scheduler scans all active records once per interval and dispatches one
// reminder per (record, threshold) match. It holds no cross-run state:
// dedup relies entirely on the deadline == today+threshold equality, so a
// record matches each threshold on exactly one calendar day.
type Scheduler struct {
	config    *Config
	store     store.RecordStore
	owners    store.OwnerDirectory
	notifier  notifier.Notifier
	templates *TemplateRegistry
	locker    Locker
	logger    logger.Logger
	reporter  *apperrors.Reporter

	now     func() time.Time
	running atomic.Bool
}

// New builds a scheduler. locker may be nil for single-instance deploys;
// templates may be nil to use the built-in defaults.
func New(
	config *Config,
	recordStore store.RecordStore,
	owners store.OwnerDirectory,
	n notifier.Notifier,
	templates *TemplateRegistry,
	locker Locker,
	log logger.Logger,
) *Scheduler {
	if templates == nil {
		templates = DefaultTemplates()
	}
	schedLog := log.WithFields(map[string]interface{}{"component": "reminder-scheduler"})
	return &Scheduler{
		config:    config,
		store:     recordStore,
		owners:    owners,
		notifier:  n,
		templates: templates,
		locker:    locker,
		logger:    schedLog,
		reporter:  apperrors.NewReporter(schedLog),
		now:       time.Now,
	}
}

// Start runs the recurring scan loop until ctx is cancelled. It is the only
// way a scan is ever triggered in production; there is no request surface.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("reminder scheduler started", map[string]interface{}{
		"interval":   s.config.Interval.String(),
		"thresholds": Thresholds,
	})

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reminder scheduler stopped", nil)
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs one full scan across all thresholds. Overlapping calls
// are skipped, never queued: two concurrent scans over the same target
// dates would double-send.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		metrics.ScansSkipped.WithLabelValues("overlap").Inc()
		s.reporter.Report(apperrors.NewScanOverlapError(), nil)
		return
	}
	defer s.running.Store(false)

	if s.locker != nil {
		acquired, err := s.locker.AcquireLock(ctx, s.config.LockKey, s.config.LockTTL)
		if err != nil {
			metrics.ScansSkipped.WithLabelValues("lock_error").Inc()
			s.reporter.Report(apperrors.NewScanLockFailedError(err), nil)
			return
		}
		if !acquired {
			metrics.ScansSkipped.WithLabelValues("lock_held").Inc()
			s.logger.Info("scan skipped: lock held by another instance", nil)
			return
		}
		defer func() {
			if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), s.config.LockKey); err != nil {
				s.logger.Warn("failed to release scan lock", map[string]interface{}{"error": err})
			}
		}()
	}

	start := time.Now()

	// One clock read for the whole run: every threshold works off the same
	// calendar date even if the scan crosses midnight.
	today := models.Date(s.now())

	s.logger.Info("checking for upcoming deadlines", map[string]interface{}{
		"today": today.Format("2006-01-02"),
	})

	for _, days := range Thresholds {
		select {
		case <-ctx.Done():
			s.logger.Info("scan cancelled", map[string]interface{}{"threshold": days})
			return
		default:
		}
		s.scanThreshold(ctx, today, days)
	}

	metrics.ScansCompleted.Inc()
	metrics.ScanDuration.Observe(time.Since(start).Seconds())
}

// scanThreshold dispatches reminders for every non-terminal record due
// exactly threshold days from today.
func (s *Scheduler) scanThreshold(ctx context.Context, today time.Time, days int) {
	target := today.AddDate(0, 0, days)

	records, err := s.store.FindByDeadlineExcludingStatuses(ctx, target, models.TerminalStatuses)
	if err != nil {
		metrics.ReminderFailures.WithLabelValues(strconv.Itoa(days), "database").Inc()
		s.reporter.Report(apperrors.NewQueryExecutionFailedError(err), map[string]interface{}{
			"threshold": days,
			"target":    target.Format("2006-01-02"),
		})
		return
	}

	if len(records) == 0 {
		return
	}

	s.logger.Info("deadline matches found", map[string]interface{}{
		"threshold": days,
		"target":    target.Format("2006-01-02"),
		"count":     len(records),
	})

	// Bounded fan-out; each record's dispatch is independent, so one
	// failure never blocks the rest of the batch.
	sem := make(chan struct{}, s.config.DispatchConcurrency)
	var wg sync.WaitGroup
	for _, rec := range records {
		wg.Add(1)
		sem <- struct{}{}
		go func(rec *models.Application) {
			defer wg.Done()
			defer func() { <-sem }()
			s.remind(ctx, today, rec, days)
		}(rec)
	}
	wg.Wait()
}

func (s *Scheduler) remind(ctx context.Context, today time.Time, rec *models.Application, days int) {
	threshold := strconv.Itoa(days)
	fields := map[string]interface{}{
		"applicationId": rec.ID,
		"ownerId":       rec.OwnerID,
		"threshold":     days,
		"urgency":       deadline.Classify(rec.Deadline, today).String(),
	}

	// The store contract only returns deadline matches, but a collaborator
	// handing back a nil deadline must not panic the dispatch goroutine.
	if rec.Deadline == nil {
		metrics.ReminderFailures.WithLabelValues(threshold, "internal").Inc()
		s.logger.Warn("record matched scan without a deadline, skipping", fields)
		return
	}

	owner, err := s.owners.GetOwner(ctx, rec.OwnerID)
	if err != nil {
		metrics.ReminderFailures.WithLabelValues(threshold, "lookup").Inc()
		if errors.Is(err, store.ErrOwnerNotFound) {
			s.reporter.Report(apperrors.NewOwnerNotFoundError(rec.OwnerID), fields)
		} else {
			s.reporter.Report(apperrors.NewOwnerLookupFailedError(rec.OwnerID, err), fields)
		}
		return
	}

	daysLabel := "days"
	if days == 1 {
		daysLabel = "day"
	}

	subject, body, err := s.templates.Render(TemplateDeadlineReminder, map[string]interface{}{
		"username":    owner.Username,
		"title":       rec.Title,
		"institution": rec.Institution,
		"days":        days,
		"daysLabel":   daysLabel,
		"deadline":    rec.Deadline.Format("January 02, 2006"),
		"status":      rec.Status.String(),
	})
	if err != nil {
		metrics.ReminderFailures.WithLabelValues(threshold, "notification").Inc()
		s.reporter.Report(err, fields)
		return
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, s.config.DispatchTimeout)
	defer cancel()

	notification, err := s.notifier.Send(dispatchCtx, owner, subject, body, days == 1)
	if notification != nil {
		notification.ApplicationID = rec.ID
	}
	if err != nil {
		channel := ""
		if notification != nil {
			channel = notification.Channel
		}
		metrics.ReminderFailures.WithLabelValues(threshold, "notification").Inc()
		s.reporter.Report(apperrors.NewNotificationSendFailedError(channel, err), fields)
		return
	}

	if notification.Status == models.NotificationStatusSent {
		metrics.RemindersDispatched.WithLabelValues(threshold, notification.Channel).Inc()
		s.logger.Info("reminder sent", map[string]interface{}{
			"applicationId":  rec.ID,
			"notificationId": notification.ID,
			"recipient":      owner.ID,
			"threshold":      days,
			"channel":        notification.Channel,
		})
	}
}
