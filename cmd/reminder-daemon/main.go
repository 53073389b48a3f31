package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"apptrack/internal/common/config"
	"apptrack/internal/common/database"
	"apptrack/internal/common/logger"
	"apptrack/internal/common/observability"
	"apptrack/internal/notifier"
	"apptrack/internal/reminders"
	"apptrack/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting reminder daemon...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New("reminder-daemon")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Wire the reminder scheduler ---
	records := store.NewPostgres(pg.DB)

	transport, err := notifier.New(ctx, &notifier.Config{
		EmailEnabled: cfg.Notifications.Email.Enabled,
		SMSEnabled:   cfg.Notifications.SMS.Enabled,
		FromEmail:    cfg.Notifications.Email.FromEmail,
		AWSRegion:    cfg.Notifications.AWS.Region,
	}, log)
	if err != nil {
		zapLog.Fatal("failed to create notifier", zap.Error(err))
	}

	templates := reminders.DefaultTemplates()
	if cfg.Scheduler.TemplateRegistry != "" {
		templates, err = reminders.LoadTemplates(cfg.Scheduler.TemplateRegistry)
		if err != nil {
			zapLog.Fatal("failed to load reminder templates", zap.Error(err))
		}
	}

	schedulerCfg := reminders.LoadConfig()
	if cfg.Scheduler.IntervalHours > 0 {
		schedulerCfg.Interval = time.Duration(cfg.Scheduler.IntervalHours) * time.Hour
	}
	if cfg.Scheduler.DispatchConcurrency > 0 {
		schedulerCfg.DispatchConcurrency = cfg.Scheduler.DispatchConcurrency
	}
	if cfg.Scheduler.DispatchTimeout > 0 {
		schedulerCfg.DispatchTimeout = config.GetDuration(cfg.Scheduler.DispatchTimeout)
	}
	if cfg.Scheduler.LockTTLSeconds > 0 {
		schedulerCfg.LockTTL = time.Duration(cfg.Scheduler.LockTTLSeconds) * time.Second
	}

	scheduler := reminders.New(schedulerCfg, records, records, transport, templates, redis, log)

	if cfg.Scheduler.Enabled {
		go scheduler.Start(ctx)
	} else {
		zapLog.Warn("reminder scheduler disabled by configuration")
	}

	// --- Health & Metrics Server ---
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
		})
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := pg.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
		})
		mux.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := http.ListenAndServe(cfg.Server.Address, mux); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping scheduler...")
	zapLog.Info("Reminder daemon stopped")
}
