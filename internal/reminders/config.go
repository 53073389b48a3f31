// internal/reminders/config.go
package reminders

import "time"

type Config struct {
	Interval            time.Duration
	DispatchConcurrency int
	DispatchTimeout     time.Duration
	LockKey             string
	LockTTL             time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Interval:            24 * time.Hour,
		DispatchConcurrency: 4,
		DispatchTimeout:     30 * time.Second,
		LockKey:             "apptrack:deadline-scan",
		LockTTL:             time.Hour,
	}
}
