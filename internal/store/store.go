// Package store exposes read access to application records and owners.
// The reminder and dashboard code consume these interfaces only; persistence
// and mutation live with the owning service.
package store

import (
	"context"
	"errors"
	"time"

	"apptrack/internal/models"
)

// ErrOwnerNotFound is returned when an owner id resolves to no user.
var ErrOwnerNotFound = errors.New("owner not found")

// RecordStore is the query surface the scheduler and aggregator need.
type RecordStore interface {
	// FindByDeadlineExcludingStatuses returns all records due exactly on the
	// given calendar date whose status is not in excluded.
	FindByDeadlineExcludingStatuses(ctx context.Context, deadline time.Time, excluded []models.Status) ([]*models.Application, error)

	// FindAllForOwner returns every record owned by the given user.
	FindAllForOwner(ctx context.Context, ownerID string) ([]*models.Application, error)
}

// OwnerDirectory resolves an owner id to a contact identity.
type OwnerDirectory interface {
	GetOwner(ctx context.Context, ownerID string) (*models.Owner, error)
}
