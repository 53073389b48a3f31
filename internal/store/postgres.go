package store

import (
	"context"
	"database/sql"
	"time"

	"apptrack/internal/models"

	"github.com/lib/pq"
)

// Postgres implements RecordStore and OwnerDirectory on a SQL database.
// All queries are point-in-time reads; this type never writes.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const applicationColumns = `
	id, user_id, title, application_type, institution,
	COALESCE(program_role, ''), COALESCE(country, ''),
	deadline, status, COALESCE(application_url, ''), COALESCE(notes, ''),
	created_at, updated_at`

func (p *Postgres) FindByDeadlineExcludingStatuses(ctx context.Context, deadline time.Time, excluded []models.Status) ([]*models.Application, error) {
	statuses := make([]string, 0, len(excluded))
	for _, s := range excluded {
		statuses = append(statuses, string(s))
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE deadline = $1
		  AND status != ALL($2)
		ORDER BY id`,
		models.Date(deadline), pq.Array(statuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanApplications(rows)
}

func (p *Postgres) FindAllForOwner(ctx context.Context, ownerID string) ([]*models.Application, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE user_id = $1
		ORDER BY id`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanApplications(rows)
}

func (p *Postgres) GetOwner(ctx context.Context, ownerID string) (*models.Owner, error) {
	var o models.Owner
	err := p.db.QueryRowContext(ctx, `
		SELECT id, username, email, COALESCE(phone, '')
		FROM users
		WHERE id = $1`,
		ownerID).Scan(&o.ID, &o.Username, &o.Email, &o.Phone)
	if err == sql.ErrNoRows {
		return nil, ErrOwnerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanApplications(rows *sql.Rows) ([]*models.Application, error) {
	var out []*models.Application
	for rows.Next() {
		var (
			a        models.Application
			appType  string
			status   string
			deadline sql.NullTime
		)
		if err := rows.Scan(
			&a.ID, &a.OwnerID, &a.Title, &appType, &a.Institution,
			&a.ProgramRole, &a.Country,
			&deadline, &status, &a.URL, &a.Notes,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}

		// Statuses come from a CHECK-constrained column; an unknown value
		// here means schema drift and is surfaced immediately.
		parsed, err := models.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		a.Status = parsed
		a.Type = models.ApplicationType(appType)

		if deadline.Valid {
			d := models.Date(deadline.Time)
			a.Deadline = &d
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
