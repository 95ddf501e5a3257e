package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/availability-api/internal/models"
)

// AvailabilityRepository persists recurring weekly intervals per event type.
type AvailabilityRepository struct {
	db *sqlx.DB
}

func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByEventType returns stored rows ordered by day then start time.
func (r *AvailabilityRepository) ListByEventType(ctx context.Context, eventTypeID int64) ([]models.AvailabilityRecord, error) {
	const query = `SELECT id, event_type_id, day_of_week, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time
FROM availability WHERE event_type_id = $1 ORDER BY day_of_week ASC, start_time ASC`
	records := make([]models.AvailabilityRecord, 0)
	if err := r.db.SelectContext(ctx, &records, query, eventTypeID); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return records, nil
}

// Replace deletes every interval of the event type and inserts the given set in one transaction.
func (r *AvailabilityRepository) Replace(ctx context.Context, eventTypeID int64, intervals []models.Interval) (inserted int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin availability transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM availability WHERE event_type_id = $1`, eventTypeID); err != nil {
		return 0, fmt.Errorf("delete availability: %w", err)
	}

	const insertQuery = `INSERT INTO availability (event_type_id, day_of_week, start_time, end_time) VALUES ($1, $2, $3, $4)`
	for _, iv := range intervals {
		if _, err = tx.ExecContext(ctx, insertQuery, eventTypeID, iv.DayOfWeek, iv.StartTime, iv.EndTime); err != nil {
			return 0, fmt.Errorf("insert availability %s: %w", iv, err)
		}
		inserted++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit availability: %w", err)
	}
	return inserted, nil
}
