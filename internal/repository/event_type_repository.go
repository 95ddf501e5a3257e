package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/availability-api/internal/models"
)

// EventTypeRepository reads event types owning availability sets.
type EventTypeRepository struct {
	db *sqlx.DB
}

func NewEventTypeRepository(db *sqlx.DB) *EventTypeRepository {
	return &EventTypeRepository{db: db}
}

// FindByID returns sql.ErrNoRows when the event type does not exist.
func (r *EventTypeRepository) FindByID(ctx context.Context, id int64) (*models.EventType, error) {
	const query = `SELECT id, name, slug, duration_minutes, created_at FROM event_types WHERE id = $1`
	var et models.EventType
	if err := r.db.GetContext(ctx, &et, query, id); err != nil {
		return nil, fmt.Errorf("get event type %d: %w", id, err)
	}
	return &et, nil
}
