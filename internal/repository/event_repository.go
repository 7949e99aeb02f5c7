package repository

import (
	"context"

	"seaport-backend/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// EventRepository defines the interface for engine event history
type EventRepository interface {
	Create(ctx context.Context, event *models.EventRecord) error
	// List returns the newest events first
	List(ctx context.Context, q EventQuery, limit int) ([]*models.EventRecord, error)
}

// EventQuery narrows an event listing; empty fields are ignored
type EventQuery struct {
	Name      string
	OrderHash string
	Party     string // lower-case hex address
}

// eventRepository implements EventRepository
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository instance
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *models.EventRecord) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) List(ctx context.Context, q EventQuery, limit int) ([]*models.EventRecord, error) {
	var events []*models.EventRecord
	query := r.db.WithContext(ctx)
	if q.Name != "" {
		query = query.Where("name = ?", q.Name)
	}
	if q.OrderHash != "" {
		query = query.Where("order_hash = ?", q.OrderHash)
	}
	if q.Party != "" {
		query = query.Where("parties @> ?", pq.StringArray{q.Party})
	}
	err := query.Order("created_at DESC").Limit(limit).Find(&events).Error
	return events, err
}
