package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"seaport-backend/internal/events"
	"seaport-backend/internal/models"
	"seaport-backend/internal/repository"

	"github.com/lib/pq"
)

// EventRecorder persists published events and serves them back as history
type EventRecorder struct {
	repo repository.EventRepository
}

var (
	_ events.Publisher = (*EventRecorder)(nil)
	_ EventHistory     = (*EventRecorder)(nil)
)

// NewEventRecorder creates a new EventRecorder instance
func NewEventRecorder(repo repository.EventRepository) *EventRecorder {
	return &EventRecorder{repo: repo}
}

func (r *EventRecorder) Publish(ctx context.Context, env events.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return r.repo.Create(ctx, &models.EventRecord{
		ID:        env.ID,
		Name:      env.Name,
		OrderHash: env.OrderHash,
		Parties:   pq.StringArray(lowerAll(env.Parties)),
		Payload:   string(payload),
		CreatedAt: time.Unix(env.Timestamp, 0),
	})
}

func (r *EventRecorder) Recent(ctx context.Context, filter events.Filter, limit int) ([]events.Envelope, error) {
	records, err := r.repo.List(ctx, repository.EventQuery{
		Name:      filter.Name,
		OrderHash: filter.OrderHash,
		Party:     strings.ToLower(filter.Account),
	}, limit)
	if err != nil {
		return nil, err
	}
	out := make([]events.Envelope, 0, len(records))
	for _, rec := range records {
		var env events.Envelope
		if err := json.Unmarshal([]byte(rec.Payload), &env); err != nil {
			return nil, fmt.Errorf("failed to decode event %s: %w", rec.ID, err)
		}
		out = append(out, env)
	}
	return out, nil
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
