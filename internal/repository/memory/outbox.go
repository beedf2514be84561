package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
)

type OutboxRepository struct {
	store *Store
}

func (r *OutboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()
	event.Status = model.OutboxStatusPending
	r.store.outbox[event.ID] = copyEvent(event)
	return nil
}

func (r *OutboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var events []*model.OutboxEvent
	for _, event := range r.store.outbox {
		if event.Status == model.OutboxStatusPending {
			events = append(events, copyEvent(event))
		}
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (r *OutboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	event, ok := r.store.outbox[id]
	if !ok {
		return apperrors.NotFound("outbox event", nil)
	}
	event.Status = status
	event.ErrorMessage = errMsg
	event.UpdatedAt = time.Now()
	if status == model.OutboxStatusProcessed {
		now := time.Now()
		event.ProcessedAt = &now
	}
	return nil
}

func (r *OutboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var deleted int64
	for id, event := range r.store.outbox {
		if event.Status == model.OutboxStatusProcessed && event.ProcessedAt != nil && event.ProcessedAt.Before(before) {
			delete(r.store.outbox, id)
			deleted++
		}
	}
	return deleted, nil
}
