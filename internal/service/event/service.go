package event

import (
	"context"
	"encoding/json"

	"github.com/jwalitptl/scheduler-api/internal/model"
	"github.com/jwalitptl/scheduler-api/internal/repository"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
)

// Emitter records domain events for asynchronous publication. Emission is
// best effort: a failed append is logged, never propagated, so scheduling
// operations do not fail because the outbox is unhappy.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{})
}

type Service struct {
	outbox repository.OutboxRepository
	logger *logger.Logger
}

func NewService(outbox repository.OutboxRepository, logger *logger.Logger) *Service {
	return &Service{outbox: outbox, logger: logger}
}

func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error(err, "failed to marshal event payload", "event_type", eventType)
		return
	}

	evt := &model.OutboxEvent{
		EventType: eventType,
		Payload:   data,
	}
	if err := s.outbox.Create(ctx, evt); err != nil {
		s.logger.Error(err, "failed to append outbox event", "event_type", eventType)
	}
}

// NopEmitter discards events; used where no outbox is wired.
type NopEmitter struct{}

func (NopEmitter) Emit(ctx context.Context, eventType string, payload interface{}) {}
