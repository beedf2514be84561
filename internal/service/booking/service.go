package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
	"github.com/jwalitptl/scheduler-api/internal/repository"
	"github.com/jwalitptl/scheduler-api/internal/service/event"
	"github.com/jwalitptl/scheduler-api/pkg/errors"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
	"github.com/jwalitptl/scheduler-api/pkg/metrics"
)

// maxBookingRetries bounds the internal retry loop on optimistic version
// conflicts before the conflict surfaces to the caller.
const maxBookingRetries = 3

// Service coordinates bookings against slots. All writes go through the
// versioned update, so concurrent bookings of the same slot serialize on the
// slot's version and never push the count past capacity.
type Service struct {
	slots   repository.SlotRepository
	blocks  repository.BlockRepository
	emitter event.Emitter
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewService(
	slots repository.SlotRepository,
	blocks repository.BlockRepository,
	emitter event.Emitter,
	m *metrics.Metrics,
	logger *logger.Logger,
) *Service {
	return &Service{
		slots:   slots,
		blocks:  blocks,
		emitter: emitter,
		metrics: m,
		logger:  logger,
	}
}

// Book reserves one seat on a slot. It fails typed: not-found for an absent
// slot, invalid-state for a non-available slot, capacity-exceeded for a full
// one. Version conflicts are retried a bounded number of times; persistent
// contention surfaces as a concurrency conflict.
func (s *Service) Book(ctx context.Context, slotID uuid.UUID) error {
	var lastErr error
	for attempt := 0; attempt <= maxBookingRetries; attempt++ {
		if attempt > 0 {
			s.metrics.BookingRetries.Inc()
		}

		slot, err := s.slots.Get(ctx, slotID)
		if err != nil {
			s.metrics.BookingAttempts.WithLabelValues("not_found").Inc()
			return err
		}
		if slot.Status != model.SlotStatusAvailable {
			s.metrics.BookingAttempts.WithLabelValues("invalid_state").Inc()
			return errors.InvalidState("slot is not available for booking")
		}
		if slot.CurrentBookings >= slot.MaxCapacity {
			s.metrics.BookingAttempts.WithLabelValues("capacity").Inc()
			return errors.CapacityExceeded("slot is fully booked")
		}

		slot.CurrentBookings++
		slot.Status = model.DeriveStatus(slot.CurrentBookings, slot.MaxCapacity, false)

		err = s.slots.UpdateVersioned(ctx, slot)
		if err == nil {
			s.metrics.BookingAttempts.WithLabelValues("success").Inc()
			s.emitter.Emit(ctx, model.EventSlotBooked, map[string]interface{}{
				"slot_id":          slot.ID,
				"staff_id":         slot.StaffID,
				"current_bookings": slot.CurrentBookings,
				"status":           slot.Status,
			})
			return nil
		}
		if !errors.Is(err, errors.ErrConcurrencyConflict) {
			s.metrics.BookingAttempts.WithLabelValues("error").Inc()
			return err
		}
		lastErr = err
	}

	s.metrics.BookingAttempts.WithLabelValues("conflict").Inc()
	s.logger.Warn("booking gave up after retries", "slot_id", slotID)
	return lastErr
}

// CancelBooking releases one seat on a slot. Absent slots and slots without
// bookings report false without an error, so cancel is safe to call twice.
// The released slot's status is recomputed against the currently active
// blocks: a slot still covered by a block stays blocked rather than becoming
// available.
func (s *Service) CancelBooking(ctx context.Context, slotID uuid.UUID) (bool, error) {
	for attempt := 0; attempt <= maxBookingRetries; attempt++ {
		slot, err := s.slots.Get(ctx, slotID)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		if slot.CurrentBookings == 0 {
			return false, nil
		}

		blocked, err := s.slotBlocked(ctx, slot)
		if err != nil {
			return false, err
		}

		slot.CurrentBookings--
		if slot.Status != model.SlotStatusCancelled {
			slot.Status = model.DeriveStatus(slot.CurrentBookings, slot.MaxCapacity, blocked)
		}

		err = s.slots.UpdateVersioned(ctx, slot)
		if err == nil {
			s.emitter.Emit(ctx, model.EventSlotReleased, map[string]interface{}{
				"slot_id":          slot.ID,
				"staff_id":         slot.StaffID,
				"current_bookings": slot.CurrentBookings,
				"status":           slot.Status,
			})
			return true, nil
		}
		if !errors.Is(err, errors.ErrConcurrencyConflict) {
			return false, err
		}
		s.metrics.BookingRetries.Inc()
	}

	return false, errors.ConcurrencyConflict("slot")
}

func (s *Service) slotBlocked(ctx context.Context, slot *model.Slot) (bool, error) {
	blocks, err := s.blocks.ListActiveForStaffDate(ctx, slot.StaffID, slot.Date)
	if err != nil {
		return false, err
	}
	for _, b := range blocks {
		if b.Overlaps(slot.StartTime, slot.EndTime) {
			return true, nil
		}
	}
	return false, nil
}
