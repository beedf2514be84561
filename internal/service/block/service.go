package block

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

// maxPropagationRetries bounds per-slot version-conflict retries during
// propagation runs.
const maxPropagationRetries = 3

// Service manages exclusion blocks and propagates them onto slots. Applying
// a block turns overlapping available slots blocked; retracting it releases
// only slots no other active block still covers.
type Service struct {
	blocks  repository.BlockRepository
	slots   repository.SlotRepository
	emitter event.Emitter
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewService(
	blocks repository.BlockRepository,
	slots repository.SlotRepository,
	emitter event.Emitter,
	m *metrics.Metrics,
	logger *logger.Logger,
) *Service {
	return &Service{
		blocks:  blocks,
		slots:   slots,
		emitter: emitter,
		metrics: m,
		logger:  logger,
	}
}

// CreateBlock records a new active block and propagates it onto overlapping
// slots.
func (s *Service) CreateBlock(ctx context.Context, actor model.Actor, req *model.CreateBlockRequest) (*model.Block, error) {
	if !actor.CanManageScheduling() {
		return nil, errors.Forbidden("not allowed to manage blocks")
	}

	createdBy := actor.UserID
	block := &model.Block{
		StaffID:   req.StaffID,
		Date:      model.Day(req.Date),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
		Notes:     req.Notes,
		IsActive:  true,
		CreatedBy: &createdBy,
	}
	if err := s.Create(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

// Create persists a pre-built block and applies it. Used directly by the
// leave workflow, which attaches a leave ID before insertion.
func (s *Service) Create(ctx context.Context, block *model.Block) error {
	block.Date = model.Day(block.Date)
	block.IsActive = true
	if err := s.blocks.Create(ctx, block); err != nil {
		return err
	}
	if err := s.apply(ctx, block); err != nil {
		return err
	}

	s.emitter.Emit(ctx, model.EventBlockApplied, map[string]interface{}{
		"block_id": block.ID,
		"staff_id": block.StaffID,
		"date":     block.Date,
		"reason":   block.Reason,
	})
	return nil
}

// DeactivateBlock soft-deletes a block and retracts it from the slots it
// covered. Deactivating an already inactive block is a no-op.
func (s *Service) DeactivateBlock(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if !actor.CanManageScheduling() {
		return errors.Forbidden("not allowed to manage blocks")
	}
	return s.Deactivate(ctx, id)
}

// Deactivate flips the block inactive and re-evaluates the slots inside its
// interval. The flip is a compare-and-swap, so two concurrent retractions
// run the propagation once.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	block, err := s.blocks.Get(ctx, id)
	if err != nil {
		return err
	}

	changed, err := s.blocks.SetActive(ctx, id, false)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	block.IsActive = false

	if err := s.retract(ctx, block); err != nil {
		return err
	}

	s.emitter.Emit(ctx, model.EventBlockRetracted, map[string]interface{}{
		"block_id": block.ID,
		"staff_id": block.StaffID,
		"date":     block.Date,
	})
	return nil
}

// UpdateBlock changes a block's interval or metadata. Interval changes
// re-propagate: the old interval is retracted before the new one applies, so
// slots only the old interval covered come back while the block itself stays
// active.
func (s *Service) UpdateBlock(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateBlockRequest) (*model.Block, error) {
	if !actor.CanManageScheduling() {
		return nil, errors.Forbidden("not allowed to manage blocks")
	}

	block, err := s.blocks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !block.IsActive {
		return nil, errors.InvalidState("cannot update an inactive block")
	}

	intervalChanged := (req.StartTime != nil && !req.StartTime.Equal(block.StartTime)) ||
		(req.EndTime != nil && !req.EndTime.Equal(block.EndTime))

	if intervalChanged {
		// Retract under the old interval while the block counts as
		// inactive, then apply the new one.
		if _, err := s.blocks.SetActive(ctx, id, false); err != nil {
			return nil, err
		}
		old := *block
		old.IsActive = false
		if err := s.retract(ctx, &old); err != nil {
			return nil, err
		}
	}

	if req.StartTime != nil {
		block.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		block.EndTime = *req.EndTime
	}
	if req.Reason != nil {
		block.Reason = *req.Reason
	}
	if req.Notes != nil {
		block.Notes = req.Notes
	}
	if err := s.blocks.Update(ctx, block); err != nil {
		return nil, err
	}

	if intervalChanged {
		// Update does not touch is_active; flip it back through the CAS so
		// the stored block matches the blocked slots it is about to create.
		if _, err := s.blocks.SetActive(ctx, id, true); err != nil {
			return nil, err
		}
		block.IsActive = true
		if err := s.apply(ctx, block); err != nil {
			return nil, err
		}
	}
	return block, nil
}

func (s *Service) GetBlock(ctx context.Context, id uuid.UUID) (*model.Block, error) {
	return s.blocks.Get(ctx, id)
}

func (s *Service) ListBlocks(ctx context.Context, filters *model.BlockFilters) ([]*model.Block, error) {
	return s.blocks.List(ctx, filters)
}

func (s *Service) ListByLeave(ctx context.Context, leaveID uuid.UUID) ([]*model.Block, error) {
	return s.blocks.ListByLeave(ctx, leaveID)
}

// apply marks every available slot overlapping the block as blocked.
// Touching endpoints do not overlap. Slots already booked keep their
// status; the booking count always outranks a block.
func (s *Service) apply(ctx context.Context, block *model.Block) error {
	s.metrics.BlockPropagations.WithLabelValues("apply").Inc()

	candidates, err := s.slots.ListOverlapping(ctx, block.StaffID, block.Date,
		block.StartTime, block.EndTime, []model.SlotStatus{model.SlotStatusAvailable})
	if err != nil {
		return err
	}

	for _, slot := range candidates {
		if err := s.setSlotStatus(ctx, slot.ID, func(sl *model.Slot) (model.SlotStatus, bool) {
			if sl.Status != model.SlotStatusAvailable || !sl.Overlaps(block.StartTime, block.EndTime) {
				return sl.Status, false
			}
			return model.DeriveStatus(sl.CurrentBookings, sl.MaxCapacity, true), true
		}); err != nil {
			return err
		}
		s.metrics.SlotsBlocked.Inc()
	}

	s.logger.Info("applied block",
		"block_id", block.ID, "staff_id", block.StaffID, "slots", len(candidates))
	return nil
}

// retract re-evaluates the slots the block covered. A slot only returns to
// available when no other active block for the same staff and date still
// overlaps it; a slot blocked twice over stays blocked until its last block
// goes away.
func (s *Service) retract(ctx context.Context, block *model.Block) error {
	s.metrics.BlockPropagations.WithLabelValues("retract").Inc()

	candidates, err := s.slots.ListOverlapping(ctx, block.StaffID, block.Date,
		block.StartTime, block.EndTime, []model.SlotStatus{model.SlotStatusBlocked})
	if err != nil {
		return err
	}

	others, err := s.blocks.ListActiveForStaffDate(ctx, block.StaffID, block.Date)
	if err != nil {
		return err
	}

	released := 0
	for _, slot := range candidates {
		if slot.CurrentBookings >= slot.MaxCapacity {
			continue
		}
		stillBlocked := false
		for _, other := range others {
			if other.ID != block.ID && other.Overlaps(slot.StartTime, slot.EndTime) {
				stillBlocked = true
				break
			}
		}
		if stillBlocked {
			continue
		}

		if err := s.setSlotStatus(ctx, slot.ID, func(sl *model.Slot) (model.SlotStatus, bool) {
			if sl.Status != model.SlotStatusBlocked {
				return sl.Status, false
			}
			return model.DeriveStatus(sl.CurrentBookings, sl.MaxCapacity, false), true
		}); err != nil {
			return err
		}
		released++
		s.metrics.SlotsUnblocked.Inc()
	}

	s.logger.Info("retracted block",
		"block_id", block.ID, "staff_id", block.StaffID, "released", released)
	return nil
}

// setSlotStatus applies a status decision to a freshly read slot under the
// versioned write, retrying on conflicts so propagation never clobbers a
// concurrent booking's count.
func (s *Service) setSlotStatus(ctx context.Context, slotID uuid.UUID, decide func(*model.Slot) (model.SlotStatus, bool)) error {
	for attempt := 0; attempt <= maxPropagationRetries; attempt++ {
		slot, err := s.slots.Get(ctx, slotID)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				return nil
			}
			return err
		}

		next, ok := decide(slot)
		if !ok || next == slot.Status {
			return nil
		}
		slot.Status = next

		err = s.slots.UpdateVersioned(ctx, slot)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errors.ErrConcurrencyConflict) {
			return err
		}
	}
	return errors.ConcurrencyConflict("slot")
}
