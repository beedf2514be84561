package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
)

type SlotRepository struct {
	store *Store
}

func (r *SlotRepository) CreateForSchedule(ctx context.Context, scheduleID uuid.UUID, slots []*model.Slot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	schedule, ok := r.store.schedules[scheduleID]
	if !ok {
		return apperrors.NotFound("schedule", nil)
	}
	if schedule.SlotsGenerated {
		return apperrors.InvalidState("slots have already been generated for this schedule")
	}

	now := time.Now()
	for _, slot := range slots {
		slot.ID = uuid.New()
		slot.CreatedAt = now
		slot.UpdatedAt = now
		slot.Version = 1
		r.store.slots[slot.ID] = copySlot(slot)
	}

	schedule.SlotsGenerated = true
	schedule.UpdatedAt = now
	return nil
}

func (r *SlotRepository) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	slot, ok := r.store.slots[id]
	if !ok {
		return nil, apperrors.NotFound("appointment slot", nil)
	}
	return copySlot(slot), nil
}

func (r *SlotRepository) UpdateVersioned(ctx context.Context, slot *model.Slot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.slots[slot.ID]
	if !ok {
		return apperrors.NotFound("appointment slot", nil)
	}
	if existing.Version != slot.Version {
		return apperrors.ConcurrencyConflict("appointment slot")
	}

	slot.Version++
	slot.UpdatedAt = time.Now()
	r.store.slots[slot.ID] = copySlot(slot)
	return nil
}

func (r *SlotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	slot, ok := r.store.slots[id]
	if !ok {
		return apperrors.NotFound("appointment slot", nil)
	}
	if slot.CurrentBookings > 0 {
		return apperrors.InvalidState("cannot delete appointment slot with existing bookings")
	}
	delete(r.store.slots, id)
	return nil
}

func (r *SlotRepository) DeleteUnbooked(ctx context.Context, scheduleID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var deleted int64
	for id, slot := range r.store.slots {
		if slot.ScheduleID == scheduleID && slot.CurrentBookings == 0 {
			delete(r.store.slots, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *SlotRepository) List(ctx context.Context, filters *model.SlotFilters) ([]*model.Slot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var slots []*model.Slot
	for _, slot := range r.store.slots {
		if filters != nil {
			if filters.ScheduleID != uuid.Nil && slot.ScheduleID != filters.ScheduleID {
				continue
			}
			if filters.StaffID != uuid.Nil && slot.StaffID != filters.StaffID {
				continue
			}
			if filters.Status != "" && slot.Status != filters.Status {
				continue
			}
			if !filters.Range.From.IsZero() && slot.Date.Before(filters.Range.From) {
				continue
			}
			if !filters.Range.To.IsZero() && slot.Date.After(filters.Range.To) {
				continue
			}
		}
		slots = append(slots, copySlot(slot))
	}

	sortSlots(slots)
	return slots, nil
}

func (r *SlotRepository) ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*model.Slot, error) {
	return r.List(ctx, &model.SlotFilters{ScheduleID: scheduleID})
}

func (r *SlotRepository) ListOverlapping(ctx context.Context, staffID uuid.UUID, date, start, end time.Time, statuses []model.SlotStatus) ([]*model.Slot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	wanted := make(map[model.SlotStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}

	var slots []*model.Slot
	for _, slot := range r.store.slots {
		if slot.StaffID != staffID || !slot.Date.Equal(date) {
			continue
		}
		if !wanted[slot.Status] {
			continue
		}
		if slot.Overlaps(start, end) {
			slots = append(slots, copySlot(slot))
		}
	}

	sortSlots(slots)
	return slots, nil
}

func (r *SlotRepository) HasBookedSlots(ctx context.Context, scheduleID uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, slot := range r.store.slots {
		if slot.ScheduleID == scheduleID && slot.CurrentBookings > 0 {
			return true, nil
		}
	}
	return false, nil
}

func sortSlots(slots []*model.Slot) {
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].Date.Equal(slots[j].Date) {
			return slots[i].Date.Before(slots[j].Date)
		}
		return slots[i].StartTime.Before(slots[j].StartTime)
	})
}
