package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
)

type ScheduleRepository struct {
	store *Store
}

func (r *ScheduleRepository) Create(ctx context.Context, schedule *model.Schedule) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	schedule.ID = uuid.New()
	schedule.CreatedAt = time.Now()
	schedule.UpdatedAt = time.Now()
	r.store.schedules[schedule.ID] = copySchedule(schedule)
	return nil
}

func (r *ScheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	schedule, ok := r.store.schedules[id]
	if !ok {
		return nil, apperrors.NotFound("schedule", nil)
	}
	return copySchedule(schedule), nil
}

func (r *ScheduleRepository) Update(ctx context.Context, schedule *model.Schedule) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.schedules[schedule.ID]
	if !ok {
		return apperrors.NotFound("schedule", nil)
	}

	schedule.UpdatedAt = time.Now()
	schedule.SlotsGenerated = existing.SlotsGenerated
	r.store.schedules[schedule.ID] = copySchedule(schedule)
	return nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.schedules[id]; !ok {
		return apperrors.NotFound("schedule", nil)
	}
	for _, slot := range r.store.slots {
		if slot.ScheduleID == id && slot.CurrentBookings > 0 {
			return apperrors.InvalidState("cannot delete schedule with booked slots")
		}
	}
	for slotID, slot := range r.store.slots {
		if slot.ScheduleID == id {
			delete(r.store.slots, slotID)
		}
	}
	delete(r.store.schedules, id)
	return nil
}

func (r *ScheduleRepository) List(ctx context.Context, filters *model.ScheduleFilters) ([]*model.Schedule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var schedules []*model.Schedule
	for _, schedule := range r.store.schedules {
		if filters != nil {
			if filters.StaffID != uuid.Nil && schedule.StaffID != filters.StaffID {
				continue
			}
			if filters.Status != "" && schedule.Status != filters.Status {
				continue
			}
			if !filters.Range.From.IsZero() && schedule.Date.Before(filters.Range.From) {
				continue
			}
			if !filters.Range.To.IsZero() && schedule.Date.After(filters.Range.To) {
				continue
			}
		}
		schedules = append(schedules, copySchedule(schedule))
	}

	sort.Slice(schedules, func(i, j int) bool {
		if !schedules[i].Date.Equal(schedules[j].Date) {
			return schedules[i].Date.Before(schedules[j].Date)
		}
		return schedules[i].StartTime.Before(schedules[j].StartTime)
	})
	return schedules, nil
}

func (r *ScheduleRepository) ListForStaffRange(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]*model.Schedule, error) {
	return r.List(ctx, &model.ScheduleFilters{
		StaffID: staffID,
		Range:   model.DateRange{From: from, To: to},
	})
}

func (r *ScheduleRepository) Exists(ctx context.Context, staffID uuid.UUID, date, startTime, endTime time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, schedule := range r.store.schedules {
		if schedule.StaffID == staffID &&
			schedule.Date.Equal(date) &&
			schedule.StartTime.Equal(startTime) &&
			schedule.EndTime.Equal(endTime) {
			return true, nil
		}
	}
	return false, nil
}

func (r *ScheduleRepository) ResetSlotsGenerated(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	schedule, ok := r.store.schedules[id]
	if !ok {
		return apperrors.NotFound("schedule", nil)
	}
	schedule.SlotsGenerated = false
	schedule.UpdatedAt = time.Now()
	return nil
}
