package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
)

// All repository interfaces in one file
type (
	ScheduleRepository interface {
		Create(ctx context.Context, schedule *model.Schedule) error
		Get(ctx context.Context, id uuid.UUID) (*model.Schedule, error)
		Update(ctx context.Context, schedule *model.Schedule) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.ScheduleFilters) ([]*model.Schedule, error)
		ListForStaffRange(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]*model.Schedule, error)
		Exists(ctx context.Context, staffID uuid.UUID, date, startTime, endTime time.Time) (bool, error)
		// ResetSlotsGenerated clears the generation flag so slots can be
		// rebuilt. Setting the flag happens atomically with slot creation in
		// SlotRepository.CreateForSchedule.
		ResetSlotsGenerated(ctx context.Context, id uuid.UUID) error
	}

	SlotRepository interface {
		// CreateForSchedule inserts the generated slots and flips the
		// schedule's slots_generated flag in one atomic step. It fails with
		// an invalid-state error when the flag is already set, so two
		// concurrent generation calls cannot both succeed.
		CreateForSchedule(ctx context.Context, scheduleID uuid.UUID, slots []*model.Slot) error
		Get(ctx context.Context, id uuid.UUID) (*model.Slot, error)
		// UpdateVersioned writes the slot's mutable fields guarded by the
		// version the caller read. On success the slot's version is bumped
		// in place; on a stale version it fails with a concurrency conflict.
		UpdateVersioned(ctx context.Context, slot *model.Slot) error
		// Delete removes a slot, refusing while it has bookings.
		Delete(ctx context.Context, id uuid.UUID) error
		// DeleteUnbooked removes every zero-booking slot of a schedule and
		// returns how many went away. Booked slots are left untouched.
		DeleteUnbooked(ctx context.Context, scheduleID uuid.UUID) (int64, error)
		List(ctx context.Context, filters *model.SlotFilters) ([]*model.Slot, error)
		ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*model.Slot, error)
		// ListOverlapping returns slots for staff+date whose interval
		// overlaps [start, end) with one of the given statuses.
		ListOverlapping(ctx context.Context, staffID uuid.UUID, date, start, end time.Time, statuses []model.SlotStatus) ([]*model.Slot, error)
		HasBookedSlots(ctx context.Context, scheduleID uuid.UUID) (bool, error)
	}

	SlotConfigurationRepository interface {
		Create(ctx context.Context, config *model.SlotConfiguration) error
		Get(ctx context.Context, id uuid.UUID) (*model.SlotConfiguration, error)
		// GetActiveForStaff returns the latest active configuration by
		// creation time, or a not-found error.
		GetActiveForStaff(ctx context.Context, staffID uuid.UUID) (*model.SlotConfiguration, error)
		// EnsureDefault creates the default configuration for a staff member
		// unless an active one already exists, and returns the winner.
		// Repeated calls never create duplicate defaults.
		EnsureDefault(ctx context.Context, staffID uuid.UUID) (*model.SlotConfiguration, error)
		Update(ctx context.Context, config *model.SlotConfiguration) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.SlotConfiguration, error)
		ListForStaff(ctx context.Context, staffID uuid.UUID) ([]*model.SlotConfiguration, error)
	}

	BlockRepository interface {
		Create(ctx context.Context, block *model.Block) error
		Get(ctx context.Context, id uuid.UUID) (*model.Block, error)
		Update(ctx context.Context, block *model.Block) error
		// SetActive flips is_active as a compare-and-swap against the
		// opposite value; flipping to the current value reports false.
		SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error)
		List(ctx context.Context, filters *model.BlockFilters) ([]*model.Block, error)
		ListActiveForStaffDate(ctx context.Context, staffID uuid.UUID, date time.Time) ([]*model.Block, error)
		ListByLeave(ctx context.Context, leaveID uuid.UUID) ([]*model.Block, error)
	}

	LeaveRepository interface {
		Create(ctx context.Context, leave *model.Leave) error
		Get(ctx context.Context, id uuid.UUID) (*model.Leave, error)
		Update(ctx context.Context, leave *model.Leave) error
		List(ctx context.Context, filters *model.LeaveFilters) ([]*model.Leave, error)
		HasOverlapping(ctx context.Context, staffID uuid.UUID, from, to time.Time, exclude *uuid.UUID) (bool, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// ListActiveForStaffRange returns non-cancelled appointments for a
		// staff member with dates inside [from, to].
		ListActiveForStaffRange(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]*model.Appointment, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
