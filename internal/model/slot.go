package model

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusBlocked   SlotStatus = "blocked"
	SlotStatusCancelled SlotStatus = "cancelled"
)

// Slot is a single bookable time unit generated from a schedule.
//
// Status is a stored projection of (CurrentBookings, MaxCapacity, active
// overlapping blocks); every mutation path recomputes it through
// DeriveStatus so booking and block propagation cannot disagree. Version
// supports optimistic concurrency control: writers pass the version they
// read and lose on mismatch.
type Slot struct {
	Base
	ScheduleID      uuid.UUID  `db:"schedule_id" json:"schedule_id"`
	StaffID         uuid.UUID  `db:"staff_id" json:"staff_id"`
	Date            time.Time  `db:"date" json:"date"`
	StartTime       time.Time  `db:"start_time" json:"start_time"`
	EndTime         time.Time  `db:"end_time" json:"end_time"`
	Status          SlotStatus `db:"status" json:"status"`
	MaxCapacity     int        `db:"max_capacity" json:"max_capacity"`
	CurrentBookings int        `db:"current_bookings" json:"current_bookings"`
	Version         int64      `db:"version" json:"version"`
	Notes           *string    `db:"notes" json:"notes,omitempty"`
}

// DeriveStatus computes the slot status implied by the booking count and
// block overlap. A block outranks everything except a slot already at
// capacity; below capacity the count decides between available and booked.
func DeriveStatus(currentBookings, maxCapacity int, blocked bool) SlotStatus {
	if currentBookings >= maxCapacity {
		return SlotStatusBooked
	}
	if blocked {
		return SlotStatusBlocked
	}
	return SlotStatusAvailable
}

// Overlaps reports whether the slot's interval overlaps [start, end) using
// the open-interval test: touching endpoints do not count as overlap.
func (s *Slot) Overlaps(start, end time.Time) bool {
	return s.StartTime.Before(end) && s.EndTime.After(start)
}

type SlotFilters struct {
	ScheduleID uuid.UUID
	StaffID    uuid.UUID
	Status     SlotStatus
	Range      DateRange
}
