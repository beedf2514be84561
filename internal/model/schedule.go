package model

import (
	"time"

	"github.com/google/uuid"
)

type ScheduleStatus string

const (
	ScheduleStatusScheduled ScheduleStatus = "scheduled"
	ScheduleStatusActive    ScheduleStatus = "active"
	ScheduleStatusCompleted ScheduleStatus = "completed"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"
	ScheduleStatusOnLeave   ScheduleStatus = "on_leave"
)

type ShiftType string

const (
	ShiftTypeMorning   ShiftType = "morning"
	ShiftTypeAfternoon ShiftType = "afternoon"
	ShiftTypeEvening   ShiftType = "evening"
	ShiftTypeNight     ShiftType = "night"
	ShiftTypeFullDay   ShiftType = "full_day"
	ShiftTypeOnCall    ShiftType = "on_call"
)

// Schedule is a staff member's working interval for one date. It owns the
// slots generated from it; SlotsGenerated guards against double generation.
type Schedule struct {
	Base
	StaffID        uuid.UUID      `db:"staff_id" json:"staff_id"`
	Date           time.Time      `db:"date" json:"date"`
	StartTime      time.Time      `db:"start_time" json:"start_time"`
	EndTime        time.Time      `db:"end_time" json:"end_time"`
	BreakStart     *time.Time     `db:"break_start" json:"break_start,omitempty"`
	BreakEnd       *time.Time     `db:"break_end" json:"break_end,omitempty"`
	ShiftType      ShiftType      `db:"shift_type" json:"shift_type"`
	Status         ScheduleStatus `db:"status" json:"status"`
	SlotsGenerated bool           `db:"slots_generated" json:"slots_generated"`
	Notes          *string        `db:"notes" json:"notes,omitempty"`
}

// HasBreak reports whether the schedule carries a usable break window.
func (s *Schedule) HasBreak() bool {
	return s.BreakStart != nil && s.BreakEnd != nil && s.BreakEnd.After(*s.BreakStart)
}

type CreateScheduleRequest struct {
	StaffID    uuid.UUID  `json:"staff_id" validate:"required"`
	Date       time.Time  `json:"date" validate:"required"`
	StartTime  time.Time  `json:"start_time" validate:"required"`
	EndTime    time.Time  `json:"end_time" validate:"required,gtfield=StartTime"`
	BreakStart *time.Time `json:"break_start"`
	BreakEnd   *time.Time `json:"break_end"`
	ShiftType  ShiftType  `json:"shift_type" validate:"required,oneof=morning afternoon evening night full_day on_call"`
	Notes      *string    `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateScheduleRequest struct {
	StartTime  *time.Time      `json:"start_time"`
	EndTime    *time.Time      `json:"end_time"`
	BreakStart *time.Time      `json:"break_start"`
	BreakEnd   *time.Time      `json:"break_end"`
	ShiftType  *ShiftType      `json:"shift_type"`
	Status     *ScheduleStatus `json:"status"`
	Notes      *string         `json:"notes"`
}

type ScheduleFilters struct {
	StaffID uuid.UUID
	Status  ScheduleStatus
	Range   DateRange
}
