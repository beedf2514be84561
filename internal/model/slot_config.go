package model

import (
	"time"

	"github.com/google/uuid"
)

// Default slot configuration applied when a staff member has none.
const (
	DefaultSlotDurationMinutes = 30
	DefaultBufferTimeMinutes   = 0
	DefaultMaxPatientsPerSlot  = 1
	DefaultAdvanceBookingDays  = 30
)

// SlotConfiguration governs how a schedule decomposes into slots. Only read
// at generation time; editing it never retroactively regenerates slots.
type SlotConfiguration struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	StaffID             uuid.UUID  `db:"staff_id" json:"staff_id"`
	SlotDurationMinutes int        `db:"slot_duration_minutes" json:"slot_duration_minutes"`
	BufferTimeMinutes   int        `db:"buffer_time_minutes" json:"buffer_time_minutes"`
	MaxPatientsPerSlot  int        `db:"max_patients_per_slot" json:"max_patients_per_slot"`
	AdvanceBookingDays  int        `db:"advance_booking_days" json:"advance_booking_days"`
	IsActive            bool       `db:"is_active" json:"is_active"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// DefaultSlotConfiguration returns the fallback configuration for staff
// members without one.
func DefaultSlotConfiguration(staffID uuid.UUID) *SlotConfiguration {
	return &SlotConfiguration{
		StaffID:             staffID,
		SlotDurationMinutes: DefaultSlotDurationMinutes,
		BufferTimeMinutes:   DefaultBufferTimeMinutes,
		MaxPatientsPerSlot:  DefaultMaxPatientsPerSlot,
		AdvanceBookingDays:  DefaultAdvanceBookingDays,
		IsActive:            true,
	}
}

type CreateSlotConfigurationRequest struct {
	StaffID             uuid.UUID `json:"staff_id" validate:"required"`
	SlotDurationMinutes int       `json:"slot_duration_minutes" validate:"required,min=5,max=480"`
	BufferTimeMinutes   int       `json:"buffer_time_minutes" validate:"min=0,max=120"`
	MaxPatientsPerSlot  int       `json:"max_patients_per_slot" validate:"required,min=1,max=100"`
	AdvanceBookingDays  int       `json:"advance_booking_days" validate:"required,min=1,max=365"`
}

type UpdateSlotConfigurationRequest struct {
	SlotDurationMinutes *int  `json:"slot_duration_minutes" validate:"omitempty,min=5,max=480"`
	BufferTimeMinutes   *int  `json:"buffer_time_minutes" validate:"omitempty,min=0,max=120"`
	MaxPatientsPerSlot  *int  `json:"max_patients_per_slot" validate:"omitempty,min=1,max=100"`
	AdvanceBookingDays  *int  `json:"advance_booking_days" validate:"omitempty,min=1,max=365"`
	IsActive            *bool `json:"is_active"`
}
