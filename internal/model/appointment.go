package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment is the external collaborator entity booked against a slot.
// The engine only needs enough of it to cancel bookings when leave approval
// invalidates a staff member's day.
type Appointment struct {
	Base
	StaffID      uuid.UUID         `db:"staff_id" json:"staff_id"`
	PatientID    uuid.UUID         `db:"patient_id" json:"patient_id"`
	SlotID       *uuid.UUID        `db:"slot_id" json:"slot_id,omitempty"`
	Date         time.Time         `db:"date" json:"date"`
	Status       AppointmentStatus `db:"status" json:"status"`
	Notes        *string           `db:"notes" json:"notes,omitempty"`
	CancelReason *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

type AppointmentFilters struct {
	StaffID   uuid.UUID
	PatientID uuid.UUID
	Status    AppointmentStatus
	Range     DateRange
}
