package model

import (
	"time"

	"github.com/google/uuid"
)

type LeaveStatus string

const (
	LeaveStatusPending   LeaveStatus = "pending"
	LeaveStatusApproved  LeaveStatus = "approved"
	LeaveStatusRejected  LeaveStatus = "rejected"
	LeaveStatusCancelled LeaveStatus = "cancelled"
)

type LeaveType string

const (
	LeaveTypeVacation LeaveType = "vacation"
	LeaveTypeSick     LeaveType = "sick"
	LeaveTypePersonal LeaveType = "personal"
	LeaveTypeOther    LeaveType = "other"
)

// Leave is a staff absence request spanning a date range. Approval turns it
// into per-schedule blocks; cancellation or returning it to pending retracts
// them again.
type Leave struct {
	Base
	StaffID         uuid.UUID   `db:"staff_id" json:"staff_id"`
	StartDate       time.Time   `db:"start_date" json:"start_date"`
	EndDate         time.Time   `db:"end_date" json:"end_date"`
	LeaveType       LeaveType   `db:"leave_type" json:"leave_type"`
	Reason          *string     `db:"reason" json:"reason,omitempty"`
	Status          LeaveStatus `db:"status" json:"status"`
	ApprovedBy      *uuid.UUID  `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time  `db:"approved_at" json:"approved_at,omitempty"`
	RejectionReason *string     `db:"rejection_reason" json:"rejection_reason,omitempty"`
}

type CreateLeaveRequest struct {
	StaffID   uuid.UUID `json:"staff_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	LeaveType LeaveType `json:"leave_type" validate:"required,oneof=vacation sick personal other"`
	Reason    *string   `json:"reason" validate:"omitempty,max=1000"`
}

type LeaveFilters struct {
	StaffID uuid.UUID
	Status  LeaveStatus
}
