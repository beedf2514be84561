package model

import (
	"time"

	"github.com/google/uuid"
)

type BlockReason string

const (
	BlockReasonMeeting   BlockReason = "meeting"
	BlockReasonEmergency BlockReason = "emergency"
	BlockReasonLeave     BlockReason = "leave"
	BlockReasonPersonal  BlockReason = "personal"
	BlockReasonOther     BlockReason = "other"
)

// Block is an ad-hoc exclusion interval for a staff member on a date. It is
// soft-deleted through IsActive; a deactivated block keeps its row so the
// retraction history stays reconstructible. LeaveID ties blocks created by
// leave approval to their leave for symmetric retraction.
type Block struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	StaffID   uuid.UUID   `db:"staff_id" json:"staff_id"`
	Date      time.Time   `db:"date" json:"date"`
	StartTime time.Time   `db:"start_time" json:"start_time"`
	EndTime   time.Time   `db:"end_time" json:"end_time"`
	Reason    BlockReason `db:"reason" json:"reason"`
	Notes     *string     `db:"notes" json:"notes,omitempty"`
	IsActive  bool        `db:"is_active" json:"is_active"`
	LeaveID   *uuid.UUID  `db:"leave_id" json:"leave_id,omitempty"`
	CreatedBy *uuid.UUID  `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// Overlaps applies the open-interval overlap test against [start, end).
func (b *Block) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

type CreateBlockRequest struct {
	StaffID   uuid.UUID   `json:"staff_id" validate:"required"`
	Date      time.Time   `json:"date" validate:"required"`
	StartTime time.Time   `json:"start_time" validate:"required"`
	EndTime   time.Time   `json:"end_time" validate:"required,gtfield=StartTime"`
	Reason    BlockReason `json:"reason" validate:"required,oneof=meeting emergency leave personal other"`
	Notes     *string     `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateBlockRequest struct {
	StartTime *time.Time   `json:"start_time"`
	EndTime   *time.Time   `json:"end_time"`
	Reason    *BlockReason `json:"reason"`
	Notes     *string      `json:"notes"`
}

type BlockFilters struct {
	StaffID    uuid.UUID
	Date       time.Time
	ActiveOnly bool
}
