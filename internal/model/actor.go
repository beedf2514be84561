package model

import "github.com/google/uuid"

// Role is the capability level an actor carries into core operations. The
// engine takes it as an explicit parameter instead of reading an ambient
// identity, so any host authentication scheme can supply it.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
	RolePatient Role = "patient"
)

// Actor identifies who is invoking an operation.
type Actor struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}

// CanManageScheduling reports whether the actor may create or mutate
// schedules, slots, configurations and blocks.
func (a Actor) CanManageScheduling() bool {
	return a.Role == RoleAdmin || a.Role == RoleStaff
}

// CanApproveLeave reports whether the actor may approve, reject or return
// leave requests.
func (a Actor) CanApproveLeave() bool {
	return a.Role == RoleAdmin
}
