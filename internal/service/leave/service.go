package leave

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
	"github.com/jwalitptl/scheduler-api/internal/repository"
	"github.com/jwalitptl/scheduler-api/internal/service/event"
	"github.com/jwalitptl/scheduler-api/pkg/errors"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
)

// blockPropagator is the slice of the block service the leave workflow
// needs: creating leave-tagged blocks and retracting them again.
type blockPropagator interface {
	Create(ctx context.Context, block *model.Block) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	ListByLeave(ctx context.Context, leaveID uuid.UUID) ([]*model.Block, error)
}

// bookingCanceller releases slot seats for appointments cancelled by leave.
type bookingCanceller interface {
	CancelBooking(ctx context.Context, slotID uuid.UUID) (bool, error)
}

// Service runs the leave request workflow. Approval fans out into one block
// per affected schedule, marks the schedules on leave and cancels the
// appointments in range; cancelling or returning an approved leave to
// pending unwinds the blocks and schedule statuses. Cancelled appointments
// stay cancelled either way.
type Service struct {
	leaves       repository.LeaveRepository
	schedules    repository.ScheduleRepository
	appointments repository.AppointmentRepository
	blocks       blockPropagator
	bookings     bookingCanceller
	emitter      event.Emitter
	logger       *logger.Logger
}

func NewService(
	leaves repository.LeaveRepository,
	schedules repository.ScheduleRepository,
	appointments repository.AppointmentRepository,
	blocks blockPropagator,
	bookings bookingCanceller,
	emitter event.Emitter,
	logger *logger.Logger,
) *Service {
	return &Service{
		leaves:       leaves,
		schedules:    schedules,
		appointments: appointments,
		blocks:       blocks,
		bookings:     bookings,
		emitter:      emitter,
		logger:       logger,
	}
}

// Request files a new leave request in pending status. Overlapping requests
// that are not rejected or cancelled are refused.
func (s *Service) Request(ctx context.Context, req *model.CreateLeaveRequest) (*model.Leave, error) {
	from := model.Day(req.StartDate)
	to := model.Day(req.EndDate)

	overlapping, err := s.leaves.HasOverlapping(ctx, req.StaffID, from, to, nil)
	if err != nil {
		return nil, err
	}
	if overlapping {
		return nil, errors.InvalidState("an overlapping leave request already exists")
	}

	leave := &model.Leave{
		StaffID:   req.StaffID,
		StartDate: from,
		EndDate:   to,
		LeaveType: req.LeaveType,
		Reason:    req.Reason,
		Status:    model.LeaveStatusPending,
	}
	if err := s.leaves.Create(ctx, leave); err != nil {
		return nil, err
	}
	return leave, nil
}

// Approve grants a pending leave. Every schedule inside the leave range gets
// a leave block over its full working interval, turns on-leave, and its
// appointments are cancelled with their slot seats released.
func (s *Service) Approve(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Leave, error) {
	if !actor.CanApproveLeave() {
		return nil, errors.Forbidden("not allowed to approve leave")
	}

	leave, err := s.leaves.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Status != model.LeaveStatusPending {
		return nil, errors.InvalidState("only pending leave can be approved")
	}

	now := time.Now()
	approver := actor.UserID
	leave.Status = model.LeaveStatusApproved
	leave.ApprovedBy = &approver
	leave.ApprovedAt = &now
	if err := s.leaves.Update(ctx, leave); err != nil {
		return nil, err
	}

	if err := s.blockSchedules(ctx, leave, &approver); err != nil {
		return nil, err
	}
	if err := s.cancelAppointments(ctx, leave); err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, model.EventLeaveApproved, map[string]interface{}{
		"leave_id":   leave.ID,
		"staff_id":   leave.StaffID,
		"start_date": leave.StartDate,
		"end_date":   leave.EndDate,
	})
	return leave, nil
}

// Reject declines a pending leave with an optional reason.
func (s *Service) Reject(ctx context.Context, actor model.Actor, id uuid.UUID, reason *string) (*model.Leave, error) {
	if !actor.CanApproveLeave() {
		return nil, errors.Forbidden("not allowed to reject leave")
	}

	leave, err := s.leaves.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Status != model.LeaveStatusPending {
		return nil, errors.InvalidState("only pending leave can be rejected")
	}

	leave.Status = model.LeaveStatusRejected
	leave.RejectionReason = reason
	if err := s.leaves.Update(ctx, leave); err != nil {
		return nil, err
	}
	return leave, nil
}

// Cancel withdraws a leave. Only the requesting staff member or an admin may
// cancel. An approved leave is unwound first: its blocks retract and its
// schedules return to scheduled status.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Leave, error) {
	leave, err := s.leaves.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleAdmin && actor.UserID != leave.StaffID {
		return nil, errors.Forbidden("not allowed to cancel this leave")
	}
	if leave.Status == model.LeaveStatusCancelled {
		return leave, nil
	}
	if leave.Status == model.LeaveStatusRejected {
		return nil, errors.InvalidState("rejected leave cannot be cancelled")
	}

	if leave.Status == model.LeaveStatusApproved {
		if err := s.unwind(ctx, leave); err != nil {
			return nil, err
		}
	}

	leave.Status = model.LeaveStatusCancelled
	if err := s.leaves.Update(ctx, leave); err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, model.EventLeaveCancelled, map[string]interface{}{
		"leave_id": leave.ID,
		"staff_id": leave.StaffID,
	})
	return leave, nil
}

// ReturnToPending reverses an approval, putting the leave back in the queue.
// The blocks retract and the schedules recover, same as cancellation, but
// the request survives for another decision.
func (s *Service) ReturnToPending(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Leave, error) {
	if !actor.CanApproveLeave() {
		return nil, errors.Forbidden("not allowed to return leave to pending")
	}

	leave, err := s.leaves.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if leave.Status != model.LeaveStatusApproved {
		return nil, errors.InvalidState("only approved leave can return to pending")
	}

	if err := s.unwind(ctx, leave); err != nil {
		return nil, err
	}

	leave.Status = model.LeaveStatusPending
	leave.ApprovedBy = nil
	leave.ApprovedAt = nil
	if err := s.leaves.Update(ctx, leave); err != nil {
		return nil, err
	}
	return leave, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Leave, error) {
	return s.leaves.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.LeaveFilters) ([]*model.Leave, error) {
	return s.leaves.List(ctx, filters)
}

// blockSchedules creates one leave-tagged block per schedule in the leave
// range, covering the schedule's whole working interval, and flips the
// schedule on-leave.
func (s *Service) blockSchedules(ctx context.Context, leave *model.Leave, createdBy *uuid.UUID) error {
	schedules, err := s.schedules.ListForStaffRange(ctx, leave.StaffID, leave.StartDate, leave.EndDate)
	if err != nil {
		return err
	}

	leaveID := leave.ID
	for _, schedule := range schedules {
		if schedule.Status == model.ScheduleStatusCancelled {
			continue
		}

		block := &model.Block{
			StaffID:   schedule.StaffID,
			Date:      schedule.Date,
			StartTime: schedule.StartTime,
			EndTime:   schedule.EndTime,
			Reason:    model.BlockReasonLeave,
			LeaveID:   &leaveID,
			CreatedBy: createdBy,
		}
		if err := s.blocks.Create(ctx, block); err != nil {
			return err
		}

		schedule.Status = model.ScheduleStatusOnLeave
		if err := s.schedules.Update(ctx, schedule); err != nil {
			return err
		}
	}

	s.logger.Info("blocked schedules for leave",
		"leave_id", leave.ID, "staff_id", leave.StaffID, "schedules", len(schedules))
	return nil
}

// cancelAppointments cancels the staff member's appointments in the leave
// range and releases their slot seats.
func (s *Service) cancelAppointments(ctx context.Context, leave *model.Leave) error {
	appointments, err := s.appointments.ListActiveForStaffRange(ctx, leave.StaffID, leave.StartDate, leave.EndDate)
	if err != nil {
		return err
	}

	reason := "staff on leave"
	for _, appt := range appointments {
		appt.Status = model.AppointmentStatusCancelled
		appt.CancelReason = &reason
		if err := s.appointments.Update(ctx, appt); err != nil {
			return err
		}

		if appt.SlotID != nil {
			if _, err := s.bookings.CancelBooking(ctx, *appt.SlotID); err != nil {
				return err
			}
		}
	}

	s.logger.Info("cancelled appointments for leave",
		"leave_id", leave.ID, "staff_id", leave.StaffID, "appointments", len(appointments))
	return nil
}

// unwind retracts a leave's blocks and restores its schedules. Only
// schedules still marked on-leave flip back, so manual status changes made
// in the meantime survive.
func (s *Service) unwind(ctx context.Context, leave *model.Leave) error {
	blocks, err := s.blocks.ListByLeave(ctx, leave.ID)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		if !b.IsActive {
			continue
		}
		if err := s.blocks.Deactivate(ctx, b.ID); err != nil {
			return err
		}
	}

	schedules, err := s.schedules.ListForStaffRange(ctx, leave.StaffID, leave.StartDate, leave.EndDate)
	if err != nil {
		return err
	}
	for _, schedule := range schedules {
		if schedule.Status != model.ScheduleStatusOnLeave {
			continue
		}
		schedule.Status = model.ScheduleStatusScheduled
		if err := s.schedules.Update(ctx, schedule); err != nil {
			return err
		}
	}
	return nil
}
