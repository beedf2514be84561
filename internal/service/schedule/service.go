package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
	"github.com/jwalitptl/scheduler-api/internal/repository"
	"github.com/jwalitptl/scheduler-api/pkg/errors"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
)

// Service manages staff schedules, the source records slots are generated
// from.
type Service struct {
	schedules repository.ScheduleRepository
	slots     repository.SlotRepository
	logger    *logger.Logger
}

func NewService(schedules repository.ScheduleRepository, slots repository.SlotRepository, logger *logger.Logger) *Service {
	return &Service{schedules: schedules, slots: slots, logger: logger}
}

// Create records a new schedule. Duplicates of the same staff member, date
// and working interval are refused.
func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CreateScheduleRequest) (*model.Schedule, error) {
	if !actor.CanManageScheduling() {
		return nil, errors.Forbidden("not allowed to manage schedules")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, errors.BadRequest("end time must be after start time", nil)
	}
	if (req.BreakStart == nil) != (req.BreakEnd == nil) {
		return nil, errors.BadRequest("break start and end must be set together", nil)
	}

	date := model.Day(req.Date)
	exists, err := s.schedules.Exists(ctx, req.StaffID, date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.InvalidState("an identical schedule already exists")
	}

	schedule := &model.Schedule{
		StaffID:    req.StaffID,
		Date:       date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		BreakStart: req.BreakStart,
		BreakEnd:   req.BreakEnd,
		ShiftType:  req.ShiftType,
		Status:     model.ScheduleStatusScheduled,
		Notes:      req.Notes,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	return s.schedules.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.ScheduleFilters) ([]*model.Schedule, error) {
	return s.schedules.List(ctx, filters)
}

// Update edits a schedule's interval or metadata. Interval edits are
// refused once slots exist; regenerate after changing the shape of the day.
func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateScheduleRequest) (*model.Schedule, error) {
	if !actor.CanManageScheduling() {
		return nil, errors.Forbidden("not allowed to manage schedules")
	}

	schedule, err := s.schedules.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	intervalEdit := req.StartTime != nil || req.EndTime != nil ||
		req.BreakStart != nil || req.BreakEnd != nil
	if intervalEdit && schedule.SlotsGenerated {
		return nil, errors.InvalidState("cannot change the interval of a schedule with generated slots")
	}

	if req.StartTime != nil {
		schedule.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		schedule.EndTime = *req.EndTime
	}
	if req.BreakStart != nil {
		schedule.BreakStart = req.BreakStart
	}
	if req.BreakEnd != nil {
		schedule.BreakEnd = req.BreakEnd
	}
	if req.ShiftType != nil {
		schedule.ShiftType = *req.ShiftType
	}
	if req.Status != nil {
		schedule.Status = *req.Status
	}
	if req.Notes != nil {
		schedule.Notes = req.Notes
	}

	if !schedule.EndTime.After(schedule.StartTime) {
		return nil, errors.BadRequest("end time must be after start time", nil)
	}

	if err := s.schedules.Update(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// Delete removes a schedule and its slots. The repository refuses while any
// slot carries bookings.
func (s *Service) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if !actor.CanManageScheduling() {
		return errors.Forbidden("not allowed to manage schedules")
	}
	return s.schedules.Delete(ctx, id)
}

// ClockIn marks a scheduled shift active.
func (s *Service) ClockIn(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Schedule, error) {
	return s.transition(ctx, actor, id, model.ScheduleStatusScheduled, model.ScheduleStatusActive)
}

// ClockOut completes an active shift.
func (s *Service) ClockOut(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Schedule, error) {
	return s.transition(ctx, actor, id, model.ScheduleStatusActive, model.ScheduleStatusCompleted)
}

func (s *Service) transition(ctx context.Context, actor model.Actor, id uuid.UUID, from, to model.ScheduleStatus) (*model.Schedule, error) {
	if !actor.CanManageScheduling() {
		return nil, errors.Forbidden("not allowed to manage schedules")
	}

	schedule, err := s.schedules.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if schedule.Status != from {
		return nil, errors.InvalidState("schedule is not in " + string(from) + " status")
	}

	schedule.Status = to
	if err := s.schedules.Update(ctx, schedule); err != nil {
		return nil, err
	}
	s.logger.Debug("schedule status transition",
		"schedule_id", id, "from", from, "to", to, "at", time.Now())
	return schedule, nil
}
