package leave

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scheduler-api/internal/model"
	"github.com/jwalitptl/scheduler-api/internal/repository/memory"
	"github.com/jwalitptl/scheduler-api/internal/service/block"
	"github.com/jwalitptl/scheduler-api/internal/service/booking"
	"github.com/jwalitptl/scheduler-api/internal/service/event"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
	"github.com/jwalitptl/scheduler-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("test", "leave_service")

var (
	admin        = model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}
	staffActor   = model.Actor{UserID: uuid.New(), Role: model.RoleStaff}
	leaveStart   = time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	leaveEnd     = time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	cancelReason = "staff on leave"
)

type fixture struct {
	svc      *Service
	bookings *booking.Service
	store    *memory.Store
}

func newFixture() *fixture {
	store := memory.NewStore()
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	emitter := event.NopEmitter{}

	blocks := block.NewService(store.Blocks(), store.Slots(), emitter, testMetrics, log)
	bookings := booking.NewService(store.Slots(), store.Blocks(), emitter, testMetrics, log)
	svc := NewService(store.Leaves(), store.Schedules(), store.Appointments(), blocks, bookings, emitter, log)
	return &fixture{svc: svc, bookings: bookings, store: store}
}

// seedStaffDays sets up a staff member with one schedule per leave day, each
// with two slots, and one booked appointment on the first day. Returns the
// staff ID, schedules, slots and the appointment.
func (f *fixture) seedStaffDays(t *testing.T) (uuid.UUID, []*model.Schedule, []*model.Slot, *model.Appointment) {
	t.Helper()
	ctx := context.Background()

	staffID := uuid.New()
	var schedules []*model.Schedule
	var slots []*model.Slot
	for _, date := range []time.Time{leaveStart, leaveEnd} {
		schedule := &model.Schedule{
			StaffID:   staffID,
			Date:      model.Day(date),
			StartTime: model.At(date, 9, 0),
			EndTime:   model.At(date, 10, 0),
			ShiftType: model.ShiftTypeMorning,
			Status:    model.ScheduleStatusScheduled,
		}
		require.NoError(t, f.store.Schedules().Create(ctx, schedule))
		schedules = append(schedules, schedule)

		daySlots := []*model.Slot{
			{
				ScheduleID:  schedule.ID,
				StaffID:     staffID,
				Date:        schedule.Date,
				StartTime:   model.At(date, 9, 0),
				EndTime:     model.At(date, 9, 30),
				Status:      model.SlotStatusAvailable,
				MaxCapacity: 1,
			},
			{
				ScheduleID:  schedule.ID,
				StaffID:     staffID,
				Date:        schedule.Date,
				StartTime:   model.At(date, 9, 30),
				EndTime:     model.At(date, 10, 0),
				Status:      model.SlotStatusAvailable,
				MaxCapacity: 1,
			},
		}
		require.NoError(t, f.store.Slots().CreateForSchedule(ctx, schedule.ID, daySlots))
		slots = append(slots, daySlots...)
	}

	require.NoError(t, f.bookings.Book(ctx, slots[0].ID))
	slotID := slots[0].ID
	appt := &model.Appointment{
		StaffID:   staffID,
		PatientID: uuid.New(),
		SlotID:    &slotID,
		Date:      model.Day(leaveStart),
		Status:    model.AppointmentStatusScheduled,
	}
	require.NoError(t, f.store.Appointments().Create(ctx, appt))
	return staffID, schedules, slots, appt
}

func (f *fixture) requestLeave(t *testing.T, staffID uuid.UUID) *model.Leave {
	t.Helper()
	leave, err := f.svc.Request(context.Background(), &model.CreateLeaveRequest{
		StaffID:   staffID,
		StartDate: leaveStart,
		EndDate:   leaveEnd,
		LeaveType: model.LeaveTypeVacation,
	})
	require.NoError(t, err)
	return leave
}

func TestRequestRefusesOverlap(t *testing.T) {
	f := newFixture()
	staffID := uuid.New()

	f.requestLeave(t, staffID)

	_, err := f.svc.Request(context.Background(), &model.CreateLeaveRequest{
		StaffID:   staffID,
		StartDate: leaveEnd,
		EndDate:   leaveEnd.AddDate(0, 0, 3),
		LeaveType: model.LeaveTypeSick,
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
}

func TestApprove(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	staffID, schedules, slots, appt := f.seedStaffDays(t)
	leave := f.requestLeave(t, staffID)

	approved, err := f.svc.Approve(ctx, admin, leave.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, admin.UserID, *approved.ApprovedBy)

	for _, schedule := range schedules {
		got, err := f.store.Schedules().Get(ctx, schedule.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ScheduleStatusOnLeave, got.Status)
	}

	// Every slot ends up blocked, including the one whose booking was
	// cancelled by the leave.
	for _, slot := range slots {
		got, err := f.store.Slots().Get(ctx, slot.ID)
		require.NoError(t, err)
		assert.Equal(t, model.SlotStatusBlocked, got.Status)
		assert.Equal(t, 0, got.CurrentBookings)
	}

	gotAppt, err := f.store.Appointments().Get(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, gotAppt.Status)
	require.NotNil(t, gotAppt.CancelReason)
	assert.Equal(t, cancelReason, *gotAppt.CancelReason)

	blocks, err := f.store.Blocks().ListByLeave(ctx, leave.ID)
	require.NoError(t, err)
	assert.Len(t, blocks, 2)
}

func TestApproveRequiresAdmin(t *testing.T) {
	f := newFixture()

	leave := f.requestLeave(t, uuid.New())
	_, err := f.svc.Approve(context.Background(), staffActor, leave.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestApproveRequiresPending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	leave := f.requestLeave(t, uuid.New())
	_, err := f.svc.Approve(ctx, admin, leave.ID)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, admin, leave.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
}

func TestReject(t *testing.T) {
	f := newFixture()

	leave := f.requestLeave(t, uuid.New())
	reason := "short staffed"
	rejected, err := f.svc.Reject(context.Background(), admin, leave.ID, &reason)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStatusRejected, rejected.Status)
	assert.Equal(t, &reason, rejected.RejectionReason)
}

func TestCancelUnwindsApproval(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	staffID, schedules, slots, appt := f.seedStaffDays(t)
	leave := f.requestLeave(t, staffID)

	_, err := f.svc.Approve(ctx, admin, leave.ID)
	require.NoError(t, err)

	owner := model.Actor{UserID: staffID, Role: model.RoleStaff}
	cancelled, err := f.svc.Cancel(ctx, owner, leave.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStatusCancelled, cancelled.Status)

	for _, schedule := range schedules {
		got, err := f.store.Schedules().Get(ctx, schedule.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ScheduleStatusScheduled, got.Status)
	}
	for _, slot := range slots {
		got, err := f.store.Slots().Get(ctx, slot.ID)
		require.NoError(t, err)
		assert.Equal(t, model.SlotStatusAvailable, got.Status)
	}

	// the appointment cancellation is not resurrected
	gotAppt, err := f.store.Appointments().Get(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, gotAppt.Status)

	blocks, err := f.store.Blocks().ListByLeave(ctx, leave.ID)
	require.NoError(t, err)
	for _, b := range blocks {
		assert.False(t, b.IsActive)
	}
}

func TestCancelForbiddenForOtherActors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	staffID, _, _, _ := f.seedStaffDays(t)
	leave := f.requestLeave(t, staffID)

	_, err := f.svc.Approve(ctx, admin, leave.ID)
	require.NoError(t, err)

	// another staff member, and a patient, cannot withdraw someone else's leave
	_, err = f.svc.Cancel(ctx, staffActor, leave.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	patient := model.Actor{UserID: uuid.New(), Role: model.RolePatient}
	_, err = f.svc.Cancel(ctx, patient, leave.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	got, err := f.store.Leaves().Get(ctx, leave.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStatusApproved, got.Status)
}

func TestReturnToPending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	staffID, schedules, _, _ := f.seedStaffDays(t)
	leave := f.requestLeave(t, staffID)

	_, err := f.svc.Approve(ctx, admin, leave.ID)
	require.NoError(t, err)

	pending, err := f.svc.ReturnToPending(ctx, admin, leave.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveStatusPending, pending.Status)
	assert.Nil(t, pending.ApprovedBy)
	assert.Nil(t, pending.ApprovedAt)

	for _, schedule := range schedules {
		got, err := f.store.Schedules().Get(ctx, schedule.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ScheduleStatusScheduled, got.Status)
	}
}

func TestCancelRejectedLeaveFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	leave := f.requestLeave(t, uuid.New())
	_, err := f.svc.Reject(ctx, admin, leave.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, admin, leave.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
}
