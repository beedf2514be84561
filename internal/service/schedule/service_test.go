package schedule

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
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
)

var admin = model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}

func newFixture() (*Service, *memory.Store) {
	store := memory.NewStore()
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return NewService(store.Schedules(), store.Slots(), log), store
}

func createRequest(staffID uuid.UUID, date time.Time) *model.CreateScheduleRequest {
	return &model.CreateScheduleRequest{
		StaffID:   staffID,
		Date:      date,
		StartTime: model.At(date, 9, 0),
		EndTime:   model.At(date, 17, 0),
		ShiftType: model.ShiftTypeFullDay,
	}
}

func TestCreate(t *testing.T) {
	svc, _ := newFixture()
	ctx := context.Background()

	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	schedule, err := svc.Create(ctx, admin, createRequest(uuid.New(), date))
	require.NoError(t, err)
	assert.Equal(t, model.ScheduleStatusScheduled, schedule.Status)
	assert.Equal(t, model.Day(date), schedule.Date)
	assert.False(t, schedule.SlotsGenerated)
}

func TestCreateRefusesDuplicate(t *testing.T) {
	svc, _ := newFixture()
	ctx := context.Background()

	staffID := uuid.New()
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	_, err := svc.Create(ctx, admin, createRequest(staffID, date))
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin, createRequest(staffID, date))
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newFixture()
	ctx := context.Background()

	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)

	req := createRequest(uuid.New(), date)
	req.EndTime = req.StartTime.Add(-time.Hour)
	_, err := svc.Create(ctx, admin, req)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

	req = createRequest(uuid.New(), date)
	breakStart := model.At(date, 12, 0)
	req.BreakStart = &breakStart
	_, err = svc.Create(ctx, admin, req)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestUpdateIntervalLockedAfterGeneration(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	schedule, err := svc.Create(ctx, admin, createRequest(uuid.New(), date))
	require.NoError(t, err)

	require.NoError(t, store.Slots().CreateForSchedule(ctx, schedule.ID, []*model.Slot{{
		ScheduleID:  schedule.ID,
		StaffID:     schedule.StaffID,
		Date:        schedule.Date,
		StartTime:   schedule.StartTime,
		EndTime:     schedule.StartTime.Add(30 * time.Minute),
		Status:      model.SlotStatusAvailable,
		MaxCapacity: 1,
	}}))

	newStart := model.At(date, 10, 0)
	_, err = svc.Update(ctx, admin, schedule.ID, &model.UpdateScheduleRequest{StartTime: &newStart})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))

	notes := "front desk swap"
	updated, err := svc.Update(ctx, admin, schedule.ID, &model.UpdateScheduleRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, &notes, updated.Notes)
}

func TestClockInClockOut(t *testing.T) {
	svc, _ := newFixture()
	ctx := context.Background()

	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	schedule, err := svc.Create(ctx, admin, createRequest(uuid.New(), date))
	require.NoError(t, err)

	_, err = svc.ClockOut(ctx, admin, schedule.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))

	active, err := svc.ClockIn(ctx, admin, schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScheduleStatusActive, active.Status)

	done, err := svc.ClockOut(ctx, admin, schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScheduleStatusCompleted, done.Status)
}

func TestDeleteRefusedWithBookedSlots(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	schedule, err := svc.Create(ctx, admin, createRequest(uuid.New(), date))
	require.NoError(t, err)

	require.NoError(t, store.Slots().CreateForSchedule(ctx, schedule.ID, []*model.Slot{{
		ScheduleID:      schedule.ID,
		StaffID:         schedule.StaffID,
		Date:            schedule.Date,
		StartTime:       schedule.StartTime,
		EndTime:         schedule.StartTime.Add(30 * time.Minute),
		Status:          model.SlotStatusBooked,
		MaxCapacity:     1,
		CurrentBookings: 1,
	}}))

	err = svc.Delete(ctx, admin, schedule.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
}
