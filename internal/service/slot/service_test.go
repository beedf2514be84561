package slot

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
	"github.com/jwalitptl/scheduler-api/internal/service/event"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
	"github.com/jwalitptl/scheduler-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("test", "slot_service")

var (
	admin = model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}
	staff = model.Actor{UserID: uuid.New(), Role: model.RoleStaff}
)

func newFixture() (*Service, *memory.Store) {
	store := memory.NewStore()
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(
		store.Slots(),
		store.Schedules(),
		store.SlotConfigurations(),
		store.Blocks(),
		event.NopEmitter{},
		testMetrics,
		log,
	)
	return svc, store
}

func seedSchedule(t *testing.T, store *memory.Store, staffID uuid.UUID, date time.Time, startHour, startMin, endHour, endMin int) *model.Schedule {
	t.Helper()
	schedule := &model.Schedule{
		StaffID:   staffID,
		Date:      model.Day(date),
		StartTime: model.At(date, startHour, startMin),
		EndTime:   model.At(date, endHour, endMin),
		ShiftType: model.ShiftTypeMorning,
		Status:    model.ScheduleStatusScheduled,
	}
	require.NoError(t, store.Schedules().Create(context.Background(), schedule))
	return schedule
}

func TestGenerateSlots(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	schedule := seedSchedule(t, store, uuid.New(), date, 9, 0, 12, 0)

	slots, err := svc.GenerateSlots(ctx, admin, schedule.ID)
	require.NoError(t, err)
	require.Len(t, slots, 6)

	for i, slot := range slots {
		assert.Equal(t, model.SlotStatusAvailable, slot.Status)
		assert.Equal(t, 1, slot.MaxCapacity)
		assert.Equal(t, 0, slot.CurrentBookings)
		if i > 0 {
			assert.Equal(t, slots[i-1].EndTime, slot.StartTime, "slots should be contiguous")
		}
	}

	assert.Equal(t, model.At(date, 9, 0), slots[0].StartTime)
	assert.Equal(t, model.At(date, 9, 30), slots[0].EndTime)
	assert.Equal(t, model.At(date, 11, 30), slots[5].StartTime)
	assert.Equal(t, model.At(date, 12, 0), slots[5].EndTime)

	got, err := store.Schedules().Get(ctx, schedule.ID)
	require.NoError(t, err)
	assert.True(t, got.SlotsGenerated)
}

func TestGenerateSlotsSkipsBreakAndShortTail(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	schedule := seedSchedule(t, store, uuid.New(), date, 9, 0, 12, 15)
	breakStart := model.At(date, 10, 30)
	breakEnd := model.At(date, 11, 0)
	schedule.BreakStart = &breakStart
	schedule.BreakEnd = &breakEnd
	require.NoError(t, store.Schedules().Update(ctx, schedule))

	slots, err := svc.GenerateSlots(ctx, admin, schedule.ID)
	require.NoError(t, err)

	// 9:00, 9:30, 10:00, then the cursor jumps the break, then 11:00 and
	// 11:30. The 12:00 slot would end at 12:30, past the shift end, so the
	// fifteen-minute tail is discarded.
	require.Len(t, slots, 5)
	assert.Equal(t, model.At(date, 10, 0), slots[2].StartTime)
	assert.Equal(t, model.At(date, 11, 0), slots[3].StartTime)
	assert.Equal(t, model.At(date, 11, 30), slots[4].StartTime)

	for _, slot := range slots {
		assert.False(t, slot.Overlaps(breakStart, breakEnd),
			"slot %s overlaps the break", slot.StartTime)
	}
}

func TestGenerateSlotsBufferIsDeadTime(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	staffID := uuid.New()
	require.NoError(t, store.SlotConfigurations().Create(ctx, &model.SlotConfiguration{
		StaffID:             staffID,
		SlotDurationMinutes: 20,
		BufferTimeMinutes:   10,
		MaxPatientsPerSlot:  1,
		AdvanceBookingDays:  30,
		IsActive:            true,
	}))

	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	schedule := seedSchedule(t, store, staffID, date, 9, 0, 10, 0)

	slots, err := svc.GenerateSlots(ctx, admin, schedule.ID)
	require.NoError(t, err)

	require.Len(t, slots, 2)
	assert.Equal(t, model.At(date, 9, 0), slots[0].StartTime)
	assert.Equal(t, model.At(date, 9, 20), slots[0].EndTime)
	assert.Equal(t, model.At(date, 9, 30), slots[1].StartTime)
	assert.Equal(t, model.At(date, 9, 50), slots[1].EndTime)
}

func TestGenerateSlotsMarksBlockedSlots(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	staffID := uuid.New()
	schedule := seedSchedule(t, store, staffID, date, 9, 0, 12, 0)

	require.NoError(t, store.Blocks().Create(ctx, &model.Block{
		StaffID:   staffID,
		Date:      model.Day(date),
		StartTime: model.At(date, 10, 0),
		EndTime:   model.At(date, 11, 0),
		Reason:    model.BlockReasonMeeting,
		IsActive:  true,
	}))

	slots, err := svc.GenerateSlots(ctx, admin, schedule.ID)
	require.NoError(t, err)
	require.Len(t, slots, 6)

	byStart := map[time.Time]model.SlotStatus{}
	for _, slot := range slots {
		byStart[slot.StartTime] = slot.Status
	}

	// Touching endpoints are not overlap: the 9:30 slot ends exactly where
	// the block starts and stays available.
	assert.Equal(t, model.SlotStatusAvailable, byStart[model.At(date, 9, 30)])
	assert.Equal(t, model.SlotStatusBlocked, byStart[model.At(date, 10, 0)])
	assert.Equal(t, model.SlotStatusBlocked, byStart[model.At(date, 10, 30)])
	assert.Equal(t, model.SlotStatusAvailable, byStart[model.At(date, 11, 0)])
}

func TestGenerateSlotsTwiceFails(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	schedule := seedSchedule(t, store, uuid.New(), time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC), 9, 0, 12, 0)

	_, err := svc.GenerateSlots(ctx, admin, schedule.ID)
	require.NoError(t, err)

	_, err = svc.GenerateSlots(ctx, admin, schedule.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
}

func TestGenerateSlotsCreatesDefaultConfigOnce(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	staffID := uuid.New()
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	first := seedSchedule(t, store, staffID, date, 9, 0, 12, 0)
	second := seedSchedule(t, store, staffID, date.AddDate(0, 0, 1), 9, 0, 12, 0)

	_, err := svc.GenerateSlots(ctx, admin, first.ID)
	require.NoError(t, err)
	_, err = svc.GenerateSlots(ctx, admin, second.ID)
	require.NoError(t, err)

	configs, err := store.SlotConfigurations().ListForStaff(ctx, staffID)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, model.DefaultSlotDurationMinutes, configs[0].SlotDurationMinutes)
	assert.Equal(t, model.DefaultMaxPatientsPerSlot, configs[0].MaxPatientsPerSlot)
}

func TestGenerateSlotsForbiddenForPatients(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	schedule := seedSchedule(t, store, uuid.New(), time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC), 9, 0, 12, 0)

	patient := model.Actor{UserID: uuid.New(), Role: model.RolePatient}
	_, err := svc.GenerateSlots(ctx, patient, schedule.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestRegenerateSlotsFreezesBookedSlots(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	schedule := seedSchedule(t, store, uuid.New(), date, 9, 0, 12, 0)

	slots, err := svc.GenerateSlots(ctx, admin, schedule.ID)
	require.NoError(t, err)
	require.Len(t, slots, 6)

	booked := slots[0]
	booked.CurrentBookings = 1
	booked.Status = model.SlotStatusBooked
	require.NoError(t, store.Slots().UpdateVersioned(ctx, booked))

	regenerated, err := svc.RegenerateSlots(ctx, staff, schedule.ID)
	require.NoError(t, err)
	require.Len(t, regenerated, 6)

	all, err := store.Slots().ListBySchedule(ctx, schedule.ID)
	require.NoError(t, err)
	assert.Len(t, all, 7)

	frozen, err := store.Slots().Get(ctx, booked.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusBooked, frozen.Status)
	assert.Equal(t, 1, frozen.CurrentBookings)
}

func TestCancelSlotRequiresZeroBookings(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	schedule := seedSchedule(t, store, uuid.New(), time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC), 9, 0, 10, 0)
	slots, err := svc.GenerateSlots(ctx, admin, schedule.ID)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	booked := slots[0]
	booked.CurrentBookings = 1
	booked.Status = model.SlotStatusBooked
	require.NoError(t, store.Slots().UpdateVersioned(ctx, booked))

	_, err = svc.CancelSlot(ctx, admin, booked.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))

	cancelled, err := svc.CancelSlot(ctx, admin, slots[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusCancelled, cancelled.Status)
}

func TestListAvailabilityClampsToHorizon(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	staffID := uuid.New()
	near := seedSchedule(t, store, staffID, time.Now().AddDate(0, 0, 1), 9, 0, 10, 0)
	far := seedSchedule(t, store, staffID, time.Now().AddDate(0, 0, model.DefaultAdvanceBookingDays+10), 9, 0, 10, 0)

	_, err := svc.GenerateSlots(ctx, admin, near.ID)
	require.NoError(t, err)
	_, err = svc.GenerateSlots(ctx, admin, far.ID)
	require.NoError(t, err)

	available, err := svc.ListAvailability(ctx, staffID, model.DateRange{})
	require.NoError(t, err)
	require.Len(t, available, 2)
	for _, slot := range available {
		assert.Equal(t, near.ID, slot.ScheduleID)
	}
}
