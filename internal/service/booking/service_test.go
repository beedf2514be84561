package booking

import (
	"context"
	"io"
	"sync"
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

var testMetrics = metrics.NewMetrics("test", "booking_service")

func newFixture() (*Service, *memory.Store) {
	store := memory.NewStore()
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(store.Slots(), store.Blocks(), event.NopEmitter{}, testMetrics, log)
	return svc, store
}

// seedSlot creates a schedule with a single 9:00-9:30 slot of the given
// capacity and returns the slot.
func seedSlot(t *testing.T, store *memory.Store, capacity int) *model.Slot {
	t.Helper()
	ctx := context.Background()

	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	schedule := &model.Schedule{
		StaffID:   uuid.New(),
		Date:      model.Day(date),
		StartTime: model.At(date, 9, 0),
		EndTime:   model.At(date, 9, 30),
		ShiftType: model.ShiftTypeMorning,
		Status:    model.ScheduleStatusScheduled,
	}
	require.NoError(t, store.Schedules().Create(ctx, schedule))

	slot := &model.Slot{
		ScheduleID:  schedule.ID,
		StaffID:     schedule.StaffID,
		Date:        schedule.Date,
		StartTime:   schedule.StartTime,
		EndTime:     schedule.EndTime,
		Status:      model.SlotStatusAvailable,
		MaxCapacity: capacity,
	}
	require.NoError(t, store.Slots().CreateForSchedule(ctx, schedule.ID, []*model.Slot{slot}))
	return slot
}

func TestBook(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	slot := seedSlot(t, store, 2)

	require.NoError(t, svc.Book(ctx, slot.ID))
	got, err := store.Slots().Get(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentBookings)
	assert.Equal(t, model.SlotStatusAvailable, got.Status)

	require.NoError(t, svc.Book(ctx, slot.ID))
	got, err = store.Slots().Get(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentBookings)
	assert.Equal(t, model.SlotStatusBooked, got.Status)

	err = svc.Book(ctx, slot.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
}

func TestBookMissingSlot(t *testing.T) {
	svc, _ := newFixture()

	err := svc.Book(context.Background(), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestBookBlockedSlot(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	slot := seedSlot(t, store, 1)
	slot.Status = model.SlotStatusBlocked
	require.NoError(t, store.Slots().UpdateVersioned(ctx, slot))

	err := svc.Book(ctx, slot.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
}

func TestBookConcurrentCapacityOne(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	slot := seedSlot(t, store, 1)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Book(ctx, slot.ID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		}
	}
	assert.Equal(t, 1, successes, "exactly one booking should win a capacity-1 slot")

	got, err := store.Slots().Get(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentBookings)
	assert.Equal(t, model.SlotStatusBooked, got.Status)
}

func TestCancelBookingRoundTrip(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	slot := seedSlot(t, store, 1)
	require.NoError(t, svc.Book(ctx, slot.ID))

	released, err := svc.CancelBooking(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, released)

	got, err := store.Slots().Get(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentBookings)
	assert.Equal(t, model.SlotStatusAvailable, got.Status)
}

func TestCancelBookingIsSilentWhenNothingToRelease(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	released, err := svc.CancelBooking(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, released)

	slot := seedSlot(t, store, 1)
	released, err = svc.CancelBooking(ctx, slot.ID)
	require.NoError(t, err)
	assert.False(t, released)
}

func TestCancelBookingKeepsBlockedSlotBlocked(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	slot := seedSlot(t, store, 1)
	require.NoError(t, svc.Book(ctx, slot.ID))

	// An active block arrives while the slot sits at capacity; the booked
	// status masks it. Releasing the seat must surface the block instead of
	// reopening the slot.
	require.NoError(t, store.Blocks().Create(ctx, &model.Block{
		StaffID:   slot.StaffID,
		Date:      slot.Date,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		Reason:    model.BlockReasonEmergency,
		IsActive:  true,
	}))

	released, err := svc.CancelBooking(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, released)

	got, err := store.Slots().Get(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentBookings)
	assert.Equal(t, model.SlotStatusBlocked, got.Status)
}
