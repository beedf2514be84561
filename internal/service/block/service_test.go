package block

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

var testMetrics = metrics.NewMetrics("test", "block_service")

var admin = model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}

func newFixture() (*Service, *memory.Store) {
	store := memory.NewStore()
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(store.Blocks(), store.Slots(), event.NopEmitter{}, testMetrics, log)
	return svc, store
}

// seedDay creates a schedule with half-hour slots from 9:00 to 12:00 and
// returns the staff ID, the date and the slots in start order.
func seedDay(t *testing.T, store *memory.Store) (uuid.UUID, time.Time, []*model.Slot) {
	t.Helper()
	ctx := context.Background()

	staffID := uuid.New()
	date := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	schedule := &model.Schedule{
		StaffID:   staffID,
		Date:      model.Day(date),
		StartTime: model.At(date, 9, 0),
		EndTime:   model.At(date, 12, 0),
		ShiftType: model.ShiftTypeMorning,
		Status:    model.ScheduleStatusScheduled,
	}
	require.NoError(t, store.Schedules().Create(ctx, schedule))

	var slots []*model.Slot
	for h := 9; h < 12; h++ {
		for _, m := range []int{0, 30} {
			slots = append(slots, &model.Slot{
				ScheduleID:  schedule.ID,
				StaffID:     staffID,
				Date:        schedule.Date,
				StartTime:   model.At(date, h, m),
				EndTime:     model.At(date, h, m).Add(30 * time.Minute),
				Status:      model.SlotStatusAvailable,
				MaxCapacity: 1,
			})
		}
	}
	require.NoError(t, store.Slots().CreateForSchedule(ctx, schedule.ID, slots))
	return staffID, date, slots
}

func statusAt(t *testing.T, store *memory.Store, id uuid.UUID) model.SlotStatus {
	t.Helper()
	slot, err := store.Slots().Get(context.Background(), id)
	require.NoError(t, err)
	return slot.Status
}

func TestCreateBlockPropagates(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	staffID, date, slots := seedDay(t, store)

	_, err := svc.CreateBlock(ctx, admin, &model.CreateBlockRequest{
		StaffID:   staffID,
		Date:      date,
		StartTime: model.At(date, 10, 0),
		EndTime:   model.At(date, 11, 0),
		Reason:    model.BlockReasonMeeting,
	})
	require.NoError(t, err)

	// slots: 9:00 9:30 10:00 10:30 11:00 11:30
	assert.Equal(t, model.SlotStatusAvailable, statusAt(t, store, slots[1].ID))
	assert.Equal(t, model.SlotStatusBlocked, statusAt(t, store, slots[2].ID))
	assert.Equal(t, model.SlotStatusBlocked, statusAt(t, store, slots[3].ID))
	assert.Equal(t, model.SlotStatusAvailable, statusAt(t, store, slots[4].ID))
}

func TestCreateBlockLeavesBookedSlotsAlone(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	staffID, date, slots := seedDay(t, store)

	booked := slots[2]
	booked.CurrentBookings = 1
	booked.Status = model.SlotStatusBooked
	require.NoError(t, store.Slots().UpdateVersioned(ctx, booked))

	_, err := svc.CreateBlock(ctx, admin, &model.CreateBlockRequest{
		StaffID:   staffID,
		Date:      date,
		StartTime: model.At(date, 10, 0),
		EndTime:   model.At(date, 11, 0),
		Reason:    model.BlockReasonMeeting,
	})
	require.NoError(t, err)

	got, err := store.Slots().Get(ctx, booked.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusBooked, got.Status)
	assert.Equal(t, 1, got.CurrentBookings)
}

func TestDeactivateBlockReleasesSlots(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	staffID, date, slots := seedDay(t, store)

	block, err := svc.CreateBlock(ctx, admin, &model.CreateBlockRequest{
		StaffID:   staffID,
		Date:      date,
		StartTime: model.At(date, 10, 0),
		EndTime:   model.At(date, 11, 0),
		Reason:    model.BlockReasonPersonal,
	})
	require.NoError(t, err)
	require.Equal(t, model.SlotStatusBlocked, statusAt(t, store, slots[2].ID))

	require.NoError(t, svc.DeactivateBlock(ctx, admin, block.ID))
	assert.Equal(t, model.SlotStatusAvailable, statusAt(t, store, slots[2].ID))
	assert.Equal(t, model.SlotStatusAvailable, statusAt(t, store, slots[3].ID))

	// second deactivation is a no-op
	require.NoError(t, svc.DeactivateBlock(ctx, admin, block.ID))
}

func TestRetractWithOverlappingBlocks(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	staffID, date, slots := seedDay(t, store)

	first, err := svc.CreateBlock(ctx, admin, &model.CreateBlockRequest{
		StaffID:   staffID,
		Date:      date,
		StartTime: model.At(date, 10, 0),
		EndTime:   model.At(date, 11, 0),
		Reason:    model.BlockReasonMeeting,
	})
	require.NoError(t, err)

	second, err := svc.CreateBlock(ctx, admin, &model.CreateBlockRequest{
		StaffID:   staffID,
		Date:      date,
		StartTime: model.At(date, 10, 30),
		EndTime:   model.At(date, 11, 30),
		Reason:    model.BlockReasonEmergency,
	})
	require.NoError(t, err)

	// 10:30 sits under both blocks; retracting the first must not release
	// it while the second still covers it.
	require.NoError(t, svc.DeactivateBlock(ctx, admin, first.ID))
	assert.Equal(t, model.SlotStatusAvailable, statusAt(t, store, slots[2].ID))
	assert.Equal(t, model.SlotStatusBlocked, statusAt(t, store, slots[3].ID))
	assert.Equal(t, model.SlotStatusBlocked, statusAt(t, store, slots[4].ID))

	require.NoError(t, svc.DeactivateBlock(ctx, admin, second.ID))
	assert.Equal(t, model.SlotStatusAvailable, statusAt(t, store, slots[3].ID))
	assert.Equal(t, model.SlotStatusAvailable, statusAt(t, store, slots[4].ID))
}

func TestUpdateBlockRepropagates(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	staffID, date, slots := seedDay(t, store)

	block, err := svc.CreateBlock(ctx, admin, &model.CreateBlockRequest{
		StaffID:   staffID,
		Date:      date,
		StartTime: model.At(date, 9, 0),
		EndTime:   model.At(date, 10, 0),
		Reason:    model.BlockReasonMeeting,
	})
	require.NoError(t, err)
	require.Equal(t, model.SlotStatusBlocked, statusAt(t, store, slots[0].ID))

	newStart := model.At(date, 10, 0)
	newEnd := model.At(date, 11, 0)
	updated, err := svc.UpdateBlock(ctx, admin, block.ID, &model.UpdateBlockRequest{
		StartTime: &newStart,
		EndTime:   &newEnd,
	})
	require.NoError(t, err)
	assert.True(t, updated.IsActive)

	stored, err := store.Blocks().Get(ctx, block.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive, "stored block must be active after an interval update")

	assert.Equal(t, model.SlotStatusAvailable, statusAt(t, store, slots[0].ID))
	assert.Equal(t, model.SlotStatusAvailable, statusAt(t, store, slots[1].ID))
	assert.Equal(t, model.SlotStatusBlocked, statusAt(t, store, slots[2].ID))
	assert.Equal(t, model.SlotStatusBlocked, statusAt(t, store, slots[3].ID))
}

func TestDeactivateAfterUpdateReleasesSlots(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	staffID, date, slots := seedDay(t, store)

	block, err := svc.CreateBlock(ctx, admin, &model.CreateBlockRequest{
		StaffID:   staffID,
		Date:      date,
		StartTime: model.At(date, 9, 0),
		EndTime:   model.At(date, 10, 0),
		Reason:    model.BlockReasonMeeting,
	})
	require.NoError(t, err)

	newStart := model.At(date, 10, 0)
	newEnd := model.At(date, 11, 0)
	_, err = svc.UpdateBlock(ctx, admin, block.ID, &model.UpdateBlockRequest{
		StartTime: &newStart,
		EndTime:   &newEnd,
	})
	require.NoError(t, err)
	require.Equal(t, model.SlotStatusBlocked, statusAt(t, store, slots[2].ID))
	require.Equal(t, model.SlotStatusBlocked, statusAt(t, store, slots[3].ID))

	require.NoError(t, svc.DeactivateBlock(ctx, admin, block.ID))

	assert.Equal(t, model.SlotStatusAvailable, statusAt(t, store, slots[2].ID))
	assert.Equal(t, model.SlotStatusAvailable, statusAt(t, store, slots[3].ID))

	stored, err := store.Blocks().Get(ctx, block.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestUpdateInactiveBlockFails(t *testing.T) {
	svc, store := newFixture()
	ctx := context.Background()

	staffID, date, _ := seedDay(t, store)

	block, err := svc.CreateBlock(ctx, admin, &model.CreateBlockRequest{
		StaffID:   staffID,
		Date:      date,
		StartTime: model.At(date, 9, 0),
		EndTime:   model.At(date, 10, 0),
		Reason:    model.BlockReasonOther,
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateBlock(ctx, admin, block.ID))

	reason := model.BlockReasonMeeting
	_, err = svc.UpdateBlock(ctx, admin, block.ID, &model.UpdateBlockRequest{Reason: &reason})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidState))
}
