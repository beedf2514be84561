package slot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/scheduler-api/internal/model"
	"github.com/jwalitptl/scheduler-api/internal/repository"
	"github.com/jwalitptl/scheduler-api/internal/service/event"
	"github.com/jwalitptl/scheduler-api/pkg/errors"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
	"github.com/jwalitptl/scheduler-api/pkg/metrics"
)

const (
	configCacheTTL     = 5 * time.Minute
	configCacheCleanup = 10 * time.Minute
)

// Service generates appointment slots from schedules and manages slot
// configurations. Generation is serialized per schedule through the
// slots_generated flag, which the repository flips atomically with the
// slot insert.
type Service struct {
	slots     repository.SlotRepository
	schedules repository.ScheduleRepository
	configs   repository.SlotConfigurationRepository
	blocks    repository.BlockRepository
	emitter   event.Emitter
	metrics   *metrics.Metrics
	logger    *logger.Logger

	// active configuration per staff, keyed by staff ID
	configCache *cache.Cache
}

func NewService(
	slots repository.SlotRepository,
	schedules repository.ScheduleRepository,
	configs repository.SlotConfigurationRepository,
	blocks repository.BlockRepository,
	emitter event.Emitter,
	m *metrics.Metrics,
	logger *logger.Logger,
) *Service {
	return &Service{
		slots:       slots,
		schedules:   schedules,
		configs:     configs,
		blocks:      blocks,
		emitter:     emitter,
		metrics:     m,
		logger:      logger,
		configCache: cache.New(configCacheTTL, configCacheCleanup),
	}
}

// GenerateSlots decomposes a schedule's working interval into slots using
// the staff member's active configuration. It fails when the schedule has
// already been generated; callers wanting a rebuild use RegenerateSlots.
func (s *Service) GenerateSlots(ctx context.Context, actor model.Actor, scheduleID uuid.UUID) ([]*model.Slot, error) {
	if !actor.CanManageScheduling() {
		return nil, errors.Forbidden("not allowed to generate slots")
	}

	schedule, err := s.schedules.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.SlotsGenerated {
		return nil, errors.InvalidState("slots already generated for schedule")
	}

	return s.generate(ctx, schedule)
}

// RegenerateSlots deletes the schedule's unbooked slots, clears the
// generation flag and generates again. Slots carrying bookings are left
// alone, so the result can be a mix of old booked slots and fresh ones.
func (s *Service) RegenerateSlots(ctx context.Context, actor model.Actor, scheduleID uuid.UUID) ([]*model.Slot, error) {
	if !actor.CanManageScheduling() {
		return nil, errors.Forbidden("not allowed to regenerate slots")
	}

	schedule, err := s.schedules.Get(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	if schedule.SlotsGenerated {
		deleted, err := s.slots.DeleteUnbooked(ctx, schedule.ID)
		if err != nil {
			return nil, err
		}
		if err := s.schedules.ResetSlotsGenerated(ctx, schedule.ID); err != nil {
			return nil, err
		}
		schedule.SlotsGenerated = false
		s.logger.Info("cleared slots for regeneration",
			"schedule_id", schedule.ID, "deleted", deleted)
	}

	return s.generate(ctx, schedule)
}

func (s *Service) generate(ctx context.Context, schedule *model.Schedule) ([]*model.Slot, error) {
	start := time.Now()

	cfg, err := s.configs.EnsureDefault(ctx, schedule.StaffID)
	if err != nil {
		return nil, err
	}

	blocks, err := s.blocks.ListActiveForStaffDate(ctx, schedule.StaffID, schedule.Date)
	if err != nil {
		return nil, err
	}

	slots := buildSlots(schedule, cfg, blocks)
	if err := s.slots.CreateForSchedule(ctx, schedule.ID, slots); err != nil {
		return nil, err
	}
	schedule.SlotsGenerated = true

	for _, slot := range slots {
		s.metrics.SlotsGenerated.WithLabelValues(string(slot.Status)).Inc()
	}
	s.metrics.SlotGenerationTime.Observe(time.Since(start).Seconds())

	s.emitter.Emit(ctx, model.EventSlotGenerated, map[string]interface{}{
		"schedule_id": schedule.ID,
		"staff_id":    schedule.StaffID,
		"date":        schedule.Date,
		"slot_count":  len(slots),
	})
	s.logger.Info("generated slots",
		"schedule_id", schedule.ID, "staff_id", schedule.StaffID, "count", len(slots))

	return slots, nil
}

// buildSlots walks the schedule's interval with a cursor, jumping over the
// break window and stopping when the remaining tail is shorter than one
// slot. The buffer is dead time between slots, never part of one. Slots
// overlapping an active block start out blocked.
func buildSlots(schedule *model.Schedule, cfg *model.SlotConfiguration, blocks []*model.Block) []*model.Slot {
	duration := time.Duration(cfg.SlotDurationMinutes) * time.Minute
	buffer := time.Duration(cfg.BufferTimeMinutes) * time.Minute

	var slots []*model.Slot
	cursor := schedule.StartTime
	for {
		if schedule.HasBreak() && !cursor.Before(*schedule.BreakStart) && cursor.Before(*schedule.BreakEnd) {
			cursor = *schedule.BreakEnd
			continue
		}

		slotEnd := cursor.Add(duration)
		if slotEnd.After(schedule.EndTime) {
			break
		}

		status := model.SlotStatusAvailable
		for _, b := range blocks {
			if b.Overlaps(cursor, slotEnd) {
				status = model.SlotStatusBlocked
				break
			}
		}

		slots = append(slots, &model.Slot{
			ScheduleID:      schedule.ID,
			StaffID:         schedule.StaffID,
			Date:            model.Day(schedule.Date),
			StartTime:       cursor,
			EndTime:         slotEnd,
			Status:          status,
			MaxCapacity:     cfg.MaxPatientsPerSlot,
			CurrentBookings: 0,
			Version:         1,
		})

		cursor = slotEnd.Add(buffer)
	}

	return slots
}

func (s *Service) GetSlot(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	return s.slots.Get(ctx, id)
}

func (s *Service) ListSlots(ctx context.Context, filters *model.SlotFilters) ([]*model.Slot, error) {
	return s.slots.List(ctx, filters)
}

func (s *Service) ListSlotsBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*model.Slot, error) {
	return s.slots.ListBySchedule(ctx, scheduleID)
}

// ListAvailability returns a staff member's available slots inside the
// requested range, clamped to the advance booking horizon of their active
// configuration. An empty range defaults to the whole horizon.
func (s *Service) ListAvailability(ctx context.Context, staffID uuid.UUID, rng model.DateRange) ([]*model.Slot, error) {
	cfg, err := s.activeConfigForStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}

	today := model.Day(time.Now())
	horizon := today.AddDate(0, 0, cfg.AdvanceBookingDays)

	from := today
	if rng.From.After(from) {
		from = model.Day(rng.From)
	}
	to := horizon
	if !rng.To.IsZero() && rng.To.Before(to) {
		to = model.Day(rng.To)
	}
	if to.Before(from) {
		return []*model.Slot{}, nil
	}

	return s.slots.List(ctx, &model.SlotFilters{
		StaffID: staffID,
		Status:  model.SlotStatusAvailable,
		Range:   model.DateRange{From: from, To: to},
	})
}

// DeleteSlot removes a slot. The repository refuses while the slot carries
// bookings.
func (s *Service) DeleteSlot(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if !actor.CanManageScheduling() {
		return errors.Forbidden("not allowed to delete slots")
	}
	return s.slots.Delete(ctx, id)
}

// CancelSlot transitions a slot to its terminal cancelled status. Only
// permitted while the slot has no bookings.
func (s *Service) CancelSlot(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Slot, error) {
	if !actor.CanManageScheduling() {
		return nil, errors.Forbidden("not allowed to cancel slots")
	}

	slot, err := s.slots.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if slot.Status == model.SlotStatusCancelled {
		return slot, nil
	}
	if slot.CurrentBookings > 0 {
		return nil, errors.InvalidState("cannot cancel a slot with bookings")
	}

	slot.Status = model.SlotStatusCancelled
	if err := s.slots.UpdateVersioned(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// CreateConfiguration records a new slot configuration for a staff member.
// The newest active configuration wins at generation time.
func (s *Service) CreateConfiguration(ctx context.Context, actor model.Actor, req *model.CreateSlotConfigurationRequest) (*model.SlotConfiguration, error) {
	if !actor.CanManageScheduling() {
		return nil, errors.Forbidden("not allowed to manage slot configurations")
	}

	cfg := &model.SlotConfiguration{
		StaffID:             req.StaffID,
		SlotDurationMinutes: req.SlotDurationMinutes,
		BufferTimeMinutes:   req.BufferTimeMinutes,
		MaxPatientsPerSlot:  req.MaxPatientsPerSlot,
		AdvanceBookingDays:  req.AdvanceBookingDays,
		IsActive:            true,
	}
	if err := s.configs.Create(ctx, cfg); err != nil {
		return nil, err
	}
	s.configCache.Delete(req.StaffID.String())
	return cfg, nil
}

func (s *Service) GetConfiguration(ctx context.Context, id uuid.UUID) (*model.SlotConfiguration, error) {
	return s.configs.Get(ctx, id)
}

func (s *Service) UpdateConfiguration(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateSlotConfigurationRequest) (*model.SlotConfiguration, error) {
	if !actor.CanManageScheduling() {
		return nil, errors.Forbidden("not allowed to manage slot configurations")
	}

	cfg, err := s.configs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SlotDurationMinutes != nil {
		cfg.SlotDurationMinutes = *req.SlotDurationMinutes
	}
	if req.BufferTimeMinutes != nil {
		cfg.BufferTimeMinutes = *req.BufferTimeMinutes
	}
	if req.MaxPatientsPerSlot != nil {
		cfg.MaxPatientsPerSlot = *req.MaxPatientsPerSlot
	}
	if req.AdvanceBookingDays != nil {
		cfg.AdvanceBookingDays = *req.AdvanceBookingDays
	}
	if req.IsActive != nil {
		cfg.IsActive = *req.IsActive
	}

	if err := s.configs.Update(ctx, cfg); err != nil {
		return nil, err
	}
	s.configCache.Delete(cfg.StaffID.String())
	return cfg, nil
}

func (s *Service) DeleteConfiguration(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if !actor.CanManageScheduling() {
		return errors.Forbidden("not allowed to manage slot configurations")
	}

	cfg, err := s.configs.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.configs.Delete(ctx, id); err != nil {
		return err
	}
	s.configCache.Delete(cfg.StaffID.String())
	return nil
}

func (s *Service) ListConfigurations(ctx context.Context) ([]*model.SlotConfiguration, error) {
	return s.configs.List(ctx)
}

func (s *Service) ListConfigurationsForStaff(ctx context.Context, staffID uuid.UUID) ([]*model.SlotConfiguration, error) {
	return s.configs.ListForStaff(ctx, staffID)
}

// activeConfigForStaff resolves the staff member's active configuration,
// falling back to the stock default without persisting one. Only generation
// creates the default record.
func (s *Service) activeConfigForStaff(ctx context.Context, staffID uuid.UUID) (*model.SlotConfiguration, error) {
	key := staffID.String()
	if cached, ok := s.configCache.Get(key); ok {
		return cached.(*model.SlotConfiguration), nil
	}

	cfg, err := s.configs.GetActiveForStaff(ctx, staffID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			cfg = model.DefaultSlotConfiguration(staffID)
		} else {
			return nil, err
		}
	}

	s.configCache.Set(key, cfg, cache.DefaultExpiration)
	return cfg, nil
}
