// Package memory provides mutex-guarded in-memory implementations of the
// repository interfaces. They honor the same atomicity contracts as the
// postgres implementations (versioned slot writes, generation flag CAS,
// block activation CAS) and back the service test suites as well as the
// standalone development mode.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
)

// Store holds all entities behind one mutex. A single lock keeps the
// cross-entity operations (slot generation flag + slot inserts) atomic the
// same way a database transaction does.
type Store struct {
	mu sync.Mutex

	schedules    map[uuid.UUID]*model.Schedule
	slots        map[uuid.UUID]*model.Slot
	configs      map[uuid.UUID]*model.SlotConfiguration
	blocks       map[uuid.UUID]*model.Block
	leaves       map[uuid.UUID]*model.Leave
	appointments map[uuid.UUID]*model.Appointment
	outbox       map[uuid.UUID]*model.OutboxEvent
}

func NewStore() *Store {
	return &Store{
		schedules:    make(map[uuid.UUID]*model.Schedule),
		slots:        make(map[uuid.UUID]*model.Slot),
		configs:      make(map[uuid.UUID]*model.SlotConfiguration),
		blocks:       make(map[uuid.UUID]*model.Block),
		leaves:       make(map[uuid.UUID]*model.Leave),
		appointments: make(map[uuid.UUID]*model.Appointment),
		outbox:       make(map[uuid.UUID]*model.OutboxEvent),
	}
}

func (s *Store) Schedules() *ScheduleRepository {
	return &ScheduleRepository{store: s}
}

func (s *Store) Slots() *SlotRepository {
	return &SlotRepository{store: s}
}

func (s *Store) SlotConfigurations() *SlotConfigurationRepository {
	return &SlotConfigurationRepository{store: s}
}

func (s *Store) Blocks() *BlockRepository {
	return &BlockRepository{store: s}
}

func (s *Store) Leaves() *LeaveRepository {
	return &LeaveRepository{store: s}
}

func (s *Store) Appointments() *AppointmentRepository {
	return &AppointmentRepository{store: s}
}

func (s *Store) Outbox() *OutboxRepository {
	return &OutboxRepository{store: s}
}

func copySchedule(in *model.Schedule) *model.Schedule {
	out := *in
	return &out
}

func copySlot(in *model.Slot) *model.Slot {
	out := *in
	return &out
}

func copyConfig(in *model.SlotConfiguration) *model.SlotConfiguration {
	out := *in
	return &out
}

func copyBlock(in *model.Block) *model.Block {
	out := *in
	return &out
}

func copyLeave(in *model.Leave) *model.Leave {
	out := *in
	return &out
}

func copyAppointment(in *model.Appointment) *model.Appointment {
	out := *in
	return &out
}

func copyEvent(in *model.OutboxEvent) *model.OutboxEvent {
	out := *in
	return &out
}
