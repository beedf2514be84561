package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/scheduler-api/internal/repository"
)

type scheduleRepository struct {
	db *sqlx.DB
}

type slotRepository struct {
	db *sqlx.DB
}

type slotConfigurationRepository struct {
	db *sqlx.DB
}

type blockRepository struct {
	db *sqlx.DB
}

type leaveRepository struct {
	db *sqlx.DB
}

type appointmentRepository struct {
	db *sqlx.DB
}

func NewScheduleRepository(db *sqlx.DB) repository.ScheduleRepository {
	return &scheduleRepository{db: db}
}

func NewSlotRepository(db *sqlx.DB) repository.SlotRepository {
	return &slotRepository{db: db}
}

func NewSlotConfigurationRepository(db *sqlx.DB) repository.SlotConfigurationRepository {
	return &slotConfigurationRepository{db: db}
}

func NewBlockRepository(db *sqlx.DB) repository.BlockRepository {
	return &blockRepository{db: db}
}

func NewLeaveRepository(db *sqlx.DB) repository.LeaveRepository {
	return &leaveRepository{db: db}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}
