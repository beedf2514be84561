package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
)

type AppointmentRepository struct {
	store *Store
}

func (r *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()
	r.store.appointments[appointment.ID] = copyAppointment(appointment)
	return nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	appointment, ok := r.store.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return copyAppointment(appointment), nil
}

func (r *AppointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.appointments[appointment.ID]; !ok {
		return apperrors.NotFound("appointment", nil)
	}
	appointment.UpdatedAt = time.Now()
	r.store.appointments[appointment.ID] = copyAppointment(appointment)
	return nil
}

func (r *AppointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var appointments []*model.Appointment
	for _, appointment := range r.store.appointments {
		if filters != nil {
			if filters.StaffID != uuid.Nil && appointment.StaffID != filters.StaffID {
				continue
			}
			if filters.PatientID != uuid.Nil && appointment.PatientID != filters.PatientID {
				continue
			}
			if filters.Status != "" && appointment.Status != filters.Status {
				continue
			}
			if !filters.Range.From.IsZero() && appointment.Date.Before(filters.Range.From) {
				continue
			}
			if !filters.Range.To.IsZero() && appointment.Date.After(filters.Range.To) {
				continue
			}
		}
		appointments = append(appointments, copyAppointment(appointment))
	}

	sort.Slice(appointments, func(i, j int) bool {
		return appointments[i].Date.Before(appointments[j].Date)
	})
	return appointments, nil
}

func (r *AppointmentRepository) ListActiveForStaffRange(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var appointments []*model.Appointment
	for _, appointment := range r.store.appointments {
		if appointment.StaffID != staffID {
			continue
		}
		if appointment.Status == model.AppointmentStatusCancelled {
			continue
		}
		if appointment.Date.Before(from) || appointment.Date.After(to) {
			continue
		}
		appointments = append(appointments, copyAppointment(appointment))
	}

	sort.Slice(appointments, func(i, j int) bool {
		return appointments[i].Date.Before(appointments[j].Date)
	})
	return appointments, nil
}
