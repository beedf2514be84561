package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/scheduler-api/internal/model"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
)

func (r *scheduleRepository) Create(ctx context.Context, schedule *model.Schedule) error {
	query := `
		INSERT INTO schedules (
			id, staff_id, date, start_time, end_time,
			break_start, break_end, shift_type, status,
			slots_generated, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	schedule.ID = uuid.New()
	schedule.CreatedAt = time.Now()
	schedule.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		schedule.ID,
		schedule.StaffID,
		schedule.Date,
		schedule.StartTime,
		schedule.EndTime,
		schedule.BreakStart,
		schedule.BreakEnd,
		schedule.ShiftType,
		schedule.Status,
		schedule.SlotsGenerated,
		schedule.Notes,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	query := `
		SELECT id, staff_id, date, start_time, end_time,
			   break_start, break_end, shift_type, status,
			   slots_generated, notes, created_at, updated_at
		FROM schedules
		WHERE id = $1
	`
	var schedule model.Schedule
	err := r.db.GetContext(ctx, &schedule, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("schedule", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &schedule, nil
}

func (r *scheduleRepository) Update(ctx context.Context, schedule *model.Schedule) error {
	query := `
		UPDATE schedules
		SET start_time = $1, end_time = $2, break_start = $3, break_end = $4,
			shift_type = $5, status = $6, notes = $7, updated_at = $8
		WHERE id = $9
	`
	schedule.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		schedule.StartTime,
		schedule.EndTime,
		schedule.BreakStart,
		schedule.BreakEnd,
		schedule.ShiftType,
		schedule.Status,
		schedule.Notes,
		schedule.UpdatedAt,
		schedule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("schedule", nil)
	}

	return nil
}

func (r *scheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var booked bool
		err := tx.GetContext(ctx, &booked, `
			SELECT EXISTS (
				SELECT 1 FROM appointment_slots
				WHERE schedule_id = $1 AND current_bookings > 0
			)
		`, id)
		if err != nil {
			return fmt.Errorf("failed to check booked slots: %w", err)
		}
		if booked {
			return apperrors.InvalidState("cannot delete schedule with booked slots")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM appointment_slots WHERE schedule_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete schedule slots: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete schedule: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.NotFound("schedule", nil)
		}
		return nil
	})
}

func (r *scheduleRepository) List(ctx context.Context, filters *model.ScheduleFilters) ([]*model.Schedule, error) {
	query := `
		SELECT id, staff_id, date, start_time, end_time,
			   break_start, break_end, shift_type, status,
			   slots_generated, notes, created_at, updated_at
		FROM schedules
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.StaffID != uuid.Nil {
			query += fmt.Sprintf(" AND staff_id = $%d", argCount)
			args = append(args, filters.StaffID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if !filters.Range.From.IsZero() {
			query += fmt.Sprintf(" AND date >= $%d", argCount)
			args = append(args, filters.Range.From)
			argCount++
		}
		if !filters.Range.To.IsZero() {
			query += fmt.Sprintf(" AND date <= $%d", argCount)
			args = append(args, filters.Range.To)
			argCount++
		}
	}

	query += " ORDER BY date ASC, start_time ASC"

	var schedules []*model.Schedule
	err := r.db.SelectContext(ctx, &schedules, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepository) ListForStaffRange(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]*model.Schedule, error) {
	query := `
		SELECT id, staff_id, date, start_time, end_time,
			   break_start, break_end, shift_type, status,
			   slots_generated, notes, created_at, updated_at
		FROM schedules
		WHERE staff_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`
	var schedules []*model.Schedule
	err := r.db.SelectContext(ctx, &schedules, query, staffID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules for staff: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepository) Exists(ctx context.Context, staffID uuid.UUID, date, startTime, endTime time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM schedules
			WHERE staff_id = $1 AND date = $2 AND start_time = $3 AND end_time = $4
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, staffID, date, startTime, endTime)
	if err != nil {
		return false, fmt.Errorf("failed to check schedule existence: %w", err)
	}
	return exists, nil
}

func (r *scheduleRepository) ResetSlotsGenerated(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE schedules
		SET slots_generated = false, updated_at = $1
		WHERE id = $2
	`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to reset slots_generated: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("schedule", nil)
	}
	return nil
}
