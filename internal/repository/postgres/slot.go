package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/scheduler-api/internal/model"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
)

const slotColumns = `
	id, schedule_id, staff_id, date, start_time, end_time,
	status, max_capacity, current_bookings, version, notes,
	created_at, updated_at
`

func (r *slotRepository) CreateForSchedule(ctx context.Context, scheduleID uuid.UUID, slots []*model.Slot) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// The flag flip is the compare-and-swap boundary: whichever
		// transaction commits it first wins, the loser sees zero rows.
		result, err := tx.ExecContext(ctx, `
			UPDATE schedules
			SET slots_generated = true, updated_at = $1
			WHERE id = $2 AND slots_generated = false
		`, time.Now(), scheduleID)
		if err != nil {
			return fmt.Errorf("failed to mark slots generated: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM schedules WHERE id = $1)`, scheduleID); err != nil {
				return fmt.Errorf("failed to check schedule existence: %w", err)
			}
			if !exists {
				return apperrors.NotFound("schedule", nil)
			}
			return apperrors.InvalidState("slots have already been generated for this schedule")
		}

		query := `
			INSERT INTO appointment_slots (
				id, schedule_id, staff_id, date, start_time, end_time,
				status, max_capacity, current_bookings, version, notes,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`
		now := time.Now()
		for _, slot := range slots {
			slot.ID = uuid.New()
			slot.CreatedAt = now
			slot.UpdatedAt = now
			slot.Version = 1
			if _, err := tx.ExecContext(ctx, query,
				slot.ID,
				slot.ScheduleID,
				slot.StaffID,
				slot.Date,
				slot.StartTime,
				slot.EndTime,
				slot.Status,
				slot.MaxCapacity,
				slot.CurrentBookings,
				slot.Version,
				slot.Notes,
				slot.CreatedAt,
				slot.UpdatedAt,
			); err != nil {
				return fmt.Errorf("failed to insert slot: %w", err)
			}
		}
		return nil
	})
}

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM appointment_slots WHERE id = $1`
	var slot model.Slot
	err := r.db.GetContext(ctx, &slot, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("appointment slot", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return &slot, nil
}

func (r *slotRepository) UpdateVersioned(ctx context.Context, slot *model.Slot) error {
	query := `
		UPDATE appointment_slots
		SET status = $1, current_bookings = $2, notes = $3,
			version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6
	`
	slot.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		slot.Status,
		slot.CurrentBookings,
		slot.Notes,
		slot.UpdatedAt,
		slot.ID,
		slot.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM appointment_slots WHERE id = $1)`, slot.ID); err != nil {
			return fmt.Errorf("failed to check slot existence: %w", err)
		}
		if !exists {
			return apperrors.NotFound("appointment slot", nil)
		}
		return apperrors.ConcurrencyConflict("appointment slot")
	}

	slot.Version++
	return nil
}

func (r *slotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM appointment_slots
		WHERE id = $1 AND current_bookings = 0
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM appointment_slots WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("failed to check slot existence: %w", err)
		}
		if exists {
			return apperrors.InvalidState("cannot delete appointment slot with existing bookings")
		}
		return apperrors.NotFound("appointment slot", nil)
	}

	return nil
}

func (r *slotRepository) DeleteUnbooked(ctx context.Context, scheduleID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM appointment_slots
		WHERE schedule_id = $1 AND current_bookings = 0
	`, scheduleID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete unbooked slots: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

func (r *slotRepository) List(ctx context.Context, filters *model.SlotFilters) ([]*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM appointment_slots WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.ScheduleID != uuid.Nil {
			query += fmt.Sprintf(" AND schedule_id = $%d", argCount)
			args = append(args, filters.ScheduleID)
			argCount++
		}
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

	var slots []*model.Slot
	err := r.db.SelectContext(ctx, &slots, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (r *slotRepository) ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM appointment_slots
		WHERE schedule_id = $1
		ORDER BY start_time ASC
	`
	var slots []*model.Slot
	err := r.db.SelectContext(ctx, &slots, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots for schedule: %w", err)
	}
	return slots, nil
}

func (r *slotRepository) ListOverlapping(ctx context.Context, staffID uuid.UUID, date, start, end time.Time, statuses []model.SlotStatus) ([]*model.Slot, error) {
	statusStrs := make([]string, len(statuses))
	for i, s := range statuses {
		statusStrs[i] = string(s)
	}

	query := `
		SELECT ` + slotColumns + `
		FROM appointment_slots
		WHERE staff_id = $1
		  AND date = $2
		  AND start_time < $3
		  AND end_time > $4
		  AND status = ANY($5)
		ORDER BY start_time ASC
	`
	var slots []*model.Slot
	err := r.db.SelectContext(ctx, &slots, query, staffID, date, end, start, pq.Array(statusStrs))
	if err != nil {
		return nil, fmt.Errorf("failed to list overlapping slots: %w", err)
	}
	return slots, nil
}

func (r *slotRepository) HasBookedSlots(ctx context.Context, scheduleID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointment_slots
			WHERE schedule_id = $1 AND current_bookings > 0
		)
	`
	var booked bool
	err := r.db.GetContext(ctx, &booked, query, scheduleID)
	if err != nil {
		return false, fmt.Errorf("failed to check booked slots: %w", err)
	}
	return booked, nil
}
