package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
)

const leaveColumns = `
	id, staff_id, start_date, end_date, leave_type, reason, status,
	approved_by, approved_at, rejection_reason, created_at, updated_at
`

func (r *leaveRepository) Create(ctx context.Context, leave *model.Leave) error {
	query := `
		INSERT INTO leaves (
			id, staff_id, start_date, end_date, leave_type, reason, status,
			approved_by, approved_at, rejection_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	leave.ID = uuid.New()
	leave.CreatedAt = time.Now()
	leave.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		leave.ID,
		leave.StaffID,
		leave.StartDate,
		leave.EndDate,
		leave.LeaveType,
		leave.Reason,
		leave.Status,
		leave.ApprovedBy,
		leave.ApprovedAt,
		leave.RejectionReason,
		leave.CreatedAt,
		leave.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create leave: %w", err)
	}
	return nil
}

func (r *leaveRepository) Get(ctx context.Context, id uuid.UUID) (*model.Leave, error) {
	query := `SELECT ` + leaveColumns + ` FROM leaves WHERE id = $1`
	var leave model.Leave
	err := r.db.GetContext(ctx, &leave, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("leave", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leave: %w", err)
	}
	return &leave, nil
}

func (r *leaveRepository) Update(ctx context.Context, leave *model.Leave) error {
	query := `
		UPDATE leaves
		SET status = $1, approved_by = $2, approved_at = $3,
			rejection_reason = $4, updated_at = $5
		WHERE id = $6
	`
	leave.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		leave.Status,
		leave.ApprovedBy,
		leave.ApprovedAt,
		leave.RejectionReason,
		leave.UpdatedAt,
		leave.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update leave: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("leave", nil)
	}

	return nil
}

func (r *leaveRepository) List(ctx context.Context, filters *model.LeaveFilters) ([]*model.Leave, error) {
	query := `SELECT ` + leaveColumns + ` FROM leaves WHERE 1=1`
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
	}

	query += " ORDER BY start_date DESC"

	var leaves []*model.Leave
	err := r.db.SelectContext(ctx, &leaves, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaves: %w", err)
	}
	return leaves, nil
}

func (r *leaveRepository) HasOverlapping(ctx context.Context, staffID uuid.UUID, from, to time.Time, exclude *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM leaves
			WHERE staff_id = $1
			  AND status NOT IN ('rejected', 'cancelled')
			  AND start_date <= $2
			  AND end_date >= $3
	`
	args := []interface{}{staffID, to, from}

	if exclude != nil {
		query += " AND id != $4"
		args = append(args, *exclude)
	}

	query += ")"

	var overlap bool
	err := r.db.GetContext(ctx, &overlap, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to check overlapping leaves: %w", err)
	}
	return overlap, nil
}
