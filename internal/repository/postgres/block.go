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

const blockColumns = `
	id, staff_id, date, start_time, end_time, reason, notes,
	is_active, leave_id, created_by, created_at
`

func (r *blockRepository) Create(ctx context.Context, block *model.Block) error {
	query := `
		INSERT INTO appointment_blocks (
			id, staff_id, date, start_time, end_time, reason, notes,
			is_active, leave_id, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	block.ID = uuid.New()
	block.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		block.ID,
		block.StaffID,
		block.Date,
		block.StartTime,
		block.EndTime,
		block.Reason,
		block.Notes,
		block.IsActive,
		block.LeaveID,
		block.CreatedBy,
		block.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create block: %w", err)
	}
	return nil
}

func (r *blockRepository) Get(ctx context.Context, id uuid.UUID) (*model.Block, error) {
	query := `SELECT ` + blockColumns + ` FROM appointment_blocks WHERE id = $1`
	var block model.Block
	err := r.db.GetContext(ctx, &block, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("appointment block", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get block: %w", err)
	}
	return &block, nil
}

func (r *blockRepository) Update(ctx context.Context, block *model.Block) error {
	query := `
		UPDATE appointment_blocks
		SET start_time = $1, end_time = $2, reason = $3, notes = $4
		WHERE id = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		block.StartTime,
		block.EndTime,
		block.Reason,
		block.Notes,
		block.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update block: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment block", nil)
	}

	return nil
}

func (r *blockRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE appointment_blocks
		SET is_active = $1
		WHERE id = $2 AND is_active = $3
	`, active, id, !active)
	if err != nil {
		return false, fmt.Errorf("failed to set block active: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM appointment_blocks WHERE id = $1)`, id); err != nil {
			return false, fmt.Errorf("failed to check block existence: %w", err)
		}
		if !exists {
			return false, apperrors.NotFound("appointment block", nil)
		}
		return false, nil
	}

	return true, nil
}

func (r *blockRepository) List(ctx context.Context, filters *model.BlockFilters) ([]*model.Block, error) {
	query := `SELECT ` + blockColumns + ` FROM appointment_blocks WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.StaffID != uuid.Nil {
			query += fmt.Sprintf(" AND staff_id = $%d", argCount)
			args = append(args, filters.StaffID)
			argCount++
		}
		if !filters.Date.IsZero() {
			query += fmt.Sprintf(" AND date = $%d", argCount)
			args = append(args, filters.Date)
			argCount++
		}
		if filters.ActiveOnly {
			query += " AND is_active = true"
		}
	}

	query += " ORDER BY date ASC, start_time ASC"

	var blocks []*model.Block
	err := r.db.SelectContext(ctx, &blocks, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	return blocks, nil
}

func (r *blockRepository) ListActiveForStaffDate(ctx context.Context, staffID uuid.UUID, date time.Time) ([]*model.Block, error) {
	query := `
		SELECT ` + blockColumns + `
		FROM appointment_blocks
		WHERE staff_id = $1 AND date = $2 AND is_active = true
		ORDER BY start_time ASC
	`
	var blocks []*model.Block
	err := r.db.SelectContext(ctx, &blocks, query, staffID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list active blocks: %w", err)
	}
	return blocks, nil
}

func (r *blockRepository) ListByLeave(ctx context.Context, leaveID uuid.UUID) ([]*model.Block, error) {
	query := `
		SELECT ` + blockColumns + `
		FROM appointment_blocks
		WHERE leave_id = $1
		ORDER BY date ASC, start_time ASC
	`
	var blocks []*model.Block
	err := r.db.SelectContext(ctx, &blocks, query, leaveID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks for leave: %w", err)
	}
	return blocks, nil
}
