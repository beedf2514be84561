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

const slotConfigColumns = `
	id, staff_id, slot_duration_minutes, buffer_time_minutes,
	max_patients_per_slot, advance_booking_days, is_active,
	created_at, updated_at
`

func (r *slotConfigurationRepository) Create(ctx context.Context, config *model.SlotConfiguration) error {
	query := `
		INSERT INTO slot_configurations (
			id, staff_id, slot_duration_minutes, buffer_time_minutes,
			max_patients_per_slot, advance_booking_days, is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	config.ID = uuid.New()
	config.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		config.ID,
		config.StaffID,
		config.SlotDurationMinutes,
		config.BufferTimeMinutes,
		config.MaxPatientsPerSlot,
		config.AdvanceBookingDays,
		config.IsActive,
		config.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create slot configuration: %w", err)
	}
	return nil
}

func (r *slotConfigurationRepository) Get(ctx context.Context, id uuid.UUID) (*model.SlotConfiguration, error) {
	query := `SELECT ` + slotConfigColumns + ` FROM slot_configurations WHERE id = $1`
	var config model.SlotConfiguration
	err := r.db.GetContext(ctx, &config, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("slot configuration", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot configuration: %w", err)
	}
	return &config, nil
}

func (r *slotConfigurationRepository) GetActiveForStaff(ctx context.Context, staffID uuid.UUID) (*model.SlotConfiguration, error) {
	// Latest active wins when several exist for the same staff member.
	query := `
		SELECT ` + slotConfigColumns + `
		FROM slot_configurations
		WHERE staff_id = $1 AND is_active = true
		ORDER BY created_at DESC
		LIMIT 1
	`
	var config model.SlotConfiguration
	err := r.db.GetContext(ctx, &config, query, staffID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("slot configuration", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active slot configuration: %w", err)
	}
	return &config, nil
}

func (r *slotConfigurationRepository) EnsureDefault(ctx context.Context, staffID uuid.UUID) (*model.SlotConfiguration, error) {
	// Insert-if-absent keeps repeated fallbacks from stacking up duplicate
	// defaults under concurrent generation calls.
	query := `
		INSERT INTO slot_configurations (
			id, staff_id, slot_duration_minutes, buffer_time_minutes,
			max_patients_per_slot, advance_booking_days, is_active, created_at
		)
		SELECT $1, $2, $3, $4, $5, $6, true, $7
		WHERE NOT EXISTS (
			SELECT 1 FROM slot_configurations
			WHERE staff_id = $2 AND is_active = true
		)
	`
	def := model.DefaultSlotConfiguration(staffID)
	_, err := r.db.ExecContext(ctx, query,
		uuid.New(),
		staffID,
		def.SlotDurationMinutes,
		def.BufferTimeMinutes,
		def.MaxPatientsPerSlot,
		def.AdvanceBookingDays,
		time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure default slot configuration: %w", err)
	}

	return r.GetActiveForStaff(ctx, staffID)
}

func (r *slotConfigurationRepository) Update(ctx context.Context, config *model.SlotConfiguration) error {
	query := `
		UPDATE slot_configurations
		SET slot_duration_minutes = $1, buffer_time_minutes = $2,
			max_patients_per_slot = $3, advance_booking_days = $4,
			is_active = $5, updated_at = $6
		WHERE id = $7
	`
	now := time.Now()
	config.UpdatedAt = &now

	result, err := r.db.ExecContext(ctx, query,
		config.SlotDurationMinutes,
		config.BufferTimeMinutes,
		config.MaxPatientsPerSlot,
		config.AdvanceBookingDays,
		config.IsActive,
		config.UpdatedAt,
		config.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update slot configuration: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("slot configuration", nil)
	}

	return nil
}

func (r *slotConfigurationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM slot_configurations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete slot configuration: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("slot configuration", nil)
	}

	return nil
}

func (r *slotConfigurationRepository) List(ctx context.Context) ([]*model.SlotConfiguration, error) {
	query := `SELECT ` + slotConfigColumns + ` FROM slot_configurations ORDER BY created_at DESC`
	var configs []*model.SlotConfiguration
	err := r.db.SelectContext(ctx, &configs, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list slot configurations: %w", err)
	}
	return configs, nil
}

func (r *slotConfigurationRepository) ListForStaff(ctx context.Context, staffID uuid.UUID) ([]*model.SlotConfiguration, error) {
	query := `
		SELECT ` + slotConfigColumns + `
		FROM slot_configurations
		WHERE staff_id = $1
		ORDER BY created_at DESC
	`
	var configs []*model.SlotConfiguration
	err := r.db.SelectContext(ctx, &configs, query, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slot configurations for staff: %w", err)
	}
	return configs, nil
}
