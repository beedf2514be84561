package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
)

type SlotConfigurationRepository struct {
	store *Store
}

func (r *SlotConfigurationRepository) Create(ctx context.Context, config *model.SlotConfiguration) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	config.ID = uuid.New()
	config.CreatedAt = time.Now()
	r.store.configs[config.ID] = copyConfig(config)
	return nil
}

func (r *SlotConfigurationRepository) Get(ctx context.Context, id uuid.UUID) (*model.SlotConfiguration, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	config, ok := r.store.configs[id]
	if !ok {
		return nil, apperrors.NotFound("slot configuration", nil)
	}
	return copyConfig(config), nil
}

func (r *SlotConfigurationRepository) GetActiveForStaff(ctx context.Context, staffID uuid.UUID) (*model.SlotConfiguration, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	config := r.activeForStaffLocked(staffID)
	if config == nil {
		return nil, apperrors.NotFound("slot configuration", nil)
	}
	return copyConfig(config), nil
}

func (r *SlotConfigurationRepository) EnsureDefault(ctx context.Context, staffID uuid.UUID) (*model.SlotConfiguration, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if existing := r.activeForStaffLocked(staffID); existing != nil {
		return copyConfig(existing), nil
	}

	def := model.DefaultSlotConfiguration(staffID)
	def.ID = uuid.New()
	def.CreatedAt = time.Now()
	r.store.configs[def.ID] = copyConfig(def)
	return copyConfig(def), nil
}

func (r *SlotConfigurationRepository) Update(ctx context.Context, config *model.SlotConfiguration) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.configs[config.ID]; !ok {
		return apperrors.NotFound("slot configuration", nil)
	}
	now := time.Now()
	config.UpdatedAt = &now
	r.store.configs[config.ID] = copyConfig(config)
	return nil
}

func (r *SlotConfigurationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.configs[id]; !ok {
		return apperrors.NotFound("slot configuration", nil)
	}
	delete(r.store.configs, id)
	return nil
}

func (r *SlotConfigurationRepository) List(ctx context.Context) ([]*model.SlotConfiguration, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var configs []*model.SlotConfiguration
	for _, config := range r.store.configs {
		configs = append(configs, copyConfig(config))
	}
	sortConfigs(configs)
	return configs, nil
}

func (r *SlotConfigurationRepository) ListForStaff(ctx context.Context, staffID uuid.UUID) ([]*model.SlotConfiguration, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var configs []*model.SlotConfiguration
	for _, config := range r.store.configs {
		if config.StaffID == staffID {
			configs = append(configs, copyConfig(config))
		}
	}
	sortConfigs(configs)
	return configs, nil
}

func (r *SlotConfigurationRepository) activeForStaffLocked(staffID uuid.UUID) *model.SlotConfiguration {
	var latest *model.SlotConfiguration
	for _, config := range r.store.configs {
		if config.StaffID != staffID || !config.IsActive {
			continue
		}
		if latest == nil || config.CreatedAt.After(latest.CreatedAt) {
			latest = config
		}
	}
	return latest
}

func sortConfigs(configs []*model.SlotConfiguration) {
	sort.Slice(configs, func(i, j int) bool {
		return configs[i].CreatedAt.After(configs[j].CreatedAt)
	})
}
