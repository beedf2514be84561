package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
)

type BlockRepository struct {
	store *Store
}

func (r *BlockRepository) Create(ctx context.Context, block *model.Block) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	block.ID = uuid.New()
	block.CreatedAt = time.Now()
	r.store.blocks[block.ID] = copyBlock(block)
	return nil
}

func (r *BlockRepository) Get(ctx context.Context, id uuid.UUID) (*model.Block, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	block, ok := r.store.blocks[id]
	if !ok {
		return nil, apperrors.NotFound("appointment block", nil)
	}
	return copyBlock(block), nil
}

func (r *BlockRepository) Update(ctx context.Context, block *model.Block) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.blocks[block.ID]
	if !ok {
		return apperrors.NotFound("appointment block", nil)
	}
	block.IsActive = existing.IsActive
	r.store.blocks[block.ID] = copyBlock(block)
	return nil
}

func (r *BlockRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	block, ok := r.store.blocks[id]
	if !ok {
		return false, apperrors.NotFound("appointment block", nil)
	}
	if block.IsActive == active {
		return false, nil
	}
	block.IsActive = active
	return true, nil
}

func (r *BlockRepository) List(ctx context.Context, filters *model.BlockFilters) ([]*model.Block, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var blocks []*model.Block
	for _, block := range r.store.blocks {
		if filters != nil {
			if filters.StaffID != uuid.Nil && block.StaffID != filters.StaffID {
				continue
			}
			if !filters.Date.IsZero() && !block.Date.Equal(filters.Date) {
				continue
			}
			if filters.ActiveOnly && !block.IsActive {
				continue
			}
		}
		blocks = append(blocks, copyBlock(block))
	}

	sortBlocks(blocks)
	return blocks, nil
}

func (r *BlockRepository) ListActiveForStaffDate(ctx context.Context, staffID uuid.UUID, date time.Time) ([]*model.Block, error) {
	return r.List(ctx, &model.BlockFilters{StaffID: staffID, Date: date, ActiveOnly: true})
}

func (r *BlockRepository) ListByLeave(ctx context.Context, leaveID uuid.UUID) ([]*model.Block, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var blocks []*model.Block
	for _, block := range r.store.blocks {
		if block.LeaveID != nil && *block.LeaveID == leaveID {
			blocks = append(blocks, copyBlock(block))
		}
	}

	sortBlocks(blocks)
	return blocks, nil
}

func sortBlocks(blocks []*model.Block) {
	sort.Slice(blocks, func(i, j int) bool {
		if !blocks[i].Date.Equal(blocks[j].Date) {
			return blocks[i].Date.Before(blocks[j].Date)
		}
		return blocks[i].StartTime.Before(blocks[j].StartTime)
	})
}
