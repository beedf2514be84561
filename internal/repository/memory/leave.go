package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
	apperrors "github.com/jwalitptl/scheduler-api/pkg/errors"
)

type LeaveRepository struct {
	store *Store
}

func (r *LeaveRepository) Create(ctx context.Context, leave *model.Leave) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	leave.ID = uuid.New()
	leave.CreatedAt = time.Now()
	leave.UpdatedAt = time.Now()
	r.store.leaves[leave.ID] = copyLeave(leave)
	return nil
}

func (r *LeaveRepository) Get(ctx context.Context, id uuid.UUID) (*model.Leave, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	leave, ok := r.store.leaves[id]
	if !ok {
		return nil, apperrors.NotFound("leave", nil)
	}
	return copyLeave(leave), nil
}

func (r *LeaveRepository) Update(ctx context.Context, leave *model.Leave) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.leaves[leave.ID]; !ok {
		return apperrors.NotFound("leave", nil)
	}
	leave.UpdatedAt = time.Now()
	r.store.leaves[leave.ID] = copyLeave(leave)
	return nil
}

func (r *LeaveRepository) List(ctx context.Context, filters *model.LeaveFilters) ([]*model.Leave, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var leaves []*model.Leave
	for _, leave := range r.store.leaves {
		if filters != nil {
			if filters.StaffID != uuid.Nil && leave.StaffID != filters.StaffID {
				continue
			}
			if filters.Status != "" && leave.Status != filters.Status {
				continue
			}
		}
		leaves = append(leaves, copyLeave(leave))
	}

	sort.Slice(leaves, func(i, j int) bool {
		return leaves[i].StartDate.After(leaves[j].StartDate)
	})
	return leaves, nil
}

func (r *LeaveRepository) HasOverlapping(ctx context.Context, staffID uuid.UUID, from, to time.Time, exclude *uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, leave := range r.store.leaves {
		if leave.StaffID != staffID {
			continue
		}
		if exclude != nil && leave.ID == *exclude {
			continue
		}
		if leave.Status == model.LeaveStatusRejected || leave.Status == model.LeaveStatusCancelled {
			continue
		}
		if !leave.StartDate.After(to) && !leave.EndDate.Before(from) {
			return true, nil
		}
	}
	return false, nil
}
