// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for Interest
// (lead) records, including the compare-and-swap status update that every
// lifecycle transition goes through.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

// CreateInterest inserts a new interest. A second live interest for the same
// (job, provider) violates ux_interest_active and returns a duplicate-key error.
func CreateInterest(ctx context.Context, db *gorm.DB, in *domain.Interest) error {
	return db.WithContext(ctx).Create(in).Error
}

// GetInterest fetches an interest by id or returns ErrNotFound.
func GetInterest(ctx context.Context, db *gorm.DB, id string) (*domain.Interest, error) {
	var in domain.Interest
	if err := db.WithContext(ctx).Where("id = ?", id).First(&in).Error; err != nil {
		return nil, err
	}
	return &in, nil
}

// FindLiveInterest returns the non-cancelled interest for (job, provider),
// or ErrNotFound.
func FindLiveInterest(ctx context.Context, db *gorm.DB, jobID, providerID string) (*domain.Interest, error) {
	var in domain.Interest
	err := db.WithContext(ctx).
		Where("job_id = ? AND provider_id = ? AND status <> ?", jobID, providerID, domain.InterestCancelled).
		First(&in).Error
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// TransitionInterest moves interest id to status `to` only if its current
// status is one of from. Extra columns (timestamps, fee snapshot) are written
// in the same statement. It reports whether the row was updated; false means
// the row is missing or another caller changed it first.
func TransitionInterest(ctx context.Context, db *gorm.DB, id string, from []domain.InterestStatus, to domain.InterestStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": to, "updated_at": time.Now().UTC()}
	for k, v := range extra {
		updates[k] = v
	}
	res := db.WithContext(ctx).
		Model(&domain.Interest{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListInterestsByJob returns a page of interests on a job, newest first, and
// the total count.
func ListInterestsByJob(ctx context.Context, db *gorm.DB, jobID string, offset, limit int) ([]domain.Interest, int64, error) {
	return pageInterests(db.WithContext(ctx).Model(&domain.Interest{}).Where("job_id = ?", jobID), offset, limit)
}

// ListInterestsByProvider returns a page of a provider's interests, newest first.
func ListInterestsByProvider(ctx context.Context, db *gorm.DB, providerID string, offset, limit int) ([]domain.Interest, int64, error) {
	return pageInterests(db.WithContext(ctx).Model(&domain.Interest{}).Where("provider_id = ?", providerID), offset, limit)
}

func pageInterests(q *gorm.DB, offset, limit int) ([]domain.Interest, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []domain.Interest{}
	err := q.Order("created_at desc").Order("id").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}
