// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Job model.
//
// Functions are context-aware, accept a *gorm.DB (which may be a transaction)
// and follow the "thin repository" approach: no business rules, only
// persistence and query composition. Missing rows surface as ErrNotFound.
package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateJob inserts a fully built job.
func CreateJob(ctx context.Context, db *gorm.DB, job *domain.Job) error {
	return db.WithContext(ctx).Create(job).Error
}

// GetJob fetches a job by id or returns ErrNotFound.
func GetJob(ctx context.Context, db *gorm.DB, id string) (*domain.Job, error) {
	var j domain.Job
	if err := db.WithContext(ctx).Where("id = ?", id).First(&j).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

// JobIDExists reports whether a job with id is stored.
func JobIDExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Job{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// IncrementInterestCount bumps the counter of an ACTIVE job. The returned
// row count is 0 when the job is missing or no longer active.
func IncrementInterestCount(ctx context.Context, db *gorm.DB, jobID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("id = ? AND status = ?", jobID, domain.JobActive).
		Updates(map[string]any{
			"interest_count": gorm.Expr("interest_count + 1"),
			"updated_at":     time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// CloseJob moves an ACTIVE job owned by customerID to CLOSED. The returned
// row count is 0 when nothing matched.
func CloseJob(ctx context.Context, db *gorm.DB, id, customerID string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Job{}).
		Where("id = ? AND customer_id = ? AND status = ?", id, customerID, domain.JobActive).
		Updates(map[string]any{"status": domain.JobClosed, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// ListActiveJobsBySkills returns up to limit ACTIVE jobs, newest first, whose
// category or title contains any of skills (case-insensitive). An empty
// skill list yields no rows.
func ListActiveJobsBySkills(ctx context.Context, db *gorm.DB, skills []string, limit int) ([]domain.Job, error) {
	var conds []string
	var args []any
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		p := "%" + escapeLike(s) + "%"
		conds = append(conds, `LOWER(category) LIKE ? ESCAPE '\' OR LOWER(title) LIKE ? ESCAPE '\'`)
		args = append(args, p, p)
	}
	out := []domain.Job{}
	if len(conds) == 0 {
		return out, nil
	}
	err := db.WithContext(ctx).
		Where("status = ?", domain.JobActive).
		Where("("+strings.Join(conds, " OR ")+")", args...).
		Order("created_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListJobsByCustomer returns a page of a customer's jobs, newest first.
func ListJobsByCustomer(ctx context.Context, db *gorm.DB, customerID string, offset, limit int) ([]domain.Job, int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.Job{}).Where("customer_id = ?", customerID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []domain.Job{}
	err := q.Order("created_at desc").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
