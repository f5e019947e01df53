// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides grouped counting and small aggregate
// queries used by services (status breakdowns, ledger summaries) and by the
// HTTP layer for ETag generation.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

// InterestStatusCounts returns the number of interests per status on a job.
// Statuses with no rows are absent from the map.
func InterestStatusCounts(ctx context.Context, db *gorm.DB, jobID string) (map[domain.InterestStatus]int64, error) {
	var rows []struct {
		Status domain.InterestStatus
		N      int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Interest{}).
		Select("status, COUNT(*) AS n").
		Where("job_id = ?", jobID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[domain.InterestStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// TypeTotal is the per-type aggregate of a wallet's journal.
type TypeTotal struct {
	Type  domain.TransactionType `json:"type"`
	Count int64                  `json:"count"`
	Coins int64                  `json:"coins"`
}

// WalletTypeTotals groups a wallet's journal by transaction type.
func WalletTypeTotals(ctx context.Context, db *gorm.DB, walletID string) ([]TypeTotal, error) {
	out := []TypeTotal{}
	err := db.WithContext(ctx).
		Model(&domain.WalletTransaction{}).
		Select("type, COUNT(*) AS count, COALESCE(SUM(coins), 0) AS coins").
		Where("wallet_id = ?", walletID).
		Group("type").
		Order("type").
		Scan(&out).Error
	return out, err
}

// TransactionsStats returns the number of journal rows of a wallet and the
// newest CreatedAt, or (0, nil) when the journal is empty.
func TransactionsStats(ctx context.Context, db *gorm.DB, walletID string) (count int64, latest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.WalletTransaction{}).Where("wallet_id = ?", walletID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}

// InterestsStats returns the number of interests on a job and the newest
// UpdatedAt, or (0, nil) when there are none.
func InterestsStats(ctx context.Context, db *gorm.DB, jobID string) (count int64, latest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Interest{}).Where("job_id = ?", jobID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
