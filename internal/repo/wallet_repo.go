// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the wallet and journal primitives.
//
// Balance changes are conditional UPDATE statements so the check and the
// mutation are one unit at the store level. Callers pair every balance change
// with exactly one InsertWalletTransaction inside the same transaction; see
// services.WalletService.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

// EnsureWallet creates a zero-balance wallet for userID if none exists.
func EnsureWallet(ctx context.Context, db *gorm.DB, userID string) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.Wallet{UserID: userID, CreatedAt: now, UpdatedAt: now}).Error
}

// GetWallet fetches a wallet or returns ErrNotFound.
func GetWallet(ctx context.Context, db *gorm.DB, userID string) (*domain.Wallet, error) {
	var w domain.Wallet
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// AddBalance increases the balance by coins. It returns ErrNotFound when the
// wallet does not exist.
func AddBalance(ctx context.Context, db *gorm.DB, userID string, coins int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Wallet{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance + ?", coins),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SubtractBalance decreases the balance by coins only when the wallet holds
// at least that much. ok is false when the wallet is missing or short.
func SubtractBalance(ctx context.Context, db *gorm.DB, userID string, coins int64) (ok bool, err error) {
	res := db.WithContext(ctx).
		Model(&domain.Wallet{}).
		Where("user_id = ? AND balance >= ?", userID, coins).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance - ?", coins),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// InsertWalletTransaction appends a journal row.
func InsertWalletTransaction(ctx context.Context, db *gorm.DB, t *domain.WalletTransaction) error {
	return db.WithContext(ctx).Create(t).Error
}

// ListWalletTransactions returns a page of journal rows, newest first, and
// the total count.
func ListWalletTransactions(ctx context.Context, db *gorm.DB, walletID string, offset, limit int) ([]domain.WalletTransaction, int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.WalletTransaction{}).Where("wallet_id = ?", walletID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []domain.WalletTransaction{}
	err := q.Order("created_at desc").Order("id").Offset(offset).Limit(limit).Find(&out).Error
	return out, total, err
}

// SumWalletDeltas returns the signed sum of all journal rows of a wallet.
// For a consistent ledger it equals the wallet balance.
func SumWalletDeltas(ctx context.Context, db *gorm.DB, walletID string) (int64, error) {
	var row struct{ Total int64 }
	err := db.WithContext(ctx).
		Model(&domain.WalletTransaction{}).
		Select("COALESCE(SUM(CASE WHEN direction = ? THEN coins ELSE -coins END), 0) AS total", domain.Credit).
		Where("wallet_id = ?", walletID).
		Scan(&row).Error
	return row.Total, err
}

// GetWalletTransaction fetches one journal row or returns ErrNotFound.
func GetWalletTransaction(ctx context.Context, db *gorm.DB, id string) (*domain.WalletTransaction, error) {
	var t domain.WalletTransaction
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// FindWalletTransactionByReference returns the newest journal row of a wallet
// carrying reference, or ErrNotFound.
func FindWalletTransactionByReference(ctx context.Context, db *gorm.DB, walletID, reference string) (*domain.WalletTransaction, error) {
	var t domain.WalletTransaction
	err := db.WithContext(ctx).
		Where("wallet_id = ? AND reference = ?", walletID, reference).
		Order("created_at desc").
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}
