// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file holds the durable counters behind generated
// identifiers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

// IncrementCounter adds one to namespace's counter (creating it at zero on
// first use) and returns the new value. Call it inside a transaction: the
// UPDATE takes the row lock, so the read-back observes this caller's
// increment and no other.
func IncrementCounter(ctx context.Context, db *gorm.DB, namespace string) (int64, error) {
	now := time.Now().UTC()
	tx := db.WithContext(ctx)
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.SequenceCounter{Namespace: namespace, UpdatedAt: now}).Error; err != nil {
		return 0, err
	}
	res := tx.Model(&domain.SequenceCounter{}).
		Where("namespace = ?", namespace).
		Updates(map[string]any{"value": gorm.Expr("value + 1"), "updated_at": now})
	if res.Error != nil {
		return 0, res.Error
	}
	return GetCounter(ctx, db, namespace)
}

// GetCounter returns the last issued value of namespace, or 0 if unused.
func GetCounter(ctx context.Context, db *gorm.DB, namespace string) (int64, error) {
	var c domain.SequenceCounter
	err := db.WithContext(ctx).Where("namespace = ?", namespace).Limit(1).Find(&c).Error
	return c.Value, err
}

// SetCounter overwrites the counter of namespace. Used by operators when
// seeding or migrating identifier ranges.
func SetCounter(ctx context.Context, db *gorm.DB, namespace string, value int64) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "namespace"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&domain.SequenceCounter{Namespace: namespace, Value: value, UpdatedAt: time.Now().UTC()}).Error
}
