package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-leads-backend/internal/repo"
)

// DefaultIdempotencyTTL is how long a completed keyed request can be replayed.
const DefaultIdempotencyTTL = 24 * time.Hour

// PayScope and CreditScope name the idempotency scope of the two
// money-moving operations.
func PayScope(interestID string) string { return "pay:" + interestID }
func CreditScope(userID string) string  { return "credit:" + userID }

// once runs fn on tx unless (userID, scope, key) already completed, in which
// case it returns the stored resource id with replayed set. The record is
// written in the same transaction as fn's effects. An empty key disables the
// check.
func once(ctx context.Context, tx *gorm.DB, ttl time.Duration, userID, scope, key string, fn func() (string, error)) (resourceID string, replayed bool, err error) {
	if key == "" {
		id, err := fn()
		return id, false, err
	}
	rec, err := repo.GetIdempotency(ctx, tx, userID, scope, key, time.Now().UTC())
	switch {
	case err == nil:
		return rec.ResourceID, true, nil
	case !errors.Is(err, repo.ErrNotFound):
		return "", false, err
	}

	id, err := fn()
	if err != nil {
		return "", false, err
	}
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	if _, err := repo.CreateIdempotency(ctx, tx, userID, scope, key, id, 200, ttl); err != nil {
		return "", false, err
	}
	return id, false, nil
}

// PurgeIdempotency drops expired replay records and reports how many.
func PurgeIdempotency(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.PurgeExpiredIdempotency(ctx, db, time.Now().UTC())
}
