package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

func TestGetIdempotency_NoScope_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t)
	rec, err := GetIdempotency(context.Background(), db, "u1", "   ", "k1", time.Now().UTC())
	if rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for empty scope, got (%v, %v)", rec, err)
	}
}

func TestGetIdempotency_ExpiredOrMissing_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	exp := &domain.Idempotency{
		ID: "expired", UserID: "u1", Scope: "pay:i1", Key: "k1", ResourceID: "i1",
		Status: 200, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}
	if err := db.Create(exp).Error; err != nil {
		t.Fatalf("seed expired: %v", err)
	}

	if rec, err := GetIdempotency(context.Background(), db, "u1", "pay:i1", "k1", now); rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for expired, got (%v, %v)", rec, err)
	}
	if rec, err := GetIdempotency(context.Background(), db, "u1", "pay:i1", "missing", now); rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for missing, got (%v, %v)", rec, err)
	}

	n, err := PurgeExpiredIdempotency(context.Background(), db, now)
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpiredIdempotency = %d, %v", n, err)
	}
}

func TestCreateIdempotency_SuccessAndDuplicate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	start := time.Now().UTC()

	rec, err := CreateIdempotency(ctx, db, "u9", "credit:u2", "k9", "tx-1", 201, 90*time.Minute)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ResourceID != "tx-1" || rec.Status != 201 || !rec.ExpiresAt.After(start) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, "u9", "credit:u2", "k9", time.Now().UTC())
	if err != nil || got.ResourceID != "tx-1" {
		t.Fatalf("GetIdempotency = %+v, %v", got, err)
	}

	if _, err := CreateIdempotency(ctx, db, "u9", "credit:u2", "k9", "tx-2", 201, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestIsDuplicate(t *testing.T) {
	if IsDuplicate(nil) || IsDuplicate(errors.New("disk I/O error")) {
		t.Fatalf("false positive")
	}
	if !IsDuplicate(errors.New("UNIQUE constraint failed: interests.job_id")) {
		t.Fatalf("sqlite text not recognised")
	}
	if !IsDuplicate(errors.New(`ERROR: duplicate key value violates unique constraint "ux_interest_active"`)) {
		t.Fatalf("postgres text not recognised")
	}
}
