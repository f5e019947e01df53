package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

func TestGetJob_NotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := GetJob(context.Background(), db, "404404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	ok, err := JobIDExists(context.Background(), db, "404404")
	if err != nil || ok {
		t.Fatalf("JobIDExists = %v, %v", ok, err)
	}
}

func TestIncrementInterestCount_OnlyActive(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	seedJob(t, db, "000001", "c1", "Plumbing", now)
	closed := seedJob(t, db, "000002", "c1", "Plumbing", now)
	if err := db.Model(closed).Update("status", domain.JobClosed).Error; err != nil {
		t.Fatalf("close job: %v", err)
	}

	n, err := IncrementInterestCount(ctx, db, "000001")
	if err != nil || n != 1 {
		t.Fatalf("active job: n=%d err=%v", n, err)
	}
	n, err = IncrementInterestCount(ctx, db, "000002")
	if err != nil || n != 0 {
		t.Fatalf("closed job must not be incremented: n=%d err=%v", n, err)
	}

	j, _ := GetJob(ctx, db, "000001")
	if j.InterestCount != 1 {
		t.Fatalf("interest_count = %d", j.InterestCount)
	}
}

func TestListActiveJobsBySkills(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)
	seedJob(t, db, "000001", "c1", "Plumbing", base)
	seedJob(t, db, "000002", "c1", "Electrical Wiring", base.Add(time.Minute))
	seedJob(t, db, "000003", "c1", "Home Cleaning", base.Add(2*time.Minute))
	seedJob(t, db, "000004", "c1", "100% Tiling", base.Add(3*time.Minute))

	got, err := ListActiveJobsBySkills(ctx, db, []string{"plumb", "WIRING"}, 10)
	if err != nil {
		t.Fatalf("ListActiveJobsBySkills: %v", err)
	}
	if len(got) != 2 || got[0].ID != "000002" || got[1].ID != "000001" {
		t.Fatalf("unexpected candidates: %+v", got)
	}

	// LIKE wildcards in a skill are literal.
	got, _ = ListActiveJobsBySkills(ctx, db, []string{"%"}, 10)
	if len(got) != 1 || got[0].ID != "000004" {
		t.Fatalf("wildcard must be escaped, got %d rows", len(got))
	}

	got, _ = ListActiveJobsBySkills(ctx, db, nil, 10)
	if len(got) != 0 {
		t.Fatalf("no skills must yield no candidates")
	}

	got, _ = ListActiveJobsBySkills(ctx, db, []string{"job"}, 2)
	if len(got) != 2 || got[0].ID != "000004" {
		t.Fatalf("limit/order not applied: %+v", got)
	}
}

func TestListJobsByCustomer(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	seedJob(t, db, "000001", "c1", "A", now)
	seedJob(t, db, "000002", "c1", "B", now.Add(time.Second))
	seedJob(t, db, "000003", "c2", "C", now)

	items, total, err := ListJobsByCustomer(context.Background(), db, "c1", 0, 1)
	if err != nil || total != 2 || len(items) != 1 || items[0].ID != "000002" {
		t.Fatalf("items=%+v total=%d err=%v", items, total, err)
	}
}

func TestCloseJob_OwnerAndActiveOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedJob(t, db, "000001", "c1", "Plumbing", time.Now().UTC())

	if n, err := CloseJob(ctx, db, "000001", "someone-else"); err != nil || n != 0 {
		t.Fatalf("non-owner close: n=%d err=%v", n, err)
	}
	if n, err := CloseJob(ctx, db, "000001", "c1"); err != nil || n != 1 {
		t.Fatalf("owner close: n=%d err=%v", n, err)
	}
	if n, err := CloseJob(ctx, db, "000001", "c1"); err != nil || n != 0 {
		t.Fatalf("second close: n=%d err=%v", n, err)
	}
	j, _ := GetJob(ctx, db, "000001")
	if j.Status != domain.JobClosed {
		t.Fatalf("status = %s", j.Status)
	}
}
