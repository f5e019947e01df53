package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

func newInterest(jobID, providerID string, status domain.InterestStatus, at time.Time) *domain.Interest {
	return &domain.Interest{
		ID: uuid.NewString(), JobID: jobID, ProviderID: providerID, CustomerID: "c1",
		Status: status, CreatedAt: at, UpdatedAt: at,
	}
}

func TestCreateInterest_OneLivePerPair(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := newInterest("000001", "p1", domain.InterestInterested, now)
	if err := CreateInterest(ctx, db, first); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := CreateInterest(ctx, db, newInterest("000001", "p1", domain.InterestInterested, now))
	if !IsDuplicate(err) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	// Other provider on the same job is fine.
	if err := CreateInterest(ctx, db, newInterest("000001", "p2", domain.InterestInterested, now)); err != nil {
		t.Fatalf("other provider: %v", err)
	}

	// Once cancelled, the pair may express interest again.
	ok, err := TransitionInterest(ctx, db, first.ID, []domain.InterestStatus{domain.InterestInterested}, domain.InterestCancelled, nil)
	if err != nil || !ok {
		t.Fatalf("cancel: ok=%v err=%v", ok, err)
	}
	again := newInterest("000001", "p1", domain.InterestInterested, now)
	if err := CreateInterest(ctx, db, again); err != nil {
		t.Fatalf("re-create after cancel: %v", err)
	}

	live, err := FindLiveInterest(ctx, db, "000001", "p1")
	if err != nil || live.ID != again.ID {
		t.Fatalf("FindLiveInterest = %+v, %v", live, err)
	}
}

func TestTransitionInterest_CompareAndSwap(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	in := newInterest("000001", "p1", domain.InterestInterested, time.Now().UTC())
	if err := CreateInterest(ctx, db, in); err != nil {
		t.Fatalf("create: %v", err)
	}

	from := []domain.InterestStatus{domain.InterestInterested}
	sharedAt := time.Now().UTC()
	ok, err := TransitionInterest(ctx, db, in.ID, from, domain.InterestContactShared, map[string]any{"shared_at": sharedAt})
	if err != nil || !ok {
		t.Fatalf("first share: ok=%v err=%v", ok, err)
	}
	// Second caller with the same expectation loses.
	ok, err = TransitionInterest(ctx, db, in.ID, from, domain.InterestContactShared, nil)
	if err != nil || ok {
		t.Fatalf("second share must not apply: ok=%v err=%v", ok, err)
	}

	got, _ := GetInterest(ctx, db, in.ID)
	if got.Status != domain.InterestContactShared || got.SharedAt == nil {
		t.Fatalf("unexpected row: %+v", got)
	}

	ok, err = TransitionInterest(ctx, db, "missing", from, domain.InterestCancelled, nil)
	if err != nil || ok {
		t.Fatalf("missing row: ok=%v err=%v", ok, err)
	}
}

func TestGetInterest_NotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := GetInterest(context.Background(), db, "nope"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListInterests_Paging(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)
	for i, p := range []string{"p1", "p2", "p3"} {
		if err := CreateInterest(ctx, db, newInterest("000001", p, domain.InterestInterested, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := CreateInterest(ctx, db, newInterest("000002", "p1", domain.InterestInterested, base)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	items, total, err := ListInterestsByJob(ctx, db, "000001", 0, 2)
	if err != nil || total != 3 || len(items) != 2 || items[0].ProviderID != "p3" {
		t.Fatalf("by job: items=%+v total=%d err=%v", items, total, err)
	}
	items, total, err = ListInterestsByProvider(ctx, db, "p1", 0, 10)
	if err != nil || total != 2 || len(items) != 2 {
		t.Fatalf("by provider: items=%+v total=%d err=%v", items, total, err)
	}
}
