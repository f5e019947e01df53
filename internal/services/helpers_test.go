package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/geo"
	"github.com/tbourn/go-leads-backend/internal/notify"
	"github.com/tbourn/go-leads-backend/internal/repo"
	"github.com/tbourn/go-leads-backend/internal/sequence"
)

var (
	customer = Caller{UserID: "cust-1", Role: RoleCustomer}
	provider = Caller{UserID: "prov-1", Role: RoleProvider}
	admin    = Caller{UserID: "ops", Role: RoleAdmin}
)

type sent struct {
	UserID string
	Event  notify.Event
}

// recorder is a synchronous Dispatcher.
type recorder struct {
	mu  sync.Mutex
	got []sent
}

func (r *recorder) Dispatch(_ context.Context, userID string, event notify.Event, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, sent{UserID: userID, Event: event})
}

func (r *recorder) events() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.got...)
}

type testEnv struct {
	db       *gorm.DB
	wallet   *WalletService
	leads    *LeadService
	jobs     *JobService
	profiles *ProfileService
	match    *MatchService
	notes    *recorder
}

// newEnv wires every service over a fresh file-backed SQLite database. The
// resolver has no geocoder, so only the gazetteer and cache answer.
func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "leads.db"))
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	resolver := geo.NewResolver(geo.NewMemoryCache(time.Hour, 0), geo.NewFixedWindow(30, time.Minute), nil, time.Second, zerolog.Nop())
	ids := sequence.New(db, zerolog.Nop())
	rate := decimal.NewFromInt(50)
	notes := &recorder{}
	wallet := NewWalletService(db, rate, "NGN")

	return &testEnv{
		db:       db,
		wallet:   wallet,
		leads:    NewLeadService(db, wallet, notes),
		jobs:     NewJobService(db, resolver, ids, rate, "NGN"),
		profiles: NewProfileService(db, resolver, ids, 25),
		match:    NewMatchService(db, resolver, 0),
		notes:    notes,
	}
}

func jobInput(category, location string, fee int64) domain.JobInput {
	return domain.JobInput{
		Title:        category + " needed",
		Category:     category,
		LocationText: location,
		FeeCoins:     fee,
		ContactName:  "Ada",
		ContactPhone: "+2348000000000",
		ContactEmail: "ada@example.com",
	}
}

func (e *testEnv) postJob(t *testing.T, fee int64) *domain.Job {
	t.Helper()
	job, err := e.jobs.Create(context.Background(), customer, jobInput("Plumbing", "Ikeja", fee))
	require.NoError(t, err)
	return job
}

// sharedInterest returns an interest of provider on a new job, already in
// CONTACT_SHARED.
func (e *testEnv) sharedInterest(t *testing.T, fee int64) *domain.Interest {
	t.Helper()
	ctx := context.Background()
	job := e.postJob(t, fee)
	in, err := e.leads.Create(ctx, provider, job.ID)
	require.NoError(t, err)
	in, err = e.leads.ShareContact(ctx, customer, in.ID)
	require.NoError(t, err)
	return in
}

func (e *testEnv) fund(t *testing.T, userID string, coins int64) {
	t.Helper()
	_, err := e.wallet.Credit(context.Background(), Movement{UserID: userID, Coins: coins, Type: domain.TxFunding, Description: "top-up"})
	require.NoError(t, err)
}
