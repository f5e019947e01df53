package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		Job{}.TableName():               "jobs",
		Interest{}.TableName():          "interests",
		ProviderProfile{}.TableName():   "provider_profiles",
		Wallet{}.TableName():            "wallets",
		WalletTransaction{}.TableName(): "wallet_transactions",
		SequenceCounter{}.TableName():   "sequence_counters",
		Idempotency{}.TableName():       "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_IndexesAndChecks(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Job{}, &Interest{}, &ProviderProfile{}, &Wallet{}, &WalletTransaction{}, &SequenceCounter{}, &Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasIndex(&Job{}, "idx_job_status_created") {
		t.Fatalf("expected idx_job_status_created on jobs")
	}
	if !m.HasIndex(&WalletTransaction{}, "idx_wallet_txns") {
		t.Fatalf("expected idx_wallet_txns on wallet_transactions")
	}
	if !m.HasIndex(&Idempotency{}, "ux_user_scope_key") {
		t.Fatalf("expected ux_user_scope_key on idempotency")
	}

	now := time.Now().UTC()
	if err := db.Create(&Wallet{UserID: "u1", CreatedAt: now, UpdatedAt: now}).Error; err != nil {
		t.Fatalf("insert wallet: %v", err)
	}
	// Negative balances are rejected by the CHECK constraint.
	if err := db.Exec("UPDATE wallets SET balance = -1 WHERE user_id = ?", "u1").Error; err == nil {
		t.Fatalf("expected CHECK violation for negative balance")
	}

	bad := &WalletTransaction{
		ID: uuid.NewString(), WalletID: "u1", Type: TxFunding, Direction: "sideways",
		Coins: 1, Amount: decimal.NewFromInt(1), Currency: "NGN", Status: TxStatusCompleted, CreatedAt: now,
	}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected CHECK violation for unknown direction")
	}
}

func TestProviderProfile_SkillsRoundTrip(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&ProviderProfile{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	p := &ProviderProfile{UserID: "p1", ShortID: "A1", Skills: []string{"Plumbing", "Tiling"}, TravelRadiusKm: 25}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	var got ProviderProfile
	if err := db.First(&got, "user_id = ?", "p1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Skills) != 2 || got.Skills[1] != "Tiling" {
		t.Fatalf("skills did not round-trip: %#v", got.Skills)
	}
	if _, ok := got.Coordinates(); ok {
		t.Fatalf("profile without coordinates reported a point")
	}
}

func TestWalletTransaction_Delta(t *testing.T) {
	in := WalletTransaction{Direction: Credit, Coins: 7}
	out := WalletTransaction{Direction: Debit, Coins: 7}
	if in.Delta() != 7 || out.Delta() != -7 {
		t.Fatalf("Delta: credit=%d debit=%d", in.Delta(), out.Delta())
	}
	if TxAccessFee.Direction() != Debit || TxRefund.Direction() != Credit {
		t.Fatalf("unexpected type directions")
	}
}

func TestCoordinateCacheEntry_Fresh(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	e := CoordinateCacheEntry{Key: "ikeja", ResolvedAt: now.Add(-time.Hour)}
	if !e.Fresh(now, 2*time.Hour) {
		t.Fatalf("entry should be fresh")
	}
	if e.Fresh(now, time.Hour) {
		t.Fatalf("entry at exactly TTL age must be stale")
	}
}
