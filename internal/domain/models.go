// Package domain defines the persistence models for jobs, interests (leads),
// provider profiles, wallets and the wallet journal. These types are mapped
// with GORM and form the core data layer of the lead marketplace.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coordinates is a WGS84 point in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// JobStatus is the publication state of a job.
type JobStatus string

const (
	JobActive JobStatus = "ACTIVE"
	JobClosed JobStatus = "CLOSED"
)

// Job is a customer's request for a service. Providers discover jobs by skill
// and distance and pay the access fee to unlock the contact fields.
//
// Fields:
//   - ID: fixed-width numeric string issued by the "jobs" sequence namespace.
//   - CustomerID: owner of the job; the only caller allowed to share contact.
//   - Category / Title: matched case-insensitively against provider skills.
//   - LocationText / Latitude / Longitude: either may be missing; coordinates
//     are filled in lazily when the location text resolves.
//   - FeeCoins / FeeAmount / Currency: current access fee. Interests snapshot
//     it at payment time.
//   - InterestCount: incremented once per created interest.
//   - Contact*: released to a provider only after PAID_ACCESS.
type Job struct {
	ID            string          `json:"id"             gorm:"type:varchar(16);primaryKey"`
	CustomerID    string          `json:"customer_id"    gorm:"type:varchar(64);not null;index:idx_customer_jobs"`
	Title         string          `json:"title"          gorm:"type:varchar(255);not null"`
	Category      string          `json:"category"       gorm:"type:varchar(128);not null;index"`
	Description   string          `json:"description"    gorm:"type:text"`
	LocationText  string          `json:"location_text"  gorm:"type:varchar(255)"`
	Latitude      *float64        `json:"latitude,omitempty"`
	Longitude     *float64        `json:"longitude,omitempty"`
	Status        JobStatus       `json:"status"         gorm:"type:varchar(16);not null;index:idx_job_status_created,priority:1"`
	FeeCoins      int64           `json:"fee_coins"      gorm:"not null;check:fee_coins > 0"`
	FeeAmount     decimal.Decimal `json:"fee_amount"     gorm:"type:numeric(18,2);not null"`
	Currency      string          `json:"currency"       gorm:"type:varchar(8);not null"`
	InterestCount int64           `json:"interest_count" gorm:"not null;default:0"`
	ContactName   string          `json:"-"              gorm:"type:varchar(128)"`
	ContactPhone  string          `json:"-"              gorm:"type:varchar(32)"`
	ContactEmail  string          `json:"-"              gorm:"type:varchar(255)"`
	CreatedAt     time.Time       `json:"created_at"     gorm:"index:idx_job_status_created,priority:2"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Job.
func (Job) TableName() string { return "jobs" }

// Coordinates returns the job's point when both components are present.
func (j Job) Coordinates() (Coordinates, bool) {
	if j.Latitude == nil || j.Longitude == nil {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: *j.Latitude, Longitude: *j.Longitude}, true
}

// Contact is the customer contact released to a provider that paid for access.
type Contact struct {
	JobID string `json:"job_id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// ContactDetails extracts the releasable contact fields.
func (j Job) ContactDetails() Contact {
	return Contact{JobID: j.ID, Name: j.ContactName, Phone: j.ContactPhone, Email: j.ContactEmail}
}

// Interest (lead) records a provider's interest in a job and its progress
// towards paid contact access. Rows are never deleted.
//
// At most one non-cancelled interest exists per (job, provider); this is
// enforced by a partial unique index created in repo.AutoMigrate.
type Interest struct {
	ID          string              `json:"id"           gorm:"type:char(36);primaryKey"`
	JobID       string              `json:"job_id"       gorm:"type:varchar(16);not null;index:idx_interest_job_status,priority:1"`
	ProviderID  string              `json:"provider_id"  gorm:"type:varchar(64);not null;index"`
	CustomerID  string              `json:"customer_id"  gorm:"type:varchar(64);not null"`
	Status      InterestStatus      `json:"status"       gorm:"type:varchar(20);not null;index:idx_interest_job_status,priority:2"`
	FeeCoins    *int64              `json:"fee_coins,omitempty"`
	FeeAmount   decimal.NullDecimal `json:"fee_amount"   gorm:"type:numeric(18,2)"`
	Currency    *string             `json:"currency,omitempty" gorm:"type:varchar(8)"`
	CreatedAt   time.Time           `json:"created_at"`
	SharedAt    *time.Time          `json:"shared_at,omitempty"`
	PaidAt      *time.Time          `json:"paid_at,omitempty"`
	CancelledAt *time.Time          `json:"cancelled_at,omitempty"`
	CancelledBy *string             `json:"cancelled_by,omitempty" gorm:"type:varchar(64)"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// TableName returns the database table name for Interest.
func (Interest) TableName() string { return "interests" }

// ProviderProfile holds what matching needs to know about a provider.
type ProviderProfile struct {
	UserID         string    `json:"user_id"          gorm:"type:varchar(64);primaryKey"`
	ShortID        string    `json:"short_id"         gorm:"type:varchar(16);not null;uniqueIndex"`
	Skills         []string  `json:"skills"           gorm:"type:text;serializer:json"`
	LocationText   string    `json:"location_text"    gorm:"type:varchar(255)"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	TravelRadiusKm float64   `json:"travel_radius_km" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for ProviderProfile.
func (ProviderProfile) TableName() string { return "provider_profiles" }

// Coordinates returns the provider's home point when both components are present.
func (p ProviderProfile) Coordinates() (Coordinates, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: *p.Latitude, Longitude: *p.Longitude}, true
}

// Wallet is a user's coin balance. It is only ever changed through the
// conditional updates in repo/wallet_repo.go, each paired with a journal row.
type Wallet struct {
	UserID    string    `json:"user_id"    gorm:"type:varchar(64);primaryKey"`
	Balance   int64     `json:"balance"    gorm:"not null;default:0;check:balance >= 0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Wallet.
func (Wallet) TableName() string { return "wallets" }

// TransactionType classifies a coin movement.
type TransactionType string

const (
	TxFunding        TransactionType = "funding"
	TxAccessFee      TransactionType = "access_fee"
	TxReferralReward TransactionType = "referral_reward"
	TxRefund         TransactionType = "refund"
)

// Direction is the sign of a coin movement.
type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// Direction reports whether a transaction type adds or removes coins.
func (t TransactionType) Direction() Direction {
	if t == TxAccessFee {
		return Debit
	}
	return Credit
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TxFunding, TxAccessFee, TxReferralReward, TxRefund:
		return true
	}
	return false
}

// TxStatusCompleted is the only status written today; the column exists so
// pending/reversed entries can be journaled without a migration.
const TxStatusCompleted = "completed"

// WalletTransaction is an immutable journal row. Every balance change is
// committed together with exactly one of these.
type WalletTransaction struct {
	ID           string          `json:"id"            gorm:"type:char(36);primaryKey"`
	WalletID     string          `json:"wallet_id"     gorm:"type:varchar(64);not null;index:idx_wallet_txns,priority:1"`
	Type         TransactionType `json:"type"          gorm:"type:varchar(32);not null;index"`
	Direction    Direction       `json:"direction"     gorm:"type:varchar(8);not null;check:direction IN ('credit','debit')"`
	Coins        int64           `json:"coins"         gorm:"not null;check:coins > 0"`
	Amount       decimal.Decimal `json:"amount"        gorm:"type:numeric(18,2);not null"`
	Currency     string          `json:"currency"      gorm:"type:varchar(8);not null"`
	BalanceAfter int64           `json:"balance_after" gorm:"not null"`
	Status       string          `json:"status"        gorm:"type:varchar(16);not null"`
	Description  string          `json:"description"   gorm:"type:varchar(255)"`
	Reference    *string         `json:"reference,omitempty" gorm:"type:varchar(128);index"`
	CreatedAt    time.Time       `json:"created_at"    gorm:"index:idx_wallet_txns,priority:2"`
}

// TableName returns the database table name for WalletTransaction.
func (WalletTransaction) TableName() string { return "wallet_transactions" }

// Delta is the signed balance change of the row.
func (t WalletTransaction) Delta() int64 {
	if t.Direction == Debit {
		return -t.Coins
	}
	return t.Coins
}

// SequenceCounter is the durable, monotonically increasing counter behind a
// namespace of generated identifiers.
type SequenceCounter struct {
	Namespace string `gorm:"type:varchar(64);primaryKey"`
	Value     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName returns the database table name for SequenceCounter.
func (SequenceCounter) TableName() string { return "sequence_counters" }

// CoordinateCacheEntry is a resolved location held by the resolver cache.
type CoordinateCacheEntry struct {
	Key        string      `json:"key"`
	Point      Coordinates `json:"point"`
	ResolvedAt time.Time   `json:"resolved_at"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e CoordinateCacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.ResolvedAt) < ttl
}
