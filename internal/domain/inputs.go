package domain

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Boundary constructors. Every entity created from caller input passes
// through one of these, so services can assume required fields are present.

var (
	latitudeRule  = []validation.Rule{validation.Min(-90.0), validation.Max(90.0)}
	longitudeRule = []validation.Rule{validation.Min(-180.0), validation.Max(180.0)}
)

// bothOrNeither rejects a half-specified coordinate pair.
func bothOrNeither(lat, lng *float64) validation.RuleFunc {
	return func(any) error {
		if (lat == nil) != (lng == nil) {
			return errors.New("latitude and longitude must be provided together")
		}
		return nil
	}
}

// JobInput is the caller-supplied part of a new job.
type JobInput struct {
	CustomerID   string
	Title        string
	Category     string
	Description  string
	LocationText string
	Latitude     *float64
	Longitude    *float64
	FeeCoins     int64
	ContactName  string
	ContactPhone string
	ContactEmail string
}

// Validate checks required fields and ranges.
func (in *JobInput) Validate() error {
	return validation.ValidateStruct(in,
		validation.Field(&in.CustomerID, validation.Required, validation.Length(1, 64)),
		validation.Field(&in.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Category, validation.Required, validation.Length(1, 128)),
		validation.Field(&in.FeeCoins, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.LocationText, validation.Length(0, 255), validation.By(func(any) error {
			if strings.TrimSpace(in.LocationText) == "" && in.Latitude == nil {
				return errors.New("location text or coordinates required")
			}
			return nil
		})),
		validation.Field(&in.Latitude, append(latitudeRule, validation.By(bothOrNeither(in.Latitude, in.Longitude)))...),
		validation.Field(&in.Longitude, longitudeRule...),
		validation.Field(&in.ContactPhone, validation.Required, validation.Length(3, 32)),
		validation.Field(&in.ContactEmail, is.EmailFormat),
	)
}

// NewJob validates in and builds an ACTIVE job with the given id. The currency
// equivalent of the fee is FeeCoins × rate.
func NewJob(id string, in JobInput, rate decimal.Decimal, currency string, now time.Time) (*Job, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.LocationText = strings.TrimSpace(in.LocationText)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("id: cannot be blank")
	}
	return &Job{
		ID:           id,
		CustomerID:   in.CustomerID,
		Title:        in.Title,
		Category:     in.Category,
		Description:  strings.TrimSpace(in.Description),
		LocationText: in.LocationText,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Status:       JobActive,
		FeeCoins:     in.FeeCoins,
		FeeAmount:    CoinsToAmount(in.FeeCoins, rate),
		Currency:     currency,
		ContactName:  strings.TrimSpace(in.ContactName),
		ContactPhone: strings.TrimSpace(in.ContactPhone),
		ContactEmail: strings.TrimSpace(in.ContactEmail),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NewInterest builds the initial INTERESTED record for providerID on job.
func NewInterest(job *Job, providerID string, now time.Time) (*Interest, error) {
	if job == nil {
		return nil, errors.New("job: cannot be blank")
	}
	err := validation.Errors{
		"job_id":      validation.Validate(job.ID, validation.Required),
		"customer_id": validation.Validate(job.CustomerID, validation.Required),
		"provider_id": validation.Validate(providerID, validation.Required, validation.Length(1, 64)),
	}.Filter()
	if err != nil {
		return nil, err
	}
	if providerID == job.CustomerID {
		return nil, errors.New("provider_id: cannot express interest in own job")
	}
	return &Interest{
		ID:         uuid.NewString(),
		JobID:      job.ID,
		ProviderID: providerID,
		CustomerID: job.CustomerID,
		Status:     InterestInterested,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ProfilePatch carries optional provider profile fields. Nil means "not
// supplied"; see MergeProfile for precedence.
type ProfilePatch struct {
	Skills         []string `json:"skills"`
	LocationText   *string  `json:"location_text"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	TravelRadiusKm *float64 `json:"travel_radius_km"`
}

// Validate checks ranges on supplied fields.
func (p *ProfilePatch) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Skills, validation.Each(validation.Required, validation.Length(1, 64))),
		validation.Field(&p.Latitude, append(latitudeRule, validation.By(bothOrNeither(p.Latitude, p.Longitude)))...),
		validation.Field(&p.Longitude, longitudeRule...),
		validation.Field(&p.TravelRadiusKm, validation.By(positiveRadius), validation.Max(500.0)),
	)
}

// positiveRadius rejects a supplied radius that is not strictly positive.
// ozzo rules skip zero values, so 0 has to be checked here.
func positiveRadius(v any) error {
	r, ok := v.(*float64)
	if !ok || r == nil {
		return nil
	}
	if *r <= 0 {
		return errors.New("must be greater than 0")
	}
	return nil
}

// NewProviderProfile builds a profile from the first patch a provider submits.
func NewProviderProfile(userID, shortID string, patch ProfilePatch, defaultRadiusKm float64, now time.Time) (*ProviderProfile, error) {
	if err := validation.Validate(userID, validation.Required, validation.Length(1, 64)); err != nil {
		return nil, validation.Errors{"user_id": err}
	}
	if err := validation.Validate(shortID, validation.Required); err != nil {
		return nil, validation.Errors{"short_id": err}
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	base := ProviderProfile{
		UserID:         userID,
		ShortID:        shortID,
		Skills:         []string{},
		TravelRadiusKm: defaultRadiusKm,
		CreatedAt:      now,
	}
	merged := MergeProfile(base, patch)
	merged.UpdatedAt = now
	return &merged, nil
}

// MergeProfile applies patch on top of existing. Precedence is field by
// field: an incoming non-nil value wins, otherwise the existing value stays.
// Skills are replaced as a whole (after trimming and de-duplication) when
// supplied; coordinates are only taken as a pair.
func MergeProfile(existing ProviderProfile, patch ProfilePatch) ProviderProfile {
	out := existing
	if patch.Skills != nil {
		out.Skills = normalizeSkills(patch.Skills)
	}
	if patch.LocationText != nil {
		out.LocationText = strings.TrimSpace(*patch.LocationText)
	}
	if patch.Latitude != nil && patch.Longitude != nil {
		lat, lng := *patch.Latitude, *patch.Longitude
		out.Latitude, out.Longitude = &lat, &lng
	}
	if patch.TravelRadiusKm != nil {
		out.TravelRadiusKm = *patch.TravelRadiusKm
	}
	return out
}

func normalizeSkills(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// NewWalletTransaction builds a completed journal row. The direction is
// derived from typ.
func NewWalletTransaction(walletID string, typ TransactionType, coins int64, rate decimal.Decimal, currency string, balanceAfter int64, description string, reference *string, now time.Time) (*WalletTransaction, error) {
	err := validation.Errors{
		"wallet_id":   validation.Validate(walletID, validation.Required),
		"coins":       validation.Validate(coins, validation.Required, validation.Min(int64(1))),
		"description": validation.Validate(description, validation.Length(0, 255)),
		"type": validation.Validate(string(typ), validation.Required, validation.In(
			string(TxFunding), string(TxAccessFee), string(TxReferralReward), string(TxRefund))),
	}.Filter()
	if err != nil {
		return nil, err
	}
	return &WalletTransaction{
		ID:           uuid.NewString(),
		WalletID:     walletID,
		Type:         typ,
		Direction:    typ.Direction(),
		Coins:        coins,
		Amount:       CoinsToAmount(coins, rate),
		Currency:     currency,
		BalanceAfter: balanceAfter,
		Status:       TxStatusCompleted,
		Description:  description,
		Reference:    reference,
		CreatedAt:    now,
	}, nil
}

// CoinsToAmount converts coins to the currency equivalent, rounded to cents.
func CoinsToAmount(coins int64, rate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(coins).Mul(rate).Round(2)
}
