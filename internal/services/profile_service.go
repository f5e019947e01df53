package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/repo"
	"github.com/tbourn/go-leads-backend/internal/sequence"
)

const (
	// ShortIDWidth is the width of provider short codes ("00A7K2").
	ShortIDWidth = 6

	DefaultRadiusKm = 25.0
)

// ProfileService maintains provider profiles.
type ProfileService struct {
	DB              *gorm.DB
	Resolver        CoordinateResolver // optional
	IDs             IDAllocator
	DefaultRadiusKm float64

	now func() time.Time
}

// NewProfileService wires a ProfileService. radiusKm <= 0 selects DefaultRadiusKm.
func NewProfileService(db *gorm.DB, resolver CoordinateResolver, ids IDAllocator, radiusKm float64) *ProfileService {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return &ProfileService{DB: db, Resolver: resolver, IDs: ids, DefaultRadiusKm: radiusKm, now: time.Now}
}

func (s *ProfileService) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

// Upsert creates the caller's profile or merges patch into the existing one.
// A new location text without coordinates is resolved; if it cannot be,
// stale coordinates are cleared rather than kept.
func (s *ProfileService) Upsert(ctx context.Context, caller Caller, patch domain.ProfilePatch) (*domain.ProviderProfile, error) {
	ctx, span := otel.Tracer("services/ProfileService").Start(ctx, "Upsert",
		trace.WithAttributes(attribute.String("user.id", caller.UserID)),
	)
	defer span.End()

	if !caller.valid() || !caller.Is(RoleProvider) {
		return nil, ErrForbidden
	}
	if err := patch.Validate(); err != nil {
		return nil, invalid(err)
	}

	existing, err := repo.GetProfile(ctx, s.DB, caller.UserID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		p, err := s.create(ctx, caller.UserID, patch)
		if !repo.IsDuplicate(err) {
			return p, err
		}
		// Lost a race with a concurrent first upsert; merge into the winner.
		if existing, err = repo.GetProfile(ctx, s.DB, caller.UserID); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	merged := domain.MergeProfile(*existing, patch)
	if patch.LocationText != nil && patch.Latitude == nil && merged.LocationText != existing.LocationText {
		merged.Latitude, merged.Longitude = nil, nil
		s.locate(ctx, &merged)
	}
	merged.UpdatedAt = s.clock()
	if err := repo.UpdateProfile(ctx, s.DB, &merged); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &merged, nil
}

func (s *ProfileService) create(ctx context.Context, userID string, patch domain.ProfilePatch) (*domain.ProviderProfile, error) {
	shortID, err := s.IDs.Next(ctx, sequence.NamespaceUsersShortID, ShortIDWidth, sequence.Base36)
	if err != nil {
		return nil, err
	}
	p, err := domain.NewProviderProfile(userID, shortID, patch, s.DefaultRadiusKm, s.clock())
	if err != nil {
		return nil, invalid(err)
	}
	if p.Latitude == nil {
		s.locate(ctx, p)
	}
	if err := repo.CreateProfile(ctx, s.DB, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileService) locate(ctx context.Context, p *domain.ProviderProfile) {
	if s.Resolver == nil || p.LocationText == "" {
		return
	}
	if c, ok := s.Resolver.Resolve(ctx, p.LocationText); ok {
		p.Latitude, p.Longitude = &c.Latitude, &c.Longitude
	}
}

// Get returns a provider profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.ProviderProfile, error) {
	p, err := repo.GetProfile(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return p, err
}
