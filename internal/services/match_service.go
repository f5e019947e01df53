// Package services – MatchService
//
// MatchService finds open jobs for a provider. Candidates are jobs whose
// category or title contains one of the provider's skills. When the provider
// has a home point, candidates with coordinates are kept only inside the
// travel radius and ordered by distance; candidates without coordinates get
// one resolver attempt and are never dropped: if they cannot be placed inside
// the radius they follow in an "unknown distance" group ordered by recency.
// A provider without a home point gets plain skill matches by recency.

package services

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/geo"
	"github.com/tbourn/go-leads-backend/internal/repo"
)

// MatchKind says how a job was matched.
type MatchKind string

const (
	MatchDistance  MatchKind = "distance"
	MatchUnknown   MatchKind = "unknown"
	MatchSkillOnly MatchKind = "skill_only"
)

// DefaultScanLimit caps how many candidate jobs one listing examines.
const DefaultScanLimit = 500

// JobMatch is one job in a provider's feed.
type JobMatch struct {
	Job        domain.Job `json:"job"`
	DistanceKm *float64   `json:"distance_km"`
	Match      MatchKind  `json:"match"`
}

// MatchPage is a page of the provider's feed. Total counts matches among
// the scanned candidates only; Truncated is set when the scan hit its limit
// and older jobs were not considered.
type MatchPage struct {
	Items     []JobMatch `json:"items"`
	Total     int        `json:"total"`
	Truncated bool       `json:"truncated"`
}

// MatchService ranks jobs for providers.
type MatchService struct {
	DB        *gorm.DB
	Resolver  CoordinateResolver // optional
	ScanLimit int
}

// NewMatchService wires a MatchService. scanLimit <= 0 selects DefaultScanLimit.
func NewMatchService(db *gorm.DB, resolver CoordinateResolver, scanLimit int) *MatchService {
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}
	return &MatchService{DB: db, Resolver: resolver, ScanLimit: scanLimit}
}

// JobsForProvider returns the caller's feed.
func (s *MatchService) JobsForProvider(ctx context.Context, caller Caller, page, pageSize int) (*MatchPage, error) {
	ctx, span := otel.Tracer("services/MatchService").Start(ctx, "JobsForProvider",
		trace.WithAttributes(
			attribute.String("user.id", caller.UserID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if !caller.valid() || !caller.Is(RoleProvider) {
		return nil, ErrForbidden
	}
	profile, err := repo.GetProfile(ctx, s.DB, caller.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	limit := s.ScanLimit
	if limit <= 0 {
		limit = DefaultScanLimit
	}
	candidates, err := repo.ListActiveJobsBySkills(ctx, s.DB, profile.Skills, limit)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	all := s.Match(ctx, *profile, candidates)
	span.SetAttributes(attribute.Int("match.candidates", len(candidates)), attribute.Int("match.kept", len(all)))

	offset, size := pageBounds(page, pageSize)
	out := &MatchPage{Items: []JobMatch{}, Total: len(all), Truncated: len(candidates) >= limit}
	if out.Truncated {
		span.SetAttributes(attribute.Bool("match.truncated", true))
	}
	if offset < len(all) {
		end := offset + size
		if end > len(all) {
			end = len(all)
		}
		out.Items = all[offset:end]
	}
	return out, nil
}

// Match ranks candidates, which must already be skill-filtered and ordered
// newest first, for profile.
func (s *MatchService) Match(ctx context.Context, profile domain.ProviderProfile, candidates []domain.Job) []JobMatch {
	home, ok := profile.Coordinates()
	if !ok {
		out := make([]JobMatch, 0, len(candidates))
		for _, j := range candidates {
			out = append(out, JobMatch{Job: j, Match: MatchSkillOnly})
		}
		return out
	}

	radius := profile.TravelRadiusKm
	if radius <= 0 {
		radius = DefaultRadiusKm
	}
	var near, unknown []JobMatch
	for _, j := range candidates {
		at, explicit := j.Coordinates()
		if !explicit && s.Resolver != nil && j.LocationText != "" {
			at, ok = s.Resolver.Resolve(ctx, j.LocationText)
		} else {
			ok = explicit
		}
		if !ok {
			unknown = append(unknown, JobMatch{Job: j, Match: MatchUnknown})
			continue
		}
		d := geo.Distance(home, at)
		switch {
		case d <= radius:
			near = append(near, JobMatch{Job: j, DistanceKm: &d, Match: MatchDistance})
		case !explicit:
			unknown = append(unknown, JobMatch{Job: j, Match: MatchUnknown})
		}
	}

	sort.SliceStable(near, func(a, b int) bool { return *near[a].DistanceKm < *near[b].DistanceKm })
	return append(near, unknown...)
}
