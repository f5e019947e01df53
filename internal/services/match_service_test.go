package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/repo"
)

type mapResolver map[string]domain.Coordinates

func (m mapResolver) Resolve(_ context.Context, text string) (domain.Coordinates, bool) {
	c, ok := m[text]
	return c, ok
}

func at(lat, lng float64) (*float64, *float64) { return &lat, &lng }

func matchJob(id, location string, created time.Time, coords ...float64) domain.Job {
	j := domain.Job{ID: id, LocationText: location, CreatedAt: created}
	if len(coords) == 2 {
		j.Latitude, j.Longitude = at(coords[0], coords[1])
	}
	return j
}

func TestMatch_OrdersByDistanceThenUnknownByRecency(t *testing.T) {
	svc := &MatchService{Resolver: mapResolver{
		"Ikeja": {Latitude: 6.6018, Longitude: 3.3515},
		"Abuja": {Latitude: 9.0765, Longitude: 7.3986},
		"Yaba":  {Latitude: 6.5095, Longitude: 3.3711},
	}}
	lat, lng := at(6.5244, 3.3792)
	profile := domain.ProviderProfile{Latitude: lat, Longitude: lng, TravelRadiusKm: 10}
	now := time.Now()

	// newest first, as the repository returns them
	candidates := []domain.Job{
		matchJob("000006", "Mars", now),
		matchJob("000005", "Abuja", now.Add(-time.Minute)),
		matchJob("000004", "", now.Add(-2*time.Minute), 9.0765, 7.3986),
		matchJob("000003", "Yaba", now.Add(-3*time.Minute)),
		matchJob("000002", "Ikeja", now.Add(-4*time.Minute), 6.6018, 3.3515),
		matchJob("000001", "", now.Add(-5*time.Minute)),
	}
	got := svc.Match(context.Background(), profile, candidates)

	var ids []string
	for _, m := range got {
		ids = append(ids, m.Job.ID)
	}
	assert.Equal(t, []string{"000003", "000002", "000006", "000005", "000001"}, ids,
		"explicit far job dropped, jobs without coordinates never dropped")

	assert.Equal(t, MatchDistance, got[1].Match)
	require.NotNil(t, got[1].DistanceKm)
	assert.InDelta(t, 9.13, *got[1].DistanceKm, 0.01)
	for _, m := range got[2:] {
		assert.Equal(t, MatchUnknown, m.Match)
		assert.Nil(t, m.DistanceKm)
	}
}

func TestMatch_RadiusIsInclusive(t *testing.T) {
	svc := &MatchService{}
	lat, lng := at(6.5244, 3.3792)
	job := matchJob("000001", "", time.Now(), 6.6018, 3.3515)

	in := svc.Match(context.Background(), domain.ProviderProfile{Latitude: lat, Longitude: lng, TravelRadiusKm: 9.2}, []domain.Job{job})
	assert.Len(t, in, 1)
	out := svc.Match(context.Background(), domain.ProviderProfile{Latitude: lat, Longitude: lng, TravelRadiusKm: 9}, []domain.Job{job})
	assert.Empty(t, out)
}

func TestMatch_ProviderWithoutHomeFallsBackToSkills(t *testing.T) {
	svc := &MatchService{Resolver: mapResolver{}}
	now := time.Now()
	candidates := []domain.Job{
		matchJob("000002", "", now, 9.0765, 7.3986),
		matchJob("000001", "Mars", now.Add(-time.Minute)),
	}
	got := svc.Match(context.Background(), domain.ProviderProfile{TravelRadiusKm: 1}, candidates)
	require.Len(t, got, 2)
	assert.Equal(t, "000002", got[0].Job.ID)
	for _, m := range got {
		assert.Equal(t, MatchSkillOnly, m.Match)
		assert.Nil(t, m.DistanceKm)
	}
}

func TestMatch_JobsForProviderEndToEnd(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.match.JobsForProvider(ctx, provider, 1, 10)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	_, err = e.profiles.Upsert(ctx, provider, domain.ProfilePatch{
		Skills:         []string{"plumb"},
		LocationText:   strp("Lagos"),
		TravelRadiusKm: fp(10),
	})
	require.NoError(t, err)

	near, err := e.jobs.Create(ctx, customer, jobInput("Plumbing", "Ikeja", 10))
	require.NoError(t, err)
	_, err = e.jobs.Create(ctx, customer, jobInput("Plumbing", "Abuja", 10))
	require.NoError(t, err)
	_, err = e.jobs.Create(ctx, customer, jobInput("Electrical", "Yaba", 10))
	require.NoError(t, err)
	// stored without coordinates, e.g. posted before the gazetteer knew the place
	unknown := &domain.Job{
		ID: "900001", CustomerID: customer.UserID, Title: "Burst pipe", Category: "Plumbing",
		LocationText: "Mushin", Status: domain.JobActive, FeeCoins: 5, Currency: "NGN",
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateJob(ctx, e.db, unknown))

	page, err := e.match.JobsForProvider(ctx, provider, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, near.ID, page.Items[0].Job.ID)
	assert.InDelta(t, 9.13, *page.Items[0].DistanceKm, 0.01)
	assert.Equal(t, unknown.ID, page.Items[1].Job.ID)
	assert.Equal(t, MatchUnknown, page.Items[1].Match)

	second, err := e.match.JobsForProvider(ctx, provider, 2, 1)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, unknown.ID, second.Items[0].Job.ID)

	beyond, err := e.match.JobsForProvider(ctx, provider, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)

	_, err = e.match.JobsForProvider(ctx, customer, 1, 10)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestMatch_ScanLimitReportsTruncation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.profiles.Upsert(ctx, provider, domain.ProfilePatch{
		Skills:         []string{"Plumbing"},
		LocationText:   strp("Lagos"),
		TravelRadiusKm: fp(50),
	})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := e.jobs.Create(ctx, customer, jobInput("Plumbing", "Ikeja", 10))
		require.NoError(t, err)
	}

	capped := NewMatchService(e.db, nil, 2)
	page, err := capped.JobsForProvider(ctx, provider, 1, 10)
	require.NoError(t, err)
	assert.True(t, page.Truncated)
	assert.Equal(t, 2, page.Total)

	full, err := NewMatchService(e.db, nil, 10).JobsForProvider(ctx, provider, 1, 10)
	require.NoError(t, err)
	assert.False(t, full.Truncated)
	assert.Equal(t, 3, full.Total)
}
