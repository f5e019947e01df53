package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

func TestDistanceKm_Properties(t *testing.T) {
	a := domain.Coordinates{Latitude: 6.5244, Longitude: 3.3792}
	b := domain.Coordinates{Latitude: 4.8156, Longitude: 7.0498}

	assert.Equal(t, 0.0, Distance(a, a))
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
	// Lagos to Port Harcourt is roughly 450 km as the crow flies.
	assert.InDelta(t, 448, Distance(a, b), 10)
}

func TestWithinRadius_LagosIkeja(t *testing.T) {
	job := domain.Coordinates{Latitude: 6.5244, Longitude: 3.3792}
	provider := domain.Coordinates{Latitude: 6.6018, Longitude: 3.3515}

	d := Distance(job, provider)
	assert.InDelta(t, 9.1, d, 0.5)
	assert.True(t, WithinRadius(provider, job, 10))
	assert.False(t, WithinRadius(provider, job, 5))
}

func TestDistanceKm_OneDegreeOfLatitude(t *testing.T) {
	assert.InDelta(t, 111.19, DistanceKm(0, 0, 1, 0), 0.01)
}
