package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

func TestJob_CreateAllocatesIDAndResolvesLocation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	job, err := e.jobs.Create(ctx, customer, jobInput("Plumbing", "Ikeja, Lagos", 10))
	require.NoError(t, err)
	assert.Equal(t, "000001", job.ID)
	assert.Equal(t, customer.UserID, job.CustomerID)
	assert.Equal(t, domain.JobActive, job.Status)
	assert.True(t, job.FeeAmount.Equal(decimal.NewFromInt(500)))

	pt, ok := job.Coordinates()
	require.True(t, ok, "gazetteer resolves Ikeja")
	assert.InDelta(t, 6.6018, pt.Latitude, 1e-9)

	next, err := e.jobs.Create(ctx, customer, jobInput("Tiling", "somewhere unmapped", 3))
	require.NoError(t, err)
	assert.Equal(t, "000002", next.ID)
	_, ok = next.Coordinates()
	assert.False(t, ok, "unresolved location is stored without coordinates")
}

func TestJob_CreateKeepsExplicitCoordinates(t *testing.T) {
	e := newEnv(t)
	lat, lng := 7.0, 4.0
	in := jobInput("Painting", "Lagos", 5)
	in.Latitude, in.Longitude = &lat, &lng

	job, err := e.jobs.Create(context.Background(), customer, in)
	require.NoError(t, err)
	pt, _ := job.Coordinates()
	assert.Equal(t, domain.Coordinates{Latitude: 7, Longitude: 4}, pt)
}

func TestJob_CreateRejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.jobs.Create(ctx, provider, jobInput("Plumbing", "Lagos", 10))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.jobs.Create(ctx, customer, jobInput("Plumbing", "Lagos", 0))
	assert.ErrorIs(t, err, ErrValidation)

	job, err := e.jobs.Create(ctx, customer, jobInput("Plumbing", "Lagos", 10))
	require.NoError(t, err)
	assert.Equal(t, "000001", job.ID, "invalid input never allocates a job id")
}

func TestJob_CloseAndListMine(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.postJob(t, 10)
	e.postJob(t, 10)

	_, err := e.jobs.Close(ctx, Caller{UserID: "cust-2", Role: RoleCustomer}, a.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	closed, err := e.jobs.Close(ctx, customer, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobClosed, closed.Status)
	_, err = e.jobs.Close(ctx, customer, a.ID)
	assert.ErrorIs(t, err, ErrJobNotActive)

	_, err = e.jobs.Get(ctx, "424242")
	assert.ErrorIs(t, err, ErrJobNotFound)

	items, total, err := e.jobs.ListMine(ctx, customer, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 1)
}
