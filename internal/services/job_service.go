package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/repo"
	"github.com/tbourn/go-leads-backend/internal/sequence"
)

// CoordinateResolver turns free-text locations into coordinates. A false
// result means unknown, never an error.
type CoordinateResolver interface {
	Resolve(ctx context.Context, text string) (domain.Coordinates, bool)
}

// IDAllocator issues identifiers from a named sequence.
type IDAllocator interface {
	Next(ctx context.Context, namespace string, width int, alphabet sequence.Alphabet) (string, error)
}

// JobIDWidth is the width of numeric job ids ("000042").
const JobIDWidth = 6

// JobService posts and manages customer jobs.
type JobService struct {
	DB       *gorm.DB
	Resolver CoordinateResolver // optional
	IDs      IDAllocator
	Rate     decimal.Decimal
	Currency string

	now func() time.Time
}

// NewJobService wires a JobService.
func NewJobService(db *gorm.DB, resolver CoordinateResolver, ids IDAllocator, rate decimal.Decimal, currency string) *JobService {
	return &JobService{DB: db, Resolver: resolver, IDs: ids, Rate: rate, Currency: currency, now: time.Now}
}

// Create validates the input, resolves a location given only as text,
// allocates the job id and stores the job as ACTIVE.
func (s *JobService) Create(ctx context.Context, caller Caller, in domain.JobInput) (*domain.Job, error) {
	ctx, span := otel.Tracer("services/JobService").Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", caller.UserID)),
	)
	defer span.End()

	if !caller.valid() || !caller.Is(RoleCustomer) {
		return nil, ErrForbidden
	}
	in.CustomerID = caller.UserID
	if err := in.Validate(); err != nil {
		return nil, invalid(err)
	}

	if in.Latitude == nil && in.LocationText != "" && s.Resolver != nil {
		if c, ok := s.Resolver.Resolve(ctx, in.LocationText); ok {
			in.Latitude, in.Longitude = &c.Latitude, &c.Longitude
		} else {
			zerolog.Ctx(ctx).Debug().Str("location", in.LocationText).Msg("job location unresolved")
		}
	}

	id, err := s.IDs.Next(ctx, sequence.NamespaceJobs, JobIDWidth, sequence.Decimal)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	job, err := domain.NewJob(id, in, s.Rate, s.Currency, now().UTC())
	if err != nil {
		return nil, invalid(err)
	}
	if err := repo.CreateJob(ctx, s.DB, job); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("job.id", job.ID))
	return job, nil
}

// Get returns a job by id.
func (s *JobService) Get(ctx context.Context, id string) (*domain.Job, error) {
	j, err := repo.GetJob(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	return j, err
}

// Close stops a job from accepting new interests. Existing interests keep
// their state.
func (s *JobService) Close(ctx context.Context, caller Caller, id string) (*domain.Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.UserID != job.CustomerID {
		return nil, ErrForbidden
	}
	n, err := repo.CloseJob(ctx, s.DB, id, caller.UserID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrJobNotActive
	}
	return s.Get(ctx, id)
}

// ListMine returns a page of the caller's jobs, newest first.
func (s *JobService) ListMine(ctx context.Context, caller Caller, page, pageSize int) ([]domain.Job, int64, error) {
	if !caller.valid() {
		return nil, 0, ErrForbidden
	}
	offset, limit := pageBounds(page, pageSize)
	return repo.ListJobsByCustomer(ctx, s.DB, caller.UserID, offset, limit)
}
