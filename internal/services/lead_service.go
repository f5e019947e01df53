// Package services – LeadService
//
// LeadService drives an interest through its lifecycle:
//
//	INTERESTED -> CONTACT_SHARED -> PAID_ACCESS
//	INTERESTED | CONTACT_SHARED -> CANCELLED
//
// Every transition is a compare-and-swap on the stored status; a caller that
// loses a race gets *InvalidStateError carrying the state it lost to. Paying
// for access debits the provider's wallet in the same transaction as the
// status change, so either both happen or neither does.
//
// Notifications go out after commit through a fire-and-forget Dispatcher and
// never affect the result.

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/metrics"
	"github.com/tbourn/go-leads-backend/internal/notify"
	"github.com/tbourn/go-leads-backend/internal/repo"
)

// Dispatcher sends notifications without reporting failures.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID string, event notify.Event, payload map[string]any)
}

// LeadService coordinates interests, job counters and access payments.
type LeadService struct {
	DB     *gorm.DB
	Wallet *WalletService
	Notify Dispatcher
	TTL    time.Duration // idempotency window for PayForAccessOnce

	now func() time.Time
}

// NewLeadService wires a LeadService. n may be nil to disable notifications.
func NewLeadService(db *gorm.DB, wallet *WalletService, n Dispatcher) *LeadService {
	return &LeadService{DB: db, Wallet: wallet, Notify: n, now: time.Now}
}

func (s *LeadService) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

func (s *LeadService) dispatch(ctx context.Context, userID string, event notify.Event, in *domain.Interest) {
	if s.Notify == nil {
		return
	}
	s.Notify.Dispatch(ctx, userID, event, map[string]any{
		"interest_id": in.ID,
		"job_id":      in.JobID,
		"status":      string(in.Status),
	})
}

func countTransition(to domain.InterestStatus, err error) {
	result := metrics.ResultOK
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrAlreadyInterested), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrJobNotActive), errors.Is(err, ErrValidation):
		result = metrics.ResultRejected
	default:
		result = metrics.ResultError
	}
	metrics.LeadTransitions.WithLabelValues(string(to), result).Inc()
}

// PaymentResult is the outcome of a successful access payment.
type PaymentResult struct {
	Interest    *domain.Interest          `json:"interest"`
	Transaction *domain.WalletTransaction `json:"transaction"`
	Replayed    bool                      `json:"replayed"`
}

// InterestPage is a page of interests on a job plus per-status totals.
type InterestPage struct {
	Items  []domain.Interest               `json:"items"`
	Total  int64                           `json:"total"`
	Counts map[domain.InterestStatus]int64 `json:"counts"`
}

// Create records the provider's interest in an active job and bumps the
// job's interest counter. A second live interest for the same pair fails
// with *ConflictError.
func (s *LeadService) Create(ctx context.Context, caller Caller, jobID string) (in *domain.Interest, err error) {
	ctx, span := otel.Tracer("services/LeadService").Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("job.id", jobID),
			attribute.String("user.id", caller.UserID),
		),
	)
	defer span.End()
	defer func() { countTransition(domain.InterestInterested, err) }()

	if !caller.valid() || !caller.Is(RoleProvider) {
		return nil, ErrForbidden
	}
	job, err := repo.GetJob(ctx, s.DB, jobID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobActive {
		return nil, ErrJobNotActive
	}
	in, err = domain.NewInterest(job, caller.UserID, s.clock())
	if err != nil {
		return nil, invalid(err)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := repo.IncrementInterestCount(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrJobNotActive
		}
		return repo.CreateInterest(ctx, tx, in)
	})
	if repo.IsDuplicate(err) {
		conflict := &ConflictError{}
		if live, ferr := repo.FindLiveInterest(ctx, s.DB, jobID, caller.UserID); ferr == nil {
			conflict.ExistingID = live.ID
		}
		return nil, conflict
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.dispatch(ctx, in.CustomerID, notify.EventInterestCreated, in)
	return in, nil
}

// load fetches an interest and maps not-found.
func (s *LeadService) load(ctx context.Context, db *gorm.DB, id string) (*domain.Interest, error) {
	in, err := repo.GetInterest(ctx, db, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInterestNotFound
	}
	return in, err
}

// transition moves id to `to` if it is still in one of to's predecessors.
func (s *LeadService) transition(ctx context.Context, db *gorm.DB, id string, to domain.InterestStatus, extra map[string]any) (*domain.Interest, error) {
	ok, err := repo.TransitionInterest(ctx, db, id, domain.Predecessors(to), to, extra)
	if err != nil {
		return nil, err
	}
	cur, err := s.load(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &InvalidStateError{Current: cur.Status, Target: to}
	}
	return cur, nil
}

// ShareContact lets the job's customer release contact to the provider.
func (s *LeadService) ShareContact(ctx context.Context, caller Caller, interestID string) (out *domain.Interest, err error) {
	ctx, span := otel.Tracer("services/LeadService").Start(ctx, "ShareContact",
		trace.WithAttributes(
			attribute.String("interest.id", interestID),
			attribute.String("user.id", caller.UserID),
		),
	)
	defer span.End()
	defer func() { countTransition(domain.InterestContactShared, err) }()

	in, err := s.load(ctx, s.DB, interestID)
	if err != nil {
		return nil, err
	}
	if !caller.valid() || caller.UserID != in.CustomerID {
		return nil, ErrForbidden
	}
	out, err = s.transition(ctx, s.DB, interestID, domain.InterestContactShared, map[string]any{
		"shared_at": s.clock(),
	})
	if err != nil {
		return nil, err
	}
	s.dispatch(ctx, out.ProviderID, notify.EventContactShared, out)
	return out, nil
}

// PayForAccess charges the provider the job's current fee and moves the
// interest to PAID_ACCESS. The charged fee is copied onto the interest so
// later fee edits do not change it. On insufficient funds nothing changes
// and the error reports the shortfall.
func (s *LeadService) PayForAccess(ctx context.Context, caller Caller, interestID string) (*PaymentResult, error) {
	return s.PayForAccessOnce(ctx, caller, interestID, "")
}

// PayForAccessOnce is PayForAccess guarded by an idempotency key. Repeating a
// completed key returns the original payment with Replayed set.
func (s *LeadService) PayForAccessOnce(ctx context.Context, caller Caller, interestID, key string) (res *PaymentResult, err error) {
	ctx, span := otel.Tracer("services/LeadService").Start(ctx, "PayForAccess",
		trace.WithAttributes(
			attribute.String("interest.id", interestID),
			attribute.String("user.id", caller.UserID),
			attribute.Bool("idempotent", key != ""),
		),
	)
	defer span.End()
	defer func() { countTransition(domain.InterestPaidAccess, err) }()

	in, err := s.load(ctx, s.DB, interestID)
	if err != nil {
		return nil, err
	}
	if !caller.valid() || caller.UserID != in.ProviderID {
		return nil, ErrForbidden
	}

	res = &PaymentResult{}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, replayed, err := once(ctx, tx, s.TTL, caller.UserID, PayScope(interestID), key, func() (string, error) {
			return interestID, s.pay(ctx, tx, in, res)
		})
		if err != nil || !replayed {
			return err
		}
		res.Replayed = true
		if res.Interest, err = s.load(ctx, tx, interestID); err != nil {
			return err
		}
		res.Transaction, err = repo.FindWalletTransactionByReference(ctx, tx, in.ProviderID, payReference(interestID))
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if !res.Replayed {
		s.dispatch(ctx, res.Interest.CustomerID, notify.EventAccessPaid, res.Interest)
	}
	return res, nil
}

func payReference(interestID string) string { return "interest:" + interestID }

// pay performs the CAS with fee snapshot and the wallet debit on tx.
func (s *LeadService) pay(ctx context.Context, tx *gorm.DB, in *domain.Interest, res *PaymentResult) error {
	fee := func(col string) any {
		return gorm.Expr("(SELECT "+col+" FROM jobs WHERE jobs.id = ?)", in.JobID)
	}
	paid, err := s.transition(ctx, tx, in.ID, domain.InterestPaidAccess, map[string]any{
		"paid_at":    s.clock(),
		"fee_coins":  fee("fee_coins"),
		"fee_amount": fee("fee_amount"),
		"currency":   fee("currency"),
	})
	if err != nil {
		return err
	}
	if paid.FeeCoins == nil {
		return fmt.Errorf("job %s has no fee", paid.JobID)
	}
	txn, err := s.Wallet.DebitTx(ctx, tx, Movement{
		UserID:      paid.ProviderID,
		Coins:       *paid.FeeCoins,
		Type:        domain.TxAccessFee,
		Description: fmt.Sprintf("Access fee for job %s", paid.JobID),
		Reference:   payReference(paid.ID),
	})
	if err != nil {
		return err
	}
	res.Interest, res.Transaction = paid, txn
	return nil
}

// Cancel withdraws an interest. Either party may cancel until access is paid.
func (s *LeadService) Cancel(ctx context.Context, caller Caller, interestID string) (out *domain.Interest, err error) {
	ctx, span := otel.Tracer("services/LeadService").Start(ctx, "Cancel",
		trace.WithAttributes(
			attribute.String("interest.id", interestID),
			attribute.String("user.id", caller.UserID),
		),
	)
	defer span.End()
	defer func() { countTransition(domain.InterestCancelled, err) }()

	in, err := s.load(ctx, s.DB, interestID)
	if err != nil {
		return nil, err
	}
	if !caller.valid() || (caller.UserID != in.ProviderID && caller.UserID != in.CustomerID) {
		return nil, ErrForbidden
	}
	out, err = s.transition(ctx, s.DB, interestID, domain.InterestCancelled, map[string]any{
		"cancelled_at": s.clock(),
		"cancelled_by": caller.UserID,
	})
	if err != nil {
		return nil, err
	}

	other := out.CustomerID
	if caller.UserID == out.CustomerID {
		other = out.ProviderID
	}
	s.dispatch(ctx, other, notify.EventInterestCancelled, out)
	return out, nil
}

// Get returns an interest visible to its provider, its customer or an admin.
func (s *LeadService) Get(ctx context.Context, caller Caller, interestID string) (*domain.Interest, error) {
	in, err := s.load(ctx, s.DB, interestID)
	if err != nil {
		return nil, err
	}
	if !caller.Is(RoleAdmin) && caller.UserID != in.ProviderID && caller.UserID != in.CustomerID {
		return nil, ErrForbidden
	}
	return in, nil
}

// Contact returns the customer's contact details once access is paid.
func (s *LeadService) Contact(ctx context.Context, caller Caller, interestID string) (*domain.Contact, error) {
	in, err := s.load(ctx, s.DB, interestID)
	if err != nil {
		return nil, err
	}
	if caller.UserID != in.ProviderID {
		return nil, ErrForbidden
	}
	if in.Status != domain.InterestPaidAccess {
		return nil, &InvalidStateError{Current: in.Status, Target: domain.InterestPaidAccess}
	}
	job, err := repo.GetJob(ctx, s.DB, in.JobID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	c := job.ContactDetails()
	return &c, nil
}

// ListForJob returns a page of interests on a job owned by the caller.
func (s *LeadService) ListForJob(ctx context.Context, caller Caller, jobID string, page, pageSize int) (*InterestPage, error) {
	ctx, span := otel.Tracer("services/LeadService").Start(ctx, "ListForJob",
		trace.WithAttributes(
			attribute.String("job.id", jobID),
			attribute.String("user.id", caller.UserID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	job, err := repo.GetJob(ctx, s.DB, jobID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	if !caller.Is(RoleAdmin) && caller.UserID != job.CustomerID {
		return nil, ErrForbidden
	}
	offset, limit := pageBounds(page, pageSize)
	items, total, err := repo.ListInterestsByJob(ctx, s.DB, jobID, offset, limit)
	if err != nil {
		return nil, err
	}
	counts, err := repo.InterestStatusCounts(ctx, s.DB, jobID)
	if err != nil {
		return nil, err
	}
	return &InterestPage{Items: items, Total: total, Counts: counts}, nil
}

// ListForProvider returns a page of the caller's own interests.
func (s *LeadService) ListForProvider(ctx context.Context, caller Caller, page, pageSize int) ([]domain.Interest, int64, error) {
	if !caller.valid() {
		return nil, 0, ErrForbidden
	}
	offset, limit := pageBounds(page, pageSize)
	return repo.ListInterestsByProvider(ctx, s.DB, caller.UserID, offset, limit)
}
