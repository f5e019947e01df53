// Package services – WalletService
//
// WalletService is the coin ledger. Every balance change is a conditional
// UPDATE paired with exactly one journal row in the same transaction, so a
// failed journal insert leaves the balance untouched and two debits racing
// for the same coins cannot both succeed.
//
// The *Tx variants join a caller's transaction; LeadService uses DebitTx to
// charge the access fee atomically with the PAID_ACCESS transition.

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/metrics"
	"github.com/tbourn/go-leads-backend/internal/repo"
)

// WalletService owns wallet balances and their journal.
type WalletService struct {
	DB       *gorm.DB
	Rate     decimal.Decimal // currency per coin
	Currency string
	TTL      time.Duration // idempotency window for CreditOnce

	now func() time.Time
}

// NewWalletService builds a WalletService converting coins at rate into currency.
func NewWalletService(db *gorm.DB, rate decimal.Decimal, currency string) *WalletService {
	return &WalletService{DB: db, Rate: rate, Currency: currency, now: time.Now}
}

func (s *WalletService) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

// Movement describes one requested coin movement.
type Movement struct {
	UserID      string
	Coins       int64
	Type        domain.TransactionType
	Description string
	Reference   string
}

func (m Movement) reference() *string {
	if m.Reference == "" {
		return nil
	}
	r := m.Reference
	return &r
}

func (m Movement) check(want domain.Direction) error {
	switch {
	case m.UserID == "":
		return invalid(errors.New("user_id: cannot be blank"))
	case m.Coins <= 0:
		return invalid(errors.New("coins: must be positive"))
	case !m.Type.Valid():
		return invalid(fmt.Errorf("type: unknown transaction type %q", m.Type))
	case m.Type.Direction() != want:
		return invalid(fmt.Errorf("type: %s is not a %s", m.Type, want))
	}
	return nil
}

// Credit adds coins to a wallet, creating it on first use.
func (s *WalletService) Credit(ctx context.Context, m Movement) (*domain.WalletTransaction, error) {
	var out *domain.WalletTransaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = s.CreditTx(ctx, tx, m)
		return err
	})
	return out, err
}

// CreditOnce is Credit guarded by an idempotency key chosen by issuerID. A
// repeated key returns the original journal row with replayed set and moves
// no coins.
func (s *WalletService) CreditOnce(ctx context.Context, issuerID, key string, m Movement) (txn *domain.WalletTransaction, replayed bool, err error) {
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, again, err := once(ctx, tx, s.TTL, issuerID, CreditScope(m.UserID), key, func() (string, error) {
			t, err := s.CreditTx(ctx, tx, m)
			if err != nil {
				return "", err
			}
			txn = t
			return t.ID, nil
		})
		if err != nil || !again {
			return err
		}
		replayed = true
		txn, err = repo.GetWalletTransaction(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return txn, replayed, nil
}

// CreditTx is Credit inside an existing transaction.
func (s *WalletService) CreditTx(ctx context.Context, tx *gorm.DB, m Movement) (*domain.WalletTransaction, error) {
	ctx, span := otel.Tracer("services/WalletService").Start(ctx, "Credit",
		trace.WithAttributes(
			attribute.String("user.id", m.UserID),
			attribute.Int64("coins", m.Coins),
			attribute.String("tx.type", string(m.Type)),
		),
	)
	defer span.End()

	if err := m.check(domain.Credit); err != nil {
		return nil, err
	}
	txn, err := s.apply(ctx, tx, m, func() error {
		if err := repo.EnsureWallet(ctx, tx, m.UserID); err != nil {
			return err
		}
		return repo.AddBalance(ctx, tx, m.UserID, m.Coins)
	})
	observe(domain.Credit, m.Type, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return txn, nil
}

// Debit removes coins from a wallet. It fails with *InsufficientFundsError
// when the balance is short and then changes nothing.
func (s *WalletService) Debit(ctx context.Context, m Movement) (*domain.WalletTransaction, error) {
	var out *domain.WalletTransaction
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = s.DebitTx(ctx, tx, m)
		return err
	})
	return out, err
}

// DebitTx is Debit inside an existing transaction. On insufficient funds the
// caller must roll back.
func (s *WalletService) DebitTx(ctx context.Context, tx *gorm.DB, m Movement) (*domain.WalletTransaction, error) {
	ctx, span := otel.Tracer("services/WalletService").Start(ctx, "Debit",
		trace.WithAttributes(
			attribute.String("user.id", m.UserID),
			attribute.Int64("coins", m.Coins),
			attribute.String("tx.type", string(m.Type)),
		),
	)
	defer span.End()

	if err := m.check(domain.Debit); err != nil {
		return nil, err
	}
	txn, err := s.apply(ctx, tx, m, func() error {
		if err := repo.EnsureWallet(ctx, tx, m.UserID); err != nil {
			return err
		}
		ok, err := repo.SubtractBalance(ctx, tx, m.UserID, m.Coins)
		if err != nil || ok {
			return err
		}
		w, err := repo.GetWallet(ctx, tx, m.UserID)
		if err != nil {
			return err
		}
		return &InsufficientFundsError{Balance: w.Balance, Required: m.Coins, Shortfall: m.Coins - w.Balance}
	})
	observe(domain.Debit, m.Type, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return txn, nil
}

// apply runs mutate and journals the result on tx.
func (s *WalletService) apply(ctx context.Context, tx *gorm.DB, m Movement, mutate func() error) (*domain.WalletTransaction, error) {
	if err := mutate(); err != nil {
		return nil, err
	}
	w, err := repo.GetWallet(ctx, tx, m.UserID)
	if err != nil {
		return nil, err
	}
	txn, err := domain.NewWalletTransaction(m.UserID, m.Type, m.Coins, s.Rate, s.Currency, w.Balance, m.Description, m.reference(), s.clock())
	if err != nil {
		return nil, invalid(err)
	}
	if err := repo.InsertWalletTransaction(ctx, tx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func observe(dir domain.Direction, typ domain.TransactionType, err error) {
	result := metrics.ResultOK
	switch {
	case errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrValidation):
		result = metrics.ResultRejected
	case err != nil:
		result = metrics.ResultError
	}
	metrics.WalletOps.WithLabelValues(string(dir), string(typ), result).Inc()
}

// Balance returns the user's wallet. A wallet that was never touched reads as
// zero without being created.
func (s *WalletService) Balance(ctx context.Context, userID string) (*domain.Wallet, error) {
	w, err := repo.GetWallet(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return &domain.Wallet{UserID: userID}, nil
	}
	return w, err
}

// History returns a page of the user's journal, newest first.
func (s *WalletService) History(ctx context.Context, userID string, page, pageSize int) ([]domain.WalletTransaction, int64, error) {
	ctx, span := otel.Tracer("services/WalletService").Start(ctx, "History",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	offset, limit := pageBounds(page, pageSize)
	return repo.ListWalletTransactions(ctx, s.DB, userID, offset, limit)
}

// Summary returns journal totals per transaction type.
func (s *WalletService) Summary(ctx context.Context, userID string) ([]repo.TypeTotal, error) {
	return repo.WalletTypeTotals(ctx, s.DB, userID)
}

// Reconcile compares the stored balance with the signed journal sum. The two
// are equal for every wallet unless the ledger has been tampered with.
func (s *WalletService) Reconcile(ctx context.Context, userID string) (balance, journal int64, err error) {
	w, err := s.Balance(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	journal, err = repo.SumWalletDeltas(ctx, s.DB, userID)
	return w.Balance, journal, err
}
