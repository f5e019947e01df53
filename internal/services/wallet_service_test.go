package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-leads-backend/internal/domain"
	"github.com/tbourn/go-leads-backend/internal/metrics"
)

func TestWallet_CreditCreatesWalletAndJournals(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	w, err := e.wallet.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, w.Balance, "untouched wallet reads as zero")

	txn, err := e.wallet.Credit(ctx, Movement{UserID: "u1", Coins: 12, Type: domain.TxFunding, Reference: "pay-ref-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.Credit, txn.Direction)
	assert.Equal(t, int64(12), txn.BalanceAfter)
	assert.True(t, txn.Amount.Equal(decimal.NewFromInt(600)), "12 coins at 50 = 600, got %s", txn.Amount)
	assert.Equal(t, "NGN", txn.Currency)
	require.NotNil(t, txn.Reference)
	assert.Equal(t, "pay-ref-1", *txn.Reference)

	w, err = e.wallet.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), w.Balance)
}

func TestWallet_RejectsBadMovements(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		fn   func() error
	}{
		{"zero credit", func() error {
			_, err := e.wallet.Credit(ctx, Movement{UserID: "u1", Coins: 0, Type: domain.TxFunding})
			return err
		}},
		{"negative debit", func() error {
			_, err := e.wallet.Debit(ctx, Movement{UserID: "u1", Coins: -3, Type: domain.TxAccessFee})
			return err
		}},
		{"debit type on credit", func() error {
			_, err := e.wallet.Credit(ctx, Movement{UserID: "u1", Coins: 3, Type: domain.TxAccessFee})
			return err
		}},
		{"credit type on debit", func() error {
			_, err := e.wallet.Debit(ctx, Movement{UserID: "u1", Coins: 3, Type: domain.TxRefund})
			return err
		}},
		{"unknown type", func() error {
			_, err := e.wallet.Credit(ctx, Movement{UserID: "u1", Coins: 3, Type: "gift"})
			return err
		}},
		{"blank user", func() error {
			_, err := e.wallet.Credit(ctx, Movement{Coins: 3, Type: domain.TxFunding})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.fn(), ErrValidation)
		})
	}

	var n int64
	require.NoError(t, e.db.Model(&domain.WalletTransaction{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestWallet_InsufficientFundsChangesNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.fund(t, "u1", 5)

	before := testutil.ToFloat64(metrics.WalletOps.WithLabelValues("debit", "access_fee", metrics.ResultRejected))
	_, err := e.wallet.Debit(ctx, Movement{UserID: "u1", Coins: 10, Type: domain.TxAccessFee})

	var short *InsufficientFundsError
	require.True(t, errors.As(err, &short), "got %v", err)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(5), short.Balance)
	assert.Equal(t, int64(10), short.Required)
	assert.Equal(t, int64(5), short.Shortfall)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.WalletOps.WithLabelValues("debit", "access_fee", metrics.ResultRejected)))

	w, _ := e.wallet.Balance(ctx, "u1")
	assert.Equal(t, int64(5), w.Balance)
	_, total, err := e.wallet.History(ctx, "u1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "only the funding row")
}

func TestWallet_DebitOnMissingWalletIsShortByFullAmount(t *testing.T) {
	e := newEnv(t)
	_, err := e.wallet.Debit(context.Background(), Movement{UserID: "ghost", Coins: 4, Type: domain.TxAccessFee})
	var short *InsufficientFundsError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, int64(4), short.Shortfall)

	var n int64
	require.NoError(t, e.db.Model(&domain.Wallet{}).Count(&n).Error)
	assert.Zero(t, n, "rolled back lazy creation")
}

func TestWallet_ConcurrentDebitsExactlyOneWins(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.fund(t, "u1", 10)

	const workers = 4
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.wallet.Debit(ctx, Movement{UserID: "u1", Coins: 10, Type: domain.TxAccessFee})
		}(i)
	}
	wg.Wait()

	ok, short := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientFunds):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, short)

	bal, journal, err := e.wallet.Reconcile(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, bal)
	assert.Equal(t, bal, journal)
}

func TestWallet_HistoryAndSummary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.fund(t, "u1", 20)
	_, err := e.wallet.Credit(ctx, Movement{UserID: "u1", Coins: 5, Type: domain.TxReferralReward})
	require.NoError(t, err)
	_, err = e.wallet.Debit(ctx, Movement{UserID: "u1", Coins: 7, Type: domain.TxAccessFee})
	require.NoError(t, err)

	items, total, err := e.wallet.History(ctx, "u1", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 2)

	sum, err := e.wallet.Summary(ctx, "u1")
	require.NoError(t, err)
	byType := map[domain.TransactionType]int64{}
	for _, tt := range sum {
		byType[tt.Type] = tt.Coins
	}
	assert.Equal(t, int64(7), byType[domain.TxAccessFee])
	assert.Equal(t, int64(20), byType[domain.TxFunding])
	assert.Equal(t, int64(5), byType[domain.TxReferralReward])

	bal, journal, err := e.wallet.Reconcile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(18), bal)
	assert.Equal(t, bal, journal)
}
