package balance

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
	"github.com/ledgerdesk/ledgerdesk/internal/ledger"
	"github.com/ledgerdesk/ledgerdesk/internal/observability"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// TransactionReader provides the history reads the engine accumulates over.
// ledger.Repository satisfies it.
type TransactionReader interface {
	ManualForAccount(ctx context.Context, kind accounts.Kind, accountID string) ([]ledger.ManualTransaction, error)
	LedgerForBank(ctx context.Context, bankID string) ([]ledger.LedgerTransaction, error)
	LedgerForWebsite(ctx context.Context, websiteID string) ([]ledger.LedgerTransaction, error)
	IntroducerForUser(ctx context.Context, introducerID string) ([]ledger.IntroducerTransaction, error)
	UserNet(ctx context.Context, userID string) (decimal.Decimal, error)
}

// IntroducerReader resolves the introducer record whose name keys referral
// matching. accounts.Repository satisfies it.
type IntroducerReader interface {
	GetIntroducer(ctx context.Context, id string) (accounts.IntroducerUser, error)
}

// Referral names one matched introducer slot on a referred user.
type Referral struct {
	UserID     string
	Percentage decimal.Decimal
}

// ReferralReader finds users carrying an introducer's name in any slot.
type ReferralReader interface {
	UsersReferredBy(ctx context.Context, introducerName string) ([]Referral, error)
}

// Service computes balances on demand. Concurrent computations for the same
// key are collapsed through singleflight; the result may be a slightly stale
// snapshot, which is acceptable for a derived read-only quantity.
type Service struct {
	txs         TransactionReader
	introducers IntroducerReader
	referrals   ReferralReader
	group       singleflight.Group
	metrics     *observability.Metrics
}

// NewService builds a Service instance.
func NewService(txs TransactionReader, introducers IntroducerReader, referrals ReferralReader, metrics *observability.Metrics) *Service {
	return &Service{txs: txs, introducers: introducers, referrals: referrals, metrics: metrics}
}

// Compute returns the account's current balance. An unknown account id yields
// zero over empty history; existence is reported by the caller, not here.
func (s *Service) Compute(ctx context.Context, kind accounts.Kind, accountID string) (decimal.Decimal, error) {
	if !kind.Valid() {
		return decimal.Zero, fmt.Errorf("%w: unknown account kind %q", shared.ErrValidation, kind)
	}
	key := string(kind) + "/" + accountID
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.compute(ctx, kind, accountID)
	})
	if err != nil {
		return decimal.Zero, err
	}
	s.metrics.CountBalance()
	return v.(decimal.Decimal), nil
}

func (s *Service) compute(ctx context.Context, kind accounts.Kind, accountID string) (decimal.Decimal, error) {
	switch kind {
	case accounts.KindBank:
		manual, err := s.txs.ManualForAccount(ctx, kind, accountID)
		if err != nil {
			return decimal.Zero, err
		}
		txs, err := s.txs.LedgerForBank(ctx, accountID)
		if err != nil {
			return decimal.Zero, err
		}
		return BankSum(manual, txs), nil
	case accounts.KindWebsite:
		manual, err := s.txs.ManualForAccount(ctx, kind, accountID)
		if err != nil {
			return decimal.Zero, err
		}
		txs, err := s.txs.LedgerForWebsite(ctx, accountID)
		if err != nil {
			return decimal.Zero, err
		}
		return WebsiteSum(manual, txs), nil
	default:
		txs, err := s.txs.IntroducerForUser(ctx, accountID)
		if err != nil {
			return decimal.Zero, err
		}
		return IntroducerSum(txs), nil
	}
}

// LiveBalance returns an introducer's commission earned but not yet paid:
// the percentage share of each referred user's net activity, minus what the
// introducer transactions already settled. An introducer name matching no
// user contributes zero; an unknown introducer id returns zero outright.
func (s *Service) LiveBalance(ctx context.Context, introducerID string) (decimal.Decimal, error) {
	key := "live/" + introducerID
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.liveBalance(ctx, introducerID)
	})
	if err != nil {
		return decimal.Zero, err
	}
	s.metrics.CountBalance()
	return v.(decimal.Decimal), nil
}

func (s *Service) liveBalance(ctx context.Context, introducerID string) (decimal.Decimal, error) {
	intro, err := s.introducers.GetIntroducer(ctx, introducerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	referrals, err := s.referrals.UsersReferredBy(ctx, intro.Name)
	if err != nil {
		return decimal.Zero, err
	}

	earned := decimal.Zero
	for _, ref := range referrals {
		net, err := s.txs.UserNet(ctx, ref.UserID)
		if err != nil {
			return decimal.Zero, err
		}
		earned = earned.Add(Share(net, ref.Percentage))
	}

	paid, err := s.txs.IntroducerForUser(ctx, introducerID)
	if err != nil {
		return decimal.Zero, err
	}
	return earned.Sub(IntroducerSum(paid)), nil
}
