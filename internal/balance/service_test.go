package balance

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
	"github.com/ledgerdesk/ledgerdesk/internal/ledger"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

type mockTxReader struct {
	manual     map[string][]ledger.ManualTransaction
	bankTxs    map[string][]ledger.LedgerTransaction
	websiteTxs map[string][]ledger.LedgerTransaction
	introTxs   map[string][]ledger.IntroducerTransaction
	nets       map[string]decimal.Decimal
}

func (m *mockTxReader) ManualForAccount(ctx context.Context, kind accounts.Kind, accountID string) ([]ledger.ManualTransaction, error) {
	return m.manual[string(kind)+"/"+accountID], nil
}

func (m *mockTxReader) LedgerForBank(ctx context.Context, bankID string) ([]ledger.LedgerTransaction, error) {
	return m.bankTxs[bankID], nil
}

func (m *mockTxReader) LedgerForWebsite(ctx context.Context, websiteID string) ([]ledger.LedgerTransaction, error) {
	return m.websiteTxs[websiteID], nil
}

func (m *mockTxReader) IntroducerForUser(ctx context.Context, introducerID string) ([]ledger.IntroducerTransaction, error) {
	return m.introTxs[introducerID], nil
}

func (m *mockTxReader) UserNet(ctx context.Context, userID string) (decimal.Decimal, error) {
	return m.nets[userID], nil
}

type mockIntroReader struct {
	intros map[string]accounts.IntroducerUser
}

func (m *mockIntroReader) GetIntroducer(ctx context.Context, id string) (accounts.IntroducerUser, error) {
	intro, ok := m.intros[id]
	if !ok {
		return accounts.IntroducerUser{}, fmt.Errorf("%w: introducer %s", shared.ErrNotFound, id)
	}
	return intro, nil
}

type mockReferralReader struct {
	byName map[string][]Referral
}

func (m *mockReferralReader) UsersReferredBy(ctx context.Context, introducerName string) ([]Referral, error) {
	return m.byName[introducerName], nil
}

func newTestService(txs *mockTxReader, intros *mockIntroReader, refs *mockReferralReader) *Service {
	if txs == nil {
		txs = &mockTxReader{}
	}
	if intros == nil {
		intros = &mockIntroReader{}
	}
	if refs == nil {
		refs = &mockReferralReader{}
	}
	return NewService(txs, intros, refs, nil)
}

func TestComputeBank(t *testing.T) {
	txs := &mockTxReader{
		manual: map[string][]ledger.ManualTransaction{
			"bank/b1": {{Direction: ledger.Deposit, Amount: dec("100")}},
		},
		bankTxs: map[string][]ledger.LedgerTransaction{
			"b1": {{Direction: ledger.Withdraw, Amount: dec("40"), BankCharges: dec("5")}},
		},
	}
	svc := newTestService(txs, nil, nil)

	got, err := svc.Compute(context.Background(), accounts.KindBank, "b1")
	require.NoError(t, err)
	require.True(t, got.Equal(dec("55")), "got %s", got)
}

func TestComputeUnknownAccountIsZero(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	got, err := svc.Compute(context.Background(), accounts.KindWebsite, "missing")
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestComputeRejectsUnknownKind(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	_, err := svc.Compute(context.Background(), accounts.Kind("broker"), "x")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestLiveBalance(t *testing.T) {
	txs := &mockTxReader{
		nets: map[string]decimal.Decimal{
			"u1": dec("2000"),
			"u2": dec("-400"),
		},
		introTxs: map[string][]ledger.IntroducerTransaction{
			"i1": {{Direction: ledger.Deposit, Amount: dec("30")}},
		},
	}
	intros := &mockIntroReader{intros: map[string]accounts.IntroducerUser{
		"i1": {ID: "i1", Name: "Ravi Kumar"},
	}}
	refs := &mockReferralReader{byName: map[string][]Referral{
		"Ravi Kumar": {
			{UserID: "u1", Percentage: dec("2.5")},
			{UserID: "u2", Percentage: dec("5")},
		},
	}}
	svc := newTestService(txs, intros, refs)

	// 2000*2.5% + (-400)*5% - 30 paid = 50 - 20 - 30.
	got, err := svc.LiveBalance(context.Background(), "i1")
	require.NoError(t, err)
	require.True(t, got.Equal(dec("0")), "got %s", got)
}

func TestLiveBalanceNothingPaidYet(t *testing.T) {
	txs := &mockTxReader{nets: map[string]decimal.Decimal{"u1": dec("3200")}}
	intros := &mockIntroReader{intros: map[string]accounts.IntroducerUser{
		"i1": {ID: "i1", Name: "Ravi Kumar"},
	}}
	refs := &mockReferralReader{byName: map[string][]Referral{
		"Ravi Kumar": {{UserID: "u1", Percentage: dec("2.5")}},
	}}
	svc := newTestService(txs, intros, refs)

	got, err := svc.LiveBalance(context.Background(), "i1")
	require.NoError(t, err)
	require.True(t, got.Equal(dec("80")), "got %s", got)
}

func TestLiveBalanceUnknownIntroducerIsZero(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	got, err := svc.LiveBalance(context.Background(), "ghost")
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestLiveBalanceNoReferralsOnlyPayouts(t *testing.T) {
	txs := &mockTxReader{introTxs: map[string][]ledger.IntroducerTransaction{
		"i1": {{Direction: ledger.Deposit, Amount: dec("75")}},
	}}
	intros := &mockIntroReader{intros: map[string]accounts.IntroducerUser{
		"i1": {ID: "i1", Name: "Orphan Agent"},
	}}
	svc := newTestService(txs, intros, nil)

	got, err := svc.LiveBalance(context.Background(), "i1")
	require.NoError(t, err)
	require.True(t, got.Equal(dec("-75")), "got %s", got)
}
