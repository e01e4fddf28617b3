package balance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
	"github.com/ledgerdesk/ledgerdesk/internal/ledger"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

type mockChecker struct {
	banks  map[string]accounts.Bank
	intros map[string]accounts.IntroducerUser
}

func (m *mockChecker) GetBank(ctx context.Context, id string) (accounts.Bank, error) {
	b, ok := m.banks[id]
	if !ok {
		return accounts.Bank{}, fmt.Errorf("%w: bank %s", shared.ErrNotFound, id)
	}
	return b, nil
}

func (m *mockChecker) GetWebsite(ctx context.Context, id string) (accounts.Website, error) {
	return accounts.Website{}, fmt.Errorf("%w: website %s", shared.ErrNotFound, id)
}

func (m *mockChecker) GetIntroducer(ctx context.Context, id string) (accounts.IntroducerUser, error) {
	intro, ok := m.intros[id]
	if !ok {
		return accounts.IntroducerUser{}, fmt.Errorf("%w: introducer %s", shared.ErrNotFound, id)
	}
	return intro, nil
}

func newTestRouter(svc *Service, checker AccountChecker) http.Handler {
	r := chi.NewRouter()
	NewHandler(svc, checker).MountRoutes(r)
	return r
}

func TestComputeEndpoint(t *testing.T) {
	txs := &mockTxReader{
		bankTxs: map[string][]ledger.LedgerTransaction{
			"b1": {{Direction: ledger.Deposit, Amount: dec("250")}},
		},
	}
	checker := &mockChecker{banks: map[string]accounts.Bank{"b1": {ID: "b1", Name: "HDFC Current"}}}
	router := newTestRouter(newTestService(txs, nil, nil), checker)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bank/b1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Balance decimal.Decimal `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Balance.Equal(dec("250")))
}

func TestComputeEndpointUnknownAccount(t *testing.T) {
	router := newTestRouter(newTestService(nil, nil, nil), &mockChecker{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bank/ghost", nil))

	// Unknown ids must report 404, not a silent zero.
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComputeEndpointUnknownKind(t *testing.T) {
	router := newTestRouter(newTestService(nil, nil, nil), &mockChecker{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/broker/b1", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLiveBalanceEndpoint(t *testing.T) {
	txs := &mockTxReader{
		nets: map[string]decimal.Decimal{"u1": dec("1000")},
	}
	intros := &mockIntroReader{intros: map[string]accounts.IntroducerUser{
		"i1": {ID: "i1", Name: "Ravi Kumar"},
	}}
	refs := &mockReferralReader{byName: map[string][]Referral{
		"Ravi Kumar": {{UserID: "u1", Percentage: dec("2.5")}},
	}}
	checker := &mockChecker{intros: map[string]accounts.IntroducerUser{"i1": {ID: "i1"}}}
	router := newTestRouter(newTestService(txs, intros, refs), checker)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/introducer/i1/live", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Live decimal.Decimal `json:"live_balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Live.Equal(dec("25")))
}

func TestLiveBalanceEndpointUnknownIntroducer(t *testing.T) {
	router := newTestRouter(newTestService(nil, nil, nil), &mockChecker{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/introducer/ghost/live", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}
