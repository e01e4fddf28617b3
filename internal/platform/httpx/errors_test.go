package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

func TestRespondError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: bank b1", shared.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: name taken", shared.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: amount must be positive", shared.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: withdraw 500 exceeds 300", shared.ErrInsufficientBalance), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: missing capability", shared.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: bad token", shared.ErrUnauthorized), http.StatusUnauthorized},
		{errors.New("pq: connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		require.Equal(t, tc.code, rec.Code, "error %v", tc.err)
		require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pq: password authentication failed"))
	require.NotContains(t, rec.Body.String(), "password")
}
