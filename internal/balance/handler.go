package balance

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
	"github.com/ledgerdesk/ledgerdesk/internal/platform/httpx"
)

// AccountChecker verifies account existence so unknown ids report 404 rather
// than a silent zero balance. accounts.Service satisfies it.
type AccountChecker interface {
	GetBank(ctx context.Context, id string) (accounts.Bank, error)
	GetWebsite(ctx context.Context, id string) (accounts.Website, error)
	GetIntroducer(ctx context.Context, id string) (accounts.IntroducerUser, error)
}

// Handler wires HTTP endpoints for balance reads.
type Handler struct {
	service *Service
	checker AccountChecker
}

// NewHandler constructs a Handler instance.
func NewHandler(service *Service, checker AccountChecker) *Handler {
	return &Handler{service: service, checker: checker}
}

// MountRoutes registers balance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{kind}/{id}", h.compute)
	r.Get("/introducer/{id}/live", h.liveBalance)
}

func (h *Handler) compute(w http.ResponseWriter, r *http.Request) {
	kind := accounts.Kind(chi.URLParam(r, "kind"))
	id := chi.URLParam(r, "id")

	// Existence is this layer's concern; the engine only accumulates.
	var err error
	switch kind {
	case accounts.KindBank:
		_, err = h.checker.GetBank(r.Context(), id)
	case accounts.KindWebsite:
		_, err = h.checker.GetWebsite(r.Context(), id)
	case accounts.KindIntroducer:
		_, err = h.checker.GetIntroducer(r.Context(), id)
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown account kind")
		return
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	total, err := h.service.Compute(r.Context(), kind, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"kind": kind, "id": id, "balance": total})
}

func (h *Handler) liveBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.checker.GetIntroducer(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	total, err := h.service.LiveBalance(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "live_balance": total})
}
