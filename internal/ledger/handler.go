package ledger

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
	"github.com/ledgerdesk/ledgerdesk/internal/gate"
	"github.com/ledgerdesk/ledgerdesk/internal/platform/httpx"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// Handler wires HTTP endpoints for transaction creation and listing.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers transaction routes.
func (h *Handler) MountRoutes(r chi.Router) {
	write := gate.RequireCapability(gate.CapTransactionWrite)
	r.With(write).Post("/ledger", h.createLedger)
	r.With(write).Post("/manual", h.createManual)
	r.With(write).Post("/introducer", h.createIntroducer)
	r.Get("/ledger", h.listLedger)
	r.Get("/manual/{kind}/{accountID}", h.listManual)
	r.Get("/introducer/{introducerID}", h.listIntroducer)
}

func (h *Handler) createLedger(w http.ResponseWriter, r *http.Request) {
	var input CreateLedgerInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tx, err := h.service.CreateLedger(r.Context(), input, gate.PrincipalFromContext(r.Context()))
	if err != nil {
		h.logger.Warn("create ledger transaction", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tx)
}

func (h *Handler) createManual(w http.ResponseWriter, r *http.Request) {
	var input CreateManualInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tx, err := h.service.CreateManual(r.Context(), input, gate.PrincipalFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tx)
}

func (h *Handler) createIntroducer(w http.ResponseWriter, r *http.Request) {
	var input CreateIntroducerInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tx, err := h.service.CreateIntroducer(r.Context(), input, gate.PrincipalFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tx)
}

func (h *Handler) listLedger(w http.ResponseWriter, r *http.Request) {
	txs, total, err := h.service.ListLedger(r.Context(), queryFilters(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": txs, "total": total})
}

func (h *Handler) listManual(w http.ResponseWriter, r *http.Request) {
	kind := accounts.Kind(chi.URLParam(r, "kind"))
	txs, total, err := h.service.ListManual(r.Context(), kind, chi.URLParam(r, "accountID"), queryFilters(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": txs, "total": total})
}

func (h *Handler) listIntroducer(w http.ResponseWriter, r *http.Request) {
	txs, total, err := h.service.ListIntroducer(r.Context(), chi.URLParam(r, "introducerID"), queryFilters(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": txs, "total": total})
}

func queryFilters(r *http.Request) shared.ListFilters {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return shared.ListFilters{
		Page:   page,
		Limit:  limit,
		Search: r.URL.Query().Get("search"),
	}.Normalize()
}
