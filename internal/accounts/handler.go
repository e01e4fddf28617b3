package accounts

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerdesk/ledgerdesk/internal/gate"
	"github.com/ledgerdesk/ledgerdesk/internal/platform/httpx"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// Handler wires HTTP endpoints for account reads and activation.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(gate.RequireCapability(gate.CapAccountRead)).Get("/{kind}", h.list)
	r.With(gate.RequireCapability(gate.CapAccountRead)).Get("/{kind}/{id}", h.show)
	r.With(gate.RequireCapability(gate.CapAccountRead)).Get("/{kind}/{id}/grants", h.grants)
	r.With(gate.RequireCapability(gate.CapAccountEdit)).Patch("/{kind}/{id}/active", h.setActive)
}

func listFilters(r *http.Request) shared.ListFilters {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	filters := shared.ListFilters{
		Page:   page,
		Limit:  limit,
		Search: r.URL.Query().Get("search"),
	}
	if active := r.URL.Query().Get("active"); active != "" {
		v := active == "true"
		filters.Active = &v
	}
	return filters.Normalize()
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	kind := Kind(chi.URLParam(r, "kind"))
	filters := listFilters(r)

	var payload any
	var total int
	var err error
	switch kind {
	case KindBank:
		payload, total, err = h.service.ListBanks(r.Context(), filters)
	case KindWebsite:
		payload, total, err = h.service.ListWebsites(r.Context(), filters)
	case KindIntroducer:
		payload, total, err = h.service.ListIntroducers(r.Context(), filters)
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown account kind")
		return
	}
	if err != nil {
		h.logger.Error("list accounts", slog.String("kind", string(kind)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": payload, "total": total})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	kind := Kind(chi.URLParam(r, "kind"))
	id := chi.URLParam(r, "id")

	var payload any
	var err error
	switch kind {
	case KindBank:
		payload, err = h.service.GetBank(r.Context(), id)
	case KindWebsite:
		payload, err = h.service.GetWebsite(r.Context(), id)
	case KindIntroducer:
		payload, err = h.service.GetIntroducer(r.Context(), id)
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown account kind")
		return
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payload)
}

func (h *Handler) grants(w http.ResponseWriter, r *http.Request) {
	kind := Kind(chi.URLParam(r, "kind"))
	grants, err := h.service.Grants(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": grants})
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active bool `json:"active"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	kind := Kind(chi.URLParam(r, "kind"))
	id := chi.URLParam(r, "id")
	if err := h.service.SetActive(r.Context(), kind, id, body.Active); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "active": body.Active})
}
