package approval

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ledgerdesk/ledgerdesk/internal/gate"
	"github.com/ledgerdesk/ledgerdesk/internal/platform/httpx"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
	"github.com/ledgerdesk/ledgerdesk/internal/trash"
)

// Handler wires HTTP endpoints for the approval workflow.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers request/resolve routes. Resolving requires the
// dedicated capability; requesting requires the matching mutation capability.
func (h *Handler) MountRoutes(r chi.Router) {
	resolve := gate.RequireCapability(gate.CapRequestResolve)

	r.With(gate.RequireCapability(gate.CapAccountCreate)).Post("/creation", h.requestCreation)
	r.Get("/creation", h.listCreation)
	r.With(resolve).Post("/creation/{requestID}/resolve", h.resolveCreation)

	r.With(gate.RequireCapability(gate.CapAccountEdit)).Post("/edit", h.requestEdit)
	r.Get("/edit", h.listEdit)
	r.With(resolve).Post("/edit/{requestID}/resolve", h.resolveEdit)

	r.With(gate.RequireCapability(gate.CapAccountDelete)).Post("/deletion", h.requestDeletion)
	r.Get("/deletion", h.listDeletion)
	r.With(resolve).Post("/deletion/{targetID}/resolve", h.resolveDeletion)
}

type resolveBody struct {
	Approve bool `json:"approve"`
}

func (h *Handler) requestCreation(w http.ResponseWriter, r *http.Request) {
	var input CreationInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	req, err := h.service.RequestCreation(r.Context(), input, gate.PrincipalFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, req)
}

func (h *Handler) resolveCreation(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request id")
		return
	}
	var body resolveBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	req, err := h.service.ResolveCreation(r.Context(), requestID, body.Approve)
	if err != nil {
		h.logger.Error("resolve creation", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !body.Approve {
		httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
		return
	}
	httpx.JSON(w, http.StatusOK, req.Proposed)
}

func (h *Handler) requestEdit(w http.ResponseWriter, r *http.Request) {
	var input EditInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	req, err := h.service.RequestEdit(r.Context(), input, gate.PrincipalFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, req)
}

func (h *Handler) resolveEdit(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request id")
		return
	}
	var body resolveBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	req, err := h.service.ResolveEdit(r.Context(), requestID, body.Approve)
	if err != nil {
		h.logger.Error("resolve edit", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !body.Approve {
		httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
		return
	}
	httpx.JSON(w, http.StatusOK, req.Proposed)
}

type deletionBody struct {
	Kind     trash.Kind `json:"kind" validate:"required"`
	TargetID string     `json:"target_id" validate:"required"`
	Message  string     `json:"message"`
}

func (h *Handler) requestDeletion(w http.ResponseWriter, r *http.Request) {
	var body deletionBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validator.Struct(body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	req, err := h.service.RequestDeletion(r.Context(), body.Kind, body.TargetID, body.Message, gate.PrincipalFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, req)
}

func (h *Handler) resolveDeletion(w http.ResponseWriter, r *http.Request) {
	var body resolveBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	rec, err := h.service.ResolveDeletion(r.Context(), chi.URLParam(r, "targetID"), body.Approve)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if rec == nil {
		httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true})
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) listCreation(w http.ResponseWriter, r *http.Request) {
	reqs, total, err := h.service.ListCreation(r.Context(), requestFilters(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": reqs, "total": total})
}

func (h *Handler) listEdit(w http.ResponseWriter, r *http.Request) {
	reqs, total, err := h.service.ListEdit(r.Context(), requestFilters(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": reqs, "total": total})
}

func (h *Handler) listDeletion(w http.ResponseWriter, r *http.Request) {
	reqs, total, err := h.service.ListDeletion(r.Context(), requestFilters(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": reqs, "total": total})
}

func requestFilters(r *http.Request) shared.ListFilters {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return shared.ListFilters{Page: page, Limit: limit}.Normalize()
}
