package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
	"github.com/ledgerdesk/ledgerdesk/internal/approval"
	"github.com/ledgerdesk/ledgerdesk/internal/balance"
	"github.com/ledgerdesk/ledgerdesk/internal/gate"
	"github.com/ledgerdesk/ledgerdesk/internal/ledger"
	"github.com/ledgerdesk/ledgerdesk/internal/platform/httpx"
	"github.com/ledgerdesk/ledgerdesk/internal/trash"
)

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Accounts *accounts.Handler
	Ledger   *ledger.Handler
	Balance  *balance.Handler
	Approval *approval.Handler
	Trash    *trash.Handler
}

// NewRouter assembles the full route tree.
func NewRouter(cfg MiddlewareConfig, g *gate.Gate, pool *pgxpool.Pool, h Handlers) chi.Router {
	r := chi.NewRouter()
	r.Use(MiddlewareStack(cfg)...)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := pool.Ping(req.Context()); err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(g.Middleware)
		api.Route("/accounts", h.Accounts.MountRoutes)
		api.Route("/transactions", h.Ledger.MountRoutes)
		api.Route("/balance", h.Balance.MountRoutes)
		api.Route("/requests", h.Approval.MountRoutes)
		api.Route("/trash", h.Trash.MountRoutes)
	})

	return r
}
