package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/marcioluisms/hotelly2-sub001/internal/httpapi/middleware"
	"github.com/marcioluisms/hotelly2-sub001/internal/httpapi/rbac"
)

// NewAPIRouter builds the router for cmd/api: webhook ingress (no
// bearer auth, provider-specific signature schemes instead), and the
// bearer-authenticated catalog/payments endpoints from spec §6.
func NewAPIRouter(deps APIDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Correlation)

	r.Post("/webhooks/whatsapp/evolution", handleEvolutionWebhook(deps))
	r.Post("/webhooks/whatsapp/meta", handleMetaWebhook(deps))
	r.Post("/webhooks/stripe", handleStripeWebhook(deps))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.Verifier))

		r.With(middleware.RequireRole(rbac.RoleViewer)).Get("/rates", handleGetRates(deps))
		r.With(middleware.RequireRole(rbac.RoleStaff)).Put("/rates", handlePutRates(deps))

		r.With(middleware.RequireRole(rbac.RoleViewer)).Get("/child-policies", handleGetChildPolicies(deps))
		r.With(middleware.RequireRole(rbac.RoleStaff)).Put("/child-policies", handlePutChildPolicies(deps))

		r.With(middleware.RequireRole(rbac.RoleViewer)).Get("/cancellation-policy", handleGetCancellationPolicy(deps))
		r.With(middleware.RequireRole(rbac.RoleStaff)).Put("/cancellation-policy", handlePutCancellationPolicy(deps))

		r.With(middleware.RequireRole(rbac.RoleStaff)).Post("/payments/holds/{hold_id}/checkout", handlePostCheckout(deps))
		r.With(middleware.RequireRole(rbac.RoleStaff)).Post("/reservations/{id}/payments", handlePostReservationPayment(deps))
		r.With(middleware.RequireRole(rbac.RoleViewer)).Get("/reservations/{id}/folio", handleGetFolio(deps))
	})

	return r
}

// NewWorkerRouter builds the router for cmd/worker: every route is
// authenticated by middleware.TaskAuth rather than bearer/role claims,
// matching spec §6's "worker" role column.
func NewWorkerRouter(deps WorkerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Correlation)

	r.Group(func(r chi.Router) {
		r.Use(middleware.TaskAuth(deps.Verifier, deps.Config.IsLocalDev(), deps.Config.TasksSharedSecret))

		r.Post("/tasks/holds/expire", handleTaskExpireHold(deps))
		r.Post("/tasks/stripe/handle-event", handleTaskStripeEvent(deps))
		r.Post("/tasks/whatsapp/handle-message", handleTaskWhatsAppMessage(deps))
	})

	return r
}
