// Package api exposes HTTP handlers for the GenID service.
package api

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"example.com/genid/internal/auth"
	"example.com/genid/internal/domain"
	"example.com/genid/internal/eradication"
	"example.com/genid/internal/identifier"
	"example.com/genid/internal/membercard"
)

// Dependencies bundles the services the handlers call.
type Dependencies struct {
	Users       *domain.UserService
	Activities  *domain.ActivityService
	Profiles    *domain.ProfileService
	Identifiers *domain.IdentifierService
	Issuer      *identifier.Issuer
	Eradicator  *eradication.Service
	Members     *membercard.Service
	Admins      auth.AdminPolicy
	Logger      logrus.FieldLogger
}

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	users       *domain.UserService
	activities  *domain.ActivityService
	profiles    *domain.ProfileService
	identifiers *domain.IdentifierService
	issuer      *identifier.Issuer
	eradicator  *eradication.Service
	members     *membercard.Service
	admins      auth.AdminPolicy
	logger      logrus.FieldLogger
}

// NewHandler builds a Handler.
func NewHandler(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		users:       deps.Users,
		activities:  deps.Activities,
		profiles:    deps.Profiles,
		identifiers: deps.Identifiers,
		issuer:      deps.Issuer,
		eradicator:  deps.Eradicator,
		members:     deps.Members,
		admins:      deps.Admins,
		logger:      logger,
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", healthz)

	mux.HandleFunc("POST /v1/score/preview", h.previewScore)
	mux.HandleFunc("GET /v1/profiles/{username}", h.publicProfile)
	mux.HandleFunc("POST /v1/members", h.registerMember)
	mux.HandleFunc("POST /v1/health-data", h.storeHealthData)
	mux.HandleFunc("GET /v1/health-data", h.getHealthData)

	mux.HandleFunc("POST /v1/me/setup", h.setupProfile)
	mux.HandleFunc("PATCH /v1/me/profile", h.updateOwnProfile)
	mux.HandleFunc("GET /v1/me/dashboard", h.dashboard)
	mux.HandleFunc("GET /v1/me/activities", h.listOwnActivities)
	mux.HandleFunc("POST /v1/me/activities", h.logActivity)
	mux.HandleFunc("PUT /v1/me/activities/{date}", h.updateActivity)
	mux.HandleFunc("POST /v1/me/genid", h.issueGenID)

	mux.HandleFunc("GET /v1/admin/users", h.admin(h.listUsers))
	mux.HandleFunc("PATCH /v1/admin/users/{id}", h.admin(h.adminUpdateUser))
	mux.HandleFunc("DELETE /v1/admin/users/{id}", h.admin(h.eradicateUser))
	mux.HandleFunc("GET /v1/admin/users/{id}/verification", h.admin(h.verifyUser))
	mux.HandleFunc("POST /v1/admin/users/{id}/force-cleanup", h.admin(h.forceCleanup))
	mux.HandleFunc("GET /v1/admin/audit", h.admin(h.audit))
	mux.HandleFunc("GET /v1/admin/activities", h.admin(h.listRecentActivities))
	mux.HandleFunc("PATCH /v1/admin/activities/{id}", h.admin(h.adminUpdateActivity))
	mux.HandleFunc("DELETE /v1/admin/activities/{id}", h.admin(h.adminDeleteActivity))
	mux.HandleFunc("GET /v1/admin/genids", h.admin(h.listGenIDs))
	mux.HandleFunc("DELETE /v1/admin/genids/{id}", h.admin(h.deleteGenID))
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
