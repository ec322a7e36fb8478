// Package server exposes the application over a JSON HTTP API.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tabtally/tally/internal/auth"
	"github.com/tabtally/tally/internal/middleware"
	"github.com/tabtally/tally/internal/service"
)

// Server routes HTTP requests to the underlying services.
type Server struct {
	users         *service.UserService
	groups        *service.GroupService
	transactions  *service.TransactionService
	authenticator auth.Authenticator
	tokens        *auth.TokenManager
}

// New assembles a Server from its dependencies.
func New(
	users *service.UserService,
	groups *service.GroupService,
	transactions *service.TransactionService,
	authenticator auth.Authenticator,
	tokens *auth.TokenManager,
) *Server {
	return &Server{
		users:         users,
		groups:        groups,
		transactions:  transactions,
		authenticator: authenticator,
		tokens:        tokens,
	}
}

// Routes builds the full router, including middleware and the operational
// endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.tokens, s.users))

			r.Get("/users/me", s.handleGetMe)
			r.Delete("/users/me", s.handleDeleteMe)
			r.Get("/users/me/groups", s.handleListMyGroups)

			r.Post("/groups", s.handleCreateGroup)
			r.Route("/groups/{groupID}", func(r chi.Router) {
				r.Get("/", s.handleGetGroup)
				r.Patch("/", s.handleUpdateGroup)
				r.Delete("/", s.handleDeleteGroup)
				r.Put("/owner", s.handleTransferOwnership)

				r.Get("/members", s.handleListMembers)
				r.Post("/members", s.handleInviteMembers)
				r.Post("/members/leave", s.handleLeaveGroup)
				r.Put("/members/{userID}/status", s.handleChangeMemberStatus)
				r.Post("/members/{userID}/promote", s.handlePromoteMember)
				r.Post("/members/{userID}/demote", s.handleDemoteMember)

				r.Get("/transactions", s.handleListTransactions)
				r.Post("/transactions", s.handleCreateTransaction)
			})

			r.Route("/transactions/{transactionID}", func(r chi.Router) {
				r.Get("/", s.handleGetTransaction)
				r.Patch("/", s.handleEditTransaction)
				r.Delete("/", s.handleDeleteTransaction)
			})
		})
	})

	return r
}
