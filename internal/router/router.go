package router

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ledgerlink/ledgerlink-backend/internal/handlers"
	"github.com/ledgerlink/ledgerlink-backend/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	plh := handlers.NewPlaidHandlers(deps)
	ush := handlers.NewUserHandlers(deps)
	adh := handlers.NewAdminHandlers(deps)

	r.Route("/api", func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Mount("/plaid", plh.PlaidRoutes())
		r.Get("/institutions", plh.ListInstitutions)
		r.Mount("/user", ush.UserRoutes())
	})

	r.Route("/admin/api", func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.Auth.RequireAdmin)
		r.Mount("/", adh.AdminRoutes())
	})

	return r
}
