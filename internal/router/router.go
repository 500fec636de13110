package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	"pet-adoption-portal/internal/config"
	"pet-adoption-portal/internal/handler"
	"pet-adoption-portal/internal/middleware"
)

func New(
	cfg *config.Config,
	sessionMiddleware *middleware.SessionMiddleware,
	views *handler.Renderer,
	healthHandler *handler.HealthHandler,
	homeHandler *handler.HomeHandler,
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	adminHandler *handler.AdminHandler,
	animalsHandler *handler.AnimalsHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM, "/login", "/cadastro")

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", healthHandler.Check)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.CORS(cfg.CORSOrigins))
		api.Get("/animals", animalsHandler.List)
	})

	r.Group(func(pages chi.Router) {
		pages.Use(sessionMiddleware.Handler)
		pages.Use(csrf.Protect(cfg.CSRFKey,
			csrf.Secure(cfg.SessionCookieSecure),
			csrf.Path("/"),
			csrf.SameSite(csrf.SameSiteLaxMode),
			csrf.ErrorHandler(handler.CSRFFailure(views)),
		))

		pages.Get("/", homeHandler.Home)

		pages.Get("/login", authHandler.LoginForm)
		pages.Post("/login", authHandler.Login)
		pages.Get("/cadastro", authHandler.RegisterForm)
		pages.Post("/cadastro", authHandler.Register)
		pages.Post("/logout", authHandler.Logout)

		pages.Get("/perfil", profileHandler.Show)

		pages.Route("/admin", func(admin chi.Router) {
			admin.Get("/", adminHandler.List)
			admin.Get("/animais/novo", adminHandler.NewForm)
			admin.Post("/animais", adminHandler.Create)
			admin.Get("/animais/{id}/editar", adminHandler.EditForm)
			admin.Post("/animais/{id}", adminHandler.Update)
			admin.Get("/animais/{id}/excluir", adminHandler.DeleteConfirm)
			admin.Post("/animais/{id}/excluir", adminHandler.Delete)
		})
	})

	return r
}
