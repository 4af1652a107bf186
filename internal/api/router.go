package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes live under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", apiHandler.RegisterHandler)
		r.Post("/auth/login", apiHandler.LoginHandler)
		r.Post("/crop-advisory", apiHandler.CropAdvisoryHandler)
		r.Post("/soil-analysis", apiHandler.SoilAnalysisHandler)
		r.Post("/translate", apiHandler.TranslateHandler)
		r.Get("/health", apiHandler.HealthHandler)

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			r.Post("/detect-disease", apiHandler.DetectDiseaseHandler)
			r.Get("/detect-disease", apiHandler.DetectionHistoryHandler)

			r.Post("/chat", apiHandler.ChatHandler)
			r.Get("/chat", apiHandler.ChatHistoryHandler)
			r.Post("/chat/clear", apiHandler.ClearChatHandler)
		})
	})

	return r
}
