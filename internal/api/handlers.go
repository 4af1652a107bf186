package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"agrisense.app/plantcare/internal/auth"
	"agrisense.app/plantcare/internal/config"
	"agrisense.app/plantcare/internal/core"
)

type contextKey string

const userIDKey contextKey = "userID"

type APIHandler struct {
	accounts  *core.AccountService
	chat      *core.ChatService
	detection *core.DetectionService
	advisory  *core.AdvisoryService
	soil      *core.SoilAnalysisService
	translate *core.TranslateService
}

func NewAPIHandler(accounts *core.AccountService, chat *core.ChatService, detection *core.DetectionService, advisory *core.AdvisoryService, soil *core.SoilAnalysisService, translate *core.TranslateService) *APIHandler {
	return &APIHandler{
		accounts:  accounts,
		chat:      chat,
		detection: detection,
		advisory:  advisory,
		soil:      soil,
		translate: translate,
	}
}

// JWTAuthMiddleware gates the per-user endpoints. Any token problem stops the
// request here with a 401; no handler or store work happens for an
// unauthenticated caller. Verification details are logged, never returned.
func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := auth.ValidateJWT(tokenString)
		if err != nil {
			log.Printf("Token validation failed: %v", err)
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"environment": map[string]bool{
			"hasDatabaseURL": config.AppConfig.HasDatabaseURL(),
			"hasJwtSecret":   config.AppConfig.HasJWTSecret(),
			"hasGeminiKey":   config.AppConfig.HasGeminiKey(),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response body: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
