package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wmrmrx/MAC0352-EP2/internal/api/handler"
	"github.com/wmrmrx/MAC0352-EP2/internal/api/middleware"
	"github.com/wmrmrx/MAC0352-EP2/internal/services/auth"
	"github.com/wmrmrx/MAC0352-EP2/internal/services/leaderboard"
	"github.com/wmrmrx/MAC0352-EP2/internal/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	Table              *session.Table
	AuthService        *auth.Service
	LeaderboardService *leaderboard.Service
}

// NewRouter creates the read-only status API
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	statusHandler := handler.NewStatusHandler(cfg.Table, cfg.AuthService, cfg.LeaderboardService)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", statusHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/users", statusHandler.Users).Methods(http.MethodGet)
	api.HandleFunc("/users/{username}", statusHandler.User).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", statusHandler.Leaderboard).Methods(http.MethodGet)

	return r
}
