package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wmrmrx/MAC0352-EP2/internal/api/response"
	"github.com/wmrmrx/MAC0352-EP2/internal/model"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
	"github.com/wmrmrx/MAC0352-EP2/internal/services/auth"
	"github.com/wmrmrx/MAC0352-EP2/internal/services/leaderboard"
	"github.com/wmrmrx/MAC0352-EP2/internal/session"
)

// StatusHandler serves read-only views of the game server
type StatusHandler struct {
	table       *session.Table
	authService *auth.Service
	leaderboard *leaderboard.Service
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(table *session.Table, authService *auth.Service, lb *leaderboard.Service) *StatusHandler {
	return &StatusHandler{
		table:       table,
		authService: authService,
		leaderboard: lb,
	}
}

// Health handles GET /api/v1/health
func (h *StatusHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthResponse{
		Status:   "ok",
		Sessions: h.table.Len(),
	})
}

// Users handles GET /api/v1/users
func (h *StatusHandler) Users(w http.ResponseWriter, _ *http.Request) {
	users := h.table.Users()
	if users == nil {
		users = []protocol.UserStatus{}
	}
	response.JSON(w, http.StatusOK, response.UsersResponse{Users: users})
}

// User handles GET /api/v1/users/{username}
func (h *StatusHandler) User(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["username"]
	if err := model.ValidateUsername(name); err != nil {
		WriteError(w, err)
		return
	}

	registered, err := h.authService.Exists(r.Context(), name)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !registered {
		WriteError(w, model.ErrUserNotFound)
		return
	}

	resp := response.UserResponse{User: name}
	for _, u := range h.table.Users() {
		if u.User == name {
			resp.Online = true
			resp.State = u.State
			resp.Partner = u.Partner
			break
		}
	}
	response.JSON(w, http.StatusOK, resp)
}

// Leaderboard handles GET /api/v1/leaderboard
func (h *StatusHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	top, err := h.leaderboard.Top(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	if top == nil {
		top = []model.LeaderboardEntry{}
	}
	response.JSON(w, http.StatusOK, response.LeaderboardResponse{Entries: top})
}
