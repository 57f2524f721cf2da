package response

import (
	"github.com/wmrmrx/MAC0352-EP2/internal/model"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
)

// HealthResponse reports liveness and the number of client sessions
type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// UsersResponse lists every logged-in user
type UsersResponse struct {
	Users []protocol.UserStatus `json:"users"`
}

// UserResponse describes one registered user
type UserResponse struct {
	User    string             `json:"user"`
	Online  bool               `json:"online"`
	State   protocol.UserState `json:"state,omitempty"`
	Partner string             `json:"partner,omitempty"`
}

// LeaderboardResponse is the top scores, best first
type LeaderboardResponse struct {
	Entries []model.LeaderboardEntry `json:"entries"`
}
