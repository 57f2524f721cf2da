package protocol

import (
	"net/netip"

	"github.com/wmrmrx/MAC0352-EP2/internal/model"
)

// Kind tags a message variant on the wire
type Kind string

// Client -> server kinds
const (
	KindConnectRequest        Kind = "connect_request"
	KindHeartbeat             Kind = "heartbeat"
	KindDisconnect            Kind = "disconnect"
	KindCreateUserRequest     Kind = "create_user_request"
	KindLoginRequest          Kind = "login_request"
	KindChangePasswordRequest Kind = "change_password_request"
	KindLogoutRequest         Kind = "logout_request"
	KindQuitGameRequest       Kind = "quit_game_request"
	KindConnectedUsersRequest Kind = "connected_users_request"
	KindCreateGameRequest     Kind = "create_game_request"
	KindJoinGameRequest       Kind = "join_game_request"
	KindLeaderboardRequest    Kind = "leaderboard_request"
	KindAddLeaderboardEntry   Kind = "add_leaderboard_entry"
)

// Server -> client kinds. Heartbeat shares KindHeartbeat.
const (
	KindConnectResponse        Kind = "connect_response"
	KindCreateUserResponse     Kind = "create_user_response"
	KindLoginResponse          Kind = "login_response"
	KindChangePasswordResponse Kind = "change_password_response"
	KindLogoutResponse         Kind = "logout_response"
	KindConnectedUsersResponse Kind = "connected_users_response"
	KindCreateGameResponse     Kind = "create_game_response"
	KindJoinGameResponse       Kind = "join_game_response"
	KindLeaderboardResponse    Kind = "leaderboard_response"
	KindNotConnected           Kind = "not_connected"
)

// Result is the outcome carried by Ok|Err responses
type Result string

const (
	ResultOK  Result = "ok"
	ResultErr Result = "err"
)

// ResultOf maps a boolean outcome to a Result
func ResultOf(ok bool) Result {
	if ok {
		return ResultOK
	}
	return ResultErr
}

// OK reports whether the result is a success
func (r Result) OK() bool {
	return r == ResultOK
}

// Request is a client -> server message body. The set of implementations is closed.
type Request interface {
	Kind() Kind
	isRequest()
}

// Response is a server -> client message body. The set of implementations is closed.
type Response interface {
	Kind() Kind
	isResponse()
}

// ClientMessage is what a client sends: the body plus the identity replies go to
type ClientMessage struct {
	From Connection
	Body Request
}

// Client -> server bodies

// ConnectRequest opens a session for the sender identity
type ConnectRequest struct{}

// Heartbeat keeps a session alive. The server sends it back as a ping.
type Heartbeat struct{}

// Disconnect ends the sender's session
type Disconnect struct{}

// CreateUserRequest registers a new account
type CreateUserRequest struct {
	User   string `json:"user"`
	Passwd string `json:"passwd"`
}

// LoginRequest attaches an account to the sender's session
type LoginRequest struct {
	User   string `json:"user"`
	Passwd string `json:"passwd"`
}

// ChangePasswordRequest changes the logged-in user's password
type ChangePasswordRequest struct {
	OldPasswd string `json:"old_passwd"`
	NewPasswd string `json:"new_passwd"`
}

// LogoutRequest detaches the account, leaving any game
type LogoutRequest struct{}

// QuitGameRequest leaves the current game without logging out
type QuitGameRequest struct{}

// ConnectedUsersRequest asks who is online
type ConnectedUsersRequest struct{}

// CreateGameRequest opens a game hosted at the sender's peer listener
type CreateGameRequest struct {
	ListenerAddr netip.AddrPort `json:"listener_addr"`
}

// JoinGameRequest takes the free slot in Host's game
type JoinGameRequest struct {
	Host string `json:"host"`
}

// LeaderboardRequest asks for the best scores
type LeaderboardRequest struct{}

// AddLeaderboardEntry records a finished game
type AddLeaderboardEntry struct {
	Entry model.LeaderboardEntry `json:"entry"`
}

func (ConnectRequest) Kind() Kind        { return KindConnectRequest }
func (Heartbeat) Kind() Kind             { return KindHeartbeat }
func (Disconnect) Kind() Kind            { return KindDisconnect }
func (CreateUserRequest) Kind() Kind     { return KindCreateUserRequest }
func (LoginRequest) Kind() Kind          { return KindLoginRequest }
func (ChangePasswordRequest) Kind() Kind { return KindChangePasswordRequest }
func (LogoutRequest) Kind() Kind         { return KindLogoutRequest }
func (QuitGameRequest) Kind() Kind       { return KindQuitGameRequest }
func (ConnectedUsersRequest) Kind() Kind { return KindConnectedUsersRequest }
func (CreateGameRequest) Kind() Kind     { return KindCreateGameRequest }
func (JoinGameRequest) Kind() Kind       { return KindJoinGameRequest }
func (LeaderboardRequest) Kind() Kind    { return KindLeaderboardRequest }
func (AddLeaderboardEntry) Kind() Kind   { return KindAddLeaderboardEntry }

func (ConnectRequest) isRequest()        {}
func (Heartbeat) isRequest()             {}
func (Disconnect) isRequest()            {}
func (CreateUserRequest) isRequest()     {}
func (LoginRequest) isRequest()          {}
func (ChangePasswordRequest) isRequest() {}
func (LogoutRequest) isRequest()         {}
func (QuitGameRequest) isRequest()       {}
func (ConnectedUsersRequest) isRequest() {}
func (CreateGameRequest) isRequest()     {}
func (JoinGameRequest) isRequest()       {}
func (LeaderboardRequest) isRequest()    {}
func (AddLeaderboardEntry) isRequest()   {}

// Server -> client bodies

// Heartbeat is also a valid response
func (Heartbeat) isResponse() {}

// ConnectResponse acknowledges a new session
type ConnectResponse struct{}

// CreateUserResponse fails if the name is taken or invalid
type CreateUserResponse struct {
	Result Result `json:"result"`
}

// LoginResponse fails on bad credentials or a user already online
type LoginResponse struct {
	Result Result `json:"result"`
}

// ChangePasswordResponse fails if the old password does not match
type ChangePasswordResponse struct {
	Result Result `json:"result"`
}

// LogoutResponse acknowledges a logout
type LogoutResponse struct{}

// UserState is the game participation of an online user
type UserState string

const (
	UserIdle    UserState = "idle"
	UserHosting UserState = "hosting"
	UserJoined  UserState = "joined"
)

// UserStatus describes one online user. Partner is the joined user for a host
// (empty while waiting for a challenger) and the host for a joined user.
type UserStatus struct {
	User    string    `json:"user"`
	State   UserState `json:"state"`
	Partner string    `json:"partner,omitempty"`
}

// ConnectedUsersResponse lists every logged-in user
type ConnectedUsersResponse struct {
	Users []UserStatus `json:"users"`
}

// CreateGameResponse fails unless the sender is logged in and idle
type CreateGameResponse struct {
	Result Result `json:"result"`
}

// JoinGameResponse carries the host's peer listener address on success
type JoinGameResponse struct {
	Result       Result         `json:"result"`
	ListenerAddr netip.AddrPort `json:"listener_addr"`
}

// LeaderboardResponse holds at most model.LeaderboardSize entries, best first
type LeaderboardResponse struct {
	Top []model.LeaderboardEntry `json:"top"`
}

// NotConnected tells a client the server has no session for it
type NotConnected struct{}

func (ConnectResponse) Kind() Kind        { return KindConnectResponse }
func (CreateUserResponse) Kind() Kind     { return KindCreateUserResponse }
func (LoginResponse) Kind() Kind          { return KindLoginResponse }
func (ChangePasswordResponse) Kind() Kind { return KindChangePasswordResponse }
func (LogoutResponse) Kind() Kind         { return KindLogoutResponse }
func (ConnectedUsersResponse) Kind() Kind { return KindConnectedUsersResponse }
func (CreateGameResponse) Kind() Kind     { return KindCreateGameResponse }
func (JoinGameResponse) Kind() Kind       { return KindJoinGameResponse }
func (LeaderboardResponse) Kind() Kind    { return KindLeaderboardResponse }
func (NotConnected) Kind() Kind           { return KindNotConnected }

func (ConnectResponse) isResponse()        {}
func (CreateUserResponse) isResponse()     {}
func (LoginResponse) isResponse()          {}
func (ChangePasswordResponse) isResponse() {}
func (LogoutResponse) isResponse()         {}
func (ConnectedUsersResponse) isResponse() {}
func (CreateGameResponse) isResponse()     {}
func (JoinGameResponse) isResponse()       {}
func (LeaderboardResponse) isResponse()    {}
func (NotConnected) isResponse()           {}
