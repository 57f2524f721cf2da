package protocol

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/segmentio/encoding/json"
)

// ErrDecode is wrapped by every decoding failure. Receivers drop such input.
var ErrDecode = errors.New("malformed message")

type envelope struct {
	Kind Kind        `json:"kind"`
	From *Connection `json:"from,omitempty"`
	Body any         `json:"body,omitempty"`
}

// header is the first decoding pass: the body is resolved once the kind is known
type header struct {
	Kind Kind        `json:"kind"`
	From *Connection `json:"from"`
}

type body[T any] struct {
	Body T `json:"body"`
}

// EncodeRequest serializes a client message
func EncodeRequest(msg ClientMessage) ([]byte, error) {
	if msg.Body == nil {
		return nil, errors.New("encode request: nil body")
	}
	from := msg.From
	return json.Marshal(envelope{Kind: msg.Body.Kind(), From: &from, Body: msg.Body})
}

// EncodeResponse serializes a server message
func EncodeResponse(resp Response) ([]byte, error) {
	if resp == nil {
		return nil, errors.New("encode response: nil body")
	}
	return json.Marshal(envelope{Kind: resp.Kind(), Body: resp})
}

// DecodeRequest parses a client message. The sender identity is mandatory.
func DecodeRequest(data []byte) (ClientMessage, error) {
	h, err := decodeHeader(data)
	if err != nil {
		return ClientMessage{}, err
	}
	if h.From == nil || !h.From.IsValid() {
		return ClientMessage{}, fmt.Errorf("%w: missing or invalid sender", ErrDecode)
	}

	var req Request
	switch h.Kind {
	case KindConnectRequest:
		req = ConnectRequest{}
	case KindHeartbeat:
		req = Heartbeat{}
	case KindDisconnect:
		req = Disconnect{}
	case KindCreateUserRequest:
		req, err = decodeBody[CreateUserRequest](data)
	case KindLoginRequest:
		req, err = decodeBody[LoginRequest](data)
	case KindChangePasswordRequest:
		req, err = decodeBody[ChangePasswordRequest](data)
	case KindLogoutRequest:
		req = LogoutRequest{}
	case KindQuitGameRequest:
		req = QuitGameRequest{}
	case KindConnectedUsersRequest:
		req = ConnectedUsersRequest{}
	case KindCreateGameRequest:
		req, err = decodeBody[CreateGameRequest](data)
	case KindJoinGameRequest:
		req, err = decodeBody[JoinGameRequest](data)
	case KindLeaderboardRequest:
		req = LeaderboardRequest{}
	case KindAddLeaderboardEntry:
		req, err = decodeBody[AddLeaderboardEntry](data)
	default:
		return ClientMessage{}, fmt.Errorf("%w: unknown request kind %q", ErrDecode, h.Kind)
	}
	if err != nil {
		return ClientMessage{}, err
	}

	return ClientMessage{From: *h.From, Body: req}, nil
}

// DecodeResponse parses a server message
func DecodeResponse(data []byte) (Response, error) {
	h, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}

	var resp Response
	switch h.Kind {
	case KindHeartbeat:
		resp = Heartbeat{}
	case KindConnectResponse:
		resp = ConnectResponse{}
	case KindCreateUserResponse:
		resp, err = decodeBody[CreateUserResponse](data)
	case KindLoginResponse:
		resp, err = decodeBody[LoginResponse](data)
	case KindChangePasswordResponse:
		resp, err = decodeBody[ChangePasswordResponse](data)
	case KindLogoutResponse:
		resp = LogoutResponse{}
	case KindConnectedUsersResponse:
		resp, err = decodeBody[ConnectedUsersResponse](data)
	case KindCreateGameResponse:
		resp, err = decodeBody[CreateGameResponse](data)
	case KindJoinGameResponse:
		resp, err = decodeBody[JoinGameResponse](data)
	case KindLeaderboardResponse:
		resp, err = decodeBody[LeaderboardResponse](data)
	case KindNotConnected:
		resp = NotConnected{}
	default:
		return nil, fmt.Errorf("%w: unknown response kind %q", ErrDecode, h.Kind)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func decodeHeader(data []byte) (header, error) {
	var h header
	if !utf8.Valid(data) {
		return h, fmt.Errorf("%w: invalid utf-8", ErrDecode)
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return h, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if h.Kind == "" {
		return h, fmt.Errorf("%w: missing kind", ErrDecode)
	}
	return h, nil
}

func decodeBody[T any](data []byte) (T, error) {
	var b body[T]
	if err := json.Unmarshal(data, &b); err != nil {
		return b.Body, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := validate(b.Body); err != nil {
		return b.Body, err
	}
	return b.Body, nil
}

// validate rejects bodies whose result tag is neither ok nor err
func validate(v any) error {
	var r Result
	switch b := v.(type) {
	case CreateUserResponse:
		r = b.Result
	case LoginResponse:
		r = b.Result
	case ChangePasswordResponse:
		r = b.Result
	case CreateGameResponse:
		r = b.Result
	case JoinGameResponse:
		r = b.Result
	default:
		return nil
	}
	if r != ResultOK && r != ResultErr {
		return fmt.Errorf("%w: invalid result %q", ErrDecode, r)
	}
	return nil
}
