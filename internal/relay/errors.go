package relay

import "errors"

// Error codes reported in logs and HTTP responses.
const (
	ErrCodeInvalidSession  = "invalid_session"
	ErrCodeSessionClosed   = "session_closed"
	ErrCodeBadRequest      = "bad_request"
	ErrCodeRateLimited     = "rate_limited"
	ErrCodeNotConnected    = "not_connected"
	ErrCodeTooManySessions = "too_many_sessions"
	ErrCodeInternal        = "internal"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrNotConnected    = errors.New("not connected")
	ErrRateLimited     = errors.New("rate limited")
	ErrTooManySessions = errors.New("too many sessions")
	ErrInvalidServer   = errors.New("invalid server address")
)

// Error wraps a code and human-readable message.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func relayError(code string, err error) *Error {
	return &Error{Code: code, Message: err.Error(), Err: err}
}

// Code returns the error code for err.
func Code(err error) string {
	var re *Error
	switch {
	case errors.As(err, &re):
		return re.Code
	case errors.Is(err, ErrSessionNotFound):
		return ErrCodeInvalidSession
	case errors.Is(err, ErrSessionClosed):
		return ErrCodeSessionClosed
	case errors.Is(err, ErrRateLimited):
		return ErrCodeRateLimited
	case errors.Is(err, ErrNotConnected):
		return ErrCodeNotConnected
	case errors.Is(err, ErrTooManySessions):
		return ErrCodeTooManySessions
	case errors.Is(err, ErrInvalidServer):
		return ErrCodeBadRequest
	}
	return ErrCodeInternal
}
