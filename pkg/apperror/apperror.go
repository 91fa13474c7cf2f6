// Package apperror holds the domain error taxonomy shared by services and the
// HTTP boundary. Services return these; handlers map them to status codes.
package apperror

import "errors"

// Kinds. Match with errors.Is.
var (
	ErrAlreadyExists = errors.New("already exists") // 400
	ErrBadRequest    = errors.New("bad request")    // 400
	ErrUnauthorized  = errors.New("unauthorized")   // 401
	ErrForbidden     = errors.New("forbidden")      // 403
	ErrNotFound      = errors.New("not found")      // 404
)

// Error is a domain error with a client-facing message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func AlreadyExists(msg string) error { return &Error{Kind: ErrAlreadyExists, Message: msg} }
func BadRequest(msg string) error    { return &Error{Kind: ErrBadRequest, Message: msg} }
func Unauthorized(msg string) error  { return &Error{Kind: ErrUnauthorized, Message: msg} }
func Forbidden(msg string) error     { return &Error{Kind: ErrForbidden, Message: msg} }
func NotFound(msg string) error      { return &Error{Kind: ErrNotFound, Message: msg} }

// Message returns the client-facing message of a domain error, or "" when err
// is not one.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
