package domain

import "errors"

var (
	ErrAuthenticationRequired = errors.New("user not authenticated")
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation error")
)

// Wire codes carried by the private error event.
const (
	CodeAuthenticationRequired = "authentication_required"
	CodeNotFound               = "not_found"
	CodeValidation             = "validation_error"
	CodeInternal               = "internal"
)

// ErrorCode maps err onto the code sent to the client.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		return CodeAuthenticationRequired
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrValidation):
		return CodeValidation
	default:
		return CodeInternal
	}
}
