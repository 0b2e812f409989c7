package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrInvalidDate indicates a date expression could not be resolved or is out of policy
	ErrInvalidDate = errors.New("invalid date")

	// ErrDaysOutOfRange indicates an "N days ago" expression with N above the limit
	ErrDaysOutOfRange = fmt.Errorf("%w: days out of range", ErrInvalidDate)

	// ErrParse indicates a snapshot document could not be read at all
	ErrParse = errors.New("parse error")

	// ErrNoData indicates no snapshots are available for the requested scope
	ErrNoData = errors.New("no data")

	// ErrInvalidParameter indicates malformed tool arguments
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")
)

// Error codes reported to the tool frontend.
const (
	CodeInvalidDate      = "INVALID_DATE"
	CodeParseError       = "PARSE_ERROR"
	CodeDataNotFound     = "DATA_NOT_FOUND"
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInternal         = "INTERNAL_ERROR"
)

// QueryError is a user-facing error carrying a suggestion.
// Kind is one of the sentinel errors above, so errors.Is keeps working.
type QueryError struct {
	Kind       error
	Message    string
	Suggestion string
}

// NewQueryError creates a QueryError of the given kind.
func NewQueryError(kind error, message, suggestion string) *QueryError {
	return &QueryError{Kind: kind, Message: message, Suggestion: suggestion}
}

func (e *QueryError) Error() string {
	return e.Message
}

func (e *QueryError) Unwrap() error {
	return e.Kind
}

// ErrorCode maps an error to its frontend code.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidDate):
		return CodeInvalidDate
	case errors.Is(err, ErrParse):
		return CodeParseError
	case errors.Is(err, ErrNoData):
		return CodeDataNotFound
	case errors.Is(err, ErrInvalidParameter):
		return CodeInvalidParameter
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrTokenExpired), errors.Is(err, ErrTokenInvalid):
		return CodeUnauthorized
	default:
		return CodeInternal
	}
}

// ErrorBody is the structured error inside an Envelope.
type ErrorBody struct {
	Code       string `json:"code" example:"DATA_NOT_FOUND"`
	Message    string `json:"message" example:"no data for 2025-10-10"`
	Suggestion string `json:"suggestion,omitempty" example:"run the crawler first or check the date"`
}

// NewErrorBody converts any error into an ErrorBody.
func NewErrorBody(err error) *ErrorBody {
	if err == nil {
		return nil
	}
	body := &ErrorBody{Code: ErrorCode(err), Message: err.Error()}
	var qe *QueryError
	if errors.As(err, &qe) {
		body.Message = qe.Message
		body.Suggestion = qe.Suggestion
	}
	return body
}
