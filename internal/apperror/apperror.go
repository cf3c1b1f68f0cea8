// Package apperror is the error taxonomy shared by the REST and GraphQL surfaces.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeDependency   Code = "DEPENDENCY_ERROR"
	CodeInternal     Code = "INTERNAL_ERROR"
)

type metadata struct {
	status        int
	publicMessage string
}

var metadataByCode = map[Code]metadata{
	CodeValidation:   {http.StatusBadRequest, "validation failed"},
	CodeUnauthorized: {http.StatusUnauthorized, "Unauthorized"},
	CodeForbidden:    {http.StatusForbidden, "Forbidden"},
	CodeNotFound:     {http.StatusNotFound, "resource not found"},
	CodeConflict:     {http.StatusConflict, "conflict detected"},
	CodeRateLimit:    {http.StatusTooManyRequests, "Too many requests"},
	CodeDependency:   {http.StatusBadGateway, "upstream service failed"},
	CodeInternal:     {http.StatusInternalServerError, "internal server error"},
}

// HTTPStatus maps a code to its response status; unknown codes are 500.
func HTTPStatus(code Code) int {
	if m, ok := metadataByCode[code]; ok {
		return m.status
	}
	return http.StatusInternalServerError
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under code. The message is what callers see; err stays in the chain.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) WithDetails(details any) *Error {
	e.details = details
	return e
}

func (e *Error) Code() Code      { return e.code }
func (e *Error) Message() string { return e.message }
func (e *Error) Details() any    { return e.details }
func (e *Error) Unwrap() error   { return e.cause }
func (e *Error) HTTPStatus() int { return HTTPStatus(e.code) }
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.code == e.code && t.message == e.message
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func Validation(message string) *Error   { return New(CodeValidation, message) }
func Unauthorized(message string) *Error { return New(CodeUnauthorized, message) }
func Forbidden(message string) *Error    { return New(CodeForbidden, message) }
func NotFound(message string) *Error     { return New(CodeNotFound, message) }
func Conflict(message string) *Error     { return New(CodeConflict, message) }

// As extracts the classified error, if any, from err's chain.
func As(err error) *Error {
	var target *Error
	if errors.As(err, &target) {
		return target
	}
	return nil
}

// CodeOf returns the code in err's chain, mapping unique violations to CONFLICT.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if typed := As(err); typed != nil {
		return typed.code
	}
	if IsUniqueViolation(err) {
		return CodeConflict
	}
	return CodeInternal
}

// PublicMessage is the message safe to return to clients. Internal errors are masked.
func PublicMessage(err error) string {
	typed := As(err)
	if typed == nil {
		if IsUniqueViolation(err) {
			return metadataByCode[CodeConflict].publicMessage
		}
		return metadataByCode[CodeInternal].publicMessage
	}
	if typed.code == CodeInternal || typed.message == "" {
		return metadataByCode[typed.code].publicMessage
	}
	return typed.message
}

const pgUniqueViolation = "23505"

func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
