package apperror

import "net/http"

type Code string

const (
	BadRequest Code = "BAD_REQUEST"
	NoData     Code = "NO_DATA"
	Internal   Code = "INTERNAL"
)

type AppError struct {
	code    Code
	message string
}

func New(code Code, message string) *AppError {
	return &AppError{code: code, message: message}
}

func (e *AppError) Error() string   { return e.message }
func (e *AppError) Code() Code      { return e.code }
func (e *AppError) Message() string { return e.message }

func (e *AppError) HTTPStatus() int {
	switch e.code {
	case BadRequest:
		return http.StatusBadRequest
	case NoData:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
