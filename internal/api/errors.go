package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

type ErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "")
}

// writeUndecodable reports a file that exists but cannot be read as an image.
func writeUndecodable(c *echo.Context, msg, code string) error {
	return writeError(c, http.StatusUnprocessableEntity, "decode_error", msg, code)
}

func writeError(c *echo.Context, status int, errType, msg, code string) error {
	return writeJSON(c, status, errorEnvelope{Error: ErrorBody{
		Message: msg,
		Type:    errType,
		Code:    code,
	}})
}
