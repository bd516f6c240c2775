package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/metisnation/registry/pkg/autherr"
)

// JSONResponse is the envelope of every JSON answer.
type JSONResponse struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures JSON response
type JSONOption func(*jsonResponse)

// WithJSONStatus sets custom HTTP status code
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// JSON answers {"success": true, "data": v}.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{
		status: http.StatusOK,
		body:   JSONResponse{Success: true, Data: v},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError answers {"success": false, "error": ...} with a status derived
// from err.
func JSONError(err error, opts ...JSONOption) Response {
	status, detail := errorToDetail(err)
	r := &jsonResponse{
		status: status,
		body:   JSONResponse{Error: detail},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func errorToDetail(err error) (int, *ErrorDetail) {
	if ve, ok := asValidationError(err); ok {
		return http.StatusUnprocessableEntity, &ErrorDetail{
			Code:    "validation_error",
			Message: "Validation failed",
			Details: ve,
		}
	}

	var ae *autherr.Error
	if errors.As(err, &ae) {
		return authStatus(ae.Kind), &ErrorDetail{
			Code:    string(ae.Kind),
			Message: autherr.Message(err),
		}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, &ErrorDetail{
			Code:    httpErr.Key,
			Message: http.StatusText(httpErr.Code),
		}
	}

	return http.StatusInternalServerError, &ErrorDetail{
		Code:    "internal_error",
		Message: http.StatusText(http.StatusInternalServerError),
	}
}

func authStatus(kind autherr.Kind) int {
	switch kind {
	case autherr.KindInvalidCredentials:
		return http.StatusUnauthorized
	case autherr.KindUserNotFound:
		return http.StatusNotFound
	case autherr.KindUsernameExists:
		return http.StatusConflict
	case autherr.KindRateLimited, autherr.KindTooManyRequests:
		return http.StatusTooManyRequests
	case autherr.KindUnknown:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
