package handler

// The emulator answers in the error shapes of the three hosted services so
// the HTTP client decodes them exactly as it would in production:
//
//	auth:    {"code":422,"error_code":"user_already_exists","msg":"..."}
//	tables:  {"code":"23505","message":"...","details":null,"hint":null}
//	storage: {"statusCode":"409","error":"Duplicate","message":"..."}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/reclaim/internal/apperror"
)

// writeJSON sends a JSON response with the given status code.
// Headers must be set before WriteHeader; the body follows.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps an apperror kind to an HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// publicMessage returns the AppError message, or a generic one. Raw errors
// may carry SQL or file paths and are never sent to the client.
func publicMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "An internal error occurred"
}

// AuthError is the auth API's error body.
type AuthError struct {
	Code      int    `json:"code"`
	ErrorCode string `json:"error_code,omitempty"`
	Msg       string `json:"msg"`
}

// GrantError is the token endpoint's OAuth-style error body.
type GrantError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func writeAuthError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, AuthError{Code: status, ErrorCode: code, Msg: msg})
}

func writeGrantError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, GrantError{Error: "invalid_grant", ErrorDescription: msg})
}

// RestError is the tables API's error body.
type RestError struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details"`
	Hint    *string `json:"hint"`
}

func writeRestError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, RestError{Code: code, Message: msg})
}

// writeRestErr maps a repository error onto the tables API's codes.
func writeRestErr(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch status := statusFor(err); status {
	case http.StatusConflict:
		writeRestError(w, status, "23505", publicMessage(err))
	case http.StatusBadRequest:
		writeRestError(w, status, "22P02", publicMessage(err))
	case http.StatusNotFound:
		writeRestError(w, http.StatusNotAcceptable, "PGRST116",
			"JSON object requested, multiple (or no) rows returned")
	case http.StatusForbidden:
		writeRestError(w, status, "42501", publicMessage(err))
	case http.StatusInternalServerError:
		logger.Error("tables request failed", slog.String("error", err.Error()))
		writeRestError(w, status, "XX000", publicMessage(err))
	default:
		writeRestError(w, status, "", publicMessage(err))
	}
}

// StorageError is the storage API's error body.
type StorageError struct {
	StatusCode string `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

func writeStorageError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	label := http.StatusText(status)
	if status == http.StatusConflict {
		label = "Duplicate"
	}
	if status == http.StatusInternalServerError {
		logger.Error("storage request failed", slog.String("error", err.Error()))
	}
	writeJSON(w, status, StorageError{
		StatusCode: strconv.Itoa(status),
		Error:      label,
		Message:    publicMessage(err),
	})
}
