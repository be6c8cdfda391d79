package supabase

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sakif/reclaim/internal/apperror"
)

// apiError covers the error bodies of all three services:
//
//	auth:    {"code":400,"error_code":"invalid_credentials","msg":"..."}
//	         {"error":"invalid_grant","error_description":"..."}
//	tables:  {"code":"23505","message":"...","details":"...","hint":null}
//	storage: {"statusCode":"409","error":"Duplicate","message":"..."}
type apiError struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Msg              string          `json:"msg"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Message          string          `json:"message"`
	Details          string          `json:"details"`
}

func (e *apiError) code() string {
	return strings.Trim(string(e.Code), `"`)
}

func (e *apiError) message() string {
	for _, m := range []string{e.Msg, e.ErrorDescription, e.Message, e.Error} {
		if m != "" {
			return m
		}
	}
	return ""
}

// decodeError turns a non-2xx response into an apperror kind.
func decodeError(resp *http.Response, path string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var e apiError
	_ = json.Unmarshal(body, &e)
	msg := e.message()
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch e.code() {
	case "PGRST116":
		return apperror.Wrap(apperror.ErrNotFound, msg)
	case "23505", "23503":
		return apperror.Wrap(apperror.ErrConflict, msg)
	case "42501":
		return apperror.Wrap(apperror.ErrForbidden, msg)
	case "22P02", "23502", "23514":
		return apperror.Wrap(apperror.ErrValidation, msg)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		if e.Error == "invalid_grant" || e.ErrorCode == "invalid_credentials" {
			return apperror.Unauthorized(msg)
		}
		return apperror.Wrap(apperror.ErrValidation, msg)
	case http.StatusUnauthorized:
		return apperror.Unauthorized(msg)
	case http.StatusForbidden:
		return apperror.Wrap(apperror.ErrForbidden, msg)
	case http.StatusNotFound, http.StatusNotAcceptable:
		return apperror.Wrap(apperror.ErrNotFound, msg)
	case http.StatusConflict:
		return apperror.Wrap(apperror.ErrConflict, msg)
	case http.StatusUnprocessableEntity:
		if e.ErrorCode == "user_already_exists" || strings.Contains(msg, "already registered") {
			return apperror.Wrap(apperror.ErrConflict, msg)
		}
		return apperror.Wrap(apperror.ErrValidation, msg)
	}
	return fmt.Errorf("supabase: %s: status %d: %s", path, resp.StatusCode, msg)
}
