package api

import (
	"encoding/json"
	"net/http"

	"reading-effort/internal/common/errors"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// WriteError renders err with the status its error code maps to. Errors that
// are not StandardErrors become 500 INTERNAL_ERROR.
func WriteError(w http.ResponseWriter, err error) {
	stdErr, ok := errors.AsStandardError(err)
	if !ok {
		stdErr = errors.NewInternalError(err)
	}
	WriteJSON(w, ErrorResponse{
		Error:   stdErr.Message,
		Code:    string(stdErr.Code),
		Details: stdErr.Details,
	}, errors.HTTPStatus(stdErr.Code))
}

func WriteJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
