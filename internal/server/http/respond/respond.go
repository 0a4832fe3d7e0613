// Package respond writes the JSON envelope every REST endpoint answers with
// and maps service errors onto HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/usergate/internal/common"
	"github.com/dmitrijs2005/usergate/internal/logging"
)

// Envelope is the response body shape shared with every front end.
type Envelope struct {
	Success    bool              `json:"success"`
	Data       any               `json:"data,omitempty"`
	Error      string            `json:"error,omitempty"`
	Message    string            `json:"message,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	Pagination *Pagination       `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Public error strings. Internal details never reach the client.
const (
	MsgUnauthorized = "Unauthorized"
	MsgForbidden    = "Forbidden"
	MsgNotFound     = "User not found"
	MsgConflict     = "User with this email already exists"
	MsgValidation   = "Validation failed"
	MsgInternal     = "Internal server error"
	MsgBadJSON      = "Invalid request body"
)

func JSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: msg})
}

func Unauthorized(w http.ResponseWriter) {
	JSON(w, http.StatusUnauthorized, Envelope{Error: MsgUnauthorized})
}

func Forbidden(w http.ResponseWriter) {
	JSON(w, http.StatusForbidden, Envelope{Error: MsgForbidden})
}

// Status maps a service error to its HTTP status and public message.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, MsgUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, MsgForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, MsgNotFound
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, MsgConflict
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, MsgValidation
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

// Error writes err as an envelope. Validation errors carry their field
// messages; anything unclassified is logged and reported as a 500.
func Error(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	status, msg := Status(err)
	env := Envelope{Error: msg}

	var ve *common.ValidationError
	if errors.As(err, &ve) {
		env.Fields = ve.Fields
	}

	if status == http.StatusInternalServerError && logger != nil {
		logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}

	JSON(w, status, env)
}
