package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/usergate/internal/client/models"
)

// ErrStale marks a response that arrived after the session changed (login,
// logout, refresh or a forced logout). Its content was discarded.
var ErrStale = errors.New("session changed while the request was in flight")

// Envelope is the uniform result of every call. Transport failures, error
// statuses and undecodable bodies all end up here with Success false.
type Envelope struct {
	Success    bool               `json:"success"`
	Data       json.RawMessage    `json:"data,omitempty"`
	Error      string             `json:"error,omitempty"`
	Message    string             `json:"message,omitempty"`
	Fields     map[string]string  `json:"fields,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`

	// Status is the HTTP status, 0 when no response was received.
	Status int  `json:"-"`
	Stale  bool `json:"-"`
}

// APIError is the error form of a failed Envelope.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e.Fields[k]))
	}
	return e.Message + ": " + strings.Join(parts, ", ")
}

// Err returns nil for a successful envelope, ErrStale for a discarded one
// and an *APIError otherwise.
func (e Envelope) Err() error {
	switch {
	case e.Success:
		return nil
	case e.Stale:
		return ErrStale
	default:
		return &APIError{Status: e.Status, Message: e.Error, Fields: e.Fields}
	}
}

func failure(status int, msg string) Envelope {
	return Envelope{Status: status, Error: msg}
}
