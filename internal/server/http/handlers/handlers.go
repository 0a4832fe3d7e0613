// Package handlers implements the REST endpoints on top of the services.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/usergate/internal/logging"
	"github.com/dmitrijs2005/usergate/internal/server/http/respond"
	"github.com/dmitrijs2005/usergate/internal/server/services"
)

const maxBodyBytes = 1 << 20

// Exporter produces a downloadable snapshot of the directory.
type Exporter interface {
	Export(ctx context.Context) (*services.ExportResult, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	auth   *services.AuthService
	users  *services.UserService
	export Exporter
	store  Pinger
	logger logging.Logger
}

func New(as *services.AuthService, us *services.UserService, ex Exporter, store Pinger, logger logging.Logger) *Handlers {
	return &Handlers{
		auth:   as,
		users:  us,
		export: ex,
		store:  store,
		logger: logger.With("module", "http"),
	}
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *Handlers) badJSON(w http.ResponseWriter) {
	respond.JSON(w, http.StatusBadRequest, respond.Envelope{Error: respond.MsgBadJSON})
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	respond.Error(w, r, h.logger, err)
}
