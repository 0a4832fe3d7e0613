package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/usergate/internal/common"
	"github.com/dmitrijs2005/usergate/internal/server/auth"
	"github.com/dmitrijs2005/usergate/internal/server/http/respond"
	"github.com/dmitrijs2005/usergate/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// MaxLimit caps the page size of GET /users.
const MaxLimit = 100

// pageParams reads page, limit and search from the query string. Missing
// values fall back to the service defaults.
func pageParams(r *http.Request) (page, limit int, search string, err error) {
	q := r.URL.Query()
	v := common.NewValidationError()

	page = services.DefaultPage
	if s := q.Get("page"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil || n < 1 {
			v.Add("page", "must be a positive integer")
		}
		page = n
	}

	limit = services.DefaultLimit
	if s := q.Get("limit"); s != "" {
		n, convErr := strconv.Atoi(s)
		switch {
		case convErr != nil || n < 1:
			v.Add("limit", "must be a positive integer")
		case n > MaxLimit:
			v.Add("limit", "must be at most "+strconv.Itoa(MaxLimit))
		}
		limit = n
	}

	return page, limit, strings.TrimSpace(q.Get("search")), v.OrNil()
}

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, search, err := pageParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.users.List(r.Context(), page, limit, search)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, respond.Envelope{
		Success: true,
		Data:    res.Items,
		Pagination: &respond.Pagination{
			Page:       res.Page,
			Limit:      res.Limit,
			Total:      res.Total,
			TotalPages: res.TotalPages,
		},
	})
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, u)
}

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserInput
	if err := decode(w, r, &req); err != nil {
		h.badJSON(w)
		return
	}

	u, err := h.users.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.Created(w, u)
}

func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateUserInput
	if err := decode(w, r, &req); err != nil {
		h.badJSON(w)
		return
	}

	u, err := h.users.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, u)
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	respond.Message(w, "User deleted successfully")
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		respond.Unauthorized(w)
		return
	}

	var req services.UpdateUserInput
	if err := decode(w, r, &req); err != nil {
		h.badJSON(w)
		return
	}

	u, err := h.users.UpdateProfile(r.Context(), p.UserID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, u)
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.users.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, st)
}

func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	res, err := h.export.Export(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.OK(w, res)
}
