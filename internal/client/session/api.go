package session

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/usergate/internal/client/models"
)

func (c *Client) Register(ctx context.Context, email, password, name string) (*models.User, Envelope) {
	var u models.User
	env := c.Do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"email": email, "password": password, "name": name,
	}, &u)
	if !env.Success {
		return nil, env
	}
	return &u, env
}

// Me fetches the caller's identity and refreshes the cached user.
func (c *Client) Me(ctx context.Context) (*models.User, Envelope) {
	gen, _, _ := c.snapshot()
	var u models.User
	env := c.Do(ctx, http.MethodGet, "/auth/me", nil, &u)
	if !env.Success {
		return nil, env
	}
	c.mu.Lock()
	if c.gen == gen && c.state == Authenticated {
		cp := u
		c.user = &cp
	}
	c.mu.Unlock()
	return &u, env
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) Envelope {
	return c.Do(ctx, http.MethodPost, "/auth/change-password", map[string]string{
		"currentPassword": current, "newPassword": next,
	}, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, in models.UserInput) (*models.User, Envelope) {
	return c.userCall(ctx, http.MethodPut, "/users/profile", in)
}

// ListUsers returns one page of the directory; env.Pagination describes it.
func (c *Client) ListUsers(ctx context.Context, page, limit int, search string) ([]models.User, Envelope) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if search != "" {
		q.Set("search", search)
	}
	path := "/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var users []models.User
	env := c.Do(ctx, http.MethodGet, path, nil, &users)
	if !env.Success {
		return nil, env
	}
	return users, env
}

func (c *Client) GetUser(ctx context.Context, id string) (*models.User, Envelope) {
	return c.userCall(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil)
}

func (c *Client) CreateUser(ctx context.Context, in models.UserInput) (*models.User, Envelope) {
	return c.userCall(ctx, http.MethodPost, "/users", in)
}

func (c *Client) UpdateUser(ctx context.Context, id string, in models.UserInput) (*models.User, Envelope) {
	return c.userCall(ctx, http.MethodPut, "/users/"+url.PathEscape(id), in)
}

func (c *Client) DeleteUser(ctx context.Context, id string) Envelope {
	return c.Do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Stats(ctx context.Context) (*models.Stats, Envelope) {
	var st models.Stats
	env := c.Do(ctx, http.MethodGet, "/users/stats", nil, &st)
	if !env.Success {
		return nil, env
	}
	return &st, env
}

func (c *Client) Export(ctx context.Context) (*models.ExportResult, Envelope) {
	var res models.ExportResult
	env := c.Do(ctx, http.MethodGet, "/users/export", nil, &res)
	if !env.Success {
		return nil, env
	}
	return &res, env
}

func (c *Client) userCall(ctx context.Context, method, path string, body any) (*models.User, Envelope) {
	var u models.User
	env := c.Do(ctx, method, path, body, &u)
	if !env.Success {
		return nil, env
	}
	return &u, env
}
