// Package session is the client side of the usergate session lifecycle. A
// Client owns one token pair, attaches it to every request, drops it on any
// 401 and normalizes every outcome into an Envelope.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/usergate/internal/client/models"
	"github.com/dmitrijs2005/usergate/internal/client/tokenstore"
	"github.com/dmitrijs2005/usergate/internal/common"
	"github.com/dmitrijs2005/usergate/internal/logging"
)

type State int

const (
	Anonymous State = iota
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	default:
		return "anonymous"
	}
}

const (
	msgNetwork     = "Network error"
	msgBadResponse = "Invalid server response"
	msgNotLoggedIn = "Not logged in"
)

const maxResponseBytes = 4 << 20

type Client struct {
	baseURL        string
	http           *http.Client
	store          tokenstore.Store
	logger         logging.Logger
	onUnauthorized func()

	mu      sync.Mutex
	state   State
	gen     uint64
	access  string
	refresh string
	user    *models.User
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithStore(s tokenstore.Store) Option { return func(c *Client) { c.store = s } }

func WithLogger(l logging.Logger) Option { return func(c *Client) { c.logger = l } }

// WithTimeout sets the per-request deadline of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

// OnUnauthorized registers fn to run after a 401 ended the session. It is
// called without the session lock held.
func OnUnauthorized(fn func()) Option { return func(c *Client) { c.onUnauthorized = fn } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		store:   tokenstore.NewMemoryStore(),
		logger:  logging.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Restore loads a previously saved session from the store.
func (c *Client) Restore(ctx context.Context) error {
	s, err := c.store.Load(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		return nil
	}
	u := s.User
	c.access, c.refresh, c.user = s.AccessToken, s.RefreshToken, &u
	c.state = Authenticated
	c.gen++
	return nil
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// User is the cached identity of the session, nil when anonymous.
func (c *Client) User() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Generation increases on every session transition.
func (c *Client) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *Client) snapshot() (gen uint64, access string, state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, c.access, c.state
}

// setSessionLocked installs a new pair and persists it. c.mu must be held.
func (c *Client) setSessionLocked(ctx context.Context, s models.Session) {
	u := s.User
	c.access, c.refresh, c.user = s.AccessToken, s.RefreshToken, &u
	c.state = Authenticated
	c.gen++
	if err := c.store.Save(ctx, models.StoredSession{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken, User: u}); err != nil {
		c.logger.Warn(ctx, "saving session failed", "error", err)
	}
}

// clearLocked drops the session. c.mu must be held.
func (c *Client) clearLocked(ctx context.Context) {
	c.access, c.refresh, c.user = "", "", nil
	c.state = Anonymous
	c.gen++
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn(ctx, "clearing session failed", "error", err)
	}
}

// send performs one request and decodes the envelope. It never touches
// session state.
func (c *Client) send(ctx context.Context, method, path, token string, body any) Envelope {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return failure(0, "Invalid request: "+err.Error())
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return failure(0, "Invalid request: "+err.Error())
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug(ctx, "request failed", "method", method, "path", path, "error", err)
		return failure(0, msgNetwork)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return failure(resp.StatusCode, msgNetwork)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		env = failure(resp.StatusCode, msgBadResponse)
		if resp.StatusCode >= 400 {
			env.Error = http.StatusText(resp.StatusCode)
		}
	}
	env.Status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		env.Success = false
		if env.Error == "" {
			env.Error = http.StatusText(resp.StatusCode)
		}
	}
	return env
}

// Do sends a request with the current access token and decodes data into
// out on success. A 401 ends the session. If the session changed while
// the request was in flight the response is discarded and the Envelope is
// marked Stale.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) Envelope {
	gen, access, _ := c.snapshot()
	env := c.send(ctx, method, path, access, body)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return Envelope{Status: env.Status, Error: ErrStale.Error(), Stale: true}
	}
	forced := false
	if env.Status == http.StatusUnauthorized && c.state != Anonymous {
		c.clearLocked(ctx)
		forced = true
	}
	c.mu.Unlock()

	if forced {
		c.logger.Info(ctx, "session ended by server", "path", path)
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}

	return decodeData(env, out)
}

func decodeData(env Envelope, out any) Envelope {
	if !env.Success || out == nil || len(env.Data) == 0 {
		return env
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return Envelope{Status: env.Status, Error: msgBadResponse}
	}
	return env
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) Envelope {
	gen, _, _ := c.snapshot()
	env := c.send(ctx, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})

	var s models.Session
	env = decodeData(env, &s)
	if !env.Success {
		return env
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return Envelope{Status: env.Status, Error: ErrStale.Error(), Stale: true}
	}
	c.setSessionLocked(ctx, s)
	return env
}

// Logout tells the server and drops the session. Server errors are
// ignored; calling it while anonymous is a no-op.
func (c *Client) Logout(ctx context.Context) {
	_, access, state := c.snapshot()
	if state != Anonymous && access != "" {
		if env := c.send(ctx, http.MethodPost, "/auth/logout", access, nil); !env.Success {
			c.logger.Debug(ctx, "logout call failed", "error", env.Error)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Anonymous {
		return
	}
	c.clearLocked(ctx)
}

// Refresh replaces the token pair using the refresh token. A 401 ends the
// session; any other failure leaves the current pair in place.
func (c *Client) Refresh(ctx context.Context) Envelope {
	c.mu.Lock()
	if c.state != Authenticated {
		c.mu.Unlock()
		return failure(0, msgNotLoggedIn)
	}
	c.state = Refreshing
	c.gen++
	gen, refresh := c.gen, c.refresh
	c.mu.Unlock()

	env := c.send(ctx, http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": refresh})
	var s models.Session
	env = decodeData(env, &s)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return Envelope{Status: env.Status, Error: ErrStale.Error(), Stale: true}
	}
	if env.Success {
		c.setSessionLocked(ctx, s)
		c.mu.Unlock()
		return env
	}
	if env.Status != http.StatusUnauthorized {
		// Transport and server errors keep the current pair.
		c.state = Authenticated
		c.gen++
		c.mu.Unlock()
		return env
	}
	c.clearLocked(ctx)
	c.mu.Unlock()

	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
	return env
}
