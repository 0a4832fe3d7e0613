package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/usergate/internal/logging"
	"github.com/dmitrijs2005/usergate/internal/server/auth"
	"github.com/dmitrijs2005/usergate/internal/server/http/middleware"
	"github.com/dmitrijs2005/usergate/internal/server/models"
	"github.com/dmitrijs2005/usergate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/usergate/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var origins = []string{"http://localhost:3000"}

type fakeExporter struct {
	res *services.ExportResult
	err error
}

func (f fakeExporter) Export(context.Context) (*services.ExportResult, error) { return f.res, f.err }

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type envelope struct {
	Success    bool                `json:"success"`
	Data       json.RawMessage     `json:"data"`
	Error      string              `json:"error"`
	Message    string              `json:"message"`
	Fields     map[string]string   `json:"fields"`
	Pagination *paginationEnvelope `json:"pagination"`
}

type paginationEnvelope struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type api struct {
	t       *testing.T
	rm      *repomanager.MemoryRepositoryManager
	tokens  *auth.TokenManager
	router  http.Handler
	handler *Handlers
}

type apiOption func(*RouterOptions, *apiDeps)

type apiDeps struct {
	rm       *repomanager.MemoryRepositoryManager
	exporter Exporter
	pinger   Pinger
}

func withExporter(e Exporter) apiOption {
	return func(_ *RouterOptions, d *apiDeps) { d.exporter = e }
}

func withPinger(p Pinger) apiOption {
	return func(_ *RouterOptions, d *apiDeps) { d.pinger = p }
}

func withLiveRole() apiOption {
	return func(o *RouterOptions, d *apiDeps) {
		rm := d.rm
		o.LiveRole = func(ctx context.Context, id string) (models.Role, error) {
			u, err := rm.Users().FindByID(ctx, id)
			if err != nil {
				return "", err
			}
			return u.Role, nil
		}
	}
}

func newAPI(t *testing.T, opts ...apiOption) *api {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager()
	tokens, err := auth.NewTokenManager("handler-secret", "usergate", time.Hour, 24*time.Hour)
	require.NoError(t, err)
	hasher := auth.NewArgon2Hasher(auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16})

	log := logging.NewNop()
	as, err := services.NewAuthService(rm, tokens, hasher, log)
	require.NoError(t, err)
	require.NoError(t, as.Seed(context.Background(), services.DefaultSeedAccounts()))

	reg := prometheus.NewRegistry()
	ropts := RouterOptions{
		Verifier:       tokens,
		Metrics:        middleware.NewMetrics(reg),
		Gatherer:       reg,
		AllowedOrigins: origins,
	}
	deps := apiDeps{rm: rm, exporter: fakeExporter{err: errors.New("not configured")}, pinger: rm}
	for _, o := range opts {
		o(&ropts, &deps)
	}

	h := New(as, services.NewUserService(rm, hasher, log), deps.exporter, deps.pinger, log)
	return &api{t: t, rm: rm, tokens: tokens, router: h.Routes(ropts), handler: h}
}

func (a *api) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

type sessionBody struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	ExpiresIn    int64             `json:"expiresIn"`
	User         models.PublicUser `json:"user"`
}

func (a *api) login(email, password string) sessionBody {
	a.t.Helper()
	rec, env := a.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	var s sessionBody
	require.NoError(a.t, json.Unmarshal(env.Data, &s))
	return s
}

func (a *api) adminToken() string { return a.login("admin@example.com", "admin123").AccessToken }
func (a *api) userToken() string  { return a.login("user@example.com", "user123").AccessToken }

// addUsers creates n extra accounts with increasing creation times.
func (a *api) addUsers(n int) {
	a.t.Helper()
	base := time.Now().UTC().Add(time.Hour)
	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		_, err := a.rm.Users().Create(context.Background(), &models.User{
			Email:     fmt.Sprintf("member%02d@example.com", i),
			Name:      fmt.Sprintf("Member %02d", i),
			Role:      models.RoleUser,
			CreatedAt: ts,
			UpdatedAt: ts,
		})
		require.NoError(a.t, err)
	}
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}
