// Package server wires the usergate server together: storage, token
// issuing, services, the REST API and the gRPC health endpoint. It runs
// until its context is cancelled and then shuts everything down gracefully.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/usergate/internal/logging"
	"github.com/dmitrijs2005/usergate/internal/server/auth"
	"github.com/dmitrijs2005/usergate/internal/server/config"
	"github.com/dmitrijs2005/usergate/internal/server/http/handlers"
	"github.com/dmitrijs2005/usergate/internal/server/http/middleware"
	"github.com/dmitrijs2005/usergate/internal/server/models"
	"github.com/dmitrijs2005/usergate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/usergate/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/usergate/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   repomanager.RepositoryManager
	handler http.Handler
	grpc    *gs.GRPCServer
}

// NewApp opens the store, applies migrations, seeds the bootstrap accounts
// when enabled and builds the HTTP handler. The caller owns the returned
// App and must call Run, which releases the store on exit.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	rm, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := build(ctx, c, logger, rm)
	if err != nil {
		_ = rm.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, c *config.Config, logger logging.Logger, rm repomanager.RepositoryManager) (*App, error) {
	if err := rm.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	tokens, err := auth.NewTokenManager(c.SecretKey, c.Issuer, c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}
	hasher := auth.NewArgon2Hasher(auth.DefaultArgon2Params())

	as, err := services.NewAuthService(rm, tokens, hasher, logger)
	if err != nil {
		return nil, err
	}
	if c.SeedUsers {
		if err := as.Seed(ctx, services.DefaultSeedAccounts()); err != nil {
			return nil, fmt.Errorf("seed users: %w", err)
		}
	}

	us := services.NewUserService(rm, hasher, logger)
	es := services.NewExportService(rm, services.ExportOptions{
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
		Region:       c.S3Region,
		Bucket:       c.S3Bucket,
		BaseEndpoint: c.S3BaseEndpoint,
		URLValidity:  c.ExportURLValidityDuration,
	}, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := handlers.RouterOptions{
		Verifier:       tokens,
		Metrics:        middleware.NewMetrics(reg),
		Gatherer:       reg,
		AllowedOrigins: c.AllowedOrigins,
	}
	if c.StrictRoleCheck {
		opts.LiveRole = func(ctx context.Context, id string) (models.Role, error) {
			u, err := rm.Users().FindByID(ctx, id)
			if err != nil {
				return "", err
			}
			return u.Role, nil
		}
	}

	h := handlers.New(as, us, es, rm, logger)

	return &App{
		config:  c,
		logger:  logger,
		repos:   rm,
		handler: h.Routes(opts),
		grpc:    gs.NewGRPCServer(c.GRPCAddr, logger, rm),
	}, nil
}

// Handler is the REST API with all middleware applied.
func (app *App) Handler() http.Handler {
	return app.handler
}

func (app *App) runHTTPServer(ctx context.Context) error {
	lis, err := net.Listen("tcp", app.config.HTTPAddr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "Stopping HTTP server...")
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves HTTP and gRPC until ctx is cancelled or one of the servers
// fails, then stops both and closes the store. The first server error is
// returned.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancelFunc()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := app.runHTTPServer(ctx); err != nil {
			app.logger.Error(ctx, "http server failed", "error", err)
			fail(err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := app.grpc.Run(ctx); err != nil {
			app.logger.Error(ctx, "grpc server failed", "error", err)
			fail(err)
		}
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "closing store", "error", err)
	}
	app.logger.Info(ctx, "app stopped")
	return firstErr
}
