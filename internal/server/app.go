// Package server initializes and runs the dashvault server: it wires the
// revisioned backend client, document services and HTTP API together and
// handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkalinins/dashvault/internal/dashboards"
	"github.com/mkalinins/dashvault/internal/docstore"
	"github.com/mkalinins/dashvault/internal/githost"
	"github.com/mkalinins/dashvault/internal/logging"
	"github.com/mkalinins/dashvault/internal/password"
	"github.com/mkalinins/dashvault/internal/server/config"
	"github.com/mkalinins/dashvault/internal/server/httpapi"
	"github.com/mkalinins/dashvault/internal/session"
	"github.com/mkalinins/dashvault/internal/users"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	userSvc *users.Service
	dashSvc *dashboards.Service
	handler *httpapi.Handler
}

func NewApp(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	backend := githost.NewClient(githost.Config{
		BaseURL: cfg.GitBaseURL,
		Token:   cfg.GitToken,
		Owner:   cfg.GitOwner,
		Repo:    cfg.GitRepo,
		Branch:  cfg.GitBranch,
		Timeout: cfg.BackendTimeout,
	})
	store := docstore.New(backend, logger)

	hasher := password.NewHasher(password.DefaultParams())
	codec := session.NewCodec([]byte(cfg.SessionSecret), cfg.SessionTTL)

	userSvc := users.NewService(store, hasher, cfg.UsersPath, logger)
	dashSvc := dashboards.NewService(store, cfg.DashboardDir, logger)

	handler := httpapi.NewHandler(logger, codec, userSvc, dashSvc, cfg.SecureCookies)

	return &App{
		config:  cfg,
		logger:  logger,
		userSvc: userSvc,
		dashSvc: dashSvc,
		handler: handler,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	if err := app.userSvc.EnsureBootstrapAdmin(ctx, app.config.AdminUser, app.config.AdminPassword); err != nil {
		// Bootstrap failure is logged but does not block startup: the
		// users document may become reachable later.
		app.logger.Error(ctx, "bootstrap admin failed", "error", err)
	}

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: httpapi.NewRouter(app.handler),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
