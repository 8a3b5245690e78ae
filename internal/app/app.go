package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abrezinsky/pairsync/internal/config"
	"github.com/abrezinsky/pairsync/internal/handlers"
	"github.com/abrezinsky/pairsync/internal/logger"
	"github.com/abrezinsky/pairsync/internal/websocket"
	"github.com/abrezinsky/pairsync/pkg/tournamentapi"
)

const shutdownTimeout = 5 * time.Second

// App holds all application dependencies
type App struct {
	log       logger.Logger
	cfg       config.Config
	handlers  *handlers.Handlers
	hub       *websocket.Hub
	publicURL string
}

// New creates and initializes a new application instance
func New(log logger.Logger, cfg config.Config, client tournamentapi.Client, fixtures handlers.Fixtures, templatesFS, staticFS fs.FS) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	hub := websocket.New(log, client,
		websocket.WithStalePolicy(cfg.StalePolicy()),
		websocket.WithRequestTimeout(cfg.RequestTimeout))
	hub.Start()

	publicURL := cfg.ResolvePublicURL(preferredIP(realNetworkProvider{}))

	h, err := handlers.New(
		hub,
		fixtures,
		publicURL,
		templatesFS,
		handlers.NewStaticServer(staticFS),
		log,
	)
	if err != nil {
		hub.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		log:       log,
		cfg:       cfg,
		handlers:  h,
		hub:       hub,
		publicURL: publicURL,
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// PublicURL returns the base URL used in QR codes and log output
func (a *App) PublicURL() string {
	return a.publicURL
}

// Close disconnects all form sessions
func (a *App) Close() {
	a.hub.Close()
}

// Run serves HTTP on the configured port until ctx is canceled
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.Info("Server starting", "url", a.publicURL)
		a.log.Info("Forms", "match", a.publicURL+"/forms/match", "team", a.publicURL+"/forms/team")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		a.Close()
		return err
	case <-ctx.Done():
	}

	a.log.Info("Server shutting down")
	a.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
