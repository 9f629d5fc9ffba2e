package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	httpSwagger "github.com/swaggo/http-swagger"

	"secretsanta/api"
	"secretsanta/internal/config"
	"secretsanta/internal/handler"
	"secretsanta/internal/repository"
	"secretsanta/internal/repository/file"
	"secretsanta/internal/repository/postgres"
	"secretsanta/internal/repository/redis"
	"secretsanta/internal/service"
	"secretsanta/migrations"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

func (a *app) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	a.log.Info("starting application", "port", a.cfg.Port, "storage", a.cfg.Storage)

	repo, closeRepo, err := openRepository(ctx, a.cfg, a.log)
	if err != nil {
		return err
	}
	defer closeRepo()

	svc := service.New(repo,
		service.WithLogger(a.log),
		service.WithMaxAttempts(a.cfg.MaxAttempts),
	)
	h := handler.New(svc, a.log)

	addr := fmt.Sprintf(":%d", a.cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(h),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", "addr", addr)
		a.log.Info("documentation available at", "url", fmt.Sprintf("http://localhost:%d/swagger/index.html", a.cfg.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server forced to shutdown", "error", err)
		return err
	}
	a.log.Info("server exited properly")
	return nil
}

func newRouter(h *handler.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPI)
	})
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/openapi.yaml"),
	))

	h.RegisterRoutes(r)
	return r
}

// openRepository connects the configured backend. Postgres is migrated
// before use.
func openRepository(ctx context.Context, cfg config.Config, log *slog.Logger) (repository.Repository, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	var (
		repo repository.Repository
		err  error
	)
	switch cfg.Storage {
	case config.StoragePostgres:
		if err := migrations.Run(ctx, cfg.DatabaseURL); err != nil {
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		repo, err = postgres.New(ctx, cfg.DatabaseURL)
	case config.StorageRedis:
		repo, err = redis.New(ctx, cfg.RedisURL)
	case config.StorageFile:
		repo, err = file.New(cfg.DataFile)
	default:
		err = fmt.Errorf("unknown storage %q", cfg.Storage)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s storage: %w", cfg.Storage, err)
	}
	log.Debug("storage ready", "storage", cfg.Storage)

	closeRepo := func() {
		if closer, ok := repo.(interface{ Close() }); ok {
			closer.Close()
		}
	}
	return repo, closeRepo, nil
}
