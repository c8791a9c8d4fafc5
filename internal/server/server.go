// Package server orchestrates all components: NATS client, handler store, dispatcher, HTTP health.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	comms "github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/morezero/intents/internal/config"
	"github.com/morezero/intents/pkg/catalog"
	"github.com/morezero/intents/pkg/commsutil"
	"github.com/morezero/intents/pkg/db"
	"github.com/morezero/intents/pkg/dispatcher"
	"github.com/morezero/intents/pkg/events"
	"github.com/morezero/intents/pkg/metrics"
)

const logPrefix = "server:server"

// Server is the intents service orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	httpServer *http.Server
	disp       healthChecker
}

type healthChecker interface {
	Health(ctx context.Context) *dispatcher.HealthResult
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	SetupLogging(cfg.LogLevel)

	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return Serve(ctx, cfg)
}

// SetupLogging installs the default text logger at level (debug, info, warn, error).
func SetupLogging(level string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(level)})))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Serve runs the service until ctx is cancelled.
func Serve(ctx context.Context, cfg *config.Config) error {
	slog.Info(fmt.Sprintf("%s - Starting intents", logPrefix))

	caps, err := cfg.Platform()
	if err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("%s - Platform capabilities: sendToDefaultPackage=%v contactsV2=%v",
		logPrefix, caps.SendToDefaultPackage, caps.ContactsV2))

	// Step 1: Connect to NATS
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
	}
	s := &Server{cfg: cfg, nc: nc}
	defer nc.Drain()

	publisher := events.NewCommsPublisher(nc, &events.CommsPublisherOpts{GlobalChangeSubject: cfg.ChangeEventSubject})

	// Step 2: Open the handler store
	store, err := OpenHandlerStore(ctx, cfg, publisher)
	if err != nil {
		return err
	}
	defer store.Close()

	// Step 3: Create dispatcher and subscribe
	disp := dispatcher.NewDispatcher(dispatcher.NewDispatcherParams{
		Store:       store.HandlerStore,
		Publisher:   publisher,
		Platform:    caps,
		CatalogName: store.Name,
	})
	s.disp = disp

	subject := cfg.IntentsSubject
	if subject == "" {
		subject = commsutil.SubjectIntents
	}
	sub, err := dispatcher.Subscribe(ctx, nc, subject, disp, cfg.RequestTimeout)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	// Step 4: Start HTTP health server; stop everything when ctx is done
	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	s.httpServer = &http.Server{Addr: httpAddr, Handler: s.routes()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info(fmt.Sprintf("%s - HTTP health server listening on %s", logPrefix, httpAddr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("%s - HTTP server error: %w", logPrefix, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info(fmt.Sprintf("%s - Shutting down", logPrefix))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HealthCheckTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	slog.Info(fmt.Sprintf("%s - Intents server is ready", logPrefix))

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		healthCtx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()
		h := s.disp.Health(healthCtx)
		w.Header().Set("Content-Type", "application/json")
		if h.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(h)
	}
}

// HandlerStore is an opened handler store with its cleanup.
type HandlerStore struct {
	dispatcher.HandlerStore
	// Name is "postgres" or the loaded catalog name.
	Name  string
	close func()
}

// Close releases the store.
func (h *HandlerStore) Close() {
	if h.close != nil {
		h.close()
	}
}

// OpenHandlerStore opens Postgres when DATABASE_URL is set, migrating and
// seeding it when RUN_MIGRATIONS is set. Otherwise the catalog file backs an
// in-memory store, reloaded on change when WATCH_CATALOG is set.
func OpenHandlerStore(ctx context.Context, cfg *config.Config, publisher events.EventPublisher) (*HandlerStore, error) {
	if cfg.DatabaseURL != "" {
		return openPostgresStore(ctx, cfg)
	}
	return openCatalogStore(ctx, cfg, publisher)
}

func openPostgresStore(ctx context.Context, cfg *config.Config) (*HandlerStore, error) {
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
	}

	if cfg.RunMigrations {
		migrations, err := db.LoadMigrationFiles(cfg.MigrationPath)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
		}
		if err := db.RunMigrations(ctx, pool, migrations); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
		}
		if _, err := db.SeedFromCatalog(ctx, pool, cfg.CatalogFile); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s - failed to seed handler catalog: %w", logPrefix, err)
		}
	}

	return &HandlerStore{HandlerStore: db.NewRepository(pool), Name: "postgres", close: pool.Close}, nil
}

func openCatalogStore(ctx context.Context, cfg *config.Config, publisher events.EventPublisher) (*HandlerStore, error) {
	f, err := catalog.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load handler catalog: %w", logPrefix, err)
	}
	store := catalog.NewStore(f)

	if cfg.WatchCatalog && cfg.CatalogFile != "" {
		err := catalog.Watch(ctx, cfg.CatalogFile, func(f *catalog.File) {
			store.Replace(f)
			event := events.NewHandlerChangedEvent("", events.ChangeReloaded, nil)
			event.Catalog = f.Name
			if err := publisher.PublishChanged(ctx, event); err != nil {
				slog.Warn(fmt.Sprintf("%s - failed to publish reload event: %v", logPrefix, err))
			}
		})
		if err != nil {
			return nil, err
		}
	}

	return &HandlerStore{HandlerStore: store, Name: f.Name}, nil
}
