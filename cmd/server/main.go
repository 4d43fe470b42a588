package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/forgo/lfg/internal/config"
	"github.com/forgo/lfg/internal/database"
	"github.com/forgo/lfg/internal/handler"
	"github.com/forgo/lfg/internal/jobs"
	"github.com/forgo/lfg/internal/middleware"
	"github.com/forgo/lfg/internal/repository"
	"github.com/forgo/lfg/internal/repository/sqlstore"
	"github.com/forgo/lfg/internal/service"
	"github.com/forgo/lfg/internal/telemetry"
	"github.com/forgo/lfg/internal/view"
	"github.com/forgo/lfg/pkg/jwt"
)

// storage is the repository set for the configured driver
type storage struct {
	users      service.UserRepository
	characters service.CharacterRepository
	posts      service.PostRepository
	pinger     handler.Pinger
	close      func() error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		slog.Error("failed to open storage",
			slog.String("driver", cfg.Storage.Driver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize services
	eventHub := service.NewEventHub()
	boardService := service.NewBoardService(service.BoardServiceConfig{
		UserRepo:      store.users,
		CharacterRepo: store.characters,
		PostRepo:      store.posts,
		EventHub:      eventHub,
		Location:      cfg.Location(),
	})

	errorStore := view.NewErrorStore()
	stopWatch := errorStore.Watch(eventHub)
	dispatcher := jobs.NewDispatcher(jobs.DispatcherConfig{
		Timeout:     cfg.Board.DispatchTimeout,
		Concurrency: cfg.Board.DispatchConcurrency,
		Errors:      errorStore,
		EventHub:    eventHub,
	})
	format := view.NewFormatter(cfg.Location(), cfg.Board.Locale)

	// Initialize handlers and routes
	mux := http.NewServeMux()
	handler.Register(mux, handler.Routes{
		Health: handler.NewHealthHandler(store.pinger),
		Board:  handler.NewBoardHandler(boardService, errorStore, format),
		UI: handler.NewUIHandler(handler.UIHandlerConfig{
			Store:      boardService,
			Dispatcher: dispatcher,
			Errors:     errorStore,
			Format:     format,
		}),
		Events:      handler.NewEventsHandler(eventHub),
		Auth:        jwtService,
		Provisioner: boardService,
	})

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Trace(nil),
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("storage", cfg.Storage.Driver),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stopWatch()
	// Close the hub first so open event streams return and Shutdown can finish
	eventHub.Close()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}
	dispatcher.Close()
	if err := store.close(); err != nil {
		slog.Error("failed to close storage", slog.String("error", err.Error()))
	}
	if err := shutdownTracing(ctx); err != nil {
		slog.Error("failed to flush traces", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

// openStorage connects the configured backend and prepares its schema
func openStorage(ctx context.Context, cfg config.StorageConfig) (*storage, error) {
	switch cfg.Driver {
	case config.DriverSurrealDB:
		db := database.NewSurrealDB(database.Config{
			Host:      cfg.SurrealDB.Host,
			Port:      cfg.SurrealDB.Port,
			User:      cfg.SurrealDB.User,
			Password:  cfg.SurrealDB.Password,
			Namespace: cfg.SurrealDB.Namespace,
			Database:  cfg.SurrealDB.Database,
		})
		if err := db.Connect(ctx); err != nil {
			return nil, err
		}
		if err := repository.DefineSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		slog.Info("connected to database",
			slog.String("host", cfg.SurrealDB.Host),
			slog.String("database", cfg.SurrealDB.Database),
		)
		return &storage{
			users:      repository.NewUserRepository(db),
			characters: repository.NewCharacterRepository(db),
			posts:      repository.NewPostRepository(db),
			pinger:     db,
			close:      db.Close,
		}, nil

	case config.DriverPostgres, config.DriverSQLite:
		dialect := database.DialectPostgres
		open := func() (*sqlstore.Store, error) {
			db, err := database.OpenPostgres(ctx, cfg.Postgres.DSN)
			if err != nil {
				return nil, err
			}
			return sqlstore.New(db, dialect), nil
		}
		if cfg.Driver == config.DriverSQLite {
			dialect = database.DialectSQLite
			open = func() (*sqlstore.Store, error) {
				if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o755); err != nil {
					return nil, err
				}
				db, err := database.OpenSQLite(ctx, cfg.SQLite.Path)
				if err != nil {
					return nil, err
				}
				return sqlstore.New(db, dialect), nil
			}
		}

		store, err := open()
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, store.DB(), dialect); err != nil {
			_ = store.DB().Close()
			return nil, err
		}
		slog.Info("connected to database", slog.String("dialect", string(dialect)))
		return &storage{
			users:      store.Users,
			characters: store.Characters,
			posts:      store.Posts,
			pinger:     store,
			close:      store.DB().Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
