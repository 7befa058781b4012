// Package app wires configuration, storage, state and the HTTP server together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ubuhinzi360/server/internal/assistant"
	"ubuhinzi360/server/internal/chat"
	"ubuhinzi360/server/internal/community"
	"ubuhinzi360/server/internal/config"
	"ubuhinzi360/server/internal/connections"
	"ubuhinzi360/server/internal/directory"
	"ubuhinzi360/server/internal/handlers"
	"ubuhinzi360/server/internal/jobs"
	"ubuhinzi360/server/internal/routes"
	"ubuhinzi360/server/internal/state"
	"ubuhinzi360/server/internal/storage"
	ws "ubuhinzi360/server/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// App is a fully wired server
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	KV        storage.KV
	State     *state.State
	Hub       *ws.Hub
	Handler   *handlers.Handler
	Fiber     *fiber.App
	Snapshots *jobs.Snapshotter
}

// LoadState opens the configured backend and restores the state from it,
// falling back to the seed for missing or corrupt collections.
func LoadState(ctx context.Context, cfg config.Config, log *slog.Logger) (storage.KV, *state.State, error) {
	kv, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}

	st := state.New()
	defaults, err := storage.LoadSeed(cfg.SeedFile, st.Now())
	if err != nil {
		kv.Close()
		return nil, nil, err
	}
	snap, err := storage.Load(ctx, kv, defaults, log)
	if err != nil {
		kv.Close()
		return nil, nil, fmt.Errorf("load state: %w", err)
	}
	st.Restore(snap)
	if err := st.ClearPresence(); err != nil {
		kv.Close()
		return nil, nil, fmt.Errorf("reset presence: %w", err)
	}
	return kv, st, nil
}

// New builds every service and the Fiber app
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	kv, st, err := LoadState(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	asst, err := assistant.New(ctx, assistant.Config{
		APIKey: cfg.GeminiAPIKey,
		Model:  cfg.GeminiModel,
		RPS:    cfg.AssistantRPS,
	}, log)
	if err != nil {
		kv.Close()
		return nil, err
	}

	snapshots, err := jobs.NewSnapshotter(st, kv, cfg.SnapshotCron, log)
	if err != nil {
		kv.Close()
		return nil, err
	}

	hub := ws.NewHub(st, log)
	h := &handlers.Handler{
		State:         st,
		Connections:   connections.NewService(st, hub, log),
		Chat:          chat.NewService(st, asst, hub, log),
		Directory:     directory.New(st),
		Community:     community.NewService(st, hub, log),
		Assistant:     asst,
		Hub:           hub,
		JWTSecret:     []byte(cfg.JWTSecret),
		UploadDir:     cfg.UploadDir,
		SecureCookies: strings.HasPrefix(cfg.CORSOrigins, "https://"),
		Logger:        log,
	}

	// Initialize Fiber app
	f := fiber.New(fiber.Config{
		AppName:               "Ubuhinzi360 API v1.0",
		BodyLimit:             30 * 1024 * 1024,
		DisableStartupMessage: true,
	})

	// Middleware
	f.Use(logger.New())
	f.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))

	routes.SetupRoutes(f, h)

	return &App{
		Config:    cfg,
		Logger:    log,
		KV:        kv,
		State:     st,
		Hub:       hub,
		Handler:   h,
		Fiber:     f,
		Snapshots: snapshots,
	}, nil
}

// Run serves until ctx is done, then shuts down and saves the state
func (a *App) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	snapCtx, stopSnapshots := context.WithCancel(context.Background())
	defer stopSnapshots()

	go a.Hub.Run(hubCtx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.Snapshots.Run(snapCtx)
	}()

	listenErr := make(chan error, 1)
	go func() {
		a.Logger.Info("server starting", "port", a.Config.Port, "storage", a.Config.StorageDriver)
		listenErr <- a.Fiber.Listen(":" + a.Config.Port)
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-listenErr:
	}

	a.Logger.Info("server shutting down")
	if shutdownErr := a.Fiber.ShutdownWithTimeout(10 * time.Second); shutdownErr != nil {
		a.Logger.Error("server shutdown failed", "error", shutdownErr)
	}
	// presence must be cleared before the final snapshot
	stopHub()
	<-a.Hub.Stopped()
	stopSnapshots()
	wg.Wait()

	if closeErr := a.KV.Close(); closeErr != nil {
		a.Logger.Error("failed to close storage", "error", closeErr)
	}
	return err
}
