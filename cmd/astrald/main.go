// Command astrald is the main entry point for the astral game-master server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"

	"github.com/astral-gm/astral/internal/app"
	"github.com/astral-gm/astral/internal/config"
	"github.com/astral-gm/astral/internal/observe"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "astrald: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "astrald: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────
	levelVar := new(slog.LevelVar)
	levelVar.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))
	slog.SetDefault(logger)

	slog.Info("astrald starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "astrald"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Config hot-reload ─────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		diff := config.Diff(old, new)
		if diff.LogLevelChanged {
			levelVar.Set(slogLevel(diff.NewLogLevel))
			slog.Info("log level changed", "new_level", diff.NewLogLevel)
		}
		if diff.LLMChanged || diff.TTSChanged {
			slog.Warn("provider config changed on disk — restart astrald to apply it",
				"llm_changed", diff.LLMChanged, "tts_changed", diff.TTSChanged)
		}
	})
	if err != nil {
		slog.Error("failed to start config watcher", "err", err)
		return 1
	}
	defer watcher.Stop()

	// ── Application wiring ────────────────────────────────────────────────
	application, err := app.New(ctx, cfg, config.DefaultRegistry())
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	mux := http.NewServeMux()
	application.CampaignHandler().Routes(mux)
	mux.HandleFunc("GET /healthz", application.HealthHandler().Healthz)
	mux.HandleFunc("GET /readyz", application.HealthHandler().Readyz)
	mux.Handle("GET /ws/session/{campaign_id}", observe.Middleware(application.Metrics())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handleSession(w, r, application)
		}),
	))

	server := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: mux,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Server.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	appErrCh := make(chan error, 1)
	go func() { appErrCh <- application.Run(ctx) }()

	slog.Info("server ready — press Ctrl+C to shut down")

	select {
	case <-ctx.Done():
	case err := <-serverErrCh:
		if err != nil {
			slog.Error("server error", "err", err)
		}
	case err := <-appErrCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("run error", "err", err)
		}
	}

	// ── Graceful shutdown ───────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http server shutdown error", "err", err)
	}
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// handleSession upgrades the request to a WebSocket and runs one session
// controller for the campaign named in the URL path until the connection
// closes.
func handleSession(w http.ResponseWriter, r *http.Request, application *app.App) {
	campaignID := r.PathValue("campaign_id")

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "campaign", campaignID, "err", err)
		return
	}

	ctrl, err := application.NewController(conn, campaignID)
	if err != nil {
		slog.Warn("failed to open session", "campaign", campaignID, "err", err)
		conn.Close(websocket.StatusInternalError, "failed to open campaign")
		return
	}

	if err := ctrl.Run(r.Context()); err != nil {
		slog.Info("session ended", "campaign", campaignID, "err", err)
	}
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
