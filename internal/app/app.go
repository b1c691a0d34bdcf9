// Package app wires all astral subsystems into a running server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems (providers with failover, the campaign store root, the audio
// generation pipeline's shared dependencies, health checks), Run blocks
// for the process lifetime, and Shutdown tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithLLMProvider, WithTTSProvider, etc.). When an option is not provided,
// New creates the real implementation from the config's provider registry.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/coder/websocket"

	"github.com/astral-gm/astral/internal/audiocache"
	"github.com/astral-gm/astral/internal/audiogen"
	"github.com/astral-gm/astral/internal/campaign"
	"github.com/astral-gm/astral/internal/config"
	"github.com/astral-gm/astral/internal/health"
	"github.com/astral-gm/astral/internal/llmprovider"
	"github.com/astral-gm/astral/internal/observe"
	"github.com/astral-gm/astral/internal/openingcache"
	"github.com/astral-gm/astral/internal/resilience"
	"github.com/astral-gm/astral/internal/session"
	"github.com/astral-gm/astral/internal/ttsprovider"
	"github.com/astral-gm/astral/internal/voiceregistry"
)

// openingCacheDir is the per-campaign subdirectory the opening-turn cache
// lives in, alongside the campaign's own JSON files.
const openingCacheDir = ".opening-cache"

// App owns all subsystem lifetimes and wires together a running astral
// server: resilient LLM/TTS providers, the campaign store, and the health
// and campaign-listing HTTP surfaces. Per-connection state (the session
// controller for one WebSocket) is constructed on demand by NewController.
type App struct {
	cfg *config.Config

	llm llmprovider.Provider
	tts ttsprovider.Provider

	audioCache      *audiocache.Cache
	campaignHandler *campaign.Handler
	healthHandler   *health.Handler
	metrics         *observe.Metrics

	// closers are called in order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithLLMProvider injects an LLM provider instead of building one (with
// failover) from config via the registry.
func WithLLMProvider(p llmprovider.Provider) Option {
	return func(a *App) { a.llm = p }
}

// WithTTSProvider injects a TTS provider instead of building one (with
// failover) from config via the registry.
func WithTTSProvider(p ttsprovider.Provider) Option {
	return func(a *App) { a.tts = p }
}

// WithMetrics injects a metrics instance instead of creating the process
// default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. registry resolves
// the provider names in cfg.Providers to concrete implementations; pass
// [config.DefaultRegistry] in production. Use Option functions to inject
// test doubles for any subsystem.
func New(ctx context.Context, cfg *config.Config, registry *config.Registry, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if err := a.initProviders(registry); err != nil {
		return nil, fmt.Errorf("app: init providers: %w", err)
	}

	if err := a.initAudioCache(); err != nil {
		return nil, fmt.Errorf("app: init audio cache: %w", err)
	}

	if err := a.initCampaignHandler(); err != nil {
		return nil, fmt.Errorf("app: init campaign handler: %w", err)
	}

	a.initHealthHandler()

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initProviders resolves the configured LLM and TTS providers through
// registry and wraps each in a [resilience.LLMFallback]/[resilience.TTSFallback]
// with its configured fallback chain, unless a provider was injected via
// WithLLMProvider/WithTTSProvider.
func (a *App) initProviders(registry *config.Registry) error {
	if a.llm == nil {
		primary, err := registry.CreateLLM(a.cfg.Providers.LLM)
		if err != nil {
			return fmt.Errorf("create primary llm provider %q: %w", a.cfg.Providers.LLM.Name, err)
		}
		fb := resilience.NewLLMFallback(primary, a.cfg.Providers.LLM.Name, resilience.FallbackConfig{})
		for _, entry := range a.cfg.Providers.LLMFallbacks {
			p, err := registry.CreateLLM(entry)
			if err != nil {
				return fmt.Errorf("create llm fallback %q: %w", entry.Name, err)
			}
			fb.AddFallback(entry.Name, p)
		}
		a.llm = fb
	}

	if a.tts == nil {
		primary, err := registry.CreateTTS(a.cfg.Providers.TTS)
		if err != nil {
			return fmt.Errorf("create primary tts provider %q: %w", a.cfg.Providers.TTS.Name, err)
		}
		fb := resilience.NewTTSFallback(primary, a.cfg.Providers.TTS.Name, resilience.FallbackConfig{})
		for _, entry := range a.cfg.Providers.TTSFallbacks {
			p, err := registry.CreateTTS(entry)
			if err != nil {
				return fmt.Errorf("create tts fallback %q: %w", entry.Name, err)
			}
			fb.AddFallback(entry.Name, p)
		}
		a.tts = fb
	}

	return nil
}

// initAudioCache sets up the shared ambient/SFX cache for all campaigns.
func (a *App) initAudioCache() error {
	cache, err := audiocache.New(a.cfg.Campaign.AudioCacheDir)
	if err != nil {
		return err
	}
	a.audioCache = cache
	return nil
}

// initCampaignHandler sets up the campaign-listing HTTP surface.
func (a *App) initCampaignHandler() error {
	h, err := campaign.NewHandler(a.cfg.Campaign.RootDir)
	if err != nil {
		return err
	}
	a.campaignHandler = h
	return nil
}

// initHealthHandler builds the readiness checks: the LLM provider is
// considered healthy if it counts tokens without error, the TTS provider if
// it lists voices without error, and the campaign root must be a reachable
// directory.
func (a *App) initHealthHandler() {
	a.healthHandler = health.New(
		health.Checker{
			Name: "llm",
			Check: func(ctx context.Context) error {
				_, err := a.llm.CountTokens([]llmprovider.Message{{Role: "user", Content: "ping"}})
				return err
			},
		},
		health.Checker{
			Name: "tts",
			Check: func(ctx context.Context) error {
				_, err := a.tts.ListVoices(ctx)
				return err
			},
		},
		health.Checker{
			Name: "campaign-store",
			Check: func(context.Context) error {
				_, err := campaign.NewHandler(a.cfg.Campaign.RootDir)
				return err
			},
		},
	)
}

// ─── Accessors ───────────────────────────────────────────────────────────────

// CampaignHandler returns the /campaigns HTTP surface.
func (a *App) CampaignHandler() *campaign.Handler { return a.campaignHandler }

// HealthHandler returns the /healthz and /readyz HTTP surface.
func (a *App) HealthHandler() *health.Handler { return a.healthHandler }

// Metrics returns the process-wide metrics instance.
func (a *App) Metrics() *observe.Metrics { return a.metrics }

// ─── Session controllers ────────────────────────────────────────────────────

// NewController opens the named campaign and assembles a [session.Controller]
// bound to conn: the campaign store, its voice registry, its opening-turn
// cache, and the shared LLM/TTS providers and audio cache. Called once per
// accepted WebSocket connection.
func (a *App) NewController(conn *websocket.Conn, campaignID string) (*session.Controller, error) {
	dir := filepath.Join(a.cfg.Campaign.RootDir, campaignID)

	store, err := campaign.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("app: open campaign %q: %w", campaignID, err)
	}

	registry, err := voiceregistry.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("app: load voice registry for %q: %w", campaignID, err)
	}

	prompt, err := session.BuildSystemPrompt(store)
	if err != nil {
		return nil, fmt.Errorf("app: build system prompt for %q: %w", campaignID, err)
	}

	gen := audiogen.New(a.audioCache, a.tts, registry, a.metrics)
	openingCache := openingcache.New(filepath.Join(dir, openingCacheDir))

	maxTokens := a.llm.Capabilities().ContextWindow
	ctxMgr := session.NewContextManager(session.ContextManagerConfig{
		MaxTokens:  maxTokens,
		Summariser: session.NewLLMSummariser(a.llm),
	})

	return session.New(conn, a.llm, store, prompt, gen, openingCache, ctxMgr, a.metrics), nil
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run blocks until ctx is cancelled. The HTTP server and its WebSocket
// upgrade endpoint are owned by cmd/astrald's main loop, not App — Run
// exists so the same start/stop shape as the rest of this codebase's
// long-running components applies here too.
func (a *App) Run(ctx context.Context) error {
	slog.Info("app running")
	<-ctx.Done()
	return ctx.Err()
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in registration order. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}
