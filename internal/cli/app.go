// Package cli wires the engine into a cobra-based command-line front end.
package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dkazakov/paysync/internal/config"
	"github.com/dkazakov/paysync/internal/logging"
	"github.com/dkazakov/paysync/internal/mirror"
	"github.com/dkazakov/paysync/internal/remote"
	"github.com/dkazakov/paysync/internal/repositories"
	"github.com/dkazakov/paysync/internal/services"
	"github.com/dkazakov/paysync/internal/session"
	"github.com/dkazakov/paysync/internal/syncer"
)

// Mode reflects the last observed remote reachability.
type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
	ModeUnknown Mode = "unknown"
)

// App composes the engine: local store, remote gateway, session gate,
// payment use cases and the sync orchestrator. Lifecycle is owned here, not
// by any shared global state.
type App struct {
	Config       *config.Config
	Log          logging.Logger
	Store        *repositories.Store
	Gate         session.Gate
	Payments     *services.PaymentService
	Orchestrator *syncer.Orchestrator

	client *remote.HTTPClient
	mode   Mode
}

// NewApp opens the local database, migrates it, recovers any interrupted
// upload state and wires all components.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logging.NewTextLogger(os.Stderr, slog.LevelInfo)

	store, err := repositories.Open(ctx, cfg.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "err", err)
		return nil, err
	}

	var gate *session.TokenGate
	client := remote.NewHTTPClient(cfg.RemoteAddr,
		func(ctx context.Context) (string, error) { return gate.AccessToken(ctx) },
		remote.WithCallTimeout(cfg.CallTimeout))
	gate = session.NewTokenGate(client, store.Meta, log)

	mirrors := &mirror.Logging{Next: mirror.Disabled{}, Log: log}

	app := &App{
		Config:       cfg,
		Log:          log,
		Store:        store,
		Gate:         gate,
		Payments:     services.NewPaymentService(store, mirrors, log),
		Orchestrator: syncer.NewOrchestrator(store, client, gate, log),
		client:       client,
		mode:         ModeUnknown,
	}

	if err := app.Orchestrator.Recover(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) Close() error {
	_ = a.client.Close()
	return a.Store.Close()
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	if a.mode != mode {
		a.mode = mode
		a.Log.Info(ctx, "connectivity changed", "mode", mode)
	}
}

// StartOnlineStatusWatcher probes remote reachability on the configured
// interval and triggers a sync whenever the remote transitions back online.
// Blocks until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.Gate.Ping(probeCtx)
			cancel()

			if err != nil {
				a.setMode(ctx, ModeOffline)
				continue
			}
			wasOffline := a.mode != ModeOnline
			a.setMode(ctx, ModeOnline)
			if wasOffline {
				if err := a.Orchestrator.PerformSync(ctx); err != nil {
					a.Log.Warn(ctx, "sync after reconnect failed", "err", err)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
