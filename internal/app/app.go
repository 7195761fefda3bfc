// Package app wires configuration, storage, retention and the HTTP
// engines into one server lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/valyala/fasthttp"

	"corridor/internal/retention"
	"corridor/pkg/config"
	"corridor/pkg/logger"
	"corridor/pkg/shutdown"
	"corridor/pkg/state"
	"corridor/pkg/store"
	"corridor/pkg/validation"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	stopRetention context.CancelFunc
	stopMonitor   context.CancelFunc
	srv           *http.Server
	fsrv          *fasthttp.Server
}

// New initializes everything that does not need a running context:
// logging, the runtime key registry, validation rules, state dirs and
// the store. Call Run to start retention and the HTTP engine and block
// until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	logger.InitWithLevel(eff.Config.Logging.Level, eff.Config.Logging.Format)
	config.SetRuntime(eff.Config.RuntimeKeys())
	initValidation(eff)

	if err := state.EnsureStateDirs(eff.DBPath); err != nil {
		return nil, fmt.Errorf("state dirs under %s: %w", eff.DBPath, err)
	}
	if err := logger.AttachAuditFileSink(state.PathsVar.Audit); err != nil {
		logger.Warn("audit_sink_unavailable", "dir", state.PathsVar.Audit, "error", err)
	}
	if err := store.Open(state.PathsVar.Store); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", state.PathsVar.Store, err)
	}

	return &App{eff: eff, version: version, commit: commit, buildDate: buildDate}, nil
}

// Run migrates the store if needed, starts the retention scheduler,
// the store monitor and the configured HTTP engine, then blocks until
// ctx is cancelled or the engine fails.
func (a *App) Run(ctx context.Context) error {
	if _, err := store.RunMigrations(ctx, a.version); err != nil {
		return fmt.Errorf("store migration: %w", err)
	}

	retention.SetEffectiveConfig(a.eff)
	stopRetention, err := retention.Start(ctx, a.eff)
	if err != nil {
		return fmt.Errorf("retention: %w", err)
	}
	a.stopRetention = stopRetention
	a.stopMonitor = store.StartMonitor(ctx, store.DefaultMonitorConfig())

	a.printBanner()

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		if p, err := shutdown.RequestExitFile(a.eff.DBPath, "signal"); err != nil {
			logger.Warn("exit_request_write_failed", "error", err)
		} else {
			logger.Info("exit_request_recorded", "path", p)
		}
		a.stopHTTP()
		return nil
	case err := <-errCh:
		return err
	}
}

// Close releases resources owned by the app. Safe to call after Run
// returns.
func (a *App) Close() error {
	if a.stopRetention != nil {
		a.stopRetention()
	}
	if a.stopMonitor != nil {
		a.stopMonitor()
	}
	return store.Close()
}

// initValidation builds validation rules from config and installs them
// globally.
func initValidation(eff config.EffectiveConfigResult) {
	vr := validation.Rules{Types: map[string]string{}, MaxLen: map[string]int{}}
	vr.Required = append(vr.Required, eff.Config.Validation.Required...)
	for _, t := range eff.Config.Validation.Types {
		vr.Types[t.Path] = t.Type
	}
	for _, ml := range eff.Config.Validation.MaxLen {
		vr.MaxLen[ml.Path] = ml.Max
	}
	validation.SetRules(vr)
}
