package retention

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adhocore/gronx"

	"corridor/pkg/config"
	"corridor/pkg/logger"
	"corridor/pkg/state"
	"corridor/pkg/store"
	"corridor/pkg/telemetry"
)

var storedEff *config.EffectiveConfigResult

// SetEffectiveConfig stores the effective config so tests (or admin triggers)
// can invoke retention runs on-demand.
func SetEffectiveConfig(eff config.EffectiveConfigResult) {
	storedEff = &eff
}

// RunImmediate triggers a single retention run using the stored effective
// config. Returns an error if no effective config was registered.
func RunImmediate() error {
	if storedEff == nil {
		return fmt.Errorf("no effective config registered for retention run")
	}
	if state.PathsVar.Retention == "" {
		return fmt.Errorf("state paths not initialized")
	}
	retentionPath := state.PathsVar.Retention
	return runOnce(context.Background(), *storedEff, retentionPath)
}

// Start starts the retention scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, eff config.EffectiveConfigResult) (context.CancelFunc, error) {
	ret := eff.Config.Retention

	// if retention is not enabled, return no-op cancel
	if !ret.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	// Use a stable retention folder under the DB path for lock and retention
	// artifacts: <DBPath>/state/retention.
	retentionPath := state.PathsVar.Retention

	// ensure retention path exists
	if err := os.MkdirAll(retentionPath, 0o700); err != nil {
		logger.Error("retention_path_create_failed", "path", retentionPath, "error", err)
		return nil, err
	}

	// map empty cron to default daily @02:00
	cronExpr := ret.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	// validate cron expression using gronx
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", ret.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", ret.Cron)
	}

	logger.Info("retention_enabled", "cron", cronExpr, "max_age", ret.MaxAge.Duration().String(), "path", retentionPath)
	ctx2, cancel := context.WithCancel(ctx)

	// start scheduler goroutine (pass resolved cron expression)
	go runScheduler(ctx2, eff, retentionPath, cronExpr)

	logger.Info("retention_scheduler_started", "path", retentionPath)
	return cancel, nil
}

// runScheduler uses gronx to compute the next tick for the configured cron
// expression and sleeps until that time. This yields sharper scheduling and
// supports full cron syntax.
func runScheduler(ctx context.Context, eff config.EffectiveConfigResult, retentionPath string, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		// compute next tick after now (UTC). allowCurrent=false so we get the
		// next future tick.
		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			// fallback sleep then retry
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("retention_scheduler_stopping")
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			// due now-ish; run immediately
			go func() {
				if err := runOnce(ctx, eff, retentionPath); err != nil {
					logger.Error("retention_run_error", "error", err)
				}
			}()
			// small sleep to avoid tight loop
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				logger.Info("retention_scheduler_stopping")
				return
			}
			continue
		}

		// wait until the exact next tick or cancellation
		select {
		case <-time.After(wait):
			go func() {
				if err := runOnce(ctx, eff, retentionPath); err != nil {
					logger.Error("retention_run_error", "error", err)
				}
			}()
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

// runRecord is persisted after every sweep so operators can inspect the
// last outcome without trawling logs.
type runRecord struct {
	StartedAt  string `json:"started_at"`
	DurationMs int64  `json:"duration_ms"`
	CutoffNS   int64  `json:"cutoff_ns"`
	Deleted    int    `json:"deleted"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
}

// runOnce performs a single retention sweep: purge notes whose last
// activity predates now minus retention.max_age, then record the outcome
// under the retention state path.
func runOnce(ctx context.Context, eff config.EffectiveConfigResult, retentionPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ret := eff.Config.Retention
	maxAge := ret.MaxAge.Duration()
	if maxAge <= 0 {
		logger.Warn("retention_skipped_no_max_age")
		return nil
	}

	start := time.Now().UTC()
	cutoff := start.Add(-maxAge).UnixNano()
	deleted, err := store.DeleteNotesBefore(cutoff)

	rec := runRecord{
		StartedAt:  start.Format(time.RFC3339Nano),
		DurationMs: time.Since(start).Milliseconds(),
		CutoffNS:   cutoff,
		Deleted:    deleted,
		Outcome:    "ok",
	}
	if err != nil {
		rec.Outcome = "error"
		rec.Error = err.Error()
	}
	writeLastRun(retentionPath, rec)

	telemetry.CountRetentionSweep(err == nil)
	if err != nil {
		auditLog("retention_sweep_failed", "deleted", deleted, "error", err)
		return err
	}
	auditLog("retention_sweep_completed", "deleted", deleted, "cutoff_ns", cutoff)
	return nil
}

func writeLastRun(retentionPath string, rec runRecord) {
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	p := filepath.Join(retentionPath, "last_run.json")
	if err := os.WriteFile(p, b, 0o600); err != nil {
		logger.Warn("retention_last_run_write_failed", "path", p, "error", err)
	}
}

// auditLog prefers the dedicated audit sink and falls back to the main log.
func auditLog(msg string, args ...any) {
	if logger.Audit != nil {
		logger.Audit.Info(msg, args...)
		return
	}
	logger.Info(msg, args...)
}
