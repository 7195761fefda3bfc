package store

import (
	"context"
	"time"

	"corridor/pkg/logger"
	"corridor/pkg/telemetry"
)

// MonitorConfig controls the store monitor's poll cadence and the
// disk watermarks that drive warnings.
type MonitorConfig struct {
	PollInterval time.Duration

	DiskHighBytes uint64
	DiskLowBytes  uint64
}

// DefaultMonitorConfig returns sensible defaults. The poll interval is
// generous because each poll scans the keyspace to count notes.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval:  30 * time.Second,
		DiskHighBytes: 1 << 30,
		DiskLowBytes:  700 << 20,
	}
}

// StartMonitor starts a background monitor that publishes store gauges
// and warns when the on-disk size crosses the high watermark. It
// returns a function to stop the monitor.
func StartMonitor(ctx context.Context, cfg MonitorConfig) context.CancelFunc {
	if cfg.PollInterval <= 0 {
		cfg = DefaultMonitorConfig()
	}
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()
		state := "normal"
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := CollectStats()
				telemetry.SetStoreStats(st.Notes, st.Versions, st.DiskBytes)

				if state == "normal" && st.DiskBytes >= cfg.DiskHighBytes {
					logger.Warn("store_disk_high", "disk_bytes", st.DiskBytes, "threshold", cfg.DiskHighBytes)
					state = "high"
					continue
				}
				if state == "high" && st.DiskBytes <= cfg.DiskLowBytes {
					logger.Info("store_disk_recovered", "disk_bytes", st.DiskBytes)
					state = "normal"
				}
			}
		}
	}()
	return cancel
}
