package app

import (
	"fmt"
	"os"

	"corridor/pkg/config"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services. Keep checks
// light and focused so callers can surface user-friendly errors.
func validateConfig(eff config.EffectiveConfigResult) error {
	if eff.Config == nil {
		return fmt.Errorf("effective config missing")
	}

	if eff.DBPath == "" {
		return fmt.Errorf("database path is empty: set --db flag, CORRIDOR_DB_PATH env, or storage.db_path in config")
	}

	switch eff.Config.Server.Engine {
	case "", "nethttp", "fasthttp":
	default:
		return fmt.Errorf("unknown server.engine %q: must be nethttp or fasthttp", eff.Config.Server.Engine)
	}

	cert := eff.Config.Server.TLS.CertFile
	key := eff.Config.Server.TLS.KeyFile
	if (cert != "" && key == "") || (cert == "" && key != "") {
		return fmt.Errorf("incomplete TLS configuration: both server.tls.cert_file and server.tls.key_file must be set")
	}
	if cert != "" {
		if _, err := os.Stat(cert); err != nil {
			return fmt.Errorf("tls cert file not accessible: %w", err)
		}
		if _, err := os.Stat(key); err != nil {
			return fmt.Errorf("tls key file not accessible: %w", err)
		}
	}

	if eff.Config.Retention.Enabled && eff.Config.Retention.MaxAge.Duration() <= 0 {
		return fmt.Errorf("retention enabled but retention.max_age is not set")
	}

	return nil
}
