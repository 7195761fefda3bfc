package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"corridor/pkg/config"
)

func baseEff() config.EffectiveConfigResult {
	return config.EffectiveConfigResult{
		Config: &config.Config{},
		Addr:   "127.0.0.1:8080",
		DBPath: "./.corridor",
	}
}

func TestValidateConfig_AcceptsMinimal(t *testing.T) {
	if err := validateConfig(baseEff()); err != nil {
		t.Fatalf("minimal config rejected: %v", err)
	}
}

func TestValidateConfig_RequiresConfigAndDBPath(t *testing.T) {
	eff := baseEff()
	eff.Config = nil
	if err := validateConfig(eff); err == nil {
		t.Fatalf("expected error for nil config")
	}

	eff = baseEff()
	eff.DBPath = ""
	err := validateConfig(eff)
	if err == nil {
		t.Fatalf("expected error for empty db path")
	}
	if !strings.Contains(err.Error(), "database path") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestValidateConfig_EngineNames(t *testing.T) {
	for _, engine := range []string{"", "nethttp", "fasthttp"} {
		eff := baseEff()
		eff.Config.Server.Engine = engine
		if err := validateConfig(eff); err != nil {
			t.Fatalf("engine %q rejected: %v", engine, err)
		}
	}

	eff := baseEff()
	eff.Config.Server.Engine = "gnats"
	if err := validateConfig(eff); err == nil {
		t.Fatalf("expected error for unknown engine")
	}
}

func TestValidateConfig_TLSPairing(t *testing.T) {
	eff := baseEff()
	eff.Config.Server.TLS.CertFile = "/some/cert.pem"
	if err := validateConfig(eff); err == nil {
		t.Fatalf("expected error for cert without key")
	}

	eff = baseEff()
	eff.Config.Server.TLS.CertFile = "/does/not/exist/cert.pem"
	eff.Config.Server.TLS.KeyFile = "/does/not/exist/key.pem"
	if err := validateConfig(eff); err == nil {
		t.Fatalf("expected error for unreadable cert files")
	}

	dir := t.TempDir()
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")
	for _, p := range []string{cert, key} {
		if err := os.WriteFile(p, []byte("pem"), 0o600); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	eff = baseEff()
	eff.Config.Server.TLS.CertFile = cert
	eff.Config.Server.TLS.KeyFile = key
	if err := validateConfig(eff); err != nil {
		t.Fatalf("complete TLS pair rejected: %v", err)
	}
}

func TestValidateConfig_RetentionNeedsMaxAge(t *testing.T) {
	eff := baseEff()
	eff.Config.Retention.Enabled = true
	if err := validateConfig(eff); err == nil {
		t.Fatalf("expected error for retention without max_age")
	}

	eff.Config.Retention.MaxAge = config.Duration(720 * time.Hour)
	if err := validateConfig(eff); err != nil {
		t.Fatalf("retention with max_age rejected: %v", err)
	}
}
