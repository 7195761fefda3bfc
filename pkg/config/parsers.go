package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Flags holds parsed command-line flag values and which were set.
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// EffectiveConfigResult holds the result of LoadEffective.
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string // "flags", "env", "config", or "defaults"
}

// ParseCommandFlags parses command-line flags and returns them as a Flags struct.
func ParseCommandFlags() Flags {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.corridor", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: setFlags}
}

// ApplyEnvOverrides applies CORRIDOR_* environment variables onto cfg and
// reports whether any were present. Env values replace whatever the config
// file provided for the same field.
func ApplyEnvOverrides(cfg *Config) bool {
	envUsed := false
	parseList := func(v string) []string {
		if v == "" {
			return nil
		}
		parts := []string{}
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				parts = append(parts, s)
			}
		}
		return parts
	}

	if v := os.Getenv("CORRIDOR_ADDR"); v != "" {
		envUsed = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	} else {
		if host := os.Getenv("CORRIDOR_SERVER_ADDRESS"); host != "" {
			envUsed = true
			cfg.Server.Address = host
		}
		if port := os.Getenv("CORRIDOR_SERVER_PORT"); port != "" {
			envUsed = true
			if pi, err := strconv.Atoi(port); err == nil {
				cfg.Server.Port = pi
			}
		}
	}

	if v := os.Getenv("CORRIDOR_DB_PATH"); v != "" {
		envUsed = true
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("CORRIDOR_ENGINE"); v != "" {
		envUsed = true
		cfg.Server.Engine = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("CORRIDOR_MAX_BODY_BYTES"); v != "" {
		if b, err := humanize.ParseBytes(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Server.MaxBodyBytes = SizeBytes(b)
		}
	}
	if v := os.Getenv("CORRIDOR_CORS_ORIGINS"); v != "" {
		envUsed = true
		cfg.Security.CORS.AllowedOrigins = parseList(v)
	}
	if v := os.Getenv("CORRIDOR_RATE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envUsed = true
			cfg.Security.RateLimit.RPS = f
		}
	}
	if v := os.Getenv("CORRIDOR_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Security.RateLimit.Burst = n
		}
	}
	if v := os.Getenv("CORRIDOR_IP_WHITELIST"); v != "" {
		envUsed = true
		cfg.Security.IPWhitelist = parseList(v)
	}
	if v := os.Getenv("CORRIDOR_API_BACKEND_KEYS"); v != "" {
		envUsed = true
		cfg.Security.APIKeys.Backend = parseList(v)
	}
	if v := os.Getenv("CORRIDOR_API_FRONTEND_KEYS"); v != "" {
		envUsed = true
		cfg.Security.APIKeys.Frontend = parseList(v)
	}
	if v := os.Getenv("CORRIDOR_API_ADMIN_KEYS"); v != "" {
		envUsed = true
		cfg.Security.APIKeys.Admin = parseList(v)
	}
	if v := os.Getenv("CORRIDOR_LOG_LEVEL"); v != "" {
		envUsed = true
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CORRIDOR_LOG_FORMAT"); v != "" {
		envUsed = true
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CORRIDOR_RETENTION_ENABLED"); v != "" {
		envUsed = true
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			cfg.Retention.Enabled = true
		default:
			cfg.Retention.Enabled = false
		}
	}
	if v := os.Getenv("CORRIDOR_RETENTION_CRON"); v != "" {
		envUsed = true
		cfg.Retention.Cron = v
	}
	if v := os.Getenv("CORRIDOR_RETENTION_MAX_AGE"); v != "" {
		if td, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			envUsed = true
			cfg.Retention.MaxAge = Duration(td)
		}
	}
	if c := os.Getenv("CORRIDOR_TLS_CERT"); c != "" {
		envUsed = true
		cfg.Server.TLS.CertFile = c
	}
	if k := os.Getenv("CORRIDOR_TLS_KEY"); k != "" {
		envUsed = true
		cfg.Server.TLS.KeyFile = k
	}

	return envUsed
}

// LoadEffective builds the effective config from file, environment and
// flags. The config file is the base, CORRIDOR_* env vars override file
// values, and explicitly set flags override both. Source names the
// highest-precedence source that contributed.
func LoadEffective(flags Flags) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult

	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg := &Config{}
	fileExists := false
	if loaded, err := Load(cfgPath); err == nil {
		cfg = loaded
		fileExists = true
	} else if flags.Set["config"] {
		return res, fmt.Errorf("config file %s not usable: %w", flags.Config, err)
	}

	envUsed := ApplyEnvOverrides(cfg)

	if flags.Set["addr"] {
		if h, p, err := net.SplitHostPort(flags.Addr); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = flags.Addr
		}
	}
	if flags.Set["db"] {
		cfg.Storage.DBPath = flags.DB
	}

	res.Config = cfg
	res.Addr = cfg.Addr()
	res.DBPath = strings.TrimSpace(cfg.Storage.DBPath)
	if res.DBPath == "" {
		res.DBPath = flags.DB
	}
	switch {
	case flags.Set["addr"] || flags.Set["db"] || flags.Set["config"]:
		res.Source = "flags"
	case envUsed:
		res.Source = "env"
	case fileExists:
		res.Source = "config"
	default:
		res.Source = "defaults"
	}
	return res, nil
}
