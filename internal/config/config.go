package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	defaultPort            = "8888"
	defaultUploadsDir      = "uploads"
	defaultStaticDir       = "static"
	defaultAnalysisLatency = 2 * time.Second
	defaultMaxUploadBytes  = 10 * 1024 * 1024
)

// Config holds server settings resolved from the environment. Session
// options (API key, model, toggles) are not here: those arrive with each
// analyze request and never outlive the UI session.
type Config struct {
	Port            string
	UploadsDir      string
	StaticDir       string
	AnalysisLatency time.Duration
	MaxUploadBytes  int64
}

// Load resolves configuration from environment variables, falling back to
// defaults. Malformed values log a warning and keep the default rather than
// failing startup.
func Load() Config {
	cfg := Config{
		Port:            envOr("DESCRIBER_PORT", defaultPort),
		UploadsDir:      envOr("DESCRIBER_UPLOADS_DIR", defaultUploadsDir),
		StaticDir:       envOr("DESCRIBER_STATIC_DIR", defaultStaticDir),
		AnalysisLatency: defaultAnalysisLatency,
		MaxUploadBytes:  defaultMaxUploadBytes,
	}

	if raw := os.Getenv("DESCRIBER_ANALYSIS_LATENCY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			slog.Warn("Invalid DESCRIBER_ANALYSIS_LATENCY, using default", "value", raw, "default", defaultAnalysisLatency)
		} else {
			cfg.AnalysisLatency = d
		}
	}

	if raw := os.Getenv("DESCRIBER_MAX_UPLOAD_BYTES"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			slog.Warn("Invalid DESCRIBER_MAX_UPLOAD_BYTES, using default", "value", raw, "default", defaultMaxUploadBytes)
		} else {
			cfg.MaxUploadBytes = n
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
