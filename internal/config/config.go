// Package config resolves process configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is the process-wide configuration, fixed at startup.
type Config struct {
	// ModelDir is the directory scanned for IC-Light checkpoints.
	ModelDir string

	// OutputDir receives images written by the CLI.
	OutputDir string

	// PerSamplingPassHook forces the host capability probe result; unset
	// means the richer integration is assumed available.
	PerSamplingPassHook bool
}

// Load reads configuration from ICLIGHT_* environment variables. A .env file
// in the working directory is merged in first when present; a missing file
// is not an error.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded .env file")
	}

	cfg := &Config{
		ModelDir:            envOr("ICLIGHT_MODEL_DIR", "models/ic-light"),
		OutputDir:           envOr("ICLIGHT_OUTPUT_DIR", "."),
		PerSamplingPassHook: envBool("ICLIGHT_PER_SAMPLING_PASS", true),
	}

	log.Debug().
		Str("model_dir", cfg.ModelDir).
		Str("output_dir", cfg.OutputDir).
		Bool("per_sampling_pass", cfg.PerSamplingPassHook).
		Msg("Configuration loaded")

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid boolean in environment; using default")
		return fallback
	}
	return b
}
