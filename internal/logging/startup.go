package logging

import (
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartupLogger collects the toolkit's startup state (selected backend,
// detected model checkpoints, feature flags, configuration) and emits it as
// a single structured zerolog event. One event makes it easy to see exactly
// how a process was configured when triaging a bad run from logs.
type StartupLogger struct {
	name         string
	backend      string
	initDuration time.Duration

	checkpoints map[string]string
	features    map[string]bool
	config      map[string]string
}

// NewStartupLogger creates a StartupLogger for the given process name
// (e.g. "iclight").
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:        name,
		checkpoints: make(map[string]string),
		features:    make(map[string]bool),
		config:      make(map[string]string),
	}
}

// Backend records the backend strategy selected at startup.
func (s *StartupLogger) Backend(name string) *StartupLogger {
	s.backend = name
	return s
}

// Checkpoint registers a detected model checkpoint path.
func (s *StartupLogger) Checkpoint(modelType, path string) *StartupLogger {
	s.checkpoints[modelType] = path
	return s
}

// Feature registers a boolean feature flag (e.g. "detailTransfer").
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

// Config registers a non-sensitive configuration key-value pair.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	s.config[key] = value
	return s
}

// InitDuration records how long process initialization took.
func (s *StartupLogger) InitDuration(d time.Duration) *StartupLogger {
	s.initDuration = d
	return s
}

// EnvOrDefault returns the value of the named environment variable, or
// defaultVal if the variable is empty or unset.
func EnvOrDefault(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}

// Log emits a single structured INFO log event with all collected information.
func (s *StartupLogger) Log() {
	evt := log.Info()

	procDict := zerolog.Dict().
		Str("name", s.name).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH).
		Str("logLevel", os.Getenv("ICLIGHT_LOG_LEVEL"))

	if s.backend != "" {
		procDict = procDict.Str("backend", s.backend)
	}

	evt = evt.Dict("process", procDict)

	if len(s.checkpoints) > 0 {
		evt = evt.Dict("checkpoints", dictFromMap(s.checkpoints))
	}

	if len(s.features) > 0 {
		d := zerolog.Dict()
		for k, v := range s.features {
			d = d.Bool(k, v)
		}
		evt = evt.Dict("features", d)
	}

	if len(s.config) > 0 {
		evt = evt.Dict("config", dictFromMap(s.config))
	}

	if s.initDuration > 0 {
		evt = evt.Dur("initDuration", s.initDuration)
	}

	evt.Msg("Startup complete")
}

// dictFromMap converts a map[string]string into a zerolog.Event (Dict).
func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for k, v := range m {
		d = d.Str(k, v)
	}
	return d
}
