package app

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shandysiswandi/goknock/internal/pkg/clock"
	"github.com/shandysiswandi/goknock/internal/pkg/config"
	"github.com/shandysiswandi/goknock/internal/pkg/goroutine"
	"github.com/shandysiswandi/goknock/internal/pkg/instrument"
	"github.com/shandysiswandi/goknock/internal/pkg/seal"
	"github.com/shandysiswandi/goknock/internal/pkg/uid"
	"github.com/shandysiswandi/goknock/internal/pkg/validator"
)

// configDir is where the config file, session file and logs live by default.
func configDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}

	return filepath.Join(base, "goknock")
}

func configDefaults() map[string]any {
	dir := configDir()

	return map[string]any{
		"app.max_goroutine": 8,

		"api.base_url": "http://localhost:8080",

		"session.path":  filepath.Join(dir, "session"),
		"session.realm": "default",
		"session.key":   "",

		"log.path": filepath.Join(dir, "goknock.log"),

		"dev.address":           ":8080",
		"dev.otp_ttl_seconds":   300,
		"dev.token_ttl_minutes": 60,

		"instrument.enabled":                 false,
		"instrument.service_name":            "goknock",
		"instrument.service_version":         "dev",
		"instrument.env":                     "local",
		"instrument.otlp_endpoint":           "localhost:4317",
		"instrument.otlp_secure":             false,
		"instrument.trace_sample_ratio":      1.0,
		"instrument.metric_interval_seconds": 30,
		"instrument.log_mask_fields":         "phone,otp,access_token,refresh_token",
	}
}

func (a *App) initConfig() {
	path := os.Getenv("GOKNOCK_CONFIG")
	if path == "" {
		path = filepath.Join(configDir(), "config.yaml")
	}

	cfg, err := config.NewViper(path, configDefaults())
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	a.config = cfg
}

// initInstrument finishes logging and telemetry setup. Interactive commands
// log to a file because stdout belongs to the prompt; the dev server logs to
// stderr.
func (a *App) initInstrument(toStderr bool) {
	output := io.Writer(a.stderr)

	if !toStderr {
		logPath := a.config.GetString("log.path")
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err == nil {
			if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); err == nil {
				output = f
				a.logFile = f
			}
		}
	}

	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogOutput:        output,
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.max_goroutine"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator
}

// initSealer picks the session sealing key: an explicit base64 key from
// config when set, otherwise one derived from the machine identity.
func (a *App) initSealer() {
	if raw := a.config.GetString("session.key"); raw != "" {
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			slog.Error("failed to decode session key", "error", err)
			os.Exit(1)
		}
		if len(key) != 32 {
			slog.Error("session key must be 32 bytes (AES-256)")
			os.Exit(1)
		}

		a.sealer = seal.NewAESGCM(seal.StaticKeyProvider{KeyBytes: key})
		return
	}

	keys, err := seal.NewMachineKeyProvider()
	if err != nil {
		slog.Error("failed to init machine key provider", "error", err)
		os.Exit(1)
	}

	a.sealer = seal.NewAESGCM(keys)
}

func (a *App) initClosers() {
	a.closers = append(a.closers,
		struct {
			name string
			fn   func(context.Context) error
		}{"Instrumentation", func(ctx context.Context) error {
			if a.ins == nil {
				return nil
			}
			return a.ins.Shutdown(ctx)
		}},
		struct {
			name string
			fn   func(context.Context) error
		}{"Config", func(context.Context) error {
			return a.config.Close()
		}},
		struct {
			name string
			fn   func(context.Context) error
		}{"Log File", func(context.Context) error {
			if a.logFile == nil {
				return nil
			}
			return a.logFile.Close()
		}},
	)
}
