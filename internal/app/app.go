package app

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/shandysiswandi/goknock/internal/pkg/clock"
	"github.com/shandysiswandi/goknock/internal/pkg/config"
	"github.com/shandysiswandi/goknock/internal/pkg/goroutine"
	"github.com/shandysiswandi/goknock/internal/pkg/instrument"
	"github.com/shandysiswandi/goknock/internal/pkg/seal"
	"github.com/shandysiswandi/goknock/internal/pkg/uid"
	"github.com/shandysiswandi/goknock/internal/pkg/validator"
)

// App wires dependencies and manages command lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     *clock.TimeClocker
	uuid      *uid.UUID
	sealer    seal.Sealer

	// command IO
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	logFile io.Closer

	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App
// instance. Instrumentation is finished in Run because its log sink depends
// on the command being dispatched.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.initConfig()
	app.initLibraries()
	app.initClosers()

	return app
}

// Stop waits for background work and closes resources.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "error from goroutines executions", "error", err)
	}

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}
}
