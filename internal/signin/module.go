package signin

import (
	"io"
	"strings"

	"github.com/shandysiswandi/goknock/internal/pkg/clock"
	"github.com/shandysiswandi/goknock/internal/pkg/config"
	"github.com/shandysiswandi/goknock/internal/pkg/goroutine"
	"github.com/shandysiswandi/goknock/internal/pkg/instrument"
	"github.com/shandysiswandi/goknock/internal/pkg/seal"
	"github.com/shandysiswandi/goknock/internal/pkg/uid"
	"github.com/shandysiswandi/goknock/internal/pkg/validator"
	"github.com/shandysiswandi/goknock/internal/signin/inbound"
	"github.com/shandysiswandi/goknock/internal/signin/outbound/api"
	"github.com/shandysiswandi/goknock/internal/signin/outbound/store"
	"github.com/shandysiswandi/goknock/internal/signin/usecase"
)

type Dependency struct {
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Tickers    clock.TickerFactory        `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Sealer     seal.Sealer                `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	In         io.Reader                  `validate:"required"`
	Out        io.Writer                  `validate:"required"`
}

// Module bundles the wired sign-in flow and its terminal prompt.
type Module struct {
	Flow    *usecase.Flow
	Prompt  *inbound.Prompt
	Console *inbound.Console
}

func New(dep Dependency) (*Module, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	client := api.NewClient(api.Config{
		BaseURL:    strings.TrimRight(dep.Config.GetString("api.base_url"), "/"),
		UUID:       dep.UUID,
		Instrument: dep.Instrument,
	})

	sessions := store.New(store.Config{
		Path:       dep.Config.GetString("session.path"),
		Sealer:     dep.Sealer,
		Realm:      dep.Config.GetString("session.realm"),
		Instrument: dep.Instrument,
	})

	console := inbound.NewConsole(dep.Out)

	flow := usecase.New(usecase.Dependency{
		API:         client,
		Sessions:    sessions,
		Notifier:    console,
		FieldErrors: console,
		Validator:   dep.Validator,
		Clock:       dep.Clock,
		Tickers:     dep.Tickers,
		Instrument:  dep.Instrument,
		Goroutine:   dep.Goroutine,
	})

	return &Module{
		Flow:    flow,
		Prompt:  inbound.NewPrompt(dep.In, dep.Out, console, flow),
		Console: console,
	}, nil
}
