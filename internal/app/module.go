package app

import (
	"github.com/shandysiswandi/goknock/internal/signin"
)

// signinModule wires the sign-in flow against the real API client, the
// sealed session store and the terminal prompt.
func (a *App) signinModule() (*signin.Module, error) {
	return signin.New(signin.Dependency{
		Config:     a.config,
		Instrument: a.ins,
		Validator:  a.validator,
		Clock:      a.clock,
		Tickers:    a.clock,
		UUID:       a.uuid,
		Sealer:     a.sealer,
		Goroutine:  a.goroutine,
		In:         a.stdin,
		Out:        a.stdout,
	})
}
