package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/shandysiswandi/goknock/internal/pkg/clock"
	"github.com/shandysiswandi/goknock/internal/pkg/goerror"
	"github.com/shandysiswandi/goknock/internal/pkg/goroutine"
	"github.com/shandysiswandi/goknock/internal/pkg/instrument"
	"github.com/shandysiswandi/goknock/internal/pkg/validator"
	"github.com/shandysiswandi/goknock/internal/signin/entity"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

const (
	fieldPhone    = "phone"
	fieldFullName = "full_name"
	fieldOTP      = "otp"

	// resendCooldownSeconds is the enforced wait between consecutive sends.
	resendCooldownSeconds int32 = 30
)

const (
	msgCodeSent    = "We sent a code to your phone"
	msgCodeResent  = "We sent you a new code"
	msgSignedIn    = "You are signed in"
	msgSendFailed  = "We could not send a code to this number"
	msgWrongCode   = "Wrong code, check the message we sent you"
	msgServerError = "Something went wrong, try again later"
)

type identityAPI interface {
	RequestOTP(ctx context.Context, phone, fullName string) error
	VerifyOTP(ctx context.Context, phone, otp string) (*entity.Session, error)
}

type sessionStore interface {
	Save(ctx context.Context, sess entity.Session) error
	Load(ctx context.Context) (*entity.Session, error)
	Clear(ctx context.Context) error
}

type notifier interface {
	Notify(ctx context.Context, severity entity.Severity, message string)
}

type fieldErrorSink interface {
	SetFieldError(field, message string)
	ClearFieldErrors(fields ...string)
}

// Flow is the two-phase phone-OTP sign-in state machine.
//
// It owns the form, the phase, the resend countdown and the submitting flag.
// The prompt goroutine drives operations one at a time; the countdown tick
// runs on its own goroutine, so the shared counters are atomics.
type Flow struct {
	api       identityAPI
	sessions  sessionStore
	notifier  notifier
	fields    fieldErrorSink
	validator validator.Validator
	clock     clock.Clocker
	tickers   clock.TickerFactory
	ins       instrument.Instrumentation
	goroutine *goroutine.Manager

	formMu sync.Mutex
	form   entity.Form

	phase      atomic.Int32
	countdown  atomic.Int32
	submitting atomic.Bool

	cdMu   sync.Mutex
	cdTask *countdownTask
}

type Dependency struct {
	API         identityAPI
	Sessions    sessionStore
	Notifier    notifier
	FieldErrors fieldErrorSink
	Validator   validator.Validator
	Clock       clock.Clocker
	Tickers     clock.TickerFactory
	Instrument  instrument.Instrumentation
	Goroutine   *goroutine.Manager
}

func New(dep Dependency) *Flow {
	return &Flow{
		api:       dep.API,
		sessions:  dep.Sessions,
		notifier:  dep.Notifier,
		fields:    dep.FieldErrors,
		validator: dep.Validator,
		clock:     dep.Clock,
		tickers:   dep.Tickers,
		ins:       dep.Instrument,
		goroutine: dep.Goroutine,
	}
}

// Phase returns the current flow phase.
func (s *Flow) Phase() entity.Phase {
	return entity.Phase(s.phase.Load())
}

// Countdown returns the seconds remaining before resend is permitted.
func (s *Flow) Countdown() int32 {
	return s.countdown.Load()
}

// Submitting reports whether a request or verify call is in flight.
func (s *Flow) Submitting() bool {
	return s.submitting.Load()
}

// Form returns a copy of the current form.
func (s *Flow) Form() entity.Form {
	s.formMu.Lock()
	defer s.formMu.Unlock()

	return s.form
}

// Close stops the countdown task. The flow must not be used afterwards.
func (s *Flow) Close() error {
	s.resetCountdown()
	return nil
}

func (s *Flow) setForm(mutate func(f *entity.Form)) {
	s.formMu.Lock()
	defer s.formMu.Unlock()

	mutate(&s.form)
}

// Rule set A: phone entry. Full name is free-form and OTP plays no part.
type requestRules struct {
	Phone    string `validate:"required,phone"`
	FullName string
}

// Rule set B: code entry. The phone rule carries over unchanged.
type verifyRules struct {
	Phone string `validate:"required,phone"`
	OTP   string `validate:"required"`
}

// rulesFor selects the validation rule set for a phase. It is evaluated
// fresh before every submit, so a phase switch switches rules atomically.
func rulesFor(phase entity.Phase, form entity.Form) any {
	if phase == entity.PhaseVerifyingOTP {
		return verifyRules{Phone: form.Phone, OTP: form.OTP}
	}

	return requestRules{Phone: form.Phone, FullName: form.FullName}
}

// reportValidation pushes per-field messages to the sink and wraps the error.
func (s *Flow) reportValidation(err error) error {
	var verr validator.V10ValidationError
	if errors.As(err, &verr) {
		for field, msg := range verr.Values() {
			s.fields.SetFieldError(field, msg)
		}
	}

	return goerror.NewInvalidInput(err)
}

func (s *Flow) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("signin.usecase").Start(ctx, name)
}
