package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/goknock/internal/pkg/clock"
	"github.com/shandysiswandi/goknock/internal/pkg/goroutine"
	"github.com/shandysiswandi/goknock/internal/pkg/instrument"
	"github.com/shandysiswandi/goknock/internal/pkg/validator"
	"github.com/shandysiswandi/goknock/internal/signin/entity"
)

type fakeAPI struct {
	mu sync.Mutex

	requestErr   error
	requestPanic bool
	requestCalls int
	lastPhone    string
	lastFullName string

	verifySess  *entity.Session
	verifyErr   error
	verifyCalls int
	lastOTP     string
}

func (f *fakeAPI) RequestOTP(_ context.Context, phone, fullName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requestCalls++
	f.lastPhone = phone
	f.lastFullName = fullName

	if f.requestPanic {
		panic("transport exploded")
	}

	return f.requestErr
}

func (f *fakeAPI) VerifyOTP(_ context.Context, phone, otp string) (*entity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.verifyCalls++
	f.lastPhone = phone
	f.lastOTP = otp

	if f.verifyErr != nil {
		return nil, f.verifyErr
	}

	return f.verifySess, nil
}

type fakeSessionStore struct {
	mu sync.Mutex

	saved    []entity.Session
	loadSess *entity.Session
	loadErr  error
	clearErr error
	cleared  int
}

func (f *fakeSessionStore) Save(_ context.Context, sess entity.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.saved = append(f.saved, sess)
	return nil
}

func (f *fakeSessionStore) Load(context.Context) (*entity.Session, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.loadSess, nil
}

func (f *fakeSessionStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cleared++
	return f.clearErr
}

func (f *fakeSessionStore) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.saved)
}

type notification struct {
	severity entity.Severity
	message  string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (f *fakeNotifier) Notify(_ context.Context, severity entity.Severity, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, notification{severity: severity, message: message})
}

func (f *fakeNotifier) last() (notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.events) == 0 {
		return notification{}, false
	}
	return f.events[len(f.events)-1], true
}

type fakeFieldErrors struct {
	mu   sync.Mutex
	errs map[string]string
	sets int
}

func newFakeFieldErrors() *fakeFieldErrors {
	return &fakeFieldErrors{errs: make(map[string]string)}
}

func (f *fakeFieldErrors) SetFieldError(field, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.errs[field] = message
	f.sets++
}

func (f *fakeFieldErrors) ClearFieldErrors(fields ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(fields) == 0 {
		clear(f.errs)
		return
	}
	for _, field := range fields {
		delete(f.errs, field)
	}
}

func (f *fakeFieldErrors) get(field string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg, ok := f.errs[field]
	return msg, ok
}

// fakeTicker is driven manually by tests through tick.
type fakeTicker struct {
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTicker) Chan() <-chan time.Time {
	return f.ch
}

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopped = true
}

func (f *fakeTicker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.stopped
}

func (f *fakeTicker) tick() {
	f.ch <- time.Time{}
}

type fakeTickerFactory struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *fakeTickerFactory) NewTicker(time.Duration) clock.Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()

	tk := &fakeTicker{ch: make(chan time.Time)}
	f.tickers = append(f.tickers, tk)
	return tk
}

func (f *fakeTickerFactory) latest() *fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.tickers) == 0 {
		return nil
	}
	return f.tickers[len(f.tickers)-1]
}

type flowFixture struct {
	flow    *Flow
	api     *fakeAPI
	store   *fakeSessionStore
	notif   *fakeNotifier
	fields  *fakeFieldErrors
	tickers *fakeTickerFactory
	tasks   *goroutine.Manager
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator: %v", err)
	}

	fx := &flowFixture{
		api:     &fakeAPI{},
		store:   &fakeSessionStore{},
		notif:   &fakeNotifier{},
		fields:  newFakeFieldErrors(),
		tickers: &fakeTickerFactory{},
		tasks:   goroutine.NewManager(4),
	}

	fx.flow = New(Dependency{
		API:         fx.api,
		Sessions:    fx.store,
		Notifier:    fx.notif,
		FieldErrors: fx.fields,
		Validator:   v,
		Clock:       clock.New(),
		Tickers:     fx.tickers,
		Instrument:  instrument.NewNoop(),
		Goroutine:   fx.tasks,
	})

	t.Cleanup(func() {
		_ = fx.flow.Close()
	})

	return fx
}

// toVerifying drives the flow into the verification phase with a successful
// code request.
func (fx *flowFixture) toVerifying(t *testing.T, phone, fullName string) {
	t.Helper()

	if err := fx.flow.RequestCode(context.Background(), RequestCodeInput{Phone: phone, FullName: fullName}); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	if got := fx.flow.Phase(); got != entity.PhaseVerifyingOTP {
		t.Fatalf("expected phase VerifyingOTP, got %v", got)
	}
}

// tickDown delivers n ticks and waits for the countdown to absorb them.
func (fx *flowFixture) tickDown(t *testing.T, n int) {
	t.Helper()

	want := fx.flow.Countdown() - int32(n)
	if want < 0 {
		want = 0
	}

	tk := fx.tickers.latest()
	if tk == nil {
		t.Fatalf("no ticker was started")
	}

	for range n {
		tk.tick()
	}

	waitFor(t, func() bool { return fx.flow.Countdown() == want })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("condition not met within deadline")
}
