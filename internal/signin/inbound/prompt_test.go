package inbound

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shandysiswandi/goknock/internal/pkg/goerror"
	"github.com/shandysiswandi/goknock/internal/signin/entity"
	"github.com/shandysiswandi/goknock/internal/signin/usecase"
)

// fakeFlow scripts the state machine behind the prompt.
type fakeFlow struct {
	phase     entity.Phase
	countdown int32

	requestErr error
	resendErr  error
	verifyErrs []error

	requests []usecase.RequestCodeInput
	verifies []string
	resends  int
	backs    int
}

func (f *fakeFlow) RequestCode(_ context.Context, in usecase.RequestCodeInput) error {
	f.requests = append(f.requests, in)
	if f.requestErr != nil {
		return f.requestErr
	}

	f.phase = entity.PhaseVerifyingOTP
	return nil
}

func (f *fakeFlow) VerifyCode(_ context.Context, in usecase.VerifyCodeInput) error {
	f.verifies = append(f.verifies, in.OTP)

	if len(f.verifyErrs) > 0 {
		err := f.verifyErrs[0]
		f.verifyErrs = f.verifyErrs[1:]
		return err
	}

	return nil
}

func (f *fakeFlow) ResendCode(context.Context) error {
	f.resends++
	return f.resendErr
}

func (f *fakeFlow) Back(context.Context) {
	f.backs++
	f.phase = entity.PhaseRequestingOTP
}

func (f *fakeFlow) Phase() entity.Phase { return f.phase }

func (f *fakeFlow) Countdown() int32 { return f.countdown }

func runPrompt(t *testing.T, flow *fakeFlow, input string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	p := NewPrompt(strings.NewReader(input), &out, NewConsole(&out), flow)
	err := p.Run(context.Background())

	return out.String(), err
}

func TestPromptRun(t *testing.T) {
	t.Run("happy path signs in", func(t *testing.T) {
		// Arrange
		flow := &fakeFlow{}

		// Act
		out, err := runPrompt(t, flow, "5551234567\nJane Doe\n123456\n")

		// Assert
		if err != nil {
			t.Fatalf("Run: %v", err)
		}

		if len(flow.requests) != 1 {
			t.Fatalf("expected one code request, got %d", len(flow.requests))
		}
		if got := flow.requests[0]; got.Phone != "5551234567" || got.FullName != "Jane Doe" {
			t.Fatalf("unexpected request input %+v", got)
		}
		if len(flow.verifies) != 1 || flow.verifies[0] != "123456" {
			t.Fatalf("expected one verify with 123456, got %v", flow.verifies)
		}

		if !strings.Contains(out, "Phone number: ") {
			t.Fatalf("expected the phone label, got %q", out)
		}
	})

	t.Run("wrong code allows a retry", func(t *testing.T) {
		// Arrange
		flow := &fakeFlow{
			verifyErrs: []error{goerror.NewBusiness("Wrong code, check the message we sent you", goerror.CodeInvalidInput)},
		}

		// Act
		_, err := runPrompt(t, flow, "5551234567\n\n000000\n123456\n")

		// Assert
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(flow.verifies) != 2 || flow.verifies[0] != "000000" || flow.verifies[1] != "123456" {
			t.Fatalf("expected a retry after the rejection, got %v", flow.verifies)
		}
	})

	t.Run("back returns to phone entry", func(t *testing.T) {
		// Arrange
		flow := &fakeFlow{}

		// Act
		out, err := runPrompt(t, flow, "5551234567\n\n/back\n5559876543\n\n123456\n")

		// Assert
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if flow.backs != 1 {
			t.Fatalf("expected one back, got %d", flow.backs)
		}
		if len(flow.requests) != 2 {
			t.Fatalf("expected two code requests, got %d", len(flow.requests))
		}
		if got := flow.requests[1].Phone; got != "5559876543" {
			t.Fatalf("expected the corrected phone, got %q", got)
		}

		if got := strings.Count(out, "Phone number: "); got != 2 {
			t.Fatalf("expected the phone label twice, got %d in %q", got, out)
		}
	})

	t.Run("resend rejection prints the reason", func(t *testing.T) {
		// Arrange
		flow := &fakeFlow{
			resendErr: goerror.NewBusiness("Wait before asking for another code", goerror.CodeTooManyRequest),
		}

		// Act
		out, err := runPrompt(t, flow, "5551234567\n\n/resend\n123456\n")

		// Assert
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if flow.resends != 1 {
			t.Fatalf("expected one resend, got %d", flow.resends)
		}
		if !strings.Contains(out, "Wait before asking for another code") {
			t.Fatalf("expected the rejection reason, got %q", out)
		}
	})

	t.Run("quit ends the loop", func(t *testing.T) {
		// Arrange
		flow := &fakeFlow{}

		// Act
		_, err := runPrompt(t, flow, "5551234567\n\n/quit\n")

		// Assert
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(flow.verifies) != 0 {
			t.Fatalf("expected no verify, got %v", flow.verifies)
		}
	})

	t.Run("end of input ends the loop", func(t *testing.T) {
		// Arrange
		flow := &fakeFlow{}

		// Act
		_, err := runPrompt(t, flow, "")

		// Assert
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	})

	t.Run("label shows the remaining cooldown", func(t *testing.T) {
		// Arrange
		flow := &fakeFlow{countdown: 17}

		// Act
		out, err := runPrompt(t, flow, "5551234567\n\n/quit\n")

		// Assert
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if !strings.Contains(out, "resend in 17 seconds") {
			t.Fatalf("expected the cooldown in the label, got %q", out)
		}
	})

	t.Run("cancelled context stops the loop", func(t *testing.T) {
		// Arrange
		flow := &fakeFlow{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var out bytes.Buffer
		p := NewPrompt(strings.NewReader("5551234567\n"), &out, NewConsole(&out), flow)

		// Act
		err := p.Run(ctx)

		// Assert
		if err == nil {
			t.Fatalf("expected a context error")
		}
	})
}
