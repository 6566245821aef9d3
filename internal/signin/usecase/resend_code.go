package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/goknock/internal/pkg/goerror"
	"github.com/shandysiswandi/goknock/internal/signin/entity"
)

// ResendCode sends the code again using the phone and full name already on
// the form, without re-validating them. It is rejected while the cooldown is
// running or while another call is in flight, and the countdown stays
// untouched in that case.
func (s *Flow) ResendCode(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "ResendCode")
	defer span.End()

	if s.Phase() != entity.PhaseVerifyingOTP {
		return goerror.NewBusiness("Nothing to resend yet", goerror.CodeInvalidInput)
	}

	if s.Countdown() > 0 {
		return goerror.NewBusiness("Wait before asking for another code", goerror.CodeTooManyRequest)
	}

	if s.Submitting() {
		return goerror.NewBusiness("Another request is still running", goerror.CodeTooManyRequest)
	}

	// Re-arm the cooldown whatever the outcome, so a failing transport
	// cannot be hammered.
	defer s.armCountdown(resendCooldownSeconds)

	form := s.Form()
	if err := s.api.RequestOTP(ctx, form.Phone, form.FullName); err != nil {
		slog.WarnContext(ctx, "resend otp failed", "phone", form.Phone, "error", err)
		s.notifier.Notify(ctx, entity.SeverityError, msgServerError)
		return goerror.NewServer(err)
	}

	s.notifier.Notify(ctx, entity.SeveritySuccess, msgCodeResent)

	return nil
}
