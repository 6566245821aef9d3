package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/goknock/internal/pkg/goerror"
	"github.com/shandysiswandi/goknock/internal/signin/entity"
)

type RequestCodeInput struct {
	Phone    string
	FullName string
}

// RequestCode asks the identity API to send a one-time code to the phone.
// On success the flow advances to the verification phase and the resend
// cooldown starts.
func (s *Flow) RequestCode(ctx context.Context, in RequestCodeInput) error {
	ctx, span := s.startSpan(ctx, "RequestCode")
	defer span.End()

	in.Phone = strings.TrimSpace(in.Phone)
	in.FullName = strings.TrimSpace(in.FullName)

	s.fields.ClearFieldErrors(fieldPhone, fieldFullName)

	form := entity.Form{Phone: in.Phone, FullName: in.FullName}
	if err := s.validator.Validate(rulesFor(entity.PhaseRequestingOTP, form)); err != nil {
		return s.reportValidation(err)
	}

	s.setForm(func(f *entity.Form) {
		f.Phone = in.Phone
		f.FullName = in.FullName
	})

	s.submitting.Store(true)
	defer s.submitting.Store(false)

	if err := s.api.RequestOTP(ctx, in.Phone, in.FullName); err != nil {
		slog.WarnContext(ctx, "request otp failed", "phone", in.Phone, "error", err)
		s.fields.SetFieldError(fieldPhone, msgSendFailed)
		return goerror.NewServer(err)
	}

	s.fields.ClearFieldErrors(fieldOTP)
	s.phase.Store(int32(entity.PhaseVerifyingOTP))
	s.armCountdown(resendCooldownSeconds)
	s.notifier.Notify(ctx, entity.SeveritySuccess, msgCodeSent)

	return nil
}
