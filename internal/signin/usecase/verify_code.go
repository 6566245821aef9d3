package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/goknock/internal/pkg/goerror"
	"github.com/shandysiswandi/goknock/internal/signin/entity"
)

type VerifyCodeInput struct {
	OTP string
}

// VerifyCode submits the received code for the phone currently on the form.
// A rejected code keeps the flow in the verification phase so the user can
// retry; a success hands the session to the store fire-and-forget.
func (s *Flow) VerifyCode(ctx context.Context, in VerifyCodeInput) error {
	ctx, span := s.startSpan(ctx, "VerifyCode")
	defer span.End()

	if s.Phase() != entity.PhaseVerifyingOTP {
		return goerror.NewBusiness("No code has been requested yet", goerror.CodeInvalidInput)
	}

	in.OTP = strings.TrimSpace(in.OTP)

	s.fields.ClearFieldErrors(fieldOTP)

	form := s.Form()
	form.OTP = in.OTP

	if err := s.validator.Validate(rulesFor(entity.PhaseVerifyingOTP, form)); err != nil {
		return s.reportValidation(err)
	}

	s.setForm(func(f *entity.Form) { f.OTP = in.OTP })

	s.submitting.Store(true)
	defer s.submitting.Store(false)

	sess, err := s.api.VerifyOTP(ctx, form.Phone, in.OTP)
	if errors.Is(err, entity.ErrOTPRejected) {
		slog.WarnContext(ctx, "otp code rejected", "phone", form.Phone)
		s.fields.SetFieldError(fieldOTP, msgWrongCode)
		return goerror.NewBusiness(msgWrongCode, goerror.CodeInvalidInput)
	}
	if err != nil {
		slog.ErrorContext(ctx, "verify otp failed", "phone", form.Phone, "error", err)
		s.notifier.Notify(ctx, entity.SeverityError, msgServerError)
		return goerror.NewServer(err)
	}

	s.notifier.Notify(ctx, entity.SeveritySuccess, msgSignedIn)

	persisted := *sess
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.sessions.Save(ctx, persisted); err != nil {
			slog.ErrorContext(ctx, "failed to persist session", "user_id", persisted.User.ID, "error", err)
			return err
		}

		return nil
	})

	return nil
}
