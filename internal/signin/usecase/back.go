package usecase

import (
	"context"

	"github.com/shandysiswandi/goknock/internal/signin/entity"
)

// Back returns from the verification phase to phone entry. Phone and full
// name are preserved, the entered code and its error are discarded, and the
// resend countdown stops. Outside the verification phase it does nothing, so
// repeating it is harmless. No network call is involved.
func (s *Flow) Back(ctx context.Context) {
	_, span := s.startSpan(ctx, "Back")
	defer span.End()

	if s.Phase() != entity.PhaseVerifyingOTP {
		return
	}

	s.resetCountdown()
	s.setForm(func(f *entity.Form) { f.OTP = "" })
	s.fields.ClearFieldErrors(fieldOTP)
	s.phase.Store(int32(entity.PhaseRequestingOTP))
}
