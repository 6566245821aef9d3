package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/goknock/internal/pkg/goerror"
	"github.com/shandysiswandi/goknock/internal/signin/entity"
)

func TestFlowVerifyCode(t *testing.T) {
	session := &entity.Session{
		AccessToken:  "at",
		RefreshToken: "rt",
		User:         entity.User{ID: 1001, FullName: "Jane Doe", Phone: "5551234567"},
	}

	t.Run("rejected before a code was requested", func(t *testing.T) {
		// Arrange
		fx := newFlowFixture(t)

		// Act
		err := fx.flow.VerifyCode(context.Background(), VerifyCodeInput{OTP: "123456"})

		// Assert
		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Type() != goerror.TypeBusiness {
			t.Fatalf("expected a business error, got %v", err)
		}

		if fx.api.verifyCalls != 0 {
			t.Fatalf("expected no API call, got %d", fx.api.verifyCalls)
		}
	})

	t.Run("empty code fails validation", func(t *testing.T) {
		// Arrange
		fx := newFlowFixture(t)
		fx.toVerifying(t, "5551234567", "Jane Doe")

		// Act
		err := fx.flow.VerifyCode(context.Background(), VerifyCodeInput{OTP: "  "})

		// Assert
		if err == nil {
			t.Fatalf("expected a validation error")
		}

		if _, ok := fx.fields.get("otp"); !ok {
			t.Fatalf("expected an otp field error")
		}

		if fx.api.verifyCalls != 0 {
			t.Fatalf("expected no API call, got %d", fx.api.verifyCalls)
		}
	})

	t.Run("wrong code keeps the flow in place", func(t *testing.T) {
		// Arrange
		fx := newFlowFixture(t)
		fx.toVerifying(t, "5551234567", "Jane Doe")
		fx.api.verifyErr = entity.ErrOTPRejected

		before := fx.flow.Countdown()

		// Act
		err := fx.flow.VerifyCode(context.Background(), VerifyCodeInput{OTP: "000000"})

		// Assert
		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Type() != goerror.TypeBusiness {
			t.Fatalf("expected a business error, got %v", err)
		}

		msg, ok := fx.fields.get("otp")
		if !ok || msg != msgWrongCode {
			t.Fatalf("expected otp field error %q, got %q", msgWrongCode, msg)
		}

		if fx.fields.sets != 1 {
			t.Fatalf("expected exactly one field error, got %d", fx.fields.sets)
		}

		if got := fx.flow.Phase(); got != entity.PhaseVerifyingOTP {
			t.Fatalf("expected to stay in VerifyingOTP, got %v", got)
		}

		if got := fx.flow.Countdown(); got != before {
			t.Fatalf("expected countdown untouched at %d, got %d", before, got)
		}

		if fx.flow.Submitting() {
			t.Fatalf("expected submitting to be released")
		}

		if fx.store.savedCount() != 0 {
			t.Fatalf("expected no session save")
		}
	})

	t.Run("retry after a wrong code succeeds", func(t *testing.T) {
		// Arrange
		fx := newFlowFixture(t)
		fx.toVerifying(t, "5551234567", "Jane Doe")

		fx.api.verifyErr = entity.ErrOTPRejected
		if err := fx.flow.VerifyCode(context.Background(), VerifyCodeInput{OTP: "000000"}); err == nil {
			t.Fatalf("expected the first attempt to fail")
		}

		fx.api.verifyErr = nil
		fx.api.verifySess = session

		// Act
		err := fx.flow.VerifyCode(context.Background(), VerifyCodeInput{OTP: "123456"})

		// Assert
		if err != nil {
			t.Fatalf("VerifyCode: %v", err)
		}

		if _, ok := fx.fields.get("otp"); ok {
			t.Fatalf("expected the otp field error to be cleared on retry")
		}

		if fx.api.lastOTP != "123456" {
			t.Fatalf("expected otp 123456 on the wire, got %q", fx.api.lastOTP)
		}
	})

	t.Run("success persists the session and notifies", func(t *testing.T) {
		// Arrange
		fx := newFlowFixture(t)
		fx.toVerifying(t, "5551234567", "Jane Doe")
		fx.api.verifySess = session

		// Act
		err := fx.flow.VerifyCode(context.Background(), VerifyCodeInput{OTP: " 123456 "})

		// Assert
		if err != nil {
			t.Fatalf("VerifyCode: %v", err)
		}

		fx.tasks.Wait()
		if fx.store.savedCount() != 1 {
			t.Fatalf("expected one session save, got %d", fx.store.savedCount())
		}
		if got := fx.store.saved[0].User.ID; got != 1001 {
			t.Fatalf("expected saved user 1001, got %d", got)
		}

		n, ok := fx.notif.last()
		if !ok || n.severity != entity.SeveritySuccess || n.message != msgSignedIn {
			t.Fatalf("expected success notification %q, got %+v", msgSignedIn, n)
		}

		if fx.flow.Submitting() {
			t.Fatalf("expected submitting to be released")
		}
	})

	t.Run("server failure notifies without touching fields", func(t *testing.T) {
		// Arrange
		fx := newFlowFixture(t)
		fx.toVerifying(t, "5551234567", "Jane Doe")
		fx.api.verifyErr = errors.New("upstream timeout")

		// Act
		err := fx.flow.VerifyCode(context.Background(), VerifyCodeInput{OTP: "123456"})

		// Assert
		var gerr *goerror.Error
		if !errors.As(err, &gerr) || gerr.Type() != goerror.TypeServer {
			t.Fatalf("expected a server error, got %v", err)
		}

		if _, ok := fx.fields.get("otp"); ok {
			t.Fatalf("expected no otp field error on a server failure")
		}

		n, ok := fx.notif.last()
		if !ok || n.severity != entity.SeverityError || n.message != msgServerError {
			t.Fatalf("expected error notification %q, got %+v", msgServerError, n)
		}

		if fx.flow.Submitting() {
			t.Fatalf("expected submitting to be released")
		}
	})
}
