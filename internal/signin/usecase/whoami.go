package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goknock/internal/pkg/goerror"
	"github.com/shandysiswandi/goknock/internal/pkg/jwt"
	"github.com/shandysiswandi/goknock/internal/signin/entity"
)

type WhoamiOutput struct {
	UserID    int64
	FullName  string
	Phone     string
	ExpiresAt time.Time
	Expired   bool
}

// Whoami reports the identity stored in the local session.
//
// The access token claims are peeked without signature verification; the
// client holds no signing key and the result is display-only.
func (s *Flow) Whoami(ctx context.Context) (*WhoamiOutput, error) {
	ctx, span := s.startSpan(ctx, "Whoami")
	defer span.End()

	sess, err := s.sessions.Load(ctx)
	if errors.Is(err, entity.ErrNoSession) {
		return nil, goerror.NewBusiness("You are not signed in", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to load session", "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &WhoamiOutput{
		UserID:    sess.User.ID,
		FullName:  sess.User.FullName,
		Phone:     sess.User.Phone,
		ExpiresAt: sess.ExpiresAt,
		Expired:   sess.Expired(s.clock.Now()),
	}

	claims, err := jwt.Peek(sess.AccessToken)
	if err != nil {
		slog.WarnContext(ctx, "stored access token is not decodable", "error", err)
		return out, nil
	}

	if claims.UserID != 0 {
		out.UserID = claims.UserID
	}
	if claims.UserName != "" {
		out.FullName = claims.UserName
	}
	if claims.UserPhone != "" {
		out.Phone = claims.UserPhone
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
		out.Expired = s.clock.Now().After(claims.ExpiresAt.Time)
	}

	return out, nil
}
