package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/goknock/internal/pkg/goerror"
)

// Logout discards the local session. Logging out twice is not an error.
func (s *Flow) Logout(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	if err := s.sessions.Clear(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to clear session", "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
