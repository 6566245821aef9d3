package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// serve runs the handler until ctx is done, then shuts down gracefully.
func (a *App) serve(ctx context.Context, addr string, h http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("dev server listening", "address", addr)

		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "failed to close resources", "name", "Dev Server", "error", err)
		return err
	}

	slog.Info("dev server gracefully shutdown")

	return nil
}
