package serve

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const shutdownTimeout = 5 * time.Second

// ListenAndServe runs server until ctx is cancelled, then shuts it down gracefully.
// Returns nil if the server was shut down because ctx was cancelled.
func ListenAndServe(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.WithStack(err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.WithStack(err)
		}
		return nil
	}
}
