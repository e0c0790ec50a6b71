package app

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/armadaproject/placement/internal/common/placementcontext"
)

// CreateContextWithShutdown returns a context carrying the standard logger that reports done when SIGINT or SIGTERM
// is received. Calling the returned cancel func stops listening for signals.
func CreateContextWithShutdown() (*placementcontext.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return placementcontext.New(ctx, logrus.NewEntry(logrus.StandardLogger())), cancel
}
