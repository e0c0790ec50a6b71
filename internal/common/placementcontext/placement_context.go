// Package placementcontext couples a context.Context with the logger of a placement run,
// so that log fields such as the job or scenario name follow the run through every call.
package placementcontext

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Context struct {
	context.Context
	Log *logrus.Entry
}

func New(ctx context.Context, log *logrus.Entry) *Context {
	return &Context{
		Context: ctx,
		Log:     log,
	}
}

// WithLogField returns a copy of parent logging with the additional field.
func WithLogField(parent *Context, key string, val interface{}) *Context {
	return New(parent.Context, parent.Log.WithField(key, val))
}

func WithLogFields(parent *Context, fields logrus.Fields) *Context {
	return New(parent.Context, parent.Log.WithFields(fields))
}

// ErrGroup is errgroup.WithContext for placement contexts; goroutines of the group log through ctx's logger.
func ErrGroup(ctx *Context) (*errgroup.Group, *Context) {
	group, groupCtx := errgroup.WithContext(ctx)
	return group, New(groupCtx, ctx.Log)
}
