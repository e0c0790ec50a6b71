package logging

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/armadaproject/placement/internal/common/placementerrors"
)

const Stacktrace = "stacktrace"

// WithStacktrace adds err to logger, together with the deepest stack trace recorded in its chain and
// the job, network, availability zone or ip any placement error in the chain refers to.
func WithStacktrace(logger *logrus.Entry, err error) *logrus.Entry {
	fields := errorFields(err)
	if stack := ExtractStack(err); stack != nil {
		fields[Stacktrace] = stack
	}
	return logger.WithError(err).WithFields(fields)
}

// ExtractStack returns the stack trace recorded closest to the root cause of err, or nil if there is none.
func ExtractStack(err error) errors.StackTrace {
	var rv errors.StackTrace
	for ; err != nil; err = errors.Unwrap(err) {
		if tracer, ok := err.(interface{ StackTrace() errors.StackTrace }); ok {
			rv = tracer.StackTrace()
		}
	}
	return rv
}

func errorFields(err error) logrus.Fields {
	fields := logrus.Fields{}
	setIfNotEmpty := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	var configurationErr *placementerrors.ErrConfiguration
	if errors.As(err, &configurationErr) {
		setIfNotEmpty("job", configurationErr.Job)
	}
	var exhaustedErr *placementerrors.ErrPlacementExhausted
	if errors.As(err, &exhaustedErr) {
		setIfNotEmpty("job", exhaustedErr.Job)
		setIfNotEmpty("network", exhaustedErr.Network)
		setIfNotEmpty("az", exhaustedErr.Az)
	}
	var lookupErr *placementerrors.ErrLookup
	if errors.As(err, &lookupErr) {
		setIfNotEmpty("network", lookupErr.Network)
		setIfNotEmpty("ip", lookupErr.Ip)
	}
	var invalidErr *placementerrors.ErrInvalidArgument
	if errors.As(err, &invalidErr) {
		setIfNotEmpty("field", invalidErr.Name)
	}
	return fields
}
