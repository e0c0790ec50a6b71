// Package placementerrors contains the errors returned by the placement engine.
// Callers should look for these types with errors.As rather than matching on error strings,
// since errors are usually wrapped (with a stack trace) before being returned.
//
// If several independent problems are found (e.g., multiple static IPs declared in undeclared
// availability zones), they are returned together as a multierror.Error from package
// github.com/hashicorp/go-multierror that encapsulates the individual errors.
package placementerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrConfiguration indicates a defect in the manifest or in the inputs given to the placement engine,
// e.g., a static IP declared in an availability zone the job does not use.
// It is detected before any allocation takes place and retrying will not help.
type ErrConfiguration struct {
	// Name of the job being placed
	Job string
	// Human-readable description of the problem
	Message string
}

func (err *ErrConfiguration) Error() string {
	if err.Job == "" {
		return fmt.Sprintf("invalid configuration: %s", err.Message)
	}
	return fmt.Sprintf("job %q has invalid configuration: %s", err.Job, err.Message)
}

// ErrPlacementExhausted indicates that the static IP supply of a network is insufficient to place
// the instances of a job. Network and Az are optional and omitted from the message if not provided.
type ErrPlacementExhausted struct {
	Job     string // Name of the job being placed
	Network string // Job network that ran out of static IPs
	Az      string // Availability zone the IP was required to be in
	Message string
}

func (err *ErrPlacementExhausted) Error() (s string) {
	s = err.Message
	if s == "" {
		s = "no static IPs left"
	}
	if err.Job != "" {
		s = s + fmt.Sprintf("; job %q", err.Job)
	}
	if err.Network != "" {
		s = s + fmt.Sprintf(", network %q", err.Network)
	}
	if err.Az != "" {
		s = s + fmt.Sprintf(", availability zone %q", err.Az)
	}
	return
}

// ErrLookup indicates an internal invariant violation: an IP was looked up or claimed on a network
// that never indexed it. It is not meant to be recovered from.
type ErrLookup struct {
	Network string
	Ip      string
}

func (err *ErrLookup) Error() string {
	if err.Network == "" {
		return fmt.Sprintf("static ip %s is not indexed on any network", err.Ip)
	}
	return fmt.Sprintf("static ip %s is not indexed on network %q", err.Ip, err.Network)
}

// ErrInvalidArgument is a generic error to be returned on invalid input.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "static"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message to include with the error message, e.g., explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %q is invalid for field %q", err.Value, err.Name)
	} else {
		return fmt.Sprintf("value %q is invalid for field %q; %s", err.Value, err.Name, err.Message)
	}
}

// Reason maps error types to a short label, used e.g. as a metrics label.
// Uses errors.As to look through the chain of errors, as opposed to just considering the topmost error in the chain.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	// Using {} scopes just to re-use the "e" variable name for each case.
	{
		var e *ErrConfiguration
		if errors.As(err, &e) {
			return "configuration"
		}
	}
	{
		var e *ErrPlacementExhausted
		if errors.As(err, &e) {
			return "exhausted"
		}
	}
	{
		var e *ErrLookup
		if errors.As(err, &e) {
			return "lookup"
		}
	}
	{
		var e *ErrInvalidArgument
		if errors.As(err, &e) {
			return "invalid_argument"
		}
	}
	return "unknown"
}
