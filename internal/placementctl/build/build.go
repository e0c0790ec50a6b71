// Package build holds version information set at link time, e.g.,
// go build -ldflags "-X github.com/armadaproject/placement/internal/placementctl/build.ReleaseVersion=v0.1.0".
package build

import "runtime"

var (
	ReleaseVersion = "dev"
	GitCommit      = "none"
	BuildTime      = "unknown"
	GoVersion      = runtime.Version()
)
