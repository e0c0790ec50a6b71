package placementctl

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/armadaproject/placement/internal/placement"
	"github.com/armadaproject/placement/internal/placement/configuration"
	"github.com/armadaproject/placement/internal/placement/instanceplan"
)

// App is the placement command-line application.
type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out is where output of the command is written to.
	Out io.Writer
	// Used to generate the uuids of new instances.
	IdGenerator func() string
	// Metrics recorded by all placement runs of the app.
	Metrics  *placement.Metrics
	Registry *prometheus.Registry
}

// Params struct holds all user-customizable parameters.
// Using a single struct for all CLI commands ensures that all flags are distinct
// and that they can be provided either dynamically on a command line, or
// statically in a config file that's reused between command runs.
type Params struct {
	Config configuration.PlacementConfig
}

// New instantiates an App with default parameters, including standard output
// and a registry holding the placement metrics.
func New() *App {
	registry := prometheus.NewRegistry()
	metrics := placement.NewMetrics()
	// Registering fresh collectors with a fresh registry can't fail.
	_ = metrics.Register(registry)
	return &App{
		Params: &Params{
			Config: configuration.PlacementConfig{
				Output:      configuration.OutputConfig{Format: configuration.TableFormat},
				Parallelism: 1,
			},
		},
		Out:         os.Stdout,
		IdGenerator: uuid.NewString,
		Metrics:     metrics,
		Registry:    registry,
	}
}

func (a *App) picker() *placement.StaticAvailabilityZonePicker {
	idGenerator := a.IdGenerator
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	return placement.NewStaticAvailabilityZonePicker(instanceplan.NewFactoryWithIdGenerator(idGenerator), a.Metrics)
}

func (a *App) parallelism() int {
	if a.Params.Config.Parallelism < 1 {
		return 1
	}
	return a.Params.Config.Parallelism
}
