package placementctl

import (
	"github.com/armadaproject/placement/internal/common/metrics"
	"github.com/armadaproject/placement/internal/common/placementcontext"
	"github.com/armadaproject/placement/internal/common/serve"
)

// ServeMetrics exposes the metrics recorded by the app until ctx is cancelled.
// Does nothing unless metrics are enabled.
func (a *App) ServeMetrics(ctx *placementcontext.Context) error {
	config := a.Params.Config.Metrics
	if !config.Enabled {
		return nil
	}
	ctx.Log.Infof("serving metrics on :%d/metrics", config.Port)
	return serve.ListenAndServe(ctx, metrics.NewMetricsServer(config.Port, a.Registry))
}
