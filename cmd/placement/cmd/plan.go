package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/placement/internal/common/app"
	"github.com/armadaproject/placement/internal/placementctl"
)

func planCmd(a *placementctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Place the job of each scenario and print the resulting instance plans",
		Long: `Place the job of each scenario and print the resulting instance plans.

Existing instances keep their static ips and zones where possible; new instances are spread over zones
in proportion to the static ips available there. If metrics are enabled, they are served after planning
until the command is interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, err := cmd.Flags().GetString(scenariosFlag)
			if err != nil {
				return err
			}
			ctx, cancel := app.CreateContextWithShutdown()
			defer cancel()

			planErr := a.PlanScenarios(ctx, pattern)
			if err := a.ServeMetrics(ctx); err != nil {
				return err
			}
			return planErr
		},
	}
	addScenariosFlag(cmd.Flags())
	if err := cmd.MarkFlagRequired(scenariosFlag); err != nil {
		panic(err)
	}
	return cmd
}
