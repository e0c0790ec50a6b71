package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/placement/internal/common/app"
	"github.com/armadaproject/placement/internal/placementctl"
)

func validateCmd(a *placementctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the static ips of each scenario against its availability zones without placing instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, err := cmd.Flags().GetString(scenariosFlag)
			if err != nil {
				return err
			}
			ctx, cancel := app.CreateContextWithShutdown()
			defer cancel()
			return a.ValidateScenarios(ctx, pattern)
		},
	}
	addScenariosFlag(cmd.Flags())
	if err := cmd.MarkFlagRequired(scenariosFlag); err != nil {
		panic(err)
	}
	return cmd
}
