package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/placement/internal/placementctl"
)

func versionCmd(a *placementctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Version()
		},
	}
	return cmd
}
