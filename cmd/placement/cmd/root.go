package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/armadaproject/placement/internal/common/logging"
	"github.com/armadaproject/placement/internal/common/metrics"
	"github.com/armadaproject/placement/internal/placement/configuration"
	"github.com/armadaproject/placement/internal/placementctl"
)

const (
	configFlag    = "config"
	outputFlag    = "output"
	scenariosFlag = "scenarios"
)

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	a := placementctl.New()
	logMessages := logging.NewPrometheusHook(metrics.MetricPrefix)
	a.Registry.MustRegister(logMessages)
	logrus.AddHook(logMessages)
	return rootCmd(a)
}

func rootCmd(a *placementctl.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "placement",
		Short:        "placement distributes the instances of a job over availability zones and static ips.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a.Params)
		},
	}
	cmd.PersistentFlags().StringSlice(
		configFlag,
		[]string{},
		"Fully qualified path to application configuration file (for multiple config files repeat this arg or separate paths with commas)",
	)
	cmd.PersistentFlags().StringP(outputFlag, "o", "", "Output format, one of table, yaml or json. Overrides the configured format.")

	cmd.AddCommand(
		planCmd(a),
		validateCmd(a),
		versionCmd(a),
	)
	return cmd
}

// initParams loads the configuration into params and applies the flags overriding it.
func initParams(cmd *cobra.Command, params *placementctl.Params) error {
	userSpecifiedConfigs, err := cmd.Flags().GetStringSlice(configFlag)
	if err != nil {
		return err
	}
	config, err := configuration.Load(userSpecifiedConfigs)
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString(outputFlag)
	if err != nil {
		return err
	}
	if output != "" {
		config.Output.Format = output
		if err := config.Validate(); err != nil {
			return err
		}
	}
	if err := logging.ConfigureLogLevel(config.Logging.Level); err != nil {
		return err
	}
	params.Config = config
	return nil
}

func addScenariosFlag(flags *pflag.FlagSet) {
	flags.String(scenariosFlag, "", "Glob pattern specifying the scenario files to use, e.g., \"scenarios/**/*.yaml\".")
}
