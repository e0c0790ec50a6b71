package placementctl

import (
	"fmt"
	"text/tabwriter"

	"github.com/armadaproject/placement/internal/placement/configuration"
	"github.com/armadaproject/placement/internal/placementctl/build"
)

type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"goVersion"`
	BuiltAt   string `json:"builtAt"`
}

func currentVersion() VersionInfo {
	return VersionInfo{
		Version:   build.ReleaseVersion,
		Commit:    build.GitCommit,
		GoVersion: build.GoVersion,
		BuiltAt:   build.BuildTime,
	}
}

// Version writes build information in the configured output format.
func (a *App) Version() error {
	info := currentVersion()
	switch a.Params.Config.Output.Format {
	case configuration.YamlFormat:
		return printYaml(a.Out, info)
	case configuration.JsonFormat:
		return printJson(a.Out, info)
	}
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	for _, row := range [][2]string{
		{"Version", info.Version},
		{"Commit", info.Commit},
		{"Go version", info.GoVersion},
		{"Built", info.BuiltAt},
	} {
		fmt.Fprintf(w, "%s:\t%s\n", row[0], row[1])
	}
	return w.Flush()
}
