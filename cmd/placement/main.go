package main

import (
	"os"

	"github.com/armadaproject/placement/cmd/placement/cmd"
	"github.com/armadaproject/placement/internal/common/logging"
)

func main() {
	logging.ConfigureLogging()
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
