package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fillip1984/inveniam/config"
)

var Version = "dev"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "inveniam",
		Short:         "Inveniam - kanban boards with due-date reports",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to inveniam.toml (default $INVENIAM_CONFIG or ./inveniam.toml)")

	load := func() (config.Config, error) {
		return config.Load(configPath)
	}

	rootCmd.AddCommand(serveCmd(load))
	rootCmd.AddCommand(triggerReportCmd(load))
	rootCmd.AddCommand(moveTaskCmd(load))
	rootCmd.AddCommand(moveBucketCmd(load))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
