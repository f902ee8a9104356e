// Command speakeval runs the SpeakEval service and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/speakeval/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "speakeval",
		Short: "Spoken exam delivery and automatic answer scoring",
		Long: `SpeakEval serves spoken examinations. Students answer each question
aloud, transcripts are scored against the educator's expected answer, and
results are available as soon as the attempt ends.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.BaseConfigFile, "path to the base configuration file")

	load := func() (*config.Config, error) {
		return config.LoadFile(configPath)
	}

	root.AddCommand(
		serveCmd(load),
		migrateCmd(load),
		seedCmd(load),
		routesCmd(),
	)

	return root
}

type configLoader func() (*config.Config, error)
