package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/stylesearch/internal/config"
	"github.com/kailas-cloud/stylesearch/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var env string

	rootCmd := &cobra.Command{
		Use:          "stylesearch",
		Short:        "Semantic hairstyle search service",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&env, "env", config.GetEnv(),
		"Environment name; selects config/<env>.yaml (default from ENV)")

	rootCmd.AddCommand(
		newServeCmd(&env),
		newReindexCmd(&env),
		newSelftestCmd(&env),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, _ []string) {
				cmd.Println(version.String())
			},
		},
	)
	return rootCmd
}
