package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "assemble",
		Short:         "Turn a narration audio file into a stock-footage video",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.envFile, "env", "e", ".env", "Environment file to load before reading configuration")
	rootCmd.PersistentFlags().BoolVarP(&ctx.verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(newPlanCommand(ctx))
	rootCmd.AddCommand(newRenderCommand(ctx))

	return rootCmd
}
