package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/visually/visually-api/internal/usecase/video"
	"github.com/visually/visually-api/pkg/jobcontext"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var model string

	cmd := &cobra.Command{
		Use:   "plan <audio.mp3>",
		Short: "Transcribe, rank and match footage without rendering",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, cleanup, err := ctx.runner(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cleanup()

			runCtx, cancel := jobcontext.RunBegin(cmd.Context(), uuid.New(), jobcontext.ModeCLI, ctx.cfg.Server.RunTimeout)
			defer cancel()

			var plan *video.Plan
			err = jobcontext.RunEnd(runCtx, func(runCtx context.Context) error {
				plan, err = runner.Plan(runCtx, cliInput(args[0], model))
				return err
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, plan)
			}
			fmt.Fprintln(cmd.OutOrStdout(), sentencesTable(plan))
			fmt.Fprintln(cmd.OutOrStdout(), timelineTable(plan.Timeline))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the plan as JSON")
	cmd.Flags().StringVar(&model, "model", "", "Transcription model")
	return cmd
}

func cliInput(path, model string) video.Input {
	return video.Input{
		AudioPath:   path,
		ContentType: "audio/mpeg",
		Model:       model,
		RetainLocal: true,
	}
}
