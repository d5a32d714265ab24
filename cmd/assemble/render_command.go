package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/visually/visually-api/internal/domain/entities"
	"github.com/visually/visually-api/internal/usecase/video"
	"github.com/visually/visually-api/pkg/jobcontext"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var model string

	cmd := &cobra.Command{
		Use:   "render <audio.mp3>",
		Short: "Assemble and render a video for the narration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, cleanup, err := ctx.runner(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer cleanup()

			runCtx, cancel := jobcontext.RunBegin(cmd.Context(), uuid.New(), jobcontext.ModeCLI, ctx.cfg.Server.RunTimeout)
			defer cancel()

			in := cliInput(args[0], model)
			if !jsonOutput {
				in.OnSubmitted = func(job entities.RenderJob) {
					fmt.Fprintf(cmd.ErrOrStderr(), "render submitted: %s\n", job.ID)
				}
			}

			var result *video.Result
			err = jobcontext.RunEnd(runCtx, func(runCtx context.Context) error {
				result, err = runner.Run(runCtx, in)
				return err
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, result)
			}
			fmt.Fprintln(cmd.OutOrStdout(), timelineTable(result.Timeline))
			fmt.Fprintf(cmd.OutOrStdout(), "video: %s\n", result.VideoURL)
			fmt.Fprintf(cmd.OutOrStdout(), "took:  %s\n", result.ProcessingTime.Round(time.Second))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	cmd.Flags().StringVar(&model, "model", "", "Transcription model")
	return cmd
}
